package widget

import (
	lua "github.com/yuin/gopher-lua"
)

func init() {
	RegisterModule("store", installStoreModule)
}

// installStoreModule 注册持久键值存储能力。命名空间是进程级的，
// 跨会话共享并跨进程重启存续——这是唯一一块刻意跨会话的状态。
// 并发会话间读写是 last-writer-wins，不提供跨会话一致性。
func installStoreModule(s *Session) error {
	L := s.L
	mod := L.NewTable()

	L.SetField(mod, "get", L.NewFunction(func(L *lua.LState) int {
		args := newModArgs(L, mod)
		key := args.String(1, "store.get")
		value, ok := s.host.Store.Get(key)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(value))
		return 1
	}))

	L.SetField(mod, "put", L.NewFunction(func(L *lua.LState) int {
		args := newModArgs(L, mod)
		key := args.String(1, "store.put")
		value := args.OptString(2, "")
		if err := s.host.Store.Put(key, value); err != nil {
			s.host.Logger.Warnf("store.put(%s) 落盘失败: %v", key, err)
		}
		return 0
	}))

	L.SetField(mod, "delete", L.NewFunction(func(L *lua.LState) int {
		args := newModArgs(L, mod)
		key := args.String(1, "store.delete")
		if err := s.host.Store.Delete(key); err != nil {
			s.host.Logger.Warnf("store.delete(%s) 落盘失败: %v", key, err)
		}
		return 0
	}))

	L.SetGlobal("store", mod)
	return nil
}
