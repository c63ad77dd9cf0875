package widget

import (
	jsoniter "github.com/json-iterator/go"
	lua "github.com/yuin/gopher-lua"
)

func init() {
	RegisterModule("json", installJSONModule)
}

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// installJSONModule 注册结构化数据编解码能力。
// decode 对畸形输入返回显式失败标记 (nil, errMessage) 而不抛错，
// 防御式脚本据此检查；encode 遇到不可编码形态（函数）抛脚本错误，
// 因为不存在合理的降级结果。
func installJSONModule(s *Session) error {
	L := s.L
	mod := L.NewTable()

	L.SetField(mod, "decode", L.NewFunction(func(L *lua.LState) int {
		args := newModArgs(L, mod)
		text := args.OptString(1, "")
		var parsed interface{}
		if err := jsonCodec.UnmarshalFromString(text, &parsed); err != nil {
			L.Push(lua.LNil)
			L.Push(lua.LString(err.Error()))
			return 2
		}
		L.Push(ToLua(L, FromInterface(parsed), nil))
		return 1
	}))

	L.SetField(mod, "encode", L.NewFunction(func(L *lua.LState) int {
		args := newModArgs(L, mod)
		hv, err := FromLua(args.Get(1), nil)
		if err != nil {
			L.RaiseError("json.encode: %s", err.Error())
			return 0
		}
		iv, err := hv.ToInterface()
		if err != nil {
			L.RaiseError("json.encode: %s", err.Error())
			return 0
		}
		text, err := jsonCodec.MarshalToString(iv)
		if err != nil {
			L.RaiseError("json.encode: %s", err.Error())
			return 0
		}
		L.Push(lua.LString(text))
		return 1
	}))

	L.SetGlobal("json", mod)
	return nil
}
