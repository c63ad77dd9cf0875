package widget

import (
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestCallbackInvokeExactlyOnce(t *testing.T) {
	L := newTestState(t)
	reg := NewCallbackRegistry(nil)

	if err := L.DoString(`
		count = 0
		last = nil
		function cb(v) count = count + 1; last = v end
	`); err != nil {
		t.Fatalf("脚本初始化失败: %v", err)
	}
	fn := L.GetGlobal("cb").(*lua.LFunction)
	id := reg.Register(fn)

	reg.Invoke(L, id, lua.LString("hello"))
	reg.Invoke(L, id, lua.LString("again"))

	if n := L.GetGlobal("count"); n != lua.LNumber(1) {
		t.Fatalf("回调应恰好触发一次: count=%v", n)
	}
	if v := L.GetGlobal("last"); v != lua.LString("hello") {
		t.Fatalf("回调参数错误: %v", v)
	}
	if reg.Pending() != 0 {
		t.Fatalf("触发后句柄应被释放: pending=%d", reg.Pending())
	}
}

func TestCallbackReleaseBeforeInvoke(t *testing.T) {
	L := newTestState(t)
	reg := NewCallbackRegistry(nil)

	if err := L.DoString(`hit = false; function cb() hit = true end`); err != nil {
		t.Fatalf("脚本初始化失败: %v", err)
	}
	id := reg.Register(L.GetGlobal("cb").(*lua.LFunction))

	reg.Release(id)
	reg.Release(id) // 幂等
	reg.Invoke(L, id)

	if L.GetGlobal("hit") != lua.LFalse {
		t.Fatal("已释放的句柄不应触发回调")
	}
}

// 回调内部抛错被吞掉，不影响解释器后续使用。
func TestCallbackErrorSwallowed(t *testing.T) {
	L := newTestState(t)
	reg := NewCallbackRegistry(nil)

	if err := L.DoString(`function bad() error("boom") end`); err != nil {
		t.Fatalf("脚本初始化失败: %v", err)
	}
	id := reg.Register(L.GetGlobal("bad").(*lua.LFunction))

	reg.Invoke(L, id)

	if err := L.DoString("ok = 1"); err != nil {
		t.Fatalf("回调出错后解释器应仍可用: %v", err)
	}
	if reg.Pending() != 0 {
		t.Fatalf("出错的回调也应释放句柄: pending=%d", reg.Pending())
	}
}

func TestCallbackReleaseAll(t *testing.T) {
	L := newTestState(t)
	reg := NewCallbackRegistry(nil)

	if err := L.DoString(`function cb() end`); err != nil {
		t.Fatalf("脚本初始化失败: %v", err)
	}
	fn := L.GetGlobal("cb").(*lua.LFunction)
	reg.Register(fn)
	reg.Register(fn)
	if reg.Pending() != 2 {
		t.Fatalf("注册计数错误: %d", reg.Pending())
	}
	reg.ReleaseAll()
	if reg.Pending() != 0 {
		t.Fatalf("ReleaseAll 后应无在钉句柄: %d", reg.Pending())
	}
}
