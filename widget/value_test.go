package widget

import (
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func newTestState(t *testing.T) *lua.LState {
	t.Helper()
	L := lua.NewState()
	t.Cleanup(L.Close)
	return L
}

// 往返律：对任意无函数值 x，to_guest(to_host(x)) == x。
// 通过两次 FromLua 比较宿主值来断言脚本侧相等。
func roundTrip(t *testing.T, L *lua.LState, chunk string) {
	t.Helper()
	if err := L.DoString("v = " + chunk); err != nil {
		t.Fatalf("构造脚本值失败: %v", err)
	}
	original := L.GetGlobal("v")

	hv, err := FromLua(original, nil)
	if err != nil {
		t.Fatalf("to_host(%s) 失败: %v", chunk, err)
	}
	back := ToLua(L, hv, nil)
	hv2, err := FromLua(back, nil)
	if err != nil {
		t.Fatalf("二次 to_host(%s) 失败: %v", chunk, err)
	}
	if !hv.Equal(hv2) {
		t.Fatalf("往返后值不相等: %s", chunk)
	}
}

func TestRoundTripScalars(t *testing.T) {
	L := newTestState(t)
	for _, chunk := range []string{
		"nil",
		"true",
		"false",
		"0",
		"42",
		"-1.5",
		`""`,
		`"hello"`,
		`"中文"`,
	} {
		roundTrip(t, L, chunk)
	}
}

func TestRoundTripContainers(t *testing.T) {
	L := newTestState(t)
	for _, chunk := range []string{
		"{}",
		"{1, 2, 3}",
		`{"a", "b"}`,
		`{x = 1, y = "two"}`,
		`{list = {1, 2, {3, 4}}, meta = {name = "n", tags = {}}}`,
		`{{a = 1}, {b = 2}}`,
	} {
		roundTrip(t, L, chunk)
	}
}

// 数组/对象判定：键恰为 1..n 才算数组，空表按数组约定。
func TestTableShapeDecision(t *testing.T) {
	L := newTestState(t)
	cases := []struct {
		chunk string
		kind  Kind
	}{
		{"{}", KindArray},
		{"{1, 2, 3}", KindArray},
		{`{[1] = "a", [2] = "b"}`, KindArray},
		{`{[1] = "a", [3] = "c"}`, KindMap},    // 有洞
		{`{[0] = "z", [1] = "a"}`, KindMap},    // 非 1 起
		{`{[2] = "b"}`, KindMap},               // 不含 1
		{`{1, 2, extra = true}`, KindMap},      // 混合键
		{`{[1.5] = "x"}`, KindMap},             // 非整数键
		{`{a = 1}`, KindMap},
	}
	for _, c := range cases {
		if err := L.DoString("v = " + c.chunk); err != nil {
			t.Fatalf("构造脚本值失败: %v", err)
		}
		hv, err := FromLua(L.GetGlobal("v"), nil)
		if err != nil {
			t.Fatalf("to_host(%s) 失败: %v", c.chunk, err)
		}
		if hv.Kind != c.kind {
			t.Fatalf("形态判定错误: %s got=%s want=%s", c.chunk, hv.Kind, c.kind)
		}
	}
}

func TestEmptyContainerRoundTripsAsArray(t *testing.T) {
	L := newTestState(t)
	hv, err := FromLua(L.NewTable(), nil)
	if err != nil {
		t.Fatalf("to_host 失败: %v", err)
	}
	if hv.Kind != KindArray || len(hv.Arr) != 0 {
		t.Fatalf("空容器应按数组形态往返: got=%s", hv.Kind)
	}
}

func TestFromLuaFunctionWithoutRegistrar(t *testing.T) {
	L := newTestState(t)
	if err := L.DoString("v = function() end"); err != nil {
		t.Fatalf("构造脚本值失败: %v", err)
	}
	if _, err := FromLua(L.GetGlobal("v"), nil); err == nil {
		t.Fatal("无注册器时搬运函数值应报错")
	}
}

func TestValueToInterfaceRejectsFunc(t *testing.T) {
	v := Value{Kind: KindFunc, Handle: 1}
	if _, err := v.ToInterface(); err == nil {
		t.Fatal("函数值编码应报错")
	}
}

func TestFromInterfaceNested(t *testing.T) {
	hv := FromInterface(map[string]interface{}{
		"n":    1.0,
		"list": []interface{}{"a", true, nil},
	})
	if hv.Kind != KindMap {
		t.Fatalf("顶层应为对象: got=%s", hv.Kind)
	}
	list := hv.Map["list"]
	if list.Kind != KindArray || len(list.Arr) != 3 {
		t.Fatalf("list 应为 3 元数组")
	}
	if list.Arr[2].Kind != KindNil {
		t.Fatalf("null 应转为 nil 形态")
	}
}
