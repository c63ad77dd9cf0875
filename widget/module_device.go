package widget

import (
	"github.com/golang-module/carbon"
	lua "github.com/yuin/gopher-lua"
)

func init() {
	RegisterModule("device", installDeviceModule)
	RegisterModule("system", installSystemModule)
}

// installDeviceModule 注册设备信息只读快照访问器。
func installDeviceModule(s *Session) error {
	L := s.L
	mod := L.NewTable()
	info := s.host.Device

	str := func(get func() string) *lua.LFunction {
		return L.NewFunction(func(L *lua.LState) int {
			L.Push(lua.LString(get()))
			return 1
		})
	}

	L.SetField(mod, "brand", str(func() string { return info.Brand }))
	L.SetField(mod, "model", str(func() string { return info.Model }))
	L.SetField(mod, "language", str(func() string { return info.Language }))
	L.SetField(mod, "battery", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(info.Battery))
		return 1
	}))
	L.SetField(mod, "screen", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CreateTable(0, 2)
		tbl.RawSetString("width", lua.LNumber(info.ScreenWidth))
		tbl.RawSetString("height", lua.LNumber(info.ScreenHeight))
		L.Push(tbl)
		return 1
	}))
	L.SetField(mod, "now", str(func() string {
		return carbon.Now().ToDateTimeString()
	}))

	L.SetGlobal("device", mod)
	return nil
}

// installSystemModule 注册系统动作：剪贴板、外链、震动。
// 全部即发即忘，记入会话的效果清单，绝不阻塞会话。
func installSystemModule(s *Session) error {
	L := s.L
	mod := L.NewTable()

	effect := func(kind string, withPayload bool) *lua.LFunction {
		return L.NewFunction(func(L *lua.LState) int {
			args := newModArgs(L, mod)
			payload := ""
			if withPayload {
				payload = args.OptString(1, "")
			}
			s.appendEffect(SystemEffect{Kind: kind, Payload: payload})
			return 0
		})
	}

	L.SetField(mod, "toClipboard", effect("clipboard", true))
	L.SetField(mod, "openLink", effect("open-link", true))
	L.SetField(mod, "vibrate", effect("vibrate", false))

	L.SetGlobal("system", mod)
	return nil
}
