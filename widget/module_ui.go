package widget

import (
	lua "github.com/yuin/gopher-lua"
)

func init() {
	RegisterModule("ui", installUIModule)
}

// installUIModule 注册显示能力：所有函数只向输出缓冲追加渲染命令，
// 即发即忘，无返回值。实际的图形呈现不在本工具范围内。
func installUIModule(s *Session) error {
	L := s.L
	mod := L.NewTable()

	L.SetField(mod, "show", L.NewFunction(func(L *lua.LState) int {
		args := newModArgs(L, mod)
		s.appendOutput(RenderCommand{Type: "text", Text: args.OptString(1, "")})
		return 0
	}))

	L.SetField(mod, "showMenu", L.NewFunction(func(L *lua.LState) int {
		args := newModArgs(L, mod)
		items := []string{}
		if tbl := args.Table(1); tbl != nil {
			tbl.ForEach(func(_, v lua.LValue) {
				items = append(items, lua.LVAsString(v))
			})
		}
		s.appendOutput(RenderCommand{Type: "menu", Items: items})
		return 0
	}))

	L.SetField(mod, "showChart", L.NewFunction(func(L *lua.LState) int {
		args := newModArgs(L, mod)
		points := []float64{}
		if tbl := args.Table(1); tbl != nil {
			tbl.ForEach(func(_, v lua.LValue) {
				if n, ok := v.(lua.LNumber); ok {
					points = append(points, float64(n))
				}
			})
		}
		cmd := RenderCommand{Type: "chart", Points: points}
		if opts := args.Table(2); opts != nil {
			hv, err := FromLua(opts, nil)
			if err == nil {
				if iv, err := hv.ToInterface(); err == nil {
					if m, ok := iv.(map[string]interface{}); ok {
						cmd.Opts = m
					}
				}
			}
		}
		s.appendOutput(cmd)
		return 0
	}))

	L.SetField(mod, "showToast", L.NewFunction(func(L *lua.LState) int {
		args := newModArgs(L, mod)
		s.appendOutput(RenderCommand{Type: "toast", Text: args.OptString(1, "")})
		return 0
	}))

	L.SetField(mod, "setTitle", L.NewFunction(func(L *lua.LState) int {
		args := newModArgs(L, mod)
		s.appendOutput(RenderCommand{Type: "title", Text: args.OptString(1, "")})
		return 0
	}))

	L.SetGlobal("ui", mod)
	return nil
}
