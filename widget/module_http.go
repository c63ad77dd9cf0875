package widget

import (
	"net/http"

	lua "github.com/yuin/gopher-lua"
)

func init() {
	RegisterModule("http", installHTTPModule)
}

// installHTTPModule 注册网络能力。脚本语言没有原生 await/suspend，
// 发起请求的函数立即返回，结果以 onResult(body, status, headers) 的形式
// 作为一次全新顶层再进入回调；失败走 onResult(nil, 0, nil, errMessage)。
// 回调按底层操作的完成序触发，不保证与发起序一致；聚合 N 个结果的脚本
// 需要自己维护 pending 计数。
func installHTTPModule(s *Session) error {
	L := s.L
	mod := L.NewTable()

	issue := func(method, label string, args *modArgs, bodyArg bool) {
		n := 1
		rawURL := args.String(n, label)
		n++
		body := ""
		if bodyArg {
			body = args.OptString(n, "")
			n++
		}
		// headers 可选：下一个参数是表且再下一个是函数时按 headers 解读
		headers := map[string]string{}
		if tbl := args.Table(n); tbl != nil {
			if _, isFn := args.Get(n + 1).(*lua.LFunction); isFn {
				tbl.ForEach(func(k, v lua.LValue) {
					headers[lua.LVAsString(k)] = lua.LVAsString(v)
				})
				n++
			}
		}
		fn := args.Func(n, label)

		s.resolve(&RequestDescriptor{
			Method:   method,
			URL:      rawURL,
			Body:     body,
			Headers:  headers,
			Callback: s.callbacks.Register(fn),
			Timeout:  s.reqTimeout,
		})
	}

	L.SetField(mod, "get", L.NewFunction(func(L *lua.LState) int {
		issue(http.MethodGet, "http.get", newModArgs(L, mod), false)
		return 0
	}))

	L.SetField(mod, "post", L.NewFunction(func(L *lua.LState) int {
		issue(http.MethodPost, "http.post", newModArgs(L, mod), true)
		return 0
	}))

	L.SetGlobal("http", mod)
	return nil
}
