package widget

import (
	"sync"

	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"
)

// ModuleInstaller 在会话的解释器上创建并注册一个命名能力表。
// 能力模块是脚本可见 API 的全集：脚本加载前装好，之后不再变化。
type ModuleInstaller func(s *Session) error

var (
	moduleRegistryMu sync.RWMutex
	moduleRegistry   = map[string]ModuleInstaller{}
	moduleOrder      []string
)

// RegisterModule 注册能力模块安装器。各模块文件在 init 里自注册。
func RegisterModule(name string, installer ModuleInstaller) {
	moduleRegistryMu.Lock()
	defer moduleRegistryMu.Unlock()
	if _, ok := moduleRegistry[name]; !ok {
		moduleOrder = append(moduleOrder, name)
	}
	moduleRegistry[name] = installer
}

func installModules(s *Session) error {
	moduleRegistryMu.RLock()
	defer moduleRegistryMu.RUnlock()
	for _, name := range moduleOrder {
		if err := moduleRegistry[name](s); err != nil {
			return errors.Wrapf(err, "安装能力模块 %s 失败", name)
		}
	}
	return nil
}

// modArgs 统一读取模块函数实参。组件脚本对模块函数惯用冒号调用
// （ui:show(...)），此时第 1 个实参是模块表自身，这里透明跳过，
// 点号调用同样成立。
type modArgs struct {
	L      *lua.LState
	offset int
}

func newModArgs(L *lua.LState, mod *lua.LTable) *modArgs {
	offset := 0
	if L.GetTop() >= 1 {
		if tbl, ok := L.Get(1).(*lua.LTable); ok && tbl == mod {
			offset = 1
		}
	}
	return &modArgs{L: L, offset: offset}
}

// Count 返回跳过 self 之后的实参个数。
func (a *modArgs) Count() int {
	n := a.L.GetTop() - a.offset
	if n < 0 {
		return 0
	}
	return n
}

// Get 返回第 n 个实参（1 起），缺席返回 LNil。
func (a *modArgs) Get(n int) lua.LValue {
	idx := n + a.offset
	if idx > a.L.GetTop() {
		return lua.LNil
	}
	return a.L.Get(idx)
}

// String 取字符串实参，缺失或类型不符时抛出脚本可见错误。
func (a *modArgs) String(n int, what string) string {
	v := a.Get(n)
	if v == lua.LNil {
		a.L.RaiseError("%s: 缺少第 %d 个参数", what, n)
	}
	return lua.LVAsString(v)
}

// OptString 取可选字符串实参。
func (a *modArgs) OptString(n int, def string) string {
	v := a.Get(n)
	if v == lua.LNil {
		return def
	}
	return lua.LVAsString(v)
}

// Func 取函数实参，缺失或类型不符时抛出脚本可见错误。
func (a *modArgs) Func(n int, what string) *lua.LFunction {
	v := a.Get(n)
	fn, ok := v.(*lua.LFunction)
	if !ok {
		a.L.RaiseError("%s: 第 %d 个参数应为函数", what, n)
		return nil
	}
	return fn
}

// Table 取可选表实参，类型不符时返回 nil。
func (a *modArgs) Table(n int) *lua.LTable {
	tbl, _ := a.Get(n).(*lua.LTable)
	return tbl
}
