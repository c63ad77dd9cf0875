package widget

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/Danz17/AIO-Launcher-Widget-sub000/widget/luahost"
)

// Kind 标记跨宿主/脚本边界传递的值的形态。
// 脚本侧的 table 在数组与对象之间形态不定，
// 搬运层在进入宿主侧时就把判定结果固化在 Kind 上。
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindMap
	KindFunc
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindFunc:
		return "function"
	default:
		return "unknown"
	}
}

// Value 是宿主侧的带标签变体值。
// 函数值只携带回调句柄编号，真正的函数引用钉在会话的回调注册表里。
type Value struct {
	Kind   Kind
	Bool   bool
	Number float64
	Str    string
	Arr    []Value
	Map    map[string]Value
	Handle CallbackID
}

// 便捷构造器。
func Nil() Value              { return Value{Kind: KindNil} }
func Bool(b bool) Value       { return Value{Kind: KindBool, Bool: b} }
func Number(n float64) Value  { return Value{Kind: KindNumber, Number: n} }
func String(s string) Value   { return Value{Kind: KindString, Str: s} }
func Array(vs ...Value) Value { return Value{Kind: KindArray, Arr: vs} }
func Map(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{Kind: KindMap, Map: m}
}

// Equal 对无函数值做结构相等比较。含函数句柄的值按句柄编号比较。
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNil:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindNumber:
		return v.Number == o.Number
	case KindString:
		return v.Str == o.Str
	case KindArray:
		if len(v.Arr) != len(o.Arr) {
			return false
		}
		for i := range v.Arr {
			if !v.Arr[i].Equal(o.Arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.Map) != len(o.Map) {
			return false
		}
		for k, a := range v.Map {
			b, ok := o.Map[k]
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	case KindFunc:
		return v.Handle == o.Handle
	}
	return false
}

// funcRegistrar 把脚本函数钉进回调注册表并返回句柄。
// 传 nil 时函数值被视为不可搬运（编码等场景）。
type funcRegistrar interface {
	register(fn *lua.LFunction) CallbackID
}

// FromLua 把脚本值转换为宿主值。
//
// table 的数组/对象判定规则：当且仅当全部键构成从 1 开始的连续整数段
// （即键恰好为 1..n）时按数组处理，否则按对象处理，非字符串键被转为
// 字符串键。空 table 约定按数组处理。该规则决定下游的 list/object 编码，
// 变更需同步调整对应测试。
func FromLua(lv lua.LValue, reg funcRegistrar) (Value, error) {
	switch v := lv.(type) {
	case *lua.LNilType, nil:
		return Nil(), nil
	case lua.LBool:
		return Bool(bool(v)), nil
	case lua.LNumber:
		return Number(float64(v)), nil
	case lua.LString:
		return String(string(v)), nil
	case *lua.LFunction:
		if reg == nil {
			return Nil(), &luahost.HostError{
				Kind:    luahost.ErrCodec,
				Message: "函数值不能跨边界搬运",
			}
		}
		return Value{Kind: KindFunc, Handle: reg.register(v)}, nil
	case *lua.LTable:
		return tableFromLua(v, reg)
	default:
		return Nil(), &luahost.HostError{
			Kind:    luahost.ErrCodec,
			Message: fmt.Sprintf("不支持的脚本值类型: %s", lv.Type().String()),
		}
	}
}

func tableFromLua(tbl *lua.LTable, reg funcRegistrar) (Value, error) {
	keyCount := 0
	intKeys := 0
	maxN := 0
	tbl.ForEach(func(key, _ lua.LValue) {
		keyCount++
		if n, ok := key.(lua.LNumber); ok {
			i := int(n)
			if float64(i) == float64(n) && i >= 1 {
				intKeys++
				if i > maxN {
					maxN = i
				}
			}
		}
	})

	// 键恰好为 1..n（空表视为 n=0 的数组）
	if intKeys == keyCount && maxN == keyCount {
		arr := make([]Value, 0, maxN)
		for i := 1; i <= maxN; i++ {
			item, err := FromLua(tbl.RawGetInt(i), reg)
			if err != nil {
				return Nil(), err
			}
			arr = append(arr, item)
		}
		return Value{Kind: KindArray, Arr: arr}, nil
	}

	m := make(map[string]Value, keyCount)
	var ferr error
	tbl.ForEach(func(key, value lua.LValue) {
		if ferr != nil {
			return
		}
		item, err := FromLua(value, reg)
		if err != nil {
			ferr = err
			return
		}
		m[lua.LVAsString(key)] = item
	})
	if ferr != nil {
		return Nil(), ferr
	}
	return Value{Kind: KindMap, Map: m}, nil
}

// funcResolver 按句柄取回被钉住的脚本函数。
type funcResolver interface {
	lookup(id CallbackID) *lua.LFunction
}

// ToLua 把宿主值转换回脚本值。函数句柄在 res 为 nil 或句柄已释放时落为 nil。
func ToLua(L *lua.LState, v Value, res funcResolver) lua.LValue {
	switch v.Kind {
	case KindNil:
		return lua.LNil
	case KindBool:
		return lua.LBool(v.Bool)
	case KindNumber:
		return lua.LNumber(v.Number)
	case KindString:
		return lua.LString(v.Str)
	case KindArray:
		tbl := L.CreateTable(len(v.Arr), 0)
		for i, item := range v.Arr {
			tbl.RawSetInt(i+1, ToLua(L, item, res))
		}
		return tbl
	case KindMap:
		tbl := L.CreateTable(0, len(v.Map))
		for k, item := range v.Map {
			tbl.RawSetString(k, ToLua(L, item, res))
		}
		return tbl
	case KindFunc:
		if res != nil {
			if fn := res.lookup(v.Handle); fn != nil {
				return fn
			}
		}
		return lua.LNil
	}
	return lua.LNil
}

// FromInterface 把解码产物（interface{} 树）转换为宿主值。
// 供 json 能力模块与 mock 响应体使用。
func FromInterface(val interface{}) Value {
	switch v := val.(type) {
	case nil:
		return Nil()
	case bool:
		return Bool(v)
	case float64:
		return Number(v)
	case int:
		return Number(float64(v))
	case int64:
		return Number(float64(v))
	case string:
		return String(v)
	case []interface{}:
		arr := make([]Value, 0, len(v))
		for _, item := range v {
			arr = append(arr, FromInterface(item))
		}
		return Value{Kind: KindArray, Arr: arr}
	case map[string]interface{}:
		m := make(map[string]Value, len(v))
		for k, item := range v {
			m[k] = FromInterface(item)
		}
		return Value{Kind: KindMap, Map: m}
	default:
		return String(fmt.Sprintf("%v", v))
	}
}

// ToInterface 把宿主值转换为可直接 JSON 编码的 interface{} 树。
// 函数值没有合理编码，返回错误由编码方上抛。
func (v Value) ToInterface() (interface{}, error) {
	switch v.Kind {
	case KindNil:
		return nil, nil
	case KindBool:
		return v.Bool, nil
	case KindNumber:
		return v.Number, nil
	case KindString:
		return v.Str, nil
	case KindArray:
		arr := make([]interface{}, 0, len(v.Arr))
		for _, item := range v.Arr {
			iv, err := item.ToInterface()
			if err != nil {
				return nil, err
			}
			arr = append(arr, iv)
		}
		return arr, nil
	case KindMap:
		m := make(map[string]interface{}, len(v.Map))
		for k, item := range v.Map {
			iv, err := item.ToInterface()
			if err != nil {
				return nil, err
			}
			m[k] = iv
		}
		return m, nil
	case KindFunc:
		return nil, &luahost.HostError{Kind: luahost.ErrCodec, Message: "函数值无法编码"}
	}
	return nil, &luahost.HostError{Kind: luahost.ErrCodec, Message: "未知的值形态"}
}
