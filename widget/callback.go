package widget

import (
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// CallbackID 是会话作用域内的回调句柄编号。
// 用显式的编号到函数引用映射做派发，不经由脚本全局名查找，
// 避免与脚本自身的全局变量冲突。
type CallbackID int64

type callbackEntry struct {
	fn      *lua.LFunction
	invoked bool
}

// CallbackRegistry 在网络等异步操作在途期间钉住脚本函数引用，
// 防止其被回收。注册表归属于单个会话，句柄不得跨会话触发。
type CallbackRegistry struct {
	mu      sync.Mutex
	seq     CallbackID
	entries map[CallbackID]*callbackEntry
	logger  *zap.SugaredLogger
}

func NewCallbackRegistry(logger *zap.SugaredLogger) *CallbackRegistry {
	return &CallbackRegistry{
		entries: map[CallbackID]*callbackEntry{},
		logger:  logger,
	}
}

// register 钉住脚本函数并返回句柄。实现 funcRegistrar。
func (r *CallbackRegistry) register(fn *lua.LFunction) CallbackID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	id := r.seq
	r.entries[id] = &callbackEntry{fn: fn}
	return id
}

// Register 钉住脚本函数并返回句柄。
func (r *CallbackRegistry) Register(fn *lua.LFunction) CallbackID {
	return r.register(fn)
}

// lookup 实现 funcResolver。已释放或未注册的句柄返回 nil。
func (r *CallbackRegistry) lookup(id CallbackID) *lua.LFunction {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil
	}
	return e.fn
}

// take 取出句柄对应的函数并标记已触发。至多成功一次。
func (r *CallbackRegistry) take(id CallbackID) *lua.LFunction {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.invoked {
		return nil
	}
	e.invoked = true
	return e.fn
}

// Invoke 在给定解释器上触发一次回调。调用方必须已持有该会话的执行权。
// 回调内部抛出的脚本错误被捕获并记录，绝不向上传播：
// 单个出错的回调不能中止整个会话。
// 句柄已释放、已触发或不存在时为空操作。
func (r *CallbackRegistry) Invoke(L *lua.LState, id CallbackID, args ...lua.LValue) {
	fn := r.take(id)
	if fn == nil {
		return
	}
	L.Push(fn)
	for _, arg := range args {
		L.Push(arg)
	}
	if err := L.PCall(len(args), 0, nil); err != nil {
		if r.logger != nil {
			r.logger.Warnf("回调执行出错(已忽略): %v", err)
		}
	}
	r.Release(id)
}

// Release 释放句柄。幂等。
func (r *CallbackRegistry) Release(id CallbackID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// ReleaseAll 在会话销毁时释放全部句柄。此后任何触发均为空操作。
func (r *CallbackRegistry) ReleaseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = map[CallbackID]*callbackEntry{}
}

// Pending 返回当前仍被钉住的句柄数量。
func (r *CallbackRegistry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
