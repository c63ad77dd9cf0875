package widget

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"

	"github.com/Danz17/AIO-Launcher-Widget-sub000/widget/luahost"
)

// Session 拥有一个解释器实例、装好的能力模块、有序输出缓冲与
// 至多一个错误槽。按执行请求创建，请求处理方独占，完成或超时即销毁。
//
// 并发模型：脚本解释器单线程协作式运行，对它的所有进入
// （加载、入口调用、每次回调）都排在会话的执行器后面串行执行；
// 宿主侧的多个会话、多个在途请求之间互不影响。
type Session struct {
	host *Host
	L    *lua.LState

	exec      *luahost.Executor
	life      *luahost.Lifecycle
	callbacks *CallbackRegistry

	mocks     *MockRuleSet
	transport Transport

	reqTimeout     time.Duration
	sessionTimeout time.Duration

	// output 与 effects 只在执行器 goroutine 上追加。
	output  []RenderCommand
	effects []SystemEffect

	pending  atomic.Int64
	settleCh chan struct{}
}

// 基础库按白名单打开：base/table/string/math。
// os、io 与模块加载不对组件脚本开放。
var guestLibs = []struct {
	name string
	fn   lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

func (h *Host) newSession(req *ExecRequest) (*Session, error) {
	mocks := req.Mocks
	if mocks == nil && len(req.MockRules) > 0 {
		parsed, err := ParseMockRules(req.MockRules)
		if err != nil {
			return nil, err
		}
		mocks = parsed
	}
	transport := req.Transport
	if transport == nil {
		transport = h.Transport
	}
	sessionTimeout := h.Config.SessionTimeout
	if req.TimeoutMs > 0 {
		sessionTimeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}
	reqTimeout := h.Config.RequestTimeout
	if reqTimeout > sessionTimeout {
		reqTimeout = sessionTimeout
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range guestLibs {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, errors.Wrapf(err, "打开基础库 %s 失败", lib.name)
		}
	}
	// base 库顺带注册了文件与模块加载入口，逐个摘除
	for _, name := range []string{"require", "dofile", "loadfile", "loadstring", "module"} {
		L.SetGlobal(name, lua.LNil)
	}

	s := &Session{
		host:           h,
		L:              L,
		exec:           luahost.NewExecutor(h.Logger),
		life:           luahost.NewLifecycle(),
		callbacks:      NewCallbackRegistry(h.Logger),
		mocks:          mocks,
		transport:      transport,
		reqTimeout:     reqTimeout,
		sessionTimeout: sessionTimeout,
		settleCh:       make(chan struct{}, 1),
	}

	// print 走宿主日志，脚本里随手调试不至于无处可看
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		parts := make([]interface{}, 0, top)
		for i := 1; i <= top; i++ {
			parts = append(parts, lua.LVAsString(L.Get(i)))
		}
		h.Logger.Infof("[widget] %s", fmt.Sprintln(parts...))
		return 0
	}))

	if err := installModules(s); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Run 驱动状态机 Created → Loaded → Running → Draining → Completed|Failed。
func (s *Session) Run(req *ExecRequest) *ExecResponse {
	// 顶层加载
	_, err := s.exec.Do(func() (interface{}, error) {
		return nil, s.L.DoString(req.Source)
	})
	if err != nil {
		return s.fail(luahost.ErrLoad, err)
	}
	s.life.CompareAndSwap(luahost.StateCreated, luahost.StateLoaded)

	// 入口调用。入口缺席不是错误：带着顶层代码产出的输出走向完成。
	entry := req.EntryPoint
	if entry == "" {
		entry = s.host.Config.EntryPoint
	}
	entryFound := false
	s.life.CompareAndSwap(luahost.StateLoaded, luahost.StateRunning)
	_, err = s.exec.Do(func() (interface{}, error) {
		fn, ok := s.L.GetGlobal(entry).(*lua.LFunction)
		if !ok {
			return nil, nil
		}
		entryFound = true
		s.L.Push(fn)
		return nil, s.L.PCall(0, 0, nil)
	})
	if err != nil {
		return s.fail(luahost.ErrRun, err)
	}

	// 排水：等待 Running 期间（以及排水期间回调续发）的请求全部收敛
	s.life.CompareAndSwap(luahost.StateRunning, luahost.StateDraining)
	if !s.drain() {
		s.host.Logger.Warnf("会话排水超时(%s)，仍有 %d 个请求未收敛", s.sessionTimeout, s.pending.Load())
	}
	s.markCompleted()

	// 终态落定之后再收取输出，之后到达的任何回调触发都是空操作
	var out []RenderCommand
	var effects []SystemEffect
	_, _ = s.exec.Do(func() (interface{}, error) {
		out = append(out, s.output...)
		effects = append(effects, s.effects...)
		return nil, nil
	})
	return &ExecResponse{Output: out, Effects: effects, EntryPointFound: entryFound}
}

func (s *Session) drain() bool {
	if s.pending.Load() == 0 {
		return true
	}
	deadline := time.NewTimer(s.sessionTimeout)
	defer deadline.Stop()
	for s.pending.Load() > 0 {
		select {
		case <-s.settleCh:
		case <-deadline.C:
			return false
		}
	}
	return true
}

func (s *Session) fail(kind luahost.ErrorKind, err error) *ExecResponse {
	msg, trace := guestError(err)
	s.markFailed()
	s.host.Logger.Warnf("脚本执行失败(%s): %s", kind, msg)
	return &ExecResponse{Error: &ExecError{
		Message:    msg,
		Phase:      string(kind),
		GuestTrace: trace,
	}}
}

func (s *Session) markFailed() {
	for _, st := range []luahost.State{luahost.StateCreated, luahost.StateLoaded, luahost.StateRunning, luahost.StateDraining} {
		if s.life.CompareAndSwap(st, luahost.StateFailed) {
			return
		}
	}
}

func (s *Session) markCompleted() {
	for _, st := range []luahost.State{luahost.StateLoaded, luahost.StateRunning, luahost.StateDraining} {
		if s.life.CompareAndSwap(st, luahost.StateCompleted) {
			return
		}
	}
}

// Close 销毁会话：停执行器、放开全部回调句柄、关解释器。
func (s *Session) Close() {
	s.exec.Close()
	s.callbacks.ReleaseAll()
	s.L.Close()
}

// appendOutput 追加一条渲染命令。只允许从执行器 goroutine 调用。
func (s *Session) appendOutput(cmd RenderCommand) {
	s.output = append(s.output, cmd)
}

func (s *Session) appendEffect(e SystemEffect) {
	s.effects = append(s.effects, e)
}

// resolve 消费一个请求描述符：mock 命中走合成路径，未命中走真实传输，
// 两者必居其一；两条路都不在当前脚本栈上内联触发回调，
// 而是投递到执行器上作为一次全新的顶层再进入，保持与真实路径一致的时序。
func (s *Session) resolve(desc *RequestDescriptor) {
	s.pending.Add(1)

	if resp, ok := s.mocks.Match(desc.URL); ok {
		if !s.exec.Post(func() { s.settleSuccess(desc, resp.Status, resp.Headers, resp.Body) }) {
			s.abandon(desc)
		}
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.host.Logger.Errorf("网络请求panic: %v 堆栈: %s", r, string(debug.Stack()))
				if !s.exec.Post(func() { s.settleError(desc, "internal transport error") }) {
					s.abandon(desc)
				}
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), desc.Timeout)
		defer cancel()
		status, headers, body, err := s.transport.Do(ctx, desc)
		if err != nil {
			msg := err.Error()
			if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				msg = fmt.Sprintf("request timeout after %s", desc.Timeout)
			}
			if !s.exec.Post(func() { s.settleError(desc, msg) }) {
				s.abandon(desc)
			}
			return
		}
		if !s.exec.Post(func() { s.settleSuccess(desc, status, headers, body) }) {
			s.abandon(desc)
		}
	}()
}

// settleSuccess 以成功形参触发回调：cb(body, status, headers)。
func (s *Session) settleSuccess(desc *RequestDescriptor, status int, headers map[string]string, body string) {
	defer s.settled()
	if s.life.State().Terminal() {
		s.callbacks.Release(desc.Callback)
		return
	}
	headerTbl := s.L.CreateTable(0, len(headers))
	for k, v := range headers {
		headerTbl.RawSetString(k, lua.LString(v))
	}
	s.callbacks.Invoke(s.L, desc.Callback, lua.LString(body), lua.LNumber(status), headerTbl)
}

// settleError 以错误形参触发回调：cb(nil, 0, nil, errMessage)，
// 脚本用 status == 0 判别失败。传输失败与超时都走这里，不会抛进宿主。
func (s *Session) settleError(desc *RequestDescriptor, message string) {
	defer s.settled()
	if s.life.State().Terminal() {
		s.callbacks.Release(desc.Callback)
		return
	}
	s.host.Logger.Warnf("请求 %s 失败: %s", stripCredentials(desc.URL), message)
	s.callbacks.Invoke(s.L, desc.Callback, lua.LNil, lua.LNumber(0), lua.LNil, lua.LString(message))
}

// abandon 在执行器已关闭时释放描述符，不再触发回调。
func (s *Session) abandon(desc *RequestDescriptor) {
	s.callbacks.Release(desc.Callback)
	s.settled()
}

func (s *Session) settled() {
	s.pending.Add(-1)
	select {
	case s.settleCh <- struct{}{}:
	default:
	}
}

// guestError 从解释器错误里剥出可读信息与脚本栈。
func guestError(err error) (string, string) {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) {
		return apiErr.Object.String(), apiErr.StackTrace
	}
	return err.Error(), ""
}
