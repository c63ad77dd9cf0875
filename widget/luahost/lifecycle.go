package luahost

import "sync/atomic"

// State 表示会话生命周期状态。
type State int32

const (
	StateCreated State = iota
	StateLoaded
	StateRunning
	StateDraining
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateLoaded:
		return "loaded"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal 返回该状态是否为终态。终态之间互斥且不可回退。
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Lifecycle 提供线程安全的会话状态管理。
// 用于统一加载/执行/排水并发时的状态切换约束。
type Lifecycle struct {
	state atomic.Int32
}

// NewLifecycle 创建生命周期管理器，初始状态为 StateCreated。
func NewLifecycle() *Lifecycle {
	l := &Lifecycle{}
	l.state.Store(int32(StateCreated))
	return l
}

// State 返回当前状态。
func (l *Lifecycle) State() State {
	return State(l.state.Load())
}

// CompareAndSwap 尝试原子切换状态。终态不可再切出，
// 保证 Completed/Failed 二者只出现其一。
func (l *Lifecycle) CompareAndSwap(oldState, newState State) bool {
	if oldState.Terminal() {
		return false
	}
	return l.state.CompareAndSwap(int32(oldState), int32(newState))
}

// Store 强制设置状态。仅用于非终态间的推进。
func (l *Lifecycle) Store(s State) {
	l.state.Store(int32(s))
}
