package luahost

import (
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

// workItem 是提交给执行器的一个工作单元。
type workItem struct {
	fn     func() (interface{}, error)
	result chan workResult
}

type workResult struct {
	value interface{}
	err   error
}

// Executor 把对单个解释器实例的所有进入（加载、入口调用、每次回调触发）
// 序列化到一个 goroutine 中执行。宿主侧可以并发运行多个会话、多个在途请求，
// 只有对同一解释器的再进入才会排队。
//
// 队列无上限：正在执行的任务自己也会投递新任务（脚本在一次入口调用里
// 连发大批 mock 命中的请求），有界队列会让这条自投递路径把自己堵死。
type Executor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []workItem
	closed bool

	done      chan struct{}
	closeOnce sync.Once
	logger    *zap.SugaredLogger
}

// NewExecutor 创建并启动执行器 goroutine。
func NewExecutor(logger *zap.SugaredLogger) *Executor {
	e := &Executor{
		done:   make(chan struct{}),
		logger: logger,
	}
	e.cond = sync.NewCond(&e.mu)
	go e.loop()
	return e
}

func (e *Executor) loop() {
	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		if e.closed {
			e.mu.Unlock()
			return
		}
		work := e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()

		value, err := e.run(work.fn)
		if work.result != nil {
			work.result <- workResult{value: value, err: err}
		}
	}
}

func (e *Executor) run(fn func() (interface{}, error)) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e.logger != nil {
				e.logger.Errorf("执行器任务panic: %v 堆栈: %s", r, string(debug.Stack()))
			}
			err = &HostError{Kind: ErrInternal, Message: "executor panic"}
		}
	}()
	return fn()
}

// enqueue 入队一个工作单元。执行器已关闭时返回 false。
func (e *Executor) enqueue(work workItem) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	e.queue = append(e.queue, work)
	e.mu.Unlock()
	e.cond.Signal()
	return true
}

// Do 提交任务并阻塞等待完成。执行器已关闭时返回内部错误。
func (e *Executor) Do(fn func() (interface{}, error)) (interface{}, error) {
	result := make(chan workResult, 1)
	if !e.enqueue(workItem{fn: fn, result: result}) {
		return nil, &HostError{Kind: ErrInternal, Message: "executor closed"}
	}
	select {
	case res := <-result:
		return res.value, res.err
	case <-e.done:
		return nil, &HostError{Kind: ErrInternal, Message: "executor closed"}
	}
}

// Post 投递异步任务，不等待完成。网络结果的回调触发走这里，
// 保证回调作为一次全新的顶层再进入、在当前脚本代码返回之后运行。
// 投递永不阻塞，执行器已关闭时任务被丢弃并返回 false。
func (e *Executor) Post(fn func()) bool {
	return e.enqueue(workItem{fn: func() (interface{}, error) { fn(); return nil, nil }})
}

// Close 停止执行器并丢弃未执行的队列任务。幂等。
func (e *Executor) Close() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()
		e.cond.Broadcast()
		close(e.done)
	})
}
