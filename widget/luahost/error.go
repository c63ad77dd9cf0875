package luahost

// ErrorKind 定义脚本宿主层统一的错误类别。
// load 与 run 会作为失败响应返回给外部调用者，
// 其余类别只通过回调参数或日志对脚本可见。
type ErrorKind string

const (
	ErrLoad     ErrorKind = "load"
	ErrRun      ErrorKind = "run"
	ErrCallback ErrorKind = "callback"
	ErrNetwork  ErrorKind = "network"
	ErrCodec    ErrorKind = "codec"
	ErrInternal ErrorKind = "internal"
)

// HostError 是宿主层返回的统一错误结构。
type HostError struct {
	Kind       ErrorKind
	Message    string
	GuestStack string
	Cause      error
}

func (e *HostError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind)
}

func (e *HostError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Fatal 返回该错误是否会使会话进入 Failed 终态。
func (e *HostError) Fatal() bool {
	if e == nil {
		return false
	}
	return e.Kind == ErrLoad || e.Kind == ErrRun
}
