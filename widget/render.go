package widget

import "encoding/json"

// RenderCommand 是组件可视输出的一个单元，按追加顺序累积在会话的
// 输出缓冲里，追加后不可变，入口调用结束时一次性读出。
type RenderCommand struct {
	Type   string                 `json:"type"`
	Text   string                 `json:"text,omitempty"`
	Items  []string               `json:"items,omitempty"`
	Points []float64              `json:"points,omitempty"`
	Opts   map[string]interface{} `json:"opts,omitempty"`
}

// SystemEffect 记录一次即发即忘的系统动作，供开发者在响应里观察。
// 不进渲染输出缓冲。
type SystemEffect struct {
	Kind    string `json:"kind"`
	Payload string `json:"payload,omitempty"`
}

// ExecRequest 是一次执行请求。
type ExecRequest struct {
	Source     string `json:"source"`
	EntryPoint string `json:"entryPoint,omitempty"`
	// MockRules 用标准库的 RawMessage（带 UnmarshalJSON）：HTTP 层的 Bind
	// 走 encoding/json，裸 []byte 会被按 base64 解而拒掉 JSON 对象。
	MockRules json.RawMessage `json:"mockRules,omitempty"`
	TimeoutMs int             `json:"timeoutMs,omitempty"`

	// Mocks 允许宿主侧直接注入规则集，优先于 MockRules 原文。
	Mocks *MockRuleSet `json:"-"`
	// Transport 允许替换真实传输（测试桩）。为空用宿主默认。
	Transport Transport `json:"-"`
}

// ExecError 是失败响应的错误体。
type ExecError struct {
	Message    string `json:"message"`
	Phase      string `json:"phase"`
	GuestTrace string `json:"guestTrace,omitempty"`
}

// ExecResponse 是执行响应：成功时带输出与入口命中标记，失败时带错误。
// 两者互斥。
type ExecResponse struct {
	Output          []RenderCommand `json:"output,omitempty"`
	Effects         []SystemEffect  `json:"effects,omitempty"`
	EntryPointFound bool            `json:"entryPointFound"`
	Error           *ExecError      `json:"error,omitempty"`
}
