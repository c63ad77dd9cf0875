package widget

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// RequestDescriptor 描述脚本发起的一次网络调用。
// 每个描述符恰好被消费一次：mock 命中、真实请求成功或错误路径，
// 三者必居其一且仅居其一，最终都落到其回调句柄上。
type RequestDescriptor struct {
	Method   string
	URL      string
	Body     string
	Headers  map[string]string
	Callback CallbackID
	Timeout  time.Duration
}

// Transport 是真实网络传输的抽象。测试用桩实现替换。
type Transport interface {
	Do(ctx context.Context, req *RequestDescriptor) (status int, headers map[string]string, body string, err error)
}

// httpTransport 是基于标准 http.Client 的默认实现。
type httpTransport struct {
	client *http.Client
}

// NewHTTPTransport 创建默认传输。超时由每请求 context 控制。
func NewHTTPTransport() Transport {
	return &httpTransport{client: &http.Client{}}
}

func (t *httpTransport) Do(ctx context.Context, req *RequestDescriptor) (int, map[string]string, string, error) {
	var bodyReader io.Reader
	if req.Body != "" {
		bodyReader = strings.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return 0, nil, "", err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return 0, nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, "", err
	}
	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}
	return resp.StatusCode, headers, string(data), nil
}
