package widget

import (
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// MockResponse 是单条规则合成的罐头响应。
type MockResponse struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body"`
}

// MockRule 把一个 URL 匹配键映射到罐头响应。
// 同一逻辑端点可以在不同具体度层级声明多条规则。
type MockRule struct {
	Key      string
	Response MockResponse
}

// matchStrategy 是一种 URL 匹配方式。按 MockRuleSet.strategies 的
// 顺序逐层尝试，层内先声明者胜出。
type matchStrategy struct {
	name string
	// match 返回规则键是否按该方式命中请求 URL。
	match func(key string, req string) bool
	// longest 为真时层内按键长取最长命中，声明序破平。
	longest bool
}

// 匹配具体度由高到低：完整 URL（含内嵌凭据）→ 去凭据 URL →
// 仅路径加查询串 → 最长子串。该顺序是策略而非定律，
// 以测试锁定行为，必要时可调整层级构成。
func defaultStrategies() []matchStrategy {
	return []matchStrategy{
		{
			name:  "exact",
			match: func(key, req string) bool { return key == req },
		},
		{
			name: "credential-stripped",
			match: func(key, req string) bool {
				return stripCredentials(key) == stripCredentials(req)
			},
		},
		{
			name: "path-query",
			match: func(key, req string) bool {
				pq := pathAndQuery(req)
				return pq != "" && (key == pq || pathAndQuery(key) == pq)
			},
		},
		{
			name: "substring",
			match: func(key, req string) bool {
				return key != "" && strings.Contains(req, key)
			},
			longest: true,
		},
	}
}

// MockRuleSet 是有序的 mock 规则集。每个会话装载一次，会话期间不可变。
type MockRuleSet struct {
	rules      []MockRule
	strategies []matchStrategy
}

func NewMockRuleSet() *MockRuleSet {
	return &MockRuleSet{strategies: defaultStrategies()}
}

// Add 追加一条规则。调用顺序即声明顺序。
func (m *MockRuleSet) Add(key string, resp MockResponse) *MockRuleSet {
	if resp.Status == 0 {
		resp.Status = 200
	}
	m.rules = append(m.rules, MockRule{Key: key, Response: resp})
	return m
}

// Len 返回规则条数。
func (m *MockRuleSet) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}

// Match 按具体度层级匹配请求 URL，返回首个命中的响应。
func (m *MockRuleSet) Match(rawURL string) (*MockResponse, bool) {
	if m == nil || len(m.rules) == 0 {
		return nil, false
	}
	for _, st := range m.strategies {
		hits := lo.Filter(m.rules, func(r MockRule, _ int) bool {
			return st.match(r.Key, rawURL)
		})
		if len(hits) == 0 {
			continue
		}
		best := hits[0]
		if st.longest {
			for _, h := range hits[1:] {
				// 严格大于：等长时保留先声明者
				if len(h.Key) > len(best.Key) {
					best = h
				}
			}
		}
		resp := best.Response
		return &resp, true
	}
	return nil, false
}

// stripCredentials 去掉 URL 中内嵌的 user:pass。无法解析时原样返回。
func stripCredentials(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return rawURL
	}
	u.User = nil
	return u.String()
}

// pathAndQuery 取 URL 的路径加查询串部分。键本身就是路径形式时原样返回。
func pathAndQuery(rawURL string) string {
	if strings.HasPrefix(rawURL, "/") {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	pq := u.Path
	if u.RawQuery != "" {
		pq += "?" + u.RawQuery
	}
	return pq
}

// ParseMockRules 解析 mock 规则文件：顶层是 匹配键 -> {status, headers?, body}
// 的扁平对象。流式读取对象键以保留声明顺序，层内同具体度的规则
// 按声明序破平。body 允许结构化值，编码回 JSON 文本存放。
func ParseMockRules(data []byte) (*MockRuleSet, error) {
	if len(data) == 0 {
		return nil, nil
	}
	set := NewMockRuleSet()
	iter := jsoniter.ConfigCompatibleWithStandardLibrary.BorrowIterator(data)
	defer jsoniter.ConfigCompatibleWithStandardLibrary.ReturnIterator(iter)

	ok := iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		var raw struct {
			Status  int               `json:"status"`
			Headers map[string]string `json:"headers"`
			Body    interface{}       `json:"body"`
		}
		it.ReadVal(&raw)
		body := ""
		switch b := raw.Body.(type) {
		case nil:
		case string:
			body = b
		default:
			encoded, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(b)
			if err != nil {
				it.ReportError("mock body", err.Error())
				return false
			}
			body = encoded
		}
		set.Add(key, MockResponse{Status: raw.Status, Headers: raw.Headers, Body: body})
		return true
	})
	if iter.Error != nil {
		return nil, errors.Wrap(iter.Error, "解析mock规则失败")
	}
	if !ok {
		return nil, errors.New("解析mock规则失败: 顶层必须是对象")
	}
	return set, nil
}
