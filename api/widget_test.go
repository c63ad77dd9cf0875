package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Danz17/AIO-Launcher-Widget-sub000/widget"
)

func setupWidgetAPITest(t *testing.T) func() {
	t.Helper()
	oldHost := myHost

	h, err := widget.NewHost(widget.HostConfig{
		DataDir:        t.TempDir(),
		SessionTimeout: 5 * time.Second,
	}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("创建宿主失败: %v", err)
	}
	myHost = h

	return func() {
		myHost = oldHost
	}
}

func newJSONContext(e *echo.Echo, method string, path string, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestWidgetExec(t *testing.T) {
	cleanup := setupWidgetAPITest(t)
	defer cleanup()

	e := echo.New()
	body := `{"source": "function on_resume() ui.show(\"from api\") end"}`
	ctx, rec := newJSONContext(e, http.MethodPost, "/widget/exec", body)

	if err := widgetExec(ctx); err != nil {
		t.Fatalf("widgetExec 返回错误: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码错误: %d", rec.Code)
	}

	var resp widget.ExecResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("执行不应失败: %+v", resp.Error)
	}
	if !resp.EntryPointFound || len(resp.Output) != 1 || resp.Output[0].Text != "from api" {
		t.Fatalf("执行响应错误: %+v", resp)
	}
}

func TestWidgetExecWithMockRules(t *testing.T) {
	cleanup := setupWidgetAPITest(t)
	defer cleanup()

	e := echo.New()
	body := `{
		"source": "function on_resume() http.get(\"https://api.example.com/v1/x\", function(b, s) ui.show(b) end) end",
		"mockRules": {"/v1/x": {"body": "mocked"}}
	}`
	ctx, rec := newJSONContext(e, http.MethodPost, "/widget/exec", body)

	if err := widgetExec(ctx); err != nil {
		t.Fatalf("widgetExec 返回错误: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码错误: %d", rec.Code)
	}

	var resp widget.ExecResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if len(resp.Output) != 1 || resp.Output[0].Text != "mocked" {
		t.Fatalf("mock 规则未生效: %+v", resp)
	}
}

// 脚本失败也走 200，错误编码在响应体里。
func TestWidgetExecScriptErrorStillOK(t *testing.T) {
	cleanup := setupWidgetAPITest(t)
	defer cleanup()

	e := echo.New()
	ctx, rec := newJSONContext(e, http.MethodPost, "/widget/exec", `{"source": "][ not lua"}`)

	if err := widgetExec(ctx); err != nil {
		t.Fatalf("widgetExec 返回错误: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("脚本错误应仍为 200: %d", rec.Code)
	}

	var resp widget.ExecResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if resp.Error == nil || resp.Error.Phase != "load" {
		t.Fatalf("错误应编码在响应体: %+v", resp)
	}
}

func TestWidgetExecEmptySource(t *testing.T) {
	cleanup := setupWidgetAPITest(t)
	defer cleanup()

	e := echo.New()
	ctx, rec := newJSONContext(e, http.MethodPost, "/widget/exec", `{}`)

	if err := widgetExec(ctx); err != nil {
		t.Fatalf("widgetExec 返回错误: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("空源码应 400: %d", rec.Code)
	}
}

func TestWidgetReloadAndRun(t *testing.T) {
	cleanup := setupWidgetAPITest(t)
	defer cleanup()
	defer StopRefresh()

	e := echo.New()
	ctx, rec := newJSONContext(e, http.MethodPost, "/widget/reload", "")
	if err := widgetReload(ctx); err != nil {
		t.Fatalf("widgetReload 返回错误: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码错误: %d", rec.Code)
	}
	var reload map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &reload); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if reload["count"].(float64) < 1 {
		t.Fatalf("重载后清单不应为空: %v", reload)
	}

	ctx, rec = newJSONContext(e, http.MethodGet, "/widget/list", "")
	if err := widgetList(ctx); err != nil {
		t.Fatalf("widgetList 返回错误: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码错误: %d", rec.Code)
	}

	ctx, rec = newJSONContext(e, http.MethodPost, "/widget/run/no-such-widget", "")
	ctx.SetParamNames("name")
	ctx.SetParamValues("no-such-widget")
	if err := widgetRun(ctx); err != nil {
		t.Fatalf("widgetRun 返回错误: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("未知组件应 404: %d", rec.Code)
	}
}
