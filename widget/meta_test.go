package widget

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseMetaFullHeader(t *testing.T) {
	h := newTestHost(t)
	data := []byte(`-- @name 汇率看板
-- @version 1.2.0
-- @author someone
-- @description 第一行\n第二行
-- @homepage https://example.com/widgets
-- @entry refresh
-- @refresh */30 * * * * *
-- @timestamp 2024-06-01 12:00:00

function refresh() end
`)
	info, err := h.ParseMeta("rates.lua", time.Unix(1700000000, 0), data, false)
	if err != nil {
		t.Fatalf("解析不应失败: %v", err)
	}
	if info.Name != "汇率看板" {
		t.Fatalf("@name 解析错误: %s", info.Name)
	}
	if info.Version != "1.2.0" || info.Author != "someone" {
		t.Fatalf("元信息解析错误: %+v", info)
	}
	if info.Desc != "第一行\n第二行" {
		t.Fatalf("@description 换行转义错误: %q", info.Desc)
	}
	if info.Entry != "refresh" || info.Refresh != "*/30 * * * * *" {
		t.Fatalf("@entry/@refresh 解析错误: %+v", info)
	}
	if info.UpdateTime == 0 {
		t.Fatal("@timestamp 应解析为时间戳")
	}
	if !info.Enable {
		t.Fatalf("脚本不应被禁用: %s", info.ErrText)
	}
}

func TestParseMetaDefaultsNameToFilename(t *testing.T) {
	h := newTestHost(t)
	info, err := h.ParseMeta("/tmp/scripts/clock.lua", time.Now(), []byte(`ui.show("x")`), true)
	if err != nil {
		t.Fatalf("无头部也应能解析: %v", err)
	}
	if info.Name != "clock" {
		t.Fatalf("缺省名应取自文件名: %s", info.Name)
	}
	if !info.Builtin {
		t.Fatal("内置标记丢失")
	}
}

func TestParseMetaBadVersionDisables(t *testing.T) {
	h := newTestHost(t)
	data := []byte(`-- @name bad
-- @version not-a-version
`)
	info, err := h.ParseMeta("bad.lua", time.Now(), data, false)
	if err == nil {
		t.Fatal("非法 @version 应报错")
	}
	if info.Enable {
		t.Fatal("非法头部应禁用脚本")
	}
	if info.ErrText == "" {
		t.Fatal("禁用原因应落在 ErrText")
	}
}

func TestParseMetaHostVersionConstraint(t *testing.T) {
	h := newTestHost(t)
	ok, err := h.ParseMeta("a.lua", time.Now(), []byte("-- @host-version >= 1.0.0\n"), false)
	if err != nil || !ok.Enable {
		t.Fatalf("满足的宿主版本约束不应禁用: %v", err)
	}
	bad, err := h.ParseMeta("b.lua", time.Now(), []byte("-- @host-version >= 99.0.0\n"), false)
	if err == nil || bad.Enable {
		t.Fatal("不满足的宿主版本约束应禁用")
	}
}

// 头部扫描止于首个非注释行，正文里的 @tag 不生效。
func TestParseMetaStopsAtFirstCodeLine(t *testing.T) {
	h := newTestHost(t)
	data := []byte(`-- @name real
local x = 1
-- @name fake
`)
	info, err := h.ParseMeta("s.lua", time.Now(), data, false)
	if err != nil {
		t.Fatalf("解析不应失败: %v", err)
	}
	if info.Name != "real" {
		t.Fatalf("正文注释不应参与解析: %s", info.Name)
	}
}

func TestLoadScriptsAndExecute(t *testing.T) {
	h := newTestHost(t)
	dir := filepath.Join(h.Config.DataDir, "scripts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("建目录失败: %v", err)
	}
	script := `-- @name greeter
-- @version 0.1.0
-- @entry greet

function greet()
	ui.show("hi from file")
end
`
	if err := os.WriteFile(filepath.Join(dir, "greeter.lua"), []byte(script), 0o644); err != nil {
		t.Fatalf("写脚本失败: %v", err)
	}

	if err := h.LoadScripts(); err != nil {
		t.Fatalf("装载脚本目录失败: %v", err)
	}
	info := h.FindScript("greeter")
	if info == nil {
		t.Fatal("清单里找不到脚本")
	}
	resp := h.ExecuteScript(info, nil)
	if resp.Error != nil {
		t.Fatalf("执行清单脚本失败: %+v", resp.Error)
	}
	if len(resp.Output) != 1 || resp.Output[0].Text != "hi from file" {
		t.Fatalf("@entry 覆盖未生效: %+v", resp.Output)
	}
	// 内置示例也应进入清单
	builtin := 0
	for _, s := range h.ScriptList {
		if s.Builtin {
			builtin++
		}
	}
	if builtin == 0 {
		t.Fatal("内置示例脚本未导出装载")
	}
}

func TestExecuteScriptDisabled(t *testing.T) {
	h := newTestHost(t)
	resp := h.ExecuteScript(&WidgetScriptInfo{Name: "x", Enable: false, ErrText: "坏头部"}, nil)
	if resp.Error == nil {
		t.Fatal("禁用脚本应拒绝执行")
	}
	if resp := h.ExecuteScript(nil, nil); resp.Error == nil {
		t.Fatal("空清单项应拒绝执行")
	}
}
