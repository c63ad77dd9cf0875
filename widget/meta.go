package widget

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/golang-module/carbon"
	"github.com/pkg/errors"

	"github.com/Danz17/AIO-Launcher-Widget-sub000/static"
)

// WidgetScriptInfo 是一份组件脚本的元信息，从脚本头部的
// -- @tag value 注释块解析（类似油猴脚本的写法）。
type WidgetScriptInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Author   string `json:"author"`
	Desc     string `json:"desc"`
	HomePage string `json:"homepage"`
	// Entry 覆盖默认入口函数名。
	Entry string `json:"entry,omitempty"`
	// Refresh 是开发服务器定时重跑该组件的 cron 表达式。
	Refresh string `json:"refresh,omitempty"`
	// UpdateTime 来自 @timestamp，秒级时间戳。
	UpdateTime  int64  `json:"updateTime,omitempty"`
	InstallTime int64  `json:"installTime"`
	Enable      bool   `json:"enable"`
	ErrText     string `json:"errText,omitempty"`
	Filename    string `json:"filename"`
	Builtin     bool   `json:"builtin"`
}

var metaTagRe = regexp.MustCompile(`^--[ \t]*@(\S+)[ \t]+(.+?)[ \t]*$`)

// ParseMeta 解析脚本头部元信息。只扫描文件顶部的连续注释块。
// 格式错误的字段让脚本落入禁用态并记下 ErrText，绝不让坏头部
// 打断整个目录的装载。
func (h *Host) ParseMeta(path string, installTime time.Time, rawData []byte, builtin bool) (*WidgetScriptInfo, error) {
	info := &WidgetScriptInfo{
		Name:        strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Filename:    path,
		InstallTime: installTime.Unix(),
		Builtin:     builtin,
		Enable:      true,
	}

	var errMsg []string
	scanner := bufio.NewScanner(strings.NewReader(string(rawData)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "--") {
			break
		}
		m := metaTagRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		v := strings.TrimSpace(m[2])
		switch m[1] {
		case "name":
			info.Name = v
		case "author":
			info.Author = v
		case "homepage":
			info.HomePage = v
		case "description":
			info.Desc = strings.ReplaceAll(v, "\\n", "\n")
		case "version":
			if _, err := semver.NewVersion(v); err != nil {
				errMsg = append(errMsg, fmt.Sprintf("组件「%s」的 @version 不满足semver语法: %s", info.Name, v))
				continue
			}
			info.Version = v
		case "host-version":
			vc, err := semver.NewConstraint(v)
			if err != nil {
				errMsg = append(errMsg, fmt.Sprintf("组件「%s」的 @host-version 不满足semver约束语法: %s", info.Name, v))
				continue
			}
			if !vc.Check(VERSION) {
				errMsg = append(errMsg, fmt.Sprintf("组件「%s」要求宿主版本 %s，当前宿主为 %s", info.Name, v, VERSION.String()))
			}
		case "timestamp":
			t := carbon.Parse(v)
			if t.IsValid() {
				info.UpdateTime = t.Timestamp()
			}
		case "entry":
			info.Entry = v
		case "refresh":
			info.Refresh = v
		}
	}

	if len(errMsg) > 0 {
		info.Enable = false
		info.ErrText = strings.Join(errMsg, "\n")
		return info, errors.New(strings.Join(errMsg, "|"))
	}
	return info, nil
}

func isWidgetScript(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".lua"
}

// LoadScripts 扫描脚本目录并重建组件清单。
// 内置示例脚本首次运行时从嵌入资源导出到 <data>/scripts/_builtin。
func (h *Host) LoadScripts() error {
	h.ScriptList = nil

	dir := filepath.Join(h.Config.DataDir, "scripts")
	builtinDir := filepath.Join(dir, "_builtin")
	if err := os.MkdirAll(builtinDir, 0o755); err != nil {
		return errors.Wrap(err, "创建脚本目录失败")
	}

	// 导出内置示例脚本
	builtinScripts, _ := fs.ReadDir(static.Scripts, "scripts")
	for _, entry := range builtinScripts {
		if entry.IsDir() || !isWidgetScript(entry.Name()) {
			continue
		}
		target := filepath.Join(builtinDir, entry.Name())
		if _, err := os.Stat(target); errors.Is(err, os.ErrNotExist) {
			data, _ := static.Scripts.ReadFile("scripts/" + entry.Name())
			_ = os.WriteFile(target, data, 0o644)
		}
	}

	walk := func(root string, builtin bool, skipBuiltin bool) {
		_ = filepath.Walk(root, func(path string, fi fs.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if fi.IsDir() {
				if skipBuiltin && fi.Name() == "_builtin" {
					return fs.SkipDir
				}
				return nil
			}
			if !isWidgetScript(path) {
				return nil
			}
			h.Logger.Infof("正在读取组件脚本: %s", path)
			data, err := os.ReadFile(path)
			if err != nil {
				h.Logger.Errorf("读取组件脚本失败(无法访问): %v", err)
				return nil
			}
			info, err := h.ParseMeta(path, fi.ModTime(), data, builtin)
			if err != nil {
				h.Logger.Errorf("组件脚本「%s」头部解析失败，已禁用: %v", path, err)
			}
			h.ScriptList = append(h.ScriptList, info)
			return nil
		})
	}

	walk(builtinDir, true, false)
	walk(dir, false, true)
	return nil
}

// ExecuteScript 按清单里的一项执行组件，入口优先用其 @entry 覆盖。
func (h *Host) ExecuteScript(info *WidgetScriptInfo, req *ExecRequest) *ExecResponse {
	if info == nil {
		return &ExecResponse{Error: &ExecError{Message: "组件不存在", Phase: "load"}}
	}
	if !info.Enable {
		return &ExecResponse{Error: &ExecError{Message: "组件已禁用: " + info.ErrText, Phase: "load"}}
	}
	data, err := os.ReadFile(info.Filename)
	if err != nil {
		return &ExecResponse{Error: &ExecError{Message: err.Error(), Phase: "load"}}
	}
	if req == nil {
		req = &ExecRequest{}
	}
	req.Source = string(data)
	if req.EntryPoint == "" && info.Entry != "" {
		req.EntryPoint = info.Entry
	}
	return h.Execute(req)
}

// FindScript 按名称查找清单项。
func (h *Host) FindScript(name string) *WidgetScriptInfo {
	for _, info := range h.ScriptList {
		if info.Name == name {
			return info
		}
	}
	return nil
}
