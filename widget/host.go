package widget

import (
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
)

// VERSION 是宿主版本，供脚本元信息里的 @host-version 约束检查。
var VERSION = semver.MustParse("1.0.0")

const (
	// DefaultEntryPoint 是组件脚本的默认入口：启动器在组件可见时调用它。
	DefaultEntryPoint = "on_resume"

	DefaultRequestTimeout = 5 * time.Second
	DefaultSessionTimeout = 20 * time.Second
)

// HostConfig 是宿主运行配置。
type HostConfig struct {
	// DataDir 存放脚本目录、持久存储与设备快照文件。
	DataDir string
	// EntryPoint 为空时用 DefaultEntryPoint。
	EntryPoint string
	// RequestTimeout 是单个网络请求的超时。
	RequestTimeout time.Duration
	// SessionTimeout 是会话级排水超时，与单请求超时相互独立。
	SessionTimeout time.Duration
}

func (c *HostConfig) fill() {
	if c.EntryPoint == "" {
		c.EntryPoint = DefaultEntryPoint
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = DefaultSessionTimeout
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
}

// Host 持有跨会话的进程级状态：日志、配置、持久存储、设备快照、
// 默认传输与脚本清单。会话本身是请求级的，由 Execute 按请求创建销毁。
type Host struct {
	Logger *zap.SugaredLogger
	Config HostConfig

	Store     *PrefStore
	Device    *DeviceInfo
	Transport Transport

	// ScriptList 是脚本目录扫描出的组件清单。
	ScriptList []*WidgetScriptInfo
}

// NewHost 创建宿主。持久存储按数据目录落盘，跨进程重启存续。
func NewHost(cfg HostConfig, logger *zap.SugaredLogger) (*Host, error) {
	cfg.fill()
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}
	store, err := OpenPrefStore(filepath.Join(cfg.DataDir, "prefs.json"), logger)
	if err != nil {
		return nil, err
	}
	return &Host{
		Logger:    logger,
		Config:    cfg,
		Store:     store,
		Device:    LoadDeviceInfo(filepath.Join(cfg.DataDir, "device.json"), logger),
		Transport: NewHTTPTransport(),
	}, nil
}

// Execute 对一份脚本源码执行一次完整会话：
// 建 VM 装能力模块 → 顶层加载 → 入口调用 → 排水等待回调收敛 → 汇总输出。
// 所有失败都编码进响应体，不向调用方抛错。
func (h *Host) Execute(req *ExecRequest) *ExecResponse {
	s, err := h.newSession(req)
	if err != nil {
		return &ExecResponse{Error: &ExecError{Message: err.Error(), Phase: "load"}}
	}
	defer s.Close()
	return s.Run(req)
}
