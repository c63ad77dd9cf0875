package api

import (
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/Danz17/AIO-Launcher-Widget-sub000/widget"
)

// 秒字段可选，和启动器侧的刷新表达式保持一致
var refreshCronParser = cron.NewParser(
	cron.SecondOptional |
		cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow |
		cron.Descriptor,
)

var (
	refreshMu   sync.Mutex
	refreshCron *cron.Cron
)

// rescheduleRefresh 按清单里的 @refresh 表达式重建定时重跑计划。
// 每次到点执行一次组件并把结果推给 watch 连接。
func rescheduleRefresh(h *widget.Host) {
	refreshMu.Lock()
	defer refreshMu.Unlock()

	if refreshCron != nil {
		refreshCron.Stop()
	}
	refreshCron = cron.New(cron.WithParser(refreshCronParser))

	for _, info := range h.ScriptList {
		if info.Refresh == "" || !info.Enable {
			continue
		}
		script := info
		_, err := refreshCron.AddFunc(script.Refresh, func() {
			notifyWatchers(h.ExecuteScript(script, nil))
		})
		if err != nil {
			h.Logger.Errorf("组件「%s」的 @refresh 表达式无效: %v", script.Name, err)
			continue
		}
		h.Logger.Infof("组件「%s」定时重跑已注册: %s", script.Name, script.Refresh)
	}
	refreshCron.Start()
}

// StartRefresh 在服务启动时安排定时重跑。
func StartRefresh(h *widget.Host) {
	rescheduleRefresh(h)
}

// StopRefresh 停止全部定时重跑。
func StopRefresh() {
	refreshMu.Lock()
	defer refreshMu.Unlock()
	if refreshCron != nil {
		refreshCron.Stop()
		refreshCron = nil
	}
}
