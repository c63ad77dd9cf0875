package api

import (
	"github.com/labstack/echo/v4"

	"github.com/Danz17/AIO-Launcher-Widget-sub000/widget"
)

var myHost *widget.Host

// Setup 绑定宿主并注册开发服务器路由。
func Setup(e *echo.Echo, h *widget.Host) {
	myHost = h

	e.POST("/widget/exec", widgetExec)
	e.GET("/widget/list", widgetList)
	e.POST("/widget/reload", widgetReload)
	e.POST("/widget/run/:name", widgetRun)
	e.GET("/widget/watch", widgetWatch)
}
