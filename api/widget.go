package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Danz17/AIO-Launcher-Widget-sub000/widget"
)

// widgetExec 执行请求体里的脚本源码，返回执行响应。
// 加载/运行失败编码在响应的 error 字段里，HTTP 层始终 200，
// 让前端统一按执行响应处理。
func widgetExec(c echo.Context) error {
	req := &widget.ExecRequest{}
	if err := c.Bind(req); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	if req.Source == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"err": "source 不能为空",
		})
	}
	resp := myHost.Execute(req)
	notifyWatchers(resp)
	return c.JSON(http.StatusOK, resp)
}

func widgetList(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"scripts": myHost.ScriptList,
	})
}

func widgetReload(c echo.Context) error {
	if err := myHost.LoadScripts(); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"err": err.Error(),
		})
	}
	rescheduleRefresh(myHost)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": len(myHost.ScriptList),
	})
}

// widgetRun 按名称执行清单中的组件脚本。
func widgetRun(c echo.Context) error {
	info := myHost.FindScript(c.Param("name"))
	if info == nil {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"err": "组件不存在",
		})
	}
	resp := myHost.ExecuteScript(info, nil)
	notifyWatchers(resp)
	return c.JSON(http.StatusOK, resp)
}
