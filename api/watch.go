package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Danz17/AIO-Launcher-Widget-sub000/widget"
)

var upgrader = websocket.Upgrader{
	// 本地开发工具，放开跨域
	CheckOrigin: func(_ *http.Request) bool { return true },
}

var (
	watchersMu sync.Mutex
	watchers   = map[*websocket.Conn]bool{}
)

// widgetWatch 升级为 websocket，之后每次组件执行完成都把执行响应推给
// 所有在线连接，供开发界面实时预览渲染输出。
func widgetWatch(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	watchersMu.Lock()
	watchers[conn] = true
	watchersMu.Unlock()

	go func() {
		defer func() {
			watchersMu.Lock()
			delete(watchers, conn)
			watchersMu.Unlock()
			_ = conn.Close()
		}()
		for {
			// 只为感知断开，丢弃入站消息
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return nil
}

func notifyWatchers(resp *widget.ExecResponse) {
	watchersMu.Lock()
	defer watchersMu.Unlock()
	for conn := range watchers {
		if err := conn.WriteJSON(resp); err != nil {
			delete(watchers, conn)
			_ = conn.Close()
		}
	}
}
