package main

import (
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/Danz17/AIO-Launcher-Widget-sub000/api"
	"github.com/Danz17/AIO-Launcher-Widget-sub000/widget"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the widget dev server",
	Long: `Start an HTTP server for widget development.

Endpoints:
  POST /widget/exec        Execute script source from the request body
  GET  /widget/list        List scripts found in the data directory
  POST /widget/reload      Rescan the scripts directory
  POST /widget/run/{name}  Execute a script from the list by name
  GET  /widget/watch       Websocket stream of execution results`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":3456", "Listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) {
	logger := newLogger(cmd)
	dataDir, _ := cmd.Flags().GetString("data-dir")
	addr, _ := cmd.Flags().GetString("addr")

	host, err := widget.NewHost(widget.HostConfig{DataDir: dataDir}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := host.LoadScripts(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	api.Setup(e, host)
	api.StartRefresh(host)
	defer api.StopRefresh()

	logger.Infof("组件开发服务器已启动: %s，已发现 %d 个组件脚本", addr, len(host.ScriptList))
	if err := e.Start(addr); err != nil {
		logger.Errorf("服务器退出: %v", err)
		os.Exit(1)
	}
}
