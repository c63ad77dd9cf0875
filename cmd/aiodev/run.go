package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Danz17/AIO-Launcher-Widget-sub000/widget"
)

var runCmd = &cobra.Command{
	Use:   "run <script.lua>",
	Short: "Run one widget script and print its render output",
	Args:  cobra.ExactArgs(1),
	Run:   runRun,
}

func init() {
	runCmd.Flags().String("entry", "", "Entry point function (default: on_resume)")
	runCmd.Flags().String("mocks", "", "Path to a mock rules JSON file")
	runCmd.Flags().Duration("timeout", 20*time.Second, "Session timeout")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) {
	logger := newLogger(cmd)
	dataDir, _ := cmd.Flags().GetString("data-dir")
	entry, _ := cmd.Flags().GetString("entry")
	mocksPath, _ := cmd.Flags().GetString("mocks")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	host, err := widget.NewHost(widget.HostConfig{
		DataDir:        dataDir,
		SessionTimeout: timeout,
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	req := &widget.ExecRequest{
		Source:     string(source),
		EntryPoint: entry,
	}
	if mocksPath != "" {
		raw, err := os.ReadFile(mocksPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		req.MockRules = raw
	}

	resp := host.Execute(req)
	out, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Println(string(out))

	if resp.Error != nil {
		os.Exit(1)
	}
}
