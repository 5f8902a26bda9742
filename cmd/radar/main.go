package main

import (
	"fmt"
	"os"

	"github.com/NoBody0206/market-radar/internal/cli"
	"github.com/NoBody0206/market-radar/internal/config"
	"github.com/NoBody0206/market-radar/internal/logging"
)

func main() {
	cfg, err := config.Load(os.Getenv("RADAR_CONFIG_DIR"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Console = cfg.Logging.Console
	logCfg.File = cfg.Logging.File
	logger := logging.NewLoggerWithConfig(logCfg)

	if err := cli.Execute(cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
