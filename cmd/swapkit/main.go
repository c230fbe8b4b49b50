// =============================
// File: cmd/swapkit/main.go
// =============================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"swapkit/internal/app"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: swapkit [-config path] <quote|swap|add-liquidity|advise|reserves|balances> ...")
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bootstrap logger; Initialize replaces it with the configured one.
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	runner := app.NewRunner(logger)
	if err := runner.Initialize(ctx, *configPath); err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer runner.Close()

	if err := runner.Run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
