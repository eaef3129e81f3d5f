package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	groundstation "github.com/DavidHuang10/rocket-ground-station-25-26"
)

func main() {
	cfg, err := groundstation.LoadConfig("../../config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	rt, err := groundstation.NewRuntime(cfg)
	if err != nil {
		log.Fatalf("build runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("ground station exited: %v", err)
	}
}
