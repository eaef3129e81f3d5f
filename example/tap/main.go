package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

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
	if err := rt.Start(); err != nil {
		log.Fatalf("start: %v", err)
	}

	tap := rt.Subscribe()
	defer tap.Close()
	fmt.Printf("attached with %d historical samples\n", len(tap.Snapshot))

	go func() {
		for ev := range tap.Events() {
			switch ev.Kind {
			case groundstation.EventClear:
				fmt.Println("session cleared, discarding view")
			default:
				for _, s := range ev.Samples {
					fmt.Printf("t=%.3f %s=%.4f\n", s.Time, s.Source, s.Value)
				}
			}
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rt.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
