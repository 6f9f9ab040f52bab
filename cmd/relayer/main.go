package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"game-relayer/go-backend/internal/composition/relayserver"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "Path to relayer.yaml (optional)")
	httpAddr := flag.String("http-addr", "", "HTTP listen address override")
	flag.Parse()
	if *showVersion {
		fmt.Printf("relayer version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := relayserver.NewFromConfig(ctx, *configPath, *httpAddr, os.Stdout)
	if err != nil {
		log.Fatalf("relayer failed to initialize: %v", err)
	}

	log.Println("relayer starting")
	if err := svc.Run(ctx); err != nil {
		log.Fatalf("relayer failed: %v", err)
	}
	log.Println("relayer stopped")
}
