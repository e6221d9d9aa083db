/*
Opens a window and renders the testbed scene until the window
is closed or the process is interrupted.
*/
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/vtabletop/engine"
	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/testbed"
)

func main() {
	configPath := flag.String("config", envOr("VTABLETOP_CONFIG", "config.toml"), "path to the TOML configuration file")
	flag.Parse()

	cfg, err := core.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	tb := testbed.NewTestGame(cfg)

	e, err := engine.New(tb.Game)
	if err != nil {
		panic(err)
	}

	// capture sigterm and other system calls here
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		panic(err)
	}

	runErr := e.Run(ctx)
	if err := e.Shutdown(); err != nil {
		panic(err)
	}
	if runErr != nil {
		panic(runErr)
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
