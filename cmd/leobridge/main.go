package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/docopt/docopt-go"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/leobridge/internal/bridge"
	"github.com/danmuck/leobridge/internal/logging"
	"github.com/danmuck/leobridge/internal/outline"
	"github.com/danmuck/leobridge/internal/server"
)

const Version = "0.1.0"

const usage = `Leo outline bridge.

Serves outline navigation and editing to remote clients over NDJSON/TCP,
WebSocket, or tagged lines on stdin/stdout.

Usage:
    leobridge serve [--config=<path>] [--tcp=<addr>] [--http=<addr>] [--open=<file>]
    leobridge pipe [--config=<path>] [--open=<file>]
    leobridge check <file>
    leobridge actions
    leobridge -h | --help
    leobridge --version

Options:
    -h --help          Show this screen.
    --version          Show version.
    --config=<path>    TOML config file.
    --tcp=<addr>       NDJSON listen address.
    --http=<addr>      HTTP listen address serving /ws, /health, /ready and /metrics.
    --open=<file>      Outline opened for every new session.`

func main() {
	logging.ConfigureRuntime()

	opts, err := docopt.ParseArgs(usage, os.Args[1:], Version)
	if err != nil {
		fail(err)
	}

	switch {
	case isCommand(opts, "serve"):
		err = serve(opts)
	case isCommand(opts, "pipe"):
		err = pipe(opts)
	case isCommand(opts, "check"):
		path, _ := opts.String("<file>")
		err = check(path)
	case isCommand(opts, "actions"):
		err = actions()
	}
	if err != nil {
		fail(err)
	}
}

func serve(opts docopt.Opts) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}
	if addr, ok := stringOpt(opts, "--tcp"); ok {
		cfg.TCPAddr = addr
	}
	if addr, ok := stringOpt(opts, "--http"); ok {
		cfg.HTTPAddr = addr
	}

	svc, err := server.NewService(cfg)
	if err != nil {
		return err
	}
	return svc.Run()
}

// pipe serves a single session on stdin/stdout. Logs stay on stderr.
func pipe(opts docopt.Opts) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}
	svc, err := server.NewService(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return svc.ServePipe(ctx, os.Stdin, os.Stdout)
}

// check opens path and runs the round-trip verifier over every position.
func check(path string) error {
	doc, err := outline.Open(path)
	if err != nil {
		return err
	}
	cache := bridge.BuildIdentityCache(doc.UniqueNodes())
	report, err := bridge.Verify(doc, cache, bridge.NewCodec(doc, cache))
	if err != nil {
		return err
	}
	fmt.Printf("ok %s positions=%d unique_nodes=%d duration=%s\n",
		path, report.Positions, report.CacheEntries, report.Duration)
	return nil
}

func actions() error {
	for _, spec := range bridge.Catalogue {
		key := spec.ResultKey
		if key == "" {
			key = "(ack)"
		}
		fmt.Printf("%-16s %-11s %s\n", spec.Name, key, spec.Description)
	}
	return nil
}

func resolveConfig(opts docopt.Opts) (server.ServiceConfig, error) {
	cfg := server.DefaultServiceConfig()
	if path, ok := stringOpt(opts, "--config"); ok {
		loaded, err := loadServiceConfig(path)
		if err != nil {
			return server.ServiceConfig{}, err
		}
		cfg = loaded
		log.Info().Str("path", path).Msg("leobridge config loaded")
	}
	if file, ok := stringOpt(opts, "--open"); ok {
		cfg.OpenOnStart = file
	}
	return cfg, nil
}

func isCommand(opts docopt.Opts, name string) bool {
	v, _ := opts.Bool(name)
	return v
}

func stringOpt(opts docopt.Opts, name string) (string, bool) {
	v, ok := opts[name].(string)
	return v, ok && v != ""
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "leobridge: %v\n", err)
	os.Exit(1)
}
