package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-httpkit/internal/app"
	"github.com/samvad-hq/samvad-httpkit/internal/config"
	"github.com/samvad-hq/samvad-httpkit/internal/logger"
)

const usage = `usage:
  httpkit run                      run the configured request profiles
  httpkit get  [flags] URL         issue a GET request
  httpkit post [flags] URL         issue a POST request
  httpkit put  [flags] URL         issue a PUT request

run "httpkit get -h" for request flags`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "httpkit: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd := args[0]; cmd {
	case "run":
		return runProfiles(ctx, cfg, logger.NewZapLogger(log))
	case "get", "post", "put":
		return runRequest(ctx, cfg, logger.NewZapLogger(log), cmd, args[1:], stdout)
	case "-h", "--help", "help":
		fmt.Fprintln(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func runProfiles(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	log.InfoObj("runner starting", "config", cfg)

	r, err := app.NewRunner(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize runner", "error", err)
		return err
	}
	if err := r.Run(ctx); err != nil {
		return fmt.Errorf("runner run: %w", err)
	}
	return nil
}
