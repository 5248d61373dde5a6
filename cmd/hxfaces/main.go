package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pthm/hxfaces"
	"github.com/pthm/hxfaces/lib/html"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "serve":
		if err := runServe(args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("hxfaces version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`hxfaces - server-side component views over HTMX

Usage:
  hxfaces <command> [arguments]

Commands:
  serve     Serve the demo views
  version   Print version
  help      Show this help

Options for serve:
  -addr string     Listen address (default ":8080")
  -config string   YAML configuration file

Examples:
  hxfaces serve
  hxfaces serve -addr :3000 -config hxfaces.yaml`)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", ":8080", "listen address")
	configPath := fs.String("config", "", "YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := hxfaces.DefaultConfig()
	if *configPath != "" {
		loaded, err := hxfaces.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger, err := newLogger(cfg.ProjectStage)
	if err != nil {
		return err
	}
	defer logger.Sync()
	hxfaces.SetLogger(logger)

	app, err := hxfaces.NewApplication(hxfaces.WithConfig(cfg))
	if err != nil {
		return err
	}
	defer app.Close()
	html.Install(app)

	reg := hxfaces.NewRegistry(app)
	registerDemoViews(reg)

	mux := http.NewServeMux()
	mux.Handle("/", reg.Handler())
	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, hxfaces.ViewPath(cfg, "greet"), http.StatusFound)
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving", zap.String("addr", *addr), zap.Strings("views", app.ViewIDs()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(stage hxfaces.ProjectStage) (*zap.Logger, error) {
	if stage == hxfaces.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
