package main

import (
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/autorescue/autorescue/internal/api"
	"github.com/autorescue/autorescue/internal/app"
	"github.com/autorescue/autorescue/internal/auth"
	"github.com/autorescue/autorescue/internal/config"
)

func main() {
	if err := runFn(os.Args[1:], os.Getenv, listenAndServe, newServer); err != nil {
		fatalf("server error: %v", err)
	}
}

var runFn = run
var fatalf = log.Fatalf

func newServer(cfg config.Config) (*http.Server, error) {
	logger := slog.Default()

	engine, store, err := app.NewEngine(cfg, logger)
	if err != nil {
		return nil, err
	}

	h := &api.Handler{
		Auth:          &auth.TokenAuthenticator{Token: cfg.APIToken},
		Runner:        engine,
		Outbox:        store,
		MinDelayHours: cfg.MinDelayHours,
		Logger:        logger,
	}
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}, nil
}

type envFn func(string) string
type listenFn func(*http.Server) error
type serverFactory func(cfg config.Config) (*http.Server, error)

func run(args []string, getenv envFn, listen listenFn, factory serverFactory) error {
	fs := flag.NewFlagSet("rescue-gateway", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to rescue config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfgFile := *configPath
	if cfgFile == "" {
		cfgFile = getenv("RESCUE_CONFIG_PATH")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	server, err := factory(cfg)
	if err != nil {
		return err
	}

	log.Printf("rescue-gateway listening on %s", cfg.ListenAddr)
	if err := listen(server); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func listenAndServe(server *http.Server) error {
	return server.ListenAndServe()
}
