package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/tckz/click-counter/internal/config"
	"github.com/tckz/click-counter/internal/counter"
	"github.com/tckz/click-counter/internal/log"
	"github.com/tckz/click-counter/internal/server"
	"go.uber.org/zap"
)

var (
	myName  = filepath.Base(os.Args[0])
	logger  *zap.SugaredLogger
	version string
)

var (
	optLogLevel = flag.String("log-level", "", "debug|info|warn|error (default $LOG_LEVEL)")
	optPort     = flag.String("port", "", "listen port (default $PORT)")
	optStore    = flag.String("store", "", "sqlite|postgres|redis|datastore|riak|memory (default $COUNTER_STORE)")
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

func main() {
	flag.Parse()

	// Until the config is read, log at the flag level or info.
	level := *optLogLevel
	if level == "" {
		level = "info"
	}
	logger = log.Must(log.NewLogger(log.WithLogLevel(level), log.WithApp(myName))).Sugar()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("*** config.Load: %v", err)
	}
	if *optLogLevel != "" {
		cfg.LogLevel = *optLogLevel
	}
	if *optPort != "" {
		cfg.Port = *optPort
	}
	if *optStore != "" {
		cfg.Store = *optStore
		if err := cfg.Validate(); err != nil {
			logger.Fatalf("*** --store=%s: %v", *optStore, err)
		}
	}

	zl := log.Must(log.NewLogger(log.WithLogLevel(cfg.LogLevel), log.WithApp(myName)))
	defer zl.Sync()
	logger = zl.Sugar()

	logger.Infof("ver=%s, args=%s", version, os.Args)
	defer logger.Infof("done")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := counter.Open(ctx, cfg)
	if err != nil {
		logger.Fatalf("*** counter.Open: store=%s, %v", cfg.Store, err)
	}
	defer store.Close()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.New(store, zl).Handler(),
	}

	chErr := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s, store=%s", srv.Addr, cfg.Store)
		chErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-chErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("*** ListenAndServe: %v", err)
		}
		return
	case <-ctx.Done():
		logger.Infof("Received signal, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Shutdown: %v", err)
	}
}
