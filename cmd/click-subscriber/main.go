package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/redis/go-redis/v9"
	"github.com/tckz/click-counter/internal/config"
	"github.com/tckz/click-counter/internal/counter"
	"github.com/tckz/click-counter/internal/log"
	"github.com/tckz/click-counter/internal/marker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	myName  = filepath.Base(os.Args[0])
	logger  *zap.SugaredLogger
	version string
)

var (
	optWorkers      = flag.Int("workers", 4, "Number of Receive loops")
	optLogLevel     = flag.String("log-level", "info", "info|warn|error")
	optSubscription = flag.String("subscription", "", "subscription name")
	optMarkerRedis  = flag.String("marker-redis", "", "addr:port of redis for dedupe marks; local cache if empty")
	optMarkerTTL    = flag.Duration("marker-ttl", 10*time.Minute, "how long a processed message id is remembered")
)

func main() {
	// Not in init: the test binary registers its flags after package init.
	flag.Parse()
	logger = log.Must(log.NewLogger(log.WithLogLevel(*optLogLevel))).Sugar().With(zap.String("app", myName))

	logger.Infof("ver=%s, args=%s", version, os.Args)
	defer logger.Infof("done")

	if *optSubscription == "" {
		logger.Fatalf("*** --subscription must be specified.")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("*** config.Load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := counter.Open(ctx, cfg)
	if err != nil {
		logger.Fatalf("*** counter.Open: %v", err)
	}
	defer store.Close()

	cl, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		logger.Fatalf("*** pubsub.NewClient: %v", err)
	}
	defer cl.Close()

	var processMarker marker.ProcessMarker
	if *optMarkerRedis == "" {
		processMarker = marker.NewLocalMarker(*optMarkerTTL)
	} else {
		rc := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:        []string{*optMarkerRedis},
			DialTimeout:  time.Second * 2,
			ReadTimeout:  time.Second * 2,
			WriteTimeout: time.Second * 2,
			PoolSize:     200,
			PoolTimeout:  time.Second * 5,
		})
		defer rc.Close()
		processMarker = marker.NewRedisMarker(rc, *optMarkerTTL)
	}

	h := &handler{store: store, marker: processMarker, logger: logger}

	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < *optWorkers; i++ {
		eg.Go(func() error {
			subs := cl.Subscription(*optSubscription)
			return subs.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
				if h.handle(ctx, msg.ID, msg.Data, msg.Attributes) {
					msg.Ack()
				} else {
					msg.Nack()
				}
			})
		})
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Infof("Received signal: %v", s)
	case <-ctx.Done():
	}
	cancel()

	logger.Infof("Waiting goroutines exit")
	if err := eg.Wait(); err != nil {
		logger.Errorf("Wait: %v", err)
	}
	logger.Infof("applied=%d, duplicated=%d, dropped=%d, failed=%d",
		atomic.LoadInt64(&h.applied), atomic.LoadInt64(&h.duplicated),
		atomic.LoadInt64(&h.dropped), atomic.LoadInt64(&h.failed))
}
