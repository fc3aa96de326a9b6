package main

import (
	"context"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/tckz/click-counter/internal/log"
	vh "github.com/tckz/vegetahelper"
	vegeta "github.com/tsenart/vegeta/v12/lib"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
)

var (
	myName  = filepath.Base(os.Args[0])
	logger  *zap.SugaredLogger
	version string
)

var (
	optRate = &vh.RateFlag{
		Rate: &vegeta.Rate{
			Freq: 30,
			Per:  1 * time.Second,
		}}
	optDuration = flag.Duration("duration", 10*time.Second, "Duration of the test [0 = forever]")
	optOutput   = flag.String("output", "", "/path/to/results.bin or 'stdout'")
	optWorkers  = flag.Uint64("workers", vegeta.DefaultWorkers, "Number of workers")
	optLogLevel = flag.String("log-level", "info", "info|warn|error")
	optTarget   = flag.String("target", "http://localhost:3000", "base URL of click-server")
	optItems    = flag.Int("items", 100, "Number of distinct item uids to click")
	optAudience = flag.String("audience", "", "aud of an ID token to send; no auth if empty")
)

type nopWriteCloser struct {
	io.Writer
}

func (c nopWriteCloser) Close() error {
	return nil
}

func openResultFile(out string) (io.WriteCloser, error) {
	switch out {
	case "stdout":
		return &nopWriteCloser{os.Stdout}, nil
	default:
		return os.Create(out)
	}
}

// newHTTPClient attaches a Google ID token for audience, e.g. for a service behind Cloud Run IAM.
func newHTTPClient(ctx context.Context, audience string) (*http.Client, error) {
	if audience == "" {
		return http.DefaultClient, nil
	}
	ts, err := idtoken.NewTokenSource(ctx, audience)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

func main() {
	godotenv.Load()

	flag.Var(optRate, "rate", "Number of requests per time unit")
	flag.Parse()

	logger = log.Must(log.NewLogger(log.WithLogLevel(*optLogLevel))).Sugar().With(zap.String("app", myName))

	logger.Infof("ver=%s, args=%s", version, os.Args)
	defer logger.Infof("done")

	if *optOutput == "" {
		logger.Fatalf("*** --output must be specified.")
	}
	if *optItems <= 0 {
		logger.Fatalf("*** --items must be positive.")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := newHTTPClient(ctx, *optAudience)
	if err != nil {
		logger.Fatalf("*** idtoken.NewTokenSource: %v", err)
	}

	uids := lo.Times(*optItems, func(int) string { return uuid.New().String() })

	atk := vegeta.NewAttacker(vegeta.Client(client), vegeta.Workers(*optWorkers))
	res := atk.Attack(clickTargeter(*optTarget, uids), *optRate.Rate, *optDuration, "click-load")

	out, err := openResultFile(*optOutput)
	if err != nil {
		logger.Fatal(err)
	}
	defer out.Close()
	enc := vegeta.NewEncoder(out)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT)

	var metrics vegeta.Metrics
loop:
	for {
		select {
		case s := <-sig:
			logger.Infof("Received signal: %s", s)
			atk.Stop()
			// keep loop until 'res' is closed.
		case r, ok := <-res:
			if !ok {
				break loop
			}
			metrics.Add(r)
			if err := enc.Encode(r); err != nil {
				logger.Errorf("*** Encode: %v", err)
				break loop
			}
		}
	}
	metrics.Close()

	logger.With(zap.Any("status_codes", metrics.StatusCodes)).
		Infof("requests=%s, success=%.2f%%, p50=%s, p99=%s, sent=%s",
			humanize.Comma(int64(metrics.Requests)), metrics.Success*100,
			metrics.Latencies.P50, metrics.Latencies.P99, humanize.Bytes(metrics.BytesOut.Total))
}
