// Package main is the entry point of the TradeSentry service.
// It initializes the Kratos application with the HTTP server and the
// background cron scheduler.
package main

import (
	"flag"
	"os"

	"TradeSentry/internal/conf"
	zapLogger "TradeSentry/pkg/log"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/tracing"
	"github.com/go-kratos/kratos/v2/transport/http"

	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name = "TradeSentry"
	// Version is the version of the compiled software.
	Version string
	// flagconf is the config flag.
	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs/config.yaml", "config path, eg: -conf config.yaml")
}

func newApp(logger log.Logger, hs *http.Server, cr *cronRunner) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(
			hs,
			cr,
		),
	)
}

func main() {
	flag.Parse()

	bc, err := conf.NewBootstrap(flagconf)
	if err != nil {
		// Fallback logger, Zap is not up yet
		log.Fatalf("failed to load configuration: %v", err)
	}

	zapLog, err := zapLogger.NewZapLogger(bc.Log)
	if err != nil {
		log.Fatalf("failed to initialize zap logger: %v", err)
	}
	defer zapLog.Sync()

	logger := zapLogger.NewKratosAdapter(zapLog)
	logger = log.With(logger,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
		"trace.id", tracing.TraceID(),
		"span.id", tracing.SpanID(),
	)

	log.NewHelper(logger).Infow(
		"msg", "TradeSentry service starting",
		"type", "startup",
		"log.level", bc.Log.Level,
		"log.format", bc.Log.Format,
		"log.env", bc.Log.Env,
		"http.addr", bc.Server.Http.Addr,
	)

	app, cleanup, err := wireApp(bc.Server, bc.Data, bc.Guard, bc.Market, bc.Auth, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	// start and wait for stop signal
	if err := app.Run(); err != nil {
		panic(err)
	}
}
