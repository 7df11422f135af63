package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/fiolab/fio-fetcher/config"
	"github.com/fiolab/fio-fetcher/fetcher"
	"github.com/fiolab/fio-fetcher/fio"
	"github.com/fiolab/fio-fetcher/pkg/db"
	"github.com/fiolab/fio-fetcher/pkg/logger"
	"github.com/fiolab/fio-fetcher/pkg/postgres"
	"github.com/fiolab/fio-fetcher/server"
	storage "github.com/fiolab/fio-fetcher/storage/postgres"
)

func main() {
	ctx := context.Background()
	log := logger.New(true)

	cfg, err := config.ParseEnv(ctx)
	if err != nil {
		log.Fatal("can't parse configuration", zap.Error(err))
	}

	log = logger.New(cfg.Debug)

	pool, err := postgres.Connect(ctx, cfg.DB)
	if err != nil {
		log.Fatal("can't connect to db", zap.Error(err))
	}
	defer pool.Close()

	database := db.NewDB(pool, log)
	store := storage.New(database)

	client := fio.NewClient(cfg.Fio)
	if !client.Configured() {
		log.Warn("no Fio token configured, fetch runs will load the bundled example statement")
	}

	broadcaster := fetcher.NewBroadcaster(cfg.Fetch.EventBuffer, log.Logger)
	service := fetcher.New(store, client, broadcaster, log.Logger, cfg.Fetch)

	api := server.New(log, store, service, broadcaster, server.ConfigInfo{
		Host:              cfg.HTTP.Host,
		Port:              cfg.HTTP.Port,
		APIURL:            cfg.Fio.BaseURL,
		TokenMasked:       fio.MaskTokenDisplay(cfg.Fio.Token),
		LookbackDays:      cfg.Fetch.LookbackDays,
		AutoFetchInterval: cfg.Fetch.AutoFetchInterval.String(),
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runForever(
		log,
		func() { broadcaster.Run(ctx) },
		func() { service.AutoRun(ctx) },
		func() {
			log.Info("http server listening", zap.String("addr", cfg.HTTP.Addr()))
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal("http server", zap.Error(err))
			}
		},
	)

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	<-exit

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	log.Info("fio-fetcher has been stopped")
}

// runForever spawns goroutine for every f in ff. Each f is logged and restarted if panic occurs. It's non-blocking.
func runForever(log *logger.Logger, ff ...func()) {
	for i := range ff {
		f := ff[i]
		go func() {
			var pc panics.Catcher
			pc.Try(f)
			if err := pc.Recovered().AsError(); err != nil {
				log.Error("panic", zap.Error(err))
				time.Sleep(time.Minute)
				runForever(log, f)
			}
		}()
	}
}
