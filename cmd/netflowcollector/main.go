package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adelbot/logstash-codec-netflow/cache"
	"github.com/adelbot/logstash-codec-netflow/catalog"
	"github.com/adelbot/logstash-codec-netflow/collector"
	"github.com/adelbot/logstash-codec-netflow/config"
	"github.com/adelbot/logstash-codec-netflow/metrics"
	"github.com/adelbot/logstash-codec-netflow/record"
	"github.com/adelbot/logstash-codec-netflow/sink"
)

var (
	version    = ""
	buildinfos = ""
	appVersion = "netflowcollector " + version + " " + buildinfos

	mappingFile = flag.String("mapping", "", "path to a YAML config file overlaying the flag defaults")
	showVersion = flag.Bool("v", false, "print version")
)

func main() {
	cfg := config.BindFlags(flag.CommandLine)
	flag.Parse()

	if *showVersion {
		fmt.Println(appVersion)
		os.Exit(0)
	}

	if *mappingFile != "" {
		f, err := os.Open(*mappingFile)
		if err != nil {
			log.Fatalf("error opening mapping file: %v", err)
		}
		err = config.Load(cfg, f)
		f.Close()
		if err != nil {
			log.Fatalf("error loading mapping file: %v", err)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatal("error parsing log level")
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	v9Catalog, err := catalog.LoadNetFlowV9(cfg.NetflowDefinitions)
	if err != nil {
		logger.Error("error loading NetFlow v9 catalog", "error", err.Error())
		os.Exit(1)
	}
	ipfixCatalog, err := catalog.LoadIPFIX(cfg.IPFIXDefinitions)
	if err != nil {
		logger.Error("error loading IPFIX catalog", "error", err.Error())
		os.Exit(1)
	}

	versions, err := cfg.AcceptedVersions()
	if err != nil {
		logger.Error("error parsing accepted versions", "error", err.Error())
		os.Exit(1)
	}

	tmplCache := cache.New(cfg.CacheTTL)
	promMetrics := metrics.New(tmplCache)

	decoder := &record.Decoder{
		V9Catalog:    v9Catalog,
		IPFIXCatalog: ipfixCatalog,
		Cache:        tmplCache,
		Target:       cfg.Target,
		Versions:     versions,
		Log:          logger,
		Metrics:      promMetrics,
	}

	sinkDriverName := cfg.Sink
	if sinkDriverName == "" {
		sinkDriverName = "stdout"
	}
	s, err := sink.Find(sinkDriverName, logger)
	if err != nil {
		logger.Error("error finding sink", "error", err.Error())
		os.Exit(1)
	}
	defer s.Close()

	coll, err := collector.New(collector.Config{
		Host:       cfg.Host,
		Port:       cfg.Port,
		BufferSize: cfg.BufferSize,
		QueueSize:  cfg.QueueSize,
		Workers:    cfg.Workers,
		Decoder:    decoder,
		Sink:       s,
		Logger:     logger,

		DropLogInterval: cfg.ErrInt,
		DropLogMax:      cfg.ErrCnt,
	})
	if err != nil {
		logger.Error("error building collector", "error", err.Error())
		os.Exit(1)
	}

	var collecting bool
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/__health", func(w http.ResponseWriter, r *http.Request) {
		if !collecting {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Not OK\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK\n"))
	})
	srv := &http.Server{Addr: cfg.Addr, ReadHeaderTimeout: 5 * time.Second}
	if cfg.Addr != "" {
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "error", err.Error())
				os.Exit(1)
			}
		}()
	}

	if err := coll.Start(); err != nil {
		logger.Error("error starting collector", "error", err.Error())
		os.Exit(1)
	}
	collecting = true
	logger.Info("netflowcollector started", "host", cfg.Host, "port", cfg.Port)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	collecting = false
	coll.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("error shutting down HTTP server", "error", err.Error())
	}
	logger.Info("netflowcollector stopped")
}
