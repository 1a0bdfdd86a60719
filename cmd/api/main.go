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

	"k8s.io/klog/v2"

	"github.com/bryanwahyu/repo-audit/internal/bootstrap"
	"github.com/bryanwahyu/repo-audit/internal/config"
	"github.com/bryanwahyu/repo-audit/internal/infra/httpserver"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		klog.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()
	app, err := bootstrap.Build(ctx, cfg, true)
	if err != nil {
		klog.Fatalf("init error: %v", err)
	}
	defer app.Close()

	handler := httpserver.NewRouter(app.Service, httpserver.Options{
		Metrics:        app.Metrics,
		HealthCheckers: app.Checkers,
		AllowedOrigins: cfg.Server.CORSOrigins,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		klog.Infof("server listening on %s (ai=%s artifacts=%s db=%q)",
			addr, cfg.AI.Provider, cfg.Artifacts.Driver, cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	klog.Info("shutting down server...")

	// in-flight analyses get a bounded window to finish and clean up
	ctx2, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		klog.Errorf("shutdown error: %v", err)
	}
}
