package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sobako/babywatch/app/api"
	"github.com/sobako/babywatch/app/cfg"
	"github.com/sobako/babywatch/app/feed"
	"github.com/sobako/babywatch/app/resolve"
	"github.com/sobako/babywatch/app/store"
	"github.com/sobako/babywatch/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogging(appCfg.Debug)
	slog.Info("Starting BabyWatch server", "version", appCfg.Version)

	// Store client and repositories
	client := store.NewClient(appCfg.StoreURL, appCfg.StoreKey)
	sourceRepo := store.NewSourceRepo(client)
	zooRepo := store.NewZooRepo(client)
	fingerprintRepo := store.NewFingerprintRepo(client)
	eventRepo := store.NewEventRepo(client)
	babyRepo := store.NewBabyRepo(client)
	newsRepo := store.NewNewsRepo(client)
	logRepo := store.NewLogRepo(client)

	// Core components
	httpClient := &http.Client{Timeout: 30 * time.Second}
	feedParser := feed.NewParser()
	articleParser := feed.NewArticleParser()
	resolver := resolve.NewResolver(sourceRepo, zooRepo, eventRepo, babyRepo, appCfg.MaxResolveBatch)

	// Scheduler with one registration per job
	scheduler := tasks.NewScheduler(appCfg.WorkerCount)
	scheduler.Register(tasks.JobNews, time.Duration(appCfg.FeedInterval)*time.Second, func() tasks.TaskInterface {
		return tasks.NewIngestFeedsTask(sourceRepo, eventRepo, newsRepo, fingerprintRepo, logRepo,
			feedParser, httpClient, appCfg.UserAgent, appCfg.MaxFeedSources)
	})
	scheduler.Register(tasks.JobSites, time.Duration(appCfg.SiteInterval)*time.Second, func() tasks.TaskInterface {
		return tasks.NewIngestSitesTask(sourceRepo, eventRepo, fingerprintRepo, logRepo,
			articleParser, httpClient, appCfg.UserAgent, appCfg.MaxSiteSources)
	})
	scheduler.Register(tasks.JobResolve, time.Duration(appCfg.ResolveInterval)*time.Second, func() tasks.TaskInterface {
		return tasks.NewResolveTask(resolver, logRepo)
	})
	scheduler.Register(tasks.JobZoos, time.Duration(appCfg.ZooInterval)*time.Second, func() tasks.TaskInterface {
		return tasks.NewRefreshZoosTask(zooRepo, logRepo, httpClient, appCfg.UserAgent)
	})

	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "jobs", scheduler.Jobs(), "workers", appCfg.WorkerCount)

	// HTTP server
	apiHandler := api.NewHandler(scheduler, sourceRepo, eventRepo, babyRepo, appCfg.RunToken)
	server := api.NewServer(apiHandler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // manual runs respond after the job finishes
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
