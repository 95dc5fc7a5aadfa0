package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	httpin "github.com/clinicdesk/agenda-core/internal/adapters/in/http"
	"github.com/clinicdesk/agenda-core/internal/adapters/in/realtime"
	"github.com/clinicdesk/agenda-core/internal/adapters/out/cache"
	"github.com/clinicdesk/agenda-core/internal/adapters/out/central"
	"github.com/clinicdesk/agenda-core/internal/adapters/out/connectivity"
	"github.com/clinicdesk/agenda-core/internal/adapters/out/logger"
	"github.com/clinicdesk/agenda-core/internal/config"
	"github.com/clinicdesk/agenda-core/internal/core/ports/out"
	"github.com/clinicdesk/agenda-core/internal/core/services/schedule_grid_service"
	"github.com/clinicdesk/agenda-core/internal/timegrid"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	mainLogger := logger.NewZerologLogger(cfg.IsLocal())
	log := mainLogger.WithModule("Main")

	log.Info("app.starting", out.LogFields{
		"version":         cfg.App.Version,
		"env":             cfg.App.Env,
		"timezone":        cfg.App.Timezone,
		"connectivity":    cfg.Connectivity.Mode,
		"rabbitmqEnabled": cfg.RabbitMQ.Enabled,
	})

	if cfg.IsNotLocal() {
		gin.SetMode(gin.ReleaseMode)
	}

	clinic, err := timegrid.New(cfg.App.Timezone)
	if err != nil {
		log.Error("app.timezone.init_failed", out.LogFields{
			"timezone": cfg.App.Timezone,
			"error":    err.Error(),
		})
		os.Exit(1)
	}

	mode := out.Mode(cfg.Connectivity.Mode)
	classifier := connectivity.NewClassifier(mode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var centralAdapter out.CentralPort
	if !mode.UsesCacheOnly() {
		pool, err := central.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			log.Error("app.postgres.init_failed", out.LogFields{
				"error": err.Error(),
			})
			os.Exit(1)
		}
		defer pool.Close()
		centralAdapter = central.NewPgAdapter(pool, mainLogger)
	} else {
		// Pinned to the local store: the central adapter is never called,
		// but the router still needs one wired.
		centralAdapter = central.NewPgAdapter(nil, mainLogger)
	}

	cacheAdapter, err := cache.NewBoltAdapter(cfg.Cache.Path, cfg.Cache.HotSize, clinic, mainLogger)
	if err != nil {
		log.Error("app.cache.init_failed", out.LogFields{
			"path":  cfg.Cache.Path,
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer func() {
		if err := cacheAdapter.Close(); err != nil {
			log.Error("app.cache.close_failed", out.LogFields{
				"error": err.Error(),
			})
		}
	}()

	gridService := schedule_grid_service.NewScheduleGridService(
		centralAdapter,
		cacheAdapter,
		classifier,
		clinic,
		cfg,
		mainLogger,
	)

	router := gin.Default()
	controller := httpin.NewScheduleController(gridService, cfg)
	controller.RegisterRoutes(router)

	if cfg.RabbitMQ.Enabled {
		listener, err := realtime.NewChangeListener(gridService, cfg, mainLogger)
		if err != nil {
			log.Error("app.rabbitmq.init_failed", out.LogFields{
				"error": err.Error(),
			})
			os.Exit(1)
		}

		if err := listener.Start(ctx); err != nil {
			log.Error("app.rabbitmq.start_failed", out.LogFields{
				"error": err.Error(),
			})
			os.Exit(1)
		}

		defer func() {
			if err := listener.Stop(); err != nil {
				log.Error("app.rabbitmq.stop_failed", out.LogFields{
					"error": err.Error(),
				})
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("app.http.starting", out.LogFields{
			"host": cfg.HTTP.Host,
			"port": cfg.HTTP.Port,
		})

		if err := router.Run(cfg.HTTP.Host + ":" + cfg.HTTP.Port); err != nil {
			log.Error("app.http.failed", out.LogFields{
				"error": err.Error(),
			})
			sigChan <- syscall.SIGTERM
		}
	}()

	sig := <-sigChan
	log.Info("app.shutdown.initiated", out.LogFields{
		"signal": sig.String(),
	})

	// Let in-flight write-through tasks land before the cache closes.
	gridService.Tasks().Wait()
}
