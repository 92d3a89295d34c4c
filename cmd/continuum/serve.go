package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/continuum-ai/continuum/internal/auth"
	"github.com/continuum-ai/continuum/internal/catalog"
	"github.com/continuum-ai/continuum/internal/config"
	"github.com/continuum-ai/continuum/internal/db"
	"github.com/continuum-ai/continuum/internal/download"
	"github.com/continuum-ai/continuum/internal/hardware"
	"github.com/continuum-ai/continuum/internal/httpapi"
	"github.com/continuum-ai/continuum/internal/httpapi/handlers"
	"github.com/continuum-ai/continuum/internal/kv"
	"github.com/continuum-ai/continuum/internal/notify"
	"github.com/continuum-ai/continuum/internal/privacy"
	"github.com/continuum-ai/continuum/internal/session"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the control API for the UI shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg := config.Load()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return err
	}

	kvs, err := openKV(cfg)
	if err != nil {
		return err
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.AMQPURL != "" {
		amqpN, err := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			log.Printf("amqp notifier unavailable, falling back to log: %v", err)
		} else {
			defer amqpN.Close()
			notifier = notify.Multi{notify.LogNotifier{}, amqpN}
		}
	}

	priv := privacy.NewStore()
	guard := privacy.NewGuard(priv, nil)

	downloads := download.NewStore()
	manager, err := download.NewManager(downloads, guard.Client(), notifier, cfg.ModelsDir)
	if err != nil {
		return err
	}
	manager.SetConcurrency(cfg.DownloadConcurrency)

	sessions := session.NewStore(kvs)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sessions.Initialize(ctx); err != nil {
		log.Printf("session recovery failed: %v", err)
	}
	if notice, ok := sessions.ConsumeRecoveryNotice(); ok {
		if err := notifier.Notify(ctx, "Sessions restored", notice); err != nil {
			log.Printf("notify: %v", err)
		}
	}

	cat := catalog.NewStore(kvs)
	if err := cat.Load(ctx); err != nil {
		log.Printf("catalog load failed: %v", err)
	}

	detector := hardware.NewDetector(nil)

	tokenHash, err := auth.HashToken(cfg.APIToken)
	if err != nil {
		return err
	}

	h := handlers.NewHandler(cfg, tokenHash, sessions, downloads, manager, priv, detector, cat)
	r := httpapi.NewRouter(h)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: r}

	// auto-save loop: only dirty state hits the disk
	go func() {
		t := time.NewTicker(time.Duration(cfg.AutoSaveSeconds) * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if !sessions.Get().IsDirty {
					continue
				}
				if err := sessions.Save(ctx); err != nil {
					log.Printf("auto-save: %v", err)
				}
			}
		}
	}()

	go func() {
		<-ctx.Done()
		log.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)

		// final flush
		saveCtx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		if err := sessions.Save(saveCtx); err != nil {
			log.Printf("final save: %v", err)
		}
		if err := cat.Save(saveCtx); err != nil {
			log.Printf("catalog save: %v", err)
		}
	}()

	log.Printf("listening on %s", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func openKV(cfg config.Config) (kv.Store, error) {
	if cfg.KVBackend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return kv.NewRedisStore(client, ""), nil
	}
	gdb := db.Connect(cfg.DBDSN)
	return kv.NewGormStore(gdb)
}
