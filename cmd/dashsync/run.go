package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"DashSync/internal/dashboard"
	"DashSync/internal/feed"
	"DashSync/internal/notifier"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the synchronizer until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log.Println("[INFO] DashSync starting...")

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			var srv *http.Server
			if cfg.Feed.ListenAddr != "" {
				hub := feed.NewHub()
				a.dash.Publishers = append(a.dash.Publishers, hub)
				srv = &http.Server{Addr: cfg.Feed.ListenAddr, Handler: hub.Handler(), ReadHeaderTimeout: 10 * time.Second}
				go func() {
					log.Printf("[INFO] view feed listening on %s", cfg.Feed.ListenAddr)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Printf("[ERROR] view feed: %v", err)
					}
				}()
			}

			if cfg.Telegram.BotToken != "" {
				tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
				tn.Ctx = ctx
				a.dash.Alerters = append(a.dash.Alerters, tn)
				go tn.StartPolling(ctx, notifier.NewCommandHandler(ctx, a.dash, a.dispatcher, a.coordinator))
				log.Println("[INFO] Telegram polling started")
			}

			a.dash.Bootstrap(ctx)
			a.sched.Start()
			log.Printf("[INFO] DashSync is running (tasks: %v). Press Ctrl+C to stop.", a.sched.Tasks())

			<-ctx.Done()
			log.Println("[INFO] shutdown signal received, stopping...")
			a.sched.Stop()
			if srv != nil {
				shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
				defer done()
				srv.Shutdown(shutdownCtx)
			}
			log.Println("[INFO] DashSync stopped")
			return nil
		},
	}
}

// Both the hub and the notifier hang off the dashboard's extension points.
var (
	_ dashboard.Publisher = (*feed.Hub)(nil)
	_ dashboard.Alerter   = (*notifier.TelegramNotifier)(nil)
)
