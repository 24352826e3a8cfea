package main

import (
	"context"
	"fmt"
	"log"

	"DashSync/internal/collector"
	"DashSync/internal/command"
	"DashSync/internal/config"
	"DashSync/internal/dashboard"
	"DashSync/internal/mode"
	"DashSync/internal/recorder"
	"DashSync/internal/scheduler"
	"DashSync/internal/session"
	"DashSync/internal/strategy"
)

// app is the wired object graph shared by every subcommand.
type app struct {
	cfg         *config.Config
	client      *collector.Client
	rec         recorder.Recorder
	sched       *scheduler.Scheduler
	dash        *dashboard.Dashboard
	dispatcher  *command.Dispatcher
	coordinator *mode.Coordinator
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	client := collector.NewClient(cfg.Remote.BaseURL, cfg.Remote.APIKey, cfg.Remote.HTTPTimeout, cfg.Proxy)
	log.Printf("[INFO] trading service: %s", client.BaseURL)

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	sess, err := session.NewStore(cfg.Session.StateFile)
	if err != nil {
		rec.Close()
		return nil, fmt.Errorf("init session store: %w", err)
	}
	log.Printf("[INFO] session %s (cached api_connected=%v, unverified)", sess.Get().ClientID, sess.Get().APIConnected)

	sched := scheduler.NewScheduler(ctx)
	sched.Debug = cfg.Log.Debug

	dash, err := dashboard.New(collector.NewCollector(client), sched, strategy.NewEngine(cfg.Timeframes()), sess, rec, dashboard.Options{
		Intervals: dashboard.Intervals{
			Status:      cfg.Polling.Status,
			Chart:       cfg.Polling.Chart,
			Leaderboard: cfg.Polling.Leaderboard,
			Presence:    cfg.Polling.Presence,
			Heartbeat:   cfg.Polling.Heartbeat,
		},
		ChartTimeframe: cfg.Polling.ChartTimeframe,
		LostAfter:      cfg.Polling.ConnectivityLostAfter,
		Debug:          cfg.Log.Debug,
	})
	if err != nil {
		rec.Close()
		return nil, err
	}

	return &app{
		cfg:         cfg,
		client:      client,
		rec:         rec,
		sched:       sched,
		dash:        dash,
		dispatcher:  command.NewDispatcher(client, dash, dash, rec, cfg.Polling.RefreshPerSecond),
		coordinator: mode.NewCoordinator(dash, client, rec, cfg.Mode.SettleDelay, cfg.Mode.ResumeDelay),
	}, nil
}

func (a *app) Close() {
	a.dispatcher.Close()
	a.dash.Close()
	if err := a.rec.Close(); err != nil {
		log.Printf("[WARN] close recorder: %v", err)
	}
}
