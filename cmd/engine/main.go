package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"jobagent-engine/internal/config"
	"jobagent-engine/internal/domain"
	"jobagent-engine/internal/events"
	"jobagent-engine/internal/httpapi"
	"jobagent-engine/internal/langfilter"
	"jobagent-engine/internal/report"
	"jobagent-engine/internal/scheduler"
	"jobagent-engine/internal/scrape"
	"jobagent-engine/internal/sink"
	"jobagent-engine/internal/store"
)

const serviceName = "jobagent-engine"

func main() {
	config.LoadDotEnv(".env")

	// Data dir can come from the environment before any config file exists.
	boot := config.Default()
	config.ApplyEnv(&boot)
	dataDir := boot.App.DataDir
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(userCfgPath)
		if err != nil {
			return cfg, err
		}
		config.ApplyEnv(&cfg)
		cfg, vr := config.NormalizeAndValidate(cfg)
		for _, w := range vr.Warnings {
			log.Printf("[config] warning: %s", w)
		}
		if !vr.OK() {
			return cfg, fmt.Errorf("invalid config: %v", vr.Errors)
		}
		return cfg, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPath := filepath.Join(dataDir, "jobagent.db")
	db, err := store.Open(ctx, dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	writer := report.NewWriter(config.ResolvePath(dataDir, cfg.Report.Path))

	sources, err := buildSources(cfg)
	if err != nil {
		log.Fatalf("sources: %v", err)
	}
	classifier := langfilter.New(nil, langfilter.Options{
		MinChars:      cfg.Language.QuickMinChars,
		MinConfidence: cfg.Language.MinConfidence,
	}, nil)
	runner := scrape.NewRunner(sources, classifier, sink.New(db, writer), scrape.Options{
		MaxPerSource:  cfg.Search.MaxPerSource,
		SourceTimeout: time.Duration(cfg.Search.SourceTimeoutSeconds) * time.Second,
	})
	log.Printf("[engine] sources=%v", runner.SourceNames())

	hub := events.NewHub()

	natsBus, err := connectBus(cfg)
	if err != nil {
		// the bus is optional; HTTP keeps working without it
		log.Printf("[nats] disabled: %v", err)
	}
	defer natsBus.Close()

	status := events.NewStatus(hub, natsBus.forwardProgress)

	startSearch := func(req scrape.Request) error {
		done, err := runner.Start(ctx, req, func(p domain.RunProgress) { status.Update(p) })
		if err != nil {
			return err
		}
		go func() {
			res := <-done
			hub.Publish(events.MakeEvent("", events.TypeJobs, map[string]any{
				"found": len(res.Postings),
				"new":   res.NewCount,
			}))
			natsBus.publishRun(req, res)
		}()
		return nil
	}

	if err := natsBus.serveStart(startSearch); err != nil {
		log.Printf("[nats] start subscription failed: %v", err)
	}

	if mins := cfg.Search.ScheduleMinutes; mins > 0 {
		go scheduler.Every(ctx, time.Duration(mins)*time.Minute, "schedule", false, func(ctx context.Context) error {
			cur := cfgVal.Load().(config.Config)
			req, err := configuredRequest(cur)
			if err != nil {
				return err
			}
			if err := startSearch(req); errors.Is(err, scrape.ErrAlreadyRunning) {
				return fmt.Errorf("%w: %v", scheduler.ErrSkip, err)
			} else if err != nil {
				return err
			}
			return nil
		})
	}

	go scheduler.Every(ctx, 24*time.Hour, "cleanup", true, func(ctx context.Context) error {
		n, err := db.CleanupOldJobs(ctx, jobRetention)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Printf("[cleanup] removed %d jobs older than %s", n, jobRetention)
		}
		return nil
	})

	mux := httpapi.NewMux(httpapi.Deps{
		DB:          db,
		Hub:         hub,
		Status:      status,
		Report:      writer,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		StartSearch: startSearch,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Handler:           httpapi.Handler(mux, serviceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	token, err := randomToken(32)
	if err != nil {
		log.Fatal(err)
	}
	mux.HandleFunc("/shutdown", shutdownHandler(&token, srv))
	fmt.Printf("SHUTDOWN_TOKEN=%s\n", token)

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	log.Printf("engine listening on http://%s (db=%s report=%s)", addr, dbPath, writer.Path())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
