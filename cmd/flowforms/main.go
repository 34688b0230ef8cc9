package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jask/flowforms/internal/addons"
	"github.com/jask/flowforms/internal/config"
	"github.com/jask/flowforms/internal/database"
	"github.com/jask/flowforms/internal/database/repository"
	"github.com/jask/flowforms/internal/flow"
	"github.com/jask/flowforms/internal/logging"
	"github.com/jask/flowforms/internal/metrics"
	"github.com/jask/flowforms/internal/service"
	"github.com/jask/flowforms/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logFile, err := logging.OpenFile(cfg.Log.File)
	if err != nil {
		log.Fatalf("open log: %v", err)
	}
	defer logFile.Close()
	logger := logging.New(logging.Options{
		Service: "flowforms",
		Level:   logging.ParseLevel(cfg.Log.Level),
		Format:  cfg.Log.Format,
		Output:  logFile,
	})

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatalf("mkdir db dir: %v", err)
	}
	if err := database.RunMigrations(cfg.Database.Path); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	submissions := repository.NewSubmissionRepo(db)
	if len(os.Args) > 1 && os.Args[1] == "history" {
		if err := printHistory(ctx, submissions, os.Args[2:]); err != nil {
			log.Fatalf("history: %v", err)
		}
		return
	}

	maintenance := &service.MaintenanceService{DB: db}
	if n, err := maintenance.Prune(ctx, cfg.Database.Retention); err != nil {
		logger.Error(ctx, "prune journal", err)
	} else if n > 0 {
		logger.Info(logger.WithField(ctx, "removed", n), "pruned journal")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	if addr := strings.TrimSpace(cfg.Metrics.Addr); addr != "" {
		go serveMetrics(ctx, logger, reg, addr)
	}

	jsonPath, err := cfg.Flow.ParsedJSONPath()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	offers, err := loadOffers(cfg.Addons.ReferenceFile)
	if err != nil {
		log.Fatalf("reference data: %v", err)
	}

	submitter := &flow.Journal{
		Next: &flow.Instrumented{
			Next:    flow.NewHTTPSubmitter(cfg.Flow.EngineURL, cfg.Flow.Timeout),
			Metrics: metrics.NewSubmissionMetrics(reg),
		},
		Submissions: submissions,
		Log:         logger,
	}

	ctx = logger.WithField(ctx, "flow_id", cfg.Flow.ID)
	logger.Info(ctx, "starting")

	p := tea.NewProgram(tui.New(ctx, tui.Deps{
		Submitter:       submitter,
		Log:             logger,
		Offers:          offers,
		FlowID:          cfg.Flow.ID,
		MultiItemFlows:  cfg.Flow.MultiItemFlows,
		JSONPath:        jsonPath,
		DefaultMaxCount: cfg.Addons.DefaultMaxCount,
		ToastDuration:   cfg.UI.ToastDuration,
		CurrencySymbol:  cfg.UI.CurrencySymbol,
	}), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

// loadOffers reads the add-on offers from the reference data file. No file
// means no offers.
func loadOffers(path string) ([]addons.Offer, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return addons.ParseReferenceData(raw)
}

// printHistory writes recent journal entries, newest first. An optional
// argument filters by widget.
func printHistory(ctx context.Context, repo *repository.SubmissionRepo, args []string) error {
	filters := repository.SubmissionFilters{Limit: 50}
	if len(args) > 0 {
		filters.Widget = args[0]
	}
	entries, err := repo.List(ctx, filters)
	if err != nil {
		return err
	}
	for _, s := range entries {
		line := fmt.Sprintf("%s  %-8s %-9s %s  %s", s.CreatedAt.Format(time.DateTime), s.Widget, s.Status, s.ID, s.Payload)
		if s.Error != nil {
			line += "  error: " + *s.Error
		}
		fmt.Println(line)
	}
	return nil
}

func serveMetrics(ctx context.Context, logger *logging.Logger, reg *prometheus.Registry, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}
	ctx = logger.WithField(ctx, "addr", addr)
	logger.Info(ctx, "metrics listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error(ctx, "metrics server stopped", err)
	}
}
