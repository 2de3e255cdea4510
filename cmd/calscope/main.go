package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"calscope/internal/config"
	"calscope/internal/ics"
	appLog "calscope/internal/log"
	"calscope/internal/report"
	"calscope/internal/schedule"
	"calscope/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	cacheDir   string
	reportName string
	from       string
	to         string
	days       int
	asJSON     bool
	serve      bool
	listen     string
	debug      bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("invalid timezone in config", err, "timezone", conf.Timezone)
		os.Exit(1)
	}
	hours, err := conf.WorkingHours.Parse()
	if err != nil {
		appLog.Error("invalid working hours in config", err)
		os.Exit(1)
	}

	sources := make([]ics.Source, 0, len(conf.ICS))
	for _, s := range conf.ICS {
		sources = append(sources, ics.Source{ID: s.ID, Name: s.Name, Color: s.Color, URL: s.URL})
	}
	loader := ics.NewLoader(ics.NewFetcher(flags.cacheDir), sources, conf.Me)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.serve {
		if err := runServe(ctx, conf, loc, hours, loader); err != nil {
			appLog.Error("server exited", err)
			os.Exit(1)
		}
		return
	}

	if err := runReport(ctx, flags, conf, loc, hours, loader); err != nil {
		appLog.Error("report failed", err)
		os.Exit(1)
	}
}

// runReport executes a one-shot analysis and writes it to stdout.
func runReport(ctx context.Context, flags flagConfig, conf *config.Config, loc *time.Location, hours schedule.WorkingHours, loader *ics.Loader) error {
	from, to, err := resolveRange(flags, conf, loc)
	if err != nil {
		return err
	}

	events, err := loader.Load(ctx, from, to, loc)
	if err != nil {
		return err
	}

	var out string
	switch flags.reportName {
	case "agenda":
		groups := schedule.GroupByDay(events, &from, &to, conf.ShowEmptyDates, loc)
		if flags.asJSON {
			out, err = report.JSON(groups)
		} else {
			out = report.AgendaText(groups)
		}
	case "conflicts":
		res := schedule.FindConflicts(events, from, to)
		if flags.asJSON {
			out, err = report.JSON(res)
		} else {
			out = report.ConflictsText(res)
		}
	case "freetime":
		res := schedule.FindFreeTime(events, from, to, hours, conf.MinFreeMinutes)
		if flags.asJSON {
			out, err = report.JSON(res)
		} else {
			out = report.FreeTimeText(res)
		}
	default:
		return fmt.Errorf("unknown report %q (want agenda, conflicts, or freetime)", flags.reportName)
	}
	if err != nil {
		return err
	}

	fmt.Print(out)
	return nil
}

// runServe starts the HTTP API with cron-scheduled feed refreshes and
// blocks until the context is canceled.
func runServe(ctx context.Context, conf *config.Config, loc *time.Location, hours schedule.WorkingHours, loader *ics.Loader) error {
	server := web.NewServer(conf, loc, hours, loader)
	server.Refresh(ctx)

	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, func() { server.Refresh(ctx) }); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", conf.RefreshCron, err)
	}
	c.Start()
	defer c.Stop()

	httpServer := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// resolveRange turns -from/-to/-days flags into a concrete query window.
// Defaults: from = now, to = from + horizon days.
func resolveRange(flags flagConfig, conf *config.Config, loc *time.Location) (time.Time, time.Time, error) {
	now := time.Now().In(loc)

	from := now
	if flags.from != "" {
		t, err := parseTimeFlag(flags.from, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -from: %w", err)
		}
		from = t
	}

	days := conf.HorizonDays
	if flags.days > 0 {
		days = flags.days
	}

	to := from.AddDate(0, 0, days)
	if flags.to != "" {
		t, err := parseTimeFlag(flags.to, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -to: %w", err)
		}
		to = t
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("-to precedes -from")
	}
	return from, to, nil
}

func parseTimeFlag(v string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.In(loc), nil
	}
	return time.ParseInLocation("2006-01-02", v, loc)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", defaultConfigPath(), "Path to config file")
	flag.StringVar(&cfg.cacheDir, "cache-dir", "", "Directory for the ICS fetch cache")
	flag.StringVar(&cfg.reportName, "report", "agenda", "Report to run: agenda, conflicts, or freetime")
	flag.StringVar(&cfg.from, "from", "", "Range start (YYYY-MM-DD or RFC3339); defaults to now")
	flag.StringVar(&cfg.to, "to", "", "Range end (YYYY-MM-DD or RFC3339); defaults to -from plus horizon")
	flag.IntVar(&cfg.days, "days", 0, "Number of days to cover (overrides config horizon)")
	flag.BoolVar(&cfg.asJSON, "json", false, "Emit JSON instead of text")
	flag.BoolVar(&cfg.serve, "serve", false, "Run the HTTP API instead of a one-shot report")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "calscope", "config.yaml")
	}
	return "config.yaml"
}
