package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/glance/internal/agent"
	"github.com/hpungsan/glance/internal/ai"
	"github.com/hpungsan/glance/internal/config"
	"github.com/hpungsan/glance/internal/errors"
	"github.com/hpungsan/glance/internal/macos"
	"github.com/hpungsan/glance/internal/schedule"
	"github.com/hpungsan/glance/internal/store"
	"github.com/hpungsan/glance/internal/summary"
	"github.com/hpungsan/glance/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(st *store.Store, cfg *config.Config, baseDir string) *cli.App {
	app := &cli.App{
		Name:    "glance",
		Usage:   "Screen activity journal",
		Version: Version,
		Commands: []*cli.Command{
			captureCmd(st, cfg, baseDir),
			summarizeCmd(st, cfg),
			recentCmd(st),
			rangeCmd(st),
			serveCmd(st, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// aiService builds the AI client, or nil when no key is configured.
func aiService(cfg *config.Config) agent.AIService {
	if cfg.APIKey == "" {
		return nil
	}
	return ai.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Model)
}

// captureCmd runs one capture cycle. Intended to be fired by launchd/cron;
// always exits zero so a bad cycle cannot break the schedule.
func captureCmd(st *store.Store, cfg *config.Config, baseDir string) *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Run one capture cycle (screenshot, describe, log)",
		Action: func(c *cli.Context) error {
			svc := aiService(cfg)
			if svc == nil {
				return outputError(errors.NewInvalidRequest("GLANCE_API_KEY is required for capture"))
			}

			shots, err := macos.NewScreenshotter(baseDir)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			a := &agent.Agent{
				Store:            st,
				Scheduler:        schedule.New(baseDir, cfg.SummaryIntervalMin),
				Shots:            shots,
				Optimizer:        macos.Optimizer{},
				Apps:             macos.AppLister{},
				Idle:             macos.IdleSource{},
				AI:               svc,
				IdleThresholdMin: cfg.IdleThresholdMin,
			}
			if cfg.NotesEnabled() {
				a.Notes = macos.NewNotesSink(cfg.NoteName)
			}

			result := a.RunCycle(c.Context)
			return outputJSON(cycleView(result))
		},
	}
}

// summarizeCmd forces a rollup over a trailing window without touching the
// periodic checkpoint.
func summarizeCmd(st *store.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "summarize",
		Usage: "Summarize the trailing activity window on demand",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "hours", Value: 1, Usage: "Trailing window size in hours"},
		},
		Action: func(c *cli.Context) error {
			svc := aiService(cfg)
			if svc == nil {
				return outputError(errors.NewInvalidRequest("GLANCE_API_KEY is required for summarize"))
			}
			hours := c.Int("hours")
			if hours <= 0 || hours > 24 {
				return outputError(errors.NewInvalidRequest("hours must be between 1 and 24"))
			}

			end := time.Now()
			records, err := st.ReadRange(end.Add(-time.Duration(hours)*time.Hour), end)
			if err != nil {
				return outputError(err)
			}
			text, err := summary.Summarize(context.Background(), svc, records)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"summary":      text,
				"record_count": len(records),
			})
		},
	}
}

// recentCmd prints the most recent activity record.
func recentCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "recent",
		Usage: "Print the most recent activity record",
		Action: func(c *cli.Context) error {
			rec, err := st.ReadMostRecent(time.Now())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"record": rec})
		},
	}
}

// rangeCmd prints records between two instants.
func rangeCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "range",
		Usage: "Print activity records between two RFC 3339 instants",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Required: true, Usage: "Window start (RFC 3339)"},
			&cli.StringFlag{Name: "to", Usage: "Window end (RFC 3339, default now)"},
		},
		Action: func(c *cli.Context) error {
			start, err := time.Parse(time.RFC3339, c.String("from"))
			if err != nil {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid --from: %v", err)))
			}
			end := time.Now()
			if to := c.String("to"); to != "" {
				end, err = time.Parse(time.RFC3339, to)
				if err != nil {
					return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid --to: %v", err)))
				}
			}

			records, err := st.ReadRange(start, end)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"records": records,
				"count":   len(records),
			})
		},
	}
}

// serveCmd starts the local web viewer.
func serveCmd(st *store.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the local activity viewer",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Value: 8783, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(st, aiService(cfg), Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// cycleView shapes a cycle result for JSON output.
func cycleView(r agent.CycleResult) map[string]any {
	out := map[string]any{"outcome": r.Outcome}
	if r.Record != nil {
		out["record_id"] = r.Record.ID
		out["described"] = r.Record.ScreenAnalysis != ""
	}
	if r.Continuity != nil {
		out["continuing"] = r.Continuity.IsContinuing
	}
	if r.Summary != "" {
		out["summary"] = r.Summary
	}
	return out
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if gErr, ok := err.(*errors.GlanceError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", gErr.Code, gErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
