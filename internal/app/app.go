// Package app wires the run together: browser, session, login, menu
// navigation, harvest and export.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avolkov/inventory-harvester/internal/auth"
	"github.com/avolkov/inventory-harvester/internal/browser"
	"github.com/avolkov/inventory-harvester/internal/config"
	"github.com/avolkov/inventory-harvester/internal/harvest"
	"github.com/avolkov/inventory-harvester/internal/nav"
	"github.com/avolkov/inventory-harvester/internal/output"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const gridReadyTimeout = 20 * time.Second

type App struct {
	cfg config.Config
	log *zap.SugaredLogger
}

func New(cfg config.Config, log *zap.SugaredLogger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &App{cfg: cfg, log: log}, nil
}

// Run performs one full extraction: restore session, log in if the
// target asks for it, walk the menu to the product table, harvest the
// grid and export the records. A forced harvest termination still
// exports whatever was collected.
func (a *App) Run(ctx context.Context) error {
	runID := uuid.NewString()
	log := a.log.With("runID", runID)
	log.Infow("starting harvest run", "url", a.cfg.URL, "maxRecords", a.cfg.MaxRecords)

	screenshotDir := ""
	if a.cfg.Debug {
		screenshotDir = a.cfg.ScreenshotDir
	}
	b, err := browser.New(browser.Options{
		Headless:      a.cfg.Headless,
		Stealth:       a.cfg.Stealth,
		ScreenshotDir: screenshotDir,
	}, log)
	if err != nil {
		return err
	}
	defer b.Close()

	sess := auth.Session{Path: a.cfg.SessionFile}
	if cookies, err := sess.Load(); err != nil {
		log.Warnw("session restore failed, starting fresh", "error", err)
	} else if len(cookies) > 0 {
		if err := b.SetCookies(cookies); err != nil {
			log.Warnw("setting session cookies failed", "error", err)
		} else {
			log.Infow("session restored", "cookies", len(cookies))
		}
	}

	page, err := b.Page(a.cfg.URL)
	if err != nil {
		return err
	}

	if auth.LoginRequired(page) {
		log.Infow("login required")
		if err := auth.Login(page, a.cfg.Username, a.cfg.Password, log); err != nil {
			b.Screenshot(page, runID, "login-failed")
			return err
		}
		if cookies, err := b.Cookies(); err != nil {
			log.Warnw("reading cookies after login", "error", err)
		} else if err := sess.Save(cookies); err != nil {
			log.Warnw("saving session", "error", err)
		} else {
			log.Infow("session saved", "path", a.cfg.SessionFile)
		}
	} else {
		log.Infow("no login required")
	}

	challengeURL := strings.TrimRight(a.cfg.URL, "/") + "/challenge"
	if err := page.Navigate(challengeURL); err != nil {
		return fmt.Errorf("navigating to %s: %w", challengeURL, err)
	}
	if err := page.Timeout(30 * time.Second).WaitStable(2 * time.Second); err != nil {
		log.Debugw("challenge page stability wait", "error", err)
	}

	if err := nav.ToProductTable(page, a.cfg.NavTimeout, log); err != nil {
		b.Screenshot(page, runID, "nav-failed")
		return err
	}
	b.Screenshot(page, runID, "table-loaded")

	view := harvest.NewGridView(page)
	if err := view.WaitReady(ctx, gridReadyTimeout); err != nil {
		b.Screenshot(page, runID, "grid-missing")
		return err
	}

	hctx, cancel := context.WithTimeout(ctx, a.cfg.HarvestTimeout)
	defer cancel()

	h := harvest.New(view, harvest.Options{
		MaxRecords:         a.cfg.MaxRecords,
		StabilityThreshold: a.cfg.StabilityThreshold,
		SettleTimeout:      a.cfg.SettleTimeout,
	}, log)

	result, err := h.Run(hctx)
	switch {
	case err == nil:
	case errors.Is(err, harvest.ErrForced):
		// Keep what we have; the export below still happens.
		log.Warnw("harvest cut short", "error", err, "records", len(result.Records))
	default:
		b.Screenshot(page, runID, "harvest-failed")
		return err
	}
	b.Screenshot(page, runID, "harvest-done")

	log.Infow("harvest finished",
		"records", len(result.Records),
		"skipped", result.Skipped,
		"passes", result.Passes,
		"termination", result.Termination.String(),
	)

	if err := output.WriteJSON(a.cfg.OutFile, result.Records); err != nil {
		return err
	}
	log.Infow("records exported", "path", a.cfg.OutFile)

	if a.cfg.SQLiteFile != "" {
		store := output.SqliteStore{Database: a.cfg.SQLiteFile}
		if err := store.Init(log); err != nil {
			return err
		}
		for _, rec := range result.Records {
			store.HandleRecord(runID, rec)
		}
		store.Cleanup()
		log.Infow("records mirrored to sqlite", "path", a.cfg.SQLiteFile)
	}

	return nil
}
