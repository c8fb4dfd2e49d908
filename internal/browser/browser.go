// Package browser owns the Chrome lifecycle: launching, connecting,
// page construction and debug screenshots. All rod plumbing that is
// not about the product grid itself lives here.
package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"
)

type Options struct {
	Headless bool
	// Stealth masks navigator.webdriver and friends on every new page.
	Stealth bool
	// ScreenshotDir receives debug captures; empty disables them.
	ScreenshotDir string
}

type Browser struct {
	browser *rod.Browser
	lnchr   *launcher.Launcher
	opts    Options
	log     *zap.SugaredLogger
}

func New(opts Options, log *zap.SugaredLogger) (*Browser, error) {
	l := launcher.New().
		Headless(opts.Headless)

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		log.Warnw("could not ignore cert errors", "error", err)
	}
	log.Debugw("browser launched", "controlURL", url, "headless", opts.Headless)

	return &Browser{browser: b, lnchr: l, opts: opts, log: log}, nil
}

// Page opens a new tab on the target URL. Stealth JS, when enabled,
// must be installed before the first navigation to take effect.
func (b *Browser) Page(target string) (*rod.Page, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}
	if b.opts.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			b.log.Warnw("stealth injection failed, continuing without it", "error", err)
		}
	}
	if err := page.Navigate(target); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("navigating to %s: %w", target, err)
	}
	if err := page.Timeout(30 * time.Second).WaitLoad(); err != nil {
		b.log.Warnw("initial load wait timed out", "error", err)
	}
	return page, nil
}

// SetCookies installs cookies browser-wide, so they apply to pages
// opened afterwards.
func (b *Browser) SetCookies(cookies []*proto.NetworkCookieParam) error {
	return b.browser.SetCookies(cookies)
}

func (b *Browser) Cookies() ([]*proto.NetworkCookie, error) {
	return b.browser.GetCookies()
}

// Screenshot captures the page into ScreenshotDir, named by run ID and
// label. Failures are logged, not returned: a missing debug capture
// should never fail a harvest.
func (b *Browser) Screenshot(page *rod.Page, runID, label string) {
	if b.opts.ScreenshotDir == "" {
		return
	}
	if err := os.MkdirAll(b.opts.ScreenshotDir, 0o755); err != nil {
		b.log.Warnw("screenshot dir", "error", err)
		return
	}
	data, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		b.log.Warnw("screenshot capture failed", "label", label, "error", err)
		return
	}
	path := filepath.Join(b.opts.ScreenshotDir, fmt.Sprintf("%s-%s.png", runID, label))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		b.log.Warnw("screenshot write failed", "path", path, "error", err)
		return
	}
	b.log.Debugw("screenshot saved", "path", path)
}

func (b *Browser) Close() {
	if err := b.browser.Close(); err != nil {
		b.log.Warnw("closing browser", "error", err)
	}
	b.lnchr.Cleanup()
}
