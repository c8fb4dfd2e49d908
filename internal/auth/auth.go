// Package auth handles login detection, the login form itself and
// cookie-based session persistence between runs.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// ErrLoginFailed means the login form was still present after the
// credentials were submitted.
var ErrLoginFailed = errors.New("login failed: login form still present")

const probeTimeout = 2 * time.Second

// loginIndicators are probed in order; any visible match means the
// page is asking for a login.
var loginIndicators = []string{
	"input[type='password']",
	"#login-form",
	"input[type='submit']",
}

// LoginRequired reports whether the current page shows a login form.
// Each indicator is probed with a short timeout, so a logged-in page
// answers quickly.
func LoginRequired(page *rod.Page) bool {
	for _, sel := range loginIndicators {
		el, err := page.Timeout(probeTimeout).Element(sel)
		if err != nil {
			continue
		}
		if visible, err := el.Visible(); err == nil && visible {
			return true
		}
	}
	// Buttons are matched by text, not selector.
	if el, err := page.Timeout(probeTimeout).ElementR("button", "/^(Login|Sign In)$/i"); err == nil {
		if visible, err := el.Visible(); err == nil && visible {
			return true
		}
	}
	return false
}

// Login fills the credentials, submits the form and verifies the login
// screen went away.
func Login(page *rod.Page, username, password string, log *zap.SugaredLogger) error {
	if username == "" || password == "" {
		return errors.New("login required but credentials not provided")
	}

	user, err := page.Timeout(probeTimeout).Element("input[type='text'], input[type='email'], input[name='username']")
	if err != nil {
		return fmt.Errorf("username field not found: %w", err)
	}
	if err := user.Input(username); err != nil {
		return fmt.Errorf("filling username: %w", err)
	}

	pass, err := page.Timeout(probeTimeout).Element("input[type='password']")
	if err != nil {
		return fmt.Errorf("password field not found: %w", err)
	}
	if err := pass.Input(password); err != nil {
		return fmt.Errorf("filling password: %w", err)
	}

	if err := submit(page); err != nil {
		return err
	}

	if err := page.Timeout(10 * time.Second).WaitStable(time.Second); err != nil {
		log.Debugw("post-login stability wait", "error", err)
	}

	if LoginRequired(page) {
		return ErrLoginFailed
	}
	log.Infow("login successful")
	return nil
}

func submit(page *rod.Page) error {
	if el, err := page.Timeout(probeTimeout).ElementR("button", "/^(Login|Sign In)$/i"); err == nil {
		return el.Click(proto.InputMouseButtonLeft, 1)
	}
	el, err := page.Timeout(probeTimeout).Element("button[type='submit'], input[type='submit']")
	if err != nil {
		return fmt.Errorf("submit control not found: %w", err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}
