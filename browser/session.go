package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// ErrNoCredentials is returned when a task needs a dashboard login but the
// session was built without email and password.
var ErrNoCredentials = errors.New("browser: dashboard credentials not configured")

// Credentials are the dashboard login for the demo account.
type Credentials struct {
	Email    string
	Password string
}

// Options configure a browser session.
type Options struct {
	Headless bool
	// Timeout bounds the whole session. Dashboard pages can be slow right
	// after a clone, so the default is generous.
	Timeout time.Duration
	Creds   Credentials
	Log     *slog.Logger
}

// DefaultTimeout bounds a whole browser session.
const DefaultTimeout = 5 * time.Minute

// Session is one headless Chrome instance logged into the dashboard. It is
// not safe for concurrent use; a provisioning run drives it sequentially.
type Session struct {
	ctx       context.Context
	loggedIn  bool
	creds     Credentials
	log       *slog.Logger
	closeOnce sync.Once
	cancels   []context.CancelFunc
}

// NewSession launches Chrome. The parent context bounds the browser's
// lifetime on top of the session timeout; Close must be called regardless.
func NewSession(parent context.Context, opts Options) (*Session, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(1440, 900),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	ctx, cancelTimeout := context.WithTimeout(browserCtx, opts.Timeout)

	s := &Session{
		ctx:     ctx,
		creds:   opts.Creds,
		log:     opts.Log.With("component", "browser"),
		cancels: []context.CancelFunc{cancelTimeout, cancelBrowser, cancelAlloc},
	}

	// Start the browser now so launch failures surface here instead of in
	// the first task.
	if err := chromedp.Run(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	return s, nil
}

// Close shuts the browser down. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		for _, cancel := range s.cancels {
			cancel()
		}
	})
	return nil
}

// login authenticates against the bot's dashboard if the login form is
// present. Already-authenticated sessions pass straight through.
func (s *Session) login(dashboardURL string) error {
	if s.loggedIn {
		return nil
	}
	if s.creds.Email == "" || s.creds.Password == "" {
		return ErrNoCredentials
	}

	if err := chromedp.Run(s.ctx,
		chromedp.Navigate(dashboardURL),
		chromedp.Sleep(2*time.Second),
	); err != nil {
		return fmt.Errorf("open dashboard %s: %w", dashboardURL, err)
	}

	// A short probe for the email field decides whether a login form is in
	// front of us at all.
	probe, cancel := context.WithTimeout(s.ctx, 3*time.Second)
	defer cancel()
	if err := chromedp.Run(probe,
		chromedp.WaitVisible(`input[type="email"], input[name="email"]`, chromedp.ByQuery),
	); err != nil {
		s.log.Debug("no login form detected, assuming authenticated", "url", dashboardURL)
		s.loggedIn = true
		return nil
	}

	s.log.Info("logging into dashboard", "url", dashboardURL)
	if err := chromedp.Run(s.ctx,
		chromedp.SendKeys(`input[type="email"], input[name="email"]`, s.creds.Email, chromedp.ByQuery),
		chromedp.SendKeys(`input[type="password"], input[name="password"]`, s.creds.Password, chromedp.ByQuery),
		chromedp.Click(`//button[@type="submit" or contains(., "Sign in") or contains(., "Log in")]`, chromedp.BySearch),
		chromedp.Sleep(4*time.Second),
	); err != nil {
		return fmt.Errorf("dashboard login: %w", err)
	}
	s.loggedIn = true
	return nil
}

func dashboardBase(handle string) string {
	return "https://" + handle + ".ada.support"
}
