package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/feedpulse/internal/automation"
	"github.com/IshaanNene/feedpulse/internal/config"
	"github.com/IshaanNene/feedpulse/internal/types"
)

// Settle delays after navigation.
var (
	loginSettleMin  = 2 * time.Second
	loginSettleMax  = 4 * time.Second
	submitSettleMin = 3 * time.Second
	submitSettleMax = 5 * time.Second
	searchSettleMin = 3 * time.Second
	searchSettleMax = 5 * time.Second
)

// Session is a live browser session on the feed site. It implements the
// growing content surface consumed by the load controller.
type Session struct {
	cfg      config.BrowserConfig
	launcher *launcher.Launcher
	browser  *rod.Browser
	feed     *automation.Feed
	logger   *slog.Logger
}

// NewSession launches Chromium, opens a page and applies anti-detection patches.
func NewSession(ctx context.Context, cfg config.BrowserConfig, logger *slog.Logger) (*Session, error) {
	s := &Session{
		cfg:    cfg,
		logger: logger.With("component", "browser_session"),
	}

	s.launcher = newLauncher(cfg).Context(ctx)
	controlURL, err := s.launcher.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		s.launcher.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	s.browser = browser

	page, err := s.newPage()
	if err != nil {
		s.Close()
		return nil, err
	}
	s.feed = automation.NewFeed(page, logger)
	s.feed.NavTimeout = cfg.Timeout

	s.logger.Info("browser session ready",
		"headless", cfg.Headless,
		"stealth", cfg.Stealth,
		"profile", cfg.UserDataDir != "",
	)
	return s, nil
}

func (s *Session) newPage() (*rod.Page, error) {
	var (
		page *rod.Page
		err  error
	)
	if s.cfg.Stealth {
		page, err = stealth.Page(s.browser)
	} else {
		page, err = s.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	if _, err := page.EvalOnNewDocument(webdriverJS); err != nil {
		s.logger.Warn("failed to install webdriver override", "error", err)
	}
	if s.cfg.UserAgent != "" {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      s.cfg.UserAgent,
			AcceptLanguage: "en-US,en;q=0.9",
		})
		if err != nil {
			s.logger.Warn("failed to set user agent", "error", err)
		}
	}
	return page, nil
}

// Login signs in with creds. A persistent profile that is already signed in
// skips the form.
func (s *Session) Login(ctx context.Context, creds config.CredentialsConfig) error {
	if s.cfg.UserDataDir != "" && s.signedIn(ctx) {
		s.logger.Info("reusing signed-in browser profile")
		return nil
	}
	if creds.Username == "" || creds.Password == "" {
		return types.ErrNoCredentials
	}

	loginURL := LoginURL(s.cfg.BaseURL)
	if err := s.feed.Navigate(ctx, loginURL); err != nil {
		return &types.SessionError{URL: loginURL, Err: err}
	}
	if err := automation.Pause(ctx, loginSettleMin, loginSettleMax); err != nil {
		return err
	}

	err := s.feed.Login(ctx, automation.LoginForm{
		UsernameSelector: usernameSelector,
		PasswordSelector: passwordSelector,
		SubmitXPath:      submitXPath,
		Username:         creds.Username,
		Password:         creds.Password,
	})
	if err != nil {
		return &types.SessionError{URL: loginURL, Err: err}
	}
	if err := automation.Pause(ctx, submitSettleMin, submitSettleMax); err != nil {
		return err
	}

	current, err := s.feed.URL()
	if err != nil {
		return &types.SessionError{URL: loginURL, Err: err}
	}
	if !IsAuthenticated(current) {
		return &types.SessionError{URL: current, Err: types.ErrLoginRequired}
	}

	s.logger.Info("logged in", "url", current)
	return nil
}

func (s *Session) signedIn(ctx context.Context) bool {
	if err := s.feed.Navigate(ctx, FeedURL(s.cfg.BaseURL)); err != nil {
		return false
	}
	current, err := s.feed.URL()
	return err == nil && IsAuthenticated(current) && !IsLoginWall(current)
}

// OpenSearch navigates to the content search for hashtag and waits for it to settle.
func (s *Session) OpenSearch(ctx context.Context, hashtag string) error {
	target := SearchURL(s.cfg.BaseURL, hashtag)
	if err := s.feed.Navigate(ctx, target); err != nil {
		return &types.SessionError{URL: target, Err: err}
	}
	if err := automation.Pause(ctx, searchSettleMin, searchSettleMax); err != nil {
		return err
	}

	current, err := s.feed.URL()
	if err == nil && IsLoginWall(current) {
		return &types.SessionError{URL: current, Err: types.ErrLoginRequired}
	}
	s.logger.Info("search opened", "hashtag", hashtag, "url", target)
	return nil
}

// Grow scrolls to the bottom of the page.
func (s *Session) Grow(ctx context.Context) error {
	if err := s.feed.ScrollToBottom(ctx); err != nil {
		return &types.SurfaceError{Op: "grow", Err: err}
	}
	return nil
}

// Extent returns the document scroll height.
func (s *Session) Extent(ctx context.Context) (int, error) {
	h, err := s.feed.ScrollHeight(ctx)
	if err != nil {
		return 0, &types.SurfaceError{Op: "extent", Err: err}
	}
	return h, nil
}

// Source returns the rendered markup. Landing on a sign-in wall is a session error.
func (s *Session) Source(ctx context.Context) (string, error) {
	if current, err := s.feed.URL(); err == nil && IsLoginWall(current) {
		return "", &types.SessionError{URL: current, Err: types.ErrLoginRequired}
	}
	html, err := s.feed.HTML(ctx)
	if err != nil {
		return "", &types.SurfaceError{Op: "source", Err: err}
	}
	return html, nil
}

// Close shuts down the browser and releases resources.
func (s *Session) Close() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launcher != nil && s.cfg.UserDataDir == "" {
		// Removes the temporary profile.
		s.launcher.Cleanup()
	}
	return err
}
