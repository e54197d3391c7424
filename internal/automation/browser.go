package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/IshaanNene/feedpulse/internal/loader"
)

const elementTimeout = 10 * time.Second

// Feed drives a single rendered feed page.
type Feed struct {
	page   *rod.Page
	logger *slog.Logger

	// KeyDelay bounds the pause between typed characters.
	KeyDelayMin, KeyDelayMax time.Duration
	// FieldDelay bounds the pause between form fields.
	FieldDelayMin, FieldDelayMax time.Duration
	// NavTimeout bounds a single navigation. Zero means no limit.
	NavTimeout time.Duration
}

// NewFeed wraps a Rod page with feed helpers.
func NewFeed(page *rod.Page, logger *slog.Logger) *Feed {
	return &Feed{
		page:          page,
		logger:        logger.With("component", "feed_automation"),
		KeyDelayMin:   100 * time.Millisecond,
		KeyDelayMax:   300 * time.Millisecond,
		FieldDelayMin: time.Second,
		FieldDelayMax: 2 * time.Second,
	}
}

// Navigate loads url and waits for the load event.
func (f *Feed) Navigate(ctx context.Context, url string) error {
	p := f.page.Context(ctx)
	if f.NavTimeout > 0 {
		p = p.Timeout(f.NavTimeout)
	}
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		f.logger.Warn("page load wait failed, continuing", "url", url, "error", err)
	}
	return nil
}

// URL returns the address currently shown by the page.
func (f *Feed) URL() (string, error) {
	info, err := f.page.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// --- Scrolling ---

// ScrollToBottom scrolls to the bottom of the document.
func (f *Feed) ScrollToBottom(ctx context.Context) error {
	_, err := f.page.Context(ctx).Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

// ScrollHeight returns document.body.scrollHeight.
func (f *Feed) ScrollHeight(ctx context.Context) (int, error) {
	res, err := f.page.Context(ctx).Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

// HTML returns the serialized document.
func (f *Feed) HTML(ctx context.Context) (string, error) {
	return f.page.Context(ctx).HTML()
}

// --- Login/Auth ---

// LoginForm holds login form locators and values.
type LoginForm struct {
	UsernameSelector string
	PasswordSelector string
	SubmitXPath      string
	Username         string
	Password         string
}

// Login types the credentials one character at a time and submits the form.
func (f *Feed) Login(ctx context.Context, form LoginForm) error {
	if err := f.TypeHuman(ctx, form.UsernameSelector, form.Username); err != nil {
		return fmt.Errorf("type username: %w", err)
	}
	if err := Pause(ctx, f.FieldDelayMin, f.FieldDelayMax); err != nil {
		return err
	}
	if err := f.TypeHuman(ctx, form.PasswordSelector, form.Password); err != nil {
		return fmt.Errorf("type password: %w", err)
	}

	btn, err := f.page.Context(ctx).Timeout(elementTimeout).ElementX(form.SubmitXPath)
	if err != nil {
		return fmt.Errorf("submit button not found: %s: %w", form.SubmitXPath, err)
	}
	return btn.Click(proto.InputMouseButtonLeft, 1)
}

// TypeHuman types text into the element matched by selector with a jittered
// pause after every character.
func (f *Feed) TypeHuman(ctx context.Context, selector, text string) error {
	el, err := f.page.Context(ctx).Timeout(elementTimeout).Element(selector)
	if err != nil {
		return fmt.Errorf("element not found: %s: %w", selector, err)
	}
	for _, ch := range text {
		if err := el.Input(string(ch)); err != nil {
			return err
		}
		if err := Pause(ctx, f.KeyDelayMin, f.KeyDelayMax); err != nil {
			return err
		}
	}
	return nil
}

// Pause sleeps for a uniformly random duration in [lo, hi] or until ctx is done.
func Pause(ctx context.Context, lo, hi time.Duration) error {
	return loader.Sleep(ctx, Jitter(lo, hi))
}

// Jitter returns a uniformly random duration in [lo, hi].
func Jitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int64N(int64(hi-lo)+1))
}
