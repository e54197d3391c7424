package fetcher

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/IshaanNene/feedpulse/internal/config"
)

// webdriverJS hides the automation flag from page scripts. It runs on every
// new document before any page script.
const webdriverJS = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
`

// Login form locators.
const (
	usernameSelector = "#username"
	passwordSelector = "#password"
	submitXPath      = "//button[@type='submit']"
)

// newLauncher builds a Chromium launcher with anti-detection flags.
func newLauncher(cfg config.BrowserConfig) *launcher.Launcher {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-gpu").
		Set("lang", "en-US").
		Delete("enable-automation")

	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if cfg.UserDataDir != "" {
		l = l.UserDataDir(cfg.UserDataDir)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}
	return l
}

// LoginURL returns the sign-in page under base.
func LoginURL(base string) string {
	return strings.TrimRight(base, "/") + "/login"
}

// FeedURL returns the home feed under base.
func FeedURL(base string) string {
	return strings.TrimRight(base, "/") + "/feed/"
}

// SearchURL returns the content search page for a hashtag. A leading '#'
// on the hashtag is ignored.
func SearchURL(base, hashtag string) string {
	q := url.Values{}
	q.Set("keywords", "#"+strings.TrimPrefix(strings.TrimSpace(hashtag), "#"))
	q.Set("origin", "GLOBAL_SEARCH_HEADER")
	return strings.TrimRight(base, "/") + "/search/results/content/?" + q.Encode()
}

// IsAuthenticated reports whether the current page address belongs to a
// signed-in area.
func IsAuthenticated(current string) bool {
	return strings.Contains(current, "feed") || strings.Contains(current, "mynetwork")
}

// IsLoginWall reports whether the page address is a sign-in or checkpoint page.
func IsLoginWall(current string) bool {
	u, err := url.Parse(current)
	if err != nil {
		return false
	}
	for _, prefix := range []string{"/login", "/authwall", "/checkpoint", "/uas/login"} {
		if strings.HasPrefix(u.Path, prefix) {
			return true
		}
	}
	return false
}
