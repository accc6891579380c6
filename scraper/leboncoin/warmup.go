package leboncoin

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"lbc-bureaux-scraper/utils"
)

// BrowserSession is what a headless browser visit to the site leaves
// behind: anti-bot cookies bound to the browser's user agent.
type BrowserSession struct {
	UserAgent string
	Cookies   []*http.Cookie
}

// WarmupOptions configures the browser visit.
type WarmupOptions struct {
	ChromeBin   string
	ProxyServer string // scheme://host:port, Chrome flags take no credentials
	Retry       *utils.RetryConfig
}

// Warmup opens the marketplace home page in headless Chrome and returns the
// cookies it was given.
func Warmup(ctx context.Context, opts WarmupOptions, logger *utils.Logger) (*BrowserSession, error) {
	chromeBin := opts.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[leboncoin] Warming up browser session (binary: %s)", chromeBin)

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(defaultUserAgent),
	)
	if chromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(chromeBin))
	}
	if opts.ProxyServer != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.ProxyServer))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	retry := opts.Retry
	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1, Logger: logger}
	}

	session := &BrowserSession{}
	err := retry.Do(ctx, "browser-warmup", func() error {
		runCtx, cancel := context.WithTimeout(browserCtx, 60*time.Second)
		defer cancel()

		var ua string
		var cookies []*network.Cookie
		err := chromedp.Run(runCtx,
			chromedp.Navigate(siteURL+"/"),
			chromedp.Sleep(5*time.Second),
			chromedp.Evaluate(`navigator.userAgent`, &ua),
			chromedp.ActionFunc(func(ctx context.Context) error {
				var err error
				cookies, err = network.GetCookies().WithUrls([]string{siteURL, DefaultBaseURL}).Do(ctx)
				return err
			}),
		)
		if err != nil {
			return err
		}
		if len(cookies) == 0 {
			return fmt.Errorf("no cookies set by %s", siteURL)
		}

		session.UserAgent = ua
		session.Cookies = toHTTPCookies(cookies)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("leboncoin: warmup: %w", err)
	}

	logger.Info("[leboncoin] Browser session ready (%d cookies)", len(session.Cookies))
	return session, nil
}

func toHTTPCookies(in []*network.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(in))
	for _, c := range in {
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		if c.Expires > 0 {
			sec := int64(c.Expires)
			hc.Expires = time.Unix(sec, 0)
		}
		out = append(out, hc)
	}
	return out
}

func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
