package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Options configures how the browser is obtained
type Options struct {
	Headless    bool
	Bin         string // Chrome/Chromium binary; looked up when empty
	ProfileDir  string // user data dir for logged-in sessions (close the browser first)
	ControlURL  string // attach to a running browser instead of launching one
	Width       int
	Height      int
	LoadTimeout time.Duration
}

// Browser wraps the Rod browser and the page autosend works on
type Browser struct {
	browser  *rod.Browser
	page     *rod.Page
	launched bool
	logger   *zap.Logger
}

// Open gets a browser and a page showing url. When attaching to a running
// browser, an existing tab already on url is reused.
func Open(ctx context.Context, url string, opts Options, logger *zap.Logger) (*Browser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.LoadTimeout == 0 {
		opts.LoadTimeout = 30 * time.Second
	}

	controlURL, launched, err := controlURL(opts)
	if err != nil {
		return nil, err
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	b := &Browser{browser: browser, launched: launched, logger: logger}

	page, reused, err := b.pageFor(url)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.page = page
	logger.Debug("Page ready", zap.String("url", url), zap.Bool("reused_tab", reused), zap.Bool("launched", launched))

	if opts.Width > 0 && opts.Height > 0 && launched {
		err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.Width,
			Height:            opts.Height,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			logger.Debug("Viewport not applied", zap.Error(err))
		}
	}

	if err := b.WaitSettled(opts.LoadTimeout); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func controlURL(opts Options) (string, bool, error) {
	if opts.ControlURL != "" {
		u, err := launcher.ResolveURL(opts.ControlURL)
		if err != nil {
			return "", false, fmt.Errorf("resolve control url %s: %w", opts.ControlURL, err)
		}
		return u, false, nil
	}

	path := opts.Bin
	if path == "" {
		path, _ = launcher.LookPath()
	}
	l := launcher.New().Bin(path).Headless(opts.Headless)
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}
	u, err := l.Launch()
	if err != nil {
		return "", false, fmt.Errorf("launch browser: %w", err)
	}
	return u, true, nil
}

func (b *Browser) pageFor(url string) (*rod.Page, bool, error) {
	if !b.launched {
		pages, err := b.browser.Pages()
		if err == nil {
			for _, p := range pages {
				info, err := p.Info()
				if err == nil && strings.HasPrefix(info.URL, url) {
					if _, err := p.Activate(); err != nil {
						return nil, false, fmt.Errorf("activate tab %s: %w", info.URL, err)
					}
					return p, true, nil
				}
			}
		}
	}
	page, err := b.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, false, fmt.Errorf("open page %s: %w", url, err)
	}
	return page, false, nil
}

// WaitSettled waits for the load event and a short network lull. Pages holding
// persistent connections never go idle, so the lull is bounded.
func (b *Browser) WaitSettled(timeout time.Duration) error {
	if err := b.page.Timeout(timeout).WaitLoad(); err != nil {
		return fmt.Errorf("wait for page load: %w", err)
	}
	b.page.Timeout(5*time.Second).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()
	return nil
}

// Close cleans up browser resources. A browser we attached to is left
// running, and so is the page.
func (b *Browser) Close() {
	if !b.launched {
		return
	}
	// The run context may already be canceled; cleanup must still reach
	// the browser.
	if b.page != nil {
		_ = b.page.Context(context.Background()).Close()
	}
	if b.browser != nil {
		_ = b.browser.Context(context.Background()).Close()
	}
}

// Page returns the underlying Rod page
func (b *Browser) Page() *rod.Page {
	return b.page
}

// URL returns the page's current location.
func (b *Browser) URL() string {
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Document returns the page's document as a dom.Document.
func (b *Browser) Document() *Document {
	return NewDocument(b.page)
}

// Screenshot captures the viewport as PNG.
func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	return b.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// ViewportWidth returns window.innerWidth.
func (b *Browser) ViewportWidth(ctx context.Context) (int, error) {
	res, err := b.page.Context(ctx).Eval(`() => window.innerWidth`)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}
