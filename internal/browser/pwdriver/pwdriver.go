// Package pwdriver drives Chromium through Playwright.
package pwdriver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/gotrs-io/configurator-e2e/internal/browser"
)

// Options control how the browser is launched.
type Options struct {
	Headless bool
	SlowMo   time.Duration
	Width    int
	Height   int
	// ActionTimeout bounds a single click, fill or read on a resolved
	// element. Waiting for elements to appear is done by the caller.
	ActionTimeout time.Duration
	// NavigationTimeout bounds page loads.
	NavigationTimeout time.Duration
	VideoDir          string
}

// Page is a Playwright tab and everything launched to host it.
type Page struct {
	pw                *playwright.Playwright
	browser           playwright.Browser
	context           playwright.BrowserContext
	page              playwright.Page
	timeout           float64
	navigationTimeout float64
}

var _ browser.Page = (*Page)(nil)

// Launch installs the driver unless PLAYWRIGHT_PREINSTALLED=1, starts
// Chromium and opens a page.
func Launch(opts Options) (*Page, error) {
	if opts.Width == 0 {
		opts.Width = 1280
	}
	if opts.Height == 0 {
		opts.Height = 720
	}
	if opts.ActionTimeout == 0 {
		opts.ActionTimeout = 5 * time.Second
	}
	if opts.NavigationTimeout == 0 {
		opts.NavigationTimeout = 30 * time.Second
	}

	if os.Getenv("PLAYWRIGHT_PREINSTALLED") != "1" {
		if err := playwright.Install(); err != nil {
			return nil, fmt.Errorf("could not install playwright browsers: %w", err)
		}
	}
	pw, err := playwright.Run()
	if err != nil {
		_ = playwright.Install()
		pw, err = playwright.Run()
		if err != nil {
			return nil, fmt.Errorf("could not start playwright after retry: %w", err)
		}
	}
	p := &Page{
		pw:                pw,
		timeout:           float64(opts.ActionTimeout.Milliseconds()),
		navigationTimeout: float64(opts.NavigationTimeout.Milliseconds()),
	}

	p.browser, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(float64(opts.SlowMo.Milliseconds())),
	})
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	ctxOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: opts.Width, Height: opts.Height},
	}
	if opts.VideoDir != "" {
		ctxOpts.RecordVideo = &playwright.RecordVideo{Dir: opts.VideoDir}
	}
	p.context, err = p.browser.NewContext(ctxOpts)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("could not create context: %w", err)
	}

	p.page, err = p.context.NewPage()
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	p.page.SetDefaultTimeout(p.timeout)
	p.page.SetDefaultNavigationTimeout(p.navigationTimeout)
	return p, nil
}

func (p *Page) Navigate(_ context.Context, url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{Timeout: playwright.Float(p.navigationTimeout)})
	if err != nil && strings.Contains(err.Error(), "ERR_TOO_MANY_REDIRECTS") {
		return fmt.Errorf("redirect loop navigating to %s (check the base url and login redirect): %w", url, err)
	}
	return err
}

// Query snapshots the current matches. The returned handles are nth-match
// locators, so they re-resolve on use.
func (p *Page) Query(_ context.Context, selector string) ([]browser.Element, error) {
	return p.wrap(p.page.Locator(selector).All())
}

func (p *Page) URL() string { return p.page.URL() }

func (p *Page) Screenshot(_ context.Context, path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

// Close releases the page, context, browser and driver in that order.
func (p *Page) Close() error {
	var errs []error
	if p.page != nil {
		errs = append(errs, p.page.Close())
	}
	if p.context != nil {
		errs = append(errs, p.context.Close())
	}
	if p.browser != nil {
		errs = append(errs, p.browser.Close())
	}
	if p.pw != nil {
		errs = append(errs, p.pw.Stop())
	}
	return errors.Join(errs...)
}

func (p *Page) wrap(locs []playwright.Locator, err error) ([]browser.Element, error) {
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]browser.Element, len(locs))
	for i, l := range locs {
		out[i] = &element{loc: l, timeout: p.timeout}
	}
	return out, nil
}

// mapErr turns a timed-out action on a resolved handle into a stale element:
// the node it pointed at is gone.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", browser.ErrStaleElement, err)
	}
	return err
}

type element struct {
	loc     playwright.Locator
	timeout float64
}

func (e *element) Text(context.Context) (string, error) {
	s, err := e.loc.InnerText(playwright.LocatorInnerTextOptions{Timeout: playwright.Float(e.timeout)})
	return s, mapErr(err)
}

// selectOption picks an <option> the way a user choosing it from the
// dropdown would; options themselves are not clickable.
const selectOption = `o => {
	if (o.tagName !== 'OPTION') return false;
	o.selected = true;
	o.parentElement.dispatchEvent(new Event('change', {bubbles: true}));
	return true;
}`

func (e *element) Click(context.Context) error {
	done, err := e.loc.Evaluate(selectOption, nil, playwright.LocatorEvaluateOptions{Timeout: playwright.Float(e.timeout)})
	if err != nil {
		return mapErr(err)
	}
	if ok, _ := done.(bool); ok {
		return nil
	}
	return mapErr(e.loc.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(e.timeout)}))
}

func (e *element) Type(_ context.Context, text string) error {
	return mapErr(e.loc.PressSequentially(text, playwright.LocatorPressSequentiallyOptions{Timeout: playwright.Float(e.timeout)}))
}

func (e *element) Clear(context.Context) error {
	return mapErr(e.loc.Clear(playwright.LocatorClearOptions{Timeout: playwright.Float(e.timeout)}))
}

func (e *element) Attribute(_ context.Context, name string) (string, bool, error) {
	has, err := e.loc.Evaluate("(el, name) => el.hasAttribute(name)", name,
		playwright.LocatorEvaluateOptions{Timeout: playwright.Float(e.timeout)})
	if err != nil {
		return "", false, mapErr(err)
	}
	if ok, _ := has.(bool); !ok {
		return "", false, nil
	}
	v, err := e.loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{Timeout: playwright.Float(e.timeout)})
	return v, true, mapErr(err)
}

func (e *element) Query(_ context.Context, selector string) ([]browser.Element, error) {
	locs, err := e.loc.Locator(selector).All()
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]browser.Element, len(locs))
	for i, l := range locs {
		out[i] = &element{loc: l, timeout: e.timeout}
	}
	return out, nil
}
