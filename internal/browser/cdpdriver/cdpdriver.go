// Package cdpdriver drives a local Chrome over the DevTools protocol with
// chromedp. No driver download is needed, only a Chrome binary.
package cdpdriver

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/gotrs-io/configurator-e2e/internal/browser"
)

// Options control the Chrome process.
type Options struct {
	Headless      bool
	Width         int
	Height        int
	ExecPath      string
	ActionTimeout time.Duration
	// NavigationTimeout bounds page loads.
	NavigationTimeout time.Duration
}

// Page is one Chrome tab.
type Page struct {
	ctx        context.Context
	timeout    time.Duration
	navTimeout time.Duration
	cleanup    []func()
}

var _ browser.Page = (*Page)(nil)

// Launch starts Chrome and opens a tab. The browser lives until Close, not
// until parent is cancelled.
func Launch(parent context.Context, opts Options) (*Page, error) {
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

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(parent), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	p := &Page{ctx: browserCtx, timeout: opts.ActionTimeout, navTimeout: opts.NavigationTimeout}
	// released in reverse order
	p.cleanup = append(p.cleanup, cancelAlloc, cancelBrowser, func() { _ = chromedp.Cancel(browserCtx) })

	// the first Run starts the browser
	if err := chromedp.Run(browserCtx); err != nil {
		p.Close()
		return nil, fmt.Errorf("could not start chrome: %w", err)
	}
	return p, nil
}

func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return mapErr(chromedp.Run(runCtx, actions...))
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(p.ctx, p.navTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, chromedp.Navigate(url))
}

func (p *Page) Query(ctx context.Context, selector string) ([]browser.Element, error) {
	var nodes []*cdp.Node
	if err := p.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}
	return p.wrap(nodes), nil
}

func (p *Page) URL() string {
	var u string
	if err := p.run(context.Background(), chromedp.Location(&u)); err != nil {
		return ""
	}
	return u
}

func (p *Page) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := p.run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

func (p *Page) Close() error {
	for i := len(p.cleanup) - 1; i >= 0; i-- {
		p.cleanup[i]()
	}
	p.cleanup = nil
	return nil
}

func (p *Page) wrap(nodes []*cdp.Node) []browser.Element {
	out := make([]browser.Element, len(nodes))
	for i, n := range nodes {
		out[i] = &element{page: p, node: n}
	}
	return out
}

// mapErr reports node ids from a replaced document as stale.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "Could not find node") || strings.Contains(msg, "No node with given id") ||
		strings.Contains(msg, "Node is detached") {
		return fmt.Errorf("%w: %v", browser.ErrStaleElement, err)
	}
	return err
}

type element struct {
	page *Page
	node *cdp.Node
}

func (e *element) ids() []cdp.NodeID { return []cdp.NodeID{e.node.NodeID} }

func (e *element) Text(ctx context.Context) (string, error) {
	var s string
	err := e.page.run(ctx, chromedp.Text(e.ids(), &s, chromedp.ByNodeID))
	return s, err
}

const selectOption = `function() {
	this.selected = true;
	this.parentElement.dispatchEvent(new Event('change', {bubbles: true}));
}`

func (e *element) Click(ctx context.Context) error {
	if e.node.NodeName != "OPTION" {
		return e.page.run(ctx, chromedp.MouseClickNode(e.node))
	}
	// options are chosen through their select, not clicked
	return e.page.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		_, exc, err := runtime.CallFunctionOn(selectOption).WithObjectID(obj.ObjectID).Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("select option: %s", exc.Text)
		}
		return nil
	}))
}

func (e *element) Type(ctx context.Context, text string) error {
	return e.page.run(ctx, chromedp.SendKeys(e.ids(), text, chromedp.ByNodeID))
}

func (e *element) Clear(ctx context.Context) error {
	return e.page.run(ctx, chromedp.Clear(e.ids(), chromedp.ByNodeID))
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	var v string
	var ok bool
	err := e.page.run(ctx, chromedp.AttributeValue(e.ids(), name, &v, &ok, chromedp.ByNodeID))
	return v, ok, err
}

func (e *element) Query(ctx context.Context, selector string) ([]browser.Element, error) {
	var nodes []*cdp.Node
	err := e.page.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0), chromedp.FromNode(e.node)))
	if err != nil {
		return nil, err
	}
	return e.page.wrap(nodes), nil
}
