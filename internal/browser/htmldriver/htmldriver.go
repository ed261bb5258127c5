// Package htmldriver is a browser.Page backed by plain HTTP and goquery. It
// follows links, submits forms and keeps cookies, but runs no JavaScript.
// It is used against the fixture Configurator and server-rendered pages.
package htmldriver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/gotrs-io/configurator-e2e/internal/browser"
)

// Page is a single-tab, script-less browser.
type Page struct {
	client *http.Client
	url    *url.URL
	doc    *goquery.Document
	status int
	gen    uint64

	navTimeout time.Duration
}

var _ browser.Page = (*Page)(nil)

// Option configures a Page.
type Option func(*Page)

// WithHTTPClient uses c for every request. A cookie jar is added when c
// has none so sessions survive across requests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Page) {
		cp := *c
		p.client = &cp
	}
}

// WithNavigationTimeout bounds every request, redirects included.
func WithNavigationTimeout(d time.Duration) Option {
	return func(p *Page) { p.navTimeout = d }
}

// New creates an empty page; call Navigate to load a document.
func New(opts ...Option) (*Page, error) {
	p := &Page{client: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(p)
	}
	if p.navTimeout > 0 {
		p.client.Timeout = p.navTimeout
	}
	if p.client.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("could not create cookie jar: %w", err)
		}
		p.client.Jar = jar
	}
	return p, nil
}

// Navigate loads rawURL, resolved against the current document URL.
func (p *Page) Navigate(ctx context.Context, rawURL string) error {
	target, err := p.resolve(rawURL)
	if err != nil {
		return err
	}
	return p.load(ctx, http.MethodGet, target, nil)
}

// Query matches selector against the current document.
func (p *Page) Query(_ context.Context, selector string) ([]browser.Element, error) {
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	if p.doc == nil {
		return nil, nil
	}
	return p.wrap(p.doc.FindMatcher(m)), nil
}

// URL is the address of the current document, after redirects.
func (p *Page) URL() string {
	if p.url == nil {
		return ""
	}
	return p.url.String()
}

// Status is the HTTP status of the last response.
func (p *Page) Status() int { return p.status }

// HTML returns the current document as markup.
func (p *Page) HTML() (string, error) {
	if p.doc == nil {
		return "", nil
	}
	return goquery.OuterHtml(p.doc.Selection)
}

// Screenshot cannot render pixels; it saves the current markup instead,
// replacing the extension of path with .html.
func (p *Page) Screenshot(_ context.Context, path string) error {
	html, err := p.HTML()
	if err != nil {
		return err
	}
	path = strings.TrimSuffix(path, filepath.Ext(path)) + ".html"
	return os.WriteFile(path, []byte(html), 0o644)
}

func (p *Page) Close() error {
	p.client.CloseIdleConnections()
	p.doc = nil
	p.gen++
	return nil
}

func (p *Page) resolve(ref string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", ref, err)
	}
	if p.url != nil {
		u = p.url.ResolveReference(u)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("cannot navigate to relative url %q without a current page", ref)
	}
	return u, nil
}

func (p *Page) load(ctx context.Context, method string, target *url.URL, form url.Values) error {
	var body io.Reader
	if form != nil && method == http.MethodPost {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", target, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("parse %s: %w", target, err)
	}
	p.doc = doc
	p.url = resp.Request.URL
	p.status = resp.StatusCode
	p.gen++
	return nil
}

func (p *Page) wrap(sel *goquery.Selection) []browser.Element {
	out := make([]browser.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &element{page: p, sel: s, gen: p.gen})
	})
	return out
}

func compile(selector string) (cascadia.Selector, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return m, nil
}
