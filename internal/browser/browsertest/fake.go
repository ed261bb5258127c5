// Package browsertest provides an in-memory browser.Page for unit tests.
// Selectors are matched literally: a query returns whatever nodes were
// registered for exactly that selector string.
package browsertest

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/gotrs-io/configurator-e2e/internal/browser"
)

// Node is a fake DOM node.
type Node struct {
	Text     string
	Value    string
	Attrs    map[string]string
	Children map[string][]*Node
	OnClick  func()
	Stale    bool

	Clicks int
}

// Cells builds a table row node whose "td" children carry texts.
func Cells(texts ...string) *Node {
	tds := make([]*Node, len(texts))
	for i, t := range texts {
		tds[i] = &Node{Text: t}
	}
	return &Node{Children: map[string][]*Node{"td": tds}}
}

// Page is a fake tab. It is safe for concurrent use.
type Page struct {
	mu         sync.Mutex
	url        string
	nodes      map[string][]*Node
	delays     map[string]int
	queries    map[string]int
	failures   map[string]error
	Visited    []string
	Shots      []string
	OnNavigate func(url string)
	closed     bool
}

var _ browser.Page = (*Page)(nil)

func NewPage() *Page {
	return &Page{
		nodes:    map[string][]*Node{},
		delays:   map[string]int{},
		queries:  map[string]int{},
		failures: map[string]error{},
	}
}

// Set replaces the nodes matching selector.
func (p *Page) Set(selector string, nodes ...*Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nodes[selector] = nodes
	delete(p.delays, selector)
}

// SetAfter makes nodes visible only from the n+1th query of selector on.
func (p *Page) SetAfter(selector string, n int, nodes ...*Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nodes[selector] = nodes
	p.delays[selector] = n
	p.queries[selector] = 0
}

// Fail makes every query of selector return err.
func (p *Page) Fail(selector string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[selector] = err
}

// Queries reports how often selector was queried.
func (p *Page) Queries(selector string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queries[selector]
}

func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	p.url = url
	p.Visited = append(p.Visited, url)
	hook := p.OnNavigate
	p.mu.Unlock()
	if hook != nil {
		hook(url)
	}
	return nil
}

func (p *Page) Query(_ context.Context, selector string) ([]browser.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries[selector]++
	if err := p.failures[selector]; err != nil {
		return nil, err
	}
	if p.queries[selector] <= p.delays[selector] {
		return nil, nil
	}
	return wrap(p.nodes[selector]), nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Screenshot(_ context.Context, path string) error {
	p.mu.Lock()
	p.Shots = append(p.Shots, path)
	p.mu.Unlock()
	return os.WriteFile(path, []byte("fake"), 0o644)
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func wrap(nodes []*Node) []browser.Element {
	out := make([]browser.Element, len(nodes))
	for i, n := range nodes {
		out[i] = &element{n}
	}
	return out
}

type element struct{ n *Node }

func (e *element) check() error {
	if e.n.Stale {
		return browser.ErrStaleElement
	}
	return nil
}

func (e *element) Text(context.Context) (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	return e.n.Text, nil
}

func (e *element) Click(context.Context) error {
	if err := e.check(); err != nil {
		return err
	}
	e.n.Clicks++
	if e.n.OnClick != nil {
		e.n.OnClick()
	}
	return nil
}

func (e *element) Type(_ context.Context, text string) error {
	if err := e.check(); err != nil {
		return err
	}
	e.n.Value += text
	return nil
}

func (e *element) Clear(context.Context) error {
	if err := e.check(); err != nil {
		return err
	}
	e.n.Value = ""
	return nil
}

func (e *element) Attribute(_ context.Context, name string) (string, bool, error) {
	if err := e.check(); err != nil {
		return "", false, err
	}
	if name == "value" {
		return e.n.Value, true, nil
	}
	v, ok := e.n.Attrs[name]
	return v, ok, nil
}

func (e *element) Query(_ context.Context, selector string) ([]browser.Element, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	if selector == "" {
		return nil, errors.New("empty selector")
	}
	return wrap(e.n.Children[selector]), nil
}
