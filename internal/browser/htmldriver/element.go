package htmldriver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gotrs-io/configurator-e2e/internal/browser"
)

type element struct {
	page *Page
	sel  *goquery.Selection
	gen  uint64
}

func (e *element) live() error {
	if e.gen != e.page.gen {
		return browser.ErrStaleElement
	}
	return nil
}

func (e *element) tag() string { return goquery.NodeName(e.sel) }

// Text approximates innerText: whitespace runs collapse to one space.
func (e *element) Text(context.Context) (string, error) {
	if err := e.live(); err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(e.sel.Text()), " "), nil
}

func (e *element) Attribute(_ context.Context, name string) (string, bool, error) {
	if err := e.live(); err != nil {
		return "", false, err
	}
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

func (e *element) Query(_ context.Context, selector string) ([]browser.Element, error) {
	if err := e.live(); err != nil {
		return nil, err
	}
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	return e.page.wrap(e.sel.FindMatcher(m)), nil
}

func (e *element) Type(_ context.Context, text string) error {
	if err := e.live(); err != nil {
		return err
	}
	switch e.tag() {
	case "input":
		v, _ := e.sel.Attr("value")
		e.sel.SetAttr("value", v+text)
	case "textarea":
		e.sel.SetText(e.sel.Text() + text)
	default:
		return fmt.Errorf("type into <%s>: %w", e.tag(), browser.ErrNotInteractive)
	}
	return nil
}

func (e *element) Clear(context.Context) error {
	if err := e.live(); err != nil {
		return err
	}
	switch e.tag() {
	case "input":
		e.sel.SetAttr("value", "")
	case "textarea":
		e.sel.SetText("")
	default:
		return fmt.Errorf("clear <%s>: %w", e.tag(), browser.ErrNotInteractive)
	}
	return nil
}

// Click follows links, submits forms and selects options. Clicks on
// anything else change nothing, as there are no scripts to run.
func (e *element) Click(ctx context.Context) error {
	if err := e.live(); err != nil {
		return err
	}
	switch e.tag() {
	case "option":
		e.sel.Siblings().Filter("option").RemoveAttr("selected")
		e.sel.SetAttr("selected", "selected")
		return nil
	case "button":
		kind := strings.ToLower(e.sel.AttrOr("type", "submit"))
		if kind != "submit" {
			return nil
		}
		return e.submit(ctx)
	case "input":
		switch strings.ToLower(e.sel.AttrOr("type", "text")) {
		case "submit", "image":
			return e.submit(ctx)
		case "checkbox":
			if _, on := e.sel.Attr("checked"); on {
				e.sel.RemoveAttr("checked")
			} else {
				e.sel.SetAttr("checked", "checked")
			}
		case "radio":
			if name, ok := e.sel.Attr("name"); ok {
				form := e.sel.Closest("form")
				form.Find("input[type=radio]").FilterFunction(func(_ int, s *goquery.Selection) bool {
					return s.AttrOr("name", "") == name
				}).RemoveAttr("checked")
			}
			e.sel.SetAttr("checked", "checked")
		}
		return nil
	}

	link := e.sel.Closest("a[href]")
	if link.Length() == 0 {
		return nil
	}
	href := strings.TrimSpace(link.AttrOr("href", ""))
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return nil
	}
	return e.page.Navigate(ctx, href)
}

func (e *element) submit(ctx context.Context) error {
	form := e.sel.Closest("form")
	if form.Length() == 0 {
		return nil
	}
	values := formValues(form)
	if name, ok := e.sel.Attr("name"); ok && name != "" {
		values.Add(name, e.sel.AttrOr("value", ""))
	}

	action := e.page.URL()
	if a, ok := form.Attr("action"); ok && strings.TrimSpace(a) != "" {
		action = a
	}
	target, err := e.page.resolve(action)
	if err != nil {
		return err
	}

	if strings.EqualFold(form.AttrOr("method", "get"), http.MethodPost) {
		return e.page.load(ctx, http.MethodPost, target, values)
	}
	target.RawQuery = values.Encode()
	return e.page.load(ctx, http.MethodGet, target, nil)
}

// formValues collects the successful controls of form, in document order.
func formValues(form *goquery.Selection) url.Values {
	values := url.Values{}
	form.Find("input, select, textarea").Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" {
			return
		}
		if _, disabled := s.Attr("disabled"); disabled {
			return
		}
		switch goquery.NodeName(s) {
		case "textarea":
			values.Add(name, s.Text())
		case "select":
			selected := s.Find("option[selected]")
			if selected.Length() == 0 {
				if _, multiple := s.Attr("multiple"); multiple {
					return
				}
				selected = s.Find("option").First()
			}
			selected.Each(func(_ int, o *goquery.Selection) {
				values.Add(name, optionValue(o))
			})
		case "input":
			switch strings.ToLower(s.AttrOr("type", "text")) {
			case "submit", "button", "image", "reset", "file":
			case "checkbox", "radio":
				if _, on := s.Attr("checked"); on {
					values.Add(name, s.AttrOr("value", "on"))
				}
			default:
				values.Add(name, s.AttrOr("value", ""))
			}
		}
	})
	return values
}

func optionValue(o *goquery.Selection) string {
	if v, ok := o.Attr("value"); ok {
		return v
	}
	return strings.TrimSpace(o.Text())
}
