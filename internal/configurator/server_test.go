package configurator

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotrs-io/configurator-e2e/internal/browser"
	"github.com/gotrs-io/configurator-e2e/internal/browser/htmldriver"
	"github.com/gotrs-io/configurator-e2e/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*httptest.Server, Store) {
	t.Helper()
	store := NewMemoryStore()
	require.NoError(t, Seed(context.Background(), store))
	srv, err := New(Options{
		Store:    store,
		Username: "admin",
		Password: "admin",
		Logger:   logging.Discard(),
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func signIn(t *testing.T, ts *httptest.Server) *htmldriver.Page {
	t.Helper()
	ctx := context.Background()
	page, err := htmldriver.New()
	require.NoError(t, err)
	require.NoError(t, page.Navigate(ctx, ts.URL+"/login"))
	fill(t, page, "input[name='username']", "admin")
	fill(t, page, "input[name='password']", "admin")
	click(t, page, "button[type='submit']")
	return page
}

func first(t *testing.T, page browser.Page, selector string) browser.Element {
	t.Helper()
	el, err := browser.First(context.Background(), page, selector)
	require.NoError(t, err)
	require.NotNil(t, el, "no element matches %s", selector)
	return el
}

func fill(t *testing.T, page browser.Page, selector, text string) {
	t.Helper()
	el := first(t, page, selector)
	require.NoError(t, el.Clear(context.Background()))
	require.NoError(t, el.Type(context.Background(), text))
}

func click(t *testing.T, page browser.Page, selector string) {
	t.Helper()
	require.NoError(t, first(t, page, selector).Click(context.Background()))
}

func text(t *testing.T, page browser.Page, selector string) string {
	t.Helper()
	s, err := first(t, page, selector).Text(context.Background())
	require.NoError(t, err)
	return s
}

func TestRedirectsToLogin(t *testing.T) {
	ts, _ := newTestServer(t)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestLoginRejected(t *testing.T) {
	ts, _ := newTestServer(t)
	ctx := context.Background()
	page, err := htmldriver.New()
	require.NoError(t, err)
	require.NoError(t, page.Navigate(ctx, ts.URL+"/login"))
	fill(t, page, "input[name='username']", "admin")
	fill(t, page, "input[name='password']", "wrong")
	click(t, page, "button[type='submit']")

	assert.Equal(t, http.StatusUnauthorized, page.Status())
	assert.Equal(t, "Invalid username or password", text(t, page, "#error-message"))
	els, err := page.Query(ctx, ".page-header")
	require.NoError(t, err)
	assert.Empty(t, els)
}

func TestListing(t *testing.T) {
	ts, _ := newTestServer(t)
	page := signIn(t, ts)
	ctx := context.Background()

	assert.Equal(t, "Applications", text(t, page, ".page-header"))
	rows, err := page.Query(ctx, "[class='table table-bordered table-hover table-striped'] tbody > tr")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	cells, err := rows[1].Query(ctx, "td")
	require.NoError(t, err)
	require.Len(t, cells, 5)
	name, err := cells[1].Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "storefront", name)

	links, err := cells[4].Query(ctx, "a[title='Edit']")
	require.NoError(t, err)
	require.Len(t, links, 1)
	href, ok, err := links[0].Attribute(ctx, "href")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/application/view/edit/2", href)
}

func TestCreateApplication(t *testing.T) {
	ts, store := newTestServer(t)
	page := signIn(t, ts)

	click(t, page, "a[href='/application/view/new']")
	assert.Equal(t, "new application", text(t, page, ".page-header"))
	assert.Equal(t, "API", text(t, page, "select[name='type'] option[selected]"))

	fill(t, page, "input[name='name']", "app-new")
	fill(t, page, "input[name='description']", "created from a test")
	click(t, page, "button[type='submit']")

	assert.Equal(t, "Applications", text(t, page, ".page-header"))
	apps, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 4)
	assert.Equal(t, "app-new", apps[3].Name)
	assert.Equal(t, "API", apps[3].Type)
}

func TestCreateRequiresDescription(t *testing.T) {
	ts, store := newTestServer(t)
	page := signIn(t, ts)

	click(t, page, "a[href='/application/view/new']")
	fill(t, page, "input[name='name']", "app-incomplete")
	click(t, page, "button[type='submit']")

	assert.Equal(t, http.StatusUnprocessableEntity, page.Status())
	assert.Equal(t, "new application", text(t, page, ".page-header"))
	assert.Contains(t, text(t, page, "#error-message"), "description is required")
	v, _, err := first(t, page, "input[name='name']").Attribute(context.Background(), "value")
	require.NoError(t, err)
	assert.Equal(t, "app-incomplete", v)

	apps, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, apps, 3)
}

func TestCancelCreation(t *testing.T) {
	ts, _ := newTestServer(t)
	page := signIn(t, ts)
	click(t, page, "a[href='/application/view/new']")
	click(t, page, "#cancelCreationButton")
	assert.Equal(t, "Applications", text(t, page, ".page-header"))
}

func TestCancelEdition(t *testing.T) {
	ts, store := newTestServer(t)
	page := signIn(t, ts)
	click(t, page, "a[title='Edit']")
	fill(t, page, "input[name='name']", "never-saved")
	click(t, page, "#cancelEditionButton")
	assert.Equal(t, "Applications", text(t, page, ".page-header"))

	app, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "billing-api", app.Name)
}

func TestEditApplication(t *testing.T) {
	ts, store := newTestServer(t)
	page := signIn(t, ts)

	click(t, page, "a[title='Edit']")
	assert.Equal(t, "edit application", text(t, page, ".page-header"))
	fill(t, page, "input[name='name']", "billing-api-edited")
	click(t, page, "select[name='type'] > option[value=WEB]")
	click(t, page, "button[type='submit']")

	app, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "billing-api-edited", app.Name)
	assert.Equal(t, "WEB", app.Type)
	assert.Equal(t, "Invoices and payments", app.Description)
}

func TestDeleteApplication(t *testing.T) {
	ts, store := newTestServer(t)
	page := signIn(t, ts)

	click(t, page, "a[title='Delete']")
	assert.Equal(t, "delete", text(t, page, ".page-header"))
	assert.Contains(t, text(t, page, "form p"), "billing-api")

	click(t, page, "#cancelDeletionButton")
	apps, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, apps, 3)

	click(t, page, "a[title='Delete']")
	click(t, page, "button[type='submit']")
	_, err = store.Get(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVariables(t *testing.T) {
	ts, _ := newTestServer(t)
	page := signIn(t, ts)
	ctx := context.Background()

	click(t, page, "a[title='Variables']")
	assert.Equal(t, "Application Variables", text(t, page, ".page-header"))
	assert.Equal(t, "billing-api", text(t, page, "select[name='applicationId'] option[selected]"))
	assert.Equal(t, "LOG_LEVEL", text(t, page, "table tbody td"))

	fill(t, page, "input[name='key']", "REGION")
	fill(t, page, "input[name='value']", "eu-west-1")
	click(t, page, "form[action='/application/variables/action/set'] button")

	cells, err := page.Query(ctx, "table tbody td")
	require.NoError(t, err)
	var got []string
	for _, c := range cells {
		s, err := c.Text(ctx)
		require.NoError(t, err)
		got = append(got, s)
	}
	assert.Equal(t, []string{"LOG_LEVEL", "info", "REGION", "eu-west-1"}, got)
}

func TestUnknownApplication(t *testing.T) {
	ts, _ := newTestServer(t)
	page := signIn(t, ts)
	require.NoError(t, page.Navigate(context.Background(), ts.URL+"/application/view/edit/999"))
	assert.Equal(t, http.StatusNotFound, page.Status())
	require.NoError(t, page.Navigate(context.Background(), ts.URL+"/application/view/edit/abc"))
	assert.Equal(t, http.StatusBadRequest, page.Status())
}

func TestLogout(t *testing.T) {
	ts, _ := newTestServer(t)
	page := signIn(t, ts)
	require.NoError(t, page.Navigate(context.Background(), ts.URL+"/logout"))
	require.NoError(t, page.Navigate(context.Background(), ts.URL+"/"))
	u, err := url.Parse(page.URL())
	require.NoError(t, err)
	assert.Equal(t, "/login", u.Path)
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Options{Username: "admin"})
	assert.Error(t, err)
	_, err = New(Options{Store: NewMemoryStore()})
	assert.Error(t, err)
}
