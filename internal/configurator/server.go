package configurator

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"github.com/gotrs-io/configurator-e2e/internal/middleware"
)

//go:embed templates/*.pongo2
var templateFS embed.FS

// Options configures a Server.
type Options struct {
	Store    Store
	Username string
	Password string
	// Secret signs session tokens. A random one is used when empty.
	Secret string
	// SessionTTL defaults to 8 hours.
	SessionTTL time.Duration
	Logger     *log.Logger
}

// Server serves the Application screens of the Configurator.
type Server struct {
	store  Store
	auth   *Authenticator
	tmpl   *pongo2.TemplateSet
	logger *log.Logger
	engine *gin.Engine
}

// New builds the server and registers its routes.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}
	if opts.Username == "" {
		return nil, errors.New("username is required")
	}
	if opts.Secret == "" {
		opts.Secret = fmt.Sprintf("fixture-%d", time.Now().UnixNano())
	}
	if opts.SessionTTL == 0 {
		opts.SessionTTL = 8 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = &log.DefaultLogger
	}

	auth := NewAuthenticator(opts.Secret, opts.SessionTTL)
	if err := auth.AddUser(opts.Username, opts.Password); err != nil {
		return nil, fmt.Errorf("failed to add user: %w", err)
	}

	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:  opts.Store,
		auth:   auth,
		tmpl:   pongo2.NewSet("configurator", embedLoader{fsys: sub}),
		logger: opts.Logger,
	}
	s.engine = s.routes()
	return s, nil
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(s.logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/login", s.loginPage)
	r.POST("/login", s.login)
	r.GET("/logout", s.logout)

	app := r.Group("/", s.requireLogin())
	app.GET("/", s.listApplications)
	app.GET("/application/view/new", s.newApplication)
	app.POST("/application/action/create", s.createApplication)
	app.GET("/application/view/edit/:id", s.editApplication)
	app.POST("/application/action/update", s.updateApplication)
	app.GET("/application/view/delete/:id", s.confirmDelete)
	app.POST("/application/action/delete", s.deleteApplication)
	app.GET("/application/variables", s.listVariables)
	app.POST("/application/variables/action/set", s.setVariable)
	return r
}

func (s *Server) requireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		claims, err := s.auth.ValidateToken(token)
		if err != nil {
			c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Set("user", claims.Username)
		c.Next()
	}
}

// html renders the named template with the signed-in user added to ctx.
func (s *Server) html(c *gin.Context, code int, name string, ctx pongo2.Context) {
	if ctx == nil {
		ctx = pongo2.Context{}
	}
	if user, ok := c.Get("user"); ok {
		ctx["user"] = user
	}
	tmpl, err := s.tmpl.FromFile(name)
	if err != nil {
		s.logger.Error().Err(err).Str("template", name).Msg("template not found")
		c.String(http.StatusInternalServerError, "Template not found: %s", name)
		return
	}
	out, err := tmpl.ExecuteBytes(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("template", name).Msg("template execution failed")
		c.String(http.StatusInternalServerError, "Template execution error: %v", err)
		return
	}
	c.Data(code, "text/html; charset=utf-8", out)
}

func (s *Server) loginPage(c *gin.Context) {
	s.html(c, http.StatusOK, "login.pongo2", nil)
}

func (s *Server) login(c *gin.Context) {
	username := c.PostForm("username")
	token, err := s.auth.Login(username, c.PostForm("password"))
	if err != nil {
		s.logger.Info().Str("username", username).Msg("login rejected")
		s.html(c, http.StatusUnauthorized, "login.pongo2", pongo2.Context{
			"username": username,
			"errors":   []string{"Invalid username or password"},
		})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(s.auth.tokenDuration.Seconds()), "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) logout(c *gin.Context) {
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/login")
}

func (s *Server) listApplications(c *gin.Context) {
	apps, err := s.store.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.html(c, http.StatusOK, "list.pongo2", pongo2.Context{
		"title": "Applications",
		"apps":  apps,
	})
}

func (s *Server) newApplication(c *gin.Context) {
	s.renderForm(c, http.StatusOK, &Application{Type: ApplicationTypes[0]}, nil)
}

func (s *Server) createApplication(c *gin.Context) {
	app := applicationFromForm(c)
	if err := s.store.Create(c.Request.Context(), app); err != nil {
		s.formError(c, app, err)
		return
	}
	s.logger.Info().Int64("id", app.ID).Str("name", app.Name).Msg("application created")
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) editApplication(c *gin.Context) {
	app, ok := s.lookup(c, c.Param("id"))
	if !ok {
		return
	}
	s.renderForm(c, http.StatusOK, app, nil)
}

func (s *Server) updateApplication(c *gin.Context) {
	id, err := strconv.ParseInt(c.PostForm("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid application id")
		return
	}
	app := applicationFromForm(c)
	app.ID = id
	if err := s.store.Update(c.Request.Context(), app); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.fail(c, err)
			return
		}
		s.formError(c, app, err)
		return
	}
	s.logger.Info().Int64("id", app.ID).Str("name", app.Name).Msg("application updated")
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) confirmDelete(c *gin.Context) {
	app, ok := s.lookup(c, c.Param("id"))
	if !ok {
		return
	}
	s.html(c, http.StatusOK, "delete.pongo2", pongo2.Context{
		"title": "delete",
		"app":   app,
	})
}

func (s *Server) deleteApplication(c *gin.Context) {
	id, err := strconv.ParseInt(c.PostForm("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid application id")
		return
	}
	if err := s.store.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	s.logger.Info().Int64("id", id).Msg("application deleted")
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) listVariables(c *gin.Context) {
	ctx := c.Request.Context()
	apps, err := s.store.List(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	if len(apps) == 0 {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	current := &apps[0]
	if raw := c.Query("applicationId"); raw != "" {
		app, ok := s.lookup(c, raw)
		if !ok {
			return
		}
		current = app
	}
	vars, err := s.store.Variables(ctx, current.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.html(c, http.StatusOK, "variables.pongo2", pongo2.Context{
		"title":     "Application Variables",
		"apps":      apps,
		"app":       current,
		"variables": vars,
	})
}

func (s *Server) setVariable(c *gin.Context) {
	appID, err := strconv.ParseInt(c.PostForm("applicationId"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid application id")
		return
	}
	key := strings.TrimSpace(c.PostForm("key"))
	if key == "" {
		c.String(http.StatusUnprocessableEntity, "key is required")
		return
	}
	v := &Variable{ApplicationID: appID, Key: key, Value: c.PostForm("value")}
	if err := s.store.SetVariable(c.Request.Context(), v); err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/application/variables?applicationId="+strconv.FormatInt(appID, 10))
}

func (s *Server) lookup(c *gin.Context, raw string) (*Application, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid application id")
		return nil, false
	}
	app, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return app, true
}

func (s *Server) renderForm(c *gin.Context, code int, app *Application, errs []string) {
	ctx := pongo2.Context{
		"app":    app,
		"types":  ApplicationTypes,
		"errors": errs,
	}
	if app.ID == 0 {
		ctx["title"] = "new application"
		ctx["action"] = "/application/action/create"
		ctx["cancelID"] = "cancelCreationButton"
	} else {
		ctx["title"] = "edit application"
		ctx["action"] = "/application/action/update"
		ctx["cancelID"] = "cancelEditionButton"
	}
	s.html(c, code, "form.pongo2", ctx)
}

// formError shows the form again with the validation messages of err.
func (s *Server) formError(c *gin.Context, app *Application, err error) {
	var msgs []string
	for _, line := range strings.Split(err.Error(), "\n") {
		if line != "" {
			msgs = append(msgs, line)
		}
	}
	s.renderForm(c, http.StatusUnprocessableEntity, app, msgs)
}

func (s *Server) fail(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		c.String(http.StatusNotFound, err.Error())
		return
	}
	s.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	c.String(http.StatusInternalServerError, "internal error")
}

func applicationFromForm(c *gin.Context) *Application {
	return &Application{
		Name:        strings.TrimSpace(c.PostForm("name")),
		Description: strings.TrimSpace(c.PostForm("description")),
		Type:        c.PostForm("type"),
	}
}

// embedLoader resolves pongo2 templates from an fs.FS.
type embedLoader struct {
	fsys fs.FS
}

func (l embedLoader) Abs(base, name string) string {
	return path.Clean(strings.TrimPrefix(name, "/"))
}

func (l embedLoader) Get(name string) (io.Reader, error) {
	return l.fsys.Open(name)
}
