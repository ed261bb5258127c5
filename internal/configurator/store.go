// Package configurator is a small rendition of the Configurator
// Application screens. It renders the same markup the real application
// does so scenario suites can run against it without external services.
package configurator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned for unknown application ids.
var ErrNotFound = errors.New("application not found")

// Application types offered by the forms, in display order. The first one
// is preselected on the creation form.
var ApplicationTypes = []string{"API", "WEB", "MOBILE", "BATCH"}

// Application is a configurable application.
type Application struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Type        string    `db:"type"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Validate checks the fields the forms require.
func (a *Application) Validate() error {
	var errs []error
	if strings.TrimSpace(a.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if strings.TrimSpace(a.Description) == "" {
		errs = append(errs, errors.New("description is required"))
	}
	if !validType(a.Type) {
		errs = append(errs, fmt.Errorf("unknown type %q", a.Type))
	}
	return errors.Join(errs...)
}

func validType(t string) bool {
	for _, v := range ApplicationTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Variable is one key/value setting of an application.
type Variable struct {
	ID            int64  `db:"id"`
	ApplicationID int64  `db:"application_id"`
	Key           string `db:"key"`
	Value         string `db:"value"`
}

// Store persists applications and their variables. List returns
// applications in creation order.
type Store interface {
	List(ctx context.Context) ([]Application, error)
	Get(ctx context.Context, id int64) (*Application, error)
	Create(ctx context.Context, app *Application) error
	Update(ctx context.Context, app *Application) error
	Delete(ctx context.Context, id int64) error

	Variables(ctx context.Context, appID int64) ([]Variable, error)
	SetVariable(ctx context.Context, v *Variable) error

	Close() error
}

// Seed adds a few applications to an empty store.
func Seed(ctx context.Context, s Store) error {
	apps, err := s.List(ctx)
	if err != nil {
		return err
	}
	if len(apps) > 0 {
		return nil
	}
	defaults := []Application{
		{Name: "billing-api", Description: "Invoices and payments", Type: "API"},
		{Name: "storefront", Description: "Public web shop", Type: "WEB"},
		{Name: "field-app", Description: "Technician mobile client", Type: "MOBILE"},
	}
	for i := range defaults {
		if err := s.Create(ctx, &defaults[i]); err != nil {
			return fmt.Errorf("seed %s: %w", defaults[i].Name, err)
		}
	}
	return s.SetVariable(ctx, &Variable{ApplicationID: defaults[0].ID, Key: "LOG_LEVEL", Value: "info"})
}
