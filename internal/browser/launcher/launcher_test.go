package launcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotrs-io/configurator-e2e/internal/browser/htmldriver"
	"github.com/gotrs-io/configurator-e2e/internal/config"
	"github.com/gotrs-io/configurator-e2e/internal/logging"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("html driver", func(t *testing.T) {
		cfg := &config.Config{Browser: config.BrowserConfig{Driver: config.DriverHTML}}
		page, err := Open(ctx, cfg, logging.Discard())
		require.NoError(t, err)
		defer page.Close()
		assert.IsType(t, &htmldriver.Page{}, page)
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := &config.Config{Browser: config.BrowserConfig{Driver: "netscape"}}
		page, err := Open(ctx, cfg, logging.Discard())
		assert.Error(t, err)
		assert.Nil(t, page)
	})
}
