package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		debugOn bool
	}{
		{name: "local environment", env: "local", debugOn: true},
		{name: "dev environment", env: "dev", debugOn: true},
		{name: "prod environment", env: "prod", debugOn: false},
		{name: "unknown environment falls back to pretty", env: "", debugOn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.env)
			require.NotNil(t, log)
			ctx := context.Background()
			assert.Equal(t, tt.debugOn, log.Enabled(ctx, slog.LevelDebug))
			assert.True(t, log.Enabled(ctx, slog.LevelInfo))
		})
	}
}

func TestSetupPrettySlog(t *testing.T) {
	log := setupPrettySlog()
	require.NotNil(t, log)
	assert.True(t, log.Enabled(context.Background(), slog.LevelDebug))
}
