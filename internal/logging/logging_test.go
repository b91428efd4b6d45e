package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupAttachesLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx, logger := Setup(context.Background(), Options{Env: "production", Writer: &buf})

	require.NotNil(t, logger)
	zerolog.Ctx(ctx).Info().Str("order", "ORDER_1").Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "castingcall", line["service"])
	assert.Equal(t, "ORDER_1", line["order"])
	assert.Equal(t, "hello", line["message"])
}

func TestDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Writer: &buf})
	l.Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	l = New(Options{Writer: &buf, Debug: true})
	l.Debug().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}
