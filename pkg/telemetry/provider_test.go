package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vorgateway/gateway/pkg/telemetry"
)

func TestNew_EnabledBuildsUsableTracerAndMeter(t *testing.T) {
	cfg := telemetry.DefaultConfig("vor")
	p, err := telemetry.New(context.Background(), cfg)
	require.NoError(t, err)
	defer p.Shutdown(context.Background())

	assert.NotNil(t, p.Tracer())
	assert.NotNil(t, p.Meter())

	_, span := p.Tracer().Start(context.Background(), "test-span")
	span.End()
}

func TestNew_DisabledStillReturnsUsableNoopProvider(t *testing.T) {
	cfg := telemetry.DefaultConfig("vor")
	cfg.Enabled = false
	p, err := telemetry.New(context.Background(), cfg)
	require.NoError(t, err)

	assert.NotNil(t, p.Tracer())
	assert.NotNil(t, p.Meter())
	assert.NoError(t, p.Shutdown(context.Background()))
}
