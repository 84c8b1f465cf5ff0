package otel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/learnhub/learnhub/internal/platform/otel"
)

func TestSetup_NoopWhenDisabled(t *testing.T) {
	shutdown, err := otel.Setup(context.Background(), otel.Options{
		ServiceName: "learnhub-test",
		Endpoint:    "http://localhost:4318",
	})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := otel.Setup(context.Background(), otel.Options{
		ServiceName: "learnhub-test",
		Enabled:     true,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, shutdown(ctx), "noop shutdown ignores cancelled context")
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so no actual export happens.
	shutdown, err := otel.Setup(context.Background(), otel.Options{
		ServiceName:    "learnhub-test",
		ServiceVersion: "test",
		Enabled:        true,
		Endpoint:       "http://192.0.2.1:4318",
	})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
