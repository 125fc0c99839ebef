package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	ctx := context.Background()

	t.Run("unsupported exporter is rejected", func(t *testing.T) {
		_, err := Init(ctx, Config{ServiceName: "laurel-test", Exporter: "carrier-pigeon"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "carrier-pigeon")
	})

	t.Run("console exporter records real spans", func(t *testing.T) {
		shutdown, err := Init(ctx, Config{ServiceName: "laurel-test", Exporter: "console"})
		require.NoError(t, err)
		defer func() { require.NoError(t, shutdown(ctx)) }()

		_, span := StartSpan(ctx, "tracing_test.console")
		defer span.End()

		// A real SDK provider issues valid trace/span IDs; the no-op
		// provider does not.
		assert.True(t, span.SpanContext().IsValid())
		assert.True(t, span.IsRecording())
	})

	t.Run("disabled exporter still installs a provider", func(t *testing.T) {
		shutdown, err := Init(ctx, Config{ServiceName: "laurel-test", Exporter: "none"})
		require.NoError(t, err)
		defer func() { require.NoError(t, shutdown(ctx)) }()

		_, span := StartSpan(ctx, "tracing_test.none")
		defer span.End()
		assert.True(t, span.SpanContext().IsValid())
	})
}
