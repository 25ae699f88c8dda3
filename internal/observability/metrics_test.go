package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_DisabledPipelineIsUsableWithoutANetworkCall(t *testing.T) {
	m, err := New(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, m)

	m.Claimed(context.Background())
	m.Completed(context.Background(), time.Second)
	m.Failed(context.Background(), time.Second)
	m.Dead(context.Background(), time.Second)

	require.NoError(t, m.Shutdown(context.Background()))
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics

	require.NotPanics(t, func() {
		m.Claimed(context.Background())
		m.Completed(context.Background(), time.Second)
		m.Failed(context.Background(), time.Second)
		m.Dead(context.Background(), time.Second)
		require.NoError(t, m.Shutdown(context.Background()))
	})
}
