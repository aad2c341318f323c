package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	require.NotPanics(t, func() {
		NopCounter().Inc()
		NopCounter().Add(3)
		g := NopGauge()
		g.Set(1)
		g.Inc()
		g.Dec()
		NopTimer().ObserveDuration()
	})
}
