package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
)

var _ ports.Metrics = (*Collector)(nil)

func TestCollector(t *testing.T) {
	c := NewCollector()
	registry := prometheus.NewPedanticRegistry()
	require.NoError(t, registry.Register(c))

	c.EventCreated()
	c.EventStatusChanged(domain.StatusApproved)
	c.VoteCast(domain.CastCreated)
	c.VoteCast(domain.CastCreated)
	c.VoteCast(domain.CastChanged)
	c.TallyDrift(3)
	c.TallyDrift(0)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.eventsCreated))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.votesCast.WithLabelValues("created")))
	assert.Equal(t, float64(3), testutil.ToFloat64(c.tallyDriftCorrected))

	expected := `
# HELP predixarena_votes_cast_total The number of accepted ballots, by result (created, changed, unchanged).
# TYPE predixarena_votes_cast_total counter
predixarena_votes_cast_total{result="changed"} 1
predixarena_votes_cast_total{result="created"} 2
`
	err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "predixarena_votes_cast_total")
	require.NoError(t, err)
}
