package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(ConflictTotal.WithLabelValues(EntityPromptOption))
	ConflictTotal.WithLabelValues(EntityPromptOption).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ConflictTotal.WithLabelValues(EntityPromptOption)))

	PetCacheReady.Set(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(PetCacheReady))
}
