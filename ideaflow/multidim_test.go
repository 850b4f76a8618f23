package ideaflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAggregateWeightedMatchesFixedWeights(t *testing.T) {
	raw := map[string]interface{}{
		"feasibility": 8.0, "innovation": 6.0, "impact": 9.0,
		"cost_effectiveness": 7.0, "scalability": 5.0, "risk_assessment": 4.0, "timeline": 6.0,
	}
	score := aggregate(raw)

	expected := 8.0*0.20 + 6.0*0.15 + 9.0*0.20 + 7.0*0.15 + 5.0*0.10 + 4.0*0.10 + 6.0*0.10
	require.InDelta(t, expected, score.Weighted, 1e-9)
}

func TestAggregateOverallIsMean(t *testing.T) {
	raw := map[string]interface{}{
		"feasibility": 10.0, "innovation": 10.0, "impact": 10.0,
		"cost_effectiveness": 10.0, "scalability": 10.0, "risk_assessment": 10.0, "timeline": 10.0,
	}
	score := aggregate(raw)
	require.InDelta(t, 10.0, score.Overal, 1e-9)
	require.InDelta(t, 1.0, score.ConfidenceInterval, 1e-9) // zero variance -> confidence 1
}

func TestAggregateClampsOutOfRangeDimensions(t *testing.T) {
	raw := map[string]interface{}{
		"feasibility": 99.0, "innovation": -5.0, "impact": 5.0,
		"cost_effectiveness": 5.0, "scalability": 5.0, "risk_assessment": 5.0, "timeline": 5.0,
	}
	score := aggregate(raw)
	require.Equal(t, 10.0, score.Feasibility)
	require.Equal(t, 1.0, score.Innovation)
}

func TestAggregateMissingDimensionsDefaultToFloor(t *testing.T) {
	score := aggregate(map[string]interface{}{})
	require.Equal(t, 1.0, score.Feasibility)
	require.Equal(t, 1.0, score.Timeline)
}
