package ideaflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTemperaturePolicyPresets(t *testing.T) {
	p := NewTemperaturePolicyFromPreset(PresetWild)
	require.Equal(t, 1.0, p.Temperature(PhaseIdeaGeneration))
	require.Equal(t, 0.5, p.Temperature(PhaseEvaluation))
}

func TestTemperaturePolicyUnknownPresetFallsBackToBalanced(t *testing.T) {
	p := NewTemperaturePolicyFromPreset(TemperaturePreset("nonsense"))
	require.Equal(t, presetTables[PresetBalanced][PhaseIdeaGeneration], p.Temperature(PhaseIdeaGeneration))
}

func TestTemperaturePolicyBaseScaling(t *testing.T) {
	p := NewTemperaturePolicyFromBase(0.5)
	require.InDelta(t, 0.65, p.Temperature(PhaseIdeaGeneration), 1e-9)
	require.InDelta(t, 0.2, p.Temperature(PhaseEvaluation), 1e-9)
	require.InDelta(t, 0.5, p.Temperature(PhaseAdvocacy), 1e-9)
	require.InDelta(t, 0.5, p.Temperature(PhaseSkepticism), 1e-9)
}

func TestTemperaturePolicyBaseScalingClampsIdeaGeneration(t *testing.T) {
	p := NewTemperaturePolicyFromBase(0.95)
	require.Equal(t, 1.0, p.Temperature(PhaseIdeaGeneration))
}

func TestTemperaturePolicyBaseScalingFloorsEvaluation(t *testing.T) {
	p := NewTemperaturePolicyFromBase(0.05)
	require.InDelta(t, 0.1, p.Temperature(PhaseEvaluation), 1e-9)
}
