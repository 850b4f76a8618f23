package ideaflow

// Phase names temperature is looked up by.
type Phase string

const (
	PhaseIdeaGeneration Phase = "idea_generation"
	PhaseEvaluation     Phase = "evaluation"
	PhaseAdvocacy       Phase = "advocacy"
	PhaseSkepticism     Phase = "skepticism"
	PhaseImprovement    Phase = "improvement"
	PhaseReEvaluation   Phase = "re_evaluation"
)

// presetTables are the fixed per-preset phase->temperature tables, grounded
// on original_source/mad_spark_multiagent/temperature_control.py.
var presetTables = map[TemperaturePreset]map[Phase]float64{
	PresetConservative: {
		PhaseIdeaGeneration: 0.3,
		PhaseEvaluation:     0.2,
		PhaseAdvocacy:       0.3,
		PhaseSkepticism:     0.3,
		PhaseImprovement:    0.3,
		PhaseReEvaluation:   0.2,
	},
	PresetBalanced: {
		PhaseIdeaGeneration: 0.7,
		PhaseEvaluation:     0.3,
		PhaseAdvocacy:       0.5,
		PhaseSkepticism:     0.5,
		PhaseImprovement:    0.5,
		PhaseReEvaluation:   0.3,
	},
	PresetCreative: {
		PhaseIdeaGeneration: 0.9,
		PhaseEvaluation:     0.4,
		PhaseAdvocacy:       0.7,
		PhaseSkepticism:     0.7,
		PhaseImprovement:    0.7,
		PhaseReEvaluation:   0.4,
	},
	PresetWild: {
		PhaseIdeaGeneration: 1.0,
		PhaseEvaluation:     0.5,
		PhaseAdvocacy:       0.9,
		PhaseSkepticism:     0.9,
		PhaseImprovement:    0.9,
		PhaseReEvaluation:   0.5,
	},
}

// TemperaturePolicy maps a pipeline phase to a sampling temperature. It is
// read-only after construction, so a single instance may be shared across
// concurrent Runs (spec §5 "shared TemperaturePolicy table").
type TemperaturePolicy struct {
	table map[Phase]float64
}

// NewTemperaturePolicyFromPreset builds a policy from one of the fixed
// tables.
func NewTemperaturePolicyFromPreset(preset TemperaturePreset) *TemperaturePolicy {
	table, ok := presetTables[preset]
	if !ok {
		table = presetTables[PresetBalanced]
	}
	return &TemperaturePolicy{table: table}
}

// NewTemperaturePolicyFromBase derives a policy from a single base value
// using the spec §4.4 scaling formulas.
func NewTemperaturePolicyFromBase(base float64) *TemperaturePolicy {
	base = clamp01(base)
	return &TemperaturePolicy{
		table: map[Phase]float64{
			PhaseIdeaGeneration: clamp01(min(1.0, base*1.3)),
			PhaseEvaluation:     clamp01(max(0.1, base*0.4)),
			PhaseAdvocacy:       clamp01(base),
			PhaseSkepticism:     clamp01(base),
			PhaseImprovement:    clamp01(base),
			PhaseReEvaluation:   clamp01(base),
		},
	}
}

// Temperature returns the configured temperature for phase, defaulting to
// 0.5 for any phase not present in the table.
func (p *TemperaturePolicy) Temperature(phase Phase) float64 {
	if v, ok := p.table[phase]; ok {
		return v
	}
	return 0.5
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
