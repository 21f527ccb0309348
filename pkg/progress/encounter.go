package progress

// Encounter ramp parameters. The ramp opens rampLead steps before the threshold
// and never exceeds maxEncounterChance per step.
const (
	rampLead           = 3
	rampOffset         = 5
	rampDivisor        = 10.0
	maxEncounterChance = 0.8
)

// RandomSource yields uniformly distributed values in [0, 1).
// *math/rand/v2.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// RandomFunc adapts a function such as rand.Float64 to RandomSource.
type RandomFunc func() float64

func (f RandomFunc) Float64() float64 { return f() }

// EncounterChance is the probability that the current step triggers an
// encounter. It is zero before the ramp opens, then grows by 0.1 per step
// and is clamped to [0, 0.8].
func EncounterChance(tilesWalked, threshold int) float64 {
	if tilesWalked < threshold-rampLead {
		return 0
	}
	chance := float64(tilesWalked-threshold+rampOffset) / rampDivisor
	if chance < 0 {
		return 0
	}
	if chance > maxEncounterChance {
		return maxEncounterChance
	}
	return chance
}

// ShouldTriggerEncounter draws once from rng and reports whether an encounter
// starts on this step. No draw is made while the ramp is closed.
func ShouldTriggerEncounter(tilesWalked, threshold int, rng RandomSource) bool {
	chance := EncounterChance(tilesWalked, threshold)
	if chance <= 0 {
		return false
	}
	return rng.Float64() < chance
}

// ShouldTriggerEncounter evaluates the encounter policy against the machine's
// own step counter.
func (m *Machine) ShouldTriggerEncounter(threshold int, rng RandomSource) bool {
	return ShouldTriggerEncounter(m.state.TilesWalked, threshold, rng)
}
