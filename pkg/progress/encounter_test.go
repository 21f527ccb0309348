package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// fixedRandom returns the same value on every draw and counts draws.
type fixedRandom struct {
	value float64
	draws int
}

func (f *fixedRandom) Float64() float64 {
	f.draws++
	return f.value
}

// sequenceRandom replays values in order.
type sequenceRandom struct {
	values []float64
	next   int
}

func (s *sequenceRandom) Float64() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

func TestEncounterChance(t *testing.T) {
	tests := []struct {
		name      string
		tiles     int
		threshold int
		want      float64
	}{
		{"well before ramp", 0, 12, 0},
		{"one before ramp", 8, 12, 0},
		{"ramp opens", 9, 12, 0.2},
		{"at threshold", 12, 12, 0.5},
		{"reaches cap", 15, 12, 0.8},
		{"capped", 17, 12, 0.8},
		{"far past cap", 30, 12, 0.8},
		{"tiny threshold", 0, 2, 0.3},
		{"zero threshold", 0, 0, 0.5},
		{"negative threshold", 0, -10, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EncounterChance(tt.tiles, tt.threshold), 1e-9)
		})
	}
}

func TestEncounterChance_MonotonicAndBounded(t *testing.T) {
	for _, threshold := range []int{-5, 0, 1, 3, 4, 12, 40} {
		prev := 0.0
		for tiles := 0; tiles <= 80; tiles++ {
			c := EncounterChance(tiles, threshold)
			assert.GreaterOrEqual(t, c, 0.0)
			assert.LessOrEqual(t, c, maxEncounterChance)
			assert.GreaterOrEqual(t, c, prev, "threshold=%d tiles=%d", threshold, tiles)
			prev = c
		}
	}
}

func TestShouldTriggerEncounter_ClosedRampNeverDraws(t *testing.T) {
	rng := &fixedRandom{value: 0}
	for tiles := 0; tiles < 9; tiles++ {
		assert.False(t, ShouldTriggerEncounter(tiles, DefaultEncounterThreshold, rng))
	}
	assert.Zero(t, rng.draws)
}

func TestShouldTriggerEncounter_UsesInjectedSource(t *testing.T) {
	tests := []struct {
		name  string
		tiles int
		roll  float64
		want  bool
	}{
		{"roll under chance at ramp start", 9, 0.19, true},
		{"roll at chance does not trigger", 9, 0.2, false},
		{"capped chance triggers below cap", 30, 0.79, true},
		{"capped chance rejects at cap", 30, 0.8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldTriggerEncounter(tt.tiles, DefaultEncounterThreshold, RandomFunc(func() float64 { return tt.roll }))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMachine_ShouldTriggerEncounter(t *testing.T) {
	m := NewMachine()
	rng := &sequenceRandom{values: []float64{0.5, 0.5, 0.5, 0.1}}

	for {
		m.RecordTileStep()
		if m.ShouldTriggerEncounter(DefaultEncounterThreshold, rng) {
			break
		}
		if m.TilesWalked() > 100 {
			t.Fatal("encounter never triggered")
		}
	}
	// 0.5 fails at tiles 9, 10, 11 (chance 0.2, 0.3, 0.4) then 0.1 passes at 12.
	assert.Equal(t, 12, m.TilesWalked())
}
