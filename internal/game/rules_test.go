package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alvesvaren/bombfest/internal/protocol"
)

func TestDefaultRulesValid(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultRules().Validate())
}

func TestRulesValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(r *Rules)
		valid  bool
	}{
		{"zero starting lives", func(r *Rules) { r.StartingLives = 0 }, false},
		{"negative round timer", func(r *Rules) { r.MinRoundTimer = -1 }, false},
		{"bomb interval inverted", func(r *Rules) { r.MinNewBombTimer = 30; r.MaxNewBombTimer = 10 }, false},
		{"lives over cap", func(r *Rules) { r.StartingLives = 5; r.MaxLives = 4 }, false},
		{"lives at cap", func(r *Rules) { r.StartingLives = 4; r.MaxLives = 4 }, true},
		{"word bounds inverted", func(r *Rules) {
			minW, maxW := 1000, 500
			r.MinWordsPerPrompt = &minW
			r.MaxWordsPerPrompt = &maxW
		}, false},
		{"no word bounds", func(r *Rules) { r.MinWordsPerPrompt = nil; r.MaxWordsPerPrompt = nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rules := DefaultRules()
			tt.mutate(&rules)
			err := rules.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRulesFromInfo(t *testing.T) {
	t.Parallel()

	// nil falls back to defaults
	assert.Equal(t, DefaultRules(), RulesFromInfo(nil))

	// partial override keeps remaining defaults
	rules := RulesFromInfo(&protocol.RulesInfo{StartingLives: 2, MinRoundTimer: 7})
	assert.Equal(t, 2, rules.StartingLives)
	assert.Equal(t, 7.0, rules.MinRoundTimer)
	assert.Equal(t, DefaultRules().MaxNewBombTimer, rules.MaxNewBombTimer)
}

func TestMinRoundTimerDuration(t *testing.T) {
	t.Parallel()

	rules := DefaultRules()
	rules.MinRoundTimer = 2.5
	assert.Equal(t, 2500*time.Millisecond, rules.MinRoundTimerDuration())
}
