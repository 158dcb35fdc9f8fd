package harness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGolden_Scenarios(t *testing.T) {
	for _, file := range []string{
		"testdata/scenarios/multicast_fanout.yaml",
		"testdata/scenarios/behavior_replay.yaml",
		"testdata/scenarios/delay_error_bypass.yaml",
		"testdata/scenarios/delay_ordering.cue",
		"testdata/scenarios/unsubscribe_cancel.yaml",
	} {
		t.Run(file, func(t *testing.T) {
			s, err := LoadScenario(file)
			require.NoError(t, err)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			require.True(t, result.Pass, "assertion errors: %v", result.Errors)
		})
	}
}
