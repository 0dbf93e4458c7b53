package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeltaEmpty(t *testing.T) {
	tests := []struct {
		name  string
		delta Delta
		want  bool
	}{
		{"zero value", Delta{}, true},
		{"keypress only", Delta{Keypresses: 1}, false},
		{"distance only", Delta{MouseDistanceIn: 0.001}, false},
		{"scroll only", Delta{ScrollSteps: 2}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.delta.Empty())
		})
	}
}

func TestDeltaMiles(t *testing.T) {
	require.InDelta(t, 1.0, Delta{MouseDistanceIn: InchesPerMile}.Miles(), 1e-9)
	require.InDelta(t, 0.5, Delta{MouseDistanceIn: InchesPerMile / 2}.Miles(), 1e-9)
	require.Zero(t, Delta{}.Miles())
}

func TestSummaryRowTotals(t *testing.T) {
	sr := SummaryRow{
		TotalKeypresses:    10,
		TotalMouseClicks:   3,
		TotalScrollSteps:   7,
		TotalMouseTravelIn: 12.5,
	}
	d := sr.Totals()
	require.Equal(t, uint64(10), d.Keypresses)
	require.Equal(t, uint64(3), d.MouseClicks)
	require.Equal(t, uint64(7), d.ScrollSteps)
	require.InDelta(t, 12.5, d.MouseDistanceIn, 1e-9)
}
