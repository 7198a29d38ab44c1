package units

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatTimeRemaining(t *testing.T) {
	require := require.New(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		left time.Duration
		want string
	}{
		{left: -time.Minute, want: "Ended"},
		{left: 0, want: "Ended"},
		{left: 30 * time.Second, want: "0m"},
		{left: 45 * time.Minute, want: "45m"},
		{left: 3*time.Hour + 12*time.Minute, want: "3h 12m"},
		{left: 2*24*time.Hour + 5*time.Hour + 59*time.Minute, want: "2d 5h"},
	}
	for _, tt := range tests {
		require.Equal(tt.want, FormatTimeRemaining(now.Add(tt.left), now), tt.left.String())
	}
}

func TestNewBadge(t *testing.T) {
	require := require.New(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	b := NewBadge(now.Add(72*time.Hour), now, nil)
	require.Equal("Ends", b.Label)
	require.False(b.Urgent)
	require.Equal("Ends: Mar 4, 2025 (3d 0h)", b.String())

	b = NewBadge(now.Add(2*time.Hour), now, nil)
	require.Equal("Ends Soon", b.Label)
	require.True(b.Urgent)
	require.Equal("2h 0m", b.Remaining)

	b = NewBadge(now, now, nil)
	require.True(b.Ended)
	require.False(b.Urgent)
	require.Empty(b.Remaining)
	require.Equal("Ended: Mar 1, 2025", b.String())
}
