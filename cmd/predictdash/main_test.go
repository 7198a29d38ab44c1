package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/predictdash/internal/dashboard"
	"github.com/alanyoungcy/predictdash/internal/units"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("debug"))
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestRenderTable(t *testing.T) {
	out := renderTable(dashboard.TabView{Cards: []dashboard.CardView{
		{ID: 3, Loading: true},
		{
			ID: 4, Question: "Will it rain?", OptionA: "Yes", OptionB: "No", Phase: "resolved", Winner: "No",
			Badge:    &units.Badge{Label: "Ended", Date: "Jun 1, 2025"},
			Progress: &dashboard.Progress{PercentA: decimal.NewFromInt(25), PercentB: decimal.NewFromInt(75)},
		},
	}})
	require.Contains(t, out, "Will it rain?")
	require.Contains(t, out, "winner: No")
	require.Contains(t, out, "(failed to load)")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&buf)
	require.NoError(t, cmd.Execute())
	require.Contains(t, buf.String(), "predictdash dev")
}
