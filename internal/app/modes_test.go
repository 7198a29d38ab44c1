package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/predictdash/internal/config"
)

func TestTUIOptionsFollowConfig(t *testing.T) {
	require := require.New(t)

	cfg := config.Defaults()
	opts := tuiOptions(&cfg)
	require.Equal(time.Second, opts.Redraw)
	require.Equal(cfg.Chain.CallTimeout.Duration, opts.CallTimeout)
	require.Equal(cfg.Chain.TxTimeout.Duration, opts.TxTimeout)

	cfg.Dashboard.CountdownInterval.Duration = time.Minute
	require.Equal(time.Minute, tuiOptions(&cfg).Redraw)
}
