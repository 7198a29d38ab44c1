package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/alanyoungcy/predictdash/internal/chain"
	"github.com/alanyoungcy/predictdash/internal/config"
	"github.com/alanyoungcy/predictdash/internal/dashboard"
	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/alanyoungcy/predictdash/internal/service"
	"github.com/alanyoungcy/predictdash/internal/units"
	"github.com/alanyoungcy/predictdash/internal/wallet"
)

func newMarketsCmd() *cobra.Command {
	var (
		tabName string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "markets",
		Short: "List the markets of one tab and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tab, err := domain.ParseTab(tabName)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			view, err := loadTab(ctx, cfg, tab, logger)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(view))
			return nil
		},
	}
	cmd.Flags().StringVarP(&tabName, "tab", "t", "active", "tab to list (active, pending, resolved)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tab as JSON")
	return cmd
}

func loadTab(ctx context.Context, cfg *config.Config, tab domain.Tab, logger *slog.Logger) (dashboard.TabView, error) {
	client, err := chain.Dial(ctx, cfg.Chain.ResolvedRPCURL(), chain.Config{
		ChainID:       cfg.Chain.ChainID,
		MarketAddress: common.HexToAddress(cfg.Chain.MarketAddress),
		TokenAddress:  common.HexToAddress(cfg.Chain.TokenAddress),
		CallTimeout:   cfg.Chain.CallTimeout.Duration,
	}, logger)
	if err != nil {
		return dashboard.TabView{}, err
	}
	defer client.Close()

	session := wallet.NewSession()
	markets := service.NewMarketService(client, nil, logger)
	board := dashboard.NewBoard(markets, wallet.NewAdapter(session, client, client, client.MarketAddress()), session, dashboard.Options{
		Concurrency: cfg.Dashboard.Concurrency,
		Logger:      logger,
	})
	if err := board.Refresh(ctx); err != nil {
		return dashboard.TabView{}, err
	}
	return board.View(tab, time.Now()), nil
}

func renderTable(v dashboard.TabView) string {
	header := lipgloss.NewStyle().Bold(true)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Question", "Ends", "A", "B", "Status").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return lipgloss.NewStyle()
		})
	for _, c := range v.Cards {
		if c.Loading {
			t.Row(fmt.Sprint(c.ID), "(failed to load)", "", "", "", "")
			continue
		}
		ends := c.Badge.Date
		if c.Badge.Remaining != "" {
			ends += " (" + c.Badge.Remaining + ")"
		}
		status := string(c.Phase)
		if c.Winner != "" {
			status = "winner: " + c.Winner
		}
		t.Row(
			fmt.Sprint(c.ID),
			c.Question,
			ends,
			c.OptionA+" "+units.FormatPercent(c.Progress.PercentA),
			c.OptionB+" "+units.FormatPercent(c.Progress.PercentB),
			status,
		)
	}
	return t.Render()
}
