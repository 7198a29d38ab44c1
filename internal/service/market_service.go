// Package service sits between the front ends and the adapters: cached
// contract reads, the purchase journal, and bus relays.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/predictdash/internal/domain"
)

// MarketService is a domain.MarketReader that serves getMarket through a
// short-lived cache. Counts and balances always go to the chain.
type MarketService struct {
	chain  domain.MarketReader
	cache  domain.MarketCache
	logger *slog.Logger
}

// NewMarketService wraps chain. cache may be nil, in which case every read
// goes to the chain.
func NewMarketService(chain domain.MarketReader, cache domain.MarketCache, logger *slog.Logger) *MarketService {
	return &MarketService{
		chain:  chain,
		cache:  cache,
		logger: logger.With(slog.String("component", "market_service")),
	}
}

// MarketCount reads the number of markets.
func (s *MarketService) MarketCount(ctx context.Context) (uint64, error) {
	return s.chain.MarketCount(ctx)
}

// GetMarket returns the cached market or reads and caches it.
func (s *MarketService) GetMarket(ctx context.Context, id uint64) (domain.Market, error) {
	if s.cache != nil {
		m, err := s.cache.Get(ctx, id)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "cache get failed",
				slog.Uint64("market_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	m, err := s.chain.GetMarket(ctx, id)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: get market %d: %w", id, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, m); err != nil {
			s.logger.WarnContext(ctx, "cache set failed",
				slog.Uint64("market_id", id),
				slog.String("error", err.Error()),
			)
		}
	}
	return m, nil
}

// GetSharesBalance reads a user's shares in market id.
func (s *MarketService) GetSharesBalance(ctx context.Context, id uint64, user common.Address) (domain.SharesBalance, error) {
	return s.chain.GetSharesBalance(ctx, id, user)
}

// Invalidate drops the cached market so the next read sees new totals.
func (s *MarketService) Invalidate(ctx context.Context, id uint64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "cache invalidate failed",
			slog.Uint64("market_id", id),
			slog.String("error", err.Error()),
		)
	}
}

var _ domain.MarketReader = (*MarketService)(nil)
