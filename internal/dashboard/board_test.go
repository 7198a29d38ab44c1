package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/alanyoungcy/predictdash/internal/wallet"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeReader struct {
	mu       sync.Mutex
	count    uint64
	countErr error
	markets  map[uint64]domain.Market
	failing  map[uint64]bool
	balances map[common.Address]domain.SharesBalance
	users    []common.Address
}

func newFakeReader(markets ...domain.Market) *fakeReader {
	r := &fakeReader{
		markets:  map[uint64]domain.Market{},
		failing:  map[uint64]bool{},
		balances: map[common.Address]domain.SharesBalance{},
	}
	for _, m := range markets {
		r.markets[m.ID] = m
	}
	r.count = uint64(len(markets))
	return r
}

func (r *fakeReader) MarketCount(context.Context) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count, r.countErr
}

func (r *fakeReader) GetMarket(_ context.Context, id uint64) (domain.Market, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing[id] {
		return domain.Market{}, errors.New("rpc error")
	}
	return r.markets[id], nil
}

func (r *fakeReader) GetSharesBalance(_ context.Context, _ uint64, user common.Address) (domain.SharesBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, user)
	if b, ok := r.balances[user]; ok {
		return b, nil
	}
	return domain.ZeroBalance(), nil
}

type staticAccount common.Address

func (a staticAccount) Address() common.Address { return common.Address(a) }

type noGateway struct{}

func (noGateway) Account() (common.Address, bool) { return common.Address{}, false }
func (noGateway) Allowance(context.Context, common.Address) (*big.Int, error) {
	return new(big.Int), nil
}
func (noGateway) Approve(context.Context, *big.Int) (domain.Receipt, error) {
	return domain.Receipt{}, domain.ErrNoWallet
}
func (noGateway) BuyShares(context.Context, uint64, bool, *big.Int) (domain.Receipt, error) {
	return domain.Receipt{}, domain.ErrNoWallet
}

func shares(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(s)
	}
	return v
}

func market(id uint64, end time.Time, resolved bool, outcome domain.Outcome) domain.Market {
	return domain.Market{
		ID:                 id,
		Question:           "Question?",
		OptionA:            "Yes",
		OptionB:            "No",
		EndTime:            end.Unix(),
		Outcome:            outcome,
		TotalOptionAShares: shares("3000000000000000000"),
		TotalOptionBShares: shares("1000000000000000000"),
		Resolved:           resolved,
	}
}

func newBoard(r domain.MarketReader, acct AccountSource) *Board {
	return NewBoard(r, noGateway{}, acct, Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func ids(v TabView) []uint64 {
	out := []uint64{}
	for _, c := range v.Cards {
		out = append(out, c.ID)
	}
	return out
}

func TestLoadingShowsSkeletons(t *testing.T) {
	require := require.New(t)

	r := newFakeReader()
	r.countErr = errors.New("rpc down")
	b := newBoard(r, staticAccount{})

	require.Error(b.Refresh(context.Background()))
	v := b.View(domain.PhaseActive, now)
	require.True(v.Loading)
	require.Equal(SkeletonCount, v.Skeletons)
	require.Empty(v.Cards)
	_, loaded := b.Count()
	require.False(loaded)
}

func TestEveryMarketInExactlyOneTab(t *testing.T) {
	require := require.New(t)

	r := newFakeReader(
		market(0, now.Add(time.Hour), false, 0),
		market(1, now.Add(-time.Hour), false, 0),
		market(2, now.Add(-time.Hour), true, domain.OutcomeOptionB),
		market(3, now, false, 0),
		// Resolved before its end time is still active.
		market(4, now.Add(time.Hour), true, domain.OutcomeOptionA),
	)
	b := newBoard(r, staticAccount{})
	require.NoError(b.Refresh(context.Background()))

	seen := map[uint64]domain.Tab{}
	for _, tab := range domain.Tabs {
		for _, id := range ids(b.View(tab, now)) {
			_, dup := seen[id]
			require.False(dup, "market %d in two tabs", id)
			seen[id] = tab
		}
	}
	require.Equal(map[uint64]domain.Tab{
		0: domain.PhaseActive,
		1: domain.PhasePending,
		2: domain.PhaseResolved,
		3: domain.PhasePending,
		4: domain.PhaseActive,
	}, seen)

	require.Equal(map[domain.Tab]int{
		domain.PhaseActive:   2,
		domain.PhasePending:  2,
		domain.PhaseResolved: 1,
	}, b.Counts(now))
}

func TestCardLeavesActiveTabAtEndTime(t *testing.T) {
	require := require.New(t)

	end := now.Add(90 * time.Second)
	b := newBoard(newFakeReader(market(0, end, false, 0)), staticAccount{})
	require.NoError(b.Refresh(context.Background()))

	require.Equal([]uint64{0}, ids(b.View(domain.PhaseActive, end.Add(-time.Second))))
	require.Empty(ids(b.View(domain.PhasePending, end.Add(-time.Second))))

	require.Empty(ids(b.View(domain.PhaseActive, end)))
	require.Equal([]uint64{0}, ids(b.View(domain.PhasePending, end)))
}

func TestPendingCardShowsNoOutcome(t *testing.T) {
	require := require.New(t)

	// Outcome is set on-chain but must be ignored while unresolved.
	b := newBoard(newFakeReader(market(0, now.Add(-time.Minute), false, domain.OutcomeOptionA)), staticAccount{})
	require.NoError(b.Refresh(context.Background()))

	require.Empty(ids(b.View(domain.PhaseActive, now)))
	require.Empty(ids(b.View(domain.PhaseResolved, now)))
	v := b.View(domain.PhasePending, now)
	require.Len(v.Cards, 1)
	require.Equal(BodyPending, v.Cards[0].Body)
	require.Empty(v.Cards[0].Winner)
	require.Nil(v.Cards[0].Wizard)
}

func TestResolvedCardNamesWinner(t *testing.T) {
	require := require.New(t)

	b := newBoard(newFakeReader(
		market(0, now.Add(-time.Hour), true, domain.OutcomeOptionA),
		market(1, now.Add(-time.Hour), true, domain.OutcomeOptionB),
		market(2, now.Add(-time.Hour), true, domain.OutcomeUnresolved),
	), staticAccount{})
	require.NoError(b.Refresh(context.Background()))

	v := b.View(domain.PhaseResolved, now)
	require.Len(v.Cards, 3)
	require.Equal(BodyResolved, v.Cards[0].Body)
	require.Equal("Yes", v.Cards[0].Winner)
	require.NotEqual("No", v.Cards[0].Winner)
	require.Equal("No", v.Cards[1].Winner)
	require.Empty(v.Cards[2].Winner)
}

func TestActiveCardCarriesWizardAndProgress(t *testing.T) {
	require := require.New(t)

	b := newBoard(newFakeReader(market(0, now.Add(2*time.Hour), false, 0)), staticAccount{})
	require.NoError(b.Refresh(context.Background()))

	c := b.View(domain.PhaseActive, now).Cards[0]
	require.Equal(BodyWizard, c.Body)
	require.NotNil(c.Wizard)
	require.Equal("idle", string(c.Wizard.Step))
	require.Equal("Ends Soon", c.Badge.Label)
	require.Equal("2h 0m", c.Badge.Remaining)
	require.Equal("75", c.Progress.PercentA.String())
	require.Equal("25", c.Progress.PercentB.String())
	require.Equal("3", c.Progress.SharesA)
}

func TestFooterFloorsBalances(t *testing.T) {
	require := require.New(t)

	user := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	r := newFakeReader(market(0, now.Add(time.Hour), false, 0))
	r.balances[user] = domain.SharesBalance{
		OptionAShares: shares("3999900000000000000"),
		OptionBShares: shares("999999999999999999"),
	}
	b := newBoard(r, staticAccount(user))
	require.NoError(b.Refresh(context.Background()))

	s := b.View(domain.PhaseActive, now).Cards[0].Shares
	require.NotNil(s)
	a, bb := s.Lines()
	require.Equal("Your Yes: 3", a)
	require.Equal("Your No: 0", bb)
}

func TestDisconnectedReadsNullAddress(t *testing.T) {
	require := require.New(t)

	r := newFakeReader(market(0, now.Add(time.Hour), false, 0))
	session := wallet.NewSession()
	b := newBoard(r, session)
	require.NoError(b.Refresh(context.Background()))

	require.Equal([]common.Address{domain.NullAddress}, r.users)
	require.NotNil(b.View(domain.PhaseActive, now).Cards[0].Shares)
}

func TestFailedCardReadStaysLoading(t *testing.T) {
	require := require.New(t)

	r := newFakeReader(market(0, now.Add(time.Hour), false, 0), market(1, now.Add(time.Hour), false, 0))
	r.failing[1] = true
	b := newBoard(r, staticAccount{})
	require.NoError(b.Refresh(context.Background()))

	v := b.View(domain.PhaseActive, now)
	require.Len(v.Cards, 2)
	require.False(v.Cards[0].Loading)
	require.True(v.Cards[1].Loading)
	require.Empty(v.Cards[1].Question)

	_, err := b.Wizard(1)
	require.ErrorIs(err, domain.ErrNotFound)
	_, err = b.Wizard(7)
	require.ErrorIs(err, domain.ErrNotFound)
}

func TestActiveWizard(t *testing.T) {
	require := require.New(t)

	b := newBoard(newFakeReader(
		market(0, now.Add(time.Hour), false, 0),
		market(1, now.Add(-time.Hour), false, 0),
	), staticAccount{})
	require.NoError(b.Refresh(context.Background()))

	w, err := b.ActiveWizard(0, now)
	require.NoError(err)
	require.NotNil(w)

	_, err = b.ActiveWizard(1, now)
	require.ErrorIs(err, domain.ErrMarketClosed)

	// The wizard survives a refresh.
	require.NoError(b.RefreshCard(context.Background(), 0))
	w2, err := b.Wizard(0)
	require.NoError(err)
	require.Same(w, w2)
}

func TestCountGrowsOnRefresh(t *testing.T) {
	require := require.New(t)

	r := newFakeReader(market(0, now.Add(time.Hour), false, 0))
	b := newBoard(r, staticAccount{})
	require.NoError(b.Refresh(context.Background()))

	r.mu.Lock()
	r.markets[1] = market(1, now.Add(time.Hour), false, 0)
	r.count = 2
	r.mu.Unlock()
	require.NoError(b.Refresh(context.Background()))

	n, ok := b.Count()
	require.True(ok)
	require.Equal(uint64(2), n)
	require.Equal([]uint64{0, 1}, ids(b.View(domain.PhaseActive, now)))
}

func TestLabels(t *testing.T) {
	require := require.New(t)

	require.Equal("Vote Yes", VoteLabel("Yes"))
	require.Equal("1 Yes = 1 PREDICT", RateHint("Yes"))
}
