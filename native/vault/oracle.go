package vault

import (
	"fmt"
	"math/big"
	"sync"
	"time"
)

// DefaultStaleTimeout freezes valuation when the feed has not updated for
// three hours. The system halts rather than price against untrustworthy data.
const DefaultStaleTimeout = 3 * time.Hour

// RoundData is the raw reading reported by an upstream price feed. It is
// ephemeral and untrusted; the adapter validates it on every fetch.
type RoundData struct {
	RoundID         *big.Int
	Answer          *big.Int
	StartedAt       time.Time
	UpdatedAt       time.Time
	AnsweredInRound *big.Int
}

// PriceFeed is the external read-only price source consumed by the adapter.
type PriceFeed interface {
	LatestRoundData() (RoundData, error)
	Decimals() uint8
}

// FeedAdapter wraps a raw feed, enforcing staleness and sign checks and
// normalizing the feed's fixed-point scale to the engine's 18-decimal scale.
type FeedAdapter struct {
	feed       PriceFeed
	staleAfter time.Duration
	now        func() time.Time
}

// NewFeedAdapter wraps the feed with the given staleness window. A
// non-positive window falls back to DefaultStaleTimeout.
func NewFeedAdapter(feed PriceFeed, staleAfter time.Duration) *FeedAdapter {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleTimeout
	}
	return &FeedAdapter{feed: feed, staleAfter: staleAfter, now: time.Now}
}

// LatestPrice returns the 18-decimal USD price per asset unit along with the
// feed's update timestamp. Readings at or beyond the staleness window fail
// with ErrStalePrice; non-positive answers fail with ErrInvalidPrice.
func (a *FeedAdapter) LatestPrice() (*big.Int, time.Time, error) {
	if a == nil || a.feed == nil {
		return nil, time.Time{}, fmt.Errorf("vault oracle: feed not configured")
	}
	round, err := a.feed.LatestRoundData()
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("vault oracle: fetch round data: %w", err)
	}
	now := a.now()
	if round.UpdatedAt.IsZero() || now.Sub(round.UpdatedAt) >= a.staleAfter {
		return nil, time.Time{}, fmt.Errorf("%w: updated at %s", ErrStalePrice, round.UpdatedAt.UTC())
	}
	if round.Answer == nil || round.Answer.Sign() <= 0 {
		return nil, time.Time{}, ErrInvalidPrice
	}
	return normalizePrice(round.Answer, a.feed.Decimals()), round.UpdatedAt, nil
}

// normalizePrice rescales an answer with the given decimal count to the
// engine's 18-decimal fixed point.
func normalizePrice(answer *big.Int, decimals uint8) *big.Int {
	price := new(big.Int).Set(answer)
	switch {
	case decimals < 18:
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(18-decimals)), nil)
		price.Mul(price, scale)
	case decimals > 18:
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals-18)), nil)
		price.Quo(price, scale)
	}
	return price
}

// ManualFeed is an in-memory feed used for tests and manual overrides during
// incident response.
type ManualFeed struct {
	mu       sync.RWMutex
	decimals uint8
	round    RoundData
}

// NewManualFeed constructs an empty manual feed reporting the given decimal
// scale (8 matches the common USD feed convention).
func NewManualFeed(decimals uint8) *ManualFeed {
	return &ManualFeed{decimals: decimals}
}

// Set records the answer with the supplied observation timestamp, advancing
// the round identifier.
func (m *ManualFeed) Set(answer *big.Int, updatedAt time.Time) {
	if m == nil || answer == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	nextRound := big.NewInt(1)
	if m.round.RoundID != nil {
		nextRound = new(big.Int).Add(m.round.RoundID, big.NewInt(1))
	}
	m.round = RoundData{
		RoundID:         nextRound,
		Answer:          new(big.Int).Set(answer),
		StartedAt:       updatedAt,
		UpdatedAt:       updatedAt,
		AnsweredInRound: nextRound,
	}
}

// LatestRoundData returns a copy of the stored round.
func (m *ManualFeed) LatestRoundData() (RoundData, error) {
	if m == nil {
		return RoundData{}, fmt.Errorf("vault oracle: manual feed not configured")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.round.Answer == nil {
		return RoundData{}, fmt.Errorf("vault oracle: manual feed has no observation")
	}
	round := RoundData{
		StartedAt: m.round.StartedAt,
		UpdatedAt: m.round.UpdatedAt,
		Answer:    new(big.Int).Set(m.round.Answer),
	}
	if m.round.RoundID != nil {
		round.RoundID = new(big.Int).Set(m.round.RoundID)
	}
	if m.round.AnsweredInRound != nil {
		round.AnsweredInRound = new(big.Int).Set(m.round.AnsweredInRound)
	}
	return round, nil
}

// Decimals reports the feed's fixed-point scale.
func (m *ManualFeed) Decimals() uint8 {
	if m == nil {
		return 0
	}
	return m.decimals
}
