package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shinyyama/goods-backend/internal/clock"
	"github.com/shinyyama/goods-backend/internal/metrics"
	"github.com/shinyyama/goods-backend/internal/model"
	"github.com/shinyyama/goods-backend/internal/repository"
	"gorm.io/gorm"
)

const maxDescriptionLen = 255

// Ledger appends entries to the running-balance points log. Callers hold Lock(uid)
// around the whole transaction that calls Append.
type Ledger struct {
	repo    repository.PointLedgerRepository
	clock   clock.Clock
	metrics *metrics.Metrics
	locks   keyedMutex
}

func NewLedger(repo repository.PointLedgerRepository, clk clock.Clock, m *metrics.Metrics) *Ledger {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Ledger{repo: repo, clock: clk, metrics: m}
}

// Lock serializes balance mutation for uid within this process.
func (l *Ledger) Lock(uid string) func() {
	return l.locks.Lock(uid)
}

// Append locks the user's account row, derives the new running balance from the latest
// entry and inserts the entry. A negative result fails with ErrInsufficientPoints.
func (l *Ledger) Append(ctx context.Context, tx *gorm.DB, uid string, dir model.LedgerDirection, amount int64, description string, orderID *uint64) (*model.PointLedgerEntry, error) {
	if err := checkSign(dir, amount); err != nil {
		return nil, err
	}
	repo := l.repo.WithTx(tx)
	if _, err := repo.LockAccount(ctx, uid); err != nil {
		return nil, err
	}
	latest, err := repo.Latest(ctx, uid)
	if err != nil {
		return nil, err
	}

	var prev int64
	now := l.clock.Now()
	if latest != nil {
		prev = latest.Balance
		// keep (created_at, id) ordering monotonic when clocks disagree
		if latest.CreatedAt.After(now) {
			now = latest.CreatedAt
		}
	}
	balance := prev + amount
	if balance < 0 {
		return nil, fmt.Errorf("%w: balance %d, requested %d", ErrInsufficientPoints, prev, -amount)
	}

	description = truncateRunes(description, maxDescriptionLen)
	entry := &model.PointLedgerEntry{
		UserUID:     uid,
		Direction:   dir,
		Amount:      amount,
		Balance:     balance,
		Description: description,
		OrderID:     orderID,
		CreatedAt:   now,
	}
	if err := repo.Append(ctx, entry); err != nil {
		return nil, err
	}

	earned, used, expired := totalsDelta(dir, amount)
	if err := repo.AddTotals(ctx, uid, earned, used, expired); err != nil {
		return nil, err
	}
	l.metrics.LedgerEntry(string(dir), amount)
	return entry, nil
}

// truncateRunes cuts s to at most n characters without splitting a multi-byte rune.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func checkSign(dir model.LedgerDirection, amount int64) error {
	switch dir {
	case model.LedgerEarn:
		if amount <= 0 {
			return invalid("earn amount must be positive")
		}
	case model.LedgerSpend, model.LedgerExpire:
		if amount >= 0 {
			return invalid("%s amount must be negative", dir)
		}
	case model.LedgerAdjust:
		if amount == 0 {
			return invalid("adjust amount must be non-zero")
		}
	default:
		return invalid("unknown ledger direction %q", dir)
	}
	return nil
}

// totalsDelta maps an entry onto the account counters so that
// earned - used - expired always equals the running balance.
func totalsDelta(dir model.LedgerDirection, amount int64) (earned, used, expired int64) {
	switch dir {
	case model.LedgerEarn:
		return amount, 0, 0
	case model.LedgerSpend:
		return 0, -amount, 0
	case model.LedgerExpire:
		return 0, 0, -amount
	default:
		if amount > 0 {
			return amount, 0, 0
		}
		return 0, -amount, 0
	}
}

// expirable replays entries in order and returns what is left of EARN lots created at or
// before cutoff. Spends and negative adjustments consume lots first-in first-out; EXPIRE
// entries consume only EARN lots, oldest first. Positive adjustments form lots that never expire.
func expirable(entries []model.PointLedgerEntry, cutoff time.Time) int64 {
	type lot struct {
		amount    int64
		createdAt time.Time
		expires   bool
	}
	var lots []lot
	for _, e := range entries {
		if e.Amount > 0 {
			lots = append(lots, lot{amount: e.Amount, createdAt: e.CreatedAt, expires: e.Direction == model.LedgerEarn})
			continue
		}
		onlyExpiring := e.Direction == model.LedgerExpire
		need := -e.Amount
		for i := 0; i < len(lots) && need > 0; i++ {
			if onlyExpiring && !lots[i].expires {
				continue
			}
			take := min(lots[i].amount, need)
			lots[i].amount -= take
			need -= take
		}
	}

	var out int64
	for _, l := range lots {
		if l.expires && l.amount > 0 && !l.createdAt.After(cutoff) {
			out += l.amount
		}
	}
	if n := len(entries); n > 0 && out > entries[n-1].Balance {
		out = entries[n-1].Balance
	}
	if out < 0 {
		return 0
	}
	return out
}
