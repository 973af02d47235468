package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinyyama/goods-backend/internal/model"
)

func TestCreditDebitBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bal, err := f.points.CurrentBalance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal)

	require.NoError(t, f.points.Credit(ctx, "u1", 500, "welcome", nil))
	require.NoError(t, f.points.Debit(ctx, "u1", 120, "spend", nil))
	require.NoError(t, f.points.Adjust(ctx, "u1", 20, "support credit"))

	bal, err = f.points.CurrentBalance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(400), bal)

	entries, err := f.ledgerR.ListAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assertReplay(t, entries)
	assert.Equal(t, int64(-120), entries[1].Amount)
}

func TestDebitInsufficientLeavesLedgerUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.points.Credit(ctx, "u1", 100, "earn", nil))

	err := f.points.Debit(ctx, "u1", 101, "too much", nil)
	require.ErrorIs(t, err, ErrInsufficientPoints)

	entries, err := f.ledgerR.ListAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	acc, err := f.ledgerR.GetAccount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), acc.TotalUsed)

	err = f.points.Adjust(ctx, "u1", -200, "clawback")
	require.ErrorIs(t, err, ErrInsufficientPoints)
}

func TestPointsRejectsBadAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tests := []struct {
		name string
		call func() error
	}{
		{"zero credit", func() error { return f.points.Credit(ctx, "u1", 0, "", nil) }},
		{"negative debit", func() error { return f.points.Debit(ctx, "u1", -5, "", nil) }},
		{"zero adjust", func() error { return f.points.Adjust(ctx, "u1", 0, "x") }},
		{"adjust without reason", func() error { return f.points.Adjust(ctx, "u1", 5, " ") }},
		{"missing user", func() error { return f.points.Credit(ctx, "", 5, "", nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.call(), ErrInvalidInput)
		})
	}
}

func TestConcurrentCreditsSerialize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.points.Credit(ctx, "u1", 10, "parallel", nil)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	bal, err := f.points.CurrentBalance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(workers*10), bal)

	entries, err := f.ledgerR.ListAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, workers)
	assertReplay(t, entries)
}

func TestSummaryTotalsMatchBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.points.Credit(ctx, "u1", 1000, "earn", nil))
	require.NoError(t, f.points.Debit(ctx, "u1", 300, "spend", nil))
	require.NoError(t, f.points.Adjust(ctx, "u1", -50, "correction"))
	require.NoError(t, f.points.Adjust(ctx, "u1", 25, "goodwill"))

	sum, err := f.points.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(675), sum.AvailablePoints)
	assert.Equal(t, int64(1025), sum.TotalEarned)
	assert.Equal(t, int64(350), sum.TotalUsed)
	assert.Equal(t, sum.AvailablePoints, sum.TotalEarned-sum.TotalUsed-sum.TotalExpired)
	assert.Equal(t, int64(0), sum.ExpiringSoon)
}

func TestExpiryConsumesOldestLotsFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := testNow

	require.NoError(t, f.points.Credit(ctx, "u1", 100, "lot A", nil))
	f.clock.Advance(100 * 24 * time.Hour)
	require.NoError(t, f.points.Credit(ctx, "u1", 50, "lot B", nil))
	// spending 30 eats into lot A
	require.NoError(t, f.points.Debit(ctx, "u1", 30, "spend", nil))

	// lot A is 340 days old: inside the 30-day warning window, not yet expired
	f.clock.Set(start.Add(340 * 24 * time.Hour))
	sum, err := f.points.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(70), sum.ExpiringSoon)

	n, err := f.points.ExpireUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	f.clock.Set(start.Add(366 * 24 * time.Hour))
	users, total, err := f.points.ExpireAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, users)
	assert.Equal(t, int64(70), total)

	bal, err := f.points.CurrentBalance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), bal)

	// rerun is a no-op
	n, err = f.points.ExpireUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	entries, err := f.ledgerR.ListAll(ctx, "u1")
	require.NoError(t, err)
	assertReplay(t, entries)
	last := entries[len(entries)-1]
	assert.Equal(t, model.LedgerExpire, last.Direction)
	assert.Equal(t, int64(-70), last.Amount)

	sum, err = f.points.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(70), sum.TotalExpired)
	assert.Equal(t, sum.AvailablePoints, sum.TotalEarned-sum.TotalUsed-sum.TotalExpired)
}

func TestExpirableIgnoresAdjustLots(t *testing.T) {
	old := testNow.Add(-400 * 24 * time.Hour)
	entries := []model.PointLedgerEntry{
		{Direction: model.LedgerAdjust, Amount: 40, Balance: 40, CreatedAt: old},
		{Direction: model.LedgerEarn, Amount: 60, Balance: 100, CreatedAt: old},
		{Direction: model.LedgerSpend, Amount: -50, Balance: 50, CreatedAt: testNow},
	}
	// the spend drains the adjust lot (40) and 10 of the earn lot
	assert.Equal(t, int64(50), expirable(entries, testNow.Add(-365*24*time.Hour)))
	assert.Equal(t, int64(0), expirable(nil, testNow))
}

func TestExpiryRerunKeepsAdjustLots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.points.Adjust(ctx, "u1", 100, "order refund"))
	f.clock.Advance(time.Minute)
	require.NoError(t, f.points.Credit(ctx, "u1", 100, "earn", nil))

	f.clock.Advance(366 * 24 * time.Hour)
	first, err := f.points.ExpireUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), first)

	second, err := f.points.ExpireUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), second)

	bal, err := f.points.CurrentBalance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal)

	sum, err := f.points.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum.ExpiringSoon)
}

func TestExpirableExpireEntriesSkipAdjustLots(t *testing.T) {
	old := testNow.Add(-400 * 24 * time.Hour)
	entries := []model.PointLedgerEntry{
		{Direction: model.LedgerAdjust, Amount: 100, Balance: 100, CreatedAt: old},
		{Direction: model.LedgerEarn, Amount: 100, Balance: 200, CreatedAt: old.Add(time.Minute)},
		{Direction: model.LedgerEarn, Amount: 30, Balance: 230, CreatedAt: old.Add(time.Hour)},
		{Direction: model.LedgerExpire, Amount: -100, Balance: 130, CreatedAt: testNow},
	}
	assert.Equal(t, int64(30), expirable(entries, testNow.Add(-365*24*time.Hour)))
}

func TestAdjustTruncatesDescriptionOnRuneBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reason := "a" + strings.Repeat("ポ", 300)
	require.NoError(t, f.points.Adjust(ctx, "u1", 10, reason))

	entries, err := f.ledgerR.ListAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	got := entries[0].Description
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, maxDescriptionLen, utf8.RuneCountInString(got))
	assert.True(t, strings.HasPrefix(reason, got))
}

func TestPointsReadsReportUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.points.Credit(ctx, "u1", 10, "earn", nil))

	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = f.points.CurrentBalance(ctx, "u1")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = f.points.Summary(ctx, "u1")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = f.points.History(ctx, "u1", 10)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, _, err = f.points.ExpireAll(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHistoryNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.points.Credit(ctx, "u1", 10, "first", nil))
	f.clock.Advance(time.Minute)
	require.NoError(t, f.points.Credit(ctx, "u1", 20, "second", nil))

	hist, err := f.points.History(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "second", hist[0].Description)
}
