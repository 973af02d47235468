package service

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinyyama/goods-backend/internal/model"
)

func TestRecordClickDedupWindow(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "sticker", model.SellerClassCreator)
	ctx := context.Background()
	in := ClickInput{ProductID: p.ID, IP: "203.0.113.7", UserAgent: "test"}

	tests := []struct {
		name    string
		advance time.Duration
		ip      string
		want    bool
	}{
		{"first click", 0, "203.0.113.7", true},
		{"same ip a minute later", time.Minute, "203.0.113.7", false},
		{"other ip", 0, "198.51.100.1", true},
		{"59 minutes after first", 58 * time.Minute, "203.0.113.7", false},
		{"61 minutes after first", 2 * time.Minute, "203.0.113.7", true},
	}
	for _, tt := range tests {
		f.clock.Advance(tt.advance)
		in.IP = tt.ip
		got, err := f.clicks.RecordClick(ctx, in)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	var n int64
	require.NoError(t, f.db.Model(&model.ClickEvent{}).Count(&n).Error)
	assert.Equal(t, int64(3), n)
}

func TestRecordClickStoresOptionalUser(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "sticker", model.SellerClassCreator)
	ctx := context.Background()

	ok, err := f.clicks.RecordClick(ctx, ClickInput{
		ProductID: p.ID,
		UserUID:   ptr("u1"),
		IP:        "203.0.113.7",
		UserAgent: strings.Repeat("a", 600),
	})
	require.NoError(t, err)
	require.True(t, ok)

	var ev model.ClickEvent
	require.NoError(t, f.db.First(&ev).Error)
	require.NotNil(t, ev.UserUID)
	assert.Equal(t, "u1", *ev.UserUID)
	assert.Len(t, ev.UserAgent, maxUserAgentLen)
}

func TestRecordClickTruncatesUserAgentOnRuneBoundary(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "sticker", model.SellerClassCreator)

	ok, err := f.clicks.RecordClick(context.Background(), ClickInput{
		ProductID: p.ID,
		IP:        "203.0.113.8",
		UserAgent: "b" + strings.Repeat("ブ", 600),
	})
	require.NoError(t, err)
	require.True(t, ok)

	var ev model.ClickEvent
	require.NoError(t, f.db.First(&ev).Error)
	assert.True(t, utf8.ValidString(ev.UserAgent))
	assert.Equal(t, maxUserAgentLen, utf8.RuneCountInString(ev.UserAgent))
}

func TestRecordClickUnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, err := f.clicks.RecordClick(context.Background(), ClickInput{ProductID: 42, IP: "203.0.113.7"})
	require.ErrorIs(t, err, ErrNotFound)

	p := f.product(t, "sticker", model.SellerClassCreator)
	_, err = f.clicks.RecordClick(context.Background(), ClickInput{ProductID: p.ID})
	require.ErrorIs(t, err, ErrInvalidInput)
}
