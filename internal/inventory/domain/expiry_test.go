package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysToExpiry(t *testing.T) {
	today := time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		expiry time.Time
		want   int
	}{
		{"same day earlier hour", time.Date(2024, 5, 10, 3, 0, 0, 0, time.UTC), 0},
		{"same day later hour", time.Date(2024, 5, 10, 23, 0, 0, 0, time.UTC), 0},
		{"tomorrow", time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC), 1},
		{"next week", time.Date(2024, 5, 17, 8, 0, 0, 0, time.UTC), 7},
		{"yesterday", time.Date(2024, 5, 9, 23, 59, 0, 0, time.UTC), -1},
		{"thirty days out", time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC), 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysToExpiry(today, tt.expiry))
		})
	}
}

func TestExpiryClassification(t *testing.T) {
	tests := []struct {
		days         int
		expired      bool
		nearExpiry   bool
		discount     int
	}{
		{-5, true, false, 50},
		{0, true, false, 50},
		{1, false, true, 40},
		{2, false, true, 30},
		{3, false, true, 20},
		{4, false, true, 15},
		{5, false, true, 12},
		{6, false, true, 10},
		{7, false, true, 8},
		{8, false, false, 0},
		{90, false, false, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expired, IsExpired(tt.days), "IsExpired(%d)", tt.days)
		assert.Equal(t, tt.nearExpiry, IsNearExpiry(tt.days), "IsNearExpiry(%d)", tt.days)
		assert.Equal(t, tt.discount, NearExpiryDiscount(tt.days), "NearExpiryDiscount(%d)", tt.days)
	}
}

func TestExpiryBoundaries(t *testing.T) {
	today := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	// Expiring today: expired, full markdown, not near-expiry
	days := DaysToExpiry(today, today)
	assert.Equal(t, 0, days)
	assert.True(t, IsExpired(days))
	assert.False(t, IsNearExpiry(days))
	assert.Equal(t, 50, NearExpiryDiscount(days))

	// Exactly at the threshold: near-expiry with the smallest markdown
	days = DaysToExpiry(today, today.AddDate(0, 0, 7))
	assert.Equal(t, 7, days)
	assert.True(t, IsNearExpiry(days))
	assert.Equal(t, 8, NearExpiryDiscount(days))

	// One past the threshold: no markdown
	days = DaysToExpiry(today, today.AddDate(0, 0, 8))
	assert.False(t, IsNearExpiry(days))
	assert.Equal(t, 0, NearExpiryDiscount(days))
}
