package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expectedError error
	}{
		{name: "valid id", input: "order-123"},
		{name: "uuid id", input: "550e8400-e29b-41d4-a716-446655440000"},
		{name: "empty id", input: "", expectedError: ErrBlankID},
		{name: "whitespace id", input: "   ", expectedError: ErrBlankID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewID(tt.input)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.True(t, id.IsZero())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.input, id.String())
			}
		})
	}
}

func TestGenerateUUID(t *testing.T) {
	first := GenerateUUID()
	second := GenerateUUID()

	assert.False(t, first.IsZero())
	assert.NotEqual(t, first, second)
}

func TestNewMoney(t *testing.T) {
	tests := []struct {
		name          string
		amount        int64
		currency      string
		expectedError error
		expected      Money
	}{
		{name: "valid amount", amount: 5000, currency: "USD", expected: Money{Amount: 5000, Currency: "USD"}},
		{name: "zero amount", amount: 0, currency: "EUR", expected: Money{Amount: 0, Currency: "EUR"}},
		{name: "lowercase currency normalized", amount: 100, currency: "usd", expected: Money{Amount: 100, Currency: "USD"}},
		{name: "padded currency normalized", amount: 100, currency: " mxn ", expected: Money{Amount: 100, Currency: "MXN"}},
		{name: "negative amount", amount: -1, currency: "USD", expectedError: ErrNegativeAmount},
		{name: "short currency", amount: 100, currency: "US", expectedError: ErrInvalidCurrency},
		{name: "empty currency", amount: 100, currency: "", expectedError: ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			money, err := NewMoney(tt.amount, tt.currency)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, money)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	usd50, err := NewMoney(5000, "USD")
	require.NoError(t, err)
	usd20, err := NewMoney(2000, "USD")
	require.NoError(t, err)
	eur10, err := NewMoney(1000, "EUR")
	require.NoError(t, err)

	t.Run("add same currency", func(t *testing.T) {
		sum, err := usd50.Add(usd20)
		assert.NoError(t, err)
		assert.Equal(t, int64(7000), sum.Amount)
	})

	t.Run("subtract same currency", func(t *testing.T) {
		diff, err := usd50.Subtract(usd20)
		assert.NoError(t, err)
		assert.Equal(t, int64(3000), diff.Amount)
	})

	t.Run("add currency mismatch", func(t *testing.T) {
		_, err := usd50.Add(eur10)
		assert.ErrorIs(t, err, ErrCurrencyMismatch)
	})

	t.Run("subtract currency mismatch", func(t *testing.T) {
		_, err := usd50.Subtract(eur10)
		assert.ErrorIs(t, err, ErrCurrencyMismatch)
	})

	t.Run("multiply", func(t *testing.T) {
		total := usd20.Multiply(3)
		assert.Equal(t, int64(6000), total.Amount)
		assert.Equal(t, "USD", total.Currency)
	})

	t.Run("predicates", func(t *testing.T) {
		zero, err := NewMoney(0, "USD")
		require.NoError(t, err)
		assert.True(t, zero.IsZero())
		assert.False(t, zero.IsPositive())
		assert.True(t, usd50.IsPositive())
	})
}

func TestVersion(t *testing.T) {
	v := NewVersion()
	assert.Equal(t, 1, v.Value)

	updated := v.Update()
	assert.Equal(t, 2, updated.Value)
	assert.Equal(t, 1, v.Value)
}

func TestTimestamps(t *testing.T) {
	ts := NewTimestamps()
	assert.Equal(t, ts.CreatedAt, ts.UpdatedAt)

	updated := ts.Update()
	assert.Equal(t, ts.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(ts.UpdatedAt) || updated.UpdatedAt.Equal(ts.UpdatedAt))
}
