package amount

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weisyn/recordjoin/pkg/txerrors"
	"github.com/weisyn/recordjoin/pkg/types"
)

func TestNewAmount(t *testing.T) {
	tests := []struct {
		name    string
		credits float64
		want    uint64
		wantErr bool
	}{
		{"1 credit", 1.0, 1_000_000, false},
		{"1.5 credits", 1.5, 1_500_000, false},
		{"0.1 credits", 0.1, 100_000, false},
		{"1.1 credits", 1.1, 1_100_000, false},
		{"smallest unit", 0.000001, 1, false},
		{"zero", 0, 0, false},
		{"too precise", 0.0000001, 0, true},
		{"negative", -1.0, 0, true},
		{"NaN", math.NaN(), 0, true},
		{"Inf", math.Inf(1), 0, true},
		{"overflow", 1e20, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewAmount(tt.credits)
			if tt.wantErr {
				require.ErrorIs(t, err, txerrors.ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got.Units())
		})
	}
}

func TestNewAmountFromString(t *testing.T) {
	tests := []struct {
		name    string
		str     string
		want    uint64
		wantErr bool
	}{
		{"integer", "100", 100_000_000, false},
		{"decimal", "1.5", 1_500_000, false},
		{"trailing zeros", "1.500000000", 1_500_000, false},
		{"leading dot", ".25", 250_000, false},
		{"empty", "", 0, true},
		{"letters", "abc", 0, true},
		{"dangling dot", "1.", 0, true},
		{"negative", "-2", 0, true},
		{"seven decimals", "0.1234567", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewAmountFromString(tt.str)
			if tt.wantErr {
				require.ErrorIs(t, err, txerrors.ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got.Units())
		})
	}
}

func TestAmountArithmetic(t *testing.T) {
	a := NewAmountFromUnits(1_500_000)
	b := NewAmountFromUnits(500_000)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000), diff.Units())

	_, err = b.Sub(a)
	require.ErrorIs(t, err, txerrors.ErrInsufficientBalance)

	require.Equal(t, "1.500000", a.String())
	require.Equal(t, "0.000000", (*Amount)(nil).String())
}

func TestValidate(t *testing.T) {
	feeRecord := &types.Record{Microcredits: 10_000_000}

	t.Run("exact conversion within balance", func(t *testing.T) {
		for _, credits := range []float64{0.000001, 0.5, 1, 9.999999, 10} {
			got, err := Validate(credits, feeRecord, true)
			require.NoError(t, err)
			want, _ := NewAmount(credits)
			require.Equal(t, want.Units(), got)
		}
	})

	t.Run("zero rejected when positive required", func(t *testing.T) {
		_, err := Validate(0, feeRecord, true)
		require.ErrorIs(t, err, txerrors.ErrInvalidAmount)
	})

	t.Run("zero accepted otherwise", func(t *testing.T) {
		got, err := Validate(0, feeRecord, false)
		require.NoError(t, err)
		require.Zero(t, got)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		_, err := Validate(10.000001, feeRecord, true)
		require.ErrorIs(t, err, txerrors.ErrInsufficientBalance)
	})

	t.Run("precision loss", func(t *testing.T) {
		_, err := Validate(1.0000001, feeRecord, true)
		require.ErrorIs(t, err, txerrors.ErrInvalidAmount)
	})

	t.Run("no record skips balance check", func(t *testing.T) {
		got, err := Validate(1000, nil, true)
		require.NoError(t, err)
		require.Equal(t, uint64(1_000_000_000), got)
	})
}
