package units

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}

func TestFromBaseUnitsWholeTokens(t *testing.T) {
	ten := new(big.Int).Mul(big.NewInt(10), pow10(18))
	assert.Equal(t, "10.0", FromBaseUnits(ten, 18))
}

func TestFromBaseUnitsSmallestUnit(t *testing.T) {
	assert.Equal(t, "0.000000000000000001", FromBaseUnits(big.NewInt(1), 18))
}

func TestFromBaseUnitsZeroDecimals(t *testing.T) {
	assert.Equal(t, "1000.0", FromBaseUnits(big.NewInt(1000), 0))
}

func TestFromBaseUnitsNil(t *testing.T) {
	assert.Equal(t, "0.0", FromBaseUnits(nil, 18))
}

func TestFromBaseUnitsFraction(t *testing.T) {
	// 1.5 tokens with 6 decimals.
	assert.Equal(t, "1.5", FromBaseUnits(big.NewInt(1_500_000), 6))
}

func TestToBaseUnitsWhole(t *testing.T) {
	n, err := ToBaseUnits("10", 18)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(10), pow10(18)), n)
}

func TestToBaseUnitsFraction(t *testing.T) {
	n, err := ToBaseUnits("0.25", 2)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(25), n)
}

func TestToBaseUnitsLeadingDot(t *testing.T) {
	n, err := ToBaseUnits(".5", 1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5), n)
}

func TestToBaseUnitsTrailingDot(t *testing.T) {
	n, err := ToBaseUnits("7.", 3)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7000), n)
}

func TestToBaseUnitsTrailingZerosIgnored(t *testing.T) {
	n, err := ToBaseUnits("3.000", 0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(3), n)
}

func TestToBaseUnitsTooManyDecimals(t *testing.T) {
	_, err := ToBaseUnits("1.001", 2)
	assert.ErrorIs(t, err, ErrTooManyDecimals)
}

func TestToBaseUnitsRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "abc", "-1", "1e18", "1.2.3", "0x10", " "} {
		t.Run(in, func(t *testing.T) {
			_, err := ToBaseUnits(in, 18)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestToBaseUnitsHugeValueIsExact(t *testing.T) {
	// Far beyond float64 precision.
	n, err := ToBaseUnits("123456789012345678901234567890.123456789012345678", 18)
	require.NoError(t, err)
	want, _ := new(big.Int).SetString("123456789012345678901234567890123456789012345678", 10)
	assert.Equal(t, want, n)
}

func TestRoundTrip(t *testing.T) {
	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	values := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(9),
		big.NewInt(10),
		big.NewInt(1_000_000),
		new(big.Int).Mul(big.NewInt(1000), pow10(18)),
		new(big.Int).Add(pow10(30), big.NewInt(7)),
		maxUint256,
	}
	for _, d := range []uint8{0, 1, 2, 6, 8, 18, 24, 36, 77} {
		for _, x := range values {
			s := FromBaseUnits(x, d)
			back, err := ToBaseUnits(s, d)
			require.NoError(t, err, "decimals=%d x=%s formatted=%s", d, x, s)
			assert.Zero(t, x.Cmp(back), "decimals=%d x=%s formatted=%s back=%s", d, x, s, back)
		}
	}
}
