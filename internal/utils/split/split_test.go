package split

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ratioPortions(keys []string, ratios []string) []Portion {
	portions := make([]Portion, len(keys))
	for i := range keys {
		portions[i] = Portion{Key: keys[i], Ratio: decimal.RequireFromString(ratios[i])}
	}
	return portions
}

func TestAllocate_ExactSum(t *testing.T) {
	third := decimal.NewFromInt(1).Div(decimal.NewFromInt(3))
	portions := []Portion{
		{Key: "a", Ratio: third},
		{Key: "b", Ratio: third},
		{Key: "c", Ratio: third},
	}

	// $10.01 across three members: 334/334/333, never 333/333/333 or 334/334/334.
	shares, err := Allocate(1001, portions)
	require.NoError(t, err)
	assert.Equal(t, []int64{334, 334, 333}, shares)

	var sum int64
	for _, s := range shares {
		sum += s
	}
	assert.Equal(t, int64(1001), sum)
}

func TestAllocate_SingleMember(t *testing.T) {
	shares, err := Allocate(1500, []Portion{{Key: "only", Ratio: decimal.NewFromInt(1)}})
	require.NoError(t, err)
	assert.Equal(t, []int64{1500}, shares)
}

func TestAllocate_WeightedRatios(t *testing.T) {
	// Weights 2:1:1 over $20.00.
	portions := ratioPortions([]string{"a", "b", "c"}, []string{"0.5", "0.25", "0.25"})
	shares, err := Allocate(2000, portions)
	require.NoError(t, err)
	assert.Equal(t, []int64{1000, 500, 500}, shares)
}

func TestAllocate_ZeroRatioGetsNoRemainder(t *testing.T) {
	third := decimal.NewFromInt(1).Div(decimal.NewFromInt(3))
	twoThirds := third.Add(third)
	portions := []Portion{
		{Key: "a", Ratio: decimal.Zero},
		{Key: "b", Ratio: third},
		{Key: "c", Ratio: twoThirds},
	}
	shares, err := Allocate(100, portions)
	require.NoError(t, err)
	assert.Equal(t, int64(0), shares[0], "zero-ratio portion must stay at zero")
	assert.Equal(t, int64(100), shares[1]+shares[2])
}

func TestAllocate_SumInvariantAcrossSizes(t *testing.T) {
	// Equal ratios for n = 1..9 across awkward totals must always sum exactly.
	totals := []int64{1, 7, 99, 1001, 12345, 1000003}
	for n := 1; n <= 9; n++ {
		portions := make([]Portion, n)
		ratio := decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(n)))
		for i := range portions {
			portions[i] = Portion{Key: fmt.Sprintf("e%d", i), Ratio: ratio}
		}
		for _, total := range totals {
			shares, err := Allocate(total, portions)
			require.NoError(t, err)
			var sum int64
			for _, s := range shares {
				sum += s
			}
			assert.Equal(t, total, sum, "n=%d total=%d", n, total)
			// No member may differ from another by more than one cent.
			for _, s := range shares {
				assert.LessOrEqual(t, shares[len(shares)-1], s)
				assert.LessOrEqual(t, s-shares[len(shares)-1], int64(1))
			}
		}
	}
}

func TestAllocate_Errors(t *testing.T) {
	_, err := Allocate(-1, []Portion{{Key: "a", Ratio: decimal.NewFromInt(1)}})
	assert.Error(t, err)

	_, err = Allocate(100, nil)
	assert.Error(t, err)

	_, err = Allocate(100, []Portion{{Key: "a", Ratio: decimal.Zero}})
	assert.Error(t, err, "all-zero ratios cannot absorb the total")

	_, err = Allocate(100, []Portion{{Key: "a", Ratio: decimal.NewFromInt(2)}})
	assert.Error(t, err, "ratios above one must refuse rather than overpay")
}

func TestEqual(t *testing.T) {
	shares, err := Equal(1001, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{334, 334, 333}, shares)

	shares, err = Equal(2000, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1000, 1000}, shares)

	shares, err = Equal(5, 8)
	require.NoError(t, err)
	var sum int64
	for _, s := range shares {
		sum += s
	}
	assert.Equal(t, int64(5), sum)

	_, err = Equal(100, 0)
	assert.Error(t, err)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, int64(150), Percent(10000, 150), "1.5 percent of $100.00")
	assert.Equal(t, int64(0), Percent(10, 150), "floors below one cent to zero")
	assert.Equal(t, int64(0), Percent(-100, 150))
	assert.Equal(t, int64(0), Percent(100, 0))
	assert.Equal(t, int64(10000), Percent(10000, 10000), "full percentage passes through")
}
