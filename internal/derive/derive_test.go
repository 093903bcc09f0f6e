package derive

import (
	"testing"

	"github.com/mark3labs/dealflow/internal/form"
	"github.com/stretchr/testify/require"
)

func TestEstimateProfit_Example(t *testing.T) {
	p := EstimateProfit(150000, 0, 325000)
	require.Equal(t, 7500.0, p.Fees)
	require.Equal(t, 167500.0, p.Profit)
}

func TestEstimateProfit_RoundsToCents(t *testing.T) {
	p := EstimateProfit(1234.56, 0, 2000)
	require.InDelta(t, 61.73, p.Fees, 1e-9)
	require.InDelta(t, 703.71, p.Profit, 1e-9)
}

func TestEstimateProfit_NeverNegative(t *testing.T) {
	cases := []struct {
		name                 string
		purchase, rehab, arv float64
	}{
		{"arv below cost", 200000, 50000, 100000},
		{"all zero", 0, 0, 0},
		{"fees eat margin", 100000, 0, 104000},
		{"negative arv", 100, 100, -5000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := EstimateProfit(tc.purchase, tc.rehab, tc.arv)
			require.GreaterOrEqual(t, p.Profit, 0.0)
		})
	}
}

func TestEstimateProfit_Pure(t *testing.T) {
	a := EstimateProfit(123456.78, 9876.54, 250000)
	b := EstimateProfit(123456.78, 9876.54, 250000)
	require.Equal(t, a, b)
}

func TestMarketScore_Best(t *testing.T) {
	s := MarketScore(0, 0, 4)
	require.Equal(t, 15, s.Sum)
	require.Equal(t, 100, s.Score)

	s = MarketScore(0, 0, 12.5)
	require.Equal(t, 100, s.Score)
}

func TestJobGrowthPoints_Buckets(t *testing.T) {
	cases := map[float64]int{
		-2:   0,
		0:    0,
		0.5:  1,
		0.99: 1,
		1:    2,
		1.9:  2,
		2:    3,
		3:    4,
		3.99: 4,
		4:    5,
		9:    5,
	}
	for rate, want := range cases {
		require.Equal(t, want, JobGrowthPoints(rate), "rate %v", rate)
	}
}

func TestMarketScore_BoundedAndMonotonic(t *testing.T) {
	growths := []float64{-1, 0, 0.5, 1.5, 2.5, 3.5, 5}
	for _, g := range growths {
		for demand := -1; demand <= 5; demand++ {
			prev := -1
			// Walk trend from worst (4) to best (0): score must not decrease.
			for trend := 4; trend >= 0; trend-- {
				s := MarketScore(trend, demand, g)
				require.GreaterOrEqual(t, s.Score, 0)
				require.LessOrEqual(t, s.Score, 100)
				require.GreaterOrEqual(t, s.Score, prev)
				prev = s.Score
			}
		}
		for trend := -1; trend <= 5; trend++ {
			prev := -1
			for demand := 4; demand >= 0; demand-- {
				s := MarketScore(trend, demand, g)
				require.GreaterOrEqual(t, s.Score, prev)
				prev = s.Score
			}
		}
	}
}

func TestMarketScore_Rounding(t *testing.T) {
	// 5 + 3 + 0 = 8 -> round(53.33) = 53
	require.Equal(t, 53, MarketScore(0, 2, 0).Score)
	// nothing known
	require.Equal(t, 0, MarketScore(-1, -1, 0).Score)
}

func TestRecompute_ReturnsOnlyChangedKeys(t *testing.T) {
	derivers := []Deriver{ProfitDeriver, MarketScoreDeriver}
	data := form.Data{
		"purchasePrice": "150000",
		"rehabCost":     "0",
		"arv":           "325,000",
	}

	changed := Recompute(derivers, data)
	require.Equal(t, form.Data{"estimatedProfit": 167500.0, "marketScore": 0}, changed)

	data.Merge(changed)
	require.Empty(t, Recompute(derivers, data), "second pass with identical inputs changes nothing")

	data["marketTrend"] = "Strong Growth"
	changed = Recompute(derivers, data)
	require.Equal(t, form.Data{"marketScore": 33}, changed)
}

func TestRecompute_NumericTypesCompareByValue(t *testing.T) {
	derivers := []Deriver{ProfitDeriver, MarketScoreDeriver}
	data := form.Data{
		"purchasePrice":   "150000",
		"rehabCost":       "0",
		"arv":             "325000",
		"marketTrend":     "Strong Growth",
		"rentalDemand":    "Very High",
		"jobGrowth":       "4",
		"estimatedProfit": 167500,
		"marketScore":     float64(100),
	}
	require.Empty(t, Recompute(derivers, data))

	data["marketScore"] = "100"
	require.Equal(t, form.Data{"marketScore": 100}, Recompute(derivers, data), "a string is not a computed value")
}

func TestRecompute_TotalOnGarbage(t *testing.T) {
	data := form.Data{
		"purchasePrice": "lots",
		"arv":           []string{"x"},
		"marketTrend":   42,
		"jobGrowth":     "fast",
	}
	require.NotPanics(t, func() {
		changed := Recompute([]Deriver{ProfitDeriver, MarketScoreDeriver}, data)
		require.Equal(t, 0.0, changed["estimatedProfit"])
		require.Equal(t, 0, changed["marketScore"])
	})
}

func TestLookup(t *testing.T) {
	d, ok := Lookup("profit")
	require.True(t, ok)
	require.Equal(t, "estimatedProfit", d.Output)
	require.True(t, d.DependsOn("arv"))
	require.False(t, d.DependsOn("marketTrend"))

	_, ok = Lookup("nope")
	require.False(t, ok)
	require.Equal(t, []string{"market_score", "profit"}, Names())
}
