package derive

import (
	"math"

	"github.com/mark3labs/dealflow/internal/form"
)

// Ordinal scales, best first. A value's points are 5 minus its index.
var (
	TrendScale = []string{
		"Strong Growth",
		"Moderate Growth",
		"Stable",
		"Slight Decline",
		"Significant Decline",
	}
	DemandScale = []string{
		"Very High",
		"High",
		"Moderate",
		"Low",
		"Very Low",
	}
)

const maxRawScore = 15

// Score is the market score breakdown.
type Score struct {
	Trend     int `json:"trend"`
	Demand    int `json:"demand"`
	JobGrowth int `json:"job_growth"`
	Sum       int `json:"sum"`
	Score     int `json:"score"`
}

// MarketScore weights trend, demand and job growth into a 0-100 score.
// trendIndex and demandIndex are positions on TrendScale and DemandScale; a
// negative or out of range index contributes nothing.
func MarketScore(trendIndex, demandIndex int, jobGrowth float64) Score {
	s := Score{
		Trend:     ordinalPoints(trendIndex),
		Demand:    ordinalPoints(demandIndex),
		JobGrowth: JobGrowthPoints(jobGrowth),
	}
	s.Sum = s.Trend + s.Demand + s.JobGrowth
	s.Score = int(math.Round(float64(s.Sum) / maxRawScore * 100))
	if s.Score > 100 {
		s.Score = 100
	}
	return s
}

func ordinalPoints(index int) int {
	if index < 0 || index > 4 {
		return 0
	}
	return 5 - index
}

// JobGrowthPoints buckets an annual job growth rate (percent) into 0-5.
func JobGrowthPoints(rate float64) int {
	switch {
	case math.IsNaN(rate) || rate <= 0:
		return 0
	case rate < 1:
		return 1
	case rate < 2:
		return 2
	case rate < 3:
		return 3
	case rate < 4:
		return 4
	default:
		return 5
	}
}

// ScaleIndex returns the position of value on scale, or -1.
func ScaleIndex(scale []string, value string) int {
	for i, s := range scale {
		if s == value {
			return i
		}
	}
	return -1
}

// MarketScoreDeriver fills marketScore from marketTrend, rentalDemand and
// jobGrowth.
var MarketScoreDeriver = Deriver{
	Name:   "market_score",
	Output: "marketScore",
	Inputs: []string{"marketTrend", "rentalDemand", "jobGrowth"},
	Compute: func(data form.Data) any {
		return MarketScore(
			ScaleIndex(TrendScale, data.String("marketTrend")),
			ScaleIndex(DemandScale, data.String("rentalDemand")),
			data.Number("jobGrowth"),
		).Score
	},
}
