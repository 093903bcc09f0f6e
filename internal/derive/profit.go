package derive

import (
	"math"

	"github.com/mark3labs/dealflow/internal/form"
)

// FeeRate is the closing and holding cost charged on purchase price plus rehab.
const FeeRate = 0.05

// Profit is the estimate breakdown for a fix-and-flip deal.
type Profit struct {
	Fees   float64 `json:"fees"`
	Profit float64 `json:"profit"`
}

// EstimateProfit returns max(0, arv - purchasePrice - rehabCost - fees) where
// fees = (purchasePrice + rehabCost) * FeeRate. Amounts are rounded to cents.
func EstimateProfit(purchasePrice, rehabCost, arv float64) Profit {
	fees := roundCents((purchasePrice + rehabCost) * FeeRate)
	profit := roundCents(arv - purchasePrice - rehabCost - fees)
	if profit < 0 {
		profit = 0
	}
	return Profit{Fees: fees, Profit: profit}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// ProfitDeriver fills estimatedProfit from purchasePrice, rehabCost and arv.
var ProfitDeriver = Deriver{
	Name:   "profit",
	Output: "estimatedProfit",
	Inputs: []string{"purchasePrice", "rehabCost", "arv"},
	Compute: func(data form.Data) any {
		return EstimateProfit(
			data.Number("purchasePrice"),
			data.Number("rehabCost"),
			data.Number("arv"),
		).Profit
	},
}
