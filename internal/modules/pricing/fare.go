// README: Fare and payment-split calculation over a resolved tariff.
package pricing

import (
	"math"

	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

// DefaultOnlineSharePct is the mandatory online deposit for partial (cash) payments.
const DefaultOnlineSharePct = 30

// CalculateFare applies t to distanceKm. A zero or non-numeric total is ErrFareUnavailable.
func CalculateFare(t Tariff, distanceKm float64) (Fare, error) {
	if math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) || distanceKm < 0 {
		return Fare{}, ErrFareUnavailable
	}
	f := Fare{DistanceKm: distanceKm}

	if t.Key.Category == CategoryAuto {
		f.BasePrice = t.FlatPrice
		f.TotalAmount = types.Rupees(t.FlatPrice)
		if distanceKm > 0 {
			f.RatePerKm = int64(math.Round(float64(t.FlatPrice) / distanceKm))
		}
	} else {
		tier, ok := pickTier(t.Tiers, distanceKm)
		if !ok {
			return Fare{}, ErrFareUnavailable
		}
		total := tier.RatePerKm * distanceKm
		if math.IsNaN(total) || math.IsInf(total, 0) {
			return Fare{}, ErrFareUnavailable
		}
		f.TierKm = tier.ThresholdKm
		f.RatePerKm = int64(math.Round(tier.RatePerKm))
		f.TotalAmount = types.Rupees(int64(math.Round(total)))
	}

	if f.TotalAmount.Amount <= 0 {
		return Fare{}, ErrFareUnavailable
	}
	return f, nil
}

// pickTier returns the smallest threshold covering distanceKm, or the largest tier past the end.
// Tiers may come in any order.
func pickTier(tiers []Tier, distanceKm float64) (Tier, bool) {
	if len(tiers) == 0 {
		return Tier{}, false
	}
	var covering, largest *Tier
	for i := range tiers {
		tr := &tiers[i]
		if largest == nil || tr.ThresholdKm > largest.ThresholdKm {
			largest = tr
		}
		if float64(tr.ThresholdKm) >= distanceKm && (covering == nil || tr.ThresholdKm < covering.ThresholdKm) {
			covering = tr
		}
	}
	if covering != nil {
		return *covering, true
	}
	return *largest, true
}

// SplitPayment decides between full upfront payment and the online/cash split.
// Only non-auto cash bookings are split. Online is rounded half up and the cash
// portion takes whatever remains, so the two always sum to total.
func SplitPayment(category Category, method PaymentMethod, total int64, onlinePct int) PaymentPlan {
	plan := PaymentPlan{Method: method}
	if category == CategoryAuto || method != PaymentCash {
		plan.Online = types.Rupees(total)
		plan.Cash = types.Rupees(0)
		return plan
	}
	online := (total*int64(onlinePct) + 50) / 100
	plan.Partial = true
	plan.Online = types.Rupees(online)
	plan.Cash = types.Rupees(total - online)
	return plan
}
