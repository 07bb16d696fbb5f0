// README: Tariff records, fare results, and payment plans for each vehicle category.
package pricing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/devxankit/chalo-sawari-sub001/internal/types"
)

type Category string

const (
	CategoryAuto Category = "auto"
	CategoryCar  Category = "car"
	CategoryBus  Category = "bus"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryAuto, CategoryCar, CategoryBus:
		return true
	}
	return false
}

type TripType string

const (
	TripOneWay TripType = "one-way"
	TripReturn TripType = "return"
)

func (t TripType) Valid() bool {
	return t == TripOneWay || t == TripReturn
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentUPI      PaymentMethod = "upi"
	PaymentWallet   PaymentMethod = "wallet"
	PaymentRazorpay PaymentMethod = "razorpay"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentWallet, PaymentRazorpay:
		return true
	}
	return false
}

// Key identifies a tariff. An empty VehicleModel addresses the vehicle-type default.
type Key struct {
	Category     Category `json:"category"`
	VehicleType  string   `json:"vehicle_type"`
	VehicleModel string   `json:"vehicle_model"`
	TripType     TripType `json:"trip_type"`
}

func (k Key) typeDefault() Key {
	k.VehicleModel = ""
	return k
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", k.Category, k.VehicleType, k.VehicleModel, k.TripType)
}

// Tier applies RatePerKm to trips up to ThresholdKm.
type Tier struct {
	ThresholdKm int     `json:"threshold_km"`
	RatePerKm   float64 `json:"rate_per_km"`
}

// Tariff is either flat (auto) or distance-tiered (car, bus). Tiers are kept sorted by threshold.
type Tariff struct {
	Key       Key    `json:"key"`
	FlatPrice int64  `json:"flat_price,omitempty"`
	Tiers     []Tier `json:"tiers,omitempty"`
}

// Fare is the outcome of applying a tariff to a distance. All amounts are whole rupees.
type Fare struct {
	DistanceKm  float64     `json:"distance_km"`
	BasePrice   int64       `json:"base_price"`
	TierKm      int         `json:"tier_km,omitempty"`
	RatePerKm   int64       `json:"rate_per_km"`
	TotalAmount types.Money `json:"total_amount"`
}

// PaymentPlan says how much is due online now and how much in cash at the end of the trip.
type PaymentPlan struct {
	Method  PaymentMethod `json:"method"`
	Partial bool          `json:"is_partial_payment"`
	Online  types.Money   `json:"online_amount"`
	Cash    types.Money   `json:"cash_amount"`
}

// ParseTiers converts a stored tier table such as {"50km": 12, "100": 10} into sorted tiers.
func ParseTiers(raw map[string]float64) ([]Tier, error) {
	tiers := make([]Tier, 0, len(raw))
	for k, v := range raw {
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(k), "km"))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("bad tier threshold %q", k)
		}
		tiers = append(tiers, Tier{ThresholdKm: n, RatePerKm: v})
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].ThresholdKm < tiers[j].ThresholdKm })
	return tiers, nil
}

func tierLabel(km int) string {
	return strconv.Itoa(km) + "km"
}
