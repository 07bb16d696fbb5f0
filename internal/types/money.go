// README: Common money value object used across modules.
package types

// CurrencyINR is the only settlement currency; amounts are whole rupees.
const CurrencyINR = "INR"

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func Rupees(amount int64) Money {
	return Money{Amount: amount, Currency: CurrencyINR}
}
