package payment

import "github.com/shopspring/decimal"

type Method string

const (
	COD  Method = "COD"
	UPI  Method = "UPI"
	CARD Method = "CARD"
)

// ParseMethod accepts the exact method tokens only.
func ParseMethod(s string) (Method, bool) {
	switch m := Method(s); m {
	case COD, UPI, CARD:
		return m, true
	}
	return "", false
}

type Card struct {
	Number string `json:"card_number"`
	Expiry string `json:"card_expiry"`
	CVV    string `json:"card_cvv"`
}

// Authorize is a simulated gateway: no network, same answer for the same input.
// Card fields are checked by raw length as submitted.
func Authorize(method Method, amount decimal.Decimal, card *Card) bool {
	switch method {
	case COD:
		return true
	case UPI:
		return amount.IsPositive()
	case CARD:
		if card == nil {
			return false
		}
		return len(card.Number) >= 16 && len(card.CVV) == 3 && amount.IsPositive()
	}
	return false
}
