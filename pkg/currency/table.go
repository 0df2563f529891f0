package currency

import (
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/models"
	xcurrency "golang.org/x/text/currency"
)

// Supported holds the fixed currency table. Billing supports exactly two
// currencies: INR for India and USD for everyone else.
var Supported = []models.Currency{
	{
		Code:         "INR",
		Symbol:       "₹",
		Name:         "Indian Rupee",
		Country:      "India",
		ExchangeRate: 1,
	},
	{
		Code:         "USD",
		Symbol:       "$",
		Name:         "US Dollar",
		Country:      "Default",
		ExchangeRate: 1,
	},
}

// Default is the fallback currency when no signal points elsewhere
var Default = Supported[1]

// Lookup returns the supported currency with the given code
func Lookup(code string) (models.Currency, bool) {
	for _, c := range Supported {
		if c.Code == code {
			return c, true
		}
	}
	return models.Currency{}, false
}

// IsValidISO reports whether code parses as an ISO 4217 currency code.
// Used to reject corrupted cache entries before the table lookup.
func IsValidISO(code string) bool {
	_, err := xcurrency.ParseISO(code)
	return err == nil
}
