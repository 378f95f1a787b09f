package currency

// Code is an ISO 4217 currency code
type Code string

const (
	USD Code = "USD"
	EUR Code = "EUR"
	INR Code = "INR"
	GBP Code = "GBP"
	AED Code = "AED"
	JPY Code = "JPY"
	CAD Code = "CAD"
	AUD Code = "AUD"
	CHF Code = "CHF"
	CNY Code = "CNY"
	SGD Code = "SGD"
	HKD Code = "HKD"
	NZD Code = "NZD"
)

var known = map[Code]struct{}{
	USD: {}, EUR: {}, INR: {}, GBP: {}, AED: {}, JPY: {},
	CAD: {}, AUD: {}, CHF: {}, CNY: {}, SGD: {}, HKD: {}, NZD: {},
}

// Valid reports whether the code is a supported currency
func (c Code) Valid() bool {
	_, ok := known[c]
	return ok
}

// String returns the code as a string
func (c Code) String() string {
	return string(c)
}
