package source

import "strings"

const (
	nseSuffix = ".NS"
	bseSuffix = ".BO"
)

// corrections maps shorthand tickers people actually type to the listed
// NSE symbols.
var corrections = map[string]string{
	"TATA":         "TATAMOTORS",
	"IT":           "ITC",
	"INFOSYS":      "INFY",
	"HDFC":         "HDFCBANK",
	"ICICI":        "ICICIBANK",
	"SBI":          "SBIN",
	"AIRTEL":       "BHARTIARTL",
	"KOTAK":        "KOTAKBANK",
	"AXIS":         "AXISBANK",
	"HINDUNILEVER": "HINDUNILVR",
}

// Canonical upper-cases and trims a ticker and resolves common shorthand
// to the listed symbol. This is the form quotes are cached and keyed by.
func Canonical(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if fix, ok := corrections[s]; ok {
		return fix
	}
	return s
}

// yahooSymbol renders a ticker the way Yahoo lists NSE stocks. BSE
// listings pass through untouched.
func yahooSymbol(symbol string) string {
	s := Canonical(symbol)
	if strings.HasSuffix(s, nseSuffix) || strings.HasSuffix(s, bseSuffix) {
		return s
	}
	return s + nseSuffix
}

// alphaVantageSymbol renders a ticker in Alpha Vantage's BSE format,
// the only Indian listing its free tier resolves reliably.
func alphaVantageSymbol(symbol string) string {
	s := strings.TrimSuffix(Canonical(symbol), nseSuffix)
	if strings.HasSuffix(s, ".BSE") {
		return s
	}
	return s + ".BSE"
}

// finnhubSymbol renders a ticker with Finnhub's exchange prefix.
func finnhubSymbol(symbol string) string {
	s := Canonical(symbol)
	if strings.HasPrefix(s, "NSE:") {
		return s
	}
	return "NSE:" + s
}
