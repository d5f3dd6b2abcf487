package binance

// Intervals accepted by the Binance klines endpoint.
var supportedIntervals = map[string]struct{}{
	"1s": {}, "1m": {}, "3m": {}, "5m": {}, "15m": {}, "30m": {},
	"1h": {}, "2h": {}, "4h": {}, "6h": {}, "8h": {}, "12h": {},
	"1d": {}, "3d": {}, "1w": {}, "1M": {},
}

// IsValidInterval returns true if interval is a supported kline interval.
func IsValidInterval(interval string) bool {
	_, ok := supportedIntervals[interval]
	return ok
}

// IsValidSymbol returns true if symbol looks like a trading pair identifier.
func IsValidSymbol(symbol string) bool {
	if len(symbol) < 3 || len(symbol) > 20 {
		return false
	}
	for _, r := range symbol {
		isDigit := r >= '0' && r <= '9'
		isUpper := r >= 'A' && r <= 'Z'
		isLower := r >= 'a' && r <= 'z'
		if !isDigit && !isUpper && !isLower {
			return false
		}
	}
	return true
}
