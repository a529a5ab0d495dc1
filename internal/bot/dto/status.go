package dto

// ErrorResponse is the generic error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse reports the bot's current gating state.
type StatusResponse struct {
	AlertsToday     int64   `json:"alerts_today"`
	MaxAlertsPerDay int     `json:"max_alerts_per_day"`
	WatchlistSize   int     `json:"watchlist_size"`
	MinConfidence   float64 `json:"min_confidence"`
}

// WatchlistResponse lists the tracked tickers.
type WatchlistResponse struct {
	Tickers []string `json:"tickers"`
}
