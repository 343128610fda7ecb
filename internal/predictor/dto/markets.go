package dto

// Market is the normalized market snapshot row returned by both providers.
type Market struct {
	Ticker   string   `json:"ticker"`
	Title    string   `json:"title"`
	YesPrice *float64 `json:"yes_price,omitempty"`
	NoPrice  *float64 `json:"no_price,omitempty"`
	Volume   float64  `json:"volume"`
	Source   string   `json:"source"`
}

// KalshiMarket is a single market row in the Kalshi API payload.
type KalshiMarket struct {
	Ticker   string   `json:"ticker"`
	Title    string   `json:"title"`
	YesPrice *float64 `json:"yes_price"`
	NoPrice  *float64 `json:"no_price"`
	Volume   float64  `json:"volume"`
	Status   string   `json:"status"`
}

// KalshiMarketsResponse is the Kalshi /markets envelope.
type KalshiMarketsResponse struct {
	Markets []KalshiMarket `json:"markets"`
	Cursor  string         `json:"cursor"`
}

// PolymarketMarket is a single market row in the Polymarket API payload.
type PolymarketMarket struct {
	ID        string   `json:"id"`
	Ticker    string   `json:"ticker"`
	Title     string   `json:"title"`
	YesPrice  *float64 `json:"yesPrice"`
	NoPrice   *float64 `json:"noPrice"`
	VolumeUSD float64  `json:"volumeUSD"`
}

// PolymarketMarketsResponse is the Polymarket /markets envelope.
type PolymarketMarketsResponse struct {
	Data []PolymarketMarket `json:"data"`
}
