package visitor

import (
	"encoding/json"
	"time"
)

// UnknownAddress is the sentinel used when no visitor address can be
// determined from the ambient request.
const UnknownAddress = "UNKNOWN"

// GeoInfo is the resolved location data for a network address. Field tags
// match the geolocation service's JSON response; every field may be empty
// when the service could not resolve it.
type GeoInfo struct {
	Address     string `json:"ip"`
	City        string `json:"city"`
	Region      string `json:"region"`
	Country     string `json:"country"`
	Coordinates string `json:"loc"`
	PostalCode  string `json:"postal"`
	Timezone    string `json:"timezone"`
}

// Usable reports whether the record is complete enough to serve from cache
// without a refetch. City, country and timezone are all required by the
// formatters.
func (g GeoInfo) Usable() bool {
	return g.City != "" && g.Country != "" && g.Timezone != ""
}

// WeatherInfo is the resolved current weather for a city/country pair.
// Raw carries the full provider response so output transforms can reach
// fields the core does not interpret.
type WeatherInfo struct {
	TemperatureKelvin float64
	Raw               json.RawMessage
}

// Usable reports whether the reading can be served from cache. The weather
// provider reports absolute temperature, so zero means a missing reading.
func (w WeatherInfo) Usable() bool {
	return w.TemperatureKelvin > 0
}

// Store is the expiring key-value cache the resolvers depend on.
// Implementations must be safe for concurrent use. A ttl <= 0 stores the
// value without expiry.
type Store interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, ttl time.Duration)
}
