package visitor

import "time"

// Settings is the read-only configuration the service is constructed with.
// Callers build it once (see internal/config) and must not mutate it after
// handing it to NewService.
type Settings struct {
	// GeoURLTemplate is the geolocation lookup URL with an {IP} placeholder.
	GeoURLTemplate string

	// WeatherBaseURL is the weather API base, including trailing slash.
	WeatherBaseURL string
	WeatherAPIKey  string

	// DefaultCity and DefaultCountry back every lookup that cannot be
	// resolved from the visitor address.
	DefaultCity    string
	DefaultCountry string

	// TemperatureUnit is "F" or "C".
	TemperatureUnit string

	TemperatureTemplate string
	GreetingTemplate    string
	VisitorInfoTemplate string

	// GreetingLabels maps greeting buckets (good_morning, good_afternoon,
	// good_evening, good_night, good_day) to display text. Missing keys
	// fall back to built-in English labels.
	GreetingLabels map[string]string

	GeoCacheTTL     time.Duration
	WeatherCacheTTL time.Duration
}

// DefaultSettings returns the stock configuration: OpenWeatherMap for
// weather, ipinfo.io for geolocation, New York/US fallback location,
// Fahrenheit display.
func DefaultSettings() Settings {
	return Settings{
		GeoURLTemplate:      "https://ipinfo.io/{IP}/json",
		WeatherBaseURL:      "http://api.openweathermap.org/data/2.5/",
		DefaultCity:         "New York",
		DefaultCountry:      "US",
		TemperatureUnit:     "F",
		TemperatureTemplate: "{TEMP}°F, {CITY}",
		GreetingTemplate:    "Welcome, {MESSAGE}",
		VisitorInfoTemplate: "{IP}, {CITY}",
		GreetingLabels: map[string]string{
			BucketGoodDay:       "Good Day",
			BucketGoodMorning:   "Good Morning",
			BucketGoodAfternoon: "Good Afternoon",
			BucketGoodEvening:   "Good Evening",
			BucketGoodNight:     "Good Night",
		},
		GeoCacheTTL:     12 * time.Hour,
		WeatherCacheTTL: 30 * time.Minute,
	}
}
