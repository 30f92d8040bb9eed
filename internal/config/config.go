package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/connectpx/visitor-context/internal/visitor"
)

var validate = validator.New()

// AppConfig is the process configuration, read once at startup.
type AppConfig struct {
	// Visitor holds the core service settings built from environment
	// overrides on top of visitor.DefaultSettings.
	Visitor visitor.Settings

	// HTTPTimeout bounds every outbound geolocation/weather call.
	HTTPTimeout time.Duration

	// CacheSweepInterval controls how often the in-memory cache janitor
	// reclaims expired entries.
	CacheSweepInterval time.Duration

	// WarmInterval controls how often the default-location weather cache
	// is refreshed. Zero disables warming.
	WarmInterval time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	settings := visitor.DefaultSettings()
	settings.GeoURLTemplate = getenvDefault("GEOLOCATION_URL", settings.GeoURLTemplate)
	settings.WeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", settings.WeatherBaseURL)
	settings.WeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	settings.DefaultCity = getenvDefault("DEFAULT_CITY", settings.DefaultCity)
	settings.DefaultCountry = getenvDefault("DEFAULT_COUNTRY", settings.DefaultCountry)
	settings.TemperatureUnit = getenvDefault("TEMPERATURE_UNIT", settings.TemperatureUnit)

	// Default temperature template follows the configured unit unless
	// overridden explicitly.
	settings.TemperatureTemplate = getenvDefault("TEMPERATURE_TEMPLATE",
		fmt.Sprintf("{TEMP}°%s, {CITY}", settings.TemperatureUnit))
	settings.GreetingTemplate = getenvDefault("GREETING_TEMPLATE", settings.GreetingTemplate)
	settings.VisitorInfoTemplate = getenvDefault("VISITOR_INFO_TEMPLATE", settings.VisitorInfoTemplate)

	var err error
	settings.GeoCacheTTL, err = getenvDuration("GEO_CACHE_TTL", settings.GeoCacheTTL)
	if err != nil {
		return nil, err
	}
	settings.WeatherCacheTTL, err = getenvDuration("WEATHER_CACHE_TTL", settings.WeatherCacheTTL)
	if err != nil {
		return nil, err
	}

	if err := validateSettings(settings); err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		Visitor: settings,
		Port:    getenvDefault("PORT", "8080"),
	}

	cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.CacheSweepInterval, err = getenvDuration("CACHE_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.WarmInterval, err = getenvDuration("WARM_INTERVAL", settings.WeatherCacheTTL)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateSettings checks the fields the core cannot degrade around.
func validateSettings(s visitor.Settings) error {
	v := struct {
		GeoURLTemplate  string `validate:"required,contains={IP}"`
		WeatherBaseURL  string `validate:"required,url"`
		DefaultCity     string `validate:"required"`
		DefaultCountry  string `validate:"required"`
		TemperatureUnit string `validate:"required,oneof=F C"`
	}{
		GeoURLTemplate:  s.GeoURLTemplate,
		WeatherBaseURL:  s.WeatherBaseURL,
		DefaultCity:     s.DefaultCity,
		DefaultCountry:  s.DefaultCountry,
		TemperatureUnit: s.TemperatureUnit,
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
