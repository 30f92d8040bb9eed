package visitor

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Service exposes the public visitor-context entry points: temperature,
// greeting and visitor info. Every method returns a display string and
// never fails; lookup errors degrade to configured defaults.
type Service struct {
	settings Settings
	geo      *GeoResolver
	weather  *WeatherResolver
	hooks    *Hooks
	now      func() time.Time
}

// NewService wires the resolvers and formatters together. hooks may be nil;
// settings pass through the settings transforms before use. currentAddress
// supplies the ambient visitor address for calls that omit one.
func NewService(client *http.Client, settings Settings, cache Store, hooks *Hooks, currentAddress func() string) *Service {
	if hooks == nil {
		hooks = &Hooks{}
	}
	settings = applyHooks(hooks.Settings, settings)

	return &Service{
		settings: settings,
		geo:      NewGeoResolver(client, settings, cache, hooks, currentAddress),
		weather:  NewWeatherResolver(client, settings, cache, hooks),
		hooks:    hooks,
		now:      time.Now,
	}
}

// FormatTemperature renders the visitor's local temperature. The location
// comes from the resolved address when usable, else the configured default;
// a failed weather lookup is retried once against the default location
// before degrading to the literal UNKNOWN string.
func (s *Service) FormatTemperature(ctx context.Context, address, template string) string {
	geo := s.geo.Resolve(ctx, address)

	city, country := geo.City, geo.Country
	if city == "" || country == "" {
		city, country = s.settings.DefaultCity, s.settings.DefaultCountry
	}

	weather := s.weather.Resolve(ctx, city, country, address)
	if weather == nil {
		// Deliberate second attempt against the defaults, even when the
		// first attempt already used them. The retry is address-independent
		// so every visitor shares one default-location cache entry, the
		// same entry WarmDefaultWeather refreshes.
		city, country = s.settings.DefaultCity, s.settings.DefaultCountry
		weather = s.weather.Resolve(ctx, city, country, "")
	}
	if weather == nil {
		return fmt.Sprintf("UNKNOWN°%s, %s", s.settings.TemperatureUnit, city)
	}

	temp := convertKelvin(weather.TemperatureKelvin, s.settings.TemperatureUnit)

	if template == "" {
		template = s.settings.TemperatureTemplate
	}
	out := strings.NewReplacer(
		"{TEMP}", strconv.Itoa(int(math.Round(temp))),
		"{CITY}", city,
		"{COUNTRY}", country,
	).Replace(template)
	out = applyHooks(s.hooks.TemperatureFormat, out)

	return fmt.Sprintf(`<span class="visitor-temperature">%s</span>`, out)
}

// FormatGreeting renders a time-of-day greeting as observed in the
// visitor's timezone, or in the process-local zone when the address does
// not resolve to one.
func (s *Service) FormatGreeting(ctx context.Context, address, template string) string {
	geo := s.geo.Resolve(ctx, address)

	hour := hourInZone(s.now(), geo.Timezone)
	message := s.greetingLabel(bucketForHour(hour))

	if template == "" {
		template = s.settings.GreetingTemplate
	}
	out := strings.ReplaceAll(template, "{MESSAGE}", message)
	out = applyHooks(s.hooks.GreetingFormat, out)

	class := "visitor-greeting-" + normalizeToken(message)
	return fmt.Sprintf(`<span class="visitor-greeting %s">%s</span>`, class, out)
}

// FormatVisitorInfo renders the resolved geo attributes into template.
// Unresolved attributes substitute as empty strings.
func (s *Service) FormatVisitorInfo(ctx context.Context, address, template string) string {
	geo := s.geo.Resolve(ctx, address)

	if template == "" {
		template = s.settings.VisitorInfoTemplate
	}
	out := strings.NewReplacer(
		"{IP}", geo.Address,
		"{CITY}", geo.City,
		"{REGION}", geo.Region,
		"{COUNTRY}", geo.Country,
		"{LAT_LONG}", geo.Coordinates,
		"{POSTAL_CODE}", geo.PostalCode,
		"{TIMEZONE}", geo.Timezone,
	).Replace(template)
	out = applyHooks(s.hooks.VisitorInfoFormat, out)

	return fmt.Sprintf(`<span class="visitor-info">%s</span>`, out)
}

// WarmDefaultWeather refreshes the cached weather for the configured
// default location, keeping the fallback path answerable from cache.
func (s *Service) WarmDefaultWeather(ctx context.Context) {
	if s.weather.Resolve(ctx, s.settings.DefaultCity, s.settings.DefaultCountry, "") == nil {
		log.Printf("warm fetch failed for %s,%s", s.settings.DefaultCity, s.settings.DefaultCountry)
	}
}

func (s *Service) greetingLabel(bucket string) string {
	if label, ok := s.settings.GreetingLabels[bucket]; ok && label != "" {
		return label
	}
	return defaultGreetingLabels[bucket]
}

func convertKelvin(kelvin float64, unit string) float64 {
	if unit == "C" {
		return kelvin - 273.15
	}
	return 9.0/5.0*(kelvin-273.15) + 32
}
