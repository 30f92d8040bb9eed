package visitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"
)

// WeatherResolver resolves a city/country pair to current conditions,
// caching readings per (visitor address, city) pair.
type WeatherResolver struct {
	settings Settings
	cache    Store
	hooks    *Hooks
	httpCfg  clientConfig
	circuit  *gobreaker.CircuitBreaker
}

func NewWeatherResolver(client *http.Client, settings Settings, cache Store, hooks *Hooks) *WeatherResolver {
	return &WeatherResolver{
		settings: settings,
		cache:    cache,
		hooks:    hooks,
		httpCfg:  defaultClientConfig(client),
		circuit:  newCircuit("weather"),
	}
}

// Resolve returns the current weather for city/country, or nil when the
// lookup fails or the provider returns no usable temperature. Failures are
// never cached. The cache key deliberately includes the visitor address:
// request transforms may parameterize on it, at the cost of one cache
// entry per (address, city) pair instead of one per city.
func (r *WeatherResolver) Resolve(ctx context.Context, city, country, address string) *WeatherInfo {
	p := applyHooks(r.hooks.WeatherParams, WeatherParams{
		City:    city,
		Country: country,
		Address: address,
	})

	key := buildKey(weatherKeyPrefix, p.Address, p.City)
	if v, ok := r.cache.Get(key); ok {
		if info, ok := v.(WeatherInfo); ok && info.Usable() {
			return &info
		}
	}

	info, err := r.fetch(ctx, p.City, p.Country)
	if err != nil {
		log.Printf("weather lookup failed for %s,%s: %v", p.City, p.Country, err)
		return nil
	}
	if !info.Usable() {
		log.Printf("weather lookup for %s,%s returned no usable temperature", p.City, p.Country)
		return nil
	}

	info = applyHooks(r.hooks.WeatherResponse, info)
	r.cache.Set(key, info, r.settings.WeatherCacheTTL)
	return &info
}

func (r *WeatherResolver) fetch(ctx context.Context, city, country string) (WeatherInfo, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", fmt.Sprintf("%s,%s", city, country))
		values.Set("APPID", r.settings.WeatherAPIKey)

		u := fmt.Sprintf("%sweather?%s", r.settings.WeatherBaseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doResilientGet(ctx, r.httpCfg, r.circuit, buildRequest)
	if err != nil {
		return WeatherInfo{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return WeatherInfo{}, err
	}
	if len(body) == 0 {
		return WeatherInfo{}, fmt.Errorf("empty weather response")
	}

	var payload struct {
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return WeatherInfo{}, fmt.Errorf("malformed weather response: %w", err)
	}

	return WeatherInfo{
		TemperatureKelvin: payload.Main.Temp,
		Raw:               body,
	}, nil
}
