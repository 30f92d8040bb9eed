package visitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"
)

// GeoResolver resolves a network address to location attributes, caching
// results so repeat visitors do not hit the geolocation service again.
type GeoResolver struct {
	settings       Settings
	cache          Store
	hooks          *Hooks
	httpCfg        clientConfig
	circuit        *gobreaker.CircuitBreaker
	currentAddress func() string
}

// NewGeoResolver creates a GeoResolver. currentAddress supplies the ambient
// visitor address when a lookup is invoked without one; nil means lookups
// without an address resolve the caller of the geolocation service itself.
func NewGeoResolver(client *http.Client, settings Settings, cache Store, hooks *Hooks, currentAddress func() string) *GeoResolver {
	return &GeoResolver{
		settings:       settings,
		cache:          cache,
		hooks:          hooks,
		httpCfg:        defaultClientConfig(client),
		circuit:        newCircuit("geolocation"),
		currentAddress: currentAddress,
	}
}

// Resolve returns the location attributes for address, or a zero GeoInfo
// when resolution fails. Failures are never cached, so transient outages
// self-heal on the next call. A cached record missing city, country or
// timezone triggers a refetch.
func (r *GeoResolver) Resolve(ctx context.Context, address string) GeoInfo {
	if address == "" && r.currentAddress != nil {
		address = r.currentAddress()
	}

	key := buildKey(geoKeyPrefix, address)
	if v, ok := r.cache.Get(key); ok {
		if info, ok := v.(GeoInfo); ok && info.Usable() {
			return info
		}
	}

	info, err := r.fetch(ctx, address)
	if err != nil {
		log.Printf("geo lookup failed for %q: %v", address, err)
		return GeoInfo{}
	}

	info = applyHooks(r.hooks.GeoResponse, info)
	r.cache.Set(key, info, r.settings.GeoCacheTTL)
	return info
}

func (r *GeoResolver) fetch(ctx context.Context, address string) (GeoInfo, error) {
	buildRequest := func() (*http.Request, error) {
		u := strings.ReplaceAll(r.settings.GeoURLTemplate, "{IP}", url.PathEscape(address))
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doResilientGet(ctx, r.httpCfg, r.circuit, buildRequest)
	if err != nil {
		return GeoInfo{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return GeoInfo{}, err
	}
	if len(body) == 0 {
		return GeoInfo{}, fmt.Errorf("empty geolocation response")
	}

	var info GeoInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return GeoInfo{}, fmt.Errorf("malformed geolocation response: %w", err)
	}

	// The service reports the address it resolved, which may differ from
	// the raw input. Keep the input when the field is absent.
	if info.Address == "" {
		info.Address = address
	}
	return info, nil
}
