package visitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/connectpx/visitor-context/internal/cache"
)

// testFixture runs mock geolocation and weather upstreams and counts the
// calls each receives.
type testFixture struct {
	svc          *Service
	geoCalls     atomic.Int64
	weatherCalls atomic.Int64
}

// newTestService builds a Service against mock upstreams. The geolocation
// upstream serves geo as JSON; the weather upstream serves kelvin as the
// main.temp reading (0 simulates a provider with no usable data). mutate,
// when non-nil, adjusts settings before construction; hooks may be nil.
func newTestService(t *testing.T, geo GeoInfo, kelvin float64, mutate func(*Settings), hooks *Hooks) *testFixture {
	t.Helper()

	f := &testFixture{}

	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.geoCalls.Add(1)
		_ = json.NewEncoder(w).Encode(geo)
	}))
	t.Cleanup(geoSrv.Close)

	weatherSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.weatherCalls.Add(1)
		fmt.Fprintf(w, `{"main":{"temp":%g}}`, kelvin)
	}))
	t.Cleanup(weatherSrv.Close)

	settings := DefaultSettings()
	settings.GeoURLTemplate = geoSrv.URL + "/{IP}/json"
	settings.WeatherBaseURL = weatherSrv.URL + "/"
	settings.WeatherAPIKey = "test-key"
	if mutate != nil {
		mutate(&settings)
	}

	store := cache.NewMemory(time.Minute)
	t.Cleanup(store.Close)

	f.svc = NewService(&http.Client{Timeout: 5 * time.Second}, settings, store, hooks, nil)
	return f
}

func usableGeo() GeoInfo {
	return GeoInfo{
		Address:     "1.2.3.4",
		City:        "Paris",
		Region:      "Ile-de-France",
		Country:     "FR",
		Coordinates: "48.8566,2.3522",
		PostalCode:  "75001",
		Timezone:    "UTC",
	}
}

func TestResolveGeoSecondCallHitsCache(t *testing.T) {
	f := newTestService(t, usableGeo(), 300.15, nil, nil)
	ctx := context.Background()

	first := f.svc.geo.Resolve(ctx, "1.2.3.4")
	second := f.svc.geo.Resolve(ctx, "1.2.3.4")

	if n := f.geoCalls.Load(); n != 1 {
		t.Fatalf("expected 1 upstream call, got %d", n)
	}
	if first != second {
		t.Fatalf("expected identical records, got %+v and %+v", first, second)
	}
}

func TestResolveGeoFailureNotCached(t *testing.T) {
	f := &testFixture{}

	// Upstream answers 200 with an empty body, which is a failed
	// resolution and must not be cached.
	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.geoCalls.Add(1)
	}))
	defer geoSrv.Close()

	settings := DefaultSettings()
	settings.GeoURLTemplate = geoSrv.URL + "/{IP}/json"

	store := cache.NewMemory(time.Minute)
	defer store.Close()

	f.svc = NewService(&http.Client{Timeout: 5 * time.Second}, settings, store, nil, nil)
	ctx := context.Background()

	if got := f.svc.geo.Resolve(ctx, "1.2.3.4"); got != (GeoInfo{}) {
		t.Fatalf("expected zero GeoInfo on failure, got %+v", got)
	}
	f.svc.geo.Resolve(ctx, "1.2.3.4")

	if n := f.geoCalls.Load(); n != 2 {
		t.Fatalf("expected a refetch after failure, got %d calls", n)
	}
}

func TestFormatTemperatureFahrenheit(t *testing.T) {
	f := newTestService(t, usableGeo(), 300.15, nil, nil)

	got := f.svc.FormatTemperature(context.Background(), "1.2.3.4", "")
	want := `<span class="visitor-temperature">81°F, Paris</span>`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormatTemperatureCelsius(t *testing.T) {
	f := newTestService(t, usableGeo(), 300.15, func(s *Settings) {
		s.TemperatureUnit = "C"
		s.TemperatureTemplate = "{TEMP}°C, {CITY}"
	}, nil)

	got := f.svc.FormatTemperature(context.Background(), "1.2.3.4", "")
	want := `<span class="visitor-temperature">27°C, Paris</span>`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormatTemperatureCustomTemplate(t *testing.T) {
	f := newTestService(t, usableGeo(), 300.15, nil, nil)

	got := f.svc.FormatTemperature(context.Background(), "1.2.3.4", "{CITY} ({COUNTRY}): {TEMP}")
	want := `<span class="visitor-temperature">Paris (FR): 81</span>`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormatTemperatureRetriesDefaultsThenDegrades(t *testing.T) {
	// Weather upstream reports temp 0, which is never usable, so both the
	// visitor-city attempt and the default-location retry fail.
	f := newTestService(t, usableGeo(), 0, nil, nil)

	got := f.svc.FormatTemperature(context.Background(), "1.2.3.4", "")
	want := "UNKNOWN°F, New York"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if n := f.weatherCalls.Load(); n != 2 {
		t.Fatalf("expected exactly one retry against defaults, got %d calls", n)
	}
}

func TestFormatTemperatureUsesDefaultsWhenGeoEmpty(t *testing.T) {
	f := newTestService(t, GeoInfo{}, 300.15, nil, nil)

	got := f.svc.FormatTemperature(context.Background(), "1.2.3.4", "")
	want := `<span class="visitor-temperature">81°F, New York</span>`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormatGreetingBuckets(t *testing.T) {
	cases := []struct {
		hour  int
		label string
		class string
	}{
		{8, "Good Morning", "good_morning"},
		{12, "Good Afternoon", "good_afternoon"},
		{17, "Good Evening", "good_evening"},
		{20, "Good Night", "good_night"},
		{3, "Good Night", "good_night"},
	}

	for _, tc := range cases {
		f := newTestService(t, usableGeo(), 300.15, nil, nil)
		f.svc.now = func() time.Time {
			return time.Date(2024, 6, 1, tc.hour, 30, 0, 0, time.UTC)
		}

		got := f.svc.FormatGreeting(context.Background(), "1.2.3.4", "")
		want := fmt.Sprintf(`<span class="visitor-greeting visitor-greeting-%s">Welcome, %s</span>`, tc.class, tc.label)
		if got != want {
			t.Errorf("hour %d: expected %q, got %q", tc.hour, want, got)
		}
	}
}

func TestFormatGreetingUsesVisitorTimezone(t *testing.T) {
	geo := usableGeo()
	geo.Timezone = "America/New_York"

	f := newTestService(t, geo, 300.15, nil, nil)
	// 13:00 UTC on a winter date is 08:00 in New York: morning there even
	// though it is afternoon in UTC.
	f.svc.now = func() time.Time {
		return time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
	}

	got := f.svc.FormatGreeting(context.Background(), "1.2.3.4", "")
	want := `<span class="visitor-greeting visitor-greeting-good_morning">Welcome, Good Morning</span>`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormatVisitorInfo(t *testing.T) {
	f := newTestService(t, usableGeo(), 300.15, nil, nil)

	got := f.svc.FormatVisitorInfo(context.Background(), "1.2.3.4", "")
	want := `<span class="visitor-info">1.2.3.4, Paris</span>`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormatVisitorInfoAllTokens(t *testing.T) {
	f := newTestService(t, usableGeo(), 300.15, nil, nil)

	template := "{IP}|{CITY}|{REGION}|{COUNTRY}|{LAT_LONG}|{POSTAL_CODE}|{TIMEZONE}"
	got := f.svc.FormatVisitorInfo(context.Background(), "1.2.3.4", template)
	want := `<span class="visitor-info">1.2.3.4|Paris|Ile-de-France|FR|48.8566,2.3522|75001|UTC</span>`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestHooksTransformSettingsAndOutput(t *testing.T) {
	hooks := &Hooks{
		Settings: []func(Settings) Settings{
			func(s Settings) Settings {
				s.DefaultCity = "Oslo"
				s.DefaultCountry = "NO"
				return s
			},
		},
		TemperatureFormat: []func(string) string{
			func(s string) string { return s + " today" },
		},
	}

	f := newTestService(t, GeoInfo{}, 300.15, nil, hooks)

	got := f.svc.FormatTemperature(context.Background(), "1.2.3.4", "")
	want := `<span class="visitor-temperature">81°F, Oslo today</span>`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWeatherParamsHookRewritesLookup(t *testing.T) {
	hooks := &Hooks{
		WeatherParams: []func(WeatherParams) WeatherParams{
			func(p WeatherParams) WeatherParams {
				p.City = "Lyon"
				return p
			},
		},
	}

	f := newTestService(t, usableGeo(), 300.15, nil, hooks)

	w := f.svc.weather.Resolve(context.Background(), "Paris", "FR", "1.2.3.4")
	if w == nil {
		t.Fatal("expected a weather reading")
	}

	// The rewritten city governs the cache key: a lookup for the rewritten
	// city must hit the cache without another upstream call.
	f.svc.weather.Resolve(context.Background(), "Lyon", "FR", "1.2.3.4")
	if n := f.weatherCalls.Load(); n != 1 {
		t.Fatalf("expected 1 upstream call, got %d", n)
	}
}

func TestWarmedDefaultServesFallbackDuringOutage(t *testing.T) {
	var kelvin atomic.Value
	kelvin.Store(300.15)

	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(usableGeo())
	}))
	defer geoSrv.Close()

	weatherSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"main":{"temp":%g}}`, kelvin.Load().(float64))
	}))
	defer weatherSrv.Close()

	settings := DefaultSettings()
	settings.GeoURLTemplate = geoSrv.URL + "/{IP}/json"
	settings.WeatherBaseURL = weatherSrv.URL + "/"
	settings.WeatherAPIKey = "test-key"

	store := cache.NewMemory(time.Minute)
	defer store.Close()

	svc := NewService(&http.Client{Timeout: 5 * time.Second}, settings, store, nil, nil)
	ctx := context.Background()

	svc.WarmDefaultWeather(ctx)

	// Provider outage: no usable readings from now on. The visitor-city
	// attempt fails, but the defaults retry must answer from the warmed
	// default-location entry.
	kelvin.Store(0.0)

	got := svc.FormatTemperature(ctx, "1.2.3.4", "")
	want := `<span class="visitor-temperature">81°F, New York</span>`
	if got != want {
		t.Fatalf("expected warmed default-location entry to serve the fallback, got %q", got)
	}
}

func TestResolveWeatherCachedPerAddress(t *testing.T) {
	f := newTestService(t, usableGeo(), 300.15, nil, nil)
	ctx := context.Background()

	f.svc.weather.Resolve(ctx, "Paris", "FR", "1.2.3.4")
	f.svc.weather.Resolve(ctx, "Paris", "FR", "1.2.3.4")
	if n := f.weatherCalls.Load(); n != 1 {
		t.Fatalf("expected 1 upstream call for repeated lookup, got %d", n)
	}

	// A different visitor address is a separate cache entry.
	f.svc.weather.Resolve(ctx, "Paris", "FR", "5.6.7.8")
	if n := f.weatherCalls.Load(); n != 2 {
		t.Fatalf("expected per-address cache entries, got %d calls", n)
	}
}
