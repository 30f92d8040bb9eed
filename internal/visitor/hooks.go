package visitor

// WeatherParams are the request parameters for a weather lookup, exposed to
// transforms before the cache key and outbound request are built.
type WeatherParams struct {
	City    string
	Country string
	Address string
}

// Hooks are ordered lists of transform functions applied at fixed extension
// points. Each list runs in order; nil lists are no-ops. Registration
// happens at construction time only, so no synchronization is needed.
type Hooks struct {
	// Settings transforms run once, when the service is constructed.
	Settings []func(Settings) Settings

	// WeatherParams transforms run before each weather lookup.
	WeatherParams []func(WeatherParams) WeatherParams

	// GeoResponse and WeatherResponse transforms run on freshly fetched
	// records, before they are cached.
	GeoResponse     []func(GeoInfo) GeoInfo
	WeatherResponse []func(WeatherInfo) WeatherInfo

	// Formatted-output transforms run on the substituted template text,
	// before the display container is wrapped around it.
	TemperatureFormat []func(string) string
	GreetingFormat    []func(string) string
	VisitorInfoFormat []func(string) string
}

func applyHooks[T any](fns []func(T) T, v T) T {
	for _, fn := range fns {
		v = fn(v)
	}
	return v
}
