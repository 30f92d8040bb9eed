package visitor

import "testing"

func TestBuildKeyDeterministic(t *testing.T) {
	a := buildKey(weatherKeyPrefix, "1.2.3.4", "New York")
	b := buildKey(weatherKeyPrefix, "1.2.3.4", "New York")
	if a != b {
		t.Fatalf("expected identical keys, got %q and %q", a, b)
	}
	if a != "weather_1234_new_york" {
		t.Fatalf("unexpected key %q", a)
	}
}

func TestBuildKeyNormalizesCity(t *testing.T) {
	a := buildKey(weatherKeyPrefix, "1.2.3.4", "New York")
	b := buildKey(weatherKeyPrefix, "1.2.3.4", "  new YORK ")
	if a != b {
		t.Fatalf("expected case-insensitive equality, got %q and %q", a, b)
	}
}

func TestBuildKeyStripsAddressSeparators(t *testing.T) {
	if got := buildKey(geoKeyPrefix, "1.2.3.4"); got != "geoinfo_1234" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := buildKey(geoKeyPrefix, "2001:db8::1"); got != "geoinfo_2001db81" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestBuildKeyDistinguishesAddresses(t *testing.T) {
	a := buildKey(weatherKeyPrefix, "1.2.3.4", "paris")
	b := buildKey(weatherKeyPrefix, "5.6.7.8", "paris")
	if a == b {
		t.Fatalf("expected distinct keys for distinct addresses, got %q", a)
	}
}
