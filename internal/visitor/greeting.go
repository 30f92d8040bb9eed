package visitor

import "time"

// Greeting buckets keyed by hour-of-day range.
const (
	BucketGoodDay       = "good_day"
	BucketGoodMorning   = "good_morning"
	BucketGoodAfternoon = "good_afternoon"
	BucketGoodEvening   = "good_evening"
	BucketGoodNight     = "good_night"
)

var defaultGreetingLabels = map[string]string{
	BucketGoodDay:       "Good Day",
	BucketGoodMorning:   "Good Morning",
	BucketGoodAfternoon: "Good Afternoon",
	BucketGoodEvening:   "Good Evening",
	BucketGoodNight:     "Good Night",
}

// bucketForHour maps an hour of day (0-23) to a greeting bucket. The ranges
// cover all 24 hours, so BucketGoodDay is configuration surface only; no
// hour selects it.
func bucketForHour(hour int) string {
	switch {
	case hour >= 6 && hour <= 11:
		return BucketGoodMorning
	case hour >= 12 && hour <= 16:
		return BucketGoodAfternoon
	case hour >= 17 && hour <= 19:
		return BucketGoodEvening
	default:
		return BucketGoodNight
	}
}

// hourInZone returns the hour-of-day observed at now in the named IANA
// timezone. An empty or unknown name falls back to the process-local zone.
// Pure with respect to process state; never touches the ambient timezone.
func hourInZone(now time.Time, tz string) int {
	loc := time.Local
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	return now.In(loc).Hour()
}
