package timezone

import (
	"strings"
	"time"
)

var airportTimezones = map[string]string{
	// North America
	"LAX": "America/Los_Angeles",
	"SFO": "America/Los_Angeles",
	"SEA": "America/Los_Angeles",
	"DEN": "America/Denver",
	"PHX": "America/Phoenix",
	"ORD": "America/Chicago",
	"DFW": "America/Chicago",
	"IAH": "America/Chicago",
	"JFK": "America/New_York",
	"EWR": "America/New_York",
	"BOS": "America/New_York",
	"ATL": "America/New_York",
	"MIA": "America/New_York",
	"YYZ": "America/Toronto",
	"YVR": "America/Vancouver",

	// Europe
	"LHR": "Europe/London",
	"LGW": "Europe/London",
	"CDG": "Europe/Paris",
	"AMS": "Europe/Amsterdam",
	"FRA": "Europe/Berlin",
	"MAD": "Europe/Madrid",
	"FCO": "Europe/Rome",
	"ZRH": "Europe/Zurich",

	// Asia-Pacific
	"NRT": "Asia/Tokyo",
	"HND": "Asia/Tokyo",
	"ICN": "Asia/Seoul",
	"PVG": "Asia/Shanghai",
	"HKG": "Asia/Hong_Kong",
	"SIN": "Asia/Singapore",
	"SYD": "Australia/Sydney",

	// Middle East
	"DXB": "Asia/Dubai",
	"DOH": "Asia/Qatar",
}

// GetTimezoneByAirport returns the IANA zone name for an IATA code, falling
// back to UTC for airports we do not know.
func GetTimezoneByAirport(code string) string {
	code = strings.ToUpper(code)
	if tz, ok := airportTimezones[code]; ok {
		return tz
	}
	return "UTC"
}

func GetLocationByAirport(code string) *time.Location {
	loc, err := time.LoadLocation(GetTimezoneByAirport(code))
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseTime accepts the timestamp formats seen across source APIs.
func ParseTime(timeStr string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05-0700",
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, timeStr); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &time.ParseError{
		Value:   timeStr,
		Message: "unable to parse time string",
	}
}

// ConvertToTimezone re-expresses t in the airport's local zone.
func ConvertToTimezone(t time.Time, airportCode string) time.Time {
	return t.In(GetLocationByAirport(airportCode))
}
