package models

import "fmt"

// wmoCodes maps WMO weather interpretation codes to human-readable descriptions,
// per the Open-Meteo documentation.
var wmoCodes = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snowfall",
	73: "Moderate snowfall",
	75: "Heavy snowfall",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// Conditions converts a WMO weather code to a human-readable string.
// Unmapped codes fall back to a string embedding the numeric code, so the
// lookup is total.
func Conditions(code int) string {
	if desc, ok := wmoCodes[code]; ok {
		return desc
	}
	return fmt.Sprintf("Unknown (code %d)", code)
}
