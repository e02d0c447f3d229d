package models

import (
	"strings"
	"testing"
)

func TestConditions_KnownCodes(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{0, "Clear sky"},
		{2, "Partly cloudy"},
		{63, "Moderate rain"},
		{75, "Heavy snowfall"},
		{95, "Thunderstorm"},
		{99, "Thunderstorm with heavy hail"},
	}

	for _, tt := range tests {
		if got := Conditions(tt.code); got != tt.want {
			t.Errorf("Conditions(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestConditions_UnknownCodeFallback(t *testing.T) {
	got := Conditions(999)
	if !strings.Contains(got, "Unknown") {
		t.Errorf("Conditions(999) = %q, want it to contain %q", got, "Unknown")
	}
	if !strings.Contains(got, "999") {
		t.Errorf("Conditions(999) = %q, want it to contain the numeric code", got)
	}
}

func TestConditions_TotalOverRange(t *testing.T) {
	for code := -5; code <= 105; code++ {
		if got := Conditions(code); got == "" {
			t.Fatalf("Conditions(%d) returned empty string", code)
		}
	}
}

func TestCoordinates_RoundTrip(t *testing.T) {
	loc := Coordinates{Latitude: 52.52, Longitude: 13.41}
	if loc.Latitude != 52.52 {
		t.Errorf("Latitude = %v, want 52.52", loc.Latitude)
	}
	if loc.Longitude != 13.41 {
		t.Errorf("Longitude = %v, want 13.41", loc.Longitude)
	}
}
