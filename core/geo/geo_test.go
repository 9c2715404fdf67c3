package geo

import (
	"math"
	"testing"

	"github.com/skiptow/dispatch/core/model"
)

func TestDistanceIdentity(t *testing.T) {
	pts := []model.Coordinate{
		{Lat: 0, Lng: 0},
		{Lat: 40.0, Lng: -74.0},
		{Lat: -90, Lng: 180},
	}
	for _, p := range pts {
		if d := Distance(p, p); d != 0 {
			t.Errorf("Distance(%v, %v) = %v, want 0", p, p, d)
		}
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := model.Coordinate{Lat: 40.0, Lng: -74.0}
	b := model.Coordinate{Lat: 51.5, Lng: -0.12}
	if d1, d2 := Distance(a, b), Distance(b, a); d1 != d2 {
		t.Errorf("distance not symmetric: %v vs %v", d1, d2)
	}
}

func TestDistanceAntipodal(t *testing.T) {
	a := model.Coordinate{Lat: 90, Lng: 0}
	b := model.Coordinate{Lat: -90, Lng: 180}
	d := Distance(a, b)
	if math.IsNaN(d) {
		t.Fatal("antipodal distance is NaN")
	}
	// Half the Earth's circumference, within a kilometer.
	want := math.Pi * 6371000
	if math.Abs(d-want) > 1000 {
		t.Errorf("antipodal distance = %v, want ~%v", d, want)
	}
}

func TestDistanceKnownValue(t *testing.T) {
	// 0.01 degrees of latitude is roughly 1113 m.
	a := model.Coordinate{Lat: 40.0, Lng: -74.0}
	b := model.Coordinate{Lat: 40.01, Lng: -74.0}
	d := Distance(a, b)
	if d < 1100 || d > 1125 {
		t.Errorf("distance = %v, want ~1113", d)
	}
}

func TestIsWithinRadius(t *testing.T) {
	if !IsWithinRadius(1113, 1) {
		t.Error("1113 m should be inside a 1 mile radius")
	}
	if IsWithinRadius(1113, 0.5) {
		t.Error("1113 m should be outside a 0.5 mile radius")
	}
	// Inclusive boundary.
	if !IsWithinRadius(1609.34, 1) {
		t.Error("exact boundary distance should be included")
	}
	if !IsWithinRadius(0, 0) {
		t.Error("zero distance inside zero radius")
	}
}
