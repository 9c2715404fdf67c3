package match

import (
	"math"
	"reflect"
	"testing"

	"github.com/skiptow/dispatch/core/model"
)

func mechanic(id string, lat, lng, radius float64) model.User {
	return model.User{
		ID:          id,
		Role:        model.RoleMechanic,
		IsActive:    true,
		Location:    &model.Coordinate{Lat: lat, Lng: lng},
		RadiusMiles: radius,
	}
}

func TestSelectCandidatesAssignedBypassesFilter(t *testing.T) {
	// An assigned request targets exactly that mechanic, even if the pool
	// would have rejected them.
	pool := []model.User{{ID: "m1", Role: model.RoleMechanic, IsActive: false}}
	got := SelectCandidates(nil, model.AssignedTo("m1"), pool)
	if !reflect.DeepEqual(got, []string{"m1"}) {
		t.Fatalf("got %v, want [m1]", got)
	}
}

func TestSelectCandidatesRadius(t *testing.T) {
	req := &model.Coordinate{Lat: 40.0, Lng: -74.0}
	pool := []model.User{
		mechanic("near", 40.01, -74.0, 1),    // ~0.69 mi away
		mechanic("tight", 40.01, -74.0, 0.5), // same spot, radius too small
		mechanic("far", 41.0, -74.0, 5),      // ~69 mi away
	}
	got := SelectCandidates(req, model.Broadcasting(), pool)
	if !reflect.DeepEqual(got, []string{"near"}) {
		t.Fatalf("got %v, want [near]", got)
	}
}

func TestSelectCandidatesEligibility(t *testing.T) {
	req := &model.Coordinate{Lat: 40.0, Lng: -74.0}

	inactive := mechanic("inactive", 40.0, -74.0, 10)
	inactive.IsActive = false

	unavailable := mechanic("unavailable", 40.0, -74.0, 10)
	unavailable.Unavailable = true

	noLocation := mechanic("nolocation", 40.0, -74.0, 10)
	noLocation.Location = nil

	noRadius := mechanic("noradius", 40.0, -74.0, 0)

	nanRadius := mechanic("nanradius", 40.0, -74.0, math.NaN())

	customer := mechanic("customer", 40.0, -74.0, 10)
	customer.Role = model.RoleCustomer

	pool := []model.User{inactive, unavailable, noLocation, noRadius, nanRadius, customer, mechanic("ok", 40.0, -74.0, 10)}
	got := SelectCandidates(req, model.Unassigned(), pool)
	if !reflect.DeepEqual(got, []string{"ok"}) {
		t.Fatalf("got %v, want [ok]", got)
	}
}

func TestSelectCandidatesNoRequestLocation(t *testing.T) {
	pool := []model.User{mechanic("m1", 40.0, -74.0, 100)}
	if got := SelectCandidates(nil, model.Broadcasting(), pool); len(got) != 0 {
		t.Fatalf("expected empty set without a request location, got %v", got)
	}
}

func TestSelectCandidatesPoolOrder(t *testing.T) {
	req := &model.Coordinate{Lat: 40.0, Lng: -74.0}
	pool := []model.User{
		mechanic("b", 40.02, -74.0, 5),
		mechanic("a", 40.001, -74.0, 5),
	}
	got := SelectCandidates(req, model.Broadcasting(), pool)
	if !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Fatalf("candidates not in pool order: %v", got)
	}
}
