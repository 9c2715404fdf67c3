package model

import (
	"math"
	"time"
)

// Role identifies the marketplace role of a user account.
type Role string

const (
	RoleMechanic Role = "mechanic"
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User is a marketplace account. Mechanics additionally carry the service
// area fields used for matching.
type User struct {
	ID           string
	Role         Role
	Username     string
	IsActive     bool
	Unavailable  bool
	Location     *Coordinate
	RadiusMiles  float64
	LastActiveAt time.Time
}

// EligibleForMatch reports whether the user can be offered a service request:
// an active, available mechanic with a known location and a usable service
// radius.
func (u User) EligibleForMatch() bool {
	if u.Role != RoleMechanic || !u.IsActive || u.Unavailable {
		return false
	}
	if u.Location == nil {
		return false
	}
	return u.RadiusMiles > 0 && !math.IsInf(u.RadiusMiles, 0) && !math.IsNaN(u.RadiusMiles)
}

// DecodeUser builds a User from a raw document snapshot. A radius field of
// the wrong type decodes to zero, which fails the eligibility check rather
// than the handler.
func DecodeUser(id string, data map[string]any) User {
	u := User{
		ID:           id,
		Role:         Role(toString(data["role"])),
		Username:     toString(data["username"]),
		IsActive:     toBool(data["isActive"]),
		Unavailable:  toBool(data["unavailable"]),
		Location:     DecodeCoordinate(data["location"]),
		LastActiveAt: toTime(data["lastActiveAt"]),
	}
	if r, ok := toFloat(data["radiusMiles"]); ok {
		u.RadiusMiles = r
	}
	return u
}
