// Package match computes the candidate set for a service request and the
// notification-relevant transitions between two request snapshots. Both are
// pure functions so they can be exercised without any store.
package match

import (
	"github.com/skiptow/dispatch/core/geo"
	"github.com/skiptow/dispatch/core/model"
)

// SelectCandidates returns the IDs of the providers that should be offered
// the request.
//
// A request already assigned to a concrete mechanic yields exactly that ID,
// with no eligibility check: delivery-time guards re-validate the recipient.
// An open request yields every eligible provider whose service radius covers
// the request location, in pool order. When the request location is unknown
// the set is empty; an unfiltered broadcast is never a fallback.
func SelectCandidates(reqLoc *model.Coordinate, a model.Assignment, pool []model.User) []string {
	if id, ok := a.Assigned(); ok {
		return []string{id}
	}
	if reqLoc == nil {
		return nil
	}
	var ids []string
	for _, p := range pool {
		if !p.EligibleForMatch() {
			continue
		}
		d := geo.Distance(*reqLoc, *p.Location)
		if geo.IsWithinRadius(d, p.RadiusMiles) {
			ids = append(ids, p.ID)
		}
	}
	return ids
}
