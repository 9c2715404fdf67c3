package model

type assignmentState int

const (
	assignmentUnassigned assignmentState = iota
	assignmentBroadcasting
	assignmentAssigned
)

// Assignment describes who, if anyone, a service request is assigned to.
// It replaces the raw mechanicId field, which overloads a nullable string
// with the "any" sentinel.
type Assignment struct {
	state      assignmentState
	providerID string
}

// Unassigned returns the state of a request with no mechanic field at all.
func Unassigned() Assignment { return Assignment{state: assignmentUnassigned} }

// Broadcasting returns the state of a request open to any nearby mechanic.
func Broadcasting() Assignment { return Assignment{state: assignmentBroadcasting} }

// AssignedTo returns the state of a request claimed by a concrete mechanic.
func AssignedTo(providerID string) Assignment {
	return Assignment{state: assignmentAssigned, providerID: providerID}
}

// ParseAssignment decodes the raw mechanicId field. Null and missing values
// map to Unassigned, the "any" sentinel to Broadcasting, anything else to
// AssignedTo.
func ParseAssignment(v any) Assignment {
	s, ok := v.(string)
	if !ok || s == "" {
		return Unassigned()
	}
	if s == "any" {
		return Broadcasting()
	}
	return AssignedTo(s)
}

// Assigned reports whether a concrete mechanic holds the request and, if so,
// which one.
func (a Assignment) Assigned() (string, bool) {
	return a.providerID, a.state == assignmentAssigned
}

// Open reports whether the request still accepts candidates, i.e. it is
// unassigned or broadcasting.
func (a Assignment) Open() bool { return a.state != assignmentAssigned }
