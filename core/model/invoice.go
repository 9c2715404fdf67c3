package model

import "time"

// Invoice is a service request raised by a customer. The candidate and
// responded lists bound one broadcast round: Responded is the subset of
// Candidates that have answered, by accepting or declining.
type Invoice struct {
	ID               string
	CustomerID       string
	Assignment       Assignment
	MechanicUsername string
	Location         *Coordinate
	Candidates       []string
	Responded        []string
	MechanicAccepted bool
	PaymentStatus    string
	InvoiceStatus    string
	InvoiceNumber    string
	CreatedAt        time.Time
}

// Number returns the human-facing invoice number, falling back to the
// document ID when none was recorded.
func (inv Invoice) Number() string {
	if inv.InvoiceNumber != "" {
		return inv.InvoiceNumber
	}
	return inv.ID
}

// DecodeInvoice builds an Invoice from a raw document snapshot. Decoding
// never fails: absent or wrong-typed fields coerce to their zero values so
// that a malformed document skips conditions instead of aborting the
// handler.
func DecodeInvoice(id string, data map[string]any) Invoice {
	return Invoice{
		ID:               id,
		CustomerID:       toString(data["customerId"]),
		Assignment:       ParseAssignment(data["mechanicId"]),
		MechanicUsername: toString(data["mechanicUsername"]),
		Location:         DecodeCoordinate(data["location"]),
		Candidates:       toStringSlice(data["mechanicCandidates"]),
		Responded:        toStringSlice(data["mechanicResponded"]),
		MechanicAccepted: toBool(data["mechanicAccepted"]),
		PaymentStatus:    toString(data["paymentStatus"]),
		InvoiceStatus:    toString(data["invoiceStatus"]),
		InvoiceNumber:    toString(data["invoiceNumber"]),
		CreatedAt:        toTime(data["createdAt"]),
	}
}
