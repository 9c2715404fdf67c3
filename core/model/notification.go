package model

// Notification is a transient push message delivered to a set of device
// tokens. Data carries optional structured payload entries understood by the
// mobile clients.
type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

// StoredMessage is a durable in-app message appended to a user's message
// subcollection in addition to, or instead of, a push delivery.
type StoredMessage struct {
	Title string
	Body  string
}
