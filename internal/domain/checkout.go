package domain

import "time"

// PendingCheckout is the full cart state captured at the moment the user
// starts checkout. The checkout flow reads it back from local state; it is
// not re-validated against the server at write time.
type PendingCheckout struct {
	ID         string         `json:"id"`
	UserEmail  string         `json:"user_email"`
	Items      []CartLineItem `json:"items"`
	Snapshot   CartSnapshot   `json:"snapshot"`
	CapturedAt time.Time      `json:"captured_at"`
}
