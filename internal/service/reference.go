package service

import "crypto/rand"

const bookingRefPrefix = "EVT-"

// NewBookingReference returns a customer-facing code of the form EVT-XXXXXXXX.
// The eight characters come from crypto/rand's base32 text (A-Z, 2-7); they are
// not backed by a uniqueness constraint, collisions being negligible at 40 bits.
func NewBookingReference() string {
	return bookingRefPrefix + rand.Text()[:8]
}
