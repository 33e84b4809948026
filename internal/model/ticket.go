package model

import (
	"slices"
	"strings"
)

// TicketType is the closed set of ticket tiers an event sells.
type TicketType string

const (
	TicketGeneral TicketType = "general"
	TicketVIP     TicketType = "vip"
	TicketPremium TicketType = "premium"
)

// ParseTicketType maps a client-supplied tier name onto the closed set.
// Empty or unrecognized names resolve to general; ok reports whether the
// name was recognized.
func ParseTicketType(s string) (t TicketType, ok bool) {
	switch TicketType(strings.ToLower(strings.TrimSpace(s))) {
	case TicketGeneral:
		return TicketGeneral, true
	case TicketVIP:
		return TicketVIP, true
	case TicketPremium:
		return TicketPremium, true
	}
	return TicketGeneral, false
}

// TicketStatus is the registration lifecycle state of a ticket.
//
//	pending ──accept──▶ registered ──cancel──▶ refunded
//	   │                    │
//	   └──reject──▶ rejected ◀──reject──┘
//	   └──cancel──▶ refunded
type TicketStatus string

const (
	StatusPending    TicketStatus = "pending"
	StatusRegistered TicketStatus = "registered"
	StatusRejected   TicketStatus = "rejected"
	StatusRefunded   TicketStatus = "refunded"
)

var transitions = map[TicketStatus][]TicketStatus{
	StatusPending:    {StatusRegistered, StatusRejected, StatusRefunded},
	StatusRegistered: {StatusRejected, StatusRefunded},
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ReleasesCapacity reports whether the transition s -> next must give a seat
// back to the ledger. Only a registered ticket being rejected does; refunds
// from a cancellation leave the counter alone.
func (s TicketStatus) ReleasesCapacity(next TicketStatus) bool {
	return s == StatusRegistered && next == StatusRejected
}

// RefundableStatuses are the statuses a cancellation cascade refunds.
var RefundableStatuses = []TicketStatus{StatusPending, StatusRegistered}

// Refundable reports whether a cancellation cascade refunds a ticket in status s.
func (s TicketStatus) Refundable() bool {
	return slices.Contains(RefundableStatuses, s)
}
