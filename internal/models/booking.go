package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	StatusRequested  BookingStatus = "requested"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
	StatusDisputed   BookingStatus = "disputed"
)

// allowedTransitions is the closed edge list of the booking lifecycle.
// Terminal statuses (completed, cancelled, disputed) have no outgoing edges.
var allowedTransitions = map[BookingStatus][]BookingStatus{
	StatusRequested:  {StatusConfirmed, StatusCancelled, StatusDisputed},
	StatusConfirmed:  {StatusInProgress, StatusCompleted, StatusCancelled, StatusDisputed},
	StatusInProgress: {StatusCompleted, StatusCancelled, StatusDisputed},
}

// CanTransition reports whether the edge from → to is permitted.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing edges.
func IsTerminal(s BookingStatus) bool {
	return len(allowedTransitions[s]) == 0
}

type Booking struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID   string             `bson:"client_id" json:"client_id"`
	ProviderID string             `bson:"provider_id" json:"provider_id"`
	JobID      string             `bson:"job_id" json:"job_id"`
	Amount     float64            `bson:"amount" json:"amount"`
	Status     BookingStatus      `bson:"status" json:"status"`
	Comment    string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

func (b *Booking) Validate() error {
	var fields []string
	if b.ClientID == "" {
		fields = append(fields, "client_id")
	}
	if b.ProviderID == "" {
		fields = append(fields, "provider_id")
	}
	if b.JobID == "" {
		fields = append(fields, "job_id")
	}
	if b.Amount <= 0 {
		fields = append(fields, "amount")
	}
	if b.ClientID != "" && b.ClientID == b.ProviderID {
		fields = append(fields, "provider_id")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// IsParty reports whether userID is one of the two booking parties.
func (b *Booking) IsParty(userID string) bool {
	return userID == b.ClientID || userID == b.ProviderID
}

// RoleOf returns the party role of userID on this booking, or "" if the
// user is not a party.
func (b *Booking) RoleOf(userID string) PartyRole {
	switch userID {
	case b.ClientID:
		return RoleClient
	case b.ProviderID:
		return RoleProvider
	}
	return ""
}

// OtherParty returns the counterparty of userID, or "" if the user is not
// a party.
func (b *Booking) OtherParty(userID string) string {
	switch userID {
	case b.ClientID:
		return b.ProviderID
	case b.ProviderID:
		return b.ClientID
	}
	return ""
}
