package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PartyRole string

const (
	RoleClient   PartyRole = "client"
	RoleProvider PartyRole = "provider"
)

// CompletionRecord is one party's declaration that the job is finished.
// At most one record exists per (booking, role) pair and a record is never
// updated or deleted after the first write: a resubmission returns the
// stored record as-is.
type CompletionRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BookingID   primitive.ObjectID `bson:"booking_id" json:"booking_id"`
	Role        PartyRole          `bson:"role" json:"role"`
	SubmitterID string             `bson:"submitter_id" json:"submitter_id"`
	Evidence    string             `bson:"evidence" json:"evidence"`
	TotalAmount float64            `bson:"total_amount" json:"total_amount"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// CompletionStatus is the pollable view of a booking's completion progress
// from one party's point of view.
type CompletionStatus struct {
	UserMarkedComplete       bool `json:"user_marked_complete"`
	OtherPartyMarkedComplete bool `json:"other_party_marked_complete"`
	BothCompleted            bool `json:"both_completed"`
	UserReviewSubmitted      bool `json:"user_review_submitted"`
}
