package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BookingID       primitive.ObjectID `bson:"booking_id" json:"booking_id"`
	ReviewerID      string             `bson:"reviewer_id" json:"reviewer_id"`
	TargetID        string             `bson:"target_id" json:"target_id"`
	TargetRole      PartyRole          `bson:"target_role" json:"target_role"`
	Rating          int                `bson:"rating" json:"rating"`
	CategoryRatings map[string]int     `bson:"category_ratings,omitempty" json:"category_ratings,omitempty"`
	Comment         string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}

// ReviewStat is the aggregated rating for one target user.
type ReviewStat struct {
	TargetID string  `json:"target_id"`
	Count    int     `json:"count"`
	Average  float64 `json:"average_rating"`
}
