package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ChoiceSet offers four candidate plants to groups. A group sits in Undecided
// while it considers the set and moves to Decided once it picks.
type ChoiceSet struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Plants    []primitive.ObjectID `bson:"plants" json:"plants"` // always 4
	Undecided []primitive.ObjectID `bson:"undecided" json:"undecided"`
	Decided   []primitive.ObjectID `bson:"decided" json:"decided"`
	CreatedAt int64                `bson:"createdAt" json:"createdAt"`
}
