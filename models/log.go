package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Log is a single photo check-in. Vote arrays hold member IDs and are kept
// set-like ($addToSet); Approved flips to true exactly once when the approve
// votes reach the group majority.
type Log struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Author      primitive.ObjectID   `bson:"author" json:"author"`
	Group       primitive.ObjectID   `bson:"group" json:"group"`
	ImageURL    string               `bson:"imageUrl" json:"imageUrl"`
	VoteApprove []primitive.ObjectID `bson:"voteApprove" json:"voteApprove"`
	VoteDeny    []primitive.ObjectID `bson:"voteDeny" json:"voteDeny"`
	VoteUnsure  []primitive.ObjectID `bson:"voteUnsure" json:"voteUnsure"`
	Approved    bool                 `bson:"approved" json:"approved"`
	CreatedAt   int64                `bson:"createdAt" json:"createdAt"`
}
