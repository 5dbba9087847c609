package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Lifecycle states for a group's plant workflow. Multi-step transitions are
// guarded by compare-and-swap updates on this field.
const (
	StateNoPlant           = "no_plant"
	StateGeneratingChoices = "generating_choices"
	StateAwaitingSelection = "awaiting_selection"
	StateGrowing           = "growing"
	StateGrown             = "grown"
)

type Group struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name           string               `bson:"name" json:"name"`
	Habit          string               `bson:"habit" json:"habit"`
	Frequency      int                  `bson:"frequency" json:"frequency"` // check-ins per week, 1-7
	JoinCode       string               `bson:"joinCode" json:"joinCode"`
	Admin          primitive.ObjectID   `bson:"admin" json:"admin"`
	Members        []primitive.ObjectID `bson:"members" json:"members"`
	Plant          *primitive.ObjectID  `bson:"plant,omitempty" json:"plant"`
	ApprovedLogs   []primitive.ObjectID `bson:"approvedLogs" json:"approvedLogs"`
	LifecycleState string               `bson:"lifecycleState" json:"lifecycleState"`
	CreatedAt      int64                `bson:"createdAt" json:"createdAt"`
}
