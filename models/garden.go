package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Block types for garden grid cells.
const (
	BlockGrass = "grass"
	BlockDirt  = "dirt"
	BlockStone = "stone"
	BlockWater = "water"
)

type Cell struct {
	Block      string `bson:"block" json:"block"`
	Plantable  bool   `bson:"plantable" json:"plantable"`
	Planted    bool   `bson:"planted" json:"planted"`
	PlantImage string `bson:"plantImage,omitempty" json:"plantImage,omitempty"`
}

// Garden holds a group's retired plants laid out on an isometric grid.
type Garden struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Group     primitive.ObjectID   `bson:"group" json:"group"`
	Plants    []primitive.ObjectID `bson:"plants" json:"plants"`
	Grid      [][]Cell             `bson:"grid" json:"grid"`
	Size      int                  `bson:"size" json:"size"`
	CreatedAt int64                `bson:"createdAt" json:"createdAt"`
}
