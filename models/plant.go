package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Species holds the generated description of a (possibly fictional) plant.
type Species struct {
	Common      string   `bson:"common" json:"common"`
	Scientific  string   `bson:"scientific" json:"scientific"`
	Family      string   `bson:"family" json:"family"`
	Genus       string   `bson:"genus" json:"genus"`
	Species     string   `bson:"species" json:"species"`
	Habitat     string   `bson:"habitat" json:"habitat"`
	Region      []string `bson:"region" json:"region"`
	Uses        []string `bson:"uses" json:"uses"`
	Description string   `bson:"description" json:"description"`
	Habit       string   `bson:"habit" json:"habit"` // growth habit: herb, shrub, vine...
	Flowering   string   `bson:"flowering" json:"flowering"`
	Edible      bool     `bson:"edible" json:"edible"`
	Toxicity    string   `bson:"toxicity" json:"toxicity"`
}

// Plant is one candidate or active plant. StageImages is indexed by growth
// stage (0-5, last = fruiting); GrowState advances as the group's approved
// check-ins accumulate.
type Plant struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Species     Species            `bson:"species" json:"species"`
	StageImages []string           `bson:"stageImages" json:"stageImages"`
	GrowState   int                `bson:"growState" json:"growState"`
	DecayAt     int64              `bson:"decayAt,omitempty" json:"decayAt"`
	Owned       bool               `bson:"owned" json:"owned"`
	CreatedAt   int64              `bson:"createdAt" json:"createdAt"`
}
