package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCastUpdateMovesVoterAtomically(t *testing.T) {
	voter := primitive.NewObjectID()

	for vote, field := range voteFields {
		update := castUpdate(vote, voter)

		add := update["$addToSet"].(bson.M)
		if got, ok := add[field]; !ok || got != voter {
			t.Errorf("vote %q: chosen array %q not added to", vote, field)
		}
		if len(add) != 1 {
			t.Errorf("vote %q: %d arrays added to, want 1", vote, len(add))
		}

		pull := update["$pull"].(bson.M)
		if len(pull) != len(voteFields)-1 {
			t.Errorf("vote %q: %d arrays pulled from, want %d", vote, len(pull), len(voteFields)-1)
		}
		if _, clash := pull[field]; clash {
			t.Errorf("vote %q: %q both pulled and added, Mongo would reject the update", vote, field)
		}
		for otherField, got := range pull {
			if got != voter {
				t.Errorf("vote %q: pull on %q targets %v, want the voter", vote, otherField, got)
			}
		}
	}
}
