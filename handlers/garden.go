package handlers

import (
	"context"
	"net/http"
	"time"

	"growe/database"
	"growe/garden"
	"growe/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetGarden returns the group's garden, creating an empty one on first
// access.
func GetGarden(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}
	groupID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, status, msg := requireMembership(ctx, groupID, userID); status != 0 {
		c.JSON(status, gin.H{"error": msg})
		return
	}

	var g models.Garden
	err = database.Gardens.FindOne(ctx, bson.M{"group": groupID}).Decode(&g)
	if err == mongo.ErrNoDocuments {
		grid, size := garden.Layout(garden.Seed(groupID.Hex()), nil)
		g = models.Garden{
			ID:        primitive.NewObjectID(),
			Group:     groupID,
			Plants:    []primitive.ObjectID{},
			Grid:      grid,
			Size:      size,
			CreatedAt: time.Now().Unix(),
		}
		if _, err := database.Gardens.InsertOne(ctx, g); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create garden"})
			return
		}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch garden"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"garden": g})
}

// addPlantToGarden appends a retired plant and re-lays the grid out. The
// layout is deterministic per group, so a resize simply re-flows the
// existing plants onto the larger grid.
func addPlantToGarden(ctx context.Context, group *models.Group, plantID primitive.ObjectID) error {
	var g models.Garden
	err := database.Gardens.FindOne(ctx, bson.M{"group": group.ID}).Decode(&g)
	if err == mongo.ErrNoDocuments {
		g = models.Garden{
			ID:        primitive.NewObjectID(),
			Group:     group.ID,
			Plants:    []primitive.ObjectID{},
			CreatedAt: time.Now().Unix(),
		}
		if _, err := database.Gardens.InsertOne(ctx, g); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	plantIDs := garden.AddPlant(g.Plants, plantID)

	cursor, err := database.Plants.Find(ctx, bson.M{"_id": bson.M{"$in": plantIDs}})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var plants []models.Plant
	if err := cursor.All(ctx, &plants); err != nil {
		return err
	}

	// Display each retired plant at its final stage
	images := make([]string, 0, len(plants))
	for _, p := range plants {
		if len(p.StageImages) > 0 {
			images = append(images, p.StageImages[len(p.StageImages)-1])
		}
	}

	grid, size := garden.Layout(garden.Seed(group.ID.Hex()), images)

	_, err = database.Gardens.UpdateOne(ctx,
		bson.M{"_id": g.ID},
		bson.M{"$set": bson.M{"plants": plantIDs, "grid": grid, "size": size}})
	return err
}
