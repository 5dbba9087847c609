package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"growe/database"
	"growe/growth"
	"growe/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type CreateGroupRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=48"`
	Habit     string `json:"habit" binding:"required,min=1,max=120"`
	Frequency int    `json:"frequency" binding:"required"`
}

// GetMyGroups returns every group the user belongs to, or a 404 sentinel
// when they have none.
func GetMyGroups(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		log.Printf("[GetMyGroups] Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	if len(user.Groups) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No groups"})
		return
	}

	cursor, err := database.Groups.Find(ctx, bson.M{"_id": bson.M{"$in": user.Groups}})
	if err != nil {
		log.Printf("[GetMyGroups] Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch groups"})
		return
	}
	defer cursor.Close(ctx)

	groups := []models.Group{}
	if err := cursor.All(ctx, &groups); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode groups"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func CreateGroup(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Creator must resolve before anything is written
	var creator models.User
	err = database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&creator)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	joinCode, err := growth.JoinCode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate join code"})
		return
	}

	group := models.Group{
		ID:             primitive.NewObjectID(),
		Name:           req.Name,
		Habit:          req.Habit,
		Frequency:      growth.ClampFrequency(req.Frequency),
		JoinCode:       joinCode,
		Admin:          userID,
		Members:        []primitive.ObjectID{userID},
		ApprovedLogs:   []primitive.ObjectID{},
		LifecycleState: models.StateNoPlant,
		CreatedAt:      time.Now().Unix(),
	}

	if _, err := database.Groups.InsertOne(ctx, group); err != nil {
		log.Printf("[CreateGroup] Insert failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create group"})
		return
	}

	_, err = database.Users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"groups": group.ID}})
	if err != nil {
		log.Printf("[CreateGroup] Failed to append group to creator: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"group": group})
}

func JoinGroup(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	var req struct {
		JoinCode string `json:"joinCode" binding:"required,len=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var group models.Group
	err = database.Groups.FindOne(ctx, bson.M{"joinCode": req.JoinCode}).Decode(&group)
	if err == mongo.ErrNoDocuments {
		// Unknown code: sentinel, nothing mutated
		c.JSON(http.StatusNotFound, gin.H{"error": "No group with that join code"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	_, err = database.Groups.UpdateOne(ctx,
		bson.M{"_id": group.ID},
		bson.M{"$addToSet": bson.M{"members": userID}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join group"})
		return
	}

	_, err = database.Users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"groups": group.ID}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": group})
}

// GetGroup returns a group with member summaries. Members only: the group
// document carries the join code, which is the invite itself.
func GetGroup(c *gin.Context) {
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

	group, status, msg := requireMembership(ctx, groupID, userID)
	if status != 0 {
		c.JSON(status, gin.H{"error": msg})
		return
	}

	// Member summaries save the client a round of user fetches
	cursor, err := database.Users.Find(ctx, bson.M{"_id": bson.M{"$in": group.Members}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch members"})
		return
	}
	defer cursor.Close(ctx)

	members := []gin.H{}
	for cursor.Next(ctx) {
		var u models.User
		if err := cursor.Decode(&u); err != nil {
			continue
		}
		avatar := u.Avatar
		if avatar == "" {
			avatar = fallbackAvatar
		}
		members = append(members, gin.H{
			"id":          u.ID.Hex(),
			"username":    u.Username,
			"displayName": u.DisplayName,
			"avatar":      avatar,
		})
	}

	c.JSON(http.StatusOK, gin.H{"group": group, "members": members})
}

// requireMembership loads the group and verifies the user belongs to it.
func requireMembership(ctx context.Context, groupID, userID primitive.ObjectID) (*models.Group, int, string) {
	var group models.Group
	err := database.Groups.FindOne(ctx, bson.M{"_id": groupID}).Decode(&group)
	if err == mongo.ErrNoDocuments {
		return nil, http.StatusNotFound, "Group not found"
	}
	if err != nil {
		return nil, http.StatusInternalServerError, "Failed to fetch group"
	}
	if !growth.IsMember(group.Members, userID) {
		return nil, http.StatusForbidden, "Not a member of this group"
	}
	return &group, 0, ""
}
