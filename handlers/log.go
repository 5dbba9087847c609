package handlers

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"growe/database"
	"growe/models"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateCheckin records a photo check-in against the user's most recently
// joined group and asks the other members to vote on it.
func CreateCheckin(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var user models.User
	err = database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if len(user.Groups) == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Join a group before checking in"})
		return
	}
	groupID := user.Groups[len(user.Groups)-1]

	if err := c.Request.ParseMultipartForm(10 << 20); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse form data"})
		return
	}
	photoFile, _, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No photo file provided"})
		return
	}
	defer photoFile.Close()

	cld, err := cloudinary.NewFromURL(os.Getenv("CLOUDINARY_URL"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cloudinary configuration error"})
		return
	}

	uploadResult, err := cld.Upload.Upload(ctx, photoFile, uploader.UploadParams{
		Folder:         "growe/checkins",
		PublicID:       userID.Hex() + "_" + time.Now().Format("20060102150405"),
		Transformation: "c_limit,w_800,h_800,q_auto",
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload photo"})
		return
	}

	checkin := models.Log{
		ID:          primitive.NewObjectID(),
		Author:      userID,
		Group:       groupID,
		ImageURL:    uploadResult.SecureURL,
		VoteApprove: []primitive.ObjectID{},
		VoteDeny:    []primitive.ObjectID{},
		VoteUnsure:  []primitive.ObjectID{},
		CreatedAt:   time.Now().Unix(),
	}

	if _, err := database.Logs.InsertOne(ctx, checkin); err != nil {
		log.Printf("[CreateCheckin] Insert failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create check-in"})
		return
	}

	_, err = database.Users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"logs": checkin.ID}})
	if err != nil {
		log.Printf("[CreateCheckin] Failed to append log to user: %v", err)
	}

	// Let the rest of the group know there is something to vote on
	var group models.Group
	if err := database.Groups.FindOne(ctx, bson.M{"_id": groupID}).Decode(&group); err == nil {
		for _, member := range group.Members {
			if member == userID {
				continue
			}
			SendVotePendingPush(member, user.DisplayName)
		}
	}
	if wsManager != nil {
		wsManager.BroadcastGroupEvent(groupID.Hex(), "checkin_created", map[string]interface{}{
			"logId":  checkin.ID.Hex(),
			"author": userID.Hex(),
		})
	}

	c.JSON(http.StatusCreated, gin.H{"log": checkin})
}

// GetGroupLogs returns every check-in for a group, regardless of vote state.
func GetGroupLogs(c *gin.Context) {
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

	cursor, err := database.Logs.Find(ctx, bson.M{"group": groupID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
		return
	}
	defer cursor.Close(ctx)

	logs := []models.Log{}
	if err := cursor.All(ctx, &logs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// GetApprovedLogs resolves the group's approvedLogs references. References
// that no longer resolve are dropped silently.
func GetApprovedLogs(c *gin.Context) {
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

	logs := []models.Log{}
	if len(group.ApprovedLogs) > 0 {
		cursor, err := database.Logs.Find(ctx, bson.M{"_id": bson.M{"$in": group.ApprovedLogs}})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
			return
		}
		defer cursor.Close(ctx)
		if err := cursor.All(ctx, &logs); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode logs"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

// GetUserLogs returns check-ins authored by a member. Callers other than the
// author only see logs from groups they share with them; check-in photos stay
// inside the groups they were submitted to.
func GetUserLogs(c *gin.Context) {
	callerID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}
	authorID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{"author": authorID}
	if callerID != authorID {
		var caller models.User
		if err := database.Users.FindOne(ctx, bson.M{"_id": callerID}).Decode(&caller); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
			return
		}
		if len(caller.Groups) == 0 {
			c.JSON(http.StatusOK, gin.H{"logs": []models.Log{}})
			return
		}
		filter["group"] = bson.M{"$in": caller.Groups}
	}

	cursor, err := database.Logs.Find(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
		return
	}
	defer cursor.Close(ctx)

	logs := []models.Log{}
	if err := cursor.All(ctx, &logs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// clearMemberLogs wipes one member's check-in history for a group: their log
// documents are deleted and the references removed from their log list. Used
// when a grown plant is retired and the group starts over.
func clearMemberLogs(ctx context.Context, memberID, groupID primitive.ObjectID) error {
	cursor, err := database.Logs.Find(ctx, bson.M{"author": memberID, "group": groupID})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var memberLogs []models.Log
	if err := cursor.All(ctx, &memberLogs); err != nil {
		return err
	}
	if len(memberLogs) == 0 {
		return nil
	}

	ids := make([]primitive.ObjectID, len(memberLogs))
	for i, l := range memberLogs {
		ids[i] = l.ID
	}

	if _, err := database.Logs.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return err
	}
	_, err = database.Users.UpdateOne(ctx,
		bson.M{"_id": memberID},
		bson.M{"$pull": bson.M{"logs": bson.M{"$in": ids}}})
	return err
}
