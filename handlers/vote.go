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

var voteFields = map[string]string{
	"approve": "voteApprove",
	"deny":    "voteDeny",
	"unsure":  "voteUnsure",
}

// GetPendingVotes scans every group the user belongs to for check-ins the
// user has not voted on yet. Returns a 404 sentinel when nothing is pending.
func GetPendingVotes(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	pending := []models.Log{}
	for _, groupID := range user.Groups {
		cursor, err := database.Logs.Find(ctx, bson.M{"group": groupID})
		if err != nil {
			log.Printf("[GetPendingVotes] Failed to scan group %s: %v", groupID.Hex(), err)
			continue
		}
		var groupLogs []models.Log
		if err := cursor.All(ctx, &groupLogs); err != nil {
			log.Printf("[GetPendingVotes] Failed to decode logs for group %s: %v", groupID.Hex(), err)
			continue
		}
		for i := range groupLogs {
			if growth.IsPendingFor(&groupLogs[i], userID) {
				pending = append(pending, groupLogs[i])
			}
		}
	}

	if len(pending) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No pending votes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"pending": pending, "count": len(pending)})
}

// CastVote records an approve/deny/unsure response on a check-in. A member's
// latest vote wins; the move between vote arrays is one atomic update (see
// castUpdate). When approve votes reach floor(members/2) the log flips to
// approved exactly once and is added to the group's approvedLogs set.
func CastVote(c *gin.Context) {
	voterID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}
	logID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log ID"})
		return
	}

	var req struct {
		Vote string `json:"vote" binding:"required,oneof=approve deny unsure"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vote must be approve, deny or unsure"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var checkin models.Log
	err = database.Logs.FindOne(ctx, bson.M{"_id": logID}).Decode(&checkin)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Check-in not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	group, status, msg := requireMembership(ctx, checkin.Group, voterID)
	if status != 0 {
		c.JSON(status, gin.H{"error": msg})
		return
	}

	if _, err := database.Logs.UpdateOne(ctx, bson.M{"_id": logID}, castUpdate(req.Vote, voterID)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record vote"})
		return
	}

	approved := false
	if req.Vote == "approve" {
		approved, err = maybeApprove(ctx, logID, group)
		if err != nil {
			log.Printf("[CastVote] Approval check failed for log %s: %v", logID.Hex(), err)
		}
	}

	if wsManager != nil {
		wsManager.BroadcastGroupEvent(group.ID.Hex(), "vote_cast", map[string]interface{}{
			"logId":    logID.Hex(),
			"voter":    voterID.Hex(),
			"vote":     req.Vote,
			"approved": approved,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Vote recorded",
		"vote":     req.Vote,
		"approved": approved,
	})
}

// castUpdate builds the vote mutation: the voter is pulled from the two
// arrays they did not choose and added to the chosen one. A single document
// update, so two concurrent re-votes cannot interleave and leave the member
// in two arrays. The chosen array is only added to, never pulled from --
// Mongo rejects a $pull and $addToSet on the same path.
func castUpdate(vote string, voter primitive.ObjectID) bson.M {
	pull := bson.M{}
	for name, field := range voteFields {
		if name == vote {
			continue
		}
		pull[field] = voter
	}
	return bson.M{
		"$pull":     pull,
		"$addToSet": bson.M{voteFields[vote]: voter},
	}
}

// maybeApprove re-reads the vote tally and, if the majority is met, flips the
// log's approved flag. The flip is a compare-and-swap on approved:false, so
// concurrent qualifying votes approve the log exactly once.
func maybeApprove(ctx context.Context, logID primitive.ObjectID, group *models.Group) (bool, error) {
	var checkin models.Log
	if err := database.Logs.FindOne(ctx, bson.M{"_id": logID}).Decode(&checkin); err != nil {
		return false, err
	}

	if !growth.ShouldApprove(&checkin, len(group.Members)) {
		return checkin.Approved, nil
	}

	result, err := database.Logs.UpdateOne(ctx,
		bson.M{"_id": logID, "approved": false},
		bson.M{"$set": bson.M{"approved": true}})
	if err != nil {
		return false, err
	}
	if result.ModifiedCount == 0 {
		// Another voter won the transition; nothing left to do
		return true, nil
	}

	_, err = database.Groups.UpdateOne(ctx,
		bson.M{"_id": group.ID},
		bson.M{"$addToSet": bson.M{"approvedLogs": logID}})
	if err != nil {
		return true, err
	}

	var author models.User
	if err := database.Users.FindOne(ctx, bson.M{"_id": checkin.Author}).Decode(&author); err == nil {
		SendCheckinApprovedPush(author.ID, group.Name)
	}
	if wsManager != nil {
		wsManager.BroadcastGroupEvent(group.ID.Hex(), "checkin_approved", map[string]interface{}{
			"logId":  logID.Hex(),
			"author": checkin.Author.Hex(),
		})
	}

	log.Printf("[CastVote] Log %s approved for group %s", logID.Hex(), group.ID.Hex())
	return true, nil
}
