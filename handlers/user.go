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

type ProfileUpdate struct {
	DisplayName  string `json:"displayName" form:"displayName"`
	PushEnabled  *bool  `json:"pushEnabled,omitempty" form:"pushEnabled"`
	ReminderHour *int   `json:"reminderHour,omitempty" form:"reminderHour"`
}

func GetMyProfile(c *gin.Context) {
	userIDStr := c.GetString("userId")
	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	if err != nil {
		log.Printf("[GetMyProfile] Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}

	if user.Avatar == "" {
		user.Avatar = fallbackAvatar
	}
	if user.Groups == nil {
		user.Groups = []primitive.ObjectID{}
	}
	if user.Logs == nil {
		user.Logs = []primitive.ObjectID{}
	}
	if len(user.Pledges) != 7 {
		user.Pledges = make([]bool, 7)
	}

	c.JSON(http.StatusOK, user)
}

func GetUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Printf("[GetUser] Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	// Public view only
	c.JSON(http.StatusOK, gin.H{
		"id":          user.ID.Hex(),
		"username":    user.Username,
		"displayName": user.DisplayName,
		"avatar":      user.Avatar,
	})
}

func UpdateMyProfile(c *gin.Context) {
	userIDStr := c.GetString("userId")
	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{}}

	var data ProfileUpdate
	if c.ContentType() == "application/json" {
		if err := c.ShouldBindJSON(&data); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON data"})
			return
		}
	} else {
		if err := c.Request.ParseMultipartForm(10 << 20); err != nil && err != http.ErrNotMultipart {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse form data"})
			return
		}
		if err := c.ShouldBind(&data); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form data"})
			return
		}
	}

	if data.DisplayName != "" {
		update["$set"].(bson.M)["displayName"] = data.DisplayName
	}
	if data.PushEnabled != nil {
		update["$set"].(bson.M)["settings.pushEnabled"] = *data.PushEnabled
	}
	if data.ReminderHour != nil && *data.ReminderHour >= 0 && *data.ReminderHour <= 23 {
		update["$set"].(bson.M)["settings.reminderHour"] = *data.ReminderHour
	}

	avatarFile, _, err := c.Request.FormFile("avatar")
	if err == nil {
		defer avatarFile.Close()

		cld, err := cloudinary.NewFromURL(os.Getenv("CLOUDINARY_URL"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Cloudinary configuration error"})
			return
		}

		uploadResult, err := cld.Upload.Upload(ctx, avatarFile, uploader.UploadParams{
			Folder:         "growe/avatars",
			PublicID:       userID.Hex(),
			Transformation: "c_limit,w_400,h_400,q_auto",
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload avatar"})
			return
		}

		update["$set"].(bson.M)["avatar"] = uploadResult.SecureURL
	}

	if len(update["$set"].(bson.M)) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No changes to update"})
		return
	}

	result, err := database.Users.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}

// UpdatePledges replaces the user's per-weekday commitment flags.
func UpdatePledges(c *gin.Context) {
	userIDStr := c.GetString("userId")
	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	var req struct {
		Pledges []bool `json:"pledges" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Pledges) != 7 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Pledges must be exactly 7 weekday flags"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := database.Users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"pledges": req.Pledges}})
	if err != nil {
		log.Printf("[UpdatePledges] Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update pledges"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Pledges updated successfully", "pledges": req.Pledges})
}
