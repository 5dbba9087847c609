package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"growe/database"
	"growe/models"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func init() {
	// Initialize VAPID keys if not set in environment
	if os.Getenv("VAPID_PUBLIC_KEY") == "" || os.Getenv("VAPID_PRIVATE_KEY") == "" {
		publicKey, privateKey, err := webpush.GenerateVAPIDKeys()
		if err != nil {
			log.Printf("Failed to generate VAPID keys: %v", err)
			return
		}

		// In-memory keys are for development only; production deployments
		// must pin these in the environment.
		os.Setenv("VAPID_PUBLIC_KEY", publicKey)
		os.Setenv("VAPID_PRIVATE_KEY", privateKey)

		log.Println("Generated new VAPID keys - for production, set these as environment variables:")
		log.Printf("   VAPID_PUBLIC_KEY: %s", publicKey)
		log.Printf("   VAPID_PRIVATE_KEY: %s", privateKey)
	}

	vapidPrivateKey = os.Getenv("VAPID_PRIVATE_KEY")
}

func GetVapidPublicKey(c *gin.Context) {
	publicKey := os.Getenv("VAPID_PUBLIC_KEY")
	if publicKey == "" {
		c.JSON(http.StatusOK, gin.H{
			"error":   "VAPID public key not configured",
			"message": "Contact administrator",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"publicKey": publicKey})
}

func SubscribePush(c *gin.Context) {
	var req struct {
		Endpoint string `json:"endpoint" binding:"required"`
		Keys     struct {
			P256dh string `json:"p256dh" binding:"required"`
			Auth   string `json:"auth" binding:"required"`
		} `json:"keys" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sub := webpush.Subscription{
		Endpoint: req.Endpoint,
		Keys: webpush.Keys{
			P256dh: req.Keys.P256dh,
			Auth:   req.Keys.Auth,
		},
	}

	// Upsert: update if exists, insert if not. _id stays out of $set so a
	// re-subscribe does not touch the immutable field.
	_, err = database.PushSubs.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{"userId": userID, "sub": sub}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		log.Printf("Failed to save subscription: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Push subscription saved successfully",
		"userId":  userID.Hex(),
	})
}

// SendPushNotification delivers a notification to one user, honoring their
// push setting. Fire-and-forget; failures are logged, expired subscriptions
// are pruned.
func SendPushNotification(userID primitive.ObjectID, title, body string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Panic in push notification: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err == nil {
			if !user.Settings.PushEnabled {
				return
			}
		}

		var sub PushSubscription
		err := database.PushSubs.FindOne(ctx, bson.M{"userId": userID}).Decode(&sub)
		if err == mongo.ErrNoDocuments {
			return // No subscription
		}
		if err != nil {
			log.Printf("Failed to find subscription for user %s: %v", userID.Hex(), err)
			return
		}

		payload, err := json.Marshal(map[string]interface{}{
			"title": title,
			"body":  body,
			"data": map[string]interface{}{
				"timestamp": time.Now().Unix(),
			},
		})
		if err != nil {
			log.Printf("Failed to marshal push payload: %v", err)
			return
		}

		resp, err := webpush.SendNotification(payload, &sub.Sub, &webpush.Options{
			Subscriber:      "mailto:admin@growe.app",
			VAPIDPrivateKey: vapidPrivateKey,
			TTL:             30,
		})
		if err != nil {
			log.Printf("Failed to send push notification to user %s: %v", userID.Hex(), err)

			// If subscription is invalid (410), delete it
			if resp != nil && resp.StatusCode == 410 {
				if _, delErr := database.PushSubs.DeleteOne(ctx, bson.M{"userId": userID}); delErr != nil {
					log.Printf("Failed to delete expired subscription: %v", delErr)
				}
			}
			return
		}
		resp.Body.Close()
	}()
}

// SendVotePendingPush tells a member a new check-in awaits their vote.
func SendVotePendingPush(memberID primitive.ObjectID, authorName string) {
	if authorName == "" {
		authorName = "A group member"
	}
	SendPushNotification(memberID, "New check-in to review", authorName+" checked in - cast your vote")
}

// SendCheckinApprovedPush tells an author their check-in passed the vote.
func SendCheckinApprovedPush(authorID primitive.ObjectID, groupName string) {
	SendPushNotification(authorID, "Check-in approved", "Your check-in in "+groupName+" was approved by the group")
}

// SendPlantGrownPush celebrates a fully grown plant with the whole group.
func SendPlantGrownPush(memberID primitive.ObjectID, plantName string) {
	SendPushNotification(memberID, "Your plant is fully grown!", plantName+" is ready to be moved to the garden")
}
