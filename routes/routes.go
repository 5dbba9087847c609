package routes

import (
	"context"
	"net/http"
	"time"

	"growe/database"
	"growe/handlers"
	"growe/middleware"
	"growe/models"
	"growe/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func SetupRouter(wsManager *websocket.Manager) *gin.Engine {
	router := gin.Default()

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Growe API is running",
			"time":    time.Now().Unix(),
		})
	})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:8080", "http://127.0.0.1:8080", "http://localhost:19006", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Public routes (no auth required); credential endpoints get a tighter
	// budget than the rest of the API
	auth := router.Group("/api")
	auth.Use(middleware.RateLimitMiddleware(middleware.NewIPRateLimiter(20, time.Minute)))
	auth.POST("/signup", handlers.Signup)
	auth.POST("/login", handlers.Login)
	auth.POST("/password-reset/request", handlers.RequestPasswordReset)
	auth.POST("/password-reset/confirm", handlers.ConfirmPasswordReset)

	router.GET("/api/vapid-public-key", handlers.GetVapidPublicKey)

	// Protected routes group
	protected := router.Group("/api")
	protected.Use(middleware.JWTAuthMiddleware())

	// Profile
	protected.GET("/me", handlers.GetMyProfile)
	protected.PUT("/me", handlers.UpdateMyProfile)
	protected.PUT("/me/pledges", handlers.UpdatePledges)
	protected.GET("/users/:id", handlers.GetUser)
	protected.GET("/users/:id/logs", handlers.GetUserLogs)

	// Groups
	protected.GET("/groups", handlers.GetMyGroups)
	protected.POST("/groups", handlers.CreateGroup)
	protected.POST("/groups/join", handlers.JoinGroup)
	protected.GET("/groups/:id", handlers.GetGroup)

	// Check-ins
	protected.POST("/checkins", handlers.CreateCheckin)
	protected.GET("/groups/:id/logs", handlers.GetGroupLogs)
	protected.GET("/groups/:id/logs/approved", handlers.GetApprovedLogs)

	// Voting
	protected.GET("/votes/pending", handlers.GetPendingVotes)
	protected.POST("/logs/:id/vote", handlers.CastVote)

	// Plant lifecycle
	protected.GET("/groups/:id/plant", handlers.GetPlant)
	protected.POST("/groups/:id/plant", handlers.SelectPlant)
	protected.POST("/groups/:id/plant/retire", handlers.RetirePlant)
	protected.GET("/groups/:id/choices", handlers.GetChoices)
	protected.POST("/groups/:id/choices", handlers.EnsureChoices)

	// Garden
	protected.GET("/groups/:id/garden", handlers.GetGarden)

	// Push subscriptions
	protected.POST("/subscribe", handlers.SubscribePush)

	// WebSocket: authenticated via ?token=, scoped to the user's groups
	ws := router.Group("/ws")
	ws.Use(middleware.JWTAuthMiddleware())
	ws.GET("", func(c *gin.Context) {
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

		groupIDs := make([]string, len(user.Groups))
		for i, id := range user.Groups {
			groupIDs[i] = id.Hex()
		}

		websocket.ServeWS(wsManager, c.Writer, c.Request, userID.Hex(), groupIDs)
	})

	// Catch-all for undefined API routes
	router.NoRoute(func(c *gin.Context) {
		if len(c.Request.URL.Path) >= 4 && c.Request.URL.Path[:4] == "/api" {
			c.JSON(404, gin.H{
				"error": "Endpoint not found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.Next()
	})

	return router
}
