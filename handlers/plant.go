package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"growe/database"
	"growe/genai"
	"growe/growth"
	"growe/models"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const choiceCount = 4

// generationTimeout bounds one full art-pipeline run (text + images +
// background removal + vectorization for several stages).
const generationTimeout = 10 * time.Minute

// generatePlantArt runs the full art pipeline for one growth stage: generate
// a raster, host it, cut the background, vectorize, upload the SVG and
// destroy the intermediate rasters. Returns the hosted SVG URL.
func generatePlantArt(ctx context.Context, cld *cloudinary.Cloudinary, species *models.Species, stage, publicIDBase string) (string, error) {
	raster, err := genai.GenerateImage(ctx, genai.StagePrompt(species.Common, stage))
	if err != nil {
		return "", fmt.Errorf("image generation: %w", err)
	}

	rawID := publicIDBase + "_" + stage + "_raw"
	rawUpload, err := cld.Upload.Upload(ctx, strings.NewReader(string(raster)), uploader.UploadParams{
		Folder:   "growe/tmp",
		PublicID: rawID,
	})
	if err != nil {
		return "", fmt.Errorf("raster upload: %w", err)
	}

	cut, err := genai.RemoveBackground(ctx, rawUpload.SecureURL)
	if err != nil {
		return "", fmt.Errorf("background removal: %w", err)
	}

	cutID := publicIDBase + "_" + stage + "_cut"
	cutUpload, err := cld.Upload.Upload(ctx, strings.NewReader(string(cut)), uploader.UploadParams{
		Folder:   "growe/tmp",
		PublicID: cutID,
	})
	if err != nil {
		return "", fmt.Errorf("cut raster upload: %w", err)
	}

	svg, err := genai.Vectorize(ctx, cutUpload.SecureURL)
	if err != nil {
		return "", fmt.Errorf("vectorization: %w", err)
	}

	svgUpload, err := cld.Upload.Upload(ctx, strings.NewReader(svg), uploader.UploadParams{
		Folder:   "growe/plants",
		PublicID: publicIDBase + "_" + stage,
		Format:   "svg",
	})
	if err != nil {
		return "", fmt.Errorf("svg upload: %w", err)
	}

	// The rasters were only scaffolding for the vector output
	for _, id := range []string{"growe/tmp/" + rawID, "growe/tmp/" + cutID} {
		if _, err := cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: id}); err != nil {
			log.Printf("[PlantArt] Failed to destroy raster %s: %v", id, err)
		}
	}

	return svgUpload.SecureURL, nil
}

// EnsureChoices makes sure a plantless group has a choice set to pick from.
// An existing set the group is already considering, or an unclaimed fresh
// set, is adopted immediately. Otherwise the group transitions no_plant ->
// generating_choices (CAS, so concurrent members race safely), generation
// runs in the background and callers poll until the set is ready.
func EnsureChoices(c *gin.Context) {
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
	if group.Plant != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Group already has an active plant"})
		return
	}
	if group.LifecycleState == models.StateGeneratingChoices {
		c.JSON(http.StatusAccepted, gin.H{"status": "generating", "message": "Choice generation already in progress"})
		return
	}

	// Adopt a set this group is already considering, or an unclaimed one
	var existing models.ChoiceSet
	err = database.Choices.FindOne(ctx, bson.M{"$or": bson.A{
		bson.M{"undecided": groupID},
		bson.M{"undecided": bson.M{"$size": 0}, "decided": bson.M{"$size": 0}},
	}}).Decode(&existing)
	if err == nil {
		_, err = database.Choices.UpdateOne(ctx,
			bson.M{"_id": existing.ID},
			bson.M{"$addToSet": bson.M{"undecided": groupID}})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to claim choice set"})
			return
		}
		database.Groups.UpdateOne(ctx,
			bson.M{"_id": groupID, "lifecycleState": models.StateNoPlant},
			bson.M{"$set": bson.M{"lifecycleState": models.StateAwaitingSelection}})
		c.JSON(http.StatusOK, gin.H{"choices": existing})
		return
	}
	if err != mongo.ErrNoDocuments {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	// Claim the generation slot; losers of this race poll
	result, err := database.Groups.UpdateOne(ctx,
		bson.M{"_id": groupID, "lifecycleState": models.StateNoPlant},
		bson.M{"$set": bson.M{"lifecycleState": models.StateGeneratingChoices}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if result.ModifiedCount == 0 {
		c.JSON(http.StatusAccepted, gin.H{"status": "generating", "message": "Choice generation already in progress"})
		return
	}

	go runChoiceGeneration(groupID)

	c.JSON(http.StatusAccepted, gin.H{"status": "generating", "message": "Generating plant choices"})
}

// runChoiceGeneration produces a full choice set for the group and advances
// its lifecycle state. A failure releases the generation slot so the group
// can retry.
func runChoiceGeneration(groupID primitive.ObjectID) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[EnsureChoices] Panic during generation: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
	defer cancel()

	choiceSet, err := generateChoiceSet(ctx, groupID)
	if err != nil {
		log.Printf("[EnsureChoices] Generation failed for group %s: %v", groupID.Hex(), err)
		database.Groups.UpdateOne(ctx,
			bson.M{"_id": groupID, "lifecycleState": models.StateGeneratingChoices},
			bson.M{"$set": bson.M{"lifecycleState": models.StateNoPlant}})
		return
	}

	database.Groups.UpdateOne(ctx,
		bson.M{"_id": groupID, "lifecycleState": models.StateGeneratingChoices},
		bson.M{"$set": bson.M{"lifecycleState": models.StateAwaitingSelection}})

	if wsManager != nil {
		wsManager.BroadcastGroupEvent(groupID.Hex(), "choices_ready", map[string]interface{}{
			"choicesId": choiceSet.ID.Hex(),
		})
	}
}

func generateChoiceSet(ctx context.Context, groupID primitive.ObjectID) (*models.ChoiceSet, error) {
	cld, err := cloudinary.NewFromURL(os.Getenv("CLOUDINARY_URL"))
	if err != nil {
		return nil, err
	}

	speciesList, err := genai.GenerateSpecies(ctx, choiceCount)
	if err != nil {
		return nil, err
	}

	plantIDs := make([]primitive.ObjectID, 0, choiceCount)
	for i := range speciesList {
		plantID := primitive.NewObjectID()

		// Candidates are offered with their final (fruiting) look
		fruiting := growth.StageNames[growth.MaxGrowState]
		imageURL, err := generatePlantArt(ctx, cld, &speciesList[i], fruiting, plantID.Hex())
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}

		plant := models.Plant{
			ID:          plantID,
			Species:     speciesList[i],
			StageImages: []string{imageURL},
			GrowState:   0,
			CreatedAt:   time.Now().Unix(),
		}
		if _, err := database.Plants.InsertOne(ctx, plant); err != nil {
			return nil, err
		}
		plantIDs = append(plantIDs, plantID)
	}

	choiceSet := models.ChoiceSet{
		ID:        primitive.NewObjectID(),
		Plants:    plantIDs,
		Undecided: []primitive.ObjectID{groupID},
		Decided:   []primitive.ObjectID{},
		CreatedAt: time.Now().Unix(),
	}
	if _, err := database.Choices.InsertOne(ctx, choiceSet); err != nil {
		return nil, err
	}
	return &choiceSet, nil
}

// GetChoices returns the choice set the group is considering, candidates
// resolved.
func GetChoices(c *gin.Context) {
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

	var choiceSet models.ChoiceSet
	err = database.Choices.FindOne(ctx, bson.M{"undecided": groupID}).Decode(&choiceSet)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "No choice set for this group", "lifecycleState": group.LifecycleState})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	cursor, err := database.Plants.Find(ctx, bson.M{"_id": bson.M{"$in": choiceSet.Plants}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch candidates"})
		return
	}
	defer cursor.Close(ctx)

	plants := []models.Plant{}
	if err := cursor.All(ctx, &plants); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode candidates"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"choices": choiceSet, "plants": plants})
}

// SelectPlant commits the group to one of its four candidates. The decay
// clock starts and the group enters the growing state immediately; the five
// earlier growth-stage images are generated in the background and attached
// to the plant as they complete.
func SelectPlant(c *gin.Context) {
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

	var req struct {
		ChoiceIndex *int `json:"choiceIndex" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || *req.ChoiceIndex < 0 || *req.ChoiceIndex >= choiceCount {
		c.JSON(http.StatusBadRequest, gin.H{"error": "choiceIndex must be 0-3"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	group, status, msg := requireMembership(ctx, groupID, userID)
	if status != 0 {
		c.JSON(status, gin.H{"error": msg})
		return
	}
	if group.LifecycleState != models.StateAwaitingSelection {
		c.JSON(http.StatusConflict, gin.H{"error": "Group is not awaiting a selection", "lifecycleState": group.LifecycleState})
		return
	}

	var choiceSet models.ChoiceSet
	err = database.Choices.FindOne(ctx, bson.M{"undecided": groupID}).Decode(&choiceSet)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "No choice set for this group"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	plantID := choiceSet.Plants[*req.ChoiceIndex]
	var plant models.Plant
	if err := database.Plants.FindOne(ctx, bson.M{"_id": plantID}).Decode(&plant); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch plant"})
		return
	}

	// Selection is the race to win; the art can follow
	result, err := database.Groups.UpdateOne(ctx,
		bson.M{"_id": groupID, "lifecycleState": models.StateAwaitingSelection},
		bson.M{"$set": bson.M{"plant": plantID, "lifecycleState": models.StateGrowing}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update group"})
		return
	}
	if result.ModifiedCount == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Another member already selected a plant"})
		return
	}

	now := time.Now()
	decayAt := now.AddDate(0, 0, growth.DecayWindowDays).Unix()
	_, err = database.Plants.UpdateOne(ctx,
		bson.M{"_id": plantID},
		bson.M{"$set": bson.M{"decayAt": decayAt, "growState": 0}})
	if err != nil {
		log.Printf("[SelectPlant] Failed to set decay date on plant %s: %v", plantID.Hex(), err)
	}

	_, err = database.Choices.UpdateOne(ctx,
		bson.M{"_id": choiceSet.ID},
		bson.M{
			"$pull":     bson.M{"undecided": groupID},
			"$addToSet": bson.M{"decided": groupID},
		})
	if err != nil {
		log.Printf("[SelectPlant] Failed to mark choice set decided: %v", err)
	}

	go runStageArtGeneration(plantID, plant.Species)

	if wsManager != nil {
		wsManager.BroadcastGroupEvent(groupID.Hex(), "plant_selected", map[string]interface{}{
			"plantId": plantID.Hex(),
			"species": plant.Species.Common,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"plantId":   plantID.Hex(),
		"species":   plant.Species.Common,
		"decayDate": growth.DecayDate(now),
	})
}

// runStageArtGeneration fills in the five pre-fruiting stage images for a
// freshly selected plant. The offered fruiting image stays last.
func runStageArtGeneration(plantID primitive.ObjectID, species models.Species) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[SelectPlant] Panic during stage art generation: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
	defer cancel()

	cld, err := cloudinary.NewFromURL(os.Getenv("CLOUDINARY_URL"))
	if err != nil {
		log.Printf("[SelectPlant] Cloudinary configuration error: %v", err)
		return
	}

	var plant models.Plant
	if err := database.Plants.FindOne(ctx, bson.M{"_id": plantID}).Decode(&plant); err != nil {
		log.Printf("[SelectPlant] Failed to reload plant %s: %v", plantID.Hex(), err)
		return
	}
	offered := plant.StageImages[len(plant.StageImages)-1]

	stageImages := make([]string, 0, growth.MaxGrowState+1)
	for _, stage := range growth.StageNames[:growth.MaxGrowState] {
		url, err := generatePlantArt(ctx, cld, &species, stage, plantID.Hex())
		if err != nil {
			log.Printf("[SelectPlant] Stage art %q failed for plant %s: %v", stage, plantID.Hex(), err)
			return
		}
		stageImages = append(stageImages, url)
	}
	stageImages = append(stageImages, offered)

	_, err = database.Plants.UpdateOne(ctx,
		bson.M{"_id": plantID},
		bson.M{"$set": bson.M{"stageImages": stageImages}})
	if err != nil {
		log.Printf("[SelectPlant] Failed to attach stage art to plant %s: %v", plantID.Hex(), err)
		return
	}

	log.Printf("[SelectPlant] Stage art complete for plant %s", plantID.Hex())
}

// GetPlant returns the group's active plant with its derived grow state and
// decay progress. Growth advances are persisted here, on read.
func GetPlant(c *gin.Context) {
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
	if group.Plant == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active plant", "lifecycleState": group.LifecycleState})
		return
	}

	var plant models.Plant
	if err := database.Plants.FindOne(ctx, bson.M{"_id": *group.Plant}).Decode(&plant); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch plant"})
		return
	}

	state := growth.GrowState(len(group.ApprovedLogs), group.Frequency, len(group.Members))
	if state > plant.GrowState {
		_, err := database.Plants.UpdateOne(ctx,
			bson.M{"_id": plant.ID},
			bson.M{"$set": bson.M{"growState": state}})
		if err != nil {
			log.Printf("[GetPlant] Failed to persist grow state: %v", err)
		} else {
			plant.GrowState = state
		}
	}

	if plant.GrowState == growth.MaxGrowState && group.LifecycleState == models.StateGrowing {
		result, err := database.Groups.UpdateOne(ctx,
			bson.M{"_id": groupID, "lifecycleState": models.StateGrowing},
			bson.M{"$set": bson.M{"lifecycleState": models.StateGrown}})
		if err == nil && result.ModifiedCount > 0 {
			group.LifecycleState = models.StateGrown
			for _, member := range group.Members {
				SendPlantGrownPush(member, plant.Species.Common)
			}
			if wsManager != nil {
				wsManager.BroadcastGroupEvent(groupID.Hex(), "plant_grown", map[string]interface{}{
					"plantId": plant.ID.Hex(),
					"species": plant.Species.Common,
				})
			}
		}
	}

	planted := plant.CreatedAt
	if plant.DecayAt != 0 {
		planted = time.Unix(plant.DecayAt, 0).AddDate(0, 0, -growth.DecayWindowDays).Unix()
	}
	plantedAt := time.Unix(planted, 0)

	c.JSON(http.StatusOK, gin.H{
		"plant":          plant,
		"growState":      plant.GrowState,
		"lifecycleState": group.LifecycleState,
		"decayDate":      growth.DecayDate(plantedAt),
		"decayProgress":  growth.DecayProgress(plantedAt, time.Now()),
	})
}

// RetirePlant moves a fully grown plant into the group's garden and resets
// the group for a fresh cycle: active plant cleared, every member's approved
// check-in history wiped.
func RetirePlant(c *gin.Context) {
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	group, status, msg := requireMembership(ctx, groupID, userID)
	if status != 0 {
		c.JSON(status, gin.H{"error": msg})
		return
	}
	if group.Plant == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Group has no active plant"})
		return
	}
	if group.LifecycleState != models.StateGrown {
		c.JSON(http.StatusConflict, gin.H{"error": "Plant is not fully grown yet"})
		return
	}
	plantID := *group.Plant

	// The state flip IS the mutual exclusion: side effects only run on the
	// request that wins it, so a concurrent retire cannot double-plant the
	// garden or wipe logs twice.
	result, err := database.Groups.UpdateOne(ctx,
		bson.M{"_id": groupID, "lifecycleState": models.StateGrown},
		bson.M{"$set": bson.M{"plant": nil, "lifecycleState": models.StateNoPlant}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retire plant"})
		return
	}
	if result.ModifiedCount == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Plant was already retired"})
		return
	}

	_, err = database.Plants.UpdateOne(ctx,
		bson.M{"_id": plantID},
		bson.M{"$set": bson.M{"owned": true}})
	if err != nil {
		log.Printf("[RetirePlant] Failed to flag plant %s as owned: %v", plantID.Hex(), err)
	}

	if err := addPlantToGarden(ctx, group, plantID); err != nil {
		log.Printf("[RetirePlant] Garden update failed for group %s: %v", groupID.Hex(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update garden"})
		return
	}

	// Full reset: the next plant starts from zero
	_, err = database.Groups.UpdateOne(ctx,
		bson.M{"_id": groupID},
		bson.M{"$set": bson.M{"approvedLogs": []primitive.ObjectID{}}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset group"})
		return
	}
	for _, member := range group.Members {
		if err := clearMemberLogs(ctx, member, groupID); err != nil {
			log.Printf("[RetirePlant] Failed to clear logs for member %s: %v", member.Hex(), err)
		}
	}

	if wsManager != nil {
		wsManager.BroadcastGroupEvent(groupID.Hex(), "plant_retired", map[string]interface{}{
			"plantId": plantID.Hex(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"message": "Plant retired to garden", "plantId": plantID.Hex()})
}
