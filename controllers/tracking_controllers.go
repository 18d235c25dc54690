package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Manuekle/gymratplus-sub004/channels"
	"github.com/Manuekle/gymratplus-sub004/models"
	"github.com/Manuekle/gymratplus-sub004/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TrackingController adalah producer event: aksi domain dicatat ke database
// lalu dipublish ke channel; drainer yang mengubahnya menjadi notifikasi.
type TrackingController struct {
	DB        *gorm.DB
	Publisher *channels.Publisher
}

func NewTrackingController(db *gorm.DB, pub *channels.Publisher) *TrackingController {
	return &TrackingController{DB: db, Publisher: pub}
}

// LogWater -> POST /tracking/water
func (tc *TrackingController) LogWater(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthenticated"))
		return
	}

	var req struct {
		AmountML int `json:"amount_ml" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err)
		return
	}

	entry := models.WaterLog{UserID: userID, AmountML: req.AmountML}
	if err := tc.DB.Create(&entry).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	// Publish gagal tidak menggagalkan pencatatan; notifikasi bersifat advisory
	if err := tc.Publisher.Water(c.Request.Context(), userID, req.AmountML); err != nil {
		utils.ErrorLogger.Printf("Error publishing water event: %v", err)
	}

	utils.RespondJSON(c, http.StatusCreated, "Water intake logged", entry)
}

// StartWorkout -> POST /tracking/workout/start
func (tc *TrackingController) StartWorkout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthenticated"))
		return
	}

	var req struct {
		WorkoutName string `json:"workout_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err)
		return
	}

	session := models.WorkoutSession{
		UserID:      userID,
		WorkoutName: req.WorkoutName,
		Status:      channels.WorkoutStarted,
		StartedAt:   time.Now(),
	}
	if err := tc.DB.Create(&session).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if err := tc.Publisher.Workout(c.Request.Context(), userID, channels.WorkoutStarted, req.WorkoutName); err != nil {
		utils.ErrorLogger.Printf("Error publishing workout event: %v", err)
	}

	utils.RespondJSON(c, http.StatusCreated, "Workout started", session)
}

// CompleteWorkout -> POST /tracking/workout/:session_id/complete
func (tc *TrackingController) CompleteWorkout(c *gin.Context) {
	tc.finishWorkout(c, channels.WorkoutCompleted, "Workout completed")
}

// CancelWorkout -> POST /tracking/workout/:session_id/cancel
func (tc *TrackingController) CancelWorkout(c *gin.Context) {
	tc.finishWorkout(c, channels.WorkoutCancelled, "Workout cancelled")
}

func (tc *TrackingController) finishWorkout(c *gin.Context, action, message string) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthenticated"))
		return
	}

	var session models.WorkoutSession
	if err := tc.DB.Where("id = ? AND user_id = ?", c.Param("session_id"), userID).
		First(&session).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("workout session not found"))
		return
	}
	if session.Status != channels.WorkoutStarted {
		utils.RespondError(c, http.StatusBadRequest, errors.New("workout session already finished"))
		return
	}

	now := time.Now()
	session.Status = action
	session.CompletedAt = &now
	if err := tc.DB.Save(&session).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if err := tc.Publisher.Workout(c.Request.Context(), userID, action, session.WorkoutName); err != nil {
		utils.ErrorLogger.Printf("Error publishing workout event: %v", err)
	}

	utils.RespondJSON(c, http.StatusOK, message, session)
}
