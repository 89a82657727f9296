package controllers

import (
	"net/http"
	"strconv"

	"lodgekeeper-backend/services"
	"lodgekeeper-backend/utils"

	"github.com/gin-gonic/gin"
)

type AvailabilityController struct {
	Availability *services.AvailabilityService
}

func NewAvailabilityController(svc *services.AvailabilityService) *AvailabilityController {
	return &AvailabilityController{Availability: svc}
}

// CheckAvailability answers GET /api/availability?room_id=&check_in=&check_out=
// A "false" answer is an answer, not an error: callers should pick a
// different range rather than retry.
func (ac *AvailabilityController) CheckAvailability(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Query("room_id"), 10, 32)
	if err != nil || roomID == 0 {
		utils.JSONError(c, http.StatusBadRequest, "room_id must be a positive integer")
		return
	}
	checkIn, err := utils.ParseDay(c.Query("check_in"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "check_in must be YYYY-MM-DD")
		return
	}
	checkOut, err := utils.ParseDay(c.Query("check_out"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "check_out must be YYYY-MM-DD")
		return
	}

	available := ac.Availability.IsAvailable(c.Request.Context(), uint(roomID), checkIn, checkOut)
	utils.JSONSuccess(c, http.StatusOK, gin.H{"available": available})
}
