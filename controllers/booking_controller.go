// controllers/booking_controller.go
package controllers

import (
	"net/http"
	"strconv"

	"lodgekeeper-backend/services"
	"lodgekeeper-backend/utils"

	"github.com/gin-gonic/gin"
)

// ---------------------------
// Payload / DTOs
// ---------------------------

type CreateBookingPayload struct {
	CustomerID  uint    `json:"customer_id" binding:"required"`
	RoomID      uint    `json:"room_id" binding:"required"`
	CheckIn     string  `json:"check_in" binding:"required"`
	CheckOut    string  `json:"check_out" binding:"required"`
	TotalAmount float64 `json:"total_amount"`
}

type ModifyBookingPayload struct {
	RoomID   uint   `json:"room_id" binding:"required"`
	CheckIn  string `json:"check_in" binding:"required"`
	CheckOut string `json:"check_out" binding:"required"`
	Actor    string `json:"actor"`
}

type ActorPayload struct {
	Actor string `json:"actor"`
}

// ---------------------------
// Controller
// ---------------------------

type BookingController struct {
	BookingSvc *services.BookingService
}

func NewBookingController(svc *services.BookingService) *BookingController {
	return &BookingController{BookingSvc: svc}
}

func bookingIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid booking id")
		return 0, false
	}
	return uint(id), true
}

func actorOrDefault(a string) string {
	if a == "" {
		return "api"
	}
	return a
}

func (bc *BookingController) CreateBooking(c *gin.Context) {
	var payload CreateBookingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error())
		return
	}

	checkIn, err := utils.ParseDay(payload.CheckIn)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "check_in must be YYYY-MM-DD")
		return
	}
	checkOut, err := utils.ParseDay(payload.CheckOut)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "check_out must be YYYY-MM-DD")
		return
	}

	booking, err := bc.BookingSvc.Create(c.Request.Context(), services.CreateBookingInput{
		CustomerID:  payload.CustomerID,
		RoomID:      payload.RoomID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		TotalAmount: payload.TotalAmount,
	})
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, booking)
}

func (bc *BookingController) GetBookings(c *gin.Context) {
	list, err := bc.BookingSvc.List(c.Request.Context())
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

func (bc *BookingController) GetBookingDetails(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	booking, err := bc.BookingSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

// ConfirmBooking is the explicit admin confirmation path for offline
// bookings; online bookings confirm through payment reconciliation.
func (bc *BookingController) ConfirmBooking(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	var payload ActorPayload
	_ = c.ShouldBindJSON(&payload)

	booking, err := bc.BookingSvc.Confirm(c.Request.Context(), id, actorOrDefault(payload.Actor))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (bc *BookingController) CheckInBooking(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	booking, err := bc.BookingSvc.CheckIn(c.Request.Context(), id)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (bc *BookingController) CheckOutBooking(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	booking, err := bc.BookingSvc.CheckOut(c.Request.Context(), id)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (bc *BookingController) CancelBooking(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	var payload ActorPayload
	_ = c.ShouldBindJSON(&payload)

	booking, err := bc.BookingSvc.Cancel(c.Request.Context(), id, actorOrDefault(payload.Actor))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (bc *BookingController) ModifyBooking(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	var payload ModifyBookingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error())
		return
	}

	checkIn, err := utils.ParseDay(payload.CheckIn)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "check_in must be YYYY-MM-DD")
		return
	}
	checkOut, err := utils.ParseDay(payload.CheckOut)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "check_out must be YYYY-MM-DD")
		return
	}

	booking, err := bc.BookingSvc.Modify(c.Request.Context(), id, services.ModifyBookingInput{
		RoomID:   payload.RoomID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
	}, actorOrDefault(payload.Actor))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}
