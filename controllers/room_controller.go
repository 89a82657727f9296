package controllers

import (
	"net/http"
	"strconv"

	"lodgekeeper-backend/models"
	"lodgekeeper-backend/services"
	"lodgekeeper-backend/utils"

	"github.com/gin-gonic/gin"
)

type BlockSlotPayload struct {
	Date string `json:"date" binding:"required"`
}

type RoomController struct {
	RoomSvc     *services.RoomService
	RoomTypeSvc *services.RoomTypeService
	Inventory   *services.InventoryService
}

func NewRoomController(rooms *services.RoomService, types *services.RoomTypeService, inv *services.InventoryService) *RoomController {
	return &RoomController{RoomSvc: rooms, RoomTypeSvc: types, Inventory: inv}
}

func roomIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid room id")
		return 0, false
	}
	return uint(id), true
}

func (rc *RoomController) GetRooms(c *gin.Context) {
	rooms, err := rc.RoomSvc.GetAll(c.Request.Context())
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rooms)
}

func (rc *RoomController) GetRoom(c *gin.Context) {
	id, ok := roomIDParam(c)
	if !ok {
		return
	}
	room, err := rc.RoomSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, room)
}

func (rc *RoomController) CreateRoom(c *gin.Context) {
	var room models.Room
	if err := c.ShouldBindJSON(&room); err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := rc.RoomSvc.Create(c.Request.Context(), &room); err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, room)
}

func (rc *RoomController) UpdateRoom(c *gin.Context) {
	id, ok := roomIDParam(c)
	if !ok {
		return
	}
	var room models.Room
	if err := c.ShouldBindJSON(&room); err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error())
		return
	}
	room.ID = id
	if err := rc.RoomSvc.Update(c.Request.Context(), &room); err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, room)
}

// BlockSlot places an administrative hold on one (room, day).
func (rc *RoomController) BlockSlot(c *gin.Context) {
	id, ok := roomIDParam(c)
	if !ok {
		return
	}
	var payload BlockSlotPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error())
		return
	}
	day, err := utils.ParseDay(payload.Date)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if err := rc.Inventory.Block(c.Request.Context(), id, day); err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"blocked": true})
}

func (rc *RoomController) UnblockSlot(c *gin.Context) {
	id, ok := roomIDParam(c)
	if !ok {
		return
	}
	var payload BlockSlotPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error())
		return
	}
	day, err := utils.ParseDay(payload.Date)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if err := rc.Inventory.Unblock(c.Request.Context(), id, day); err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"blocked": false})
}

func (rc *RoomController) GetRoomTypes(c *gin.Context) {
	types, err := rc.RoomTypeSvc.GetAll(c.Request.Context())
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, types)
}

func (rc *RoomController) CreateRoomType(c *gin.Context) {
	var rt models.RoomType
	if err := c.ShouldBindJSON(&rt); err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := rc.RoomTypeSvc.Create(c.Request.Context(), &rt); err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, rt)
}
