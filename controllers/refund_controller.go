package controllers

import (
	"net/http"
	"strconv"

	"lodgekeeper-backend/models"
	"lodgekeeper-backend/services"
	"lodgekeeper-backend/utils"

	"github.com/gin-gonic/gin"
)

type InitiateRefundPayload struct {
	OriginalTransactionID uint    `json:"original_transaction_id" binding:"required"`
	Amount                float64 `json:"amount" binding:"required"`
	Mode                  string  `json:"mode" binding:"required"`
}

type RefundController struct {
	RefundSvc *services.RefundService
}

func NewRefundController(svc *services.RefundService) *RefundController {
	return &RefundController{RefundSvc: svc}
}

func (rc *RefundController) InitiateRefund(c *gin.Context) {
	var payload InitiateRefundPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error())
		return
	}

	refund, err := rc.RefundSvc.InitiateRefund(c.Request.Context(),
		payload.OriginalTransactionID, payload.Amount, models.PaymentMode(payload.Mode))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, refund)
}

func (rc *RefundController) GetRefundsAgainst(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid transaction id")
		return
	}
	refunds, err := rc.RefundSvc.RefundsAgainst(c.Request.Context(), uint(id))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, refunds)
}
