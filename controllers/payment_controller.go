package controllers

import (
	"net/http"
	"strconv"

	"lodgekeeper-backend/models"
	"lodgekeeper-backend/services"
	"lodgekeeper-backend/utils"

	"github.com/gin-gonic/gin"
)

type InitiatePaymentPayload struct {
	BookingID uint    `json:"booking_id" binding:"required"`
	Amount    float64 `json:"amount" binding:"required"`
	Mode      string  `json:"mode" binding:"required"`
	ReturnURL string  `json:"return_url"`
}

type AttachProofPayload struct {
	ProofPath string `json:"proof_path" binding:"required"`
}

type VerifyPayload struct {
	AdminID uint `json:"admin_id" binding:"required"`
}

// WebhookPayload is the inbound reconciliation event: the gateway's
// order id plus its authoritative status.
type WebhookPayload struct {
	GatewayOrderID string `json:"gateway_order_id" binding:"required"`
	OrderStatus    string `json:"order_status" binding:"required"`
}

type PaymentController struct {
	TxnSvc *services.TransactionService
}

func NewPaymentController(svc *services.TransactionService) *PaymentController {
	return &PaymentController{TxnSvc: svc}
}

func txnIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid transaction id")
		return 0, false
	}
	return uint(id), true
}

func (pc *PaymentController) InitiatePayment(c *gin.Context) {
	var payload InitiatePaymentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error())
		return
	}

	txn, err := pc.TxnSvc.InitiatePayment(c.Request.Context(), services.InitiatePaymentInput{
		BookingID: payload.BookingID,
		Amount:    payload.Amount,
		Mode:      models.PaymentMode(payload.Mode),
		ReturnURL: payload.ReturnURL,
	})
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, txn)
}

func (pc *PaymentController) GetTransaction(c *gin.Context) {
	id, ok := txnIDParam(c)
	if !ok {
		return
	}
	txn, err := pc.TxnSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, txn)
}

// PollTransaction asks the gateway for the order status and applies it.
func (pc *PaymentController) PollTransaction(c *gin.Context) {
	id, ok := txnIDParam(c)
	if !ok {
		return
	}
	txn, err := pc.TxnSvc.Poll(c.Request.Context(), id)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, txn)
}

// Webhook receives the gateway's push notification. Reconciliation is
// idempotent, so redelivered events are harmless.
func (pc *PaymentController) Webhook(c *gin.Context) {
	var payload WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error())
		return
	}

	txn, err := pc.TxnSvc.Reconcile(c.Request.Context(), payload.GatewayOrderID, payload.OrderStatus)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, txn)
}

func (pc *PaymentController) AttachProof(c *gin.Context) {
	id, ok := txnIDParam(c)
	if !ok {
		return
	}
	var payload AttachProofPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error())
		return
	}
	txn, err := pc.TxnSvc.AttachProof(c.Request.Context(), id, payload.ProofPath)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, txn)
}

func (pc *PaymentController) VerifyTransaction(c *gin.Context) {
	id, ok := txnIDParam(c)
	if !ok {
		return
	}
	var payload VerifyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error())
		return
	}
	txn, err := pc.TxnSvc.Verify(c.Request.Context(), id, payload.AdminID)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, txn)
}

func (pc *PaymentController) LockTransaction(c *gin.Context) {
	id, ok := txnIDParam(c)
	if !ok {
		return
	}
	txn, err := pc.TxnSvc.Lock(c.Request.Context(), id)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, txn)
}
