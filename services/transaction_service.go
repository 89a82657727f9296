package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lodgekeeper-backend/models"
	"lodgekeeper-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TransactionService owns the payment state machine and reconciliation
// against the external gateway. All status writes are conditional on
// the expected previous status, which serializes transitions per
// transaction id: reapplying the same gateway event is a no-op, and two
// interleaved reconciliations cannot both win.
type TransactionService struct {
	DB       *gorm.DB
	Gateway  PaymentGateway
	Bookings *BookingService
	Logger   *zap.Logger
}

func NewTransactionService(db *gorm.DB, gw PaymentGateway, bookings *BookingService) *TransactionService {
	return &TransactionService{DB: db, Gateway: gw, Bookings: bookings, Logger: utils.GetLogger()}
}

type InitiatePaymentInput struct {
	BookingID uint
	Amount    float64
	Mode      models.PaymentMode
	ReturnURL string
}

// InitiatePayment creates a PENDING transaction and, for online modes,
// opens an order with the gateway. A gateway failure marks the
// transaction FAILED and surfaces a GatewayError; it is never silently
// treated as paid.
func (s *TransactionService) InitiatePayment(ctx context.Context, in InitiatePaymentInput) (*models.Transaction, error) {
	if in.Amount <= 0 {
		return nil, &utils.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	var booking models.Booking
	if err := s.DB.WithContext(ctx).Preload("Customer").First(&booking, in.BookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("booking %d: %w", in.BookingID, utils.ErrNotFound)
		}
		return nil, err
	}
	if booking.Status.Terminal() {
		return nil, &utils.InvalidTransitionError{
			Entity: "booking",
			From:   string(booking.Status),
			To:     "PAYMENT_INITIATED",
		}
	}

	txn := models.Transaction{
		BookingID:  booking.ID,
		CustomerID: booking.CustomerID,
		Amount:     in.Amount,
		Direction:  models.DirectionIn,
		Mode:       in.Mode,
		Status:     models.TxnPending,
		Reference:  uuid.New().String(),
	}
	if err := s.DB.WithContext(ctx).Create(&txn).Error; err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	if !in.Mode.Online() {
		return &txn, nil
	}

	order, err := s.Gateway.CreateOrder(ctx, GatewayOrderRequest{
		OrderID:       txn.Reference,
		Amount:        txn.Amount,
		Currency:      utils.EnvOrDefault("GATEWAY_CURRENCY", "USD"),
		CustomerID:    fmt.Sprintf("cust_%d", booking.CustomerID),
		CustomerName:  booking.Customer.FullName,
		CustomerEmail: booking.Customer.Email,
		CustomerPhone: booking.Customer.Phone,
		ReturnURL:     in.ReturnURL,
	})
	if err != nil {
		_ = s.DB.WithContext(ctx).Model(&models.Transaction{}).
			Where("id = ? AND status = ? AND locked = ?", txn.ID, models.TxnPending, false).
			Update("status", models.TxnFailed).Error
		s.Logger.Error("gateway order creation failed",
			zap.Uint("transactionId", txn.ID), zap.Error(err))
		return nil, err
	}

	// Logged before the persist: if the write below never lands, the
	// open gateway order can still be reconciled from this line.
	s.Logger.Info("gateway order opened",
		zap.Uint("transactionId", txn.ID),
		zap.String("reference", txn.Reference),
		zap.String("gatewayOrderId", order.GatewayOrderID))

	if err := s.DB.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", txn.ID).
		Updates(map[string]interface{}{
			"gateway_order_id":   order.GatewayOrderID,
			"gateway_session_id": order.SessionToken,
		}).Error; err != nil {
		s.Logger.Error("gateway order id not persisted, reconcile manually",
			zap.Uint("transactionId", txn.ID),
			zap.String("gatewayOrderId", order.GatewayOrderID),
			zap.Error(err))
		return nil, err
	}
	txn.GatewayOrderID = order.GatewayOrderID
	txn.GatewaySessionID = order.SessionToken
	return &txn, nil
}

// Reconcile applies the gateway's authoritative order status to the
// matching local transaction.
func (s *TransactionService) Reconcile(ctx context.Context, gatewayOrderID, gatewayStatus string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.DB.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("gateway order %s: %w", gatewayOrderID, utils.ErrNotFound)
		}
		return nil, err
	}
	return s.apply(ctx, &txn, gatewayStatus)
}

// Poll asks the gateway for the order's current status and applies it.
func (s *TransactionService) Poll(ctx context.Context, transactionID uint) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.DB.WithContext(ctx).First(&txn, transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("transaction %d: %w", transactionID, utils.ErrNotFound)
		}
		return nil, err
	}
	if txn.GatewayOrderID == "" {
		return nil, &utils.ValidationError{Field: "transaction", Reason: "no gateway order to poll"}
	}

	timeout := time.Duration(utils.EnvIntOrDefault("GATEWAY_TIMEOUT_SECONDS", 10)) * time.Second
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status, err := s.Gateway.FetchOrderStatus(pollCtx, txn.GatewayOrderID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, &txn, status)
}

// apply maps gateway states onto local ones. PAID -> SUCCESS (and the
// booking confirms), EXPIRED/TERMINATED -> FAILED, anything else leaves
// PENDING. Conditional updates make reapplication a no-op: the second
// identical event changes nothing and triggers no second confirmation.
func (s *TransactionService) apply(ctx context.Context, txn *models.Transaction, gatewayStatus string) (*models.Transaction, error) {
	var target models.TxnStatus
	switch gatewayStatus {
	case GatewayStatusPaid:
		target = models.TxnSuccess
	case GatewayStatusExpired, GatewayStatusTerminated:
		target = models.TxnFailed
	default:
		return txn, nil // still pending at the gateway
	}

	// Already at or past the target: idempotent no-op, locked or not.
	if txn.Status == target || (target == models.TxnSuccess && txn.Status == models.TxnVerified) {
		return txn, nil
	}
	if txn.Locked {
		return nil, &utils.LockedRecordError{TransactionID: txn.ID}
	}

	res := s.DB.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ? AND locked = ?", txn.ID, models.TxnPending, false).
		Update("status", target)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// lost the race to another reconciliation; re-read and report
		if err := s.DB.WithContext(ctx).First(txn, txn.ID).Error; err != nil {
			return nil, err
		}
		return txn, nil
	}
	txn.Status = target

	s.Logger.Info("transaction reconciled",
		zap.Uint("transactionId", txn.ID),
		zap.String("gatewayStatus", gatewayStatus),
		zap.String("status", string(target)))

	if target == models.TxnSuccess && txn.Direction == models.DirectionIn {
		if err := s.onPaymentSuccess(ctx, txn); err != nil {
			return txn, err
		}
	}
	return txn, nil
}

// onPaymentSuccess refreshes the booking's payment status and drives
// PENDING -> CONFIRMED. A booking already confirmed (offline admin
// confirmation) is fine; a lost inventory race surfaces as a
// ConflictError while the payment stays SUCCESS.
func (s *TransactionService) onPaymentSuccess(ctx context.Context, txn *models.Transaction) error {
	if err := s.RefreshBookingPaymentStatus(ctx, txn.BookingID); err != nil {
		s.Logger.Warn("failed to refresh booking payment status",
			zap.Uint("bookingId", txn.BookingID), zap.Error(err))
	}

	_, err := s.Bookings.Confirm(ctx, txn.BookingID, "payment-gateway")
	if err != nil {
		var ite *utils.InvalidTransitionError
		if errors.As(err, &ite) {
			return nil // already confirmed or further along
		}
		return err
	}
	return nil
}

// RefreshBookingPaymentStatus recomputes UNPAID/PARTIAL/PAID from the
// booking's settled inbound transactions.
func (s *TransactionService) RefreshBookingPaymentStatus(ctx context.Context, bookingID uint) error {
	var booking models.Booking
	if err := s.DB.WithContext(ctx).First(&booking, bookingID).Error; err != nil {
		return err
	}

	var paid float64
	err := s.DB.WithContext(ctx).Model(&models.Transaction{}).
		Where("booking_id = ? AND direction = ? AND status IN ?",
			bookingID, models.DirectionIn, []models.TxnStatus{models.TxnSuccess, models.TxnVerified}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&paid).Error
	if err != nil {
		return err
	}

	// A zero-total booking is settled by any successful payment.
	status := models.PaymentUnpaid
	switch {
	case paid > 0 && paid >= booking.TotalAmount:
		status = models.PaymentPaid
	case paid > 0:
		status = models.PaymentPartial
	}
	return s.DB.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Update("payment_status", status).Error
}

// AttachProof records an offline payment artifact and moves the
// transaction PENDING -> SUCCESS.
func (s *TransactionService) AttachProof(ctx context.Context, transactionID uint, proofPath string) (*models.Transaction, error) {
	if proofPath == "" {
		return nil, &utils.ValidationError{Field: "proofPath", Reason: "required"}
	}

	var txn models.Transaction
	if err := s.DB.WithContext(ctx).First(&txn, transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("transaction %d: %w", transactionID, utils.ErrNotFound)
		}
		return nil, err
	}
	if txn.Locked {
		return nil, &utils.LockedRecordError{TransactionID: txn.ID}
	}
	if !txn.Status.CanTransition(models.TxnSuccess) {
		return nil, &utils.InvalidTransitionError{
			Entity: "transaction",
			From:   string(txn.Status),
			To:     string(models.TxnSuccess),
		}
	}

	res := s.DB.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ? AND locked = ?", txn.ID, models.TxnPending, false).
		Updates(map[string]interface{}{
			"status":     models.TxnSuccess,
			"proof_path": proofPath,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &utils.InvalidTransitionError{
			Entity: "transaction",
			From:   string(txn.Status),
			To:     string(models.TxnSuccess),
		}
	}
	txn.Status = models.TxnSuccess
	txn.ProofPath = proofPath

	if txn.Direction == models.DirectionIn {
		if err := s.RefreshBookingPaymentStatus(ctx, txn.BookingID); err != nil {
			s.Logger.Warn("failed to refresh booking payment status",
				zap.Uint("bookingId", txn.BookingID), zap.Error(err))
		}
	}
	return &txn, nil
}

// Verify moves SUCCESS -> VERIFIED on behalf of an authorized verifier.
func (s *TransactionService) Verify(ctx context.Context, transactionID, adminID uint) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.DB.WithContext(ctx).First(&txn, transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("transaction %d: %w", transactionID, utils.ErrNotFound)
		}
		return nil, err
	}
	if txn.Locked {
		return nil, &utils.LockedRecordError{TransactionID: txn.ID}
	}
	if !txn.Status.CanTransition(models.TxnVerified) {
		return nil, &utils.InvalidTransitionError{
			Entity: "transaction",
			From:   string(txn.Status),
			To:     string(models.TxnVerified),
		}
	}

	now := time.Now().UTC()
	res := s.DB.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ? AND locked = ?", txn.ID, models.TxnSuccess, false).
		Updates(map[string]interface{}{
			"status":      models.TxnVerified,
			"verified_by": adminID,
			"verified_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &utils.InvalidTransitionError{
			Entity: "transaction",
			From:   string(txn.Status),
			To:     string(models.TxnVerified),
		}
	}
	txn.Status = models.TxnVerified
	txn.VerifiedBy = &adminID
	txn.VerifiedAt = &now
	return &txn, nil
}

// Lock makes the transaction immutable. One-way: there is no unlock.
func (s *TransactionService) Lock(ctx context.Context, transactionID uint) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.DB.WithContext(ctx).First(&txn, transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("transaction %d: %w", transactionID, utils.ErrNotFound)
		}
		return nil, err
	}
	if txn.Locked {
		return &txn, nil
	}
	if err := s.DB.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", txn.ID).
		Update("locked", true).Error; err != nil {
		return nil, err
	}
	txn.Locked = true
	return &txn, nil
}

// GetByID loads one transaction.
func (s *TransactionService) GetByID(ctx context.Context, transactionID uint) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.DB.WithContext(ctx).First(&txn, transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("transaction %d: %w", transactionID, utils.ErrNotFound)
		}
		return nil, err
	}
	return &txn, nil
}
