package services

import (
	"context"
	"errors"
	"fmt"

	"lodgekeeper-backend/models"
	"lodgekeeper-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RefundService creates reverse transactions against verified inbound
// payments. The cap check runs under a row lock on the original, so
// concurrent refund requests cannot jointly exceed the original amount.
type RefundService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

func NewRefundService(db *gorm.DB) *RefundService {
	return &RefundService{DB: db, Logger: utils.GetLogger()}
}

// InitiateRefund creates an OUT/PENDING transaction linked to the
// original via RefundOf. Preconditions: the original is an IN
// transaction with status VERIFIED, and amount does not exceed what is
// left after prior non-failed refunds. Violations write nothing.
func (s *RefundService) InitiateRefund(ctx context.Context, originalTxnID uint, amount float64, mode models.PaymentMode) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, &utils.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	var refund models.Transaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var original models.Transaction
		if err := lockForUpdate(tx).First(&original, originalTxnID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("transaction %d: %w", originalTxnID, utils.ErrNotFound)
			}
			return err
		}

		if original.Direction != models.DirectionIn {
			return &utils.InvariantViolation{Reason: "refund target must be an inbound payment"}
		}
		if original.Status != models.TxnVerified {
			return &utils.InvariantViolation{Reason: "refund target must be a verified payment"}
		}

		var refunded float64
		if err := tx.Model(&models.Transaction{}).
			Where("refund_of_id = ? AND status <> ?", original.ID, models.TxnFailed).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&refunded).Error; err != nil {
			return err
		}
		if amount > original.Amount-refunded {
			return &utils.InvariantViolation{Reason: fmt.Sprintf(
				"refund of %.2f exceeds remaining refundable %.2f on transaction %d",
				amount, original.Amount-refunded, original.ID)}
		}

		refund = models.Transaction{
			BookingID:  original.BookingID,
			CustomerID: original.CustomerID,
			Amount:     amount,
			Direction:  models.DirectionOut,
			Mode:       mode,
			Status:     models.TxnPending,
			Reference:  uuid.New().String(),
			RefundOfID: &original.ID,
		}
		return tx.Create(&refund).Error
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("refund initiated",
		zap.Uint("transactionId", refund.ID),
		zap.Uint("refundOf", originalTxnID),
		zap.Float64("amount", amount))
	return &refund, nil
}

// RefundsAgainst lists all refunds created against a transaction.
func (s *RefundService) RefundsAgainst(ctx context.Context, originalTxnID uint) ([]models.Transaction, error) {
	var refunds []models.Transaction
	err := s.DB.WithContext(ctx).
		Where("refund_of_id = ?", originalTxnID).
		Order("created_at ASC").
		Find(&refunds).Error
	return refunds, err
}
