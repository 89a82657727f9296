package services

import (
	"context"
	"testing"

	"lodgekeeper-backend/models"
	"lodgekeeper-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// verifiedPayment settles and verifies an inbound payment so refunds can
// reference it.
func (f *fixture) verifiedPayment(t *testing.T, amount float64) *models.Transaction {
	t.Helper()
	ctx := context.Background()
	booking := f.createBooking(t, "2024-06-01", "2024-06-05")
	txn, err := f.txns.InitiatePayment(ctx, InitiatePaymentInput{
		BookingID: booking.ID, Amount: amount, Mode: models.ModeCash,
	})
	require.NoError(t, err)
	_, err = f.txns.AttachProof(ctx, txn.ID, "uploads/slips/refundable.jpg")
	require.NoError(t, err)
	verified, err := f.txns.Verify(ctx, txn.ID, 1)
	require.NoError(t, err)
	return verified
}

func TestRefundCapAcrossMultipleRefunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	original := f.verifiedPayment(t, 1000)

	first, err := f.refunds.InitiateRefund(ctx, original.ID, 600, models.ModeBank)
	require.NoError(t, err)
	assert.Equal(t, models.DirectionOut, first.Direction)
	assert.Equal(t, models.TxnPending, first.Status)
	require.NotNil(t, first.RefundOfID)
	assert.Equal(t, original.ID, *first.RefundOfID)

	// 600 already claimed, only 400 remains
	_, err = f.refunds.InitiateRefund(ctx, original.ID, 500, models.ModeBank)
	var iv *utils.InvariantViolation
	require.ErrorAs(t, err, &iv)

	refunds, err := f.refunds.RefundsAgainst(ctx, original.ID)
	require.NoError(t, err)
	assert.Len(t, refunds, 1, "rejected refund writes nothing")

	second, err := f.refunds.InitiateRefund(ctx, original.ID, 400, models.ModeBank)
	require.NoError(t, err)
	assert.Equal(t, second.BookingID, original.BookingID)

	_, err = f.refunds.InitiateRefund(ctx, original.ID, 1, models.ModeBank)
	require.ErrorAs(t, err, &iv, "fully refunded payment admits no more refunds")
}

func TestFailedRefundFreesItsAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	original := f.verifiedPayment(t, 1000)

	first, err := f.refunds.InitiateRefund(ctx, original.ID, 600, models.ModeBank)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(first).Update("status", models.TxnFailed).Error)

	// the failed attempt no longer counts against the cap
	_, err = f.refunds.InitiateRefund(ctx, original.ID, 600, models.ModeBank)
	require.NoError(t, err)
}

func TestRefundRequiresVerifiedInboundTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booking := f.createBooking(t, "2024-06-01", "2024-06-05")

	pending, err := f.txns.InitiatePayment(ctx, InitiatePaymentInput{
		BookingID: booking.ID, Amount: 500, Mode: models.ModeCash,
	})
	require.NoError(t, err)

	_, err = f.refunds.InitiateRefund(ctx, pending.ID, 100, models.ModeBank)
	var iv *utils.InvariantViolation
	require.ErrorAs(t, err, &iv)

	// a refund cannot itself be refunded
	original := f.verifiedPayment(t, 1000)
	refund, err := f.refunds.InitiateRefund(ctx, original.ID, 200, models.ModeBank)
	require.NoError(t, err)
	_, err = f.refunds.InitiateRefund(ctx, refund.ID, 100, models.ModeBank)
	require.ErrorAs(t, err, &iv)
}

func TestRefundValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.refunds.InitiateRefund(ctx, 1, 0, models.ModeBank)
	var ve *utils.ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = f.refunds.InitiateRefund(ctx, 9999, 100, models.ModeBank)
	require.ErrorIs(t, err, utils.ErrNotFound)
}
