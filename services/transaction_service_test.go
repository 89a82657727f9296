package services

import (
	"context"
	"testing"

	"lodgekeeper-backend/models"
	"lodgekeeper-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitiateOnlinePaymentOpensGatewayOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booking := f.createBooking(t, "2024-06-01", "2024-06-05")

	txn, err := f.txns.InitiatePayment(ctx, InitiatePaymentInput{
		BookingID: booking.ID, Amount: 1000, Mode: models.ModeOnline,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TxnPending, txn.Status)
	assert.Equal(t, models.DirectionIn, txn.Direction)
	assert.NotEmpty(t, txn.Reference)
	assert.NotEmpty(t, txn.GatewayOrderID)
	assert.NotEmpty(t, txn.GatewaySessionID)
}

func TestInitiateCashPaymentSkipsGateway(t *testing.T) {
	f := newFixture(t)
	booking := f.createBooking(t, "2024-06-01", "2024-06-05")

	txn, err := f.txns.InitiatePayment(context.Background(), InitiatePaymentInput{
		BookingID: booking.ID, Amount: 1000, Mode: models.ModeCash,
	})
	require.NoError(t, err)
	assert.Empty(t, txn.GatewayOrderID)
	assert.Equal(t, models.TxnPending, txn.Status)
}

func TestInitiatePaymentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booking := f.createBooking(t, "2024-06-01", "2024-06-05")

	_, err := f.txns.InitiatePayment(ctx, InitiatePaymentInput{BookingID: booking.ID, Amount: 0, Mode: models.ModeCash})
	var ve *utils.ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = f.txns.InitiatePayment(ctx, InitiatePaymentInput{BookingID: 9999, Amount: 100, Mode: models.ModeCash})
	require.ErrorIs(t, err, utils.ErrNotFound)

	_, err = f.bookings.Cancel(ctx, booking.ID, "guest")
	require.NoError(t, err)
	_, err = f.txns.InitiatePayment(ctx, InitiatePaymentInput{BookingID: booking.ID, Amount: 100, Mode: models.ModeCash})
	var ite *utils.InvalidTransitionError
	require.ErrorAs(t, err, &ite)
}

func TestGatewayFailureMarksTransactionFailed(t *testing.T) {
	f := newFixture(t)
	f.gateway.failCreate = true
	booking := f.createBooking(t, "2024-06-01", "2024-06-05")

	_, err := f.txns.InitiatePayment(context.Background(), InitiatePaymentInput{
		BookingID: booking.ID, Amount: 1000, Mode: models.ModeOnline,
	})
	var ge *utils.GatewayError
	require.ErrorAs(t, err, &ge)

	var txn models.Transaction
	require.NoError(t, f.db.Where("booking_id = ?", booking.ID).First(&txn).Error)
	assert.Equal(t, models.TxnFailed, txn.Status, "a gateway failure is never treated as paid")
}

func TestReconcilePaidConfirmsBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booking := f.createBooking(t, "2024-06-01", "2024-06-05")
	txn, err := f.txns.InitiatePayment(ctx, InitiatePaymentInput{
		BookingID: booking.ID, Amount: 1000, Mode: models.ModeOnline,
	})
	require.NoError(t, err)

	applied, err := f.txns.Reconcile(ctx, txn.GatewayOrderID, GatewayStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, models.TxnSuccess, applied.Status)

	reloaded, err := f.bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, reloaded.Status)
	assert.Equal(t, models.PaymentPaid, reloaded.PaymentStatus)

	slots, err := f.inventory.SlotsOwnedBy(ctx, booking.ID)
	require.NoError(t, err)
	assert.Len(t, slots, 4)
}

func TestReconcileSameEventTwiceIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booking := f.createBooking(t, "2024-06-01", "2024-06-05")
	txn, err := f.txns.InitiatePayment(ctx, InitiatePaymentInput{
		BookingID: booking.ID, Amount: 1000, Mode: models.ModeOnline,
	})
	require.NoError(t, err)

	_, err = f.txns.Reconcile(ctx, txn.GatewayOrderID, GatewayStatusPaid)
	require.NoError(t, err)
	again, err := f.txns.Reconcile(ctx, txn.GatewayOrderID, GatewayStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, models.TxnSuccess, again.Status)

	var mods []models.BookingModification
	require.NoError(t, f.db.Where("booking_id = ?", booking.ID).Find(&mods).Error)
	assert.Empty(t, mods)

	var count int64
	require.NoError(t, f.db.Model(&models.Transaction{}).
		Where("booking_id = ? AND status = ?", booking.ID, models.TxnSuccess).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestReconcileExpiredFailsPaymentNotBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booking := f.createBooking(t, "2024-06-01", "2024-06-05")
	txn, err := f.txns.InitiatePayment(ctx, InitiatePaymentInput{
		BookingID: booking.ID, Amount: 1000, Mode: models.ModeOnline,
	})
	require.NoError(t, err)

	applied, err := f.txns.Reconcile(ctx, txn.GatewayOrderID, GatewayStatusExpired)
	require.NoError(t, err)
	assert.Equal(t, models.TxnFailed, applied.Status)

	// cancellation stays an explicit decision
	reloaded, err := f.bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, reloaded.Status)
	assert.Equal(t, models.PaymentUnpaid, reloaded.PaymentStatus)
}

func TestReconcileUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.txns.Reconcile(context.Background(), "gw_missing", GatewayStatusPaid)
	require.ErrorIs(t, err, utils.ErrNotFound)
}

func TestPollFetchesAndApplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booking := f.createBooking(t, "2024-06-01", "2024-06-05")
	txn, err := f.txns.InitiatePayment(ctx, InitiatePaymentInput{
		BookingID: booking.ID, Amount: 1000, Mode: models.ModeOnline,
	})
	require.NoError(t, err)

	// still ACTIVE at the gateway: polling changes nothing
	polled, err := f.txns.Poll(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TxnPending, polled.Status)

	f.gateway.setStatus(txn.GatewayOrderID, GatewayStatusPaid)
	polled, err = f.txns.Poll(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TxnSuccess, polled.Status)

	reloaded, err := f.bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, reloaded.Status)
}

func TestPollWithoutGatewayOrder(t *testing.T) {
	f := newFixture(t)
	booking := f.createBooking(t, "2024-06-01", "2024-06-05")
	txn, err := f.txns.InitiatePayment(context.Background(), InitiatePaymentInput{
		BookingID: booking.ID, Amount: 1000, Mode: models.ModeCash,
	})
	require.NoError(t, err)

	_, err = f.txns.Poll(context.Background(), txn.ID)
	var ve *utils.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestAttachProofThenVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booking := f.createBooking(t, "2024-06-01", "2024-06-05")
	txn, err := f.txns.InitiatePayment(ctx, InitiatePaymentInput{
		BookingID: booking.ID, Amount: 400, Mode: models.ModeBank,
	})
	require.NoError(t, err)

	_, err = f.txns.Verify(ctx, txn.ID, 1)
	var ite *utils.InvalidTransitionError
	require.ErrorAs(t, err, &ite, "verification requires a settled payment")

	settled, err := f.txns.AttachProof(ctx, txn.ID, "uploads/slips/slip-001.jpg")
	require.NoError(t, err)
	assert.Equal(t, models.TxnSuccess, settled.Status)
	assert.Equal(t, "uploads/slips/slip-001.jpg", settled.ProofPath)

	// partial amount against the 1000 total
	reloaded, err := f.bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPartial, reloaded.PaymentStatus)

	verified, err := f.txns.Verify(ctx, txn.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.TxnVerified, verified.Status)
	require.NotNil(t, verified.VerifiedBy)
	assert.EqualValues(t, 1, *verified.VerifiedBy)
	require.NotNil(t, verified.VerifiedAt)

	_, err = f.txns.AttachProof(ctx, txn.ID, "uploads/slips/slip-002.jpg")
	require.ErrorAs(t, err, &ite)
}

func TestLockedTransactionIsImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booking := f.createBooking(t, "2024-06-01", "2024-06-05")
	txn, err := f.txns.InitiatePayment(ctx, InitiatePaymentInput{
		BookingID: booking.ID, Amount: 1000, Mode: models.ModeOnline,
	})
	require.NoError(t, err)

	locked, err := f.txns.Lock(ctx, txn.ID)
	require.NoError(t, err)
	assert.True(t, locked.Locked)

	_, err = f.txns.Reconcile(ctx, txn.GatewayOrderID, GatewayStatusExpired)
	var le *utils.LockedRecordError
	require.ErrorAs(t, err, &le)
	_, err = f.txns.AttachProof(ctx, txn.ID, "uploads/slips/slip-003.jpg")
	require.ErrorAs(t, err, &le)

	// locking again is a no-op, there is no unlock
	again, err := f.txns.Lock(ctx, txn.ID)
	require.NoError(t, err)
	assert.True(t, again.Locked)
}

func TestLockedReconcileAtTargetIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booking := f.createBooking(t, "2024-06-01", "2024-06-05")
	txn, err := f.txns.InitiatePayment(ctx, InitiatePaymentInput{
		BookingID: booking.ID, Amount: 1000, Mode: models.ModeOnline,
	})
	require.NoError(t, err)

	_, err = f.txns.Reconcile(ctx, txn.GatewayOrderID, GatewayStatusPaid)
	require.NoError(t, err)
	_, err = f.txns.Lock(ctx, txn.ID)
	require.NoError(t, err)

	// redelivered PAID webhook after the audit lock: still a clean no-op
	applied, err := f.txns.Reconcile(ctx, txn.GatewayOrderID, GatewayStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, models.TxnSuccess, applied.Status)
}

func TestInitiateOnlinePaymentLogsGatewayOrderID(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zap.InfoLevel)
	f.txns.Logger = zap.New(core)
	booking := f.createBooking(t, "2024-06-01", "2024-06-05")

	txn, err := f.txns.InitiatePayment(context.Background(), InitiatePaymentInput{
		BookingID: booking.ID, Amount: 1000, Mode: models.ModeOnline,
	})
	require.NoError(t, err)

	// the order id reaches the log stream independently of the row
	// update, so an open order is never untraceable
	entries := logs.FilterMessage("gateway order opened").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, txn.GatewayOrderID, fields["gatewayOrderId"])
	assert.Equal(t, txn.Reference, fields["reference"])
}

func TestZeroTotalBookingSettlesAsPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	booking, err := f.bookings.Create(ctx, CreateBookingInput{
		CustomerID: f.customer.ID,
		RoomID:     f.room.ID,
		CheckIn:    day("2024-06-01"),
		CheckOut:   day("2024-06-03"),
	})
	require.NoError(t, err)

	txn, err := f.txns.InitiatePayment(ctx, InitiatePaymentInput{
		BookingID: booking.ID, Amount: 50, Mode: models.ModeCash,
	})
	require.NoError(t, err)
	_, err = f.txns.AttachProof(ctx, txn.ID, "uploads/slips/deposit.jpg")
	require.NoError(t, err)

	reloaded, err := f.bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, reloaded.PaymentStatus)
}

func TestPaymentStatusAccumulatesAcrossTransactions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booking := f.createBooking(t, "2024-06-01", "2024-06-05")

	first, err := f.txns.InitiatePayment(ctx, InitiatePaymentInput{
		BookingID: booking.ID, Amount: 600, Mode: models.ModeCash,
	})
	require.NoError(t, err)
	_, err = f.txns.AttachProof(ctx, first.ID, "uploads/slips/p1.jpg")
	require.NoError(t, err)

	reloaded, err := f.bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPartial, reloaded.PaymentStatus)

	second, err := f.txns.InitiatePayment(ctx, InitiatePaymentInput{
		BookingID: booking.ID, Amount: 400, Mode: models.ModeCash,
	})
	require.NoError(t, err)
	_, err = f.txns.AttachProof(ctx, second.ID, "uploads/slips/p2.jpg")
	require.NoError(t, err)

	reloaded, err = f.bookings.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, reloaded.PaymentStatus)
}
