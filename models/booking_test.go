package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingTransitions(t *testing.T) {
	assert.True(t, BookingPending.CanTransition(BookingConfirmed))
	assert.True(t, BookingPending.CanTransition(BookingCancelled))
	assert.True(t, BookingConfirmed.CanTransition(BookingCheckedIn))
	assert.True(t, BookingConfirmed.CanTransition(BookingCancelled))
	assert.True(t, BookingCheckedIn.CanTransition(BookingCheckedOut))

	assert.False(t, BookingPending.CanTransition(BookingCheckedIn), "no check-in without confirmation")
	assert.False(t, BookingCheckedIn.CanTransition(BookingCancelled), "an in-house stay cannot be cancelled")
	assert.False(t, BookingCheckedOut.CanTransition(BookingConfirmed))
	assert.False(t, BookingCancelled.CanTransition(BookingConfirmed))
}

func TestBookingTerminalStates(t *testing.T) {
	assert.True(t, BookingCheckedOut.Terminal())
	assert.True(t, BookingCancelled.Terminal())
	assert.False(t, BookingPending.Terminal())
	assert.False(t, BookingConfirmed.Terminal())
	assert.False(t, BookingCheckedIn.Terminal())
}

func TestTxnTransitions(t *testing.T) {
	assert.True(t, TxnPending.CanTransition(TxnSuccess))
	assert.True(t, TxnPending.CanTransition(TxnFailed))
	assert.True(t, TxnSuccess.CanTransition(TxnVerified))

	assert.False(t, TxnFailed.CanTransition(TxnSuccess), "FAILED is terminal")
	assert.False(t, TxnVerified.CanTransition(TxnPending))
	assert.False(t, TxnPending.CanTransition(TxnVerified), "verification requires a settled payment")
}

func TestPaymentModeOnline(t *testing.T) {
	assert.True(t, ModeOnline.Online())
	assert.False(t, ModeCash.Online())
	assert.False(t, ModeBank.Online())
}
