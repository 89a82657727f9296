package services

import (
	"context"
	"sync"
	"testing"

	"lodgekeeper-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateClaimsEveryNight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booking := f.createBooking(t, "2024-06-01", "2024-06-05")

	require.NoError(t, f.inventory.Allocate(ctx, booking.ID, f.room.ID, booking.CheckIn, booking.CheckOut))

	owners := f.slotOwners(t, f.room.ID)
	assert.Equal(t, map[string]uint{
		"2024-06-01": booking.ID,
		"2024-06-02": booking.ID,
		"2024-06-03": booking.ID,
		"2024-06-04": booking.ID,
	}, owners, "checkout day must stay free")
}

func TestAllocateIsIdempotentForOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booking := f.createBooking(t, "2024-06-01", "2024-06-03")

	require.NoError(t, f.inventory.Allocate(ctx, booking.ID, f.room.ID, booking.CheckIn, booking.CheckOut))
	require.NoError(t, f.inventory.Allocate(ctx, booking.ID, f.room.ID, booking.CheckIn, booking.CheckOut))

	slots, err := f.inventory.SlotsOwnedBy(ctx, booking.ID)
	require.NoError(t, err)
	assert.Len(t, slots, 2)
}

func TestAllocateConflictRollsBackWholeRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.createBooking(t, "2024-06-03", "2024-06-05")
	require.NoError(t, f.inventory.Allocate(ctx, first.ID, f.room.ID, first.CheckIn, first.CheckOut))

	// overlaps first on 06-03 only; 06-01 and 06-02 are free
	second := f.createBooking(t, "2024-06-02", "2024-06-03")
	err := f.inventory.Allocate(ctx, second.ID, f.room.ID, day("2024-06-01"), day("2024-06-04"))
	var conflict *utils.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "2024-06-03", conflict.Date.Format("2006-01-02"))

	slots, err := f.inventory.SlotsOwnedBy(ctx, second.ID)
	require.NoError(t, err)
	assert.Empty(t, slots, "failed claim must leave nothing behind")
}

func TestReleaseThenReallocate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.createBooking(t, "2024-06-01", "2024-06-04")
	require.NoError(t, f.inventory.Allocate(ctx, first.ID, f.room.ID, first.CheckIn, first.CheckOut))
	require.NoError(t, f.inventory.Release(ctx, first.ID))

	second := f.createBooking(t, "2024-06-01", "2024-06-04")
	require.NoError(t, f.inventory.Allocate(ctx, second.ID, f.room.ID, second.CheckIn, second.CheckOut))

	owners := f.slotOwners(t, f.room.ID)
	for _, owner := range owners {
		assert.Equal(t, second.ID, owner)
	}
	assert.Len(t, owners, 3)
}

func TestReleaseWithoutAllocationIsNoOp(t *testing.T) {
	f := newFixture(t)
	booking := f.createBooking(t, "2024-06-01", "2024-06-03")
	require.NoError(t, f.inventory.Release(context.Background(), booking.ID))
	require.NoError(t, f.inventory.Release(context.Background(), booking.ID))
}

func TestBlockedDayRefusesAllocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.inventory.Block(ctx, f.room.ID, day("2024-06-02")))

	booking := f.createBooking(t, "2024-06-03", "2024-06-05")
	err := f.inventory.Allocate(ctx, booking.ID, f.room.ID, day("2024-06-01"), day("2024-06-04"))
	var conflict *utils.ConflictError
	require.ErrorAs(t, err, &conflict)

	require.NoError(t, f.inventory.Unblock(ctx, f.room.ID, day("2024-06-02")))
	require.NoError(t, f.inventory.Allocate(ctx, booking.ID, f.room.ID, day("2024-06-01"), day("2024-06-04")))
}

func TestBlockRefusesOccupiedDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booking := f.createBooking(t, "2024-06-01", "2024-06-03")
	require.NoError(t, f.inventory.Allocate(ctx, booking.ID, f.room.ID, booking.CheckIn, booking.CheckOut))

	err := f.inventory.Block(ctx, f.room.ID, day("2024-06-02"))
	var conflict *utils.ConflictError
	require.ErrorAs(t, err, &conflict)

	// blocking an already blocked day stays a no-op
	require.NoError(t, f.inventory.Block(ctx, f.room.ID, day("2024-06-10")))
	require.NoError(t, f.inventory.Block(ctx, f.room.ID, day("2024-06-10")))
}

func TestConcurrentOverlappingClaimsExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.createBooking(t, "2024-06-01", "2024-06-05")
	b := f.createBooking(t, "2024-06-03", "2024-06-07")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = f.inventory.Allocate(ctx, a.ID, f.room.ID, a.CheckIn, a.CheckOut)
	}()
	go func() {
		defer wg.Done()
		errs[1] = f.inventory.Allocate(ctx, b.ID, f.room.ID, b.CheckIn, b.CheckOut)
	}()
	wg.Wait()

	var conflicts, wins int
	var winner uint
	for i, err := range errs {
		if err == nil {
			wins++
			winner = []uint{a.ID, b.ID}[i]
			continue
		}
		var conflict *utils.ConflictError
		require.ErrorAs(t, err, &conflict)
		conflicts++
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 1, conflicts)

	for _, owner := range f.slotOwners(t, f.room.ID) {
		assert.Equal(t, winner, owner)
	}
}
