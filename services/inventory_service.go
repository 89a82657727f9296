package services

import (
	"context"
	"errors"
	"time"

	"lodgekeeper-backend/models"
	"lodgekeeper-backend/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InventoryService owns the ledger of per (room, day) slots and the
// atomic claim/release operations on it. The conditional UPDATE plus
// the (room_id, date) unique index give per-slot compare-and-set
// semantics: of two concurrent confirmations for overlapping ranges,
// exactly one observes a conflict.
type InventoryService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

func NewInventoryService(db *gorm.DB) *InventoryService {
	return &InventoryService{DB: db, Logger: utils.GetLogger()}
}

// Allocate claims every day in [checkIn, checkOut) for the booking.
// All-or-nothing: the first colliding day aborts the transaction and
// nothing stays claimed. Re-claiming a day the booking already owns is
// a no-op, so retrying a partially failed confirm is safe.
func (s *InventoryService) Allocate(ctx context.Context, bookingID, roomID uint, checkIn, checkOut time.Time) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.allocateWithin(tx, bookingID, roomID, checkIn, checkOut)
	})
}

// allocateWithin runs the claim loop inside the caller's transaction so
// booking status writes and inventory claims commit together.
func (s *InventoryService) allocateWithin(tx *gorm.DB, bookingID, roomID uint, checkIn, checkOut time.Time) error {
	days := utils.DaysIn(checkIn, checkOut)
	if len(days) == 0 {
		return &utils.ValidationError{Field: "dateRange", Reason: "check_in must be before check_out"}
	}

	for _, day := range days {
		// CAS step 1: claim an existing free, unblocked slot.
		res := tx.Model(&models.InventorySlot{}).
			Where("room_id = ? AND date = ? AND booking_id IS NULL AND is_blocked = ?", roomID, day, false).
			Update("booking_id", bookingID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			continue
		}

		// Nothing updated: the slot is taken, blocked, or doesn't exist yet.
		var slot models.InventorySlot
		err := tx.Where("room_id = ? AND date = ?", roomID, day).Take(&slot).Error
		if err == nil {
			if slot.BookingID != nil && *slot.BookingID == bookingID && !slot.IsBlocked {
				continue // already ours
			}
			return &utils.ConflictError{RoomID: roomID, Date: day}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// CAS step 2: lazily create the slot. The unique index decides
		// the winner when two claims race on a day with no row yet.
		create := models.InventorySlot{RoomID: roomID, Date: day, BookingID: &bookingID}
		if err := tx.Create(&create).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateEntry(err) {
				return &utils.ConflictError{RoomID: roomID, Date: day}
			}
			return err
		}
	}

	s.Logger.Debug("inventory allocated",
		zap.Uint("bookingId", bookingID),
		zap.Uint("roomId", roomID),
		zap.Int("days", len(days)))
	return nil
}

// Release clears every slot owned by the booking. Idempotent, and a
// no-op for bookings that never allocated.
func (s *InventoryService) Release(ctx context.Context, bookingID uint) error {
	return s.releaseWithin(s.DB.WithContext(ctx), bookingID)
}

func (s *InventoryService) releaseWithin(tx *gorm.DB, bookingID uint) error {
	res := tx.Model(&models.InventorySlot{}).
		Where("booking_id = ?", bookingID).
		Update("booking_id", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		s.Logger.Debug("inventory released",
			zap.Uint("bookingId", bookingID),
			zap.Int64("slots", res.RowsAffected))
	}
	return nil
}

// reallocateWithin swaps the booking's allocation to a new room/range
// in the caller's transaction: the new range is claimed first, then the
// days no longer needed are released. On any conflict the transaction
// rolls back and the original allocation is untouched.
func (s *InventoryService) reallocateWithin(tx *gorm.DB, bookingID, newRoomID uint, checkIn, checkOut time.Time) error {
	if err := s.allocateWithin(tx, bookingID, newRoomID, checkIn, checkOut); err != nil {
		return err
	}
	res := tx.Model(&models.InventorySlot{}).
		Where("booking_id = ? AND (room_id <> ? OR date < ? OR date >= ?)",
			bookingID, newRoomID, utils.DayStart(checkIn), utils.DayStart(checkOut)).
		Update("booking_id", nil)
	return res.Error
}

// Block places an administrative hold on one (room, day), refusing to
// block a day a booking currently occupies.
func (s *InventoryService) Block(ctx context.Context, roomID uint, day time.Time) error {
	day = utils.DayStart(day)
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.InventorySlot{}).
			Where("room_id = ? AND date = ? AND booking_id IS NULL", roomID, day).
			Update("is_blocked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}

		var slot models.InventorySlot
		err := tx.Where("room_id = ? AND date = ?", roomID, day).Take(&slot).Error
		if err == nil {
			if slot.IsBlocked {
				return nil
			}
			return &utils.ConflictError{RoomID: roomID, Date: day}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		create := models.InventorySlot{RoomID: roomID, Date: day, IsBlocked: true}
		if err := tx.Create(&create).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateEntry(err) {
				return &utils.ConflictError{RoomID: roomID, Date: day}
			}
			return err
		}
		return nil
	})
}

// Unblock lifts an administrative hold. No-op when none exists.
func (s *InventoryService) Unblock(ctx context.Context, roomID uint, day time.Time) error {
	return s.DB.WithContext(ctx).Model(&models.InventorySlot{}).
		Where("room_id = ? AND date = ? AND is_blocked = ?", roomID, utils.DayStart(day), true).
		Update("is_blocked", false).Error
}

// SlotsOwnedBy returns the booking's current slots, ordered by day.
func (s *InventoryService) SlotsOwnedBy(ctx context.Context, bookingID uint) ([]models.InventorySlot, error) {
	var slots []models.InventorySlot
	err := s.DB.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("date ASC").
		Find(&slots).Error
	return slots, err
}
