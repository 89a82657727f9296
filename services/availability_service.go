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

// AvailabilityService answers "is room R free for [checkIn, checkOut)?".
// Read-only and non-authoritative: the allocator's atomic claim is the
// true gate, this scan only rejects doomed requests early. Any failure
// to complete the scan reports "not available", never an error.
type AvailabilityService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

func NewAvailabilityService(db *gorm.DB) *AvailabilityService {
	return &AvailabilityService{DB: db, Logger: utils.GetLogger()}
}

// IsAvailable scans the inventory ledger for the half-open range. The
// checkout day itself is not occupied, so back-to-back stays on the
// same room are fine.
func (s *AvailabilityService) IsAvailable(ctx context.Context, roomID uint, checkIn, checkOut time.Time) bool {
	from := utils.DayStart(checkIn)
	to := utils.DayStart(checkOut)
	if !from.Before(to) {
		return false
	}

	var room models.Room
	if err := s.DB.WithContext(ctx).First(&room, roomID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.Logger.Warn("availability scan failed", zap.Uint("roomId", roomID), zap.Error(err))
		}
		return false
	}
	if room.IsBlocked {
		return false
	}

	var taken int64
	err := s.DB.WithContext(ctx).Model(&models.InventorySlot{}).
		Where("room_id = ? AND date >= ? AND date < ?", roomID, from, to).
		Where("booking_id IS NOT NULL OR is_blocked = ?", true).
		Count(&taken).Error
	if err != nil {
		s.Logger.Warn("availability scan failed", zap.Uint("roomId", roomID), zap.Error(err))
		return false
	}
	return taken == 0
}

// OverlapExists is the booking-level formulation of the same question:
// does any allocation-holding booking on the room overlap the half-open
// range? PENDING bookings hold no inventory yet, so they don't count.
// Must agree with IsAvailable; the ledger is authoritative.
func (s *AvailabilityService) OverlapExists(ctx context.Context, roomID uint, checkIn, checkOut time.Time) (bool, error) {
	from := utils.DayStart(checkIn)
	to := utils.DayStart(checkOut)

	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Booking{}).
		Where("room_id = ?", roomID).
		Where("status IN ?", []models.BookingStatus{
			models.BookingConfirmed, models.BookingCheckedIn, models.BookingCheckedOut,
		}).
		Where("check_in < ? AND check_out > ?", to, from).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
