package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lodgekeeper-backend/models"
	"lodgekeeper-backend/utils"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BookingService owns the booking lifecycle. Every transition that
// changes occupancy goes through InventoryService inside the same DB
// transaction, so a CANCELLED booking can never still own slots and a
// CONFIRMED booking always does.
type BookingService struct {
	DB           *gorm.DB
	Inventory    *InventoryService
	Availability *AvailabilityService
	Documents    DocumentGenerator
	KYC          KYCVerifier
	Logger       *zap.Logger
}

func NewBookingService(db *gorm.DB, inv *InventoryService, avail *AvailabilityService, docs DocumentGenerator, kyc KYCVerifier) *BookingService {
	return &BookingService{
		DB:           db,
		Inventory:    inv,
		Availability: avail,
		Documents:    docs,
		KYC:          kyc,
		Logger:       utils.GetLogger(),
	}
}

type CreateBookingInput struct {
	CustomerID  uint
	RoomID      uint
	CheckIn     time.Time
	CheckOut    time.Time
	TotalAmount float64
}

type ModifyBookingInput struct {
	RoomID   uint
	CheckIn  time.Time
	CheckOut time.Time
}

// Create validates the request, runs the early availability check and
// writes a PENDING booking. No inventory is claimed yet; that happens
// on Confirm, where the allocator is the real gate.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	checkIn := utils.DayStart(in.CheckIn)
	checkOut := utils.DayStart(in.CheckOut)
	if !checkIn.Before(checkOut) {
		return nil, &utils.ValidationError{Field: "dateRange", Reason: "check_in must be before check_out"}
	}
	if in.TotalAmount < 0 {
		return nil, &utils.ValidationError{Field: "totalAmount", Reason: "must not be negative"}
	}

	var cust models.Customer
	if err := s.DB.WithContext(ctx).First(&cust, in.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer %d: %w", in.CustomerID, utils.ErrNotFound)
		}
		return nil, fmt.Errorf("db error checking customer: %w", err)
	}
	var room models.Room
	if err := s.DB.WithContext(ctx).First(&room, in.RoomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("room %d: %w", in.RoomID, utils.ErrNotFound)
		}
		return nil, fmt.Errorf("db error checking room: %w", err)
	}

	if !s.Availability.IsAvailable(ctx, in.RoomID, checkIn, checkOut) {
		return nil, &utils.ConflictError{RoomID: in.RoomID, Date: checkIn}
	}

	booking := models.Booking{
		CustomerID:    in.CustomerID,
		RoomID:        in.RoomID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Nights:        utils.Nights(checkIn, checkOut),
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentUnpaid,
		TotalAmount:   in.TotalAmount,
	}

	// retry on the rare confirmation-code collision
	maxRetries := 5
	var createErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		raw, err := utils.GenerateConfirmationCode(8)
		if err != nil {
			return nil, fmt.Errorf("failed to generate confirmation code: %w", err)
		}
		booking.ConfirmationCode, err = utils.FormatConfirmationCode(raw)
		if err != nil {
			return nil, err
		}
		createErr = s.DB.WithContext(ctx).Create(&booking).Error
		if createErr == nil {
			break
		}
		if errors.Is(createErr, gorm.ErrDuplicatedKey) || isDuplicateEntry(createErr) {
			s.Logger.Warn("confirmation code collision, retrying", zap.Int("attempt", attempt+1))
			continue
		}
		return nil, fmt.Errorf("failed to create booking: %w", createErr)
	}
	if createErr != nil {
		return nil, fmt.Errorf("failed to create booking after retries: %w", createErr)
	}

	s.Logger.Info("booking created",
		zap.Uint("bookingId", booking.ID),
		zap.Uint("roomId", booking.RoomID),
		zap.String("code", booking.ConfirmationCode))
	return &booking, nil
}

// Confirm moves PENDING -> CONFIRMED, claiming the whole date range in
// the same transaction. A lost claim race aborts the transition with a
// ConflictError and leaves the booking PENDING; the caller re-queries
// availability and retries or cancels.
func (s *BookingService) Confirm(ctx context.Context, bookingID uint, actor string) (*models.Booking, error) {
	var booking models.Booking
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&booking, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("booking %d: %w", bookingID, utils.ErrNotFound)
			}
			return err
		}
		if !booking.Status.CanTransition(models.BookingConfirmed) {
			return &utils.InvalidTransitionError{
				Entity: "booking",
				From:   string(booking.Status),
				To:     string(models.BookingConfirmed),
			}
		}

		if err := s.Inventory.allocateWithin(tx, booking.ID, booking.RoomID, booking.CheckIn, booking.CheckOut); err != nil {
			return err
		}

		now := time.Now().UTC()
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", booking.ID, models.BookingPending).
			Updates(map[string]interface{}{
				"status":       models.BookingConfirmed,
				"confirmed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &utils.ConflictError{RoomID: booking.RoomID, Date: booking.CheckIn}
		}
		booking.Status = models.BookingConfirmed
		booking.ConfirmedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("booking confirmed",
		zap.Uint("bookingId", booking.ID),
		zap.String("actor", actor))

	s.attachConfirmationDocument(ctx, &booking)
	return &booking, nil
}

// attachConfirmationDocument is best-effort: the stay is confirmed
// whether or not the document generator is reachable.
func (s *BookingService) attachConfirmationDocument(ctx context.Context, booking *models.Booking) {
	if s.Documents == nil {
		return
	}
	var cust models.Customer
	var room models.Room
	_ = s.DB.WithContext(ctx).First(&cust, booking.CustomerID).Error
	_ = s.DB.WithContext(ctx).First(&room, booking.RoomID).Error

	ref, err := s.Documents.Generate(ctx, booking, &cust, &room)
	if err != nil {
		s.Logger.Warn("confirmation document generation failed",
			zap.Uint("bookingId", booking.ID), zap.Error(err))
		return
	}
	if err := s.DB.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", booking.ID).
		Update("confirmation_doc_ref", ref).Error; err != nil {
		s.Logger.Warn("failed to store confirmation document ref",
			zap.Uint("bookingId", booking.ID), zap.Error(err))
		return
	}
	booking.ConfirmationDocRef = ref
}

// CheckIn moves CONFIRMED -> CHECKED_IN once the external KYC predicate
// is satisfied. No inventory change.
func (s *BookingService) CheckIn(ctx context.Context, bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	if err := s.DB.WithContext(ctx).First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("booking %d: %w", bookingID, utils.ErrNotFound)
		}
		return nil, err
	}
	if !booking.Status.CanTransition(models.BookingCheckedIn) {
		return nil, &utils.InvalidTransitionError{
			Entity: "booking",
			From:   string(booking.Status),
			To:     string(models.BookingCheckedIn),
		}
	}

	ok, err := s.KYC.Satisfied(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("kyc check failed: %w", err)
	}
	if !ok {
		return nil, &utils.ValidationError{Field: "kyc", Reason: "identity verification not completed for this booking"}
	}

	now := time.Now().UTC()
	res := s.DB.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ? AND status = ?", bookingID, models.BookingConfirmed).
		Updates(map[string]interface{}{
			"status":        models.BookingCheckedIn,
			"checked_in_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &utils.InvalidTransitionError{
			Entity: "booking",
			From:   string(booking.Status),
			To:     string(models.BookingCheckedIn),
		}
	}
	booking.Status = models.BookingCheckedIn
	booking.CheckedInAt = &now
	return &booking, nil
}

// CheckOut marks the stay complete. Slots are kept as the historical
// record of an elapsed stay.
func (s *BookingService) CheckOut(ctx context.Context, bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	if err := s.DB.WithContext(ctx).First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("booking %d: %w", bookingID, utils.ErrNotFound)
		}
		return nil, err
	}
	if !booking.Status.CanTransition(models.BookingCheckedOut) {
		return nil, &utils.InvalidTransitionError{
			Entity: "booking",
			From:   string(booking.Status),
			To:     string(models.BookingCheckedOut),
		}
	}

	now := time.Now().UTC()
	res := s.DB.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ? AND status = ?", bookingID, models.BookingCheckedIn).
		Updates(map[string]interface{}{
			"status":         models.BookingCheckedOut,
			"checked_out_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &utils.InvalidTransitionError{
			Entity: "booking",
			From:   string(booking.Status),
			To:     string(models.BookingCheckedOut),
		}
	}
	booking.Status = models.BookingCheckedOut
	booking.CheckedOutAt = &now
	return &booking, nil
}

// Cancel releases claimed inventory in the same transaction as the
// status write, so there is no window where a CANCELLED booking still
// owns slots. Releasing an unclaimed range is a no-op, which makes
// cancelling a PENDING booking safe.
func (s *BookingService) Cancel(ctx context.Context, bookingID uint, actor string) (*models.Booking, error) {
	var booking models.Booking
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&booking, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("booking %d: %w", bookingID, utils.ErrNotFound)
			}
			return err
		}
		if !booking.Status.CanTransition(models.BookingCancelled) {
			return &utils.InvalidTransitionError{
				Entity: "booking",
				From:   string(booking.Status),
				To:     string(models.BookingCancelled),
			}
		}

		now := time.Now().UTC()
		if err := tx.Model(&booking).Updates(map[string]interface{}{
			"status":       models.BookingCancelled,
			"cancelled_at": now,
		}).Error; err != nil {
			return err
		}
		booking.Status = models.BookingCancelled
		booking.CancelledAt = &now

		return s.Inventory.releaseWithin(tx, booking.ID)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("booking cancelled",
		zap.Uint("bookingId", booking.ID),
		zap.String("actor", actor))
	return &booking, nil
}

// Modify changes room or date range. For a CONFIRMED booking the swap
// claims the new range before releasing the old one, inside a single
// transaction: if the new range cannot be claimed the booking keeps its
// original allocation. Every change is appended to the modification
// history.
func (s *BookingService) Modify(ctx context.Context, bookingID uint, in ModifyBookingInput, actor string) (*models.Booking, error) {
	checkIn := utils.DayStart(in.CheckIn)
	checkOut := utils.DayStart(in.CheckOut)
	if !checkIn.Before(checkOut) {
		return nil, &utils.ValidationError{Field: "dateRange", Reason: "check_in must be before check_out"}
	}

	var room models.Room
	if err := s.DB.WithContext(ctx).First(&room, in.RoomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("room %d: %w", in.RoomID, utils.ErrNotFound)
		}
		return nil, err
	}

	var booking models.Booking
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&booking, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("booking %d: %w", bookingID, utils.ErrNotFound)
			}
			return err
		}
		if booking.Status != models.BookingPending && booking.Status != models.BookingConfirmed {
			return &utils.InvalidTransitionError{
				Entity: "booking",
				From:   string(booking.Status),
				To:     "MODIFIED",
			}
		}

		// A PENDING booking holds no allocation to swap, so the scan is
		// the only gate before confirm time.
		if booking.Status == models.BookingPending {
			if !s.Availability.IsAvailable(ctx, in.RoomID, checkIn, checkOut) {
				return &utils.ConflictError{RoomID: in.RoomID, Date: checkIn}
			}
		}

		if booking.Status == models.BookingConfirmed {
			if err := s.Inventory.reallocateWithin(tx, booking.ID, in.RoomID, checkIn, checkOut); err != nil {
				return err
			}
		}

		changes, _ := json.Marshal(map[string]interface{}{
			"room_id":   map[string]uint{"from": booking.RoomID, "to": in.RoomID},
			"check_in":  map[string]string{"from": booking.CheckIn.Format("2006-01-02"), "to": checkIn.Format("2006-01-02")},
			"check_out": map[string]string{"from": booking.CheckOut.Format("2006-01-02"), "to": checkOut.Format("2006-01-02")},
		})
		mod := models.BookingModification{
			BookingID: booking.ID,
			ChangedBy: actor,
			Changes:   datatypes.JSON(changes),
		}
		if err := tx.Create(&mod).Error; err != nil {
			return err
		}

		if err := tx.Model(&booking).Updates(map[string]interface{}{
			"room_id":   in.RoomID,
			"check_in":  checkIn,
			"check_out": checkOut,
			"nights":    utils.Nights(checkIn, checkOut),
		}).Error; err != nil {
			return err
		}
		booking.RoomID = in.RoomID
		booking.CheckIn = checkIn
		booking.CheckOut = checkOut
		booking.Nights = utils.Nights(checkIn, checkOut)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("booking modified",
		zap.Uint("bookingId", booking.ID),
		zap.String("actor", actor))
	return &booking, nil
}

// GetByID loads a booking with its relations.
func (s *BookingService) GetByID(ctx context.Context, bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	err := s.DB.WithContext(ctx).
		Preload("Room.RoomType").
		Preload("Customer").
		Preload("Modifications").
		First(&booking, bookingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("booking %d: %w", bookingID, utils.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve booking: %w", err)
	}
	return &booking, nil
}

// List returns bookings newest first.
func (s *BookingService) List(ctx context.Context) ([]models.Booking, error) {
	var list []models.Booking
	err := s.DB.WithContext(ctx).
		Preload("Customer").
		Preload("Room").
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve bookings: %w", err)
	}
	return list, nil
}
