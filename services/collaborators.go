package services

import (
	"context"
	"fmt"
	"strings"

	"lodgekeeper-backend/models"
	"lodgekeeper-backend/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentGenerator produces a retrievable confirmation document for a
// CONFIRMED booking. Rendering is an external concern; the engine only
// stores the returned reference.
type DocumentGenerator interface {
	Generate(ctx context.Context, booking *models.Booking, customer *models.Customer, room *models.Room) (string, error)
}

// KYCVerifier answers whether identity verification is satisfied for a
// booking. The verification workflow itself lives outside this system.
type KYCVerifier interface {
	Satisfied(ctx context.Context, bookingID uint) (bool, error)
}

// LocalDocumentGenerator stands in when no document service is
// configured: it logs the request and returns a deterministic
// reference, the same dev fallback pattern as mock email sending.
type LocalDocumentGenerator struct {
	Logger *zap.Logger
}

func NewLocalDocumentGenerator() *LocalDocumentGenerator {
	return &LocalDocumentGenerator{Logger: utils.GetLogger()}
}

func (g *LocalDocumentGenerator) Generate(ctx context.Context, booking *models.Booking, customer *models.Customer, room *models.Room) (string, error) {
	ref := fmt.Sprintf("confirmations/%s.pdf", strings.ReplaceAll(booking.ConfirmationCode, "-", ""))
	g.Logger.Info("[MOCK DOC] confirmation document generated",
		zap.Uint("bookingId", booking.ID),
		zap.String("code", booking.ConfirmationCode),
		zap.String("guest", customer.FullName),
		zap.String("room", room.RoomNumber),
		zap.String("ref", ref))
	return ref, nil
}

// GuestRecordVerifier satisfies KYC when at least one guest on the
// booking has an ID document on file.
type GuestRecordVerifier struct {
	DB *gorm.DB
}

func NewGuestRecordVerifier(db *gorm.DB) *GuestRecordVerifier {
	return &GuestRecordVerifier{DB: db}
}

func (v *GuestRecordVerifier) Satisfied(ctx context.Context, bookingID uint) (bool, error) {
	var count int64
	err := v.DB.WithContext(ctx).Model(&models.Guest{}).
		Where("booking_id = ?", bookingID).
		Where("id_number <> '' AND document_image_path <> ''").
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
