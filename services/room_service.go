package services

import (
	"context"
	"errors"
	"fmt"

	"lodgekeeper-backend/models"
	"lodgekeeper-backend/utils"

	"gorm.io/gorm"
)

type RoomService struct {
	DB *gorm.DB
}

func NewRoomService(db *gorm.DB) *RoomService {
	return &RoomService{DB: db}
}

func (s *RoomService) Create(ctx context.Context, room *models.Room) error {
	if room.RoomNumber == "" {
		return &utils.ValidationError{Field: "roomNumber", Reason: "required"}
	}
	return s.DB.WithContext(ctx).Create(room).Error
}

func (s *RoomService) GetAll(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	err := s.DB.WithContext(ctx).Preload("RoomType").Find(&rooms).Error
	return rooms, err
}

func (s *RoomService) GetByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	if err := s.DB.WithContext(ctx).Preload("RoomType").First(&room, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("room %d: %w", id, utils.ErrNotFound)
		}
		return nil, err
	}
	return &room, nil
}

func (s *RoomService) Update(ctx context.Context, room *models.Room) error {
	return s.DB.WithContext(ctx).Model(&models.Room{}).Where("id = ?", room.ID).Updates(room).Error
}

// SetBlocked flips the room-wide administrative hold. Per-day holds go
// through InventoryService.Block instead.
func (s *RoomService) SetBlocked(ctx context.Context, id uint, blocked bool) error {
	res := s.DB.WithContext(ctx).Model(&models.Room{}).Where("id = ?", id).Update("is_blocked", blocked)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("room %d: %w", id, utils.ErrNotFound)
	}
	return nil
}

type RoomTypeService struct {
	DB *gorm.DB
}

func NewRoomTypeService(db *gorm.DB) *RoomTypeService {
	return &RoomTypeService{DB: db}
}

func (s *RoomTypeService) Create(ctx context.Context, rt *models.RoomType) error {
	return s.DB.WithContext(ctx).Create(rt).Error
}

func (s *RoomTypeService) GetAll(ctx context.Context) ([]models.RoomType, error) {
	var types []models.RoomType
	err := s.DB.WithContext(ctx).Find(&types).Error
	return types, err
}
