package services

import (
	"context"
	"errors"
	"fmt"

	"lodgekeeper-backend/models"
	"lodgekeeper-backend/utils"

	"gorm.io/gorm"
)

type CustomerService struct {
	DB *gorm.DB
}

func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{DB: db}
}

func (s *CustomerService) Create(ctx context.Context, cust *models.Customer) error {
	if cust.FullName == "" {
		return &utils.ValidationError{Field: "fullName", Reason: "required"}
	}
	return s.DB.WithContext(ctx).Create(cust).Error
}

func (s *CustomerService) GetByID(ctx context.Context, id uint) (*models.Customer, error) {
	var cust models.Customer
	if err := s.DB.WithContext(ctx).First(&cust, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer %d: %w", id, utils.ErrNotFound)
		}
		return nil, err
	}
	return &cust, nil
}
