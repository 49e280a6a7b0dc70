package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront-insights-core/internal/domain"
	"storefront-insights-core/internal/ports"
)

// GormUserRepository implements UserRepository on the relational store.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new user repository.
func NewGormUserRepository(db *gorm.DB) ports.UserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *GormUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

func (r *GormUserRepository) Update(ctx context.Context, user *domain.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// Delete removes the user and everything hanging off it. Integration rows
// carry a cascading foreign key, but synced commerce rows are cleaned up
// explicitly so the behavior does not depend on driver FK enforcement.
func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&domain.OrderItem{}, &domain.Order{}, &domain.Customer{},
		} {
			if err := tx.Where("user_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to delete synced rows: %w", err)
			}
		}
		if err := tx.Where("product_id IN (?)",
			tx.Model(&domain.Product{}).Select("id").Where("user_id = ?", id),
		).Delete(&domain.Variant{}).Error; err != nil {
			return fmt.Errorf("failed to delete synced variants: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Product{}).Error; err != nil {
			return fmt.Errorf("failed to delete synced products: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Integration{}).Error; err != nil {
			return fmt.Errorf("failed to delete integrations: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&domain.User{}).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}
