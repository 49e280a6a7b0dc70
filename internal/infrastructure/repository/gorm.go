// Package repository implements persistence on a relational store via GORM.
package repository

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront-insights-core/internal/domain"
)

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the schema for every persisted entity.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Integration{},
		&domain.Product{},
		&domain.Variant{},
		&domain.Customer{},
		&domain.Order{},
		&domain.OrderItem{},
	)
}
