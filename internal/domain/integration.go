package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlatformShopify is the only platform tag recognized today.
const PlatformShopify = "shopify"

// Integration represents one linked external-platform account for one user.
// AccessToken is the long-lived credential obtained at handshake completion;
// it is never serialized into API responses.
type Integration struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_integrations_owner_platform_shop;index"`
	Platform      string     `json:"platform" gorm:"size:50;not null;uniqueIndex:idx_integrations_owner_platform_shop"`
	ShopURL       string     `json:"shop_url" gorm:"size:255;uniqueIndex:idx_integrations_owner_platform_shop"`
	MarketplaceID *string    `json:"marketplace_id,omitempty" gorm:"size:100"`
	AccessToken   string     `json:"-" gorm:"column:access_token;not null"`
	IsActive      bool       `json:"is_active" gorm:"not null"`
	LastSyncedAt  *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (Integration) TableName() string { return "integrations" }
