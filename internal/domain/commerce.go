package domain

import (
	"time"

	"github.com/google/uuid"
)

// Synced commerce entities. Rows are keyed by the platform's own string id
// and tagged with the platform so a second marketplace can share the tables.

type Product struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Platform    string    `json:"platform" gorm:"not null"`
	Title       string    `json:"title"`
	Description string    `json:"description" gorm:"type:text"`
	Vendor      string    `json:"vendor"`
	ProductType string    `json:"product_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Variants []Variant `json:"variants,omitempty" gorm:"foreignKey:ProductID"`
}

func (Product) TableName() string { return "products" }

type Variant struct {
	ID                string  `json:"id" gorm:"primaryKey"`
	ProductID         string  `json:"product_id" gorm:"index"`
	Platform          string  `json:"platform" gorm:"not null"`
	Title             string  `json:"title"`
	SKU               string  `json:"sku" gorm:"column:sku"`
	Price             float64 `json:"price"`
	InventoryQuantity int     `json:"inventory_quantity"`
}

func (Variant) TableName() string { return "variants" }

type Customer struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Platform    string    `json:"platform" gorm:"not null"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	OrdersCount int       `json:"orders_count"`
	TotalSpent  float64   `json:"total_spent"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

type Order struct {
	ID                string    `json:"id" gorm:"primaryKey"`
	UserID            uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Platform          string    `json:"platform" gorm:"not null"`
	CustomerID        string    `json:"customer_id" gorm:"index"`
	Email             string    `json:"email"`
	FinancialStatus   string    `json:"financial_status"`
	FulfillmentStatus string    `json:"fulfillment_status"`
	TotalPrice        float64   `json:"total_price"`
	Currency          string    `json:"currency"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	OrderID   string    `json:"order_id" gorm:"index"`
	ProductID string    `json:"product_id"`
	VariantID string    `json:"variant_id"`
	Platform  string    `json:"platform" gorm:"not null"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
	Title     string    `json:"title"`
	SKU       string    `json:"sku" gorm:"column:sku"`
}

func (OrderItem) TableName() string { return "order_items" }

// SyncBatch is one pull's worth of upstream data, written transactionally.
// Variants ride inside their products and items inside their orders.
type SyncBatch struct {
	IntegrationID uuid.UUID
	Products      []Product
	Customers     []Customer
	Orders        []Order
}
