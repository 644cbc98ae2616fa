package order

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Order is a committed purchase of one product line. Product, quantity and
// amounts are immutable after creation; only Status and TrackingNumber
// change later. Rows are created exclusively by the order processor, never
// partially.
type Order struct {
	ID              string          `gorm:"column:id;primaryKey"`
	Code            string          `gorm:"column:code;type:varchar(50);uniqueIndex"`
	ProductID       string          `gorm:"column:product_id;index;not null"`
	BuyerID         string          `gorm:"column:buyer_id;index;not null"`
	Quantity        int64           `gorm:"column:quantity;not null"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:decimal(12,2);not null"`
	TotalAmount     decimal.Decimal `gorm:"column:total_amount;type:decimal(12,2);not null"`
	Status          Status          `gorm:"column:status;type:varchar(20);not null;default:'pending';index"`
	TrackingNumber  string          `gorm:"column:tracking_number;type:varchar(100)"`
	ShippingAddress string          `gorm:"column:shipping_address;type:text"`
	PaymentMethod   string          `gorm:"column:payment_method;type:varchar(50)"`
	Metadata        datatypes.JSON  `gorm:"column:metadata"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}
