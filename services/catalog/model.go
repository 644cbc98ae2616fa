package catalog

import (
	"time"

	"artisan-marketplace/services/moderation"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Product is a sellable artisan good with a finite stock counter.
// StockQuantity never goes negative and is only mutated through the
// StockLedger.
type Product struct {
	ID               string          `gorm:"column:id;primaryKey"`
	OwnerID          string          `gorm:"column:owner_id;index;not null"`
	Name             string          `gorm:"column:name;type:varchar(255);not null"`
	Description      string          `gorm:"column:description;type:text"`
	Price            decimal.Decimal `gorm:"column:price;type:decimal(12,2);not null"`
	StockQuantity    int64           `gorm:"column:stock_quantity;not null;default:0"`
	moderation.State `gorm:"embedded"`
	Metadata         datatypes.JSON `gorm:"column:metadata"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}
