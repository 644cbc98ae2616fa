package catalog

import (
	"context"
	"time"

	"artisan-marketplace/pkg/errutil"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

// ErrInsufficientStock is returned when a decrement would drive a product's
// stock below zero. The guarded UPDATE makes the check-and-decrement a
// single atomic statement, so concurrent orders can never oversell.
func ErrInsufficientStock() error {
	return errutil.BadRequest("Insufficient stock", nil)
}

// IsInsufficientStock reports whether err is the stock shortfall error.
func IsInsufficientStock(err error) bool {
	be, ok := err.(errutil.BaseError)
	return ok && be.Code == errutil.StatusBadRequest && be.Message == "Insufficient stock"
}

// StockLedger owns every mutation of Product.StockQuantity. Call sites never
// assign the counter directly.
type StockLedger struct {
	db *gorm.DB
}

type StockLedgerParams struct {
	fx.In

	DB *gorm.DB
}

func NewStockLedger(p StockLedgerParams) *StockLedger {
	return &StockLedger{db: p.DB}
}

// Decrement atomically reduces a product's stock by qty within tx. The
// WHERE guard rejects the write when qty exceeds the current value.
func (l *StockLedger) Decrement(ctx context.Context, tx *gorm.DB, productID string, qty int64) error {
	if tx == nil {
		tx = l.db
	}

	res := tx.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, qty).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - ?", qty),
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock()
	}

	return nil
}

// Restock returns qty units to a product's stock, used when a not-yet
// delivered order is cancelled or when the owner replenishes inventory.
func (l *StockLedger) Restock(ctx context.Context, tx *gorm.DB, productID string, qty int64) error {
	if tx == nil {
		tx = l.db
	}

	res := tx.WithContext(ctx).Model(&Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity + ?", qty),
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errutil.NotFound("product not found", nil)
	}

	return nil
}
