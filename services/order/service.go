package order

import (
	"context"
	"time"

	"artisan-marketplace/pkg/authz"
	dbpkg "artisan-marketplace/pkg/db"
	"artisan-marketplace/pkg/db/option"
	"artisan-marketplace/pkg/errutil"
	"artisan-marketplace/pkg/repository"
	"artisan-marketplace/pkg/sequence"
	"artisan-marketplace/services/catalog"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service is the order processor: the only write path for Order rows and,
// via the stock ledger, the only consumer of product stock.
type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	seq      sequence.Generator
	stock    *catalog.StockLedger
	enforcer *authz.Enforcer

	orders   repository.Repository[Order]
	products repository.Repository[catalog.Product]
}

type ServiceParams struct {
	fx.In

	DB       *gorm.DB
	Node     *snowflake.Node
	Seq      sequence.Generator
	Stock    *catalog.StockLedger
	Enforcer *authz.Enforcer
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		seq:      p.Seq,
		stock:    p.Stock,
		enforcer: p.Enforcer,
		orders:   repository.ProvideStore[Order](p.DB),
		products: repository.ProvideStore[catalog.Product](p.DB),
	}
}

type PlaceOrderInput struct {
	ProductID       string
	Quantity        int64
	ShippingAddress string
	PaymentMethod   string
}

type BatchItem struct {
	ProductID string
	Quantity  int64
}

type PlaceBatchOrderInput struct {
	Items           []BatchItem
	ShippingAddress string
	PaymentMethod   string
}

// PlaceOrder commits the stock decrement and the order row as one atomic
// unit: a shortfall or failure leaves neither behind.
func (s *Service) PlaceOrder(ctx context.Context, p authz.Principal, in PlaceOrderInput) (*Order, error) {
	if !s.enforcer.Can(p, authz.ObjectOrder, authz.ActionPlace) {
		return nil, errutil.Forbidden("not allowed to place orders", nil)
	}
	if in.Quantity < 1 {
		return nil, errutil.ValidationFailed("quantity must be at least 1", nil)
	}

	var placed *Order
	err := dbpkg.RunInTransaction(s.db, func(tx *gorm.DB) error {
		o, err := s.placeLine(ctx, tx, p, in.ProductID, in.Quantity, in.ShippingAddress, in.PaymentMethod)
		if err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("order placed",
		zap.String("order_id", placed.ID),
		zap.String("product_id", placed.ProductID),
		zap.Int64("quantity", placed.Quantity),
	)
	return placed, nil
}

// PlaceBatchOrder places every line of a cart checkout or none of them.
// Items are validated and applied in caller-supplied order; the first
// shortfall aborts the transaction before any decrement is visible.
func (s *Service) PlaceBatchOrder(ctx context.Context, p authz.Principal, in PlaceBatchOrderInput) ([]*Order, error) {
	if !s.enforcer.Can(p, authz.ObjectOrder, authz.ActionPlace) {
		return nil, errutil.Forbidden("not allowed to place orders", nil)
	}
	if len(in.Items) == 0 {
		return nil, errutil.ValidationFailed("items must not be empty", nil)
	}
	for _, item := range in.Items {
		if item.ProductID == "" {
			return nil, errutil.ValidationFailed("product_id is required", nil,
				errutil.WithDetails(errutil.Detail{Field: "items", Message: "missing product_id"}))
		}
		if item.Quantity < 1 {
			return nil, errutil.ValidationFailed("quantity must be at least 1", nil,
				errutil.WithDetails(errutil.Detail{Field: "items", Message: "invalid quantity"}))
		}
	}

	var placed []*Order
	err := dbpkg.RunInTransaction(s.db, func(tx *gorm.DB) error {
		placed = placed[:0]

		// First pass: lock every product row and verify stock in caller
		// order. Locks held until commit keep a concurrent batch from
		// passing its own check on the same rows.
		products := make([]*catalog.Product, len(in.Items))
		for i, item := range in.Items {
			product, err := s.loadSellable(ctx, tx, item.ProductID)
			if err != nil {
				return err
			}
			if product.StockQuantity < item.Quantity {
				return catalog.ErrInsufficientStock()
			}
			products[i] = product
		}

		// Second pass: all lines fit, apply them.
		for i, item := range in.Items {
			o, err := s.commitLine(ctx, tx, p, products[i], item.Quantity, in.ShippingAddress, in.PaymentMethod)
			if err != nil {
				return err
			}
			placed = append(placed, o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("batch order placed", zap.String("buyer_id", p.ID), zap.Int("lines", len(placed)))
	return placed, nil
}

func (s *Service) placeLine(ctx context.Context, tx *gorm.DB, p authz.Principal, productID string, qty int64, shipping, payment string) (*Order, error) {
	product, err := s.loadSellable(ctx, tx, productID)
	if err != nil {
		return nil, err
	}
	return s.commitLine(ctx, tx, p, product, qty, shipping, payment)
}

// loadSellable loads a product row under FOR UPDATE so the price and stock
// read here cannot change before commit.
func (s *Service) loadSellable(ctx context.Context, tx *gorm.DB, productID string) (*catalog.Product, error) {
	product, err := s.products.WithTrx(tx).FindOne(ctx, &catalog.Product{ID: productID}, option.WithLockingUpdate())
	if err != nil {
		return nil, err
	}
	if product == nil || !product.PubliclyVisible() {
		return nil, errutil.NotFound("product not found", nil)
	}
	return product, nil
}

func (s *Service) commitLine(ctx context.Context, tx *gorm.DB, p authz.Principal, product *catalog.Product, qty int64, shipping, payment string) (*Order, error) {
	if err := s.stock.Decrement(ctx, tx, product.ID, qty); err != nil {
		return nil, err
	}

	code, err := s.seq.NextOrderCode(ctx)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:              s.node.Generate().String(),
		Code:            code,
		ProductID:       product.ID,
		BuyerID:         p.ID,
		Quantity:        qty,
		UnitPrice:       product.Price,
		TotalAmount:     product.Price.Mul(decimal.NewFromInt(qty)),
		Status:          StatusPending,
		ShippingAddress: shipping,
		PaymentMethod:   payment,
	}
	if err := s.orders.WithTrx(tx).Create(ctx, o); err != nil {
		return nil, err
	}

	return o, nil
}

// UpdateStatus moves an order along the fulfilment chain. Only the buyer or
// an administrator may call it; cancelling a not-yet-delivered order
// returns its quantity to stock in the same transaction.
func (s *Service) UpdateStatus(ctx context.Context, p authz.Principal, orderID string, newStatus Status, trackingNumber string) (*Order, error) {
	if !s.enforcer.Can(p, authz.ObjectOrder, authz.ActionUpdateStatus) {
		return nil, errutil.Forbidden("not allowed to update orders", nil)
	}
	if !newStatus.Valid() {
		return nil, errutil.ValidationFailed("unknown order status", nil)
	}

	var updated *Order
	err := dbpkg.RunInTransaction(s.db, func(tx *gorm.DB) error {
		o, err := s.orders.WithTrx(tx).FindOne(ctx, &Order{ID: orderID}, option.WithLockingUpdate())
		if err != nil {
			return err
		}
		if o == nil {
			return errutil.NotFound("order not found", nil)
		}
		if o.BuyerID != p.ID && !p.IsAdmin() {
			return errutil.Forbidden("not the order owner", nil)
		}
		if !CanTransition(o.Status, newStatus) {
			return errutil.UnprocessableEntity("invalid status transition", nil)
		}

		updates := map[string]any{
			"status":     newStatus,
			"updated_at": time.Now(),
		}
		if trackingNumber != "" {
			updates["tracking_number"] = trackingNumber
			o.TrackingNumber = trackingNumber
		}
		if err := s.orders.WithTrx(tx).Update(ctx, o.ID, updates); err != nil {
			return err
		}

		if newStatus == StatusCancelled {
			if err := s.stock.Restock(ctx, tx, o.ProductID, o.Quantity); err != nil {
				return err
			}
		}

		o.Status = newStatus
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *Service) GetOrder(ctx context.Context, p authz.Principal, orderID string) (*Order, error) {
	o, err := s.orders.FindOne(ctx, &Order{ID: orderID})
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, errutil.NotFound("order not found", nil)
	}
	if o.BuyerID != p.ID && !p.IsAdmin() {
		return nil, errutil.Forbidden("not the order owner", nil)
	}
	return o, nil
}

// ListOrders returns the caller's own orders, newest first.
func (s *Service) ListOrders(ctx context.Context, p authz.Principal) ([]*Order, error) {
	return s.orders.Find(ctx, &Order{BuyerID: p.ID},
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
	)
}
