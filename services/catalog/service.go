package catalog

import (
	"context"
	"time"

	"artisan-marketplace/pkg/authz"
	"artisan-marketplace/pkg/db/option"
	"artisan-marketplace/pkg/db/pagination"
	"artisan-marketplace/pkg/errutil"
	"artisan-marketplace/pkg/repository"
	"artisan-marketplace/services/moderation"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	gate     *moderation.Gate
	enforcer *authz.Enforcer
	stock    *StockLedger

	products repository.Repository[Product]
}

type ServiceParams struct {
	fx.In

	DB       *gorm.DB
	Node     *snowflake.Node
	Gate     *moderation.Gate
	Enforcer *authz.Enforcer
	Stock    *StockLedger
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		gate:     p.Gate,
		enforcer: p.Enforcer,
		stock:    p.Stock,
		products: repository.ProvideStore[Product](p.DB),
	}
}

type CreateProductInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int64
	Metadata      datatypes.JSON
}

func (s *Service) CreateProduct(ctx context.Context, p authz.Principal, in CreateProductInput) (*Product, error) {
	if !s.enforcer.Can(p, authz.ObjectContent, authz.ActionCreate) {
		return nil, errutil.Forbidden("not allowed to create products", nil)
	}
	if in.Name == "" {
		return nil, errutil.ValidationFailed("name is required", nil)
	}
	if in.Price.IsNegative() {
		return nil, errutil.ValidationFailed("price must not be negative", nil)
	}
	if in.StockQuantity < 0 {
		return nil, errutil.ValidationFailed("stock_quantity must not be negative", nil)
	}

	product := &Product{
		ID:            s.node.Generate().String(),
		OwnerID:       p.ID,
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
		State:         moderation.State{Status: s.gate.InitialStatus(p)},
		Metadata:      in.Metadata,
	}

	if err := s.products.Create(ctx, product); err != nil {
		zap.L().Error("failed to create product", zap.Error(err))
		return nil, err
	}

	return product, nil
}

type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Metadata    datatypes.JSON
}

// UpdateProduct lets the owner (or an administrator) edit mutable fields.
// Stock is not edited here; it moves only through the StockLedger.
func (s *Service) UpdateProduct(ctx context.Context, p authz.Principal, id string, in UpdateProductInput) (*Product, error) {
	product, err := s.products.FindOne(ctx, &Product{ID: id})
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errutil.NotFound("product not found", nil)
	}
	if product.OwnerID != p.ID && !p.IsAdmin() {
		return nil, errutil.Forbidden("not the product owner", nil)
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, errutil.ValidationFailed("name must not be empty", nil)
		}
		product.Name = *in.Name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, errutil.ValidationFailed("price must not be negative", nil)
		}
		product.Price = *in.Price
	}
	if in.Metadata != nil {
		product.Metadata = in.Metadata
	}

	product.State = s.gate.OnContentEdited(product.State)

	updates := map[string]any{
		"name":              product.Name,
		"description":       product.Description,
		"price":             product.Price,
		"metadata":          product.Metadata,
		"moderation_status": product.Status,
		"rejection_reason":  product.RejectionReason,
		"updated_at":        time.Now(),
	}
	if err := s.products.Update(ctx, product.ID, updates); err != nil {
		zap.L().Error("failed to update product", zap.Error(err), zap.String("product_id", id))
		return nil, err
	}

	return product, nil
}

// AddStock replenishes inventory through the ledger.
func (s *Service) AddStock(ctx context.Context, p authz.Principal, id string, qty int64) error {
	if qty < 1 {
		return errutil.ValidationFailed("quantity must be at least 1", nil)
	}

	product, err := s.products.FindOne(ctx, &Product{ID: id})
	if err != nil {
		return err
	}
	if product == nil {
		return errutil.NotFound("product not found", nil)
	}
	if product.OwnerID != p.ID && !p.IsAdmin() {
		return errutil.Forbidden("not the product owner", nil)
	}

	return s.stock.Restock(ctx, nil, id, qty)
}

// GetProduct returns one product. Rows that are not approved stay hidden
// from everyone but their owner and administrators.
func (s *Service) GetProduct(ctx context.Context, p authz.Principal, id string) (*Product, error) {
	product, err := s.products.FindOne(ctx, &Product{ID: id})
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errutil.NotFound("product not found", nil)
	}
	if !product.PubliclyVisible() && product.OwnerID != p.ID && !p.IsAdmin() {
		return nil, errutil.NotFound("product not found", nil)
	}
	return product, nil
}

// ListPublic returns approved products, newest first.
func (s *Service) ListPublic(ctx context.Context, page pagination.Pagination) ([]*Product, *pagination.PageInfo, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 10
	}

	opts := []option.QueryOption{
		option.ApplyOperator(option.Condition{Field: "moderation_status", Operator: option.EQ, Value: moderation.StatusApproved}),
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
		option.WithLimit(limit + 1),
	}
	if page.Cursor != "" {
		cursor, err := pagination.DecodeCursor(page.Cursor)
		if err != nil {
			return nil, nil, errutil.ValidationFailed("invalid cursor", err)
		}
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field: "created_at", Operator: option.LT, Value: cursor.CreatedAt,
		}))
	}

	products, err := s.products.Find(ctx, &Product{}, opts...)
	if err != nil {
		return nil, nil, err
	}

	products, info := pagination.BuildCursorPageInfo(products, limit, func(p *Product) string {
		c, _ := pagination.EncodeCursor(pagination.Cursor{CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339Nano), ID: p.ID})
		return c
	})

	return products, info, nil
}
