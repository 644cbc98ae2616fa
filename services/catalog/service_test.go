package catalog

import (
	"context"
	"testing"

	"artisan-marketplace/pkg/authz"
	"artisan-marketplace/pkg/config"
	"artisan-marketplace/pkg/db/pagination"
	"artisan-marketplace/pkg/errutil"
	"artisan-marketplace/services/identity"
	"artisan-marketplace/services/moderation"
	"artisan-marketplace/services/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCatalogFixture(t *testing.T) (*gorm.DB, *Service, *moderation.Gate) {
	t.Helper()
	db := testutil.NewTestDB(t, &identity.User{}, &Product{})
	enforcer := testutil.NewEnforcer(t)

	gate := moderation.NewGate(moderation.GateParams{
		Config:   &config.Config{},
		Enforcer: enforcer,
		Access:   []moderation.EntityAccess{NewAccess(AccessParams{DB: db})},
	})

	svc := NewService(ServiceParams{
		DB:       db,
		Node:     testutil.NewSnowflakeNode(t),
		Gate:     gate,
		Enforcer: enforcer,
		Stock:    NewStockLedger(StockLedgerParams{DB: db}),
	})

	return db, svc, gate
}

func TestCreateProductStartsPending(t *testing.T) {
	_, svc, _ := newCatalogFixture(t)

	p, err := svc.CreateProduct(context.Background(), testutil.Artisan("artisan-1"), CreateProductInput{
		Name:          "Walnut cutting board",
		Price:         decimal.NewFromFloat(48.50),
		StockQuantity: 3,
	})
	require.NoError(t, err)
	require.Equal(t, moderation.StatusPending, p.Status)
	require.Equal(t, "artisan-1", p.OwnerID)
}

func TestCreateProductByAdminIsApproved(t *testing.T) {
	_, svc, _ := newCatalogFixture(t)

	p, err := svc.CreateProduct(context.Background(), testutil.Admin("a1"), CreateProductInput{
		Name:  "Featured bowl",
		Price: decimal.NewFromInt(30),
	})
	require.NoError(t, err)
	require.Equal(t, moderation.StatusApproved, p.Status)
}

func TestCreateProductValidation(t *testing.T) {
	_, svc, _ := newCatalogFixture(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, testutil.Artisan("u1"), CreateProductInput{Price: decimal.NewFromInt(10)})
	requireStatus(t, err, errutil.StatusValidationFailed)

	_, err = svc.CreateProduct(ctx, testutil.Artisan("u1"), CreateProductInput{Name: "x", Price: decimal.NewFromInt(-1)})
	requireStatus(t, err, errutil.StatusValidationFailed)

	_, err = svc.CreateProduct(ctx, testutil.Artisan("u1"), CreateProductInput{Name: "x", StockQuantity: -5})
	requireStatus(t, err, errutil.StatusValidationFailed)
}

func TestCreateProductForbiddenForBuyer(t *testing.T) {
	_, svc, _ := newCatalogFixture(t)

	_, err := svc.CreateProduct(context.Background(), testutil.Buyer("b1"), CreateProductInput{
		Name:  "x",
		Price: decimal.NewFromInt(1),
	})
	requireStatus(t, err, errutil.StatusForbidden)
}

func TestUpdateProductOwnershipEnforced(t *testing.T) {
	_, svc, _ := newCatalogFixture(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, testutil.Artisan("owner"), CreateProductInput{
		Name:  "Scarf",
		Price: decimal.NewFromInt(20),
	})
	require.NoError(t, err)

	name := "Wool scarf"
	_, err = svc.UpdateProduct(ctx, testutil.Artisan("other"), p.ID, UpdateProductInput{Name: &name})
	requireStatus(t, err, errutil.StatusForbidden)

	updated, err := svc.UpdateProduct(ctx, testutil.Artisan("owner"), p.ID, UpdateProductInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Wool scarf", updated.Name)
}

func TestAddStock(t *testing.T) {
	db, svc, _ := newCatalogFixture(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, testutil.Artisan("owner"), CreateProductInput{
		Name:          "Candle",
		Price:         decimal.NewFromInt(12),
		StockQuantity: 1,
	})
	require.NoError(t, err)

	require.NoError(t, svc.AddStock(ctx, testutil.Artisan("owner"), p.ID, 4))
	require.EqualValues(t, 5, stockOf(t, db, p.ID))

	err = svc.AddStock(ctx, testutil.Artisan("other"), p.ID, 1)
	requireStatus(t, err, errutil.StatusForbidden)

	err = svc.AddStock(ctx, testutil.Artisan("owner"), p.ID, 0)
	requireStatus(t, err, errutil.StatusValidationFailed)
}

func TestListPublicOnlyApproved(t *testing.T) {
	_, svc, gate := newCatalogFixture(t)
	ctx := context.Background()

	pending, err := svc.CreateProduct(ctx, testutil.Artisan("u1"), CreateProductInput{Name: "Pending", Price: decimal.NewFromInt(5)})
	require.NoError(t, err)

	approved, err := svc.CreateProduct(ctx, testutil.Artisan("u1"), CreateProductInput{Name: "Approved", Price: decimal.NewFromInt(5)})
	require.NoError(t, err)
	require.NoError(t, gate.Approve(ctx, testutil.Admin("a1"),
		moderation.KindProduct, approved.ID))

	products, _, err := svc.ListPublic(ctx, pagination.Pagination{Limit: 10})
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, approved.ID, products[0].ID)
	require.NotEqual(t, pending.ID, products[0].ID)
}

func TestGetProductHiddenUntilApproved(t *testing.T) {
	_, svc, gate := newCatalogFixture(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, testutil.Artisan("owner"), CreateProductInput{
		Name:  "Hidden bowl",
		Price: decimal.NewFromInt(40),
	})
	require.NoError(t, err)

	// anonymous and unrelated callers cannot read the pending row
	_, err = svc.GetProduct(ctx, authz.Principal{}, p.ID)
	requireStatus(t, err, errutil.StatusNotFound)

	_, err = svc.GetProduct(ctx, testutil.Buyer("b1"), p.ID)
	requireStatus(t, err, errutil.StatusNotFound)

	got, err := svc.GetProduct(ctx, testutil.Artisan("owner"), p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)

	_, err = svc.GetProduct(ctx, testutil.Admin("a1"), p.ID)
	require.NoError(t, err)

	require.NoError(t, gate.Approve(ctx, testutil.Admin("a1"), moderation.KindProduct, p.ID))

	got, err = svc.GetProduct(ctx, authz.Principal{}, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
}

func TestAccessListPendingJoinsCreator(t *testing.T) {
	db, svc, _ := newCatalogFixture(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&identity.User{
		ID:          "artisan-1",
		DisplayName: "Mara",
		Role:        authz.RoleArtisan,
	}).Error)

	p, err := svc.CreateProduct(ctx, testutil.Artisan("artisan-1"), CreateProductInput{
		Name:  "Clay pot",
		Price: decimal.NewFromInt(15),
	})
	require.NoError(t, err)

	access := NewAccess(AccessParams{DB: db})
	items, err := access.ListByStatus(ctx, moderation.StatusPending, pagination.Pagination{Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, p.ID, items[0].ID)
	require.Equal(t, moderation.KindProduct, items[0].Kind)
	require.Equal(t, moderation.StatusPending, items[0].Status)
	require.Equal(t, "Clay pot", items[0].Title)
	require.Equal(t, "Mara", items[0].CreatorName)
}

func TestAccessListByStatusFiltersRejected(t *testing.T) {
	db, svc, gate := newCatalogFixture(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, testutil.Artisan("u1"), CreateProductInput{
		Name:  "Chipped mug",
		Price: decimal.NewFromInt(3),
	})
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, testutil.Artisan("u1"), CreateProductInput{
		Name:  "Fine mug",
		Price: decimal.NewFromInt(8),
	})
	require.NoError(t, err)

	require.NoError(t, gate.Reject(ctx, testutil.Admin("a1"), moderation.KindProduct, p.ID, "damaged"))

	access := NewAccess(AccessParams{DB: db})
	items, err := access.ListByStatus(ctx, moderation.StatusRejected, pagination.Pagination{Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, p.ID, items[0].ID)
	require.Equal(t, moderation.StatusRejected, items[0].Status)

	pending, err := access.ListByStatus(ctx, moderation.StatusPending, pagination.Pagination{Limit: 10})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NotEqual(t, p.ID, pending[0].ID)
}

func TestAccessSetStatus(t *testing.T) {
	db, svc, _ := newCatalogFixture(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, testutil.Artisan("u1"), CreateProductInput{
		Name:  "Basket",
		Price: decimal.NewFromInt(9),
	})
	require.NoError(t, err)

	access := NewAccess(AccessParams{DB: db})

	found, err := access.SetStatus(ctx, p.ID, moderation.StatusRejected, "low quality photos")
	require.NoError(t, err)
	require.True(t, found)

	var got Product
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	require.Equal(t, moderation.StatusRejected, got.Status)
	require.Equal(t, "low quality photos", got.RejectionReason)

	found, err = access.SetStatus(ctx, "missing", moderation.StatusApproved, "")
	require.NoError(t, err)
	require.False(t, found)
}

func requireStatus(t *testing.T, err error, want errutil.CoreStatus) {
	t.Helper()
	var be errutil.BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, want, be.Code)
}
