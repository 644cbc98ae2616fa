package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"artisan-marketplace/pkg/config"
	"artisan-marketplace/pkg/health"
	"artisan-marketplace/pkg/middleware"
	"artisan-marketplace/services/campaign"
	"artisan-marketplace/services/catalog"
	"artisan-marketplace/services/identity"
	"artisan-marketplace/services/moderation"
	"artisan-marketplace/services/order"
	"artisan-marketplace/services/story"
	"artisan-marketplace/services/testutil"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	gin.SetMode(gin.TestMode)
}

type apiFixture struct {
	db     *gorm.DB
	engine *gin.Engine
	gate   *moderation.Gate
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db := testutil.NewTestDB(t,
		&identity.User{},
		&catalog.Product{},
		&order.Order{},
		&campaign.Campaign{},
		&campaign.Donation{},
		&story.Story{},
	)

	cfg := &config.Config{}
	enforcer := testutil.NewEnforcer(t)
	node := testutil.NewSnowflakeNode(t)
	stock := catalog.NewStockLedger(catalog.StockLedgerParams{DB: db})

	gate := moderation.NewGate(moderation.GateParams{
		Config:   cfg,
		Enforcer: enforcer,
		Access: []moderation.EntityAccess{
			catalog.NewAccess(catalog.AccessParams{DB: db}),
			campaign.NewAccess(campaign.AccessParams{DB: db}),
			story.NewAccess(story.AccessParams{DB: db}),
		},
	})

	catalogSvc := catalog.NewService(catalog.ServiceParams{
		DB: db, Node: node, Gate: gate, Enforcer: enforcer, Stock: stock,
	})
	orderSvc := order.NewService(order.ServiceParams{
		DB: db, Node: node, Seq: &testutil.StaticSequence{}, Stock: stock, Enforcer: enforcer,
	})
	campaignSvc := campaign.NewService(campaign.ServiceParams{
		DB: db, Node: node, Seq: &testutil.StaticSequence{}, Gate: gate, Enforcer: enforcer,
	})
	storySvc := story.NewService(story.ServiceParams{
		DB: db, Node: node, Gate: gate, Enforcer: enforcer,
	})
	identitySvc := identity.NewService(identity.ServiceParams{DB: db})

	h := NewHandler(HandlerParams{
		Orders:     orderSvc,
		Catalog:    catalogSvc,
		Campaigns:  campaignSvc,
		Stories:    storySvc,
		Identity:   identitySvc,
		Moderation: gate,
	})

	hc := health.ProvideHealth(health.HealthParams{DB: db})

	return &apiFixture{db: db, engine: NewEngine(cfg, h, hc), gate: gate}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, as *struct{ id, role string }) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set(middleware.HeaderUserID, as.id)
		req.Header.Set(middleware.HeaderUserRole, as.role)
	}

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func asUser(id, role string) *struct{ id, role string } {
	return &struct{ id, role string }{id, role}
}

func (f *apiFixture) seedApprovedProduct(t *testing.T, id string, price float64, stock int64) {
	t.Helper()
	require.NoError(t, f.db.Create(&catalog.Product{
		ID:            id,
		OwnerID:       "artisan-1",
		Name:          "Product " + id,
		Price:         decimal.NewFromFloat(price),
		StockQuantity: stock,
		State:         moderation.State{Status: moderation.StatusApproved},
	}).Error)
}

func (f *apiFixture) seedApprovedCampaign(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.db.Create(&campaign.Campaign{
		ID:          id,
		OrganizerID: "org-1",
		Title:       "Campaign " + id,
		GoalAmount:  decimal.NewFromInt(1000),
		State:       moderation.State{Status: moderation.StatusApproved},
	}).Error)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestPlaceOrderRequiresAuth(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/orders", gin.H{"product_id": "p1", "quantity": 1}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPlaceOrderCreated(t *testing.T) {
	f := newAPIFixture(t)
	f.seedApprovedProduct(t, "p1", 125.50, 10)

	w := f.do(t, http.MethodPost, "/api/v1/orders", gin.H{"product_id": "p1", "quantity": 4}, asUser("b1", "buyer"))
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	require.NotEmpty(t, body["order_id"])
	require.NotEmpty(t, body["code"])
	require.Equal(t, "502", body["total_amount"])
}

func TestPlaceOrderInsufficientStockIs400(t *testing.T) {
	f := newAPIFixture(t)
	f.seedApprovedProduct(t, "p1", 10, 5)

	w := f.do(t, http.MethodPost, "/api/v1/orders", gin.H{"product_id": "p1", "quantity": 10}, asUser("b1", "buyer"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, "error", body["status"])
	require.Equal(t, "Insufficient stock", body["message"])
}

func TestPlaceOrderValidationIs422(t *testing.T) {
	f := newAPIFixture(t)
	f.seedApprovedProduct(t, "p1", 10, 5)

	w := f.do(t, http.MethodPost, "/api/v1/orders", gin.H{"product_id": "p1", "quantity": 0}, asUser("b1", "buyer"))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestBatchOrderAtomicOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	f.seedApprovedProduct(t, "p1", 10, 5)
	f.seedApprovedProduct(t, "p2", 20, 1)

	w := f.do(t, http.MethodPost, "/api/v1/orders/batch", gin.H{
		"items": []gin.H{
			{"product_id": "p1", "quantity": 2},
			{"product_id": "p2", "quantity": 3},
		},
	}, asUser("b1", "buyer"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var p catalog.Product
	require.NoError(t, f.db.First(&p, "id = ?", "p1").Error)
	require.EqualValues(t, 5, p.StockQuantity)

	w = f.do(t, http.MethodPost, "/api/v1/orders/batch", gin.H{
		"items": []gin.H{
			{"product_id": "p1", "quantity": 2},
			{"product_id": "p2", "quantity": 1},
		},
	}, asUser("b1", "buyer"))
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	require.Len(t, body["order_ids"], 2)
}

func TestUpdateOrderStatusTransitions(t *testing.T) {
	f := newAPIFixture(t)
	f.seedApprovedProduct(t, "p1", 10, 5)

	w := f.do(t, http.MethodPost, "/api/v1/orders", gin.H{"product_id": "p1", "quantity": 1}, asUser("b1", "buyer"))
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decodeBody(t, w)["order_id"].(string)

	w = f.do(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", gin.H{"status": "shipped"}, asUser("other", "buyer"))
	require.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", gin.H{"status": "shipped"}, asUser("b1", "buyer"))
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", gin.H{"status": "processing"}, asUser("b1", "buyer"))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRecordDonation(t *testing.T) {
	f := newAPIFixture(t)
	f.seedApprovedCampaign(t, "c1")

	w := f.do(t, http.MethodPost, "/api/v1/campaigns/c1/donations", gin.H{"amount": "25.00"}, asUser("d1", "buyer"))
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, "c1", body["campaign_id"])
	require.NotEmpty(t, body["id"])

	w = f.do(t, http.MethodGet, "/api/v1/campaigns/c1/totals", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	totals := decodeBody(t, w)
	require.Equal(t, "25", totals["current_amount"])
	require.EqualValues(t, 1, totals["backers_count"])
}

func TestRecordDonationUnknownCampaignIs422(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/campaigns/missing/donations", gin.H{"amount": "5.00"}, asUser("d1", "buyer"))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestModerationEndpointsAdminOnly(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/moderation/product", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/moderation/product", nil, asUser("u1", "artisan"))
	require.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/moderation/product", nil, asUser("a1", "admin"))
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/moderation/video", nil, asUser("a1", "admin"))
	require.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/moderation/product?status=archived", nil, asUser("a1", "admin"))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestModerationQueueStatusFilter(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/products", gin.H{
		"name":  "Crooked plate",
		"price": "4.00",
	}, asUser("artisan-1", "artisan"))
	require.Equal(t, http.StatusCreated, w.Code)

	var p catalog.Product
	require.NoError(t, f.db.First(&p).Error)

	w = f.do(t, http.MethodPost, "/api/v1/moderation/product/"+p.ID+"/reject", gin.H{"reason": "warped"}, asUser("a1", "admin"))
	require.Equal(t, http.StatusOK, w.Code)

	// the default queue is pending only
	w = f.do(t, http.MethodGet, "/api/v1/moderation/product", nil, asUser("a1", "admin"))
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, decodeBody(t, w)["data"])

	// the rejected row comes back for re-review through the filter
	w = f.do(t, http.MethodGet, "/api/v1/moderation/product?status=rejected", nil, asUser("a1", "admin"))
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].([]any)
	require.Len(t, data, 1)
	item := data[0].(map[string]any)
	require.Equal(t, p.ID, item["id"])
	require.Equal(t, "rejected", item["moderation_status"])

	w = f.do(t, http.MethodPost, "/api/v1/moderation/product/"+p.ID+"/approve", nil, asUser("a1", "admin"))
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/moderation/product?status=rejected", nil, asUser("a1", "admin"))
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, decodeBody(t, w)["data"])
}

func TestModerationLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/products", gin.H{
		"name":           "Raku vase",
		"price":          "80.00",
		"stock_quantity": 2,
	}, asUser("artisan-1", "artisan"))
	require.Equal(t, http.StatusCreated, w.Code)

	// pending products are invisible to the public listing
	w = f.do(t, http.MethodGet, "/api/v1/products", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, decodeBody(t, w)["data"])

	var p catalog.Product
	require.NoError(t, f.db.First(&p).Error)

	w = f.do(t, http.MethodPost, "/api/v1/moderation/product/"+p.ID+"/approve", nil, asUser("a1", "admin"))
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/products", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decodeBody(t, w)["data"], 1)
}

func TestUpsertProfileFeedsPendingList(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPut, "/api/v1/profile", gin.H{"display_name": "Mara"}, asUser("artisan-1", "artisan"))
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/products", gin.H{
		"name":  "Clay pot",
		"price": "15.00",
	}, asUser("artisan-1", "artisan"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/moderation/product", nil, asUser("a1", "admin"))
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].([]any)
	require.Len(t, data, 1)
	item := data[0].(map[string]any)
	require.Equal(t, "Mara", item["creator_name"])
	require.Equal(t, "Clay pot", item["title"])
}

func TestPendingContentHiddenOnDetailRoutes(t *testing.T) {
	f := newAPIFixture(t)

	require.NoError(t, f.db.Create(&catalog.Product{
		ID:      "p-pending",
		OwnerID: "artisan-1",
		Name:    "Unreviewed bowl",
		Price:   decimal.NewFromInt(30),
		State:   moderation.State{Status: moderation.StatusPending},
	}).Error)
	require.NoError(t, f.db.Create(&campaign.Campaign{
		ID:          "c-pending",
		OrganizerID: "org-1",
		Title:       "Unreviewed drive",
		GoalAmount:  decimal.NewFromInt(500),
		State:       moderation.State{Status: moderation.StatusPending},
	}).Error)
	require.NoError(t, f.db.Create(&story.Story{
		ID:          "s-unpublished",
		AuthorID:    "author-1",
		Title:       "Unpublished story",
		IsPublished: false,
		State:       moderation.State{Status: moderation.StatusApproved},
	}).Error)

	// anonymous callers get 404 on every non-visible detail route
	for _, path := range []string{
		"/api/v1/products/p-pending",
		"/api/v1/campaigns/c-pending",
		"/api/v1/campaigns/c-pending/totals",
		"/api/v1/campaigns/c-pending/donations",
		"/api/v1/stories/s-unpublished",
	} {
		w := f.do(t, http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusNotFound, w.Code, "expected 404 for %s", path)
	}

	// unrelated authenticated users are treated the same
	w := f.do(t, http.MethodGet, "/api/v1/products/p-pending", nil, asUser("b1", "buyer"))
	require.Equal(t, http.StatusNotFound, w.Code)

	// owners and admins still see their own rows
	w = f.do(t, http.MethodGet, "/api/v1/products/p-pending", nil, asUser("artisan-1", "artisan"))
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/campaigns/c-pending/totals", nil, asUser("org-1", "artisan"))
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/stories/s-unpublished", nil, asUser("a1", "admin"))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCreateProductForbiddenForBuyers(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/products", gin.H{
		"name":  "Nope",
		"price": "5.00",
	}, asUser("b1", "buyer"))
	require.Equal(t, http.StatusForbidden, w.Code)
}
