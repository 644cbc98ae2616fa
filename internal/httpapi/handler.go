package httpapi

import (
	"net/http"

	"artisan-marketplace/pkg/authz"
	"artisan-marketplace/pkg/config"
	"artisan-marketplace/pkg/errutil"
	"artisan-marketplace/pkg/health"
	"artisan-marketplace/pkg/middleware"
	"artisan-marketplace/services/campaign"
	"artisan-marketplace/services/catalog"
	"artisan-marketplace/services/identity"
	"artisan-marketplace/services/moderation"
	"artisan-marketplace/services/order"
	"artisan-marketplace/services/story"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("httpapi",
	fx.Provide(
		NewHandler,
		fx.Annotate(NewEngine, fx.As(new(http.Handler))),
	),
)

// Handler exposes the marketplace services over JSON HTTP. Authentication
// happens upstream; the handler only reads the forwarded identity headers.
type Handler struct {
	orders     *order.Service
	catalog    *catalog.Service
	campaigns  *campaign.Service
	stories    *story.Service
	identity   *identity.Service
	moderation *moderation.Gate
}

type HandlerParams struct {
	fx.In

	Orders     *order.Service
	Catalog    *catalog.Service
	Campaigns  *campaign.Service
	Stories    *story.Service
	Identity   *identity.Service
	Moderation *moderation.Gate
}

func NewHandler(p HandlerParams) *Handler {
	return &Handler{
		orders:     p.Orders,
		catalog:    p.Catalog,
		campaigns:  p.Campaigns,
		stories:    p.Stories,
		identity:   p.Identity,
		moderation: p.Moderation,
	}
}

func NewEngine(cfg *config.Config, h *Handler, hc health.HealthService) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Error(), middleware.Principal())

	r.GET("/healthz", hc.Liveness)
	r.GET("/readyz", hc.Readiness)

	v1 := r.Group("/api/v1")

	// Public, moderation-gated listings.
	v1.GET("/products", h.listProducts)
	v1.GET("/products/:id", h.getProduct)
	v1.GET("/campaigns", h.listCampaigns)
	v1.GET("/campaigns/:id", h.getCampaign)
	v1.GET("/campaigns/:id/totals", h.getCampaignTotals)
	v1.GET("/campaigns/:id/donations", h.listDonations)
	v1.GET("/stories", h.listStories)
	v1.GET("/stories/:id", h.getStory)

	auth := v1.Group("", middleware.RequireAuth())

	auth.POST("/orders", h.placeOrder)
	auth.POST("/orders/batch", h.placeBatchOrder)
	auth.GET("/orders", h.listOrders)
	auth.GET("/orders/:id", h.getOrder)
	auth.PATCH("/orders/:id/status", h.updateOrderStatus)

	auth.POST("/campaigns", h.createCampaign)
	auth.POST("/campaigns/:id/donations", h.recordDonation)

	auth.POST("/products", h.createProduct)
	auth.PATCH("/products/:id", h.updateProduct)
	auth.POST("/products/:id/stock", h.addStock)

	auth.PUT("/profile", h.upsertProfile)

	auth.POST("/stories", h.createStory)
	auth.PATCH("/stories/:id", h.updateStory)
	auth.PATCH("/stories/:id/publish", h.publishStory)

	auth.GET("/moderation/:kind", h.listModerationQueue)
	auth.POST("/moderation/:kind/:id/approve", h.approveContent)
	auth.POST("/moderation/:kind/:id/reject", h.rejectContent)

	return r
}

// principal returns the forwarded identity. Public routes get the zero
// principal on anonymous requests; routes behind RequireAuth always see a
// real one.
func principal(c *gin.Context) authz.Principal {
	p, _ := middleware.PrincipalFrom(c)
	return p
}

func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		_ = c.Error(errutil.ValidationFailed("invalid request body", err))
		return false
	}
	return true
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
}
