package httpapi

import (
	"net/http"

	"artisan-marketplace/pkg/db/pagination"
	"artisan-marketplace/pkg/errutil"
	"artisan-marketplace/services/catalog"
	"artisan-marketplace/services/story"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type createProductRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int64           `json:"stock_quantity"`
	Metadata      datatypes.JSON  `json:"metadata"`
}

func (h *Handler) createProduct(c *gin.Context) {
	var req createProductRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.catalog.CreateProduct(c.Request.Context(), principal(c), catalog.CreateProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		Metadata:      req.Metadata,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": p})
}

type updateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Metadata    datatypes.JSON   `json:"metadata"`
}

func (h *Handler) updateProduct(c *gin.Context) {
	var req updateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.catalog.UpdateProduct(c.Request.Context(), principal(c), c.Param("id"), catalog.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Metadata:    req.Metadata,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": p})
}

type addStockRequest struct {
	Quantity int64 `json:"quantity"`
}

func (h *Handler) addStock(c *gin.Context) {
	var req addStockRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.catalog.AddStock(c.Request.Context(), principal(c), c.Param("id"), req.Quantity); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getProduct(c *gin.Context) {
	p, err := h.catalog.GetProduct(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

func (h *Handler) listProducts(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		fail(c, errutil.ValidationFailed("invalid pagination", err))
		return
	}

	products, info, err := h.catalog.ListPublic(c.Request.Context(), page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": products, "page_info": info})
}

type createStoryRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (h *Handler) createStory(c *gin.Context) {
	var req createStoryRequest
	if !bindJSON(c, &req) {
		return
	}

	st, err := h.stories.CreateStory(c.Request.Context(), principal(c), story.CreateStoryInput{
		Title: req.Title,
		Body:  req.Body,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": st})
}

type updateStoryRequest struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

func (h *Handler) updateStory(c *gin.Context) {
	var req updateStoryRequest
	if !bindJSON(c, &req) {
		return
	}

	st, err := h.stories.UpdateStory(c.Request.Context(), principal(c), c.Param("id"), story.UpdateStoryInput{
		Title: req.Title,
		Body:  req.Body,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": st})
}

type publishStoryRequest struct {
	Published bool `json:"published"`
}

func (h *Handler) publishStory(c *gin.Context) {
	var req publishStoryRequest
	if !bindJSON(c, &req) {
		return
	}

	st, err := h.stories.SetPublished(c.Request.Context(), principal(c), c.Param("id"), req.Published)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": st})
}

func (h *Handler) getStory(c *gin.Context) {
	st, err := h.stories.GetStory(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": st})
}

func (h *Handler) listStories(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		fail(c, errutil.ValidationFailed("invalid pagination", err))
		return
	}

	stories, info, err := h.stories.ListPublic(c.Request.Context(), page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stories, "page_info": info})
}
