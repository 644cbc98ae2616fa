package httpapi

import (
	"errors"
	"net/http"
	"time"

	"artisan-marketplace/pkg/db/pagination"
	"artisan-marketplace/pkg/errutil"
	"artisan-marketplace/services/campaign"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type createCampaignRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	GoalAmount  decimal.Decimal `json:"goal_amount"`
	EndDate     *time.Time      `json:"end_date"`
}

func (h *Handler) createCampaign(c *gin.Context) {
	var req createCampaignRequest
	if !bindJSON(c, &req) {
		return
	}

	cmp, err := h.campaigns.CreateCampaign(c.Request.Context(), principal(c), campaign.CreateCampaignInput{
		Title:       req.Title,
		Description: req.Description,
		GoalAmount:  req.GoalAmount,
		EndDate:     req.EndDate,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": cmp})
}

type recordDonationRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	IsAnonymous bool            `json:"is_anonymous"`
	Message     string          `json:"message"`
}

func (h *Handler) recordDonation(c *gin.Context) {
	var req recordDonationRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.campaigns.RecordDonation(c.Request.Context(), principal(c), campaign.RecordDonationInput{
		CampaignID:  c.Param("id"),
		Amount:      req.Amount,
		IsAnonymous: req.IsAnonymous,
		Message:     req.Message,
	})
	if err != nil {
		// The campaign id is caller-supplied input here, so a missing
		// campaign is a validation failure rather than a missing resource.
		var be errutil.BaseError
		if errors.As(err, &be) && be.Code == errutil.StatusNotFound {
			err = errutil.UnprocessableEntity("unknown campaign", err)
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":          d.ID,
		"code":        d.Code,
		"campaign_id": d.CampaignID,
		"amount":      d.Amount,
	})
}

func (h *Handler) getCampaign(c *gin.Context) {
	cmp, err := h.campaigns.GetCampaign(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cmp})
}

func (h *Handler) getCampaignTotals(c *gin.Context) {
	totals, err := h.campaigns.GetCampaignTotals(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (h *Handler) listDonations(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		fail(c, errutil.ValidationFailed("invalid pagination", err))
		return
	}

	donations, err := h.campaigns.ListDonations(c.Request.Context(), principal(c), c.Param("id"), page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": donations})
}

func (h *Handler) listCampaigns(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		fail(c, errutil.ValidationFailed("invalid pagination", err))
		return
	}

	campaigns, info, err := h.campaigns.ListPublic(c.Request.Context(), page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": campaigns, "page_info": info})
}
