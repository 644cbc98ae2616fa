package httpapi

import (
	"net/http"

	"artisan-marketplace/services/order"

	"github.com/gin-gonic/gin"
)

type placeOrderRequest struct {
	ProductID       string `json:"product_id"`
	Quantity        int64  `json:"quantity"`
	ShippingAddress string `json:"shipping_address"`
	PaymentMethod   string `json:"payment_method"`
}

func (h *Handler) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	o, err := h.orders.PlaceOrder(c.Request.Context(), principal(c), order.PlaceOrderInput{
		ProductID:       req.ProductID,
		Quantity:        req.Quantity,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order_id":     o.ID,
		"code":         o.Code,
		"total_amount": o.TotalAmount,
	})
}

type batchOrderRequest struct {
	Items []struct {
		ProductID string `json:"product_id"`
		Quantity  int64  `json:"quantity"`
	} `json:"items"`
	ShippingAddress string `json:"shipping_address"`
	PaymentMethod   string `json:"payment_method"`
}

func (h *Handler) placeBatchOrder(c *gin.Context) {
	var req batchOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	in := order.PlaceBatchOrderInput{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, order.BatchItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	orders, err := h.orders.PlaceBatchOrder(c.Request.Context(), principal(c), in)
	if err != nil {
		fail(c, err)
		return
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	c.JSON(http.StatusCreated, gin.H{"order_ids": ids})
}

type updateOrderStatusRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number"`
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	var req updateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	o, err := h.orders.UpdateStatus(c.Request.Context(), principal(c), c.Param("id"), order.Status(req.Status), req.TrackingNumber)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": o})
}

func (h *Handler) getOrder(c *gin.Context) {
	o, err := h.orders.GetOrder(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": o})
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), principal(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders})
}
