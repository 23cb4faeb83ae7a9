package handler

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"go-storefront/internal/middleware"
	"go-storefront/internal/model"
	"go-storefront/internal/pricing"
	"go-storefront/pkg/events"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type orderItemRequest struct {
	ProductID uint            `json:"productId"`
	Color     string          `json:"color"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type placeOrderRequest struct {
	OrderItems      []orderItemRequest `json:"orderItems"`
	PaymentMethod   string             `json:"paymentMethod"`
	TaxPrice        decimal.Decimal    `json:"taxPrice"`
	ShippingPrice   decimal.Decimal    `json:"shippingPrice"`
	TotalPrice      decimal.Decimal    `json:"totalPrice"`
	ShippingAddress struct {
		Address    string `json:"address"`
		City       string `json:"city"`
		PostalCode string `json:"postalCode"`
		Country    string `json:"country"`
	} `json:"shippingAddress"`
}

// orderEvent is the payload published to the order.events exchange.
type orderEvent struct {
	OrderID    uint            `json:"order_id"`
	UserID     *uint           `json:"user_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func (h *Handler) publishOrderEvent(ctx *gin.Context, routingKey string, o *model.Order) {
	h.events.Publish(ctx.Request.Context(), routingKey, orderEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalPrice: o.TotalPrice,
		OccurredAt: time.Now(),
	})
}

func orderPreload(db *gorm.DB) *gorm.DB {
	return db.Preload("Items").Preload("ShippingAddress").Preload("User")
}

// PlaceOrder runs the whole checkout in one transaction: order, shipping
// address, one item per cart line, and a guarded stock decrement per line.
// Any failure rolls the whole thing back.
func (h *Handler) PlaceOrder(ctx *gin.Context) {
	var req placeOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.OrderItems) == 0 {
		response.Error(ctx, http.StatusBadRequest, "No Order Items")
		return
	}

	itemsTotal := decimal.Zero
	for _, it := range req.OrderItems {
		if it.Quantity <= 0 {
			response.Error(ctx, http.StatusBadRequest, "Quantity must be positive")
			return
		}
		itemsTotal = itemsTotal.Add(pricing.LineTotal(it.Price, it.Quantity))
	}
	// Totals come from the client and are never trusted as-is.
	if err := pricing.ValidateOrderTotal(itemsTotal, req.TaxPrice, req.ShippingPrice, req.TotalPrice); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	uid := middleware.UserID(ctx)
	order := model.Order{
		UserID:        &uid,
		PaymentMethod: req.PaymentMethod,
		TaxPrice:      req.TaxPrice,
		ShippingPrice: req.ShippingPrice,
		TotalPrice:    req.TotalPrice,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		address := model.ShippingAddress{
			OrderID:       &order.ID,
			Address:       req.ShippingAddress.Address,
			City:          req.ShippingAddress.City,
			PostalCode:    req.ShippingAddress.PostalCode,
			Country:       req.ShippingAddress.Country,
			ShippingPrice: decimal.NewNullDecimal(req.ShippingPrice),
		}
		if err := tx.Create(&address).Error; err != nil {
			return err
		}

		for _, it := range req.OrderItems {
			var product model.Product
			if err := tx.First(&product, it.ProductID).Error; err != nil {
				return &apiError{
					status: http.StatusBadRequest,
					detail: fmt.Sprintf("Product %d does not exist", it.ProductID),
				}
			}

			item := model.OrderItem{
				ProductID: &product.ID,
				OrderID:   &order.ID,
				Name:      product.Name,
				Color:     it.Color,
				Size:      it.Size,
				Qty:       it.Quantity,
				Price:     it.Price,
				Thumbnail: product.Thumbnail,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}

			// Conditional decrement: fails the order instead of letting
			// concurrent checkouts drive stock negative.
			res := tx.Model(&model.Product{}).
				Where("id = ? AND count_in_stock >= ?", product.ID, it.Quantity).
				UpdateColumn("count_in_stock", gorm.Expr("count_in_stock - ?", it.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &apiError{
					status: http.StatusBadRequest,
					detail: fmt.Sprintf("Not enough stock for %s", product.Name),
				}
			}
		}
		return nil
	})
	if err != nil {
		respondError(ctx, err, "orders: place")
		return
	}

	var placed model.Order
	if err := orderPreload(h.db).First(&placed, order.ID).Error; err != nil {
		log.Printf("orders: reload %d: %v", order.ID, err)
		response.Internal(ctx)
		return
	}

	h.publishOrderEvent(ctx, events.OrderPlaced, &placed)
	response.OK(ctx, placed)
}

// ListOrders returns every order, newest first. Admin only.
func (h *Handler) ListOrders(ctx *gin.Context) {
	var orders []model.Order
	if err := orderPreload(h.db).Order("created_at DESC").Find(&orders).Error; err != nil {
		log.Printf("orders: list: %v", err)
		response.Internal(ctx)
		return
	}
	response.OK(ctx, orders)
}

// MyOrders returns the caller's own orders, newest first.
func (h *Handler) MyOrders(ctx *gin.Context) {
	var orders []model.Order
	err := orderPreload(h.db).
		Where("user_id = ?", middleware.UserID(ctx)).
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		log.Printf("orders: my orders: %v", err)
		response.Internal(ctx)
		return
	}
	response.OK(ctx, orders)
}

// GetOrder returns one order to its owner or an admin.
func (h *Handler) GetOrder(ctx *gin.Context) {
	var order model.Order
	if err := orderPreload(h.db).First(&order, ctx.Param("id")).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "Order does not exist")
		return
	}

	uid := middleware.UserID(ctx)
	if !middleware.IsAdmin(ctx) && (order.UserID == nil || *order.UserID != uid) {
		response.Error(ctx, http.StatusForbidden, "Not authorized to view this order")
		return
	}
	response.OK(ctx, order)
}

// PayOrder marks an order paid. Re-invoking simply re-stamps paidAt. Owner
// self-service stands in for a verified payment callback.
func (h *Handler) PayOrder(ctx *gin.Context) {
	var order model.Order
	if err := h.db.First(&order, ctx.Param("id")).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "Order does not exist")
		return
	}

	uid := middleware.UserID(ctx)
	if !middleware.IsAdmin(ctx) && (order.UserID == nil || *order.UserID != uid) {
		response.Error(ctx, http.StatusForbidden, "Not authorized to pay this order")
		return
	}

	now := time.Now()
	order.IsPaid = true
	order.PaidAt = &now
	if err := h.db.Save(&order).Error; err != nil {
		log.Printf("orders: pay %d: %v", order.ID, err)
		response.Internal(ctx)
		return
	}

	h.publishOrderEvent(ctx, events.OrderPaid, &order)
	response.OK(ctx, gin.H{"detail": fmt.Sprintf("Order was paid at %s", now.Format(time.RFC3339))})
}

// DeliverOrder marks a paid order delivered. Admin only; re-invoking
// re-stamps deliveredAt.
func (h *Handler) DeliverOrder(ctx *gin.Context) {
	var order model.Order
	if err := h.db.First(&order, ctx.Param("id")).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "Order does not exist")
		return
	}
	if !order.IsPaid {
		response.Error(ctx, http.StatusBadRequest, "Order is not paid yet")
		return
	}

	now := time.Now()
	order.IsDelivered = true
	order.DeliveredAt = &now
	if err := h.db.Save(&order).Error; err != nil {
		log.Printf("orders: deliver %d: %v", order.ID, err)
		response.Internal(ctx)
		return
	}

	h.publishOrderEvent(ctx, events.OrderDelivered, &order)
	response.OK(ctx, gin.H{"detail": "Order was delivered"})
}
