package handler

import (
	"log"
	"net/http"
	"time"

	"go-storefront/internal/model"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ListOffers returns every promotional offer.
func (h *Handler) ListOffers(ctx *gin.Context) {
	var offers []model.DiscountOffer
	if err := h.db.Order("id").Find(&offers).Error; err != nil {
		log.Printf("offers: list: %v", err)
		response.Internal(ctx)
		return
	}
	response.OK(ctx, offers)
}

// CreateOffer adds a promotion. Sale price is taken as given, never derived.
func (h *Handler) CreateOffer(ctx *gin.Context) {
	var req struct {
		Name         string           `json:"name" binding:"required"`
		Thumbnail    string           `json:"thumbnail"`
		Price        *decimal.Decimal `json:"price"`
		Description  string           `json:"description"`
		OnSale       bool             `json:"on_sale"`
		SalePrice    *decimal.Decimal `json:"sale_price"`
		CountInStock int              `json:"countInStock"`
		StartDate    *time.Time       `json:"start_date"`
		EndDate      *time.Time       `json:"end_date"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	offer := model.DiscountOffer{
		Name:         req.Name,
		Thumbnail:    req.Thumbnail,
		Description:  req.Description,
		OnSale:       req.OnSale,
		CountInStock: req.CountInStock,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	}
	if req.Price != nil {
		offer.Price = decimal.NewNullDecimal(*req.Price)
	}
	if req.SalePrice != nil {
		offer.SalePrice = decimal.NewNullDecimal(*req.SalePrice)
	}

	if err := h.db.Create(&offer).Error; err != nil {
		log.Printf("offers: create: %v", err)
		response.Internal(ctx)
		return
	}
	response.Created(ctx, offer)
}

// DeleteOffer removes a promotion by id.
func (h *Handler) DeleteOffer(ctx *gin.Context) {
	var offer model.DiscountOffer
	if err := h.db.First(&offer, ctx.Param("id")).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "Discount offer not found")
		return
	}
	if err := h.db.Delete(&offer).Error; err != nil {
		log.Printf("offers: delete %d: %v", offer.ID, err)
		response.Internal(ctx)
		return
	}
	ctx.Status(http.StatusNoContent)
}
