package handler

import (
	"log"
	"net/http"

	"go-storefront/internal/middleware"
	"go-storefront/internal/model"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// recomputeProductRating refreshes the derived review_count and rating of a
// product from its current review set. Runs inside the review's own
// transaction so the aggregate can never drift from the rows it summarizes.
func recomputeProductRating(tx *gorm.DB, productID uint) error {
	var reviews []model.Review
	if err := tx.Where("product_id = ?", productID).Find(&reviews).Error; err != nil {
		return err
	}

	var rating decimal.NullDecimal
	if len(reviews) > 0 {
		sum := decimal.Zero
		for _, r := range reviews {
			sum = sum.Add(r.Rating)
		}
		rating = decimal.NewNullDecimal(sum.DivRound(decimal.NewFromInt(int64(len(reviews))), 2))
	}

	return tx.Model(&model.Product{}).
		Where("id = ?", productID).
		UpdateColumns(map[string]interface{}{
			"review_count": len(reviews),
			"rating":       rating,
		}).Error
}

// ListProductReviews returns all reviews of one product.
func (h *Handler) ListProductReviews(ctx *gin.Context) {
	var p model.Product
	if err := h.db.First(&p, ctx.Param("id")).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "Product does not exist")
		return
	}

	var reviews []model.Review
	if err := h.db.Where("product_id = ?", p.ID).Order("created_at DESC").Find(&reviews).Error; err != nil {
		log.Printf("reviews: list for product %d: %v", p.ID, err)
		response.Internal(ctx)
		return
	}
	response.OK(ctx, reviews)
}

// CreateReview adds a review and recomputes the product's aggregates.
func (h *Handler) CreateReview(ctx *gin.Context) {
	var req struct {
		Rating  *decimal.Decimal `json:"rating"`
		Comment string           `json:"comment"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}
	if req.Rating == nil {
		response.Error(ctx, http.StatusBadRequest, "rating is required")
		return
	}

	var p model.Product
	if err := h.db.First(&p, ctx.Param("id")).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "Product does not exist")
		return
	}

	uid := middleware.UserID(ctx)
	var u model.User
	if err := h.db.First(&u, uid).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "User does not exist")
		return
	}
	name := u.Name
	if name == "" {
		name = u.Email
	}

	review := model.Review{
		ProductID: &p.ID,
		UserID:    &uid,
		Name:      name,
		Rating:    *req.Rating,
		Comment:   req.Comment,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			return err
		}
		return recomputeProductRating(tx, p.ID)
	})
	if err != nil {
		respondError(ctx, err, "reviews: create")
		return
	}

	h.invalidateCatalogCache(ctx.Request.Context())
	response.Created(ctx, review)
}

// UpdateReview edits the caller's own review and recomputes aggregates.
func (h *Handler) UpdateReview(ctx *gin.Context) {
	var req struct {
		Rating  *decimal.Decimal `json:"rating"`
		Comment *string          `json:"comment"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	var review model.Review
	if err := h.db.First(&review, ctx.Param("id")).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "Review does not exist")
		return
	}

	uid := middleware.UserID(ctx)
	if !middleware.IsAdmin(ctx) && (review.UserID == nil || *review.UserID != uid) {
		response.Error(ctx, http.StatusForbidden, "Not authorized to edit this review")
		return
	}

	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		review.Comment = *req.Comment
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&review).Error; err != nil {
			return err
		}
		if review.ProductID != nil {
			return recomputeProductRating(tx, *review.ProductID)
		}
		return nil
	})
	if err != nil {
		respondError(ctx, err, "reviews: update")
		return
	}

	h.invalidateCatalogCache(ctx.Request.Context())
	response.OK(ctx, review)
}

// DeleteReview removes the caller's own review and recomputes aggregates.
func (h *Handler) DeleteReview(ctx *gin.Context) {
	var review model.Review
	if err := h.db.First(&review, ctx.Param("id")).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "Review does not exist")
		return
	}

	uid := middleware.UserID(ctx)
	if !middleware.IsAdmin(ctx) && (review.UserID == nil || *review.UserID != uid) {
		response.Error(ctx, http.StatusForbidden, "Not authorized to delete this review")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&review).Error; err != nil {
			return err
		}
		if review.ProductID != nil {
			return recomputeProductRating(tx, *review.ProductID)
		}
		return nil
	})
	if err != nil {
		respondError(ctx, err, "reviews: delete")
		return
	}

	h.invalidateCatalogCache(ctx.Request.Context())
	ctx.Status(http.StatusNoContent)
}
