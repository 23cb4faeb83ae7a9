package handler

import (
	"log"
	"net/http"

	"go-storefront/internal/middleware"
	"go-storefront/internal/model"
	"go-storefront/pkg/pagination"
	"go-storefront/pkg/response"
	"go-storefront/pkg/search"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Fixed sizes of the storefront home views.
const (
	topProductsLimit      = 5
	featuredProductsLimit = 8
	dealProductsLimit     = 6
	recentProductsLimit   = 8
)

// dealsCategoryIDs finds the internal "deals" categories driving the deal
// and recent views.
func dealsCategoryIDs(db *gorm.DB) ([]uint, error) {
	var ids []uint
	if err := db.Model(&model.Category{}).Where("name LIKE ?", "%deals%").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (h *Handler) productDoc(p *model.Product) search.ProductDoc {
	return search.ProductDoc{Name: p.Name, Description: p.Description, Brand: p.Brand}
}

// fetchProductsByID loads fully-preloaded products preserving the order of ids.
func (h *Handler) fetchProductsByID(ids []uint) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	var products []model.Product
	if err := productPreload(h.db).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	ordered := make([]model.Product, 0, len(products))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// ListProducts is the storefront catalog: keyword search over names, newest
// first, paginated. Uses Elasticsearch when configured.
func (h *Handler) ListProducts(ctx *gin.Context) {
	params := pagination.FromQuery(ctx)
	keyword := ctx.Query("keyword")

	if keyword != "" && h.search.Enabled() {
		ids, err := h.search.SearchProducts(ctx.Request.Context(), keyword, pagination.MaxPageSize)
		if err != nil {
			log.Printf("products: search %q: %v", keyword, err)
			response.Internal(ctx)
			return
		}
		total := int64(len(ids))
		start := params.Offset()
		if start > len(ids) {
			start = len(ids)
		}
		end := start + params.PageSize
		if end > len(ids) {
			end = len(ids)
		}
		products, err := h.fetchProductsByID(ids[start:end])
		if err != nil {
			log.Printf("products: fetch: %v", err)
			response.Internal(ctx)
			return
		}
		response.OK(ctx, pagination.Wrap(params, total, products))
		return
	}

	query := h.db.Model(&model.Product{})
	if keyword != "" {
		query = query.Where("name LIKE ?", "%"+keyword+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("products: count: %v", err)
		response.Internal(ctx)
		return
	}

	var products []model.Product
	err := productPreload(query).
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.PageSize).
		Find(&products).Error
	if err != nil {
		log.Printf("products: list: %v", err)
		response.Internal(ctx)
		return
	}
	response.OK(ctx, pagination.Wrap(params, total, products))
}

// ListAllProducts is the filterable catalog view: free-text search across
// name/description plus category/color/size/price-range filters.
func (h *Handler) ListAllProducts(ctx *gin.Context) {
	params := pagination.FromQuery(ctx)

	query := h.db.Model(&model.Product{})

	if s := ctx.Query("search"); s != "" {
		like := "%" + s + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if categories := ctx.QueryArray("categories"); len(categories) > 0 {
		sub := h.db.Table("product_categories").Select("product_id").Where("category_id IN ?", categories)
		query = query.Where("id IN (?)", sub)
	}
	if color := ctx.Query("colors"); color != "" {
		sub := h.db.Table("product_colors").Select("product_id").Where("color_id = ?", color)
		query = query.Where("id IN (?)", sub)
	}
	if sizes := ctx.QueryArray("sizes"); len(sizes) > 0 {
		sub := h.db.Table("product_sizes").Select("product_id").Where("size_id IN ?", sizes)
		query = query.Where("id IN (?)", sub)
	}
	if v := ctx.Query("min_price"); v != "" {
		if min, err := decimal.NewFromString(v); err == nil {
			query = query.Where("price >= ?", min)
		}
	}
	if v := ctx.Query("max_price"); v != "" {
		if max, err := decimal.NewFromString(v); err == nil {
			query = query.Where("price <= ?", max)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("products: count: %v", err)
		response.Internal(ctx)
		return
	}

	var products []model.Product
	err := productPreload(query).
		Order("id").
		Offset(params.Offset()).
		Limit(params.PageSize).
		Find(&products).Error
	if err != nil {
		log.Printf("products: list all: %v", err)
		response.Internal(ctx)
		return
	}
	response.OK(ctx, pagination.Wrap(params, total, products))
}

// TopProducts: rating >= 5, best first, top 5.
func (h *Handler) TopProducts(ctx *gin.Context) {
	const key = "catalog:top"
	if h.cachedJSON(ctx, key) {
		return
	}
	var products []model.Product
	err := productPreload(h.db).
		Where("rating >= ?", 5).
		Order("rating DESC").
		Limit(topProductsLimit).
		Find(&products).Error
	if err != nil {
		log.Printf("products: top: %v", err)
		response.Internal(ctx)
		return
	}
	h.cacheAndSend(ctx, key, products)
}

// FeaturedProducts: flagged subset, first 8.
func (h *Handler) FeaturedProducts(ctx *gin.Context) {
	const key = "catalog:featured"
	if h.cachedJSON(ctx, key) {
		return
	}
	var products []model.Product
	err := productPreload(h.db).
		Where("is_featured = ?", true).
		Limit(featuredProductsLimit).
		Find(&products).Error
	if err != nil {
		log.Printf("products: featured: %v", err)
		response.Internal(ctx)
		return
	}
	h.cacheAndSend(ctx, key, products)
}

// DealProducts: products under the "deals" category, first 6.
func (h *Handler) DealProducts(ctx *gin.Context) {
	const key = "catalog:deals"
	if h.cachedJSON(ctx, key) {
		return
	}
	dealIDs, err := dealsCategoryIDs(h.db)
	if err != nil {
		log.Printf("products: deals categories: %v", err)
		response.Internal(ctx)
		return
	}
	if len(dealIDs) == 0 {
		response.OK(ctx, []model.Product{})
		return
	}
	sub := h.db.Table("product_categories").Select("product_id").Where("category_id IN ?", dealIDs)
	var products []model.Product
	err = productPreload(h.db).
		Where("id IN (?)", sub).
		Limit(dealProductsLimit).
		Find(&products).Error
	if err != nil {
		log.Printf("products: deals: %v", err)
		response.Internal(ctx)
		return
	}
	h.cacheAndSend(ctx, key, products)
}

// RecentProducts: everything outside the "deals" category, newest first,
// first 8.
func (h *Handler) RecentProducts(ctx *gin.Context) {
	const key = "catalog:recents"
	if h.cachedJSON(ctx, key) {
		return
	}
	dealIDs, err := dealsCategoryIDs(h.db)
	if err != nil {
		log.Printf("products: deals categories: %v", err)
		response.Internal(ctx)
		return
	}
	query := productPreload(h.db)
	if len(dealIDs) > 0 {
		sub := h.db.Table("product_categories").Select("product_id").Where("category_id IN ?", dealIDs)
		query = query.Where("id NOT IN (?)", sub)
	}
	var products []model.Product
	err = query.
		Order("created_at DESC").
		Limit(recentProductsLimit).
		Find(&products).Error
	if err != nil {
		log.Printf("products: recents: %v", err)
		response.Internal(ctx)
		return
	}
	h.cacheAndSend(ctx, key, products)
}

// RelatedProducts: same brand AND (shared category OR shared color),
// excluding the product itself, deduplicated.
func (h *Handler) RelatedProducts(ctx *gin.Context) {
	var p model.Product
	err := h.db.Preload("Categories").Preload("Colors").First(&p, ctx.Param("id")).Error
	if err != nil {
		response.Error(ctx, http.StatusNotFound, "Product does not exist")
		return
	}

	catIDs := make([]uint, 0, len(p.Categories))
	for _, c := range p.Categories {
		catIDs = append(catIDs, c.ID)
	}
	colorIDs := make([]uint, 0, len(p.Colors))
	for _, c := range p.Colors {
		colorIDs = append(colorIDs, c.ID)
	}
	if len(catIDs) == 0 && len(colorIDs) == 0 {
		response.OK(ctx, []model.Product{})
		return
	}

	match := h.db.Where("1 = 0")
	if len(catIDs) > 0 {
		sub := h.db.Table("product_categories").Select("product_id").Where("category_id IN ?", catIDs)
		match = match.Or("id IN (?)", sub)
	}
	if len(colorIDs) > 0 {
		sub := h.db.Table("product_colors").Select("product_id").Where("color_id IN ?", colorIDs)
		match = match.Or("id IN (?)", sub)
	}

	var ids []uint
	err = h.db.Model(&model.Product{}).
		Where("id <> ?", p.ID).
		Where("brand = ?", p.Brand).
		Where(match).
		Distinct().
		Pluck("id", &ids).Error
	if err != nil {
		log.Printf("products: related %d: %v", p.ID, err)
		response.Internal(ctx)
		return
	}

	products, err := h.fetchProductsByID(ids)
	if err != nil {
		log.Printf("products: related fetch: %v", err)
		response.Internal(ctx)
		return
	}
	response.OK(ctx, products)
}

// GetProduct returns one product with everything nested.
func (h *Handler) GetProduct(ctx *gin.Context) {
	var p model.Product
	if err := productPreload(h.db).First(&p, ctx.Param("id")).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "Product does not exist")
		return
	}
	response.OK(ctx, p)
}

// CreateProduct inserts an editable sample product owned by the admin, to
// be filled in via UpdateProduct.
func (h *Handler) CreateProduct(ctx *gin.Context) {
	uid := middleware.UserID(ctx)
	p := model.Product{
		UserID:    &uid,
		Name:      "Sample Name",
		Brand:     "Sample Brand",
		Thumbnail: "/placeholder.png",
		Price:     decimal.Zero,
	}
	if err := h.db.Create(&p).Error; err != nil {
		log.Printf("products: create: %v", err)
		response.Internal(ctx)
		return
	}

	h.search.IndexProduct(ctx.Request.Context(), p.ID, h.productDoc(&p))
	h.invalidateCatalogCache(ctx.Request.Context())
	response.Created(ctx, p)
}

type productUpdateRequest struct {
	Name               *string          `json:"name"`
	Brand              *string          `json:"brand"`
	Description        *string          `json:"description"`
	Thumbnail          *string          `json:"thumbnail"`
	Price              *decimal.Decimal `json:"price"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
	CountInStock       *int             `json:"countInStock"`
	IsFeatured         *bool            `json:"is_featured"`
	Badge              *string          `json:"badge"`
	Categories         *[]uint          `json:"categories"`
	Colors             *[]uint          `json:"colors"`
	Sizes              *[]uint          `json:"size"`
}

// UpdateProduct is the admin product editor. Changing price or discount
// clears the derived sale price so it is computed fresh on save.
func (h *Handler) UpdateProduct(ctx *gin.Context) {
	var req productUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}
	if req.Badge != nil && !model.ValidBadge(*req.Badge) {
		response.Error(ctx, http.StatusBadRequest, "Badge must be one of Featured, Top Rated, Sale")
		return
	}

	var p model.Product
	if err := h.db.First(&p, ctx.Param("id")).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "Product does not exist")
		return
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Brand != nil {
		p.Brand = *req.Brand
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Thumbnail != nil {
		p.Thumbnail = *req.Thumbnail
	}
	if req.CountInStock != nil {
		p.CountInStock = *req.CountInStock
	}
	if req.IsFeatured != nil {
		p.IsFeatured = *req.IsFeatured
	}
	if req.Badge != nil {
		p.Badge = *req.Badge
	}
	if req.Price != nil && !req.Price.Equal(p.Price) {
		p.Price = *req.Price
		p.SalePrice = decimal.NullDecimal{}
	}
	if req.DiscountPercentage != nil {
		p.DiscountPercentage = decimal.NewNullDecimal(*req.DiscountPercentage)
		p.SalePrice = decimal.NullDecimal{}
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&p).Error; err != nil {
			return err
		}
		if req.Categories != nil {
			var categories []model.Category
			if err := tx.Find(&categories, *req.Categories).Error; err != nil {
				return err
			}
			if err := tx.Model(&p).Association("Categories").Replace(categories); err != nil {
				return err
			}
		}
		if req.Colors != nil {
			var colors []model.Color
			if err := tx.Find(&colors, *req.Colors).Error; err != nil {
				return err
			}
			if err := tx.Model(&p).Association("Colors").Replace(colors); err != nil {
				return err
			}
		}
		if req.Sizes != nil {
			var sizes []model.Size
			if err := tx.Find(&sizes, *req.Sizes).Error; err != nil {
				return err
			}
			if err := tx.Model(&p).Association("Sizes").Replace(sizes); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respondError(ctx, err, "products: update")
		return
	}

	h.search.IndexProduct(ctx.Request.Context(), p.ID, h.productDoc(&p))
	h.invalidateCatalogCache(ctx.Request.Context())

	var updated model.Product
	if err := productPreload(h.db).First(&updated, p.ID).Error; err != nil {
		log.Printf("products: reload %d: %v", p.ID, err)
		response.Internal(ctx)
		return
	}
	response.OK(ctx, updated)
}

// DeleteProduct removes a product. Its image album goes with it; reviews
// and historical order items keep a NULL product reference.
func (h *Handler) DeleteProduct(ctx *gin.Context) {
	var p model.Product
	if err := h.db.First(&p, ctx.Param("id")).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "Product does not exist")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Review{}).Where("product_id = ?", p.ID).Update("product_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.OrderItem{}).Where("product_id = ?", p.ID).Update("product_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", p.ID).Delete(&model.ImageAlbum{}).Error; err != nil {
			return err
		}
		for _, table := range []string{"product_categories", "product_colors", "product_sizes"} {
			if err := tx.Exec("DELETE FROM "+table+" WHERE product_id = ?", p.ID).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&p).Error
	})
	if err != nil {
		respondError(ctx, err, "products: delete")
		return
	}

	h.search.DeleteProduct(ctx.Request.Context(), p.ID)
	h.invalidateCatalogCache(ctx.Request.Context())
	ctx.Status(http.StatusNoContent)
}

// UploadImage attaches a gallery image URL to a product.
func (h *Handler) UploadImage(ctx *gin.Context) {
	var req struct {
		ProductID uint   `json:"product_id" binding:"required"`
		Image     string `json:"image" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	var p model.Product
	if err := h.db.First(&p, req.ProductID).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "Product does not exist")
		return
	}

	album := model.ImageAlbum{Image: req.Image, ProductID: &p.ID}
	if err := h.db.Create(&album).Error; err != nil {
		log.Printf("products: upload image: %v", err)
		response.Internal(ctx)
		return
	}
	response.OK(ctx, gin.H{"detail": "Image was uploaded"})
}

// ListSizes returns the size lookup table with per-size product counts.
func (h *Handler) ListSizes(ctx *gin.Context) {
	var rows []struct {
		model.Size
		ProductCount int64 `json:"product_count"`
	}
	err := h.db.Model(&model.Size{}).
		Select("sizes.*, COUNT(ps.product_id) AS product_count").
		Joins("LEFT JOIN product_sizes ps ON ps.size_id = sizes.id").
		Group("sizes.id").
		Order("sizes.id").
		Find(&rows).Error
	if err != nil {
		log.Printf("sizes: list: %v", err)
		response.Internal(ctx)
		return
	}
	response.OK(ctx, rows)
}

// ListColors returns the color lookup table with per-color product counts.
func (h *Handler) ListColors(ctx *gin.Context) {
	var rows []struct {
		model.Color
		ProductCount int64 `json:"product_count"`
	}
	err := h.db.Model(&model.Color{}).
		Select("colors.*, COUNT(pc.product_id) AS product_count").
		Joins("LEFT JOIN product_colors pc ON pc.color_id = colors.id").
		Group("colors.id").
		Order("colors.id").
		Find(&rows).Error
	if err != nil {
		log.Printf("colors: list: %v", err)
		response.Internal(ctx)
		return
	}
	response.OK(ctx, rows)
}
