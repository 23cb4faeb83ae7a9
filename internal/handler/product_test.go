package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"go-storefront/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProductSample(t *testing.T) {
	db, r := setupTest(t)
	_, userToken := createUser(t, db, "user@example.com", false)
	_, adminToken := createUser(t, db, "admin@example.com", true)

	w := doJSON(t, r, http.MethodPost, "/api/products", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/products", adminToken, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeMap(t, w)
	assert.Equal(t, "Sample Name", body["name"])
	assert.Equal(t, "Sample Brand", body["brand"])
}

func TestUpdateProductDerivesSalePriceOnce(t *testing.T) {
	db, r := setupTest(t)
	_, adminToken := createUser(t, db, "admin@example.com", true)
	p := createProduct(t, db, "Runner", "100.00", 10)
	path := fmt.Sprintf("/api/products/%d", p.ID)

	w := doJSON(t, r, http.MethodPut, path, adminToken,
		map[string]interface{}{"discount_percentage": 25})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored model.Product
	require.NoError(t, db.First(&stored, p.ID).Error)
	require.True(t, stored.SalePrice.Valid)
	assert.True(t, stored.SalePrice.Decimal.Equal(decimal.RequireFromString("75.00")))

	// A save that touches neither price nor discount leaves the derived
	// sale price alone.
	w = doJSON(t, r, http.MethodPut, path, adminToken,
		map[string]interface{}{"name": "Runner v2"})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.First(&stored, p.ID).Error)
	require.True(t, stored.SalePrice.Valid)
	assert.True(t, stored.SalePrice.Decimal.Equal(decimal.RequireFromString("75.00")))

	// Changing the price clears and re-derives it.
	w = doJSON(t, r, http.MethodPut, path, adminToken,
		map[string]interface{}{"price": "200.00"})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.First(&stored, p.ID).Error)
	require.True(t, stored.SalePrice.Valid)
	assert.True(t, stored.SalePrice.Decimal.Equal(decimal.RequireFromString("150.00")))
}

func TestUpdateProductBadgeValidation(t *testing.T) {
	db, r := setupTest(t)
	_, adminToken := createUser(t, db, "admin@example.com", true)
	p := createProduct(t, db, "Runner", "100.00", 10)
	path := fmt.Sprintf("/api/products/%d", p.ID)

	w := doJSON(t, r, http.MethodPut, path, adminToken,
		map[string]interface{}{"badge": "Bogus"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Badge must be one of Featured, Top Rated, Sale", decodeMap(t, w)["detail"])

	w = doJSON(t, r, http.MethodPut, path, adminToken,
		map[string]interface{}{"badge": model.BadgeTopRated})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateProductAssociations(t *testing.T) {
	db, r := setupTest(t)
	_, adminToken := createUser(t, db, "admin@example.com", true)
	p := createProduct(t, db, "Runner", "100.00", 10)

	cat := model.Category{Name: "Shoes", Slug: "shoes"}
	require.NoError(t, db.Create(&cat).Error)
	color := model.Color{Name: "Black", HexCode: "#000000"}
	require.NoError(t, db.Create(&color).Error)
	size := model.Size{Name: "M"}
	require.NoError(t, db.Create(&size).Error)

	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/products/%d", p.ID), adminToken,
		map[string]interface{}{
			"categories": []uint{cat.ID},
			"colors":     []uint{color.ID},
			"size":       []uint{size.ID},
		})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeMap(t, w)
	assert.Len(t, body["categories"], 1)
	assert.Len(t, body["colors"], 1)
	assert.Len(t, body["size"], 1)
}

func TestDeleteProductKeepsOrderHistory(t *testing.T) {
	db, r := setupTest(t)
	owner, token := createUser(t, db, "buyer@example.com", false)
	_, adminToken := createUser(t, db, "admin@example.com", true)
	p := createProduct(t, db, "Runner", "50.00", 10)

	w := doJSON(t, r, http.MethodPost, "/api/orders/add", token,
		cartBody(p.ID, 1, "50.00", "0.00", "0.00", "50.00"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	review := model.Review{ProductID: &p.ID, UserID: &owner.ID, Name: owner.Name, Rating: decimal.RequireFromString("4")}
	require.NoError(t, db.Create(&review).Error)

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/products/%d", p.ID), adminToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	var item model.OrderItem
	require.NoError(t, db.First(&item).Error)
	assert.Nil(t, item.ProductID)
	assert.Equal(t, "Runner", item.Name)

	var storedReview model.Review
	require.NoError(t, db.First(&storedReview, review.ID).Error)
	assert.Nil(t, storedReview.ProductID)
}

func TestListProductsPagination(t *testing.T) {
	db, r := setupTest(t)
	for i := 0; i < 10; i++ {
		createProduct(t, db, fmt.Sprintf("Product %d", i), "10.00", 5)
	}

	w := doJSON(t, r, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeMap(t, w)
	meta, ok := body["pagination"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 1, meta["current_page"])
	assert.EqualValues(t, 2, meta["total_pages"])
	assert.EqualValues(t, 10, meta["total_items"])
	assert.Len(t, body["results"], 8)

	w = doJSON(t, r, http.MethodGet, "/api/products?page=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeMap(t, w)["results"], 2)
}

func TestListProductsKeyword(t *testing.T) {
	db, r := setupTest(t)
	createProduct(t, db, "Trail Runner", "10.00", 5)
	createProduct(t, db, "City Boot", "10.00", 5)

	w := doJSON(t, r, http.MethodGet, "/api/products?keyword=Runner", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeMap(t, w)["results"], 1)
}

func TestListAllProductsPriceFilter(t *testing.T) {
	db, r := setupTest(t)
	createProduct(t, db, "Cheap", "5.00", 5)
	createProduct(t, db, "Mid", "50.00", 5)
	createProduct(t, db, "Pricey", "500.00", 5)

	w := doJSON(t, r, http.MethodGet, "/api/products/all?min_price=10&max_price=100", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeMap(t, w)["results"], 1)
}

func TestTopProductsThreshold(t *testing.T) {
	db, r := setupTest(t)
	rated := createProduct(t, db, "Five Star", "10.00", 5)
	require.NoError(t, db.Exec("UPDATE products SET rating = 5 WHERE id = ?", rated.ID).Error)
	createProduct(t, db, "Unrated", "10.00", 5)

	w := doJSON(t, r, http.MethodGet, "/api/products/top", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	list := decodeList(t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Five Star", list[0].(map[string]interface{})["name"])
}

func TestFeaturedProducts(t *testing.T) {
	db, r := setupTest(t)
	featured := createProduct(t, db, "Featured", "10.00", 5)
	require.NoError(t, db.Exec("UPDATE products SET is_featured = true WHERE id = ?", featured.ID).Error)
	createProduct(t, db, "Plain", "10.00", 5)

	w := doJSON(t, r, http.MethodGet, "/api/products/featured", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeList(t, w), 1)
}

func TestDealAndRecentViewsSplitOnDealsCategory(t *testing.T) {
	db, r := setupTest(t)
	deals := model.Category{Name: "deals", Slug: "deals"}
	require.NoError(t, db.Create(&deals).Error)

	deal := createProduct(t, db, "Deal Item", "10.00", 5)
	require.NoError(t, db.Model(&deal).Association("Categories").Append(&deals))
	createProduct(t, db, "Fresh Item", "10.00", 5)

	w := doJSON(t, r, http.MethodGet, "/api/products/deals", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeList(t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Deal Item", list[0].(map[string]interface{})["name"])

	w = doJSON(t, r, http.MethodGet, "/api/products/recents", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decodeList(t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Fresh Item", list[0].(map[string]interface{})["name"])
}

func TestDealViewsReportStorageFailure(t *testing.T) {
	db, r := setupTest(t)
	createProduct(t, db, "Runner", "10.00", 5)
	require.NoError(t, db.Exec("DROP TABLE categories").Error)

	w := doJSON(t, r, http.MethodGet, "/api/products/deals", "", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeMap(t, w)["detail"])

	w = doJSON(t, r, http.MethodGet, "/api/products/recents", "", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeMap(t, w)["detail"])
}

func TestRelatedProducts(t *testing.T) {
	db, r := setupTest(t)
	cat := model.Category{Name: "Shoes", Slug: "shoes"}
	require.NoError(t, db.Create(&cat).Error)

	base := createProduct(t, db, "Base", "10.00", 5)
	sameBrand := createProduct(t, db, "Same Brand Same Cat", "10.00", 5)
	otherBrand := model.Product{Name: "Other Brand", Brand: "Rival", Price: decimal.RequireFromString("10.00")}
	require.NoError(t, db.Create(&otherBrand).Error)

	for _, p := range []*model.Product{&base, &sameBrand, &otherBrand} {
		require.NoError(t, db.Model(p).Association("Categories").Append(&cat))
	}
	createProduct(t, db, "Same Brand No Cat", "10.00", 5)

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/products/%d/related", base.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	list := decodeList(t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Same Brand Same Cat", list[0].(map[string]interface{})["name"])
}

func TestGetProductNotFound(t *testing.T) {
	_, r := setupTest(t)
	w := doJSON(t, r, http.MethodGet, "/api/products/9999", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product does not exist", decodeMap(t, w)["detail"])
}

func TestUploadImage(t *testing.T) {
	db, r := setupTest(t)
	_, adminToken := createUser(t, db, "admin@example.com", true)
	p := createProduct(t, db, "Runner", "10.00", 5)

	w := doJSON(t, r, http.MethodPost, "/api/products/upload", adminToken,
		map[string]interface{}{"product_id": p.ID, "image": "/media/runner-side.png"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var count int64
	db.Model(&model.ImageAlbum{}).Where("product_id = ?", p.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestListSizesWithProductCounts(t *testing.T) {
	db, r := setupTest(t)
	size := model.Size{Name: "M"}
	require.NoError(t, db.Create(&size).Error)
	require.NoError(t, db.Create(&model.Size{Name: "L"}).Error)

	p := createProduct(t, db, "Runner", "10.00", 5)
	require.NoError(t, db.Model(&p).Association("Sizes").Append(&size))

	w := doJSON(t, r, http.MethodGet, "/api/products/sizes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	list := decodeList(t, w)
	require.Len(t, list, 2)
	first := list[0].(map[string]interface{})
	assert.Equal(t, "M", first["name"])
	assert.EqualValues(t, 1, first["product_count"])
	assert.EqualValues(t, 0, list[1].(map[string]interface{})["product_count"])
}

func TestOffersLifecycle(t *testing.T) {
	db, r := setupTest(t)
	_, adminToken := createUser(t, db, "admin@example.com", true)

	w := doJSON(t, r, http.MethodPost, "/api/products/offers", adminToken,
		map[string]interface{}{"name": "Summer Sale", "price": "99.99", "on_sale": true, "sale_price": "79.99"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeMap(t, w)

	w = doJSON(t, r, http.MethodGet, "/api/products/offers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeList(t, w), 1)

	id := created["_id"].(float64)
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/products/offers/%.0f", id), adminToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	var count int64
	db.Model(&model.DiscountOffer{}).Count(&count)
	assert.Zero(t, count)
}
