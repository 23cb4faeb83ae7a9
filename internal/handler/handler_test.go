package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"go-storefront/internal/handler"
	"go-storefront/internal/model"
	"go-storefront/internal/router"
	"go-storefront/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "password123"

var dbSeq atomic.Int64

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	router.InitSentinel()
	os.Exit(m.Run())
}

// setupTest builds a fresh in-memory database and the full route table
// around it. Each test gets its own database.
func setupTest(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()

	dsn := fmt.Sprintf("file:handler_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Genre{},
		&model.Category{},
		&model.Color{},
		&model.Size{},
		&model.Product{},
		&model.ImageAlbum{},
		&model.Review{},
		&model.DiscountOffer{},
		&model.Order{},
		&model.OrderItem{},
		&model.ShippingAddress{},
	))

	h := handler.New(db, nil, nil, nil)
	return db, router.Setup("storefront-test", h)
}

func createUser(t *testing.T, db *gorm.DB, email string, isAdmin bool) (model.User, string) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	u := model.User{Name: "Test User", Email: email, Password: string(hashed), IsAdmin: isAdmin}
	require.NoError(t, db.Create(&u).Error)

	token, err := jwt.GenerateToken(int64(u.ID), u.Email, u.IsAdmin)
	require.NoError(t, err)
	return u, token
}

func createProduct(t *testing.T, db *gorm.DB, name, price string, stock int) model.Product {
	t.Helper()

	p := model.Product{
		Name:         name,
		Brand:        "Acme",
		Price:        decimal.RequireFromString(price),
		CountInStock: stock,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()

	var body []interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
