package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"go-storefront/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	_, r := setupTest(t)

	w := doJSON(t, r, http.MethodPost, "/api/users/register", "",
		map[string]interface{}{"name": "Alice", "email": "alice@example.com", "password": "longenough1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeMap(t, w)
	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, "alice@example.com", body["username"])
	assert.Equal(t, "Alice", body["name"])
	assert.Equal(t, false, body["isAdmin"])
	assert.NotEmpty(t, body["token"])
}

func TestRegisterValidation(t *testing.T) {
	db, r := setupTest(t)
	createUser(t, db, "taken@example.com", false)

	cases := []struct {
		name   string
		body   map[string]interface{}
		detail string
	}{
		{"missing name", map[string]interface{}{"email": "a@b.com", "password": "longenough1"}, "name is required"},
		{"missing email", map[string]interface{}{"name": "A", "password": "longenough1"}, "email is required"},
		{"missing password", map[string]interface{}{"name": "A", "email": "a@b.com"}, "password is required"},
		{"short password", map[string]interface{}{"name": "A", "email": "a@b.com", "password": "short"}, "Password must be at least 8 characters long"},
		{"duplicate email", map[string]interface{}{"name": "A", "email": "taken@example.com", "password": "longenough1"}, "User with this email already exists"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/users/register", "", tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.detail, decodeMap(t, w)["detail"])
		})
	}
}

func TestRegisterReportsStorageFailure(t *testing.T) {
	db, r := setupTest(t)
	require.NoError(t, db.Exec("DROP TABLE users").Error)

	w := doJSON(t, r, http.MethodPost, "/api/users/register", "",
		map[string]interface{}{"name": "Alice", "email": "alice@example.com", "password": "longenough1"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeMap(t, w)["detail"])
}

func TestLogin(t *testing.T) {
	db, r := setupTest(t)
	createUser(t, db, "alice@example.com", false)

	w := doJSON(t, r, http.MethodPost, "/api/users/login", "",
		map[string]interface{}{"email": "alice@example.com", "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decodeMap(t, w)["token"])

	w = doJSON(t, r, http.MethodPost, "/api/users/login", "",
		map[string]interface{}{"email": "alice@example.com", "password": "wrongpassword"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password", decodeMap(t, w)["detail"])

	w = doJSON(t, r, http.MethodPost, "/api/users/login", "",
		map[string]interface{}{"email": "nobody@example.com", "password": testPassword})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfile(t *testing.T) {
	db, r := setupTest(t)
	_, token := createUser(t, db, "alice@example.com", false)

	w := doJSON(t, r, http.MethodGet, "/api/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/users/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice@example.com", decodeMap(t, w)["email"])

	w = doJSON(t, r, http.MethodPut, "/api/users/profile", token,
		map[string]interface{}{"name": "Alice Updated"})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeMap(t, w)
	assert.Equal(t, "Alice Updated", body["name"])
	assert.NotEmpty(t, body["token"])
}

func TestChangePassword(t *testing.T) {
	db, r := setupTest(t)
	_, token := createUser(t, db, "alice@example.com", false)

	w := doJSON(t, r, http.MethodPost, "/api/users/change_password", token,
		map[string]interface{}{"old_password": "wrongpassword", "new_password": "newpassword1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Incorrect old password.", decodeMap(t, w)["detail"])

	w = doJSON(t, r, http.MethodPost, "/api/users/change_password", token,
		map[string]interface{}{"old_password": testPassword, "new_password": "newpassword1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/users/login", "",
		map[string]interface{}{"email": "alice@example.com", "password": "newpassword1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminUserManagement(t *testing.T) {
	db, r := setupTest(t)
	target, targetToken := createUser(t, db, "target@example.com", false)
	_, adminToken := createUser(t, db, "admin@example.com", true)

	w := doJSON(t, r, http.MethodGet, "/api/users/list", targetToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/users/list", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeList(t, w), 2)

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/users/update/%d", target.ID), adminToken,
		map[string]interface{}{"name": "Promoted", "isAdmin": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeMap(t, w)["isAdmin"])
}

func TestDeleteUserKeepsOwnedRows(t *testing.T) {
	db, r := setupTest(t)
	target, _ := createUser(t, db, "target@example.com", false)
	_, adminToken := createUser(t, db, "admin@example.com", true)

	order := model.Order{UserID: &target.ID, PaymentMethod: "PayPal"}
	require.NoError(t, db.Create(&order).Error)

	w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/users/delete/%d", target.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User was deleted", decodeMap(t, w)["detail"])

	var stored model.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.Nil(t, stored.UserID)

	var users int64
	db.Model(&model.User{}).Count(&users)
	assert.Equal(t, int64(1), users)
}
