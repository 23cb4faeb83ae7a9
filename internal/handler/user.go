package handler

import (
	"log"
	"net/http"

	"go-storefront/internal/middleware"
	"go-storefront/internal/model"
	"go-storefront/pkg/jwt"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

// userPayload mirrors the account shape the storefront frontend expects.
// Username doubles as the email.
func userPayload(u *model.User) gin.H {
	name := u.Name
	if name == "" {
		name = u.Email
	}
	return gin.H{
		"id":       u.ID,
		"_id":      u.ID,
		"username": u.Email,
		"email":    u.Email,
		"name":     name,
		"isAdmin":  u.IsAdmin,
	}
}

func userPayloadWithToken(u *model.User) (gin.H, error) {
	token, err := jwt.GenerateToken(int64(u.ID), u.Email, u.IsAdmin)
	if err != nil {
		return nil, err
	}
	payload := userPayload(u)
	payload["token"] = token
	return payload, nil
}

// Register creates an account and returns it with a fresh token.
func (h *Handler) Register(ctx *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	fields := map[string]string{"name": req.Name, "email": req.Email, "password": req.Password}
	for _, field := range []string{"name", "email", "password"} {
		if fields[field] == "" {
			response.Error(ctx, http.StatusBadRequest, field+" is required")
			return
		}
	}
	if len(req.Password) < minPasswordLength {
		response.Error(ctx, http.StatusBadRequest, "Password must be at least 8 characters long")
		return
	}

	var cnt int64
	if err := h.db.Model(&model.User{}).Where("email = ?", req.Email).Count(&cnt).Error; err != nil {
		log.Printf("register: count email: %v", err)
		response.Internal(ctx)
		return
	}
	if cnt > 0 {
		response.Error(ctx, http.StatusBadRequest, "User with this email already exists")
		return
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("register: hash password: %v", err)
		response.Internal(ctx)
		return
	}

	u := model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPwd),
	}
	if err := h.db.Create(&u).Error; err != nil {
		log.Printf("register: create user: %v", err)
		response.Internal(ctx)
		return
	}

	payload, err := userPayloadWithToken(&u)
	if err != nil {
		log.Printf("register: token: %v", err)
		response.Internal(ctx)
		return
	}
	response.Created(ctx, payload)
}

// Login exchanges email+password for the account payload with a token.
func (h *Handler) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	var u model.User
	if err := h.db.Where("email = ?", req.Email).First(&u).Error; err != nil {
		response.Error(ctx, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		response.Error(ctx, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	payload, err := userPayloadWithToken(&u)
	if err != nil {
		log.Printf("login: token: %v", err)
		response.Internal(ctx)
		return
	}
	response.OK(ctx, payload)
}

// GetProfile returns the caller's own account.
func (h *Handler) GetProfile(ctx *gin.Context) {
	var u model.User
	if err := h.db.First(&u, middleware.UserID(ctx)).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "User does not exist")
		return
	}
	response.OK(ctx, userPayload(&u))
}

// UpdateProfile lets the caller change their own name/email. A fresh token
// is returned because the email claim may have changed.
func (h *Handler) UpdateProfile(ctx *gin.Context) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	var u model.User
	if err := h.db.First(&u, middleware.UserID(ctx)).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "User does not exist")
		return
	}

	if req.Name != "" {
		u.Name = req.Name
	}
	if req.Email != "" {
		u.Email = req.Email
	}
	if err := h.db.Save(&u).Error; err != nil {
		log.Printf("profile: update user %d: %v", u.ID, err)
		response.Internal(ctx)
		return
	}

	payload, err := userPayloadWithToken(&u)
	if err != nil {
		log.Printf("profile: token: %v", err)
		response.Internal(ctx)
		return
	}
	response.OK(ctx, payload)
}

// ChangePassword verifies the old password before setting the new one.
func (h *Handler) ChangePassword(ctx *gin.Context) {
	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		response.Error(ctx, http.StatusBadRequest, "Password must be at least 8 characters long")
		return
	}

	var u model.User
	if err := h.db.First(&u, middleware.UserID(ctx)).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "User does not exist")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.OldPassword)); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Incorrect old password.")
		return
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("change password: hash: %v", err)
		response.Internal(ctx)
		return
	}
	if err := h.db.Model(&u).Update("password", string(hashedPwd)).Error; err != nil {
		log.Printf("change password: update: %v", err)
		response.Internal(ctx)
		return
	}

	response.OK(ctx, gin.H{"message": "Password changed successfully."})
}

// ListUsers returns every account. Admin only.
func (h *Handler) ListUsers(ctx *gin.Context) {
	var users []model.User
	if err := h.db.Order("id").Find(&users).Error; err != nil {
		log.Printf("users: list: %v", err)
		response.Internal(ctx)
		return
	}

	payloads := make([]gin.H, 0, len(users))
	for i := range users {
		payloads = append(payloads, userPayload(&users[i]))
	}
	response.OK(ctx, payloads)
}

// GetUser returns one account by id.
func (h *Handler) GetUser(ctx *gin.Context) {
	var u model.User
	if err := h.db.First(&u, ctx.Param("id")).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "User does not exist")
		return
	}
	response.OK(ctx, userPayload(&u))
}

// UpdateUser is the admin account editor; it may grant or revoke admin.
func (h *Handler) UpdateUser(ctx *gin.Context) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		IsAdmin bool   `json:"isAdmin"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	var u model.User
	if err := h.db.First(&u, ctx.Param("id")).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "User does not exist")
		return
	}

	if req.Name != "" {
		u.Name = req.Name
	}
	if req.Email != "" {
		u.Email = req.Email
	}
	u.IsAdmin = req.IsAdmin
	if err := h.db.Save(&u).Error; err != nil {
		log.Printf("users: update %d: %v", u.ID, err)
		response.Internal(ctx)
		return
	}
	response.OK(ctx, userPayload(&u))
}

// DeleteUser removes an account. Products, reviews, and orders it owns
// keep a NULL owner.
func (h *Handler) DeleteUser(ctx *gin.Context) {
	var u model.User
	if err := h.db.First(&u, ctx.Param("id")).Error; err != nil {
		response.Error(ctx, http.StatusNotFound, "User does not exist")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Product{}).Where("user_id = ?", u.ID).Update("user_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Review{}).Where("user_id = ?", u.ID).Update("user_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Order{}).Where("user_id = ?", u.ID).Update("user_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&u).Error
	})
	if err != nil {
		log.Printf("users: delete %d: %v", u.ID, err)
		response.Internal(ctx)
		return
	}

	response.OK(ctx, gin.H{"detail": "User was deleted"})
}
