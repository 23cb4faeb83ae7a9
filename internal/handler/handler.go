// Package handler implements the storefront's HTTP surface. Handlers hold
// the database directly and write their queries inline.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"go-storefront/pkg/events"
	"go-storefront/pkg/response"
	"go-storefront/pkg/search"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const catalogCacheTTL = 60 * time.Second

// Cached home views. Invalidated on any product or review mutation.
var catalogCacheKeys = []string{
	"catalog:top",
	"catalog:featured",
	"catalog:recents",
	"catalog:deals",
}

type Handler struct {
	db     *gorm.DB
	rdb    *redis.Client
	search *search.Client
	events *events.Publisher
}

func New(db *gorm.DB, rdb *redis.Client, searchClient *search.Client, publisher *events.Publisher) *Handler {
	return &Handler{db: db, rdb: rdb, search: searchClient, events: publisher}
}

// apiError carries a status code through a transaction so the handler can
// roll back and still answer with the right client error.
type apiError struct {
	status int
	detail string
}

func (e *apiError) Error() string {
	return e.detail
}

// respondError maps an apiError to its status and hides everything else
// behind a generic 500; the raw error is only logged.
func respondError(ctx *gin.Context, err error, logPrefix string) {
	var ae *apiError
	if errors.As(err, &ae) {
		response.Error(ctx, ae.status, ae.detail)
		return
	}
	log.Printf("%s: %v", logPrefix, err)
	response.Internal(ctx)
}

// productPreload loads everything a product payload nests.
func productPreload(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Colors").
		Preload("Sizes").
		Preload("Categories.Genres").
		Preload("Images").
		Preload("Reviews")
}

// cachedJSON serves key from Redis if present; returns true on a hit.
func (h *Handler) cachedJSON(ctx *gin.Context, key string) bool {
	if h.rdb == nil {
		return false
	}
	body, err := h.rdb.Get(ctx.Request.Context(), key).Bytes()
	if err != nil {
		return false
	}
	ctx.Data(200, "application/json; charset=utf-8", body)
	return true
}

// cacheAndSend stores the payload under key and writes it to the client.
func (h *Handler) cacheAndSend(ctx *gin.Context, key string, payload interface{}) {
	if h.rdb != nil {
		if body, err := json.Marshal(payload); err == nil {
			if err := h.rdb.Set(ctx.Request.Context(), key, body, catalogCacheTTL).Err(); err != nil {
				log.Printf("cache: set %s: %v", key, err)
			}
		}
	}
	ctx.JSON(200, payload)
}

func (h *Handler) invalidateCatalogCache(ctx context.Context) {
	if h.rdb == nil {
		return
	}
	if err := h.rdb.Del(ctx, catalogCacheKeys...).Err(); err != nil {
		log.Printf("cache: invalidate: %v", err)
	}
}
