package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OK writes data as-is with status 200.
func OK(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, data)
}

// Created writes data as-is with status 201.
func Created(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusCreated, data)
}

// Error writes the standard error body. All user-visible failures carry a
// "detail" key.
func Error(ctx *gin.Context, httpStatus int, detail string) {
	ctx.JSON(httpStatus, gin.H{"detail": detail})
}

// Internal hides the underlying error from the client; callers log it.
func Internal(ctx *gin.Context) {
	Error(ctx, http.StatusInternalServerError, "Internal server error")
}
