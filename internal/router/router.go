// Package router wires the HTTP surface: route table, auth groups, tracing
// middleware and the flow rule guarding checkout.
package router

import (
	"log"
	"net/http"

	"go-storefront/internal/handler"
	"go-storefront/internal/middleware"
	"go-storefront/pkg/response"

	sentinel "github.com/alibaba/sentinel-golang/api"
	"github.com/alibaba/sentinel-golang/core/base"
	"github.com/alibaba/sentinel-golang/core/flow"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const resCheckout = "order_checkout"

// InitSentinel loads the flow rule for the checkout endpoint. Checkout is the
// one write path a stampede can hurt: every request opens a transaction and
// takes row locks on product stock.
func InitSentinel() {
	if err := sentinel.InitDefault(); err != nil {
		log.Fatalf("init sentinel: %v", err)
	}

	_, err := flow.LoadRules([]*flow.Rule{
		{
			Resource:               resCheckout,
			TokenCalculateStrategy: flow.Direct,
			ControlBehavior:        flow.Reject,
			Threshold:              50,
			StatIntervalInMs:       1000,
		},
	})
	if err != nil {
		log.Fatalf("load sentinel rules: %v", err)
	}
	log.Printf("sentinel flow rule loaded: checkout QPS limit = 50")
}

// flowGuard rejects requests over the resource's QPS threshold.
func flowGuard(resource string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		e, b := sentinel.Entry(resource, sentinel.WithTrafficType(base.Inbound))
		if b != nil {
			response.Error(ctx, http.StatusTooManyRequests, "Too many requests, please try again later")
			ctx.Abort()
			return
		}
		defer e.Exit()
		ctx.Next()
	}
}

// Setup builds the gin engine with the full route table.
func Setup(serviceName string, h *handler.Handler) *gin.Engine {
	r := gin.Default()
	r.Use(otelgin.Middleware(serviceName))

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	users := api.Group("/users")
	{
		users.POST("/login", h.Login)
		users.POST("/register", h.Register)

		authed := users.Group("/")
		authed.Use(middleware.AuthRequired())
		{
			authed.GET("/profile", h.GetProfile)
			authed.PUT("/profile", h.UpdateProfile)
			authed.POST("/change_password", h.ChangePassword)
			authed.GET("/:id", h.GetUser)
		}

		admin := users.Group("/")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/list", h.ListUsers)
			admin.PUT("/update/:id", h.UpdateUser)
			admin.DELETE("/delete/:id", h.DeleteUser)
		}
	}

	products := api.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/all", h.ListAllProducts)
		products.GET("/top", h.TopProducts)
		products.GET("/featured", h.FeaturedProducts)
		products.GET("/recents", h.RecentProducts)
		products.GET("/deals", h.DealProducts)
		products.GET("/sizes", h.ListSizes)
		products.GET("/colors", h.ListColors)
		products.GET("/categories", h.ListCategories)
		products.GET("/offers", h.ListOffers)
		products.GET("/:id", h.GetProduct)
		products.GET("/:id/related", h.RelatedProducts)
		products.GET("/:id/reviews", h.ListProductReviews)

		authed := products.Group("/")
		authed.Use(middleware.AuthRequired())
		{
			authed.POST("/:id/reviews", h.CreateReview)
			authed.PUT("/reviews/:id", h.UpdateReview)
			authed.DELETE("/reviews/:id", h.DeleteReview)
		}

		products.POST("", middleware.AuthRequired(), middleware.AdminRequired(), h.CreateProduct)

		admin := products.Group("/")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.PUT("/:id", h.UpdateProduct)
			admin.DELETE("/:id", h.DeleteProduct)
			admin.POST("/upload", h.UploadImage)
			admin.POST("/categories", h.CreateCategory)
			admin.PUT("/categories/:id", h.UpdateCategory)
			admin.DELETE("/categories/:id", h.DeleteCategory)
			admin.POST("/offers", h.CreateOffer)
			admin.DELETE("/offers/:id", h.DeleteOffer)
		}
	}

	orders := api.Group("/orders")
	orders.Use(middleware.AuthRequired())
	{
		orders.POST("/add", flowGuard(resCheckout), h.PlaceOrder)
		orders.GET("/myorders", h.MyOrders)
		orders.GET("/:id", h.GetOrder)
		orders.PUT("/:id/pay", h.PayOrder)
		orders.GET("", middleware.AdminRequired(), h.ListOrders)
		orders.PUT("/:id/deliver", middleware.AdminRequired(), h.DeliverOrder)
	}

	return r
}
