// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/checkout-backend/internal/config"
	"github.com/your-org/checkout-backend/internal/domain/payment"
	"github.com/your-org/checkout-backend/internal/domain/voucher"
	"github.com/your-org/checkout-backend/internal/interfaces/http/handlers"
	"github.com/your-org/checkout-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupPricingRoutes sets up pricing related routes
func SetupPricingRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	pricingHandler := handlers.NewPricingHandler(cfg)

	pricing := rg.Group("/pricing")
	{
		pricing.POST("/quote", pricingHandler.Quote)
	}
}

// SetupVoucherRoutes sets up public voucher routes
func SetupVoucherRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	voucherHandler := handlers.NewVoucherHandler(voucher.NewGormStore(db), cfg)

	vouchers := rg.Group("/vouchers")
	vouchers.Use(middleware.OptionalAuthMiddleware(cfg)) // Optional auth for per-user limits
	{
		vouchers.POST("/validate", voucherHandler.Validate)
	}
}

// SetupPaymentRoutes sets up payment intent and webhook routes
func SetupPaymentRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	paymentHandler := handlers.NewPaymentHandler(payment.NewService(db, cfg), voucher.NewGormStore(db), cfg)

	payments := rg.Group("/payment")
	{
		payments.POST("/create-intent", paymentHandler.CreateIntent)
		payments.GET("/intent/:orderId", paymentHandler.GetIntent)
	}

	// Webhook endpoint is authenticated by the processor signature,
	// never by a user token
	webhooks := rg.Group("/webhooks")
	{
		webhooks.POST("/stripe", paymentHandler.Webhook)
	}
}

// SetupAdminRoutes sets up admin routes (requires admin role)
func SetupAdminRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	voucherAdminHandler := handlers.NewVoucherAdminHandler(voucher.NewGormStore(db), cfg)

	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.Use(middleware.AdminMiddleware())
	{
		vouchers := admin.Group("/vouchers")
		{
			vouchers.GET("", voucherAdminHandler.ListVouchers)
			vouchers.POST("", voucherAdminHandler.CreateVoucher)
			vouchers.GET("/:id", voucherAdminHandler.GetVoucher)
			vouchers.PUT("/:id", voucherAdminHandler.UpdateVoucher)
			vouchers.DELETE("/:id", voucherAdminHandler.DeleteVoucher)
		}
	}
}

// SetupRoutes sets up all API routes
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	SetupPricingRoutes(rg, db, redisClient, cfg)
	SetupVoucherRoutes(rg, db, redisClient, cfg)
	SetupPaymentRoutes(rg, db, redisClient, cfg)
	SetupAdminRoutes(rg, db, redisClient, cfg)
}
