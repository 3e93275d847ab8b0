// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/hospital-backend/internal/config"
	"github.com/your-org/hospital-backend/internal/interfaces/http/handlers"
	"github.com/your-org/hospital-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires every API route group
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	SetupAuthRoutes(rg, db, redisClient, cfg)
	SetupDrugRoutes(rg, db, redisClient, cfg)
	SetupPharmacyRoutes(rg, db, redisClient, cfg)
	SetupAdminRoutes(rg, db, redisClient, cfg)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)

	auth := rg.Group("/auth")
	{
		// Public auth endpoints
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)

		// Protected auth endpoints
		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.POST("/logout", authHandler.Logout)
			protected.GET("/profile", authHandler.GetProfile)
		}
	}
}

// SetupDrugRoutes sets up drug catalog routes
func SetupDrugRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	drugHandler := handlers.NewDrugHandler(db, cfg)

	drugs := rg.Group("/drugs")
	drugs.Use(middleware.AuthMiddleware(cfg))
	{
		drugs.GET("", drugHandler.GetDrugs)
		drugs.GET("/:id", drugHandler.GetDrug)
	}
}

// SetupPharmacyRoutes sets up dispensing, stock and expiry routes
func SetupPharmacyRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	pharmacyHandler := handlers.NewPharmacyHandler(db, redisClient, cfg)
	prescriptionHandler := handlers.NewPrescriptionHandler(db, cfg)

	pharmacy := rg.Group("/pharmacy")
	pharmacy.Use(middleware.AuthMiddleware(cfg)) // All pharmacy routes require authentication
	{
		// Stock queries
		pharmacy.GET("/stock/:drugId", pharmacyHandler.CheckStock)
		pharmacy.GET("/items", pharmacyHandler.ListItems)
		pharmacy.GET("/items/:id/batches", pharmacyHandler.ListBatches)

		// Dispensing
		pharmacy.POST("/dispense", pharmacyHandler.Dispense)
		pharmacy.POST("/prescriptions/:id/dispense", pharmacyHandler.DispensePrescription)

		// Prescriptions
		pharmacy.GET("/prescriptions/pending", prescriptionHandler.GetPending)
		pharmacy.GET("/prescriptions/:id", prescriptionHandler.GetPrescription)

		// Dispense records
		pharmacy.GET("/dispenses/:id", pharmacyHandler.GetDispenseRecord)
		pharmacy.GET("/dispenses/:id/receipt", pharmacyHandler.GetReceipt)

		// Expiry monitoring
		pharmacy.GET("/expiring", pharmacyHandler.ScanExpiring)
	}
}

// SetupAdminRoutes sets up admin related routes
func SetupAdminRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)
	drugHandler := handlers.NewDrugHandler(db, cfg)

	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg)) // Require authentication
	admin.Use(middleware.AdminMiddleware())   // Require admin privileges
	{
		// Staff management
		users := admin.Group("/users")
		{
			users.POST("", authHandler.Register)
		}

		// Drug catalog management
		drugs := admin.Group("/drugs")
		{
			drugs.POST("", drugHandler.CreateDrug)
			drugs.DELETE("/:id", drugHandler.DeactivateDrug)
		}
	}
}
