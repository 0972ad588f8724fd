package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	paymentRoute "sppku_backend/internals/features/payments/route"
	studentRoute "sppku_backend/internals/features/students/route"
)

// SetupRoutes merakit semua route di bawah /api
func SetupRoutes(app *fiber.App, db *gorm.DB, rdb *redis.Client) {
	api := app.Group("/api")

	studentRoute.StudentRoutes(api, db, rdb)
	paymentRoute.UserPaymentRoutes(api, db)
	paymentRoute.AdminPaymentRoutes(api, db)
}
