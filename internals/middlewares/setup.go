package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"sppku_backend/internals/middlewares/logger"
)

// SetupMiddlewares memasang middleware global (urutan penting:
// logger dulu supaya panic tetap tercatat, baru recovery & limiter).
func SetupMiddlewares(app *fiber.App) {
	app.Use(logger.LoggerMiddleware())
	app.Use(CorsMiddleware())
	app.Use(RecoveryMiddleware())
	app.Use(GlobalRateLimiter())
}
