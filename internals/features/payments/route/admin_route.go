// file: internals/features/payments/route/admin_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"sppku_backend/internals/middlewares/auth"
)

func AdminPaymentRoutes(r fiber.Router, db *gorm.DB) {
	h := newPaymentController(db)

	admin := r.Group("/admin", auth.AdminAuthMiddleware())
	{
		admin.Get("/payments", h.ListAll)
	}
}
