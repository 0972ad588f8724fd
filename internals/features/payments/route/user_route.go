// file: internals/features/payments/route/user_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"sppku_backend/internals/configs"
	paymentController "sppku_backend/internals/features/payments/controller"
	"sppku_backend/internals/features/payments/repository"
	"sppku_backend/internals/features/payments/service"
	studentRepository "sppku_backend/internals/features/students/repository"
	"sppku_backend/internals/middlewares"
)

func newPaymentController(db *gorm.DB) *paymentController.PaymentController {
	gateway := service.InitMidtrans(configs.MidtransServerKey, configs.MidtransUseProd)
	svc := service.NewPaymentService(
		repository.NewPaymentRepository(db),
		studentRepository.NewStudentRepository(db),
		gateway,
		configs.MonthlyFeeIDR,
	)
	return paymentController.NewPaymentController(svc)
}

func UserPaymentRoutes(r fiber.Router, db *gorm.DB) {
	h := newPaymentController(db)

	payments := r.Group("/payments")
	{
		payments.Post("/", middlewares.CreatePaymentRateLimiter(), h.CreatePayment)
		payments.Get("/next-due", h.NextDue)
		payments.Get("/history", h.History)
		payments.Post("/success", h.ConfirmSuccess)
		payments.Post("/failed", h.ConfirmFailure)

		// webhook publik — signature check di service, bukan auth
		payments.Post("/webhook/midtrans", h.MidtransWebhook)
	}
}
