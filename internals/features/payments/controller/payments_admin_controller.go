// file: internals/features/payments/controller/payments_admin_controller.go
package controller

import (
	"math"

	"github.com/gofiber/fiber/v2"

	"sppku_backend/internals/features/payments/dto"
	helper "sppku_backend/internals/helpers"
)

// GET /admin/payments?page=&size=
func (h *PaymentController) ListAll(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	size := c.QueryInt("size", 25)
	if size < 1 || size > 200 {
		size = 25
	}

	records, total, err := h.Service.ListAll(c.UserContext(), page, size)
	if err != nil {
		return mapServiceError(c, err)
	}

	return helper.Success(c, "OK", dto.ListPaymentsResponse{
		Data:       dto.ToPaymentResponses(records),
		Page:       page,
		Size:       size,
		TotalItems: total,
		TotalPages: int(math.Ceil(float64(total) / float64(size))),
	})
}
