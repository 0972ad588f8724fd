// file: internals/features/payments/controller/payment_controller.go
package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"sppku_backend/internals/features/payments/dto"
	"sppku_backend/internals/features/payments/service"
	helper "sppku_backend/internals/helpers"
)

/* =======================================================================
   Controller
======================================================================= */

type PaymentController struct {
	Service   *service.PaymentService
	Validator *validator.Validate
}

func NewPaymentController(svc *service.PaymentService) *PaymentController {
	return &PaymentController{
		Service:   svc,
		Validator: validator.New(),
	}
}

/* =======================================================================
   Handlers
======================================================================= */

// POST /payments
func (h *PaymentController) CreatePayment(c *fiber.Ctx) error {
	var req dto.CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	// month & year harus sepaket
	if (req.PaymentMonth == nil) != (req.PaymentYear == nil) {
		return helper.Error(c, fiber.StatusBadRequest, "month dan year harus diisi bersamaan")
	}

	p, order, err := h.Service.CreateForStudent(c.UserContext(), req.PaymentStudentID, req.ExplicitPeriod())
	if err != nil {
		return mapServiceError(c, err)
	}

	return helper.SuccessWithCode(c, fiber.StatusCreated, "Payment dibuat", dto.CreatePaymentResponse{
		Payment:      dto.ToPaymentResponse(*p),
		GatewayOrder: *order,
	})
}

// GET /payments/next-due?student_id=
func (h *PaymentController) NextDue(c *fiber.Ctx) error {
	studentID, err := queryUUID(c, "student_id")
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}

	ob, err := h.Service.NextDueForStudent(c.UserContext(), studentID)
	if err != nil {
		// "tidak bisa menentukan" ≠ "tidak ada tagihan" — jangan balas sukses kosong
		return mapServiceError(c, err)
	}

	return helper.Success(c, "OK", dto.NextDueResponse{
		Settled:    ob == nil,
		Obligation: ob,
	})
}

// GET /payments/history?student_id=
func (h *PaymentController) History(c *fiber.Ctx) error {
	studentID, err := queryUUID(c, "student_id")
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	}

	records, err := h.Service.HistoryForStudent(c.UserContext(), studentID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return helper.Success(c, "OK", dto.ToPaymentResponses(records))
}

// POST /payments/success — redirect balik dari halaman pembayaran
func (h *PaymentController) ConfirmSuccess(c *fiber.Ctx) error {
	var req dto.ConfirmSuccessRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	p, err := h.Service.Complete(c.UserContext(), req.PaymentID, req.GatewayPaymentID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return helper.Success(c, "Pembayaran dikonfirmasi", dto.ToPaymentResponse(*p))
}

// POST /payments/failed
func (h *PaymentController) ConfirmFailure(c *fiber.Ctx) error {
	var req dto.ConfirmFailureRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	p, err := h.Service.Fail(c.UserContext(), req.PaymentID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return helper.Success(c, "Pembayaran ditandai gagal", dto.ToPaymentResponse(*p))
}

/* =======================================================================
   Webhook Midtrans
======================================================================= */

// POST /payments/webhook/midtrans
func (h *PaymentController) MidtransWebhook(c *fiber.Ctx) error {
	headers := map[string]string{}
	for k, v := range c.GetReqHeaders() { // v: []string
		headers[k] = strings.Join(v, ",")
	}

	in := service.WebhookInput{
		RawBody:         c.BodyRaw(),
		SignatureHeader: c.Get("X-Signature"),
		Headers:         headers,
	}

	p, err := h.Service.ProcessGatewayNotification(c.UserContext(), in)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			// balas 200 supaya gateway tidak retry terus
			return c.JSON(fiber.Map{"status": "ignored", "reason": "payment not found"})
		}
		if errors.Is(err, service.ErrConflict) {
			return c.JSON(fiber.Map{"status": "ignored", "reason": "conflicting terminal state"})
		}
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":         "ok",
		"payment_id":     p.PaymentID,
		"payment_status": p.PaymentStatus,
	})
}

/* =======================================================================
   Helpers
======================================================================= */

func queryUUID(c *fiber.Ctx, key string) (uuid.UUID, error) {
	raw := c.Query(key)
	if raw == "" {
		return uuid.Nil, errors.New(key + " wajib diisi")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New(key + " tidak valid")
	}
	return id, nil
}

func mapServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrStudentNotFound), errors.Is(err, service.ErrPaymentNotFound):
		return helper.Error(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNothingDue), errors.Is(err, service.ErrConflict):
		return helper.Error(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidSignature):
		return helper.Error(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrGatewayDown):
		return helper.Error(c, fiber.StatusBadGateway, err.Error())
	case errors.Is(err, service.ErrStoreDown):
		return helper.Error(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
}
