package dto

import (
	"time"

	"github.com/google/uuid"

	"sppku_backend/internals/features/payments/model"
	"sppku_backend/internals/features/payments/service"
)

/* =========================================================
   REQUEST DTOs (JSON tags = snake_case kolom DB)
========================================================= */

// CreatePaymentRequest: periode opsional; kalau kosong, dipakai hasil resolver
type CreatePaymentRequest struct {
	PaymentStudentID uuid.UUID `json:"student_id" validate:"required"`
	PaymentMonth     *int      `json:"month,omitempty" validate:"omitempty,min=1,max=12"`
	PaymentYear      *int      `json:"year,omitempty" validate:"omitempty,min=2000,max=2100"`
}

func (r CreatePaymentRequest) ExplicitPeriod() *service.Period {
	if r.PaymentMonth == nil || r.PaymentYear == nil {
		return nil
	}
	return &service.Period{Month: *r.PaymentMonth, Year: *r.PaymentYear}
}

// ConfirmSuccessRequest: redirect sukses dari halaman pembayaran
type ConfirmSuccessRequest struct {
	PaymentID        uuid.UUID `json:"payment_id" validate:"required"`
	GatewayPaymentID string    `json:"gateway_payment_id" validate:"required"`
}

// ConfirmFailureRequest: user batal / pembayaran gagal di gateway
type ConfirmFailureRequest struct {
	PaymentID uuid.UUID `json:"payment_id" validate:"required"`
}

/* =========================================================
   RESPONSE DTOs
========================================================= */

type PaymentResponse struct {
	PaymentID        uuid.UUID `json:"payment_id"`
	PaymentStudentID uuid.UUID `json:"payment_student_id"`

	PaymentMonth int `json:"payment_month"`
	PaymentYear  int `json:"payment_year"`

	PaymentAmountIDR int    `json:"payment_amount_idr"`
	PaymentStatus    string `json:"payment_status"`

	PaymentGatewayOrderID   *string `json:"payment_gateway_order_id,omitempty"`
	PaymentGatewayPaymentID *string `json:"payment_gateway_payment_id,omitempty"`
	PaymentCheckoutURL      *string `json:"payment_checkout_url,omitempty"`

	PaymentDate *time.Time `json:"payment_date,omitempty"`

	CreatedAt time.Time `json:"payment_created_at"`
	UpdatedAt time.Time `json:"payment_updated_at"`
}

type CreatePaymentResponse struct {
	Payment      PaymentResponse      `json:"payment"`
	GatewayOrder service.GatewayOrder `json:"gateway_order"`
}

// NextDueResponse: settled=true ⇔ obligation null (dua-duanya lunas)
type NextDueResponse struct {
	Settled    bool                `json:"settled"`
	Obligation *service.Obligation `json:"obligation,omitempty"`
}

type ListPaymentsResponse struct {
	Data       []PaymentResponse `json:"data"`
	Page       int               `json:"page"`
	Size       int               `json:"size"`
	TotalItems int64             `json:"total_items"`
	TotalPages int               `json:"total_pages"`
}

/* =========================================================
   MAPPERS (1:1 nama field)
========================================================= */

func ToPaymentResponse(m model.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:        m.PaymentID,
		PaymentStudentID: m.PaymentStudentID,

		PaymentMonth: m.PaymentMonth,
		PaymentYear:  m.PaymentYear,

		PaymentAmountIDR: m.PaymentAmountIDR,
		PaymentStatus:    m.PaymentStatus,

		PaymentGatewayOrderID:   m.PaymentGatewayOrderID,
		PaymentGatewayPaymentID: m.PaymentGatewayPaymentID,
		PaymentCheckoutURL:      m.PaymentCheckoutURL,

		PaymentDate: m.PaymentDate,

		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func ToPaymentResponses(ms []model.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, ToPaymentResponse(m))
	}
	return out
}
