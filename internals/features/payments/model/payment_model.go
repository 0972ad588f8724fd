package model

import (
	"time"

	"github.com/google/uuid"
)

/* ===================== Enums (string) ===================== */
/* Selaras dengan ENUM payment_status di PostgreSQL */

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

/* ===================== Model ===================== */
/* Satu row = tagihan SPP satu periode (bulan+tahun) untuk satu siswa.
   payment_month/payment_year immutable setelah create; status hanya
   berubah lewat transisi lifecycle (pending → completed | failed). */

type Payment struct {
	PaymentID uuid.UUID `gorm:"column:payment_id;type:uuid;default:gen_random_uuid();primaryKey" json:"payment_id"`

	PaymentStudentID uuid.UUID `gorm:"column:payment_student_id;type:uuid;not null;index" json:"payment_student_id"`

	// Periode tagihan
	PaymentMonth int `gorm:"column:payment_month;not null;check:payment_month BETWEEN 1 AND 12" json:"payment_month"`
	PaymentYear  int `gorm:"column:payment_year;not null" json:"payment_year"`

	// Nominal (rupiah, satuan mayor)
	PaymentAmountIDR int `gorm:"column:payment_amount_idr;not null;check:payment_amount_idr >= 0" json:"payment_amount_idr"`

	PaymentStatus string `gorm:"column:payment_status;type:payment_status;not null;default:'pending'" json:"payment_status"`

	// Referensi gateway
	PaymentGatewayOrderID   *string `gorm:"column:payment_gateway_order_id;index" json:"payment_gateway_order_id,omitempty"`     // order_id di PSP (receipt ref)
	PaymentGatewayPaymentID *string `gorm:"column:payment_gateway_payment_id" json:"payment_gateway_payment_id,omitempty"`       // diisi saat completed
	PaymentCheckoutURL      *string `gorm:"column:payment_checkout_url" json:"payment_checkout_url,omitempty"`

	// Waktu konfirmasi sukses terakhir
	PaymentDate *time.Time `gorm:"column:payment_date" json:"payment_date,omitempty"`

	CreatedAt time.Time `gorm:"column:payment_created_at;autoCreateTime" json:"payment_created_at"`
	UpdatedAt time.Time `gorm:"column:payment_updated_at;autoUpdateTime" json:"payment_updated_at"`
}

func (Payment) TableName() string { return "payments" }

/* ===================== Helpers ===================== */

func (p *Payment) IsCompleted() bool { return p.PaymentStatus == PaymentStatusCompleted }

// MatchesPeriod: cocokkan periode tagihan (filter in-memory setelah scan per siswa)
func (p *Payment) MatchesPeriod(month, year int) bool {
	return p.PaymentMonth == month && p.PaymentYear == year
}
