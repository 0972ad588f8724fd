package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"sppku_backend/internals/features/payments/model"
	"sppku_backend/internals/features/payments/repository"
	studentRepository "sppku_backend/internals/features/students/repository"
)

/* =========================================================
   Payment Lifecycle Manager
   pending ── Complete(gatewayPaymentID) ──▶ completed [terminal]
      └────── Fail() ──────────────────────▶ failed    [terminal]
   Guard terminal-state: ulang ke state terminal yang SAMA =
   idempotent accept (webhook bisa datang dua kali), pindah
   antar state terminal = ErrConflict, record tidak disentuh.
========================================================= */

type PaymentService struct {
	payments repository.PaymentRepository
	students studentRepository.StudentRepository
	gateway  PaymentGateway
	feeIDR   int

	now func() time.Time
}

func NewPaymentService(
	payments repository.PaymentRepository,
	students studentRepository.StudentRepository,
	gateway PaymentGateway,
	feeIDR int,
) *PaymentService {
	return &PaymentService{
		payments: payments,
		students: students,
		gateway:  gateway,
		feeIDR:   feeIDR,
		now:      time.Now,
	}
}

/* ===================== Due resolution ===================== */

// NextDueForStudent membungkus resolver murni dengan lookup store.
// (nil, nil) = semua lunas, tidak ada tagihan. Error = TIDAK BISA
// menentukan (store bermasalah) — caller wajib membedakan keduanya.
func (s *PaymentService) NextDueForStudent(ctx context.Context, studentID uuid.UUID) (*Obligation, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreDown, err)
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}

	records, err := s.payments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreDown, err)
	}

	return ResolveNextDue(s.now(), s.feeIDR, records), nil
}

/* ===================== Lifecycle: create ===================== */

// CreateForStudent bikin record pending untuk periode yang di-resolve
// (atau periode eksplisit dari request), lalu buat order di gateway.
func (s *PaymentService) CreateForStudent(ctx context.Context, studentID uuid.UUID, explicit *Period) (*model.Payment, *GatewayOrder, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrStoreDown, err)
	}
	if student == nil {
		return nil, nil, ErrStudentNotFound
	}

	period, err := s.pickPeriod(ctx, studentID, explicit)
	if err != nil {
		return nil, nil, err
	}

	p := &model.Payment{
		PaymentStudentID: studentID,
		PaymentMonth:     period.Month,
		PaymentYear:      period.Year,
		PaymentAmountIDR: s.feeIDR,
		PaymentStatus:    model.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrStoreDown, err)
	}

	// Gateway minta satuan minor (×100); receipt ref = payment_<id>
	orderRef := "payment_" + p.PaymentID.String()
	order, err := s.gateway.CreateOrder(int64(p.PaymentAmountIDR)*100, "IDR", orderRef, student.StudentName)
	if err != nil {
		// record pending tetap ada; user bisa coba bayar ulang nanti
		return nil, nil, fmt.Errorf("%w: %v", ErrGatewayDown, err)
	}

	fields := map[string]interface{}{
		"payment_gateway_order_id": order.OrderID,
		"payment_updated_at":       s.now(),
	}
	if order.RedirectURL != "" {
		fields["payment_checkout_url"] = order.RedirectURL
	}
	if err := s.payments.UpdateFields(ctx, p.PaymentID, fields); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrStoreDown, err)
	}
	p.PaymentGatewayOrderID = &order.OrderID
	if order.RedirectURL != "" {
		url := order.RedirectURL
		p.PaymentCheckoutURL = &url
	}

	return p, order, nil
}

func (s *PaymentService) pickPeriod(ctx context.Context, studentID uuid.UUID, explicit *Period) (Period, error) {
	if explicit != nil {
		return *explicit, nil
	}
	records, err := s.payments.ListByStudent(ctx, studentID)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %v", ErrStoreDown, err)
	}
	ob := ResolveNextDue(s.now(), s.feeIDR, records)
	if ob == nil {
		return Period{}, ErrNothingDue
	}
	return Period{Month: ob.Month, Year: ob.Year}, nil
}

/* ===================== Lifecycle: transitions ===================== */

func (s *PaymentService) Complete(ctx context.Context, paymentID uuid.UUID, gatewayPaymentID string) (*model.Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreDown, err)
	}
	if p == nil {
		return nil, ErrPaymentNotFound
	}

	switch p.PaymentStatus {
	case model.PaymentStatusCompleted:
		if p.PaymentGatewayPaymentID != nil && *p.PaymentGatewayPaymentID == gatewayPaymentID {
			return p, nil // konfirmasi ganda, terima diam-diam
		}
		return nil, fmt.Errorf("%w: already completed with a different gateway payment id", ErrConflict)
	case model.PaymentStatusFailed:
		return nil, fmt.Errorf("%w: payment already failed", ErrConflict)
	}

	now := s.now()
	if err := s.payments.UpdateFields(ctx, paymentID, map[string]interface{}{
		"payment_status":             model.PaymentStatusCompleted,
		"payment_date":               now,
		"payment_gateway_payment_id": gatewayPaymentID,
		"payment_updated_at":         now,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreDown, err)
	}

	p.PaymentStatus = model.PaymentStatusCompleted
	p.PaymentDate = &now
	p.PaymentGatewayPaymentID = &gatewayPaymentID
	p.UpdatedAt = now
	return p, nil
}

func (s *PaymentService) Fail(ctx context.Context, paymentID uuid.UUID) (*model.Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreDown, err)
	}
	if p == nil {
		return nil, ErrPaymentNotFound
	}

	switch p.PaymentStatus {
	case model.PaymentStatusFailed:
		return p, nil // sudah failed, terima diam-diam
	case model.PaymentStatusCompleted:
		return nil, fmt.Errorf("%w: payment already completed", ErrConflict)
	}

	now := s.now()
	if err := s.payments.UpdateFields(ctx, paymentID, map[string]interface{}{
		"payment_status":     model.PaymentStatusFailed,
		"payment_updated_at": now,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreDown, err)
	}

	p.PaymentStatus = model.PaymentStatusFailed
	p.UpdatedAt = now
	return p, nil
}

/* ===================== History & lookup ===================== */

func (s *PaymentService) HistoryForStudent(ctx context.Context, studentID uuid.UUID) ([]model.Payment, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreDown, err)
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}
	records, err := s.payments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreDown, err)
	}
	return records, nil
}

func (s *PaymentService) ListAll(ctx context.Context, page, size int) ([]model.Payment, int64, error) {
	records, total, err := s.payments.ListAll(ctx, page, size)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStoreDown, err)
	}
	return records, total, nil
}

/* ===================== Webhook ===================== */

type WebhookInput struct {
	RawBody         []byte
	SignatureHeader string
	Headers         map[string]string
}

// ProcessGatewayNotification memverifikasi signature, mencatat event,
// lalu menggerakkan state machine dari status transaksi gateway.
// Delivery ganda aman karena guard terminal-state di Complete/Fail.
func (s *PaymentService) ProcessGatewayNotification(ctx context.Context, in WebhookInput) (*model.Payment, error) {
	var notif MidtransNotification
	if err := json.Unmarshal(in.RawBody, &notif); err != nil {
		return nil, fmt.Errorf("%w: malformed payload", ErrInvalidSignature)
	}

	ev := s.logGatewayEvent(ctx, notif, in)

	if !s.gateway.VerifyWebhookSignature(in.RawBody, in.SignatureHeader) {
		s.markGatewayEvent(ctx, ev, model.GatewayEventStatusRejected, "invalid signature")
		return nil, ErrInvalidSignature
	}

	p, err := s.payments.GetByGatewayOrderID(ctx, notif.OrderID)
	if err != nil {
		s.markGatewayEvent(ctx, ev, model.GatewayEventStatusFailed, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrStoreDown, err)
	}
	if p == nil {
		// tetap log, biar gateway tidak retry terus-terusan
		s.markGatewayEvent(ctx, ev, model.GatewayEventStatusProcessed, fmt.Sprintf("payment not found for order_id=%s", notif.OrderID))
		return nil, ErrPaymentNotFound
	}
	if ev != nil {
		_ = s.payments.UpdateGatewayEvent(ctx, ev.GatewayEventID, map[string]interface{}{
			"gateway_event_payment_id": p.PaymentID,
		})
	}

	updated, err := s.applyNotification(ctx, p, notif)
	if err != nil {
		s.markGatewayEvent(ctx, ev, model.GatewayEventStatusFailed, err.Error())
		return nil, err
	}

	s.markGatewayEvent(ctx, ev, model.GatewayEventStatusProcessed, "")
	return updated, nil
}

func (s *PaymentService) applyNotification(ctx context.Context, p *model.Payment, notif MidtransNotification) (*model.Payment, error) {
	ts := strings.ToLower(notif.TransactionStatus)
	fraud := strings.ToLower(notif.FraudStatus)

	switch ts {
	case "capture":
		if fraud == "accept" {
			return s.Complete(ctx, p.PaymentID, notif.TransactionID)
		}
		if fraud == "challenge" {
			return p, nil // tunggu keputusan fraud, jangan transisi dulu
		}
		return s.Fail(ctx, p.PaymentID)

	case "settlement":
		return s.Complete(ctx, p.PaymentID, notif.TransactionID)

	case "pending":
		return p, nil

	case "deny", "cancel", "expire", "failure":
		return s.Fail(ctx, p.PaymentID)
	}

	// status tak dikenal: jangan tebak-tebakan, biarkan apa adanya
	return p, nil
}

func (s *PaymentService) logGatewayEvent(ctx context.Context, notif MidtransNotification, in WebhookInput) *model.PaymentGatewayEvent {
	headersJSON, _ := json.Marshal(in.Headers)

	ev := &model.PaymentGatewayEvent{
		GatewayEventProvider:   "midtrans",
		GatewayEventType:       strPtr(notif.TransactionStatus),
		GatewayEventExternalID: strPtr(notif.OrderID),
		GatewayEventHeaders:    datatypes.JSON(headersJSON),
		GatewayEventPayload:    datatypes.JSON(in.RawBody),
		GatewayEventSignature:  strPtr(notif.SignatureKey),
		GatewayEventStatus:     model.GatewayEventStatusReceived,
		GatewayEventReceivedAt: s.now(),
	}
	if err := s.payments.CreateGatewayEvent(ctx, ev); err != nil {
		// audit log best-effort; webhook tetap diproses
		log.Printf("[WARN] gagal simpan gateway event: %v", err)
		return nil
	}
	return ev
}

func (s *PaymentService) markGatewayEvent(ctx context.Context, ev *model.PaymentGatewayEvent, status, errMsg string) {
	if ev == nil {
		return
	}
	now := s.now()
	fields := map[string]interface{}{
		"gateway_event_status":       status,
		"gateway_event_processed_at": now,
	}
	if errMsg != "" {
		fields["gateway_event_error"] = errMsg
	}
	if err := s.payments.UpdateGatewayEvent(ctx, ev.GatewayEventID, fields); err != nil {
		log.Printf("[WARN] gagal update gateway event: %v", err)
	}
}

func strPtr(s string) *string { return &s }
