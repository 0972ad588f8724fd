package service

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"sppku_backend/internals/features/payments/model"
	studentModel "sppku_backend/internals/features/students/model"
)

/* ===================== Fakes ===================== */

type fakePaymentRepo struct {
	payments map[uuid.UUID]*model.Payment
	events   map[uuid.UUID]*model.PaymentGatewayEvent

	listErr   error
	updateErr error
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{
		payments: map[uuid.UUID]*model.Payment{},
		events:   map[uuid.UUID]*model.PaymentGatewayEvent{},
	}
}

func (r *fakePaymentRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) GetByGatewayOrderID(_ context.Context, orderID string) (*model.Payment, error) {
	for _, p := range r.payments {
		if p.PaymentGatewayOrderID != nil && *p.PaymentGatewayOrderID == orderID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) Create(_ context.Context, p *model.Payment) error {
	if p.PaymentID == uuid.Nil {
		p.PaymentID = uuid.New()
	}
	cp := *p
	r.payments[p.PaymentID] = &cp
	return nil
}

func (r *fakePaymentRepo) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	p, ok := r.payments[id]
	if !ok {
		return errors.New("record not found")
	}
	for k, v := range fields {
		switch k {
		case "payment_status":
			p.PaymentStatus = v.(string)
		case "payment_date":
			t := v.(time.Time)
			p.PaymentDate = &t
		case "payment_gateway_payment_id":
			s := v.(string)
			p.PaymentGatewayPaymentID = &s
		case "payment_gateway_order_id":
			s := v.(string)
			p.PaymentGatewayOrderID = &s
		case "payment_checkout_url":
			s := v.(string)
			p.PaymentCheckoutURL = &s
		case "payment_updated_at":
			p.UpdatedAt = v.(time.Time)
		}
	}
	return nil
}

func (r *fakePaymentRepo) ListByStudent(_ context.Context, studentID uuid.UUID) ([]model.Payment, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []model.Payment
	for _, p := range r.payments {
		if p.PaymentStudentID == studentID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) ListAll(_ context.Context, page, size int) ([]model.Payment, int64, error) {
	var out []model.Payment
	for _, p := range r.payments {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *fakePaymentRepo) CreateGatewayEvent(_ context.Context, ev *model.PaymentGatewayEvent) error {
	if ev.GatewayEventID == uuid.Nil {
		ev.GatewayEventID = uuid.New()
	}
	cp := *ev
	r.events[ev.GatewayEventID] = &cp
	return nil
}

func (r *fakePaymentRepo) UpdateGatewayEvent(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	ev, ok := r.events[id]
	if !ok {
		return errors.New("event not found")
	}
	if v, ok := fields["gateway_event_status"]; ok {
		ev.GatewayEventStatus = v.(string)
	}
	if v, ok := fields["gateway_event_error"]; ok {
		s := v.(string)
		ev.GatewayEventError = &s
	}
	return nil
}

type fakeStudentRepo struct {
	students map[uuid.UUID]*studentModel.Student
	getErr   error
}

func newFakeStudentRepo(students ...*studentModel.Student) *fakeStudentRepo {
	r := &fakeStudentRepo{students: map[uuid.UUID]*studentModel.Student{}}
	for _, s := range students {
		r.students[s.StudentID] = s
	}
	return r
}

func (r *fakeStudentRepo) GetByID(_ context.Context, id uuid.UUID) (*studentModel.Student, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	s, ok := r.students[id]
	if !ok {
		return nil, nil
	}
	return s, nil
}

func (r *fakeStudentRepo) SearchByName(_ context.Context, q string) ([]studentModel.Student, error) {
	var out []studentModel.Student
	for _, s := range r.students {
		out = append(out, *s)
	}
	return out, nil
}

type fakeGateway struct {
	serverKey string
	createErr error

	lastAmountMinor int64
	lastReceiptRef  string
}

func (g *fakeGateway) CreateOrder(amountMinor int64, currency, receiptRef, customerName string) (*GatewayOrder, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.lastAmountMinor = amountMinor
	g.lastReceiptRef = receiptRef
	return &GatewayOrder{
		OrderID:     receiptRef,
		AmountMinor: amountMinor,
		Currency:    currency,
		Token:       "tok-test",
		RedirectURL: "https://app.sandbox.midtrans.com/snap/v3/redirection/tok-test",
	}, nil
}

func (g *fakeGateway) VerifySignature(orderID, statusCode, grossAmount, signature string) bool {
	h := sha512.Sum512([]byte(orderID + statusCode + grossAmount + g.serverKey))
	return hex.EncodeToString(h[:]) == signature
}

func (g *fakeGateway) VerifyWebhookSignature(rawBody []byte, signatureHeader string) bool {
	var notif MidtransNotification
	if err := json.Unmarshal(rawBody, &notif); err != nil {
		return false
	}
	sig := notif.SignatureKey
	if sig == "" {
		sig = signatureHeader
	}
	return g.VerifySignature(notif.OrderID, notif.StatusCode, notif.GrossAmount, sig)
}

/* ===================== Setup ===================== */

var testNow = time.Date(2024, time.April, 5, 8, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*PaymentService, *fakePaymentRepo, *fakeStudentRepo, *fakeGateway, *studentModel.Student) {
	t.Helper()

	student := &studentModel.Student{StudentID: uuid.New(), StudentName: "Asha"}
	payments := newFakePaymentRepo()
	students := newFakeStudentRepo(student)
	gateway := &fakeGateway{serverKey: "server-key-test"}

	svc := NewPaymentService(payments, students, gateway, 1500)
	svc.now = func() time.Time { return testNow }
	return svc, payments, students, gateway, student
}

func signNotif(t *testing.T, gw *fakeGateway, notif *MidtransNotification) []byte {
	t.Helper()
	h := sha512.Sum512([]byte(notif.OrderID + notif.StatusCode + notif.GrossAmount + gw.serverKey))
	notif.SignatureKey = hex.EncodeToString(h[:])
	raw, err := json.Marshal(notif)
	if err != nil {
		t.Fatalf("marshal notif: %v", err)
	}
	return raw
}

/* ===================== Create ===================== */

func TestCreateForStudent_ResolvedPeriod(t *testing.T) {
	svc, repo, _, gateway, student := newTestService(t)

	p, order, err := svc.CreateForStudent(context.Background(), student.StudentID, nil)
	if err != nil {
		t.Fatalf("CreateForStudent: %v", err)
	}

	if p.PaymentStatus != model.PaymentStatusPending {
		t.Errorf("status = %q, want pending", p.PaymentStatus)
	}
	if p.PaymentMonth != 4 || p.PaymentYear != 2024 {
		t.Errorf("period = (%d,%d), want (4,2024)", p.PaymentMonth, p.PaymentYear)
	}
	if p.PaymentAmountIDR != 1500 {
		t.Errorf("amount = %d, want 1500", p.PaymentAmountIDR)
	}

	// konversi mayor → minor terjadi di boundary gateway
	if gateway.lastAmountMinor != 150000 {
		t.Errorf("gateway amount = %d, want 150000", gateway.lastAmountMinor)
	}
	wantRef := "payment_" + p.PaymentID.String()
	if gateway.lastReceiptRef != wantRef {
		t.Errorf("receipt ref = %q, want %q", gateway.lastReceiptRef, wantRef)
	}
	if order.OrderID != wantRef {
		t.Errorf("order id = %q, want %q", order.OrderID, wantRef)
	}

	stored := repo.payments[p.PaymentID]
	if stored.PaymentGatewayOrderID == nil || *stored.PaymentGatewayOrderID != wantRef {
		t.Errorf("stored order id = %v, want %q", stored.PaymentGatewayOrderID, wantRef)
	}
}

func TestCreateForStudent_ExplicitPeriod(t *testing.T) {
	svc, _, _, _, student := newTestService(t)

	p, _, err := svc.CreateForStudent(context.Background(), student.StudentID, &Period{Month: 7, Year: 2024})
	if err != nil {
		t.Fatalf("CreateForStudent: %v", err)
	}
	if p.PaymentMonth != 7 || p.PaymentYear != 2024 {
		t.Errorf("period = (%d,%d), want (7,2024)", p.PaymentMonth, p.PaymentYear)
	}
}

func TestCreateForStudent_StudentNotFound(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	_, _, err := svc.CreateForStudent(context.Background(), uuid.New(), nil)
	if !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("err = %v, want ErrStudentNotFound", err)
	}
}

func TestCreateForStudent_NothingDue(t *testing.T) {
	svc, repo, _, _, student := newTestService(t)

	for _, period := range []Period{{Month: 4, Year: 2024}, {Month: 5, Year: 2024}} {
		_ = repo.Create(context.Background(), &model.Payment{
			PaymentStudentID: student.StudentID,
			PaymentMonth:     period.Month,
			PaymentYear:      period.Year,
			PaymentStatus:    model.PaymentStatusCompleted,
		})
	}

	_, _, err := svc.CreateForStudent(context.Background(), student.StudentID, nil)
	if !errors.Is(err, ErrNothingDue) {
		t.Fatalf("err = %v, want ErrNothingDue", err)
	}
}

func TestCreateForStudent_GatewayDown(t *testing.T) {
	svc, repo, _, gateway, student := newTestService(t)
	gateway.createErr = errors.New("connection refused")

	_, _, err := svc.CreateForStudent(context.Background(), student.StudentID, nil)
	if !errors.Is(err, ErrGatewayDown) {
		t.Fatalf("err = %v, want ErrGatewayDown", err)
	}

	// record pending tetap tersimpan, tanpa order id
	if len(repo.payments) != 1 {
		t.Fatalf("expected 1 stored payment, got %d", len(repo.payments))
	}
	for _, p := range repo.payments {
		if p.PaymentStatus != model.PaymentStatusPending {
			t.Errorf("status = %q, want pending", p.PaymentStatus)
		}
		if p.PaymentGatewayOrderID != nil {
			t.Errorf("order id should be empty, got %q", *p.PaymentGatewayOrderID)
		}
	}
}

/* ===================== NextDue ===================== */

func TestNextDueForStudent(t *testing.T) {
	svc, repo, _, _, student := newTestService(t)

	ob, err := svc.NextDueForStudent(context.Background(), student.StudentID)
	if err != nil {
		t.Fatalf("NextDueForStudent: %v", err)
	}
	if ob == nil || ob.Month != 4 || ob.Year != 2024 || ob.Status != DueStatusDue {
		t.Fatalf("obligation = %+v, want (4,2024) due", ob)
	}

	// store bermasalah ⇒ error eksplisit, bukan "tidak ada tagihan"
	repo.listErr = errors.New("connection reset")
	if _, err := svc.NextDueForStudent(context.Background(), student.StudentID); !errors.Is(err, ErrStoreDown) {
		t.Fatalf("err = %v, want ErrStoreDown", err)
	}
}

func TestNextDueForStudent_FullySettled(t *testing.T) {
	svc, repo, _, _, student := newTestService(t)
	for _, period := range []Period{{Month: 4, Year: 2024}, {Month: 5, Year: 2024}} {
		_ = repo.Create(context.Background(), &model.Payment{
			PaymentStudentID: student.StudentID,
			PaymentMonth:     period.Month,
			PaymentYear:      period.Year,
			PaymentStatus:    model.PaymentStatusCompleted,
		})
	}

	ob, err := svc.NextDueForStudent(context.Background(), student.StudentID)
	if err != nil {
		t.Fatalf("NextDueForStudent: %v", err)
	}
	if ob != nil {
		t.Fatalf("expected nil obligation, got %+v", ob)
	}
}

/* ===================== Transitions ===================== */

func createPending(t *testing.T, svc *PaymentService, studentID uuid.UUID) *model.Payment {
	t.Helper()
	p, _, err := svc.CreateForStudent(context.Background(), studentID, nil)
	if err != nil {
		t.Fatalf("create pending payment: %v", err)
	}
	return p
}

func TestComplete(t *testing.T) {
	svc, repo, _, _, student := newTestService(t)
	p := createPending(t, svc, student.StudentID)

	got, err := svc.Complete(context.Background(), p.PaymentID, "pay_abc123")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.PaymentStatus != model.PaymentStatusCompleted {
		t.Errorf("status = %q, want completed", got.PaymentStatus)
	}
	if got.PaymentGatewayPaymentID == nil || *got.PaymentGatewayPaymentID != "pay_abc123" {
		t.Errorf("gateway payment id = %v, want pay_abc123", got.PaymentGatewayPaymentID)
	}
	if got.PaymentDate == nil || !got.PaymentDate.Equal(testNow) {
		t.Errorf("payment date = %v, want %v", got.PaymentDate, testNow)
	}

	stored := repo.payments[p.PaymentID]
	if stored.PaymentStatus != model.PaymentStatusCompleted {
		t.Errorf("stored status = %q, want completed", stored.PaymentStatus)
	}
}

func TestComplete_IdempotentSameGatewayID(t *testing.T) {
	svc, _, _, _, student := newTestService(t)
	p := createPending(t, svc, student.StudentID)

	if _, err := svc.Complete(context.Background(), p.PaymentID, "pay_abc123"); err != nil {
		t.Fatalf("first Complete: %v", err)
	}
	got, err := svc.Complete(context.Background(), p.PaymentID, "pay_abc123")
	if err != nil {
		t.Fatalf("second Complete should be a no-op accept, got %v", err)
	}
	if got.PaymentStatus != model.PaymentStatusCompleted {
		t.Errorf("status = %q, want completed", got.PaymentStatus)
	}
}

func TestComplete_ConflictDifferentGatewayID(t *testing.T) {
	svc, repo, _, _, student := newTestService(t)
	p := createPending(t, svc, student.StudentID)

	if _, err := svc.Complete(context.Background(), p.PaymentID, "pay_abc123"); err != nil {
		t.Fatalf("first Complete: %v", err)
	}
	if _, err := svc.Complete(context.Background(), p.PaymentID, "pay_zzz999"); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	// record tidak berubah
	stored := repo.payments[p.PaymentID]
	if *stored.PaymentGatewayPaymentID != "pay_abc123" {
		t.Errorf("gateway payment id = %q, want pay_abc123 (unchanged)", *stored.PaymentGatewayPaymentID)
	}
}

func TestComplete_NotFound(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	if _, err := svc.Complete(context.Background(), uuid.New(), "pay_abc123"); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("err = %v, want ErrPaymentNotFound", err)
	}
}

func TestFail(t *testing.T) {
	svc, repo, _, _, student := newTestService(t)
	p := createPending(t, svc, student.StudentID)

	got, err := svc.Fail(context.Background(), p.PaymentID)
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if got.PaymentStatus != model.PaymentStatusFailed {
		t.Errorf("status = %q, want failed", got.PaymentStatus)
	}
	if got.PaymentGatewayPaymentID != nil {
		t.Errorf("gateway payment id should stay empty, got %q", *got.PaymentGatewayPaymentID)
	}

	// failed → failed: idempotent accept
	if _, err := svc.Fail(context.Background(), p.PaymentID); err != nil {
		t.Errorf("repeat Fail should be accepted, got %v", err)
	}
	// failed → completed: conflict
	if _, err := svc.Complete(context.Background(), p.PaymentID, "pay_abc123"); !errors.Is(err, ErrConflict) {
		t.Errorf("Complete after Fail: err = %v, want ErrConflict", err)
	}

	stored := repo.payments[p.PaymentID]
	if stored.PaymentStatus != model.PaymentStatusFailed {
		t.Errorf("stored status = %q, want failed", stored.PaymentStatus)
	}
}

func TestFail_AfterCompleteConflicts(t *testing.T) {
	svc, _, _, _, student := newTestService(t)
	p := createPending(t, svc, student.StudentID)

	if _, err := svc.Complete(context.Background(), p.PaymentID, "pay_abc123"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, err := svc.Fail(context.Background(), p.PaymentID); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

/* ===================== Webhook ===================== */

func TestProcessGatewayNotification_Settlement(t *testing.T) {
	svc, repo, _, gateway, student := newTestService(t)
	p := createPending(t, svc, student.StudentID)

	raw := signNotif(t, gateway, &MidtransNotification{
		TransactionStatus: "settlement",
		StatusCode:        "200",
		OrderID:           *repo.payments[p.PaymentID].PaymentGatewayOrderID,
		GrossAmount:       "150000.00",
		TransactionID:     "mid-tx-1",
	})

	got, err := svc.ProcessGatewayNotification(context.Background(), WebhookInput{RawBody: raw})
	if err != nil {
		t.Fatalf("ProcessGatewayNotification: %v", err)
	}
	if got.PaymentStatus != model.PaymentStatusCompleted {
		t.Errorf("status = %q, want completed", got.PaymentStatus)
	}
	if got.PaymentGatewayPaymentID == nil || *got.PaymentGatewayPaymentID != "mid-tx-1" {
		t.Errorf("gateway payment id = %v, want mid-tx-1", got.PaymentGatewayPaymentID)
	}

	// event log tercatat & processed
	if len(repo.events) != 1 {
		t.Fatalf("expected 1 gateway event, got %d", len(repo.events))
	}
	for _, ev := range repo.events {
		if ev.GatewayEventStatus != model.GatewayEventStatusProcessed {
			t.Errorf("event status = %q, want processed", ev.GatewayEventStatus)
		}
	}
}

func TestProcessGatewayNotification_DuplicateDelivery(t *testing.T) {
	svc, repo, _, gateway, student := newTestService(t)
	p := createPending(t, svc, student.StudentID)

	raw := signNotif(t, gateway, &MidtransNotification{
		TransactionStatus: "settlement",
		StatusCode:        "200",
		OrderID:           *repo.payments[p.PaymentID].PaymentGatewayOrderID,
		GrossAmount:       "150000.00",
		TransactionID:     "mid-tx-1",
	})

	if _, err := svc.ProcessGatewayNotification(context.Background(), WebhookInput{RawBody: raw}); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	// webhook publik bisa kirim dua kali — harus idempotent
	got, err := svc.ProcessGatewayNotification(context.Background(), WebhookInput{RawBody: raw})
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if got.PaymentStatus != model.PaymentStatusCompleted {
		t.Errorf("status = %q, want completed", got.PaymentStatus)
	}
}

func TestProcessGatewayNotification_InvalidSignature(t *testing.T) {
	svc, repo, _, _, student := newTestService(t)
	p := createPending(t, svc, student.StudentID)

	notif := MidtransNotification{
		TransactionStatus: "settlement",
		StatusCode:        "200",
		OrderID:           *repo.payments[p.PaymentID].PaymentGatewayOrderID,
		GrossAmount:       "150000.00",
		SignatureKey:      "deadbeef",
	}
	raw, _ := json.Marshal(notif)

	if _, err := svc.ProcessGatewayNotification(context.Background(), WebhookInput{RawBody: raw}); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}

	// record tidak tersentuh, event ditandai rejected
	if repo.payments[p.PaymentID].PaymentStatus != model.PaymentStatusPending {
		t.Errorf("status berubah padahal signature invalid")
	}
	for _, ev := range repo.events {
		if ev.GatewayEventStatus != model.GatewayEventStatusRejected {
			t.Errorf("event status = %q, want rejected", ev.GatewayEventStatus)
		}
	}
}

func TestProcessGatewayNotification_UnknownOrder(t *testing.T) {
	svc, _, _, gateway, _ := newTestService(t)

	raw := signNotif(t, gateway, &MidtransNotification{
		TransactionStatus: "settlement",
		StatusCode:        "200",
		OrderID:           "payment_tidak-ada",
		GrossAmount:       "150000.00",
	})

	if _, err := svc.ProcessGatewayNotification(context.Background(), WebhookInput{RawBody: raw}); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("err = %v, want ErrPaymentNotFound", err)
	}
}

func TestProcessGatewayNotification_DenyFailsPayment(t *testing.T) {
	svc, repo, _, gateway, student := newTestService(t)
	p := createPending(t, svc, student.StudentID)

	raw := signNotif(t, gateway, &MidtransNotification{
		TransactionStatus: "deny",
		StatusCode:        "202",
		OrderID:           *repo.payments[p.PaymentID].PaymentGatewayOrderID,
		GrossAmount:       "150000.00",
	})

	got, err := svc.ProcessGatewayNotification(context.Background(), WebhookInput{RawBody: raw})
	if err != nil {
		t.Fatalf("ProcessGatewayNotification: %v", err)
	}
	if got.PaymentStatus != model.PaymentStatusFailed {
		t.Errorf("status = %q, want failed", got.PaymentStatus)
	}
}

func TestProcessGatewayNotification_PendingLeavesRecordAlone(t *testing.T) {
	svc, repo, _, gateway, student := newTestService(t)
	p := createPending(t, svc, student.StudentID)

	raw := signNotif(t, gateway, &MidtransNotification{
		TransactionStatus: "pending",
		StatusCode:        "201",
		OrderID:           *repo.payments[p.PaymentID].PaymentGatewayOrderID,
		GrossAmount:       "150000.00",
	})

	got, err := svc.ProcessGatewayNotification(context.Background(), WebhookInput{RawBody: raw})
	if err != nil {
		t.Fatalf("ProcessGatewayNotification: %v", err)
	}
	if got.PaymentStatus != model.PaymentStatusPending {
		t.Errorf("status = %q, want pending", got.PaymentStatus)
	}
}
