package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sppku_backend/internals/features/payments/model"
)

type PaymentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	GetByGatewayOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	Create(ctx context.Context, p *model.Payment) error
	// UpdateFields: partial update kolom tertentu (tanpa read-modify-write)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	// ListByStudent: satu scan equality per siswa; filter periode tetap in-memory
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Payment, error)
	ListAll(ctx context.Context, page, size int) ([]model.Payment, int64, error)
	CreateGatewayEvent(ctx context.Context, ev *model.PaymentGatewayEvent) error
	UpdateGatewayEvent(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
}

type gormPaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &gormPaymentRepository{db: db}
}

func (r *gormPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	if err := r.db.WithContext(ctx).First(&p, "payment_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

func (r *gormPaymentRepository) GetByGatewayOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	var p model.Payment
	if err := r.db.WithContext(ctx).First(&p, "payment_gateway_order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment by order_id: %w", err)
	}
	return &p, nil
}

func (r *gormPaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *gormPaymentRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("payment_id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update payment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormPaymentRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Payment, error) {
	var out []model.Payment
	if err := r.db.WithContext(ctx).
		Where("payment_student_id = ?", studentID).
		Order("payment_year DESC, payment_month DESC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list payments by student: %w", err)
	}
	return out, nil
}

func (r *gormPaymentRepository) ListAll(ctx context.Context, page, size int) ([]model.Payment, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Payment{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	var out []model.Payment
	if err := r.db.WithContext(ctx).
		Order("payment_created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	return out, total, nil
}

func (r *gormPaymentRepository) CreateGatewayEvent(ctx context.Context, ev *model.PaymentGatewayEvent) error {
	if err := r.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("create gateway event: %w", err)
	}
	return nil
}

func (r *gormPaymentRepository) UpdateGatewayEvent(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if err := r.db.WithContext(ctx).
		Model(&model.PaymentGatewayEvent{}).
		Where("gateway_event_id = ?", id).
		Updates(fields).Error; err != nil {
		return fmt.Errorf("update gateway event: %w", err)
	}
	return nil
}
