package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sppku_backend/internals/features/students/model"
)

type StudentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error)
	// SearchByName: substring case-insensitive pada nama siswa
	SearchByName(ctx context.Context, nameQuery string) ([]model.Student, error)
}

type gormStudentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &gormStudentRepository{db: db}
}

func (r *gormStudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	var s model.Student
	if err := r.db.WithContext(ctx).First(&s, "student_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &s, nil
}

func (r *gormStudentRepository) SearchByName(ctx context.Context, nameQuery string) ([]model.Student, error) {
	var out []model.Student
	if err := r.db.WithContext(ctx).
		Where("student_name ILIKE ?", "%"+nameQuery+"%").
		Order("student_name ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return out, nil
}
