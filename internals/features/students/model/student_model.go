package model

import (
	"time"

	"github.com/google/uuid"
)

/* ===================== Model ===================== */
/* Data siswa dikelola sistem roster eksternal — backend ini read-only. */

type Student struct {
	StudentID   uuid.UUID `gorm:"column:student_id;type:uuid;default:gen_random_uuid();primaryKey" json:"student_id"`
	StudentName string    `gorm:"column:student_name;type:varchar(120);not null" json:"student_name"`

	CreatedAt time.Time `gorm:"column:student_created_at;autoCreateTime" json:"student_created_at"`
	UpdatedAt time.Time `gorm:"column:student_updated_at;autoUpdateTime" json:"student_updated_at"`
}

func (Student) TableName() string { return "students" }
