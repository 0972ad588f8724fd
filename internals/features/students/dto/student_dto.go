package dto

import (
	"github.com/google/uuid"

	"sppku_backend/internals/features/students/model"
)

/* =========================================================
   REQUEST DTOs
========================================================= */

// SearchStudentsQuery: minimal 2 karakter biar nggak full scan nama
type SearchStudentsQuery struct {
	Name string `query:"name" validate:"required,min=2"`
}

/* =========================================================
   RESPONSE DTOs
========================================================= */

type StudentResponse struct {
	StudentID   uuid.UUID `json:"student_id"`
	StudentName string    `json:"student_name"`
}

func ToStudentResponse(m model.Student) StudentResponse {
	return StudentResponse{
		StudentID:   m.StudentID,
		StudentName: m.StudentName,
	}
}

func ToStudentResponses(ms []model.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, ToStudentResponse(m))
	}
	return out
}
