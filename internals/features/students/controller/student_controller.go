// file: internals/features/students/controller/student_controller.go
package controller

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"sppku_backend/internals/features/students/dto"
	"sppku_backend/internals/features/students/repository"
	helper "sppku_backend/internals/helpers"
)

const searchCacheTTL = 60 * time.Second

type StudentController struct {
	Repo      repository.StudentRepository
	Cache     *redis.Client // boleh nil, cache jadi no-op
	Validator *validator.Validate
}

func NewStudentController(repo repository.StudentRepository, cache *redis.Client) *StudentController {
	return &StudentController{
		Repo:      repo,
		Cache:     cache,
		Validator: validator.New(),
	}
}

// GET /students/search?name=
func (h *StudentController) Search(c *fiber.Ctx) error {
	var q dto.SearchStudentsQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid query: "+err.Error())
	}
	q.Name = strings.TrimSpace(q.Name)
	if err := h.Validator.Struct(q); err != nil {
		return helper.ValidationError(c, err)
	}

	cacheKey := "students:search:" + strings.ToLower(q.Name)
	if h.Cache != nil {
		if raw, err := h.Cache.Get(c.UserContext(), cacheKey).Bytes(); err == nil {
			var cached []dto.StudentResponse
			if json.Unmarshal(raw, &cached) == nil {
				return helper.Success(c, "OK", cached)
			}
		}
	}

	students, err := h.Repo.SearchByName(c.UserContext(), q.Name)
	if err != nil {
		// degradasi: lookup gagal ⇒ hasil kosong, bukan 5xx
		log.Printf("[ERROR] search students: %v", err)
		return helper.Success(c, "OK", []dto.StudentResponse{})
	}

	resp := dto.ToStudentResponses(students)
	if h.Cache != nil {
		if raw, err := json.Marshal(resp); err == nil {
			if err := h.Cache.Set(c.UserContext(), cacheKey, raw, searchCacheTTL).Err(); err != nil {
				log.Printf("[WARN] cache set: %v", err)
			}
		}
	}
	return helper.Success(c, "OK", resp)
}
