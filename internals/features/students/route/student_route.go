// file: internals/features/students/route/student_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	studentController "sppku_backend/internals/features/students/controller"
	"sppku_backend/internals/features/students/repository"
)

func StudentRoutes(r fiber.Router, db *gorm.DB, rdb *redis.Client) {
	h := studentController.NewStudentController(repository.NewStudentRepository(db), rdb)

	students := r.Group("/students")
	{
		students.Get("/search", h.Search)
	}
}
