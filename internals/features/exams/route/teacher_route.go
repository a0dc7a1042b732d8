package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	examcontroller "nilaiku_backend/internals/features/exams/controller"
)

// Pasang di parent router /api/t (sudah lewat RequireTeacher).
func ExamTeacherRoutes(r fiber.Router, db *gorm.DB) {
	ctrl := examcontroller.NewExamController(db)
	exams := r.Group("/exams")

	exams.Post("/", ctrl.Create)      // POST   /api/t/exams
	exams.Get("/", ctrl.List)         // GET    /api/t/exams
	exams.Get("/:id", ctrl.GetByID)   // GET    /api/t/exams/:id
	exams.Patch("/:id", ctrl.Patch)   // PATCH  /api/t/exams/:id
	exams.Delete("/:id", ctrl.Delete) // DELETE /api/t/exams/:id
}
