package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	plagcontroller "nilaiku_backend/internals/features/plagiarism/controller"
)

// Pasang di parent router /api/t (sudah lewat RequireTeacher).
func PlagiarismTeacherRoutes(r fiber.Router, db *gorm.DB) {
	ctrl := plagcontroller.NewPlagiarismController(db)

	r.Get("/exams/:id/plagiarism", ctrl.ListByExam)        // GET /api/t/exams/:id/plagiarism
	r.Get("/answer-sheets/:id/plagiarism", ctrl.GetBySheet) // GET /api/t/answer-sheets/:id/plagiarism
}
