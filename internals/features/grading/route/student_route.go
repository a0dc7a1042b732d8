package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	gradingcontroller "nilaiku_backend/internals/features/grading/controller"
	gradingservice "nilaiku_backend/internals/features/grading/service"
)

// Pasang di parent router /api/s (sudah lewat RequireStudent).
func GradingStudentRoutes(r fiber.Router, db *gorm.DB) {
	approval := gradingservice.NewApprovalService(gradingservice.NewGormApprovalStore(db))
	ctrl := gradingcontroller.NewStudentResultController(db, approval)

	results := r.Group("/results")

	results.Get("/", ctrl.List)                // GET  /api/s/results
	results.Get("/:id", ctrl.GetByID)          // GET  /api/s/results/:id
	results.Post("/:id/dispute", ctrl.Dispute) // POST /api/s/results/:id/dispute
}
