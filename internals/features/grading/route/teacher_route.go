package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	gradingcontroller "nilaiku_backend/internals/features/grading/controller"
	gradingservice "nilaiku_backend/internals/features/grading/service"
	plagservice "nilaiku_backend/internals/features/plagiarism/service"
	"nilaiku_backend/internals/helpers/gemini"
	"nilaiku_backend/internals/middlewares"
)

// Pasang di parent router /api/t (sudah lewat RequireTeacher).
func GradingTeacherRoutes(r fiber.Router, db *gorm.DB) {
	client := gemini.NewClient()
	screener := plagservice.NewScreenerService(plagservice.NewGormScreenStore(db), client)
	grader := gradingservice.NewGradingService(gradingservice.NewGormGradeStore(db), client, screener)
	approval := gradingservice.NewApprovalService(gradingservice.NewGormApprovalStore(db))
	uploads := gradingservice.NewUploadService(gradingservice.NewGormSheetStore(db))

	sheetCtrl := gradingcontroller.NewAnswerSheetController(db, grader, uploads)
	reviewCtrl := gradingcontroller.NewReviewController(db, approval)

	sheets := r.Group("/answer-sheets")

	// upload memicu panggilan model AI yang mahal → limiter khusus
	sheets.Post("/", middlewares.GradingRateLimiter(), sheetCtrl.Create) // POST   /api/t/answer-sheets
	sheets.Get("/reconcile", sheetCtrl.Reconcile)                        // GET    /api/t/answer-sheets/reconcile
	sheets.Get("/:id", sheetCtrl.GetByID)                                // GET    /api/t/answer-sheets/:id
	sheets.Delete("/:id", sheetCtrl.Delete)                              // DELETE /api/t/answer-sheets/:id

	sheets.Post("/:id/regrade", middlewares.GradingRateLimiter(), sheetCtrl.Regrade) // POST /api/t/answer-sheets/:id/regrade

	sheets.Patch("/:id/draft", reviewCtrl.SaveDraft)             // PATCH /api/t/answer-sheets/:id/draft
	sheets.Post("/:id/approve", reviewCtrl.Approve)              // POST  /api/t/answer-sheets/:id/approve
	sheets.Post("/:id/resolve-review", reviewCtrl.ResolveReview) // POST  /api/t/answer-sheets/:id/resolve-review

	// daftar sheet per exam nempel di resource exam
	r.Get("/exams/:id/answer-sheets", sheetCtrl.ListByExam) // GET /api/t/exams/:id/answer-sheets
}
