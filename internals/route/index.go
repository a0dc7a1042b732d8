package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"nilaiku_backend/internals/configs"
	examroute "nilaiku_backend/internals/features/exams/route"
	gradingroute "nilaiku_backend/internals/features/grading/route"
	plagroute "nilaiku_backend/internals/features/plagiarism/route"
	authmw "nilaiku_backend/internals/middlewares/auth"
)

// SetupRoutes: dua pintu utama —
//
//	/api/t : guru (buat exam, upload & koreksi lembar jawaban, screening)
//	/api/s : siswa (lihat hasil final, ajukan review)
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	BaseRoutes(app, db)

	jwt := authmw.AuthJWT(authmw.AuthJWTOpts{
		Secret:              configs.JWTSecret,
		AllowCookieFallback: true,
	})

	api := app.Group("/api")

	teacher := api.Group("/t", jwt, authmw.RequireTeacher())
	examroute.ExamTeacherRoutes(teacher, db)
	gradingroute.GradingTeacherRoutes(teacher, db)
	plagroute.PlagiarismTeacherRoutes(teacher, db)

	student := api.Group("/s", jwt, authmw.RequireStudent())
	gradingroute.GradingStudentRoutes(student, db)
}
