package database

import (
	"log"

	examModel "nilaiku_backend/internals/features/exams/model"
	gradingModel "nilaiku_backend/internals/features/grading/model"
	plagModel "nilaiku_backend/internals/features/plagiarism/model"
)

// Migrate menjalankan auto-migration semua tabel.
// Urutan mengikuti arah foreign key (exam dulu, turunannya belakangan).
func Migrate() {
	err := DB.AutoMigrate(
		&examModel.ExamModel{},
		&gradingModel.AnswerSheetModel{},
		&gradingModel.QuestionEvaluationModel{},
		&gradingModel.FeedbackAnalysisModel{},
		&plagModel.PlagiarismScoreModel{},
	)
	if err != nil {
		log.Fatalf("❌ Auto-migrate gagal: %v", err)
	}
	log.Println("✅ Migrasi tabel selesai.")
}
