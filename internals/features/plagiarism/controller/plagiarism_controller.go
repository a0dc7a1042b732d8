// file: internals/features/plagiarism/controller/plagiarism_controller.go
package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"nilaiku_backend/internals/features/plagiarism/model"
	helper "nilaiku_backend/internals/helpers"
)

type PlagiarismController struct {
	DB *gorm.DB
}

func NewPlagiarismController(db *gorm.DB) *PlagiarismController {
	return &PlagiarismController{DB: db}
}

// ownsExam: cek exam milik guru yang login.
func (ctrl *PlagiarismController) ownsExam(c *fiber.Ctx, examID, teacherID uuid.UUID) error {
	var n int64
	err := ctrl.DB.WithContext(c.Context()).
		Table("exams").
		Where("exam_id = ? AND exam_teacher_id = ? AND exam_deleted_at IS NULL", examID, teacherID).
		Count(&n).Error
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal memeriksa exam")
	}
	if n == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "Exam tidak ditemukan")
	}
	return nil
}

/* =========================
   Handlers (TEACHER ONLY)
========================= */

// GET /api/t/exams/:id/plagiarism?flagged_only=true
// Ringkasan screening satu exam. Sheet yang tidak punya baris di sini
// memang belum/tidak di-screen (jawaban terlalu pendek) — itu bukan
// kondisi error.
func (ctrl *PlagiarismController) ListByExam(c *fiber.Ctx) error {
	teacherID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	examID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID exam tidak valid")
	}
	if err := ctrl.ownsExam(c, examID, teacherID); err != nil {
		return err
	}

	q := ctrl.DB.WithContext(c.Context()).
		Model(&model.PlagiarismScoreModel{}).
		Where("plagiarism_score_exam_id = ?", examID)
	if c.QueryBool("flagged_only") {
		q = q.Where("plagiarism_score_status = ?", model.PlagiarismStatusFlagged)
	}

	var rows []model.PlagiarismScoreModel
	if err := q.Order("plagiarism_score_combined_score DESC").
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil hasil screening")
	}

	flagged := 0
	for i := range rows {
		if rows[i].IsFlagged() {
			flagged++
		}
	}
	return helper.JsonOK(c, "OK", fiber.Map{
		"exam_id":       examID,
		"screened":      len(rows),
		"flagged_count": flagged,
		"scores":        rows,
	})
}

// GET /api/t/answer-sheets/:id/plagiarism
func (ctrl *PlagiarismController) GetBySheet(c *fiber.Ctx) error {
	teacherID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	sheetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID lembar jawaban tidak valid")
	}

	var n int64
	if err := ctrl.DB.WithContext(c.Context()).
		Table("answer_sheets").
		Joins("JOIN exams ON exams.exam_id = answer_sheets.answer_sheet_exam_id").
		Where("answer_sheets.answer_sheet_id = ? AND exams.exam_teacher_id = ?", sheetID, teacherID).
		Count(&n).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal memeriksa kepemilikan")
	}
	if n == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "Lembar jawaban tidak ditemukan")
	}

	var row model.PlagiarismScoreModel
	findErr := ctrl.DB.WithContext(c.Context()).
		First(&row, "plagiarism_score_answer_sheet_id = ?", sheetID).Error
	if errors.Is(findErr, gorm.ErrRecordNotFound) {
		return helper.JsonOK(c, "Lembar jawaban ini belum di-screen", fiber.Map{
			"answer_sheet_id":  sheetID,
			"plagiarism_score": nil,
		})
	}
	if findErr != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil skor plagiat")
	}
	return helper.JsonOK(c, "OK", fiber.Map{
		"answer_sheet_id":  sheetID,
		"plagiarism_score": row,
	})
}
