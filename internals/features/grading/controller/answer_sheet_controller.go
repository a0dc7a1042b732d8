// file: internals/features/grading/controller/answer_sheet_controller.go
package controller

import (
	"context"
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	examModel "nilaiku_backend/internals/features/exams/model"
	gradingDTO "nilaiku_backend/internals/features/grading/dto"
	gradingModel "nilaiku_backend/internals/features/grading/model"
	"nilaiku_backend/internals/features/grading/service"
	plagModel "nilaiku_backend/internals/features/plagiarism/model"
	helper "nilaiku_backend/internals/helpers"
)

type AnswerSheetController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Grader    *service.GradingService
	Sheets    *service.UploadService
}

func NewAnswerSheetController(db *gorm.DB, grader *service.GradingService, sheets *service.UploadService) *AnswerSheetController {
	return &AnswerSheetController{
		DB:        db,
		Validator: validator.New(),
		Grader:    grader,
		Sheets:    sheets,
	}
}

// loadOwnedExam: exam harus milik guru yang login.
func (ctrl *AnswerSheetController) loadOwnedExam(c *fiber.Ctx, examID, teacherID uuid.UUID) (*examModel.ExamModel, error) {
	var exam examModel.ExamModel
	err := ctrl.DB.WithContext(c.Context()).
		First(&exam, "exam_id = ? AND exam_teacher_id = ?", examID, teacherID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, helper.JsonError(c, fiber.StatusNotFound, "Exam tidak ditemukan")
	}
	if err != nil {
		return nil, helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil exam")
	}
	return &exam, nil
}

// loadOwnedSheet: sheet harus berada di exam milik guru yang login.
func (ctrl *AnswerSheetController) loadOwnedSheet(c *fiber.Ctx, sheetID, teacherID uuid.UUID) (*gradingModel.AnswerSheetModel, error) {
	var sheet gradingModel.AnswerSheetModel
	err := ctrl.DB.WithContext(c.Context()).
		Joins("JOIN exams ON exams.exam_id = answer_sheets.answer_sheet_exam_id").
		Where("answer_sheets.answer_sheet_id = ? AND exams.exam_teacher_id = ?", sheetID, teacherID).
		First(&sheet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, helper.JsonError(c, fiber.StatusNotFound, "Lembar jawaban tidak ditemukan")
	}
	if err != nil {
		return nil, helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil lembar jawaban")
	}
	return &sheet, nil
}

/* =========================
   Handlers (TEACHER ONLY)
========================= */

// POST /api/t/answer-sheets
// Upload lembar jawaban. Kalau siswa yang sama sudah punya sheet di
// exam ini, upload dianggap PENGGANTIAN: hasil lama (evaluasi,
// feedback, skor plagiat) dihapus dulu, lalu pipeline jalan ulang.
// Ditolak selama sheet lama masih diproses.
func (ctrl *AnswerSheetController) Create(c *fiber.Ctx) error {
	var body gradingDTO.CreateAnswerSheetRequest
	if err := c.BodyParser(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctrl.Validator.Struct(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	teacherID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	if _, err := ctrl.loadOwnedExam(c, body.ExamID, teacherID); err != nil {
		return err
	}

	sheet, err := ctrl.Sheets.Submit(c.Context(), &body)
	if errors.Is(err, service.ErrSheetProcessing) {
		return helper.JsonError(c, fiber.StatusConflict,
			"Lembar jawaban masih diproses, tunggu selesai sebelum upload ulang")
	}
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menyimpan lembar jawaban")
	}

	// pipeline jalan di background; request upload langsung balik
	go func(sheetID uuid.UUID) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[GRADING] ⚠️ panic saat memproses sheet %s: %v", sheetID, r)
			}
		}()
		if err := ctrl.Grader.GradeAnswerSheet(context.Background(), sheetID); err != nil {
			log.Printf("[GRADING] ⚠️ sheet %s gagal dinilai: %v", sheetID, err)
		}
	}(sheet.AnswerSheetID)

	return helper.JsonCreated(c, "Lembar jawaban diterima, penilaian sedang berjalan", sheet)
}

// GET /api/t/exams/:id/answer-sheets?status=&review_status=&page=&per_page=
func (ctrl *AnswerSheetController) ListByExam(c *fiber.Ctx) error {
	teacherID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	examID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID exam tidak valid")
	}
	if _, err := ctrl.loadOwnedExam(c, examID, teacherID); err != nil {
		return err
	}

	paging := helper.ResolvePaging(c, 20, 200)

	q := ctrl.DB.WithContext(c.Context()).
		Model(&gradingModel.AnswerSheetModel{}).
		Where("answer_sheet_exam_id = ?", examID)
	if s := c.Query("status"); s != "" {
		q = q.Where("answer_sheet_status = ?", s)
	}
	if rs := c.Query("review_status"); rs != "" {
		q = q.Where("answer_sheet_review_status = ?", rs)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghitung lembar jawaban")
	}

	var sheets []gradingModel.AnswerSheetModel
	if err := q.Order("answer_sheet_created_at DESC").
		Offset(paging.Offset).Limit(paging.Limit).
		Find(&sheets).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil lembar jawaban")
	}

	return helper.JsonList(c, "", sheets, helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}

// GET /api/t/answer-sheets/:id
// Detail sheet + evaluasi per soal + skor plagiat. Baris plagiat yang
// belum ada di-render null (belum di-screen), bukan error.
func (ctrl *AnswerSheetController) GetByID(c *fiber.Ctx) error {
	teacherID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	sheetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID lembar jawaban tidak valid")
	}
	sheet, err := ctrl.loadOwnedSheet(c, sheetID, teacherID)
	if err != nil {
		return err
	}

	var evals []gradingModel.QuestionEvaluationModel
	if err := ctrl.DB.WithContext(c.Context()).
		Where("question_evaluation_answer_sheet_id = ?", sheetID).
		Order("question_evaluation_question_num ASC").
		Find(&evals).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil evaluasi")
	}

	var plag *plagModel.PlagiarismScoreModel
	var plagRow plagModel.PlagiarismScoreModel
	plagErr := ctrl.DB.WithContext(c.Context()).
		First(&plagRow, "plagiarism_score_answer_sheet_id = ?", sheetID).Error
	if plagErr == nil {
		plag = &plagRow
	} else if !errors.Is(plagErr, gorm.ErrRecordNotFound) {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil skor plagiat")
	}

	return helper.JsonOK(c, "OK", fiber.Map{
		"answer_sheet":     sheet,
		"evaluations":      evals,
		"plagiarism_score": plag,
	})
}

// DELETE /api/t/answer-sheets/:id
func (ctrl *AnswerSheetController) Delete(c *fiber.Ctx) error {
	teacherID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	sheetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID lembar jawaban tidak valid")
	}
	sheet, err := ctrl.loadOwnedSheet(c, sheetID, teacherID)
	if err != nil {
		return err
	}

	err = ctrl.Sheets.Delete(c.Context(), sheet)
	if errors.Is(err, service.ErrSheetProcessing) {
		return helper.JsonError(c, fiber.StatusConflict,
			"Lembar jawaban masih diproses, tidak bisa dihapus")
	}
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghapus lembar jawaban")
	}
	return helper.JsonDeleted(c, "Lembar jawaban dihapus", fiber.Map{"answer_sheet_id": sheetID})
}

// POST /api/t/answer-sheets/:id/regrade
// Pemicu ulang manual. Grading yang gagal tidak di-retry otomatis dan
// sheet-nya tertinggal di processing; dari sini guru menjalankannya lagi.
func (ctrl *AnswerSheetController) Regrade(c *fiber.Ctx) error {
	teacherID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	sheetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID lembar jawaban tidak valid")
	}
	sheet, err := ctrl.loadOwnedSheet(c, sheetID, teacherID)
	if err != nil {
		return err
	}
	if sheet.AnswerSheetStatus != gradingModel.AnswerSheetStatusProcessing {
		return helper.JsonError(c, fiber.StatusConflict,
			"Regrade hanya untuk lembar jawaban yang macet di status processing")
	}

	go func(id uuid.UUID) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[GRADING] ⚠️ panic saat regrade sheet %s: %v", id, r)
			}
		}()
		if err := ctrl.Grader.GradeAnswerSheet(context.Background(), id); err != nil {
			log.Printf("[GRADING] ⚠️ regrade sheet %s gagal: %v", id, err)
		}
	}(sheetID)

	return helper.JsonOK(c, "Penilaian ulang sedang berjalan", fiber.Map{"answer_sheet_id": sheetID})
}

// GET /api/t/answer-sheets/reconcile
// Pemeriksaan konsistensi: sheet berstatus graded tapi tanpa evaluasi per
// soal seharusnya tidak pernah ada (penulisan hasil transaksional).
func (ctrl *AnswerSheetController) Reconcile(c *fiber.Ctx) error {
	if _, err := helper.GetUserIDFromToken(c); err != nil {
		return err
	}

	var n int64
	err := ctrl.DB.WithContext(c.Context()).
		Table("answer_sheets").
		Where("answer_sheet_status IN ?", []string{
			gradingModel.AnswerSheetStatusGraded,
			gradingModel.AnswerSheetStatusApproved,
		}).
		Where("NOT EXISTS (SELECT 1 FROM question_evaluations qe WHERE qe.question_evaluation_answer_sheet_id = answer_sheets.answer_sheet_id)").
		Count(&n).Error
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menjalankan pemeriksaan")
	}
	return helper.JsonOK(c, "OK", fiber.Map{"graded_without_evaluations": n})
}
