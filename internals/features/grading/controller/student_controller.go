// file: internals/features/grading/controller/student_controller.go
package controller

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	gradingDTO "nilaiku_backend/internals/features/grading/dto"
	gradingModel "nilaiku_backend/internals/features/grading/model"
	"nilaiku_backend/internals/features/grading/service"
	helper "nilaiku_backend/internals/helpers"
)

// StudentResultController: sisi siswa. Siswa HANYA bisa melihat hasil
// yang sudah di-approve guru — draft dan hasil mentah AI tidak pernah
// bocor ke sini.
type StudentResultController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Approval  *service.ApprovalService
}

func NewStudentResultController(db *gorm.DB, approval *service.ApprovalService) *StudentResultController {
	return &StudentResultController{
		DB:        db,
		Validator: validator.New(),
		Approval:  approval,
	}
}

/* =========================
   Handlers (STUDENT ONLY)
========================= */

// GET /api/s/results?page=&per_page=
func (ctrl *StudentResultController) List(c *fiber.Ctx) error {
	studentID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	paging := helper.ResolvePaging(c, 20, 100)

	q := ctrl.DB.WithContext(c.Context()).
		Model(&gradingModel.AnswerSheetModel{}).
		Where("answer_sheet_student_id = ? AND answer_sheet_status = ?",
			studentID, gradingModel.AnswerSheetStatusApproved)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghitung hasil")
	}

	var sheets []gradingModel.AnswerSheetModel
	if err := q.Order("answer_sheet_approved_at DESC").
		Offset(paging.Offset).Limit(paging.Limit).
		Find(&sheets).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil hasil")
	}

	return helper.JsonList(c, "", sheets, helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}

// GET /api/s/results/:id
// Detail hasil final: evaluasi per soal + snapshot feedback analysis.
func (ctrl *StudentResultController) GetByID(c *fiber.Ctx) error {
	studentID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	sheetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID hasil tidak valid")
	}

	var sheet gradingModel.AnswerSheetModel
	findErr := ctrl.DB.WithContext(c.Context()).
		First(&sheet,
			"answer_sheet_id = ? AND answer_sheet_student_id = ? AND answer_sheet_status = ?",
			sheetID, studentID, gradingModel.AnswerSheetStatusApproved).Error
	if errors.Is(findErr, gorm.ErrRecordNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, "Hasil tidak ditemukan")
	}
	if findErr != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil hasil")
	}

	var evals []gradingModel.QuestionEvaluationModel
	if err := ctrl.DB.WithContext(c.Context()).
		Where("question_evaluation_answer_sheet_id = ?", sheetID).
		Order("question_evaluation_question_num ASC").
		Find(&evals).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil evaluasi")
	}

	var fb *gradingModel.FeedbackAnalysisModel
	var fbRow gradingModel.FeedbackAnalysisModel
	fbErr := ctrl.DB.WithContext(c.Context()).
		First(&fbRow, "feedback_analysis_answer_sheet_id = ?", sheetID).Error
	if fbErr == nil {
		fb = &fbRow
	} else if !errors.Is(fbErr, gorm.ErrRecordNotFound) {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil feedback")
	}

	return helper.JsonOK(c, "OK", fiber.Map{
		"answer_sheet":      sheet,
		"evaluations":       evals,
		"feedback_analysis": fb,
	})
}

// POST /api/s/results/:id/dispute
// Keberatan siswa: per soal, sekali per sheet, hanya sesudah approve.
func (ctrl *StudentResultController) Dispute(c *fiber.Ctx) error {
	studentID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	sheetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID hasil tidak valid")
	}

	var body gradingDTO.DisputeRequest
	if err := c.BodyParser(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctrl.Validator.Struct(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := ctrl.Approval.Dispute(c.Context(), sheetID, studentID, &body); err != nil {
		return mapReviewErr(c, err)
	}
	return helper.JsonOK(c, "Permintaan review terkirim ke guru", fiber.Map{
		"answer_sheet_id": sheetID,
		"review_status":   gradingModel.ReviewStatusRequested,
	})
}
