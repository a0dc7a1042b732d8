// file: internals/features/grading/controller/review_controller.go
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

// ReviewController: alur guru sesudah grading — koreksi nilai,
// approve, dan menutup dispute siswa.
type ReviewController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Approval  *service.ApprovalService
}

func NewReviewController(db *gorm.DB, approval *service.ApprovalService) *ReviewController {
	return &ReviewController{
		DB:        db,
		Validator: validator.New(),
		Approval:  approval,
	}
}

// ownsSheet: sheet harus di exam milik guru yang login.
func (ctrl *ReviewController) ownsSheet(c *fiber.Ctx, sheetID, teacherID uuid.UUID) error {
	var n int64
	err := ctrl.DB.WithContext(c.Context()).
		Table("answer_sheets").
		Joins("JOIN exams ON exams.exam_id = answer_sheets.answer_sheet_exam_id").
		Where("answer_sheets.answer_sheet_id = ? AND exams.exam_teacher_id = ?", sheetID, teacherID).
		Count(&n).Error
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal memeriksa kepemilikan")
	}
	if n == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "Lembar jawaban tidak ditemukan")
	}
	return nil
}

func (ctrl *ReviewController) sheetParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, helper.JsonError(c, fiber.StatusBadRequest, "ID lembar jawaban tidak valid")
	}
	return id, nil
}

// mapReviewErr memetakan sentinel service ke status HTTP.
func mapReviewErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSheetNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Lembar jawaban tidak ditemukan")
	case errors.Is(err, service.ErrSheetNotEditable),
		errors.Is(err, service.ErrSheetNotApprovable),
		errors.Is(err, service.ErrDisputeNotAllowed),
		errors.Is(err, service.ErrNoOpenReview):
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	default:
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
}

/* =========================
   Handlers (TEACHER ONLY)
========================= */

// PATCH /api/t/answer-sheets/:id/draft
// Simpan koreksi nilai guru. Hanya pada status graded; setelah
// approve, nilai sudah final.
func (ctrl *ReviewController) SaveDraft(c *fiber.Ctx) error {
	teacherID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	sheetID, err := ctrl.sheetParam(c)
	if err != nil {
		return err
	}
	if err := ctrl.ownsSheet(c, sheetID, teacherID); err != nil {
		return err
	}

	var body gradingDTO.SaveDraftRequest
	if err := c.BodyParser(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctrl.Validator.Struct(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := ctrl.Approval.SaveDraft(c.Context(), sheetID, &body); err != nil {
		return mapReviewErr(c, err)
	}
	return helper.JsonUpdated(c, "Koreksi tersimpan", fiber.Map{"answer_sheet_id": sheetID})
}

// POST /api/t/answer-sheets/:id/approve
func (ctrl *ReviewController) Approve(c *fiber.Ctx) error {
	teacherID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	sheetID, err := ctrl.sheetParam(c)
	if err != nil {
		return err
	}
	if err := ctrl.ownsSheet(c, sheetID, teacherID); err != nil {
		return err
	}

	if err := ctrl.Approval.Approve(c.Context(), sheetID); err != nil {
		return mapReviewErr(c, err)
	}
	return helper.JsonUpdated(c, "Hasil difinalkan, siswa sudah bisa melihat nilainya", fiber.Map{
		"answer_sheet_id": sheetID,
		"status":          gradingModel.AnswerSheetStatusApproved,
	})
}

// POST /api/t/answer-sheets/:id/resolve-review
func (ctrl *ReviewController) ResolveReview(c *fiber.Ctx) error {
	teacherID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	sheetID, err := ctrl.sheetParam(c)
	if err != nil {
		return err
	}
	if err := ctrl.ownsSheet(c, sheetID, teacherID); err != nil {
		return err
	}

	if err := ctrl.Approval.ResolveReview(c.Context(), sheetID); err != nil {
		return mapReviewErr(c, err)
	}
	return helper.JsonUpdated(c, "Review ditutup", fiber.Map{
		"answer_sheet_id": sheetID,
		"review_status":   gradingModel.ReviewStatusResolved,
	})
}
