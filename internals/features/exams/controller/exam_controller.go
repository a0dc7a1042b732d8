// file: internals/features/exams/controller/exam_controller.go
package controller

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	examDTO "nilaiku_backend/internals/features/exams/dto"
	examModel "nilaiku_backend/internals/features/exams/model"
	helper "nilaiku_backend/internals/helpers"
)

type ExamController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewExamController(db *gorm.DB) *ExamController {
	return &ExamController{
		DB:        db,
		Validator: validator.New(),
	}
}

// hasSheets: sudah ada submission untuk exam ini? (rubrik terkunci)
func (ctrl *ExamController) hasSheets(examID uuid.UUID) (bool, error) {
	var n int64
	err := ctrl.DB.Table("answer_sheets").
		Where("answer_sheet_exam_id = ?", examID).
		Count(&n).Error
	return n > 0, err
}

/* =========================
   Handlers (TEACHER ONLY)
========================= */

// POST /api/t/exams
func (ctrl *ExamController) Create(c *fiber.Ctx) error {
	var body examDTO.CreateExamRequest
	if err := c.BodyParser(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctrl.Validator.Struct(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	if dup := body.DuplicateQuestionNum(); dup != 0 {
		return helper.JsonError(c, fiber.StatusBadRequest,
			fmt.Sprintf("Nomor soal %d dobel di marking scheme", dup))
	}

	teacherID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	m := body.ToModel(teacherID)
	if err := ctrl.DB.WithContext(c.Context()).Create(&m).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal membuat exam")
	}
	return helper.JsonCreated(c, "Exam berhasil dibuat", m)
}

// GET /api/t/exams?subject=&class=&q=&page=&per_page=
func (ctrl *ExamController) List(c *fiber.Ctx) error {
	teacherID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	paging := helper.ResolvePaging(c, 20, 200)

	q := ctrl.DB.WithContext(c.Context()).
		Model(&examModel.ExamModel{}).
		Where("exam_teacher_id = ?", teacherID)

	if subject := strings.TrimSpace(c.Query("subject")); subject != "" {
		q = q.Where("exam_subject = ?", subject)
	}
	if class := strings.TrimSpace(c.Query("class")); class != "" {
		q = q.Where("exam_class = ?", class)
	}
	if search := strings.TrimSpace(c.Query("q")); search != "" {
		q = q.Where("exam_name ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghitung exam")
	}

	var rows []examModel.ExamModel
	if err := q.Order("exam_created_at DESC").
		Offset(paging.Offset).Limit(paging.Limit).
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil exam")
	}

	return helper.JsonList(c, "", rows, helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}

// GET /api/t/exams/:id
func (ctrl *ExamController) GetByID(c *fiber.Ctx) error {
	teacherID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Exam ID tidak valid")
	}

	var m examModel.ExamModel
	if err := ctrl.DB.WithContext(c.Context()).
		First(&m, "exam_id = ? AND exam_teacher_id = ?", id, teacherID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Exam tidak ditemukan")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil exam")
	}
	return helper.JsonOK(c, "", m)
}

// PATCH /api/t/exams/:id
// Rubrik (marking scheme / precision) DITOLAK kalau sudah ada submission:
// nilai yang sudah dihitung tidak boleh berubah makna.
func (ctrl *ExamController) Patch(c *fiber.Ctx) error {
	teacherID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Exam ID tidak valid")
	}

	var body examDTO.PatchExamRequest
	if err := c.BodyParser(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctrl.Validator.Struct(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	var m examModel.ExamModel
	if err := ctrl.DB.WithContext(c.Context()).
		First(&m, "exam_id = ? AND exam_teacher_id = ?", id, teacherID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Exam tidak ditemukan")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil exam")
	}

	if body.TouchesRubric() {
		locked, err := ctrl.hasSheets(id)
		if err != nil {
			return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal cek submission")
		}
		if locked {
			return helper.JsonError(c, fiber.StatusConflict,
				"Rubrik terkunci: sudah ada lembar jawaban untuk exam ini")
		}
	}

	if body.ExamName != nil {
		m.ExamName = *body.ExamName
	}
	if body.ExamSubject != nil {
		m.ExamSubject = *body.ExamSubject
	}
	if body.ExamClass != nil {
		m.ExamClass = *body.ExamClass
	}
	if len(body.ExamMarkingScheme) > 0 {
		scheme := make([]examModel.MarkingSchemeQuestion, 0, len(body.ExamMarkingScheme))
		var total float64
		seen := map[int]bool{}
		for _, q := range body.ExamMarkingScheme {
			if seen[q.QuestionNum] {
				return helper.JsonError(c, fiber.StatusBadRequest,
					fmt.Sprintf("Nomor soal %d dobel di marking scheme", q.QuestionNum))
			}
			seen[q.QuestionNum] = true
			scheme = append(scheme, examModel.MarkingSchemeQuestion{
				QuestionNum:    q.QuestionNum,
				QuestionText:   q.QuestionText,
				MaxMarks:       q.MaxMarks,
				ExpectedAnswer: q.ExpectedAnswer,
				KeyPoints:      q.KeyPoints,
			})
			total += q.MaxMarks
		}
		m.ExamMarkingScheme = datatypes.NewJSONSlice(scheme)
		m.ExamTotalMarks = total
	}
	if body.ExamMarkingPrecision != nil {
		m.ExamMarkingPrecision = *body.ExamMarkingPrecision
	}
	if body.ExamPassingPercentage != nil {
		m.ExamPassingPercentage = *body.ExamPassingPercentage
	}

	if err := ctrl.DB.WithContext(c.Context()).Save(&m).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal update exam")
	}
	return helper.JsonUpdated(c, "Exam berhasil diupdate", m)
}

// DELETE /api/t/exams/:id (soft delete; ditolak kalau sudah ada submission)
func (ctrl *ExamController) Delete(c *fiber.Ctx) error {
	teacherID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Exam ID tidak valid")
	}

	locked, err := ctrl.hasSheets(id)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal cek submission")
	}
	if locked {
		return helper.JsonError(c, fiber.StatusConflict,
			"Exam tidak bisa dihapus: sudah ada lembar jawaban")
	}

	res := ctrl.DB.WithContext(c.Context()).
		Delete(&examModel.ExamModel{}, "exam_id = ? AND exam_teacher_id = ?", id, teacherID)
	if res.Error != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghapus exam")
	}
	if res.RowsAffected == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "Exam tidak ditemukan")
	}
	return helper.JsonDeleted(c, "Exam berhasil dihapus", fiber.Map{"exam_id": id})
}
