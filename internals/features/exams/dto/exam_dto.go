// file: internals/features/exams/dto/exam_dto.go
package dto

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"

	examModel "nilaiku_backend/internals/features/exams/model"
)

/* =========================================================
   CREATE DTO
========================================================= */

type MarkingSchemeQuestionInput struct {
	QuestionNum    int      `json:"question_num" validate:"required,gt=0"`
	QuestionText   string   `json:"question_text" validate:"required"`
	MaxMarks       float64  `json:"max_marks" validate:"required,gt=0"`
	ExpectedAnswer *string  `json:"expected_answer,omitempty"`
	KeyPoints      []string `json:"key_points,omitempty"`
}

type CreateExamRequest struct {
	ExamName              string                       `json:"exam_name" validate:"required,max=180"`
	ExamSubject           string                       `json:"exam_subject" validate:"required,max=120"`
	ExamClass             string                       `json:"exam_class" validate:"required,max=60"`
	ExamMarkingScheme     []MarkingSchemeQuestionInput `json:"exam_marking_scheme" validate:"required,min=1,dive"`
	ExamMarkingPrecision  *string                      `json:"exam_marking_precision,omitempty" validate:"omitempty,oneof=full half quarter"`
	ExamPassingPercentage *float64                     `json:"exam_passing_percentage,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// ToModel: exam_total_marks dihitung backend (Σ max_marks), bukan dari client.
func (r CreateExamRequest) ToModel(teacherID uuid.UUID) examModel.ExamModel {
	scheme := make([]examModel.MarkingSchemeQuestion, 0, len(r.ExamMarkingScheme))
	var total float64
	for _, q := range r.ExamMarkingScheme {
		scheme = append(scheme, examModel.MarkingSchemeQuestion{
			QuestionNum:    q.QuestionNum,
			QuestionText:   q.QuestionText,
			MaxMarks:       q.MaxMarks,
			ExpectedAnswer: q.ExpectedAnswer,
			KeyPoints:      q.KeyPoints,
		})
		total += q.MaxMarks
	}

	precision := examModel.MarkingPrecisionHalf
	if r.ExamMarkingPrecision != nil {
		precision = *r.ExamMarkingPrecision
	}
	passing := 40.0
	if r.ExamPassingPercentage != nil {
		passing = *r.ExamPassingPercentage
	}

	return examModel.ExamModel{
		ExamTeacherID:         teacherID,
		ExamName:              r.ExamName,
		ExamSubject:           r.ExamSubject,
		ExamClass:             r.ExamClass,
		ExamMarkingScheme:     datatypes.NewJSONSlice(scheme),
		ExamTotalMarks:        total,
		ExamMarkingPrecision:  precision,
		ExamPassingPercentage: passing,
	}
}

// DuplicateQuestionNum mengembalikan nomor soal yang dobel (0 kalau tidak ada).
func (r CreateExamRequest) DuplicateQuestionNum() int {
	seen := map[int]bool{}
	for _, q := range r.ExamMarkingScheme {
		if seen[q.QuestionNum] {
			return q.QuestionNum
		}
		seen[q.QuestionNum] = true
	}
	return 0
}

/* =========================================================
   PATCH DTO (metadata saja; rubrik terkunci setelah ada submission)
========================================================= */

type PatchExamRequest struct {
	ExamName              *string                       `json:"exam_name,omitempty" validate:"omitempty,max=180"`
	ExamSubject           *string                       `json:"exam_subject,omitempty" validate:"omitempty,max=120"`
	ExamClass             *string                       `json:"exam_class,omitempty" validate:"omitempty,max=60"`
	ExamMarkingScheme     []MarkingSchemeQuestionInput  `json:"exam_marking_scheme,omitempty" validate:"omitempty,min=1,dive"`
	ExamMarkingPrecision  *string                       `json:"exam_marking_precision,omitempty" validate:"omitempty,oneof=full half quarter"`
	ExamPassingPercentage *float64                      `json:"exam_passing_percentage,omitempty" validate:"omitempty,gte=0,lte=100"`
}

func (p PatchExamRequest) TouchesRubric() bool {
	return len(p.ExamMarkingScheme) > 0 || p.ExamMarkingPrecision != nil
}
