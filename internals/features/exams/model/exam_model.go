package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Pembulatan skor yang diminta ke model saat menilai.
const (
	MarkingPrecisionFull    = "full"    // bulat (0, 1, 2, ...)
	MarkingPrecisionHalf    = "half"    // kelipatan 0.5
	MarkingPrecisionQuarter = "quarter" // kelipatan 0.25
)

// MarkingSchemeQuestion adalah satu butir rubrik di dalam JSONB exam_marking_scheme.
type MarkingSchemeQuestion struct {
	QuestionNum    int      `json:"question_num"`
	QuestionText   string   `json:"question_text"`
	MaxMarks       float64  `json:"max_marks"`
	ExpectedAnswer *string  `json:"expected_answer,omitempty"`
	KeyPoints      []string `json:"key_points,omitempty"`
}

type ExamModel struct {
	ExamID        uuid.UUID `gorm:"column:exam_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"exam_id"`
	ExamTeacherID uuid.UUID `gorm:"column:exam_teacher_id;type:uuid;not null;index"               json:"exam_teacher_id"`

	ExamName    string `gorm:"column:exam_name;type:varchar(180);not null"   json:"exam_name"`
	ExamSubject string `gorm:"column:exam_subject;type:varchar(120);not null" json:"exam_subject"`
	ExamClass   string `gorm:"column:exam_class;type:varchar(60);not null"    json:"exam_class"`

	// Rubrik terurut; exam_total_marks selalu dihitung ulang server-side (= Σ max_marks).
	ExamMarkingScheme     datatypes.JSONSlice[MarkingSchemeQuestion] `gorm:"column:exam_marking_scheme;type:jsonb;not null" json:"exam_marking_scheme"`
	ExamTotalMarks        float64                                    `gorm:"column:exam_total_marks;not null"               json:"exam_total_marks"`
	ExamMarkingPrecision  string                                     `gorm:"column:exam_marking_precision;type:varchar(10);not null;default:half" json:"exam_marking_precision"`
	ExamPassingPercentage float64                                    `gorm:"column:exam_passing_percentage;not null;default:40" json:"exam_passing_percentage"`

	ExamCreatedAt time.Time      `gorm:"column:exam_created_at;not null;autoCreateTime" json:"exam_created_at"`
	ExamUpdatedAt time.Time      `gorm:"column:exam_updated_at;not null;autoUpdateTime" json:"exam_updated_at"`
	ExamDeletedAt gorm.DeletedAt `gorm:"column:exam_deleted_at;index"                   json:"exam_deleted_at,omitempty"`
}

// TableName overrides the table name used by GORM.
func (ExamModel) TableName() string {
	return "exams"
}

// MaxMarksFor mengembalikan max_marks untuk nomor soal; false kalau nomor tidak ada di rubrik.
func (m *ExamModel) MaxMarksFor(questionNum int) (float64, bool) {
	for _, q := range m.ExamMarkingScheme {
		if q.QuestionNum == questionNum {
			return q.MaxMarks, true
		}
	}
	return 0, false
}

// HasQuestion cek nomor soal ada di rubrik.
func (m *ExamModel) HasQuestion(questionNum int) bool {
	_, ok := m.MaxMarksFor(questionNum)
	return ok
}

// QuestionNums mengembalikan nomor soal sesuai urutan rubrik.
func (m *ExamModel) QuestionNums() []int {
	out := make([]int, 0, len(m.ExamMarkingScheme))
	for _, q := range m.ExamMarkingScheme {
		out = append(out, q.QuestionNum)
	}
	return out
}

// SumMaxMarks = Σ max_marks seluruh rubrik.
func (m *ExamModel) SumMaxMarks() float64 {
	var sum float64
	for _, q := range m.ExamMarkingScheme {
		sum += q.MaxMarks
	}
	return sum
}
