package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Klasifikasi penyebab kehilangan nilai per soal (dari model, satu bucket per soal).
const (
	RootCauseConcept     = "Concept Error"
	RootCauseCalculation = "Calculation Error"
	RootCauseKeywording  = "Keywording Error"
	RootCauseNone        = "None"
)

// NormalizeRootCause memaksa nilai bebas dari model ke salah satu bucket yang dikenal.
func NormalizeRootCause(v string) string {
	switch v {
	case RootCauseConcept, RootCauseCalculation, RootCauseKeywording:
		return v
	default:
		return RootCauseNone
	}
}

type QuestionEvaluationModel struct {
	QuestionEvaluationID            uuid.UUID `gorm:"column:question_evaluation_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"question_evaluation_id"`
	QuestionEvaluationAnswerSheetID uuid.UUID `gorm:"column:question_evaluation_answer_sheet_id;type:uuid;not null;index;uniqueIndex:uq_question_evaluations_sheet_q" json:"question_evaluation_answer_sheet_id"`
	QuestionEvaluationQuestionNum   int       `gorm:"column:question_evaluation_question_num;not null;uniqueIndex:uq_question_evaluations_sheet_q"                    json:"question_evaluation_question_num"`

	QuestionEvaluationExtractedText string `gorm:"column:question_evaluation_extracted_text;type:text;not null;default:''" json:"question_evaluation_extracted_text"`

	// ai_score = skor murni dari model; final_score = skor otoritatif.
	// teacher_score != NULL artinya pernah disentuh guru (override).
	QuestionEvaluationAIScore      float64  `gorm:"column:question_evaluation_ai_score;not null"    json:"question_evaluation_ai_score"`
	QuestionEvaluationFinalScore   float64  `gorm:"column:question_evaluation_final_score;not null" json:"question_evaluation_final_score"`
	QuestionEvaluationTeacherScore *float64 `gorm:"column:question_evaluation_teacher_score"        json:"question_evaluation_teacher_score,omitempty"`
	QuestionEvaluationMaxMarks     float64  `gorm:"column:question_evaluation_max_marks;not null"   json:"question_evaluation_max_marks"`

	QuestionEvaluationConfidence float64        `gorm:"column:question_evaluation_confidence;not null;default:0" json:"question_evaluation_confidence"`
	QuestionEvaluationReasoning  string         `gorm:"column:question_evaluation_reasoning;type:text;not null;default:''" json:"question_evaluation_reasoning"`
	QuestionEvaluationStrengths  pq.StringArray `gorm:"column:question_evaluation_strengths;type:text[]" json:"question_evaluation_strengths,omitempty"`
	QuestionEvaluationGaps       pq.StringArray `gorm:"column:question_evaluation_gaps;type:text[]"      json:"question_evaluation_gaps,omitempty"`
	QuestionEvaluationRootCause  string         `gorm:"column:question_evaluation_root_cause;type:varchar(30);not null;default:None" json:"question_evaluation_root_cause"`

	// Jalur sengketa siswa.
	QuestionEvaluationIsReviewRequested bool    `gorm:"column:question_evaluation_is_review_requested;not null;default:false" json:"question_evaluation_is_review_requested"`
	QuestionEvaluationStudentComment    *string `gorm:"column:question_evaluation_student_comment;type:text"                  json:"question_evaluation_student_comment,omitempty"`

	QuestionEvaluationCreatedAt time.Time `gorm:"column:question_evaluation_created_at;not null;autoCreateTime" json:"question_evaluation_created_at"`
	QuestionEvaluationUpdatedAt time.Time `gorm:"column:question_evaluation_updated_at;not null;autoUpdateTime" json:"question_evaluation_updated_at"`
}

// TableName overrides the table name used by GORM.
func (QuestionEvaluationModel) TableName() string {
	return "question_evaluations"
}
