package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"

	examModel "nilaiku_backend/internals/features/exams/model"
)

// RootCauseSummary: total nilai yang hilang per bucket (satuan marks, bukan jumlah soal).
type RootCauseSummary struct {
	Concept     float64 `json:"concept"`
	Calculation float64 `json:"calculation"`
	Keyword     float64 `json:"keyword"`
}

// ROIItem: topik lemah yang paling "murah" diperbaiki (dari analisis model).
type ROIItem struct {
	Topic         string  `json:"topic"`
	PotentialGain float64 `json:"potential_gain"`
	Effort        string  `json:"effort"`
}

// FeedbackAnalysisModel dibuat SEKALI saat guru approve.
// Metadata exam di-copy (snapshot), bukan join — edit rubrik belakangan
// tidak boleh mengubah rapor historis siswa.
type FeedbackAnalysisModel struct {
	FeedbackAnalysisID            uuid.UUID `gorm:"column:feedback_analysis_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"feedback_analysis_id"`
	FeedbackAnalysisAnswerSheetID uuid.UUID `gorm:"column:feedback_analysis_answer_sheet_id;type:uuid;not null;uniqueIndex"    json:"feedback_analysis_answer_sheet_id"`
	FeedbackAnalysisStudentID     uuid.UUID `gorm:"column:feedback_analysis_student_id;type:uuid;not null;index"               json:"feedback_analysis_student_id"`

	// ===== Snapshot exam (copy-on-approve) =====
	FeedbackAnalysisExamName          string                                     `gorm:"column:feedback_analysis_exam_name;type:varchar(180);not null"   json:"feedback_analysis_exam_name"`
	FeedbackAnalysisExamSubject       string                                     `gorm:"column:feedback_analysis_exam_subject;type:varchar(120);not null" json:"feedback_analysis_exam_subject"`
	FeedbackAnalysisExamClass         string                                     `gorm:"column:feedback_analysis_exam_class;type:varchar(60);not null"    json:"feedback_analysis_exam_class"`
	FeedbackAnalysisExamTotalMarks    float64                                    `gorm:"column:feedback_analysis_exam_total_marks;not null"               json:"feedback_analysis_exam_total_marks"`
	FeedbackAnalysisExamMarkingScheme datatypes.JSONSlice[examModel.MarkingSchemeQuestion] `gorm:"column:feedback_analysis_exam_marking_scheme;type:jsonb;not null" json:"feedback_analysis_exam_marking_scheme"`

	// ===== Hasil agregasi saat approve =====
	FeedbackAnalysisTotalScore           float64                                 `gorm:"column:feedback_analysis_total_score;not null"              json:"feedback_analysis_total_score"`
	FeedbackAnalysisOverallFeedback      string                                  `gorm:"column:feedback_analysis_overall_feedback;type:text;not null;default:''" json:"feedback_analysis_overall_feedback"`
	FeedbackAnalysisRealWorldApplication string                                  `gorm:"column:feedback_analysis_real_world_application;type:text;not null;default:''" json:"feedback_analysis_real_world_application"`
	FeedbackAnalysisRootCauseSummary     datatypes.JSONType[RootCauseSummary]    `gorm:"column:feedback_analysis_root_cause_summary;type:jsonb"     json:"feedback_analysis_root_cause_summary"`
	FeedbackAnalysisFocusAreas           pq.StringArray                          `gorm:"column:feedback_analysis_focus_areas;type:text[]"           json:"feedback_analysis_focus_areas,omitempty"`
	FeedbackAnalysisROIAnalysis          datatypes.JSONSlice[ROIItem]            `gorm:"column:feedback_analysis_roi_analysis;type:jsonb"           json:"feedback_analysis_roi_analysis,omitempty"`

	FeedbackAnalysisCreatedAt time.Time `gorm:"column:feedback_analysis_created_at;not null;autoCreateTime" json:"feedback_analysis_created_at"`
}

// TableName overrides the table name used by GORM.
func (FeedbackAnalysisModel) TableName() string {
	return "feedback_analysis"
}
