package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Status utama lembar jawaban.
const (
	AnswerSheetStatusPending    = "pending"    // belum ada submission
	AnswerSheetStatusProcessing = "processing" // upload masuk, penilaian AI sedang jalan
	AnswerSheetStatusGraded     = "graded"     // hasil AI tersimpan, menunggu persetujuan guru
	AnswerSheetStatusApproved   = "approved"   // guru finalisasi, siswa boleh lihat
)

// Sub-status sengketa (jalur paralel dengan status utama).
const (
	ReviewStatusNone      = "none"
	ReviewStatusRequested = "requested"
	ReviewStatusResolved  = "resolved"
)

type AnswerSheetModel struct {
	AnswerSheetID        uuid.UUID `gorm:"column:answer_sheet_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"answer_sheet_id"`
	AnswerSheetExamID    uuid.UUID `gorm:"column:answer_sheet_exam_id;type:uuid;not null;index;uniqueIndex:uq_answer_sheets_exam_student" json:"answer_sheet_exam_id"`
	AnswerSheetStudentID uuid.UUID `gorm:"column:answer_sheet_student_id;type:uuid;not null;index;uniqueIndex:uq_answer_sheets_exam_student" json:"answer_sheet_student_id"`

	// Nama siswa di-snapshot saat upload (dipakai laporan plagiarisme & feedback).
	AnswerSheetStudentName string         `gorm:"column:answer_sheet_student_name;type:varchar(180);not null;default:''" json:"answer_sheet_student_name"`
	AnswerSheetPageURLs    pq.StringArray `gorm:"column:answer_sheet_page_urls;type:text[];not null"                     json:"answer_sheet_page_urls"`

	AnswerSheetStatus       string `gorm:"column:answer_sheet_status;type:varchar(20);not null;default:pending;index" json:"answer_sheet_status"`
	AnswerSheetReviewStatus string `gorm:"column:answer_sheet_review_status;type:varchar(20);not null;default:none"   json:"answer_sheet_review_status"`

	// total_score selalu hasil hitung ulang server (Σ final_score evaluasi).
	AnswerSheetTotalScore *float64 `gorm:"column:answer_sheet_total_score" json:"answer_sheet_total_score,omitempty"`
	AnswerSheetConfidence *float64 `gorm:"column:answer_sheet_confidence"  json:"answer_sheet_confidence,omitempty"`

	// Snapshot objek JSON persis seperti dikirim model (bahan feedback saat approve).
	AnswerSheetRawResponse     datatypes.JSON `gorm:"column:answer_sheet_raw_response;type:jsonb" json:"answer_sheet_raw_response,omitempty"`
	AnswerSheetOverallFeedback *string        `gorm:"column:answer_sheet_overall_feedback"        json:"answer_sheet_overall_feedback,omitempty"`

	AnswerSheetCreatedAt  time.Time  `gorm:"column:answer_sheet_created_at;not null;autoCreateTime" json:"answer_sheet_created_at"`
	AnswerSheetUpdatedAt  time.Time  `gorm:"column:answer_sheet_updated_at;not null;autoUpdateTime" json:"answer_sheet_updated_at"`
	AnswerSheetApprovedAt *time.Time `gorm:"column:answer_sheet_approved_at"                        json:"answer_sheet_approved_at,omitempty"`
}

// TableName overrides the table name used by GORM.
func (AnswerSheetModel) TableName() string {
	return "answer_sheets"
}
