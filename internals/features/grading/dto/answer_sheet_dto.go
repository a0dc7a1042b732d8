package dto

import "github.com/google/uuid"

/* =======================================================
   REQUEST DTO — GURU
======================================================= */

// CreateAnswerSheetRequest: upload (atau re-upload) lembar jawaban.
type CreateAnswerSheetRequest struct {
	ExamID      uuid.UUID `json:"exam_id"      validate:"required"`
	StudentID   uuid.UUID `json:"student_id"   validate:"required"`
	StudentName string    `json:"student_name" validate:"required,min=1,max=120"`
	PageURLs    []string  `json:"page_urls"    validate:"required,min=1,max=20,dive,url"`
}

// DraftScore: koreksi satu soal oleh guru sebelum approve. Reasoning
// opsional — diisi kalau guru menimpa alasan dari model.
type DraftScore struct {
	QuestionNum  int     `json:"question_num"  validate:"required,min=1"`
	TeacherScore float64 `json:"teacher_score" validate:"min=0"`
	Reasoning    *string `json:"reasoning"     validate:"omitempty,max=4000"`
}

// SaveDraftRequest: simpan koreksi guru (boleh sebagian soal saja).
type SaveDraftRequest struct {
	Scores          []DraftScore `json:"scores"           validate:"required,min=1,dive"`
	OverallFeedback *string      `json:"overall_feedback" validate:"omitempty,max=4000"`
}

/* =======================================================
   REQUEST DTO — SISWA
======================================================= */

// DisputeItem: keberatan siswa atas satu soal.
type DisputeItem struct {
	QuestionNum int    `json:"question_num" validate:"required,min=1"`
	Comment     string `json:"comment"      validate:"required,min=1,max=2000"`
}

// DisputeRequest: ajukan review atas hasil yang sudah di-approve.
type DisputeRequest struct {
	Items []DisputeItem `json:"items" validate:"required,min=1,dive"`
}

/* =======================================================
   QUERY DTO
======================================================= */

// ListAnswerSheetQuery: filter daftar lembar jawaban per exam.
type ListAnswerSheetQuery struct {
	Status       string `query:"status"`
	ReviewStatus string `query:"review_status"`
}
