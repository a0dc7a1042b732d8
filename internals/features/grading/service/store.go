package service

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	examModel "nilaiku_backend/internals/features/exams/model"
	"nilaiku_backend/internals/features/grading/dto"
	gradingModel "nilaiku_backend/internals/features/grading/model"
)

// gormGradeStore: implementasi GradeStore di atas Postgres.
type gormGradeStore struct {
	db *gorm.DB
}

func NewGormGradeStore(db *gorm.DB) GradeStore {
	return &gormGradeStore{db: db}
}

func (s *gormGradeStore) LoadSheet(ctx context.Context, sheetID uuid.UUID) (*gradingModel.AnswerSheetModel, error) {
	var sheet gradingModel.AnswerSheetModel
	if err := s.db.WithContext(ctx).
		First(&sheet, "answer_sheet_id = ?", sheetID).Error; err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (s *gormGradeStore) LoadExam(ctx context.Context, examID uuid.UUID) (*examModel.ExamModel, error) {
	var exam examModel.ExamModel
	if err := s.db.WithContext(ctx).
		First(&exam, "exam_id = ?", examID).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

// SaveGraded: satu transaksi — update sheet jadi graded + tulis ulang
// semua baris question_evaluations. Hasil parsial tidak boleh terlihat.
func (s *gormGradeStore) SaveGraded(ctx context.Context, sheet *gradingModel.AnswerSheetModel, result *dto.GradeResult, rawResponse string, confidence float64) error {
	now := time.Now()

	// snapshot mentah = objek JSON persis seperti dikirim model (skor
	// sebelum diklem dsb.); hasil parse hanya jadi fallback
	rawJSON, err := ExtractJSONObject(rawResponse)
	if err != nil {
		rawJSON = string(mustJSON(result))
	}

	evals := make([]gradingModel.QuestionEvaluationModel, 0, len(result.Evaluations))
	for _, ev := range result.Evaluations {
		evals = append(evals, gradingModel.QuestionEvaluationModel{
			QuestionEvaluationAnswerSheetID: sheet.AnswerSheetID,
			QuestionEvaluationQuestionNum:   ev.QuestionNum,
			QuestionEvaluationExtractedText: result.ExtractedTextFor(ev.QuestionNum),
			QuestionEvaluationAIScore:       ev.Score,
			QuestionEvaluationFinalScore:    ev.Score,
			QuestionEvaluationMaxMarks:      ev.MaxMarks,
			QuestionEvaluationConfidence:    ev.Confidence,
			QuestionEvaluationReasoning:     ev.Reasoning,
			QuestionEvaluationStrengths:     pq.StringArray(ev.Strengths),
			QuestionEvaluationGaps:          pq.StringArray(ev.Gaps),
			QuestionEvaluationRootCause:     ev.RootCause,
		})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&gradingModel.AnswerSheetModel{}).
			Where("answer_sheet_id = ? AND answer_sheet_status = ?",
				sheet.AnswerSheetID, gradingModel.AnswerSheetStatusProcessing).
			Updates(map[string]any{
				"answer_sheet_status":           gradingModel.AnswerSheetStatusGraded,
				"answer_sheet_total_score":      result.TotalScore,
				"answer_sheet_confidence":       confidence,
				"answer_sheet_raw_response":     datatypes.JSON(rawJSON),
				"answer_sheet_overall_feedback": result.OverallFeedback,
				"answer_sheet_updated_at":       now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// sheet sudah diganti re-upload; batalkan tanpa error
			return nil
		}

		// bersihkan sisa run sebelumnya (kalau ada), lalu insert batch
		if err := tx.Where("question_evaluation_answer_sheet_id = ?", sheet.AnswerSheetID).
			Delete(&gradingModel.QuestionEvaluationModel{}).Error; err != nil {
			return err
		}
		return tx.Create(&evals).Error
	})
}

// mustJSON: hasil parse sudah pernah lewat sonic, marshal balik tidak
// mungkin gagal; fallback "{}" biar kolom jsonb tetap valid.
func mustJSON(v any) []byte {
	b, err := sonic.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return b
}
