package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	examModel "nilaiku_backend/internals/features/exams/model"
	"nilaiku_backend/internals/features/grading/dto"
	gradingModel "nilaiku_backend/internals/features/grading/model"
)

type gormApprovalStore struct {
	db *gorm.DB
}

func NewGormApprovalStore(db *gorm.DB) ApprovalStore {
	return &gormApprovalStore{db: db}
}

func (s *gormApprovalStore) LoadSheet(ctx context.Context, sheetID uuid.UUID) (*gradingModel.AnswerSheetModel, error) {
	var sheet gradingModel.AnswerSheetModel
	if err := s.db.WithContext(ctx).
		First(&sheet, "answer_sheet_id = ?", sheetID).Error; err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (s *gormApprovalStore) LoadExam(ctx context.Context, examID uuid.UUID) (*examModel.ExamModel, error) {
	var exam examModel.ExamModel
	if err := s.db.WithContext(ctx).
		First(&exam, "exam_id = ?", examID).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (s *gormApprovalStore) LoadEvaluations(ctx context.Context, sheetID uuid.UUID) ([]gradingModel.QuestionEvaluationModel, error) {
	var evals []gradingModel.QuestionEvaluationModel
	if err := s.db.WithContext(ctx).
		Where("question_evaluation_answer_sheet_id = ?", sheetID).
		Order("question_evaluation_question_num ASC").
		Find(&evals).Error; err != nil {
		return nil, err
	}
	return evals, nil
}

func (s *gormApprovalStore) ApplyDraft(ctx context.Context, sheetID uuid.UUID, updates []DraftUpdate, overallFeedback *string, newTotal float64) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			cols := map[string]any{
				"question_evaluation_teacher_score": u.TeacherScore,
				"question_evaluation_final_score":   u.TeacherScore,
				"question_evaluation_updated_at":    now,
			}
			if u.Reasoning != nil {
				cols["question_evaluation_reasoning"] = *u.Reasoning
			}
			if err := tx.Model(&gradingModel.QuestionEvaluationModel{}).
				Where("question_evaluation_answer_sheet_id = ? AND question_evaluation_question_num = ?",
					sheetID, u.QuestionNum).
				Updates(cols).Error; err != nil {
				return err
			}
		}

		sheetUpdates := map[string]any{
			"answer_sheet_total_score": newTotal,
			"answer_sheet_updated_at":  now,
		}
		if overallFeedback != nil {
			sheetUpdates["answer_sheet_overall_feedback"] = *overallFeedback
		}
		return tx.Model(&gradingModel.AnswerSheetModel{}).
			Where("answer_sheet_id = ?", sheetID).
			Updates(sheetUpdates).Error
	})
}

func (s *gormApprovalStore) Approve(ctx context.Context, sheetID uuid.UUID, total float64, fb *gradingModel.FeedbackAnalysisModel) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&gradingModel.AnswerSheetModel{}).
			Where("answer_sheet_id = ? AND answer_sheet_status = ?",
				sheetID, gradingModel.AnswerSheetStatusGraded).
			Updates(map[string]any{
				"answer_sheet_status":      gradingModel.AnswerSheetStatusApproved,
				"answer_sheet_total_score": total,
				"answer_sheet_approved_at": now,
				"answer_sheet_updated_at":  now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSheetNotApprovable
		}
		return tx.Create(fb).Error
	})
}

func (s *gormApprovalStore) SaveDispute(ctx context.Context, sheetID uuid.UUID, items []dto.DisputeItem) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, it := range items {
			if err := tx.Model(&gradingModel.QuestionEvaluationModel{}).
				Where("question_evaluation_answer_sheet_id = ? AND question_evaluation_question_num = ?",
					sheetID, it.QuestionNum).
				Updates(map[string]any{
					"question_evaluation_is_review_requested": true,
					"question_evaluation_student_comment":     it.Comment,
					"question_evaluation_updated_at":          now,
				}).Error; err != nil {
				return err
			}
		}
		res := tx.Model(&gradingModel.AnswerSheetModel{}).
			Where("answer_sheet_id = ? AND answer_sheet_review_status = ?",
				sheetID, gradingModel.ReviewStatusNone).
			Updates(map[string]any{
				"answer_sheet_review_status": gradingModel.ReviewStatusRequested,
				"answer_sheet_updated_at":    now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDisputeNotAllowed
		}
		return nil
	})
}

func (s *gormApprovalStore) ResolveReview(ctx context.Context, sheetID uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&gradingModel.AnswerSheetModel{}).
		Where("answer_sheet_id = ? AND answer_sheet_review_status = ?",
			sheetID, gradingModel.ReviewStatusRequested).
		Updates(map[string]any{
			"answer_sheet_review_status": gradingModel.ReviewStatusResolved,
			"answer_sheet_updated_at":    time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoOpenReview
	}
	return nil
}
