package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	gradingModel "nilaiku_backend/internals/features/grading/model"
	plagModel "nilaiku_backend/internals/features/plagiarism/model"
)

type gormSheetStore struct {
	db *gorm.DB
}

func NewGormSheetStore(db *gorm.DB) SheetStore {
	return &gormSheetStore{db: db}
}

func (s *gormSheetStore) FindByExamStudent(ctx context.Context, examID, studentID uuid.UUID) (*gradingModel.AnswerSheetModel, error) {
	var sheet gradingModel.AnswerSheetModel
	err := s.db.WithContext(ctx).
		First(&sheet, "answer_sheet_exam_id = ? AND answer_sheet_student_id = ?",
			examID, studentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (s *gormSheetStore) Tx(ctx context.Context, fn func(ops SheetOps) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormSheetOps{tx: tx})
	})
}

type gormSheetOps struct {
	tx *gorm.DB
}

func (o gormSheetOps) DeleteEvaluations(sheetID uuid.UUID) error {
	return o.tx.Where("question_evaluation_answer_sheet_id = ?", sheetID).
		Delete(&gradingModel.QuestionEvaluationModel{}).Error
}

func (o gormSheetOps) DeleteFeedback(sheetID uuid.UUID) error {
	return o.tx.Where("feedback_analysis_answer_sheet_id = ?", sheetID).
		Delete(&gradingModel.FeedbackAnalysisModel{}).Error
}

func (o gormSheetOps) DeletePlagiarism(sheetID uuid.UUID) error {
	return o.tx.Where("plagiarism_score_answer_sheet_id = ?", sheetID).
		Delete(&plagModel.PlagiarismScoreModel{}).Error
}

func (o gormSheetOps) DeleteSheet(sheetID uuid.UUID) error {
	return o.tx.Where("answer_sheet_id = ?", sheetID).
		Delete(&gradingModel.AnswerSheetModel{}).Error
}

func (o gormSheetOps) CreateSheet(sheet *gradingModel.AnswerSheetModel) error {
	return o.tx.Create(sheet).Error
}
