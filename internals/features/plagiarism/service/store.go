package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nilaiku_backend/internals/features/plagiarism/model"
)

type gormScreenStore struct {
	db *gorm.DB
}

func NewGormScreenStore(db *gorm.DB) ScreenStore {
	return &gormScreenStore{db: db}
}

func (s *gormScreenStore) PeerRows(ctx context.Context, examID, excludeSheetID uuid.UUID) ([]model.PlagiarismScoreModel, error) {
	var rows []model.PlagiarismScoreModel
	if err := s.db.WithContext(ctx).
		Where("plagiarism_score_exam_id = ? AND plagiarism_score_answer_sheet_id <> ?", examID, excludeSheetID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *gormScreenStore) StudentNames(ctx context.Context, sheetIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	type row struct {
		AnswerSheetID          uuid.UUID `gorm:"column:answer_sheet_id"`
		AnswerSheetStudentName string    `gorm:"column:answer_sheet_student_name"`
	}
	var rows []row
	if err := s.db.WithContext(ctx).
		Table("answer_sheets").
		Select("answer_sheet_id, answer_sheet_student_name").
		Where("answer_sheet_id IN ?", sheetIDs).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]string, len(rows))
	for _, r := range rows {
		out[r.AnswerSheetID] = r.AnswerSheetStudentName
	}
	return out, nil
}

// Upsert: satu baris per sheet — re-grade menimpa hasil lama.
// checked_at diisi oleh pemanggil; baris pending sengaja tanpa stempel.
func (s *gormScreenStore) Upsert(ctx context.Context, row *model.PlagiarismScoreModel) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "plagiarism_score_answer_sheet_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"plagiarism_score_peer_similarity",
				"plagiarism_score_combined_score",
				"plagiarism_score_status",
				"plagiarism_score_embedding",
				"plagiarism_score_matched_peers",
				"plagiarism_score_checked_at",
			}),
		}).
		Create(row).Error
}
