package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"nilaiku_backend/internals/features/grading/dto"
	gradingModel "nilaiku_backend/internals/features/grading/model"
)

// ErrSheetProcessing: upload ulang / hapus ditolak selama pipeline
// masih memegang sheet-nya.
var ErrSheetProcessing = errors.New("lembar jawaban masih diproses")

// SheetOps: operasi tulis di dalam satu transaksi penggantian sheet.
type SheetOps interface {
	DeleteEvaluations(sheetID uuid.UUID) error
	DeleteFeedback(sheetID uuid.UUID) error
	DeletePlagiarism(sheetID uuid.UUID) error
	DeleteSheet(sheetID uuid.UUID) error
	CreateSheet(sheet *gradingModel.AnswerSheetModel) error
}

// SheetStore: persistensi lembar jawaban untuk alur upload & hapus.
type SheetStore interface {
	// FindByExamStudent mengembalikan (nil, nil) kalau siswa belum
	// pernah upload di exam tersebut.
	FindByExamStudent(ctx context.Context, examID, studentID uuid.UUID) (*gradingModel.AnswerSheetModel, error)
	Tx(ctx context.Context, fn func(ops SheetOps) error) error
}

// UploadService mengurus siklus hidup lembar jawaban di luar pipeline:
// upload, penggantian, dan penghapusan. Satu siswa hanya punya satu
// sheet per exam — upload kedua adalah PENGGANTIAN: hasil lama
// (evaluasi, feedback, skor plagiat) dihapus dulu, baru sheet baru
// dibuat, semuanya dalam satu transaksi.
type UploadService struct {
	Store SheetStore
}

func NewUploadService(store SheetStore) *UploadService {
	return &UploadService{Store: store}
}

// Submit membuat sheet baru berstatus processing, menggantikan sheet
// lama milik siswa yang sama kalau ada. Sheet lama yang masih
// processing memblokir penggantian (ErrSheetProcessing).
func (s *UploadService) Submit(ctx context.Context, req *dto.CreateAnswerSheetRequest) (*gradingModel.AnswerSheetModel, error) {
	existing, err := s.Store.FindByExamStudent(ctx, req.ExamID, req.StudentID)
	if err != nil {
		return nil, err
	}
	if existing != nil && !existing.CanReplace() {
		return nil, ErrSheetProcessing
	}

	sheet := &gradingModel.AnswerSheetModel{
		AnswerSheetExamID:       req.ExamID,
		AnswerSheetStudentID:    req.StudentID,
		AnswerSheetStudentName:  req.StudentName,
		AnswerSheetPageURLs:     pq.StringArray(req.PageURLs),
		AnswerSheetStatus:       gradingModel.AnswerSheetStatusProcessing,
		AnswerSheetReviewStatus: gradingModel.ReviewStatusNone,
	}
	err = s.Store.Tx(ctx, func(ops SheetOps) error {
		if existing != nil {
			if err := deleteCascade(ops, existing.AnswerSheetID); err != nil {
				return err
			}
		}
		return ops.CreateSheet(sheet)
	})
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

// Delete menghapus sheet beserta seluruh turunannya. Sheet yang masih
// diproses tidak boleh dihapus.
func (s *UploadService) Delete(ctx context.Context, sheet *gradingModel.AnswerSheetModel) error {
	if sheet.AnswerSheetStatus == gradingModel.AnswerSheetStatusProcessing {
		return ErrSheetProcessing
	}
	return s.Store.Tx(ctx, func(ops SheetOps) error {
		return deleteCascade(ops, sheet.AnswerSheetID)
	})
}

// deleteCascade: anak dulu, sheet terakhir.
func deleteCascade(ops SheetOps, sheetID uuid.UUID) error {
	if err := ops.DeleteEvaluations(sheetID); err != nil {
		return err
	}
	if err := ops.DeleteFeedback(sheetID); err != nil {
		return err
	}
	if err := ops.DeletePlagiarism(sheetID); err != nil {
		return err
	}
	return ops.DeleteSheet(sheetID)
}
