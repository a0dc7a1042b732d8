package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	examModel "nilaiku_backend/internals/features/exams/model"
	"nilaiku_backend/internals/features/grading/dto"
	gradingModel "nilaiku_backend/internals/features/grading/model"
)

// EvalClient: pemanggil model vision. Implementasi production ada di
// helpers/gemini; test pakai fake.
type EvalClient interface {
	GenerateVision(ctx context.Context, prompt string, imageURLs []string) (string, error)
}

// Screener: pemeriksa indikasi kerja sama antar siswa. Dipanggil
// best-effort setelah hasil grading tersimpan — kegagalannya tidak
// boleh membatalkan nilai.
type Screener interface {
	Screen(ctx context.Context, sheetID, examID uuid.UUID, result *dto.GradeResult) error
}

// GradeStore: akses data yang dibutuhkan pipeline grading.
type GradeStore interface {
	LoadSheet(ctx context.Context, sheetID uuid.UUID) (*gradingModel.AnswerSheetModel, error)
	LoadExam(ctx context.Context, examID uuid.UUID) (*examModel.ExamModel, error)
	// SaveGraded menulis status graded + hasil per soal dalam satu transaksi.
	SaveGraded(ctx context.Context, sheet *gradingModel.AnswerSheetModel, result *dto.GradeResult, rawResponse string, confidence float64) error
}

// GradingService menjalankan pipeline: prompt → model → validasi → simpan.
type GradingService struct {
	Store    GradeStore
	Client   EvalClient
	Screener Screener // boleh nil
	Timeout  time.Duration
}

func NewGradingService(store GradeStore, client EvalClient, screener Screener) *GradingService {
	return &GradingService{
		Store:    store,
		Client:   client,
		Screener: screener,
		Timeout:  3 * time.Minute,
	}
}

// GradeAnswerSheet memproses satu lembar jawaban sampai selesai.
// Dipanggil dari goroutine setelah upload. Kalau gagal di tahap mana
// pun, sheet TETAP processing (tidak ada retry otomatis) — guru
// memicu ulang lewat endpoint regrade.
func (s *GradingService) GradeAnswerSheet(ctx context.Context, sheetID uuid.UUID) error {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	sheet, err := s.Store.LoadSheet(ctx, sheetID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSheetNotFound, err)
	}
	if sheet.IsTerminalForGrading() {
		// re-upload sudah menggantikan sheet ini, jangan timpa
		return nil
	}

	exam, err := s.Store.LoadExam(ctx, sheet.AnswerSheetExamID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExamNotFound, err)
	}

	prompt, err := BuildGradingPrompt(exam)
	if err != nil {
		return err
	}

	raw, err := s.Client.GenerateVision(ctx, prompt, sheet.AnswerSheetPageURLs)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModelCall, err)
	}

	result, err := ParseGradeResult(raw, exam)
	if err != nil {
		return err
	}

	confidence := sheetConfidence(result)
	if err := s.Store.SaveGraded(ctx, sheet, result, raw, confidence); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.screenSoft(ctx, sheet, result)
	return nil
}

// sheetConfidence: rata-rata confidence per soal (sudah diklem 0..1).
// Klem skor tidak mempengaruhi angka ini.
func sheetConfidence(result *dto.GradeResult) float64 {
	vals := make([]float64, 0, len(result.Evaluations))
	for _, ev := range result.Evaluations {
		vals = append(vals, ev.Confidence)
	}
	mean, err := stats.Mean(vals)
	if err != nil {
		return result.Confidence
	}
	return mean
}

// screenSoft menjalankan screening plagiat tanpa boleh menjatuhkan
// hasil grading: error hanya dicatat, panic ditangkap.
func (s *GradingService) screenSoft(ctx context.Context, sheet *gradingModel.AnswerSheetModel, result *dto.GradeResult) {
	if s.Screener == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[GRADING] ⚠️ panic saat screening sheet %s: %v", sheet.AnswerSheetID, r)
		}
	}()
	if err := s.Screener.Screen(ctx, sheet.AnswerSheetID, sheet.AnswerSheetExamID, result); err != nil {
		log.Printf("[GRADING] ⚠️ screening sheet %s gagal: %v", sheet.AnswerSheetID, err)
	}
}

