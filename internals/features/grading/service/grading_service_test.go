package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	examModel "nilaiku_backend/internals/features/exams/model"
	"nilaiku_backend/internals/features/grading/dto"
	gradingModel "nilaiku_backend/internals/features/grading/model"
)

/* =========================
   Fakes
========================= */

type fakeGradeStore struct {
	sheet *gradingModel.AnswerSheetModel
	exam  *examModel.ExamModel

	savedResult     *dto.GradeResult
	savedRaw        string
	savedConfidence float64
	saveErr         error
}

func (f *fakeGradeStore) LoadSheet(ctx context.Context, sheetID uuid.UUID) (*gradingModel.AnswerSheetModel, error) {
	if f.sheet == nil {
		return nil, errors.New("record not found")
	}
	return f.sheet, nil
}

func (f *fakeGradeStore) LoadExam(ctx context.Context, examID uuid.UUID) (*examModel.ExamModel, error) {
	if f.exam == nil {
		return nil, errors.New("record not found")
	}
	return f.exam, nil
}

func (f *fakeGradeStore) SaveGraded(ctx context.Context, sheet *gradingModel.AnswerSheetModel, result *dto.GradeResult, raw string, confidence float64) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedResult = result
	f.savedRaw = raw
	f.savedConfidence = confidence
	return nil
}

type fakeEvalClient struct {
	response string
	err      error
	prompt   string
	images   []string
}

func (f *fakeEvalClient) GenerateVision(ctx context.Context, prompt string, imageURLs []string) (string, error) {
	f.prompt = prompt
	f.images = imageURLs
	return f.response, f.err
}

type fakeScreener struct {
	called bool
	err    error
	panic  bool
}

func (f *fakeScreener) Screen(ctx context.Context, sheetID, examID uuid.UUID, result *dto.GradeResult) error {
	f.called = true
	if f.panic {
		panic("screener meledak")
	}
	return f.err
}

func processingSheet(exam *examModel.ExamModel) *gradingModel.AnswerSheetModel {
	return &gradingModel.AnswerSheetModel{
		AnswerSheetID:        uuid.New(),
		AnswerSheetExamID:    uuid.New(),
		AnswerSheetStudentID: uuid.New(),
		AnswerSheetPageURLs:  pq.StringArray{"https://files.example.com/p1.jpg"},
		AnswerSheetStatus:    gradingModel.AnswerSheetStatusProcessing,
	}
}

const validResponse = `{
	"ocr_extractions": [
		{"question_num": 1, "extracted_text": "Benda diam tetap diam"},
		{"question_num": 2, "extracted_text": "F = 10 N"}
	],
	"evaluations": [
		{"question_num": 1, "score": 4.5, "confidence": 0.9, "reasoning": "ok", "root_cause": "None"},
		{"question_num": 2, "score": 6, "confidence": 0.8, "reasoning": "ok", "root_cause": "None"}
	],
	"overall_feedback": "Bagus",
	"total_score": 10.5,
	"confidence": 0.5
}`

/* =========================
   Tests
========================= */

func TestGradeAnswerSheet_HappyPath(t *testing.T) {
	exam := twoQuestionExam()
	store := &fakeGradeStore{sheet: processingSheet(exam), exam: exam}
	client := &fakeEvalClient{response: validResponse}
	screener := &fakeScreener{}

	svc := NewGradingService(store, client, screener)
	require.NoError(t, svc.GradeAnswerSheet(context.Background(), store.sheet.AnswerSheetID))

	require.NotNil(t, store.savedResult)
	// total = jumlah skor hasil klem (6 → 5), bukan klaim model
	assert.Equal(t, 9.5, store.savedResult.TotalScore)
	// confidence sheet = rata-rata confidence per soal
	assert.InDelta(t, 0.85, store.savedConfidence, 1e-9)
	assert.True(t, screener.called)

	// prompt membawa rubrik + halaman ikut dikirim
	assert.Contains(t, client.prompt, "Fisika")
	assert.Equal(t, []string{"https://files.example.com/p1.jpg"}, client.images)
}

// Gagal di model / parse / persist: tidak ada hasil parsial yang
// tertulis; sheet dibiarkan processing untuk regrade manual.
func TestGradeAnswerSheet_ModelFailure(t *testing.T) {
	exam := twoQuestionExam()
	store := &fakeGradeStore{sheet: processingSheet(exam), exam: exam}
	client := &fakeEvalClient{err: errors.New("timeout")}

	svc := NewGradingService(store, client, nil)
	err := svc.GradeAnswerSheet(context.Background(), store.sheet.AnswerSheetID)

	assert.ErrorIs(t, err, ErrModelCall)
	assert.Nil(t, store.savedResult)
}

func TestGradeAnswerSheet_MalformedResponse(t *testing.T) {
	exam := twoQuestionExam()
	store := &fakeGradeStore{sheet: processingSheet(exam), exam: exam}
	client := &fakeEvalClient{response: "maaf, gambarnya buram"}

	svc := NewGradingService(store, client, nil)
	err := svc.GradeAnswerSheet(context.Background(), store.sheet.AnswerSheetID)

	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Nil(t, store.savedResult)
}

func TestGradeAnswerSheet_PersistenceFailure(t *testing.T) {
	exam := twoQuestionExam()
	store := &fakeGradeStore{sheet: processingSheet(exam), exam: exam, saveErr: errors.New("db down")}
	client := &fakeEvalClient{response: validResponse}

	svc := NewGradingService(store, client, nil)
	err := svc.GradeAnswerSheet(context.Background(), store.sheet.AnswerSheetID)

	assert.ErrorIs(t, err, ErrPersistence)
}

// Screening tidak boleh mempengaruhi hasil grading: error maupun panic
// di screener dibiarkan lewat, nilai tetap tersimpan.
func TestGradeAnswerSheet_ScreenerFailureDoesNotAffectGrade(t *testing.T) {
	for name, screener := range map[string]*fakeScreener{
		"error": {err: errors.New("embedding API down")},
		"panic": {panic: true},
	} {
		t.Run(name, func(t *testing.T) {
			exam := twoQuestionExam()
			store := &fakeGradeStore{sheet: processingSheet(exam), exam: exam}
			client := &fakeEvalClient{response: validResponse}

			svc := NewGradingService(store, client, screener)
			require.NoError(t, svc.GradeAnswerSheet(context.Background(), store.sheet.AnswerSheetID))

			assert.True(t, screener.called)
			require.NotNil(t, store.savedResult)
			assert.Equal(t, 9.5, store.savedResult.TotalScore)
		})
	}
}

// Sheet yang sudah approved tidak boleh ditimpa goroutine lama.
func TestGradeAnswerSheet_SkipsApprovedSheet(t *testing.T) {
	exam := twoQuestionExam()
	sheet := processingSheet(exam)
	sheet.AnswerSheetStatus = gradingModel.AnswerSheetStatusApproved
	store := &fakeGradeStore{sheet: sheet, exam: exam}
	client := &fakeEvalClient{response: validResponse}

	svc := NewGradingService(store, client, nil)
	require.NoError(t, svc.GradeAnswerSheet(context.Background(), sheet.AnswerSheetID))

	assert.Empty(t, client.prompt, "model tidak boleh dipanggil")
	assert.Nil(t, store.savedResult)
}

func TestGradeAnswerSheet_SheetNotFound(t *testing.T) {
	store := &fakeGradeStore{}
	svc := NewGradingService(store, &fakeEvalClient{}, nil)

	err := svc.GradeAnswerSheet(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSheetNotFound)
}
