package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	examModel "nilaiku_backend/internals/features/exams/model"
	"nilaiku_backend/internals/features/grading/dto"
	gradingModel "nilaiku_backend/internals/features/grading/model"
)

type fakeApprovalStore struct {
	sheet *gradingModel.AnswerSheetModel
	exam  *examModel.ExamModel
	evals []gradingModel.QuestionEvaluationModel

	draftUpdates  []DraftUpdate
	draftFeedback *string
	draftTotal    float64

	approvedTotal float64
	approvedFB    *gradingModel.FeedbackAnalysisModel

	disputeItems []dto.DisputeItem
	resolved     bool
}

func (f *fakeApprovalStore) LoadSheet(ctx context.Context, sheetID uuid.UUID) (*gradingModel.AnswerSheetModel, error) {
	if f.sheet == nil {
		return nil, errors.New("record not found")
	}
	return f.sheet, nil
}

func (f *fakeApprovalStore) LoadExam(ctx context.Context, examID uuid.UUID) (*examModel.ExamModel, error) {
	if f.exam == nil {
		return nil, errors.New("record not found")
	}
	return f.exam, nil
}

func (f *fakeApprovalStore) LoadEvaluations(ctx context.Context, sheetID uuid.UUID) ([]gradingModel.QuestionEvaluationModel, error) {
	return f.evals, nil
}

func (f *fakeApprovalStore) ApplyDraft(ctx context.Context, sheetID uuid.UUID, updates []DraftUpdate, overallFeedback *string, newTotal float64) error {
	f.draftUpdates = updates
	f.draftFeedback = overallFeedback
	f.draftTotal = newTotal
	return nil
}

func (f *fakeApprovalStore) Approve(ctx context.Context, sheetID uuid.UUID, total float64, fb *gradingModel.FeedbackAnalysisModel) error {
	f.approvedTotal = total
	f.approvedFB = fb
	return nil
}

func (f *fakeApprovalStore) SaveDispute(ctx context.Context, sheetID uuid.UUID, items []dto.DisputeItem) error {
	f.disputeItems = items
	return nil
}

func (f *fakeApprovalStore) ResolveReview(ctx context.Context, sheetID uuid.UUID) error {
	f.resolved = true
	return nil
}

func gradedSheetFixture() (*gradingModel.AnswerSheetModel, *examModel.ExamModel, []gradingModel.QuestionEvaluationModel) {
	exam := &examModel.ExamModel{
		ExamID:      uuid.New(),
		ExamName:    "UTS Fisika",
		ExamSubject: "Fisika",
		ExamClass:   "10",
		ExamMarkingScheme: datatypes.NewJSONSlice([]examModel.MarkingSchemeQuestion{
			{QuestionNum: 1, QuestionText: "Hukum Newton", MaxMarks: 5},
			{QuestionNum: 2, QuestionText: "Gaya resultan", MaxMarks: 5},
			{QuestionNum: 3, QuestionText: "Definisi momentum", MaxMarks: 4},
		}),
		ExamTotalMarks: 14,
	}
	sheet := &gradingModel.AnswerSheetModel{
		AnswerSheetID:           uuid.New(),
		AnswerSheetExamID:       exam.ExamID,
		AnswerSheetStudentID:    uuid.New(),
		AnswerSheetStatus:       gradingModel.AnswerSheetStatusGraded,
		AnswerSheetReviewStatus: gradingModel.ReviewStatusNone,
	}
	evals := []gradingModel.QuestionEvaluationModel{
		{
			QuestionEvaluationAnswerSheetID: sheet.AnswerSheetID,
			QuestionEvaluationQuestionNum:   1,
			QuestionEvaluationFinalScore:    3,
			QuestionEvaluationMaxMarks:      5,
			QuestionEvaluationRootCause:     gradingModel.RootCauseConcept,
		},
		{
			QuestionEvaluationAnswerSheetID: sheet.AnswerSheetID,
			QuestionEvaluationQuestionNum:   2,
			QuestionEvaluationFinalScore:    4.5,
			QuestionEvaluationMaxMarks:      5,
			QuestionEvaluationRootCause:     gradingModel.RootCauseCalculation,
		},
		{
			QuestionEvaluationAnswerSheetID: sheet.AnswerSheetID,
			QuestionEvaluationQuestionNum:   3,
			QuestionEvaluationFinalScore:    4,
			QuestionEvaluationMaxMarks:      4,
			QuestionEvaluationRootCause:     gradingModel.RootCauseNone,
		},
	}
	return sheet, exam, evals
}

/* =========================
   Draft
========================= */

func TestSaveDraft_ClampsAndRecomputesTotal(t *testing.T) {
	sheet, exam, evals := gradedSheetFixture()
	store := &fakeApprovalStore{sheet: sheet, exam: exam, evals: evals}
	svc := NewApprovalService(store)

	fb := "Perbaiki konsep dasarnya"
	reason := "Jawaban sebenarnya benar, OCR salah baca"
	err := svc.SaveDraft(context.Background(), sheet.AnswerSheetID, &dto.SaveDraftRequest{
		Scores: []dto.DraftScore{
			{QuestionNum: 1, TeacherScore: 9, Reasoning: &reason}, // di atas max 5 → dijepit
		},
		OverallFeedback: &fb,
	})
	require.NoError(t, err)

	require.Len(t, store.draftUpdates, 1)
	assert.Equal(t, 5.0, store.draftUpdates[0].TeacherScore)
	require.NotNil(t, store.draftUpdates[0].Reasoning)
	assert.Equal(t, reason, *store.draftUpdates[0].Reasoning)
	// total = 5 + 4.5 + 4
	assert.Equal(t, 13.5, store.draftTotal)
	require.NotNil(t, store.draftFeedback)
	assert.Equal(t, fb, *store.draftFeedback)
}

func TestSaveDraft_RejectsUnknownQuestion(t *testing.T) {
	sheet, exam, evals := gradedSheetFixture()
	store := &fakeApprovalStore{sheet: sheet, exam: exam, evals: evals}
	svc := NewApprovalService(store)

	err := svc.SaveDraft(context.Background(), sheet.AnswerSheetID, &dto.SaveDraftRequest{
		Scores: []dto.DraftScore{{QuestionNum: 42, TeacherScore: 1}},
	})
	require.Error(t, err)
	assert.Empty(t, store.draftUpdates)
}

func TestSaveDraft_RejectedAfterApproval(t *testing.T) {
	sheet, exam, evals := gradedSheetFixture()
	sheet.AnswerSheetStatus = gradingModel.AnswerSheetStatusApproved
	store := &fakeApprovalStore{sheet: sheet, exam: exam, evals: evals}
	svc := NewApprovalService(store)

	err := svc.SaveDraft(context.Background(), sheet.AnswerSheetID, &dto.SaveDraftRequest{
		Scores: []dto.DraftScore{{QuestionNum: 1, TeacherScore: 4}},
	})
	assert.ErrorIs(t, err, ErrSheetNotEditable)
}

/* =========================
   Approve
========================= */

func TestApprove_SnapshotsExamAndAggregatesRootCause(t *testing.T) {
	sheet, exam, evals := gradedSheetFixture()
	store := &fakeApprovalStore{sheet: sheet, exam: exam, evals: evals}
	svc := NewApprovalService(store)

	require.NoError(t, svc.Approve(context.Background(), sheet.AnswerSheetID))
	require.NotNil(t, store.approvedFB)

	fb := store.approvedFB
	assert.Equal(t, 11.5, store.approvedTotal)
	assert.Equal(t, "UTS Fisika", fb.FeedbackAnalysisExamName)
	assert.Equal(t, 14.0, fb.FeedbackAnalysisExamTotalMarks)
	assert.Len(t, []examModel.MarkingSchemeQuestion(fb.FeedbackAnalysisExamMarkingScheme), 3)

	// nilai hilang per kategori: q1 concept 2, q2 calculation 0.5, q3 penuh
	sum := fb.FeedbackAnalysisRootCauseSummary.Data()
	assert.Equal(t, 2.0, sum.Concept)
	assert.Equal(t, 0.5, sum.Calculation)
	assert.Equal(t, 0.0, sum.Keyword)

	// snapshot kebal terhadap edit rubrik setelah approve
	exam.ExamName = "UTS Fisika (Revisi)"
	exam.ExamMarkingScheme = datatypes.NewJSONSlice([]examModel.MarkingSchemeQuestion{})
	assert.Equal(t, "UTS Fisika", fb.FeedbackAnalysisExamName)
	assert.Len(t, []examModel.MarkingSchemeQuestion(fb.FeedbackAnalysisExamMarkingScheme), 3)
}

func TestApprove_CarriesStudentOSFieldsFromRawResponse(t *testing.T) {
	sheet, exam, evals := gradedSheetFixture()
	sheet.AnswerSheetRawResponse = []byte(`{
		"evaluations": [{"question_num": 1, "score": 3, "confidence": 0.9}],
		"student_os_analysis": {
			"real_world_application": "Momentum dipakai di desain airbag mobil",
			"focus_areas": ["Hukum Newton"],
			"roi_analysis": [{"topic": "Hukum Newton", "potential_gain": 2, "effort": "Low"}]
		},
		"total_score": 11.5,
		"confidence": 0.9
	}`)
	store := &fakeApprovalStore{sheet: sheet, exam: exam, evals: evals}
	svc := NewApprovalService(store)

	require.NoError(t, svc.Approve(context.Background(), sheet.AnswerSheetID))
	fb := store.approvedFB
	require.NotNil(t, fb)

	assert.Equal(t, "Momentum dipakai di desain airbag mobil", fb.FeedbackAnalysisRealWorldApplication)
	assert.Equal(t, []string{"Hukum Newton"}, []string(fb.FeedbackAnalysisFocusAreas))
	roi := []gradingModel.ROIItem(fb.FeedbackAnalysisROIAnalysis)
	require.Len(t, roi, 1)
	assert.Equal(t, 2.0, roi[0].PotentialGain)
}

func TestApprove_RejectsWrongStatus(t *testing.T) {
	for name, status := range map[string]string{
		"pending":    gradingModel.AnswerSheetStatusPending,
		"processing": gradingModel.AnswerSheetStatusProcessing,
		"approved":   gradingModel.AnswerSheetStatusApproved,
	} {
		t.Run(name, func(t *testing.T) {
			sheet, exam, evals := gradedSheetFixture()
			sheet.AnswerSheetStatus = status
			store := &fakeApprovalStore{sheet: sheet, exam: exam, evals: evals}
			svc := NewApprovalService(store)

			err := svc.Approve(context.Background(), sheet.AnswerSheetID)
			assert.ErrorIs(t, err, ErrSheetNotApprovable)
			assert.Nil(t, store.approvedFB)
		})
	}
}

func TestAggregateRootCause_IgnoresFullMarksAndNone(t *testing.T) {
	evals := []gradingModel.QuestionEvaluationModel{
		{QuestionEvaluationFinalScore: 5, QuestionEvaluationMaxMarks: 5, QuestionEvaluationRootCause: gradingModel.RootCauseConcept},
		{QuestionEvaluationFinalScore: 1, QuestionEvaluationMaxMarks: 4, QuestionEvaluationRootCause: gradingModel.RootCauseNone},
		{QuestionEvaluationFinalScore: 2, QuestionEvaluationMaxMarks: 5, QuestionEvaluationRootCause: gradingModel.RootCauseKeywording},
	}
	sum := AggregateRootCause(evals)
	assert.Equal(t, 0.0, sum.Concept)
	assert.Equal(t, 0.0, sum.Calculation)
	assert.Equal(t, 3.0, sum.Keyword)
}

/* =========================
   Dispute & Resolve
========================= */

func approvedSheetFixture() (*gradingModel.AnswerSheetModel, *examModel.ExamModel, []gradingModel.QuestionEvaluationModel) {
	sheet, exam, evals := gradedSheetFixture()
	sheet.AnswerSheetStatus = gradingModel.AnswerSheetStatusApproved
	return sheet, exam, evals
}

func TestDispute_HappyPath(t *testing.T) {
	sheet, exam, evals := approvedSheetFixture()
	store := &fakeApprovalStore{sheet: sheet, exam: exam, evals: evals}
	svc := NewApprovalService(store)

	err := svc.Dispute(context.Background(), sheet.AnswerSheetID, sheet.AnswerSheetStudentID, &dto.DisputeRequest{
		Items: []dto.DisputeItem{{QuestionNum: 1, Comment: "Jawaban saya sudah menyebut inersia"}},
	})
	require.NoError(t, err)
	require.Len(t, store.disputeItems, 1)
}

func TestDispute_RejectsForeignStudent(t *testing.T) {
	sheet, exam, evals := approvedSheetFixture()
	store := &fakeApprovalStore{sheet: sheet, exam: exam, evals: evals}
	svc := NewApprovalService(store)

	err := svc.Dispute(context.Background(), sheet.AnswerSheetID, uuid.New(), &dto.DisputeRequest{
		Items: []dto.DisputeItem{{QuestionNum: 1, Comment: "bukan punya saya"}},
	})
	assert.ErrorIs(t, err, ErrSheetNotFound)
	assert.Empty(t, store.disputeItems)
}

func TestDispute_OnlyOncePerSheet(t *testing.T) {
	sheet, exam, evals := approvedSheetFixture()
	sheet.AnswerSheetReviewStatus = gradingModel.ReviewStatusRequested
	store := &fakeApprovalStore{sheet: sheet, exam: exam, evals: evals}
	svc := NewApprovalService(store)

	err := svc.Dispute(context.Background(), sheet.AnswerSheetID, sheet.AnswerSheetStudentID, &dto.DisputeRequest{
		Items: []dto.DisputeItem{{QuestionNum: 1, Comment: "masih keberatan"}},
	})
	assert.ErrorIs(t, err, ErrDisputeNotAllowed)
}

func TestDispute_RejectsBeforeApproval(t *testing.T) {
	sheet, exam, evals := gradedSheetFixture() // masih graded
	store := &fakeApprovalStore{sheet: sheet, exam: exam, evals: evals}
	svc := NewApprovalService(store)

	err := svc.Dispute(context.Background(), sheet.AnswerSheetID, sheet.AnswerSheetStudentID, &dto.DisputeRequest{
		Items: []dto.DisputeItem{{QuestionNum: 1, Comment: "belum final tapi protes"}},
	})
	assert.ErrorIs(t, err, ErrDisputeNotAllowed)
}

func TestResolveReview(t *testing.T) {
	sheet, exam, evals := approvedSheetFixture()
	sheet.AnswerSheetReviewStatus = gradingModel.ReviewStatusRequested
	store := &fakeApprovalStore{sheet: sheet, exam: exam, evals: evals}
	svc := NewApprovalService(store)

	require.NoError(t, svc.ResolveReview(context.Background(), sheet.AnswerSheetID))
	assert.True(t, store.resolved)
}

func TestResolveReview_NoOpenReview(t *testing.T) {
	sheet, exam, evals := approvedSheetFixture()
	store := &fakeApprovalStore{sheet: sheet, exam: exam, evals: evals}
	svc := NewApprovalService(store)

	err := svc.ResolveReview(context.Background(), sheet.AnswerSheetID)
	assert.ErrorIs(t, err, ErrNoOpenReview)
	assert.False(t, store.resolved)
}
