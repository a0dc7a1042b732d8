package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"

	examModel "nilaiku_backend/internals/features/exams/model"
	"nilaiku_backend/internals/features/grading/dto"
	gradingModel "nilaiku_backend/internals/features/grading/model"
)

// Sentinel untuk pelanggaran lifecycle; controller memetakan ke 409.
var (
	ErrSheetNotEditable   = errors.New("lembar jawaban tidak bisa dikoreksi pada status ini")
	ErrSheetNotApprovable = errors.New("lembar jawaban belum siap di-approve")
	ErrDisputeNotAllowed  = errors.New("review hanya bisa diajukan atas hasil yang sudah final")
	ErrNoOpenReview       = errors.New("tidak ada permintaan review yang terbuka")
)

// DraftUpdate: hasil klem satu koreksi guru, siap ditulis ke DB.
type DraftUpdate struct {
	QuestionNum  int
	TeacherScore float64
	Reasoning    *string
}

// ApprovalStore: akses data untuk alur koreksi, approve, dan dispute.
type ApprovalStore interface {
	LoadSheet(ctx context.Context, sheetID uuid.UUID) (*gradingModel.AnswerSheetModel, error)
	LoadExam(ctx context.Context, examID uuid.UUID) (*examModel.ExamModel, error)
	LoadEvaluations(ctx context.Context, sheetID uuid.UUID) ([]gradingModel.QuestionEvaluationModel, error)
	// ApplyDraft menulis koreksi + total baru dalam satu transaksi.
	ApplyDraft(ctx context.Context, sheetID uuid.UUID, updates []DraftUpdate, overallFeedback *string, newTotal float64) error
	// Approve menulis status approved + snapshot feedback dalam satu transaksi.
	Approve(ctx context.Context, sheetID uuid.UUID, total float64, fb *gradingModel.FeedbackAnalysisModel) error
	SaveDispute(ctx context.Context, sheetID uuid.UUID, items []dto.DisputeItem) error
	ResolveReview(ctx context.Context, sheetID uuid.UUID) error
}

// ApprovalService: semua mutasi setelah grading selesai.
type ApprovalService struct {
	Store ApprovalStore
}

func NewApprovalService(store ApprovalStore) *ApprovalService {
	return &ApprovalService{Store: store}
}

/* =======================================================
   DRAFT (koreksi guru sebelum approve)
======================================================= */

// SaveDraft menyimpan koreksi nilai guru. Skor diklem ke max_marks
// rubrik; soal yang tidak ada di lembar jawaban ditolak. Total sheet
// dihitung ulang dari final_score sesudah koreksi.
func (s *ApprovalService) SaveDraft(ctx context.Context, sheetID uuid.UUID, req *dto.SaveDraftRequest) error {
	sheet, err := s.Store.LoadSheet(ctx, sheetID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSheetNotFound, err)
	}
	if !sheet.CanEditScores() {
		return ErrSheetNotEditable
	}

	evals, err := s.Store.LoadEvaluations(ctx, sheetID)
	if err != nil {
		return err
	}
	byQ := make(map[int]*gradingModel.QuestionEvaluationModel, len(evals))
	for i := range evals {
		byQ[evals[i].QuestionEvaluationQuestionNum] = &evals[i]
	}

	updates := make([]DraftUpdate, 0, len(req.Scores))
	for _, sc := range req.Scores {
		ev, ok := byQ[sc.QuestionNum]
		if !ok {
			return fmt.Errorf("soal %d tidak ada di lembar jawaban ini", sc.QuestionNum)
		}
		clamped := clamp(sc.TeacherScore, 0, ev.QuestionEvaluationMaxMarks)
		ev.QuestionEvaluationFinalScore = clamped
		updates = append(updates, DraftUpdate{
			QuestionNum:  sc.QuestionNum,
			TeacherScore: clamped,
			Reasoning:    sc.Reasoning,
		})
	}

	newTotal := 0.0
	for i := range evals {
		newTotal += evals[i].QuestionEvaluationFinalScore
	}

	return s.Store.ApplyDraft(ctx, sheetID, updates, req.OverallFeedback, newTotal)
}

/* =======================================================
   APPROVE (finalisasi + snapshot)
======================================================= */

// Approve memfinalkan hasil: total dihitung ulang dari final_score,
// akar masalah diagregasi dalam satuan nilai-hilang, lalu metadata
// exam di-snapshot ke feedback_analysis supaya rapor siswa kebal
// terhadap edit rubrik di kemudian hari.
func (s *ApprovalService) Approve(ctx context.Context, sheetID uuid.UUID) error {
	sheet, err := s.Store.LoadSheet(ctx, sheetID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSheetNotFound, err)
	}
	if !sheet.CanApprove() {
		return ErrSheetNotApprovable
	}

	exam, err := s.Store.LoadExam(ctx, sheet.AnswerSheetExamID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExamNotFound, err)
	}
	evals, err := s.Store.LoadEvaluations(ctx, sheetID)
	if err != nil {
		return err
	}

	total := 0.0
	for i := range evals {
		total += evals[i].QuestionEvaluationFinalScore
	}

	fb := &gradingModel.FeedbackAnalysisModel{
		FeedbackAnalysisAnswerSheetID:     sheetID,
		FeedbackAnalysisStudentID:         sheet.AnswerSheetStudentID,
		FeedbackAnalysisExamName:          exam.ExamName,
		FeedbackAnalysisExamSubject:       exam.ExamSubject,
		FeedbackAnalysisExamClass:         exam.ExamClass,
		FeedbackAnalysisExamTotalMarks:    exam.ExamTotalMarks,
		FeedbackAnalysisExamMarkingScheme: exam.ExamMarkingScheme,
		FeedbackAnalysisTotalScore:        total,
		FeedbackAnalysisRootCauseSummary:  datatypes.NewJSONType(AggregateRootCause(evals)),
	}
	if sheet.AnswerSheetOverallFeedback != nil {
		fb.FeedbackAnalysisOverallFeedback = *sheet.AnswerSheetOverallFeedback
	}
	applyStudentOSFields(fb, sheet.AnswerSheetRawResponse)

	return s.Store.Approve(ctx, sheetID, total, fb)
}

// AggregateRootCause menjumlahkan nilai yang hilang (max_marks −
// final_score) per kategori akar masalah. Kategori None diabaikan.
func AggregateRootCause(evals []gradingModel.QuestionEvaluationModel) gradingModel.RootCauseSummary {
	var sum gradingModel.RootCauseSummary
	for i := range evals {
		lost := evals[i].QuestionEvaluationMaxMarks - evals[i].QuestionEvaluationFinalScore
		if lost <= 0 {
			continue
		}
		switch evals[i].QuestionEvaluationRootCause {
		case gradingModel.RootCauseConcept:
			sum.Concept += lost
		case gradingModel.RootCauseCalculation:
			sum.Calculation += lost
		case gradingModel.RootCauseKeywording:
			sum.Keyword += lost
		}
	}
	return sum
}

// applyStudentOSFields menyalin blok analisis naratif dari respons
// mentah model ke snapshot (kalau ada — blok ini opsional).
func applyStudentOSFields(fb *gradingModel.FeedbackAnalysisModel, raw datatypes.JSON) {
	if len(raw) == 0 {
		return
	}
	var result dto.GradeResult
	if err := sonic.Unmarshal(raw, &result); err != nil || result.StudentOSAnalysis == nil {
		return
	}
	osa := result.StudentOSAnalysis
	fb.FeedbackAnalysisRealWorldApplication = osa.RealWorldApplication
	if len(osa.FocusAreas) > 0 {
		fb.FeedbackAnalysisFocusAreas = pq.StringArray(osa.FocusAreas)
	}
	if len(osa.ROIAnalysis) > 0 {
		items := make([]gradingModel.ROIItem, 0, len(osa.ROIAnalysis))
		for _, r := range osa.ROIAnalysis {
			items = append(items, gradingModel.ROIItem{
				Topic:         r.Topic,
				PotentialGain: r.PotentialGain,
				Effort:        r.Effort,
			})
		}
		fb.FeedbackAnalysisROIAnalysis = datatypes.NewJSONSlice(items)
	}
}

/* =======================================================
   DISPUTE & RESOLVE
======================================================= */

// Dispute: siswa mengajukan keberatan. Hanya pemilik sheet, hanya
// sesudah approve, dan hanya sekali.
func (s *ApprovalService) Dispute(ctx context.Context, sheetID, studentID uuid.UUID, req *dto.DisputeRequest) error {
	sheet, err := s.Store.LoadSheet(ctx, sheetID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSheetNotFound, err)
	}
	if sheet.AnswerSheetStudentID != studentID {
		return ErrSheetNotFound // jangan bocorkan keberadaan sheet orang lain
	}
	if !sheet.CanDispute() {
		return ErrDisputeNotAllowed
	}

	evals, err := s.Store.LoadEvaluations(ctx, sheetID)
	if err != nil {
		return err
	}
	known := make(map[int]bool, len(evals))
	for i := range evals {
		known[evals[i].QuestionEvaluationQuestionNum] = true
	}
	for _, it := range req.Items {
		if !known[it.QuestionNum] {
			return fmt.Errorf("soal %d tidak ada di lembar jawaban ini", it.QuestionNum)
		}
	}

	return s.Store.SaveDispute(ctx, sheetID, req.Items)
}

// ResolveReview: guru menutup dispute yang sedang terbuka.
func (s *ApprovalService) ResolveReview(ctx context.Context, sheetID uuid.UUID) error {
	sheet, err := s.Store.LoadSheet(ctx, sheetID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSheetNotFound, err)
	}
	if !sheet.CanResolveReview() {
		return ErrNoOpenReview
	}
	return s.Store.ResolveReview(ctx, sheetID)
}
