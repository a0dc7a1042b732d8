package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	gradingDTO "nilaiku_backend/internals/features/grading/dto"
	"nilaiku_backend/internals/features/plagiarism/model"
)

/* =========================
   Fakes
========================= */

type fakeEmbedder struct {
	vec []float64
	err error
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float64, error) {
	return f.vec, f.err
}

type fakeScreenStore struct {
	peers []model.PlagiarismScoreModel
	names map[uuid.UUID]string

	upserted *model.PlagiarismScoreModel
	upserts  []model.PlagiarismScoreModel
}

func (f *fakeScreenStore) PeerRows(ctx context.Context, examID, excludeSheetID uuid.UUID) ([]model.PlagiarismScoreModel, error) {
	return f.peers, nil
}

func (f *fakeScreenStore) StudentNames(ctx context.Context, sheetIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	if f.names == nil {
		return map[uuid.UUID]string{}, nil
	}
	return f.names, nil
}

func (f *fakeScreenStore) Upsert(ctx context.Context, row *model.PlagiarismScoreModel) error {
	f.upserted = row
	f.upserts = append(f.upserts, *row)
	return nil
}

func resultWithText(text string) *gradingDTO.GradeResult {
	return &gradingDTO.GradeResult{
		OCRExtractions: []gradingDTO.OCRExtraction{
			{QuestionNum: 1, ExtractedText: text},
		},
		Evaluations: []gradingDTO.QuestionEvaluationResult{
			{QuestionNum: 1, Score: 3, Confidence: 0.9},
		},
	}
}

func peerRow(vec []float64) model.PlagiarismScoreModel {
	return model.PlagiarismScoreModel{
		PlagiarismScoreAnswerSheetID: uuid.New(),
		PlagiarismScoreEmbedding:     datatypes.NewJSONSlice(vec),
	}
}

/* =========================
   Corpus
========================= */

func TestBuildCorpusText_SortedByQuestionNum(t *testing.T) {
	got := BuildCorpusText([]AnswerText{
		{QuestionNum: 3, Text: "jawaban tiga"},
		{QuestionNum: 1, Text: "jawaban satu"},
		{QuestionNum: 2, Text: "  jawaban dua  "},
	})
	assert.Equal(t, "Q1: jawaban satu\n\nQ2: jawaban dua\n\nQ3: jawaban tiga", got)
}

func TestBuildCorpusText_SkipsEmptyAnswers(t *testing.T) {
	got := BuildCorpusText([]AnswerText{
		{QuestionNum: 1, Text: "   "},
		{QuestionNum: 2, Text: "terisi"},
	})
	assert.Equal(t, "Q2: terisi", got)
}

func TestBuildCorpusText_TruncatesLongCorpus(t *testing.T) {
	got := BuildCorpusText([]AnswerText{
		{QuestionNum: 1, Text: strings.Repeat("a", MaxCorpusChars+500)},
	})
	assert.Len(t, got, MaxCorpusChars+len(truncationMarker))
	assert.True(t, strings.HasSuffix(got, truncationMarker))
}

/* =========================
   Similarity
========================= */

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-9)

	// dimensi beda / vektor nol → 0, bukan error
	assert.Equal(t, 0.0, CosineSimilarity([]float64{1, 2}, []float64{1, 2, 3}))
	assert.Equal(t, 0.0, CosineSimilarity([]float64{0, 0}, []float64{1, 1}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
}

func TestRankPeers_ThresholdAndLimit(t *testing.T) {
	base := []float64{1, 0}
	peers := []model.PlagiarismScoreModel{
		peerRow([]float64{1, 0}),      // sim 1.0
		peerRow([]float64{0.9, 0.1}),  // tinggi
		peerRow([]float64{0.8, 0.25}), // tinggi
		peerRow([]float64{0.75, 0.3}), // tinggi
		peerRow([]float64{0.7, 0.35}), // tinggi
		peerRow([]float64{0.95, 0.05}),
		peerRow([]float64{0, 1}), // sim 0 → dibuang
		{PlagiarismScoreAnswerSheetID: uuid.New()}, // tanpa embedding → dilewati
	}

	matches := RankPeers(base, peers)
	require.Len(t, matches, MaxPeerMatches)
	// terurut menurun
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Similarity, matches[i].Similarity)
	}
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-9)
}

func TestRankPeers_AllBelowThreshold(t *testing.T) {
	matches := RankPeers([]float64{1, 0}, []model.PlagiarismScoreModel{
		peerRow([]float64{0, 1}),
	})
	assert.Empty(t, matches)
}

func TestPeerMatches_ThresholdExclusive(t *testing.T) {
	assert.False(t, PeerMatches(0.69))
	assert.False(t, PeerMatches(SimilarityThreshold)) // tepat 0.70 bukan match
	assert.True(t, PeerMatches(0.71))
	assert.True(t, PeerMatches(1.0))
}

func TestStatusForCombined(t *testing.T) {
	assert.Equal(t, model.PlagiarismStatusChecked, StatusForCombined(0))
	assert.Equal(t, model.PlagiarismStatusChecked, StatusForCombined(60)) // tepat di ambang
	assert.Equal(t, model.PlagiarismStatusFlagged, StatusForCombined(61))
	assert.Equal(t, model.PlagiarismStatusFlagged, StatusForCombined(100))
}

/* =========================
   Screen end-to-end (fake store/embedder)
========================= */

func TestScreen_ShortAnswerSkipped(t *testing.T) {
	t.Run("jawaban pendek dilewati", func(t *testing.T) {
		store := &fakeScreenStore{}
		svc := NewScreenerService(store, &fakeEmbedder{vec: []float64{1, 0}})

		err := svc.Screen(context.Background(), uuid.New(), uuid.New(), resultWithText("singkat"))
		require.NoError(t, err)
		// tidak ada baris sama sekali, bukan baris status error
		assert.Nil(t, store.upserted)
	})

	// "Q1: " + 46 karakter = korpus tepat 50 karakter. Tepat di batas
	// masih dilewati; baru 51 yang di-screen.
	t.Run("korpus tepat 50 karakter masih dilewati", func(t *testing.T) {
		text := strings.Repeat("a", 46)
		require.Len(t, BuildCorpusText([]AnswerText{{QuestionNum: 1, Text: text}}), MinCorpusChars)

		store := &fakeScreenStore{}
		svc := NewScreenerService(store, &fakeEmbedder{vec: []float64{1, 0}})
		require.NoError(t, svc.Screen(context.Background(), uuid.New(), uuid.New(), resultWithText(text)))
		assert.Nil(t, store.upserted)
	})

	t.Run("korpus 51 karakter di-screen", func(t *testing.T) {
		text := strings.Repeat("a", 47)
		store := &fakeScreenStore{}
		svc := NewScreenerService(store, &fakeEmbedder{vec: []float64{1, 0}})
		require.NoError(t, svc.Screen(context.Background(), uuid.New(), uuid.New(), resultWithText(text)))
		require.NotNil(t, store.upserted)
		assert.Equal(t, model.PlagiarismStatusChecked, store.upserted.PlagiarismScoreStatus)
	})
}

func longText() string {
	return strings.Repeat("hukum newton pertama menyatakan benda diam ", 5)
}

func TestScreen_FlagBoundary(t *testing.T) {
	sheetID := uuid.New()
	examID := uuid.New()

	// similarity 0.60 → combined 60 → TIDAK flagged (harus > 60)
	t.Run("tepat di ambang tetap checked", func(t *testing.T) {
		store := &fakeScreenStore{}
		// tanpa peer di atas threshold 0.70 → combined 0
		svc := NewScreenerService(store, &fakeEmbedder{vec: []float64{1, 0}})
		require.NoError(t, svc.Screen(context.Background(), sheetID, examID, resultWithText(longText())))
		require.NotNil(t, store.upserted)
		assert.Equal(t, model.PlagiarismStatusChecked, store.upserted.PlagiarismScoreStatus)
		assert.Equal(t, 0.0, store.upserted.PlagiarismScorePeerSimilarity)
		assert.Equal(t, 0.0, store.upserted.PlagiarismScoreCombinedScore)
		assert.NotNil(t, store.upserted.PlagiarismScoreCheckedAt)
	})

	t.Run("di atas ambang jadi flagged", func(t *testing.T) {
		store := &fakeScreenStore{peers: []model.PlagiarismScoreModel{
			peerRow([]float64{1, 0}), // sim 1.0 → combined 100
		}}
		svc := NewScreenerService(store, &fakeEmbedder{vec: []float64{1, 0}})
		require.NoError(t, svc.Screen(context.Background(), sheetID, examID, resultWithText(longText())))
		require.NotNil(t, store.upserted)
		assert.Equal(t, model.PlagiarismStatusFlagged, store.upserted.PlagiarismScoreStatus)
		assert.Equal(t, 100.0, store.upserted.PlagiarismScorePeerSimilarity)
		assert.Equal(t, 100.0, store.upserted.PlagiarismScoreCombinedScore)
		require.Len(t, []model.MatchedPeer(store.upserted.PlagiarismScoreMatchedPeers), 1)
	})
}

// Baris pending harus sudah tersimpan (lengkap dengan embedding)
// SEBELUM pencarian peer, supaya sheet lain pada exam yang sama yang
// sedang di-screen bersamaan bisa melihatnya.
func TestScreen_PendingRowWrittenBeforePeerSearch(t *testing.T) {
	store := &fakeScreenStore{}
	svc := NewScreenerService(store, &fakeEmbedder{vec: []float64{1, 0}})

	require.NoError(t, svc.Screen(context.Background(), uuid.New(), uuid.New(), resultWithText(longText())))

	require.Len(t, store.upserts, 2)
	pending := store.upserts[0]
	assert.Equal(t, model.PlagiarismStatusPending, pending.PlagiarismScoreStatus)
	assert.NotEmpty(t, []float64(pending.PlagiarismScoreEmbedding))
	assert.Nil(t, pending.PlagiarismScoreCheckedAt)

	final := store.upserts[1]
	assert.Equal(t, model.PlagiarismStatusChecked, final.PlagiarismScoreStatus)
	assert.NotNil(t, final.PlagiarismScoreCheckedAt)
}

func TestScreen_EmbedderFailureWritesErrorRow(t *testing.T) {
	store := &fakeScreenStore{}
	svc := NewScreenerService(store, &fakeEmbedder{err: errors.New("quota habis")})

	err := svc.Screen(context.Background(), uuid.New(), uuid.New(), resultWithText(longText()))
	require.Error(t, err)

	require.NotNil(t, store.upserted)
	assert.Equal(t, model.PlagiarismStatusError, store.upserted.PlagiarismScoreStatus)
	assert.Equal(t, 0.0, store.upserted.PlagiarismScoreCombinedScore)
}

func TestScreen_PeerNamesAttached(t *testing.T) {
	peer := peerRow([]float64{1, 0})
	store := &fakeScreenStore{
		peers: []model.PlagiarismScoreModel{peer},
		names: map[uuid.UUID]string{peer.PlagiarismScoreAnswerSheetID: "Budi"},
	}
	svc := NewScreenerService(store, &fakeEmbedder{vec: []float64{1, 0}})

	require.NoError(t, svc.Screen(context.Background(), uuid.New(), uuid.New(), resultWithText(longText())))
	matches := []model.MatchedPeer(store.upserted.PlagiarismScoreMatchedPeers)
	require.Len(t, matches, 1)
	assert.Equal(t, "Budi", matches[0].StudentName)
}
