package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	gradingDTO "nilaiku_backend/internals/features/grading/dto"
	"nilaiku_backend/internals/features/plagiarism/model"
)

// Ambang batas screening. Combined score memakai skala 0..100 supaya
// gampang dibaca guru; similarity mentah tetap 0..1.
const (
	MinCorpusChars      = 50   // korpus ≤ 50 karakter tidak di-screen
	MaxCorpusChars      = 8000 // batas input embedding
	SimilarityThreshold = 0.70 // peer harus DI ATAS ini untuk dianggap match
	MaxPeerMatches      = 5
	FlagThreshold       = 60.0 // combined > 60 → flagged
)

const truncationMarker = "\n[truncated]"

// Embedder menghasilkan vektor dari teks jawaban.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float64, error)
}

// ScreenStore: persistensi skor + akses embedding peer satu exam.
type ScreenStore interface {
	// PeerRows mengembalikan baris screening sheet LAIN pada exam yang sama.
	PeerRows(ctx context.Context, examID, excludeSheetID uuid.UUID) ([]model.PlagiarismScoreModel, error)
	StudentNames(ctx context.Context, sheetIDs []uuid.UUID) (map[uuid.UUID]string, error)
	Upsert(ctx context.Context, row *model.PlagiarismScoreModel) error
}

// ScreenerService membandingkan jawaban antar siswa lewat embedding.
// Seluruh alurnya best-effort: kegagalan ditulis sebagai baris status
// error dan TIDAK menyentuh hasil grading.
type ScreenerService struct {
	Store    ScreenStore
	Embedder Embedder
}

func NewScreenerService(store ScreenStore, embedder Embedder) *ScreenerService {
	return &ScreenerService{Store: store, Embedder: embedder}
}

// Screen memenuhi kontrak screener milik pipeline grading.
func (s *ScreenerService) Screen(ctx context.Context, sheetID, examID uuid.UUID, result *gradingDTO.GradeResult) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("screening panic: %v", r)
			s.saveError(sheetID, examID)
		}
	}()

	corpus := BuildCorpusText(answersFrom(result))
	if len(corpus) <= MinCorpusChars {
		// terlalu pendek untuk dibandingkan: tidak ada baris sama sekali
		return nil
	}

	embedding, err := s.Embedder.EmbedText(ctx, corpus)
	if err != nil {
		s.saveError(sheetID, examID)
		return fmt.Errorf("embed jawaban: %w", err)
	}

	// baris pending ditulis dulu supaya sheet yang di-grade bersamaan
	// pada exam yang sama sudah bisa melihat embedding ini sebagai peer
	if err := s.Store.Upsert(ctx, &model.PlagiarismScoreModel{
		PlagiarismScoreAnswerSheetID: sheetID,
		PlagiarismScoreExamID:        examID,
		PlagiarismScoreStatus:        model.PlagiarismStatusPending,
		PlagiarismScoreEmbedding:     embedding,
	}); err != nil {
		s.saveError(sheetID, examID)
		return fmt.Errorf("simpan baris pending: %w", err)
	}

	peers, err := s.Store.PeerRows(ctx, examID, sheetID)
	if err != nil {
		s.saveError(sheetID, examID)
		return fmt.Errorf("ambil peer: %w", err)
	}

	matches := RankPeers(embedding, peers)
	names := map[uuid.UUID]string{}
	if len(matches) > 0 {
		ids := make([]uuid.UUID, 0, len(matches))
		for _, m := range matches {
			ids = append(ids, m.AnswerSheetID)
		}
		if names, err = s.Store.StudentNames(ctx, ids); err != nil {
			log.Printf("[PLAGIARISM] ⚠️ gagal ambil nama siswa: %v", err)
			names = map[uuid.UUID]string{}
		}
	}
	for i := range matches {
		matches[i].StudentName = names[matches[i].AnswerSheetID]
	}

	peerSim := 0.0
	if len(matches) > 0 {
		peerSim = math.Round(matches[0].Similarity * 100)
	}
	combined := peerSim // belum ada sinyal pembanding lain

	now := time.Now()
	row := &model.PlagiarismScoreModel{
		PlagiarismScoreAnswerSheetID:  sheetID,
		PlagiarismScoreExamID:         examID,
		PlagiarismScorePeerSimilarity: peerSim,
		PlagiarismScoreCombinedScore:  combined,
		PlagiarismScoreStatus:         StatusForCombined(combined),
		PlagiarismScoreEmbedding:      embedding,
		PlagiarismScoreMatchedPeers:   matches,
		PlagiarismScoreCheckedAt:      &now,
	}
	if err := s.Store.Upsert(ctx, row); err != nil {
		s.saveError(sheetID, examID)
		return fmt.Errorf("simpan skor plagiat: %w", err)
	}
	return nil
}

// StatusForCombined: flagged kalau combined LEBIH DARI 60 (tepat 60
// masih checked).
func StatusForCombined(combined float64) string {
	if combined > FlagThreshold {
		return model.PlagiarismStatusFlagged
	}
	return model.PlagiarismStatusChecked
}

// saveError: upsert baris status error pakai context baru — context
// pipeline bisa saja sudah dibatalkan saat kita sampai di sini.
func (s *ScreenerService) saveError(sheetID, examID uuid.UUID) {
	row := &model.PlagiarismScoreModel{
		PlagiarismScoreAnswerSheetID: sheetID,
		PlagiarismScoreExamID:        examID,
		PlagiarismScoreCombinedScore: 0,
		PlagiarismScoreStatus:        model.PlagiarismStatusError,
	}
	if err := s.Store.Upsert(context.Background(), row); err != nil {
		log.Printf("[PLAGIARISM] ⚠️ gagal menulis baris error untuk sheet %s: %v", sheetID, err)
	}
}

/* =======================================================
   KORPUS & SIMILARITY (pure functions, gampang ditest)
======================================================= */

// AnswerText: satu jawaban ter-OCR.
type AnswerText struct {
	QuestionNum int
	Text        string
}

func answersFrom(result *gradingDTO.GradeResult) []AnswerText {
	out := make([]AnswerText, 0, len(result.OCRExtractions))
	for _, o := range result.OCRExtractions {
		out = append(out, AnswerText{QuestionNum: o.QuestionNum, Text: o.ExtractedText})
	}
	return out
}

// BuildCorpusText menyusun teks pembanding: jawaban diurutkan per
// nomor soal supaya dua sheet dengan isi sama menghasilkan korpus
// byte-identik. Lebih panjang dari MaxCorpusChars dipotong + penanda.
func BuildCorpusText(answers []AnswerText) string {
	sort.Slice(answers, func(i, j int) bool {
		return answers[i].QuestionNum < answers[j].QuestionNum
	})
	var b strings.Builder
	for _, a := range answers {
		text := strings.TrimSpace(a.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "Q%d: %s\n\n", a.QuestionNum, text)
	}
	corpus := strings.TrimSpace(b.String())
	if len(corpus) > MaxCorpusChars {
		corpus = corpus[:MaxCorpusChars] + truncationMarker
	}
	return corpus
}

// CosineSimilarity menghitung kemiripan dua vektor. Panjang beda atau
// vektor nol → 0 (bukan error: beda versi model embedding bukan alasan
// menjatuhkan pipeline).
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// PeerMatches: hanya similarity yang MELEWATI ambang dianggap match;
// tepat 0.70 belum termasuk.
func PeerMatches(sim float64) bool {
	return sim > SimilarityThreshold
}

// RankPeers membandingkan embedding terhadap semua peer, menyaring yang
// tidak melewati ambang, dan mengambil paling mirip maksimal MaxPeerMatches.
func RankPeers(embedding []float64, peers []model.PlagiarismScoreModel) []model.MatchedPeer {
	matches := make([]model.MatchedPeer, 0, len(peers))
	for i := range peers {
		if len(peers[i].PlagiarismScoreEmbedding) == 0 {
			continue // peer gagal di-embed atau masih pending
		}
		sim := CosineSimilarity(embedding, peers[i].PlagiarismScoreEmbedding)
		if !PeerMatches(sim) {
			continue
		}
		matches = append(matches, model.MatchedPeer{
			AnswerSheetID: peers[i].PlagiarismScoreAnswerSheetID,
			Similarity:    sim,
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > MaxPeerMatches {
		matches = matches[:MaxPeerMatches]
	}
	return matches
}
