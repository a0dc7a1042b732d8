package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Status pemeriksaan satu lembar jawaban.
const (
	PlagiarismStatusPending = "pending" // baris dibuat, embedding belum jadi
	PlagiarismStatusChecked = "checked" // sudah dibandingkan, di bawah ambang
	PlagiarismStatusFlagged = "flagged" // skor gabungan melewati ambang
	PlagiarismStatusError   = "error"   // screening gagal (model/DB), nilai tetap aman
)

// MatchedPeer: satu lembar jawaban lain yang mirip.
type MatchedPeer struct {
	AnswerSheetID uuid.UUID `json:"answer_sheet_id"`
	StudentName   string    `json:"student_name"`
	Similarity    float64   `json:"similarity"`
}

// PlagiarismScoreModel: hasil screening per lembar jawaban, satu baris
// per sheet (upsert saat re-grade). Embedding disimpan sebagai jsonb
// supaya sheet yang masuk belakangan bisa dibandingkan tanpa
// memanggil ulang model untuk semua peer.
type PlagiarismScoreModel struct {
	PlagiarismScoreID            uuid.UUID `gorm:"column:plagiarism_score_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"plagiarism_score_id"`
	PlagiarismScoreAnswerSheetID uuid.UUID `gorm:"column:plagiarism_score_answer_sheet_id;type:uuid;not null;uniqueIndex"    json:"plagiarism_score_answer_sheet_id"`
	PlagiarismScoreExamID        uuid.UUID `gorm:"column:plagiarism_score_exam_id;type:uuid;not null;index"                  json:"plagiarism_score_exam_id"`

	// peer_similarity: persentase bulat kemiripan tertinggi antar peer.
	// combined_score saat ini = peer_similarity; dipisah supaya ada
	// tempat untuk sinyal pembanding lain (mis. kunci jawaban) nanti.
	PlagiarismScorePeerSimilarity float64 `gorm:"column:plagiarism_score_peer_similarity;not null;default:0"               json:"plagiarism_score_peer_similarity"`
	PlagiarismScoreCombinedScore  float64 `gorm:"column:plagiarism_score_combined_score;not null;default:0"                json:"plagiarism_score_combined_score"`
	PlagiarismScoreStatus         string  `gorm:"column:plagiarism_score_status;type:varchar(20);not null;default:pending" json:"plagiarism_score_status"`

	PlagiarismScoreEmbedding    datatypes.JSONSlice[float64]     `gorm:"column:plagiarism_score_embedding;type:jsonb"     json:"-"`
	PlagiarismScoreMatchedPeers datatypes.JSONSlice[MatchedPeer] `gorm:"column:plagiarism_score_matched_peers;type:jsonb" json:"plagiarism_score_matched_peers,omitempty"`

	PlagiarismScoreCreatedAt time.Time  `gorm:"column:plagiarism_score_created_at;not null;autoCreateTime" json:"plagiarism_score_created_at"`
	PlagiarismScoreCheckedAt *time.Time `gorm:"column:plagiarism_score_checked_at"                         json:"plagiarism_score_checked_at,omitempty"`
}

// TableName overrides the table name used by GORM.
func (PlagiarismScoreModel) TableName() string {
	return "plagiarism_scores"
}

// IsFlagged: helper untuk tampilan daftar guru.
func (m *PlagiarismScoreModel) IsFlagged() bool {
	return m.PlagiarismScoreStatus == PlagiarismStatusFlagged
}
