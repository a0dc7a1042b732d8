package model

// Lifecycle guards untuk answer sheet.
//
// pending → processing → graded → approved
//
// Setiap mutasi dari controller harus lewat guard di sini supaya
// aturannya satu pintu (tidak dicek ulang beda-beda di tiap handler).

// CanReplace: re-upload ditolak selama pipeline masih jalan.
func (m *AnswerSheetModel) CanReplace() bool {
	return m.AnswerSheetStatus != AnswerSheetStatusProcessing
}

// CanApprove: hanya hasil grading yang bisa di-approve, dan cuma sekali.
func (m *AnswerSheetModel) CanApprove() bool {
	return m.AnswerSheetStatus == AnswerSheetStatusGraded
}

// CanEditScores: koreksi nilai oleh guru hanya sebelum approve.
// Setelah approve, snapshot feedback sudah final.
func (m *AnswerSheetModel) CanEditScores() bool {
	return m.AnswerSheetStatus == AnswerSheetStatusGraded
}

// CanDispute: siswa hanya bisa minta review atas hasil yang sudah
// di-approve dan belum pernah di-dispute.
func (m *AnswerSheetModel) CanDispute() bool {
	return m.AnswerSheetStatus == AnswerSheetStatusApproved &&
		m.AnswerSheetReviewStatus == ReviewStatusNone
}

// CanResolveReview: guru menutup dispute yang sedang terbuka.
func (m *AnswerSheetModel) CanResolveReview() bool {
	return m.AnswerSheetReviewStatus == ReviewStatusRequested
}

// IsTerminalForGrading: status dimana pipeline grading tidak boleh
// menulis hasil lagi (race antara goroutine lama dan re-upload).
func (m *AnswerSheetModel) IsTerminalForGrading() bool {
	return m.AnswerSheetStatus == AnswerSheetStatusApproved
}
