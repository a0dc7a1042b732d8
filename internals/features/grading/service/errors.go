package service

import "errors"

// Sentinel error per tahap pipeline. Controller memetakan ini ke
// status HTTP. Gagal di tahap mana pun → sheet tetap processing;
// guru menjalankan ulang lewat endpoint regrade.
var (
	ErrExamNotFound      = errors.New("exam tidak ditemukan")
	ErrSheetNotFound     = errors.New("lembar jawaban tidak ditemukan")
	ErrModelCall         = errors.New("panggilan model AI gagal")
	ErrMalformedResponse = errors.New("respons model tidak valid")
	ErrPersistence       = errors.New("gagal menyimpan hasil penilaian")
)
