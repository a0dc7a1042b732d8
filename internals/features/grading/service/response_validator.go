package service

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	examModel "nilaiku_backend/internals/features/exams/model"
	"nilaiku_backend/internals/features/grading/dto"
	gradingModel "nilaiku_backend/internals/features/grading/model"
)

// ExtractJSONObject mengambil objek JSON pertama dari teks bebas model.
// Model sering membungkus jawabannya dengan pagar markdown atau prosa
// pembuka; kita buang semua itu dan ambil blok {...} yang seimbang.
func ExtractJSONObject(raw string) (string, error) {
	s := strings.TrimSpace(raw)

	// Buang pagar ```json ... ```
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", fmt.Errorf("%w: tidak ada objek JSON di respons", ErrMalformedResponse)
	}

	depth := 0
	inStr := false
	esc := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case esc:
			esc = false
		case inStr && c == '\\':
			esc = true
		case c == '"':
			inStr = !inStr
		case !inStr && c == '{':
			depth++
		case !inStr && c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: objek JSON tidak ditutup", ErrMalformedResponse)
}

// ParseGradeResult memvalidasi respons model terhadap rubrik exam:
//   - evaluasi untuk soal yang tidak ada di rubrik dibuang,
//   - hasil OCR untuk soal di luar rubrik ikut dibuang (teksnya dipakai
//     korpus plagiarisme, jangan tercemar nomor soal karangan model),
//   - skor dijepit ke [0, max_marks] rubrik (bukan max_marks klaim model),
//   - confidence dijepit ke [0, 1] tanpa mengubah nilai skor,
//   - total_score dihitung ulang dari skor hasil klem (klaim model diabaikan),
//   - root_cause dinormalisasi ke kategori yang dikenal.
//
// Respons tanpa evaluations sama sekali dianggap fatal.
func ParseGradeResult(raw string, exam *examModel.ExamModel) (*dto.GradeResult, error) {
	jsonStr, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var result dto.GradeResult
	if err := sonic.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(result.Evaluations) == 0 {
		return nil, fmt.Errorf("%w: evaluations kosong", ErrMalformedResponse)
	}

	kept := result.Evaluations[:0]
	seen := make(map[int]bool, len(result.Evaluations))
	total := 0.0
	for _, ev := range result.Evaluations {
		maxMarks, ok := exam.MaxMarksFor(ev.QuestionNum)
		if !ok || seen[ev.QuestionNum] {
			continue // soal di luar rubrik atau duplikat: buang
		}
		seen[ev.QuestionNum] = true

		ev.MaxMarks = maxMarks
		ev.Score = clamp(ev.Score, 0, maxMarks)
		ev.Confidence = clamp(ev.Confidence, 0, 1)
		ev.RootCause = gradingModel.NormalizeRootCause(ev.RootCause)
		if ev.Strengths == nil {
			ev.Strengths = []string{}
		}
		if ev.Gaps == nil {
			ev.Gaps = []string{}
		}

		total += ev.Score
		kept = append(kept, ev)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: tidak ada evaluasi yang cocok dengan rubrik", ErrMalformedResponse)
	}

	result.Evaluations = kept

	keptOCR := result.OCRExtractions[:0]
	for _, o := range result.OCRExtractions {
		if _, ok := exam.MaxMarksFor(o.QuestionNum); !ok {
			continue
		}
		o.Confidence = clamp(o.Confidence, 0, 1)
		keptOCR = append(keptOCR, o)
	}
	result.OCRExtractions = keptOCR

	result.TotalScore = total
	result.Confidence = clamp(result.Confidence, 0, 1)
	return &result, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
