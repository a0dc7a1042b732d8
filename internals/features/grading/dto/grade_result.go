package dto

// Kontrak JSON yang diminta dari model AI. Field di sini mengikuti
// persis apa yang dijanjikan prompt — parser menolak kalau bagian
// wajibnya tidak ada.

// OCRExtraction: hasil transkripsi per soal, apa adanya dari halaman.
type OCRExtraction struct {
	QuestionNum   int     `json:"question_num"`
	ExtractedText string  `json:"extracted_text"`
	Confidence    float64 `json:"confidence"`
}

// QuestionEvaluationResult: penilaian satu soal.
type QuestionEvaluationResult struct {
	QuestionNum int      `json:"question_num"`
	Score       float64  `json:"score"`
	MaxMarks    float64  `json:"max_marks"`
	Confidence  float64  `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
	Strengths   []string `json:"strengths"`
	Gaps        []string `json:"gaps"`
	RootCause   string   `json:"root_cause"`
}

// RootCauseCount: jumlah soal per kategori akar masalah (versi model;
// server menghitung ulang dalam satuan marks saat approve).
type RootCauseCount struct {
	Concept     int `json:"concept"`
	Calculation int `json:"calculation"`
	Keyword     int `json:"keyword"`
}

// ROIEntry: saran perbaikan topik dengan estimasi dampaknya.
type ROIEntry struct {
	Topic         string  `json:"topic"`
	PotentialGain float64 `json:"potential_gain"`
	Effort        string  `json:"effort"`
}

// StudentOSAnalysis: blok analisis naratif opsional dari model.
type StudentOSAnalysis struct {
	RootCauseSummary     *RootCauseCount `json:"root_cause_summary,omitempty"`
	FocusAreas           []string        `json:"focus_areas,omitempty"`
	ROIAnalysis          []ROIEntry      `json:"roi_analysis,omitempty"`
	RealWorldApplication string          `json:"real_world_application,omitempty"`
}

// GradeResult: payload lengkap satu kali panggilan grading.
type GradeResult struct {
	OCRExtractions    []OCRExtraction            `json:"ocr_extractions"`
	Evaluations       []QuestionEvaluationResult `json:"evaluations"`
	OverallFeedback   string                     `json:"overall_feedback"`
	StudentOSAnalysis *StudentOSAnalysis         `json:"student_os_analysis,omitempty"`
	TotalScore        float64                    `json:"total_score"`
	Confidence        float64                    `json:"confidence"`
}

// ExtractedTextFor mencari transkripsi untuk satu nomor soal.
func (g *GradeResult) ExtractedTextFor(questionNum int) string {
	for _, o := range g.OCRExtractions {
		if o.QuestionNum == questionNum {
			return o.ExtractedText
		}
	}
	return ""
}
