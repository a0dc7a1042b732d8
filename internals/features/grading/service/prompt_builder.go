package service

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	examModel "nilaiku_backend/internals/features/exams/model"
)

// BuildGradingPrompt menyusun instruksi lengkap untuk model vision:
// peran, rubrik, aturan penilaian, dan kontrak JSON keluaran.
// Rubrik di-embed sebagai JSON pretty-print supaya model membacanya
// sebagai data terstruktur, bukan prosa.
func BuildGradingPrompt(exam *examModel.ExamModel) (string, error) {
	scheme, err := sonic.MarshalIndent([]examModel.MarkingSchemeQuestion(exam.ExamMarkingScheme), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal marking scheme: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert educational evaluator for %s at Class %s.\n\n",
		exam.ExamSubject, exam.ExamClass)

	b.WriteString("## YOUR TASK\n")
	b.WriteString("Analyze the attached handwritten answer sheet images (there may be multiple pages) and:\n")
	b.WriteString("1. Extract all student answers (OCR from handwriting) across all pages.\n")
	b.WriteString("2. Match each answer to the corresponding question.\n")
	b.WriteString("3. Grade each answer against the rubric.\n")
	b.WriteString("4. Provide detailed, personalized feedback including a \"Student OS\" analysis (ROI, Root Cause, Real World).\n\n")

	b.WriteString("## EXAM DETAILS\n")
	fmt.Fprintf(&b, "- Subject: %s\n", exam.ExamSubject)
	fmt.Fprintf(&b, "- Total Questions: %d\n", len(exam.ExamMarkingScheme))
	fmt.Fprintf(&b, "- Marking Precision: %s\n", exam.ExamMarkingPrecision)
	fmt.Fprintf(&b, "- Total Marks: %g\n\n", exam.ExamTotalMarks)

	b.WriteString("## MARKING SCHEME & RUBRIC\n")
	b.Write(scheme)
	b.WriteString("\n\n")

	b.WriteString("## GRADING GUIDELINES\n")
	b.WriteString("- **Understand Intent**: Focus on what the student is trying to convey, not exact wording\n")
	b.WriteString("- **Partial Credit**: Award marks for partial understanding\n")
	fmt.Fprintf(&b, "- **Marking Precision**: Apply %s rounding\n\n", exam.ExamMarkingPrecision)

	b.WriteString("## ADDITIONAL ANALYSIS FOR STUDENT DASHBOARD\n")
	b.WriteString("- **Root Cause Analysis**: For every lost mark, determine if it was a 'Concept Error', 'Calculation Error', or 'Keywording Error'.\n")
	b.WriteString("- **Real World Application**: Explain ONE key real-world application of the concepts missed (or the exam topic in general) to motivate the student.\n")
	b.WriteString("- **ROI / Focus Areas**: Identify the top 2-3 topics where the student lost the most marks and which are easiest to fix.\n\n")

	b.WriteString("## OUTPUT FORMAT (JSON)\n")
	b.WriteString("Return ONLY valid JSON in this exact structure:\n\n")
	b.WriteString(gradingOutputContract)

	return b.String(), nil
}

// Contoh struktur keluaran yang ditempel utuh di akhir prompt.
const gradingOutputContract = `{
  "ocr_extractions": [
    {
      "question_num": 1,
      "extracted_text": "...",
      "confidence": 0.95
    }
  ],
  "evaluations": [
    {
      "question_num": 1,
      "score": 4.5,
      "max_marks": 5,
      "confidence": 0.92,
      "reasoning": "...",
      "strengths": ["..."],
      "gaps": ["..."],
      "root_cause": "Concept Error"
    }
  ],
  "overall_feedback": "...",
  "student_os_analysis": {
    "real_world_application": "...",
    "root_cause_summary": {
      "concept": 5,
      "calculation": 2,
      "keyword": 1
    },
    "focus_areas": ["Thermodynamics", "Kinematics"],
    "roi_analysis": [
      { "topic": "Thermodynamics", "potential_gain": 5, "effort": "Medium" }
    ]
  },
  "total_score": 42.5,
  "confidence": 0.9
}`
