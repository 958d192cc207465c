package consultation

import (
	"fmt"
	"strings"

	"github.com/niramoy/health-assistant/internal/locale"
	"github.com/niramoy/health-assistant/internal/model"
)

// DetailsMessage is the transcript form of the intake submission.
func DetailsMessage(d model.PatientDetails) string {
	return fmt.Sprintf("Patient: %s, Gender: %s, Age: %d, Symptoms: %s",
		d.PatientName, d.PatientGender, d.PatientAge, d.Symptoms)
}

// DiagnosisSummary is the single assistant message recorded for a diagnosis.
func DiagnosisSummary(d model.Diagnosis) string {
	return fmt.Sprintf("Diagnosis Report: Probable Diagnosis: %s, Recommended Care: %s, Suggested Tests: %s",
		d.ProbableDiagnosis, d.RecommendedCareActions, d.SuggestedDiagnosticTests)
}

// PatientBlock is the identity block sent with the diagnosis request.
func PatientBlock(d model.PatientDetails, lang locale.Language) string {
	lb := lang.Labels()
	return fmt.Sprintf("%s: %s, %s: %s, %s: %d, %s: %s",
		lb.Name, d.PatientName,
		lb.Gender, d.PatientGender,
		lb.Age, d.PatientAge,
		lb.Symptoms, d.Symptoms)
}

// SymptomDetails pairs each follow-up question with its answer.
func SymptomDetails(questions, answers []string) string {
	pairs := make([]string, 0, len(answers))
	for i, a := range answers {
		if i >= len(questions) {
			break
		}
		pairs = append(pairs, questions[i]+"\n- "+a)
	}
	return strings.Join(pairs, "\n\n")
}

// ConversationHistory renders the transcript as role-tagged lines in order.
func ConversationHistory(msgs []model.Message) string {
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = string(m.Role) + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}

// FormatReport renders the downloadable plain-text diagnosis report.
func FormatReport(p model.PatientDetails, d model.Diagnosis, lang locale.Language) string {
	lb := lang.Labels()

	var b strings.Builder
	fmt.Fprintf(&b, "Patient: %s, %d, %s\n\n", p.PatientName, p.PatientAge, p.PatientGender)
	fmt.Fprintf(&b, "%s:\n%s\n\n", lb.Diagnosis, d.ProbableDiagnosis)
	fmt.Fprintf(&b, "%s:\n%s\n\n", lb.CareActions, d.RecommendedCareActions)
	fmt.Fprintf(&b, "%s:\n%s\n\n", lb.DiagnosticTest, d.SuggestedDiagnosticTests)
	b.WriteString(lb.ReportFooter)
	b.WriteString("\n")
	return b.String()
}
