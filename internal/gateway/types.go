package gateway

import (
	"errors"
	"strings"

	"github.com/niramoy/health-assistant/internal/locale"
	"github.com/niramoy/health-assistant/internal/model"
)

// MinFollowUpQuestions is the smallest acceptable follow-up batch.
const MinFollowUpQuestions = 4

// Output is a structured prompt result that can check its own shape.
type Output interface {
	Validate() error
}

// SymptomAnalysisInput is the intake form sent to the symptom analysis prompt.
type SymptomAnalysisInput struct {
	Language      locale.Language `json:"-"`
	PatientName   string          `json:"patientName"`
	PatientGender string          `json:"patientGender"`
	PatientAge    int             `json:"patientAge"`
	Symptoms      string          `json:"symptoms"`
}

// SymptomAnalysisOutput is a greeting plus the follow-up question batch.
type SymptomAnalysisOutput struct {
	InitialGreeting   string   `json:"initialGreeting"`
	FollowUpQuestions []string `json:"followUpQuestions"`
}

// Validate rejects partial batches.
func (o *SymptomAnalysisOutput) Validate() error {
	if strings.TrimSpace(o.InitialGreeting) == "" {
		return errors.New("initialGreeting is empty")
	}
	if len(o.FollowUpQuestions) < MinFollowUpQuestions {
		return errors.New("fewer than 4 follow-up questions")
	}
	for _, q := range o.FollowUpQuestions {
		if strings.TrimSpace(q) == "" {
			return errors.New("empty follow-up question")
		}
	}
	return nil
}

// DiagnosisInput carries the identity block and Q/A details.
type DiagnosisInput struct {
	Language       locale.Language          `json:"-"`
	PatientDetails string                   `json:"patientDetails"`
	SymptomDetails string                   `json:"symptomDetails"`
	References     []model.MedicalReference `json:"references,omitempty"`
}

// DiagnosisOutput is the structured diagnosis.
type DiagnosisOutput struct {
	ProbableDiagnosis        string `json:"probableDiagnosis"`
	RecommendedCareActions   string `json:"recommendedCareActions"`
	SuggestedDiagnosticTests string `json:"suggestedDiagnosticTests"`
}

func (o *DiagnosisOutput) Validate() error {
	switch {
	case strings.TrimSpace(o.ProbableDiagnosis) == "":
		return errors.New("probableDiagnosis is empty")
	case strings.TrimSpace(o.RecommendedCareActions) == "":
		return errors.New("recommendedCareActions is empty")
	case strings.TrimSpace(o.SuggestedDiagnosticTests) == "":
		return errors.New("suggestedDiagnosticTests is empty")
	}
	return nil
}

// Diagnosis converts to the model type.
func (o *DiagnosisOutput) Diagnosis() model.Diagnosis {
	return model.Diagnosis{
		ProbableDiagnosis:        o.ProbableDiagnosis,
		RecommendedCareActions:   o.RecommendedCareActions,
		SuggestedDiagnosticTests: o.SuggestedDiagnosticTests,
	}
}

// FollowUpInput is a free-form question with the full transcript.
type FollowUpInput struct {
	Language            locale.Language `json:"-"`
	ConversationHistory string          `json:"conversationHistory"`
	Question            string          `json:"question"`
}

// AnswerOutput is shared by prompts that return a single answer.
type AnswerOutput struct {
	Answer string `json:"answer"`
}

func (o *AnswerOutput) Validate() error {
	if strings.TrimSpace(o.Answer) == "" {
		return errors.New("answer is empty")
	}
	return nil
}

// GeneralInquiryInput is a standalone health question.
type GeneralInquiryInput struct {
	Language locale.Language     `json:"-"`
	Question string              `json:"question"`
	History  []model.InquiryTurn `json:"history,omitempty"`
}

// DrugInformationInput carries search results for a brand name.
type DrugInformationInput struct {
	Language      locale.Language      `json:"-"`
	DrugName      string               `json:"drugName"`
	SearchResults []model.SearchResult `json:"searchResults"`
}

// DrugInformationOutput is the structured drug summary.
type DrugInformationOutput struct {
	GenericName             string `json:"genericName"`
	Overview                string `json:"overview"`
	DosageAndAdministration string `json:"dosageAndAdministration"`
	SideEffects             string `json:"sideEffects"`
	Pharmacology            string `json:"pharmacology"`
	PriceInBangladesh       string `json:"priceInBangladesh"`
}

func (o *DrugInformationOutput) Validate() error {
	if strings.TrimSpace(o.GenericName) == "" {
		return errors.New("genericName is empty")
	}
	if strings.TrimSpace(o.Overview) == "" {
		return errors.New("overview is empty")
	}
	return nil
}

// SpecialistTypeInput asks which specialty fits the symptoms.
type SpecialistTypeInput struct {
	Language locale.Language `json:"-"`
	Symptoms string          `json:"symptoms"`
}

// SpecialistTypeOutput names one medical specialty.
type SpecialistTypeOutput struct {
	Specialty string `json:"specialty"`
}

func (o *SpecialistTypeOutput) Validate() error {
	if strings.TrimSpace(o.Specialty) == "" {
		return errors.New("specialty is empty")
	}
	return nil
}

// SpecialistReportInput carries directory search results.
type SpecialistReportInput struct {
	Language  locale.Language      `json:"-"`
	Symptoms  string               `json:"symptoms"`
	Specialty string               `json:"specialty"`
	Location  string               `json:"location"`
	Results   []model.SearchResult `json:"results"`
}

// SpecialistReportOutput is a markdown report.
type SpecialistReportOutput struct {
	Report string `json:"report"`
}

func (o *SpecialistReportOutput) Validate() error {
	if strings.TrimSpace(o.Report) == "" {
		return errors.New("report is empty")
	}
	return nil
}

// TranslateInput is English text to translate into Language.
type TranslateInput struct {
	Language locale.Language `json:"-"`
	Text     string          `json:"text"`
}

// TranslateOutput is the translated text.
type TranslateOutput struct {
	TranslatedText string `json:"translatedText"`
}

func (o *TranslateOutput) Validate() error {
	if strings.TrimSpace(o.TranslatedText) == "" {
		return errors.New("translatedText is empty")
	}
	return nil
}

// ReportExplanationInput is the vision model's English analysis.
type ReportExplanationInput struct {
	Language          locale.Language `json:"-"`
	TechnicalAnalysis string          `json:"technicalAnalysis"`
}

// ReportExplanationOutput is the plain-language explanation.
type ReportExplanationOutput struct {
	Analysis string `json:"analysis"`
}

func (o *ReportExplanationOutput) Validate() error {
	if strings.TrimSpace(o.Analysis) == "" {
		return errors.New("analysis is empty")
	}
	return nil
}
