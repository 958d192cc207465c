package model

// PatientDetails is the intake form captured at the start of a consultation.
type PatientDetails struct {
	PatientName   string `json:"patientName"`
	PatientGender string `json:"patientGender"`
	PatientAge    int    `json:"patientAge"`
	Symptoms      string `json:"symptoms"`
}

// Diagnosis is the structured result produced once per consultation.
type Diagnosis struct {
	ProbableDiagnosis        string `json:"probableDiagnosis"`
	RecommendedCareActions   string `json:"recommendedCareActions"`
	SuggestedDiagnosticTests string `json:"suggestedDiagnosticTests"`
}

// CreateConsultationRequest starts a consultation.
type CreateConsultationRequest struct {
	Language string `json:"language,omitempty"`
}

// AnswerRequest carries a follow-up answer.
type AnswerRequest struct {
	Answer string `json:"answer"`
}

// QuestionRequest carries a free-form question.
type QuestionRequest struct {
	Question string `json:"question"`
}
