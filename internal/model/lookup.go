package model

// DrugInformation is the structured summary for a drug brand name.
type DrugInformation struct {
	DrugName                string `json:"drugName"`
	GenericName             string `json:"genericName"`
	Overview                string `json:"overview"`
	DosageAndAdministration string `json:"dosageAndAdministration"`
	SideEffects             string `json:"sideEffects"`
	Pharmacology            string `json:"pharmacology"`
	PriceInBangladesh       string `json:"priceInBangladesh"`
	SessionID               string `json:"sessionId,omitempty"`
}

// SpecialistRequest locates a specialist for a set of symptoms.
type SpecialistRequest struct {
	Symptoms string `json:"symptoms"`
	City     string `json:"city"`
	State    string `json:"state"`
	Country  string `json:"country"`
}

// SpecialistReport is the markdown report for a specialist search.
type SpecialistReport struct {
	Specialty string `json:"specialty"`
	Report    string `json:"report"`
}

// DictionaryEntry is one medical dictionary headword.
type DictionaryEntry struct {
	Word                  string   `json:"word"`
	PartOfSpeech          string   `json:"partOfSpeech"`
	Pronunciation         string   `json:"pronunciation,omitempty"`
	AudioURL              string   `json:"audioUrl,omitempty"`
	Definitions           []string `json:"definitions"`
	TranslatedDefinitions []string `json:"translatedDefinitions"`
}

// DictionaryResponse holds either entries or spelling suggestions.
type DictionaryResponse struct {
	Results     []DictionaryEntry `json:"results,omitempty"`
	Suggestions []string          `json:"suggestions,omitempty"`
}

// ReportAnalysisRequest carries a cropped report image.
type ReportAnalysisRequest struct {
	ImageDataURI string `json:"imageAsDataUri"`
}

// ReportAnalysis is the plain-language explanation of a medical report.
type ReportAnalysis struct {
	Analysis  string `json:"analysis"`
	SessionID string `json:"sessionId,omitempty"`
}

// InquiryTurn is one prior turn sent with a general inquiry.
type InquiryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// InquiryRequest is a general health question.
type InquiryRequest struct {
	Question  string        `json:"question"`
	History   []InquiryTurn `json:"history,omitempty"`
	SessionID string        `json:"sessionId,omitempty"`
}

// InquiryResponse is the answer to a general health question.
type InquiryResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"sessionId"`
}

// SearchResult is one record returned by a web or directory search.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
	Address string  `json:"address,omitempty"`
	Phone   string  `json:"phone,omitempty"`
}

// MedicalReference is a knowledge base entry used to ground a diagnosis.
type MedicalReference struct {
	Diagnosis       string `json:"diagnosis"`
	CareActions     string `json:"careActions"`
	DiagnosticTests string `json:"diagnosticTests"`
}
