// Package locale holds the target-language settings passed into prompts and
// transcript labels.
package locale

import "strings"

// Language identifies the human language generated text must use.
type Language string

const (
	Bengali Language = "bn"
	English Language = "en"
)

// Labels are the localized strings the consultation pipeline writes into the
// transcript and into diagnosis request blocks.
type Labels struct {
	Welcome        string
	Name           string
	Gender         string
	Age            string
	Symptoms       string
	Diagnosis      string
	CareActions    string
	DiagnosticTest string
	ReportFooter   string
}

var labels = map[Language]Labels{
	Bengali: {
		Welcome:        "নিরাময়ে স্বাগতম! শুরু করতে রোগীর নাম, লিঙ্গ, বয়স এবং লক্ষণগুলো লিখুন।",
		Name:           "নাম",
		Gender:         "লিঙ্গ",
		Age:            "বয়স",
		Symptoms:       "লক্ষণ",
		Diagnosis:      "সম্ভাব্য রোগনির্ণয়",
		CareActions:    "প্রস্তাবিত যত্ন",
		DiagnosticTest: "প্রস্তাবিত পরীক্ষা",
		ReportFooter:   "Powered by Niramoy AI",
	},
	English: {
		Welcome:        "Welcome to Niramoy! To begin, enter the patient's name, gender, age and symptoms.",
		Name:           "Name",
		Gender:         "Gender",
		Age:            "Age",
		Symptoms:       "Symptoms",
		Diagnosis:      "Probable Diagnosis",
		CareActions:    "Recommended Care",
		DiagnosticTest: "Suggested Tests",
		ReportFooter:   "Powered by Niramoy AI",
	},
}

var names = map[Language]string{
	Bengali: "Bengali",
	English: "English",
}

// Parse maps a language code to a supported Language, defaulting to Bengali.
func Parse(code string) Language {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "en", "en-us", "en-gb", "english":
		return English
	default:
		return Bengali
	}
}

// Labels returns the label set for the language.
func (l Language) Labels() Labels {
	if lb, ok := labels[l]; ok {
		return lb
	}
	return labels[Bengali]
}

// Name returns the English name of the language, as used inside prompts.
func (l Language) Name() string {
	if n, ok := names[l]; ok {
		return n
	}
	return names[Bengali]
}
