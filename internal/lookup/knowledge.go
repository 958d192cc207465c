package lookup

import (
	"context"
	"strings"
	"unicode"

	"github.com/niramoy/health-assistant/internal/model"
)

// KnowledgeEntry maps symptom keywords to a vetted reference.
type KnowledgeEntry struct {
	Keywords  []string
	Reference model.MedicalReference
}

// KnowledgeBase matches free-text symptoms against keyword entries.
type KnowledgeBase struct {
	entries []KnowledgeEntry
}

// NewKnowledgeBase creates a knowledge base. With no entries the built-in
// Bengali set is used.
func NewKnowledgeBase(entries ...KnowledgeEntry) *KnowledgeBase {
	if len(entries) == 0 {
		entries = defaultKnowledge
	}
	return &KnowledgeBase{entries: entries}
}

// Lookup returns every entry with a keyword found in symptoms. Symptoms are
// split into tokens on whitespace, commas and the danda; single-word keywords
// must equal a token and multi-word keywords must appear as a token run.
func (kb *KnowledgeBase) Lookup(ctx context.Context, symptoms string) ([]model.MedicalReference, error) {
	fields := strings.FieldsFunc(symptoms, isSeparator)
	tokens := make(map[string]bool, len(fields))
	for _, t := range fields {
		tokens[t] = true
	}
	joined := " " + strings.Join(fields, " ") + " "

	var refs []model.MedicalReference
	for _, e := range kb.entries {
		for _, k := range e.Keywords {
			if tokens[k] || (strings.Contains(k, " ") && strings.Contains(joined, " "+k+" ")) {
				refs = append(refs, e.Reference)
				break
			}
		}
	}
	return refs, nil
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == '।'
}

var defaultKnowledge = []KnowledgeEntry{
	{
		Keywords: []string{"জ্বর", "মাথাব্যথা", "শরীর ব্যথা", "সর্দি", "কাশি"},
		Reference: model.MedicalReference{
			Diagnosis:       "সাধারণ ফ্লু (Viral Flu)",
			CareActions:     "বিশ্রাম নিন, প্রচুর তরল পান করুন (যেমন পানি, স্যুপ), এবং প্রয়োজন হলে প্যারাসিটামল গ্রহণ করুন।",
			DiagnosticTests: "সাধারণত কোনো পরীক্ষার প্রয়োজন নেই। লক্ষণ গুরুতর হলে ডাক্তারের পরামর্শ নিন।",
		},
	},
	{
		Keywords: []string{"পেট ব্যথা", "বমি", "ডায়রিয়া", "পাতলা পায়খানা"},
		Reference: model.MedicalReference{
			Diagnosis:       "গ্যাস্ট্রোএন্টেরাইটিস (পেটের ইনফেকশন)",
			CareActions:     "স্যালাইন (ORS) পান করুন। সহজপাচ্য খাবার যেমন জাউভাত বা কলা খান। তৈলাক্ত ও মসলাযুক্ত খাবার এড়িয়ে চলুন।",
			DiagnosticTests: "সাধারণত প্রয়োজন নেই। গুরুতর বা দীর্ঘস্থায়ী হলে মল পরীক্ষার পরামর্শ দেওয়া হতে পারে।",
		},
	},
	{
		Keywords: []string{"শ্বাসকষ্ট", "বুকে ব্যথা", "ঘন ঘন কাশি", "কফ"},
		Reference: model.MedicalReference{
			Diagnosis:       "ব্রঙ্কাইটিস বা নিউমোনিয়ার লক্ষণ",
			CareActions:     "অবিলম্বে ডাক্তারের কাছে যান। নিজে থেকে কোনো ওষুধ খাবেন না।",
			DiagnosticTests: "বুকের এক্স-রে (Chest X-ray), রক্ত পরীক্ষা (CBC)।",
		},
	},
	{
		Keywords: []string{"চোখ ওঠা", "চোখ লাল", "চোখ দিয়ে পানি পড়া", "চোখে চুলকানি"},
		Reference: model.MedicalReference{
			Diagnosis:       "কনজাংটিভাইটিস (Conjunctivitis / Pink Eye)",
			CareActions:     "পরিষ্কার পানি দিয়ে চোখ পরিষ্কার করুন। কালো চশমা ব্যবহার করুন। হাত দিয়ে চোখ স্পর্শ করবেন না। ডাক্তারের পরামর্শ অনুযায়ী চোখের ড্রপ ব্যবহার করুন।",
			DiagnosticTests: "সাধারণত প্রয়োজন নেই, তবে গুরুতর হলে ডাক্তার দেখাতে হবে।",
		},
	},
}
