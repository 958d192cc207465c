// Package health derives health records from stored conversations.
package health

import (
	"fmt"
	"strings"

	"github.com/niramoy/health-assistant/internal/model"
)

var (
	symptomKeywords = []string{
		"pain", "fever", "headache", "nausea", "fatigue", "cough", "cold", "flu",
		"sore throat", "stomach ache", "dizziness", "chest pain", "shortness of breath",
		"জ্বর", "মাথাব্যথা", "কাশি", "বমি", "শ্বাসকষ্ট", "ব্যথা",
	}
	medicationKeywords = []string{
		"medicine", "medication", "pill", "tablet", "prescription", "drug", "taking", "prescribed",
		"ওষুধ", "ট্যাবলেট",
	}
	diagnosisKeywords = []string{"diagnosis", "condition", "suggest"}
)

// minMedicationLength filters out bare mentions such as "no pills".
const minMedicationLength = 20

// Extract scans a session's messages and returns the health records they
// suggest, in transcript order. User messages yield symptom and medication
// records; assistant messages yield diagnosis records. Records are not saved.
func Extract(sess *model.Session, userID string) []model.HealthRecord {
	var records []model.HealthRecord

	for _, msg := range sess.Messages {
		content := strings.ToLower(msg.Content)
		day := msg.Timestamp.Format("2006-01-02")

		newRecord := func(t model.RecordType, title, description string, data map[string]any) model.HealthRecord {
			data["timestamp"] = msg.Timestamp
			data["chatType"] = string(sess.Type)
			data["sessionId"] = sess.SessionID
			return model.HealthRecord{
				UserID:      userID,
				Type:        t,
				Title:       title,
				Description: description,
				Data:        data,
			}
		}

		switch msg.Role {
		case model.RoleUser:
			if found := matching(content, symptomKeywords); len(found) > 0 {
				records = append(records, newRecord(model.RecordSymptom,
					"Symptoms reported on "+day,
					fmt.Sprintf("User reported: %s. Full message: %s", strings.Join(found, ", "), msg.Content),
					map[string]any{"symptoms": found, "originalMessage": msg.Content},
				))
			}
			if len(matching(content, medicationKeywords)) > 0 && len([]rune(content)) > minMedicationLength {
				records = append(records, newRecord(model.RecordMedication,
					"Medication discussion on "+day,
					"Medication-related discussion: "+msg.Content,
					map[string]any{"originalMessage": msg.Content},
				))
			}

		case model.RoleAssistant:
			if len(matching(content, diagnosisKeywords)) > 0 {
				records = append(records, newRecord(model.RecordDiagnosis,
					"AI Analysis on "+day,
					"AI provided analysis: "+msg.Content,
					map[string]any{"aiAnalysis": msg.Content},
				))
			}
		}
	}

	return records
}

func matching(content string, keywords []string) []string {
	var found []string
	for _, k := range keywords {
		if strings.Contains(content, k) {
			found = append(found, k)
		}
	}
	return found
}
