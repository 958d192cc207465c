package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/pkg/metrics"
)

const (
	merriamWebsterURL   = "https://www.dictionaryapi.com/api/v3/references/medical/json/"
	merriamWebsterAudio = "https://media.merriam-webster.com/audio/prons/en/us/mp3/"

	maxEntries     = 3
	maxSuggestions = 5
)

// MerriamWebster resolves terms against the Merriam-Webster medical dictionary.
// Definitions are returned untranslated.
type MerriamWebster struct {
	apiKey     string
	url        string
	httpClient *http.Client
}

// NewMerriamWebster creates a dictionary client.
func NewMerriamWebster(apiKey string) *MerriamWebster {
	return &MerriamWebster{
		apiKey:     apiKey,
		url:        merriamWebsterURL,
		httpClient: newHTTPClient(),
	}
}

type mwEntry struct {
	Meta *struct {
		ID string `json:"id"`
	} `json:"meta"`
	Hwi *struct {
		Prs []struct {
			Mw    string `json:"mw"`
			Sound *struct {
				Audio string `json:"audio"`
			} `json:"sound"`
		} `json:"prs"`
	} `json:"hwi"`
	Fl       string   `json:"fl"`
	Shortdef []string `json:"shortdef"`
}

// Define returns up to three entries, or up to five spelling suggestions when
// the term is unknown.
func (d *MerriamWebster) Define(ctx context.Context, term string) (*model.DictionaryResponse, error) {
	if d.apiKey == "" {
		return nil, fmt.Errorf("dictionary: %w", ErrNotConfigured)
	}

	resp, err := d.define(ctx, term)
	metrics.RecordLookup("dictionary", err)
	return resp, err
}

func (d *MerriamWebster) define(ctx context.Context, term string) (*model.DictionaryResponse, error) {
	endpoint := d.url + url.PathEscape(term) + "?key=" + url.QueryEscape(d.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var raw []json.RawMessage
	if err := doJSON(d.httpClient, req, "dictionary", &raw); err != nil {
		return nil, err
	}
	return parseDictionary(raw)
}

func parseDictionary(raw []json.RawMessage) (*model.DictionaryResponse, error) {
	out := &model.DictionaryResponse{}
	if len(raw) == 0 {
		return out, nil
	}

	var first string
	if json.Unmarshal(raw[0], &first) == nil {
		for _, item := range raw {
			var s string
			if json.Unmarshal(item, &s) != nil {
				continue
			}
			out.Suggestions = append(out.Suggestions, s)
			if len(out.Suggestions) == maxSuggestions {
				break
			}
		}
		return out, nil
	}

	for _, item := range raw {
		var e mwEntry
		if err := json.Unmarshal(item, &e); err != nil {
			return nil, fmt.Errorf("failed to decode dictionary entry: %w", err)
		}
		if e.Meta == nil || e.Hwi == nil || len(e.Shortdef) == 0 {
			continue
		}

		entry := model.DictionaryEntry{
			Word:         strings.SplitN(e.Meta.ID, ":", 2)[0],
			PartOfSpeech: e.Fl,
			Definitions:  e.Shortdef,
		}
		if entry.PartOfSpeech == "" {
			entry.PartOfSpeech = "N/A"
		}
		if len(e.Hwi.Prs) > 0 {
			pr := e.Hwi.Prs[0]
			entry.Pronunciation = pr.Mw
			if pr.Sound != nil && pr.Sound.Audio != "" {
				entry.AudioURL = AudioURL(pr.Sound.Audio)
			}
		}

		out.Results = append(out.Results, entry)
		if len(out.Results) == maxEntries {
			break
		}
	}
	return out, nil
}

// AudioURL builds the pronunciation MP3 location for a Merriam-Webster
// audio file name.
func AudioURL(audio string) string {
	if audio == "" {
		return ""
	}

	var subdir string
	switch {
	case strings.HasPrefix(audio, "bix"):
		subdir = "bix"
	case strings.HasPrefix(audio, "gg"):
		subdir = "gg"
	case isASCIILetter(audio[0]):
		subdir = audio[:1]
	default:
		subdir = "number"
	}
	return merriamWebsterAudio + subdir + "/" + audio + ".mp3"
}

func isASCIILetter(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}
