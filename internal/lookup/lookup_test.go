package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/pkg/logger"
)

func TestTavilySearch(t *testing.T) {
	var got tavilyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"results":[
			{"title":"Napa 500","url":"https://medex.com.bd/napa","content":"Paracetamol","score":0.92},
			{"title":"Napa Extra","url":"https://medeasy.health/napa-extra","content":"Paracetamol + Caffeine","score":"0.5"}
		]}`))
	}))
	defer srv.Close()

	tv := NewTavily("key")
	tv.url = srv.URL

	results, err := tv.Search(context.Background(), "Napa site:medex.com.bd")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got.APIKey != "key" || got.SearchDepth != "advanced" || got.MaxResults != 5 || got.Query != "Napa site:medex.com.bd" {
		t.Errorf("request = %+v", got)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Score != 0.92 || results[1].Score != 0.5 {
		t.Errorf("scores = %v, %v", results[0].Score, results[1].Score)
	}
}

func TestTavilyNotConfigured(t *testing.T) {
	_, err := NewTavily("").Search(context.Background(), "napa")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}

func TestTavilyHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tv := NewTavily("key")
	tv.url = srv.URL
	if _, err := tv.Search(context.Background(), "napa"); err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("error = %v, want status 429", err)
	}
}

func TestSerpAPISearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "Cardiologist in Dhaka, Dhaka, Bangladesh" || q.Get("engine") != "google" || q.Get("api_key") != "key" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{
			"local_results": {"places": [
				{"title":"Heart Clinic","address":"Dhanmondi","phone":"0123"},
				{"title":"City Hospital","address":"Gulshan"}
			]},
			"organic_results": [
				{"title":"Heart Clinic","snippet":"duplicate","link":"https://a"},
				{"title":"Doctor List","snippet_highlighted_words":["best","cardiologists"],"link":"https://b"},
				{"title":"R3","link":"https://c"},
				{"title":"R4","link":"https://d"},
				{"title":"R5","link":"https://e"}
			]
		}`))
	}))
	defer srv.Close()

	s := NewSerpAPI("key")
	s.url = srv.URL

	results, err := s.Search(context.Background(), "Cardiologist in Dhaka, Dhaka, Bangladesh")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("results = %d, want 5", len(results))
	}
	if results[0].Title != "Heart Clinic" || results[0].Phone != "0123" || results[0].Address != "Dhanmondi" {
		t.Errorf("first result = %+v, want local Heart Clinic", results[0])
	}
	if results[2].Title != "Doctor List" || results[2].Content != "best cardiologists" {
		t.Errorf("third result = %+v", results[2])
	}
	if results[4].Title != "R4" {
		t.Errorf("last result = %q, want R4", results[4].Title)
	}
}

func TestSerpAPIErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"Invalid API key"}`))
	}))
	defer srv.Close()

	s := NewSerpAPI("bad")
	s.url = srv.URL
	if _, err := s.Search(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), "Invalid API key") {
		t.Errorf("error = %v", err)
	}
}

func TestDictionaryEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/fever") || r.URL.Query().Get("key") != "key" {
			t.Errorf("request = %s", r.URL.String())
		}
		w.Write([]byte(`[
			{"meta":{"id":"fever:1"},"hwi":{"prs":[{"mw":"ˈfē-vər","sound":{"audio":"fever001"}}]},"fl":"noun","shortdef":["a rise of body temperature","an abnormal bodily state"]},
			{"meta":{"id":"fever blister"},"hwi":{},"shortdef":["cold sore"]},
			{"meta":{"id":"no defs"},"hwi":{},"shortdef":[]},
			{"meta":{"id":"fevered"},"hwi":{},"fl":"adjective","shortdef":["having a fever"]},
			{"meta":{"id":"fever tree"},"hwi":{},"fl":"noun","shortdef":["a tree"]}
		]`))
	}))
	defer srv.Close()

	d := NewMerriamWebster("key")
	d.url = srv.URL + "/"

	resp, err := d.Define(context.Background(), "fever")
	if err != nil {
		t.Fatalf("Define() error = %v", err)
	}
	if len(resp.Results) != 3 || len(resp.Suggestions) != 0 {
		t.Fatalf("response = %+v", resp)
	}

	first := resp.Results[0]
	if first.Word != "fever" || first.PartOfSpeech != "noun" || first.Pronunciation != "ˈfē-vər" {
		t.Errorf("first = %+v", first)
	}
	if first.AudioURL != "https://media.merriam-webster.com/audio/prons/en/us/mp3/f/fever001.mp3" {
		t.Errorf("audio = %q", first.AudioURL)
	}
	if resp.Results[1].PartOfSpeech != "N/A" || resp.Results[1].AudioURL != "" {
		t.Errorf("second = %+v", resp.Results[1])
	}
	if resp.Results[2].Word != "fevered" {
		t.Errorf("third = %q, want fevered", resp.Results[2].Word)
	}
}

func TestDictionarySuggestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["fever","favor","fiver","fewer","flavor","fervor"]`))
	}))
	defer srv.Close()

	d := NewMerriamWebster("key")
	d.url = srv.URL + "/"

	resp, err := d.Define(context.Background(), "fevr")
	if err != nil {
		t.Fatalf("Define() error = %v", err)
	}
	if len(resp.Results) != 0 || len(resp.Suggestions) != 5 || resp.Suggestions[0] != "fever" {
		t.Errorf("response = %+v", resp)
	}
}

func TestAudioURL(t *testing.T) {
	tests := []struct {
		audio  string
		subdir string
	}{
		{"bixfev01", "bix"},
		{"ggfever1", "gg"},
		{"fever001", "f"},
		{"3dfever1", "number"},
		{"_fever01", "number"},
	}
	for _, tt := range tests {
		want := merriamWebsterAudio + tt.subdir + "/" + tt.audio + ".mp3"
		if got := AudioURL(tt.audio); got != want {
			t.Errorf("AudioURL(%q) = %q, want %q", tt.audio, got, want)
		}
	}
}

func TestKnowledgeBaseLookup(t *testing.T) {
	kb := NewKnowledgeBase()
	ctx := context.Background()

	tests := []struct {
		name     string
		symptoms string
		want     []string
	}{
		{"single keyword", "আমার জ্বর, মাথাব্যথা।", []string{"সাধারণ ফ্লু (Viral Flu)"}},
		{"multi word keyword", "গত দুই দিন ধরে পেট ব্যথা হচ্ছে", []string{"গ্যাস্ট্রোএন্টেরাইটিস (পেটের ইনফেকশন)"}},
		{"two entries", "জ্বর এবং চোখ লাল", []string{"সাধারণ ফ্লু (Viral Flu)", "কনজাংটিভাইটিস (Conjunctivitis / Pink Eye)"}},
		{"substring is not a token", "জ্বরজ্বর ভাব", nil},
		{"no match", "headache for three days", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs, err := kb.Lookup(ctx, tt.symptoms)
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if len(refs) != len(tt.want) {
				t.Fatalf("refs = %+v, want %v", refs, tt.want)
			}
			for i, w := range tt.want {
				if refs[i].Diagnosis != w {
					t.Errorf("refs[%d] = %q, want %q", i, refs[i].Diagnosis, w)
				}
			}
		})
	}
}

func TestKnowledgeBaseCustomEntries(t *testing.T) {
	kb := NewKnowledgeBase(KnowledgeEntry{
		Keywords:  []string{"rash"},
		Reference: model.MedicalReference{Diagnosis: "Dermatitis"},
	})
	refs, _ := kb.Lookup(context.Background(), "itchy rash")
	if len(refs) != 1 || refs[0].Diagnosis != "Dermatitis" {
		t.Errorf("refs = %+v", refs)
	}
}

type countingSearcher struct {
	calls int
}

func (s *countingSearcher) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	s.calls++
	return []model.SearchResult{{Title: query}}, nil
}

func TestCachedSearcherWithoutCache(t *testing.T) {
	inner := &countingSearcher{}
	if s := NewCachedSearcher(inner, nil, "tavily"); s != Searcher(inner) {
		t.Error("nil cache should return the inner searcher")
	}
}

func TestCachedSearcherRedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	inner := &countingSearcher{}
	s := NewCachedSearcher(inner, NewCache(client, time.Minute, logger.NewNop()), "tavily")

	for i := 0; i < 2; i++ {
		results, err := s.Search(context.Background(), "napa")
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(results) != 1 || results[0].Title != "napa" {
			t.Errorf("results = %+v", results)
		}
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}
}

func TestCacheKey(t *testing.T) {
	if CacheKey("tavily", " Napa ") != CacheKey("tavily", "napa") {
		t.Error("keys should ignore case and surrounding space")
	}
	if CacheKey("tavily", "napa") == CacheKey("serpapi", "napa") {
		t.Error("keys should differ by service")
	}
	if !strings.HasPrefix(CacheKey("dictionary", "fever"), "lookup:dictionary:") {
		t.Errorf("key = %q", CacheKey("dictionary", "fever"))
	}
}
