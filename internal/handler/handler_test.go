package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/niramoy/health-assistant/internal/consultation"
	"github.com/niramoy/health-assistant/internal/gateway"
	"github.com/niramoy/health-assistant/internal/llm"
	"github.com/niramoy/health-assistant/internal/locale"
	"github.com/niramoy/health-assistant/internal/middleware"
	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/internal/service"
	"github.com/niramoy/health-assistant/internal/store"
	"github.com/niramoy/health-assistant/pkg/logger"
)

const testSecret = "handler-test-secret"

type stubGateway struct {
	mu            sync.Mutex
	diagnosisDown bool
}

func (g *stubGateway) Invoke(ctx context.Context, prompt gateway.Prompt, input any, output gateway.Output) error {
	g.mu.Lock()
	down := g.diagnosisDown
	g.mu.Unlock()

	switch out := output.(type) {
	case *gateway.SymptomAnalysisOutput:
		out.InitialGreeting = "Hello"
		out.FollowUpQuestions = []string{"Q1?", "Q2?", "Q3?", "Q4?"}
	case *gateway.DiagnosisOutput:
		if down {
			return fmt.Errorf("%w: model down", gateway.ErrUnavailable)
		}
		out.ProbableDiagnosis = "Viral fever"
		out.RecommendedCareActions = "Rest"
		out.SuggestedDiagnosticTests = "CBC"
	case *gateway.AnswerOutput:
		out.Answer = "Drink plenty of water"
	default:
		return fmt.Errorf("%w: unexpected prompt %s", gateway.ErrUnavailable, prompt)
	}
	return nil
}

func (g *stubGateway) Stream(ctx context.Context, prompt gateway.Prompt, input any, onToken llm.StreamCallback) (string, error) {
	tokens := []string{"Drink ", "water"}
	for i, tok := range tokens {
		if err := onToken(tok, i); err != nil {
			return "", err
		}
	}
	return strings.Join(tokens, ""), nil
}

type testServer struct {
	*httptest.Server
	gw      *stubGateway
	store   *store.MemoryStore
	manager *consultation.Manager
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	log := logger.NewNop()
	st := store.NewMemoryStore()
	gw := &stubGateway{}

	manager := consultation.NewManager(consultation.Deps{
		Gateway:  gw,
		Sessions: st,
		Logger:   log,
	}, time.Hour)
	t.Cleanup(manager.Close)

	recorder := service.NewRecorder(st, nil, log)
	sessions := service.NewSessionService(st)
	records := service.NewRecordService(st, st, log)
	inquiry := service.NewInquiryService(gw, gw, recorder, locale.Bengali, log)

	router := NewRouter(Handlers{
		Health:        NewHealthHandler(st, nil),
		Consultations: NewConsultationHandler(manager, locale.Bengali, log),
		Sessions:      NewSessionHandler(sessions, records, log),
		Records:       NewRecordHandler(records, log),
		Assistant:     NewAssistantHandler(inquiry, nil, nil, nil, nil, log),
		Stream:        NewStreamHandler(inquiry, log),
	}, RouterConfig{
		JWTSecret:         testSecret,
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
	}, log)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, gw: gw, store: st, manager: manager}
}

func token(t *testing.T, userID string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func (s *testServer) do(t *testing.T, method, path, userID string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: status = %d, want %d", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want)
	}
}

var validDetails = model.PatientDetails{
	PatientName:   "Karim",
	PatientGender: "Male",
	PatientAge:    34,
	Symptoms:      "fever and headache for three days",
}

func TestConsultationFlow(t *testing.T) {
	srv := setupTestServer(t)

	resp := srv.do(t, http.MethodPost, "/api/v1/consultations", "", nil)
	expectStatus(t, resp, http.StatusCreated)
	created := decode[consultationResponse](t, resp)
	if created.Step != consultation.StepDetails || created.Welcome == "" || created.ConsultationID == "" {
		t.Fatalf("created = %+v", created)
	}
	base := "/api/v1/consultations/" + created.ConsultationID

	resp = srv.do(t, http.MethodPost, base+"/details", "", validDetails)
	expectStatus(t, resp, http.StatusOK)
	snap := decode[consultationResponse](t, resp)
	if snap.Step != consultation.StepFollowUp || snap.CurrentQuestion != "Q1?" {
		t.Fatalf("after details = %+v", snap)
	}

	resp = srv.do(t, http.MethodGet, base+"/report", "", nil)
	expectStatus(t, resp, http.StatusNotFound)

	for i := 0; i < 4; i++ {
		resp = srv.do(t, http.MethodPost, base+"/answers", "", model.AnswerRequest{Answer: fmt.Sprintf("answer %d", i+1)})
		expectStatus(t, resp, http.StatusOK)
		snap = decode[consultationResponse](t, resp)
	}
	if snap.Step != consultation.StepConversation || snap.Diagnosis == nil || snap.Diagnosis.ProbableDiagnosis != "Viral fever" {
		t.Fatalf("after answers = %+v", snap)
	}

	resp = srv.do(t, http.MethodPost, base+"/questions", "", model.QuestionRequest{Question: "Can I eat rice?"})
	expectStatus(t, resp, http.StatusOK)
	snap = decode[consultationResponse](t, resp)
	last := snap.Messages[len(snap.Messages)-1]
	if last.Role != model.RoleAssistant || last.Content != "Drink plenty of water" {
		t.Errorf("last message = %+v", last)
	}

	resp = srv.do(t, http.MethodGet, base+"/report", "", nil)
	expectStatus(t, resp, http.StatusOK)
	var report bytes.Buffer
	report.ReadFrom(resp.Body)
	if !strings.Contains(report.String(), "Viral fever") || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		t.Errorf("report = %q", report.String())
	}

	p, err := srv.manager.Get(created.ConsultationID, "")
	if err != nil {
		t.Fatalf("manager.Get: %v", err)
	}
	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	resp = srv.do(t, http.MethodGet, "/api/v1/sessions/"+snap.SessionID, "", nil)
	expectStatus(t, resp, http.StatusOK)
	if stored := decode[model.Session](t, resp); len(stored.Messages) != len(snap.Messages) {
		t.Errorf("stored %d messages, want %d", len(stored.Messages), len(snap.Messages))
	}

	resp = srv.do(t, http.MethodPost, base+"/reset", "", nil)
	expectStatus(t, resp, http.StatusOK)
	reset := decode[consultationResponse](t, resp)
	if reset.Step != consultation.StepDetails || reset.SessionID == snap.SessionID || len(reset.Messages) != 0 {
		t.Errorf("after reset = %+v", reset)
	}
}

func TestConsultationErrors(t *testing.T) {
	srv := setupTestServer(t)

	resp := srv.do(t, http.MethodGet, "/api/v1/consultations/not-a-uuid", "", nil)
	expectStatus(t, resp, http.StatusBadRequest)

	resp = srv.do(t, http.MethodGet, "/api/v1/consultations/0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b", "", nil)
	expectStatus(t, resp, http.StatusNotFound)

	resp = srv.do(t, http.MethodPost, "/api/v1/consultations", "", nil)
	created := decode[consultationResponse](t, resp)
	base := "/api/v1/consultations/" + created.ConsultationID

	bad := validDetails
	bad.Symptoms = "fever!!!"
	resp = srv.do(t, http.MethodPost, base+"/details", "", bad)
	expectStatus(t, resp, http.StatusBadRequest)
	failed := decode[consultationResponse](t, resp)
	if failed.Error == "" || failed.Step != consultation.StepDetails {
		t.Errorf("validation response = %+v", failed)
	}

	long := validDetails
	long.PatientName = strings.Repeat("K", 129)
	resp = srv.do(t, http.MethodPost, base+"/details", "", long)
	expectStatus(t, resp, http.StatusBadRequest)

	long = validDetails
	long.PatientGender = strings.Repeat("x", 129)
	resp = srv.do(t, http.MethodPost, base+"/details", "", long)
	expectStatus(t, resp, http.StatusBadRequest)

	resp = srv.do(t, http.MethodPost, base+"/answers", "", model.AnswerRequest{Answer: "too early"})
	expectStatus(t, resp, http.StatusConflict)

	resp = srv.do(t, http.MethodPost, base+"/questions", "", model.QuestionRequest{Question: "Now?"})
	expectStatus(t, resp, http.StatusConflict)
}

func TestConsultationDiagnosisUnavailable(t *testing.T) {
	srv := setupTestServer(t)
	srv.gw.diagnosisDown = true

	resp := srv.do(t, http.MethodPost, "/api/v1/consultations", "", nil)
	base := "/api/v1/consultations/" + decode[consultationResponse](t, resp).ConsultationID

	srv.do(t, http.MethodPost, base+"/details", "", validDetails)
	var snap consultationResponse
	for i := 0; i < 4; i++ {
		resp = srv.do(t, http.MethodPost, base+"/answers", "", model.AnswerRequest{Answer: "yes"})
		expectStatus(t, resp, http.StatusOK)
		snap = decode[consultationResponse](t, resp)
	}
	if snap.Step != consultation.StepConversation || snap.Diagnosis != nil || snap.Warning == "" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestConsultationOwnership(t *testing.T) {
	srv := setupTestServer(t)

	resp := srv.do(t, http.MethodPost, "/api/v1/consultations", "u1", model.CreateConsultationRequest{Language: "en"})
	created := decode[consultationResponse](t, resp)
	if created.Language != locale.English {
		t.Errorf("language = %q, want en", created.Language)
	}
	path := "/api/v1/consultations/" + created.ConsultationID

	expectStatus(t, srv.do(t, http.MethodGet, path, "u1", nil), http.StatusOK)
	expectStatus(t, srv.do(t, http.MethodGet, path, "u2", nil), http.StatusNotFound)
	expectStatus(t, srv.do(t, http.MethodGet, path, "", nil), http.StatusNotFound)
}

func TestMeRoutesRequireAuth(t *testing.T) {
	srv := setupTestServer(t)

	expectStatus(t, srv.do(t, http.MethodGet, "/api/v1/me/sessions", "", nil), http.StatusUnauthorized)
	expectStatus(t, srv.do(t, http.MethodGet, "/api/v1/me/health-records", "", nil), http.StatusUnauthorized)
	expectStatus(t, srv.do(t, http.MethodGet, "/api/v1/me/sessions", "u1", nil), http.StatusOK)
}

func TestHealthRecordRoutes(t *testing.T) {
	srv := setupTestServer(t)

	resp := srv.do(t, http.MethodPost, "/api/v1/me/health-records", "u1", model.CreateHealthRecordRequest{
		Type:  model.RecordMedication,
		Title: "Napa",
	})
	expectStatus(t, resp, http.StatusCreated)
	rec := decode[model.HealthRecord](t, resp)
	if rec.ID == "" || rec.UserID != "u1" {
		t.Fatalf("record = %+v", rec)
	}

	resp = srv.do(t, http.MethodPost, "/api/v1/me/health-records", "u1", model.CreateHealthRecordRequest{Type: "x", Title: "bad"})
	expectStatus(t, resp, http.StatusBadRequest)

	title := "Napa Extra"
	resp = srv.do(t, http.MethodPut, "/api/v1/me/health-records/"+rec.ID, "u1", model.UpdateHealthRecordRequest{Title: &title})
	expectStatus(t, resp, http.StatusOK)
	if got := decode[model.HealthRecord](t, resp); got.Title != title {
		t.Errorf("title = %q", got.Title)
	}

	expectStatus(t, srv.do(t, http.MethodDelete, "/api/v1/me/health-records/"+rec.ID, "u2", nil), http.StatusNotFound)

	resp = srv.do(t, http.MethodGet, "/api/v1/me/health-records/recent?limit=5", "u1", nil)
	expectStatus(t, resp, http.StatusOK)
	if list := decode[model.ListHealthRecordsResponse](t, resp); list.Total != 1 {
		t.Errorf("recent = %+v", list)
	}

	expectStatus(t, srv.do(t, http.MethodDelete, "/api/v1/me/health-records/"+rec.ID, "u1", nil), http.StatusNoContent)
}

func TestInquiryAndInsights(t *testing.T) {
	srv := setupTestServer(t)

	resp := srv.do(t, http.MethodPost, "/api/v1/inquiries", "u1", model.InquiryRequest{Question: "I have a fever, what should I do?"})
	expectStatus(t, resp, http.StatusOK)
	answer := decode[model.InquiryResponse](t, resp)
	if answer.Answer != "Drink plenty of water" || answer.SessionID == "" {
		t.Fatalf("answer = %+v", answer)
	}

	resp = srv.do(t, http.MethodGet, "/api/v1/me/sessions?type=general-inquiry", "u1", nil)
	expectStatus(t, resp, http.StatusOK)
	if list := decode[model.ListSessionsResponse](t, resp); list.Total != 1 {
		t.Errorf("sessions = %+v", list)
	}

	expectStatus(t, srv.do(t, http.MethodGet, "/api/v1/sessions/"+answer.SessionID, "u2", nil), http.StatusNotFound)

	resp = srv.do(t, http.MethodPost, "/api/v1/me/sessions/"+answer.SessionID+"/insights", "u1", nil)
	expectStatus(t, resp, http.StatusCreated)
	if got := decode[model.ExtractInsightsResponse](t, resp); got.ExtractedInsights != 1 {
		t.Errorf("insights = %+v", got)
	}

	expectStatus(t, srv.do(t, http.MethodPost, "/api/v1/inquiries", "", model.InquiryRequest{Question: " "}), http.StatusBadRequest)
}

func TestInquiryStream(t *testing.T) {
	srv := setupTestServer(t)

	resp := srv.do(t, http.MethodPost, "/api/v1/inquiries/stream", "", model.InquiryRequest{Question: "Hydration?"})
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	var events []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if name, ok := strings.CutPrefix(scanner.Text(), "event: "); ok {
			events = append(events, name)
		}
	}

	want := []string{"token", "token", "message_complete", "done"}
	if strings.Join(events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := setupTestServer(t)

	expectStatus(t, srv.do(t, http.MethodGet, "/health", "", nil), http.StatusOK)
	expectStatus(t, srv.do(t, http.MethodGet, "/ready", "", nil), http.StatusOK)
	expectStatus(t, srv.do(t, http.MethodGet, "/metrics", "", nil), http.StatusOK)
}
