package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func doReq(t *testing.T, mux http.Handler, method, target string, form url.Values, pid string) *httptest.ResponseRecorder {
	t.Helper()
	var bodyReader *strings.Reader
	if form != nil {
		bodyReader = strings.NewReader(form.Encode())
	} else {
		bodyReader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, bodyReader)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if pid != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: pid})
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func cookieFromResponse(rr *httptest.ResponseRecorder, name string) string {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func decodeView(t *testing.T, rr *httptest.ResponseRecorder) StateView {
	t.Helper()
	var v StateView
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode state view: %v body=%s", err, rr.Body.String())
	}
	return v
}

func newTestServer(t *testing.T, saves SaveStore) (*Server, http.Handler) {
	t.Helper()
	srv := newServer(testContent(t), saves, constSource(0), 5*time.Second)
	return srv, newRouter(srv)
}

func postAction(t *testing.T, mux http.Handler, pid, action, arg string) *httptest.ResponseRecorder {
	t.Helper()
	return doReq(t, mux, http.MethodPost, "/api/action", url.Values{"action": {action}, "arg": {arg}}, pid)
}

func mustAction(t *testing.T, mux http.Handler, pid, action, arg string) StateView {
	t.Helper()
	rr := postAction(t, mux, pid, action, arg)
	if rr.Code != http.StatusOK {
		t.Fatalf("%s %s: status=%d body=%s", action, arg, rr.Code, rr.Body.String())
	}
	return decodeView(t, rr)
}

func TestHealth(t *testing.T) {
	_, mux := newTestServer(t, nil)
	rr := doReq(t, mux, http.MethodGet, "/health", nil, "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("GET /health status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestContentEndpoint(t *testing.T) {
	_, mux := newTestServer(t, nil)
	rr := doReq(t, mux, http.MethodGet, "/api/content", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/content status=%d", rr.Code)
	}
	var body struct {
		Policies   []Policy `json:"policies"`
		VotesToWin int      `json:"votesToWin"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode content: %v", err)
	}
	if len(body.Policies) != 15 || body.VotesToWin != 184 {
		t.Fatalf("unexpected content: policies=%d votesToWin=%d", len(body.Policies), body.VotesToWin)
	}
}

func TestStateCookieReusesSession(t *testing.T) {
	srv, mux := newTestServer(t, nil)

	r1 := doReq(t, mux, http.MethodGet, "/api/state", nil, "")
	pid := cookieFromResponse(r1, cookieName)
	if r1.Code != http.StatusOK || pid == "" {
		t.Fatalf("expected pid cookie on first visit, status=%d", r1.Code)
	}
	v := decodeView(t, r1)
	if v.PlayerID != pid || v.State.Phase != PhaseTitle || v.State.ApprovalRating != 50 {
		t.Fatalf("unexpected initial view: %+v", v)
	}

	r2 := doReq(t, mux, http.MethodGet, "/api/state", nil, pid)
	if cookieFromResponse(r2, cookieName) != "" {
		t.Fatalf("known session should not get a new cookie")
	}
	if len(srv.sessions) != 1 {
		t.Fatalf("expected one session, got %d", len(srv.sessions))
	}
}

func TestActionFlowAndRejections(t *testing.T) {
	_, mux := newTestServer(t, nil)
	pid := "player-1"

	v := mustAction(t, mux, pid, "name", "Alex")
	if v.Notice != "Welcome, Alex." {
		t.Fatalf("unexpected notice %q", v.Notice)
	}
	mustAction(t, mux, pid, "start_campaign", "")
	v = mustAction(t, mux, pid, "select_policy", "tax-cuts")
	if v.State.ApprovalRating != 60 || v.PoliciesNeeded != 2 || v.CanStartDebate {
		t.Fatalf("unexpected campaign view: %+v", v)
	}

	rr := postAction(t, mux, pid, "start_debate", "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("start_debate with one policy status=%d", rr.Code)
	}
	v = decodeView(t, rr)
	if v.State.Phase != PhaseCampaign || !strings.HasPrefix(v.Notice, "Select 2 more policies") {
		t.Fatalf("rejected action should leave state alone: phase=%s notice=%q", v.State.Phase, v.Notice)
	}

	rr = postAction(t, mux, pid, "select_policy", "moon-base")
	if rr.Code != http.StatusConflict {
		t.Fatalf("unknown policy status=%d", rr.Code)
	}
	rr = postAction(t, mux, pid, "dance", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown action status=%d", rr.Code)
	}
	rr = doReq(t, mux, http.MethodGet, "/api/action", nil, pid)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /api/action status=%d", rr.Code)
	}

	// The toast is consumed by the view that carries it.
	v = decodeView(t, doReq(t, mux, http.MethodGet, "/api/state", nil, pid))
	if v.Notice != "" {
		t.Fatalf("notice should be shown once, got %q", v.Notice)
	}
}

func TestPlayThroughHiringOverHTTP(t *testing.T) {
	_, mux := newTestServer(t, nil)
	pid := "player-1"

	mustAction(t, mux, pid, "name", "Alex")
	mustAction(t, mux, pid, "start_campaign", "")
	for _, id := range []string{"tax-cuts", "drug-prices", "veterans-care"} {
		mustAction(t, mux, pid, "select_policy", id)
	}
	v := mustAction(t, mux, pid, "start_debate", "")
	if v.Debate == nil || v.Debate.Number != 1 || v.Debate.Total != 5 {
		t.Fatalf("expected first debate question, got %+v", v.Debate)
	}
	for q := 0; q < 5; q++ {
		mustAction(t, mux, pid, "answer", "1")
		v = mustAction(t, mux, pid, "next", "")
	}
	if v.State.Phase != PhaseElection {
		t.Fatalf("next after the last question should start the election, phase=%s", v.State.Phase)
	}
	v = mustAction(t, mux, pid, "run_election", "")
	if v.Election == nil || !v.Election.Won || v.State.ElectionResult != ElectionWin {
		t.Fatalf("expected a won election, got %+v", v.Election)
	}

	v = mustAction(t, mux, pid, "start_governing", "")
	if v.CurrentEvent == nil || v.CurrentEvent.ID != "inauguration" || v.EventBadge == nil {
		t.Fatalf("expected inauguration event, got %+v", v.CurrentEvent)
	}
	mustAction(t, mux, pid, "choose", "1")
	mustAction(t, mux, pid, "continue", "")
	v = mustAction(t, mux, pid, "choose", "2")
	if v.SelectedChoice == nil || v.SelectedChoice.FireCabinetMember != AttorneyGeneral {
		t.Fatalf("expected firing choice, got %+v", v.SelectedChoice)
	}
	v = mustAction(t, mux, pid, "continue", "")
	if v.HiringFor != AttorneyGeneral || len(v.Candidates) != 3 || v.Candidates[0].Risk == "" {
		t.Fatalf("expected attorney general candidates, got hiringFor=%q candidates=%+v", v.HiringFor, v.Candidates)
	}

	rr := postAction(t, mux, pid, "continue", "")
	if rr.Code != http.StatusConflict || !strings.Contains(decodeView(t, rr).Notice, "Attorney General") {
		t.Fatalf("continue before hiring status=%d body=%s", rr.Code, rr.Body.String())
	}
	mustAction(t, mux, pid, "hire", "ag-okafor")
	mustAction(t, mux, pid, "choose", "1")
	v = mustAction(t, mux, pid, "continue", "")
	if v.CurrentEvent == nil || v.CurrentEvent.ID != "economic-report" || v.HiringFor != "" {
		t.Fatalf("expected economic report after hiring, got %+v", v.CurrentEvent)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	_, mux := newTestServer(t, nil)
	mustAction(t, mux, "a", "name", "Alex")
	mustAction(t, mux, "a", "start_campaign", "")

	v := decodeView(t, doReq(t, mux, http.MethodGet, "/api/state", nil, "b"))
	if v.State.Phase != PhaseTitle || v.State.PlayerName != "" {
		t.Fatalf("second session should be fresh: %+v", v.State)
	}
}

func TestSaveLoadDeleteWithSQLite(t *testing.T) {
	repo, err := openSQLRepository(context.Background(), Config{
		DBDialect:  "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "http.sqlite"),
	})
	if err != nil {
		t.Fatalf("openSQLRepository: %v", err)
	}
	defer repo.Close()
	srv, mux := newTestServer(t, repo)
	pid := "player-1"

	rr := doReq(t, mux, http.MethodPost, "/api/load", nil, pid)
	if rr.Code != http.StatusNotFound || decodeView(t, rr).Notice != "No saved game." {
		t.Fatalf("load without a save status=%d body=%s", rr.Code, rr.Body.String())
	}

	mustAction(t, mux, pid, "name", "Alex")
	mustAction(t, mux, pid, "start_campaign", "")
	mustAction(t, mux, pid, "select_policy", "tax-cuts")

	rr = doReq(t, mux, http.MethodPost, "/api/save", url.Values{"exit": {"1"}}, pid)
	v := decodeView(t, rr)
	if rr.Code != http.StatusOK || v.State.Phase != PhaseTitle || !v.CanResume {
		t.Fatalf("save and exit status=%d view=%+v", rr.Code, v)
	}

	mustAction(t, mux, pid, "reset", "")
	rr = doReq(t, mux, http.MethodPost, "/api/load", nil, pid)
	v = decodeView(t, rr)
	if rr.Code != http.StatusOK || v.Notice != "Game loaded." {
		t.Fatalf("load status=%d notice=%q", rr.Code, v.Notice)
	}
	if v.State.PlayerName != "Alex" || v.State.Phase != PhaseCampaign || v.State.ApprovalRating != 60 {
		t.Fatalf("loaded state mismatch: %+v", v.State)
	}
	if srv.sessions[pid].State().PlayerName != "Alex" {
		t.Fatalf("loaded engine should replace the session")
	}

	rr = doReq(t, mux, http.MethodPost, "/api/delete", nil, pid)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = doReq(t, mux, http.MethodPost, "/api/load", nil, pid)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("load after delete status=%d", rr.Code)
	}
}

func TestPersistenceUnavailable(t *testing.T) {
	_, mux := newTestServer(t, nil)
	for _, target := range []string{"/api/save", "/api/load", "/api/delete"} {
		rr := doReq(t, mux, http.MethodPost, target, nil, "player-1")
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s without a store status=%d", target, rr.Code)
		}
		if decodeView(t, rr).State.Phase != PhaseTitle {
			t.Fatalf("%s should leave the game alone", target)
		}
	}
}
