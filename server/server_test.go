package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wfunc/avalon/avalon"
	"github.com/wfunc/avalon/logger"
)

func init() {
	logger.InitDevelopment()
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	engine := avalon.NewEngine(rand.New(rand.NewSource(1)))
	s, err := NewGameServer(Options{
		Addr:             "127.0.0.1:0",
		RPCAddr:          "127.0.0.1:0",
		DefaultSeatCount: 5,
	}, engine, nil, nil)
	if err != nil {
		t.Fatalf("NewGameServer: %v", err)
	}
	t.Cleanup(s.Shutdown)

	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestResetAndJoinFlow(t *testing.T) {
	ts := newTestServer(t)

	resp, body := postJSON(t, ts, "/avalon/reset_game", map[string]interface{}{"count": 5})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset_game status = %d, body %v", resp.StatusCode, body)
	}

	for i := 1; i <= 5; i++ {
		resp, body = postJSON(t, ts, "/avalon/join", map[string]string{"name": fmt.Sprintf("p%d", i)})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("join p%d status = %d, body %v", i, resp.StatusCode, body)
		}
	}

	// Sixth seat does not exist.
	resp, body = postJSON(t, ts, "/avalon/join", map[string]string{"name": "p6"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("join on full table status = %d, want 400", resp.StatusCode)
	}
	if body["detail"] == "" {
		t.Fatal("expected a detail message on the error response")
	}

	// Rejoining a seated name still succeeds.
	resp, body = postJSON(t, ts, "/avalon/join", map[string]string{"name": "p1"})
	if resp.StatusCode != http.StatusOK || body["message"] != "already joined" {
		t.Fatalf("rejoin status = %d, body %v", resp.StatusCode, body)
	}

	getResp, err := http.Get(ts.URL + "/avalon/status/p1")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer getResp.Body.Close()
	var snap map[string]interface{}
	json.NewDecoder(getResp.Body).Decode(&snap)
	if snap["status"] != "active" {
		t.Fatalf("status after filling the table = %v, want active", snap["status"])
	}
	if snap["your_role"] == "" || snap["your_role"] == nil {
		t.Fatal("viewer should see their own role")
	}
}

func TestLobbyEndpoint(t *testing.T) {
	ts := newTestServer(t)

	postJSON(t, ts, "/avalon/reset_game", map[string]interface{}{"count": 5, "excalibur": true})
	postJSON(t, ts, "/avalon/join", map[string]string{"name": "alice"})

	resp, err := http.Get(ts.URL + "/avalon/lobby")
	if err != nil {
		t.Fatalf("GET lobby: %v", err)
	}
	defer resp.Body.Close()

	var lobby map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&lobby)
	if lobby["status"] != "joining" {
		t.Fatalf("lobby status = %v, want joining", lobby["status"])
	}
	if lobby["current_count"].(float64) != 1 {
		t.Fatalf("lobby current_count = %v, want 1", lobby["current_count"])
	}
	if lobby["excalibur_enabled"] != true {
		t.Fatal("lobby should report the enabled modifier")
	}
}

func TestProposeTeamValidationError(t *testing.T) {
	ts := newTestServer(t)

	postJSON(t, ts, "/avalon/reset_game", map[string]interface{}{"count": 5})
	for i := 1; i <= 5; i++ {
		postJSON(t, ts, "/avalon/join", map[string]string{"name": fmt.Sprintf("p%d", i)})
	}

	// First mission at five seats takes two players, not four.
	resp, body := postJSON(t, ts, "/avalon/propose_team", map[string]interface{}{
		"team": []string{"p1", "p2", "p3", "p4"},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("oversized proposal status = %d, want 400", resp.StatusCode)
	}
	if body["detail"] == nil {
		t.Fatal("expected a detail message")
	}

	// The legacy route name proposes the same way.
	resp, body = postJSON(t, ts, "/avalon/start_mission", map[string]interface{}{
		"team": []string{"p1", "p2"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start_mission alias status = %d, body %v", resp.StatusCode, body)
	}
	if body["required_team_size"].(float64) != 2 {
		t.Fatalf("start_mission response = %v", body)
	}
}

func TestEndGameRequiresLiveGame(t *testing.T) {
	ts := newTestServer(t)

	postJSON(t, ts, "/avalon/reset_game", map[string]interface{}{"count": 5})
	resp, _ := postJSON(t, ts, "/avalon/end_game", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("end_game on live table status = %d", resp.StatusCode)
	}

	// A second end is an illegal transition.
	resp, _ = postJSON(t, ts, "/avalon/end_game", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("end_game on ended table status = %d, want 400", resp.StatusCode)
	}
}
