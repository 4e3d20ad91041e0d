package safebrowsing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/luansvb/guardinia/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &Client{
		apiKey:      "test-key",
		endpoint:    server.URL,
		threatTypes: []string{"MALWARE", "SOCIAL_ENGINEERING"},
		httpClient:  server.Client(),
	}
}

func TestCheckMalicious(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req lookupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding lookup request: %v", err)
		}
		if len(req.ThreatInfo.ThreatEntries) != 2 {
			t.Errorf("threat entries = %d, want 2", len(req.ThreatInfo.ThreatEntries))
		}
		if !reflect.DeepEqual(req.ThreatInfo.ThreatTypes, []string{"MALWARE", "SOCIAL_ENGINEERING"}) {
			t.Errorf("threat types = %v, want the configured pair", req.ThreatInfo.ThreatTypes)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %q, want test-key", r.URL.Query().Get("key"))
		}
		w.Write([]byte(`{"matches":[{"threatType":"SOCIAL_ENGINEERING","threat":{"url":"http://bad.example"}}]}`))
	})

	got := client.Check(context.Background(), []string{"http://bad.example", "http://fine.example"})
	if got != VerdictMalicious {
		t.Errorf("Check = %v, want MALICIOUS", got)
	}
}

func TestCheckSafe(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	if got := client.Check(context.Background(), []string{"http://fine.example"}); got != VerdictSafe {
		t.Errorf("Check = %v, want SAFE", got)
	}
}

func TestCheckRetriesOnceThenRecovers(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	})

	if got := client.Check(context.Background(), []string{"http://fine.example"}); got != VerdictSafe {
		t.Errorf("Check = %v, want SAFE after retry", got)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestCheckUnknownOnPersistentFailure(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	})

	if got := client.Check(context.Background(), []string{"http://fine.example"}); got != VerdictUnknown {
		t.Errorf("Check = %v, want UNKNOWN", got)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestCheckNilClientAndEmptyInput(t *testing.T) {
	var client *Client
	if got := client.Check(context.Background(), []string{"http://x.example"}); got != VerdictUnknown {
		t.Errorf("nil client Check = %v, want UNKNOWN", got)
	}
	configured := NewClient(&config.Config{SafeBrowsingAPIKey: "key"})
	if got := configured.Check(context.Background(), nil); got != VerdictUnknown {
		t.Errorf("empty URL list Check = %v, want UNKNOWN", got)
	}
	if NewClient(&config.Config{}) != nil {
		t.Error("NewClient without key should return nil")
	}
}
