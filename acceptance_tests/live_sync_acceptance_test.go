package acceptance_tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"mealboard/internal/auth"
	"mealboard/internal/client"
	"mealboard/internal/database"
	"mealboard/internal/entity"
	"mealboard/internal/metrics"
	"mealboard/internal/mutate"
	"mealboard/internal/notify"
	"mealboard/internal/server"
	"mealboard/internal/store"
	"mealboard/internal/stream"
)

// tab is one simulated browser tab: a session identity, an HTTP caller
// and a synchronization controller counting its re-fetches.
type tab struct {
	session client.Session
	refetch atomic.Int64
	notices atomic.Int64
	ctrl    *client.Controller
	token   string
	baseURL string
}

func newTab(t *testing.T, baseURL, token, owner string) *tab {
	t.Helper()
	tb := &tab{session: client.NewSession(), token: token, baseURL: baseURL}
	tb.ctrl = client.NewController(tb.session, &client.WSDialer{BaseURL: baseURL, Token: token}, "ingredients",
		func(ctx context.Context) error {
			tb.refetch.Add(1)
			return nil
		},
		func(string) { tb.notices.Add(1) })

	if err := tb.ctrl.SetOwner(context.Background(), owner); err != nil {
		t.Fatalf("Failed to subscribe tab: %v", err)
	}
	t.Cleanup(func() { tb.ctrl.Close() })
	return tb
}

func (tb *tab) createIngredient(t *testing.T, name string) {
	t.Helper()
	body, _ := json.Marshal(entity.Ingredient{Name: name})
	req, _ := http.NewRequest(http.MethodPost, tb.baseURL+"/v1/ingredients", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+tb.token)
	req.Header.Set(server.ClientIDHeader, tb.session.ClientID)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Create request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestLiveSyncAcrossTabs drives the full stack: two tabs of the same user
// subscribe over websockets, one writes over HTTP, and only the other tab
// re-fetches.
func TestLiveSyncAcrossTabs(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, err := database.NewDB(filepath.Join(t.TempDir(), "acceptance.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	metricsStore := metrics.NewStore(db.SQL)
	notifier := notify.New(metricsStore)
	interceptor := mutate.New(notifier, false)
	authSvc := auth.NewService("acceptance-secret", time.Hour)
	gateway := stream.NewGateway(notifier, interceptor)
	srv := server.New(store.New(db.SQL), authSvc, interceptor, gateway, metricsStore)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	token, err := authSvc.IssueToken("u1", "user")
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	editor := newTab(t, ts.URL, token, "u1")
	observer := newTab(t, ts.URL, token, "u1")

	// Both subscriptions must be attached before the write.
	waitFor(t, func() bool {
		return notifier.SubscriberCount("ingredientUpdated.u1") == 2
	}, "Expected both tabs subscribed")

	// --- Step 1: editor tab writes ---
	t.Log("--- Step 1: editor tab creates an ingredient ---")
	editor.createIngredient(t, "Rice")

	waitFor(t, func() bool { return observer.refetch.Load() == 1 },
		"Expected the observer tab to re-fetch after a foreign event")
	waitFor(t, func() bool { return observer.notices.Load() == 1 },
		"Expected a user notice on the observer tab")

	// The editing tab saw its own client id and stayed quiet.
	time.Sleep(200 * time.Millisecond)
	if got := editor.refetch.Load(); got != 0 {
		t.Errorf("Expected self-echo to be discarded, got %d re-fetches", got)
	}

	// --- Step 2: a second write still reaches the observer ---
	t.Log("--- Step 2: second write ---")
	editor.createIngredient(t, "Oil")
	waitFor(t, func() bool { return observer.refetch.Load() == 2 },
		"Expected a second re-fetch on the observer")

	// --- Step 3: foreign owners get nothing ---
	t.Log("--- Step 3: stream isolation ---")
	intruderToken, err := authSvc.IssueToken("u2", "user")
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	intruder := client.NewController(client.NewSession(),
		&client.WSDialer{BaseURL: ts.URL, Token: intruderToken}, "ingredients",
		func(ctx context.Context) error { return nil }, nil)
	if err := intruder.SetOwner(context.Background(), "u1"); err == nil {
		intruder.Close()
		t.Error("Expected a foreign caller to be rejected from u1's stream")
	}
}
