package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/ChurnPredictor/internal/controller"
	"github.com/Alias1177/ChurnPredictor/internal/model"
	"github.com/Alias1177/ChurnPredictor/internal/render"
)

type stubScorer struct {
	mu    sync.Mutex
	calls []model.PredictionRequest
	gate  chan struct{}
	p     float64
	err   error
}

func (s *stubScorer) Predict(ctx context.Context, req model.PredictionRequest) (float64, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	if s.gate != nil {
		<-s.gate
	}
	return s.p, s.err
}

func (s *stubScorer) requests() []model.PredictionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.PredictionRequest(nil), s.calls...)
}

func newTestServer(t *testing.T, scorer *stubScorer) (*SessionStore, http.Handler) {
	t.Helper()
	store := NewSessionStore(func(a controller.Alerter) *controller.Controller {
		return controller.New(scorer, a)
	}, time.Hour)
	t.Cleanup(store.Stop)
	return store, NewServer(store, render.DefaultOptions()).Routes()
}

func get(t *testing.T, h http.Handler, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func post(t *testing.T, h http.Handler, cookie *http.Cookie, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func sessionCookieFrom(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func waitSettled(t *testing.T, store *SessionStore, id string) {
	t.Helper()
	sess, created := store.Get(id)
	require.False(t, created)
	require.Eventually(t, func() bool {
		return !sess.Ctrl.State().Pending
	}, time.Second, 5*time.Millisecond)
}

func TestShowForm_Defaults(t *testing.T) {
	_, h := newTestServer(t, &stubScorer{})

	rr := get(t, h, nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	body := rr.Body.String()
	assert.Contains(t, body, `name="recency" value="10"`)
	assert.Contains(t, body, `name="frequency" value="5"`)
	assert.Contains(t, body, `name="monetary" value="500"`)
	assert.Contains(t, body, "Predict Churn")
	assert.NotContains(t, body, "Churn Probability")
	sessionCookieFrom(t, rr)
}

func TestSubmitForm_Success(t *testing.T) {
	scorer := &stubScorer{p: 0.73}
	store, h := newTestServer(t, scorer)
	cookie := sessionCookieFrom(t, get(t, h, nil))

	rr := post(t, h, cookie, url.Values{"recency": {"10"}, "frequency": {"5"}, "monetary": {"500.0"}})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	waitSettled(t, store, cookie.Value)

	body := get(t, h, cookie).Body.String()
	assert.Contains(t, body, "Churn Probability: 73.00%")
	assert.Contains(t, body, "This customer is likely to churn.")
	assert.NotContains(t, body, "alert(")
	assert.Equal(t, []model.PredictionRequest{{Recency: 10, Frequency: 5, Monetary: 500}}, scorer.requests())
}

func TestSubmitForm_FailureAlertShownOnce(t *testing.T) {
	store, h := newTestServer(t, &stubScorer{err: errors.New("connection refused")})
	cookie := sessionCookieFrom(t, get(t, h, nil))

	post(t, h, cookie, url.Values{"recency": {"1"}, "frequency": {"1"}, "monetary": {"1"}})
	waitSettled(t, store, cookie.Value)

	first := get(t, h, cookie).Body.String()
	assert.Contains(t, first, "alert(")
	assert.Contains(t, first, "Is the backend server running?")
	assert.NotContains(t, first, "Churn Probability")
	assert.Contains(t, first, "Predict Churn")

	second := get(t, h, cookie).Body.String()
	assert.NotContains(t, second, "alert(")
}

func TestSubmitForm_IgnoredWhilePending(t *testing.T) {
	scorer := &stubScorer{p: 0.2, gate: make(chan struct{})}
	store, h := newTestServer(t, scorer)
	cookie := sessionCookieFrom(t, get(t, h, nil))

	post(t, h, cookie, url.Values{"recency": {"1"}, "frequency": {"2"}, "monetary": {"3"}})
	rr := post(t, h, cookie, url.Values{"recency": {"4"}, "frequency": {"5"}, "monetary": {"6"}})
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	body := get(t, h, cookie).Body.String()
	assert.Contains(t, body, "Predicting...")
	assert.Contains(t, body, " disabled>")
	assert.Contains(t, body, `http-equiv="refresh"`)

	close(scorer.gate)
	waitSettled(t, store, cookie.Value)

	assert.Equal(t, []model.PredictionRequest{{Recency: 1, Frequency: 2, Monetary: 3}}, scorer.requests())
	body = get(t, h, cookie).Body.String()
	assert.Contains(t, body, "Churn Probability: 20.00%")
	assert.NotContains(t, body, `http-equiv="refresh"`)
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t, &stubScorer{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestSessionStore_StopTwice(t *testing.T) {
	store := NewSessionStore(func(a controller.Alerter) *controller.Controller {
		return controller.New(&stubScorer{}, a)
	}, time.Hour)

	store.Get("")
	store.Stop()
	assert.NotPanics(t, store.Stop)
	assert.Equal(t, 0, store.Len())
}

func TestSessionStore_EvictIdle(t *testing.T) {
	store, _ := newTestServer(t, &stubScorer{})

	sess, created := store.Get("")
	require.True(t, created)
	require.Equal(t, 1, store.Len())

	store.evictIdle(time.Now().Add(30 * time.Minute))
	assert.Equal(t, 1, store.Len())

	store.evictIdle(time.Now().Add(2 * time.Hour))
	assert.Equal(t, 0, store.Len())

	// a closed controller refuses new submissions
	_, started := sess.Ctrl.Start(context.Background())
	assert.False(t, started)
}
