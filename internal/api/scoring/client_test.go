package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/ChurnPredictor/internal/model"
	httpClient "github.com/Alias1177/ChurnPredictor/internal/platform/http"
)

func newTestClient(url string) *Client {
	return NewClient(ClientOptions{BaseURL: url, RequestTimeout: 2 * time.Second})
}

func TestPredict_SendsRequestBody(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict_churn", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"churn_probability": 0.73}`))
	}))
	defer srv.Close()

	p, err := newTestClient(srv.URL+"/").Predict(context.Background(), model.PredictionRequest{
		Recency: 10, Frequency: 5, Monetary: 500.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.73, p)
	assert.Equal(t, map[string]any{"recency": 10.0, "frequency": 5.0, "monetary": 500.5}, got)
}

func TestPredict_Failures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		malformed bool
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"detail":"boom"}`},
		{name: "validation error", status: http.StatusUnprocessableEntity, body: `{"detail":[]}`},
		{name: "not json", status: http.StatusOK, body: `<html>`, malformed: true},
		{name: "missing field", status: http.StatusOK, body: `{"probability": 0.2}`, malformed: true},
		{name: "null field", status: http.StatusOK, body: `{"churn_probability": null}`, malformed: true},
		{name: "string field", status: http.StatusOK, body: `{"churn_probability": "0.2"}`, malformed: true},
		{name: "above one", status: http.StatusOK, body: `{"churn_probability": 1.5}`, malformed: true},
		{name: "negative", status: http.StatusOK, body: `{"churn_probability": -0.1}`, malformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Predict(context.Background(), model.PredictionRequest{})
			require.Error(t, err)
			assert.Equal(t, tt.malformed, errors.Is(err, ErrMalformedResponse))
			if !tt.malformed {
				var statusErr *httpClient.HTTPStatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, tt.status, statusErr.StatusCode)
			}
		})
	}
}

func TestPredict_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).Predict(context.Background(), model.PredictionRequest{})
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		w.Write([]byte(`{"message":"Welcome to the Customer Churn Prediction API"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	assert.NoError(t, c.Ping(context.Background()))
	assert.NoError(t, c.WaitReady(context.Background(), time.Second))
}
