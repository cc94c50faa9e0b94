package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ChurnPredictor/internal/model"
	httpClient "github.com/Alias1177/ChurnPredictor/internal/platform/http"
)

const predictPath = "/predict_churn"

// ErrMalformedResponse is returned when a 2xx reply breaks the response contract
var ErrMalformedResponse = errors.New("malformed scoring response")

// Scorer is the remote service that turns customer features into a churn probability
type Scorer interface {
	Predict(ctx context.Context, req model.PredictionRequest) (float64, error)
}

// Client is the scoring service HTTP client
type Client struct {
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new scoring client
type ClientOptions struct {
	BaseURL        string
	RequestTimeout time.Duration
	RequestsPerSec int
}

// NewClient creates a new scoring service client
func NewClient(options ClientOptions) *Client {
	return &Client{
		baseURL: strings.TrimRight(options.BaseURL, "/"),
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:        options.RequestTimeout,
			RequestsPerSec: options.RequestsPerSec,
		}),
		logger: log.With().Str("component", "scoring_client").Logger(),
	}
}

// Predict posts the request to /predict_churn once and returns the churn probability
func (c *Client) Predict(ctx context.Context, in model.PredictionRequest) (float64, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+predictPath, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().RawJSON("request", payload).Msg("Requesting churn prediction")

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("reading response body: %w", err)
	}

	var data model.PredictionResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return 0, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	p, err := data.Probability()
	if err != nil {
		c.logger.Warn().Str("response", string(body)).Msg("Invalid churn probability")
		return 0, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	c.logger.Debug().Float64("churn_probability", p).Msg("Received churn prediction")
	return p, nil
}

// Ping checks that the scoring service answers on its root endpoint
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// WaitReady blocks until Ping succeeds or maxWait elapses
func (c *Client) WaitReady(ctx context.Context, maxWait time.Duration) error {
	c.logger.Info().Dur("max_wait", maxWait).Str("base_url", c.baseURL).Msg("Waiting for scoring service")
	if err := httpClient.WaitReady(ctx, maxWait, c.Ping); err != nil {
		return fmt.Errorf("scoring service at %s not reachable: %w", c.baseURL, err)
	}
	c.logger.Info().Msg("Scoring service is reachable")
	return nil
}
