// Package controller holds the prediction form state and the submission lifecycle.
package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ChurnPredictor/internal/api/scoring"
	"github.com/Alias1177/ChurnPredictor/internal/model"
)

// BackendAlert is shown when the scoring service could not produce a prediction
const BackendAlert = "Failed to get prediction. Is the backend server running?"

// Alerter delivers the out-of-band failure notification to the user
type Alerter interface {
	Alert(message string)
}

// AlertFunc adapts a function to Alerter
type AlertFunc func(message string)

// Alert implements Alerter
func (f AlertFunc) Alert(message string) { f(message) }

// State is a snapshot of the controller used for rendering
type State struct {
	Values  map[model.Field]string
	Pending bool
	Outcome model.Outcome
}

// Controller owns one form session: the three raw inputs, the submission
// lock and the last outcome. At most one prediction request is in flight.
type Controller struct {
	mu      sync.Mutex
	values  map[model.Field]string
	pending bool
	outcome model.Outcome
	closed  bool

	scorer  scoring.Scorer
	alerter Alerter
	logger  zerolog.Logger
}

// New creates a controller with the default form values
func New(scorer scoring.Scorer, alerter Alerter) *Controller {
	if alerter == nil {
		alerter = AlertFunc(func(string) {})
	}
	return &Controller{
		values: map[model.Field]string{
			model.FieldRecency:   "10",
			model.FieldFrequency: "5",
			model.FieldMonetary:  "500",
		},
		outcome: model.Empty(),
		scorer:  scorer,
		alerter: alerter,
		logger:  log.With().Str("component", "prediction_controller").Logger(),
	}
}

// SetValue stores raw text for a field verbatim
func (c *Controller) SetValue(field model.Field, raw string) error {
	if _, err := model.ParseField(string(field)); err != nil {
		return err
	}
	c.mu.Lock()
	c.values[field] = raw
	c.mu.Unlock()
	return nil
}

// State returns a snapshot of the current session
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	values := make(map[model.Field]string, len(c.values))
	for k, v := range c.values {
		values[k] = v
	}
	return State{Values: values, Pending: c.pending, Outcome: c.outcome}
}

// Start begins a submission and returns a channel that receives the
// settled outcome exactly once. If the controller is closed before the
// submission settles, the channel is closed without a value.
// It returns false and starts nothing while another submission is in
// flight or after Close.
func (c *Controller) Start(ctx context.Context) (<-chan model.Outcome, bool) {
	c.mu.Lock()
	if c.pending || c.closed {
		c.mu.Unlock()
		return nil, false
	}
	c.pending = true
	values := make(map[model.Field]string, len(c.values))
	for k, v := range c.values {
		values[k] = v
	}
	// drops the previous result before the new one is known
	c.outcome = model.Pending()
	c.mu.Unlock()

	done := make(chan model.Outcome, 1)
	go func() {
		outcome := model.Failure("submission aborted")
		alert := BackendAlert
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error().Interface("panic", r).Msg("Scoring call panicked")
				outcome = model.Failure(fmt.Sprintf("panic: %v", r))
				alert = BackendAlert
			}
			if c.settle(outcome, alert) {
				done <- outcome
			}
			close(done)
		}()
		outcome, alert = c.run(ctx, values)
	}()

	return done, true
}

// Submit runs one submission and waits for it to settle. The second
// result is false when the call was a no-op because the lock was held.
func (c *Controller) Submit(ctx context.Context) (model.Outcome, bool) {
	done, started := c.Start(ctx)
	if !started {
		return c.State().Outcome, false
	}
	outcome, ok := <-done
	if !ok {
		return c.State().Outcome, true
	}
	return outcome, true
}

// Close tears the session down. A submission still in flight completes
// at the transport level but its outcome is discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Controller) run(ctx context.Context, values map[model.Field]string) (model.Outcome, string) {
	req, err := ParseRequest(values)
	if err != nil {
		c.logger.Info().Err(err).Msg("Rejected form input")
		return model.Failure(err.Error()), "Please enter valid numbers: " + err.Error()
	}

	c.logger.Info().
		Int("recency", req.Recency).
		Int("frequency", req.Frequency).
		Float64("monetary", req.Monetary).
		Msg("Submitting prediction request")

	p, err := c.scorer.Predict(ctx, req)
	if err != nil {
		c.logger.Error().Err(err).Msg("Error fetching prediction")
		return model.Failure(err.Error()), BackendAlert
	}
	return model.Success(p, req), ""
}

// settle releases the lock and records the outcome unless the session is
// closed. It reports whether the outcome was recorded.
func (c *Controller) settle(outcome model.Outcome, alert string) bool {
	c.mu.Lock()
	c.pending = false
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug().Str("outcome", outcome.Kind.String()).Msg("Dropping settlement for closed session")
		return false
	}
	c.outcome = outcome
	c.mu.Unlock()

	c.logger.Info().Str("outcome", outcome.Kind.String()).Msg("Prediction settled")
	if outcome.Kind == model.OutcomeFailure && alert != "" {
		c.alerter.Alert(alert)
	}
	return true
}
