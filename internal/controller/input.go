package controller

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Alias1177/ChurnPredictor/internal/model"
)

// ErrInvalidInput is returned when a raw field value cannot be coerced
var ErrInvalidInput = errors.New("invalid input")

// largest integer a float64 holds exactly
const maxExactInt = 1 << 53

// ParseRequest coerces the raw form values into a PredictionRequest.
// Recency and frequency are truncated toward zero; monetary keeps its fraction.
// Empty, non-numeric, NaN, infinite and negative values are rejected.
func ParseRequest(values map[model.Field]string) (model.PredictionRequest, error) {
	recency, err := parseCount(model.FieldRecency, values[model.FieldRecency])
	if err != nil {
		return model.PredictionRequest{}, err
	}
	frequency, err := parseCount(model.FieldFrequency, values[model.FieldFrequency])
	if err != nil {
		return model.PredictionRequest{}, err
	}
	monetary, err := parseAmount(model.FieldMonetary, values[model.FieldMonetary])
	if err != nil {
		return model.PredictionRequest{}, err
	}

	return model.PredictionRequest{
		Recency:   recency,
		Frequency: frequency,
		Monetary:  monetary,
	}, nil
}

func parseCount(field model.Field, raw string) (int, error) {
	v, err := parseAmount(field, raw)
	if err != nil {
		return 0, err
	}
	if v >= maxExactInt {
		return 0, fmt.Errorf("%w: %s %q is too large", ErrInvalidInput, field, raw)
	}
	return int(math.Trunc(v)), nil
}

func parseAmount(field model.Field, raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("%w: %s is empty", ErrInvalidInput, field)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", ErrInvalidInput, field, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s %q is not a finite number", ErrInvalidInput, field, raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: %s %q is negative", ErrInvalidInput, field, raw)
	}
	return v, nil
}
