package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"bantayani/internal/metrics"
	"bantayani/internal/models"

	"golang.org/x/time/rate"
)

// IdentifyService wraps the vision model. It never returns an error to the
// caller; failures come back as an unsuccessful response.
type IdentifyService struct {
	identifier PestIdentifier
	limiter    *rate.Limiter
	timeout    time.Duration
	metrics    *metrics.Metrics
}

func NewIdentifyService(identifier PestIdentifier, requestsPerMinute int, m *metrics.Metrics) *IdentifyService {
	limit := rate.Inf
	burst := 1
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
		burst = max(1, requestsPerMinute/10)
	}
	return &IdentifyService{
		identifier: identifier,
		limiter:    rate.NewLimiter(limit, burst),
		timeout:    45 * time.Second,
		metrics:    m,
	}
}

func (s *IdentifyService) Identify(ctx context.Context, req models.IdentifyRequest) models.IdentifyResponse {
	start := time.Now()
	result, err := s.identify(ctx, req)
	if err != nil {
		s.metrics.RecordAIRequest("error", time.Since(start).Seconds())
		slog.Warn("pest identification failed", "crop_type", req.CropType, "error", err)
		return models.IdentifyResponse{Success: false, Error: err.Error()}
	}
	s.metrics.RecordAIRequest("ok", time.Since(start).Seconds())
	return models.IdentifyResponse{Success: true, Detection: result}
}

func (s *IdentifyService) identify(ctx context.Context, req models.IdentifyRequest) (*models.IdentifyResult, error) {
	if s.identifier == nil {
		return nil, errors.New("identification service not configured")
	}
	image, err := DecodeImagePayload(req.Image)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limited: %w", err)
	}

	raw, err := s.identifier.IdentifyPest(ctx, image, req.CropType)
	if err != nil {
		return nil, err
	}
	result, err := ParseIdentifyResult(raw)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DecodeImagePayload accepts plain base64 or a data URL.
func DecodeImagePayload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if i := strings.Index(payload, ","); strings.HasPrefix(payload, "data:") && i >= 0 {
		payload = payload[i+1:]
	}
	if payload == "" {
		return nil, errors.New("image is required")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("image is not valid base64: %w", err)
	}
	return data, nil
}

// ParseIdentifyResult converts the model's JSON object into a result with
// confidence clamped to [0,1]. Percentages (1 < c <= 100) are scaled down.
func ParseIdentifyResult(raw map[string]any) (models.IdentifyResult, error) {
	pest, _ := raw["pest_type"].(string)
	pest = strings.TrimSpace(pest)
	if pest == "" {
		return models.IdentifyResult{}, errors.New("model response has no pest_type")
	}

	res := models.IdentifyResult{
		PestType:       pest,
		ScientificName: stringField(raw, "scientific_name"),
		Description:    stringField(raw, "description"),
		Confidence:     clampConfidence(numberField(raw, "confidence")),
	}
	if recs, ok := raw["recommendations"].([]any); ok {
		for _, r := range recs {
			if s, ok := r.(string); ok && strings.TrimSpace(s) != "" {
				res.Recommendations = append(res.Recommendations, strings.TrimSpace(s))
			}
		}
	}
	return res, nil
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return strings.TrimSpace(s)
}

func numberField(raw map[string]any, key string) float64 {
	switch v := raw[key].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "%"), 64)
		if err == nil {
			return f
		}
	}
	return 0
}

func clampConfidence(c float64) float64 {
	if math.IsNaN(c) {
		return 0
	}
	if c > 1 && c <= 100 {
		c /= 100
	}
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
