package services

import (
	"context"
	"encoding/base64"
	"math"
	"testing"

	"bantayani/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIdentifier struct {
	raw   map[string]any
	err   error
	calls int
	crop  string
}

func (s *stubIdentifier) IdentifyPest(_ context.Context, _ []byte, cropType string) (map[string]any, error) {
	s.calls++
	s.crop = cropType
	return s.raw, s.err
}

func TestIdentifyService_Success(t *testing.T) {
	stub := &stubIdentifier{raw: map[string]any{
		"pest_type":       "Fall Armyworm",
		"scientific_name": "Spodoptera frugiperda",
		"confidence":      92.0,
		"recommendations": []any{"Scout twice a week", "", 7},
	}}
	svc := NewIdentifyService(stub, 0, nil)

	resp := svc.Identify(context.Background(), models.IdentifyRequest{
		Image:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF}),
		CropType: "Corn",
	})
	require.True(t, resp.Success, resp.Error)
	require.NotNil(t, resp.Detection)
	assert.Equal(t, "Fall Armyworm", resp.Detection.PestType)
	assert.InDelta(t, 0.92, resp.Detection.Confidence, 1e-9)
	assert.Equal(t, []string{"Scout twice a week"}, resp.Detection.Recommendations)
	assert.Equal(t, "Corn", stub.crop)
}

func TestIdentifyService_FailuresAreReportedNotReturned(t *testing.T) {
	stub := &stubIdentifier{err: errBoom}
	svc := NewIdentifyService(stub, 60, nil)

	resp := svc.Identify(context.Background(), models.IdentifyRequest{Image: base64.StdEncoding.EncodeToString([]byte("img"))})
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Detection)
	assert.Equal(t, "boom", resp.Error)

	resp = svc.Identify(context.Background(), models.IdentifyRequest{Image: "%%%"})
	assert.False(t, resp.Success)
	assert.Equal(t, 1, stub.calls)

	resp = NewIdentifyService(nil, 0, nil).Identify(context.Background(), models.IdentifyRequest{Image: "aGk="})
	assert.False(t, resp.Success)
}

func TestParseIdentifyResult(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"fraction", 0.4, 0.4},
		{"percent", 85.0, 0.85},
		{"percent string", "70%", 0.7},
		{"negative", -3.0, 0},
		{"too large", 450.0, 1},
		{"missing", nil, 0},
		{"NaN", math.NaN(), 0},
		{"NaN string", "NaN", 0},
		{"positive infinity", math.Inf(1), 1},
		{"negative infinity string", "-Inf", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ParseIdentifyResult(map[string]any{"pest_type": "Stem Borer", "confidence": tt.in})
			require.NoError(t, err)
			assert.InDelta(t, tt.want, res.Confidence, 1e-9)
		})
	}

	_, err := ParseIdentifyResult(map[string]any{"confidence": 0.5})
	assert.Error(t, err)
}
