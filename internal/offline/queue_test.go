package offline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bantayani/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Queue {
	t.Helper()
	q, err := Open(filepath.Join(t.TempDir(), "queue", "reports.json"))
	require.NoError(t, err)
	return q
}

func report(crop string) Report {
	return Report{
		CropType: crop,
		Images: []ReportImage{
			{Data: []byte{0xff, 0xd8}, Result: models.IdentifyResult{PestType: "Brown Planthopper", Confidence: 0.8}},
		},
	}
}

func TestQueue_AppendPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.json")
	q, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, q.Append(report("Rice")))
	require.NoError(t, q.Append(report("Corn")))

	reopened, err := Open(path)
	require.NoError(t, err)
	list, err := reopened.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Rice", list[0].CropType)
	assert.Equal(t, "Corn", list[1].CropType)
	assert.NotEqual(t, list[0].ID, list[1].ID)
	assert.False(t, list[0].CreatedAt.IsZero())
	assert.Equal(t, []byte{0xff, 0xd8}, list[0].Images[0].Data)
}

func TestQueue_FlushRemovesOnlySubmittedPrefix(t *testing.T) {
	q := openTemp(t)
	for _, crop := range []string{"Rice", "Corn", "Mango"} {
		require.NoError(t, q.Append(report(crop)))
	}

	var seen []string
	sent, err := q.Flush(context.Background(), func(_ context.Context, r Report) error {
		seen = append(seen, r.CropType)
		if r.CropType == "Corn" {
			return models.ErrNetwork
		}
		return nil
	})
	assert.ErrorIs(t, err, models.ErrNetwork)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"Rice", "Corn"}, seen)

	list, err := q.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Corn", list[0].CropType)
	assert.Equal(t, "Mango", list[1].CropType)

	sent, err = q.Flush(context.Background(), func(context.Context, Report) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	n, err := q.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestQueue_FlushEmpty(t *testing.T) {
	q := openTemp(t)
	sent, err := q.Flush(context.Background(), func(context.Context, Report) error {
		return errors.New("should not be called")
	})
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestReport_Inputs(t *testing.T) {
	lat, lon := 14.6, 121.0
	note := "yellow leaves"
	r := Report{
		CropType: "Rice", Latitude: &lat, Longitude: &lon, Note: &note,
		Images: []ReportImage{
			{Data: []byte{1}, Result: models.IdentifyResult{PestType: "Rice Stem Borer", ScientificName: "Scirpophaga incertulas", Confidence: 0.9}},
			{Data: []byte{2}, Result: models.AnalysisErrorResult()},
		},
	}

	inputs := r.Inputs()
	require.Len(t, inputs, 2)
	assert.Equal(t, "Rice Stem Borer", inputs[0].PestType)
	require.NotNil(t, inputs[0].ScientificName)
	assert.Equal(t, models.AnalysisErrorLabel, inputs[1].PestType)
	assert.Nil(t, inputs[1].ScientificName)
	for _, in := range inputs {
		assert.Equal(t, "Rice", in.CropType)
		assert.Equal(t, &note, in.FarmerNotes)
		require.NoError(t, in.Validate())
	}
}
