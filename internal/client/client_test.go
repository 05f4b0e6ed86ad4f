package client

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"bantayani/internal/models"

	"github.com/google/uuid"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "http://api.test/api/v1"

func newMockedClient(t *testing.T) *Client {
	t.Helper()
	c := New(base)
	httpmock.ActivateNonDefault(c.HTTPClient().GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestClient_LoginStoresToken(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodPost, base+"/auth/login",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"access_token": "tok-1", "expires_at": 1, "session_id": "s1"},
		}))
	httpmock.RegisterResponder(http.MethodGet, base+"/auth/me",
		func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("Authorization") != "Bearer tok-1" {
				return httpmock.NewJsonResponse(http.StatusUnauthorized, map[string]any{
					"success": false, "error": map[string]string{"code": "UNAUTHORIZED", "message": "missing"},
				})
			}
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
				"success": true, "data": map[string]any{"email": "juan@example.com", "role": "farmer"},
			})
		})

	resp, err := c.Login(context.Background(), "juan@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.AccessToken)
	assert.Equal(t, "tok-1", c.Token())

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RoleFarmer, me.Role)
}

func TestClient_ErrorCodesMapToSentinels(t *testing.T) {
	c := newMockedClient(t)
	id := uuid.New()
	httpmock.RegisterResponder(http.MethodPatch, base+"/detections/"+id.String()+"/status",
		httpmock.NewJsonResponderOrPanic(http.StatusForbidden, map[string]any{
			"success": false, "error": map[string]string{"code": "FORBIDDEN", "message": "lgu_admin role required"},
		}))
	httpmock.RegisterResponder(http.MethodGet, base+"/detections",
		httpmock.NewErrorResponder(errors.New("connection reset")))

	_, err := c.Transition(context.Background(), id, models.StatusVerified, nil)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = c.ListDetections(context.Background(), models.DetectionFilter{})
	assert.ErrorIs(t, err, models.ErrNetwork)
}

func TestClient_ListDetectionsSendsFilter(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponderWithQuery(http.MethodGet, base+"/detections", "status=pending&crop_type=Rice",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"success": true,
			"data":    []map[string]any{{"id": uuid.NewString(), "pest_type": "Stem Borer", "status": "pending"}},
		}))

	list, err := c.ListDetections(context.Background(), models.DetectionFilter{Status: models.StatusPending, CropType: "Rice"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Stem Borer", list[0].PestType)
}

func TestClient_CreateDetectionMultipart(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodPost, base+"/detections",
		func(req *http.Request) (*http.Response, error) {
			if err := req.ParseMultipartForm(1 << 20); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
			}
			if req.FormValue("crop_type") != "Rice" || req.FormValue("latitude") != "14.5" {
				return httpmock.NewStringResponse(http.StatusBadRequest, "bad form"), nil
			}
			if _, _, err := req.FormFile("image"); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, "no image"), nil
			}
			return httpmock.NewJsonResponse(http.StatusCreated, map[string]any{
				"success": true, "data": map[string]any{"status": "pending", "image_url": "http://img/1.jpg"},
			})
		})

	lat, lon := 14.5, 121.0
	d, err := c.CreateDetection(context.Background(), models.CreateDetectionInput{
		PestType: "Stem Borer", CropType: "Rice", Confidence: 0.9,
		Latitude: &lat, Longitude: &lon, Image: []byte{1, 2, 3},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, d.Status)
	assert.NotEmpty(t, d.ImageURL)
}

func TestClient_Identify(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodPost, base+"/ai/identify",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"success":   true,
			"detection": map[string]any{"pest_type": "Rice Stem Borer", "confidence": 0.9},
		}))

	resp, err := c.Identify(context.Background(), []byte("img"), "Rice")
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.Equal(t, "Rice Stem Borer", resp.Detection.PestType)
}

func TestClient_RealtimeURL(t *testing.T) {
	c := New("https://api.bantayani.ph/api/v1")
	c.SetToken("abc")
	u, err := c.RealtimeURL()
	require.NoError(t, err)
	assert.Equal(t, "wss://api.bantayani.ph/api/v1/realtime?access_token=abc", u)
}
