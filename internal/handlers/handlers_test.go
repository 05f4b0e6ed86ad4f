package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"bantayani/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom/encoding/geojson"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	farmerID = uuid.New()
	adminID  = uuid.New()
)

type fakeAuth struct{}

func (fakeAuth) Authenticate(_ context.Context, token string) (models.Caller, *models.Claims, error) {
	switch token {
	case "farmer-token":
		return models.Caller{UserID: farmerID, Role: models.RoleFarmer}, &models.Claims{SessionID: "s1"}, nil
	case "admin-token":
		return models.Caller{UserID: adminID, Role: models.RoleLGUAdmin}, &models.Claims{SessionID: "s2"}, nil
	}
	return models.Caller{}, nil, fmt.Errorf("%w: invalid token", models.ErrUnauthenticated)
}

type fakeDetections struct {
	created    *models.CreateDetectionInput
	transition int
	createErr  error
}

func (f *fakeDetections) Create(_ context.Context, caller models.Caller, in models.CreateDetectionInput) (*models.Detection, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = &in
	return &models.Detection{ID: uuid.New(), FarmerID: caller.UserID, PestType: in.PestType, Status: models.StatusPending, ImageURL: "http://img"}, nil
}

func (f *fakeDetections) Transition(_ context.Context, caller models.Caller, id uuid.UUID, status models.DetectionStatus, _ *string) (*models.Detection, error) {
	if !caller.Role.IsReviewer() {
		return nil, fmt.Errorf("%w: lgu_admin role required", models.ErrForbidden)
	}
	f.transition++
	return &models.Detection{ID: id, Status: status}, nil
}

func (f *fakeDetections) List(context.Context, models.Caller, models.DetectionFilter) ([]models.DetectionView, error) {
	return nil, nil
}

func (f *fakeDetections) Get(_ context.Context, _ models.Caller, id uuid.UUID) (*models.DetectionView, error) {
	return nil, fmt.Errorf("%w: detection %s", models.ErrNotFound, id)
}

func (f *fakeDetections) Stats(context.Context, models.Caller, models.DetectionFilter) (models.Stats, error) {
	return models.Stats{Total: 2, Pending: 1, Verified: 1}, nil
}

func (f *fakeDetections) Map(context.Context, models.Caller, models.DetectionFilter) (*geojson.FeatureCollection, error) {
	return &geojson.FeatureCollection{Features: []*geojson.Feature{}}, nil
}

func (f *fakeDetections) Export(context.Context, models.Caller, models.DetectionFilter) ([]byte, error) {
	return []byte("PK"), nil
}

func (f *fakeDetections) RequestInfo(context.Context, models.Caller, uuid.UUID, string) (*models.Message, error) {
	return &models.Message{ID: uuid.New()}, nil
}

type stubIdentify struct{}

func (stubIdentify) Identify(context.Context, models.IdentifyRequest) models.IdentifyResponse {
	return models.IdentifyResponse{Success: false, Error: "model unavailable"}
}

func newTestEngine(det *fakeDetections) *gin.Engine {
	r := &Router{
		Middleware: NewMiddleware(fakeAuth{}),
		Detections: NewDetectionHandler(det),
		AI:         NewAIHandler(stubIdentify{}),
	}
	return r.Engine()
}

func do(engine *gin.Engine, method, path, token string, body []byte, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error.Code
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: x", models.ErrUnauthenticated), http.StatusUnauthorized, CodeUnauthorized},
		{fmt.Errorf("%w: x", models.ErrForbidden), http.StatusForbidden, CodeForbidden},
		{fmt.Errorf("%w: x", models.ErrValidation), http.StatusBadRequest, CodeValidation},
		{fmt.Errorf("%w: x", models.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{fmt.Errorf("%w: x", models.ErrUpload), http.StatusBadGateway, CodeUploadFailed},
		{errors.New("db down"), http.StatusInternalServerError, CodeInternalError},
	}
	for _, tt := range tests {
		status, code := StatusForError(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestMiddleware_RejectsMissingAndInvalidTokens(t *testing.T) {
	engine := newTestEngine(&fakeDetections{})

	w := do(engine, http.MethodGet, "/api/v1/detections", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, CodeUnauthorized, errorCode(t, w))

	w = do(engine, http.MethodGet, "/api/v1/detections", "forged", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDetectionHandler_FarmerCannotTransition(t *testing.T) {
	det := &fakeDetections{}
	engine := newTestEngine(det)
	body := []byte(`{"status":"verified"}`)

	w := do(engine, http.MethodPatch, "/api/v1/detections/"+uuid.NewString()+"/status", "farmer-token", body, "application/json")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, CodeForbidden, errorCode(t, w))
	assert.Zero(t, det.transition)

	w = do(engine, http.MethodPatch, "/api/v1/detections/"+uuid.NewString()+"/status", "admin-token", body, "application/json")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, det.transition)
}

func TestDetectionHandler_TransitionBadID(t *testing.T) {
	engine := newTestEngine(&fakeDetections{})

	w := do(engine, http.MethodPatch, "/api/v1/detections/not-a-uuid/status", "admin-token", []byte(`{"status":"verified"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeValidation, errorCode(t, w))
}

func multipartBody(t *testing.T, fields map[string]string, image []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		part, err := mw.CreateFormFile("image", "leaf.jpg")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func TestDetectionHandler_Create(t *testing.T) {
	det := &fakeDetections{}
	engine := newTestEngine(det)

	body, ct := multipartBody(t, map[string]string{
		"pest_type":  "Brown Planthopper",
		"crop_type":  "Rice",
		"confidence": "0.8",
		"latitude":   "14.6",
		"longitude":  "121.0",
		"farm_id":    "2",
	}, []byte{0xFF, 0xD8, 0xFF})

	w := do(engine, http.MethodPost, "/api/v1/detections", "farmer-token", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, det.created)
	assert.Equal(t, "Rice", det.created.CropType)
	assert.InDelta(t, 0.8, det.created.Confidence, 1e-9)
	require.NotNil(t, det.created.Latitude)
	assert.InDelta(t, 14.6, *det.created.Latitude, 1e-9)
	require.NotNil(t, det.created.FarmID)
	assert.Equal(t, 2, *det.created.FarmID)
	assert.Nil(t, det.created.FarmerNotes)
}

func TestDetectionHandler_CreateErrors(t *testing.T) {
	det := &fakeDetections{}
	engine := newTestEngine(det)

	body, ct := multipartBody(t, map[string]string{"pest_type": "x", "crop_type": "Rice"}, nil)
	w := do(engine, http.MethodPost, "/api/v1/detections", "farmer-token", body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, ct = multipartBody(t, map[string]string{"pest_type": "x", "crop_type": "Rice"}, []byte("img"))
	w = do(engine, http.MethodPost, "/api/v1/detections", "admin-token", body, ct)
	assert.Equal(t, http.StatusForbidden, w.Code)

	det.createErr = fmt.Errorf("%w: bucket unreachable", models.ErrUpload)
	w = do(engine, http.MethodPost, "/api/v1/detections", "farmer-token", body, ct)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, CodeUploadFailed, errorCode(t, w))
}

func TestDetectionHandler_ReadEndpoints(t *testing.T) {
	engine := newTestEngine(&fakeDetections{})

	w := do(engine, http.MethodGet, "/api/v1/detections?status=pending", "farmer-token", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, extractData(t, w))

	w = do(engine, http.MethodGet, "/api/v1/detections/stats", "admin-token", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":2,"pending":1,"verified":1,"rejected":0}`, extractData(t, w))

	w = do(engine, http.MethodGet, "/api/v1/detections/"+uuid.NewString(), "admin-token", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(engine, http.MethodGet, "/api/v1/detections/map", "admin-token", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "FeatureCollection")

	w = do(engine, http.MethodGet, "/api/v1/detections/export", "farmer-token", nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(engine, http.MethodGet, "/api/v1/detections/export", "admin-token", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
}

func extractData(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	return string(body.Data)
}

func TestAIHandler_FailureIsOK(t *testing.T) {
	engine := newTestEngine(&fakeDetections{})

	w := do(engine, http.MethodPost, "/api/v1/ai/identify", "farmer-token", []byte(`{"image":"aGk=","crop_type":"Rice"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"model unavailable"}`, w.Body.String())
}

func TestAIHandler_RejectsOversizedBody(t *testing.T) {
	engine := newTestEngine(&fakeDetections{})

	body := append([]byte(`{"image":"`), bytes.Repeat([]byte("A"), maxIdentifyBodyBytes)...)
	body = append(body, []byte(`","crop_type":"Rice"}`)...)

	w := do(engine, http.MethodPost, "/api/v1/ai/identify", "farmer-token", body, "application/json")
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}
