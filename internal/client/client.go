// Package client is the field-side HTTP client for the BantayAni API.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"bantayani/internal/models"
	utils "bantayani/shared/utils"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// Client is safe for use by one session at a time.
type Client struct {
	http    *resty.Client
	baseURL string
	token   string
}

// New builds a client for the API rooted at baseURL (e.g. http://host:8080/api/v1).
// Requests are never retried.
func New(baseURL string) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json")
	return &Client{http: http, baseURL: baseURL}
}

// HTTPClient exposes the underlying resty client, mainly for test transports.
func (c *Client) HTTPClient() *resty.Client {
	return c.http
}

func (c *Client) SetToken(token string) {
	c.token = token
	c.http.SetAuthToken(token)
}

func (c *Client) Token() string {
	return c.token
}

// errorFromCode maps an API error code back onto the shared sentinels.
func errorFromCode(status int, apiErr utils.APIError) error {
	var sentinel error
	switch apiErr.Code {
	case "UNAUTHORIZED":
		sentinel = models.ErrUnauthenticated
	case "FORBIDDEN":
		sentinel = models.ErrForbidden
	case "VALIDATION_ERROR":
		sentinel = models.ErrValidation
	case "NOT_FOUND":
		sentinel = models.ErrNotFound
	case "UPLOAD_FAILED":
		sentinel = models.ErrUpload
	default:
		sentinel = models.ErrNetwork
	}
	return fmt.Errorf("%w: %s (status %d)", sentinel, apiErr.Message, status)
}

func (c *Client) do(ctx context.Context, method, path string, prepare func(*resty.Request), out any) error {
	var env envelope
	var apiErr utils.ErrorResponse

	req := c.http.R().SetContext(ctx).SetResult(&env).SetError(&apiErr)
	if prepare != nil {
		prepare(req)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", models.ErrNetwork, err)
	}
	if resp.IsError() {
		return errorFromCode(resp.StatusCode(), apiErr.Error)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	var user models.User
	err := c.do(ctx, resty.MethodPost, "/auth/signup", func(r *resty.Request) { r.SetBody(req) }, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates and keeps the token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	body := models.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, resty.MethodPost, "/auth/login", func(r *resty.Request) { r.SetBody(body) }, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.AccessToken)
	return &resp, nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, resty.MethodPost, "/auth/logout", nil, nil)
	c.SetToken("")
	return err
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, resty.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func filterQuery(filter models.DetectionFilter) map[string]string {
	q := map[string]string{}
	if filter.Status != "" {
		q["status"] = string(filter.Status)
	}
	if filter.CropType != "" {
		q["crop_type"] = filter.CropType
	}
	return q
}

func (c *Client) ListDetections(ctx context.Context, filter models.DetectionFilter) ([]models.DetectionView, error) {
	var list []models.DetectionView
	err := c.do(ctx, resty.MethodGet, "/detections", func(r *resty.Request) { r.SetQueryParams(filterQuery(filter)) }, &list)
	return list, err
}

func (c *Client) Stats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats
	err := c.do(ctx, resty.MethodGet, "/detections/stats", nil, &stats)
	return stats, err
}

// CreateDetection uploads one photo with its metadata as multipart form data.
func (c *Client) CreateDetection(ctx context.Context, in models.CreateDetectionInput) (*models.Detection, error) {
	form := map[string]string{
		"pest_type":  in.PestType,
		"crop_type":  in.CropType,
		"confidence": strconv.FormatFloat(in.Confidence, 'f', -1, 64),
	}
	setOptional(form, "scientific_name", in.ScientificName)
	setOptional(form, "location_name", in.LocationName)
	setOptional(form, "farmer_notes", in.FarmerNotes)
	if in.Latitude != nil && in.Longitude != nil {
		form["latitude"] = strconv.FormatFloat(*in.Latitude, 'f', -1, 64)
		form["longitude"] = strconv.FormatFloat(*in.Longitude, 'f', -1, 64)
	}
	if in.FarmID != nil {
		form["farm_id"] = strconv.Itoa(*in.FarmID)
	}

	var d models.Detection
	err := c.do(ctx, resty.MethodPost, "/detections", func(r *resty.Request) {
		r.SetFormData(form).SetFileReader("image", "capture.jpg", bytes.NewReader(in.Image))
	}, &d)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func setOptional(form map[string]string, key string, v *string) {
	if v != nil && *v != "" {
		form[key] = *v
	}
}

func (c *Client) Transition(ctx context.Context, id uuid.UUID, status models.DetectionStatus, note *string) (*models.Detection, error) {
	var d models.Detection
	body := models.TransitionRequest{Status: status, Note: note}
	err := c.do(ctx, resty.MethodPatch, "/detections/"+id.String()+"/status", func(r *resty.Request) { r.SetBody(body) }, &d)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) RequestInfo(ctx context.Context, id uuid.UUID, message string) error {
	body := models.RequestInfoRequest{Message: message}
	return c.do(ctx, resty.MethodPost, "/detections/"+id.String()+"/request-info", func(r *resty.Request) { r.SetBody(body) }, nil)
}

// Identify asks the inference endpoint about one photo. A transport failure
// is an error; a model failure comes back as Success=false.
func (c *Client) Identify(ctx context.Context, image []byte, cropType string) (models.IdentifyResponse, error) {
	var out models.IdentifyResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(models.IdentifyRequest{Image: base64.StdEncoding.EncodeToString(image), CropType: cropType}).
		SetResult(&out).
		SetError(&out).
		Post("/ai/identify")
	if err != nil {
		return out, fmt.Errorf("%w: %v", models.ErrNetwork, err)
	}
	if resp.IsError() && out.Error == "" {
		out.Error = resp.Status()
	}
	return out, nil
}

func (c *Client) ListAdvisories(ctx context.Context) ([]models.Advisory, error) {
	var list []models.Advisory
	err := c.do(ctx, resty.MethodGet, "/advisories", nil, &list)
	return list, err
}

func (c *Client) ListFarms(ctx context.Context) ([]models.Farm, error) {
	var list []models.Farm
	err := c.do(ctx, resty.MethodGet, "/farms", nil, &list)
	return list, err
}

func (c *Client) ListMessages(ctx context.Context) ([]models.Message, error) {
	var list []models.Message
	err := c.do(ctx, resty.MethodGet, "/messages", nil, &list)
	return list, err
}

func (c *Client) SendMessage(ctx context.Context, req models.SendMessageRequest) (*models.Message, error) {
	var m models.Message
	if err := c.do(ctx, resty.MethodPost, "/messages", func(r *resty.Request) { r.SetBody(req) }, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// RealtimeURL converts the API base into the websocket endpoint.
func (c *Client) RealtimeURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", errors.New("unsupported scheme " + u.Scheme)
	}
	u.Path += "/realtime"
	if c.token != "" {
		q := u.Query()
		q.Set("access_token", c.token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
