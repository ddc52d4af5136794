package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/dto"
)

// ErrNetwork wraps transport failures; the request may not have reached the
// server.
var ErrNetwork = errors.New("network error")

// NetworkErrorMessage is shown to the applicant for ErrNetwork.
const NetworkErrorMessage = "Network error. Please check your connection and try again."

// APIError is a non-2xx answer from the registration API.
type APIError struct {
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client talks to the registration API. Reads are retried on transport
// errors and 5xx answers; writes are sent once.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = time.Second
	rc.HTTPClient.Timeout = timeout
	rc.Logger = nil
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: rc}
}

type registrationEnvelope struct {
	Success bool                           `json:"success"`
	Data    dto.CreateRegistrationResponse `json:"data"`
}

func (c *Client) CreateRegistration(ctx context.Context, req *dto.RegistrationRequest) (*dto.CreateRegistrationResponse, error) {
	var env registrationEnvelope
	if err := c.post(ctx, "/api/registrations", req, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, &APIError{Status: http.StatusOK, Message: "Failed to save registration. Please try again."}
	}
	return &env.Data, nil
}

// Registration is the stored record as the API returns it.
type Registration struct {
	ID                 uint      `json:"id"`
	Aadhaar            string    `json:"aadhaar"`
	NameAsPerAadhaar   string    `json:"nameAsPerAadhaar"`
	TypeOfOrganisation string    `json:"typeOfOrganisation"`
	PAN                string    `json:"pan"`
	Mobile             string    `json:"mobile"`
	Email              string    `json:"email"`
	SocialCategory     string    `json:"socialCategory"`
	Gender             string    `json:"gender"`
	SpeciallyAbled     bool      `json:"speciallyAbled"`
	NameOfEnterprise   string    `json:"nameOfEnterprise"`
	MajorActivity      string    `json:"majorActivity"`
	RegistrationNumber string    `json:"registrationNumber"`
	RegistrationDate   time.Time `json:"registrationDate"`
}

func (c *Client) GetRegistration(ctx context.Context, registrationNumber string) (*Registration, error) {
	var env struct {
		Data Registration `json:"data"`
	}
	path := "/api/registrations?registrationNumber=" + url.QueryEscape(registrationNumber)
	if err := c.get(ctx, path, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) SendOTP(ctx context.Context, req *dto.SendOTPRequest) (*dto.SendOTPResponse, error) {
	var resp dto.SendOTPResponse
	if err := c.post(ctx, "/api/otp/send", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) VerifyOTP(ctx context.Context, req *dto.VerifyOTPRequest) (*dto.VerifyOTPResponse, error) {
	var resp dto.VerifyOTPResponse
	if err := c.post(ctx, "/api/otp/verify", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var e dto.ErrorResponse
		if json.Unmarshal(body, &e) != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error, Field: e.Field}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
