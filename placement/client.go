package placement

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
)

// ErrPlacementFailed is returned when the call gateway reports an error
// or omits the stream endpoint for a placed call.
var ErrPlacementFailed = errors.New("call placement failed")

// Client wraps the call gateway's REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// CallRequest is the request body for POST /calls.
type CallRequest struct {
	ToNumber    string `json:"to_number"`
	Information string `json:"information,omitempty"`
}

// callResponse is the response from POST /calls.
type callResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	CallSid      string `json:"call_sid,omitempty"`
	WebsocketURL string `json:"websocket_url,omitempty"`
}

// PlacedCall describes a successfully placed call leg.
type PlacedCall struct {
	CallSid   string
	StreamURL string
}

// NewClient creates a new call gateway client.
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// PlaceCall asks the gateway to dial toNumber. On success the gateway
// returns the provider call handle and the websocket endpoint carrying
// the call's event stream.
func (c *Client) PlaceCall(ctx context.Context, toNumber, information string) (*PlacedCall, error) {
	body, err := sonic.Marshal(CallRequest{
		ToNumber:    toNumber,
		Information: information,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal call request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/calls", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlacementFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrPlacementFailed, resp.StatusCode, string(respBody))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrPlacementFailed, err)
	}
	var call callResponse
	if err := sonic.Unmarshal(respBody, &call); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrPlacementFailed, err)
	}

	if call.Status != "success" {
		msg := call.Message
		if msg == "" {
			msg = "gateway reported failure"
		}
		return nil, fmt.Errorf("%w: %s", ErrPlacementFailed, msg)
	}
	if call.WebsocketURL == "" {
		return nil, fmt.Errorf("%w: no websocket URL in gateway response", ErrPlacementFailed)
	}

	return &PlacedCall{
		CallSid:   call.CallSid,
		StreamURL: call.WebsocketURL,
	}, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
