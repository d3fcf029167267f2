package carriers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a single token exchange.
	DefaultTimeout = 30 * time.Second

	grantClientCredentials = "client_credentials"
	maxResponseBytes       = 1 << 20
)

// Endpoints holds the OAuth2 token URL of each carrier.
type Endpoints struct {
	FedEx string
	UPS   string
	USPS  string
}

// DefaultEndpoints returns the carriers' sandbox token URLs.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		FedEx: "https://apis-sandbox.fedex.com/oauth/token",
		UPS:   "https://wwwcie.ups.com/security/v1/oauth/authorize",
		USPS:  "https://apis-tem.usps.com/oauth2/v3/token",
	}
}

func (e Endpoints) forCarrier(c Code) string {
	switch c {
	case FedEx:
		return e.FedEx
	case UPS:
		return e.UPS
	case USPS:
		return e.USPS
	}
	return ""
}

// Gateway performs the client-credentials exchange against each carrier.
// It holds no state besides its HTTP client and is safe for concurrent use.
type Gateway struct {
	client    *http.Client
	endpoints Endpoints
}

// NewGateway builds a gateway whose requests time out after timeout.
// A zero timeout falls back to DefaultTimeout.
func NewGateway(endpoints Endpoints, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{
		client:    &http.Client{Timeout: timeout},
		endpoints: endpoints,
	}
}

// AcquireToken requests a bearer token for carrier using the given client
// credentials. The account number is accepted but none of the current
// exchanges send it. Exactly one POST is issued; there are no retries.
func (g *Gateway) AcquireToken(ctx context.Context, carrier Code, clientID, clientSecret, accountNumber string) Outcome {
	endpoint := g.endpoints.forCarrier(carrier)
	if endpoint == "" {
		return &Failure{Carrier: carrier, Message: fmt.Sprintf("unsupported carrier: %s", carrier), Kind: RequestError}
	}

	req, err := newTokenRequest(ctx, carrier, endpoint, clientID, clientSecret)
	if err != nil {
		return &Failure{Carrier: carrier, Message: err.Error(), Kind: RequestError}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		log.Printf("[CARRIERS] %s token request failed: %v", carrier, err)
		return &Failure{Carrier: carrier, Message: err.Error(), Kind: RequestError}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		log.Printf("[CARRIERS] %s token endpoint returned %d", carrier, resp.StatusCode)
		return &Failure{Carrier: carrier, Message: statusMessage(resp.StatusCode, endpoint), Kind: RequestError}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Failure{Carrier: carrier, Message: err.Error(), Kind: RequestError}
	}

	var payload *tokenResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return &Failure{Carrier: carrier, Message: "Invalid JSON response: " + err.Error(), Kind: JSONError}
	}
	if payload == nil {
		return &Failure{Carrier: carrier, Message: "Invalid JSON response: expected an object", Kind: JSONError}
	}

	tokenType := payload.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &Token{
		Carrier:     carrier,
		AccessToken: payload.AccessToken,
		TokenType:   tokenType,
		ExpiresIn:   payload.ExpiresIn.value,
		Scope:       payload.Scope,
	}
}

func newTokenRequest(ctx context.Context, carrier Code, endpoint, clientID, clientSecret string) (*http.Request, error) {
	var (
		body        io.Reader
		contentType string
		basicAuth   bool
	)

	switch carrier {
	case FedEx:
		form := url.Values{}
		form.Set("grant_type", grantClientCredentials)
		form.Set("client_id", clientID)
		form.Set("client_secret", clientSecret)
		body, contentType = strings.NewReader(form.Encode()), "application/x-www-form-urlencoded"
	case UPS:
		form := url.Values{}
		form.Set("grant_type", grantClientCredentials)
		body, contentType = strings.NewReader(form.Encode()), "application/x-www-form-urlencoded"
		basicAuth = true
	case USPS:
		raw, err := json.Marshal(map[string]string{
			"grant_type":    grantClientCredentials,
			"client_id":     clientID,
			"client_secret": clientSecret,
		})
		if err != nil {
			return nil, err
		}
		body, contentType = bytes.NewReader(raw), "application/json"
	default:
		return nil, fmt.Errorf("unsupported carrier: %s", carrier)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if basicAuth {
		req.SetBasicAuth(clientID, clientSecret)
	}
	return req, nil
}

func statusMessage(code int, endpoint string) string {
	class := "Server"
	if code < 500 {
		class = "Client"
	}
	return fmt.Sprintf("%d %s Error: %s for url: %s", code, class, http.StatusText(code), endpoint)
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   flexSeconds `json:"expires_in"`
	Scope       string      `json:"scope"`
}

// flexSeconds accepts expires_in as a JSON number or a numeric string.
// Anything else leaves the value unset.
type flexSeconds struct {
	value *int64
}

func (f *flexSeconds) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	// Values that do not fit in int64 are left unset.
	if err != nil || math.IsNaN(n) || n < math.MinInt64 || n >= math.MaxInt64 {
		return nil
	}
	v := int64(n)
	f.value = &v
	return nil
}
