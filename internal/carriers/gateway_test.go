package carriers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

type capturedRequest struct {
	method      string
	contentType string
	user, pass  string
	basic       bool
	body        string
}

func tokenServer(t *testing.T, status int, body string, seen *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if seen != nil {
			seen.method = r.Method
			seen.contentType = r.Header.Get("Content-Type")
			seen.user, seen.pass, seen.basic = r.BasicAuth()
			seen.body = string(raw)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func sameEndpoint(u string) Endpoints {
	return Endpoints{FedEx: u, UPS: u, USPS: u}
}

func TestAcquireTokenFedExSendsFormCredentials(t *testing.T) {
	var seen capturedRequest
	srv := tokenServer(t, http.StatusOK, `{"access_token":"fedex-token","token_type":"bearer","expires_in":3599,"scope":"CXS"}`, &seen)
	gw := NewGateway(sameEndpoint(srv.URL), time.Second)

	out := gw.AcquireToken(context.Background(), FedEx, "id-1", "secret-1", "acct")
	tok, ok := out.(*Token)
	if !ok {
		t.Fatalf("expected token, got %#v", out)
	}
	if tok.AccessToken != "fedex-token" || tok.TokenType != "bearer" || tok.Scope != "CXS" {
		t.Fatalf("unexpected token: %+v", tok)
	}
	if tok.ExpiresIn == nil || *tok.ExpiresIn != 3599 {
		t.Fatalf("unexpected expires_in: %v", tok.ExpiresIn)
	}
	if seen.method != http.MethodPost {
		t.Fatalf("expected POST, got %s", seen.method)
	}
	if seen.contentType != "application/x-www-form-urlencoded" {
		t.Fatalf("unexpected content type %q", seen.contentType)
	}
	if seen.basic {
		t.Fatalf("fedex must not use basic auth")
	}
	form, err := url.ParseQuery(seen.body)
	if err != nil {
		t.Fatalf("parse form: %v", err)
	}
	if form.Get("grant_type") != "client_credentials" || form.Get("client_id") != "id-1" || form.Get("client_secret") != "secret-1" {
		t.Fatalf("unexpected form: %v", form)
	}
	if strings.Contains(seen.body, "acct") {
		t.Fatalf("account number must not be sent")
	}
}

func TestAcquireTokenUPSUsesBasicAuth(t *testing.T) {
	var seen capturedRequest
	srv := tokenServer(t, http.StatusOK, `{"access_token":"ups-token","expires_in":"14399"}`, &seen)
	gw := NewGateway(sameEndpoint(srv.URL), time.Second)

	out := gw.AcquireToken(context.Background(), UPS, "ups-id", "ups-secret", "")
	tok, ok := out.(*Token)
	if !ok {
		t.Fatalf("expected token, got %#v", out)
	}
	if !seen.basic || seen.user != "ups-id" || seen.pass != "ups-secret" {
		t.Fatalf("expected basic auth ups-id:ups-secret, got %q:%q (%v)", seen.user, seen.pass, seen.basic)
	}
	form, _ := url.ParseQuery(seen.body)
	if len(form) != 1 || form.Get("grant_type") != "client_credentials" {
		t.Fatalf("ups body must carry grant_type only, got %v", form)
	}
	if tok.TokenType != "Bearer" {
		t.Fatalf("expected default token type Bearer, got %q", tok.TokenType)
	}
	if tok.ExpiresIn == nil || *tok.ExpiresIn != 14399 {
		t.Fatalf("expected string expires_in to parse, got %v", tok.ExpiresIn)
	}
}

func TestAcquireTokenUSPSSendsJSON(t *testing.T) {
	var seen capturedRequest
	srv := tokenServer(t, http.StatusOK, `{"access_token":"usps-token","token_type":"Bearer"}`, &seen)
	gw := NewGateway(sameEndpoint(srv.URL), time.Second)

	out := gw.AcquireToken(context.Background(), USPS, "usps-id", "usps-secret", "")
	if !out.OK() {
		t.Fatalf("expected success, got %#v", out)
	}
	if seen.contentType != "application/json" {
		t.Fatalf("unexpected content type %q", seen.contentType)
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(seen.body), &body); err != nil {
		t.Fatalf("body is not json: %v", err)
	}
	if body["grant_type"] != "client_credentials" || body["client_id"] != "usps-id" || body["client_secret"] != "usps-secret" {
		t.Fatalf("unexpected json body: %v", body)
	}
	tok := out.(*Token)
	if tok.ExpiresIn != nil || tok.Scope != "" {
		t.Fatalf("absent fields must stay absent: %+v", tok)
	}
}

func TestAcquireTokenIgnoresUnrepresentableExpiry(t *testing.T) {
	for _, raw := range []string{`1e30`, `-1e30`, `"9223372036854775808"`, `"NaN"`} {
		srv := tokenServer(t, http.StatusOK, `{"access_token":"tok","expires_in":`+raw+`}`, nil)
		gw := NewGateway(sameEndpoint(srv.URL), time.Second)

		tok, ok := gw.AcquireToken(context.Background(), FedEx, "id", "secret", "").(*Token)
		if !ok {
			t.Fatalf("%s: expected a token", raw)
		}
		if tok.ExpiresIn != nil {
			t.Fatalf("%s: expected expires_in to stay unset, got %d", raw, *tok.ExpiresIn)
		}
	}
}

func TestAcquireTokenNon2xxIsRequestError(t *testing.T) {
	srv := tokenServer(t, http.StatusUnauthorized, `{"errors":[{"code":"NOT.AUTHORIZED"}]}`, nil)
	gw := NewGateway(sameEndpoint(srv.URL), time.Second)

	out := gw.AcquireToken(context.Background(), FedEx, "bad", "bad", "")
	f, ok := out.(*Failure)
	if !ok {
		t.Fatalf("expected failure, got %#v", out)
	}
	if f.Kind != RequestError {
		t.Fatalf("expected request_error, got %s", f.Kind)
	}
	if !strings.Contains(f.Message, "401 Client Error") || !strings.Contains(f.Message, srv.URL) {
		t.Fatalf("unexpected message %q", f.Message)
	}
	if f.Carrier != FedEx {
		t.Fatalf("unexpected carrier %s", f.Carrier)
	}
}

func TestAcquireTokenMalformedBodyIsJSONError(t *testing.T) {
	for _, body := range []string{`not json`, `null`, `[1,2]`} {
		srv := tokenServer(t, http.StatusOK, body, nil)
		gw := NewGateway(sameEndpoint(srv.URL), time.Second)

		out := gw.AcquireToken(context.Background(), USPS, "id", "secret", "")
		f, ok := out.(*Failure)
		if !ok {
			t.Fatalf("body %q: expected failure, got %#v", body, out)
		}
		if f.Kind != JSONError || !strings.HasPrefix(f.Message, "Invalid JSON response") {
			t.Fatalf("body %q: unexpected failure %+v", body, f)
		}
	}
}

func TestAcquireTokenTimeoutIsRequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	gw := NewGateway(sameEndpoint(srv.URL), 50*time.Millisecond)

	out := gw.AcquireToken(context.Background(), UPS, "id", "secret", "")
	f, ok := out.(*Failure)
	if !ok || f.Kind != RequestError {
		t.Fatalf("expected request_error, got %#v", out)
	}
}

func TestAcquireTokenConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	gw := NewGateway(sameEndpoint(addr), time.Second)
	out := gw.AcquireToken(context.Background(), FedEx, "id", "secret", "")
	if f, ok := out.(*Failure); !ok || f.Kind != RequestError {
		t.Fatalf("expected request_error, got %#v", out)
	}
}

func TestAcquireTokenUnsupportedCarrier(t *testing.T) {
	gw := NewGateway(DefaultEndpoints(), time.Second)
	out := gw.AcquireToken(context.Background(), Code("DHL"), "id", "secret", "")
	if out.OK() {
		t.Fatalf("expected failure for unsupported carrier")
	}
}

func TestOutcomeJSON(t *testing.T) {
	exp := int64(60)
	raw, err := json.Marshal(&Token{Carrier: UPS, AccessToken: "abc", TokenType: "Bearer", ExpiresIn: &exp})
	if err != nil {
		t.Fatalf("marshal token: %v", err)
	}
	var got map[string]any
	json.Unmarshal(raw, &got)
	if got["success"] != true || got["carrier"] != "UPS" || got["access_token"] != "abc" || got["expires_in"] != float64(60) {
		t.Fatalf("unexpected token json: %s", raw)
	}
	if _, ok := got["scope"]; ok {
		t.Fatalf("empty scope should be omitted: %s", raw)
	}

	raw, _ = json.Marshal(&Failure{Carrier: FedEx, Message: "boom", Kind: RequestError})
	got = nil
	json.Unmarshal(raw, &got)
	if got["success"] != false || got["error"] != "boom" || got["error_type"] != "request_error" {
		t.Fatalf("unexpected failure json: %s", raw)
	}
}

func TestPreviewToken(t *testing.T) {
	long := "abcdefghijklmnopqrstuvwxyz"
	if got := PreviewToken(long); got != "abcdefghijklmnopqrst..." {
		t.Fatalf("unexpected preview %q", got)
	}
	if got := PreviewToken("short"); got != "short..." {
		t.Fatalf("unexpected preview %q", got)
	}
	if got := PreviewToken(""); got != "" {
		t.Fatalf("empty token preview should be empty, got %q", got)
	}
}

func TestParseCode(t *testing.T) {
	if c, ok := ParseCode(" fedex "); !ok || c != FedEx {
		t.Fatalf("expected FEDEX, got %q %v", c, ok)
	}
	if _, ok := ParseCode("DHL"); ok {
		t.Fatalf("DHL must not parse")
	}
	var c Code
	if err := json.Unmarshal([]byte(`"usps"`), &c); err != nil || c != USPS {
		t.Fatalf("unexpected unmarshal %q %v", c, err)
	}
}
