package carriers

import "encoding/json"

// ErrorKind classifies a failed token exchange.
type ErrorKind string

const (
	RequestError ErrorKind = "request_error"
	JSONError    ErrorKind = "json_error"
)

const previewLength = 20

// Outcome is the result of one token exchange. It is either a *Token or a
// *Failure; gateway failures are reported as values, never as errors.
type Outcome interface {
	CarrierCode() Code
	OK() bool
	outcome()
}

// Token is a successful exchange. Optional fields the carrier omitted stay
// zero and are left out of the JSON form.
type Token struct {
	Carrier     Code
	AccessToken string
	TokenType   string
	ExpiresIn   *int64
	Scope       string
}

func (t *Token) CarrierCode() Code { return t.Carrier }
func (t *Token) OK() bool          { return true }
func (*Token) outcome()            {}

// HasToken reports whether the carrier actually returned token material.
func (t *Token) HasToken() bool { return t.AccessToken != "" }

// Preview returns a copy of t whose access token is trimmed for display.
func (t *Token) Preview() *Token {
	cp := *t
	cp.AccessToken = PreviewToken(t.AccessToken)
	return &cp
}

func (t *Token) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Carrier     Code   `json:"carrier"`
		Success     bool   `json:"success"`
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   *int64 `json:"expires_in,omitempty"`
		Scope       string `json:"scope,omitempty"`
	}{t.Carrier, true, t.AccessToken, t.TokenType, t.ExpiresIn, t.Scope})
}

// Failure is a token exchange that did not produce a usable response.
type Failure struct {
	Carrier Code
	Message string
	Kind    ErrorKind
}

func (f *Failure) CarrierCode() Code { return f.Carrier }
func (f *Failure) OK() bool          { return false }
func (*Failure) outcome()            {}

func (f *Failure) Error() string {
	return string(f.Carrier) + ": " + string(f.Kind) + ": " + f.Message
}

func (f *Failure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Carrier Code      `json:"carrier"`
		Success bool      `json:"success"`
		Error   string    `json:"error"`
		Kind    ErrorKind `json:"error_type"`
	}{f.Carrier, false, f.Message, f.Kind})
}

// PreviewToken keeps the first 20 characters of a token followed by "...".
func PreviewToken(token string) string {
	if token == "" {
		return ""
	}
	r := []rune(token)
	if len(r) > previewLength {
		r = r[:previewLength]
	}
	return string(r) + "..."
}
