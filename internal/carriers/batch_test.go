package carriers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type countingGateway struct {
	calls atomic.Int32
}

func (g *countingGateway) AcquireToken(_ context.Context, carrier Code, _, _, _ string) Outcome {
	g.calls.Add(1)
	return &Token{Carrier: carrier, AccessToken: "tok", TokenType: "Bearer"}
}

func TestTestTokensRejectsDuplicatesBeforeNetwork(t *testing.T) {
	gw := &countingGateway{}
	o := NewOrchestrator(gw)

	_, err := o.TestTokens(context.Background(), []Credential{
		{Carrier: FedEx, ClientID: "a", ClientSecret: "b"},
		{Carrier: FedEx, ClientID: "c", ClientSecret: "d"},
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !goerrors.IsValidation(err) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if gw.calls.Load() != 0 {
		t.Fatalf("no gateway call expected, got %d", gw.calls.Load())
	}
}

func TestValidateSubmission(t *testing.T) {
	cases := map[string][]Credential{
		"empty":       nil,
		"too many":    {{Carrier: FedEx}, {Carrier: UPS}, {Carrier: USPS}, {Carrier: FedEx}},
		"unsupported": {{Carrier: Code("DHL")}},
	}
	for name, entries := range cases {
		if err := ValidateSubmission(entries); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if err := ValidateSubmission([]Credential{{Carrier: FedEx}, {Carrier: UPS}, {Carrier: USPS}}); err != nil {
		t.Fatalf("three distinct carriers should pass: %v", err)
	}
}

func TestTestTokensPartialFailure(t *testing.T) {
	fedex := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"fedex-access-token-0123456789"}`))
	}))
	defer fedex.Close()

	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()

	gw := NewGateway(Endpoints{FedEx: fedex.URL, UPS: downURL, USPS: downURL}, time.Second)
	o := NewOrchestrator(gw)

	out, err := o.TestTokens(context.Background(), []Credential{
		{Carrier: FedEx, ClientID: "id", ClientSecret: "secret"},
		{Carrier: UPS, ClientID: "id", ClientSecret: "secret"},
	})
	if err != nil {
		t.Fatalf("batch must not fail: %v", err)
	}
	if out.Successful != 1 || out.Failed != 1 {
		t.Fatalf("expected 1/1, got %d/%d", out.Successful, out.Failed)
	}
	if out.Tokens[0].CarrierCode() != FedEx || out.Tokens[1].CarrierCode() != UPS {
		t.Fatalf("outcomes must keep submission order")
	}
	if s := out.Summary[FedEx]; !s.Success || !s.HasToken {
		t.Fatalf("unexpected fedex summary %+v", s)
	}
	if s := out.Summary[UPS]; s.Success || s.HasToken {
		t.Fatalf("unexpected ups summary %+v", s)
	}

	preview := out.Previewed()
	if tok := preview.Tokens[0].(*Token); tok.AccessToken != "fedex-access-token-0..." {
		t.Fatalf("unexpected preview %q", tok.AccessToken)
	}
	if tok := out.Tokens[0].(*Token); tok.AccessToken != "fedex-access-token-0123456789" {
		t.Fatalf("preview must leave the source outcome untouched")
	}
}

func TestTestTokensCallsEveryCarrier(t *testing.T) {
	gw := &countingGateway{}
	o := NewOrchestrator(gw)

	out, err := o.TestTokens(context.Background(), []Credential{{Carrier: USPS}, {Carrier: UPS}, {Carrier: FedEx}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gw.calls.Load() != 3 || out.Successful != 3 {
		t.Fatalf("expected 3 calls and successes, got %d/%d", gw.calls.Load(), out.Successful)
	}
}
