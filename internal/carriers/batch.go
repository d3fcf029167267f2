package carriers

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/errgroup"
)

// MaxBatchSize is the number of carriers a single batch may carry.
const MaxBatchSize = 3

// Credential is one carrier entry of a batch submission.
type Credential struct {
	Carrier       Code   `json:"carrier_code"`
	ClientID      string `json:"client_id"`
	ClientSecret  string `json:"client_secret"`
	AccountNumber string `json:"account_number"`
}

// TokenAcquirer is satisfied by *Gateway.
type TokenAcquirer interface {
	AcquireToken(ctx context.Context, carrier Code, clientID, clientSecret, accountNumber string) Outcome
}

// CarrierSummary exposes the result of one carrier without token material.
type CarrierSummary struct {
	Success  bool `json:"success"`
	HasToken bool `json:"has_token"`
}

// BatchOutcome aggregates every carrier of a submission in submission order.
type BatchOutcome struct {
	Tokens     []Outcome               `json:"tokens"`
	Successful int                     `json:"successful"`
	Failed     int                     `json:"failed"`
	Summary    map[Code]CarrierSummary `json:"summary"`
}

// Previewed returns a copy of b with every access token trimmed.
func (b *BatchOutcome) Previewed() *BatchOutcome {
	out := *b
	out.Tokens = make([]Outcome, len(b.Tokens))
	for i, o := range b.Tokens {
		if t, ok := o.(*Token); ok {
			out.Tokens[i] = t.Preview()
			continue
		}
		out.Tokens[i] = o
	}
	return &out
}

type Orchestrator struct {
	gateway TokenAcquirer
}

func NewOrchestrator(gateway TokenAcquirer) *Orchestrator {
	return &Orchestrator{gateway: gateway}
}

// ValidateSubmission rejects empty, oversized, duplicate or unsupported
// submissions.
func ValidateSubmission(entries []Credential) error {
	if len(entries) == 0 || len(entries) > MaxBatchSize {
		return goerrors.NewValidation("invalid carrier submission", goerrors.FieldError{
			Field:   "carriers",
			Message: fmt.Sprintf("between 1 and %d carriers are required", MaxBatchSize),
			Value:   len(entries),
		}).WithTextCode("INVALID_BATCH_SIZE")
	}

	seen := make(map[Code]bool, len(entries))
	var fields []goerrors.FieldError
	for i, e := range entries {
		field := fmt.Sprintf("carriers[%d].carrier_code", i)
		if !e.Carrier.Valid() {
			fields = append(fields, goerrors.FieldError{Field: field, Message: "unsupported carrier", Value: string(e.Carrier)})
			continue
		}
		if seen[e.Carrier] {
			fields = append(fields, goerrors.FieldError{Field: field, Message: "duplicate carrier", Value: string(e.Carrier)})
			continue
		}
		seen[e.Carrier] = true
	}
	if len(fields) > 0 {
		return goerrors.NewValidation("invalid carrier submission", fields...).WithTextCode("INVALID_CARRIERS")
	}
	return nil
}

// TestTokens validates entries and then requests a token for each one
// concurrently. Individual carrier failures are recorded in the outcome;
// the only error returned is a validation error.
func (o *Orchestrator) TestTokens(ctx context.Context, entries []Credential) (*BatchOutcome, error) {
	if err := ValidateSubmission(entries); err != nil {
		return nil, err
	}

	results := make([]Outcome, len(entries))
	var g errgroup.Group
	g.SetLimit(MaxBatchSize)
	for i, e := range entries {
		g.Go(func() error {
			results[i] = o.gateway.AcquireToken(ctx, e.Carrier, e.ClientID, e.ClientSecret, e.AccountNumber)
			return nil
		})
	}
	g.Wait()

	return aggregate(results), nil
}

func aggregate(results []Outcome) *BatchOutcome {
	out := &BatchOutcome{
		Tokens:  results,
		Summary: make(map[Code]CarrierSummary, len(results)),
	}
	for _, r := range results {
		s := CarrierSummary{Success: r.OK()}
		if t, ok := r.(*Token); ok {
			s.HasToken = t.HasToken()
		}
		if s.Success {
			out.Successful++
		} else {
			out.Failed++
		}
		out.Summary[r.CarrierCode()] = s
	}
	return out
}
