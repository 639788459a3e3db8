package bank

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gooddeedstech/billy-main-service/internal/logging"
	"github.com/gooddeedstech/billy-main-service/internal/rubies"
)

type fakeVerifier struct {
	banks     []rubies.Bank
	listErr   error
	listCalls int

	enquiries    map[string]rubies.EnquiryResult
	enquiryErr   error
	enquiryCalls []string
}

func (f *fakeVerifier) NameEnquiry(_ context.Context, bankCode, _ string) (rubies.EnquiryResult, error) {
	f.enquiryCalls = append(f.enquiryCalls, bankCode)
	if f.enquiryErr != nil {
		return rubies.EnquiryResult{}, f.enquiryErr
	}
	if res, ok := f.enquiries[bankCode]; ok {
		return res, nil
	}
	return rubies.EnquiryResult{ResponseCode: "07", ResponseMessage: "invalid account"}, nil
}

func (f *fakeVerifier) ListBanks(_ context.Context) ([]rubies.Bank, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.banks, nil
}

func newTestResolver(v Verifier) *Resolver {
	return NewResolver(NewDirectory(), v, time.Minute, logging.Discard())
}

func TestResolveExactTextBypassesOtherStages(t *testing.T) {
	verifier := &fakeVerifier{}
	r := newTestResolver(verifier)

	for _, input := range []string{"gtbank", "gtb", "GTBank please"} {
		candidates, err := r.Resolve(context.Background(), input, "5523456789")
		if err != nil {
			t.Fatalf("resolve %q: %v", input, err)
		}
		if len(candidates) != 1 {
			t.Fatalf("resolve %q: expected a single exact candidate, got %d", input, len(candidates))
		}
		c := candidates[0]
		if c.Code != "000013" || c.Confidence != 1.0 || c.Source != SourceText {
			t.Fatalf("resolve %q: unexpected candidate %+v", input, c)
		}
	}

	if verifier.listCalls != 0 {
		t.Fatalf("exact text match must not touch the bank list, got %d calls", verifier.listCalls)
	}
	if len(verifier.enquiryCalls) != 0 {
		t.Fatalf("Resolve must not issue enquiries, got %v", verifier.enquiryCalls)
	}
}

func TestResolvePrefixMatch(t *testing.T) {
	verifier := &fakeVerifier{}
	r := newTestResolver(verifier)

	candidates, err := r.Resolve(context.Background(), "xyz ventures", "0023456789")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected one prefix candidate, got %d", len(candidates))
	}
	c := candidates[0]
	if c.Code != "000013" || c.Source != SourcePrefix || c.Confidence != 0.6 {
		t.Fatalf("unexpected candidate %+v", c)
	}
}

func TestResolveSingleExactVerifies(t *testing.T) {
	verifier := &fakeVerifier{
		enquiries: map[string]rubies.EnquiryResult{
			"000014": {ResponseCode: "00", AccountName: "JANE DOE"},
		},
	}
	r := newTestResolver(verifier)

	res, err := r.ResolveSingle(context.Background(), "Access", "0323456789")
	if err != nil {
		t.Fatalf("resolve single: %v", err)
	}
	if res.Bank.Code != "000014" {
		t.Fatalf("expected code 000014, got %s", res.Bank.Code)
	}
	if res.AccountName != "JANE DOE" {
		t.Fatalf("expected verified name, got %q", res.AccountName)
	}
	if res.Source != SourceVerified || res.Confidence != 1.0 {
		t.Fatalf("unexpected resolution %+v", res)
	}
	if len(verifier.enquiryCalls) != 1 {
		t.Fatalf("expected one enquiry, got %v", verifier.enquiryCalls)
	}
	if verifier.listCalls != 0 {
		t.Fatal("exact match must not fall through to brute force")
	}
}

func TestResolveSingleBruteForceFallback(t *testing.T) {
	verifier := &fakeVerifier{
		banks: []rubies.Bank{
			{Code: "999992", Name: "OPAY"},
			{Code: "50211", Name: "KUDA BANK"},
		},
		enquiries: map[string]rubies.EnquiryResult{
			"999992": {ResponseCode: "00", AccountName: "JOHN OKAFOR"},
		},
	}
	r := newTestResolver(verifier)

	res, err := r.ResolveSingle(context.Background(), "that wallet app", "5523456789")
	if err != nil {
		t.Fatalf("resolve single: %v", err)
	}
	if res.Bank.Code != "999992" || res.AccountName != "JOHN OKAFOR" {
		t.Fatalf("unexpected resolution %+v", res)
	}
	if res.Source != SourceEnquiry || res.Confidence != 0.95 {
		t.Fatalf("expected enquiry source at 0.95, got %+v", res)
	}
	if verifier.listCalls != 1 {
		t.Fatalf("expected one bank list fetch, got %d", verifier.listCalls)
	}
}

func TestResolveSingleAmbiguous(t *testing.T) {
	verifier := &fakeVerifier{
		banks: []rubies.Bank{
			{Code: "999992", Name: "OPAY"},
			{Code: "50211", Name: "KUDA BANK"},
		},
		enquiries: map[string]rubies.EnquiryResult{
			"999992": {ResponseCode: "00", AccountName: "JOHN OKAFOR"},
			"50211":  {ResponseCode: "00", AccountName: "JOHN OKAFOR"},
		},
	}
	r := newTestResolver(verifier)

	_, err := r.ResolveSingle(context.Background(), "that wallet app", "5523456789")
	var ambiguous *AmbiguousError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected AmbiguousError, got %v", err)
	}
	if len(ambiguous.Candidates) != 2 {
		t.Fatalf("expected two candidates, got %d", len(ambiguous.Candidates))
	}
}

func TestResolveSingleNotRecognized(t *testing.T) {
	verifier := &fakeVerifier{}
	r := newTestResolver(verifier)

	_, err := r.ResolveSingle(context.Background(), "no such bank anywhere", "5523456789")
	if !errors.Is(err, ErrBankNotRecognized) {
		t.Fatalf("expected ErrBankNotRecognized, got %v", err)
	}
}

func TestResolveSingleProviderDown(t *testing.T) {
	verifier := &fakeVerifier{
		listErr: fmt.Errorf("%w: bank-list timed out", rubies.ErrUnavailable),
	}
	r := newTestResolver(verifier)

	_, err := r.ResolveSingle(context.Background(), "some place", "5523456789")
	if !errors.Is(err, rubies.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestBankListCacheBoundsListCalls(t *testing.T) {
	verifier := &fakeVerifier{
		banks: []rubies.Bank{{Code: "999992", Name: "OPAY"}},
	}
	r := newTestResolver(verifier)

	for i := 0; i < 3; i++ {
		_, _ = r.ResolveSingle(context.Background(), "no such bank anywhere", "5523456789")
	}
	if verifier.listCalls != 1 {
		t.Fatalf("expected cached bank list after first fetch, got %d calls", verifier.listCalls)
	}
}

func TestResolveSingleVerifiedHitBeatsPrefixCandidate(t *testing.T) {
	// The "40" prefix suggests Fidelity at 0.6; only the brute-force enquiry
	// for the same bank verifies the account. The verified hit must win, not
	// be discarded as a duplicate of the prefix candidate.
	verifier := &fakeVerifier{
		banks: []rubies.Bank{
			{Code: "070", Name: "FIDELITY BANK"},
			{Code: "999992", Name: "OPAY"},
		},
		enquiries: map[string]rubies.EnquiryResult{
			"070": {ResponseCode: "00", AccountName: "JANE DOE"},
		},
	}
	r := newTestResolver(verifier)

	res, err := r.ResolveSingle(context.Background(), "that wallet app", "4023456789")
	if err != nil {
		t.Fatalf("resolve single: %v", err)
	}
	if res.Bank.Code != "070" || res.AccountName != "JANE DOE" {
		t.Fatalf("unexpected resolution %+v", res)
	}
	if res.Source != SourceEnquiry || res.Confidence != 0.95 {
		t.Fatalf("expected enquiry source at 0.95, got %+v", res)
	}
}

func TestResolveMergesVerifiedOverPrefix(t *testing.T) {
	verifier := &fakeVerifier{
		banks: []rubies.Bank{{Code: "070", Name: "FIDELITY BANK"}},
		enquiries: map[string]rubies.EnquiryResult{
			"070": {ResponseCode: "00", AccountName: "JANE DOE"},
		},
	}
	r := newTestResolver(verifier)

	candidates, err := r.Resolve(context.Background(), "that wallet app", "4023456789")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected one merged candidate, got %d: %+v", len(candidates), candidates)
	}
	c := candidates[0]
	if c.Code != "070" || c.Source != SourceEnquiry || c.Confidence != 0.95 || c.AccountName != "JANE DOE" {
		t.Fatalf("verified hit lost in merge: %+v", c)
	}
}

func TestFuzzyPromotionKeepsBestScore(t *testing.T) {
	shared := "t1 t2 t3 t4 t5 t6 t7 t8 t9 t10 t11 t12 t13 t14 t15 t16 t17 t18 t19"
	d := &Directory{aliases: map[string]Identity{
		shared + " x":   {Code: "A", DisplayName: "ALPHA BANK"},
		shared + " x y": {Code: "B", DisplayName: "BETA BANK"},
	}}
	r := NewResolver(d, &fakeVerifier{}, time.Minute, logging.Discard())

	// Both aliases score >= 0.9 against the input; promotion must keep the
	// higher score regardless of map iteration order.
	_, exact := r.detectFromText(shared)
	if exact == nil {
		t.Fatal("expected a promoted fuzzy hit")
	}
	if exact.Code != "A" {
		t.Fatalf("promotion kept the weaker hit: %+v", exact)
	}
	if exact.Confidence < 0.94 {
		t.Fatalf("unexpected confidence %f", exact.Confidence)
	}
}

func TestTokenSimilarity(t *testing.T) {
	if got := tokenSimilarity("guaranty trust", "guaranty trust bank"); got < 0.5 {
		t.Fatalf("expected overlap >= 0.5, got %f", got)
	}
	if got := tokenSimilarity("zenith", "kuda bank"); got != 0 {
		t.Fatalf("expected zero overlap, got %f", got)
	}
	if got := tokenSimilarity("wema bank", "wema bank"); got != 1.0 {
		t.Fatalf("expected full overlap, got %f", got)
	}
}
