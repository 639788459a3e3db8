package bank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gooddeedstech/billy-main-service/internal/rubies"
)

// Source records which resolution stage produced a candidate.
type Source string

const (
	SourceText     Source = "text"
	SourcePrefix   Source = "prefix"
	SourceEnquiry  Source = "enquiry"
	SourceVerified Source = "verified"
)

const (
	// highConfidence is the threshold at which a fuzzy hit is promoted to
	// exact-hit status and brute force is skipped.
	highConfidence = 0.9
	// fuzzyThreshold is the minimum token-overlap score for a fuzzy hit.
	fuzzyThreshold = 0.5
	// prefixConfidence is the fixed score for an account-prefix match.
	prefixConfidence = 0.6
	// enquiryConfidence is the score for a brute-force enquiry hit.
	enquiryConfidence = 0.95
)

var (
	// ErrBankNotRecognized means no resolution stage produced a usable bank.
	ErrBankNotRecognized = errors.New("bank not recognized")

	// ErrVerificationFailed means the bank was identified but the provider
	// definitively rejected the account during name enquiry. The account
	// number is the likeliest culprit.
	ErrVerificationFailed = errors.New("account verification failed")
)

// AmbiguousError reports that resolution produced several plausible banks and
// the caller must disambiguate.
type AmbiguousError struct {
	Candidates []Candidate
}

func (e *AmbiguousError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = c.DisplayName
	}
	return fmt.Sprintf("ambiguous bank: %s", strings.Join(names, ", "))
}

// Candidate is a possible bank resolution with a confidence score. Candidates
// are transient; they are never persisted.
type Candidate struct {
	Identity
	Source      Source
	Confidence  float64
	AccountName string
}

// Resolution is a fully verified single-bank outcome. AccountName always
// carries the holder name returned by an external enquiry; confidence alone
// never authorizes a transfer.
type Resolution struct {
	Bank        Identity
	AccountName string
	Source      Source
	Confidence  float64
}

// Verifier is the narrow slice of the payments provider the resolver needs.
type Verifier interface {
	NameEnquiry(ctx context.Context, bankCode, accountNumber string) (rubies.EnquiryResult, error)
	ListBanks(ctx context.Context) ([]rubies.Bank, error)
}

// Resolver turns free bank text plus an account number into ranked bank
// candidates, escalating from alias matching through prefix rules to
// brute-force enquiry against the provider bank list.
type Resolver struct {
	directory *Directory
	verifier  Verifier
	logger    *slog.Logger

	cacheTTL time.Duration

	mu        sync.Mutex
	banks     []rubies.Bank
	fetchedAt time.Time
}

// NewResolver builds a resolver over the given directory and provider.
func NewResolver(directory *Directory, verifier Verifier, cacheTTL time.Duration, logger *slog.Logger) *Resolver {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &Resolver{
		directory: directory,
		verifier:  verifier,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// Resolve returns candidate banks for the given free text and account number,
// ordered by descending confidence. An exact alias hit bypasses every other
// stage; brute-force enquiry runs only when no confident match exists.
func (r *Resolver) Resolve(ctx context.Context, text, accountNumber string) ([]Candidate, error) {
	hits, exact := r.detectFromText(text)
	if exact != nil {
		return []Candidate{*exact}, nil
	}

	candidates := hits
	for _, identity := range r.directory.MatchPrefix(accountNumber) {
		candidates = mergeCandidate(candidates, Candidate{
			Identity:   identity,
			Source:     SourcePrefix,
			Confidence: prefixConfidence,
		})
	}

	if !hasConfident(candidates) {
		enquiryHits, err := r.detectViaEnquiry(ctx, accountNumber)
		if err != nil {
			return nil, err
		}
		for _, hit := range enquiryHits {
			candidates = mergeCandidate(candidates, hit)
		}
	}

	sortCandidates(candidates)
	return candidates, nil
}

// ResolveSingle runs the full pipeline and returns the one bank the transfer
// may proceed against, with the externally verified account holder name.
func (r *Resolver) ResolveSingle(ctx context.Context, text, accountNumber string) (Resolution, error) {
	hits, exact := r.detectFromText(text)

	if exact != nil {
		r.logger.Info("exact bank match", "bank", exact.DisplayName, "code", exact.Code)
		return r.verify(ctx, exact.Identity, accountNumber)
	}

	candidates := hits
	for _, identity := range r.directory.MatchPrefix(accountNumber) {
		candidates = mergeCandidate(candidates, Candidate{
			Identity:   identity,
			Source:     SourcePrefix,
			Confidence: prefixConfidence,
		})
	}

	// A verified enquiry hit must displace any unverified prefix or fuzzy
	// candidate for the same bank, so merging by preference is mandatory here.
	enquiryHits, err := r.detectViaEnquiry(ctx, accountNumber)
	if err != nil {
		return Resolution{}, err
	}
	for _, hit := range enquiryHits {
		candidates = mergeCandidate(candidates, hit)
	}

	sortCandidates(candidates)

	verified := verifiedOnly(candidates)
	switch {
	case len(verified) == 1:
		hit := verified[0]
		return Resolution{
			Bank:        hit.Identity,
			AccountName: hit.AccountName,
			Source:      hit.Source,
			Confidence:  hit.Confidence,
		}, nil
	case len(verified) > 1:
		return Resolution{}, &AmbiguousError{Candidates: verified}
	case len(candidates) > 1:
		return Resolution{}, &AmbiguousError{Candidates: candidates}
	default:
		return Resolution{}, ErrBankNotRecognized
	}
}

// verify confirms an identified bank against the account via name enquiry.
func (r *Resolver) verify(ctx context.Context, identity Identity, accountNumber string) (Resolution, error) {
	enquiry, err := r.verifier.NameEnquiry(ctx, identity.Code, accountNumber)
	if err != nil {
		return Resolution{}, err
	}
	if !enquiry.Ok() {
		return Resolution{}, fmt.Errorf("%w: %s/%s", ErrVerificationFailed, identity.DisplayName, accountNumber)
	}
	return Resolution{
		Bank:        identity,
		AccountName: enquiry.AccountName,
		Source:      SourceVerified,
		Confidence:  1.0,
	}, nil
}

// detectFromText scans the alias table for containment and token-overlap
// matches. Containment scores 1.0 and short-circuits; fuzzy scores >= 0.9 are
// promoted to exact-hit status.
func (r *Resolver) detectFromText(text string) ([]Candidate, *Candidate) {
	normalized := normalize(text)

	var hits []Candidate
	var exact *Candidate

	for alias, identity := range r.directory.aliases {
		if strings.Contains(normalized, alias) {
			candidate := Candidate{
				Identity:   identity,
				Source:     SourceText,
				Confidence: 1.0,
			}
			hits = mergeCandidate(hits, candidate)
			if exact == nil || preferCandidate(candidate, *exact) {
				c := candidate
				exact = &c
			}
			continue
		}

		score := tokenSimilarity(normalized, alias)
		if score < fuzzyThreshold {
			continue
		}
		candidate := Candidate{
			Identity:   identity,
			Source:     SourceText,
			Confidence: score,
		}
		hits = mergeCandidate(hits, candidate)
		if score >= highConfidence && (exact == nil || preferCandidate(candidate, *exact)) {
			c := candidate
			exact = &c
		}
	}

	sortCandidates(hits)
	return hits, exact
}

// detectViaEnquiry is the expensive fallback: one name enquiry per bank in the
// provider list. Individual failures are skipped; only a failure to obtain the
// list itself aborts.
func (r *Resolver) detectViaEnquiry(ctx context.Context, accountNumber string) ([]Candidate, error) {
	banks, err := r.cachedBankList(ctx)
	if err != nil {
		return nil, err
	}

	r.logger.Info("starting name-enquiry brute force", "account", accountNumber, "banks", len(banks))

	var matches []Candidate
	for _, b := range banks {
		enquiry, err := r.verifier.NameEnquiry(ctx, b.Code, accountNumber)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if !enquiry.Ok() {
			continue
		}
		matches = append(matches, Candidate{
			Identity:    Identity{Code: b.Code, DisplayName: b.Name},
			Source:      SourceEnquiry,
			Confidence:  enquiryConfidence,
			AccountName: enquiry.AccountName,
		})
	}

	return matches, nil
}

// cachedBankList serves the provider bank list with a time-based refresh so
// repeated brute-force runs stay bounded.
func (r *Resolver) cachedBankList(ctx context.Context) ([]rubies.Bank, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.banks != nil && time.Since(r.fetchedAt) < r.cacheTTL {
		return r.banks, nil
	}

	banks, err := r.verifier.ListBanks(ctx)
	if err != nil {
		return nil, err
	}

	r.banks = banks
	r.fetchedAt = time.Now()
	return banks, nil
}

func normalize(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, t := range strings.Fields(normalize(text)) {
		tokens[t] = struct{}{}
	}
	return tokens
}

// tokenSimilarity is Jaccard overlap of the two token sets.
func tokenSimilarity(a, b string) float64 {
	aTokens := tokenize(a)
	bTokens := tokenize(b)
	if len(aTokens) == 0 || len(bTokens) == 0 {
		return 0
	}

	intersection := 0
	for t := range aTokens {
		if _, ok := bTokens[t]; ok {
			intersection++
		}
	}
	union := len(aTokens) + len(bTokens) - intersection
	return float64(intersection) / float64(union)
}

// mergeCandidate inserts a candidate, keeping only the best entry per bank
// code.
func mergeCandidate(candidates []Candidate, c Candidate) []Candidate {
	for i, existing := range candidates {
		if existing.Code != c.Code {
			continue
		}
		if preferCandidate(c, existing) {
			candidates[i] = c
		}
		return candidates
	}
	return append(candidates, c)
}

// preferCandidate reports whether a should replace b: higher confidence wins;
// on an exact tie the full "...BANK"-named institution beats a channel or
// mobile variant.
func preferCandidate(a, b Candidate) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return isMainBankName(a.DisplayName) && !isMainBankName(b.DisplayName)
}

func sortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return preferCandidate(candidates[i], candidates[j])
	})
}

func hasConfident(candidates []Candidate) bool {
	for _, c := range candidates {
		if c.Confidence >= highConfidence {
			return true
		}
	}
	return false
}

func verifiedOnly(candidates []Candidate) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if c.AccountName != "" {
			out = append(out, c)
		}
	}
	return out
}
