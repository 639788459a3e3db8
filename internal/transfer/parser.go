package transfer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Parsed is what a free-form first message yields: as many transfer fields as
// could be extracted heuristically, used to seed a new session.
type Parsed struct {
	TransferIntent bool
	Amount         int64
	AccountNumber  string
	BankText       string
}

// Slang and shorthand that all mean "transfer" in the wild.
var slangTerms = []string{
	"run am", "send am", "move am", "drop am", "settle am", "pay am",
	"transfer am", "show love", "send money",
	"run", "wire", "credit", "move", "drop", "dash", "gbese", "settle", "pay", "send",
}

var (
	slangPatterns   = compileSlang()
	numberPattern   = regexp.MustCompile(`(\d+(?:\.\d+)?)(k|m)?`)
	nubanPattern    = regexp.MustCompile(`\b\d{10}\b`)
	bankAfterTo     = regexp.MustCompile(`to\s+\d{10}\s+([a-z ]+)`)
	bankAfterNumber = regexp.MustCompile(`\d{10}\s+([a-z ]+)`)
)

func compileSlang() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(slangTerms))
	for i, term := range slangTerms {
		out[i] = regexp.MustCompile(`\b` + strings.ReplaceAll(term, " ", `\s+`) + `\b`)
	}
	return out
}

// ParseFreeText extracts transfer intent and any amount, account number and
// bank fragment present in a free-form message.
func ParseFreeText(text string) Parsed {
	normalized := normalizeSlang(strings.ToLower(text))
	normalized = strings.Join(strings.Fields(normalized), " ")

	return Parsed{
		TransferIntent: strings.Contains(normalized, "transfer"),
		Amount:         extractAmount(normalized),
		AccountNumber:  extractAccountNumber(normalized),
		BankText:       extractBankText(normalized),
	}
}

func normalizeSlang(text string) string {
	for _, p := range slangPatterns {
		text = p.ReplaceAllString(text, "transfer")
	}
	return text
}

// extractAmount keeps the largest plausible amount, skipping full NUBAN
// tokens so an account number is never misread as money.
func extractAmount(text string) int64 {
	cleaned := strings.ReplaceAll(text, ",", "")

	var best int64
	for _, match := range numberPattern.FindAllStringSubmatch(cleaned, -1) {
		if match[2] == "" && len(match[1]) == 10 {
			continue
		}

		value, err := decimal.NewFromString(match[1])
		if err != nil {
			continue
		}
		switch match[2] {
		case "k":
			value = value.Mul(thousand)
		case "m":
			value = value.Mul(million)
		}

		amount := value.Round(0).IntPart()
		if amount > best {
			best = amount
		}
	}
	return best
}

func extractAccountNumber(text string) string {
	return nubanPattern.FindString(text)
}

// extractBankText locates the bank fragment: after "to <account>", after a
// bare account number, or as the trailing word of the message.
func extractBankText(text string) string {
	if m := bankAfterTo.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := bankAfterNumber.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	last := words[len(words)-1]
	if _, err := strconv.ParseFloat(last, 64); err == nil {
		return ""
	}
	if len(last) < 3 || last == "transfer" {
		return ""
	}
	return last
}
