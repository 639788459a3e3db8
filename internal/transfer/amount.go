package transfer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount indicates the text could not be read as a positive amount.
var ErrInvalidAmount = errors.New("invalid amount")

// BelowMinimumError indicates a parseable amount under the transfer floor.
type BelowMinimumError struct {
	Amount  int64
	Minimum int64
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("amount %d below minimum %d", e.Amount, e.Minimum)
}

var (
	amountPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(k|m|thousand|million)?$`)

	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
)

// ParseAmount reads a user-typed amount in whole naira. Accepted forms include
// bare integers, comma-separated thousands and k/m/thousand/million shorthand
// ("50k", "2.5m", "5 thousand"). Fractional results round to the nearest
// naira. Amounts below minimum fail with BelowMinimumError.
func ParseAmount(text string, minimum int64) (int64, error) {
	cleaned := strings.ToLower(strings.TrimSpace(text))
	cleaned = strings.TrimPrefix(cleaned, "₦")
	cleaned = strings.TrimPrefix(cleaned, "ngn")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	match := amountPattern.FindStringSubmatch(cleaned)
	if match == nil {
		return 0, ErrInvalidAmount
	}

	value, err := decimal.NewFromString(match[1])
	if err != nil {
		return 0, ErrInvalidAmount
	}

	switch match[2] {
	case "k", "thousand":
		value = value.Mul(thousand)
	case "m", "million":
		value = value.Mul(million)
	}

	amount := value.Round(0).IntPart()
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if amount < minimum {
		return 0, &BelowMinimumError{Amount: amount, Minimum: minimum}
	}
	return amount, nil
}
