package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gooddeedstech/billy-main-service/internal/bank"
	"github.com/gooddeedstech/billy-main-service/internal/rubies"
	"github.com/gooddeedstech/billy-main-service/internal/session"
	"github.com/gooddeedstech/billy-main-service/internal/transaction"
	"github.com/gooddeedstech/billy-main-service/internal/user"
)

const (
	maxAmbiguousSuggestions = 5
	historyPageSize         = 5
)

var (
	pinPattern     = regexp.MustCompile(`^\d{4}$`)
	nonDigits      = regexp.MustCompile(`\D`)
	statusPattern  = regexp.MustCompile(`^status\s+(\S+)$`)
	cancelKeyword  = map[string]bool{"cancel": true, "stop": true, "end": true}
	historyKeyword = map[string]bool{"history": true, "transactions": true}
)

// Flow drives the transfer conversation. Each handler reloads the session
// from the store, interprets one inbound message against the current step and
// persists the outcome; nothing is cached in process memory between messages.
type Flow struct {
	sessions     session.Store
	resolver     *bank.Resolver
	executor     *Executor
	users        user.Repository
	transactions transaction.Repository
	logger       *slog.Logger
	minAmount    int64
}

// NewFlow wires the state machine.
func NewFlow(sessions session.Store, resolver *bank.Resolver, executor *Executor, users user.Repository, transactions transaction.Repository, minAmount int64, logger *slog.Logger) *Flow {
	if minAmount <= 0 {
		minAmount = 100
	}
	return &Flow{
		sessions:     sessions,
		resolver:     resolver,
		executor:     executor,
		users:        users,
		transactions: transactions,
		logger:       logger,
		minAmount:    minAmount,
	}
}

// StartTransfer begins a fresh transfer conversation, replacing any stale
// session for the user.
func (f *Flow) StartTransfer(ctx context.Context, userID string) (string, error) {
	if _, err := f.users.FindByPhone(ctx, userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "Welcome! Please complete onboarding first so we can enable transfers.", nil
		}
		return "", err
	}

	s := &session.TransferSession{Step: session.StepEnterAmount, CreatedAt: time.Now().UTC()}
	if err := f.sessions.SaveSession(ctx, userID, s); err != nil {
		return "", err
	}
	return "How much do you want to transfer? (e.g. 5000 or 50k)", nil
}

// HandleMessage routes one inbound message: cancel always wins, an existing
// session fixes the interpretation of the text, and free text may seed a new
// session.
func (f *Flow) HandleMessage(ctx context.Context, userID, text string) (string, error) {
	trimmed := strings.TrimSpace(text)

	if isCancel(trimmed) {
		return f.cancel(ctx, userID)
	}

	s, err := f.sessions.GetSession(ctx, userID)
	if err != nil {
		return "", err
	}

	if s == nil {
		// The beneficiary stash outlives the session TTL; a late yes/no
		// still counts.
		pending, err := f.sessions.GetPendingBeneficiary(ctx, userID)
		if err != nil {
			return "", err
		}
		if pending != nil && isYesNo(trimmed) {
			return f.HandleBeneficiaryDecision(ctx, userID, trimmed)
		}
		if historyKeyword[strings.ToLower(trimmed)] {
			return f.HandleHistory(ctx, userID)
		}
		if m := statusPattern.FindStringSubmatch(strings.ToLower(trimmed)); m != nil {
			return f.HandleStatus(ctx, userID, m[1])
		}
		return f.seedFromFreeText(ctx, userID, trimmed)
	}

	switch s.Step {
	case session.StepEnterAmount:
		return f.HandleTransferAmount(ctx, userID, trimmed)
	case session.StepEnterAccount:
		return f.HandleAccountNumber(ctx, userID, trimmed)
	case session.StepEnterBank:
		return f.HandleBankName(ctx, userID, trimmed)
	case session.StepEnterPin:
		return f.HandlePinEntry(ctx, userID, trimmed)
	case session.StepAskSaveBeneficiary:
		return f.HandleBeneficiaryDecision(ctx, userID, trimmed)
	default:
		if err := f.sessions.DeleteSession(ctx, userID); err != nil {
			return "", err
		}
		return sessionExpiredReply, nil
	}
}

// HandleTransferAmount validates the amount entry and advances to the account
// step.
func (f *Flow) HandleTransferAmount(ctx context.Context, userID, text string) (string, error) {
	s, err := f.loadAt(ctx, userID, session.StepEnterAmount)
	if err != nil {
		return "", err
	}
	if s == nil {
		return sessionExpiredReply, nil
	}

	amount, err := ParseAmount(text, f.minAmount)
	if err != nil {
		var below *BelowMinimumError
		if errors.As(err, &below) {
			return fmt.Sprintf("Minimum transfer amount is ₦%s.", formatAmount(below.Minimum)), nil
		}
		return "I couldn't understand that amount. Please enter a number like 5000 or 50k.", nil
	}

	s.Amount = amount
	s.Step = session.StepEnterAccount
	if err := f.sessions.SaveSession(ctx, userID, s); err != nil {
		return "", err
	}

	return fmt.Sprintf("Great, ₦%s. Now enter the 10-digit account number you want to send to.", formatAmount(amount)), nil
}

// HandleAccountNumber validates the destination account entry and advances to
// the bank step.
func (f *Flow) HandleAccountNumber(ctx context.Context, userID, text string) (string, error) {
	s, err := f.loadAt(ctx, userID, session.StepEnterAccount)
	if err != nil {
		return "", err
	}
	if s == nil {
		return sessionExpiredReply, nil
	}

	digits := nonDigits.ReplaceAllString(text, "")
	if len(digits) != 10 {
		return "Account number must be 10 digits. Please re-enter the account number.", nil
	}

	s.AccountNumber = digits
	s.Step = session.StepEnterBank
	if err := f.sessions.SaveSession(ctx, userID, s); err != nil {
		return "", err
	}

	return "Got it. Now type the bank name (e.g. GTBank, Access, Kuda).", nil
}

// HandleBankName resolves the bank text against the stored account number.
// Ambiguity re-prompts in place; a failed resolution regresses to the account
// step, since a wrong account number is the likeliest cause.
func (f *Flow) HandleBankName(ctx context.Context, userID, text string) (string, error) {
	s, err := f.loadAt(ctx, userID, session.StepEnterBank)
	if err != nil {
		return "", err
	}
	if s == nil {
		return sessionExpiredReply, nil
	}

	if s.Amount <= 0 || s.AccountNumber == "" {
		if err := f.sessions.DeleteSession(ctx, userID); err != nil {
			return "", err
		}
		return sessionExpiredReply, nil
	}

	resolution, err := f.resolver.ResolveSingle(ctx, text, s.AccountNumber)
	if err != nil {
		var ambiguous *bank.AmbiguousError
		switch {
		case errors.As(err, &ambiguous):
			return ambiguousReply(ambiguous), nil
		case errors.Is(err, rubies.ErrUnavailable):
			return "I couldn't reach the bank network right now. Please try the bank name again in a moment.", nil
		case errors.Is(err, bank.ErrBankNotRecognized), errors.Is(err, bank.ErrVerificationFailed):
			s.Step = session.StepEnterAccount
			s.AccountNumber = ""
			s.BankCode, s.BankName, s.AccountName = "", "", ""
			if saveErr := f.sessions.SaveSession(ctx, userID, s); saveErr != nil {
				return "", saveErr
			}
			return "I couldn't verify that account with any bank. Let's double-check: please re-enter the 10-digit account number.", nil
		default:
			return "", err
		}
	}

	s.BankCode = resolution.Bank.Code
	s.BankName = resolution.Bank.DisplayName
	s.AccountName = resolution.AccountName
	s.Step = session.StepEnterPin
	if err := f.sessions.SaveSession(ctx, userID, s); err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"You are about to send ₦%s to:\n%s\n%s\n%s\n\nEnter your 4-digit PIN to confirm, or type cancel.",
		formatAmount(s.Amount), s.AccountName, s.BankName, s.AccountNumber,
	), nil
}

// HandlePinEntry gates execution behind the PIN. Authentication and execution
// failures are terminal for this attempt: the session is deleted and the
// typed failure propagates to the messaging boundary.
func (f *Flow) HandlePinEntry(ctx context.Context, userID, text string) (string, error) {
	s, err := f.loadAt(ctx, userID, session.StepEnterPin)
	if err != nil {
		return "", err
	}
	if s == nil {
		return sessionExpiredReply, nil
	}

	pin := strings.TrimSpace(text)
	if !pinPattern.MatchString(pin) {
		return "PIN must be 4 digits. Please re-enter your PIN.", nil
	}

	if !s.ReadyForPin() {
		if err := f.sessions.DeleteSession(ctx, userID); err != nil {
			return "", err
		}
		return sessionExpiredReply, nil
	}

	if err := f.executor.VerifyPin(ctx, userID, pin); err != nil {
		if errors.Is(err, ErrIncorrectPin) || errors.Is(err, ErrPinNotSet) || errors.Is(err, user.ErrNotFound) {
			if delErr := f.sessions.DeleteSession(ctx, userID); delErr != nil {
				return "", delErr
			}
		}
		return "", err
	}

	receipt, err := f.executor.Execute(ctx, userID, Intent{
		Amount:        s.Amount,
		AccountNumber: s.AccountNumber,
		AccountName:   s.AccountName,
		BankCode:      s.BankCode,
		BankName:      s.BankName,
	})
	if err != nil {
		if delErr := f.sessions.DeleteSession(ctx, userID); delErr != nil {
			f.logger.Warn("delete session after failed transfer", "user", userID, "error", delErr)
		}
		return "", err
	}

	if err := f.sessions.SavePendingBeneficiary(ctx, userID, &session.PendingBeneficiary{
		AccountNumber: s.AccountNumber,
		BankCode:      s.BankCode,
		BankName:      s.BankName,
		AccountName:   s.AccountName,
	}); err != nil {
		return "", err
	}

	s.Step = session.StepAskSaveBeneficiary
	if err := f.sessions.SaveSession(ctx, userID, s); err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"Transfer successful! ₦%s sent to %s (%s). Reference: %s.\n\nDo you want to save this recipient as a beneficiary? Reply yes or no.",
		formatAmount(receipt.Amount), s.AccountName, s.BankName, receipt.Reference,
	), nil
}

// HandleBeneficiaryDecision records the yes/no answer for the stashed
// counterparty and ends the conversation.
func (f *Flow) HandleBeneficiaryDecision(ctx context.Context, userID, text string) (string, error) {
	answer := strings.ToLower(strings.TrimSpace(text))
	if answer != "yes" && answer != "no" {
		return "Please reply yes or no.", nil
	}

	pending, err := f.sessions.GetPendingBeneficiary(ctx, userID)
	if err != nil {
		return "", err
	}
	if pending == nil {
		if err := f.sessions.DeleteSession(ctx, userID); err != nil {
			return "", err
		}
		return "There's no recent transfer to save.", nil
	}

	reply := "Okay, beneficiary not saved."
	if answer == "yes" {
		u, err := f.users.FindByPhone(ctx, userID)
		if err != nil {
			return "", err
		}
		if err := f.users.SaveBeneficiary(ctx, u.ID, user.Beneficiary{
			AccountNumber: pending.AccountNumber,
			BankCode:      pending.BankCode,
			BankName:      pending.BankName,
			AccountName:   pending.AccountName,
		}); err != nil {
			return "", err
		}
		reply = "Beneficiary saved."
	}

	if err := f.sessions.DeletePendingBeneficiary(ctx, userID); err != nil {
		return "", err
	}
	if err := f.sessions.DeleteSession(ctx, userID); err != nil {
		return "", err
	}
	return reply, nil
}

// HandleHistory replies with the user's most recent wallet movements.
func (f *Flow) HandleHistory(ctx context.Context, userID string) (string, error) {
	u, err := f.users.FindByPhone(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "Welcome! Please complete onboarding first so we can enable transfers.", nil
		}
		return "", err
	}

	page, err := f.transactions.History(ctx, u.ID, 1, historyPageSize)
	if err != nil {
		return "", err
	}
	if len(page.Items) == 0 {
		return "You have no transactions yet.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your last %d transactions:\n", len(page.Items))
	for _, rec := range page.Items {
		fmt.Fprintf(&b, "%s %s ₦%s %s (ref %s)\n",
			rec.CreatedAt.Format("02 Jan"), rec.Type, formatAmount(rec.Amount), rec.Description, rec.Reference)
	}
	if page.TotalPages > 1 {
		fmt.Fprintf(&b, "Showing %d of %d.", len(page.Items), page.Total)
	}
	return strings.TrimSpace(b.String()), nil
}

// HandleStatus answers a "status <reference>" query with the provider's
// current view of the transfer.
func (f *Flow) HandleStatus(ctx context.Context, userID, reference string) (string, error) {
	receipt, err := f.executor.Status(ctx, userID, reference)
	if err != nil {
		switch {
		case errors.Is(err, transaction.ErrNotFound):
			return "I couldn't find a transfer with that reference.", nil
		case errors.Is(err, rubies.ErrUnavailable):
			return "I can't check that right now. Please try again shortly.", nil
		case errors.Is(err, user.ErrNotFound):
			return "Welcome! Please complete onboarding first so we can enable transfers.", nil
		default:
			return "", err
		}
	}
	return fmt.Sprintf("Transfer %s for ₦%s: %s.", receipt.Reference, formatAmount(receipt.Amount), receipt.ResponseMessage), nil
}

// cancel deletes the session and any pending beneficiary before
// acknowledging. In-flight external calls cannot be aborted, only their local
// bookkeeping skipped.
func (f *Flow) cancel(ctx context.Context, userID string) (string, error) {
	if err := f.sessions.DeleteSession(ctx, userID); err != nil {
		return "", err
	}
	if err := f.sessions.DeletePendingBeneficiary(ctx, userID); err != nil {
		return "", err
	}
	return "Transfer cancelled.", nil
}

// seedFromFreeText starts a session from a free-form message, pre-filling
// whatever fields could be extracted and prompting for the first missing one.
func (f *Flow) seedFromFreeText(ctx context.Context, userID, text string) (string, error) {
	parsed := ParseFreeText(text)
	if !parsed.TransferIntent {
		return "Hi! To send money, type something like: transfer 5k to 0123456789 gtbank.", nil
	}

	if _, err := f.users.FindByPhone(ctx, userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "Welcome! Please complete onboarding first so we can enable transfers.", nil
		}
		return "", err
	}

	s := &session.TransferSession{Step: session.StepEnterAmount, CreatedAt: time.Now().UTC()}
	if parsed.Amount >= f.minAmount {
		s.Amount = parsed.Amount
		s.Step = session.StepEnterAccount
	}
	if s.Step == session.StepEnterAccount && parsed.AccountNumber != "" {
		s.AccountNumber = parsed.AccountNumber
		s.Step = session.StepEnterBank
	}

	if err := f.sessions.SaveSession(ctx, userID, s); err != nil {
		return "", err
	}

	if s.Step == session.StepEnterBank && parsed.BankText != "" {
		return f.HandleBankName(ctx, userID, parsed.BankText)
	}

	switch s.Step {
	case session.StepEnterAccount:
		return fmt.Sprintf("Great, ₦%s. Now enter the 10-digit account number you want to send to.", formatAmount(s.Amount)), nil
	case session.StepEnterBank:
		return "Got it. Now type the bank name (e.g. GTBank, Access, Kuda).", nil
	default:
		return "How much do you want to transfer? (e.g. 5000 or 50k)", nil
	}
}

const sessionExpiredReply = "Your transfer session has expired. Please start the transfer again."

// loadAt fetches the user's session if it is at the expected step. A missing
// session or a step mismatch yields nil, letting the caller re-prompt.
func (f *Flow) loadAt(ctx context.Context, userID string, step session.Step) (*session.TransferSession, error) {
	s, err := f.sessions.GetSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s == nil || s.Step != step {
		return nil, nil
	}
	return s, nil
}

func ambiguousReply(e *bank.AmbiguousError) string {
	names := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		names = append(names, c.DisplayName)
		if len(names) == maxAmbiguousSuggestions {
			break
		}
	}
	return fmt.Sprintf("I found several possible banks: %s. Please type the exact bank name.", strings.Join(names, ", "))
}

func isCancel(text string) bool {
	return cancelKeyword[strings.ToLower(text)]
}

func isYesNo(text string) bool {
	t := strings.ToLower(text)
	return t == "yes" || t == "no"
}

// formatAmount renders whole naira with thousands separators.
func formatAmount(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
