package session

import "time"

// Step identifies where a transfer conversation currently is.
type Step string

const (
	StepEnterAmount        Step = "ENTER_AMOUNT"
	StepEnterAccount       Step = "ENTER_ACCOUNT"
	StepEnterBank          Step = "ENTER_BANK"
	StepEnterPin           Step = "ENTER_PIN"
	StepAskSaveBeneficiary Step = "ASK_SAVE_BENEFICIARY"
)

// TransferSession is the durable record of one in-progress transfer
// conversation. It round-trips through the cache on every inbound message and
// is never held in process memory between messages. The store key is the user
// identifier, so at most one live session exists per user.
type TransferSession struct {
	Step          Step      `json:"step"`
	Amount        int64     `json:"amount,omitempty"`
	AccountNumber string    `json:"accountNumber,omitempty"`
	BankCode      string    `json:"bankCode,omitempty"`
	BankName      string    `json:"bankName,omitempty"`
	AccountName   string    `json:"accountName,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ReadyForPin reports whether every field the executor needs is present. The
// state machine must refuse to reach ENTER_PIN otherwise.
func (s *TransferSession) ReadyForPin() bool {
	return s.Amount > 0 &&
		s.AccountNumber != "" &&
		s.BankCode != "" &&
		s.BankName != "" &&
		s.AccountName != ""
}

// PendingBeneficiary holds the counterparty of the last completed transfer
// while the user decides whether to save it.
type PendingBeneficiary struct {
	AccountNumber string `json:"accountNumber"`
	BankCode      string `json:"bankCode"`
	BankName      string `json:"bankName"`
	AccountName   string `json:"accountName"`
}
