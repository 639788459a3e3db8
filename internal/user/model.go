package user

import "time"

// User is a registered wallet owner reachable by phone number. Balance is the
// cached wallet balance in whole naira; FundingAccount is the virtual account
// debited for outbound transfers.
type User struct {
	ID             string
	Phone          string
	FirstName      string
	LastName       string
	Balance        int64
	PinHash        []byte
	FundingAccount string
	CreatedAt      time.Time
}

// FullName joins the user's names for narration strings.
func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Beneficiary is a saved transfer recipient reusable in future transfers.
type Beneficiary struct {
	AccountNumber string
	BankCode      string
	BankName      string
	AccountName   string
}
