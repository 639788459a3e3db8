package rubies

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// SuccessCode is the provider response code that denotes a successful
// operation. Any other code is a definitive business failure, not a
// transport error.
const SuccessCode = "00"

// ErrUnavailable indicates the provider could not be reached or answered with
// a server error. Callers should treat the operation outcome as unknown and
// surface a retryable failure, never a definitive rejection.
var ErrUnavailable = errors.New("payments provider unavailable")

// Bank is one entry of the provider bank list.
type Bank struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// EnquiryResult is the normalized outcome of a name enquiry.
type EnquiryResult struct {
	ResponseCode    string `json:"responseCode"`
	ResponseMessage string `json:"responseMessage"`
	AccountName     string `json:"accountName"`
}

// Ok reports whether the enquiry resolved an account holder.
func (r EnquiryResult) Ok() bool { return r.ResponseCode == SuccessCode }

// TransferRequest carries the fund-transfer payload.
type TransferRequest struct {
	Amount              int64  `json:"amount"`
	CreditAccountNumber string `json:"creditAccountNumber"`
	CreditAccountName   string `json:"creditAccountName"`
	BankCode            string `json:"bankCode"`
	BankName            string `json:"bankName"`
	Narration           string `json:"narration"`
	DebitAccountNumber  string `json:"debitAccountNumber"`
	Reference           string `json:"reference"`
	SessionID           string `json:"sessionId"`
}

// TransferResult is the normalized outcome of a fund transfer or a transfer
// status query.
type TransferResult struct {
	ResponseCode    string `json:"responseCode"`
	ResponseMessage string `json:"responseMessage"`
	Reference       string `json:"reference"`
}

// Ok reports whether the transfer was accepted by the provider.
func (r TransferResult) Ok() bool { return r.ResponseCode == SuccessCode }

// Client talks to the Rubies BaaS transaction API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds a provider client with a fixed request timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// ListBanks fetches the full provider bank list.
func (c *Client) ListBanks(ctx context.Context) ([]Bank, error) {
	body, err := c.post(ctx, "bank-list", map[string]string{"readAll": "YES"})
	if err != nil {
		return nil, err
	}

	// The list arrives either as a bare array or wrapped in a data field.
	var banks []Bank
	if err := json.Unmarshal(body, &banks); err == nil {
		return banks, nil
	}
	var wrapped struct {
		Data []Bank `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode bank list: %w", err)
	}
	return wrapped.Data, nil
}

// NameEnquiry resolves the registered holder name of an account at a bank.
// A non-success response code is returned in the result, not as an error.
func (c *Client) NameEnquiry(ctx context.Context, bankCode, accountNumber string) (EnquiryResult, error) {
	body, err := c.post(ctx, "name-enquiry", map[string]string{
		"accountBankCode": bankCode,
		"accountNumber":   accountNumber,
	})
	if err != nil {
		return EnquiryResult{}, err
	}

	var result EnquiryResult
	if err := decodeEnvelope(body, &result); err != nil {
		return EnquiryResult{}, fmt.Errorf("decode name enquiry: %w", err)
	}
	return result, nil
}

// FundTransfer issues a single-recipient bank transfer.
func (c *Client) FundTransfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	body, err := c.post(ctx, "fund-transfer", req)
	if err != nil {
		return TransferResult{}, err
	}

	var result TransferResult
	if err := decodeEnvelope(body, &result); err != nil {
		return TransferResult{}, fmt.Errorf("decode fund transfer: %w", err)
	}
	if result.Reference == "" {
		result.Reference = req.Reference
	}
	return result, nil
}

// ConfirmTransfer queries the status of a previously issued transfer by its
// idempotency reference (TSQ).
func (c *Client) ConfirmTransfer(ctx context.Context, reference string) (TransferResult, error) {
	body, err := c.post(ctx, "tsq", map[string]string{"reference": reference})
	if err != nil {
		return TransferResult{}, err
	}

	var result TransferResult
	if err := decodeEnvelope(body, &result); err != nil {
		return TransferResult{}, fmt.Errorf("decode transfer status: %w", err)
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	url := fmt.Sprintf("%s/baas-transaction/%s", c.baseURL, endpoint)

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("provider request failed", "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %v", ErrUnavailable, endpoint, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.logger.Warn("provider server error", "endpoint", endpoint, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: %s returned %d", ErrUnavailable, endpoint, resp.StatusCode)
	}

	return body, nil
}

// decodeEnvelope tolerates the two response shapes the provider emits: the
// fields either sit at the top level or inside a data object. Whichever
// carries a responseCode wins.
func decodeEnvelope(body []byte, out any) error {
	var probe struct {
		ResponseCode string          `json:"responseCode"`
		Data         json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return err
	}

	if probe.ResponseCode == "" && len(probe.Data) > 0 {
		return json.Unmarshal(probe.Data, out)
	}
	return json.Unmarshal(body, out)
}
