package gateway

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrNoPaymentCoin matches any NoPaymentCoinError.
	ErrNoPaymentCoin = errors.New("no payment coin")
	// ErrInvalidInput marks malformed caller input rejected before any I/O.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoSession is returned by write operations on a read-only gateway.
	ErrNoSession = errors.New("no signing session configured")
)

// NoPaymentCoinError means the payer owns no coin of the payment currency.
// It is detected locally; nothing is submitted.
type NoPaymentCoinError struct {
	Owner    string
	Symbol   string
	CoinType string
}

func (e *NoPaymentCoinError) Error() string {
	return fmt.Sprintf("No %s coins found for payment. Address %s holds no %s coins.", e.Symbol, e.Owner, e.CoinType)
}

func (e *NoPaymentCoinError) Is(target error) bool {
	return target == ErrNoPaymentCoin
}

// Reason is the classified cause of a ledger rejection.
type Reason int

const (
	ReasonUnknown Reason = iota
	ReasonListingNotFound
	ReasonInsufficientPayment
	ReasonMarketplacePaused
	ReasonInvalidQuantity
	ReasonAssetUnavailable
)

var reasonMessages = map[Reason]string{
	ReasonListingNotFound:     "Listing not found.",
	ReasonInsufficientPayment: "Insufficient payment for this purchase.",
	ReasonMarketplacePaused:   "Marketplace is currently paused.",
	ReasonInvalidQuantity:     "Invalid quantity requested.",
	ReasonAssetUnavailable:    "This asset is no longer available.",
}

var reasonNames = map[Reason]string{
	ReasonUnknown:             "unknown",
	ReasonListingNotFound:     "listing_not_found",
	ReasonInsufficientPayment: "insufficient_payment",
	ReasonMarketplacePaused:   "marketplace_paused",
	ReasonInvalidQuantity:     "invalid_quantity",
	ReasonAssetUnavailable:    "asset_unavailable",
}

// Message is the fixed user-facing text for a classified reason.
func (r Reason) Message() string {
	return reasonMessages[r]
}

func (r Reason) String() string {
	return reasonNames[r]
}

// marketplace module abort codes
var abortCodes = map[uint64]Reason{
	1: ReasonListingNotFound,
	2: ReasonInsufficientPayment,
	3: ReasonMarketplacePaused,
	4: ReasonInvalidQuantity,
	5: ReasonAssetUnavailable,
}

// abort constant names as they appear in error text, lowercased with
// underscores removed
var abortNames = []struct {
	needle string
	reason Reason
}{
	{"listingnotfound", ReasonListingNotFound},
	{"insufficientpayment", ReasonInsufficientPayment},
	{"marketplacepaused", ReasonMarketplacePaused},
	{"epaused", ReasonMarketplacePaused},
	{"invalidquantity", ReasonInvalidQuantity},
	{"assetnotavailable", ReasonAssetUnavailable},
	{"assetunavailable", ReasonAssetUnavailable},
	{"nolongeravailable", ReasonAssetUnavailable},
}

var (
	moveAbortPattern   = regexp.MustCompile(`MoveAbort\(.*,\s*(\d+)\)`)
	abortModulePattern = regexp.MustCompile(`name:\s*Identifier\("([A-Za-z0-9_]+)"\)`)
)

// LedgerSubmissionError is a rejection by the ledger or the signer, with the
// reason inferred from the abort code when possible.
type LedgerSubmissionError struct {
	Raw       string
	Reason    Reason
	AbortCode *uint64
	Module    string
}

// Error returns the classified message, or a generic message with the raw
// text for unrecognized failures.
func (e *LedgerSubmissionError) Error() string {
	if e.Reason != ReasonUnknown {
		return e.Reason.Message()
	}
	return "Operation failed: " + e.Raw
}

// ClassifySubmissionError parses raw ledger error text.
func ClassifySubmissionError(raw string) *LedgerSubmissionError {
	e := &LedgerSubmissionError{Raw: raw}

	if m := moveAbortPattern.FindStringSubmatch(raw); m != nil {
		if code, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			e.AbortCode = &code
		}
		if mm := abortModulePattern.FindStringSubmatch(raw); mm != nil {
			e.Module = mm[1]
		}
	}

	// codes are only meaningful for the marketplace module
	if e.AbortCode != nil && (e.Module == "" || e.Module == marketplaceModule) {
		if reason, ok := abortCodes[*e.AbortCode]; ok {
			e.Reason = reason
			return e
		}
	}

	squashed := strings.ReplaceAll(strings.ToLower(raw), "_", "")
	squashed = strings.ReplaceAll(squashed, " ", "")
	for _, n := range abortNames {
		if strings.Contains(squashed, n.needle) {
			e.Reason = n.reason
			return e
		}
	}

	return e
}

// UserMessage renders err the way the presentation layer shows it.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var submission *LedgerSubmissionError
	if errors.As(err, &submission) {
		return submission.Error()
	}

	var noCoin *NoPaymentCoinError
	if errors.As(err, &noCoin) {
		return noCoin.Error()
	}

	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrNoSession) {
		return err.Error()
	}

	return "Operation failed: " + err.Error()
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
