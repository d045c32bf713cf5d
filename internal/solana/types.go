package solana

import (
	"encoding/json"
	"strconv"
)

// EnhancedTransaction is the indexer-parsed upstream shape: per-transfer
// lists with user-level accounts, plus optionally pre-parsed swap events.
type EnhancedTransaction struct {
	Signature            string           `json:"signature"`
	TransactionSignature string           `json:"transactionSignature,omitempty"`
	Timestamp            int64            `json:"timestamp"`
	BlockTime            int64            `json:"blockTime,omitempty"`
	BlockTimeSnake       int64            `json:"block_time,omitempty"`
	Fee                  float64          `json:"fee"`
	Slot                 int64            `json:"slot"`
	Type                 string           `json:"type,omitempty"`
	NativeTransfers      []NativeTransfer `json:"nativeTransfers,omitempty"`
	TokenTransfers       []TokenTransfer  `json:"tokenTransfers,omitempty"`
	Events               EventBag         `json:"events,omitempty"`
}

// Sig resolves the transaction signature across known field spellings.
func (t *EnhancedTransaction) Sig() string {
	if t.Signature != "" {
		return t.Signature
	}
	return t.TransactionSignature
}

// Time resolves the unix timestamp across known field spellings.
func (t *EnhancedTransaction) Time() int64 {
	if t.Timestamp != 0 {
		return t.Timestamp
	}
	if t.BlockTime != 0 {
		return t.BlockTime
	}
	return t.BlockTimeSnake
}

// NativeTransfer is a user-level native (SOL) movement in lamports.
type NativeTransfer struct {
	FromUserAccount string  `json:"fromUserAccount,omitempty"`
	FromShort       string  `json:"from,omitempty"`
	ToUserAccount   string  `json:"toUserAccount,omitempty"`
	ToShort         string  `json:"to,omitempty"`
	Amount          float64 `json:"amount"`
}

// Sender resolves the source account across field spellings.
func (n NativeTransfer) Sender() string {
	if n.FromUserAccount != "" {
		return n.FromUserAccount
	}
	return n.FromShort
}

// Recipient resolves the destination account across field spellings.
func (n NativeTransfer) Recipient() string {
	if n.ToUserAccount != "" {
		return n.ToUserAccount
	}
	return n.ToShort
}

// TokenTransfer is a user-level SPL token movement.
type TokenTransfer struct {
	FromUserAccount string      `json:"fromUserAccount,omitempty"`
	FromShort       string      `json:"from,omitempty"`
	ToUserAccount   string      `json:"toUserAccount,omitempty"`
	ToShort         string      `json:"to,omitempty"`
	Mint            string      `json:"mint"`
	TokenSymbol     string      `json:"tokenSymbol,omitempty"`
	TokenAmount     TokenAmount `json:"tokenAmount"`
	Amount          float64     `json:"amount,omitempty"`
}

// Sender resolves the source account across field spellings.
func (t TokenTransfer) Sender() string {
	if t.FromUserAccount != "" {
		return t.FromUserAccount
	}
	return t.FromShort
}

// Recipient resolves the destination account across field spellings.
func (t TokenTransfer) Recipient() string {
	if t.ToUserAccount != "" {
		return t.ToUserAccount
	}
	return t.ToShort
}

// UIAmount returns the transfer amount in UI units, preferring the structured
// tokenAmount payload and falling back to the flat amount field.
func (t TokenTransfer) UIAmount() float64 {
	if t.TokenAmount.set {
		return t.TokenAmount.Value
	}
	return t.Amount
}

// TokenAmount decodes the three shapes indexers emit for token quantities:
// a plain number, a decimal string, or an object carrying uiAmount or
// raw amount plus decimals.
type TokenAmount struct {
	Value float64
	set   bool
}

type tokenAmountObject struct {
	UIAmount       *float64 `json:"uiAmount"`
	UIAmountString string   `json:"uiAmountString"`
	Amount         string   `json:"amount"`
	Decimals       int      `json:"decimals"`
}

// UnmarshalJSON implements the flexible decoding described above. Unparseable
// payloads decode to zero rather than failing the record.
func (a *TokenAmount) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		a.Value = num
		a.set = true
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if v, err := strconv.ParseFloat(str, 64); err == nil {
			a.Value = v
			a.set = true
		}
		return nil
	}
	var obj tokenAmountObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	a.set = true
	switch {
	case obj.UIAmount != nil:
		a.Value = *obj.UIAmount
	case obj.UIAmountString != "":
		a.Value, _ = strconv.ParseFloat(obj.UIAmountString, 64)
	case obj.Amount != "":
		raw, err := strconv.ParseFloat(obj.Amount, 64)
		if err == nil {
			div := 1.0
			for i := 0; i < obj.Decimals; i++ {
				div *= 10
			}
			a.Value = raw / div
		}
	}
	return nil
}

// MarshalJSON renders the amount as a plain number.
func (a TokenAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Value)
}

// EventBag holds pre-parsed protocol events attached to a transaction.
type EventBag struct {
	Swap RawSwapEvents `json:"swap,omitempty"`
}

// RawSwapEvents accepts both a single swap object and a list of them.
// Individual events stay as generic maps; the swap detector resolves
// their fields through its alias table.
type RawSwapEvents []map[string]any

// UnmarshalJSON accepts an array, a single object, or null.
func (r *RawSwapEvents) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*r = nil
		return nil
	}
	var list []map[string]any
	if err := json.Unmarshal(data, &list); err == nil {
		*r = list
		return nil
	}
	var single map[string]any
	if err := json.Unmarshal(data, &single); err == nil {
		*r = RawSwapEvents{single}
		return nil
	}
	*r = nil
	return nil
}

// RawTransaction is the raw-ledger upstream shape: account key list with
// pre/post balance arrays and the paid fee.
type RawTransaction struct {
	Signature string     `json:"signature,omitempty"`
	BlockTime int64      `json:"blockTime"`
	Slot      int64      `json:"slot"`
	Meta      *RawMeta   `json:"meta"`
	Body      RawTxnBody `json:"transaction"`
}

// Sig returns the transaction signature, preferring the top-level field.
func (t *RawTransaction) Sig() string {
	if t.Signature != "" {
		return t.Signature
	}
	if len(t.Body.Signatures) > 0 {
		return t.Body.Signatures[0]
	}
	return ""
}

// RawTxnBody carries the signed message.
type RawTxnBody struct {
	Signatures []string   `json:"signatures,omitempty"`
	Message    RawMessage `json:"message"`
}

// RawMessage carries the ordered account key list. Index 0 is the fee payer.
type RawMessage struct {
	AccountKeys []AccountKey `json:"accountKeys"`
}

// AccountKey decodes both the bare-string and {pubkey: ...} spellings.
type AccountKey string

// UnmarshalJSON accepts "addr" or {"pubkey": "addr"}.
func (k *AccountKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*k = AccountKey(s)
		return nil
	}
	var obj struct {
		Pubkey string `json:"pubkey"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		*k = AccountKey(obj.Pubkey)
		return nil
	}
	*k = ""
	return nil
}

// RawMeta holds execution results and balance snapshots.
type RawMeta struct {
	Fee               uint64         `json:"fee"`
	PreBalances       []uint64       `json:"preBalances"`
	PostBalances      []uint64       `json:"postBalances"`
	PreTokenBalances  []TokenBalance `json:"preTokenBalances,omitempty"`
	PostTokenBalances []TokenBalance `json:"postTokenBalances,omitempty"`
	Err               any            `json:"err,omitempty"`
}

// TokenBalance is one token sub-account balance snapshot.
type TokenBalance struct {
	AccountIndex  int           `json:"accountIndex"`
	Mint          string        `json:"mint"`
	Owner         string        `json:"owner"`
	UITokenAmount UITokenAmount `json:"uiTokenAmount"`
}

// UITokenAmount is the UI-scaled token amount payload.
type UITokenAmount struct {
	UIAmount       *float64 `json:"uiAmount"`
	UIAmountString string   `json:"uiAmountString,omitempty"`
	Amount         string   `json:"amount,omitempty"`
	Decimals       int      `json:"decimals"`
}

// Value returns the UI amount, falling back to the string form when the
// numeric field is absent.
func (u UITokenAmount) Value() float64 {
	if u.UIAmount != nil {
		return *u.UIAmount
	}
	if u.UIAmountString != "" {
		if v, err := strconv.ParseFloat(u.UIAmountString, 64); err == nil {
			return v
		}
	}
	return 0
}

// Batch is a fully materialized transaction batch in exactly one upstream
// shape. Core analysis runs only after the batch is complete.
type Batch struct {
	Wallet   string
	Enhanced []EnhancedTransaction
	Raw      []RawTransaction
}

// Len returns the record count of whichever shape is populated.
func (b *Batch) Len() int {
	if len(b.Enhanced) > 0 {
		return len(b.Enhanced)
	}
	return len(b.Raw)
}

// Empty reports whether the batch carries no records at all.
func (b *Batch) Empty() bool { return len(b.Enhanced) == 0 && len(b.Raw) == 0 }
