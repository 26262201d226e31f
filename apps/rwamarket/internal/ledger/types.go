package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrObjectNotFound is returned when the ledger has no live object for an id.
var ErrObjectNotFound = errors.New("object not found")

// ObjectResponse is the envelope returned by sui_getObject and owned-object queries.
type ObjectResponse struct {
	Data  *ObjectData  `json:"data,omitempty"`
	Error *ObjectError `json:"error,omitempty"`
}

type ObjectError struct {
	Code     string `json:"code"`
	ObjectID string `json:"object_id,omitempty"`
}

// ObjectData is a ledger object with its parsed Move content.
type ObjectData struct {
	ObjectID string       `json:"objectId"`
	Version  Version      `json:"version"`
	Digest   string       `json:"digest"`
	Type     string       `json:"type,omitempty"`
	Owner    *Owner       `json:"owner,omitempty"`
	Content  *MoveContent `json:"content,omitempty"`
}

// Fields returns the object's Move fields, or nil when content was not returned.
func (o *ObjectData) Fields() Fields {
	if o == nil || o.Content == nil {
		return nil
	}
	return o.Content.Fields
}

// StructType returns the object's Move type, preferring the content type.
func (o *ObjectData) StructType() string {
	if o == nil {
		return ""
	}
	if o.Content != nil && o.Content.Type != "" {
		return o.Content.Type
	}
	return o.Type
}

type MoveContent struct {
	DataType string `json:"dataType"`
	Type     string `json:"type"`
	Fields   Fields `json:"fields"`
}

// Version is an object sequence number. The RPC reports it either as a JSON
// number or as a decimal string depending on the endpoint.
type Version uint64

func (v *Version) UnmarshalJSON(b []byte) error {
	n, err := parseUint(b)
	if err != nil {
		return fmt.Errorf("invalid version %s: %w", string(b), err)
	}
	*v = Version(n)
	return nil
}

func (v Version) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatUint(uint64(v), 10))), nil
}

// Owner is one of the ledger's ownership forms.
type Owner struct {
	AddressOwner string       `json:"AddressOwner,omitempty"`
	ObjectOwner  string       `json:"ObjectOwner,omitempty"`
	Shared       *SharedOwner `json:"Shared,omitempty"`
	Immutable    bool         `json:"-"`
}

type SharedOwner struct {
	InitialSharedVersion Version `json:"initial_shared_version"`
}

func (o *Owner) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*o = Owner{Immutable: s == "Immutable"}
		return nil
	}

	type plain Owner
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return fmt.Errorf("invalid owner %s: %w", string(b), err)
	}
	*o = Owner(p)
	return nil
}

func (o Owner) MarshalJSON() ([]byte, error) {
	if o.Immutable {
		return []byte(`"Immutable"`), nil
	}
	type plain Owner
	return json.Marshal(plain(o))
}

// Fields holds Move struct fields as delivered by the RPC. Accessors never
// panic; a missing or mistyped field reports ok == false.
type Fields map[string]json.RawMessage

// String returns a string field.
func (f Fields) String(key string) (string, bool) {
	raw, ok := f[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Uint64 returns an unsigned integer field. u64 values arrive as strings.
func (f Fields) Uint64(key string) (uint64, bool) {
	raw, ok := f[key]
	if !ok {
		return 0, false
	}
	n, err := parseUint(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bool returns a boolean field.
func (f Fields) Bool(key string) (bool, bool) {
	raw, ok := f[key]
	if !ok {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false
	}
	return b, true
}

// Struct returns the fields of a nested struct value. Both the wrapped
// {"type": ..., "fields": {...}} form and a bare object are accepted.
func (f Fields) Struct(key string) (Fields, bool) {
	raw, ok := f[key]
	if !ok {
		return nil, false
	}
	return decodeStruct(raw)
}

// Structs returns a vector of structs.
func (f Fields) Structs(key string) ([]Fields, bool) {
	raw, ok := f[key]
	if !ok {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	out := make([]Fields, 0, len(items))
	for _, item := range items {
		if fields, ok := decodeStruct(item); ok {
			out = append(out, fields)
		}
	}
	return out, true
}

// ID returns the object id of a UID field, e.g. {"id": {"id": "0x.."}}.
func (f Fields) ID(key string) (string, bool) {
	if s, ok := f.String(key); ok {
		return s, s != ""
	}
	raw, ok := f[key]
	if !ok {
		return "", false
	}
	var uid struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &uid); err != nil || uid.ID == "" {
		return "", false
	}
	return uid.ID, true
}

// TableID returns the id of a Table/ObjectTable field.
func (f Fields) TableID(key string) (string, bool) {
	table, ok := f.Struct(key)
	if !ok {
		return "", false
	}
	return table.ID("id")
}

// StringMap returns a string-to-string map field. VecMap contents and plain
// JSON objects are both understood.
func (f Fields) StringMap(key string) (map[string]string, bool) {
	raw, ok := f[key]
	if !ok {
		return nil, false
	}

	var plain map[string]string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain, true
	}

	wrapped, ok := decodeStruct(raw)
	if !ok {
		return nil, false
	}
	entries, ok := wrapped.Structs("contents")
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		k, kok := entry.String("key")
		v, vok := entry.String("value")
		if kok && vok {
			out[k] = v
		}
	}
	return out, true
}

func decodeStruct(raw json.RawMessage) (Fields, bool) {
	var wrapped struct {
		Type   string `json:"type"`
		Fields Fields `json:"fields"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Fields != nil {
		return wrapped.Fields, true
	}
	var bare Fields
	if err := json.Unmarshal(raw, &bare); err != nil || bare == nil {
		return nil, false
	}
	return bare, true
}

func parseUint(raw []byte) (uint64, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	return strconv.ParseUint(s, 10, 64)
}

// DynamicFieldName is the key of a dynamic field.
type DynamicFieldName struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// IDName builds the key used by Table<ID, _> entries.
func IDName(id string) DynamicFieldName {
	value, _ := json.Marshal(id)
	return DynamicFieldName{Type: "0x2::object::ID", Value: value}
}

// StringValue returns the key value when it is a plain string such as an id.
func (n DynamicFieldName) StringValue() (string, bool) {
	var s string
	if err := json.Unmarshal(n.Value, &s); err != nil {
		return "", false
	}
	return s, true
}

type DynamicFieldInfo struct {
	Name       DynamicFieldName `json:"name"`
	BcsName    string           `json:"bcsName,omitempty"`
	Type       string           `json:"type"`
	ObjectType string           `json:"objectType"`
	ObjectID   string           `json:"objectId"`
	Version    Version          `json:"version"`
	Digest     string           `json:"digest"`
}

type DynamicFieldPage struct {
	Data        []DynamicFieldInfo `json:"data"`
	NextCursor  *string            `json:"nextCursor"`
	HasNextPage bool               `json:"hasNextPage"`
}

type Coin struct {
	CoinType            string  `json:"coinType"`
	CoinObjectID        string  `json:"coinObjectId"`
	Version             Version `json:"version"`
	Digest              string  `json:"digest"`
	Balance             string  `json:"balance"`
	PreviousTransaction string  `json:"previousTransaction,omitempty"`
}

type CoinPage struct {
	Data        []Coin  `json:"data"`
	NextCursor  *string `json:"nextCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

type Balance struct {
	CoinType        string `json:"coinType"`
	CoinObjectCount int    `json:"coinObjectCount"`
	TotalBalance    string `json:"totalBalance"`
}

type ObjectPage struct {
	Data        []ObjectResponse `json:"data"`
	NextCursor  *string          `json:"nextCursor"`
	HasNextPage bool             `json:"hasNextPage"`
}

// TransactionResponse is the result of executing or looking up a transaction.
type TransactionResponse struct {
	Digest        string              `json:"digest"`
	Effects       *TransactionEffects `json:"effects,omitempty"`
	ObjectChanges []ObjectChange      `json:"objectChanges,omitempty"`
	Errors        []string            `json:"errors,omitempty"`
}

type TransactionEffects struct {
	Status  ExecutionStatus  `json:"status"`
	Created []OwnedObjectRef `json:"created,omitempty"`
}

type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type OwnedObjectRef struct {
	Owner     Owner     `json:"owner"`
	Reference ObjectRef `json:"reference"`
}

type ObjectRef struct {
	ObjectID string  `json:"objectId"`
	Version  Version `json:"version"`
	Digest   string  `json:"digest"`
}

type ObjectChange struct {
	Type       string  `json:"type"`
	Sender     string  `json:"sender,omitempty"`
	Owner      *Owner  `json:"owner,omitempty"`
	ObjectType string  `json:"objectType,omitempty"`
	ObjectID   string  `json:"objectId"`
	Version    Version `json:"version"`
	Digest     string  `json:"digest,omitempty"`
}

// Succeeded reports whether execution succeeded. Responses without effects
// are treated as successful.
func (r *TransactionResponse) Succeeded() bool {
	if r == nil {
		return false
	}
	if len(r.Errors) > 0 {
		return false
	}
	return r.Effects == nil || r.Effects.Status.Status == "" || r.Effects.Status.Status == "success"
}

// FailureMessage returns the execution error text of a failed transaction.
func (r *TransactionResponse) FailureMessage() string {
	if r == nil {
		return "empty transaction response"
	}
	if r.Effects != nil && r.Effects.Status.Error != "" {
		return r.Effects.Status.Error
	}
	if len(r.Errors) > 0 {
		return strings.Join(r.Errors, "; ")
	}
	return "transaction failed"
}
