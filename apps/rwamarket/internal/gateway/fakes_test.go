package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"rwamarket/apps/rwamarket/internal/config"
	"rwamarket/apps/rwamarket/internal/events"
	"rwamarket/apps/rwamarket/internal/ledger"
	"rwamarket/apps/rwamarket/internal/metadata"
)

const (
	testSender = "0x5e11e7"
	testBuyer  = "0xb0b"

	testListingsTable   = "0x7ab1e"
	testUniqueEscrow    = "0xe5c1"
	testDivisibleEscrow = "0xe5c2"
)

// fakeLedger serves canned ledger state and counts calls.
type fakeLedger struct {
	mu sync.Mutex

	objects        map[string]*ledger.ObjectData
	dynamicFields  map[string][]ledger.DynamicFieldInfo
	dynamicObjects map[string]*ledger.ObjectData
	coins          map[string][]ledger.Coin
	balances       map[string][]ledger.Balance
	transactions   map[string]*ledger.TransactionResponse
	owned          map[string][]ledger.ObjectResponse

	coinsErr error
	calls    map[string]int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		objects:        map[string]*ledger.ObjectData{},
		dynamicFields:  map[string][]ledger.DynamicFieldInfo{},
		dynamicObjects: map[string]*ledger.ObjectData{},
		coins:          map[string][]ledger.Coin{},
		balances:       map[string][]ledger.Balance{},
		transactions:   map[string]*ledger.TransactionResponse{},
		owned:          map[string][]ledger.ObjectResponse{},
		calls:          map[string]int{},
	}
}

func (f *fakeLedger) count(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
}

func (f *fakeLedger) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeLedger) GetObject(_ context.Context, id string) (*ledger.ObjectData, error) {
	f.count("GetObject")
	if obj, ok := f.objects[id]; ok {
		return obj, nil
	}
	return nil, fmt.Errorf("failed to get object %s: %w", id, ledger.ErrObjectNotFound)
}

// paginate serves items in pages of limit, using the start offset as cursor.
func paginate[T any](items []T, cursor *string, limit int) ([]T, *string, bool) {
	start := 0
	if cursor != nil {
		start, _ = strconv.Atoi(*cursor)
	}
	if start > len(items) {
		start = len(items)
	}
	end := len(items)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	if end == len(items) {
		return items[start:end], nil, false
	}
	next := strconv.Itoa(end)
	return items[start:end], &next, true
}

func (f *fakeLedger) GetDynamicFields(_ context.Context, parentID string, cursor *string, limit int) (*ledger.DynamicFieldPage, error) {
	f.count("GetDynamicFields")
	data, next, more := paginate(f.dynamicFields[parentID], cursor, limit)
	return &ledger.DynamicFieldPage{Data: data, NextCursor: next, HasNextPage: more}, nil
}

func (f *fakeLedger) GetDynamicFieldObject(_ context.Context, parentID string, name ledger.DynamicFieldName) (*ledger.ObjectData, error) {
	f.count("GetDynamicFieldObject")
	key, _ := name.StringValue()
	if obj, ok := f.dynamicObjects[parentID+"/"+key]; ok {
		return obj, nil
	}
	return nil, ledger.ErrObjectNotFound
}

func (f *fakeLedger) GetCoins(_ context.Context, owner, coinType string, cursor *string, limit int) (*ledger.CoinPage, error) {
	f.count("GetCoins")
	if f.coinsErr != nil {
		return nil, f.coinsErr
	}
	var matching []ledger.Coin
	for _, coin := range f.coins[owner] {
		if coin.CoinType == coinType {
			matching = append(matching, coin)
		}
	}
	data, next, more := paginate(matching, cursor, limit)
	return &ledger.CoinPage{Data: data, NextCursor: next, HasNextPage: more}, nil
}

func (f *fakeLedger) GetAllCoins(_ context.Context, owner string, cursor *string, limit int) (*ledger.CoinPage, error) {
	f.count("GetAllCoins")
	data, next, more := paginate(f.coins[owner], cursor, limit)
	return &ledger.CoinPage{Data: data, NextCursor: next, HasNextPage: more}, nil
}

func (f *fakeLedger) GetAllBalances(_ context.Context, owner string) ([]ledger.Balance, error) {
	f.count("GetAllBalances")
	return f.balances[owner], nil
}

func (f *fakeLedger) GetTransactionBlock(_ context.Context, digest string) (*ledger.TransactionResponse, error) {
	f.count("GetTransactionBlock")
	if tx, ok := f.transactions[digest]; ok {
		return tx, nil
	}
	return nil, fmt.Errorf("transaction %s not found", digest)
}

func (f *fakeLedger) GetOwnedObjects(_ context.Context, owner, structType string, cursor *string, limit int) (*ledger.ObjectPage, error) {
	f.count("GetOwnedObjects")
	data, next, more := paginate(f.owned[owner+"/"+structType], cursor, limit)
	return &ledger.ObjectPage{Data: data, NextCursor: next, HasNextPage: more}, nil
}

// fakeSession records submitted plans and replies with a canned response,
// or with handler when one is set.
type fakeSession struct {
	mu       sync.Mutex
	address  string
	response *ledger.TransactionResponse
	err      error
	handler  func(plan *ledger.TransactionPlan) (*ledger.TransactionResponse, error)
	plans    []*ledger.TransactionPlan
}

func (s *fakeSession) CurrentAddress(context.Context) (string, error) {
	return s.address, nil
}

func (s *fakeSession) SubmitTransaction(_ context.Context, plan *ledger.TransactionPlan) (*ledger.TransactionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = append(s.plans, plan)
	if s.handler != nil {
		return s.handler(plan)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func (s *fakeSession) submitted() []*ledger.TransactionPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plans
}

type fakeResolver struct {
	docs map[string]*metadata.Document
	errs map[string]error
}

func (r *fakeResolver) Resolve(_ context.Context, uri string) (*metadata.Document, error) {
	if err, ok := r.errs[uri]; ok {
		return nil, err
	}
	return r.docs[uri], nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []events.ActivityEvent
	err    error
}

func (r *fakeRecorder) RecordActivity(_ context.Context, event events.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

type fakeObserver struct {
	mu       sync.Mutex
	outcomes map[string][]bool
}

func (o *fakeObserver) ObserveOperation(operation string, success bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = map[string][]bool{}
	}
	o.outcomes[operation] = append(o.outcomes[operation], success)
}

type testEnv struct {
	gateway  *Gateway
	ledger   *fakeLedger
	session  *fakeSession
	resolver *fakeResolver
	recorder *fakeRecorder
	observer *fakeObserver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		ledger:   newFakeLedger(),
		session:  &fakeSession{address: testSender},
		resolver: &fakeResolver{docs: map[string]*metadata.Document{}, errs: map[string]error{}},
		recorder: &fakeRecorder{},
		observer: &fakeObserver{},
	}

	gw, err := New(Options{
		Ledger:      env.ledger,
		Session:     env.session,
		Resolver:    env.resolver,
		Recorder:    env.recorder,
		Observer:    env.observer,
		Contracts:   config.DefaultContracts(),
		Concurrency: 4,
	})
	require.NoError(t, err)
	env.gateway = gw
	return env
}

// fields builds Move fields from plain Go values.
func fields(t *testing.T, values map[string]any) ledger.Fields {
	t.Helper()
	out := ledger.Fields{}
	for k, v := range values {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		out[k] = raw
	}
	return out
}

func object(t *testing.T, id string, values map[string]any) *ledger.ObjectData {
	t.Helper()
	return &ledger.ObjectData{
		ObjectID: id,
		Version:  1,
		Content:  &ledger.MoveContent{DataType: "moveObject", Fields: fields(t, values)},
	}
}

func wrapped(values map[string]any) map[string]any {
	return map[string]any{"type": "test", "fields": values}
}

func table(id string, size int) map[string]any {
	return wrapped(map[string]any{"id": map[string]any{"id": id}, "size": fmt.Sprint(size)})
}

// withMarketplace installs the marketplace object with its three tables.
func (env *testEnv) withMarketplace(t *testing.T, extra map[string]any) {
	t.Helper()
	values := map[string]any{
		"listings":   table(testListingsTable, len(env.ledger.dynamicFields[testListingsTable])),
		"nft_escrow": table(testUniqueEscrow, 0),
		"ft_escrow":  table(testDivisibleEscrow, 0),
	}
	for k, v := range extra {
		values[k] = v
	}
	id := env.gateway.Contracts().MarketplaceObject
	env.ledger.objects[id] = object(t, id, values)
}

// addListing registers a listings table entry pointing at a listing object.
func (env *testEnv) addListing(t *testing.T, listingID, assetID string, listing map[string]any) {
	t.Helper()
	env.ledger.dynamicFields[testListingsTable] = append(env.ledger.dynamicFields[testListingsTable], ledger.DynamicFieldInfo{
		Name:     ledger.IDName(assetID),
		ObjectID: listingID,
	})
	env.ledger.objects[listingID] = object(t, listingID, map[string]any{
		"name":  assetID,
		"value": wrapped(listing),
	})
}

// escrow places an asset into an escrow table.
func (env *testEnv) escrow(t *testing.T, escrowTable, assetID string, asset map[string]any) {
	t.Helper()
	env.ledger.dynamicObjects[escrowTable+"/"+assetID] = object(t, "0xdf"+assetID[2:], map[string]any{
		"name":  assetID,
		"value": wrapped(asset),
	})
}

func (env *testEnv) paymentCoin(owner, id, balance string) {
	env.ledger.coins[owner] = append(env.ledger.coins[owner], ledger.Coin{
		CoinType:     env.gateway.Contracts().PaymentCoinType,
		CoinObjectID: id,
		Balance:      balance,
	})
}

func successResponse(digest string) *ledger.TransactionResponse {
	return &ledger.TransactionResponse{
		Digest:  digest,
		Effects: &ledger.TransactionEffects{Status: ledger.ExecutionStatus{Status: "success"}},
	}
}
