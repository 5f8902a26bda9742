package ledger

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/NoBody0206/market-radar/internal/errors"
	"github.com/NoBody0206/market-radar/internal/models"
	"github.com/NoBody0206/market-radar/internal/store"
)

// memStore is an in-memory Store for tests. Documents round-trip through
// JSON so tests see the same shapes the real stores persist.
type memStore struct {
	docs      map[string][]byte
	failSaves bool
	saves     int
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string][]byte)}
}

func (m *memStore) Load(key string, out interface{}) error {
	data, ok := m.docs[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return nil
	}
	return nil
}

func (m *memStore) Save(key string, doc interface{}) error {
	if m.failSaves {
		return errors.New("save failed")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.docs[key] = data
	m.saves++
	return nil
}

func (m *memStore) Close() error { return nil }

var testSeeds = map[string]models.SegmentSeed{
	"india":  {Cash: 1000000.0, Currency: "₹"},
	"global": {Cash: 100000.0, Currency: "$"},
}

func newTestService(t *testing.T, st store.Store) *Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{
		Store:    st,
		Segments: testSeeds,
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestBuyThenSellRoundTrip(t *testing.T) {
	svc := newTestService(t, newMemStore())

	// BUY 10 @ 100: fee 1.0, cost 1001.0
	txn, err := svc.ExecuteTrade("india", models.SideBuy, "X", 10, 100)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if txn.Fee != 1.0 {
		t.Errorf("buy fee = %v, want 1.0", txn.Fee)
	}

	port, _ := svc.Portfolio("india")
	if port.Cash != 998999.0 {
		t.Errorf("cash after buy = %v, want 998999.0", port.Cash)
	}
	pos, ok := port.Holdings["X"]
	if !ok {
		t.Fatal("position X not created")
	}
	if pos.Quantity != 10 {
		t.Errorf("quantity = %d, want 10", pos.Quantity)
	}
	if pos.AveragePrice != 100.1 {
		t.Errorf("avg price = %v, want 100.1 (fee-inclusive)", pos.AveragePrice)
	}
	if invested := port.InvestedValue(); math.Abs(invested-1001.0) > 1e-9 {
		t.Errorf("invested value = %v, want 1001.0", invested)
	}

	// SELL 10 @ 110: fee 1.1, proceeds 1098.9
	txn, err = svc.ExecuteTrade("india", models.SideSell, "X", 10, 110)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if txn.Fee != 1.1 {
		t.Errorf("sell fee = %v, want 1.1", txn.Fee)
	}

	port, _ = svc.Portfolio("india")
	if port.Cash != 1000097.9 {
		t.Errorf("cash after sell = %v, want 1000097.9", port.Cash)
	}
	if _, held := port.Holdings["X"]; held {
		t.Error("position X should be removed after selling the full quantity")
	}
}

func TestBuyInsufficientFunds(t *testing.T) {
	small, err := NewService(ServiceConfig{
		Store:    newMemStore(),
		Segments: map[string]models.SegmentSeed{"india": {Cash: 100}},
		Logger:   zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	// total cost = 250 + 0.25 = 250.25 > 100
	_, err = small.ExecuteTrade("india", models.SideBuy, "Y", 5, 50)
	if !errors.Is(err, apperrors.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	port, _ := small.Portfolio("india")
	if port.Cash != 100 {
		t.Errorf("cash = %v, want 100 (unchanged)", port.Cash)
	}
	if len(port.Holdings) != 0 {
		t.Errorf("holdings = %v, want empty", port.Holdings)
	}
	if n := len(small.Transactions(0)); n != 0 {
		t.Errorf("transaction log has %d records, want 0", n)
	}
}

func TestValidationRejections(t *testing.T) {
	svc := newTestService(t, newMemStore())

	cases := []struct {
		name    string
		segment string
		side    models.Side
		symbol  string
		qty     int
		price   float64
		want    error
	}{
		{"unknown segment", "mars", models.SideBuy, "X", 1, 10, apperrors.ErrUnknownSegment},
		{"invalid side", "india", models.Side("HOLD"), "X", 1, 10, apperrors.ErrInvalidSide},
		{"zero quantity", "india", models.SideBuy, "X", 0, 10, apperrors.ErrInvalidQuantity},
		{"negative quantity", "india", models.SideBuy, "X", -3, 10, apperrors.ErrInvalidQuantity},
		{"zero price", "india", models.SideBuy, "X", 1, 0, apperrors.ErrInvalidPrice},
		{"negative price", "india", models.SideBuy, "X", 1, -5, apperrors.ErrInvalidPrice},
		{"NaN price", "india", models.SideBuy, "X", 1, math.NaN(), apperrors.ErrInvalidPrice},
		{"empty symbol", "india", models.SideBuy, "  ", 1, 10, apperrors.ErrInvalidPrice},
		{"sell unheld", "india", models.SideSell, "X", 1, 10, apperrors.ErrInsufficientShares},
	}

	before, _ := svc.Portfolio("india")
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ExecuteTrade(tc.segment, tc.side, tc.symbol, tc.qty, tc.price)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			var tradeErr *apperrors.TradeError
			if !errors.As(err, &tradeErr) {
				t.Fatalf("err %v is not a *TradeError", err)
			}
		})
	}

	after, _ := svc.Portfolio("india")
	if !reflect.DeepEqual(before, after) {
		t.Errorf("portfolio changed by rejected trades: %+v != %+v", before, after)
	}
	if n := len(svc.Transactions(0)); n != 0 {
		t.Errorf("transaction log has %d records, want 0", n)
	}
}

func TestAverageCostBlendsFees(t *testing.T) {
	svc := newTestService(t, newMemStore())

	if _, err := svc.ExecuteTrade("india", models.SideBuy, "X", 10, 100); err != nil {
		t.Fatal(err)
	}
	port, _ := svc.Portfolio("india")
	firstAvg := port.Holdings["X"].AveragePrice

	if _, err := svc.ExecuteTrade("india", models.SideBuy, "X", 10, 200); err != nil {
		t.Fatal(err)
	}
	port, _ = svc.Portfolio("india")
	pos := port.Holdings["X"]

	// Second buy: gross 2000, fee 2.0, total cost 2002. The fee-inclusive
	// cost is blended, same arithmetic as the implementation.
	wantAvg := (10*firstAvg + 2002.0) / 20
	if pos.AveragePrice != wantAvg {
		t.Errorf("avg price = %v, want %v", pos.AveragePrice, wantAvg)
	}
	if math.Abs(pos.AveragePrice-150.15) > 1e-9 {
		t.Errorf("avg price = %v, want ~150.15", pos.AveragePrice)
	}
	if pos.Quantity != 20 {
		t.Errorf("quantity = %d, want 20", pos.Quantity)
	}
}

func TestSellLeavesAveragePriceUnchanged(t *testing.T) {
	svc := newTestService(t, newMemStore())

	if _, err := svc.ExecuteTrade("india", models.SideBuy, "X", 10, 100); err != nil {
		t.Fatal(err)
	}
	port, _ := svc.Portfolio("india")
	avgBefore := port.Holdings["X"].AveragePrice

	if _, err := svc.ExecuteTrade("india", models.SideSell, "X", 4, 180); err != nil {
		t.Fatal(err)
	}
	port, _ = svc.Portfolio("india")
	pos := port.Holdings["X"]
	if pos.Quantity != 6 {
		t.Errorf("quantity = %d, want 6", pos.Quantity)
	}
	if pos.AveragePrice != avgBefore {
		t.Errorf("avg price moved on sell: %v -> %v", avgBefore, pos.AveragePrice)
	}
}

func TestSellMoreThanHeld(t *testing.T) {
	svc := newTestService(t, newMemStore())

	if _, err := svc.ExecuteTrade("india", models.SideBuy, "X", 5, 100); err != nil {
		t.Fatal(err)
	}
	before, _ := svc.Portfolio("india")

	_, err := svc.ExecuteTrade("india", models.SideSell, "X", 6, 100)
	if !errors.Is(err, apperrors.ErrInsufficientShares) {
		t.Fatalf("err = %v, want ErrInsufficientShares", err)
	}

	after, _ := svc.Portfolio("india")
	if !reflect.DeepEqual(before, after) {
		t.Errorf("portfolio changed by rejected sell")
	}
}

func TestSegmentsAreIndependent(t *testing.T) {
	svc := newTestService(t, newMemStore())

	if _, err := svc.ExecuteTrade("global", models.SideBuy, "TSLA", 10, 250); err != nil {
		t.Fatal(err)
	}

	india, _ := svc.Portfolio("india")
	if india.Cash != testSeeds["india"].Cash {
		t.Errorf("india cash = %v, want untouched %v", india.Cash, testSeeds["india"].Cash)
	}
	if len(india.Holdings) != 0 {
		t.Errorf("india holdings = %v, want empty", india.Holdings)
	}
}

func TestTransactionsNewestFirst(t *testing.T) {
	svc := newTestService(t, newMemStore())

	svc.ExecuteTrade("india", models.SideBuy, "A", 1, 10)
	svc.ExecuteTrade("india", models.SideBuy, "B", 1, 10)
	svc.ExecuteTrade("india", models.SideSell, "A", 1, 12)

	txns := svc.Transactions(0)
	if len(txns) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txns))
	}
	if txns[0].Symbol != "A" || txns[0].Type != models.SideSell {
		t.Errorf("head = %+v, want the SELL of A", txns[0])
	}
	if txns[2].Symbol != "A" || txns[2].Type != models.SideBuy {
		t.Errorf("tail = %+v, want the first BUY of A", txns[2])
	}

	limited := svc.Transactions(2)
	if len(limited) != 2 {
		t.Errorf("limit 2 returned %d records", len(limited))
	}
}

func TestFailedSaveLeavesStateUntouched(t *testing.T) {
	st := newMemStore()
	svc := newTestService(t, st)

	st.failSaves = true
	_, err := svc.ExecuteTrade("india", models.SideBuy, "X", 10, 100)
	if err == nil {
		t.Fatal("expected persistence error")
	}

	port, _ := svc.Portfolio("india")
	if port.Cash != testSeeds["india"].Cash {
		t.Errorf("cash = %v, want untouched %v", port.Cash, testSeeds["india"].Cash)
	}
	if len(port.Holdings) != 0 {
		t.Errorf("holdings = %v, want empty", port.Holdings)
	}
	if n := len(svc.Transactions(0)); n != 0 {
		t.Errorf("transaction log has %d records, want 0", n)
	}

	// The same trade succeeds once the store recovers.
	st.failSaves = false
	if _, err := svc.ExecuteTrade("india", models.SideBuy, "X", 10, 100); err != nil {
		t.Fatalf("retry after store recovery: %v", err)
	}
}

func TestStateSurvivesReload(t *testing.T) {
	st := newMemStore()
	svc := newTestService(t, st)

	svc.ExecuteTrade("india", models.SideBuy, "X", 10, 100)
	svc.ExecuteTrade("global", models.SideBuy, "TSLA", 4, 250)
	wantIndia, _ := svc.Portfolio("india")
	wantGlobal, _ := svc.Portfolio("global")
	wantTxns := svc.Transactions(0)

	reloaded := newTestService(t, st)
	gotIndia, _ := reloaded.Portfolio("india")
	gotGlobal, _ := reloaded.Portfolio("global")

	if !reflect.DeepEqual(wantIndia, gotIndia) {
		t.Errorf("india portfolio after reload = %+v, want %+v", gotIndia, wantIndia)
	}
	if !reflect.DeepEqual(wantGlobal, gotGlobal) {
		t.Errorf("global portfolio after reload = %+v, want %+v", gotGlobal, wantGlobal)
	}
	if !reflect.DeepEqual(wantTxns, reloaded.Transactions(0)) {
		t.Errorf("transaction log after reload differs")
	}
}

func TestResetReseedsSegment(t *testing.T) {
	svc := newTestService(t, newMemStore())

	svc.ExecuteTrade("india", models.SideBuy, "X", 10, 100)
	if err := svc.Reset("india"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	port, _ := svc.Portfolio("india")
	if port.Cash != testSeeds["india"].Cash {
		t.Errorf("cash after reset = %v, want %v", port.Cash, testSeeds["india"].Cash)
	}
	if len(port.Holdings) != 0 {
		t.Errorf("holdings after reset = %v, want empty", port.Holdings)
	}
	if n := len(svc.Transactions(0)); n != 1 {
		t.Errorf("transaction log has %d records after reset, want 1 (audit trail preserved)", n)
	}

	if err := svc.Reset("mars"); !errors.Is(err, apperrors.ErrUnknownSegment) {
		t.Errorf("reset of unknown segment: err = %v, want ErrUnknownSegment", err)
	}
}

func TestLoadDropsCorruptPositions(t *testing.T) {
	st := newMemStore()
	doc := map[string]models.Portfolio{
		"india": {Cash: 5000, Holdings: map[string]models.Position{
			"OK":  {Quantity: 3, AveragePrice: 10},
			"BAD": {Quantity: 0, AveragePrice: 10},
		}},
	}
	if err := st.Save(store.KeyPortfolios, doc); err != nil {
		t.Fatal(err)
	}

	svc := newTestService(t, st)
	port, err := svc.Portfolio("india")
	if err != nil {
		t.Fatal(err)
	}
	if port.Cash != 5000 {
		t.Errorf("cash = %v, want persisted 5000", port.Cash)
	}
	if _, ok := port.Holdings["BAD"]; ok {
		t.Error("zero-quantity holding survived load")
	}
	if _, ok := port.Holdings["OK"]; !ok {
		t.Error("valid holding dropped on load")
	}
}
