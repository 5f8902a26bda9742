package store

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"github.com/NoBody0206/market-radar/internal/models"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "radar.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// Property: any portfolio document saved to SQLite loads back structurally
// equal, including after an overwrite of the same key.
func TestProperty_SQLiteRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	st := newTestSQLiteStore(t)

	positionGen := gen.Struct(reflect.TypeOf(models.Position{}), map[string]gopter.Gen{
		"Quantity":     gen.IntRange(1, 100000),
		"AveragePrice": gen.Float64Range(0.01, 100000),
	})

	portfolioGen := gen.Struct(reflect.TypeOf(models.Portfolio{}), map[string]gopter.Gen{
		"Cash":     gen.Float64Range(0, 1e9),
		"Holdings": gen.MapOf(gen.Identifier(), positionGen),
	})

	properties.Property("save then load is identity", prop.ForAll(
		func(port models.Portfolio) bool {
			doc := map[string]models.Portfolio{"india": port}
			if err := st.Save(KeyPortfolios, doc); err != nil {
				return false
			}
			got := map[string]models.Portfolio{}
			if err := st.Load(KeyPortfolios, &got); err != nil {
				return false
			}
			return reflect.DeepEqual(doc, got)
		},
		portfolioGen,
	))

	properties.TestingRun(t)
}

func TestSQLiteLoadMissingLeavesDefault(t *testing.T) {
	st := newTestSQLiteStore(t)

	got := []models.Transaction{}
	if err := st.Load(KeyTransactions, &got); err != nil {
		t.Fatalf("Load of missing document: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("caller default was touched: %+v", got)
	}
}

func TestSQLiteLoadCorruptLeavesDefault(t *testing.T) {
	st := newTestSQLiteStore(t)

	if _, err := st.db.Exec(
		"INSERT INTO documents (key, doc) VALUES (?, ?)",
		KeyPortfolios, "{broken",
	); err != nil {
		t.Fatal(err)
	}

	got := map[string]models.Portfolio{
		"india": {Cash: 1000000.0, Holdings: map[string]models.Position{}},
	}
	if err := st.Load(KeyPortfolios, &got); err != nil {
		t.Fatalf("Load of corrupt row: %v", err)
	}
	if got["india"].Cash != 1000000.0 || len(got) != 1 {
		t.Errorf("caller default was touched: %+v", got)
	}
}
