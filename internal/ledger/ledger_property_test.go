package ledger

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"github.com/NoBody0206/market-radar/internal/models"
)

func newPropService(seed float64) *Service {
	svc, err := NewService(ServiceConfig{
		Store:    newMemStore(),
		Segments: map[string]models.SegmentSeed{"india": {Cash: seed, Currency: "₹"}},
		Logger:   zerolog.Nop(),
	})
	if err != nil {
		panic(err)
	}
	return svc
}

// Property: a BUY debits exactly gross plus fee, and the position's cost
// basis times its quantity accounts for every rupee that left cash.
func TestProperty_BuyConservesMoney(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("cash debit equals fee-inclusive cost", prop.ForAll(
		func(qty int, price float64) bool {
			svc := newPropService(1e9)
			before, _ := svc.Portfolio("india")

			txn, err := svc.ExecuteTrade("india", models.SideBuy, "X", qty, price)
			if err != nil {
				return false
			}

			gross := price * float64(qty)
			after, _ := svc.Portfolio("india")
			debit := before.Cash - after.Cash
			if math.Abs(debit-(gross+txn.Fee)) > 1e-6 {
				return false
			}

			pos := after.Holdings["X"]
			basis := float64(pos.Quantity) * pos.AveragePrice
			return math.Abs(basis-(gross+txn.Fee)) < 1e-6
		},
		gen.IntRange(1, 10000),
		gen.Float64Range(0.01, 50000),
	))

	properties.TestingRun(t)
}

// Property: a SELL credits exactly gross minus fee and never moves the
// average price of what remains.
func TestProperty_SellConservesMoney(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("cash credit equals net proceeds", prop.ForAll(
		func(held, sold int, buyPrice, sellPrice float64) bool {
			if sold > held {
				held, sold = sold, held
			}
			svc := newPropService(1e9)
			if _, err := svc.ExecuteTrade("india", models.SideBuy, "X", held, buyPrice); err != nil {
				return false
			}
			mid, _ := svc.Portfolio("india")
			avg := mid.Holdings["X"].AveragePrice

			txn, err := svc.ExecuteTrade("india", models.SideSell, "X", sold, sellPrice)
			if err != nil {
				return false
			}

			gross := sellPrice * float64(sold)
			after, _ := svc.Portfolio("india")
			credit := after.Cash - mid.Cash
			if math.Abs(credit-(gross-txn.Fee)) > 1e-6 {
				return false
			}

			if pos, ok := after.Holdings["X"]; ok {
				if pos.Quantity != held-sold || pos.AveragePrice != avg {
					return false
				}
				return held > sold
			}
			return held == sold
		},
		gen.IntRange(1, 5000),
		gen.IntRange(1, 5000),
		gen.Float64Range(0.01, 10000),
		gen.Float64Range(0.01, 10000),
	))

	properties.TestingRun(t)
}

// Property: rejected trades are free of side effects. Whatever the reason
// for rejection, the portfolio snapshot and transaction log are identical
// before and after.
func TestProperty_RejectionHasNoPartialEffects(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("rejection leaves state untouched", prop.ForAll(
		func(qty int, price float64, overdraw bool) bool {
			svc := newPropService(100)
			before, _ := svc.Portfolio("india")
			beforeTxns := svc.Transactions(0)

			var err error
			if overdraw {
				// Cost always exceeds the 100 seed.
				_, err = svc.ExecuteTrade("india", models.SideBuy, "X", qty+1, price+200)
			} else {
				_, err = svc.ExecuteTrade("india", models.SideSell, "X", qty+1, price+0.01)
			}
			if err == nil {
				return false
			}

			after, _ := svc.Portfolio("india")
			return reflect.DeepEqual(before, after) &&
				len(svc.Transactions(0)) == len(beforeTxns)
		},
		gen.IntRange(0, 1000),
		gen.Float64Range(0, 1000),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property: over any sequence of random trade intents, accepted or not,
// cash stays non-negative, every held position has a positive quantity and
// a positive average price, and the transaction log grows by exactly one
// record per accepted trade.
func TestProperty_InvariantsHoldOverTradeSequences(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	type intent struct {
		buy    bool
		symbol string
		qty    int
		price  float64
	}

	intentGen := gopter.CombineGens(
		gen.Bool(),
		gen.OneConstOf("AAA", "BBB", "CCC"),
		gen.IntRange(1, 500),
		gen.Float64Range(0.01, 2000),
	).Map(func(vals []interface{}) intent {
		return intent{
			buy:    vals[0].(bool),
			symbol: vals[1].(string),
			qty:    vals[2].(int),
			price:  vals[3].(float64),
		}
	})

	properties.Property("cash and holdings invariants survive any sequence", prop.ForAll(
		func(intents []intent) bool {
			svc := newPropService(500000)
			accepted := 0
			for _, in := range intents {
				side := models.SideSell
				if in.buy {
					side = models.SideBuy
				}
				if _, err := svc.ExecuteTrade("india", side, in.symbol, in.qty, in.price); err == nil {
					accepted++
				}

				port, _ := svc.Portfolio("india")
				if port.Cash < 0 {
					return false
				}
				for _, pos := range port.Holdings {
					if pos.Quantity <= 0 || pos.AveragePrice <= 0 {
						return false
					}
				}
			}
			return len(svc.Transactions(0)) == accepted
		},
		gen.SliceOf(intentGen),
	))

	properties.TestingRun(t)
}

// Property: the buy average price always embeds the fee, so it strictly
// exceeds the raw trade price.
func TestProperty_AverageCostIsFeeInclusive(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("cost basis exceeds raw price after a single buy", prop.ForAll(
		func(qty int, price float64) bool {
			svc := newPropService(1e9)
			if _, err := svc.ExecuteTrade("india", models.SideBuy, "X", qty, price); err != nil {
				return false
			}
			port, _ := svc.Portfolio("india")
			return port.Holdings["X"].AveragePrice > price
		},
		gen.IntRange(1, 10000),
		gen.Float64Range(0.01, 50000),
	))

	properties.TestingRun(t)
}
