package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-crossover/internal/types"
)

// DataGenerator generates candle series for tests and benchmarks.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how candles are generated.
type GeneratorConfig struct {
	// StartTime is the open time of the first candle
	StartTime time.Time
	// Interval is the duration between each candle
	Interval time.Duration
	// Count is the number of candles to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% typical move per candle)
	Volatility float64
	// Cycle adds a sine wave of this many candles per period so crossovers happen often. Zero disables it.
	Cycle int
	// CycleAmplitude is the relative size of the sine wave
	CycleAmplitude float64
	// VolumeBase is the average volume per candle
	VolumeBase float64
}

// DefaultConfig returns a 15 minute BTC-like series that crosses regularly.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartTime:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:       15 * time.Minute,
		Count:          2000,
		InitialPrice:   40000,
		Volatility:     0.002,
		Cycle:          60,
		CycleAmplitude: 0.03,
		VolumeBase:     100,
	}
}

// Generate creates candles following a geometric random walk with an optional cycle on top.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Candle {
	candles := make([]types.Candle, config.Count)
	walk := config.InitialPrice
	prevClose := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		// Box-Muller transform for a normal step
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(1-u1)) * math.Cos(2*math.Pi*u2)

		walk *= 1 + config.Volatility*z

		price := walk
		if config.Cycle > 0 {
			price *= 1 + config.CycleAmplitude*math.Sin(2*math.Pi*float64(i)/float64(config.Cycle))
		}

		open := prevClose
		closePrice := price

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open)

		candles[i] = types.Candle{
			OpenTime: currentTime,
			Open:     roundToDecimals(open, 2),
			High:     roundToDecimals(math.Max(open, closePrice)+highExtension, 2),
			Low:      roundToDecimals(math.Min(open, closePrice)-lowExtension, 2),
			Close:    roundToDecimals(closePrice, 2),
			Volume:   roundToDecimals(config.VolumeBase*(0.5+g.rng.Float64()), 3),
		}

		prevClose = closePrice
		currentTime = currentTime.Add(config.Interval)
	}

	return candles
}

// CandlesFromCloses builds candles whose close follows closes exactly.
// Open is the previous close and high/low sit spread away from the body.
func CandlesFromCloses(start time.Time, interval time.Duration, spread float64, closes ...float64) []types.Candle {
	candles := make([]types.Candle, len(closes))
	prev := closes[0]

	for i, c := range closes {
		candles[i] = types.Candle{
			OpenTime: start.Add(time.Duration(i) * interval),
			Open:     prev,
			High:     math.Max(prev, c) + spread,
			Low:      math.Min(prev, c) - spread,
			Close:    c,
			Volume:   1,
		}
		prev = c
	}

	return candles
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
