package loader

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitlab/traffic-prep-go/internal/dataset"
	"github.com/transitlab/traffic-prep-go/internal/errs"
	"github.com/transitlab/traffic-prep-go/internal/tensor"
)

// sinusoidalDataset builds an hourly dataset of smooth daily cycles with
// stations clustered well inside one kilometer.
func sinusoidalDataset(T, nodes int) *dataset.DataSet {
	traffic := tensor.New(T, nodes)
	for t := 0; t < T; t++ {
		for j := 0; j < nodes; j++ {
			v := math.Sin(2*math.Pi*float64(t)/24)*float64(j+1) + float64(j+2)
			traffic.Set(v, t, j)
		}
	}
	stations := make([]dataset.Station, nodes)
	for j := 0; j < nodes; j++ {
		stations[j] = dataset.Station{ID: j, Name: "s", Lat: 40 + float64(j)*0.001, Lng: -74}
	}
	return &dataset.DataSet{
		Name:        "synthetic",
		City:        "testville",
		TimeFitness: 60,
		TimeStart:   time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC),
		NodeTraffic: traffic,
		Stations:    stations,
	}
}

// linearDataset holds the slot index at every node, making window values
// checkable by arithmetic.
func linearDataset(T, nodes int) *dataset.DataSet {
	traffic := tensor.New(T, nodes)
	for t := 0; t < T; t++ {
		for j := 0; j < nodes; j++ {
			traffic.Set(float64(t), t, j)
		}
	}
	return &dataset.DataSet{
		Name:        "linear",
		TimeFitness: 60,
		TimeStart:   time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC),
		NodeTraffic: traffic,
	}
}

func TestEndToEndScenario(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClosenessLen = 6
	cfg.PeriodLen = 2
	cfg.TrendLen = 1
	cfg.TestRatio = 0.1
	cfg.Normalize = true
	cfg.Graph = "Correlation-Distance"
	cfg.ExternalUse = "holiday-tp"

	l, err := New(sinusoidalDataset(1000, 5), cfg)
	require.NoError(t, err)

	// 900 train slots minus max(6, 48, 168) lookback
	assert.Equal(t, 732, l.TrainY.Len())
	// the test partition borrows lookback history from train
	assert.Equal(t, 100, l.TestY.Len())
	assert.Equal(t, 5, l.StationNumber)
	assert.Equal(t, 24.0, l.DailySlots)

	require.Equal(t, []int{732, 5, 6, 1}, l.TrainCloseness.Shape())
	require.Equal(t, []int{732, 5, 2, 1}, l.TrainPeriod.Shape())
	require.Equal(t, []int{732, 5, 1, 1}, l.TrainTrend.Shape())
	require.Equal(t, []int{100, 5, 6, 1}, l.TestCloseness.Shape())

	for _, v := range l.TrainCloseness.Data() {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	for _, v := range l.TrainY.Data() {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}

	// external features: holiday one-hot + hour of day + day of week
	assert.Equal(t, 2+24+7, l.ExternalDim)
	require.Len(t, l.ExternalBlocks, 3)
	assert.Equal(t, "holiday", l.ExternalBlocks[0].Name)
	assert.Equal(t, "hourofday", l.ExternalBlocks[1].Name)
	assert.Equal(t, "dayofweek", l.ExternalBlocks[2].Name)

	// every external stream is re-sliced to the traffic sequence length
	assert.Equal(t, 732, l.TrainEF.Len())
	assert.Equal(t, 732, l.TrainEFCloseness.Len())
	assert.Equal(t, 732, l.TrainLSTMEF.Len())
	assert.Equal(t, 100, l.TestEF.Len())
	assert.Equal(t, 100, l.TestEFCloseness.Len())
	assert.Equal(t, 100, l.TestLSTMEF.Len())

	// two graphs stacked into one Laplacian array
	require.Equal(t, []int{2, 5, 5}, l.LM.Shape())
	assert.Len(t, l.AM, 2)

	feed := l.Feed(true)
	assert.Contains(t, feed, "closeness_feature")
	assert.Contains(t, feed, "target")
	assert.Contains(t, feed, "laplace_matrix")
}

func TestInactiveNodesExcluded(t *testing.T) {
	ds := sinusoidalDataset(480, 3)
	// silence node 1 entirely
	for slot := 0; slot < 480; slot++ {
		ds.NodeTraffic.Set(0, slot, 1)
	}

	cfg := DefaultConfig()
	cfg.ClosenessLen = 2
	cfg.PeriodLen = 1
	cfg.TrendLen = 0
	cfg.Graph = "Distance"
	cfg.ExternalUse = ""

	l, err := New(ds, cfg)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2}, l.TrafficDataIndex)
	assert.Equal(t, 2, l.StationNumber)
	assert.Equal(t, len(l.TrafficDataIndex), l.StationNumber)
	// graphs are re-indexed to the kept-node set
	require.Equal(t, []int{1, 2, 2}, l.LM.Shape())
}

func TestWindowValuesUnnormalized(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClosenessLen = 2
	cfg.PeriodLen = 1
	cfg.TrendLen = 0
	cfg.TestRatio = 0.2
	cfg.Normalize = false
	cfg.WithLM = false
	cfg.ExternalUse = ""

	l, err := New(linearDataset(240, 2), cfg)
	require.NoError(t, err)

	// train has 192 slots, lookback max(2, 24) = 24
	require.Equal(t, 168, l.TrainY.Len())
	for _, sample := range []int{0, 50, 167} {
		current := 24 + sample
		assert.Equal(t, float64(current), l.TrainY.At(sample, 0, 0))
		assert.Equal(t, float64(current-2), l.TrainCloseness.At(sample, 0, 0, 0))
		assert.Equal(t, float64(current-1), l.TrainCloseness.At(sample, 1, 1, 0))
		assert.Equal(t, float64(current-24), l.TrainPeriod.At(sample, 0, 0, 0))
	}

	// test samples start exactly at the first test-designated slot
	assert.Equal(t, 48, l.TestY.Len())
	assert.Equal(t, 192.0, l.TestY.At(0, 0, 0))
}

func TestMakeConcatOrdering(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClosenessLen = 2
	cfg.PeriodLen = 1
	cfg.TrendLen = 0
	cfg.TestRatio = 0.2
	cfg.Normalize = false
	cfg.WithLM = false
	cfg.ExternalUse = ""

	l, err := New(linearDataset(240, 2), cfg)
	require.NoError(t, err)

	history, err := l.MakeConcat(true)
	require.NoError(t, err)
	require.Equal(t, []int{168, 2, 3, 1}, history.Shape())

	// closeness earliest -> latest, then period
	current := 24.0
	assert.Equal(t, current-2, history.At(0, 0, 0, 0))
	assert.Equal(t, current-1, history.At(0, 0, 1, 0))
	assert.Equal(t, current-24, history.At(0, 0, 2, 0))
}

func TestTimePositionEmbedding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClosenessLen = 3
	cfg.PeriodLen = 2
	cfg.TrendLen = 0
	cfg.TestRatio = 0.2
	cfg.Normalize = false
	cfg.WithLM = false
	cfg.WithTPE = true
	cfg.ExternalUse = ""

	l, err := New(linearDataset(240, 2), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, l.TPEDim)

	// windows gain one trailing embedding channel
	require.Equal(t, 2, l.TrainCloseness.Dim(3))
	assert.Equal(t, 1.0, l.TrainCloseness.At(0, 0, 0, 1))
	assert.Equal(t, 3.0, l.TrainCloseness.At(0, 1, 2, 1))
	assert.Equal(t, 24.0, l.TrainPeriod.At(0, 0, 0, 1))
	assert.Equal(t, 48.0, l.TrainPeriod.At(0, 0, 1, 1))

	// the flat-history helper still reads the data channel
	history, err := l.MakeConcat(true)
	require.NoError(t, err)
	require.Equal(t, []int{144, 2, 5, 1}, history.Shape())
	// sample 0 predicts slot 48, so its second closeness value is slot 46
	assert.Equal(t, 46.0, history.At(0, 0, 1, 0))
}

func TestConfigValidation(t *testing.T) {
	var cfgErr *errs.ConfigError
	ds := sinusoidalDataset(480, 2)

	cfg := DefaultConfig()
	cfg.TestRatio = 1.5
	_, err := New(ds, cfg)
	require.ErrorAs(t, err, &cfgErr)

	cfg = DefaultConfig()
	cfg.ClosenessLen, cfg.PeriodLen, cfg.TrendLen = 0, 0, 0
	_, err = New(ds, cfg)
	require.ErrorAs(t, err, &cfgErr)

	cfg = DefaultConfig()
	cfg.TargetLength = 2
	_, err = New(ds, cfg)
	require.ErrorAs(t, err, &cfgErr)

	cfg = DefaultConfig()
	cfg.DataRange = "nonsense"
	_, err = New(ds, cfg)
	require.ErrorAs(t, err, &cfgErr)
}

func TestMissingPOIRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClosenessLen = 2
	cfg.PeriodLen = 1
	cfg.TrendLen = 0
	cfg.WithLM = false
	cfg.ExternalUse = "poi"

	var dataErr *errs.DataError
	_, err := New(sinusoidalDataset(480, 2), cfg)
	require.ErrorAs(t, err, &dataErr)
}

func TestTrainTooShortForLookback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrendLen = 4 // 672-slot lookback
	cfg.WithLM = false
	cfg.ExternalUse = ""

	var dataErr *errs.DataError
	_, err := New(sinusoidalDataset(480, 2), cfg)
	require.ErrorAs(t, err, &dataErr)
}

func TestDataRangeSelection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataRange = "0-10" // first 10 days
	cfg.ClosenessLen = 2
	cfg.PeriodLen = 1
	cfg.TrendLen = 0
	cfg.TestRatio = 0.2
	cfg.Normalize = false
	cfg.WithLM = false
	cfg.ExternalUse = ""

	l, err := New(linearDataset(480, 1), cfg)
	require.NoError(t, err)
	// 240 selected slots, 192 train, lookback 24
	assert.Equal(t, 168, l.TrainY.Len())
}
