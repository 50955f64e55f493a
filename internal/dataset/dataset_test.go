package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitlab/traffic-prep-go/internal/tensor"
)

func fullDayDataset(days int) *DataSet {
	T := days * 24
	traffic := tensor.New(T, 2)
	for t := 0; t < T; t++ {
		traffic.Set(float64(t), t, 0)
		traffic.Set(float64(t)*2, t, 1)
	}
	return &DataSet{
		Name:        "toy",
		City:        "testville",
		TimeFitness: 60,
		TimeStart:   time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC),
		NodeTraffic: traffic,
	}
}

func TestDailySlots(t *testing.T) {
	ds := fullDayDataset(2)
	assert.Equal(t, 24.0, ds.DailySlots())

	ds.Hours = &ServiceHours{StartHour: 5, EndHour: 23}
	assert.Equal(t, 18.0, ds.DailySlots())
}

func TestClockUniform(t *testing.T) {
	ds := fullDayDataset(2)
	clock := ds.Clock()
	assert.Equal(t, 0, clock(0).Hour())
	assert.Equal(t, 5, clock(29).Hour())
	assert.Equal(t, 2, clock(26).Day())
}

func TestFilterServiceHours(t *testing.T) {
	ds := fullDayDataset(3)
	ds.Hours = &ServiceHours{StartHour: 5, EndHour: 23}
	require.NoError(t, ds.FilterServiceHours())

	// 18 in-service slots per day remain
	assert.Equal(t, 3*18, ds.NodeTraffic.Len())
	// the first kept slot is 05:00 of day one
	assert.Equal(t, 5.0, ds.NodeTraffic.At(0, 0))

	// the filtered clock skips out-of-service hours
	clock := ds.Clock()
	assert.Equal(t, 5, clock(0).Hour())
	assert.Equal(t, 22, clock(17).Hour())
	assert.Equal(t, 5, clock(18).Hour())
	assert.Equal(t, 2, clock(18).Day())

	// filtering twice is a no-op
	require.NoError(t, ds.FilterServiceHours())
	assert.Equal(t, 3*18, ds.NodeTraffic.Len())
}

func TestValidate(t *testing.T) {
	ds := fullDayDataset(1)
	require.NoError(t, ds.Validate())

	ds.Stations = []Station{{ID: 0}}
	assert.Error(t, ds.Validate(), "station count must match traffic columns")

	ds = fullDayDataset(1)
	ds.Weather = tensor.New(5, 2)
	assert.Error(t, ds.Validate(), "weather must cover every slot")

	ds = fullDayDataset(1)
	ds.TimeFitness = 0
	assert.Error(t, ds.Validate())
}
