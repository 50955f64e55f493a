// Package dataset holds the typed raw-dataset collaborator. A DataSet is
// read once from an SQLite dataset file and never mutated afterwards;
// optional fields are nil when the dataset does not provide them.
package dataset

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/transitlab/traffic-prep-go/internal/errs"
	"github.com/transitlab/traffic-prep-go/internal/tensor"
)

// Station describes one traffic node.
type Station struct {
	ID   int
	Name string
	Lat  float64
	Lng  float64
}

// ServiceHours restricts a dataset to a daily operating window
// [StartHour, EndHour). Slots outside service time carry no traffic and
// are dropped before any windowing.
type ServiceHours struct {
	StartHour int
	EndHour   int
}

// DataSet is the raw input of the preparation pipeline.
//
// Presence conditions: NodeTraffic, TimeFitness, TimeStart and Stations
// are always set. Weather is set iff the dataset ships weather records.
// MonthlyInteraction is set iff trip-interaction counts exist.
// GraphNeighbors/GraphLines/GraphTransfer are set iff the corresponding
// static topology exists. POI maps a distance threshold in meters to a
// [rawNodes, poiDim] matrix and may be empty. Hours is non-nil only for
// partial-service datasets.
type DataSet struct {
	Name string
	City string

	TimeFitness float64 // minutes per slot
	TimeStart   time.Time

	NodeTraffic *tensor.Tensor // [T, rawNodes]
	Stations    []Station

	Weather            *tensor.Tensor // [T, weatherDim] or nil
	MonthlyInteraction *tensor.Tensor // [months, rawNodes, rawNodes] or nil

	GraphNeighbors *mat.Dense
	GraphLines     *mat.Dense
	GraphTransfer  *mat.Dense

	POI map[int]*tensor.Tensor

	Hours *ServiceHours

	serviceFiltered bool
}

// DailySlots returns the number of usable slots per day, accounting for
// service hours when present.
func (d *DataSet) DailySlots() float64 {
	full := 24 * 60 / d.TimeFitness
	if d.Hours == nil {
		return full
	}
	return float64(d.Hours.EndHour-d.Hours.StartHour) * 60 / d.TimeFitness
}

// Clock maps slot indices of the (possibly service-filtered) series to
// wall-clock times.
func (d *DataSet) Clock() func(slot int) time.Time {
	if d.Hours == nil {
		return func(slot int) time.Time {
			return d.TimeStart.Add(time.Duration(float64(slot) * d.TimeFitness * float64(time.Minute)))
		}
	}
	perDay := int(d.DailySlots())
	return func(slot int) time.Time {
		day := slot / perDay
		within := slot % perDay
		minutes := float64(d.Hours.StartHour*60) + float64(within)*d.TimeFitness
		return d.TimeStart.AddDate(0, 0, day).Add(time.Duration(minutes * float64(time.Minute)))
	}
}

// FilterServiceHours drops out-of-service slots from NodeTraffic and
// Weather. It is a no-op for full-service datasets. Call once, before the
// loader consumes the series.
func (d *DataSet) FilterServiceHours() error {
	if d.Hours == nil || d.serviceFiltered {
		return nil
	}
	if d.Hours.StartHour < 0 || d.Hours.EndHour > 24 || d.Hours.StartHour >= d.Hours.EndHour {
		return errs.Config("service_hours", "invalid window [%d, %d)", d.Hours.StartHour, d.Hours.EndHour)
	}
	clock := func(slot int) time.Time {
		return d.TimeStart.Add(time.Duration(float64(slot) * d.TimeFitness * float64(time.Minute)))
	}

	keep := make([]int, 0, d.NodeTraffic.Len())
	for slot := 0; slot < d.NodeTraffic.Len(); slot++ {
		h := clock(slot).Hour()
		if h >= d.Hours.StartHour && h < d.Hours.EndHour {
			keep = append(keep, slot)
		}
	}

	if d.Weather != nil {
		if d.Weather.Len() != d.NodeTraffic.Len() {
			return errs.Shape("external_feature_weather", []int{d.NodeTraffic.Len(), -1}, d.Weather.Shape())
		}
		d.Weather = selectRows(d.Weather, keep)
	}
	d.NodeTraffic = selectRows(d.NodeTraffic, keep)
	d.serviceFiltered = true
	return nil
}

func selectRows(t *tensor.Tensor, rows []int) *tensor.Tensor {
	parts := make([]*tensor.Tensor, 0, len(rows))
	for _, r := range rows {
		parts = append(parts, t.SliceRows(r, r+1))
	}
	return tensor.VStack(parts...)
}

// Validate checks the invariants every loader relies on.
func (d *DataSet) Validate() error {
	if d.NodeTraffic == nil || d.NodeTraffic.IsEmpty() {
		return errs.Data("node_traffic", "missing or empty")
	}
	if d.NodeTraffic.NDim() != 2 {
		return errs.Shape("node_traffic", []int{-1, -1}, d.NodeTraffic.Shape())
	}
	if d.TimeFitness <= 0 {
		return errs.Config("time_fitness", "must be positive, got %v", d.TimeFitness)
	}
	if len(d.Stations) != 0 && len(d.Stations) != d.NodeTraffic.Dim(1) {
		return errs.Shape("stations", []int{d.NodeTraffic.Dim(1)}, []int{len(d.Stations)})
	}
	if d.Weather != nil && d.Weather.Len() != d.NodeTraffic.Len() {
		return errs.Shape("external_feature_weather", []int{d.NodeTraffic.Len(), -1}, d.Weather.Shape())
	}
	return nil
}
