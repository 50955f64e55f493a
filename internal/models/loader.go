// Package models defines the API data transfer objects.
package models

import "github.com/transitlab/traffic-prep-go/internal/loader"

// DatasetInfo summarizes one dataset file.
type DatasetInfo struct {
	Name           string   `json:"name"`
	City           string   `json:"city"`
	TimeFitness    float64  `json:"time_fitness"`
	TimeStart      string   `json:"time_start"`
	Slots          int      `json:"slots"`
	Nodes          int      `json:"nodes"`
	HasWeather     bool     `json:"has_weather"`
	HasInteraction bool     `json:"has_interaction"`
	StaticGraphs   []string `json:"static_graphs"`
	POIDistances   []int    `json:"poi_distances"`
	ServiceHours   string   `json:"service_hours,omitempty"`
}

// BlockInfo is one named external-feature block and its width.
type BlockInfo struct {
	Name  string `json:"name"`
	Width int    `json:"width"`
}

// LoaderSummary describes a built loader.
type LoaderSummary struct {
	ID            string           `json:"id"`
	Dataset       string           `json:"dataset"`
	StationNumber int              `json:"station_number"`
	DailySlots    float64          `json:"daily_slots"`
	TrainSeqLen   int              `json:"train_seq_len"`
	TestSeqLen    int              `json:"test_seq_len"`
	ExternalDim   int              `json:"external_dim"`
	Blocks        []BlockInfo      `json:"external_blocks"`
	POIDim        int              `json:"poi_dim"`
	TPEDim        int              `json:"tpe_dim"`
	Graphs        []string         `json:"graphs"`
	TrainShapes   map[string][]int `json:"train_shapes"`
	TestShapes    map[string][]int `json:"test_shapes"`
}

// BuildLoaderRequest asks the server to construct a loader for a dataset,
// either from a named preset or from an inline configuration. When both
// are absent the default configuration is used.
type BuildLoaderRequest struct {
	Dataset string         `json:"dataset" binding:"required"`
	Preset  string         `json:"preset"`
	Config  *loader.Config `json:"config"`
}

// GraphMatrix carries one Laplacian for export.
type GraphMatrix struct {
	Name   string      `json:"name"`
	Shape  []int       `json:"shape"`
	Values [][]float64 `json:"values"`
}
