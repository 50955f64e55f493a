package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/transitlab/traffic-prep-go/internal/dataset"
	"github.com/transitlab/traffic-prep-go/internal/models"
)

// DatasetService resolves dataset names to files under the data directory
// and caches opened datasets. Dataset files are immutable, so the cache
// never invalidates.
type DatasetService struct {
	dataDir string

	mu    sync.Mutex
	cache map[string]*dataset.DataSet
}

// NewDatasetService creates a new dataset service
func NewDatasetService(dataDir string) *DatasetService {
	return &DatasetService{
		dataDir: dataDir,
		cache:   make(map[string]*dataset.DataSet),
	}
}

// List returns the dataset names available in the data directory.
func (s *DatasetService) List() ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data dir %s: %w", s.dataDir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".db") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".db"))
	}
	sort.Strings(names)
	return names, nil
}

// Get opens (or returns the cached) dataset by name.
func (s *DatasetService) Get(name string) (*dataset.DataSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ds, ok := s.cache[name]; ok {
		return ds, nil
	}
	path := filepath.Join(s.dataDir, name+".db")
	ds, err := dataset.Open(path)
	if err != nil {
		return nil, err
	}
	s.cache[name] = ds
	return ds, nil
}

// Info summarizes a dataset for the API.
func (s *DatasetService) Info(name string) (*models.DatasetInfo, error) {
	ds, err := s.Get(name)
	if err != nil {
		return nil, err
	}

	info := &models.DatasetInfo{
		Name:           ds.Name,
		City:           ds.City,
		TimeFitness:    ds.TimeFitness,
		TimeStart:      ds.TimeStart.Format(time.RFC3339),
		Slots:          ds.NodeTraffic.Len(),
		Nodes:          ds.NodeTraffic.Dim(1),
		HasWeather:     ds.Weather != nil,
		HasInteraction: ds.MonthlyInteraction != nil,
	}
	if ds.GraphNeighbors != nil {
		info.StaticGraphs = append(info.StaticGraphs, "Neighbor")
	}
	if ds.GraphLines != nil {
		info.StaticGraphs = append(info.StaticGraphs, "Line")
	}
	if ds.GraphTransfer != nil {
		info.StaticGraphs = append(info.StaticGraphs, "Transfer")
	}
	for d := range ds.POI {
		info.POIDistances = append(info.POIDistances, d)
	}
	sort.Ints(info.POIDistances)
	if ds.Hours != nil {
		info.ServiceHours = fmt.Sprintf("%02d:00-%02d:00", ds.Hours.StartHour, ds.Hours.EndHour)
	}
	return info, nil
}
