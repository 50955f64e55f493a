package service

import (
	"fmt"
	"sync"

	"github.com/transitlab/traffic-prep-go/internal/loader"
	"github.com/transitlab/traffic-prep-go/internal/models"
)

// LoaderService builds loaders and keeps them addressable by ID.
type LoaderService struct {
	datasets *DatasetService
	presets  map[string]loader.Config

	mu      sync.Mutex
	nextID  int
	loaders map[string]*builtLoader
}

type builtLoader struct {
	dataset string
	loader  *loader.NodeTrafficLoader
}

// NewLoaderService creates a new loader service
func NewLoaderService(datasets *DatasetService, presets map[string]loader.Config) *LoaderService {
	return &LoaderService{
		datasets: datasets,
		presets:  presets,
		nextID:   1,
		loaders:  make(map[string]*builtLoader),
	}
}

// Build constructs a loader from the request and registers it.
func (s *LoaderService) Build(req *models.BuildLoaderRequest) (*models.LoaderSummary, error) {
	cfg := loader.DefaultConfig()
	if req.Preset != "" {
		preset, ok := s.presets[req.Preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset %q", req.Preset)
		}
		cfg = preset
	}
	if req.Config != nil {
		cfg = *req.Config
	}

	ds, err := s.datasets.Get(req.Dataset)
	if err != nil {
		return nil, err
	}
	l, err := loader.New(ds, cfg)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	id := fmt.Sprintf("%d", s.nextID)
	s.nextID++
	s.loaders[id] = &builtLoader{dataset: req.Dataset, loader: l}
	s.mu.Unlock()

	return s.summary(id, req.Dataset, l), nil
}

// Get returns a previously built loader.
func (s *LoaderService) Get(id string) (*loader.NodeTrafficLoader, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.loaders[id]
	if !ok {
		return nil, "", fmt.Errorf("no loader with id %q", id)
	}
	return b.loader, b.dataset, nil
}

// Summary returns the summary of a previously built loader.
func (s *LoaderService) Summary(id string) (*models.LoaderSummary, error) {
	l, ds, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return s.summary(id, ds, l), nil
}

// Graphs exports the stacked Laplacians of a loader.
func (s *LoaderService) Graphs(id string) ([]models.GraphMatrix, error) {
	l, _, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if l.LM == nil || l.LM.IsEmpty() {
		return nil, nil
	}

	names := graphNamesOf(l)
	n := l.StationNumber
	out := make([]models.GraphMatrix, 0, l.LM.Len())
	for g := 0; g < l.LM.Len(); g++ {
		values := make([][]float64, n)
		for i := 0; i < n; i++ {
			values[i] = make([]float64, n)
			for j := 0; j < n; j++ {
				values[i][j] = l.LM.At(g, i, j)
			}
		}
		name := fmt.Sprintf("graph_%d", g)
		if g < len(names) {
			name = names[g]
		}
		out = append(out, models.GraphMatrix{Name: name, Shape: []int{n, n}, Values: values})
	}
	return out, nil
}

func graphNamesOf(l *loader.NodeTrafficLoader) []string {
	var names []string
	for _, g := range l.Config.GraphNames() {
		if g != "" {
			names = append(names, g)
		}
	}
	return names
}

func (s *LoaderService) summary(id, dsName string, l *loader.NodeTrafficLoader) *models.LoaderSummary {
	blocks := make([]models.BlockInfo, 0, len(l.ExternalBlocks))
	for _, b := range l.ExternalBlocks {
		blocks = append(blocks, models.BlockInfo{Name: b.Name, Width: b.Width})
	}

	shapes := func(train bool) map[string][]int {
		out := map[string][]int{}
		for name, t := range l.Feed(train) {
			out[name] = t.Shape()
		}
		return out
	}

	return &models.LoaderSummary{
		ID:            id,
		Dataset:       dsName,
		StationNumber: l.StationNumber,
		DailySlots:    l.DailySlots,
		TrainSeqLen:   l.TrainSeqLen,
		TestSeqLen:    l.TestSeqLen,
		ExternalDim:   l.ExternalDim,
		Blocks:        blocks,
		POIDim:        l.POIDim,
		TPEDim:        l.TPEDim,
		Graphs:        graphNamesOf(l),
		TrainShapes:   shapes(true),
		TestShapes:    shapes(false),
	}
}
