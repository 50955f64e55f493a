// Package loader orchestrates the data preparation pipeline: node
// filtering, train/test splitting, normalization, window sampling for
// traffic and external features, and graph construction. A loader is
// built once from immutable configuration and never mutated afterwards.
package loader

import (
	"log"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/transitlab/traffic-prep-go/internal/dataset"
	"github.com/transitlab/traffic-prep-go/internal/errs"
	"github.com/transitlab/traffic-prep-go/internal/feature"
	"github.com/transitlab/traffic-prep-go/internal/graph"
	"github.com/transitlab/traffic-prep-go/internal/preprocess"
	"github.com/transitlab/traffic-prep-go/internal/tensor"
)

// NodeTrafficLoader exposes the prepared arrays of one dataset under one
// configuration. All tensors are owned by the loader; callers must not
// mutate them.
type NodeTrafficLoader struct {
	Dataset *dataset.DataSet
	Config  Config

	DailySlots       float64
	TrafficDataIndex []int
	StationNumber    int

	TrainData *tensor.Tensor // [trainSlots, stations], normalized when configured
	TestData  *tensor.Tensor // [lookback+testSlots, stations]

	Normalizer *preprocess.Normalizer

	TrainCloseness *tensor.Tensor // [n, stations, closenessLen, 1(+tpe)]
	TrainPeriod    *tensor.Tensor
	TrainTrend     *tensor.Tensor
	TrainY         *tensor.Tensor // [n, stations, 1]
	TestCloseness  *tensor.Tensor
	TestPeriod     *tensor.Tensor
	TestTrend      *tensor.Tensor
	TestY          *tensor.Tensor

	TrainSeqLen int
	TestSeqLen  int

	ExternalDim    int
	ExternalBlocks []feature.Block // name/width records, registration order

	TrainEF *tensor.Tensor // [trainSeqLen, externalDim], current-slot external features
	TestEF  *tensor.Tensor

	TrainEFCloseness *tensor.Tensor // [trainSeqLen, externalDim, closenessLen, 1]
	TrainEFPeriod    *tensor.Tensor
	TrainEFTrend     *tensor.Tensor
	TestEFCloseness  *tensor.Tensor
	TestEFPeriod     *tensor.Tensor
	TestEFTrend      *tensor.Tensor

	TrainLSTMEF *tensor.Tensor // [trainSeqLen, externalDim, externalLSTMLen, 1]
	TestLSTMEF  *tensor.Tensor

	POIFeatureTrain *tensor.Tensor // [trainSeqLen, stations, poiDim] or nil
	POIFeatureTest  *tensor.Tensor
	POIDim          int

	TPEDim int // trailing embedding channels appended to each window, 0 when disabled

	AM []*mat.Dense   // adjacency matrices of the dynamic graphs, build order
	LM *tensor.Tensor // [numGraphs, stations, stations] stacked Laplacians
}

// New builds a loader. All validation happens here; no partially built
// loader is ever returned.
func New(ds *dataset.DataSet, cfg Config) (*NodeTrafficLoader, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, errs.Data("dataset", "nil dataset")
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if err := ds.FilterServiceHours(); err != nil {
		return nil, err
	}

	l := &NodeTrafficLoader{
		Dataset:    ds,
		Config:     cfg,
		DailySlots: ds.DailySlots(),
	}

	lo, hi, err := cfg.dataRange(ds.NodeTraffic.Len(), l.DailySlots)
	if err != nil {
		return nil, err
	}

	if err := l.selectNodes(lo, hi); err != nil {
		return nil, err
	}
	reg, err := l.assembleExternal(lo, hi)
	if err != nil {
		return nil, err
	}
	if err := l.splitAndNormalize(reg); err != nil {
		return nil, err
	}
	if err := l.windowTraffic(); err != nil {
		return nil, err
	}
	if err := l.attachPOI(); err != nil {
		return nil, err
	}
	if err := l.windowExternal(); err != nil {
		return nil, err
	}
	if cfg.WithTPE {
		l.attachTPE()
	}
	if cfg.WithLM {
		if err := l.buildGraphs(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *NodeTrafficLoader) selectNodes(lo, hi int) error {
	raw := l.Dataset.NodeTraffic
	T := raw.Len()
	rawNodes := raw.Dim(1)

	// Keep nodes whose average daily volume exceeds one trip.
	var index []int
	for j := 0; j < rawNodes; j++ {
		sum := 0.0
		for t := 0; t < T; t++ {
			sum += raw.At(t, j)
		}
		if sum/float64(T)*l.DailySlots > 1 {
			index = append(index, j)
		}
	}
	if len(index) == 0 {
		return errs.Data("node_traffic", "no active nodes after activity filtering")
	}
	l.TrafficDataIndex = index
	l.StationNumber = len(index)

	data := tensor.New(hi-lo, len(index))
	for t := lo; t < hi; t++ {
		for j, oj := range index {
			data.Set(raw.At(t, oj), t-lo, j)
		}
	}
	l.TrainData = data // holds the full filtered series until split
	return nil
}

// assembleExternal builds the ordered external feature registry over
// slots [lo, hi): weather, then holiday, then temporal position.
func (l *NodeTrafficLoader) assembleExternal(lo, hi int) (*feature.Registry, error) {
	cfg := l.Config
	reg := feature.NewRegistry(hi - lo)
	clock := l.Dataset.Clock()

	if cfg.useExternal("weather") && l.Dataset.Weather != nil {
		log.Printf("using weather feature: %v", l.Dataset.Weather.Shape())
		if err := reg.Append("weather", l.Dataset.Weather.SliceRows(lo, hi)); err != nil {
			return nil, err
		}
	}
	if cfg.useExternal("holiday") {
		if err := reg.Append("holiday", feature.HolidayFeature(clock, lo, hi, cfg.Workday)); err != nil {
			return nil, err
		}
	}
	if cfg.useExternal("tp") {
		if err := reg.Append("hourofday", feature.HourOfDayFeature(clock, lo, hi)); err != nil {
			return nil, err
		}
		if err := reg.Append("dayofweek", feature.DayOfWeekFeature(clock, lo, hi)); err != nil {
			return nil, err
		}
	}

	l.ExternalBlocks = reg.Blocks()
	l.ExternalDim = reg.Dim()
	return reg, nil
}

// splitAndNormalize runs phases 4-7: split, normalize on train-only
// statistics, truncate train, and expand test backward by the maximum
// lookback so the windower can sample from the first test slot onward.
func (l *NodeTrafficLoader) splitAndNormalize(reg *feature.Registry) error {
	cfg := l.Config
	ratios := []float64{1 - cfg.TestRatio, cfg.TestRatio}

	train, test, err := preprocess.SplitTrainTest(l.TrainData, cfg.TestRatio)
	if err != nil {
		return err
	}

	var trainEF, testEF *tensor.Tensor
	if !reg.Empty() {
		ef := reg.Concat()
		if ef.Len() != l.TrainData.Len() {
			return errs.Shape("external features", []int{l.TrainData.Len(), l.ExternalDim}, ef.Shape())
		}
		parts, err := preprocess.SplitData(ef, ratios)
		if err != nil {
			return err
		}
		trainEF, testEF = parts[0], parts[1]
	}

	if cfg.Normalize {
		l.Normalizer, err = preprocess.FitNormalizer(train)
		if err != nil {
			return err
		}
		if train, err = l.Normalizer.MinMaxNormal(train); err != nil {
			return err
		}
		if test, err = l.Normalizer.MinMaxNormal(test); err != nil {
			return err
		}
	}

	if slots, err := cfg.trainLength(l.DailySlots); err != nil {
		return err
	} else if slots > 0 && slots < train.Len() {
		train = train.SliceRows(train.Len()-slots, train.Len())
		if trainEF != nil {
			trainEF = trainEF.SliceRows(trainEF.Len()-slots, trainEF.Len())
		}
	}

	// Borrow the trailing lookback rows of train so the first
	// test-designated slot can already form a full sample. This is
	// history borrowing, not label leakage.
	lookback := l.maxLookback()
	if lookback > train.Len() {
		return errs.Data("train partition", "too short for lookback %d (have %d slots)", lookback, train.Len())
	}
	test = tensor.VStack(train.SliceRows(train.Len()-lookback, train.Len()), test)
	if trainEF != nil {
		testEF = tensor.VStack(trainEF.SliceRows(trainEF.Len()-lookback, trainEF.Len()), testEF)
	}

	l.TrainData, l.TestData = train, test
	l.TrainEF, l.TestEF = trainEF, testEF
	return nil
}

func (l *NodeTrafficLoader) maxLookback() int {
	cfg := l.Config
	daily := int(l.DailySlots)
	lookback := cfg.ClosenessLen
	if p := cfg.PeriodLen * daily; p > lookback {
		lookback = p
	}
	if t := cfg.TrendLen * 7 * daily; t > lookback {
		lookback = t
	}
	return lookback
}

func (l *NodeTrafficLoader) windowTraffic() error {
	cfg := l.Config
	sampler, err := preprocess.NewSTMoveSample(cfg.ClosenessLen, cfg.PeriodLen, cfg.TrendLen,
		cfg.TargetLength, int(l.DailySlots))
	if err != nil {
		return err
	}

	if l.TrainCloseness, l.TrainPeriod, l.TrainTrend, l.TrainY, err = sampler.MoveSample(l.TrainData); err != nil {
		return err
	}
	if l.TestCloseness, l.TestPeriod, l.TestTrend, l.TestY, err = sampler.MoveSample(l.TestData); err != nil {
		return err
	}

	l.TrainSeqLen = maxLen(l.TrainCloseness, l.TrainPeriod, l.TrainTrend)
	l.TestSeqLen = maxLen(l.TestCloseness, l.TestPeriod, l.TestTrend)
	return nil
}

func maxLen(ts ...*tensor.Tensor) int {
	m := 0
	for _, t := range ts {
		if t.Len() > m {
			m = t.Len()
		}
	}
	return m
}

func (l *NodeTrafficLoader) attachPOI() error {
	cfg := l.Config
	if !cfg.useExternal("poi") {
		return nil
	}
	poi, ok := l.Dataset.POI[cfg.POIDistance]
	if !ok {
		return errs.Data("poi", "no POI features for distance %d in dataset %s", cfg.POIDistance, l.Dataset.Name)
	}

	kept := tensor.New(l.StationNumber, poi.Dim(1))
	for i, oi := range l.TrafficDataIndex {
		if oi >= poi.Len() {
			return errs.Shape("poi", []int{l.Dataset.NodeTraffic.Dim(1), poi.Dim(1)}, poi.Shape())
		}
		for d := 0; d < poi.Dim(1); d++ {
			kept.Set(poi.At(oi, d), i, d)
		}
	}
	l.POIDim = poi.Dim(1)
	l.POIFeatureTrain = tensor.TileLeading(kept, l.TrainSeqLen)
	l.POIFeatureTest = tensor.TileLeading(kept, l.TestSeqLen)
	return nil
}

// windowExternal samples the external feature matrix twice: once with the
// traffic window configuration (no target) and once closeness-only for
// the recent-history channel, then re-slices every output back to the
// traffic-derived sequence length.
func (l *NodeTrafficLoader) windowExternal() error {
	if l.TrainEF == nil {
		return nil
	}
	cfg := l.Config

	sampler, err := preprocess.NewSTMoveSample(cfg.ClosenessLen, cfg.PeriodLen, cfg.TrendLen,
		0, int(l.DailySlots))
	if err != nil {
		return err
	}
	if l.TrainEFCloseness, l.TrainEFPeriod, l.TrainEFTrend, _, err = sampler.MoveSample(l.TrainEF); err != nil {
		return err
	}
	if l.TestEFCloseness, l.TestEFPeriod, l.TestEFTrend, _, err = sampler.MoveSample(l.TestEF); err != nil {
		return err
	}

	if cfg.ExternalLSTMLen > 0 {
		recent, err := preprocess.NewSTMoveSample(cfg.ExternalLSTMLen, 0, 0, 0, int(l.DailySlots))
		if err != nil {
			return err
		}
		if l.TrainLSTMEF, _, _, _, err = recent.MoveSample(l.TrainEF); err != nil {
			return err
		}
		if l.TestLSTMEF, _, _, _, err = recent.MoveSample(l.TestEF); err != nil {
			return err
		}
	}

	trim := func(t *tensor.Tensor, seq int, context string) (*tensor.Tensor, error) {
		if t == nil || t.IsEmpty() {
			return t, nil
		}
		hi := t.Len() - cfg.TargetLength
		lo := hi - seq
		if lo < 0 {
			return nil, errs.Shape(context, []int{seq + cfg.TargetLength, -1}, t.Shape())
		}
		return t.SliceRows(lo, hi), nil
	}

	type job struct {
		t       **tensor.Tensor
		seq     int
		context string
	}
	jobs := []job{
		{&l.TrainEF, l.TrainSeqLen, "train external feature"},
		{&l.TestEF, l.TestSeqLen, "test external feature"},
		{&l.TrainEFCloseness, l.TrainSeqLen, "train external closeness"},
		{&l.TrainEFPeriod, l.TrainSeqLen, "train external period"},
		{&l.TrainEFTrend, l.TrainSeqLen, "train external trend"},
		{&l.TestEFCloseness, l.TestSeqLen, "test external closeness"},
		{&l.TestEFPeriod, l.TestSeqLen, "test external period"},
		{&l.TestEFTrend, l.TestSeqLen, "test external trend"},
		{&l.TrainLSTMEF, l.TrainSeqLen, "train recent external history"},
		{&l.TestLSTMEF, l.TestSeqLen, "test recent external history"},
	}
	for _, j := range jobs {
		out, err := trim(*j.t, j.seq, j.context)
		if err != nil {
			return err
		}
		*j.t = out
	}
	return nil
}

// attachTPE concatenates integer slot-offset embeddings as one extra
// trailing channel of every window array.
func (l *NodeTrafficLoader) attachTPE() {
	cfg := l.Config
	daily := int(l.DailySlots)

	positions := func(length, stride int) []float64 {
		out := make([]float64, length)
		for i := range out {
			out[i] = float64((i + 1) * stride)
		}
		return out
	}

	attach := func(window *tensor.Tensor, pos []float64) *tensor.Tensor {
		if window.IsEmpty() || len(pos) == 0 {
			return window
		}
		base := tensor.FromData(append([]float64(nil), pos...), len(pos), 1)
		tiled := tensor.TileLeading(tensor.TileLeading(base, l.StationNumber), window.Len())
		return tensor.ConcatLast(window, tiled)
	}

	closenessPos := positions(cfg.ClosenessLen, 1)
	periodPos := positions(cfg.PeriodLen, daily)
	trendPos := positions(cfg.TrendLen, 7*daily)

	l.TrainCloseness = attach(l.TrainCloseness, closenessPos)
	l.TrainPeriod = attach(l.TrainPeriod, periodPos)
	l.TrainTrend = attach(l.TrainTrend, trendPos)
	l.TestCloseness = attach(l.TestCloseness, closenessPos)
	l.TestPeriod = attach(l.TestPeriod, periodPos)
	l.TestTrend = attach(l.TestTrend, trendPos)
	l.TPEDim = 1
}

// buildGraphs constructs every requested graph and stacks the Laplacians.
func (l *NodeTrafficLoader) buildGraphs() error {
	cfg := l.Config
	var laplacians []*tensor.Tensor

	for _, name := range cfg.graphNames() {
		am, lm, err := l.buildGraph(name)
		if err != nil {
			return err
		}
		if am != nil {
			l.AM = append(l.AM, am)
		}
		if lm == nil {
			continue
		}
		r, c := lm.Dims()
		if r != l.StationNumber || c != l.StationNumber {
			return errs.Shape("graph "+name, []int{l.StationNumber, l.StationNumber}, []int{r, c})
		}
		laplacians = append(laplacians, tensor.FromDense(lm))
	}
	l.LM = tensor.Stack(laplacians)
	return nil
}

// buildGraph builds a single named graph over the kept-node set.
func (l *NodeTrafficLoader) buildGraph(name string) (*mat.Dense, *mat.Dense, error) {
	switch strings.ToLower(name) {
	case "distance":
		if len(l.Dataset.Stations) == 0 {
			return nil, nil, errs.Data("stations", "distance graph requires station coordinates")
		}
		coords := make([]graph.LatLng, len(l.TrafficDataIndex))
		for i, oi := range l.TrafficDataIndex {
			coords[i] = graph.LatLng{Lat: l.Dataset.Stations[oi].Lat, Lng: l.Dataset.Stations[oi].Lng}
		}
		am := graph.DistanceAdjacent(coords, l.Config.ThresholdDistance)
		lm, err := graph.AdjacentToLaplacian(am)
		return am, lm, err

	case "correlation":
		window := int(30 * l.DailySlots)
		series := l.TrainData
		if series.Len() > window {
			series = series.SliceRows(series.Len()-window, series.Len())
		}
		am, err := graph.CorrelationAdjacent(series, l.Config.ThresholdCorrelation)
		if err != nil {
			return nil, nil, err
		}
		lm, err := graph.AdjacentToLaplacian(am)
		return am, lm, err

	case "interaction":
		if l.Dataset.MonthlyInteraction == nil {
			return nil, nil, errs.Data("node_monthly_interaction", "interaction graph requires monthly interaction counts")
		}
		annual, err := l.annualInteraction()
		if err != nil {
			return nil, nil, err
		}
		am, err := graph.InteractionAdjacent(annual, l.Config.ThresholdInteraction)
		if err != nil {
			return nil, nil, err
		}
		lm, err := graph.AdjacentToLaplacian(am)
		return am, lm, err

	case "neighbor":
		if l.Dataset.GraphNeighbors == nil {
			return nil, nil, errs.Data("graph_neighbors", "neighbor graph not present in dataset")
		}
		lm, err := graph.AdjacentToLaplacian(l.Dataset.GraphNeighbors)
		return nil, lm, err

	case "line":
		if l.Dataset.GraphLines == nil {
			return nil, nil, errs.Data("graph_lines", "line graph not present in dataset")
		}
		lm, err := graph.AdjacentToLaplacian(graph.Reindex(l.Dataset.GraphLines, l.TrafficDataIndex))
		return nil, lm, err

	case "transfer":
		if l.Dataset.GraphTransfer == nil {
			return nil, nil, errs.Data("graph_transfer", "transfer graph not present in dataset")
		}
		lm, err := graph.AdjacentToLaplacian(l.Dataset.GraphTransfer)
		return nil, lm, err

	case "":
		return nil, nil, nil
	default:
		return nil, nil, errs.Config("graph", "unknown graph %q", name)
	}
}

// annualInteraction restricts the monthly interaction counts to the kept
// nodes and the train partition, then sums the latest 12 months.
func (l *NodeTrafficLoader) annualInteraction() (*mat.Dense, error) {
	mi := l.Dataset.MonthlyInteraction
	months := mi.Len()
	n := l.StationNumber

	kept := tensor.New(months, n, n)
	for m := 0; m < months; m++ {
		for i, oi := range l.TrafficDataIndex {
			for j, oj := range l.TrafficDataIndex {
				kept.Set(mi.At(m, oi, oj), m, i, j)
			}
		}
	}

	parts, err := preprocess.SplitData(kept, []float64{1 - l.Config.TestRatio, l.Config.TestRatio})
	if err != nil {
		return nil, err
	}
	trainMonths := parts[0]

	lo := trainMonths.Len() - 12
	if lo < 0 {
		lo = 0
	}
	annual := mat.NewDense(n, n, nil)
	for m := lo; m < trainMonths.Len(); m++ {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				annual.Set(i, j, annual.At(i, j)+trainMonths.At(m, i, j))
			}
		}
	}
	return annual, nil
}
