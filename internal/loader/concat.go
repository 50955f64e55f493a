package loader

import (
	"github.com/transitlab/traffic-prep-go/internal/errs"
	"github.com/transitlab/traffic-prep-go/internal/tensor"
)

// MakeConcat flattens closeness, period and trend into one trailing
// history axis per node per step, for consumers that want a single flat
// history vector. The result has shape
// [seqLen, stations, closenessLen+periodLen+trendLen, 1]; entries are
// ordered earliest-to-latest within each sub-window, closeness before
// period before trend. Only the data channel is taken, never the
// time-position embedding channel.
func (l *NodeTrafficLoader) MakeConcat(train bool) (*tensor.Tensor, error) {
	cfg := l.Config
	var length int
	var closeness, period, trend *tensor.Tensor
	if train {
		length = l.TrainY.Len()
		closeness, period, trend = l.TrainCloseness, l.TrainPeriod, l.TrainTrend
	} else {
		length = l.TestY.Len()
		closeness, period, trend = l.TestCloseness, l.TestPeriod, l.TestTrend
	}

	total := cfg.ClosenessLen + cfg.PeriodLen + cfg.TrendLen
	out := tensor.New(length, l.StationNumber, total, 1)

	copyWindow := func(window *tensor.Tensor, windowLen, offset int, name string) error {
		if windowLen == 0 {
			return nil
		}
		if window.IsEmpty() || window.Len() != length {
			return errs.Shape("make_concat "+name, []int{length, l.StationNumber, windowLen, -1}, window.Shape())
		}
		for s := 0; s < length; s++ {
			for node := 0; node < l.StationNumber; node++ {
				for w := 0; w < windowLen; w++ {
					out.Set(window.At(s, node, w, 0), s, node, offset+w, 0)
				}
			}
		}
		return nil
	}

	if err := copyWindow(closeness, cfg.ClosenessLen, 0, "closeness"); err != nil {
		return nil, err
	}
	if err := copyWindow(period, cfg.PeriodLen, cfg.ClosenessLen, "period"); err != nil {
		return nil, err
	}
	if err := copyWindow(trend, cfg.TrendLen, cfg.ClosenessLen+cfg.PeriodLen, "trend"); err != nil {
		return nil, err
	}
	return out, nil
}
