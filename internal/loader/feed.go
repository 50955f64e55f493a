package loader

import "github.com/transitlab/traffic-prep-go/internal/tensor"

// Feed returns the prepared arrays keyed by the fixed names the model
// builder consumes. Entries for disabled features are omitted.
func (l *NodeTrafficLoader) Feed(train bool) map[string]*tensor.Tensor {
	feed := map[string]*tensor.Tensor{}

	put := func(name string, t *tensor.Tensor) {
		if t != nil && !t.IsEmpty() {
			feed[name] = t
		}
	}

	if train {
		put("closeness_feature", l.TrainCloseness)
		put("period_feature", l.TrainPeriod)
		put("trend_feature", l.TrainTrend)
		put("target", l.TrainY)
		put("external_feature", l.TrainEF)
		put("weather_feature", l.TrainLSTMEF)
		put("poi_feature", l.POIFeatureTrain)
	} else {
		put("closeness_feature", l.TestCloseness)
		put("period_feature", l.TestPeriod)
		put("trend_feature", l.TestTrend)
		put("target", l.TestY)
		put("external_feature", l.TestEF)
		put("weather_feature", l.TestLSTMEF)
		put("poi_feature", l.POIFeatureTest)
	}
	put("laplace_matrix", l.LM)
	return feed
}
