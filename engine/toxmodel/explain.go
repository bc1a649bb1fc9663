package toxmodel

import (
	"fmt"
	"math"
	"sort"
)

// DefaultTopN bounds the feature list returned by explanations.
const DefaultTopN = 10

// Contribution is one encoded feature's share of the model output for a
// single sample, measured against the training-set mean of that feature.
type Contribution struct {
	Feature   string  `json:"feature"`
	Value     float64 `json:"value"`
	ShapValue float64 `json:"shap_value"`
	AbsShap   float64 `json:"abs_shap"`
	Impact    string  `json:"impact"`
}

// Explanation pairs a prediction with its per-feature attribution.
type Explanation struct {
	Prediction  Prediction
	BaseValue   float64
	TopFeatures []Contribution
	AllFeatures []Contribution
	Summary     string
}

// Explain scores one input and attributes the outcome across features. For a
// linear model the exact attribution of feature i is its coefficient times
// the sample's deviation from the feature mean; no sampling is involved.
func (a *Artifact) Explain(input map[string]any, topN int) Explanation {
	if topN <= 0 {
		topN = DefaultTopN
	}
	vector := prepareFeatures(input, a)
	prediction := a.score(vector)

	all := make([]Contribution, len(a.FeatureColumns))
	for i, col := range a.FeatureColumns {
		shap := a.Coefficients[col] * (vector[i] - a.FeatureMeans[col])
		impact := "decreases risk"
		if shap > 0 {
			impact = "increases risk"
		}
		all[i] = Contribution{
			Feature:   col,
			Value:     vector[i],
			ShapValue: shap,
			AbsShap:   math.Abs(shap),
			Impact:    impact,
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].AbsShap > all[j].AbsShap
	})
	if topN > len(all) {
		topN = len(all)
	}
	top := all[:topN]

	summary := ""
	if len(top) > 0 {
		summary = fmt.Sprintf(
			"The model predicts %s with %.1f%% confidence. The most important factor is %s (SHAP value: %.3f), which %s.",
			prediction.Label,
			prediction.Confidence*100,
			top[0].Feature,
			top[0].ShapValue,
			top[0].Impact,
		)
	}

	return Explanation{
		Prediction:  prediction,
		BaseValue:   a.BaseValue,
		TopFeatures: top,
		AllFeatures: all,
		Summary:     summary,
	}
}
