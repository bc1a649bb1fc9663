package toxmodel

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// prepareFeatures turns a raw input map into a vector aligned with the
// artifact's encoded column order. Numeric inputs are coerced and filled
// with training medians when absent; categorical inputs select their one-hot
// column ("Solvent" = "Water" lights up "Solvent_Water"). Encoded columns
// with no matching input stay zero, matching how unseen categories were
// handled at training time.
func prepareFeatures(input map[string]any, artifact *Artifact) []float64 {
	values := make(map[string]float64, len(artifact.FeatureColumns))
	for _, col := range artifact.NumCols {
		v, ok := coerceNumber(input[col])
		if !ok {
			v = artifact.NumericMedians[col]
		}
		values[col] = v
	}
	for _, col := range artifact.CategoricalCols {
		raw, ok := input[col]
		if !ok {
			continue
		}
		category := strings.TrimSpace(fmt.Sprintf("%v", raw))
		if category == "" {
			continue
		}
		values[col+"_"+category] = 1
	}

	vector := make([]float64, len(artifact.FeatureColumns))
	for i, col := range artifact.FeatureColumns {
		vector[i] = values[col]
	}
	return vector
}

func coerceNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
