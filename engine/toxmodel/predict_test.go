package toxmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testArtifact() *Artifact {
	return &Artifact{
		FeatureColumns:  []string{"Dose", "Time", "Solvent_Water", "Solvent_Ethanol"},
		CategoricalCols: []string{"Solvent"},
		NumCols:         []string{"Dose", "Time"},
		NumericMedians:  map[string]float64{"Dose": 20, "Time": 24},
		FeatureMeans: map[string]float64{
			"Dose": 20, "Time": 24, "Solvent_Water": 0.5, "Solvent_Ethanol": 0.3,
		},
		Coefficients: map[string]float64{
			"Dose": 0.1, "Time": 0, "Solvent_Water": -2, "Solvent_Ethanol": 1,
		},
		Intercept: 0,
		BaseValue: 0.37,
	}
}

func TestArtifact_Predict(t *testing.T) {
	artifact := testArtifact()

	t.Run("Should predict toxic for a high risk sample", func(t *testing.T) {
		p := artifact.Predict(map[string]any{
			"Dose": 50.0, "Time": 24.0, "Solvent": "Ethanol",
		})
		assert.Equal(t, 1, p.Class)
		assert.Equal(t, "TOXIC", p.Label)
		assert.InDelta(t, 0.9975, p.ProbabilityToxic, 1e-3)
		assert.Equal(t, p.ProbabilityToxic, p.Confidence)
	})
	t.Run("Should predict non toxic for a low risk sample", func(t *testing.T) {
		p := artifact.Predict(map[string]any{
			"Dose": 0.0, "Time": 24.0, "Solvent": "Water",
		})
		assert.Equal(t, 0, p.Class)
		assert.Equal(t, "NON-TOXIC", p.Label)
		assert.InDelta(t, 0.1192, p.ProbabilityToxic, 1e-3)
		assert.InDelta(t, 0.8808, p.Confidence, 1e-3)
	})
	t.Run("Should fill missing numeric inputs with the training median", func(t *testing.T) {
		p := artifact.Predict(map[string]any{"Solvent": "Water"})
		// Dose median 20 and Solvent_Water cancel out exactly.
		assert.InDelta(t, 0.5, p.ProbabilityToxic, 1e-9)
		assert.Equal(t, 1, p.Class)
	})
	t.Run("Should coerce numeric strings", func(t *testing.T) {
		a := artifact.Predict(map[string]any{"Dose": "50", "Solvent": "Ethanol"})
		b := artifact.Predict(map[string]any{"Dose": 50.0, "Solvent": "Ethanol"})
		assert.Equal(t, b, a)
	})
	t.Run("Should ignore unseen categories", func(t *testing.T) {
		p := artifact.Predict(map[string]any{"Dose": 20.0, "Solvent": "Acetone"})
		assert.InDelta(t, sigmoid(2), p.ProbabilityToxic, 1e-9)
	})
}

func TestArtifact_Explain(t *testing.T) {
	artifact := testArtifact()
	input := map[string]any{"Dose": 50.0, "Time": 24.0, "Solvent": "Ethanol"}

	t.Run("Should rank features by absolute contribution", func(t *testing.T) {
		e := artifact.Explain(input, 0)
		assert.Equal(t, "Dose", e.AllFeatures[0].Feature)
		assert.InDelta(t, 3.0, e.AllFeatures[0].ShapValue, 1e-9)
		assert.Equal(t, "increases risk", e.AllFeatures[0].Impact)
		assert.Equal(t, "Solvent_Water", e.AllFeatures[1].Feature)
		assert.InDelta(t, 1.0, e.AllFeatures[1].ShapValue, 1e-9)
		assert.Equal(t, "Time", e.AllFeatures[3].Feature)
	})
	t.Run("Should truncate to the requested top n", func(t *testing.T) {
		e := artifact.Explain(input, 2)
		assert.Len(t, e.TopFeatures, 2)
		assert.Len(t, e.AllFeatures, 4)
	})
	t.Run("Should default top n when unset", func(t *testing.T) {
		e := artifact.Explain(input, 0)
		assert.Len(t, e.TopFeatures, 4)
	})
	t.Run("Should carry the artifact base value", func(t *testing.T) {
		e := artifact.Explain(input, 0)
		assert.InDelta(t, 0.37, e.BaseValue, 1e-9)
	})
	t.Run("Should summarize the dominant factor", func(t *testing.T) {
		e := artifact.Explain(input, 0)
		assert.Contains(t, e.Summary, "The model predicts TOXIC")
		assert.Contains(t, e.Summary, "Dose")
		assert.Contains(t, e.Summary, "increases risk")
	})
	t.Run("Should mark negative contributions as decreasing risk", func(t *testing.T) {
		e := artifact.Explain(map[string]any{"Dose": 0.0, "Time": 24.0, "Solvent": "Water"}, 0)
		var water Contribution
		for _, c := range e.AllFeatures {
			if c.Feature == "Solvent_Water" {
				water = c
			}
		}
		assert.InDelta(t, -1.0, water.ShapValue, 1e-9)
		assert.Equal(t, "decreases risk", water.Impact)
	})
}
