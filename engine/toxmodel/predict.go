package toxmodel

import "math"

// Prediction is the scored outcome for one sample.
type Prediction struct {
	// Class is 1 for toxic, 0 for non-toxic.
	Class int
	// Label is "TOXIC" or "NON-TOXIC".
	Label string
	// ProbabilityToxic is the positive-class probability.
	ProbabilityToxic float64
	// Confidence is the probability of the predicted class.
	Confidence float64
}

// Predict scores one raw input against the artifact's logistic regression.
func (a *Artifact) Predict(input map[string]any) Prediction {
	vector := prepareFeatures(input, a)
	return a.score(vector)
}

func (a *Artifact) score(vector []float64) Prediction {
	z := a.Intercept
	for i, col := range a.FeatureColumns {
		z += a.Coefficients[col] * vector[i]
	}
	pToxic := sigmoid(z)

	p := Prediction{ProbabilityToxic: pToxic}
	if pToxic >= 0.5 {
		p.Class = 1
		p.Label = "TOXIC"
		p.Confidence = pToxic
	} else {
		p.Label = "NON-TOXIC"
		p.Confidence = 1 - pToxic
	}
	return p
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
