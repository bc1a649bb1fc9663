package toxmodel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact is one exported model: a logistic regression over one-hot encoded
// features, plus the preprocessing metadata needed to rebuild the training
// feature layout from raw chat parameters.
type Artifact struct {
	// FeatureColumns is the full encoded column list in training order.
	FeatureColumns []string `json:"feature_columns"`
	// CategoricalCols are raw columns expanded by one-hot encoding.
	CategoricalCols []string `json:"categorical_cols"`
	// NumCols are raw numeric columns.
	NumCols []string `json:"num_cols"`
	// NumericMedians fill missing numeric inputs.
	NumericMedians map[string]float64 `json:"numeric_medians"`
	// FeatureMeans are per encoded column, used as the explanation baseline.
	FeatureMeans map[string]float64 `json:"feature_means"`
	// Coefficients are per encoded column.
	Coefficients map[string]float64 `json:"coefficients"`
	Intercept    float64            `json:"intercept"`
	// BaseValue is the expected model output over the training set.
	BaseValue float64 `json:"base_value"`
}

func (a *Artifact) validate() error {
	if len(a.FeatureColumns) == 0 {
		return fmt.Errorf("artifact has no feature columns")
	}
	for _, col := range a.FeatureColumns {
		if _, ok := a.Coefficients[col]; !ok {
			return fmt.Errorf("artifact missing coefficient for column %q", col)
		}
	}
	return nil
}

// LoadArtifact reads and validates one model artifact file.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model artifact: %w", err)
	}
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parsing model artifact %s: %w", path, err)
	}
	if err := artifact.validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact %s: %w", path, err)
	}
	return &artifact, nil
}

// Models bundles the two trained variants: with and without the plant
// family feature.
type Models struct {
	Basic  *Artifact
	Family *Artifact
}

const (
	basicArtifactFile  = "model_without_family.json"
	familyArtifactFile = "model_with_family.json"
)

// LoadModels loads both artifacts from a directory. Both files are required;
// the service refuses to start with a partial model set.
func LoadModels(dir string) (*Models, error) {
	basic, err := LoadArtifact(filepath.Join(dir, basicArtifactFile))
	if err != nil {
		return nil, err
	}
	family, err := LoadArtifact(filepath.Join(dir, familyArtifactFile))
	if err != nil {
		return nil, err
	}
	return &Models{Basic: basic, Family: family}, nil
}
