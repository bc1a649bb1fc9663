package toxmodel

import (
	"context"
	"fmt"

	"github.com/toxichat/toxichat/engine/llm"
)

// Tool names advertised to the model. They match the parameter vocabulary
// the system prompt teaches, so keep them stable.
const (
	ToolPredictWithoutFamily = "predict_toxicity_without_family"
	ToolPredictWithFamily    = "predict_toxicity_with_family"
	ToolExplainWithoutFamily = "explain_toxicity_prediction_without_family"
	ToolExplainWithFamily    = "explain_toxicity_prediction_with_family"
)

var baseRequired = []string{"ParticleSize", "ZetaPotential", "Dose", "Time", "Solvent", "CellType", "CellOrigin"}

var familyRequired = []string{"ParticleSize", "ZetaPotential", "Dose", "Time", "Family", "Solvent", "CellType", "CellOrigin"}

// Tools builds the four prediction and explanation tools backed by the
// loaded model artifacts, in advertisement order.
func Tools(models *Models) []llm.Tool {
	return []llm.Tool{
		&modelTool{
			name:        ToolPredictWithoutFamily,
			description: "Predict carbon dot toxicity without plant family information. Returns prediction (0=non-toxic, 1=toxic), probability scores, and confidence level.",
			parameters:  predictParams(false),
			required:    baseRequired,
			run: func(args map[string]any) map[string]any {
				return predictResult(models.Basic.Predict(args), "without_family")
			},
		},
		&modelTool{
			name:        ToolPredictWithFamily,
			description: "Predict carbon dot toxicity with plant family information. Use this when the carbon dots are derived from plant material and you know the plant family.",
			parameters:  predictParams(true),
			required:    familyRequired,
			run: func(args map[string]any) map[string]any {
				return predictResult(models.Family.Predict(args), "with_family")
			},
		},
		&modelTool{
			name:        ToolExplainWithoutFamily,
			description: "Explain toxicity prediction using SHAP (Explainable AI) without plant family. Returns detailed explanation of which features contributed most to the prediction and how.",
			parameters:  explainParams(false),
			required:    baseRequired,
			run: func(args map[string]any) map[string]any {
				return explainResult(models.Basic.Explain(args, topN(args)), "without_family")
			},
		},
		&modelTool{
			name:        ToolExplainWithFamily,
			description: "Explain toxicity prediction using SHAP with plant family information. Provides detailed breakdown of feature contributions including plant family effects.",
			parameters:  explainParams(true),
			required:    familyRequired,
			run: func(args map[string]any) map[string]any {
				return explainResult(models.Family.Explain(args, topN(args)), "with_family")
			},
		},
	}
}

type modelTool struct {
	name        string
	description string
	parameters  map[string]any
	required    []string
	run         func(args map[string]any) map[string]any
}

func (t *modelTool) Name() string        { return t.name }
func (t *modelTool) Description() string { return t.description }

func (t *modelTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        t.name,
		Description: t.description,
		Parameters:  t.parameters,
		Required:    t.required,
	}
}

func (t *modelTool) Call(_ context.Context, args map[string]any) (map[string]any, error) {
	if err := validateArgs(args, t.required); err != nil {
		return nil, err
	}
	return t.run(args), nil
}

func validateArgs(args map[string]any, required []string) error {
	for _, name := range required {
		v, ok := args[name]
		if !ok || v == nil {
			return fmt.Errorf("missing required parameter %q", name)
		}
	}
	return nil
}

func topN(args map[string]any) int {
	if v, ok := coerceNumber(args["top_n"]); ok {
		return int(v)
	}
	return DefaultTopN
}

func predictResult(p Prediction, modelUsed string) map[string]any {
	return map[string]any{
		"success":               true,
		"prediction":            p.Class,
		"class_label":           p.Label,
		"probability_toxic":     p.ProbabilityToxic,
		"probability_non_toxic": 1 - p.ProbabilityToxic,
		"confidence":            p.Confidence,
		"model_used":            modelUsed,
	}
}

func explainResult(e Explanation, modelUsed string) map[string]any {
	return map[string]any{
		"success":           true,
		"prediction":        e.Prediction.Class,
		"class_label":       e.Prediction.Label,
		"probability_toxic": e.Prediction.ProbabilityToxic,
		"confidence":        e.Prediction.Confidence,
		"base_value":        e.BaseValue,
		"top_features":      e.TopFeatures,
		"all_features":      e.AllFeatures,
		"explanation":       e.Summary,
		"model_used":        modelUsed,
	}
}

func predictParams(withFamily bool) map[string]any {
	params := map[string]any{
		"ParticleSize": map[string]any{
			"type":        "number",
			"description": "Carbon dot particle size in nanometers (e.g., 7.5)",
		},
		"ZetaPotential": map[string]any{
			"type":        "number",
			"description": "Surface charge in millivolts (e.g., -22.0, typically negative)",
		},
		"Dose": map[string]any{
			"type":        "number",
			"description": "Dosage concentration in µg/mL (e.g., 15.0)",
		},
		"Time": map[string]any{
			"type":        "number",
			"description": "Exposure time in hours (e.g., 24, 48, 72)",
		},
		"Solvent": map[string]any{
			"type":        "string",
			"description": "Extraction solvent used (e.g., 'Ethanol', 'Water', 'Methanol', 'DMSO')",
		},
		"CellType": map[string]any{
			"type":        "string",
			"description": "Cell type/line tested (e.g., 'HeLa', 'MCF7', 'A549', 'NIH3T3')",
		},
		"CellOrigin": map[string]any{
			"type":        "string",
			"description": "Organism origin of cells (e.g., 'Human', 'Mouse', 'Rat')",
		},
	}
	if withFamily {
		params["Family"] = map[string]any{
			"type":        "string",
			"description": "Plant family name (e.g., 'Fabaceae', 'Rosaceae', 'Moraceae')",
		}
	}
	return params
}

func explainParams(withFamily bool) map[string]any {
	params := map[string]any{
		"ParticleSize":  map[string]any{"type": "number"},
		"ZetaPotential": map[string]any{"type": "number"},
		"Dose":          map[string]any{"type": "number"},
		"Time":          map[string]any{"type": "number"},
		"Solvent":       map[string]any{"type": "string"},
		"CellType":      map[string]any{"type": "string"},
		"CellOrigin":    map[string]any{"type": "string"},
		"top_n": map[string]any{
			"type":        "integer",
			"description": "Number of top SHAP features to return (default: 10)",
		},
	}
	if withFamily {
		params["Family"] = map[string]any{"type": "string"}
	}
	return params
}
