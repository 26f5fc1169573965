package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

const maxSubCategories = 5

// ExtractJSON pulls the first top-level JSON object out of raw model text.
// Providers wrap their JSON in markdown fences or prose often enough that we
// just take everything between the first '{' and the last '}'.
func ExtractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in model output")
	}
	return text[start : end+1], nil
}

// ParseAnalysis extracts and converts raw provider output into a
// CategoryAnalysis. Parse failures are analyzer errors; a partially shaped
// object converts with defaults instead of failing.
func ParseAnalysis(text string) (*CategoryAnalysis, error) {
	jsonStr, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("unparseable JSON in model output: %w", err)
	}
	return ConvertRaw(raw), nil
}

// ConvertRaw maps a decoded provider object into the typed shape. Tolerant
// of missing fields: main_category falls back to the unknown sentinel,
// confidence to 0, sub_categories to an empty list.
func ConvertRaw(raw map[string]any) *CategoryAnalysis {
	a := &CategoryAnalysis{
		MainCategory:  UnknownCategory,
		SubCategories: []SubCategory{},
	}

	if v, ok := raw["main_category"].(string); ok && v != "" {
		a.MainCategory = v
	}
	if v, ok := toFloat(raw["confidence"]); ok {
		a.Confidence = v
	}
	if subs, ok := raw["sub_categories"].([]any); ok {
		for _, s := range subs {
			m, ok := s.(map[string]any)
			if !ok {
				continue
			}
			name, _ := m["name"].(string)
			if name == "" {
				continue
			}
			conf, _ := toFloat(m["confidence"])
			a.SubCategories = append(a.SubCategories, SubCategory{Name: name, Confidence: conf})
			if len(a.SubCategories) == maxSubCategories {
				break
			}
		}
	}
	if v, ok := raw["description"].(string); ok {
		a.Description = v
	}
	if v, ok := raw["target_audience"].(string); ok {
		a.TargetAudience = v
	}
	if v, ok := raw["value_proposition"].(string); ok {
		a.ValueProposition = v
	}
	return a
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case int:
		return float64(n), true
	}
	return 0, false
}
