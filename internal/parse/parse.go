// Package parse turns raw model output into domain values. Model
// responses are frequently wrapped in markdown fences or surrounded by
// prose, so extraction stays lenient; only the final decode is strict.
package parse

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"finscout/internal/core/domain"
	"finscout/internal/platform/errors"
)

// jsonObjectPattern matches the outermost brace-delimited block in a
// response. Greedy on purpose: models tend to emit one object with
// nested braces inside.
var jsonObjectPattern = regexp.MustCompile(`(?s)(\{.*\})`)

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\n?(.*?)```")

// StripFences removes a surrounding markdown code fence (```json,
// ```go, bare ```), returning the inner text. Input without fences
// comes back trimmed and otherwise untouched.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// ExtractJSONObject finds the JSON object inside a model response.
// First it tries the outermost brace block, then the whole text.
func ExtractJSONObject(s string) (map[string]interface{}, error) {
	s = StripFences(s)

	if m := jsonObjectPattern.FindStringSubmatch(s); m != nil {
		var out map[string]interface{}
		if err := json.Unmarshal([]byte(m[1]), &out); err == nil {
			return out, nil
		}
	}

	var out map[string]interface{}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "no JSON object in response")
	}
	return out, nil
}

// knownCandidateKeys are the schema fields of a candidate; anything
// else the model returned lands in Extra.
var knownCandidateKeys = map[string]bool{
	"url":                true,
	"year":               true,
	"confidence":         true,
	"source_description": true,
}

// DecodeCandidate interprets a model response as a source candidate.
// The URL is mandatory; everything else degrades gracefully.
func DecodeCandidate(response string) (*domain.CandidateResult, error) {
	obj, err := ExtractJSONObject(response)
	if err != nil {
		return nil, err
	}

	url := stringField(obj, "url")
	if url == "" {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "candidate has no url")
	}

	candidate := &domain.CandidateResult{
		URL:               url,
		Year:              stringField(obj, "year"),
		Confidence:        domain.ParseConfidence(stringField(obj, "confidence")),
		SourceDescription: stringField(obj, "source_description"),
	}

	for k, v := range obj {
		if knownCandidateKeys[k] {
			continue
		}
		if candidate.Extra == nil {
			candidate.Extra = make(map[string]string)
		}
		candidate.Extra[k] = toString(v)
	}

	return candidate, nil
}

// DecodeVerdict interprets a model response as a validation verdict.
// Failure never propagates: every bad path returns DefaultVerdict with
// the reason in Feedback.
func DecodeVerdict(response string) domain.ValidationVerdict {
	obj, err := ExtractJSONObject(response)
	if err != nil {
		return domain.DefaultVerdict("validator returned no parseable JSON")
	}

	verdict := domain.ValidationVerdict{
		Feedback: stringField(obj, "feedback"),
	}

	if v, ok := obj["is_valid"].(bool); ok {
		verdict.IsValid = v
	}
	if v, ok := obj["validation_score"].(float64); ok {
		score := int(v)
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}
		verdict.Score = score
	}
	if raw, ok := obj["improvement_suggestions"].([]interface{}); ok {
		for _, s := range raw {
			verdict.Suggestions = append(verdict.Suggestions, toString(s))
		}
	}

	if verdict.Feedback == "" {
		verdict.Feedback = "validator gave no feedback"
	}
	return verdict
}

func stringField(obj map[string]interface{}, key string) string {
	if v, ok := obj[key]; ok {
		return strings.TrimSpace(toString(v))
	}
	return ""
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers; years come back as 2023 not "2023" sometimes.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
