package service

import (
	"math"
	"sort"

	"github.com/lshigami/nodo-plus/internal/model"
	"github.com/rs/zerolog/log"
)

const (
	MinAxisScore = 0
	MaxAxisScore = 100
)

// DerivedAxes are recomputed from questionnaire data on approval. The
// remaining axes keep their stored score and are only recolored.
var DerivedAxes = []string{
	model.AxisPedagogical,
	model.AxisAdaptability,
	model.AxisImpact,
	model.AxisOrganizational,
}

type AxisResult struct {
	Score int         `json:"score"`
	Color model.Color `json:"color"`
}

type TrafficLightService interface {
	CalculateTrafficLights(answers map[string]any, rules []model.TrafficLightRule, axes []string) map[string]AxisResult
	ColorFor(score int, rule *model.TrafficLightRule) model.Color
	Recolor(solution *model.Solution, rules []model.TrafficLightRule, axes []string) map[string]AxisResult
}

type trafficLightService struct{}

func NewTrafficLightService() TrafficLightService {
	return &trafficLightService{}
}

// ruleFor returns the first active rule of axis in input order.
func ruleFor(axis string, rules []model.TrafficLightRule) *model.TrafficLightRule {
	for i := range rules {
		if rules[i].Active && rules[i].Axis == axis {
			return &rules[i]
		}
	}
	return nil
}

// CalculateTrafficLights scores each axis as the weighted sum of the
// normalized answers named by its rule. Axes without an active rule score
// 0/RED. The result only depends on its inputs.
func (s *trafficLightService) CalculateTrafficLights(answers map[string]any, rules []model.TrafficLightRule, axes []string) map[string]AxisResult {
	out := make(map[string]AxisResult, len(axes))
	for _, axis := range axes {
		rule := ruleFor(axis, rules)
		if rule == nil {
			out[axis] = AxisResult{Score: 0, Color: model.ColorRed}
			continue
		}
		keys := make([]string, 0, len(rule.Weights))
		for key := range rule.Weights {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var sum float64
		for _, key := range keys {
			weight, ok := toNumber(rule.Weights[key])
			if !ok {
				continue
			}
			sum += normalizeAnswer(answers[key]) * weight
		}
		score := clampScore(axis, int(math.Round(sum)))
		out[axis] = AxisResult{Score: score, Color: s.ColorFor(score, rule)}
	}
	return out
}

// ColorFor buckets a score with the rule thresholds. A nil rule is RED.
func (s *trafficLightService) ColorFor(score int, rule *model.TrafficLightRule) model.Color {
	if rule == nil {
		return model.ColorRed
	}
	switch {
	case score < rule.ThresholdRed:
		return model.ColorRed
	case score < rule.ThresholdYellow:
		return model.ColorYellow
	default:
		return model.ColorGreen
	}
}

// Recolor recomputes the color of stored scores so they stay consistent
// with the active thresholds. Axes without a rule become RED.
func (s *trafficLightService) Recolor(solution *model.Solution, rules []model.TrafficLightRule, axes []string) map[string]AxisResult {
	out := make(map[string]AxisResult, len(axes))
	for _, axis := range axes {
		score, _ := solution.AxisScore(axis)
		out[axis] = AxisResult{Score: score, Color: s.ColorFor(score, ruleFor(axis, rules))}
	}
	return out
}

func clampScore(axis string, score int) int {
	clamped := score
	if clamped < MinAxisScore {
		clamped = MinAxisScore
	} else if clamped > MaxAxisScore {
		clamped = MaxAxisScore
	}
	if clamped != score {
		log.Warn().Str("axis", axis).Int("rawScore", score).Int("score", clamped).Msg("Traffic light score out of range, clamped")
	}
	return clamped
}

// normalizeAnswer maps numbers through, booleans to 0/100 and anything else
// to 0.
func normalizeAnswer(v any) float64 {
	if b, ok := v.(bool); ok {
		if b {
			return 100
		}
		return 0
	}
	n, _ := toNumber(v)
	return n
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
