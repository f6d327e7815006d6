package service

import (
	"testing"

	"github.com/lshigami/nodo-plus/internal/model"
)

func rule(axis string, red, yellow int, weights map[string]any) model.TrafficLightRule {
	return model.TrafficLightRule{Axis: axis, ThresholdRed: red, ThresholdYellow: yellow, Weights: weights, Active: true}
}

func TestColorForThresholds(t *testing.T) {
	svc := NewTrafficLightService()
	r := rule(model.AxisImpact, 40, 70, nil)
	cases := []struct {
		score int
		want  model.Color
	}{
		{0, model.ColorRed},
		{39, model.ColorRed},
		{40, model.ColorYellow},
		{69, model.ColorYellow},
		{70, model.ColorGreen},
		{100, model.ColorGreen},
	}
	for _, tc := range cases {
		if got := svc.ColorFor(tc.score, &r); got != tc.want {
			t.Errorf("ColorFor(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
	if got := svc.ColorFor(90, nil); got != model.ColorRed {
		t.Errorf("nil rule color = %s", got)
	}
}

func TestCalculateTrafficLights(t *testing.T) {
	svc := NewTrafficLightService()
	rules := []model.TrafficLightRule{
		rule(model.AxisPedagogical, 40, 70, map[string]any{"q1": 0.5, "q2": 0.5}),
		rule(model.AxisImpact, 40, 70, map[string]any{"reach": 0.3, "bad": "x"}),
		{Axis: model.AxisAdaptability, ThresholdRed: 10, ThresholdYellow: 20, Weights: map[string]any{"q1": 1.0}, Active: false},
	}
	answers := map[string]any{"q1": 80.0, "q2": true, "reach": 50, "bad": 100.0}

	got := svc.CalculateTrafficLights(answers, rules, DerivedAxes)

	if r := got[model.AxisPedagogical]; r.Score != 90 || r.Color != model.ColorGreen {
		t.Errorf("pedagogical = %+v", r)
	}
	if r := got[model.AxisImpact]; r.Score != 15 || r.Color != model.ColorRed {
		t.Errorf("impact = %+v", r)
	}
	for _, axis := range []string{model.AxisAdaptability, model.AxisOrganizational} {
		if r := got[axis]; r.Score != 0 || r.Color != model.ColorRed {
			t.Errorf("%s without active rule = %+v", axis, r)
		}
	}

	again := svc.CalculateTrafficLights(answers, rules, DerivedAxes)
	for axis, r := range got {
		if again[axis] != r {
			t.Errorf("non deterministic result for %s: %+v vs %+v", axis, r, again[axis])
		}
	}
}

func TestCalculateTrafficLightsIgnoresNonNumericAnswers(t *testing.T) {
	svc := NewTrafficLightService()
	rules := []model.TrafficLightRule{rule(model.AxisImpact, 40, 70, map[string]any{"a": 1.0, "b": 1.0})}
	got := svc.CalculateTrafficLights(map[string]any{"a": "yes", "b": []any{1.0}}, rules, []string{model.AxisImpact})
	if got[model.AxisImpact].Score != 0 {
		t.Errorf("score = %d, want 0", got[model.AxisImpact].Score)
	}
}

func TestCalculateTrafficLightsClamps(t *testing.T) {
	svc := NewTrafficLightService()
	rules := []model.TrafficLightRule{
		rule(model.AxisPedagogical, 40, 70, map[string]any{"a": 2.0}),
		rule(model.AxisImpact, 40, 70, map[string]any{"a": -1.0}),
	}
	got := svc.CalculateTrafficLights(map[string]any{"a": 90.0}, rules, []string{model.AxisPedagogical, model.AxisImpact})
	if got[model.AxisPedagogical].Score != MaxAxisScore {
		t.Errorf("high score = %d", got[model.AxisPedagogical].Score)
	}
	if got[model.AxisImpact].Score != MinAxisScore || got[model.AxisImpact].Color != model.ColorRed {
		t.Errorf("low score = %+v", got[model.AxisImpact])
	}
}

func TestCalculateTrafficLightsRounds(t *testing.T) {
	svc := NewTrafficLightService()
	rules := []model.TrafficLightRule{rule(model.AxisImpact, 40, 70, map[string]any{"a": 0.5})}
	got := svc.CalculateTrafficLights(map[string]any{"a": 79.0}, rules, []string{model.AxisImpact})
	// 39.5 rounds half away from zero.
	if r := got[model.AxisImpact]; r.Score != 40 || r.Color != model.ColorYellow {
		t.Errorf("rounded = %+v", r)
	}
}

func TestCalculateTrafficLightsStableAcrossRuns(t *testing.T) {
	svc := NewTrafficLightService()
	weights := map[string]any{}
	answers := map[string]any{}
	for i, k := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		weights[k] = 0.1
		answers[k] = 100.0/3 + float64(i)*1e-15
	}
	rules := []model.TrafficLightRule{rule(model.AxisImpact, 40, 70, weights)}
	want := svc.CalculateTrafficLights(answers, rules, []string{model.AxisImpact})[model.AxisImpact]
	for i := 0; i < 50; i++ {
		if got := svc.CalculateTrafficLights(answers, rules, []string{model.AxisImpact})[model.AxisImpact]; got != want {
			t.Fatalf("run %d: %+v != %+v", i, got, want)
		}
	}
}

func TestRecolor(t *testing.T) {
	svc := NewTrafficLightService()
	sol := &model.Solution{TechnicalQualityScore: 55, AffordabilityScore: 80}
	rules := []model.TrafficLightRule{rule(model.AxisTechnicalQuality, 40, 70, nil)}
	got := svc.Recolor(sol, rules, []string{model.AxisTechnicalQuality, model.AxisAffordability})
	if got[model.AxisTechnicalQuality] != (AxisResult{55, model.ColorYellow}) {
		t.Errorf("technicalQuality = %+v", got[model.AxisTechnicalQuality])
	}
	if got[model.AxisAffordability] != (AxisResult{80, model.ColorRed}) {
		t.Errorf("affordability = %+v", got[model.AxisAffordability])
	}
}
