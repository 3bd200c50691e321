// Package alerts evaluates threshold rules over telemetry readings.
package alerts

import "github.com/verte-zerg/dashsim/internal/model"

// Rule pairs an alert kind with its trigger condition.
type Rule struct {
	Kind     model.AlertKind
	Severity model.AlertSeverity
	Code     string
	Channel  model.Channel
	limit    func(th model.Thresholds) float64
	breached func(value, limit float64) bool
}

func above(value, limit float64) bool { return value > limit }
func below(value, limit float64) bool { return value < limit }

// DefaultRules are evaluated in order; each fires at most once per reading.
var DefaultRules = []Rule{
	{
		Kind:     model.AlertOverheat,
		Severity: model.SeverityCritical,
		Code:     "P0217",
		Channel:  model.ChannelTemperature,
		limit:    func(th model.Thresholds) float64 { return th.OverheatTemp },
		breached: above,
	},
	{
		Kind:     model.AlertLowFuel,
		Severity: model.SeverityWarning,
		Code:     "P0460",
		Channel:  model.ChannelFuel,
		limit:    func(th model.Thresholds) float64 { return th.LowFuel },
		breached: below,
	},
	{
		Kind:     model.AlertRPMLimit,
		Severity: model.SeverityWarning,
		Code:     "P0219",
		Channel:  model.ChannelRPM,
		limit:    func(th model.Thresholds) float64 { return th.RPMLimit },
		breached: above,
	},
}

// Evaluate returns the alerts whose condition holds for r.
func Evaluate(r model.Reading, th model.Thresholds) []model.Alert {
	var out []model.Alert
	for _, rule := range DefaultRules {
		value := r.Value(rule.Channel)
		limit := rule.limit(th)
		if !rule.breached(value, limit) {
			continue
		}
		out = append(out, model.Alert{
			Kind:      rule.Kind,
			Severity:  rule.Severity,
			Code:      rule.Code,
			Value:     value,
			Threshold: limit,
			Reading:   r,
		})
	}
	return out
}

// Counts tallies how many readings in history trip each kind.
func Counts(history []model.Reading, th model.Thresholds) map[model.AlertKind]int {
	counts := make(map[model.AlertKind]int, len(DefaultRules))
	for _, r := range history {
		for _, a := range Evaluate(r, th) {
			counts[a.Kind]++
		}
	}
	return counts
}

// Has reports whether list contains an alert of the given kind.
func Has(list []model.Alert, kind model.AlertKind) bool {
	for _, a := range list {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// ForChannel returns the first alert raised on a channel, if any.
func ForChannel(list []model.Alert, ch model.Channel) (model.Alert, bool) {
	for _, a := range list {
		for _, rule := range DefaultRules {
			if rule.Kind == a.Kind && rule.Channel == ch {
				return a, true
			}
		}
	}
	return model.Alert{}, false
}

// Describe returns a short human label for an alert kind.
func Describe(kind model.AlertKind) string {
	switch kind {
	case model.AlertOverheat:
		return "Engine overtemperature"
	case model.AlertLowFuel:
		return "Low fuel level"
	case model.AlertRPMLimit:
		return "Engine over RPM limit"
	default:
		return string(kind)
	}
}
