package strategy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/newthinker/stockscreen/internal/core"
	"github.com/shopspring/decimal"
)

// FilterConfig holds the thresholds and toggles every strategy reads. It is
// passed by value and never mutated.
type FilterConfig struct {
	TurnoverRateThreshold    float64
	VolumeRatioThreshold     float64
	EnableWeeklyConfirmation bool
	RequireBelowMA5          bool
	BreakoutTolerance        float64 // fraction above the long MA still counted as a retest
}

// DefaultFilterConfig returns the thresholds used when nothing is configured.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		TurnoverRateThreshold:    3.0,
		VolumeRatioThreshold:     1.0,
		EnableWeeklyConfirmation: true,
		RequireBelowMA5:          false,
		BreakoutTolerance:        0.03,
	}
}

// Validate checks the thresholds are usable.
func (c FilterConfig) Validate() error {
	if c.TurnoverRateThreshold < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("turnover_rate_threshold cannot be negative, got %v", c.TurnoverRateThreshold))
	}
	if c.VolumeRatioThreshold < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("volume_ratio_threshold cannot be negative, got %v", c.VolumeRatioThreshold))
	}
	if c.BreakoutTolerance < 0 || c.BreakoutTolerance > 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("breakout_tolerance must be between 0 and 1, got %v", c.BreakoutTolerance))
	}
	return nil
}

var fingerprintSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("stockscreen/filter-params"))

// Fingerprint identifies a strategy run by its parameters. Equal parameters
// always give the same fingerprint, so results stored under it stay unique per
// (date, code, fingerprint).
func Fingerprint(name string, kind core.PeriodKind, cfg FilterConfig, params map[string]any) string {
	fields := map[string]string{
		"strategy":      name,
		"kind":          string(kind),
		"turnover_rate": decimal.NewFromFloat(cfg.TurnoverRateThreshold).String(),
		"volume_ratio":  decimal.NewFromFloat(cfg.VolumeRatioThreshold).String(),
		"weekly":        fmt.Sprint(cfg.EnableWeeklyConfirmation),
		"below_ma5":     fmt.Sprint(cfg.RequireBelowMA5),
		"breakout_tol":  decimal.NewFromFloat(cfg.BreakoutTolerance).String(),
	}
	for k, v := range params {
		fields["param."+k] = canonical(v)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
		b.WriteByte(';')
	}
	return uuid.NewSHA1(fingerprintSpace, []byte(b.String())).String()
}

func canonical(v any) string {
	switch x := v.(type) {
	case float64:
		return decimal.NewFromFloat(x).String()
	case float32:
		return decimal.NewFromFloat32(x).String()
	case int:
		return decimal.NewFromInt(int64(x)).String()
	case int64:
		return decimal.NewFromInt(x).String()
	default:
		return fmt.Sprint(v)
	}
}
