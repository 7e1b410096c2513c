package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DataDir     string   `mapstructure:"DATA_DIR"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	// CMS conversion factors used by the payment estimation formulas.
	// These are approximate published values, not authoritative rate lookups.
	FacilityCF     float64 `mapstructure:"FACILITY_CONVERSION_FACTOR"`
	NonFacilityCF  float64 `mapstructure:"NONFACILITY_CONVERSION_FACTOR"`
	IPPSMultiplier float64 `mapstructure:"IPPS_MULTIPLIER"`

	// Margin classification thresholds, expressed as margin/totalPayment ratios.
	ProfitableMinMargin float64 `mapstructure:"PROFITABLE_MIN_MARGIN"`
	BreakEvenMinMargin  float64 `mapstructure:"BREAK_EVEN_MIN_MARGIN"`

	// NTAP program constants.
	NTAPPercentage              float64 `mapstructure:"NTAP_PERCENTAGE"`
	NTAPMaxCap                  float64 `mapstructure:"NTAP_MAX_CAP"`
	NTAPCostThresholdMultiplier float64 `mapstructure:"NTAP_COST_THRESHOLD_MULTIPLIER"`

	// TPT program constants.
	TPTMaxPassThroughYears int     `mapstructure:"TPT_MAX_PASS_THROUGH_YEARS"`
	TPTPackagedShare       float64 `mapstructure:"TPT_PACKAGED_SHARE"`
	TPTCostSignificance    float64 `mapstructure:"TPT_COST_SIGNIFICANCE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "3001")
	v.SetDefault("ENV", "development")
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("FACILITY_CONVERSION_FACTOR", 33.89)
	v.SetDefault("NONFACILITY_CONVERSION_FACTOR", 33.89)
	v.SetDefault("IPPS_MULTIPLIER", 1.5)
	v.SetDefault("PROFITABLE_MIN_MARGIN", 0.10)
	v.SetDefault("BREAK_EVEN_MIN_MARGIN", -0.05)
	v.SetDefault("NTAP_PERCENTAGE", 0.65)
	v.SetDefault("NTAP_MAX_CAP", 150000)
	v.SetDefault("NTAP_COST_THRESHOLD_MULTIPLIER", 1.0)
	v.SetDefault("TPT_MAX_PASS_THROUGH_YEARS", 3)
	v.SetDefault("TPT_PACKAGED_SHARE", 0.10)
	v.SetDefault("TPT_COST_SIGNIFICANCE", 0.15)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATA_DIR")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("FACILITY_CONVERSION_FACTOR")
	v.BindEnv("NONFACILITY_CONVERSION_FACTOR")
	v.BindEnv("IPPS_MULTIPLIER")
	v.BindEnv("PROFITABLE_MIN_MARGIN")
	v.BindEnv("BREAK_EVEN_MIN_MARGIN")
	v.BindEnv("NTAP_PERCENTAGE")
	v.BindEnv("NTAP_MAX_CAP")
	v.BindEnv("NTAP_COST_THRESHOLD_MULTIPLIER")
	v.BindEnv("TPT_MAX_PASS_THROUGH_YEARS")
	v.BindEnv("TPT_PACKAGED_SHARE")
	v.BindEnv("TPT_COST_SIGNIFICANCE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is internally consistent. The
// conversion factors and program constants drive every payment estimate, so
// nonsensical values are rejected at startup rather than producing silently
// wrong numbers per request.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.FacilityCF <= 0 || c.NonFacilityCF <= 0 {
		return fmt.Errorf("conversion factors must be positive (facility=%v, nonfacility=%v)", c.FacilityCF, c.NonFacilityCF)
	}
	if c.IPPSMultiplier <= 0 {
		return fmt.Errorf("IPPS_MULTIPLIER must be positive, got %v", c.IPPSMultiplier)
	}
	if c.ProfitableMinMargin <= c.BreakEvenMinMargin {
		return fmt.Errorf("PROFITABLE_MIN_MARGIN (%v) must exceed BREAK_EVEN_MIN_MARGIN (%v)",
			c.ProfitableMinMargin, c.BreakEvenMinMargin)
	}
	if c.NTAPPercentage <= 0 || c.NTAPPercentage > 1 {
		return fmt.Errorf("NTAP_PERCENTAGE must be in (0, 1], got %v", c.NTAPPercentage)
	}
	if c.NTAPMaxCap < 0 {
		return fmt.Errorf("NTAP_MAX_CAP must be non-negative, got %v", c.NTAPMaxCap)
	}
	if c.TPTMaxPassThroughYears <= 0 {
		return fmt.Errorf("TPT_MAX_PASS_THROUGH_YEARS must be positive, got %d", c.TPTMaxPassThroughYears)
	}
	if c.TPTPackagedShare < 0 || c.TPTPackagedShare >= 1 {
		return fmt.Errorf("TPT_PACKAGED_SHARE must be in [0, 1), got %v", c.TPTPackagedShare)
	}
	return nil
}
