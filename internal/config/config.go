// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"strings"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/configprocessor"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/constants"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/datetime"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/tax"
	"github.com/spf13/viper"
)

// DateTimeLayout is the format expected in config files and is also the output
// date format.
const DateTimeLayout = constants.DateTimeLayout

// Configuration holds all configuration for an underwriting run.
type Configuration struct {
	Logging           LoggingConfig     `yaml:"logging,omitempty" mapstructure:"logging"`
	Output            OutputConfig      `yaml:"output,omitempty" mapstructure:"output"`
	Deal              Deal              `yaml:"deal" mapstructure:"deal"`
	StandardScenarios bool              `yaml:"standardScenarios,omitempty" mapstructure:"standardScenarios"`
	Scenarios         []Scenario        `yaml:"scenarios,omitempty" mapstructure:"scenarios"`
	MonteCarlo        *MonteCarloConfig `yaml:"monteCarlo,omitempty" mapstructure:"monteCarlo"`
	Solver            []SolverConfig    `yaml:"solver,omitempty" mapstructure:"solver"`
	Recorder          RecorderConfig    `yaml:"recorder,omitempty" mapstructure:"recorder"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// RecorderConfig selects where runs are persisted.
type RecorderConfig struct {
	Driver string `yaml:"driver,omitempty" mapstructure:"driver"` // none, sqlite
	Path   string `yaml:"path,omitempty" mapstructure:"path"`
}

// Deal holds the deal assumptions as written in YAML. Rates are fractions.
type Deal struct {
	Name          string      `yaml:"name,omitempty" mapstructure:"name"`
	StartDate     string      `yaml:"startDate,omitempty" mapstructure:"startDate"`
	PurchasePrice float64     `yaml:"purchasePrice" mapstructure:"purchasePrice"`
	Acquisition   Acquisition `yaml:"acquisition" mapstructure:"acquisition"`
	Financing     Financing   `yaml:"financing" mapstructure:"financing"`
	Rental        Rental      `yaml:"rental" mapstructure:"rental"`
	Operating     Operating   `yaml:"operating" mapstructure:"operating"`
	Exit          Exit        `yaml:"exit" mapstructure:"exit"`
	CapEx         []CapEx     `yaml:"capex,omitempty" mapstructure:"capex"`
	HoldMonths    int         `yaml:"holdMonths,omitempty" mapstructure:"holdMonths"`
	HoldYears     int         `yaml:"holdYears,omitempty" mapstructure:"holdYears"`
	DiscountRate  float64     `yaml:"discountRate" mapstructure:"discountRate"`
	HurdleRate    float64     `yaml:"hurdleRate" mapstructure:"hurdleRate"`
}

// Acquisition holds one-off purchase costs. StampDuty overrides the banded
// computation; StampDutyBands replaces the default residential bands.
type Acquisition struct {
	StampDuty      *float64   `yaml:"stampDuty,omitempty" mapstructure:"stampDuty"`
	StampDutyBands []tax.Band `yaml:"stampDutyBands,omitempty" mapstructure:"stampDutyBands"`
	LegalFees      float64    `yaml:"legalFees" mapstructure:"legalFees"`
	BrokerFees     float64    `yaml:"brokerFees,omitempty" mapstructure:"brokerFees"`
	OtherCosts     float64    `yaml:"otherCosts,omitempty" mapstructure:"otherCosts"`
}

// Financing holds the loan terms.
type Financing struct {
	LTV          float64 `yaml:"ltv" mapstructure:"ltv"`
	InterestRate float64 `yaml:"interestRate" mapstructure:"interestRate"`
	TermMonths   int     `yaml:"termMonths,omitempty" mapstructure:"termMonths"`
	TermYears    int     `yaml:"termYears,omitempty" mapstructure:"termYears"`
	Type         string  `yaml:"type" mapstructure:"type"` // amortizing, interest-only
	FeeFraction  float64 `yaml:"feeFraction" mapstructure:"feeFraction"`
}

// Rental holds the income assumptions.
type Rental struct {
	MonthlyRent     float64   `yaml:"monthlyRent" mapstructure:"monthlyRent"`
	GrowthRate      float64   `yaml:"growthRate" mapstructure:"growthRate"`
	VacancyRate     float64   `yaml:"vacancyRate" mapstructure:"vacancyRate"`
	VacancySchedule []float64 `yaml:"vacancySchedule,omitempty" mapstructure:"vacancySchedule"`
}

// Operating holds the operating expense assumptions.
type Operating struct {
	Mode          string  `yaml:"mode" mapstructure:"mode"` // ratio, absolute
	Ratio         float64 `yaml:"ratio,omitempty" mapstructure:"ratio"`
	MonthlyAmount float64 `yaml:"monthlyAmount,omitempty" mapstructure:"monthlyAmount"`
	GrowthRate    float64 `yaml:"growthRate,omitempty" mapstructure:"growthRate"`
}

// Exit holds the sale assumptions.
type Exit struct {
	Method       string  `yaml:"method" mapstructure:"method"` // cap-rate, noi-multiple
	CapRate      float64 `yaml:"capRate,omitempty" mapstructure:"capRate"`
	Multiple     float64 `yaml:"multiple,omitempty" mapstructure:"multiple"`
	CostFraction float64 `yaml:"costFraction" mapstructure:"costFraction"`
}

// CapEx is a scheduled capital cost. Dates take precedence over months;
// a zero frequency makes it one-off.
type CapEx struct {
	Name       string  `yaml:"name" mapstructure:"name"`
	Amount     float64 `yaml:"amount" mapstructure:"amount"`
	StartDate  string  `yaml:"startDate,omitempty" mapstructure:"startDate"`
	EndDate    string  `yaml:"endDate,omitempty" mapstructure:"endDate"`
	StartMonth int     `yaml:"startMonth,omitempty" mapstructure:"startMonth"`
	EndMonth   int     `yaml:"endMonth,omitempty" mapstructure:"endMonth"`
	Frequency  int     `yaml:"frequency,omitempty" mapstructure:"frequency"`
	GrowthRate float64 `yaml:"growthRate,omitempty" mapstructure:"growthRate"`
}

// Scenario is a named stress test. Shifts are additive; RentLevelShift
// scales the starting rent.
type Scenario struct {
	Name              string  `yaml:"name" mapstructure:"name"`
	InterestRateShift float64 `yaml:"interestRateShift,omitempty" mapstructure:"interestRateShift"`
	RentGrowthShift   float64 `yaml:"rentGrowthShift,omitempty" mapstructure:"rentGrowthShift"`
	ExitCapRateShift  float64 `yaml:"exitCapRateShift,omitempty" mapstructure:"exitCapRateShift"`
	RentLevelShift    float64 `yaml:"rentLevelShift,omitempty" mapstructure:"rentLevelShift"`
	VacancyShift      float64 `yaml:"vacancyShift,omitempty" mapstructure:"vacancyShift"`
	ExitMultipleShift float64 `yaml:"exitMultipleShift,omitempty" mapstructure:"exitMultipleShift"`
}

// MonteCarloConfig configures the simulation. Omitted distributions use the
// standard uncertainty model; Disabled holds a variable at its base value.
type MonteCarloConfig struct {
	Enabled       *bool         `yaml:"enabled,omitempty" mapstructure:"enabled"`
	Draws         int           `yaml:"draws,omitempty" mapstructure:"draws"`
	Seed          *uint64       `yaml:"seed,omitempty" mapstructure:"seed"`
	Workers       int           `yaml:"workers,omitempty" mapstructure:"workers"`
	RentGrowth    *Distribution `yaml:"rentGrowth,omitempty" mapstructure:"rentGrowth"`
	Vacancy       *Distribution `yaml:"vacancy,omitempty" mapstructure:"vacancy"`
	ExitCapRate   *Distribution `yaml:"exitCapRate,omitempty" mapstructure:"exitCapRate"`
	InterestRate  *Distribution `yaml:"interestRate,omitempty" mapstructure:"interestRate"`
	IRRThresholds []float64     `yaml:"irrThresholds,omitempty" mapstructure:"irrThresholds"`
	NPVThresholds []float64     `yaml:"npvThresholds,omitempty" mapstructure:"npvThresholds"`
	Percentiles   []float64     `yaml:"percentiles,omitempty" mapstructure:"percentiles"`
}

// IsEnabled reports whether the simulation should run.
func (m *MonteCarloConfig) IsEnabled() bool {
	return m != nil && (m.Enabled == nil || *m.Enabled)
}

// Distribution is a clipped normal. A nil Mean centres it on the deal's base
// value.
type Distribution struct {
	Mean     *float64 `yaml:"mean,omitempty" mapstructure:"mean"`
	StdDev   float64  `yaml:"stdDev" mapstructure:"stdDev"`
	Lower    float64  `yaml:"lower" mapstructure:"lower"`
	Upper    float64  `yaml:"upper" mapstructure:"upper"`
	Disabled bool     `yaml:"disabled,omitempty" mapstructure:"disabled"`
}

// SolverConfig asks for the break-even value of one deal input: the value at
// which the levered IRR meets the hurdle. Zero bounds use field defaults.
type SolverConfig struct {
	Field         string  `yaml:"field" mapstructure:"field"` // purchasePrice, monthlyRent, exitCapRate, interestRate
	Min           float64 `yaml:"min,omitempty" mapstructure:"min"`
	Max           float64 `yaml:"max,omitempty" mapstructure:"max"`
	Tolerance     float64 `yaml:"tolerance,omitempty" mapstructure:"tolerance"`
	MaxIterations int     `yaml:"maxIterations,omitempty" mapstructure:"maxIterations"`
}

// setDefaults mirrors the assumptions a small buy-to-let deal usually starts
// from, so a config only needs to state what differs.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("recorder.driver", "none")

	v.SetDefault("deal.acquisition.legalFees", 1500.0)
	v.SetDefault("deal.financing.ltv", 0.75)
	v.SetDefault("deal.financing.interestRate", 0.05)
	v.SetDefault("deal.financing.type", "interest-only")
	v.SetDefault("deal.financing.feeFraction", 0.01)
	v.SetDefault("deal.rental.growthRate", 0.02)
	v.SetDefault("deal.rental.vacancyRate", 0.05)
	v.SetDefault("deal.operating.mode", "ratio")
	v.SetDefault("deal.operating.ratio", 0.30)
	v.SetDefault("deal.exit.method", "cap-rate")
	v.SetDefault("deal.exit.capRate", 0.06)
	v.SetDefault("deal.exit.costFraction", 0.02)
	v.SetDefault("deal.discountRate", 0.08)
	v.SetDefault("deal.hurdleRate", constants.DefaultHurdleIRR)
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Environment variables prefixed with UNDERWRITE_
// override file values, e.g. UNDERWRITE_DEAL_PURCHASEPRICE.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// ParseConfiguration loads a YAML document held in memory.
func ParseConfiguration(data []byte) (*Configuration, error) {
	v := newViper()
	v.SetConfigType("yml")

	if err := v.ReadConfig(strings.NewReader(string(data))); err != nil {
		return nil, fmt.Errorf("error parsing config, %s", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	configuration.normalize()
	return &configuration, nil
}

// normalize fills in month counts given in years.
func (c *Configuration) normalize() {
	if c.Deal.HoldMonths == 0 && c.Deal.HoldYears > 0 {
		c.Deal.HoldMonths = c.Deal.HoldYears * constants.MonthsPerYear
	}
	if c.Deal.HoldMonths == 0 {
		c.Deal.HoldMonths = 5 * constants.MonthsPerYear
	}
	if c.Deal.Financing.TermMonths == 0 && c.Deal.Financing.TermYears > 0 {
		c.Deal.Financing.TermMonths = c.Deal.Financing.TermYears * constants.MonthsPerYear
	}
	if c.Deal.Financing.TermMonths == 0 {
		c.Deal.Financing.TermMonths = 25 * constants.MonthsPerYear
	}
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	d := c.Deal
	info := configprocessor.DealInfo{
		Name:           d.Name,
		StartDate:      d.StartDate,
		HoldMonths:     d.HoldMonths,
		TermMonths:     d.Financing.TermMonths,
		DebtType:       d.Financing.Type,
		LTV:            d.Financing.LTV,
		VacancyRate:    d.Rental.VacancyRate,
		ExitMethod:     d.Exit.Method,
		ExitCapRate:    d.Exit.CapRate,
		DiscountRate:   d.DiscountRate,
		HasStampDuty:   d.Acquisition.StampDuty != nil,
		ScheduleLen:    len(d.Rental.VacancySchedule),
		HasSchedule:    d.Rental.VacancySchedule != nil,
		OutputFormat:   c.Output.Format,
		RecorderDriver: c.Recorder.Driver,
	}

	for _, e := range d.CapEx {
		start := e.StartMonth
		if e.StartDate != "" && d.StartDate != "" {
			offset, err := datetime.MonthOffset(d.StartDate, e.StartDate)
			if err != nil {
				continue
			}
			start = offset
		}
		info.CapEx = append(info.CapEx, configprocessor.CapExInfo{Name: e.Name, StartMonth: start})
	}

	var scenarios []configprocessor.ScenarioInfo
	for _, s := range c.Scenarios {
		scenarios = append(scenarios, configprocessor.ScenarioInfo{Name: s.Name})
	}

	var mc *configprocessor.MonteCarloInfo
	if c.MonteCarlo.IsEnabled() {
		mc = &configprocessor.MonteCarloInfo{
			Draws:   c.MonteCarlo.Draws,
			HasSeed: c.MonteCarlo.Seed != nil,
		}
	}

	processor := configprocessor.NewProcessor()
	return processor.ValidateConfiguration(info, scenarios, mc)
}
