// Package constants provides shared constants for the underwriting engine.
package constants

// DateTimeLayout is the format expected in config files for the projection
// start month and is also the output period label format.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// BasisPoint is one hundredth of a percent expressed as a fraction.
	BasisPoint = 0.0001
)

// Solver defaults for the IRR root finder.
const (
	// DefaultNPVTolerance is the absolute NPV at which the solver accepts a rate.
	DefaultNPVTolerance = 1e-7

	// DefaultRateTolerance is the bracket width at which the solver accepts a rate.
	DefaultRateTolerance = 1e-14

	// DefaultMaxIterations bounds the refinement loop.
	DefaultMaxIterations = 200

	// DefaultMaxBracketExpansions bounds the upper-bound doubling search.
	DefaultMaxBracketExpansions = 60

	// MinPeriodicRate is the lower edge of the IRR search bracket.
	MinPeriodicRate = -0.9999
)

// Monte Carlo defaults
const (
	// DefaultDraws is the number of simulations run when none is configured.
	DefaultDraws = 2000

	// DefaultHurdleIRR is the IRR threshold used when the deal sets none.
	DefaultHurdleIRR = 0.12
)

// DefaultPercentiles are reported for every Monte Carlo distribution.
var DefaultPercentiles = []float64{5, 25, 50, 75, 95}

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the machine-readable export format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. UNDERWRITE_DEAL_PURCHASEPRICE.
	EnvPrefix = "UNDERWRITE"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// BalanceTolerance is the tolerance below which a loan balance is treated as repaid.
	BalanceTolerance = 1e-6

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)
