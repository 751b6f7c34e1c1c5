package ops

import (
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"papertrade/internal/catalog"
	"papertrade/internal/chaos"
	"papertrade/internal/ledger"
	"papertrade/internal/mdg"
	"papertrade/internal/risk"
	"papertrade/internal/schema"
	"papertrade/pkg/conn"
)

const (
	DefaultAPIAddr      = ":8080"
	DefaultQueueSize    = 1024
	DefaultReadTimeout  = 5 * time.Second
	DefaultWriteTimeout = 10 * time.Second
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Store       conn.Option        `json:"store"`
	Ledger      LedgerConfig       `json:"ledger"`
	Simulator   SimulatorConfig    `json:"simulator"`
	Risk        RiskConfig         `json:"risk"`
	Instruments []InstrumentConfig `json:"instruments"`
	Chaos       ChaosConfig        `json:"chaos"`
	API         APIConfig          `json:"api"`
	Profiling   ProfilingConfig    `json:"profiling"`
	Features    FeatureFlagsConfig `json:"features"`
}

// LedgerConfig configures account defaults and locking.
type LedgerConfig struct {
	SeedCash    decimal.Decimal `json:"seedCash"`
	Currency    string          `json:"currency"`
	LockTimeout Duration        `json:"lockTimeout"`
	QueueSize   int             `json:"queueSize"`
}

// SimulatorConfig configures the price walk.
type SimulatorConfig struct {
	Interval       Duration `json:"interval"`
	MinInterval    Duration `json:"minInterval"`
	Seed           int64    `json:"seed"`
	MeanReversion  float64  `json:"meanReversion"`
	TrendAmplitude float64  `json:"trendAmplitude"`
}

// RiskConfig defines pre-trade order limits.
type RiskConfig struct {
	KillSwitch       bool            `json:"killSwitch"`
	MaxOrderQty      int64           `json:"maxOrderQty"`
	MaxOrderNotional decimal.Decimal `json:"maxOrderNotional"`
	OrderRateLimit   int             `json:"orderRateLimit"`
	OrderRateWindow  Duration        `json:"orderRateWindow"`
}

// InstrumentConfig describes a tradable instrument.
type InstrumentConfig struct {
	Symbol     string                 `json:"symbol"`
	Name       string                 `json:"name"`
	Price      decimal.Decimal        `json:"price"`
	Volatility schema.VolatilityClass `json:"volatility"`
	Risk       schema.RiskProfile     `json:"risk"`
	Active     *bool                  `json:"active"`
}

// ChaosConfig configures commit fault injection.
type ChaosConfig struct {
	Seed     int64    `json:"seed"`
	FailRate float64  `json:"failRate"`
	MaxDelay Duration `json:"maxDelay"`
}

// APIConfig configures the HTTP listener.
type APIConfig struct {
	Addr         string   `json:"addr"`
	ReadTimeout  Duration `json:"readTimeout"`
	WriteTimeout Duration `json:"writeTimeout"`
}

// ProfilingConfig configures continuous profiling.
type ProfilingConfig struct {
	Enabled         bool              `json:"enabled"`
	ServerAddress   string            `json:"serverAddress"`
	ApplicationName string            `json:"applicationName"`
	Tags            map[string]string `json:"tags"`
}

// FeatureFlagsConfig captures optional runtime flags.
type FeatureFlagsConfig struct {
	EnableSimulator    *bool `json:"enableSimulator"`
	EnableAchievements *bool `json:"enableAchievements"`
	EnableChaos        *bool `json:"enableChaos"`
}

// FeatureFlags are resolved runtime flags.
type FeatureFlags struct {
	EnableSimulator    bool
	EnableAchievements bool
	EnableChaos        bool
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Store       conn.Option
	Ledger      ledger.Config
	Currency    string
	QueueSize   int
	Simulator   mdg.Config
	Risk        risk.Config
	Instruments []schema.Instrument
	Chaos       chaos.Config
	API         APISettings
	Profiling   ProfilingConfig
	Features    FeatureFlags
}

// APISettings is the resolved HTTP listener config.
type APISettings struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Load reads a JSON config file. An empty path resolves the defaults.
func Load(path string) (Loaded, error) {
	if path == "" {
		return Resolve(FileConfig{})
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "read config").With("path", path)
	}
	return Parse(data)
}

// Parse decodes and resolves a JSON config.
func Parse(data []byte) (Loaded, error) {
	var cfg FileConfig
	if err := sonic.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, errors.Wrap(err, "decode config")
	}
	return Resolve(cfg)
}

// Resolve validates a file config and fills in defaults.
func Resolve(cfg FileConfig) (Loaded, error) {
	ledgerCfg, err := resolveLedger(cfg.Ledger)
	if err != nil {
		return Loaded{}, err
	}
	simCfg, err := resolveSimulator(cfg.Simulator)
	if err != nil {
		return Loaded{}, err
	}
	riskCfg, err := resolveRisk(cfg.Risk)
	if err != nil {
		return Loaded{}, err
	}
	instruments, err := resolveInstruments(cfg.Instruments)
	if err != nil {
		return Loaded{}, err
	}
	chaosCfg := chaos.Config{Seed: cfg.Chaos.Seed, FailRate: cfg.Chaos.FailRate, MaxDelay: cfg.Chaos.MaxDelay.Duration()}
	if err := chaosCfg.Validate(); err != nil {
		return Loaded{}, err
	}
	store, err := resolveStore(cfg.Store)
	if err != nil {
		return Loaded{}, err
	}

	currency := strings.ToUpper(strings.TrimSpace(cfg.Ledger.Currency))
	if currency == "" {
		currency = schema.DefaultCurrency
	}
	if !schema.KnownCurrency(currency) {
		return Loaded{}, errors.Errorf("unknown currency: %s", currency)
	}
	queueSize := cfg.Ledger.QueueSize
	if queueSize < 0 {
		return Loaded{}, errors.Errorf("ledger queueSize must be >= 0")
	}
	if queueSize == 0 {
		queueSize = DefaultQueueSize
	}

	return Loaded{
		Store:       store,
		Ledger:      ledgerCfg,
		Currency:    currency,
		QueueSize:   queueSize,
		Simulator:   simCfg,
		Risk:        riskCfg,
		Instruments: instruments,
		Chaos:       chaosCfg,
		API:         resolveAPI(cfg.API),
		Profiling:   resolveProfiling(cfg.Profiling),
		Features:    resolveFeatures(cfg.Features, chaosCfg),
	}, nil
}

func resolveStore(cfg conn.Option) (conn.Option, error) {
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch cfg.Driver {
	case "":
		cfg.Driver = conn.DriverSQLite
	case conn.DriverPostgres, conn.DriverSQLite:
	default:
		return conn.Option{}, errors.Errorf("unsupported store driver: %s", cfg.Driver)
	}
	return cfg, nil
}

func resolveLedger(cfg LedgerConfig) (ledger.Config, error) {
	if cfg.SeedCash.Sign() < 0 {
		return ledger.Config{}, errors.Errorf("ledger seedCash must be >= 0")
	}
	if !cfg.SeedCash.Equal(cfg.SeedCash.Round(ledger.MoneyScale)) {
		return ledger.Config{}, errors.Errorf("ledger seedCash has more than %d decimal places", ledger.MoneyScale)
	}
	if cfg.LockTimeout < 0 {
		return ledger.Config{}, errors.Errorf("ledger lockTimeout must be >= 0")
	}
	out := ledger.Config{SeedCash: cfg.SeedCash, LockTimeout: cfg.LockTimeout.Duration()}
	if out.SeedCash.IsZero() {
		out.SeedCash = ledger.DefaultSeedCash
	}
	if out.LockTimeout == 0 {
		out.LockTimeout = ledger.DefaultLockTimeout
	}
	return out, nil
}

func resolveSimulator(cfg SimulatorConfig) (mdg.Config, error) {
	if cfg.Interval < 0 || cfg.MinInterval < 0 {
		return mdg.Config{}, errors.Errorf("simulator intervals must be >= 0")
	}
	if cfg.MeanReversion < 0 || cfg.MeanReversion > 1 {
		return mdg.Config{}, errors.Errorf("simulator meanReversion must be between 0 and 1")
	}
	if cfg.TrendAmplitude < 0 {
		return mdg.Config{}, errors.Errorf("simulator trendAmplitude must be >= 0")
	}
	out := mdg.Config{
		Interval:    cfg.Interval.Duration(),
		MinInterval: cfg.MinInterval.Duration(),
		Generator: mdg.GeneratorConfig{
			Seed:           cfg.Seed,
			MeanReversion:  cfg.MeanReversion,
			TrendAmplitude: cfg.TrendAmplitude,
		},
	}
	if out.MinInterval == 0 {
		out.MinInterval = mdg.DefaultMinInterval
	}
	if out.Interval == 0 {
		out.Interval = mdg.DefaultInterval
	}
	if out.Interval < out.MinInterval {
		out.Interval = out.MinInterval
	}
	return out, nil
}

func resolveRisk(cfg RiskConfig) (risk.Config, error) {
	if cfg.MaxOrderQty < 0 || cfg.OrderRateLimit < 0 || cfg.OrderRateWindow < 0 {
		return risk.Config{}, errors.Errorf("risk limits must be >= 0")
	}
	if cfg.MaxOrderNotional.Sign() < 0 {
		return risk.Config{}, errors.Errorf("risk maxOrderNotional must be >= 0")
	}
	if cfg.OrderRateLimit > 0 && cfg.OrderRateWindow == 0 {
		return risk.Config{}, errors.Errorf("risk orderRateWindow is required with orderRateLimit")
	}
	return risk.Config{
		KillSwitch:       cfg.KillSwitch,
		MaxOrderQty:      cfg.MaxOrderQty,
		MaxOrderNotional: cfg.MaxOrderNotional,
		OrderRateLimit:   cfg.OrderRateLimit,
		OrderRateWindow:  cfg.OrderRateWindow.Duration(),
	}, nil
}

func resolveInstruments(cfg []InstrumentConfig) ([]schema.Instrument, error) {
	if len(cfg) == 0 {
		return catalog.Defaults(), nil
	}
	seen := make(map[string]bool, len(cfg))
	out := make([]schema.Instrument, 0, len(cfg))
	for _, ic := range cfg {
		symbol := strings.ToUpper(strings.TrimSpace(ic.Symbol))
		if symbol == "" {
			return nil, errors.Errorf("instrument symbol is empty")
		}
		if seen[symbol] {
			return nil, errors.Errorf("duplicate instrument: %s", symbol)
		}
		seen[symbol] = true
		if ic.Price.Sign() <= 0 {
			return nil, errors.Errorf("instrument %s price must be > 0", symbol)
		}
		active := true
		if ic.Active != nil {
			active = *ic.Active
		}
		price := ic.Price.Round(mdg.PriceScale)
		out = append(out, schema.Instrument{
			Symbol:     symbol,
			Name:       ic.Name,
			Price:      price,
			PrevPrice:  price,
			Volatility: ic.Volatility,
			Risk:       ic.Risk,
			Active:     active,
		})
	}
	return out, nil
}

func resolveAPI(cfg APIConfig) APISettings {
	out := APISettings{
		Addr:         strings.TrimSpace(cfg.Addr),
		ReadTimeout:  cfg.ReadTimeout.Duration(),
		WriteTimeout: cfg.WriteTimeout.Duration(),
	}
	if out.Addr == "" {
		out.Addr = DefaultAPIAddr
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = DefaultReadTimeout
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = DefaultWriteTimeout
	}
	return out
}

func resolveProfiling(cfg ProfilingConfig) ProfilingConfig {
	if cfg.ServerAddress == "" {
		cfg.ServerAddress = "http://localhost:4040"
	}
	if cfg.ApplicationName == "" {
		cfg.ApplicationName = "papertrade"
	}
	return cfg
}

func resolveFeatures(cfg FeatureFlagsConfig, chaosCfg chaos.Config) FeatureFlags {
	flags := FeatureFlags{
		EnableSimulator:    true,
		EnableAchievements: true,
		EnableChaos:        chaosCfg.Enabled(),
	}
	if cfg.EnableSimulator != nil {
		flags.EnableSimulator = *cfg.EnableSimulator
	}
	if cfg.EnableAchievements != nil {
		flags.EnableAchievements = *cfg.EnableAchievements
	}
	if cfg.EnableChaos != nil {
		flags.EnableChaos = *cfg.EnableChaos && chaosCfg.Enabled()
	}
	return flags
}
