package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Discord        DiscordConfig        `yaml:"discord"`
	Database       DatabaseConfig       `yaml:"database"`
	Server         ServerConfig         `yaml:"server"`
	Telemetry      TelemetryConfig      `yaml:"telemetry"`
	LeaderElection LeaderElectionConfig `yaml:"leader_election"`
	Chain          ChainConfig          `yaml:"chain"`
	Auction        AuctionConfig        `yaml:"auction"`
	Genesis        GenesisConfig        `yaml:"genesis"`
}

// DiscordConfig holds Discord bot settings. The bot is disabled when Token is empty.
type DiscordConfig struct {
	Token   string `yaml:"token"`
	GuildID string `yaml:"guild_id"`
	// AdminRoleID gates the /deposit command.
	AdminRoleID string `yaml:"admin_role_id"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	Driver   string `yaml:"driver"` // "memory", "sqlx" or "ent"
}

// DSN returns the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig holds OpenTelemetry settings. Export is disabled when
// OTLPEndpoint is empty; logs then go to stderr as JSON.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	Insecure       bool   `yaml:"insecure"`
	LogLevel       string `yaml:"log_level"`
}

// LeaderElectionConfig holds Kubernetes leader election settings.
type LeaderElectionConfig struct {
	Enabled        bool          `yaml:"enabled"`
	LeaseName      string        `yaml:"lease_name"`
	LeaseNamespace string        `yaml:"lease_namespace"`
	LeaseDuration  time.Duration `yaml:"lease_duration"`
	RenewDeadline  time.Duration `yaml:"renew_deadline"`
	RetryPeriod    time.Duration `yaml:"retry_period"`
}

// ChainConfig holds block production and ledger settings.
type ChainConfig struct {
	BlockTime          time.Duration `yaml:"block_time"`
	GenesisBlock       uint32        `yaml:"genesis_block"`
	ExistentialDeposit uint64        `yaml:"existential_deposit"`
	// SnapshotInterval is the number of blocks between engine snapshots; 0 disables them.
	SnapshotInterval uint32 `yaml:"snapshot_interval"`
}

// AuctionConfig holds the auction engine policy. Durations are in blocks.
type AuctionConfig struct {
	MinAuctionDuration     uint32 `yaml:"min_auction_duration"`
	MaxAuctionDuration     uint32 `yaml:"max_auction_duration"`
	MaxAuctionDelay        uint32 `yaml:"max_auction_delay"`
	GracePeriod            uint32 `yaml:"grace_period"`
	EndingPeriod           uint32 `yaml:"ending_period"`
	BidHistorySize         uint16 `yaml:"bid_history_size"`
	ParallelAuctionLimit   int    `yaml:"parallel_auction_limit"`
	MaxCompletionsPerBlock int    `yaml:"max_completions_per_block"`
	PalletID               string `yaml:"pallet_id"`
}

// GenesisConfig seeds the store on first start.
type GenesisConfig struct {
	Balances     map[string]uint64    `yaml:"balances"`
	Series       []GenesisSeries      `yaml:"series"`
	NFTs         []GenesisNFT         `yaml:"nfts"`
	Marketplaces []GenesisMarketplace `yaml:"marketplaces"`
}

// GenesisSeries is a series created at genesis.
type GenesisSeries struct {
	ID     string `yaml:"id"`
	Owner  string `yaml:"owner"`
	Locked bool   `yaml:"locked"`
}

// GenesisNFT is an NFT minted at genesis.
type GenesisNFT struct {
	ID       uint32 `yaml:"id"`
	Owner    string `yaml:"owner"`
	SeriesID string `yaml:"series_id"`
}

// GenesisMarketplace is a marketplace created at genesis.
type GenesisMarketplace struct {
	ID            uint32   `yaml:"id"`
	Owner         string   `yaml:"owner"`
	Kind          string   `yaml:"kind"`
	CommissionFee uint8    `yaml:"commission_fee"`
	AllowList     []string `yaml:"allow_list"`
	DisallowList  []string `yaml:"disallow_list"`
}

// Default returns the configuration used before the file is applied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
			Driver:  "memory",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "auctiond",
			ServiceVersion: "0.1.0",
			LogLevel:       "info",
		},
		LeaderElection: LeaderElectionConfig{
			Enabled:        false,
			LeaseName:      "auctiond-leader",
			LeaseNamespace: "default",
			LeaseDuration:  15 * time.Second,
			RenewDeadline:  10 * time.Second,
			RetryPeriod:    2 * time.Second,
		},
		Chain: ChainConfig{
			BlockTime:          6 * time.Second,
			ExistentialDeposit: 1,
			SnapshotInterval:   600,
		},
		Auction: AuctionConfig{
			MinAuctionDuration:     14_400,  // 1 day of 6s blocks
			MaxAuctionDuration:     432_000, // 30 days
			MaxAuctionDelay:        432_000,
			GracePeriod:            100,
			EndingPeriod:           100,
			BidHistorySize:         25,
			ParallelAuctionLimit:   1_000_000,
			MaxCompletionsPerBlock: 64,
			PalletID:               "tauction",
		},
	}
}

// Load reads a YAML configuration file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "memory", "sqlx", "ent":
		// valid
	default:
		return fmt.Errorf("unsupported database driver %q: must be \"memory\", \"sqlx\" or \"ent\"", c.Database.Driver)
	}

	a := c.Auction
	var errs []error
	if a.MinAuctionDuration > a.MaxAuctionDuration {
		errs = append(errs, fmt.Errorf("auction.min_auction_duration (%d) exceeds auction.max_auction_duration (%d)",
			a.MinAuctionDuration, a.MaxAuctionDuration))
	}
	if a.BidHistorySize == 0 {
		errs = append(errs, errors.New("auction.bid_history_size must be positive"))
	}
	if a.MaxCompletionsPerBlock <= 0 {
		errs = append(errs, errors.New("auction.max_completions_per_block must be positive"))
	}
	if a.ParallelAuctionLimit <= 0 {
		errs = append(errs, errors.New("auction.parallel_auction_limit must be positive"))
	}
	if a.PalletID == "" {
		errs = append(errs, errors.New("auction.pallet_id must not be empty"))
	}
	if c.Chain.BlockTime <= 0 {
		errs = append(errs, errors.New("chain.block_time must be positive"))
	}
	for _, m := range c.Genesis.Marketplaces {
		if m.CommissionFee > 100 {
			errs = append(errs, fmt.Errorf("genesis marketplace %d: commission_fee %d exceeds 100", m.ID, m.CommissionFee))
		}
		switch m.Kind {
		case "", "public", "private":
		default:
			errs = append(errs, fmt.Errorf("genesis marketplace %d: unknown kind %q", m.ID, m.Kind))
		}
	}
	return errors.Join(errs...)
}
