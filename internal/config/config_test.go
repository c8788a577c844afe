package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jensholdgaard/auctiond/internal/config"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "valid full config",
			yaml: `
discord:
  token: "test-token"
  guild_id: "123456"
database:
  host: "db.example.com"
  port: 5433
  user: "auctiond"
  password: "secret"
  dbname: "auctions"
  sslmode: "require"
  driver: "sqlx"
server:
  port: 9090
telemetry:
  service_name: "my-node"
  otlp_endpoint: "localhost:4318"
chain:
  block_time: 2s
auction:
  min_auction_duration: 100
  max_auction_duration: 1000
  grace_period: 5
  bid_history_size: 3
genesis:
  balances:
    alice: 1000
  marketplaces:
    - id: 0
      owner: "market"
      commission_fee: 10
`,
			wantErr: false,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				if cfg.Discord.Token != "test-token" {
					t.Errorf("got token %q, want %q", cfg.Discord.Token, "test-token")
				}
				if cfg.Database.Port != 5433 {
					t.Errorf("got db port %d, want %d", cfg.Database.Port, 5433)
				}
				if cfg.Server.Port != 9090 {
					t.Errorf("got server port %d, want %d", cfg.Server.Port, 9090)
				}
				if cfg.Telemetry.ServiceName != "my-node" {
					t.Errorf("got service name %q, want %q", cfg.Telemetry.ServiceName, "my-node")
				}
				if cfg.Chain.BlockTime != 2*time.Second {
					t.Errorf("got block time %s, want 2s", cfg.Chain.BlockTime)
				}
				if cfg.Auction.MinAuctionDuration != 100 || cfg.Auction.MaxAuctionDuration != 1000 {
					t.Errorf("got durations %d..%d, want 100..1000",
						cfg.Auction.MinAuctionDuration, cfg.Auction.MaxAuctionDuration)
				}
				if cfg.Auction.BidHistorySize != 3 {
					t.Errorf("got bid history size %d, want 3", cfg.Auction.BidHistorySize)
				}
				if cfg.Genesis.Balances["alice"] != 1000 {
					t.Errorf("got alice genesis balance %d, want 1000", cfg.Genesis.Balances["alice"])
				}
				if len(cfg.Genesis.Marketplaces) != 1 || cfg.Genesis.Marketplaces[0].CommissionFee != 10 {
					t.Errorf("got genesis marketplaces %+v", cfg.Genesis.Marketplaces)
				}
			},
		},
		{
			name: "defaults applied",
			yaml: `
discord:
  token: "tok"
`,
			wantErr: false,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				if cfg.Database.Host != "localhost" {
					t.Errorf("got db host %q, want %q", cfg.Database.Host, "localhost")
				}
				if cfg.Server.Port != 8080 {
					t.Errorf("got server port %d, want %d", cfg.Server.Port, 8080)
				}
				if cfg.Telemetry.ServiceName != "auctiond" {
					t.Errorf("got service name %q, want %q", cfg.Telemetry.ServiceName, "auctiond")
				}
				if cfg.Chain.BlockTime != 6*time.Second {
					t.Errorf("got block time %s, want 6s", cfg.Chain.BlockTime)
				}
				if cfg.Auction.PalletID != "tauction" {
					t.Errorf("got pallet id %q, want %q", cfg.Auction.PalletID, "tauction")
				}
				if cfg.Auction.MaxCompletionsPerBlock != 64 {
					t.Errorf("got max completions %d, want 64", cfg.Auction.MaxCompletionsPerBlock)
				}
			},
		},
		{
			name:    "invalid yaml",
			yaml:    `{{{invalid`,
			wantErr: true,
		},
		{
			name: "ent driver accepted",
			yaml: `
database:
  driver: "ent"
`,
			wantErr: false,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				if cfg.Database.Driver != "ent" {
					t.Errorf("got driver %q, want %q", cfg.Database.Driver, "ent")
				}
			},
		},
		{
			name: "invalid driver rejected",
			yaml: `
database:
  driver: "mongodb"
`,
			wantErr: true,
		},
		{
			name: "default driver is memory",
			yaml: `
server:
  port: 8081
`,
			wantErr: false,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				if cfg.Database.Driver != "memory" {
					t.Errorf("got driver %q, want %q", cfg.Database.Driver, "memory")
				}
			},
		},
		{
			name: "min duration above max rejected",
			yaml: `
auction:
  min_auction_duration: 500
  max_auction_duration: 100
`,
			wantErr: true,
		},
		{
			name: "zero bid history rejected",
			yaml: `
auction:
  bid_history_size: 0
`,
			wantErr: true,
		},
		{
			name: "zero completions per block rejected",
			yaml: `
auction:
  max_completions_per_block: 0
`,
			wantErr: true,
		},
		{
			name: "commission fee above 100 rejected",
			yaml: `
genesis:
  marketplaces:
    - id: 1
      owner: "m"
      commission_fee: 150
`,
			wantErr: true,
		},
		{
			name: "unknown marketplace kind rejected",
			yaml: `
genesis:
  marketplaces:
    - id: 1
      owner: "m"
      kind: "secret"
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o644); err != nil {
				t.Fatal(err)
			}

			cfg, err := config.Load(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && cfg != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := config.Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "user",
		Password: "pass",
		DBName:   "testdb",
		SSLMode:  "disable",
	}
	want := "host=localhost port=5432 user=user password=pass dbname=testdb sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
