package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gagliardetto/solana-go"

	"escrowswap/core/runtime"
	"escrowswap/native/escrow"
	"escrowswap/native/token"
)

type RentConfig struct {
	LamportsPerByteYear uint64 `toml:"LamportsPerByteYear"`
	ExemptionYears      uint64 `toml:"ExemptionYears"`
}

type LogConfig struct {
	Level string `toml:"Level"`
	File  string `toml:"File,omitempty"`
	Env   string `toml:"Env,omitempty"`
}

type MetricsConfig struct {
	// ListenAddress serves /metrics when non-empty.
	ListenAddress string `toml:"ListenAddress,omitempty"`
}

type TelemetryConfig struct {
	Endpoint string `toml:"Endpoint,omitempty"`
	Insecure bool   `toml:"Insecure"`
	Headers  string `toml:"Headers,omitempty"`
	Traces   bool   `toml:"Traces"`
	Metrics  bool   `toml:"Metrics"`
}

type IndexConfig struct {
	// Path of the SQLite escrow index. Relative paths resolve against DataDir.
	Path string `toml:"Path"`
}

type APIConfig struct {
	// ListenAddress of the index query API started by the serve command.
	ListenAddress     string  `toml:"ListenAddress"`
	RequestsPerMinute float64 `toml:"RequestsPerMinute"`
	Burst             int     `toml:"Burst"`
}

type Config struct {
	DataDir          string          `toml:"DataDir"`
	KeystoreDir      string          `toml:"KeystoreDir"`
	EscrowProgramID  string          `toml:"EscrowProgramID"`
	CustodyProgramID string          `toml:"CustodyProgramID"`
	Rent             RentConfig      `toml:"rent"`
	Log              LogConfig       `toml:"log"`
	Metrics          MetricsConfig   `toml:"metrics"`
	Telemetry        TelemetryConfig `toml:"telemetry"`
	Index            IndexConfig     `toml:"index"`
	API              APIConfig       `toml:"api"`
}

// Default returns the configuration written for a fresh installation.
func Default() *Config {
	rent := runtime.DefaultRent()
	return &Config{
		DataDir:          "./escrow-data",
		KeystoreDir:      "./escrow-data/keys",
		EscrowProgramID:  escrow.DefaultProgramID.String(),
		CustodyProgramID: token.ProgramID.String(),
		Rent: RentConfig{
			LamportsPerByteYear: rent.LamportsPerByteYear,
			ExemptionYears:      rent.ExemptionYears,
		},
		Log:   LogConfig{Level: "info"},
		Index: IndexConfig{Path: "index.db"},
		API:   APIConfig{ListenAddress: "127.0.0.1:8088", RequestsPerMinute: 120, Burst: 20},
	}
}

// Load reads the configuration at path, creating it with defaults when it
// does not exist. Missing fields take their default values.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: unknown field %q in %s", undecoded[0].String(), path)
	}
	cfg.normalize()
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.DataDir = strings.TrimSpace(c.DataDir)
	c.KeystoreDir = strings.TrimSpace(c.KeystoreDir)
	if c.KeystoreDir == "" {
		c.KeystoreDir = filepath.Join(c.DataDir, "keys")
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if strings.TrimSpace(c.Index.Path) == "" {
		c.Index.Path = "index.db"
	}
}

// LedgerPath is the directory of the LevelDB account store.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.DataDir, "ledger")
}

// IndexPath resolves the escrow index database path.
func (c *Config) IndexPath() string {
	if filepath.IsAbs(c.Index.Path) {
		return c.Index.Path
	}
	return filepath.Join(c.DataDir, c.Index.Path)
}

// EscrowProgram returns the configured escrow program address.
func (c *Config) EscrowProgram() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(c.EscrowProgramID)
}

// CustodyProgram returns the configured custody program address.
func (c *Config) CustodyProgram() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(c.CustodyProgramID)
}

// RentParams converts the rent section for the runtime.
func (c *Config) RentParams() runtime.Rent {
	return runtime.Rent{
		LamportsPerByteYear: c.Rent.LamportsPerByteYear,
		ExemptionYears:      c.Rent.ExemptionYears,
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
