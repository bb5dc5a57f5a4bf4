package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"escrowswap/cmd/internal/passphrase"
	"escrowswap/config"
	"escrowswap/core/events"
	"escrowswap/core/runtime"
	"escrowswap/core/state"
	"escrowswap/core/types"
	"escrowswap/native/escrow"
	"escrowswap/native/token"
	"escrowswap/observability/logging"
	"escrowswap/observability/metrics"
	"escrowswap/observability/otel"
	"escrowswap/services/escrowindex"
	"escrowswap/storage"
)

const (
	serviceName         = "escrow-cli"
	keystorePassEnv     = "ESCROW_KEYSTORE_PASS"
	keystorePassFileEnv = "ESCROW_KEYSTORE_PASS_FILE"
	envVar              = "ESCROW_ENV"
)

// app holds the resources shared by every command. Ledger resources are
// opened on first use and released by close.
type app struct {
	configPath string
	stdout     io.Writer
	stderr     io.Writer

	cfg       *config.Config
	logger    *slog.Logger
	pass      *passphrase.Source
	shutdown  otel.ShutdownFunc
	metricSrv *http.Server

	db      storage.Database
	index   *escrowindex.Index
	runtime *runtime.Runtime
	client  escrow.Client
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{stdout: stdout, stderr: stderr, pass: passphrase.NewSource(keystorePassEnv, keystorePassFileEnv)}
	defer a.close()
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "escrow-cli",
		Short:         "Create, take and refund atomic swap escrows on a local ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "./escrow.toml", "Path to the configuration file")

	root.AddCommand(
		newKeygenCmd(a),
		newAirdropCmd(a),
		newBalanceCmd(a),
		newMintCmd(a),
		newHoldingCmd(a),
		newMakeCmd(a),
		newTakeCmd(a),
		newRefundCmd(a),
		newShowCmd(a),
		newListCmd(a),
		newServeCmd(a),
	)
	return root
}

// init loads the configuration and starts the ambient services: logging,
// telemetry and the metrics endpoint.
func (a *app) init(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	env := strings.TrimSpace(os.Getenv(envVar))
	if cfg.Log.Env != "" {
		env = cfg.Log.Env
	}
	a.logger = logging.SetupWriter(a.stderr, serviceName, env, logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})

	tel := cfg.Telemetry
	if tel.Traces || tel.Metrics {
		shutdown, err := otel.Init(ctx, otel.Config{
			ServiceName: serviceName,
			Environment: env,
			Endpoint:    tel.Endpoint,
			Insecure:    tel.Insecure,
			Headers:     otel.ParseHeaders(tel.Headers),
			Traces:      tel.Traces,
			Metrics:     tel.Metrics,
		})
		if err != nil {
			return err
		}
		a.shutdown = shutdown
	}

	if addr := strings.TrimSpace(cfg.Metrics.ListenAddress); addr != "" {
		if err := a.serveMetrics(addr); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	a.metricSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.metricSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", slog.Any("error", err))
		}
	}()
	a.logger.Info("serving metrics", slog.String("address", ln.Addr().String()))
	return nil
}

// ledger opens the account store, the escrow index and the runtime.
func (a *app) ledger() (*runtime.Runtime, error) {
	if a.runtime != nil {
		return a.runtime, nil
	}
	if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare data directory: %w", err)
	}
	db, err := storage.NewLevelDB(a.cfg.LedgerPath())
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	a.db = db

	index, err := escrowindex.Open(a.cfg.IndexPath())
	if err != nil {
		return nil, err
	}
	index.SetLogger(a.logger)
	a.index = index
	open, err := index.CountOpen()
	if err != nil {
		return nil, fmt.Errorf("count open escrows: %w", err)
	}
	metrics.Ledger().SetOpenEscrows(open)

	custodyID := a.cfg.CustodyProgram()
	custody := token.NewProgram()
	custody.SetLogger(a.logger)
	program := escrow.NewProgram(a.cfg.EscrowProgram(), custodyID)
	program.SetLogger(a.logger)

	rt := runtime.New(state.NewManager(db))
	rt.SetRent(a.cfg.RentParams())
	rt.SetLogger(a.logger)
	rt.SetMetrics(metrics.Ledger())
	rt.Register(custodyID, custody)
	rt.Register(token.AssociatedProgramID, token.AssociatedProgram{})
	rt.Register(program.ID(), program)
	rt.SetEmitter(events.Multi{index, escrow.MetricsEmitter{Metrics: metrics.Ledger()}})

	a.runtime = rt
	a.client = escrow.Client{ProgramID: program.ID(), Custody: custodyID}
	return rt, nil
}

// submit signs ixs with signers and executes them.
func (a *app) submit(ctx context.Context, signers []solana.PrivateKey, ixs ...types.Instruction) (*runtime.Receipt, error) {
	rt, err := a.ledger()
	if err != nil {
		return nil, err
	}
	tx := &types.Transaction{Nonce: uint64(time.Now().UnixNano()), Instructions: ixs}
	for _, key := range signers {
		tx.Signers = append(tx.Signers, key.PublicKey())
	}
	if err := tx.Sign(signers...); err != nil {
		return nil, err
	}
	receipt, err := rt.Execute(ctx, tx)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(a.stdout, "Transaction: %x\n", receipt.Hash)
	return receipt, nil
}

func (a *app) keystorePath(name string) string {
	return filepath.Join(a.cfg.KeystoreDir, name+".json")
}

func (a *app) close() {
	if a.metricSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = a.metricSrv.Shutdown(ctx)
		cancel()
	}
	if a.index != nil {
		_ = a.index.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.shutdown(ctx); err != nil && a.logger != nil {
			a.logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
		cancel()
	}
}
