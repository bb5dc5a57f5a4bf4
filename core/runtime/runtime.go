package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"escrowswap/core/events"
	"escrowswap/core/state"
	"escrowswap/core/types"
	"escrowswap/observability/metrics"
)

var errNilTransaction = errors.New("runtime: nil transaction")

// Program is an on-ledger program. Process runs one instruction addressed to
// the program; returning an error aborts the whole transaction.
type Program interface {
	Process(ctx *Context, accounts []*AccountInfo, data []byte) error
}

// ProgramFunc adapts a function to the Program interface.
type ProgramFunc func(ctx *Context, accounts []*AccountInfo, data []byte) error

// Process implements Program.
func (f ProgramFunc) Process(ctx *Context, accounts []*AccountInfo, data []byte) error {
	return f(ctx, accounts, data)
}

// Receipt describes a committed transaction.
type Receipt struct {
	Hash   [32]byte
	Logs   []string
	Events []*types.Event
}

// Runtime executes transactions against the committed ledger state. It
// serializes transactions: one executes at a time, and each either commits
// all of its effects in one batch or none of them.
type Runtime struct {
	mu       sync.Mutex
	state    *state.Manager
	programs map[solana.PublicKey]Program
	rent     Rent
	emitter  events.Emitter
	logger   *slog.Logger
	metrics  *metrics.LedgerMetrics
	tracer   trace.Tracer
	otelTx   *txInstruments
}

// New creates a runtime over st with the system program registered.
func New(st *state.Manager) *Runtime {
	r := &Runtime{
		state:    st,
		programs: make(map[solana.PublicKey]Program),
		rent:     DefaultRent(),
		emitter:  events.NoopEmitter{},
		logger:   slog.Default(),
		tracer:   otel.Tracer("escrowswap/core/runtime"),
		otelTx:   newTxInstruments(otel.GetMeterProvider()),
	}
	r.programs[solana.SystemProgramID] = SystemProgram{}
	return r
}

// Register installs program under id, replacing any previous registration.
func (r *Runtime) Register(id solana.PublicKey, program Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.programs[id] = program
}

// SetRent configures the rent parameters.
func (r *Runtime) SetRent(rent Rent) { r.rent = rent }

// Rent returns the configured rent parameters.
func (r *Runtime) Rent() Rent { return r.rent }

// SetEmitter configures where committed events go. Passing nil discards them.
func (r *Runtime) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetLogger overrides the logger. Passing nil restores slog.Default().
func (r *Runtime) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	r.logger = logger
}

// SetMetrics enables Prometheus instrumentation.
func (r *Runtime) SetMetrics(m *metrics.LedgerMetrics) { r.metrics = m }

// SetMeterProvider rebinds the OpenTelemetry instruments. New binds them to
// the global provider.
func (r *Runtime) SetMeterProvider(provider metric.MeterProvider) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	r.otelTx = newTxInstruments(provider)
}

// State exposes the committed state manager.
func (r *Runtime) State() *state.Manager { return r.state }

// Account returns the committed account under key, or nil.
func (r *Runtime) Account(key solana.PublicKey) (*types.Account, error) {
	return r.state.GetAccount(key)
}

func (r *Runtime) program(id solana.PublicKey) (Program, bool) {
	p, ok := r.programs[id]
	return p, ok
}

// Execute verifies and runs tx. On failure nothing is persisted and the
// returned error is a *TransactionError.
func (r *Runtime) Execute(ctx context.Context, tx *types.Transaction) (*Receipt, error) {
	if tx == nil {
		return nil, &TransactionError{Index: -1, Code: ErrInvalidArgument, Cause: errNilTransaction}
	}
	ctx, span := r.tracer.Start(ctx, "runtime.Execute",
		trace.WithAttributes(attribute.Int("instructions", len(tx.Instructions))))
	defer span.End()

	start := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	receipt, err := r.execute(ctx, tx)
	outcome := "committed"
	if err != nil {
		outcome = "aborted"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("transaction aborted", "error", err.Error())
	}
	elapsed := time.Since(start)
	r.metrics.ObserveTransaction(outcome, elapsed)
	r.otelTx.record(ctx, outcome, elapsed)
	return receipt, err
}

func (r *Runtime) execute(ctx context.Context, tx *types.Transaction) (*Receipt, error) {
	if err := tx.VerifySignatures(); err != nil {
		return nil, &TransactionError{Index: -1, Code: ErrMissingRequiredSignature, Cause: err}
	}
	hash, err := tx.Hash()
	if err != nil {
		return nil, &TransactionError{Index: -1, Code: ErrInvalidArgument, Cause: err}
	}
	seen, err := r.state.HasTransaction(hash)
	if err != nil {
		return nil, &TransactionError{Index: -1, Code: ErrInvalidArgument, Cause: err}
	}
	if seen {
		return nil, &TransactionError{Index: -1, Code: ErrAlreadyProcessed, Cause: ErrAlreadyProcessed}
	}

	ws := newWorkingSet(r.state, r.programs)
	rec := &recorder{}
	for i, ix := range tx.Instructions {
		if err := r.executeInstruction(ctx, ws, rec, tx, ix); err != nil {
			r.metrics.ObserveInstruction(ix.ProgramID.String(), "error")
			return nil, &TransactionError{Index: i, Program: ix.ProgramID, Code: AsProgramError(err), Cause: err}
		}
		r.metrics.ObserveInstruction(ix.ProgramID.String(), "ok")
	}
	if err := ws.checkRent(r.rent); err != nil {
		return nil, &TransactionError{Index: -1, Code: ErrInsufficientFundsForRent, Cause: err}
	}
	if err := r.state.Commit(ws.dirty(), &hash); err != nil {
		if errors.Is(err, state.ErrDuplicateTx) {
			return nil, &TransactionError{Index: -1, Code: ErrAlreadyProcessed, Cause: err}
		}
		return nil, &TransactionError{Index: -1, Code: ErrInvalidArgument, Cause: fmt.Errorf("runtime: commit: %w", err)}
	}
	for _, evt := range rec.events {
		r.emitter.Emit(evt)
	}
	r.logger.Debug("transaction committed", "instructions", len(tx.Instructions), "events", len(rec.events))
	return &Receipt{Hash: hash, Logs: rec.logs, Events: rec.events}, nil
}

func (r *Runtime) executeInstruction(ctx context.Context, ws *workingSet, rec *recorder, tx *types.Transaction, ix types.Instruction) error {
	program, ok := r.program(ix.ProgramID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedProgram, ix.ProgramID)
	}
	infos := make([]*AccountInfo, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		if meta.IsSigner && !tx.HasSigner(meta.PublicKey) {
			return fmt.Errorf("%w: %s", ErrMissingRequiredSignature, meta.PublicKey)
		}
		acc, err := ws.load(meta.PublicKey)
		if err != nil {
			return err
		}
		infos[i] = &AccountInfo{
			key:      meta.PublicKey,
			signer:   meta.IsSigner,
			writable: meta.IsWritable,
			acc:      acc,
		}
	}
	f := newFrame(ix.ProgramID, infos)
	ictx := &Context{ctx: ctx, rt: r, ws: ws, frame: f, rec: rec}
	if err := program.Process(ictx, infos, ix.Data); err != nil {
		return err
	}
	return f.verify()
}
