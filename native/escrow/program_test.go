package escrow_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"escrowswap/core/events"
	"escrowswap/core/runtime"
	"escrowswap/core/types"
	"escrowswap/internal/ledgertest"
	"escrowswap/native/escrow"
	"escrowswap/native/token"
	"escrowswap/observability/metrics"
	"escrowswap/storage"
)

const funding = 1_000_000_000

type swap struct {
	t         *testing.T
	l         *ledgertest.Ledger
	client    escrow.Client
	collector *events.Collector

	authority solana.PrivateKey
	maker     solana.PrivateKey
	taker     solana.PrivateKey

	mintA, mintB   solana.PublicKey
	makerA, makerB solana.PublicKey
	takerA, takerB solana.PublicKey
}

func install(l *ledgertest.Ledger) (escrow.Client, *events.Collector) {
	program := escrow.NewProgram(escrow.DefaultProgramID, l.Custody)
	l.Runtime.Register(program.ID(), program)
	collector := &events.Collector{}
	l.Runtime.SetEmitter(events.Multi{collector, escrow.MetricsEmitter{Metrics: metrics.Ledger()}})
	return escrow.Client{ProgramID: program.ID(), Custody: l.Custody}, collector
}

func newSwap(t *testing.T) *swap {
	t.Helper()
	l := ledgertest.New(t)
	client, collector := install(l)
	s := &swap{t: t, l: l, client: client, collector: collector}
	s.authority = l.Fund(funding)
	s.maker = l.Fund(funding)
	s.taker = l.Fund(funding)
	s.mintA = l.CreateMint(s.authority, 6)
	s.mintB = l.CreateMint(s.authority, 6)
	s.makerA = l.CreateHolding(s.authority, s.maker.PublicKey(), s.mintA)
	s.makerB = l.CreateHolding(s.authority, s.maker.PublicKey(), s.mintB)
	s.takerA = l.CreateHolding(s.authority, s.taker.PublicKey(), s.mintA)
	s.takerB = l.CreateHolding(s.authority, s.taker.PublicKey(), s.mintB)
	l.MintTo(s.authority, s.mintA, s.makerA, 1_000)
	l.MintTo(s.authority, s.mintB, s.takerB, 1_000)
	return s
}

func (s *swap) makeIx(amount, seed uint64) types.Instruction {
	s.t.Helper()
	ix, err := s.client.Make(escrow.MakeParams{
		Maker: s.maker.PublicKey(), MintA: s.mintA, MintB: s.mintB, Amount: amount, Seed: seed,
	})
	require.NoError(s.t, err)
	return ix
}

func (s *swap) takeIx(amount, seed uint64) types.Instruction {
	s.t.Helper()
	ix, err := s.client.Take(escrow.TakeParams{
		Taker: s.taker.PublicKey(), Maker: s.maker.PublicKey(),
		MintA: s.mintA, MintB: s.mintB, Amount: amount, Seed: seed,
	})
	require.NoError(s.t, err)
	return ix
}

func (s *swap) refundIx(amount, seed uint64) types.Instruction {
	s.t.Helper()
	ix, err := s.client.Refund(escrow.RefundParams{
		Maker: s.maker.PublicKey(), MintA: s.mintA, Amount: amount, Seed: seed,
	})
	require.NoError(s.t, err)
	return ix
}

func (s *swap) addresses(seed uint64) (solana.PublicKey, solana.PublicKey) {
	s.t.Helper()
	e, v, err := s.client.Addresses(s.maker.PublicKey(), seed)
	require.NoError(s.t, err)
	return e, v
}

func (s *swap) asMaker(ix types.Instruction) error {
	_, err := s.l.Exec([]solana.PrivateKey{s.maker}, ix)
	return err
}

func (s *swap) asTaker(ix types.Instruction) error {
	_, err := s.l.Exec([]solana.PrivateKey{s.taker}, ix)
	return err
}

func requireCode(t *testing.T, err error, code runtime.ProgramError) {
	t.Helper()
	var txErr *runtime.TransactionError
	require.True(t, errors.As(err, &txErr), "expected transaction error, got %v", err)
	require.Equal(t, code, txErr.Code)
}

func TestMakeLocksAssetInVault(t *testing.T) {
	s := newSwap(t)
	require.NoError(t, s.asMaker(s.makeIx(100, 1)))

	escrowKey, vaultKey := s.addresses(1)
	acc := s.l.Account(escrowKey)
	require.NotNil(t, acc)
	require.Equal(t, escrow.DefaultProgramID, acc.Owner)
	require.Equal(t, s.l.Runtime.Rent().MinimumBalance(escrow.RecordSize), acc.Lamports)

	record, state, err := escrow.ParseRecord(acc.Data)
	require.NoError(t, err)
	require.Equal(t, escrow.StateOpen, state)
	require.Equal(t, escrow.Discriminator[:], acc.Data[:8])
	require.Equal(t, uint64(100), record.Amount)
	require.Equal(t, s.maker.PublicKey(), record.Maker)
	require.Equal(t, s.mintA, record.MintA)
	require.Equal(t, s.mintB, record.MintB)
	require.Equal(t, s.makerB, record.ReceiveAccount)

	_, bump, err := escrow.FindEscrowAddress(escrow.DefaultProgramID, s.maker.PublicKey(), 1)
	require.NoError(t, err)
	require.Equal(t, bump, record.Bump)

	require.Equal(t, uint64(100), s.l.Balance(vaultKey))
	require.Equal(t, uint64(900), s.l.Balance(s.makerA))
	vault, err := token.UnpackHolding(s.l.Account(vaultKey).Data)
	require.NoError(t, err)
	require.Equal(t, vaultKey, vault.Owner)
	require.Equal(t, s.mintA, vault.Mint)

	require.Equal(t, []string{escrow.EventTypeMade}, s.collector.Types())
	evt := s.collector.Events()[0].(*types.Event)
	require.Equal(t, escrowKey.String(), evt.Attr("escrow"))
	require.Equal(t, "100", evt.Attr("amount"))
}

func TestTakeSettlesBothLegsAndReclaimsStorage(t *testing.T) {
	s := newSwap(t)
	require.NoError(t, s.asMaker(s.makeIx(100, 1)))
	escrowKey, vaultKey := s.addresses(1)
	reclaimed := s.l.Lamports(escrowKey) + s.l.Lamports(vaultKey)
	takerLamports := s.l.Lamports(s.taker.PublicKey())

	require.NoError(t, s.asTaker(s.takeIx(100, 1)))

	require.Nil(t, s.l.Account(escrowKey))
	require.Nil(t, s.l.Account(vaultKey))
	require.Equal(t, uint64(0), s.l.Balance(vaultKey))
	require.Equal(t, uint64(100), s.l.Balance(s.takerA))
	require.Equal(t, uint64(900), s.l.Balance(s.takerB))
	require.Equal(t, uint64(100), s.l.Balance(s.makerB))
	require.Equal(t, uint64(900), s.l.Balance(s.makerA))
	require.Equal(t, takerLamports+reclaimed, s.l.Lamports(s.taker.PublicKey()))
	require.Equal(t, []string{escrow.EventTypeMade, escrow.EventTypeTaken}, s.collector.Types())
}

func TestEndToEndRefundAfterTakeFails(t *testing.T) {
	s := newSwap(t)
	require.NoError(t, s.asMaker(s.makeIx(100, 1)))
	require.NoError(t, s.asTaker(s.takeIx(100, 1)))

	err := s.asMaker(s.refundIx(100, 1))
	require.ErrorIs(t, err, escrow.ErrInvalidState)
	require.Equal(t, uint64(900), s.l.Balance(s.makerA))

	err = s.asTaker(s.takeIx(100, 1))
	require.ErrorIs(t, err, escrow.ErrInvalidState)
}

func TestRefundReturnsAssetAndRent(t *testing.T) {
	s := newSwap(t)
	before := s.l.Lamports(s.maker.PublicKey())
	require.NoError(t, s.asMaker(s.makeIx(100, 7)))
	require.Less(t, s.l.Lamports(s.maker.PublicKey()), before)

	require.NoError(t, s.asMaker(s.refundIx(100, 7)))
	escrowKey, vaultKey := s.addresses(7)
	require.Nil(t, s.l.Account(escrowKey))
	require.Nil(t, s.l.Account(vaultKey))
	require.Equal(t, uint64(1_000), s.l.Balance(s.makerA))
	require.Equal(t, before, s.l.Lamports(s.maker.PublicKey()))

	err := s.asTaker(s.takeIx(100, 7))
	require.ErrorIs(t, err, escrow.ErrInvalidState)
	require.Equal(t, []string{escrow.EventTypeMade, escrow.EventTypeRefunded}, s.collector.Types())
}

func TestTakeWithMismatchedAmountChangesNothing(t *testing.T) {
	s := newSwap(t)
	require.NoError(t, s.asMaker(s.makeIx(100, 1)))
	before := s.l.DB.Snapshot()

	err := s.asTaker(s.takeIx(50, 1))
	require.ErrorIs(t, err, escrow.ErrExpectedAmountMismatch)
	requireCode(t, err, runtime.Custom(2))
	require.Equal(t, before, s.l.DB.Snapshot())

	escrowKey, _ := s.addresses(1)
	_, state, err := escrow.ParseRecord(s.l.Account(escrowKey).Data)
	require.NoError(t, err)
	require.Equal(t, escrow.StateOpen, state)
}

func TestRefundByNonMakerRejected(t *testing.T) {
	s := newSwap(t)
	require.NoError(t, s.asMaker(s.makeIx(100, 1)))
	before := s.l.DB.Snapshot()

	ix := s.refundIx(100, 1)
	ix.Accounts[0] = types.Meta(s.taker.PublicKey(), true, true)
	ix.Accounts[3] = types.Meta(s.takerA, true, false)

	err := s.asTaker(ix)
	require.ErrorIs(t, err, escrow.ErrInvalidAuthority)
	requireCode(t, err, runtime.Custom(5))
	require.Equal(t, before, s.l.DB.Snapshot())
}

func TestRefundWithMismatchedAmountRejected(t *testing.T) {
	s := newSwap(t)
	require.NoError(t, s.asMaker(s.makeIx(100, 1)))
	require.ErrorIs(t, s.asMaker(s.refundIx(101, 1)), escrow.ErrExpectedAmountMismatch)
}

func TestTakeRejectsRedirectedProceeds(t *testing.T) {
	s := newSwap(t)
	require.NoError(t, s.asMaker(s.makeIx(100, 1)))

	ix, err := s.client.Take(escrow.TakeParams{
		Taker: s.taker.PublicKey(), Maker: s.maker.PublicKey(),
		MintA: s.mintA, MintB: s.mintB, Amount: 100, Seed: 1,
		MakerHoldingB: s.takerB,
	})
	require.NoError(t, err)
	err = s.asTaker(ix)
	require.ErrorIs(t, err, runtime.ErrInvalidAccountData)
	require.Equal(t, uint64(1_000), s.l.Balance(s.takerB))
}

func TestTakeRejectsWrongMakerAndMints(t *testing.T) {
	s := newSwap(t)
	require.NoError(t, s.asMaker(s.makeIx(100, 1)))

	ix := s.takeIx(100, 1)
	ix.Accounts[1] = types.Meta(s.taker.PublicKey(), false, false)
	require.ErrorIs(t, s.asTaker(ix), escrow.ErrInvalidAuthority)

	ix = s.takeIx(100, 1)
	ix.Accounts[4], ix.Accounts[5] = ix.Accounts[5], ix.Accounts[4]
	require.ErrorIs(t, s.asTaker(ix), escrow.ErrInvalidTokenMint)
}

func TestTakeRejectsWrongSeedAndVault(t *testing.T) {
	s := newSwap(t)
	require.NoError(t, s.asMaker(s.makeIx(100, 1)))

	ix := s.takeIx(100, 1)
	ix.Data = escrow.Instruction{Op: escrow.OpTake, Amount: 100, Seed: 2}.Encode()
	require.ErrorIs(t, s.asTaker(ix), escrow.ErrInvalidEscrowAccount)

	ix = s.takeIx(100, 1)
	ix.Accounts[3] = types.Meta(s.makerA, true, false)
	require.ErrorIs(t, s.asTaker(ix), escrow.ErrInvalidEscrowAccount)
}

func TestTakeRejectsForeignEscrowAccount(t *testing.T) {
	s := newSwap(t)
	require.NoError(t, s.asMaker(s.makeIx(100, 1)))

	// The vault carries data but belongs to the custody program.
	_, vaultKey := s.addresses(1)
	ix := s.takeIx(100, 1)
	ix.Accounts[2] = types.Meta(vaultKey, true, false)
	require.ErrorIs(t, s.asTaker(ix), runtime.ErrInvalidAccountData)
}

func TestTakeRequiresSignatureAndCustody(t *testing.T) {
	s := newSwap(t)
	require.NoError(t, s.asMaker(s.makeIx(100, 1)))

	ix := s.takeIx(100, 1)
	ix.Accounts[0].IsSigner = false
	require.ErrorIs(t, s.asTaker(ix), runtime.ErrMissingRequiredSignature)

	ix = s.takeIx(100, 1)
	ix.Accounts[9] = types.Meta(solana.SystemProgramID, false, false)
	require.ErrorIs(t, s.asTaker(ix), escrow.ErrInvalidTokenProgram)
}

func TestRefundRequiresSignatureAndCustody(t *testing.T) {
	s := newSwap(t)
	require.NoError(t, s.asMaker(s.makeIx(100, 1)))
	before := s.l.DB.Snapshot()

	ix := s.refundIx(100, 1)
	ix.Accounts[0].IsSigner = false
	err := s.asMaker(ix)
	require.ErrorIs(t, err, runtime.ErrMissingRequiredSignature)
	requireCode(t, err, runtime.ErrMissingRequiredSignature)

	ix = s.refundIx(100, 1)
	ix.Accounts[4] = types.Meta(solana.SystemProgramID, false, false)
	err = s.asMaker(ix)
	require.ErrorIs(t, err, escrow.ErrInvalidTokenProgram)
	requireCode(t, err, runtime.Custom(6))

	require.Equal(t, before, s.l.DB.Snapshot())
}

func TestRefundRejectsWrongSeedVaultAndEscrow(t *testing.T) {
	s := newSwap(t)
	require.NoError(t, s.asMaker(s.makeIx(100, 1)))
	escrowKey, vaultKey := s.addresses(1)
	before := s.l.DB.Snapshot()

	ix := s.refundIx(100, 1)
	ix.Data = escrow.Instruction{Op: escrow.OpRefund, Amount: 100, Seed: 2}.Encode()
	require.ErrorIs(t, s.asMaker(ix), escrow.ErrInvalidEscrowAccount)

	ix = s.refundIx(100, 1)
	ix.Accounts[2] = types.Meta(s.makerB, true, false)
	require.ErrorIs(t, s.asMaker(ix), escrow.ErrInvalidEscrowAccount)

	// The vault is a custody holding, not escrow storage.
	ix = s.refundIx(100, 1)
	ix.Accounts[1] = types.Meta(vaultKey, true, false)
	ix.Accounts[2] = types.Meta(escrowKey, true, false)
	require.ErrorIs(t, s.asMaker(ix), runtime.ErrInvalidAccountData)

	require.Equal(t, before, s.l.DB.Snapshot())
	require.Equal(t, uint64(100), s.l.Balance(vaultKey))
}

func TestDonationToVaultDoesNotLockEscrow(t *testing.T) {
	t.Run("refund", func(t *testing.T) {
		s := newSwap(t)
		require.NoError(t, s.asMaker(s.makeIx(100, 1)))
		_, vaultKey := s.addresses(1)
		s.l.MintTo(s.authority, s.mintA, s.takerA, 1)
		s.l.MustExec([]solana.PrivateKey{s.taker},
			token.Transfer(s.l.Custody, s.takerA, vaultKey, s.taker.PublicKey(), 1))
		require.Equal(t, uint64(101), s.l.Balance(vaultKey))

		require.NoError(t, s.asMaker(s.refundIx(100, 1)))
		require.Nil(t, s.l.Account(vaultKey))
		require.Equal(t, uint64(1_001), s.l.Balance(s.makerA))
	})

	t.Run("take", func(t *testing.T) {
		s := newSwap(t)
		require.NoError(t, s.asMaker(s.makeIx(100, 1)))
		_, vaultKey := s.addresses(1)
		s.l.MustExec([]solana.PrivateKey{s.maker},
			token.Transfer(s.l.Custody, s.makerA, vaultKey, s.maker.PublicKey(), 5))
		require.Equal(t, uint64(105), s.l.Balance(vaultKey))

		require.NoError(t, s.asTaker(s.takeIx(100, 1)))
		require.Nil(t, s.l.Account(vaultKey))
		require.Equal(t, uint64(105), s.l.Balance(s.takerA))
		require.Equal(t, uint64(100), s.l.Balance(s.makerB))
		require.Equal(t, uint64(895), s.l.Balance(s.makerA))
	})
}

func TestMakeOverPrefundedEscrowAddress(t *testing.T) {
	s := newSwap(t)
	escrowKey, vaultKey := s.addresses(1)
	s.l.MustExec([]solana.PrivateKey{s.taker},
		runtime.Transfer(s.taker.PublicKey(), escrowKey, 5_000),
		runtime.Transfer(s.taker.PublicKey(), vaultKey, 5_000))
	makerLamports := s.l.Lamports(s.maker.PublicKey())

	require.NoError(t, s.asMaker(s.makeIx(100, 1)))
	rent := s.l.Runtime.Rent()
	require.Equal(t, rent.MinimumBalance(escrow.RecordSize), s.l.Lamports(escrowKey))
	require.Equal(t, rent.MinimumBalance(token.HoldingSize), s.l.Lamports(vaultKey))
	require.Equal(t, makerLamports-(s.l.Lamports(escrowKey)-5_000)-(s.l.Lamports(vaultKey)-5_000),
		s.l.Lamports(s.maker.PublicKey()))
	require.Equal(t, uint64(100), s.l.Balance(vaultKey))

	require.NoError(t, s.asMaker(s.refundIx(100, 1)))
	require.Equal(t, makerLamports+10_000, s.l.Lamports(s.maker.PublicKey()))
}

func TestTakeWithoutEnoughAssetBAbortsBothLegs(t *testing.T) {
	s := newSwap(t)
	require.NoError(t, s.asMaker(s.makeIx(100, 1)))
	sink := s.l.CreateHolding(s.authority, s.authority.PublicKey(), s.mintB)
	s.l.MustExec([]solana.PrivateKey{s.taker},
		token.Transfer(s.l.Custody, s.takerB, sink, s.taker.PublicKey(), 950))
	before := s.l.DB.Snapshot()

	err := s.asTaker(s.takeIx(100, 1))
	require.ErrorIs(t, err, token.ErrInsufficientFunds)
	require.Equal(t, before, s.l.DB.Snapshot())
}

func TestMakePreconditions(t *testing.T) {
	s := newSwap(t)
	before := s.l.DB.Snapshot()

	ix := s.makeIx(100, 1)
	ix.Accounts[0].IsSigner = false
	require.ErrorIs(t, s.asMaker(ix), runtime.ErrMissingRequiredSignature)

	ix = s.makeIx(100, 1)
	ix.Accounts[7] = types.Meta(s.l.Custody, false, false)
	require.ErrorIs(t, s.asMaker(ix), runtime.ErrIncorrectProgramID)

	ix = s.makeIx(100, 1)
	ix.Accounts[6] = types.Meta(solana.SystemProgramID, false, false)
	require.ErrorIs(t, s.asMaker(ix), escrow.ErrInvalidTokenProgram)

	ix = s.makeIx(100, 1)
	ix.Data = escrow.Instruction{Op: escrow.OpMake, Amount: 100, Seed: 2}.Encode()
	require.ErrorIs(t, s.asMaker(ix), escrow.ErrInvalidEscrowAccount)

	require.ErrorIs(t, s.asMaker(s.makeIx(0, 1)), escrow.ErrInvalidInstruction)

	ix = s.makeIx(100, 1)
	escrowKey, _ := s.addresses(1)
	ix.Accounts[5] = types.Meta(escrowKey, true, false)
	require.ErrorIs(t, s.asMaker(ix), escrow.ErrInvalidEscrowAccount)

	require.Equal(t, before, s.l.DB.Snapshot())
}

func TestMakeWithoutAssetAbortsEverything(t *testing.T) {
	s := newSwap(t)
	before := s.l.DB.Snapshot()

	err := s.asMaker(s.makeIx(5_000, 1))
	require.ErrorIs(t, err, token.ErrInsufficientFunds)
	escrowKey, vaultKey := s.addresses(1)
	require.Nil(t, s.l.Account(escrowKey))
	require.Nil(t, s.l.Account(vaultKey))
	require.Equal(t, before, s.l.DB.Snapshot())
	require.Empty(t, s.collector.Events())
}

func TestMakeNotRentExempt(t *testing.T) {
	s := newSwap(t)
	poor := s.l.Fund(10)
	poorA := s.l.CreateHolding(s.authority, poor.PublicKey(), s.mintA)
	s.l.MintTo(s.authority, s.mintA, poorA, 10)

	ix, err := s.client.Make(escrow.MakeParams{
		Maker: poor.PublicKey(), MintA: s.mintA, MintB: s.mintB, Amount: 5, Seed: 1,
	})
	require.NoError(t, err)
	_, err = s.l.Exec([]solana.PrivateKey{poor}, ix)
	require.ErrorIs(t, err, escrow.ErrNotRentExempt)
	requireCode(t, err, runtime.Custom(1))
}

func TestMakeSameSeedTwiceRejected(t *testing.T) {
	s := newSwap(t)
	require.NoError(t, s.asMaker(s.makeIx(100, 1)))
	require.ErrorIs(t, s.asMaker(s.makeIx(100, 1)), runtime.ErrAccountAlreadyInUse)
	require.NoError(t, s.asMaker(s.makeIx(100, 2)))
	require.Equal(t, uint64(800), s.l.Balance(s.makerA))
}

func TestMalformedPayloadsRejected(t *testing.T) {
	s := newSwap(t)
	for _, data := range [][]byte{nil, {0, 1, 2}, {3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}} {
		ix := s.makeIx(100, 1)
		ix.Data = data
		err := s.asMaker(ix)
		require.ErrorIs(t, err, escrow.ErrInvalidInstruction)
		requireCode(t, err, runtime.Custom(0))
	}

	ix := s.takeIx(100, 1)
	ix.Accounts = ix.Accounts[:9]
	require.ErrorIs(t, s.asTaker(ix), runtime.ErrNotEnoughAccountKeys)
}

func TestConcurrentTakeAndRefundHaveOneWinner(t *testing.T) {
	for round := 0; round < 5; round++ {
		s := newSwap(t)
		require.NoError(t, s.asMaker(s.makeIx(100, 1)))
		take := s.l.Tx([]solana.PrivateKey{s.taker}, s.takeIx(100, 1))
		refund := s.l.Tx([]solana.PrivateKey{s.maker}, s.refundIx(100, 1))

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, tx := range []*types.Transaction{take, refund} {
			wg.Add(1)
			go func(i int, tx *types.Transaction) {
				defer wg.Done()
				_, errs[i] = s.l.Runtime.Execute(context.Background(), tx)
			}(i, tx)
		}
		wg.Wait()

		failures := 0
		for _, err := range errs {
			if err != nil {
				failures++
				require.ErrorIs(t, err, escrow.ErrInvalidState)
			}
		}
		require.Equal(t, 1, failures)

		// Exactly one party ended up with the asset A.
		takerA, makerA := s.l.Balance(s.takerA), s.l.Balance(s.makerA)
		require.Equal(t, uint64(1_000), takerA+makerA)
		_, vaultKey := s.addresses(1)
		require.Nil(t, s.l.Account(vaultKey))
	}
}

func TestEscrowSurvivesReopeningStore(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.NewLevelDB(dir)
	require.NoError(t, err)

	l := ledgertest.Open(t, db)
	client, _ := install(l)
	authority := l.Fund(funding)
	maker := l.Fund(funding)
	mintA := l.CreateMint(authority, 0)
	mintB := l.CreateMint(authority, 0)
	makerA := l.CreateHolding(authority, maker.PublicKey(), mintA)
	l.CreateHolding(authority, maker.PublicKey(), mintB)
	l.MintTo(authority, mintA, makerA, 10)

	ix, err := client.Make(escrow.MakeParams{Maker: maker.PublicKey(), MintA: mintA, MintB: mintB, Amount: 10, Seed: 3})
	require.NoError(t, err)
	l.MustExec([]solana.PrivateKey{maker}, ix)
	db.Close()

	db, err = storage.NewLevelDB(dir)
	require.NoError(t, err)
	defer db.Close()
	l = ledgertest.Open(t, db)
	client, _ = install(l)

	escrowKey, _, err := client.Addresses(maker.PublicKey(), 3)
	require.NoError(t, err)
	_, state, err := escrow.ParseRecord(l.Account(escrowKey).Data)
	require.NoError(t, err)
	require.Equal(t, escrow.StateOpen, state)

	ix, err = client.Refund(escrow.RefundParams{Maker: maker.PublicKey(), MintA: mintA, Amount: 10, Seed: 3})
	require.NoError(t, err)
	l.MustExec([]solana.PrivateKey{maker}, ix)
	require.Equal(t, uint64(10), l.Balance(makerA))
}
