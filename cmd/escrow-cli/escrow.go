package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"escrowswap/crypto"
	"escrowswap/native/escrow"
	"escrowswap/services/escrowindex"
)

func newMakeCmd(a *app) *cobra.Command {
	var (
		makerName    string
		mintA, mintB string
		amount, seed uint64
	)
	cmd := &cobra.Command{
		Use:   "make",
		Short: "Lock --amount of mint A in a new escrow asking the same amount of mint B",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			maker, err := a.signer(makerName)
			if err != nil {
				return err
			}
			offered, err := crypto.ParsePublicKey(mintA)
			if err != nil {
				return err
			}
			requested, err := crypto.ParsePublicKey(mintB)
			if err != nil {
				return err
			}
			if _, err := a.ledger(); err != nil {
				return err
			}
			ix, err := a.client.Make(escrow.MakeParams{
				Maker: maker.PublicKey(), MintA: offered, MintB: requested, Amount: amount, Seed: seed,
			})
			if err != nil {
				return err
			}
			if _, err := a.submit(cmd.Context(), []solana.PrivateKey{maker}, ix); err != nil {
				return err
			}
			address, vault, err := a.client.Addresses(maker.PublicKey(), seed)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Escrow: %s\n", address)
			fmt.Fprintf(a.stdout, "Vault: %s\n", vault)
			return nil
		},
	}
	cmd.Flags().StringVar(&makerName, "maker", "", "Keystore name of the maker (required)")
	cmd.Flags().StringVar(&mintA, "mint-a", "", "Mint of the offered asset (required)")
	cmd.Flags().StringVar(&mintB, "mint-b", "", "Mint of the requested asset (required)")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "Amount offered and requested (required)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Disambiguates escrows of the same maker")
	for _, name := range []string{"maker", "mint-a", "mint-b", "amount"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newTakeCmd(a *app) *cobra.Command {
	var (
		takerName    string
		makerArg     string
		amount, seed uint64
	)
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Accept an open escrow, paying --amount of its mint B",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			taker, err := a.signer(takerName)
			if err != nil {
				return err
			}
			maker, err := a.publicKey(makerArg)
			if err != nil {
				return err
			}
			record, _, err := a.openRecord(maker, seed)
			if err != nil {
				return err
			}
			ix, err := a.client.Take(escrow.TakeParams{
				Taker: taker.PublicKey(), Maker: maker,
				MintA: record.MintA, MintB: record.MintB, Amount: amount, Seed: seed,
			})
			if err != nil {
				return err
			}
			if _, err := a.submit(cmd.Context(), []solana.PrivateKey{taker}, ix); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Took escrow of %s (seed %d)\n", maker, seed)
			return nil
		},
	}
	cmd.Flags().StringVar(&takerName, "taker", "", "Keystore name of the taker (required)")
	cmd.Flags().StringVar(&makerArg, "maker", "", "Maker address or keystore name (required)")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "Amount the taker expects to pay (required)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed the escrow was made with")
	for _, name := range []string{"taker", "maker", "amount"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newRefundCmd(a *app) *cobra.Command {
	var (
		makerName string
		seed      uint64
	)
	cmd := &cobra.Command{
		Use:   "refund",
		Short: "Cancel an open escrow and return the locked asset to its maker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			maker, err := a.signer(makerName)
			if err != nil {
				return err
			}
			record, _, err := a.openRecord(maker.PublicKey(), seed)
			if err != nil {
				return err
			}
			ix, err := a.client.Refund(escrow.RefundParams{
				Maker: maker.PublicKey(), MintA: record.MintA, Amount: record.Amount, Seed: seed,
			})
			if err != nil {
				return err
			}
			if _, err := a.submit(cmd.Context(), []solana.PrivateKey{maker}, ix); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Refunded %d to %s\n", record.Amount, maker.PublicKey())
			return nil
		},
	}
	cmd.Flags().StringVar(&makerName, "maker", "", "Keystore name of the maker (required)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed the escrow was made with")
	_ = cmd.MarkFlagRequired("maker")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var (
		makerArg string
		seed     uint64
	)
	cmd := &cobra.Command{
		Use:   "show [escrow]",
		Short: "Show an escrow by address, or by --maker and --seed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.ledger(); err != nil {
				return err
			}
			var address solana.PublicKey
			switch {
			case len(args) == 1:
				addr, err := crypto.ParsePublicKey(args[0])
				if err != nil {
					return err
				}
				address = addr
			case makerArg != "":
				maker, err := a.publicKey(makerArg)
				if err != nil {
					return err
				}
				addr, _, err := a.client.Addresses(maker, seed)
				if err != nil {
					return err
				}
				address = addr
			default:
				return errors.New("provide an escrow address or --maker")
			}

			fmt.Fprintf(a.stdout, "Escrow: %s\n", address)
			acc, err := a.runtime.Account(address)
			if err != nil {
				return err
			}
			var data []byte
			if acc != nil {
				data = acc.Data
			}
			record, st, err := escrow.ParseRecord(data)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "On-ledger state: %s\n", st)
			if record != nil {
				fmt.Fprintf(a.stdout, "Maker: %s\n", record.Maker)
				fmt.Fprintf(a.stdout, "Mint A: %s\n", record.MintA)
				fmt.Fprintf(a.stdout, "Mint B: %s\n", record.MintB)
				fmt.Fprintf(a.stdout, "Receive account: %s\n", record.ReceiveAccount)
				fmt.Fprintf(a.stdout, "Amount: %d\n", record.Amount)
			}

			row, err := a.index.Get(address.String())
			if errors.Is(err, escrowindex.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Indexed status: %s\n", row.Status)
			if row.Taker != "" {
				fmt.Fprintf(a.stdout, "Taker: %s\n", row.Taker)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&makerArg, "maker", "", "Maker address or keystore name")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed the escrow was made with")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var (
		makerArg string
		status   string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed escrows, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.ledger(); err != nil {
				return err
			}
			filter := escrowindex.Filter{Status: escrowindex.Status(status), Limit: limit}
			if makerArg != "" {
				maker, err := a.publicKey(makerArg)
				if err != nil {
					return err
				}
				filter.Maker = maker.String()
			}
			rows, err := a.index.List(filter)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ESCROW\tMAKER\tAMOUNT\tSEED\tSTATUS")
			for _, row := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", row.Address, row.Maker, row.Amount, row.Seed, row.Status)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&makerArg, "maker", "", "Only escrows of this maker")
	cmd.Flags().StringVar(&status, "status", "", "Only escrows in this status (open, taken, refunded)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of rows")
	return cmd
}

// openRecord reads the open escrow of maker's seed from the ledger.
func (a *app) openRecord(maker solana.PublicKey, seed uint64) (*escrow.Record, solana.PublicKey, error) {
	rt, err := a.ledger()
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	address, _, err := a.client.Addresses(maker, seed)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	acc, err := rt.Account(address)
	if err != nil {
		return nil, address, err
	}
	if acc == nil {
		return nil, address, fmt.Errorf("no escrow at %s", address)
	}
	record, st, err := escrow.ParseRecord(acc.Data)
	if err != nil {
		return nil, address, err
	}
	if st != escrow.StateOpen {
		return nil, address, fmt.Errorf("escrow %s is %s", address, st)
	}
	return record, address, nil
}
