package main

import (
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"escrowswap/core/runtime"
	"escrowswap/core/types"
	"escrowswap/crypto"
	"escrowswap/native/token"
)

func newMintCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Create mints and issue assets",
	}
	cmd.AddCommand(newMintCreateCmd(a), newMintToCmd(a))
	return cmd
}

func newMintCreateCmd(a *app) *cobra.Command {
	var (
		authority string
		decimals  uint8
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a mint controlled by --authority, which also pays its rent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			payer, err := a.signer(authority)
			if err != nil {
				return err
			}
			mint, err := crypto.GeneratePrivateKey()
			if err != nil {
				return err
			}
			rt, err := a.ledger()
			if err != nil {
				return err
			}
			custody := a.cfg.CustodyProgram()
			rent := rt.Rent().MinimumBalance(token.MintSize)
			_, err = a.submit(cmd.Context(), []solana.PrivateKey{payer, mint},
				runtime.CreateAccount(payer.PublicKey(), mint.PublicKey(), rent, token.MintSize, custody),
				token.InitializeMint2(custody, mint.PublicKey(), decimals, payer.PublicKey()),
			)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Mint: %s\n", mint.PublicKey())
			return nil
		},
	}
	cmd.Flags().StringVar(&authority, "authority", "", "Keystore name of the mint authority (required)")
	cmd.Flags().Uint8Var(&decimals, "decimals", 0, "Decimal places of the asset")
	_ = cmd.MarkFlagRequired("authority")
	return cmd
}

func newMintToCmd(a *app) *cobra.Command {
	var authority string
	cmd := &cobra.Command{
		Use:   "to <mint> <owner> <amount>",
		Short: "Issue assets into the owner's associated holding, creating it when missing",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			mint, err := crypto.ParsePublicKey(args[0])
			if err != nil {
				return err
			}
			owner, err := a.publicKey(args[1])
			if err != nil {
				return err
			}
			amount, err := strconv.ParseUint(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[2], err)
			}
			signer, err := a.signer(authority)
			if err != nil {
				return err
			}
			rt, err := a.ledger()
			if err != nil {
				return err
			}
			custody := a.cfg.CustodyProgram()
			holding, _, err := token.AssociatedHoldingAddress(owner, custody, mint)
			if err != nil {
				return err
			}
			var ixs []types.Instruction
			acc, err := rt.Account(holding)
			if err != nil {
				return err
			}
			if acc == nil {
				create, err := token.CreateAssociatedHolding(signer.PublicKey(), owner, mint, custody)
				if err != nil {
					return err
				}
				ixs = append(ixs, create)
			}
			ixs = append(ixs, token.MintTo(custody, mint, holding, signer.PublicKey(), amount))
			if _, err := a.submit(cmd.Context(), []solana.PrivateKey{signer}, ixs...); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Minted %d to %s\n", amount, holding)
			return nil
		},
	}
	cmd.Flags().StringVar(&authority, "authority", "", "Keystore name of the mint authority (required)")
	_ = cmd.MarkFlagRequired("authority")
	return cmd
}

func newHoldingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holding",
		Short: "Manage asset holdings",
	}
	var payerName string
	create := &cobra.Command{
		Use:   "create <owner> <mint>",
		Short: "Create the owner's associated holding of a mint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.publicKey(args[0])
			if err != nil {
				return err
			}
			mint, err := crypto.ParsePublicKey(args[1])
			if err != nil {
				return err
			}
			payer, err := a.signer(payerName)
			if err != nil {
				return err
			}
			ix, err := token.CreateAssociatedHolding(payer.PublicKey(), owner, mint, a.cfg.CustodyProgram())
			if err != nil {
				return err
			}
			if _, err := a.submit(cmd.Context(), []solana.PrivateKey{payer}, ix); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Holding: %s\n", ix.Accounts[1].PublicKey)
			return nil
		},
	}
	create.Flags().StringVar(&payerName, "payer", "", "Keystore name of the account paying rent (required)")
	_ = create.MarkFlagRequired("payer")
	cmd.AddCommand(create)
	return cmd
}
