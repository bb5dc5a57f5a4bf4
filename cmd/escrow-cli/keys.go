package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"escrowswap/crypto"
	"escrowswap/native/token"
)

func newKeygenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keygen <name>",
		Short: "Generate a keypair and store it encrypted in the keystore directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.keystorePath(args[0])
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("keystore %s already exists", path)
			}
			pass, err := a.pass.GetNew()
			if err != nil {
				return err
			}
			key, err := crypto.GeneratePrivateKey()
			if err != nil {
				return err
			}
			if err := crypto.SaveToKeystore(path, key, pass); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Public key: %s\n", key.PublicKey())
			fmt.Fprintf(a.stdout, "Keystore: %s\n", path)
			return nil
		},
	}
}

func newAirdropCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "airdrop <key> <lamports>",
		Short: "Credit lamports to an account directly in the local ledger",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := a.publicKey(args[0])
			if err != nil {
				return err
			}
			lamports, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid lamports %q: %w", args[1], err)
			}
			rt, err := a.ledger()
			if err != nil {
				return err
			}
			if err := rt.State().Airdrop(target, lamports); err != nil {
				return err
			}
			acc, err := rt.Account(target)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Balance of %s: %d lamports\n", target, acc.Lamports)
			return nil
		},
	}
}

func newBalanceCmd(a *app) *cobra.Command {
	var mintArg string
	cmd := &cobra.Command{
		Use:   "balance <key>",
		Short: "Show the lamports of an account, or its associated holding of --mint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.publicKey(args[0])
			if err != nil {
				return err
			}
			rt, err := a.ledger()
			if err != nil {
				return err
			}
			if mintArg == "" {
				acc, err := rt.Account(owner)
				if err != nil {
					return err
				}
				var lamports uint64
				if acc != nil {
					lamports = acc.Lamports
				}
				fmt.Fprintf(a.stdout, "Balance of %s: %d lamports\n", owner, lamports)
				return nil
			}
			mint, err := crypto.ParsePublicKey(mintArg)
			if err != nil {
				return err
			}
			holding, _, err := token.AssociatedHoldingAddress(owner, a.cfg.CustodyProgram(), mint)
			if err != nil {
				return err
			}
			acc, err := rt.Account(holding)
			if err != nil {
				return err
			}
			if acc == nil {
				return fmt.Errorf("%s has no holding of %s", owner, mint)
			}
			h, err := token.UnpackHolding(acc.Data)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Holding %s of %s: %d\n", holding, mint, h.Amount)
			return nil
		},
	}
	cmd.Flags().StringVar(&mintArg, "mint", "", "Mint whose associated holding to read")
	return cmd
}

// publicKey resolves either a keystore name or a base58 address.
func (a *app) publicKey(arg string) (solana.PublicKey, error) {
	path := a.keystorePath(arg)
	if _, err := os.Stat(path); err == nil {
		return crypto.KeystorePublicKey(path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return solana.PublicKey{}, err
	}
	return crypto.ParsePublicKey(arg)
}

// signer decrypts the named keystore.
func (a *app) signer(name string) (solana.PrivateKey, error) {
	if name == "" {
		return nil, errors.New("signer key name required")
	}
	pass, err := a.pass.Get()
	if err != nil {
		return nil, err
	}
	key, err := crypto.LoadFromKeystore(a.keystorePath(name), pass)
	if err != nil {
		return nil, fmt.Errorf("load key %q: %w", name, err)
	}
	return key, nil
}
