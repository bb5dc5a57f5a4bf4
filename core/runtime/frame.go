package runtime

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"escrowswap/core/types"
)

// frame is one program invocation: the executing program, the accounts it was
// handed and their state when it (or its last cross-program call) started.
type frame struct {
	program solana.PublicKey
	infos   []*AccountInfo
	pre     map[solana.PublicKey]*types.Account
}

func newFrame(program solana.PublicKey, infos []*AccountInfo) *frame {
	f := &frame{program: program, infos: infos}
	f.snapshot()
	return f
}

func (f *frame) snapshot() {
	f.pre = make(map[solana.PublicKey]*types.Account, len(f.infos))
	for _, info := range f.infos {
		if _, ok := f.pre[info.key]; !ok {
			f.pre[info.key] = info.acc.Clone()
		}
	}
}

func (f *frame) lookup(key solana.PublicKey) *AccountInfo {
	for _, info := range f.infos {
		if info.key == key {
			return info
		}
	}
	return nil
}

// writable and signer merge privileges across duplicate entries of a key.
func (f *frame) writable(key solana.PublicKey) bool {
	for _, info := range f.infos {
		if info.key == key && info.writable {
			return true
		}
	}
	return false
}

func (f *frame) signer(key solana.PublicKey) bool {
	for _, info := range f.infos {
		if info.key == key && info.signer {
			return true
		}
	}
	return false
}

// verify enforces the ledger's ownership rules on everything the program did
// since the last snapshot: only the owner may change data, debit lamports or
// reassign a zeroed account; read-only and executable accounts never change;
// lamports are conserved.
func (f *frame) verify() error {
	preTotal := new(uint256.Int)
	postTotal := new(uint256.Int)
	seen := make(map[solana.PublicKey]struct{}, len(f.infos))
	for _, info := range f.infos {
		if _, ok := seen[info.key]; ok {
			continue
		}
		seen[info.key] = struct{}{}
		pre := f.pre[info.key]
		post := info.acc
		preTotal.Add(preTotal, uint256.NewInt(pre.Lamports))
		postTotal.Add(postTotal, uint256.NewInt(post.Lamports))

		writable := f.writable(info.key) && !pre.Executable
		owned := pre.Owner == f.program
		if post.Executable != pre.Executable {
			return ErrModifiedProgramID
		}
		if post.Owner != pre.Owner && (!writable || !owned || !isZeroed(post.Data)) {
			return ErrModifiedProgramID
		}
		if !bytes.Equal(pre.Data, post.Data) {
			if !writable {
				return ErrReadonlyDataModified
			}
			if !owned {
				return ErrExternalAccountDataModified
			}
		}
		if post.Lamports != pre.Lamports {
			if !writable {
				return ErrReadonlyLamportChange
			}
			if post.Lamports < pre.Lamports && !owned {
				return ErrExternalAccountLamportSpend
			}
		}
	}
	if !preTotal.Eq(postTotal) {
		return ErrUnbalancedInstruction
	}
	return nil
}

func isZeroed(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
