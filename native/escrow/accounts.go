package escrow

import "escrowswap/core/runtime"

type makeAccounts struct {
	maker         *runtime.AccountInfo
	mintA         *runtime.AccountInfo
	mintB         *runtime.AccountInfo
	makerHoldingA *runtime.AccountInfo
	escrow        *runtime.AccountInfo
	vault         *runtime.AccountInfo
	custody       *runtime.AccountInfo
	system        *runtime.AccountInfo
}

func parseMakeAccounts(accounts []*runtime.AccountInfo) (*makeAccounts, error) {
	if len(accounts) < 8 {
		return nil, runtime.ErrNotEnoughAccountKeys
	}
	return &makeAccounts{
		maker:         accounts[0],
		mintA:         accounts[1],
		mintB:         accounts[2],
		makerHoldingA: accounts[3],
		escrow:        accounts[4],
		vault:         accounts[5],
		custody:       accounts[6],
		system:        accounts[7],
	}, nil
}

type takeAccounts struct {
	taker         *runtime.AccountInfo
	maker         *runtime.AccountInfo
	escrow        *runtime.AccountInfo
	vault         *runtime.AccountInfo
	mintA         *runtime.AccountInfo
	mintB         *runtime.AccountInfo
	takerHoldingA *runtime.AccountInfo
	takerHoldingB *runtime.AccountInfo
	makerHoldingB *runtime.AccountInfo
	custody       *runtime.AccountInfo
}

func parseTakeAccounts(accounts []*runtime.AccountInfo) (*takeAccounts, error) {
	if len(accounts) < 10 {
		return nil, runtime.ErrNotEnoughAccountKeys
	}
	return &takeAccounts{
		taker:         accounts[0],
		maker:         accounts[1],
		escrow:        accounts[2],
		vault:         accounts[3],
		mintA:         accounts[4],
		mintB:         accounts[5],
		takerHoldingA: accounts[6],
		takerHoldingB: accounts[7],
		makerHoldingB: accounts[8],
		custody:       accounts[9],
	}, nil
}

type refundAccounts struct {
	maker         *runtime.AccountInfo
	escrow        *runtime.AccountInfo
	vault         *runtime.AccountInfo
	makerHoldingA *runtime.AccountInfo
	custody       *runtime.AccountInfo
}

func parseRefundAccounts(accounts []*runtime.AccountInfo) (*refundAccounts, error) {
	if len(accounts) < 5 {
		return nil, runtime.ErrNotEnoughAccountKeys
	}
	return &refundAccounts{
		maker:         accounts[0],
		escrow:        accounts[1],
		vault:         accounts[2],
		makerHoldingA: accounts[3],
		custody:       accounts[4],
	}, nil
}
