package eip7702

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// go-ethereum caps nonces and gas at 64 bits and every other integer at 256,
// so conversion can fail for values this package happily signs.

func toU256(field string, x *big.Int) (*uint256.Int, error) {
	v, overflow := uint256.FromBig(bigOrZero(x))
	if overflow || bigOrZero(x).Sign() < 0 {
		return nil, fmt.Errorf("%w: %s does not fit in 256 bits", ErrEncoding, field)
	}
	return v, nil
}

func toUint64(field string, x *big.Int) (uint64, error) {
	x = bigOrZero(x)
	if !x.IsUint64() {
		return 0, fmt.Errorf("%w: %s does not fit in 64 bits", ErrEncoding, field)
	}
	return x.Uint64(), nil
}

// ToGeth converts the authorization into go-ethereum's representation.
func (a *SignedAuthorization) ToGeth() (types.SetCodeAuthorization, error) {
	chainID, err := toU256("chain id", a.ChainID)
	if err != nil {
		return types.SetCodeAuthorization{}, err
	}
	nonce, err := toUint64("nonce", a.Nonce)
	if err != nil {
		return types.SetCodeAuthorization{}, err
	}
	auth := types.SetCodeAuthorization{
		ChainID: *chainID,
		Address: a.Address,
		Nonce:   nonce,
		V:       a.YParity,
	}
	auth.R.SetBytes32(a.R[:])
	auth.S.SetBytes32(a.S[:])
	return auth, nil
}

// ToGeth converts the signed transaction into a go-ethereum transaction, e.g.
// for ethclient.SendTransaction.
func (st *SignedTransaction) ToGeth() (*types.Transaction, error) {
	tx := &st.tx
	chainID, err := toU256("chain id", tx.ChainID)
	if err != nil {
		return nil, err
	}
	nonce, err := toUint64("nonce", tx.Nonce)
	if err != nil {
		return nil, err
	}
	tipCap, err := toU256("max priority fee", tx.MaxPriorityFeePerGas)
	if err != nil {
		return nil, err
	}
	feeCap, err := toU256("max fee", tx.MaxFeePerGas)
	if err != nil {
		return nil, err
	}
	gas, err := toUint64("gas limit", tx.GasLimit)
	if err != nil {
		return nil, err
	}
	value, err := toU256("value", tx.Value)
	if err != nil {
		return nil, err
	}
	authList := make([]types.SetCodeAuthorization, len(tx.AuthList))
	for i := range tx.AuthList {
		if authList[i], err = tx.AuthList[i].ToGeth(); err != nil {
			return nil, fmt.Errorf("authorization %d: %w", i, err)
		}
	}
	return types.NewTx(&types.SetCodeTx{
		ChainID:    chainID,
		Nonce:      nonce,
		GasTipCap:  tipCap,
		GasFeeCap:  feeCap,
		Gas:        gas,
		To:         tx.To,
		Value:      value,
		Data:       tx.Data,
		AccessList: convertAccessList(tx.AccessList),
		AuthList:   authList,
		V:          uint256.NewInt(uint64(st.sig.YParity)),
		R:          new(uint256.Int).SetBytes32(st.sig.R[:]),
		S:          new(uint256.Int).SetBytes32(st.sig.S[:]),
	}), nil
}

// convertAccessList converts our AccessList type to go-ethereum's types.AccessList.
func convertAccessList(accessList AccessList) types.AccessList {
	result := make(types.AccessList, len(accessList))
	for i, tuple := range accessList {
		result[i] = types.AccessTuple{
			Address:     tuple.Address,
			StorageKeys: tuple.StorageKeys,
		}
	}
	return result
}
