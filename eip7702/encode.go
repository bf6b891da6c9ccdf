package eip7702

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// The RLP shapes below fix the field order of every encoded tuple. rlp
// encodes struct fields in declaration order, so reordering a field here
// changes every digest.

type authTupleRLP struct {
	ChainID *big.Int
	Address common.Address
	Nonce   *big.Int
}

type authEntryRLP struct {
	ChainID *big.Int
	Address common.Address
	Nonce   *big.Int
	YParity uint8
	R       *big.Int
	S       *big.Int
}

type txBodyRLP struct {
	ChainID              *big.Int
	Nonce                *big.Int
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	GasLimit             *big.Int
	To                   common.Address
	Value                *big.Int
	Data                 []byte
	AccessList           AccessList
	AuthList             []authEntryRLP
}

type signedTxRLP struct {
	ChainID              *big.Int
	Nonce                *big.Int
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	GasLimit             *big.Int
	To                   common.Address
	Value                *big.Int
	Data                 []byte
	AccessList           AccessList
	AuthList             []authEntryRLP
	YParity              uint8
	R                    *big.Int
	S                    *big.Int
}

func (a *SignedAuthorization) rlpEntry() authEntryRLP {
	return authEntryRLP{
		ChainID: a.ChainID,
		Address: a.Address,
		Nonce:   a.Nonce,
		YParity: a.YParity,
		R:       new(big.Int).SetBytes(a.R[:]),
		S:       new(big.Int).SetBytes(a.S[:]),
	}
}

func authListRLP(list []SignedAuthorization) []authEntryRLP {
	entries := make([]authEntryRLP, len(list))
	for i := range list {
		entries[i] = list[i].rlpEntry()
	}
	return entries
}

func (tx *UnsignedTransaction) bodyRLP() *txBodyRLP {
	return &txBodyRLP{
		ChainID:              tx.ChainID,
		Nonce:                tx.Nonce,
		MaxPriorityFeePerGas: tx.MaxPriorityFeePerGas,
		MaxFeePerGas:         tx.MaxFeePerGas,
		GasLimit:             tx.GasLimit,
		To:                   tx.To,
		Value:                tx.Value,
		Data:                 tx.Data,
		AccessList:           tx.AccessList,
		AuthList:             authListRLP(tx.AuthList),
	}
}

// EncodeAuthorizationTuple returns the RLP list [chainId, address, nonce].
func EncodeAuthorizationTuple(chainID *big.Int, address common.Address, nonce *big.Int) ([]byte, error) {
	enc, err := rlp.EncodeToBytes(&authTupleRLP{
		ChainID: chainID,
		Address: address,
		Nonce:   nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: authorization tuple: %w", ErrEncoding, err)
	}
	return enc, nil
}

// EncodeTransactionBody returns the RLP list of the ten unsigned transaction
// fields.
func EncodeTransactionBody(tx *UnsignedTransaction) ([]byte, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: nil transaction", ErrEncoding)
	}
	enc, err := rlp.EncodeToBytes(tx.bodyRLP())
	if err != nil {
		return nil, fmt.Errorf("%w: transaction body: %w", ErrEncoding, err)
	}
	return enc, nil
}

// EncodeSignedTransactionBody returns the transaction body list with
// yParity, r and s appended as its last three elements.
func EncodeSignedTransactionBody(tx *UnsignedTransaction, sig Signature) ([]byte, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: nil transaction", ErrEncoding)
	}
	enc, err := rlp.EncodeToBytes(&signedTxRLP{
		ChainID:              tx.ChainID,
		Nonce:                tx.Nonce,
		MaxPriorityFeePerGas: tx.MaxPriorityFeePerGas,
		MaxFeePerGas:         tx.MaxFeePerGas,
		GasLimit:             tx.GasLimit,
		To:                   tx.To,
		Value:                tx.Value,
		Data:                 tx.Data,
		AccessList:           tx.AccessList,
		AuthList:             authListRLP(tx.AuthList),
		YParity:              sig.YParity,
		R:                    new(big.Int).SetBytes(sig.R[:]),
		S:                    new(big.Int).SetBytes(sig.S[:]),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: signed transaction: %w", ErrEncoding, err)
	}
	return enc, nil
}

func prefixedHash(prefix byte, payload []byte) common.Hash {
	return crypto.Keccak256Hash([]byte{prefix}, payload)
}

// AuthorizationDigest returns keccak256(0x05 || rlp([chainId, address, nonce])).
func AuthorizationDigest(auth UnsignedAuthorization) (common.Hash, error) {
	enc, err := EncodeAuthorizationTuple(auth.ChainID, auth.Address, auth.Nonce)
	if err != nil {
		return common.Hash{}, err
	}
	return prefixedHash(AuthorizationMagic, enc), nil
}

// TransactionDigest returns keccak256(0x04 || rlp(body)), the hash the sender
// signs.
func TransactionDigest(tx *UnsignedTransaction) (common.Hash, error) {
	enc, err := EncodeTransactionBody(tx)
	if err != nil {
		return common.Hash{}, err
	}
	return prefixedHash(SetCodeTxType, enc), nil
}
