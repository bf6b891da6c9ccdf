// Package eip7702 builds and signs EIP-7702 set-code transactions and the
// authorization tuples they carry.
package eip7702

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// SetCodeTxType is the EIP-2718 type byte of a set-code transaction. It
	// prefixes both the signing payload and the serialized transaction.
	SetCodeTxType byte = 0x04

	// AuthorizationMagic prefixes the signing payload of an authorization tuple.
	AuthorizationMagic byte = 0x05
)

// UnsignedAuthorization is the tuple an account signs to delegate its code
// to Address.
type UnsignedAuthorization struct {
	ChainID *big.Int
	Address common.Address
	Nonce   *big.Int
}

// Signature is a recoverable secp256k1 signature split into its on-chain
// fields. YParity is the raw recovery id (0 or 1), never 27/28.
type Signature struct {
	YParity uint8
	R       [32]byte
	S       [32]byte
}

// SignedAuthorization is an authorization tuple with the authority's
// signature attached.
type SignedAuthorization struct {
	UnsignedAuthorization
	Signature
}

// AccessTuple is the element type of an access list.
type AccessTuple struct {
	Address     common.Address
	StorageKeys []common.Hash
}

// AccessList is an EIP-2930 access list.
type AccessList []AccessTuple

// UnsignedTransaction is the body of a set-code transaction. A nil integer
// field encodes as zero.
type UnsignedTransaction struct {
	ChainID              *big.Int
	Nonce                *big.Int
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	GasLimit             *big.Int
	To                   common.Address
	Value                *big.Int
	Data                 []byte
	AccessList           AccessList
	AuthList             []SignedAuthorization
}

// SignedTransaction is a signed set-code transaction. It is immutable: every
// accessor hands out copies.
type SignedTransaction struct {
	tx      UnsignedTransaction
	sig     Signature
	sigHash common.Hash
	raw     []byte
}

func copyBig(x *big.Int) *big.Int {
	if x == nil {
		return nil
	}
	return new(big.Int).Set(x)
}

func bigOrZero(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return x
}

func (a UnsignedAuthorization) copy() UnsignedAuthorization {
	return UnsignedAuthorization{
		ChainID: copyBig(a.ChainID),
		Address: a.Address,
		Nonce:   copyBig(a.Nonce),
	}
}

func (a SignedAuthorization) copy() SignedAuthorization {
	return SignedAuthorization{
		UnsignedAuthorization: a.UnsignedAuthorization.copy(),
		Signature:             a.Signature,
	}
}

func (al AccessList) copy() AccessList {
	if al == nil {
		return nil
	}
	cpy := make(AccessList, len(al))
	for i, tuple := range al {
		cpy[i] = AccessTuple{
			Address:     tuple.Address,
			StorageKeys: append([]common.Hash(nil), tuple.StorageKeys...),
		}
	}
	return cpy
}

// Copy returns a deep copy of the transaction body.
func (tx *UnsignedTransaction) Copy() UnsignedTransaction {
	cpy := UnsignedTransaction{
		ChainID:              copyBig(tx.ChainID),
		Nonce:                copyBig(tx.Nonce),
		MaxPriorityFeePerGas: copyBig(tx.MaxPriorityFeePerGas),
		MaxFeePerGas:         copyBig(tx.MaxFeePerGas),
		GasLimit:             copyBig(tx.GasLimit),
		To:                   tx.To,
		Value:                copyBig(tx.Value),
		Data:                 common.CopyBytes(tx.Data),
		AccessList:           tx.AccessList.copy(),
	}
	if tx.AuthList != nil {
		cpy.AuthList = make([]SignedAuthorization, len(tx.AuthList))
		for i, auth := range tx.AuthList {
			cpy.AuthList[i] = auth.copy()
		}
	}
	return cpy
}
