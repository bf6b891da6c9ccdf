package eip7702

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// SigHash returns the digest the sender signs.
func (tx *UnsignedTransaction) SigHash() (common.Hash, error) {
	return TransactionDigest(tx)
}

// SignTransaction signs the current contents of tx, including whatever
// authorization list it holds at call time. tx itself is left untouched and
// may be signed again; each call returns a fresh SignedTransaction.
func SignTransaction(tx *UnsignedTransaction, key *ecdsa.PrivateKey) (*SignedTransaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: nil transaction", ErrEncoding)
	}
	body := tx.Copy()
	digest, err := TransactionDigest(&body)
	if err != nil {
		return nil, err
	}
	sig, err := Sign(digest, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTxSigning, err)
	}
	return newSignedTransaction(body, sig, digest)
}

func newSignedTransaction(body UnsignedTransaction, sig Signature, digest common.Hash) (*SignedTransaction, error) {
	enc, err := EncodeSignedTransactionBody(&body, sig)
	if err != nil {
		return nil, err
	}
	raw := make([]byte, 0, len(enc)+1)
	raw = append(raw, SetCodeTxType)
	raw = append(raw, enc...)
	return &SignedTransaction{
		tx:      body,
		sig:     sig,
		sigHash: digest,
		raw:     raw,
	}, nil
}

// Transaction returns a copy of the signed body.
func (st *SignedTransaction) Transaction() UnsignedTransaction {
	return st.tx.Copy()
}

// Signature returns the sender's signature.
func (st *SignedTransaction) Signature() Signature {
	return st.sig
}

// SigHash returns the digest that was signed.
func (st *SignedTransaction) SigHash() common.Hash {
	return st.sigHash
}

// Serialize returns 0x04 || rlp(body ++ [yParity, r, s]).
func (st *SignedTransaction) Serialize() []byte {
	return common.CopyBytes(st.raw)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (st *SignedTransaction) MarshalBinary() ([]byte, error) {
	return st.Serialize(), nil
}

// Hex returns the 0x prefixed serialized transaction, ready for
// eth_sendRawTransaction.
func (st *SignedTransaction) Hex() string {
	return hexutil.Encode(st.raw)
}

// Hash returns the transaction hash as seen on chain.
func (st *SignedTransaction) Hash() common.Hash {
	return crypto.Keccak256Hash(st.raw)
}

// Sender recovers the address that signed the transaction.
func (st *SignedTransaction) Sender() (common.Address, error) {
	return Recover(st.sigHash, st.sig)
}

// DecodeSignedTransaction parses the output of Serialize.
func DecodeSignedTransaction(raw []byte) (*SignedTransaction, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty transaction", ErrEncoding)
	}
	if raw[0] != SetCodeTxType {
		return nil, fmt.Errorf("%w: unexpected transaction type 0x%02x", ErrEncoding, raw[0])
	}
	var dec signedTxRLP
	if err := rlp.DecodeBytes(raw[1:], &dec); err != nil {
		return nil, fmt.Errorf("%w: signed transaction: %w", ErrEncoding, err)
	}
	sig, err := signatureFromValues(dec.YParity, dec.R, dec.S)
	if err != nil {
		return nil, err
	}
	// Authorization signatures are only range checked: an invalid tuple is
	// skipped on chain and does not invalidate the transaction.
	if !sig.valid() {
		return nil, fmt.Errorf("%w: transaction signature", ErrInvalidSignature)
	}
	body := UnsignedTransaction{
		ChainID:              dec.ChainID,
		Nonce:                dec.Nonce,
		MaxPriorityFeePerGas: dec.MaxPriorityFeePerGas,
		MaxFeePerGas:         dec.MaxFeePerGas,
		GasLimit:             dec.GasLimit,
		To:                   dec.To,
		Value:                dec.Value,
		Data:                 dec.Data,
		AccessList:           dec.AccessList,
		AuthList:             make([]SignedAuthorization, len(dec.AuthList)),
	}
	for i := range dec.AuthList {
		if body.AuthList[i], err = dec.AuthList[i].signed(); err != nil {
			return nil, fmt.Errorf("authorization %d: %w", i, err)
		}
	}
	digest, err := TransactionDigest(&body)
	if err != nil {
		return nil, err
	}
	return newSignedTransaction(body, sig, digest)
}

// DecodeSignedTransactionHex is DecodeSignedTransaction for 0x prefixed hex.
func DecodeSignedTransactionHex(s string) (*SignedTransaction, error) {
	raw, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return DecodeSignedTransaction(raw)
}
