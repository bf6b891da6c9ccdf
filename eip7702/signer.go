package eip7702

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Sign produces a recoverable signature over digest. The key is only read.
func Sign(digest common.Hash, key *ecdsa.PrivateKey) (Signature, error) {
	if key == nil || key.D == nil {
		return Signature{}, fmt.Errorf("%w: missing private key", ErrSigning)
	}
	// hdwallet keys carry btcec's curve value, so compare the group order.
	if key.Curve == nil || key.Params().N.Cmp(crypto.S256().Params().N) != 0 {
		return Signature{}, fmt.Errorf("%w: private key is not on secp256k1", ErrSigning)
	}
	sig, err := crypto.Sign(digest[:], key)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: %w", ErrSigning, err)
	}
	return decomposeSignature(sig)
}

// decomposeSignature splits a [R || S || V] signature into its fields.
func decomposeSignature(sig []byte) (Signature, error) {
	if len(sig) != crypto.SignatureLength {
		return Signature{}, fmt.Errorf("%w: signature length %d", ErrSigning, len(sig))
	}
	var out Signature
	copy(out.R[:], sig[:32])
	copy(out.S[:], sig[32:64])
	out.YParity = sig[64]
	if !out.valid() {
		return Signature{}, fmt.Errorf("%w: non-canonical signature values", ErrSigning)
	}
	return out, nil
}

func (s Signature) valid() bool {
	r := new(big.Int).SetBytes(s.R[:])
	sv := new(big.Int).SetBytes(s.S[:])
	return crypto.ValidateSignatureValues(s.YParity, r, sv, true)
}

// Bytes returns the signature in the 65 byte [R || S || V] form.
func (s Signature) Bytes() []byte {
	out := make([]byte, crypto.SignatureLength)
	copy(out[:32], s.R[:])
	copy(out[32:64], s.S[:])
	out[64] = s.YParity
	return out
}

// Recover returns the address whose key produced sig over digest.
func Recover(digest common.Hash, sig Signature) (common.Address, error) {
	if !sig.valid() {
		return common.Address{}, ErrInvalidSignature
	}
	pub, err := crypto.SigToPub(digest[:], sig.Bytes())
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// PrivateKeyFromBytes parses a raw 32 byte secp256k1 key.
func PrivateKeyFromBytes(b []byte) (*ecdsa.PrivateKey, error) {
	key, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}
	return key, nil
}
