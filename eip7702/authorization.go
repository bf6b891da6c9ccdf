package eip7702

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"runtime"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/sync/errgroup"
)

// SigHash returns the digest the authority signs.
func (a UnsignedAuthorization) SigHash() (common.Hash, error) {
	return AuthorizationDigest(a)
}

// BuildAuthorization signs auth with key. The returned value owns copies of
// the tuple fields.
func BuildAuthorization(auth UnsignedAuthorization, key *ecdsa.PrivateKey) (SignedAuthorization, error) {
	digest, err := AuthorizationDigest(auth)
	if err != nil {
		return SignedAuthorization{}, err
	}
	sig, err := Sign(digest, key)
	if err != nil {
		return SignedAuthorization{}, fmt.Errorf("%w: %w", ErrAuthSigning, err)
	}
	return SignedAuthorization{
		UnsignedAuthorization: auth.copy(),
		Signature:             sig,
	}, nil
}

// AuthorizationRequest pairs a tuple with the key of its authority.
type AuthorizationRequest struct {
	Authorization UnsignedAuthorization
	Key           *ecdsa.PrivateKey
}

// BuildAuthorizations signs every request concurrently. The result keeps the
// order of reqs; the first failure cancels the rest.
func BuildAuthorizations(ctx context.Context, reqs []AuthorizationRequest) ([]SignedAuthorization, error) {
	out := make([]SignedAuthorization, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			signed, err := BuildAuthorization(req.Authorization, req.Key)
			if err != nil {
				return fmt.Errorf("authorization %d: %w", i, err)
			}
			out[i] = signed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Authority recovers the account that signed the authorization.
func (a *SignedAuthorization) Authority() (common.Address, error) {
	digest, err := AuthorizationDigest(a.UnsignedAuthorization)
	if err != nil {
		return common.Address{}, err
	}
	return Recover(digest, a.Signature)
}

// MarshalBinary returns rlp([chainId, address, nonce, yParity, r, s]), the
// form the tuple takes inside a transaction's authorization list.
func (a SignedAuthorization) MarshalBinary() ([]byte, error) {
	enc, err := rlp.EncodeToBytes(a.rlpEntry())
	if err != nil {
		return nil, fmt.Errorf("%w: signed authorization: %w", ErrEncoding, err)
	}
	return enc, nil
}

// UnmarshalBinary decodes the output of MarshalBinary.
func (a *SignedAuthorization) UnmarshalBinary(b []byte) error {
	var dec authEntryRLP
	if err := rlp.DecodeBytes(b, &dec); err != nil {
		return fmt.Errorf("%w: signed authorization: %w", ErrEncoding, err)
	}
	auth, err := dec.signed()
	if err != nil {
		return err
	}
	*a = auth
	return nil
}

func (e *authEntryRLP) signed() (SignedAuthorization, error) {
	sig, err := signatureFromValues(e.YParity, e.R, e.S)
	if err != nil {
		return SignedAuthorization{}, err
	}
	return SignedAuthorization{
		UnsignedAuthorization: UnsignedAuthorization{
			ChainID: bigOrZero(e.ChainID),
			Address: e.Address,
			Nonce:   bigOrZero(e.Nonce),
		},
		Signature: sig,
	}, nil
}

func signatureFromValues(v uint8, r, s *big.Int) (Signature, error) {
	if v > 1 {
		return Signature{}, fmt.Errorf("%w: yParity %d out of range", ErrEncoding, v)
	}
	r, s = bigOrZero(r), bigOrZero(s)
	if r.BitLen() > 256 || s.BitLen() > 256 {
		return Signature{}, fmt.Errorf("%w: signature value exceeds 32 bytes", ErrEncoding)
	}
	sig := Signature{YParity: v}
	r.FillBytes(sig.R[:])
	s.FillBytes(sig.S[:])
	return sig, nil
}

// authorizationJSON follows the JSON-RPC shape of an authorization list entry.
type authorizationJSON struct {
	ChainID *hexutil.Big    `json:"chainId"`
	Address *common.Address `json:"address"`
	Nonce   *hexutil.Big    `json:"nonce"`
	YParity hexutil.Uint64  `json:"yParity"`
	R       *hexutil.Big    `json:"r"`
	S       *hexutil.Big    `json:"s"`
}

func (a SignedAuthorization) MarshalJSON() ([]byte, error) {
	return json.Marshal(authorizationJSON{
		ChainID: (*hexutil.Big)(bigOrZero(a.ChainID)),
		Address: &a.Address,
		Nonce:   (*hexutil.Big)(bigOrZero(a.Nonce)),
		YParity: hexutil.Uint64(a.YParity),
		R:       (*hexutil.Big)(new(big.Int).SetBytes(a.R[:])),
		S:       (*hexutil.Big)(new(big.Int).SetBytes(a.S[:])),
	})
}

func (a *SignedAuthorization) UnmarshalJSON(input []byte) error {
	var dec authorizationJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	if dec.ChainID == nil || dec.Address == nil || dec.Nonce == nil || dec.R == nil || dec.S == nil {
		return errors.New("missing required field in authorization")
	}
	if dec.YParity > 1 {
		return fmt.Errorf("%w: yParity %d out of range", ErrEncoding, dec.YParity)
	}
	sig, err := signatureFromValues(uint8(dec.YParity), dec.R.ToInt(), dec.S.ToInt())
	if err != nil {
		return err
	}
	*a = SignedAuthorization{
		UnsignedAuthorization: UnsignedAuthorization{
			ChainID: dec.ChainID.ToInt(),
			Address: *dec.Address,
			Nonce:   dec.Nonce.ToInt(),
		},
		Signature: sig,
	}
	return nil
}
