package eip7702

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

// The tests below pin the encoding against go-ethereum's own set-code types.

func TestAuthorizationMatchesGeth(t *testing.T) {
	key, addr := testKey(t)
	gethAuth := types.SetCodeAuthorization{
		ChainID: *uint256.NewInt(1),
		Address: delegate,
		Nonce:   0,
	}

	digest, err := AuthorizationDigest(UnsignedAuthorization{ChainID: big.NewInt(1), Address: delegate, Nonce: big.NewInt(0)})
	require.NoError(t, err)
	tuple, err := rlp.EncodeToBytes([]any{gethAuth.ChainID.ToBig(), gethAuth.Address, gethAuth.Nonce})
	require.NoError(t, err)
	require.Equal(t, crypto.Keccak256Hash([]byte{0x05}, tuple), digest)

	want, err := types.SignSetCode(key, gethAuth)
	require.NoError(t, err)
	signed, err := BuildAuthorization(UnsignedAuthorization{ChainID: big.NewInt(1), Address: delegate, Nonce: big.NewInt(0)}, key)
	require.NoError(t, err)

	require.Equal(t, want.V, signed.YParity)
	require.Equal(t, want.R.Bytes32(), signed.R)
	require.Equal(t, want.S.Bytes32(), signed.S)

	converted, err := signed.ToGeth()
	require.NoError(t, err)
	require.Equal(t, want, converted)

	authority, err := converted.Authority()
	require.NoError(t, err)
	require.Equal(t, addr, authority)
}

func TestTransactionMatchesGeth(t *testing.T) {
	st, addr := signedTestTransaction(t)
	key, _ := testKey(t)

	auth := st.Transaction().AuthList[0]
	gethAuth, err := auth.ToGeth()
	require.NoError(t, err)

	signer := types.LatestSignerForChainID(big.NewInt(1))
	want, err := types.SignNewTx(key, signer, &types.SetCodeTx{
		ChainID:   uint256.NewInt(1),
		Nonce:     3,
		GasTipCap: uint256.NewInt(2 * params.GWei),
		GasFeeCap: uint256.NewInt(30 * params.GWei),
		Gas:       100000,
		To:        receiver,
		Value:     uint256.NewInt(1),
		Data:      []byte{0xde, 0xad, 0xbe, 0xef},
		AccessList: types.AccessList{{
			Address:     receiver,
			StorageKeys: st.Transaction().AccessList[0].StorageKeys,
		}},
		AuthList: []types.SetCodeAuthorization{gethAuth},
	})
	require.NoError(t, err)

	require.Equal(t, signer.Hash(want), st.SigHash())
	wantRaw, err := want.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, wantRaw, st.Serialize())
	require.Equal(t, want.Hash(), st.Hash())

	converted, err := st.ToGeth()
	require.NoError(t, err)
	convertedRaw, err := converted.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, wantRaw, convertedRaw)

	sender, err := types.Sender(signer, converted)
	require.NoError(t, err)
	require.Equal(t, addr, sender)
}

func TestToGethOverflow(t *testing.T) {
	key, _ := testKey(t)
	tx := testTransaction()
	tx.GasLimit = new(big.Int).Lsh(big.NewInt(1), 64)
	st, err := SignTransaction(tx, key)
	require.NoError(t, err)

	_, err = st.ToGeth()
	require.ErrorIs(t, err, ErrEncoding)

	auth, err := BuildAuthorization(UnsignedAuthorization{
		ChainID: new(big.Int).Lsh(big.NewInt(1), 256),
		Address: delegate,
	}, key)
	require.NoError(t, err)
	_, err = auth.ToGeth()
	require.ErrorIs(t, err, ErrEncoding)
}
