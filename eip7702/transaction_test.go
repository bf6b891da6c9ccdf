package eip7702

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/require"
)

func testTransaction() *UnsignedTransaction {
	return &UnsignedTransaction{
		ChainID:              big.NewInt(1),
		Nonce:                big.NewInt(3),
		MaxPriorityFeePerGas: big.NewInt(2 * params.GWei),
		MaxFeePerGas:         big.NewInt(30 * params.GWei),
		GasLimit:             big.NewInt(100000),
		To:                   receiver,
		Value:                big.NewInt(1),
		Data:                 []byte{0xde, 0xad, 0xbe, 0xef},
		AccessList: AccessList{{
			Address: receiver,
			StorageKeys: []common.Hash{
				common.HexToHash("0x01"),
				common.HexToHash("0x01"),
			},
		}},
	}
}

func signedTestTransaction(t *testing.T) (*SignedTransaction, common.Address) {
	t.Helper()
	key, addr := testKey(t)
	auth, err := BuildAuthorization(UnsignedAuthorization{ChainID: big.NewInt(1), Address: delegate, Nonce: big.NewInt(4)}, key)
	require.NoError(t, err)

	tx := testTransaction()
	tx.AuthList = []SignedAuthorization{auth}
	st, err := SignTransaction(tx, key)
	require.NoError(t, err)
	return st, addr
}

func TestSignTransactionRecoversSender(t *testing.T) {
	st, addr := signedTestTransaction(t)

	body := st.Transaction()
	digest, err := TransactionDigest(&body)
	require.NoError(t, err)
	require.Equal(t, digest, st.SigHash())

	recovered, err := Recover(digest, st.Signature())
	require.NoError(t, err)
	require.Equal(t, addr, recovered)

	sender, err := st.Sender()
	require.NoError(t, err)
	require.Equal(t, addr, sender)
	require.LessOrEqual(t, st.Signature().YParity, uint8(1))
}

func TestSerializePrefix(t *testing.T) {
	st, _ := signedTestTransaction(t)
	raw := st.Serialize()

	require.Equal(t, SetCodeTxType, raw[0])
	kind, content, rest, err := rlp.Split(raw[1:])
	require.NoError(t, err)
	require.Equal(t, rlp.List, kind)
	require.Empty(t, rest)

	count, err := rlp.CountValues(content)
	require.NoError(t, err)
	require.Equal(t, 13, count)

	require.Equal(t, "0x04", st.Hex()[:4])
	require.Equal(t, crypto.Keccak256Hash(raw), st.Hash())

	enc, err := st.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, raw, enc)
}

func TestSignTransactionEmptyLists(t *testing.T) {
	key, addr := testKey(t)
	tx := &UnsignedTransaction{
		ChainID:              big.NewInt(1),
		MaxPriorityFeePerGas: big.NewInt(1),
		MaxFeePerGas:         big.NewInt(1),
		GasLimit:             big.NewInt(21000),
		To:                   receiver,
	}
	st, err := SignTransaction(tx, key)
	require.NoError(t, err)

	raw := st.Serialize()
	require.Equal(t, SetCodeTxType, raw[0])
	require.GreaterOrEqual(t, raw[1], byte(0xc0))

	sender, err := st.Sender()
	require.NoError(t, err)
	require.Equal(t, addr, sender)
}

func TestSignedTransactionIsImmutable(t *testing.T) {
	key, _ := testKey(t)
	tx := testTransaction()

	st, err := SignTransaction(tx, key)
	require.NoError(t, err)
	raw := st.Serialize()

	tx.Value.SetInt64(1000)
	tx.Data[0] = 0x00
	tx.AccessList[0].StorageKeys[0] = common.Hash{}
	require.Equal(t, raw, st.Serialize())

	out := st.Serialize()
	out[0] = 0xff
	require.Equal(t, raw, st.Serialize())

	body := st.Transaction()
	body.Nonce.SetInt64(99)
	require.Equal(t, raw, st.Serialize())

	// signing again after a mutation is allowed and covers the new fields
	resigned, err := SignTransaction(tx, key)
	require.NoError(t, err)
	require.NotEqual(t, raw, resigned.Serialize())
	require.NotEqual(t, st.SigHash(), resigned.SigHash())
}

func TestSignTransactionFailures(t *testing.T) {
	_, err := SignTransaction(testTransaction(), nil)
	require.ErrorIs(t, err, ErrTxSigning)
	require.ErrorIs(t, err, ErrSigning)

	_, err = SignTransaction(nil, nil)
	require.ErrorIs(t, err, ErrEncoding)

	key, _ := testKey(t)
	tx := testTransaction()
	tx.Value = big.NewInt(-1)
	_, err = SignTransaction(tx, key)
	require.ErrorIs(t, err, ErrEncoding)
}

func TestDecodeSignedTransaction(t *testing.T) {
	st, addr := signedTestTransaction(t)

	dec, err := DecodeSignedTransaction(st.Serialize())
	require.NoError(t, err)
	require.Equal(t, st.Serialize(), dec.Serialize())
	require.Equal(t, st.Hash(), dec.Hash())
	require.Equal(t, st.SigHash(), dec.SigHash())
	require.Equal(t, st.Signature(), dec.Signature())

	sender, err := dec.Sender()
	require.NoError(t, err)
	require.Equal(t, addr, sender)

	body := dec.Transaction()
	require.Len(t, body.AuthList, 1)
	require.Len(t, body.AccessList, 1)
	require.Len(t, body.AccessList[0].StorageKeys, 2)
	authority, err := body.AuthList[0].Authority()
	require.NoError(t, err)
	require.Equal(t, addr, authority)

	fromHex, err := DecodeSignedTransactionHex(st.Hex())
	require.NoError(t, err)
	require.Equal(t, st.Hash(), fromHex.Hash())
}

func TestDecodeSignedTransactionErrors(t *testing.T) {
	st, _ := signedTestTransaction(t)
	raw := st.Serialize()

	for name, input := range map[string][]byte{
		"empty":     nil,
		"type":      append([]byte{0x02}, raw[1:]...),
		"trailing":  append(common.CopyBytes(raw), 0x00),
		"truncated": raw[:len(raw)-1],
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSignedTransaction(input)
			require.ErrorIs(t, err, ErrEncoding)
		})
	}

	_, err := DecodeSignedTransactionHex("04")
	require.ErrorIs(t, err, ErrEncoding)

	// well-formed encoding, but r and s are zero
	body := st.Transaction()
	enc, err := EncodeSignedTransactionBody(&body, Signature{})
	require.NoError(t, err)
	_, err = DecodeSignedTransaction(append([]byte{SetCodeTxType}, enc...))
	require.ErrorIs(t, err, ErrInvalidSignature)
}
