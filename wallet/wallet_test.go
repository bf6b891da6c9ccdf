package wallet

import (
	"os"
	"path/filepath"
	"testing"

	"SetCodeGen/eip7702"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "tag volcano eight thank tide danger coast health above argue embrace heavy"

func writeAccount(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Account.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestKeyFromMnemonic(t *testing.T) {
	key, addr, err := KeyFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0xC49926C4124cEe1cbA0Ea94Ea31a6c12318df947"), addr)
	require.Equal(t, addr, crypto.PubkeyToAddress(key.PublicKey))

	_, second, err := KeyFromMnemonic(testMnemonic, "m/44'/60'/0'/0/1")
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0x8230645aC28A4EdD1b0B53E7Cd8019744E9dD559"), second)

	// derived keys sign and recover like any other secp256k1 key
	signed, err := eip7702.BuildAuthorization(eip7702.UnsignedAuthorization{ChainID: common.Big1, Address: second}, key)
	require.NoError(t, err)
	authority, err := signed.Authority()
	require.NoError(t, err)
	require.Equal(t, addr, authority)

	_, _, err = KeyFromMnemonic("not a mnemonic", "")
	require.Error(t, err)

	_, _, err = KeyFromMnemonic(testMnemonic, "m/bogus")
	require.Error(t, err)
}

func TestLoadKey(t *testing.T) {
	path := writeAccount(t, `{"did":"did:example:1","mnemonic":"`+testMnemonic+`","public_key":""}`)

	info, err := LoadAccountInfo(path)
	require.NoError(t, err)
	require.Equal(t, "did:example:1", info.DID)

	_, addr, err := LoadKey(path, DefaultDerivationPath)
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0xC49926C4124cEe1cbA0Ea94Ea31a6c12318df947"), addr)
}

func TestLoadAccountInfoErrors(t *testing.T) {
	_, err := LoadAccountInfo(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	_, err = LoadAccountInfo(writeAccount(t, `{`))
	require.Error(t, err)

	_, err = LoadAccountInfo(writeAccount(t, `{"did":"x"}`))
	require.Error(t, err)
}

func TestKeyFromHex(t *testing.T) {
	const hexKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"
	want, err := crypto.HexToECDSA(hexKey)
	require.NoError(t, err)

	for _, input := range []string{hexKey, "0x" + hexKey, " 0x" + hexKey + "\n"} {
		_, addr, err := KeyFromHex(input)
		require.NoError(t, err)
		require.Equal(t, crypto.PubkeyToAddress(want.PublicKey), addr)
	}

	_, _, err = KeyFromHex("0x1234")
	require.ErrorIs(t, err, eip7702.ErrSigning)

	_, _, err = KeyFromHex("zz")
	require.Error(t, err)
}
