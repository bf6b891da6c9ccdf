package wallet

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"SetCodeGen/eip7702"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
)

// DefaultDerivationPath is the standard Ethereum derivation path.
const DefaultDerivationPath = "m/44'/60'/0'/0/0"

// AccountInfo represents the wallet account information from JSON
type AccountInfo struct {
	DID       string `json:"did"`
	Mnemonic  string `json:"mnemonic"`
	PublicKey string `json:"public_key"`
}

// LoadAccountInfo loads the account information from the provided JSON file
func LoadAccountInfo(filePath string) (*AccountInfo, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading account file: %w", err)
	}

	var account AccountInfo
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("error parsing account data: %w", err)
	}
	if account.Mnemonic == "" {
		return nil, fmt.Errorf("account file %s has no mnemonic", filePath)
	}

	return &account, nil
}

// KeyFromMnemonic derives the private key at derivationPath from the
// mnemonic phrase. An empty path means DefaultDerivationPath.
func KeyFromMnemonic(mnemonic, derivationPath string) (*ecdsa.PrivateKey, common.Address, error) {
	if derivationPath == "" {
		derivationPath = DefaultDerivationPath
	}
	wallet, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("failed to create wallet from mnemonic: %w", err)
	}

	path, err := hdwallet.ParseDerivationPath(derivationPath)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("invalid derivation path %q: %w", derivationPath, err)
	}
	account, err := wallet.Derive(path, false)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("failed to derive account: %w", err)
	}

	privateKey, err := wallet.PrivateKey(account)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("failed to get private key: %w", err)
	}

	return privateKey, account.Address, nil
}

// LoadKey reads the account file and derives its signing key.
func LoadKey(accountPath, derivationPath string) (*ecdsa.PrivateKey, common.Address, error) {
	accountInfo, err := LoadAccountInfo(accountPath)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("failed to load account: %w", err)
	}
	return KeyFromMnemonic(accountInfo.Mnemonic, derivationPath)
}

// KeyFromHex parses a hex encoded raw private key, with or without 0x.
func KeyFromHex(s string) (*ecdsa.PrivateKey, common.Address, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("invalid private key hex: %w", err)
	}
	key, err := eip7702.PrivateKeyFromBytes(b)
	if err != nil {
		return nil, common.Address{}, err
	}
	return key, crypto.PubkeyToAddress(key.PublicKey), nil
}
