package api

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"SetCodeGen/eip7702"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// errBadRequest marks failures caused by the request contents.
var errBadRequest = errors.New("bad request")

// Request and response models

// AuthorizationRequest is an unsigned authorization tuple. Integers are
// strings to preserve precision; decimal and 0x-prefixed hex are accepted.
type AuthorizationRequest struct {
	ChainID string `json:"chain_id" binding:"required"`
	Address string `json:"address" binding:"required"`
	Nonce   string `json:"nonce" binding:"required"`
}

// AuthorizationItem is one entry of a transaction's authorization list:
// either a tuple signed elsewhere, or an unsigned tuple the server signs.
type AuthorizationItem struct {
	Signed *eip7702.SignedAuthorization `json:"signed,omitempty"`
	*AuthorizationRequest
}

type AccessTuple struct {
	Address     string   `json:"address"`
	StorageKeys []string `json:"storage_keys"`
}

type TransactionRequest struct {
	ChainID        string              `json:"chain_id" binding:"required"`
	Nonce          string              `json:"nonce" binding:"required"`
	MaxPriorityFee string              `json:"max_priority_fee" binding:"required"`
	MaxFee         string              `json:"max_fee" binding:"required"`
	GasLimit       string              `json:"gas_limit" binding:"required"`
	To             string              `json:"to" binding:"required"`
	Value          string              `json:"value"`
	Data           string              `json:"data"` // 0x-prefixed hex
	AccessList     []AccessTuple       `json:"access_list"`
	Authorizations []AuthorizationItem `json:"authorizations"`
}

type DecodeRequest struct {
	Raw string `json:"raw" binding:"required"`
}

type AuthorizationResponse struct {
	Authorization *eip7702.SignedAuthorization `json:"authorization"`
	Authority     string                       `json:"authority"`
}

type SignatureData struct {
	YParity uint8  `json:"y_parity"`
	R       string `json:"r"`
	S       string `json:"s"`
}

type TransactionResponse struct {
	Raw             string        `json:"raw"`
	TransactionHash string        `json:"transaction_hash"`
	Sender          string        `json:"sender"`
	Signature       SignatureData `json:"signature"`
}

type TransactionData struct {
	ChainID              string                        `json:"chain_id"`
	Nonce                string                        `json:"nonce"`
	MaxPriorityFeePerGas string                        `json:"max_priority_fee"`
	MaxFeePerGas         string                        `json:"max_fee"`
	GasLimit             string                        `json:"gas_limit"`
	To                   string                        `json:"to"`
	Value                string                        `json:"value"`
	Data                 string                        `json:"data"`
	AccessList           []AccessTuple                 `json:"access_list"`
	AuthorizationList    []eip7702.SignedAuthorization `json:"authorization_list"`
	Signature            SignatureData                 `json:"signature"`
	TransactionHash      string                        `json:"transaction_hash"`
	Sender               string                        `json:"sender"`
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// ParseBig parses a non-negative decimal or 0x-prefixed hex integer of any
// size. An empty string is zero.
func ParseBig(field, s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int), false
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, ok = v.SetString(s[2:], 16)
	} else {
		v, ok = v.SetString(s, 10)
	}
	if !ok || v.Sign() < 0 {
		return nil, badRequest("invalid %s %q", field, s)
	}
	return v, nil
}

// ParseAddress parses a hex account address.
func ParseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, badRequest("invalid %s %q", field, s)
	}
	return common.HexToAddress(s), nil
}

// Unsigned converts the request into an authorization tuple.
// Binding does not reach nested authorizations, so the required fields are
// checked here: an empty chain id would sign a tuple valid on every chain.
func (r *AuthorizationRequest) Unsigned() (eip7702.UnsignedAuthorization, error) {
	if strings.TrimSpace(r.ChainID) == "" || strings.TrimSpace(r.Nonce) == "" {
		return eip7702.UnsignedAuthorization{}, badRequest("authorization needs chain_id, address and nonce")
	}
	chainID, err := ParseBig("chain id", r.ChainID)
	if err != nil {
		return eip7702.UnsignedAuthorization{}, err
	}
	address, err := ParseAddress("delegate address", r.Address)
	if err != nil {
		return eip7702.UnsignedAuthorization{}, err
	}
	nonce, err := ParseBig("nonce", r.Nonce)
	if err != nil {
		return eip7702.UnsignedAuthorization{}, err
	}
	return eip7702.UnsignedAuthorization{ChainID: chainID, Address: address, Nonce: nonce}, nil
}

// toAccessList converts API AccessTuple to eip7702.AccessList
func toAccessList(apiList []AccessTuple) (eip7702.AccessList, error) {
	if len(apiList) == 0 {
		return eip7702.AccessList{}, nil
	}

	result := make(eip7702.AccessList, len(apiList))
	for i, tuple := range apiList {
		address, err := ParseAddress("access list address", tuple.Address)
		if err != nil {
			return nil, err
		}
		storageKeys := make([]common.Hash, len(tuple.StorageKeys))
		for j, key := range tuple.StorageKeys {
			b, err := hexutil.Decode(key)
			if err != nil || len(b) > common.HashLength {
				return nil, badRequest("invalid storage key %q", key)
			}
			storageKeys[j] = common.BytesToHash(b)
		}

		result[i] = eip7702.AccessTuple{
			Address:     address,
			StorageKeys: storageKeys,
		}
	}
	return result, nil
}

func fromAccessList(list eip7702.AccessList) []AccessTuple {
	result := make([]AccessTuple, len(list))
	for i, tuple := range list {
		keys := make([]string, len(tuple.StorageKeys))
		for j, key := range tuple.StorageKeys {
			keys[j] = key.Hex()
		}
		result[i] = AccessTuple{
			Address:     tuple.Address.Hex(),
			StorageKeys: keys,
		}
	}
	return result
}

// Build signs every unsigned authorization with key, assembles the
// transaction and signs it with key.
func (r *TransactionRequest) Build(ctx context.Context, key *ecdsa.PrivateKey) (*eip7702.SignedTransaction, error) {
	tx := &eip7702.UnsignedTransaction{}
	var err error
	for _, field := range []struct {
		name  string
		value string
		dst   **big.Int
	}{
		{"chain id", r.ChainID, &tx.ChainID},
		{"nonce", r.Nonce, &tx.Nonce},
		{"max priority fee", r.MaxPriorityFee, &tx.MaxPriorityFeePerGas},
		{"max fee", r.MaxFee, &tx.MaxFeePerGas},
		{"gas limit", r.GasLimit, &tx.GasLimit},
		{"value", r.Value, &tx.Value},
	} {
		if *field.dst, err = ParseBig(field.name, field.value); err != nil {
			return nil, err
		}
	}
	if tx.To, err = ParseAddress("recipient address", r.To); err != nil {
		return nil, err
	}
	if r.Data != "" {
		if tx.Data, err = hexutil.Decode(r.Data); err != nil {
			return nil, badRequest("invalid data: %v", err)
		}
	}
	if tx.AccessList, err = toAccessList(r.AccessList); err != nil {
		return nil, err
	}
	if tx.AuthList, err = r.authorizations(ctx, key); err != nil {
		return nil, err
	}
	return eip7702.SignTransaction(tx, key)
}

func (r *TransactionRequest) authorizations(ctx context.Context, key *ecdsa.PrivateKey) ([]eip7702.SignedAuthorization, error) {
	list := make([]eip7702.SignedAuthorization, len(r.Authorizations))
	var (
		reqs    []eip7702.AuthorizationRequest
		indices []int
	)
	for i, item := range r.Authorizations {
		switch {
		case item.Signed != nil:
			list[i] = *item.Signed
		case item.AuthorizationRequest != nil:
			unsigned, err := item.AuthorizationRequest.Unsigned()
			if err != nil {
				return nil, fmt.Errorf("authorization %d: %w", i, err)
			}
			reqs = append(reqs, eip7702.AuthorizationRequest{Authorization: unsigned, Key: key})
			indices = append(indices, i)
		default:
			return nil, badRequest("authorization %d is empty", i)
		}
	}
	signed, err := eip7702.BuildAuthorizations(ctx, reqs)
	if err != nil {
		return nil, err
	}
	for j, i := range indices {
		list[i] = signed[j]
	}
	return list, nil
}

func signatureData(sig eip7702.Signature) SignatureData {
	return SignatureData{
		YParity: sig.YParity,
		R:       hexutil.Encode(sig.R[:]),
		S:       hexutil.Encode(sig.S[:]),
	}
}

func toTransactionResponse(st *eip7702.SignedTransaction) (*TransactionResponse, error) {
	sender, err := st.Sender()
	if err != nil {
		return nil, err
	}
	return &TransactionResponse{
		Raw:             st.Hex(),
		TransactionHash: st.Hash().Hex(),
		Sender:          sender.Hex(),
		Signature:       signatureData(st.Signature()),
	}, nil
}

// ToTransactionData converts a signed transaction to TransactionData
func ToTransactionData(st *eip7702.SignedTransaction) (*TransactionData, error) {
	tx := st.Transaction()
	sender, err := st.Sender()
	if err != nil {
		return nil, err
	}
	return &TransactionData{
		ChainID:              tx.ChainID.String(),
		Nonce:                tx.Nonce.String(),
		MaxPriorityFeePerGas: tx.MaxPriorityFeePerGas.String(),
		MaxFeePerGas:         tx.MaxFeePerGas.String(),
		GasLimit:             tx.GasLimit.String(),
		To:                   tx.To.Hex(),
		Value:                tx.Value.String(),
		Data:                 hexutil.Encode(tx.Data),
		AccessList:           fromAccessList(tx.AccessList),
		AuthorizationList:    tx.AuthList,
		Signature:            signatureData(st.Signature()),
		TransactionHash:      st.Hash().Hex(),
		Sender:               sender.Hex(),
	}, nil
}
