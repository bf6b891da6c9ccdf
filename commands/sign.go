package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"SetCodeGen/api"
	"SetCodeGen/eip7702"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newSignAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sign-auth <chain-id> <delegate-to> <nonce>",
		Short: "Sign an EIP-7702 authorization tuple",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.AuthorizationRequest{ChainID: args[0], Address: args[1], Nonce: args[2]}
			unsigned, err := req.Unsigned()
			if err != nil {
				return err
			}
			log, key, err := setup(cmd)
			if err != nil {
				return err
			}

			signed, err := eip7702.BuildAuthorization(unsigned, key)
			if err != nil {
				return err
			}
			authority, err := signed.Authority()
			if err != nil {
				return err
			}
			log.WithField("authority", authority.Hex()).Info("Signed authorization")
			return printJSON(cmd, api.AuthorizationResponse{
				Authorization: &signed,
				Authority:     authority.Hex(),
			})
		},
	}
}

// authFlag feeds --auth and --signed-auth into one list, so authorizations
// keep the order they are given in on the command line.
type authFlag struct {
	items  *[]api.AuthorizationItem
	signed bool
}

func (f authFlag) String() string { return "" }

func (f authFlag) Type() string {
	if f.signed {
		return "json"
	}
	return "chainId:address:nonce"
}

func (f authFlag) Set(v string) error {
	if f.signed {
		var auth eip7702.SignedAuthorization
		if err := json.Unmarshal([]byte(v), &auth); err != nil {
			return err
		}
		*f.items = append(*f.items, api.AuthorizationItem{Signed: &auth})
		return nil
	}
	parts := strings.Split(v, ":")
	if len(parts) != 3 {
		return fmt.Errorf("want chainId:address:nonce, got %q", v)
	}
	*f.items = append(*f.items, api.AuthorizationItem{
		AuthorizationRequest: &api.AuthorizationRequest{ChainID: parts[0], Address: parts[1], Nonce: parts[2]},
	})
	return nil
}

func newSignTxCmd() *cobra.Command {
	var auths []api.AuthorizationItem
	cmd := &cobra.Command{
		Use:   "sign-tx",
		Short: "Build and sign an EIP-7702 set-code transaction",
		Long: `Build and sign an EIP-7702 set-code transaction.

Authorizations given with --auth chainId:address:nonce are signed with the
same key as the transaction. Tuples signed by other accounts are passed as
JSON with --signed-auth. Both flags may be repeated and mixed; the
authorization list follows their order on the command line. Access list
entries are given as --access address[:key1,key2,...].`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return signTxCommand(cmd, auths)
		},
	}
	cmd.Flags().String("chain-id", "1", "Chain ID")
	cmd.Flags().String("nonce", "0", "Sender nonce")
	cmd.Flags().String("max-priority-fee", "", "Max priority fee per gas (wei)")
	cmd.Flags().String("max-fee", "", "Max fee per gas (wei)")
	cmd.Flags().String("gas-limit", "", "Gas limit")
	cmd.Flags().String("to", "", "Recipient address")
	cmd.Flags().String("value", "0", "Value (wei)")
	cmd.Flags().String("data", "", "Call data (0x hex)")
	cmd.Flags().StringArray("access", nil, "Access list entry address[:key1,key2,...]")
	cmd.Flags().Var(authFlag{items: &auths}, "auth", "Authorization to sign with the signing key")
	cmd.Flags().Var(authFlag{items: &auths, signed: true}, "signed-auth", "Pre-signed authorization as JSON")

	cmd.MarkFlagRequired("max-priority-fee")
	cmd.MarkFlagRequired("max-fee")
	cmd.MarkFlagRequired("gas-limit")
	cmd.MarkFlagRequired("to")
	return cmd
}

func signTxCommand(cmd *cobra.Command, auths []api.AuthorizationItem) error {
	flags := cmd.Flags()
	req := api.TransactionRequest{Authorizations: auths}
	req.ChainID, _ = flags.GetString("chain-id")
	req.Nonce, _ = flags.GetString("nonce")
	req.MaxPriorityFee, _ = flags.GetString("max-priority-fee")
	req.MaxFee, _ = flags.GetString("max-fee")
	req.GasLimit, _ = flags.GetString("gas-limit")
	req.To, _ = flags.GetString("to")
	req.Value, _ = flags.GetString("value")
	req.Data, _ = flags.GetString("data")

	access, _ := flags.GetStringArray("access")
	for _, entry := range access {
		address, keys, _ := strings.Cut(entry, ":")
		tuple := api.AccessTuple{Address: address}
		if keys != "" {
			tuple.StorageKeys = strings.Split(keys, ",")
		}
		req.AccessList = append(req.AccessList, tuple)
	}

	log, key, err := setup(cmd)
	if err != nil {
		return err
	}
	st, err := req.Build(cmd.Context(), key)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"hash":           st.Hash().Hex(),
		"authorizations": len(req.Authorizations),
	}).Info("Signed set-code transaction")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "raw = %s\n", st.Hex())
	fmt.Fprintf(out, "hash = %s\n", st.Hash().Hex())
	return nil
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <raw-tx-hex>",
		Short: "Decode a signed set-code transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := eip7702.DecodeSignedTransactionHex(args[0])
			if err != nil {
				return err
			}
			data, err := api.ToTransactionData(st)
			if err != nil {
				return err
			}
			return printJSON(cmd, data)
		},
	}
}
