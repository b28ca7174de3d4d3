package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/code-payments/instruction-server/pkg/solana"
	"github.com/code-payments/instruction-server/pkg/solana/token"
)

func keypairCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "keypair",
		Short: "Generate a new keypair",
		RunE: func(cmd *cobra.Command, args []string) error {
			keypair, err := solana.NewKeypair()
			if err != nil {
				return err
			}

			if len(out) > 0 {
				raw, err := keypair.MarshalJSON()
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, raw, 0o600); err != nil {
					return err
				}
			}

			return printJSON(cmd.OutOrStdout(), map[string]string{
				"pubkey": solana.PublicKeyToString(keypair.PublicKey()),
				"secret": keypair.ToBase58(),
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "also write the keypair file to this path")
	return cmd
}

func pubkeyCmd() *cobra.Command {
	var keypair keypairFlags
	var verified bool

	cmd := &cobra.Command{
		Use:   "pubkey",
		Short: "Print the public key of a keypair",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := keypair.load()
			if err != nil {
				return err
			}

			if verified {
				if _, err := solana.KeypairFromSecretVerified(kp.Secret()); err != nil {
					return err
				}
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), solana.PublicKeyToString(kp.PublicKey()))
			return err
		},
	}

	keypair.register(cmd)
	cmd.Flags().BoolVar(&verified, "verify", false, "fail if the embedded public key does not match the seed")
	return cmd
}

func ataCmd() *cobra.Command {
	var wallet, mint string

	cmd := &cobra.Command{
		Use:   "ata",
		Short: "Derive the associated token account of a wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			walletKey, err := parseKeyFlag("wallet", wallet)
			if err != nil {
				return err
			}
			mintKey, err := parseKeyFlag("mint", mint)
			if err != nil {
				return err
			}

			ata, err := token.GetAssociatedAccount(walletKey, mintKey)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), solana.PublicKeyToString(ata))
			return err
		},
	}

	cmd.Flags().StringVar(&wallet, "wallet", "", "wallet public key")
	cmd.Flags().StringVar(&mint, "mint", "", "mint public key")
	_ = cmd.MarkFlagRequired("wallet")
	_ = cmd.MarkFlagRequired("mint")
	return cmd
}
