package commands

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/instruction-server/pkg/encoding"
	"github.com/code-payments/instruction-server/pkg/solana"
)

func signCmd() *cobra.Command {
	var keypair keypairFlags
	var message string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a message",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := keypair.load()
			if err != nil {
				return err
			}

			sig, err := solana.Sign(kp, []byte(message))
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), map[string]string{
				"signature":  sig.ToBase64(),
				"public_key": solana.PublicKeyToString(kp.PublicKey()),
				"message":    message,
			})
		},
	}

	keypair.register(cmd)
	cmd.Flags().StringVarP(&message, "message", "m", "", "message to sign")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func verifyCmd() *cobra.Command {
	var pubkey, message, signature string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a message signature",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := parseKeyFlag("pubkey", pubkey)
			if err != nil {
				return err
			}

			sig, err := encoding.Base64Decode(signature)
			if err != nil {
				return errors.Wrap(err, "invalid --signature")
			}

			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"valid":   solana.Verify(pub, []byte(message), sig),
				"message": message,
				"pubkey":  pubkey,
			})
		},
	}

	cmd.Flags().StringVar(&pubkey, "pubkey", "", "base58 public key of the signer")
	cmd.Flags().StringVarP(&message, "message", "m", "", "signed message")
	cmd.Flags().StringVar(&signature, "signature", "", "base64 signature")
	_ = cmd.MarkFlagRequired("pubkey")
	_ = cmd.MarkFlagRequired("message")
	_ = cmd.MarkFlagRequired("signature")
	return cmd
}
