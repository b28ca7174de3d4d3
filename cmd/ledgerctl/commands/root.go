package commands

import (
	"crypto/ed25519"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/instruction-server/pkg/app"
	"github.com/code-payments/instruction-server/pkg/solana"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ledgerctl",
		Short:        "Offline Solana key, signing and instruction tool",
		SilenceUsage: true,
	}

	root.AddCommand(
		keypairCmd(),
		pubkeyCmd(),
		signCmd(),
		verifyCmd(),
		instructionCmd(),
		ataCmd(),
		balanceCmd(),
		airdropCmd(),
	)
	return root
}

// keypairFlags selects a keypair either from a base58 secret or from a
// keypair file in the Solana CLI format.
type keypairFlags struct {
	secret string
	file   string
}

func (f *keypairFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.secret, "secret", "", "base58 encoded 64 byte secret")
	cmd.Flags().StringVar(&f.file, "keypair", "", "path or file:// url of a JSON keypair file")
	cmd.MarkFlagsMutuallyExclusive("secret", "keypair")
	cmd.MarkFlagsOneRequired("secret", "keypair")
}

func (f *keypairFlags) load() (*solana.Keypair, error) {
	if len(f.secret) > 0 {
		return solana.KeypairFromSecretString(f.secret)
	}

	raw, err := app.LoadFile(f.file)
	if err != nil {
		return nil, err
	}
	return solana.KeypairFromJSON(raw)
}

func parseKeyFlag(name, value string) (ed25519.PublicKey, error) {
	pub, err := solana.PublicKeyFromString(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid --%s", name)
	}
	return pub, nil
}

func printJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
