package commands

import (
	"crypto/ed25519"
	"io"

	"github.com/spf13/cobra"

	"github.com/code-payments/instruction-server/pkg/encoding"
	"github.com/code-payments/instruction-server/pkg/solana"
	"github.com/code-payments/instruction-server/pkg/solana/memo"
	"github.com/code-payments/instruction-server/pkg/solana/system"
	"github.com/code-payments/instruction-server/pkg/solana/token"
)

type accountView struct {
	Pubkey     string `json:"pubkey"`
	Name       string `json:"name,omitempty"`
	IsSigner   bool   `json:"is_signer"`
	IsWritable bool   `json:"is_writable"`
}

type instructionView struct {
	ProgramID       string        `json:"program_id"`
	Accounts        []accountView `json:"accounts"`
	InstructionData string        `json:"instruction_data"`
}

// printInstruction writes ix, naming each account after its role in layout.
func printInstruction(w io.Writer, ix solana.Instruction, layout solana.AccountLayout) error {
	view := instructionView{
		ProgramID:       solana.PublicKeyToString(ix.Program),
		Accounts:        make([]accountView, len(ix.Accounts)),
		InstructionData: encoding.Base64Encode(ix.Data),
	}
	for i, meta := range ix.Accounts {
		view.Accounts[i] = accountView{
			Pubkey:     solana.PublicKeyToString(meta.PublicKey),
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		}
		if i < len(layout) {
			view.Accounts[i].Name = layout[i].Name
		}
	}
	return printJSON(w, view)
}

// keyFlags collects named public key flags and parses them on demand.
type keyFlags map[string]*string

func (k keyFlags) register(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		value := new(string)
		k[name] = value
		cmd.Flags().StringVar(value, name, "", name+" public key")
		_ = cmd.MarkFlagRequired(name)
	}
}

func (k keyFlags) parse(names ...string) ([]ed25519.PublicKey, error) {
	keys := make([]ed25519.PublicKey, len(names))
	for i, name := range names {
		pub, err := parseKeyFlag(name, *k[name])
		if err != nil {
			return nil, err
		}
		keys[i] = pub
	}
	return keys, nil
}

func instructionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "instruction",
		Aliases: []string{"ix"},
		Short:   "Build unsigned instructions",
	}

	cmd.AddCommand(
		createMintCmd(),
		mintToCmd(),
		transferTokenCmd(),
		transferSolCmd(),
		createAssociatedAccountCmd(),
		memoCmd(),
	)
	return cmd
}

func createMintCmd() *cobra.Command {
	keys := keyFlags{}
	var decimals uint8
	var freeze string

	cmd := &cobra.Command{
		Use:   "create-mint",
		Short: "Initialize a token mint",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := keys.parse("mint", "authority")
			if err != nil {
				return err
			}

			var freezeAuthority ed25519.PublicKey
			if len(freeze) > 0 {
				if freezeAuthority, err = parseKeyFlag("freeze-authority", freeze); err != nil {
					return err
				}
			}

			ix := token.InitializeMint(parsed[0], parsed[1], decimals, freezeAuthority)
			return printInstruction(cmd.OutOrStdout(), ix, token.Layouts[token.CommandInitializeMint])
		},
	}

	keys.register(cmd, "mint", "authority")
	cmd.Flags().Uint8Var(&decimals, "decimals", 0, "number of base 10 digits to the right of the decimal place")
	cmd.Flags().StringVar(&freeze, "freeze-authority", "", "optional freeze authority public key")
	return cmd
}

func mintToCmd() *cobra.Command {
	keys := keyFlags{}
	var amount uint64

	cmd := &cobra.Command{
		Use:   "mint-to",
		Short: "Mint tokens to a token account",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := keys.parse("mint", "destination", "authority")
			if err != nil {
				return err
			}

			ix := token.MintTo(parsed[0], parsed[1], parsed[2], amount)
			return printInstruction(cmd.OutOrStdout(), ix, token.Layouts[token.CommandMintTo])
		},
	}

	keys.register(cmd, "mint", "destination", "authority")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount in base units")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func transferTokenCmd() *cobra.Command {
	keys := keyFlags{}
	var amount uint64

	cmd := &cobra.Command{
		Use:   "transfer-token",
		Short: "Transfer tokens between the associated token accounts of two wallets",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := keys.parse("owner", "destination", "mint")
			if err != nil {
				return err
			}
			owner, destination, mint := parsed[0], parsed[1], parsed[2]

			source, err := token.GetAssociatedAccount(owner, mint)
			if err != nil {
				return err
			}
			destinationAccount, err := token.GetAssociatedAccount(destination, mint)
			if err != nil {
				return err
			}

			ix := token.Transfer(source, destinationAccount, owner, amount)
			return printInstruction(cmd.OutOrStdout(), ix, token.Layouts[token.CommandTransfer])
		},
	}

	keys.register(cmd, "owner", "destination", "mint")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount in base units")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func transferSolCmd() *cobra.Command {
	keys := keyFlags{}
	var lamports uint64

	cmd := &cobra.Command{
		Use:   "transfer-sol",
		Short: "Transfer lamports between system accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := keys.parse("from", "to")
			if err != nil {
				return err
			}

			ix := system.Transfer(parsed[0], parsed[1], lamports)
			return printInstruction(cmd.OutOrStdout(), ix, system.Layouts[system.CommandTransfer])
		},
	}

	keys.register(cmd, "from", "to")
	cmd.Flags().Uint64Var(&lamports, "lamports", 0, "amount in lamports")
	_ = cmd.MarkFlagRequired("lamports")
	return cmd
}

func createAssociatedAccountCmd() *cobra.Command {
	keys := keyFlags{}

	cmd := &cobra.Command{
		Use:   "create-ata",
		Short: "Create a wallet's associated token account if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := keys.parse("funder", "wallet", "mint")
			if err != nil {
				return err
			}

			ix, _, err := token.CreateAssociatedTokenAccountIdempotent(parsed[0], parsed[1], parsed[2])
			if err != nil {
				return err
			}
			return printInstruction(cmd.OutOrStdout(), ix, token.AssociatedAccountLayout)
		},
	}

	keys.register(cmd, "funder", "wallet", "mint")
	return cmd
}

func memoCmd() *cobra.Command {
	var text string
	var signers []string

	cmd := &cobra.Command{
		Use:   "memo",
		Short: "Attach a utf-8 memo, optionally requiring signers",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := make([]ed25519.PublicKey, len(signers))
			for i, signer := range signers {
				pub, err := parseKeyFlag("signer", signer)
				if err != nil {
					return err
				}
				keys[i] = pub
			}

			ix, err := memo.Instruction(text, keys...)
			if err != nil {
				return err
			}
			return printInstruction(cmd.OutOrStdout(), ix, nil)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "memo text")
	cmd.Flags().StringSliceVar(&signers, "signer", nil, "public key that must sign the transaction, may be repeated")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}
