package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/code-payments/instruction-server/pkg/ledgerapi"
	"github.com/code-payments/instruction-server/pkg/solana"
)

type rpcFlags struct {
	endpoint string
	timeout  time.Duration
}

func (f *rpcFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.endpoint, "rpc", ledgerapi.DefaultRPCEndpoint, "ledger JSON-RPC endpoint")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 30*time.Second, "request timeout")
}

func (f *rpcFlags) client(ctx context.Context) (solana.Client, context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	return solana.NewWithTimeout(f.endpoint, f.timeout), ctx, cancel
}

func balanceCmd() *cobra.Command {
	var rpc rpcFlags

	cmd := &cobra.Command{
		Use:   "balance <address>",
		Short: "Query the lamport balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseKeyFlag("address", args[0])
			if err != nil {
				return err
			}

			client, ctx, cancel := rpc.client(cmd.Context())
			defer cancel()

			lamports, err := client.GetBalance(ctx, account)
			if err != nil && err != solana.ErrNoBalance {
				return err
			}

			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"address":     args[0],
				"lamports":    lamports,
				"balance_sol": float64(lamports) / solana.LamportsPerSol,
			})
		},
	}

	rpc.register(cmd)
	return cmd
}

func airdropCmd() *cobra.Command {
	var rpc rpcFlags
	var lamports uint64

	cmd := &cobra.Command{
		Use:   "airdrop <address>",
		Short: "Request an airdrop on a test cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseKeyFlag("address", args[0])
			if err != nil {
				return err
			}

			client, ctx, cancel := rpc.client(cmd.Context())
			defer cancel()

			sig, err := client.RequestAirdrop(ctx, account, lamports, solana.CommitmentConfirmed)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"address":   args[0],
				"lamports":  lamports,
				"signature": sig.ToBase58(),
			})
		},
	}

	rpc.register(cmd)
	cmd.Flags().Uint64Var(&lamports, "lamports", solana.LamportsPerSol, "amount in lamports")
	return cmd
}
