package ledgerapi

import (
	"time"

	"github.com/code-payments/instruction-server/pkg/config"
	"github.com/code-payments/instruction-server/pkg/config/env"
	"github.com/code-payments/instruction-server/pkg/config/memory"
	"github.com/code-payments/instruction-server/pkg/config/wrapper"
	"github.com/code-payments/instruction-server/pkg/solana"
)

const (
	envConfigPrefix = "LEDGER_API_"

	RPCEndpointConfigEnvName = envConfigPrefix + "RPC_ENDPOINT"
	DefaultRPCEndpoint       = "https://api.devnet.solana.com"

	RPCTimeoutConfigEnvName = envConfigPrefix + "RPC_TIMEOUT"
	defaultRPCTimeout       = 60 * time.Second

	AirdropLamportsConfigEnvName = envConfigPrefix + "AIRDROP_LAMPORTS"
	defaultAirdropLamports       = solana.LamportsPerSol

	DisableNetworkEndpointsConfigEnvName = envConfigPrefix + "DISABLE_NETWORK_ENDPOINTS"
	defaultDisableNetworkEndpoints       = false

	RateLimitPerSecondConfigEnvName = envConfigPrefix + "RATE_LIMIT_PER_SECOND"
	defaultRateLimitPerSecond       = 20.0

	SenderKeypairConfigEnvName = envConfigPrefix + "SENDER_KEYPAIR"
	defaultSenderKeypair       = "id.json"

	TrustForwardedForConfigEnvName = envConfigPrefix + "TRUST_FORWARDED_FOR"
	defaultTrustForwardedFor       = false

	MaxRequestBodyBytesConfigEnvName = envConfigPrefix + "MAX_REQUEST_BODY_BYTES"
	defaultMaxRequestBodyBytes       = 64 * 1024
)

type conf struct {
	rpcTimeout              config.Duration
	airdropLamports         config.Uint64
	disableNetworkEndpoints config.Bool
	rateLimitPerSecond      config.Float64
	trustForwardedFor       config.Bool
	senderKeypair           config.String
	maxRequestBodyBytes     config.Int64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			rpcTimeout:              NewRPCTimeoutConfig(),
			airdropLamports:         env.NewUint64Config(AirdropLamportsConfigEnvName, defaultAirdropLamports),
			disableNetworkEndpoints: env.NewBoolConfig(DisableNetworkEndpointsConfigEnvName, defaultDisableNetworkEndpoints),
			rateLimitPerSecond:      env.NewFloat64Config(RateLimitPerSecondConfigEnvName, defaultRateLimitPerSecond),
			trustForwardedFor:       env.NewBoolConfig(TrustForwardedForConfigEnvName, defaultTrustForwardedFor),
			senderKeypair:           env.NewStringConfig(SenderKeypairConfigEnvName, defaultSenderKeypair),
			maxRequestBodyBytes:     env.NewInt64Config(MaxRequestBodyBytesConfigEnvName, defaultMaxRequestBodyBytes),
		}
	}
}

// NewRPCEndpointConfig returns the ledger RPC endpoint, pulled from the
// environment.
func NewRPCEndpointConfig() config.String {
	return env.NewStringConfig(RPCEndpointConfigEnvName, DefaultRPCEndpoint)
}

// NewRPCTimeoutConfig returns the per-call ledger RPC timeout, pulled from the
// environment. It is also the HTTP timeout of the ledger client.
func NewRPCTimeoutConfig() config.Duration {
	return env.NewDurationConfig(RPCTimeoutConfigEnvName, defaultRPCTimeout)
}

type testOverrides struct {
	disableNetworkEndpoints bool
	rateLimitPerSecond      float64
	trustForwardedFor       bool
	senderKeypair           string
	airdropLamports         uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			rpcTimeout:              wrapper.NewDurationConfig(memory.NewConfig(5*time.Second), 5*time.Second),
			airdropLamports:         wrapper.NewUint64Config(memory.NewConfig(overrides.airdropLamports), defaultAirdropLamports),
			disableNetworkEndpoints: wrapper.NewBoolConfig(memory.NewConfig(overrides.disableNetworkEndpoints), false),
			rateLimitPerSecond:      wrapper.NewFloat64Config(memory.NewConfig(overrides.rateLimitPerSecond), defaultRateLimitPerSecond),
			trustForwardedFor:       wrapper.NewBoolConfig(memory.NewConfig(overrides.trustForwardedFor), defaultTrustForwardedFor),
			senderKeypair:           wrapper.NewStringConfig(memory.NewConfig(overrides.senderKeypair), defaultSenderKeypair),
			maxRequestBodyBytes:     wrapper.NewInt64Config(memory.NewConfig(int64(defaultMaxRequestBodyBytes)), defaultMaxRequestBodyBytes),
		}
	}
}
