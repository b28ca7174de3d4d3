package ledgerapi

import (
	"context"
	"crypto/ed25519"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/instruction-server/pkg/app"
	"github.com/code-payments/instruction-server/pkg/cache"
	"github.com/code-payments/instruction-server/pkg/metrics"
	"github.com/code-payments/instruction-server/pkg/rate"
	"github.com/code-payments/instruction-server/pkg/solana"
	"github.com/code-payments/instruction-server/pkg/solana/system"
	"github.com/code-payments/instruction-server/pkg/solana/token"
)

const (
	keypairPath       = "/keypair"
	createMintPath    = "/token/create"
	mintToPath        = "/token/mint"
	transferTokenPath = "/send/token"
	transferSolPath   = "/send/sol"
	signMessagePath   = "/message/sign"
	verifyMessagePath = "/message/verify"
	balancePath       = "/balance/{address}"
	airdropPath       = "/airdrop/{address}"
	sendPath          = "/send"

	addressPathValue = "address"

	contentTypeHeaderName      = "content-type"
	jsonContentTypeHeaderValue = "application/json"
	requestIdHeaderName        = "X-Request-Id"

	metricsStructName = "ledgerapi.server"

	associatedAccountCacheBudget = 10_000
)

type handlerFunc func(ctx context.Context, log *logrus.Entry, w http.ResponseWriter, r *http.Request) (any, error)

type Server struct {
	log             *logrus.Entry
	conf            *conf
	client          solana.Client
	limiter         rate.Limiter
	metricsProvider *newrelic.Application

	// wallet+mint -> associated token account address
	associatedAccounts cache.Cache
}

// NewServer returns the ledger HTTP API. The client is only used by the
// balance, airdrop and send endpoints. metricsProvider may be nil.
func NewServer(client solana.Client, metricsProvider *newrelic.Application, configProvider ConfigProvider) *Server {
	conf := configProvider()

	var limiter rate.Limiter = &rate.NoLimiter{}
	if limit := conf.rateLimitPerSecond.Get(context.Background()); limit > 0 {
		limiter = rate.LocalLimiterCtor(limit)
	}

	return &Server{
		log:             logrus.StandardLogger().WithField("type", "ledgerapi/server"),
		conf:            conf,
		client:          client,
		limiter:         limiter,
		metricsProvider: metricsProvider,

		associatedAccounts: cache.NewCache(associatedAccountCacheBudget),
	}
}

func (s *Server) keypairHandler(_ context.Context, _ *logrus.Entry, _ http.ResponseWriter, _ *http.Request) (any, error) {
	keypair, err := solana.NewKeypair()
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"pubkey": solana.PublicKeyToString(keypair.PublicKey()),
		"secret": keypair.ToBase58(),
	}, nil
}

func (s *Server) createMintHandler(ctx context.Context, _ *logrus.Entry, w http.ResponseWriter, r *http.Request) (any, error) {
	var req createMintRequest
	if err := s.decode(ctx, w, r, &req); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	ix := token.InitializeMint(req.mint, req.mintAuthority, *req.Decimals, nil)
	return newInstructionView(ix), nil
}

func (s *Server) mintToHandler(ctx context.Context, _ *logrus.Entry, w http.ResponseWriter, r *http.Request) (any, error) {
	var req mintToRequest
	if err := s.decode(ctx, w, r, &req); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	ix := token.MintTo(req.mint, req.destination, req.authority, *req.Amount)
	return newInstructionView(ix), nil
}

func (s *Server) transferTokenHandler(ctx context.Context, log *logrus.Entry, w http.ResponseWriter, r *http.Request) (any, error) {
	var req transferTokenRequest
	if err := s.decode(ctx, w, r, &req); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	source, err := s.getAssociatedAccount(req.owner, req.mint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive source token account")
	}
	destination, err := s.getAssociatedAccount(req.destination, req.mint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive destination token account")
	}

	log.WithFields(logrus.Fields{
		"source":      solana.PublicKeyToString(source),
		"destination": solana.PublicKeyToString(destination),
	}).Trace("resolved associated token accounts")

	ix := token.Transfer(source, destination, req.owner, *req.Amount)
	return newInstructionView(ix), nil
}

// getAssociatedAccount memoizes token.GetAssociatedAccount, which searches
// for a valid program address bump on every call.
func (s *Server) getAssociatedAccount(wallet, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	key := string(wallet) + string(mint)
	if cached, ok := s.associatedAccounts.Retrieve(key); ok {
		return cached.(ed25519.PublicKey), nil
	}

	address, err := token.GetAssociatedAccount(wallet, mint)
	if err != nil {
		return nil, err
	}

	s.associatedAccounts.Insert(key, address, 1)
	return address, nil
}

func (s *Server) transferSolHandler(ctx context.Context, _ *logrus.Entry, w http.ResponseWriter, r *http.Request) (any, error) {
	var req transferSolRequest
	if err := s.decode(ctx, w, r, &req); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	ix := system.Transfer(req.from, req.to, *req.Lamports)
	return newInstructionView(ix), nil
}

func (s *Server) signMessageHandler(ctx context.Context, _ *logrus.Entry, w http.ResponseWriter, r *http.Request) (any, error) {
	var req signMessageRequest
	if err := s.decode(ctx, w, r, &req); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	sig, err := solana.Sign(req.keypair, []byte(req.Message))
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"signature":  sig.ToBase64(),
		"public_key": solana.PublicKeyToString(req.keypair.PublicKey()),
		"message":    req.Message,
	}, nil
}

func (s *Server) verifyMessageHandler(ctx context.Context, _ *logrus.Entry, w http.ResponseWriter, r *http.Request) (any, error) {
	var req verifyMessageRequest
	if err := s.decode(ctx, w, r, &req); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	return map[string]any{
		"valid":   solana.Verify(req.pubkey, []byte(req.Message), req.signature),
		"message": req.Message,
		"pubkey":  req.Pubkey,
	}, nil
}

func (s *Server) balanceHandler(ctx context.Context, log *logrus.Entry, _ http.ResponseWriter, r *http.Request) (any, error) {
	if err := s.checkNetworkEnabled(ctx); err != nil {
		return nil, err
	}

	address := r.PathValue(addressPathValue)
	account, err := parsePublicKey("address", address)
	if err != nil {
		return nil, err
	}

	var lamports uint64
	err = s.callLedger(ctx, "GetBalance", func(ctx context.Context) (err error) {
		lamports, err = s.client.GetBalance(ctx, account)
		if errors.Is(err, solana.ErrNoBalance) {
			log.Trace("account not found, reporting zero balance")
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"address":     address,
		"lamports":    lamports,
		"balance_sol": float64(lamports) / solana.LamportsPerSol,
	}, nil
}

func (s *Server) airdropHandler(ctx context.Context, log *logrus.Entry, _ http.ResponseWriter, r *http.Request) (any, error) {
	if err := s.checkNetworkEnabled(ctx); err != nil {
		return nil, err
	}

	address := r.PathValue(addressPathValue)
	account, err := parsePublicKey("address", address)
	if err != nil {
		return nil, err
	}

	lamports := s.conf.airdropLamports.Get(ctx)

	var sig solana.Signature
	err = s.callLedger(ctx, "RequestAirdrop", func(ctx context.Context) (err error) {
		sig, err = s.client.RequestAirdrop(ctx, account, lamports, solana.CommitmentConfirmed)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithField("signature", sig.ToBase58()).Info("airdrop requested")
	metrics.RecordEvent(ctx, "LedgerApiAirdrop", map[string]interface{}{
		"address":  address,
		"lamports": lamports,
	})

	return map[string]any{
		"address":   address,
		"lamports":  lamports,
		"signature": sig.ToBase58(),
	}, nil
}

func (s *Server) sendHandler(ctx context.Context, log *logrus.Entry, w http.ResponseWriter, r *http.Request) (any, error) {
	if err := s.checkNetworkEnabled(ctx); err != nil {
		return nil, err
	}

	var req sendRequest
	if err := s.decode(ctx, w, r, &req); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	sender, err := s.loadSender(ctx)
	if err != nil {
		log.WithError(err).Warn("failure loading sender keypair")
		return nil, errSenderUnavailable
	}

	log = log.WithFields(logrus.Fields{
		"from":     solana.PublicKeyToString(sender.PublicKey()),
		"to":       req.To,
		"lamports": req.lamports,
	})

	var blockhash solana.Blockhash
	err = s.callLedger(ctx, "GetLatestBlockhash", func(ctx context.Context) (err error) {
		blockhash, err = s.client.GetLatestBlockhash(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	txn := solana.NewTransaction(
		sender.PublicKey(),
		system.Transfer(sender.PublicKey(), req.to, req.lamports),
	)
	txn.SetBlockhash(blockhash)
	if err := txn.Sign(sender); err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	var sig solana.Signature
	err = s.callLedger(ctx, "SubmitTransaction", func(ctx context.Context) (err error) {
		sig, err = s.client.SubmitTransaction(ctx, txn, solana.CommitmentConfirmed)
		return err
	})
	if err != nil {
		return nil, err
	}

	log = log.WithField("signature", sig.ToBase58())

	err = s.callLedger(ctx, "GetSignatureStatus", func(ctx context.Context) error {
		status, err := s.client.GetSignatureStatus(ctx, sig, solana.CommitmentConfirmed)
		if err != nil {
			return err
		}
		if status.ErrorResult != nil {
			return errors.Wrap(status.ErrorResult, "transaction failed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("transfer confirmed")

	return map[string]any{
		"signature": sig.ToBase58(),
		"from":      solana.PublicKeyToString(sender.PublicKey()),
		"to":        req.To,
		"lamports":  req.lamports,
	}, nil
}

func (s *Server) loadSender(ctx context.Context) (*solana.Keypair, error) {
	raw, err := app.LoadFile(s.conf.senderKeypair.Get(ctx))
	if err != nil {
		return nil, err
	}
	return solana.KeypairFromJSON(raw)
}

func (s *Server) checkNetworkEnabled(ctx context.Context) error {
	if s.conf.disableNetworkEndpoints.Get(ctx) {
		return errNetworkEndpointsDisabled
	}
	return nil
}

// callLedger runs a ledger RPC call under the configured timeout, tracing and
// timing it. Failures are returned as collaborator errors. The context bounds
// retry waits only; each HTTP request is bounded by the client's own timeout.
func (s *Server) callLedger(ctx context.Context, method string, call func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.conf.rpcTimeout.Get(ctx))
	defer cancel()

	if err := metrics.Trace(ctx, metricsStructName, method, call); err != nil {
		return newCollaboratorError(err)
	}
	return nil
}

func (s *Server) decode(ctx context.Context, w http.ResponseWriter, r *http.Request, v interface{}) error {
	return decodeRequestBody(w, r, s.conf.maxRequestBodyBytes.Get(ctx), v)
}

func (s *Server) handler(path string, methods []string, fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestId := r.Header.Get(requestIdHeaderName)
		if len(requestId) == 0 {
			requestId = uuid.NewString()
		}

		log := s.log.WithContext(r.Context()).WithFields(logrus.Fields{
			"path":       path,
			"method":     r.Method,
			"request_id": requestId,
		})

		statusCode, body := func() (int, GenericApiResponseBody) {
			if !slices.Contains(methods, r.Method) {
				expected := strings.ToLower(strings.Join(methods, " or "))
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.Errorf("http %s expected", expected))
			}

			data, err := fn(r.Context(), log, w, r)
			if err != nil {
				statusCode, mapped := HandleErrorInWebContext(err)
				if statusCode >= http.StatusInternalServerError {
					log.WithError(err).Warn("failure handling request")
				} else {
					log.WithError(err).Debug("request rejected")
				}
				return statusCode, NewGenericApiFailureResponseBody(mapped)
			}

			return http.StatusOK, NewGenericApiSuccessResponseBody(data)
		}()

		writeResponse(log, w, requestId, statusCode, body)
	}
}

func (s *Server) rateLimitedHandler(w http.ResponseWriter, r *http.Request) {
	statusCode, err := HandleErrorInWebContext(errRateLimited)
	writeResponse(s.log.WithField("path", r.URL.Path), w, r.Header.Get(requestIdHeaderName), statusCode, NewGenericApiFailureResponseBody(err))
}

func writeResponse(log *logrus.Entry, w http.ResponseWriter, requestId string, statusCode int, body GenericApiResponseBody) {
	if len(requestId) > 0 {
		w.Header().Set(requestIdHeaderName, requestId)
	}
	w.Header().Set(contentTypeHeaderName, jsonContentTypeHeaderValue)
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(body.ToString())); err != nil {
		log.WithError(err).Warn("failed to write body")
	}
}

func (s *Server) GetHandlers() map[string]http.HandlerFunc {
	get := []string{http.MethodGet}
	post := []string{http.MethodPost}
	getOrPost := []string{http.MethodGet, http.MethodPost}

	return map[string]http.HandlerFunc{
		keypairPath:       s.handler(keypairPath, getOrPost, s.keypairHandler),
		createMintPath:    s.handler(createMintPath, post, s.createMintHandler),
		mintToPath:        s.handler(mintToPath, post, s.mintToHandler),
		transferTokenPath: s.handler(transferTokenPath, post, s.transferTokenHandler),
		transferSolPath:   s.handler(transferSolPath, post, s.transferSolHandler),
		signMessagePath:   s.handler(signMessagePath, post, s.signMessageHandler),
		verifyMessagePath: s.handler(verifyMessagePath, post, s.verifyMessageHandler),
		balancePath:       s.handler(balancePath, get, s.balanceHandler),
		airdropPath:       s.handler(airdropPath, getOrPost, s.airdropHandler),
		sendPath:          s.handler(sendPath, post, s.sendHandler),
	}
}

// RegisterWithHTTP installs every handler on mux, wrapped with New Relic
// transactions and per-IP rate limiting. Clients are keyed on the connection
// address unless X-Forwarded-For is explicitly trusted.
func (s *Server) RegisterWithHTTP(mux *http.ServeMux) {
	limitKey := rate.RemoteIP
	if s.conf.trustForwardedFor.Get(context.Background()) {
		limitKey = rate.ForwardedClientIP
	}

	onLimited := http.HandlerFunc(s.rateLimitedHandler)
	for path, handler := range s.GetHandlers() {
		wrapped := metrics.CustomNewRelicHTTPMiddleware(s.metricsProvider, path, handler)
		mux.Handle(path, rate.HTTPMiddleware(s.limiter, limitKey, onLimited, wrapped))
	}
}

// Handler returns a standalone handler serving the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterWithHTTP(mux)
	return mux
}
