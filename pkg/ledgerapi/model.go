package ledgerapi

import (
	"crypto/ed25519"
	"encoding/json"
	"io"
	"math"
	"net/http"

	"github.com/pkg/errors"

	"github.com/code-payments/instruction-server/pkg/encoding"
	"github.com/code-payments/instruction-server/pkg/solana"
)

type createMintRequest struct {
	Mint          string `json:"mint"`
	MintAuthority string `json:"mintAuthority"`
	Decimals      *uint8 `json:"decimals"`

	mint          ed25519.PublicKey
	mintAuthority ed25519.PublicKey
}

// UnmarshalJSON accepts mint_authority as an alias of mintAuthority.
func (r *createMintRequest) UnmarshalJSON(b []byte) error {
	type plain createMintRequest
	aux := struct {
		*plain
		MintAuthoritySnake string `json:"mint_authority"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if len(r.MintAuthority) == 0 {
		r.MintAuthority = aux.MintAuthoritySnake
	}
	return nil
}

func (r *createMintRequest) validate() (err error) {
	if r.Decimals == nil {
		return errors.Wrap(ErrMissingField, "decimals")
	}
	if r.mint, err = parsePublicKey("mint", r.Mint); err != nil {
		return err
	}
	r.mintAuthority, err = parsePublicKey("mint authority", r.MintAuthority)
	return err
}

type mintToRequest struct {
	Mint        string  `json:"mint"`
	Destination string  `json:"destination"`
	Authority   string  `json:"authority"`
	Amount      *uint64 `json:"amount"`

	mint        ed25519.PublicKey
	destination ed25519.PublicKey
	authority   ed25519.PublicKey
}

func (r *mintToRequest) validate() (err error) {
	if r.Amount == nil {
		return errors.Wrap(ErrMissingField, "amount")
	}
	if r.mint, err = parsePublicKey("mint", r.Mint); err != nil {
		return err
	}
	if r.destination, err = parsePublicKey("destination", r.Destination); err != nil {
		return err
	}
	r.authority, err = parsePublicKey("authority", r.Authority)
	return err
}

type transferTokenRequest struct {
	Destination string  `json:"destination"`
	Mint        string  `json:"mint"`
	Owner       string  `json:"owner"`
	Amount      *uint64 `json:"amount"`

	destination ed25519.PublicKey
	mint        ed25519.PublicKey
	owner       ed25519.PublicKey
}

func (r *transferTokenRequest) validate() (err error) {
	if r.Amount == nil {
		return errors.Wrap(ErrMissingField, "amount")
	}
	if r.destination, err = parsePublicKey("destination", r.Destination); err != nil {
		return err
	}
	if r.mint, err = parsePublicKey("mint", r.Mint); err != nil {
		return err
	}
	r.owner, err = parsePublicKey("owner", r.Owner)
	return err
}

type transferSolRequest struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Lamports *uint64 `json:"lamports"`
	Amount   *uint64 `json:"amount"`

	from ed25519.PublicKey
	to   ed25519.PublicKey
}

func (r *transferSolRequest) validate() (err error) {
	if r.Lamports == nil {
		r.Lamports = r.Amount
	}
	if r.Lamports == nil {
		return errors.Wrap(ErrMissingField, "lamports")
	}
	if r.from, err = parsePublicKey("sender", r.From); err != nil {
		return err
	}
	r.to, err = parsePublicKey("recipient", r.To)
	return err
}

type signMessageRequest struct {
	Message string `json:"message"`
	Secret  string `json:"secret"`

	keypair *solana.Keypair
}

func (r *signMessageRequest) validate() (err error) {
	if len(r.Message) == 0 || len(r.Secret) == 0 {
		return ErrMissingField
	}

	r.keypair, err = solana.KeypairFromSecretString(r.Secret)
	if err != nil {
		return errors.Wrap(err, "invalid secret key")
	}
	return nil
}

type verifyMessageRequest struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
	Pubkey    string `json:"pubkey"`

	signature []byte
	pubkey    ed25519.PublicKey
}

func (r *verifyMessageRequest) validate() (err error) {
	if len(r.Message) == 0 || len(r.Signature) == 0 || len(r.Pubkey) == 0 {
		return ErrMissingField
	}
	if r.pubkey, err = parsePublicKey("pubkey", r.Pubkey); err != nil {
		return err
	}

	// Only the encoding is checked here. A signature of the wrong length is
	// reported as invalid rather than rejected.
	r.signature, err = encoding.Base64Decode(r.Signature)
	if err != nil {
		return errors.Wrap(err, "invalid signature")
	}
	return nil
}

type sendRequest struct {
	To     string   `json:"to"`
	Amount *float64 `json:"amount"`

	to       ed25519.PublicKey
	lamports uint64
}

func (r *sendRequest) validate() (err error) {
	if r.Amount == nil {
		return errors.Wrap(ErrMissingField, "amount")
	}
	if r.to, err = parsePublicKey("recipient", r.To); err != nil {
		return err
	}
	r.lamports, err = solToLamports(*r.Amount)
	return err
}

// solToLamports converts a SOL amount to lamports, truncating any fraction
// of a lamport.
func solToLamports(sol float64) (uint64, error) {
	if math.IsNaN(sol) || math.IsInf(sol, 0) || sol <= 0 {
		return 0, errors.Wrap(ErrInvalidAmount, "amount must be a positive number of SOL")
	}

	lamports := sol * solana.LamportsPerSol
	if lamports >= math.MaxUint64 {
		return 0, errors.Wrap(ErrInvalidAmount, "amount exceeds the maximum transferable")
	}
	return uint64(lamports), nil
}

func parsePublicKey(field, value string) (ed25519.PublicKey, error) {
	if len(value) == 0 {
		return nil, errors.Wrap(ErrMissingField, field)
	}

	pub, err := solana.PublicKeyFromString(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s pubkey", field)
	}
	return pub, nil
}

// decodeRequestBody decodes a JSON request body of at most maxBytes into v.
func decodeRequestBody(w http.ResponseWriter, r *http.Request, maxBytes int64, v interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		return errors.Wrap(solana.ErrInvalidLength, "request body too large")
	}
	if len(body) == 0 {
		return errors.Wrap(ErrMissingField, "request body")
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrapf(solana.ErrInvalidEncoding, "malformed json body: %s", err)
	}
	return nil
}

type accountMetaView struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"is_signer"`
	IsWritable bool   `json:"is_writable"`
}

// instructionView is the wire shape of every instruction returned by the
// API. Account order and flags follow the instruction's layout.
type instructionView struct {
	ProgramID       string            `json:"program_id"`
	Accounts        []accountMetaView `json:"accounts"`
	InstructionData string            `json:"instruction_data"`
}

func newInstructionView(ix solana.Instruction) instructionView {
	accounts := make([]accountMetaView, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		accounts[i] = accountMetaView{
			Pubkey:     solana.PublicKeyToString(meta.PublicKey),
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		}
	}

	return instructionView{
		ProgramID:       solana.PublicKeyToString(ix.Program),
		Accounts:        accounts,
		InstructionData: encoding.Base64Encode(ix.Data),
	}
}
