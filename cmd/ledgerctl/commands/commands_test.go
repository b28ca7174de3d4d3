package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/instruction-server/pkg/encoding"
	"github.com/code-payments/instruction-server/pkg/solana"
	"github.com/code-payments/instruction-server/pkg/solana/token"
	"github.com/code-payments/instruction-server/pkg/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	cmd := newRootCmd()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func runJSON(t *testing.T, args ...string) map[string]interface{} {
	out, err := run(t, args...)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded), out)
	return decoded
}

func TestKeypairSignVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id.json")
	generated := runJSON(t, "keypair", "--out", path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	fromFile, err := solana.KeypairFromJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, generated["pubkey"], solana.PublicKeyToString(fromFile.PublicKey()))

	out, err := run(t, "pubkey", "--keypair", path, "--verify")
	require.NoError(t, err)
	assert.Equal(t, generated["pubkey"].(string)+"\n", out)

	signed := runJSON(t, "sign", "--secret", generated["secret"].(string), "--message", "test")
	assert.Equal(t, generated["pubkey"], signed["public_key"])

	signedFromFile := runJSON(t, "sign", "--keypair", "file://"+path, "-m", "test")
	assert.Equal(t, signed["signature"], signedFromFile["signature"])

	verified := runJSON(t, "verify", "--pubkey", generated["pubkey"].(string), "-m", "test", "--signature", signed["signature"].(string))
	assert.Equal(t, true, verified["valid"])

	unrelated := solana.PublicKeyToString(testutil.GenerateSolanaKeys(t, 1)[0])
	verified = runJSON(t, "verify", "--pubkey", unrelated, "-m", "test", "--signature", signed["signature"].(string))
	assert.Equal(t, false, verified["valid"])
}

func TestSign_RequiresOneKeySource(t *testing.T) {
	_, err := run(t, "sign", "-m", "test")
	assert.Error(t, err)

	keypair := testutil.GenerateSolanaKeypair(t)
	_, err = run(t, "sign", "-m", "test", "--secret", keypair.ToBase58(), "--keypair", "id.json")
	assert.Error(t, err)
}

func TestPubkey_VerifyRejectsMismatch(t *testing.T) {
	a := testutil.GenerateSolanaKeypair(t)
	b := testutil.GenerateSolanaKeypair(t)

	mismatched := append(a.Secret()[:32], b.PublicKey()...)
	secret := encoding.Base58Encode(mismatched)

	out, err := run(t, "pubkey", "--secret", secret)
	require.NoError(t, err)
	assert.Equal(t, solana.PublicKeyToString(b.PublicKey())+"\n", out)

	_, err = run(t, "pubkey", "--secret", secret, "--verify")
	assert.Error(t, err)
}

func TestInstructions(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)
	a, b, c := solana.PublicKeyToString(keys[0]), solana.PublicKeyToString(keys[1]), solana.PublicKeyToString(keys[2])

	view := runJSON(t, "instruction", "transfer-sol", "--from", a, "--to", b, "--lamports", "1000000000")
	assert.Equal(t, "11111111111111111111111111111111", view["program_id"])
	assert.Equal(t, "AgAAAADKmjsAAAAA", view["instruction_data"])
	accounts := view["accounts"].([]interface{})
	require.Len(t, accounts, 2)
	assert.Equal(t, "from", accounts[0].(map[string]interface{})["name"])
	assert.Equal(t, true, accounts[0].(map[string]interface{})["is_signer"])

	view = runJSON(t, "ix", "mint-to", "--mint", a, "--destination", b, "--authority", c, "--amount", "1000000")
	assert.Equal(t, encoding.Base64Encode([]byte{7, 0x40, 0x42, 0x0f, 0, 0, 0, 0, 0}), view["instruction_data"])

	view = runJSON(t, "ix", "create-mint", "--mint", a, "--authority", b, "--decimals", "9", "--freeze-authority", c)
	data, err := encoding.Base64Decode(view["instruction_data"].(string))
	require.NoError(t, err)
	assert.Len(t, data, 67)
	assert.EqualValues(t, 9, data[1])
	assert.EqualValues(t, 1, data[34])

	view = runJSON(t, "ix", "transfer-token", "--owner", a, "--destination", b, "--mint", c, "--amount", "5")
	source, err := token.GetAssociatedAccount(keys[0], keys[2])
	require.NoError(t, err)
	assert.Equal(t, solana.PublicKeyToString(source), view["accounts"].([]interface{})[0].(map[string]interface{})["pubkey"])

	view = runJSON(t, "ix", "create-ata", "--funder", a, "--wallet", b, "--mint", c)
	assert.Equal(t, solana.PublicKeyToString(token.AssociatedTokenAccountProgramKey), view["program_id"])
	assert.Len(t, view["accounts"], 6)

	out, err := run(t, "ata", "--wallet", a, "--mint", c)
	require.NoError(t, err)
	assert.Equal(t, solana.PublicKeyToString(source)+"\n", out)

	view = runJSON(t, "ix", "memo", "--text", "hello", "--signer", a)
	assert.Equal(t, "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr", view["program_id"])
	assert.Equal(t, encoding.Base64Encode([]byte("hello")), view["instruction_data"])
	assert.Len(t, view["accounts"], 1)

	_, err = run(t, "ix", "transfer-sol", "--from", "bad", "--to", b, "--lamports", "1")
	assert.Error(t, err)
}
