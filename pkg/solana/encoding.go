package solana

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/instruction-server/pkg/solana/shortvec"
)

// Marshal encodes the transaction in the legacy wire format: a compact array
// of signatures followed by the message.
func (t Transaction) Marshal() []byte {
	var b bytes.Buffer

	_, _ = shortvec.EncodeLen(&b, len(t.Signatures))
	for _, sig := range t.Signatures {
		b.Write(sig[:])
	}
	b.Write(t.Message.Marshal())

	return b.Bytes()
}

func (t *Transaction) Unmarshal(b []byte) error {
	d := newDecoder(b)

	count := d.readLength("signature count")
	signatures := make([]Signature, 0, count)
	for i := 0; i < count && d.err == nil; i++ {
		var sig Signature
		copy(sig[:], d.read(len(sig), "signature"))
		signatures = append(signatures, sig)
	}
	if d.err != nil {
		return d.err
	}

	t.Signatures = signatures
	return t.Message.Unmarshal(d.remaining())
}

func (m Message) Marshal() []byte {
	var b bytes.Buffer

	b.WriteByte(m.Header.NumSignatures)
	b.WriteByte(m.Header.NumReadonlySigned)
	b.WriteByte(m.Header.NumReadOnly)

	_, _ = shortvec.EncodeLen(&b, len(m.Accounts))
	for _, account := range m.Accounts {
		b.Write(account)
	}

	b.Write(m.RecentBlockhash[:])

	_, _ = shortvec.EncodeLen(&b, len(m.Instructions))
	for _, ix := range m.Instructions {
		b.WriteByte(ix.ProgramIndex)
		writeCompactBytes(&b, ix.Accounts)
		writeCompactBytes(&b, ix.Data)
	}

	return b.Bytes()
}

func (m *Message) Unmarshal(b []byte) error {
	if len(b) == 0 {
		return errors.New("empty message")
	}
	if b[0]&0x80 != 0 {
		return errors.New("versioned messages not supported")
	}

	d := newDecoder(b)

	var decoded Message
	decoded.Header.NumSignatures = d.readByte("num signatures")
	decoded.Header.NumReadonlySigned = d.readByte("num readonly signed")
	decoded.Header.NumReadOnly = d.readByte("num readonly")

	accountCount := d.readLength("account count")
	for i := 0; i < accountCount && d.err == nil; i++ {
		decoded.Accounts = append(decoded.Accounts, ed25519.PublicKey(d.read(ed25519.PublicKeySize, "account")))
	}

	copy(decoded.RecentBlockhash[:], d.read(len(decoded.RecentBlockhash), "recent blockhash"))

	instructionCount := d.readLength("instruction count")
	for i := 0; i < instructionCount && d.err == nil; i++ {
		ix := CompiledInstruction{
			ProgramIndex: d.readByte("program index"),
			Accounts:     d.read(d.readLength("account index count"), "account indexes"),
		}
		ix.Data = d.read(d.readLength("data length"), "data")
		if d.err != nil {
			break
		}

		if int(ix.ProgramIndex) >= len(decoded.Accounts) {
			return errors.Errorf("instruction %d: program index %d out of range", i, ix.ProgramIndex)
		}
		for _, index := range ix.Accounts {
			if int(index) >= len(decoded.Accounts) {
				return errors.Errorf("instruction %d: account index %d out of range", i, index)
			}
		}

		decoded.Instructions = append(decoded.Instructions, ix)
	}
	if d.err != nil {
		return d.err
	}

	*m = decoded
	return nil
}

func writeCompactBytes(b *bytes.Buffer, data []byte) {
	_, _ = shortvec.EncodeLen(b, len(data))
	b.Write(data)
}

// decoder reads wire encoded fields in order. After the first failure every
// read is a no-op and err describes the field that could not be read.
type decoder struct {
	buf *bytes.Buffer
	err error
}

func newDecoder(b []byte) *decoder {
	return &decoder{buf: bytes.NewBuffer(b)}
}

func (d *decoder) readByte(field string) byte {
	if d.err != nil {
		return 0
	}

	v, err := d.buf.ReadByte()
	if err != nil {
		d.err = errors.Wrapf(err, "failed to read %s", field)
	}
	return v
}

func (d *decoder) readLength(field string) int {
	if d.err != nil {
		return 0
	}

	n, err := shortvec.DecodeLen(d.buf)
	if err != nil {
		d.err = errors.Wrapf(err, "failed to read %s", field)
	}
	return n
}

func (d *decoder) read(n int, field string) []byte {
	if d.err != nil {
		return nil
	}
	if d.buf.Len() < n {
		d.err = errors.Errorf("failed to read %s: need %d bytes, have %d", field, n, d.buf.Len())
		return nil
	}

	out := make([]byte, n)
	copy(out, d.buf.Next(n))
	return out
}

func (d *decoder) remaining() []byte {
	return d.buf.Bytes()
}
