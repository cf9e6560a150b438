package msg

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// ChainId identifies a chain in the bridged set.
type ChainId uint64

func (c ChainId) Big() *big.Int {
	return new(big.Int).SetUint64(uint64(c))
}

// CanonicalDescriptor identifies the original token contract on its home
// chain. Symbol, Name and BaseURI are carried for wrapped-token metadata and
// are informational only; equality is (ChainId, Token).
type CanonicalDescriptor struct {
	ChainId ChainId
	Token   common.Address
	Symbol  string
	Name    string
	BaseURI string
}

func (d CanonicalDescriptor) Equal(o CanonicalDescriptor) bool {
	return d.ChainId == o.ChainId && d.Token == o.Token
}

// Key returns the registry lookup key for the descriptor, built from the
// identity fields only.
func (d CanonicalDescriptor) Key() []byte {
	key := make([]byte, 8+common.AddressLength)
	putUint64(key, uint64(d.ChainId))
	copy(key[8:], d.Token.Bytes())
	return key
}

// TransferPayload is the custody-reconstruction record embedded in every
// outgoing message. It is self-describing: the full descriptor travels with
// the batch because the destination chain cannot resolve a foreign address
// to its home chain on its own.
type TransferPayload struct {
	Descriptor CanonicalDescriptor
	From       common.Address
	To         common.Address
	TokenIds   []*big.Int
}

// EncodePayload serializes a transfer payload with RLP.
func EncodePayload(p *TransferPayload) ([]byte, error) {
	b, err := rlp.EncodeToBytes(p)
	if err != nil {
		return nil, errors.Wrap(err, "encode transfer payload")
	}
	return b, nil
}

// DecodePayload deserializes a transfer payload produced by EncodePayload.
func DecodePayload(data []byte) (*TransferPayload, error) {
	var p TransferPayload
	if err := rlp.DecodeBytes(data, &p); err != nil {
		return nil, errors.Wrap(err, "decode transfer payload")
	}
	return &p, nil
}

// Envelope is the message handed to the transport collaborator. The payload
// is opaque to the transport; Hash is assigned by the transport when the
// message is accepted and stays zero before that.
type Envelope struct {
	SrcChain  ChainId
	DestChain ChainId
	From      common.Address
	Target    common.Address
	Payload   []byte
	GasLimit  uint64
	FeeValue  *big.Int
	Refund    common.Address

	Hash common.Hash `rlp:"-"`
}

// ContentHash hashes the envelope fields the transport commits to. The
// transport mixes in its own nonce so two identical sends get distinct
// message hashes.
func (e *Envelope) ContentHash(nonce uint64) common.Hash {
	enc, _ := rlp.EncodeToBytes(e)
	var n [8]byte
	putUint64(n[:], nonce)
	return crypto.Keccak256Hash(enc, n[:])
}

func putUint64(b []byte, v uint64) {
	_ = b[7]
	b[0] = byte(v >> 56)
	b[1] = byte(v >> 48)
	b[2] = byte(v >> 40)
	b[3] = byte(v >> 32)
	b[4] = byte(v >> 24)
	b[5] = byte(v >> 16)
	b[6] = byte(v >> 8)
	b[7] = byte(v)
}
