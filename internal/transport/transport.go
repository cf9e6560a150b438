// Package transport is the message-passing collaborator boundary. The vault
// only sees the Transport interface; the loopback implementation in this
// package carries messages between in-process chains and stands in for the
// real attested message layer.
package transport

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/openliq/nft-vault/pkg/msg"
)

// Context is what the transport proves about a delivery it is executing.
type Context struct {
	MsgHash  common.Hash
	SrcChain msg.ChainId
}

// Endpoint is the per-chain receiver the transport executes messages
// against. Implemented by the vault.
type Endpoint interface {
	Receive(payload []byte, ctx Context) error
}

// Transport accepts outgoing envelopes and verifies non-execution proofs.
// Send assigns and returns the identifying message hash synchronously;
// delivery happens later, or never.
type Transport interface {
	Send(env *msg.Envelope) (common.Hash, error)
	Verify(env *msg.Envelope, proof []byte) error
}
