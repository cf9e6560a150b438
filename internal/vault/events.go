package vault

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"

	"github.com/openliq/nft-vault/pkg/msg"
)

// SentEvent is emitted after custody has changed and the message has been
// handed to the transport.
type SentEvent struct {
	MsgHash   common.Hash
	From      common.Address
	To        common.Address
	DestChain msg.ChainId
	Token     common.Address
	TokenIds  []*big.Int
}

// ReceivedEvent is emitted when a delivered message has been executed and
// the batch reconstructed locally.
type ReceivedEvent struct {
	MsgHash  common.Hash
	From     common.Address
	To       common.Address
	SrcChain msg.ChainId
	Token    common.Address
	TokenIds []*big.Int
}

// ReleasedEvent is emitted when a failed message's batch has been returned
// to its original owner.
type ReleasedEvent struct {
	MsgHash  common.Hash
	From     common.Address
	Token    common.Address
	TokenIds []*big.Int
}

func (v *Vault) SubscribeSent(ch chan<- SentEvent) event.Subscription {
	return v.sentFeed.Subscribe(ch)
}

func (v *Vault) SubscribeReceived(ch chan<- ReceivedEvent) event.Subscription {
	return v.recvFeed.Subscribe(ch)
}

func (v *Vault) SubscribeReleased(ch chan<- ReleasedEvent) event.Subscription {
	return v.relFeed.Subscribe(ch)
}
