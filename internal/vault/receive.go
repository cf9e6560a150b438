package vault

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/openliq/nft-vault/internal/constant"
	"github.com/openliq/nft-vault/internal/token"
	"github.com/openliq/nft-vault/internal/transport"
	"github.com/openliq/nft-vault/pkg/msg"
)

// receive executes a delivered message: a returning canonical batch leaves
// the holding account for the recipient, a foreign batch is minted on the
// wrapped counterpart (deploying it first if needed). Reachable only through
// the transport endpoint handle.
func (v *Vault) receive(payload []byte, ctx transport.Context) error {
	v.entry.Lock()
	defer v.entry.Unlock()

	if ctx.MsgHash == (common.Hash{}) {
		return constant.ErrNotTransport
	}

	// Replay guard: a message hash settles at most once on this chain.
	if status, _, ok, err := v.settlementOf(ctx.MsgHash); err != nil {
		return errors.Wrap(err, "read settlement")
	} else if ok && status != statusSent {
		return errors.Wrapf(constant.ErrAlreadySettled, "msgHash %s", ctx.MsgHash)
	} else if ok {
		// A hash this vault itself recorded as Sent cannot be delivered
		// back to the same chain.
		return errors.Wrapf(constant.ErrAlreadySettled, "msgHash %s was sent from this chain", ctx.MsgHash)
	}

	p, err := msg.DecodePayload(payload)
	if err != nil {
		return err
	}
	if err := validateBatch(p.TokenIds); err != nil {
		return err
	}
	if p.To == constant.ZeroAddress {
		return constant.ErrInvalidRecipient
	}

	var (
		j     journal
		local common.Address
	)
	if p.Descriptor.ChainId == v.chainId {
		local, err = v.releaseFromCustody(p, &j)
	} else {
		local, err = v.mintWrapped(p, &j)
	}
	if err != nil {
		j.revert(v.log)
		return err
	}

	// A batch only counts as received once the marker is durable; otherwise
	// the unsettled message could later be both received and released.
	if err := v.setSettlement(ctx.MsgHash, statusReceived); err != nil {
		j.revert(v.log)
		return errors.Wrap(err, "persist settlement")
	}

	v.log.Info("Received batch", "msgHash", ctx.MsgHash, "src", ctx.SrcChain, "token", local, "count", len(p.TokenIds))
	v.recvFeed.Send(ReceivedEvent{
		MsgHash:  ctx.MsgHash,
		From:     p.From,
		To:       p.To,
		SrcChain: ctx.SrcChain,
		Token:    local,
		TokenIds: p.TokenIds,
	})
	return nil
}

// releaseFromCustody hands a returning batch from the holding account to the
// recipient. The vault not holding an id means a protocol violation upstream
// or a duplicated delivery; the whole batch aborts.
func (v *Vault) releaseFromCustody(p *msg.TransferPayload, j *journal) (common.Address, error) {
	tok, ok := v.bindings.Get(p.Descriptor.Token)
	if !ok {
		return constant.ZeroAddress, errors.Wrapf(constant.ErrUnknownToken, "token %s", p.Descriptor.Token)
	}
	for _, id := range p.TokenIds {
		owner, ok := tok.OwnerOf(id)
		if !ok || owner != v.address {
			return constant.ZeroAddress, errors.Wrapf(constant.ErrVaultOwnerMismatch, "token id %s", id)
		}
	}

	for _, id := range p.TokenIds {
		if err := tok.TransferFrom(v.address, p.To, id); err != nil {
			return constant.ZeroAddress, err
		}
		id, to := id, p.To
		j.add(func() error { return tok.TransferFrom(to, v.address, id) })
	}
	return p.Descriptor.Token, nil
}

// mintWrapped reconstructs a foreign batch on the local wrapped counterpart.
func (v *Vault) mintWrapped(p *msg.TransferPayload, j *journal) (common.Address, error) {
	addr, err := v.fac.GetOrDeploy(p.Descriptor)
	if err != nil {
		return constant.ZeroAddress, err
	}
	tok, ok := v.bindings.Get(addr)
	if !ok {
		return constant.ZeroAddress, errors.Wrapf(constant.ErrUnknownToken, "wrapped %s", addr)
	}
	w, ok := tok.(token.Wrapped)
	if !ok {
		return constant.ZeroAddress, errors.Errorf("wrapped token %s is not mintable", addr)
	}

	for _, id := range p.TokenIds {
		if err := w.Mint(p.To, id); err != nil {
			return constant.ZeroAddress, err
		}
		id, to := id, p.To
		j.add(func() error { return w.Burn(to, id) })
	}
	return addr, nil
}
