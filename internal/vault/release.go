package vault

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/openliq/nft-vault/internal/constant"
	"github.com/openliq/nft-vault/internal/token"
	"github.com/openliq/nft-vault/pkg/msg"
)

// Release returns custody of a previously sent batch to its original owner,
// gated on a transport-verified non-execution proof for the exact message
// that carried it. A message settles at most once: a hash already received
// or released is rejected.
func (v *Vault) Release(env *msg.Envelope, proof []byte) error {
	v.entry.Lock()
	defer v.entry.Unlock()

	p, err := msg.DecodePayload(env.Payload)
	if err != nil {
		return err
	}
	if p.From == constant.ZeroAddress {
		return constant.ErrInvalidOwner
	}
	if env.SrcChain != v.chainId {
		return errors.Wrapf(constant.ErrWrongSourceChain, "message source %d, this chain %d", env.SrcChain, v.chainId)
	}
	if err := v.transport.Verify(env, proof); err != nil {
		return errors.Wrap(err, "verify non-execution proof")
	}

	status, payloadHash, ok, err := v.settlementOf(env.Hash)
	if err != nil {
		return errors.Wrap(err, "read settlement")
	}
	if !ok {
		return errors.Wrapf(constant.ErrUnknownMessage, "msgHash %s", env.Hash)
	}
	if status != statusSent {
		return errors.Wrapf(constant.ErrAlreadySettled, "msgHash %s", env.Hash)
	}
	// The batch restored must be the batch sent: the payload has to match
	// the record made when the message left this chain.
	if payloadHash != nil && !bytes.Equal(payloadHash, crypto.Keccak256(env.Payload)) {
		return errors.Wrap(constant.ErrProofInvalid, "payload does not match the sent record")
	}

	var (
		j     journal
		local common.Address
	)
	if p.Descriptor.ChainId == v.chainId {
		local, err = v.returnCanonical(p, &j)
	} else {
		local, err = v.remintWrapped(p, &j)
	}
	if err != nil {
		j.revert(v.log)
		return err
	}

	if err := v.setSettlement(env.Hash, statusReleased); err != nil {
		j.revert(v.log)
		return errors.Wrap(err, "persist settlement")
	}

	v.log.Info("Released batch", "msgHash", env.Hash, "owner", p.From, "token", local, "count", len(p.TokenIds))
	v.relFeed.Send(ReleasedEvent{
		MsgHash:  env.Hash,
		From:     p.From,
		Token:    local,
		TokenIds: p.TokenIds,
	})
	return nil
}

// returnCanonical moves a locked batch out of the holding account, back to
// the owner who sent it.
func (v *Vault) returnCanonical(p *msg.TransferPayload, j *journal) (common.Address, error) {
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
		if err := tok.TransferFrom(v.address, p.From, id); err != nil {
			return constant.ZeroAddress, err
		}
		id, from := id, p.From
		j.add(func() error { return tok.TransferFrom(from, v.address, id) })
	}
	return p.Descriptor.Token, nil
}

// remintWrapped restores a burned wrapped batch. The batch was destroyed at
// send time, so there is nothing to transfer; the wrapper is minted anew.
func (v *Vault) remintWrapped(p *msg.TransferPayload, j *journal) (common.Address, error) {
	addr, ok := v.reg.WrappedOf(p.Descriptor.ChainId, p.Descriptor.Token)
	if !ok {
		// A wrapped batch can only have been burned here if the wrapper was
		// registered; absence is a registry invariant violation.
		return constant.ZeroAddress, errors.Wrapf(constant.ErrCanonicalNotFound, "token %s on chain %d", p.Descriptor.Token, p.Descriptor.ChainId)
	}
	tok, ok := v.bindings.Get(addr)
	if !ok {
		return constant.ZeroAddress, errors.Wrapf(constant.ErrUnknownToken, "wrapped %s", addr)
	}
	w, ok := tok.(token.Wrapped)
	if !ok {
		return constant.ZeroAddress, errors.Errorf("wrapped token %s is not mintable", addr)
	}
	if w.Manager() != v.address {
		return constant.ZeroAddress, errors.Wrapf(constant.ErrNotManager, "wrapped %s managed by %s", addr, w.Manager())
	}

	for _, id := range p.TokenIds {
		if err := w.Mint(p.From, id); err != nil {
			return constant.ZeroAddress, err
		}
		id, from := id, p.From
		j.add(func() error { return w.Burn(from, id) })
	}
	return addr, nil
}
