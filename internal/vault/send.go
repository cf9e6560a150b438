package vault

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/openliq/nft-vault/internal/constant"
	"github.com/openliq/nft-vault/internal/resolver"
	"github.com/openliq/nft-vault/internal/token"
	"github.com/openliq/nft-vault/pkg/msg"
)

// SendRequest is one outgoing transfer batch. BaseURI is the content-URI
// template embedded in the descriptor when the token is canonical here and
// not yet described anywhere else; it is ignored on the wrapped path.
type SendRequest struct {
	From      common.Address
	DestChain msg.ChainId
	To        common.Address
	Token     common.Address
	TokenIds  []*big.Int
	BaseURI   string
	GasLimit  uint64
	FeeValue  *big.Int
	Refund    common.Address
}

// Send takes custody of the batch (lock if the token is canonical here,
// burn if it is a wrapped counterpart of a foreign token), builds the
// self-describing payload and hands it to the transport. Every validation
// runs before the first custody change; any later failure unwinds the call.
func (v *Vault) Send(req *SendRequest) (common.Hash, error) {
	v.entry.Lock()
	defer v.entry.Unlock()

	tok, err := v.validateSend(req)
	if err != nil {
		return common.Hash{}, err
	}

	var (
		j journal
		d msg.CanonicalDescriptor
	)
	if v.reg.IsWrapped(req.Token) {
		d, err = v.burnWrapped(req, tok, &j)
	} else {
		d, err = v.lockCanonical(req, tok, &j)
	}
	if err != nil {
		j.revert(v.log)
		return common.Hash{}, err
	}

	payload, err := msg.EncodePayload(&msg.TransferPayload{
		Descriptor: d,
		From:       req.From,
		To:         req.To,
		TokenIds:   req.TokenIds,
	})
	if err != nil {
		j.revert(v.log)
		return common.Hash{}, err
	}

	target, err := v.resolver.Resolve(req.DestChain, resolver.NameVault, false)
	if err != nil {
		j.revert(v.log)
		return common.Hash{}, errors.Wrap(err, "resolve destination vault")
	}

	env := &msg.Envelope{
		SrcChain:  v.chainId,
		DestChain: req.DestChain,
		From:      req.From,
		Target:    target,
		Payload:   payload,
		GasLimit:  req.GasLimit,
		FeeValue:  req.FeeValue,
		Refund:    req.Refund,
	}
	hash, err := v.transport.Send(env)
	if err != nil {
		j.revert(v.log)
		return common.Hash{}, errors.Wrap(err, "transport send")
	}

	if err := v.markSent(hash, payload); err != nil {
		// The message is already out; custody must stay as-is. Surface the
		// persistence failure instead of unwinding.
		v.log.Error("Failed to persist settlement marker", "msgHash", hash, "err", err)
		return hash, errors.Wrap(err, "persist settlement")
	}

	v.log.Info("Sent batch", "msgHash", hash, "dest", req.DestChain, "token", req.Token, "count", len(req.TokenIds))
	v.sentFeed.Send(SentEvent{
		MsgHash:   hash,
		From:      req.From,
		To:        req.To,
		DestChain: req.DestChain,
		Token:     req.Token,
		TokenIds:  req.TokenIds,
	})
	return hash, nil
}

func (v *Vault) validateSend(req *SendRequest) (token.Token, error) {
	if req.From == constant.ZeroAddress {
		return nil, constant.ErrInvalidOwner
	}
	if req.DestChain == 0 || req.DestChain == v.chainId {
		return nil, errors.Wrapf(constant.ErrInvalidChain, "chain %d", req.DestChain)
	}
	if req.To == constant.ZeroAddress {
		return nil, constant.ErrInvalidRecipient
	}
	if req.Token == constant.ZeroAddress {
		return nil, constant.ErrInvalidToken
	}
	tok, ok := v.bindings.Get(req.Token)
	if !ok {
		return nil, errors.Wrapf(constant.ErrUnknownToken, "token %s", req.Token)
	}
	if !tok.SupportsInterface(constant.ERC721InterfaceId) {
		return nil, errors.Wrapf(constant.ErrUnsupportedToken, "token %s", req.Token)
	}
	if err := validateBatch(req.TokenIds); err != nil {
		return nil, err
	}
	for _, id := range req.TokenIds {
		owner, ok := tok.OwnerOf(id)
		if !ok || owner != req.From {
			return nil, errors.Wrapf(constant.ErrNotOwner, "token id %s", id)
		}
	}
	return tok, nil
}

// burnWrapped destroys the wrapped batch; the descriptor to embed is the
// registry's record for this wrapped address.
func (v *Vault) burnWrapped(req *SendRequest, tok token.Token, j *journal) (msg.CanonicalDescriptor, error) {
	d, ok := v.reg.CanonicalOf(req.Token)
	if !ok {
		// Unreachable while the registry invariant holds: every wrapped
		// address has exactly one descriptor.
		return d, errors.Wrapf(constant.ErrCanonicalNotFound, "token %s", req.Token)
	}
	w, ok := tok.(token.Wrapped)
	if !ok {
		return d, errors.Errorf("wrapped token %s is not burnable", req.Token)
	}
	if w.Manager() != v.address {
		return d, errors.Wrapf(constant.ErrNotManager, "wrapped %s managed by %s", req.Token, w.Manager())
	}
	for _, id := range req.TokenIds {
		if err := w.Burn(req.From, id); err != nil {
			return d, err
		}
		id, from := id, req.From
		j.add(func() error { return w.Mint(from, id) })
	}
	return d, nil
}

// lockCanonical moves the batch into the vault's holding account and builds
// a fresh descriptor from the live contract metadata.
func (v *Vault) lockCanonical(req *SendRequest, tok token.Token, j *journal) (msg.CanonicalDescriptor, error) {
	for _, id := range req.TokenIds {
		if err := tok.TransferFrom(req.From, v.address, id); err != nil {
			return msg.CanonicalDescriptor{}, err
		}
		id, from := id, req.From
		j.add(func() error { return tok.TransferFrom(v.address, from, id) })
	}
	return msg.CanonicalDescriptor{
		ChainId: v.chainId,
		Token:   req.Token,
		Symbol:  tok.Symbol(),
		Name:    tok.Name(),
		BaseURI: req.BaseURI,
	}, nil
}
