package registry

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"

	"github.com/openliq/nft-vault/internal/constant"
	"github.com/openliq/nft-vault/pkg/msg"
)

func desc(chain uint64, addr string) msg.CanonicalDescriptor {
	return msg.CanonicalDescriptor{
		ChainId: msg.ChainId(chain),
		Token:   common.HexToAddress(addr),
		Symbol:  "T",
		Name:    "Token",
	}
}

func TestRegisterAndLookup(t *testing.T) {
	r, err := New(rawdb.NewMemoryDatabase())
	if err != nil {
		t.Fatal(err)
	}
	wrapped := common.HexToAddress("0xaa01")
	d := desc(5, "0x01")

	if r.IsWrapped(wrapped) {
		t.Error("fresh registry flags nothing as wrapped")
	}
	if err := r.Register(wrapped, d); err != nil {
		t.Fatalf("register: %v", err)
	}

	if !r.IsWrapped(wrapped) {
		t.Error("registered address not flagged wrapped")
	}
	got, ok := r.CanonicalOf(wrapped)
	if !ok || !got.Equal(d) {
		t.Error("backward lookup failed")
	}
	addr, ok := r.WrappedOf(d.ChainId, d.Token)
	if !ok || addr != wrapped {
		t.Error("forward lookup failed")
	}
}

func TestRegisterIdempotent(t *testing.T) {
	r, _ := New(rawdb.NewMemoryDatabase())
	wrapped := common.HexToAddress("0xaa01")
	d := desc(5, "0x01")

	if err := r.Register(wrapped, d); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(wrapped, d); err != nil {
		t.Errorf("identical re-register must be a no-op: %v", err)
	}
}

func TestRegisterConflict(t *testing.T) {
	r, _ := New(rawdb.NewMemoryDatabase())
	wrapped := common.HexToAddress("0xaa01")

	if err := r.Register(wrapped, desc(5, "0x01")); err != nil {
		t.Fatal(err)
	}
	err := r.Register(wrapped, desc(6, "0x01"))
	if !errors.Is(err, constant.ErrDescriptorConflict) {
		t.Errorf("conflicting descriptor for same wrapped address: %v", err)
	}
	err = r.Register(common.HexToAddress("0xaa02"), desc(5, "0x01"))
	if !errors.Is(err, constant.ErrDescriptorConflict) {
		t.Errorf("second wrapped address for same canonical: %v", err)
	}

	// The original association must be untouched.
	got, ok := r.CanonicalOf(wrapped)
	if !ok || !got.Equal(desc(5, "0x01")) {
		t.Error("conflict overwrote the original association")
	}
}

func TestReload(t *testing.T) {
	db := rawdb.NewMemoryDatabase()
	r, _ := New(db)
	wrapped := common.HexToAddress("0xaa01")
	d := desc(5, "0x01")
	if err := r.Register(wrapped, d); err != nil {
		t.Fatal(err)
	}

	// A second registry over the same database sees the association.
	r2, err := New(db)
	if err != nil {
		t.Fatal(err)
	}
	if !r2.IsWrapped(wrapped) {
		t.Error("association lost across reload")
	}
	addr, ok := r2.WrappedOf(d.ChainId, d.Token)
	if !ok || addr != wrapped {
		t.Error("forward mapping lost across reload")
	}
	got, ok := r2.CanonicalOf(wrapped)
	if !ok || got.Symbol != "T" {
		t.Error("descriptor metadata lost across reload")
	}
}
