package indexer

import (
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"

	"github.com/openliq/nft-vault/internal/registry"
	"github.com/openliq/nft-vault/internal/resolver"
	"github.com/openliq/nft-vault/internal/token"
	"github.com/openliq/nft-vault/internal/transport"
	"github.com/openliq/nft-vault/internal/vault"
)

func TestRecordsSentEvents(t *testing.T) {
	lb := transport.NewLoopback()
	defer lb.Stop()
	res := resolver.New()

	db := rawdb.NewMemoryDatabase()
	reg, err := registry.New(db)
	if err != nil {
		t.Fatal(err)
	}
	bindings := token.NewBindings()
	v := vault.New(1, db, reg, bindings, lb, res)
	lb.Listen(1, v.Endpoint())
	res.Register(1, resolver.NameVault, v.Address())
	res.Register(2, resolver.NameVault, common.HexToAddress("0x2222"))

	ix, err := New(filepath.Join(t.TempDir(), "events.db"), v)
	if err != nil {
		t.Fatal(err)
	}
	ix.Start()

	alice := common.HexToAddress("0xa1")
	tokenAddr := common.HexToAddress("0xcafe")
	ape := token.NewNFT("APE", "Ape Collection", "ipfs://apes/")
	if err := bindings.Bind(tokenAddr, ape); err != nil {
		t.Fatal(err)
	}
	if err := ape.Mint(alice, big.NewInt(1)); err != nil {
		t.Fatal(err)
	}

	hash, err := v.Send(&vault.SendRequest{
		From:      alice,
		DestChain: 2,
		To:        alice,
		Token:     tokenAddr,
		TokenIds:  []*big.Int{big.NewInt(1)},
		BaseURI:   "ipfs://apes/",
	})
	if err != nil {
		t.Fatal(err)
	}

	// The recording loop is asynchronous; poll until the row lands.
	deadline := time.Now().Add(2 * time.Second)
	for {
		var count int
		row := ix.db.QueryRow(`SELECT COUNT(*) FROM events WHERE kind = 'sent' AND msg_hash = ?`, hash.Hex())
		if err := row.Scan(&count); err != nil {
			t.Fatal(err)
		}
		if count == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("sent event never recorded")
		}
		time.Sleep(10 * time.Millisecond)
	}

	ix.Stop()
}
