// Package indexer records the vault's observable events in a sqlite log so
// external consumers can index transfers by message hash, token or address.
package indexer

import (
	"database/sql"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/openliq/nft-vault/internal/factory"
	"github.com/openliq/nft-vault/internal/vault"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	msg_hash TEXT,
	chain INTEGER NOT NULL,
	remote_chain INTEGER,
	token TEXT,
	from_addr TEXT,
	to_addr TEXT,
	token_ids TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_events_msg_hash ON events(msg_hash);
CREATE INDEX IF NOT EXISTS idx_events_token ON events(token);
`

type Indexer struct {
	db   *sql.DB
	log  log.Logger
	v    *vault.Vault
	stop chan struct{}
	done chan struct{}
}

// New opens (or creates) the event log at path and binds it to a vault.
func New(path string, v *vault.Vault) (*Indexer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open event db")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate event db")
	}
	return &Indexer{
		db:   db,
		log:  log.New("system", "indexer", "chain", v.ChainId()),
		v:    v,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}, nil
}

// Start subscribes to the vault's feeds and records every event until Stop.
func (ix *Indexer) Start() {
	sentCh := make(chan vault.SentEvent, 16)
	recvCh := make(chan vault.ReceivedEvent, 16)
	relCh := make(chan vault.ReleasedEvent, 16)
	depCh := make(chan factory.DeployedEvent, 16)

	sentSub := ix.v.SubscribeSent(sentCh)
	recvSub := ix.v.SubscribeReceived(recvCh)
	relSub := ix.v.SubscribeReleased(relCh)
	depSub := ix.v.Factory().SubscribeDeployed(depCh)

	go func() {
		defer close(ix.done)
		defer sentSub.Unsubscribe()
		defer recvSub.Unsubscribe()
		defer relSub.Unsubscribe()
		defer depSub.Unsubscribe()

		for {
			select {
			case <-ix.stop:
				return
			case e := <-sentCh:
				ix.insert("sent", e.MsgHash.Hex(), uint64(e.DestChain), e.Token.Hex(), e.From.Hex(), e.To.Hex(), e.TokenIds)
			case e := <-recvCh:
				ix.insert("received", e.MsgHash.Hex(), uint64(e.SrcChain), e.Token.Hex(), e.From.Hex(), e.To.Hex(), e.TokenIds)
			case e := <-relCh:
				ix.insert("released", e.MsgHash.Hex(), 0, e.Token.Hex(), e.From.Hex(), "", e.TokenIds)
			case e := <-depCh:
				ix.insert("deployed", "", uint64(e.ChainId), e.BridgedToken.Hex(), e.CanonicalToken.Hex(), "", nil)
			}
		}
	}()
}

func (ix *Indexer) insert(kind, msgHash string, remote uint64, token, from, to string, ids []*big.Int) {
	_, err := ix.db.Exec(
		`INSERT INTO events (kind, msg_hash, chain, remote_chain, token, from_addr, to_addr, token_ids)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		kind, msgHash, uint64(ix.v.ChainId()), remote, token, from, to, idsJSON(ids),
	)
	if err != nil {
		ix.log.Error("Failed to record event", "kind", kind, "msgHash", msgHash, "err", err)
	}
}

// Stop ends the recording loop and closes the log.
func (ix *Indexer) Stop() {
	close(ix.stop)
	<-ix.done
	if err := ix.db.Close(); err != nil {
		ix.log.Error("Failed to close event db", "err", err)
	}
}

func idsJSON(ids []*big.Int) string {
	if len(ids) == 0 {
		return "[]"
	}
	strs := make([]string, 0, len(ids))
	for _, id := range ids {
		strs = append(strs, id.String())
	}
	b, _ := json.Marshal(strs)
	return string(b)
}
