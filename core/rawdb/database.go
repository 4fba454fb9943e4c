// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package rawdb

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gosnap-io/gosnap/core/types"
	"github.com/gosnap-io/gosnap/ethdb"
)

// FlatTablesBlockMetadata identifies the block whose post-state the flat
// account/storage tables currently reflect.
type FlatTablesBlockMetadata struct {
	Number     uint64
	Hash       common.Hash
	ParentHash common.Hash
}

// StorageNodeUpdate bundles one account's storage-trie node writes together
// with the nodes it invalidates, the shape a single entry of UpdateBatch's
// storage_updates list takes.
type StorageNodeUpdate struct {
	Nodes       map[common.Hash][]byte
	Invalidated []common.Hash
}

// UpdateBatch is the façade's unit of atomicity: every field is applied
// together or not at all, keeping the on-disk state always consistent with
// exactly one (number, hash, parentHash) triple.
type UpdateBatch struct {
	Blocks  []*types.BlockHeader
	Bodies  map[common.Hash][]byte
	Receipts map[common.Hash][][]byte // block hash -> ordered receipt chunks

	AccountUpdates        map[common.Hash][]byte // trie node hash -> encoding
	InvalidatedStateNodes []common.Hash
	StorageUpdates        map[common.Hash]StorageNodeUpdate // account hash -> update
	CodeUpdates           map[common.Hash][]byte

	FlatAccountUpdates map[common.Address][]byte // nil value means delete
	FlatStorageUpdates map[common.Address]map[common.Hash][]byte

	Meta FlatTablesBlockMetadata
}

// Database is the storage engine façade: the single entry point the rest of
// the engine writes chain data, flat snapshot state and trie nodes through.
// Trie node storage itself is delegated to a triedb/pathdb-shaped writer
// supplied at construction, keeping rawdb ignorant of layered-diff mechanics.
type Database struct {
	kv ethdb.KeyValueStore
}

// NewDatabase wraps a key-value store with the façade's table layout.
func NewDatabase(kv ethdb.KeyValueStore) *Database {
	return &Database{kv: kv}
}

// KeyValueStore exposes the underlying store, e.g. so triedb/pathdb can
// share the same physical database under its own key prefixes.
func (db *Database) KeyValueStore() ethdb.KeyValueStore {
	return db.kv
}

// WriteHeader stores a header under both the canonical hash->number mapping
// and the number+hash keyed blob, and updates the canonical hash pointer for
// its number.
func WriteHeader(w ethdb.KeyValueWriter, h *types.BlockHeader) error {
	hash := h.Hash()
	enc, err := rlp.EncodeToBytes(h)
	if err != nil {
		return fmt.Errorf("rawdb: encode header: %w", err)
	}
	if err := w.Put(headerKey(h.Number, hash), enc); err != nil {
		return err
	}
	if err := w.Put(headerHashKey(h.Number), hash.Bytes()); err != nil {
		return err
	}
	return w.Put(headerNumberKey(hash), encodeBlockNumber(h.Number))
}

// ReadHeader returns the header stored at (number, hash), or nil if absent.
func ReadHeader(r ethdb.KeyValueReader, number uint64, hash common.Hash) (*types.BlockHeader, error) {
	enc, err := r.Get(headerKey(number, hash))
	if err != nil {
		return nil, nil
	}
	var h types.BlockHeader
	if err := rlp.DecodeBytes(enc, &h); err != nil {
		return nil, fmt.Errorf("rawdb: decode header: %w", err)
	}
	return &h, nil
}

// ReadCanonicalHash returns the canonical header hash at number, if any.
func ReadCanonicalHash(r ethdb.KeyValueReader, number uint64) (common.Hash, bool) {
	enc, err := r.Get(headerHashKey(number))
	if err != nil || len(enc) != common.HashLength {
		return common.Hash{}, false
	}
	return common.BytesToHash(enc), true
}

// WriteBody stores a block body's opaque RLP blob.
func WriteBody(w ethdb.KeyValueWriter, number uint64, hash common.Hash, body []byte) error {
	return w.Put(blockBodyKey(number, hash), body)
}

// ReadBody returns a block body's RLP blob, or nil if absent.
func ReadBody(r ethdb.KeyValueReader, number uint64, hash common.Hash) ([]byte, error) {
	return r.Get(blockBodyKey(number, hash))
}

// WriteReceiptChunks stores a block's receipts split into at most
// maxReceiptChunks chunks, the same fixed-size chunked append-only layout
// the freezer uses for ancient data.
func WriteReceiptChunks(w ethdb.KeyValueWriter, number uint64, hash common.Hash, chunks [][]byte) error {
	if len(chunks) > maxReceiptChunks {
		return fmt.Errorf("rawdb: %d receipt chunks exceeds bound %d", len(chunks), maxReceiptChunks)
	}
	for i, chunk := range chunks {
		if err := w.Put(blockReceiptsKey(number, hash, uint8(i)), chunk); err != nil {
			return err
		}
	}
	return nil
}

// ReadReceiptChunks reconstructs a block's receipt chunk list in order.
func ReadReceiptChunks(r ethdb.KeyValueReader, number uint64, hash common.Hash) ([][]byte, error) {
	var chunks [][]byte
	for i := 0; i < maxReceiptChunks; i++ {
		chunk, err := r.Get(blockReceiptsKey(number, hash, uint8(i)))
		if err != nil || chunk == nil {
			break
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// TxLookupEntry pins a transaction hash to the block that included it, so
// a receipt or body lookup by tx hash doesn't need a full chain scan.
type TxLookupEntry struct {
	BlockNumber uint64
	BlockHash   common.Hash
	Index       uint32
}

// WriteTxLookupEntry records where hash was included.
func WriteTxLookupEntry(w ethdb.KeyValueWriter, hash common.Hash, entry TxLookupEntry) error {
	enc, err := rlp.EncodeToBytes(entry)
	if err != nil {
		return fmt.Errorf("rawdb: encode tx lookup entry: %w", err)
	}
	return w.Put(txLookupKey(hash), enc)
}

// ReadTxLookupEntry returns where hash was included, or (zero, false) if
// never recorded.
func ReadTxLookupEntry(r ethdb.KeyValueReader, hash common.Hash) (TxLookupEntry, bool) {
	enc, err := r.Get(txLookupKey(hash))
	if err != nil || enc == nil {
		return TxLookupEntry{}, false
	}
	var entry TxLookupEntry
	if err := rlp.DecodeBytes(enc, &entry); err != nil {
		return TxLookupEntry{}, false
	}
	return entry, true
}

// WriteFlatAccount stores (or, if enc is nil, deletes) the flat account-info
// row for addr.
func WriteFlatAccount(w ethdb.KeyValueWriter, addr common.Address, enc []byte) error {
	if enc == nil {
		return w.Delete(flatAccountKey(addr))
	}
	return w.Put(flatAccountKey(addr), enc)
}

// ReadFlatAccount returns the flat account-info row for addr, or nil if
// absent.
func ReadFlatAccount(r ethdb.KeyValueReader, addr common.Address) ([]byte, error) {
	return r.Get(flatAccountKey(addr))
}

// WriteFlatStorage stores (or, if value is nil, deletes) one flat storage
// slot.
func WriteFlatStorage(w ethdb.KeyValueWriter, addr common.Address, slotHash common.Hash, value []byte) error {
	if value == nil {
		return w.Delete(flatStorageKey(addr, slotHash))
	}
	return w.Put(flatStorageKey(addr, slotHash), value)
}

// ReadFlatStorage returns one flat storage slot's value, or nil if absent.
func ReadFlatStorage(r ethdb.KeyValueReader, addr common.Address, slotHash common.Hash) ([]byte, error) {
	return r.Get(flatStorageKey(addr, slotHash))
}

// WriteFlatTablesMetadata records which block the flat tables currently
// reflect.
func WriteFlatTablesMetadata(w ethdb.KeyValueWriter, meta FlatTablesBlockMetadata) error {
	enc, err := rlp.EncodeToBytes(meta)
	if err != nil {
		return err
	}
	return w.Put(flatTablesMetadataKey, enc)
}

// ReadFlatTablesMetadata returns the block the flat tables currently
// reflect, or the zero value if never written.
func ReadFlatTablesMetadata(r ethdb.KeyValueReader) (FlatTablesBlockMetadata, error) {
	var meta FlatTablesBlockMetadata
	enc, err := r.Get(flatTablesMetadataKey)
	if err != nil || enc == nil {
		return meta, nil
	}
	if err := rlp.DecodeBytes(enc, &meta); err != nil {
		return meta, err
	}
	return meta, nil
}

// WriteCode stores a contract's bytecode keyed by its hash.
func WriteCode(w ethdb.KeyValueWriter, hash common.Hash, code []byte) error {
	return w.Put(codeKey(hash), code)
}

// ReadCode returns a contract's bytecode, or nil if absent.
func ReadCode(r ethdb.KeyValueReader, hash common.Hash) ([]byte, error) {
	return r.Get(codeKey(hash))
}

// ApplyUpdates commits every field of batch atomically: headers, bodies,
// receipts, trie node writes, flat account/storage rows, and — before
// touching the flat tables — an undo log recording each flat row's previous
// value so a later reorg can UndoWritesUntilCanonical back to this point.
//
// Trie node writes (AccountUpdates/StorageUpdates/CodeUpdates) are staged
// into the same atomic batch; a real deployment backs triedb/pathdb with the
// same physical key-value store so this stays one write-ahead-safe commit.
// Storage trie nodes are keyed by account hash followed by node hash.
// InvalidatedStateNodes and each StorageNodeUpdate's Invalidated list are
// not written or acted on here.
func (db *Database) ApplyUpdates(batch *UpdateBatch) error {
	w := db.kv.NewBatch()

	batchNumbers := make(map[common.Hash]uint64, len(batch.Blocks))
	for _, h := range batch.Blocks {
		if err := WriteHeader(w, h); err != nil {
			return err
		}
		batchNumbers[h.Hash()] = h.Number
	}
	numberFor := func(hash common.Hash) (uint64, bool) {
		if num, ok := batchNumbers[hash]; ok {
			return num, true
		}
		return headerNumberForHash(db.kv, hash)
	}
	for hash, body := range batch.Bodies {
		num, ok := numberFor(hash)
		if !ok {
			return fmt.Errorf("rawdb: body for unknown header %s", hash)
		}
		if err := WriteBody(w, num, hash, body); err != nil {
			return err
		}
	}
	for hash, chunks := range batch.Receipts {
		num, ok := numberFor(hash)
		if !ok {
			return fmt.Errorf("rawdb: receipts for unknown header %s", hash)
		}
		if err := WriteReceiptChunks(w, num, hash, chunks); err != nil {
			return err
		}
	}
	for hash, enc := range batch.AccountUpdates {
		if err := w.Put(hash.Bytes(), enc); err != nil {
			return err
		}
	}
	for accHash, upd := range batch.StorageUpdates {
		for nodeHash, enc := range upd.Nodes {
			key := append(append([]byte{}, accHash.Bytes()...), nodeHash.Bytes()...)
			if err := w.Put(key, enc); err != nil {
				return err
			}
		}
	}
	for hash, code := range batch.CodeUpdates {
		if err := WriteCode(w, hash, code); err != nil {
			return err
		}
	}

	accountLog, storageLog, err := stageFlatWrites(db.kv, w, batch)
	if err != nil {
		return err
	}
	if err := writeUndoLogs(w, batch.Meta.Number, accountLog, storageLog); err != nil {
		return err
	}
	if err := WriteFlatTablesMetadata(w, batch.Meta); err != nil {
		return err
	}

	if err := w.Write(); err != nil {
		log.Crit("Failed to write states", "err", err)
		return err
	}
	return nil
}

func headerNumberForHash(r ethdb.KeyValueReader, hash common.Hash) (uint64, bool) {
	enc, err := r.Get(headerNumberKey(hash))
	if err != nil || len(enc) != 8 {
		return 0, false
	}
	return decodeBlockNumber(enc), true
}

// stageFlatWrites applies batch's flat account/storage updates to w and
// returns the previous value of every touched row, for the undo log.
func stageFlatWrites(r ethdb.KeyValueReader, w ethdb.KeyValueWriter, batch *UpdateBatch) (accountLog, storageLog map[string][]byte, err error) {
	accountLog = make(map[string][]byte)
	for addr, enc := range batch.FlatAccountUpdates {
		prev, _ := ReadFlatAccount(r, addr)
		accountLog[string(flatAccountKey(addr))] = prev
		if err := WriteFlatAccount(w, addr, enc); err != nil {
			return nil, nil, err
		}
	}
	storageLog = make(map[string][]byte)
	for addr, slots := range batch.FlatStorageUpdates {
		for slotHash, val := range slots {
			prev, _ := ReadFlatStorage(r, addr, slotHash)
			storageLog[string(flatStorageKey(addr, slotHash))] = prev
			if err := WriteFlatStorage(w, addr, slotHash, val); err != nil {
				return nil, nil, err
			}
		}
	}
	return accountLog, storageLog, nil
}
