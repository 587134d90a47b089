/*
	Copyright (C) CESS. All rights reserved.
	Copyright (C) Cumulus Encrypted Storage System. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package cache

import (
	"os"
	"strings"
	"sync"

	"github.com/jjos2372/signum-jminer/configs"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	// minCache is the minimum amount of memory in megabytes
	// to allocate to leveldb.
	minCache = 16

	// minHandles is the minimum number of files handles to
	// allocate to the open database files.
	minHandles = 32
)

var NotFound = leveldb.ErrNotFound

type LevelDB struct {
	fn string
	db *leveldb.DB
	l  *sync.RWMutex
}

var _ Cache = (*LevelDB)(nil)

// NewCache opens the database in dir, creating it if needed. A corrupted
// database is recovered. memory (MiB) and handles below the minimum are
// raised to it.
func NewCache(dir string, memory int, handles int) (Cache, error) {
	if _, err := os.Stat(dir); err != nil {
		if err = os.MkdirAll(dir, configs.DirMode); err != nil {
			return nil, errors.Wrapf(err, "[MkdirAll] %s", dir)
		}
	}
	db, err := leveldb.OpenFile(dir, configureOptions(memory, handles))
	if _, corrupted := err.(*lerrors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(dir, nil)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[OpenFile] %s", dir)
	}
	return &LevelDB{
		fn: dir,
		db: db,
		l:  new(sync.RWMutex),
	}, nil
}

func configureOptions(memory int, handles int) *opt.Options {
	if memory < minCache {
		memory = minCache
	}
	if handles < minHandles {
		handles = minHandles
	}
	return &opt.Options{
		Filter:                 filter.NewBloomFilter(10),
		DisableSeeksCompaction: true,
		OpenFilesCacheCapacity: handles,
		BlockCacheCapacity:     memory / 2 * opt.MiB,
		WriteBuffer:            memory / 4 * opt.MiB,
	}
}

func (db *LevelDB) Close() error {
	db.l.Lock()
	defer db.l.Unlock()
	return db.db.Close()
}

func (db *LevelDB) Has(key []byte) (bool, error) {
	db.l.RLock()
	defer db.l.RUnlock()
	return db.db.Has(key, nil)
}

func (db *LevelDB) Get(key []byte) ([]byte, error) {
	db.l.RLock()
	defer db.l.RUnlock()
	return db.db.Get(key, nil)
}

func (db *LevelDB) Put(key []byte, value []byte) error {
	db.l.Lock()
	defer db.l.Unlock()
	return db.db.Put(key, value, nil)
}

func (db *LevelDB) Delete(key []byte) error {
	db.l.Lock()
	defer db.l.Unlock()
	return db.db.Delete(key, nil)
}

func (db *LevelDB) DeleteBatch(keys [][]byte) error {
	if len(keys) == 0 {
		return nil
	}
	batch := new(leveldb.Batch)
	for _, k := range keys {
		batch.Delete(k)
	}
	db.l.Lock()
	defer db.l.Unlock()
	return db.db.Write(batch, nil)
}

func (db *LevelDB) Compact(start []byte, limit []byte) error {
	db.l.RLock()
	defer db.l.RUnlock()
	return db.db.CompactRange(util.Range{Start: start, Limit: limit})
}

func (db *LevelDB) QueryPrefixKeyList(prefix string) ([]string, error) {
	var result = make([]string, 0)
	err := db.iterate(prefix, func(key, _ []byte) {
		result = append(result, strings.TrimPrefix(string(key), prefix))
	})
	return result, err
}

func (db *LevelDB) QueryPrefixList(prefix string) ([][]byte, error) {
	var result = make([][]byte, 0)
	err := db.iterate(prefix, func(_, value []byte) {
		result = append(result, append([]byte(nil), value...))
	})
	return result, err
}

// iterate calls fn for every key with prefix. The slices are only valid
// during the call.
func (db *LevelDB) iterate(prefix string, fn func(key, value []byte)) error {
	db.l.RLock()
	defer db.l.RUnlock()
	iter := db.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()
	for iter.Next() {
		fn(iter.Key(), iter.Value())
	}
	return iter.Error()
}
