package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/rony4d/go-stakesim/inter"
	"github.com/rony4d/go-stakesim/inter/ibr"
	"github.com/rony4d/go-stakesim/simulator"
)

// ErrNotFound is returned by Store lookups of a missing key.
var ErrNotFound = errors.New("not found")

const (
	blockPrefix   = "b/"
	summaryPrefix = "s/"
)

// RunSummary is what the store keeps about a finished run.
type RunSummary struct {
	Seed    int64                 `json:"seed"`
	Reason  simulator.StopReason  `json:"reason"`
	EndTime inter.Timestamp       `json:"endTime"`
	Events  uint64                `json:"events"`
	HeadID  inter.BlockID         `json:"headId"`
	Summary simulator.Summary     `json:"summary"`
	Nodes   []simulator.NodeStats `json:"nodes"`
}

// Store persists block records and run summaries in leveldb.
// Block records are keyed by run and block id, so a run's records iterate in
// construction order.
type Store struct {
	db *leveldb.DB

	mu  sync.Mutex
	err error
}

// OpenStore opens or creates the database at path. cache is the block cache
// size in MiB; 0 keeps the leveldb default.
func OpenStore(path string, cache int) (*Store, error) {
	o := &opt.Options{}
	if cache > 0 {
		o.BlockCacheCapacity = cache * opt.MiB
	}
	db, err := leveldb.OpenFile(path, o)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}
	return &Store{db: db}, nil
}

// NewMemStore creates a store that lives in memory only.
func NewMemStore() *Store {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		// a memory storage can't fail to open
		panic(err)
	}
	return &Store{db: db}
}

func blockKey(run string, id inter.BlockID) []byte {
	return append([]byte(blockPrefix+run+"/"), bigendian.Uint64ToBytes(uint64(id))...)
}

func summaryKey(run string) []byte {
	return []byte(summaryPrefix + run)
}

// PutBlock stores one block record.
func (s *Store) PutBlock(run string, r ibr.BlockRecord) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal block record: %v", err)
	}
	if err := s.db.Put(blockKey(run, r.ID), data, nil); err != nil {
		return fmt.Errorf("failed to store block record: %v", err)
	}
	return nil
}

// GetBlock loads one block record.
func (s *Store) GetBlock(run string, id inter.BlockID) (ibr.BlockRecord, error) {
	var r ibr.BlockRecord
	data, err := s.db.Get(blockKey(run, id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return r, ErrNotFound
	}
	if err != nil {
		return r, fmt.Errorf("failed to get block record: %v", err)
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("failed to unmarshal block record: %v", err)
	}
	return r, nil
}

// ForEachBlock calls fn on every record of run in id order, stopping early
// if fn returns false.
func (s *Store) ForEachBlock(run string, fn func(ibr.BlockRecord) bool) error {
	it := s.db.NewIterator(util.BytesPrefix([]byte(blockPrefix+run+"/")), nil)
	defer it.Release()
	for it.Next() {
		var r ibr.BlockRecord
		if err := json.Unmarshal(it.Value(), &r); err != nil {
			return fmt.Errorf("failed to unmarshal block record: %v", err)
		}
		if !fn(r) {
			break
		}
	}
	return it.Error()
}

// PutSummary stores the summary of a finished run.
func (s *Store) PutSummary(run string, sum RunSummary) error {
	data, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %v", err)
	}
	if err := s.db.Put(summaryKey(run), data, nil); err != nil {
		return fmt.Errorf("failed to store run summary: %v", err)
	}
	return nil
}

// GetSummary loads the summary of a run.
func (s *Store) GetSummary(run string) (RunSummary, error) {
	var sum RunSummary
	data, err := s.db.Get(summaryKey(run), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return sum, ErrNotFound
	}
	if err != nil {
		return sum, fmt.Errorf("failed to get run summary: %v", err)
	}
	if err := json.Unmarshal(data, &sum); err != nil {
		return sum, fmt.Errorf("failed to unmarshal run summary: %v", err)
	}
	return sum, nil
}

// Runs lists the runs that have a stored summary.
func (s *Store) Runs() ([]string, error) {
	var runs []string
	it := s.db.NewIterator(util.BytesPrefix([]byte(summaryPrefix)), nil)
	defer it.Release()
	for it.Next() {
		runs = append(runs, string(it.Key()[len(summaryPrefix):]))
	}
	return runs, it.Error()
}

// Err returns the first write error hit by a recorder of this store.
// Recorder callbacks can't return errors, so they are parked here.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Store) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ForRun returns a recorder that writes every produced block of run and the
// run summary.
func (s *Store) ForRun(run string) simulator.Recorder {
	return &runStore{s: s, run: run}
}

type runStore struct {
	s   *Store
	run string
}

func (r *runStore) BlockProduced(rep simulator.Report) {
	if err := r.s.PutBlock(r.run, ibr.FromBlock(rep.Block)); err != nil {
		r.s.fail(err)
	}
}

func (r *runStore) BlockAdopted(idx.ValidatorID, simulator.Report)  {}
func (r *runStore) BlockRejected(idx.ValidatorID, simulator.Report) {}

func (r *runStore) SimulationEnd(res *simulator.Result) {
	sum := RunSummary{
		Seed:    res.Seed,
		Reason:  res.Reason,
		EndTime: res.EndTime,
		Events:  res.Events,
		Summary: res.Summary,
		Nodes:   res.Nodes,
	}
	if res.Head != nil {
		sum.HeadID = res.Head.ID
	}
	if err := r.s.PutSummary(r.run, sum); err != nil {
		r.s.fail(err)
	}
}
