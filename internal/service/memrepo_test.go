package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/embedkit/embedkit/internal/apperr"
	"github.com/embedkit/embedkit/internal/domain"
	"github.com/embedkit/embedkit/internal/logger"
	redisstore "github.com/embedkit/embedkit/internal/store/redis"
)

// In-memory fakes for the store interfaces. One memStore backs the string,
// counter, marker, list and sorted-set views plus the key scanner, so
// pattern scans and bulk deletes see the same keyspace the repos wrote to.
// Entity records live in a typed memEntities alongside it.

type memStore struct {
	mu       sync.Mutex
	strings  map[string]string
	counters map[string]int64
	markers  map[string]time.Time
	lists    map[string][]string
	zsets    map[string]map[string]float64

	// failKeys makes any mutating operation on a key fail, for exercising
	// the rollback paths.
	failKeys map[string]error

	// extraKeys feeds entity keys into ScanKeys.
	extraKeys func() []string
}

func newMemStore() *memStore {
	return &memStore{
		strings:  make(map[string]string),
		counters: make(map[string]int64),
		markers:  make(map[string]time.Time),
		lists:    make(map[string][]string),
		zsets:    make(map[string]map[string]float64),
		failKeys: make(map[string]error),
	}
}

func (s *memStore) failOn(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failKeys[key] = apperr.Storagef(nil, "injected failure on %s", key)
}

func (s *memStore) failure(key string) error {
	return s.failKeys[key]
}

// StringStore

func (s *memStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.strings[key]
	if !ok {
		return "", apperr.NotFoundf("no value at %s", key)
	}
	return v, nil
}

func (s *memStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(key); err != nil {
		return err
	}
	s.strings[key] = value
	return nil
}

func (s *memStore) Delete(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.strings[key]
	delete(s.strings, key)
	return ok, nil
}

type memCounters struct{ s *memStore }

func (c memCounters) Get(ctx context.Context, key string) (int64, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.s.counters[key], nil
}

func (c memCounters) GetMany(ctx context.Context, keys []string) ([]int64, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	out := make([]int64, len(keys))
	for i, k := range keys {
		out[i] = c.s.counters[k]
	}
	return out, nil
}

func (c memCounters) Set(ctx context.Context, key string, value int64) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if err := c.s.failure(key); err != nil {
		return err
	}
	c.s.counters[key] = value
	return nil
}

func (c memCounters) Increment(ctx context.Context, key string) (int64, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if err := c.s.failure(key); err != nil {
		return 0, err
	}
	c.s.counters[key]++
	return c.s.counters[key], nil
}

func (c memCounters) Decrement(ctx context.Context, key string) (int64, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if err := c.s.failure(key); err != nil {
		return 0, err
	}
	c.s.counters[key]--
	return c.s.counters[key], nil
}

func (c memCounters) Delete(ctx context.Context, key string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	delete(c.s.counters, key)
	return nil
}

type memMarkers struct{ s *memStore }

func (m memMarkers) SetIfNotExists(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.failure(key); err != nil {
		return false, err
	}
	if exp, ok := m.s.markers[key]; ok && time.Now().Before(exp) {
		return false, nil
	}
	m.s.markers[key] = time.Now().Add(ttl)
	return true, nil
}

func (m memMarkers) Exists(ctx context.Context, key string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	exp, ok := m.s.markers[key]
	return ok && time.Now().Before(exp), nil
}

func (m memMarkers) Release(ctx context.Context, key string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.markers, key)
	return nil
}

func (m memMarkers) Restore(ctx context.Context, key string, ttl time.Duration) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.markers[key] = time.Now().Add(ttl)
	return nil
}

type memLists struct{ s *memStore }

func (l memLists) Push(ctx context.Context, key, value string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if err := l.s.failure(key); err != nil {
		return err
	}
	l.s.lists[key] = append([]string{value}, l.s.lists[key]...)
	return nil
}

func (l memLists) Range(ctx context.Context, key string, start, stop int64) ([]string, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	list := l.s.lists[key]
	n := int64(len(list))
	if stop < 0 {
		stop = n + stop
	}
	if start < 0 {
		start = n + start
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || n == 0 {
		return nil, nil
	}
	out := make([]string, stop-start+1)
	copy(out, list[start:stop+1])
	return out, nil
}

func (l memLists) Length(ctx context.Context, key string) (int64, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return int64(len(l.s.lists[key])), nil
}

func (l memLists) Trim(ctx context.Context, key string, start, stop int64) error {
	kept, err := l.Range(ctx, key, start, stop)
	if err != nil {
		return err
	}
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.lists[key] = kept
	return nil
}

func (l memLists) SetAt(ctx context.Context, key string, index int64, value string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	list := l.s.lists[key]
	if index < 0 || index >= int64(len(list)) {
		return apperr.Storagef(nil, "index %d out of range for %s", index, key)
	}
	list[index] = value
	return nil
}

func (l memLists) RemoveValue(ctx context.Context, key, value string) (bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	list := l.s.lists[key]
	for i, v := range list {
		if v == value {
			l.s.lists[key] = append(list[:i:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (l memLists) Clear(ctx context.Context, key string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	delete(l.s.lists, key)
	return nil
}

type memZSets struct{ s *memStore }

func (z memZSets) Add(ctx context.Context, key, member string, score float64) error {
	z.s.mu.Lock()
	defer z.s.mu.Unlock()
	if err := z.s.failure(key); err != nil {
		return err
	}
	if z.s.zsets[key] == nil {
		z.s.zsets[key] = make(map[string]float64)
	}
	z.s.zsets[key][member] = score
	return nil
}

func (z memZSets) Remove(ctx context.Context, key, member string) (bool, error) {
	z.s.mu.Lock()
	defer z.s.mu.Unlock()
	set := z.s.zsets[key]
	if _, ok := set[member]; !ok {
		return false, nil
	}
	delete(set, member)
	return true, nil
}

func (z memZSets) Score(ctx context.Context, key, member string) (float64, bool, error) {
	z.s.mu.Lock()
	defer z.s.mu.Unlock()
	score, ok := z.s.zsets[key][member]
	return score, ok, nil
}

func (z memZSets) sorted(key string) []redisstore.ScoredMember {
	members := make([]redisstore.ScoredMember, 0, len(z.s.zsets[key]))
	for m, sc := range z.s.zsets[key] {
		members = append(members, redisstore.ScoredMember{Member: m, Score: sc})
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score > members[j].Score
		}
		return members[i].Member > members[j].Member
	})
	return members
}

func (z memZSets) RangeDescending(ctx context.Context, key string, start, stop int64) ([]redisstore.ScoredMember, error) {
	z.s.mu.Lock()
	defer z.s.mu.Unlock()
	members := z.sorted(key)
	n := int64(len(members))
	if stop < 0 {
		stop = n + stop
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || n == 0 || start >= n {
		return nil, nil
	}
	return members[start : stop+1], nil
}

func (z memZSets) Count(ctx context.Context, key string) (int64, error) {
	z.s.mu.Lock()
	defer z.s.mu.Unlock()
	return int64(len(z.s.zsets[key])), nil
}

func (z memZSets) RemoveRangeByRank(ctx context.Context, key string, start, stop int64) (int64, error) {
	z.s.mu.Lock()
	defer z.s.mu.Unlock()
	// Ascending rank: reverse of the descending sort.
	members := z.sorted(key)
	for i, j := 0, len(members)-1; i < j; i, j = i+1, j-1 {
		members[i], members[j] = members[j], members[i]
	}
	n := int64(len(members))
	if stop < 0 {
		stop = n + stop
	}
	if stop >= n {
		stop = n - 1
	}
	var removed int64
	for i := start; i <= stop && i < n; i++ {
		delete(z.s.zsets[key], members[i].Member)
		removed++
	}
	return removed, nil
}

func (z memZSets) Clear(ctx context.Context, key string) error {
	z.s.mu.Lock()
	defer z.s.mu.Unlock()
	delete(z.s.zsets, key)
	return nil
}

// KeyScanner

func matchPattern(pattern, key string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == key
	}
	if !strings.HasPrefix(key, parts[0]) {
		return false
	}
	key = key[len(parts[0]):]
	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(key, part)
		if idx < 0 {
			return false
		}
		key = key[idx+len(part):]
	}
	return strings.HasSuffix(key, parts[len(parts)-1])
}

func (s *memStore) allKeys() []string {
	keys := make([]string, 0)
	for k := range s.strings {
		keys = append(keys, k)
	}
	for k := range s.counters {
		keys = append(keys, k)
	}
	for k := range s.markers {
		keys = append(keys, k)
	}
	for k := range s.lists {
		keys = append(keys, k)
	}
	for k := range s.zsets {
		keys = append(keys, k)
	}
	if s.extraKeys != nil {
		keys = append(keys, s.extraKeys()...)
	}
	return keys
}

func (s *memStore) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, k := range s.allKeys() {
		if matchPattern(pattern, k) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *memStore) DeleteKeys(ctx context.Context, pattern string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for _, k := range s.allKeys() {
		if !matchPattern(pattern, k) {
			continue
		}
		delete(s.counters, k)
		delete(s.markers, k)
		delete(s.strings, k)
		delete(s.lists, k)
		delete(s.zsets, k)
		deleted++
	}
	return deleted, nil
}

// memEntities is the typed record fake.
type memEntities[E domain.Record] struct {
	mu sync.Mutex
	m  map[string]E
}

func newMemEntities[E domain.Record]() *memEntities[E] {
	return &memEntities[E]{m: make(map[string]E)}
}

func (r *memEntities[E]) Get(ctx context.Context, key string) (E, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.m[key]
	if !ok {
		var zero E
		return zero, apperr.NotFoundf("record %s not found", key)
	}
	return e, nil
}

func (r *memEntities[E]) Save(ctx context.Context, key string, e E) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[key] = e
	return nil
}

func (r *memEntities[E]) Delete(ctx context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.m[key]
	delete(r.m, key)
	return ok, nil
}

func (r *memEntities[E]) keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.m))
	for k := range r.m {
		keys = append(keys, k)
	}
	return keys
}

// harness bundles one memStore with a typed entity fake and wires the
// entity keys into the scanner's view.
type harness[E domain.Record] struct {
	store    *memStore
	entities *memEntities[E]
	base     *Base[E]
}

func newHarness[E domain.Record](kind domain.Kind) *harness[E] {
	store := newMemStore()
	entities := newMemEntities[E]()
	store.extraKeys = entities.keys
	base := NewBase[E](redisstore.NewKeys(kind), entities, store, logger.Nop())
	return &harness[E]{store: store, entities: entities, base: base}
}
