package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MemoryStore keeps documents in process as bson maps. It backs DB_TYPE=memory
// and the service tests, and round-trips every document through bson so field
// names behave as they do in MongoDB.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	idField string
	unique  []string
	docs    []bson.M
}

func NewMemoryStore[T any](idField string) *MemoryStore[T] {
	return &MemoryStore[T]{idField: idField}
}

// Unique adds fields that must be unique across the whole collection.
func (s *MemoryStore[T]) Unique(fields ...string) *MemoryStore[T] {
	s.unique = append(s.unique, fields...)
	return s
}

func duplicateKey(field string) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: fmt.Sprintf("E11000 duplicate key error dup key: { %s }", field),
	}}}
}

func encode[T any](doc *T) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func decode[T any](m bson.M) (*T, error) {
	raw, err := bson.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out T
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MemoryStore[T]) Insert(ctx context.Context, doc *T) error {
	m, err := encode(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.docs {
		for _, f := range append([]string{s.idField}, s.unique...) {
			if v, ok := m[f]; ok && fmt.Sprint(d[f]) == fmt.Sprint(v) {
				return duplicateKey(f)
			}
		}
	}
	s.docs = append(s.docs, m)
	return nil
}

func (s *MemoryStore[T]) FindOne(ctx context.Context, userID, id string) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.docs {
		if matches(d, userID, Filter{s.idField: id}) {
			return decode[T](d)
		}
	}
	return nil, nil
}

func (s *MemoryStore[T]) Find(ctx context.Context, userID string, filter Filter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*T{}
	for _, d := range s.docs {
		if !matches(d, userID, filter) {
			continue
		}
		doc, err := decode[T](d)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *MemoryStore[T]) Replace(ctx context.Context, userID, id string, doc *T, cond Filter) error {
	m, err := encode(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range s.docs {
		if matches(d, userID, Filter{s.idField: id}) && matches(d, "", cond) {
			s.docs[i] = m
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore[T]) Update(ctx context.Context, userID string, filter Filter, set Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, d := range s.docs {
		if !matches(d, userID, filter) {
			continue
		}
		for k, v := range set {
			d[k] = v
		}
		n++
	}
	return n, nil
}

func (s *MemoryStore[T]) Push(ctx context.Context, userID, id, field string, item interface{}) error {
	raw, err := bson.Marshal(bson.M{"v": item})
	if err != nil {
		return err
	}
	var wrapped bson.M
	if err := bson.Unmarshal(raw, &wrapped); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.docs {
		if matches(d, userID, Filter{s.idField: id}) {
			arr, _ := d[field].(bson.A)
			d[field] = append(arr, wrapped["v"])
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore[T]) Pull(ctx context.Context, userID string, filter Filter, field string, match Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, d := range s.docs {
		if !matches(d, userID, filter) {
			continue
		}
		arr, ok := d[field].(bson.A)
		if !ok {
			continue
		}
		kept := bson.A{}
		for _, item := range arr {
			if el, ok := asDocument(item); ok && matches(el, "", match) {
				continue
			}
			kept = append(kept, item)
		}
		if len(kept) != len(arr) {
			d[field] = kept
			n++
		}
	}
	return n, nil
}

func asDocument(v interface{}) (bson.M, bool) {
	switch el := v.(type) {
	case bson.M:
		return el, true
	case bson.D:
		m := bson.M{}
		for _, e := range el {
			m[e.Key] = e.Value
		}
		return m, true
	}
	return nil, false
}

func (s *MemoryStore[T]) Delete(ctx context.Context, userID, id string) error {
	n, _ := s.DeleteMany(ctx, userID, Filter{s.idField: id})
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MemoryStore[T]) DeleteMany(ctx context.Context, userID string, filter Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.docs[:0]
	var n int64
	for _, d := range s.docs {
		if matches(d, userID, filter) {
			n++
			continue
		}
		kept = append(kept, d)
	}
	s.docs = kept
	return n, nil
}

func (s *MemoryStore[T]) Count(ctx context.Context, userID string, filter Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, d := range s.docs {
		if matches(d, userID, filter) {
			n++
		}
	}
	return n, nil
}

func matches(d bson.M, userID string, filter Filter) bool {
	if userID != "" && fmt.Sprint(d[ownerField]) != userID {
		return false
	}
	for k, want := range filter {
		values := lookup(d, strings.Split(k, "."))
		if want == nil {
			if len(values) == 0 {
				continue
			}
			return false
		}
		if !anyEqual(values, want) {
			return false
		}
	}
	return true
}

func anyEqual(values []interface{}, want interface{}) bool {
	for _, v := range values {
		if list, ok := want.([]string); ok {
			for _, w := range list {
				if fmt.Sprint(v) == w {
					return true
				}
			}
			continue
		}
		if fmt.Sprint(v) == fmt.Sprint(want) {
			return true
		}
	}
	return false
}

// lookup resolves a dotted path, fanning out over arrays the way MongoDB does.
func lookup(v interface{}, path []string) []interface{} {
	if len(path) == 0 {
		if arr, ok := v.(bson.A); ok {
			return []interface{}(arr)
		}
		return []interface{}{v}
	}
	switch node := v.(type) {
	case bson.M:
		child, ok := node[path[0]]
		if !ok {
			return nil
		}
		return lookup(child, path[1:])
	case bson.D:
		for _, e := range node {
			if e.Key == path[0] {
				return lookup(e.Value, path[1:])
			}
		}
		return nil
	case bson.A:
		var out []interface{}
		for _, item := range node {
			out = append(out, lookup(item, path)...)
		}
		return out
	}
	return nil
}
