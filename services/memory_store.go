package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tripmate_server/utils"

	"github.com/goccy/go-json"
)

// MemoryStore is an in-process DocumentStore for tests and local development.
// Documents are stored as JSON so callers never share memory with the store.
type MemoryStore struct {
	mu     sync.Mutex
	tables map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) table(name string) map[string][]byte {
	t, ok := s.tables[name]
	if !ok {
		t = make(map[string][]byte)
		s.tables[name] = t
	}
	return t
}

func (s *MemoryStore) GetDocument(ctx context.Context, table, id string, out interface{}) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	raw, ok := s.table(table)[id]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to decode %s/%s: %w", table, id, err)
	}
	return true, nil
}

func (s *MemoryStore) PutDocument(ctx context.Context, table, id string, doc interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := encodeDocument(id, doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.table(table)[id] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) PutDocumentIfAbsent(ctx context.Context, table, id string, doc interface{}) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	raw, err := encodeDocument(id, doc)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(table)
	if _, exists := t[id]; exists {
		return false, nil
	}
	t[id] = raw
	return true, nil
}

func (s *MemoryStore) UpdateFields(ctx context.Context, table, id string, fields map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(table)
	raw, ok := t[id]
	if !ok {
		return ErrNotFound
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode %s/%s: %w", table, id, err)
	}
	for k, v := range fields {
		doc[k] = v
	}
	updated, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", table, id, err)
	}
	t[id] = updated
	return nil
}

// QueryByAttribute scans the table; results are ordered by document id.
func (s *MemoryStore) QueryByAttribute(ctx context.Context, table, attribute, value string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	ids := make([]string, 0)
	docs := make(map[string][]byte)
	for id, raw := range s.table(table) {
		var doc map[string]interface{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to decode %s/%s: %w", table, id, err)
		}
		if v, ok := doc[attribute].(string); ok && v == value {
			ids = append(ids, id)
			docs[id] = raw
		}
	}
	s.mu.Unlock()

	sort.Strings(ids)
	matches := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		matches = append(matches, docs[id])
	}
	raw, err := json.Marshal(matches)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (s *MemoryStore) AddToSet(ctx context.Context, table, id, attribute, value string) error {
	return s.mutateSet(ctx, table, id, attribute, func(set []string) []string {
		for _, v := range set {
			if v == value {
				return set
			}
		}
		return append(set, value)
	}, true)
}

func (s *MemoryStore) RemoveFromSet(ctx context.Context, table, id, attribute, value string) error {
	return s.mutateSet(ctx, table, id, attribute, func(set []string) []string {
		kept := set[:0]
		for _, v := range set {
			if v != value {
				kept = append(kept, v)
			}
		}
		return kept
	}, false)
}

func (s *MemoryStore) mutateSet(ctx context.Context, table, id, attribute string, fn func([]string) []string, create bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(table)
	doc := map[string]interface{}{utils.IDAttribute: id}
	if raw, ok := t[id]; ok {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("failed to decode %s/%s: %w", table, id, err)
		}
	} else if !create {
		return nil
	}

	var set []string
	if existing, ok := doc[attribute].([]interface{}); ok {
		for _, v := range existing {
			if str, ok := v.(string); ok {
				set = append(set, str)
			}
		}
	}
	set = fn(set)
	sort.Strings(set)
	if len(set) == 0 {
		delete(doc, attribute)
	} else {
		doc[attribute] = set
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	t[id] = raw
	return nil
}

func encodeDocument(id string, doc interface{}) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("document must encode to an object: %w", err)
	}
	fields[utils.IDAttribute] = id
	return json.Marshal(fields)
}
