// Package session holds the signed-in identity for one user agent: a
// browser (cookie-backed) or the terminal client (SQLite-backed).
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/identity"
)

// Store persists at most one identity payload.
//
// Load returns nil, nil when nothing is stored. Malformed state is cleared
// and reported as empty.
type Store interface {
	Load(ctx context.Context) (*identity.Payload, error)
	Save(ctx context.Context, p identity.Payload) error
	Clear(ctx context.Context) error
}

// Marshal encodes p the way every Store persists it.
func Marshal(p identity.Payload) ([]byte, error) {
	return json.Marshal(p)
}

// Unmarshal parses persisted state. Anything other than a JSON object is
// reported as common.ErrDecode.
func Unmarshal(raw []byte) (*identity.Payload, error) {
	var p *identity.Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: session state: %v", common.ErrDecode, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: session state is null", common.ErrDecode)
	}
	return p, nil
}

// MemoryStore keeps the raw encoded payload in memory.
type MemoryStore struct {
	mu  sync.Mutex
	raw []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SetRaw replaces the stored bytes as-is.
func (m *MemoryStore) SetRaw(raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = raw
}

func (m *MemoryStore) Raw() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.raw
}

func (m *MemoryStore) Load(_ context.Context) (*identity.Payload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.raw == nil {
		return nil, nil
	}
	p, err := Unmarshal(m.raw)
	if err != nil {
		m.raw = nil
		return nil, nil
	}
	return p, nil
}

func (m *MemoryStore) Save(_ context.Context, p identity.Payload) error {
	raw, err := Marshal(p)
	if err != nil {
		return err
	}
	m.SetRaw(raw)
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.SetRaw(nil)
	return nil
}
