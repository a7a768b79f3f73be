// Package session resolves the browser's cart session id and signed-in user.
package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"go.uber.org/zap"
)

const (
	idPrefix     = "session_"
	suffixLength = 9
	base36       = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Provider hands out the browser's cart session id, creating it on first use.
type Provider struct {
	store  storage.Store
	logger *zap.Logger
	now    func() time.Time

	mu   sync.Mutex
	last domain.SessionID
}

func NewProvider(store storage.Store, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{store: store, logger: logger, now: time.Now}
}

// SessionID returns the stored id, or generates and stores a new one when
// none exists. Concurrent first uses across providers settle on the first
// id written. Storage failures are logged; the id resolved last stays in
// use so callers always get a stable, non-empty value.
func (p *Provider) SessionID(ctx context.Context) domain.SessionID {
	p.mu.Lock()
	defer p.mu.Unlock()

	v, err := p.store.Get(ctx, storage.KeySessionID)
	switch {
	case err == nil && v != "":
		p.last = domain.SessionID(v)
		return p.last
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		p.logger.Warn("read session id", zap.Error(err))
		if p.last != "" {
			return p.last
		}
	}

	id := NewSessionID(p.now())
	stored, err := p.store.SetIfAbsent(ctx, storage.KeySessionID, id.String())
	if err != nil {
		p.logger.Warn("persist session id", zap.Error(err))
	} else {
		// stored differs from id when an overlapping request wrote first
		id = domain.SessionID(stored)
	}
	p.last = id
	return id
}

// NewSessionID builds "session_<unix millis>_<9 base36 chars>".
func NewSessionID(now time.Time) domain.SessionID {
	suffix := make([]byte, suffixLength)
	for i := range suffix {
		suffix[i] = base36[rand.IntN(len(base36))]
	}
	return domain.SessionID(idPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "_" + string(suffix))
}
