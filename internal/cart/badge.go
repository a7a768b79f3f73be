package cart

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/session"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// PulseDuration is how long the badge is emphasised after a refresh that
// found items.
const PulseDuration = 500 * time.Millisecond

// BadgeDisplay is the header cart counter.
type BadgeDisplay interface {
	Show(count int, pulse time.Duration)
	Hide()
}

// BadgeSource loads the cart for the badge.
type BadgeSource interface {
	BadgeCart(ctx context.Context, sid domain.SessionID) (*domain.Cart, error)
}

// BadgeSynchronizer keeps a badge in line with the backend cart. It never
// reports failures: the badge is hidden and the cause logged.
type BadgeSynchronizer struct {
	source BadgeSource
	logger *zap.Logger
	sfg    singleflight.Group // concurrent refreshes of one session share a call
}

func NewBadgeSynchronizer(source BadgeSource, l *zap.Logger) *BadgeSynchronizer {
	if l == nil {
		l = zap.NewNop()
	}
	return &BadgeSynchronizer{source: source, logger: l}
}

// Refresh recounts the cart of sc and updates display.
func (b *BadgeSynchronizer) Refresh(ctx context.Context, sc *session.Context, display BadgeDisplay) {
	if display == nil {
		display = noBadge{}
	}
	log := logger.FromContextOr(ctx, b.logger)
	defer func() {
		if r := recover(); r != nil {
			log.Error("badge refresh panicked", zap.Any("panic", r))
			display.Hide()
		}
	}()

	count, err := b.Count(ctx, sc)
	if err != nil {
		log.Debug("badge refresh failed", zap.Error(err))
		display.Hide()
		return
	}
	if count <= 0 {
		display.Hide()
		return
	}
	display.Show(count, PulseDuration)
}

// Count returns the number of displayable units in the cart of sc.
// Concurrent callers for one session share a backend call that outlives any
// single caller's cancellation; each caller still stops waiting when its own
// ctx is done. The badge policy timeout bounds the shared call.
func (b *BadgeSynchronizer) Count(ctx context.Context, sc *session.Context) (int, error) {
	sid := sc.SessionID(ctx)
	shared := context.WithoutCancel(ctx)
	ch := b.sfg.DoChan(sid.String(), func() (v interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.FromContextOr(shared, b.logger).Error("badge refresh panicked", zap.Any("panic", r))
				v, err = 0, fmt.Errorf("load cart for badge: panic: %v", r)
			}
		}()
		cart, err := b.source.BadgeCart(shared, sid)
		if err != nil {
			return 0, fmt.Errorf("load cart for badge: %w", err)
		}
		return cart.ItemCount(), nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(int), nil
	case <-ctx.Done():
		return 0, fmt.Errorf("load cart for badge: %w", ctx.Err())
	}
}

type noBadge struct{}

func (noBadge) Show(int, time.Duration) {}
func (noBadge) Hide()                   {}

// Badge is an in-memory BadgeDisplay.
type Badge struct {
	mu         sync.Mutex
	count      int
	visible    bool
	pulseUntil time.Time
	now        func() time.Time
}

type BadgeState struct {
	Count   int  `json:"count"`
	Visible bool `json:"visible"`
	Pulsing bool `json:"pulsing"`
}

func (s BadgeState) Text() string {
	if !s.Visible {
		return ""
	}
	return strconv.Itoa(s.Count)
}

func NewBadge() *Badge {
	return &Badge{now: time.Now}
}

func (b *Badge) Show(count int, pulse time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.count = count
	b.visible = count > 0
	b.pulseUntil = b.now().Add(pulse)
}

func (b *Badge) Hide() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.count = 0
	b.visible = false
	b.pulseUntil = time.Time{}
}

func (b *Badge) State() BadgeState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BadgeState{
		Count:   b.count,
		Visible: b.visible,
		Pulsing: b.visible && b.now().Before(b.pulseUntil),
	}
}

// BadgePoller refreshes a badge on an interval until its context ends.
type BadgePoller struct {
	badge    *BadgeSynchronizer
	sc       *session.Context
	display  BadgeDisplay
	interval time.Duration
}

func NewBadgePoller(badge *BadgeSynchronizer, sc *session.Context, display BadgeDisplay, interval time.Duration) *BadgePoller {
	return &BadgePoller{badge: badge, sc: sc, display: display, interval: interval}
}

func (p *BadgePoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		p.badge.Refresh(ctx, p.sc, p.display)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
