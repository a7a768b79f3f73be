package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/stretchr/testify/require"
)

// recordingUI captures everything rendered into it.
type recordingUI struct {
	*Badge

	mu         sync.Mutex
	views      []*View
	cartErrors []string
	orders     []domain.Order
	notices    []string
	alerts     []string
}

func newRecordingUI() *recordingUI {
	return &recordingUI{Badge: NewBadge()}
}

func (u *recordingUI) ShowCart(v *View) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.views = append(u.views, v)
}

func (u *recordingUI) ShowCartError(msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.cartErrors = append(u.cartErrors, msg)
}

func (u *recordingUI) ShowOrder(o domain.Order) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.orders = append(u.orders, o)
}

func (u *recordingUI) Notify(msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.notices = append(u.notices, msg)
}

func (u *recordingUI) Alert(msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.alerts = append(u.alerts, msg)
}

func (u *recordingUI) lastView() *View {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.views) == 0 {
		return nil
	}
	return u.views[len(u.views)-1]
}

func newSession(t *testing.T) *session.Context {
	t.Helper()
	sc, err := session.Load(context.Background(), storage.NewMemoryStore(), nil)
	require.NoError(t, err)
	return sc
}
