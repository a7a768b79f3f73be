package cart

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/backend/backendtest"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/validation"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*backendtest.Server, *Service, *session.Context) {
	t.Helper()
	srv := backendtest.New(t)
	srv.AddProduct(domain.Product{ID: "p1", Name: "Mug", Price: domain.ParseAmount("150"), Image: "https://img/mug.png", Stock: 10})
	srv.AddProduct(domain.Product{ID: "p2", Name: "Tea", Price: domain.ParseAmount("99.50"), Stock: 10})
	return srv, NewService(srv.Backend(backendtest.Policies()), nil), newSession(t)
}

func cartPath(sc *session.Context) string {
	return "/cart/" + sc.SessionID(context.Background()).String()
}

func TestAddItemTwice_BadgeReflectsServerCart(t *testing.T) {
	srv, svc, sc := setupService(t)
	ui := newRecordingUI()
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, sc, ui, "p1", "Mug", nil))
	require.NoError(t, svc.AddItem(ctx, sc, ui, "p1", "Mug", nil))

	assert.Equal(t, 2, srv.Calls(http.MethodPost, cartPath(sc)+"/items"))
	assert.Equal(t, BadgeState{Count: 2, Visible: true, Pulsing: true}, ui.State())
	assert.Equal(t, []string{"Mug added to cart!", "Mug added to cart!"}, ui.notices)

	v := ui.lastView()
	require.NotNil(t, v)
	require.Len(t, v.Lines, 1)
	assert.Equal(t, 2, v.Lines[0].Quantity)
	assert.Equal(t, "300.00", v.Subtotal.String())
	assert.Equal(t, "30.00", v.Tax.String())
	assert.Equal(t, "330.00", v.Total.String())
}

func TestAddItem_EmptyProductIDIsRejectedLocally(t *testing.T) {
	srv, svc, sc := setupService(t)
	ui := newRecordingUI()

	err := svc.AddItem(context.Background(), sc, ui, " ", "Mug", nil)

	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, []string{"Invalid product. Please try again."}, ui.alerts)
	assert.Equal(t, 0, srv.TotalCalls())
}

func TestAddItem_ServerErrorRestoresButton(t *testing.T) {
	_, svc, sc := setupService(t)
	ui := newRecordingUI()
	btn := NewButton(AddLabels, 20*time.Millisecond, nil)

	err := svc.AddItem(context.Background(), sc, ui, "missing", "Ghost", btn)

	require.Error(t, err)
	assert.Equal(t, []string{"Product not found"}, ui.alerts)
	assert.Equal(t, Failed, btn.State())
	assert.Eventually(t, func() bool { return btn.State() == Idle }, time.Second, 5*time.Millisecond)
}

func TestAddItem_BusyButtonSkipsCall(t *testing.T) {
	srv, svc, sc := setupService(t)
	btn := NewButton(AddLabels, time.Hour, nil)
	require.True(t, btn.Begin())

	err := svc.AddItem(context.Background(), sc, newRecordingUI(), "p1", "Mug", btn)

	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 0, srv.TotalCalls())
}

func TestAddItem_TimeoutIsDescribed(t *testing.T) {
	srv, svc, sc := setupService(t)
	ui := newRecordingUI()
	srv.Fail(http.MethodPost, cartPath(sc)+"/items", backendtest.Fault{Delay: 2 * time.Second})

	err := svc.AddItem(context.Background(), sc, ui, "p1", "Mug", nil)

	assert.True(t, domain.IsKind(err, domain.KindTimeout))
	assert.Equal(t, []string{domain.TimeoutMessage}, ui.alerts)
	assert.Equal(t, 1, srv.Calls(http.MethodPost, cartPath(sc)+"/items"), "mutations are not retried")
}

func TestSetQuantity_UpdatesItem(t *testing.T) {
	srv, svc, sc := setupService(t)
	ui := newRecordingUI()
	ctx := context.Background()
	require.NoError(t, svc.AddItem(ctx, sc, ui, "p1", "Mug", nil))
	itemID := ui.lastView().Lines[0].ItemID

	require.NoError(t, svc.SetQuantity(ctx, sc, ui, itemID, 4, nil))

	assert.Equal(t, 1, srv.Calls(http.MethodPut, cartPath(sc)+"/items/"+itemID))
	assert.Equal(t, 4, ui.State().Count)
	assert.Equal(t, 4, ui.lastView().Lines[0].Quantity)
}

func TestSetQuantity_NonPositiveRemovesProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	srv, svc, _ := setupService(t)
	ctx := context.Background()

	properties.Property("quantity <= 0 is a removal", prop.ForAll(
		func(q int) bool {
			sc := newSession(t)
			ui := newRecordingUI()
			if err := svc.AddItem(ctx, sc, ui, "p2", "Tea", nil); err != nil {
				return false
			}
			itemID := ui.lastView().Lines[0].ItemID
			item := cartPath(sc) + "/items/" + itemID

			if err := svc.SetQuantity(ctx, sc, ui, itemID, q, nil); err != nil {
				return false
			}
			return srv.Calls(http.MethodPut, item) == 0 &&
				srv.Calls(http.MethodDelete, item) == 1 &&
				ui.lastView().Empty() &&
				!ui.State().Visible
		},
		gen.IntRange(-1000, 0),
	))

	properties.TestingRun(t)
}

func TestRemoveItem_Twice(t *testing.T) {
	srv, svc, sc := setupService(t)
	ui := newRecordingUI()
	ctx := context.Background()
	require.NoError(t, svc.AddItem(ctx, sc, ui, "p1", "Mug", nil))
	require.NoError(t, svc.AddItem(ctx, sc, ui, "p2", "Tea", nil))
	itemID := ui.lastView().Lines[0].ItemID

	require.NoError(t, svc.RemoveItem(ctx, sc, ui, itemID, nil))
	assert.Contains(t, ui.notices, "Item removed from cart")
	before := ui.lastView()

	err := svc.RemoveItem(ctx, sc, ui, itemID, nil)

	var f *domain.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, http.StatusNotFound, f.Status)
	assert.Equal(t, "Item not found in cart", ui.alerts[len(ui.alerts)-1])
	assert.Same(t, before, ui.lastView(), "a failed removal does not re-render")
	assert.Equal(t, 1, ui.State().Count)
	assert.Equal(t, 2, srv.Calls(http.MethodDelete, cartPath(sc)+"/items/"+itemID))
}

func TestLoad_EmptyCart(t *testing.T) {
	_, svc, sc := setupService(t)
	ui := newRecordingUI()

	v, err := svc.Load(context.Background(), sc, ui)

	require.NoError(t, err)
	assert.True(t, v.Empty())
	assert.False(t, v.ShowCheckout())
	assert.False(t, ui.State().Visible)
}

func TestLoad_EnrichesBareProductIDs(t *testing.T) {
	srv, svc, sc := setupService(t)
	srv.SetCartJSON(sc.SessionID(context.Background()), `{
		"items": [
			{"_id":"i1","productId":"p1","price":"150","quantity":"2"},
			{"_id":"i2","productId":"gone","price":10,"quantity":1},
			{"_id":"i3","productId":{"_id":"p2","name":"Tea"},"price":99.5,"quantity":1},
			{"_id":"i4","productId":"p2","price":99.5,"quantity":0}
		],
		"total": 0
	}`)
	require.NoError(t, sc.SignIn(context.Background(), session.Auth{Token: "t", Role: domain.RoleUser, Name: "Ana", Email: "ana@example.com"}))
	ui := newRecordingUI()

	v, err := svc.Load(context.Background(), sc, ui)
	require.NoError(t, err)

	require.Len(t, v.Lines, 3)
	assert.Equal(t, "Mug", v.Lines[0].Name)
	assert.Equal(t, "https://img/mug.png", v.Lines[0].Image)
	assert.Equal(t, "Product", v.Lines[1].Name)
	assert.Equal(t, itemPlaceholderImage, v.Lines[1].Image)
	assert.Equal(t, "Tea", v.Lines[2].Name)
	assert.Equal(t, itemPlaceholderImage, v.Lines[2].Image)
	assert.Equal(t, "409.50", v.Subtotal.String())
	assert.Equal(t, Prefill{Name: "Ana", Email: "ana@example.com"}, v.Prefill)
	assert.Equal(t, 4, ui.State().Count)
	assert.Equal(t, 1, srv.Calls(http.MethodGet, "/products/p1"))
	assert.Equal(t, 0, srv.Calls(http.MethodGet, "/products/p2"))
}

func TestLoad_RetriesThenShowsRetryMessage(t *testing.T) {
	srv, svc, sc := setupService(t)
	ui := newRecordingUI()
	srv.Fail(http.MethodGet, cartPath(sc), backendtest.Fault{Status: http.StatusServiceUnavailable, Times: 2})

	_, err := svc.Load(context.Background(), sc, ui)

	require.Error(t, err)
	assert.Equal(t, 2, srv.Calls(http.MethodGet, cartPath(sc)))
	assert.Equal(t, []string{"Service Unavailable"}, ui.cartErrors)
}

func TestLoad_RecoversOnRetry(t *testing.T) {
	srv, svc, sc := setupService(t)
	ui := newRecordingUI()
	srv.Fail(http.MethodGet, cartPath(sc), backendtest.Fault{Status: http.StatusBadGateway})

	_, err := svc.Load(context.Background(), sc, ui)

	require.NoError(t, err)
	assert.Empty(t, ui.cartErrors)
}

func TestCheckout_EmptyNameRejectedLocally(t *testing.T) {
	srv, svc, sc := setupService(t)
	ui := newRecordingUI()

	_, err := svc.Checkout(context.Background(), sc, ui, validation.CheckoutForm{Name: "", Email: "ana@example.com"}, nil)

	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, []string{"Please enter a valid name (at least 2 characters)"}, ui.alerts)
	assert.Equal(t, 0, srv.TotalCalls())
}

func TestCheckout_EmptyCart(t *testing.T) {
	srv, svc, sc := setupService(t)
	ui := newRecordingUI()
	btn := NewButton(CheckoutLabels, time.Hour, nil)

	_, err := svc.Checkout(context.Background(), sc, ui, validation.CheckoutForm{Name: "Ana", Email: "ana@example.com"}, btn)

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, []string{"Your cart is empty. Please add items before placing an order."}, ui.alerts)
	assert.Equal(t, Failed, btn.State())
	assert.Equal(t, 0, srv.Calls(http.MethodPost, "/orders"))
}

func TestCheckout_PlacesOrder(t *testing.T) {
	srv, svc, sc := setupService(t)
	ui := newRecordingUI()
	ctx := context.Background()
	require.NoError(t, svc.AddItem(ctx, sc, ui, "p2", "Tea", nil))

	order, err := svc.Checkout(ctx, sc, ui, validation.CheckoutForm{Name: "  Ana Cruz ", Email: " ana@example.com"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "ORD-0001", order.OrderNumber)
	assert.Equal(t, "99.50", order.Total.String())
	assert.Equal(t, []domain.Order{*order}, ui.orders)
	assert.False(t, ui.State().Visible, "the badge empties with the cart")

	orders := srv.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, "Ana Cruz", orders[0].CustomerName)
	assert.Equal(t, "ana@example.com", orders[0].CustomerEmail)
	assert.Equal(t, sc.SessionID(ctx), orders[0].SessionID)
}
