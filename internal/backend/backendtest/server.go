// Package backendtest runs an in-process fake of the storefront REST API for
// tests.
package backendtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

const AdminToken = "admin-token"

// Fault makes the next Times matching requests misbehave. Delay is applied
// first (bounded by the request context), then Status is written when set,
// with Body verbatim or a {"message": Message} payload.
type Fault struct {
	Status  int
	Message string
	Body    string
	Delay   time.Duration
	Times   int
}

type user struct {
	name, email, password string
	role                  domain.Role
}

type line struct {
	id        string
	productID string
	price     domain.Amount
	quantity  int
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	products map[string]domain.Product
	order    []string
	carts    map[string][]*line
	rawCarts map[string]string
	users    map[string]user
	faults   map[string]*Fault
	calls    []string
	orders   []domain.OrderRequest
	seq      int
}

// New starts the fake and closes it when t finishes.
func New(t testing.TB) *Server {
	s := &Server{
		products: make(map[string]domain.Product),
		carts:    make(map[string][]*line),
		rawCarts: make(map[string]string),
		users:    make(map[string]user),
		faults:   make(map[string]*Fault),
	}

	r := chi.NewRouter()
	r.Use(s.record, s.inject)
	r.Get("/products", s.listProducts)
	r.Get("/products/{id}", s.getProduct)
	r.With(s.admin).Post("/products", s.saveProduct)
	r.With(s.admin).Put("/products/{id}", s.saveProduct)
	r.With(s.admin).Delete("/products/{id}", s.deleteProduct)
	r.Post("/auth/login", s.login)
	r.Post("/auth/register", s.register)
	r.Get("/cart/{sid}", s.getCart)
	r.Post("/cart/{sid}/items", s.addItem)
	r.Put("/cart/{sid}/items/{itemID}", s.updateItem)
	r.Delete("/cart/{sid}/items/{itemID}", s.removeItem)
	r.Post("/orders", s.placeOrder)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

func (s *Server) AddProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		s.order = append(s.order, p.ID)
	}
	s.products[p.ID] = p
}

func (s *Server) AddUser(name, email, password string, role domain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = user{name: name, email: email, password: password, role: role}
}

// SetCartJSON makes GET /cart/{sid} answer body verbatim.
func (s *Server) SetCartJSON(sid domain.SessionID, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawCarts[sid.String()] = body
}

// Fail registers f for requests matching method and path exactly.
func (s *Server) Fail(method, path string, f Fault) {
	if f.Times == 0 {
		f.Times = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method+" "+path] = &f
}

// Calls returns how many requests hit method and path.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == method+" "+path {
			n++
		}
	}
	return n
}

func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *Server) Orders() []domain.OrderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OrderRequest(nil), s.orders...)
}

func (s *Server) Product(id string) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	return p, ok
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, r.Method+" "+r.URL.Path)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, ok := s.faults[r.Method+" "+r.URL.Path]
		var fault Fault
		if ok {
			fault = *f
			f.Times--
			if f.Times <= 0 {
				delete(s.faults, r.Method+" "+r.URL.Path)
			}
		}
		s.mu.Unlock()

		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if fault.Delay > 0 {
			select {
			case <-time.After(fault.Delay):
			case <-r.Context().Done():
				return
			}
		}
		if fault.Status != 0 && fault.Body != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fault.Status)
			_, _ = w.Write([]byte(fault.Body))
			return
		}
		if fault.Status != 0 {
			writeError(w, fault.Status, fault.Message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+AdminToken {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listProducts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make([]domain.Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.products[id])
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.Product(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) saveProduct(w http.ResponseWriter, r *http.Request) {
	var in domain.ProductInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeError(w, http.StatusBadRequest, "bad form")
			return
		}
		in.Name = r.FormValue("name")
		in.Description = r.FormValue("description")
		in.Price, _ = strconv.ParseFloat(r.FormValue("price"), 64)
		in.Category = r.FormValue("category")
		in.Stock, _ = strconv.Atoi(r.FormValue("stock"))
		if _, hdr, err := r.FormFile("image"); err == nil {
			in.Image = "/uploads/" + hdr.Filename
		}
	} else if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	s.mu.Lock()
	id := chi.URLParam(r, "id")
	status := http.StatusOK
	if id == "" {
		s.seq++
		id = fmt.Sprintf("prod-%d", s.seq)
		s.order = append(s.order, id)
		status = http.StatusCreated
	} else if _, ok := s.products[id]; !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	p := domain.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       domain.AmountFromFloat(in.Price),
		Image:       in.Image,
		Category:    in.Category,
		Stock:       in.Stock,
	}
	s.products[id] = p
	s.mu.Unlock()
	writeJSON(w, status, p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	delete(s.products, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	s.mu.Lock()
	u, ok := s.users[creds.Email]
	s.mu.Unlock()
	if !ok || u.password != creds.Password {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	token := "user-token"
	if u.role == domain.RoleAdmin {
		token = AdminToken
	}
	writeJSON(w, http.StatusOK, domain.LoginResult{
		Token: token,
		User:  domain.User{Name: u.name, Email: u.email, Role: u.role},
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[reg.Email]; ok {
		writeError(w, http.StatusBadRequest, "User already exists")
		return
	}
	s.users[reg.Email] = user{name: reg.Name, email: reg.Email, password: reg.Password, role: reg.Role}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered"})
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	s.mu.Lock()
	if raw, ok := s.rawCarts[sid]; ok {
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(raw))
		return
	}
	cart := s.snapshot(sid, true)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, cart)
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	var body struct {
		ProductID string          `json:"productId"`
		Quantity  domain.Quantity `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[body.ProductID]
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	qty := body.Quantity.Int()
	if qty <= 0 {
		qty = 1
	}
	for _, l := range s.carts[sid] {
		if l.productID == p.ID {
			l.quantity += qty
			writeJSON(w, http.StatusOK, s.snapshot(sid, false))
			return
		}
	}
	s.seq++
	s.carts[sid] = append(s.carts[sid], &line{
		id:        fmt.Sprintf("item-%d", s.seq),
		productID: p.ID,
		price:     p.Price,
		quantity:  qty,
	})
	writeJSON(w, http.StatusOK, s.snapshot(sid, false))
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	sid, itemID := chi.URLParam(r, "sid"), chi.URLParam(r, "itemID")
	var body struct {
		Quantity domain.Quantity `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if !body.Quantity.Valid() {
		writeError(w, http.StatusBadRequest, "Quantity must be at least 1")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.carts[sid] {
		if l.id == itemID {
			l.quantity = body.Quantity.Int()
			writeJSON(w, http.StatusOK, s.snapshot(sid, false))
			return
		}
	}
	writeError(w, http.StatusNotFound, "Item not found in cart")
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	sid, itemID := chi.URLParam(r, "sid"), chi.URLParam(r, "itemID")
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[sid]
	for i, l := range lines {
		if l.id == itemID {
			s.carts[sid] = append(lines[:i], lines[i+1:]...)
			writeJSON(w, http.StatusOK, s.snapshot(sid, false))
			return
		}
	}
	writeError(w, http.StatusNotFound, "Item not found in cart")
}

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.snapshot(req.SessionID.String(), false)
	if len(cart.Items) == 0 {
		writeError(w, http.StatusBadRequest, "Cart is empty")
		return
	}
	s.orders = append(s.orders, req)
	delete(s.carts, req.SessionID.String())
	writeJSON(w, http.StatusCreated, domain.OrderResponse{
		Message: "Order placed",
		Order: domain.Order{
			OrderNumber: fmt.Sprintf("ORD-%04d", len(s.orders)),
			Total:       cart.Total,
			Status:      "pending",
		},
	})
}

// snapshot renders the cart; populate expands productId like the real
// backend does on reads. Callers hold mu.
func (s *Server) snapshot(sid string, populate bool) domain.Cart {
	cart := domain.Cart{SessionID: sid, Items: []domain.CartItem{}}
	for _, l := range s.carts[sid] {
		ref := domain.ProductRef{ID: l.productID}
		if p, ok := s.products[l.productID]; ok && populate {
			ref = domain.ProductRef{ID: p.ID, Name: p.Name, Image: p.Image, Populated: true}
		}
		cart.Items = append(cart.Items, domain.CartItem{
			ID:       l.id,
			Product:  ref,
			Price:    l.price,
			Quantity: domain.NewQuantity(l.quantity),
		})
		cart.Total = cart.Total.Add(l.price.Times(l.quantity))
	}
	return cart
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"message": message})
}
