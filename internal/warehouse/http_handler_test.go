package warehouse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookstore/internal/auth"
	"bookstore/internal/httpx"
	"bookstore/internal/testutil"
	"bookstore/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type memoryRepo struct {
	authors      map[int64]Author
	genres       map[int64]Genre
	books        map[string]Book
	instances    map[int64]BookInstance
	orders       map[string]Order
	nextAuthorID int64
	nextGenreID  int64
	nextInstID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		authors:   make(map[int64]Author),
		genres:    make(map[int64]Genre),
		books:     make(map[string]Book),
		instances: make(map[int64]BookInstance),
		orders:    make(map[string]Order),
	}
}

func (m *memoryRepo) ListAuthors(context.Context) ([]Author, error) {
	out := make([]Author, 0, len(m.authors))
	for _, a := range m.authors {
		out = append(out, a)
	}
	return out, nil
}

func (m *memoryRepo) CreateAuthor(_ context.Context, name string) (Author, error) {
	for _, a := range m.authors {
		if a.Name == name {
			return Author{}, ErrAlreadyExists
		}
	}
	m.nextAuthorID++
	a := Author{ID: m.nextAuthorID, Name: name}
	m.authors[a.ID] = a
	return a, nil
}

func (m *memoryRepo) UpdateAuthor(_ context.Context, id int64, name string) (Author, error) {
	a, ok := m.authors[id]
	if !ok {
		return Author{}, ErrNotFound
	}
	a.Name = name
	m.authors[id] = a
	return a, nil
}

func (m *memoryRepo) DeleteAuthor(_ context.Context, id int64) error {
	if _, ok := m.authors[id]; !ok {
		return ErrNotFound
	}
	delete(m.authors, id)
	return nil
}

func (m *memoryRepo) ListGenres(context.Context) ([]Genre, error) {
	out := make([]Genre, 0, len(m.genres))
	for _, g := range m.genres {
		out = append(out, g)
	}
	return out, nil
}

func (m *memoryRepo) CreateGenre(_ context.Context, name string) (Genre, error) {
	m.nextGenreID++
	g := Genre{ID: m.nextGenreID, Name: name}
	m.genres[g.ID] = g
	return g, nil
}

func (m *memoryRepo) UpdateGenre(_ context.Context, id int64, name string) (Genre, error) {
	g, ok := m.genres[id]
	if !ok {
		return Genre{}, ErrNotFound
	}
	g.Name = name
	m.genres[id] = g
	return g, nil
}

func (m *memoryRepo) DeleteGenre(_ context.Context, id int64) error {
	if _, ok := m.genres[id]; !ok {
		return ErrNotFound
	}
	delete(m.genres, id)
	return nil
}

func (m *memoryRepo) ListBooks(context.Context) ([]Book, error) {
	out := make([]Book, 0, len(m.books))
	for _, b := range m.books {
		out = append(out, b)
	}
	return out, nil
}

func (m *memoryRepo) GetBook(_ context.Context, id string) (Book, error) {
	b, ok := m.books[id]
	if !ok {
		return Book{}, ErrNotFound
	}
	return b, nil
}

func (m *memoryRepo) CreateBook(_ context.Context, b *Book, authorIDs, genreIDs []int64) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.Authors = make([]Author, 0, len(authorIDs))
	for _, id := range authorIDs {
		a, ok := m.authors[id]
		if !ok {
			return ErrInUse
		}
		b.Authors = append(b.Authors, a)
	}
	b.Genres = make([]Genre, 0, len(genreIDs))
	for _, id := range genreIDs {
		g, ok := m.genres[id]
		if !ok {
			return ErrInUse
		}
		b.Genres = append(b.Genres, g)
	}
	b.Instances = []BookInstance{}
	m.books[b.ID] = *b
	return nil
}

func (m *memoryRepo) UpdateBook(_ context.Context, id string, title, summary string, price decimal.Decimal, mark float64, authorIDs, genreIDs []int64) (Book, error) {
	b, ok := m.books[id]
	if !ok {
		return Book{}, ErrNotFound
	}
	b.Title, b.Summary, b.Price, b.Mark = title, summary, price, mark
	m.books[id] = b
	return b, nil
}

func (m *memoryRepo) DeleteBook(_ context.Context, id string) error {
	if _, ok := m.books[id]; !ok {
		return ErrNotFound
	}
	delete(m.books, id)
	return nil
}

func (m *memoryRepo) ListInstances(_ context.Context, bookID string) ([]BookInstance, error) {
	out := make([]BookInstance, 0)
	for _, bi := range m.instances {
		if bi.BookID == bookID {
			out = append(out, bi)
		}
	}
	return out, nil
}

func (m *memoryRepo) CreateInstance(_ context.Context, bookID string) (BookInstance, error) {
	if _, ok := m.books[bookID]; !ok {
		return BookInstance{}, ErrNotFound
	}
	m.nextInstID++
	bi := BookInstance{ID: m.nextInstID, BookID: bookID, Status: InstanceInStock}
	m.instances[bi.ID] = bi
	return bi, nil
}

func (m *memoryRepo) UpdateInstance(_ context.Context, id int64, status InstanceStatus, orderItemID *int64) (BookInstance, error) {
	bi, ok := m.instances[id]
	if !ok {
		return BookInstance{}, ErrNotFound
	}
	bi.Status = status
	bi.OrderItemID = orderItemID
	m.instances[id] = bi
	return bi, nil
}

func (m *memoryRepo) DeleteInstance(_ context.Context, id int64) error {
	if _, ok := m.instances[id]; !ok {
		return ErrNotFound
	}
	delete(m.instances, id)
	return nil
}

func (m *memoryRepo) ListOrders(_ context.Context, status *Status) ([]Order, error) {
	out := make([]Order, 0)
	for _, o := range m.orders {
		if status == nil || o.Status == *status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memoryRepo) GetOrder(_ context.Context, id string) (Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (m *memoryRepo) CreateOrder(_ context.Context, o *Order) error {
	if _, ok := m.orders[o.ID]; ok {
		return ErrAlreadyExists
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *memoryRepo) SetOrderStatus(_ context.Context, orderIDs []string, status Status) (int64, error) {
	var n int64
	for _, id := range orderIDs {
		if o, ok := m.orders[id]; ok {
			o.Status = status
			if status == StatusDone && o.ShippedDate == nil {
				now := time.Now()
				o.ShippedDate = &now
			}
			m.orders[id] = o
			n++
		}
	}
	return n, nil
}

func (m *memoryRepo) DeleteOrder(_ context.Context, id string) error {
	if _, ok := m.orders[id]; !ok {
		return ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

func newWarehouseRouter(repo Repository) http.Handler {
	h := NewHTTPHandler(NewService(repo, nil))
	r := chi.NewRouter()
	h.RegisterPublicRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(httpx.AuthMiddleware(testSecret))
		h.RegisterStaffRoutes(r)
	})
	return r
}

func seededRepo(t *testing.T) (*memoryRepo, Book) {
	t.Helper()
	repo := newMemoryRepo()
	a, err := repo.CreateAuthor(context.Background(), "Frank Herbert")
	require.NoError(t, err)
	g, err := repo.CreateGenre(context.Background(), "Science Fiction")
	require.NoError(t, err)

	book := Book{
		Title:   "Dune",
		Summary: "Desert planet politics.",
		Price:   decimal.RequireFromString("19.99"),
		Mark:    4.5,
	}
	require.NoError(t, repo.CreateBook(context.Background(), &book, []int64{a.ID}, []int64{g.ID}))
	return repo, book
}

func TestListBooks_WireShape(t *testing.T) {
	repo, _ := seededRepo(t)
	router := newWarehouseRouter(repo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequest(http.MethodGet, "/books", nil))
	require.Equal(t, http.StatusOK, w.Code)

	// a raw array, not the response envelope
	var payload []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Len(t, payload, 1)

	b := payload[0]
	assert.Equal(t, "Dune", b["title"])
	assert.Equal(t, 4.5, b["mark"])

	authors := b["author"].([]interface{})
	require.Len(t, authors, 1)
	assert.Equal(t, "Frank Herbert", authors[0].(map[string]interface{})["name"])

	genres := b["genre"].([]interface{})
	require.Len(t, genres, 1)
}

func validOrderBody(bookID string) map[string]any {
	return map[string]any{
		"id":            uuid.NewString(),
		"customer_mail": "reader@example.com",
		"customer_name": "Ada Lovelace",
		"order_date":    "2026-08-30",
		"comment":       "leave at the front desk",
		"order_items": []map[string]any{
			{"id": 7, "book": bookID, "quantity": 2},
		},
	}
}

func TestCreateOrder_Accepted(t *testing.T) {
	repo, book := seededRepo(t)
	router := newWarehouseRouter(repo)
	body := validOrderBody(book.ID)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/orders/", body))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	stored := repo.orders[body["id"].(string)]
	assert.Equal(t, StatusWaiting, stored.Status, "new orders always start waiting")
	assert.Equal(t, "Ada Lovelace", stored.CustomerName)
	assert.Equal(t, "leave at the front desk", stored.Comment)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 2, stored.Items[0].Quantity)
}

func TestCreateOrder_ResubmissionConverges(t *testing.T) {
	repo, book := seededRepo(t)
	router := newWarehouseRouter(repo)
	body := validOrderBody(book.ID)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/orders/", body))
	require.Equal(t, http.StatusCreated, w.Code)

	// the store retrying a lost response must get the stored order back,
	// not an error that wedges its cart
	w = httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/orders/", body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var echoed Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &echoed))
	assert.Equal(t, body["id"].(string), echoed.ID)
	assert.Equal(t, StatusWaiting, echoed.Status)
	assert.Len(t, repo.orders, 1)
}

func TestCreateOrder_ValidationFailure(t *testing.T) {
	repo, book := seededRepo(t)
	router := newWarehouseRouter(repo)

	body := validOrderBody(book.ID)
	body["customer_mail"] = "not-an-email"

	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/orders/", body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStaffRoutes_RequireAuth(t *testing.T) {
	repo, book := seededRepo(t)
	router := newWarehouseRouter(repo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/authors", map[string]any{"name": "New Author"}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequest(http.MethodDelete, "/books/"+book.ID, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStaffCRUD_WithToken(t *testing.T) {
	repo, book := seededRepo(t)
	router := newWarehouseRouter(repo)
	token := testutil.GenerateTestToken(testSecret, testutil.TestAdminUser.ID, user.RoleAdmin)

	// create a physical copy
	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequestWithAuth(http.MethodPost, "/books/"+book.ID+"/instances", nil, token))
	resp := testutil.RecordHTTPResponse(w)
	require.Equal(t, http.StatusCreated, resp.Code)

	data := resp.Body["data"].(map[string]interface{})
	assert.Equal(t, float64(InstanceInStock), data["status"])

	// batch status change
	orderBody := validOrderBody(book.ID)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/orders/", orderBody))
	require.Equal(t, http.StatusCreated, w.Code)

	statusBody := map[string]any{
		"ids":    []string{orderBody["id"].(string)},
		"status": int(StatusDone),
	}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequestWithAuth(http.MethodPost, "/orders/status", statusBody, token))
	resp = testutil.RecordHTTPResponse(w)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, float64(1), resp.Body["data"].(map[string]interface{})["updated"])
}

func TestReadsAreOpen(t *testing.T) {
	repo, book := seededRepo(t)
	router := newWarehouseRouter(repo)

	for _, path := range []string{"/authors", "/genres", "/books/" + book.ID, "/orders"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, testutil.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestCreateBook_MarkOutOfRange(t *testing.T) {
	repo, _ := seededRepo(t)
	router := newWarehouseRouter(repo)
	token := testutil.GenerateTestToken(testSecret, testutil.TestAdminUser.ID, user.RoleAdmin)

	body := map[string]any{
		"title":      "Overrated",
		"price":      "9.99",
		"mark":       9.5,
		"author_ids": []int64{1},
		"genre_ids":  []int64{1},
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequestWithAuth(http.MethodPost, "/books", body, token))
	resp := testutil.RecordHTTPResponse(w)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Body["error"].(map[string]interface{})["code"])
}

func TestSetOrderStatus_DoneStampsShippedDate(t *testing.T) {
	repo, book := seededRepo(t)
	router := newWarehouseRouter(repo)
	token := testutil.GenerateTestToken(testSecret, testutil.TestAdminUser.ID, user.RoleAdmin)

	orderBody := validOrderBody(book.ID)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/orders/", orderBody))
	require.Equal(t, http.StatusCreated, w.Code)

	statusBody := map[string]any{
		"ids":    []string{orderBody["id"].(string)},
		"status": int(StatusDone),
	}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequestWithAuth(http.MethodPost, "/orders/status", statusBody, token))
	require.Equal(t, http.StatusOK, w.Code)

	stored := repo.orders[orderBody["id"].(string)]
	require.NotNil(t, stored.ShippedDate, "reaching done must stamp the shipped date")
}

type memoryUsers struct {
	byEmail map[string]user.User
}

func (m *memoryUsers) Create(_ context.Context, u *user.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return user.ErrAlreadyExists
	}
	u.ID = uuid.NewString()
	m.byEmail[u.Email] = *u
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (user.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (user.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (m *memoryUsers) UpdateProfile(context.Context, string, string, string, string) error {
	return nil
}

// The warehouse mints its own staff tokens: register on this service, then
// hit a mutating route with the returned token.
func TestStaffTokenIssuedByWarehouse(t *testing.T) {
	repo := newMemoryRepo()
	h := NewHTTPHandler(NewService(repo, nil))
	authHandler := auth.NewHTTPHandler(auth.NewService(testSecret, time.Hour, &memoryUsers{byEmail: map[string]user.User{}}))

	r := chi.NewRouter()
	h.RegisterPublicRoutes(r)
	r.Post("/auth/register", authHandler.Register)
	r.Group(func(r chi.Router) {
		r.Use(httpx.AuthMiddleware(testSecret))
		h.RegisterStaffRoutes(r)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/auth/register", map[string]any{
		"username": "staffer",
		"email":    "staff@example.com",
		"password": "Sup3rSecret",
	}))
	resp := testutil.RecordHTTPResponse(w)
	require.Equal(t, http.StatusCreated, resp.Code, w.Body.String())
	token := resp.Body["data"].(map[string]interface{})["access_token"].(string)
	require.NotEmpty(t, token)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, testutil.NewRequestWithAuth(http.MethodPost, "/authors", map[string]any{"name": "Ursula K. Le Guin"}, token))
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}
