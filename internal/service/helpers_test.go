package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/internal/mykafka"
	"github.com/Skotchmaster/freshcart/internal/notify"
	"github.com/Skotchmaster/freshcart/internal/repo"
	"github.com/Skotchmaster/freshcart/internal/search"
	"github.com/Skotchmaster/freshcart/pkg/db"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	gdb, err := db.Open(context.Background(), db.Options{Driver: db.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, models.AutoMigrate(gdb))

	return &repo.GormRepo{DB: gdb}
}

// outbox captures OTP deliveries instead of sending them.
type outbox struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (o *outbox) Send(_ context.Context, msg notify.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) last(ch models.Channel, identifier string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.sent) - 1; i >= 0; i-- {
		if o.sent[i].Channel == ch && o.sent[i].Identifier == identifier {
			return o.sent[i].Code
		}
	}
	return ""
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}

type published struct {
	Topic string
	Key   string
	Event mykafka.Event
}

type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, _ := event.(mykafka.Event)
	r.events = append(r.events, published{Topic: topic, Key: key, Event: ev})
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Event.Type)
	}
	return out
}

// wrong returns a six digit code that differs from code.
func wrong(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Now().UTC()} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memIndex struct {
	mu   sync.Mutex
	docs map[uint]models.Product
}

func newMemIndex() *memIndex { return &memIndex{docs: map[uint]models.Product{}} }

func (m *memIndex) Put(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[p.ID] = *p
	return nil
}

func (m *memIndex) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

func (m *memIndex) Search(context.Context, string, int, int) (*search.Results, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := &search.Results{}
	for _, p := range m.docs {
		res.Items = append(res.Items, p)
	}
	res.Total = int64(len(res.Items))
	return res, nil
}

func seedUser(t *testing.T, r *repo.GormRepo, mobile string) *models.User {
	t.Helper()
	u := &models.User{Name: "user " + mobile, Mobile: mobile, PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func seedCategory(t *testing.T, r *repo.GormRepo, slug string) *models.Category {
	t.Helper()
	c := &models.Category{Name: slug, Slug: slug, IsActive: true}
	require.NoError(t, r.CreateCategory(context.Background(), c))
	return c
}

func seedProduct(t *testing.T, r *repo.GormRepo, categoryID uint, sku, price string) *models.Product {
	t.Helper()
	p := &models.Product{
		CategoryID:  categoryID,
		Name:        "product " + sku,
		Slug:        "product-" + sku,
		Description: "description of " + sku,
		Price:       decimal.RequireFromString(price),
		Stock:       10,
		SKU:         sku,
		IsActive:    true,
	}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}
