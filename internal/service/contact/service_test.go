package contact_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/ignite/audience-console/internal/domain"
	"github.com/ignite/audience-console/internal/service/contact"
)

// memRepo is an in-memory contact repository for unit testing.
type memRepo struct {
	mu       sync.Mutex
	contacts map[string]*domain.Contact // keyed by id
}

func newMemRepo() *memRepo {
	return &memRepo{contacts: make(map[string]*domain.Contact)}
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return nil, contact.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contacts {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, contact.ErrNotFound
}

func (m *memRepo) List(_ context.Context, cursor string, limit int) ([]domain.Contact, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.contacts))
	for id := range m.contacts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := 0
	if cursor != "" {
		start = len(ids)
		for i, id := range ids {
			if id > cursor {
				start = i
				break
			}
		}
	}
	var out []domain.Contact
	next := ""
	for i := start; i < len(ids); i++ {
		if len(out) == limit {
			next = ids[i-1]
			break
		}
		out = append(out, *m.contacts[ids[i]])
	}
	return out, next, nil
}

func (m *memRepo) Create(_ context.Context, c *domain.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.contacts[cp.ID] = &cp
	return nil
}

func (m *memRepo) Update(_ context.Context, c *domain.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contacts[c.ID]; !ok {
		return contact.ErrNotFound
	}
	cp := *c
	m.contacts[cp.ID] = &cp
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contacts[id]; !ok {
		return contact.ErrNotFound
	}
	delete(m.contacts, id)
	return nil
}

func (m *memRepo) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.contacts), nil
}

func TestCreateNormalizesEmail(t *testing.T) {
	svc := contact.NewService(newMemRepo())
	c, err := svc.Create(context.Background(), contact.CreateInput{
		Email:  "  Maria.Lopez@Example.COM ",
		Fields: map[string]any{"first_name": "Maria"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Email != "maria.lopez@example.com" {
		t.Fatalf("expected normalized email, got %q", c.Email)
	}
	if c.Status != domain.ContactActive {
		t.Fatalf("expected active status, got %s", c.Status)
	}
	if c.ID == "" {
		t.Fatal("expected generated id")
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc := contact.NewService(newMemRepo())
	_, err := svc.Create(context.Background(), contact.CreateInput{Email: "dup@example.com"})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	// Same address with different casing must be rejected.
	_, err = svc.Create(context.Background(), contact.CreateInput{Email: "DUP@example.com"})
	if err != contact.ErrDuplicateEmail {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestCreateInvalidEmail(t *testing.T) {
	svc := contact.NewService(newMemRepo())
	for _, email := range []string{"", "nope", "@example.com", "user@", "user@nodot"} {
		if _, err := svc.Create(context.Background(), contact.CreateInput{Email: email}); err != contact.ErrInvalidEmail {
			t.Fatalf("email %q: expected ErrInvalidEmail, got %v", email, err)
		}
	}
}

func TestCreateUnknownStatus(t *testing.T) {
	svc := contact.NewService(newMemRepo())
	_, err := svc.Create(context.Background(), contact.CreateInput{Email: "s@example.com", Status: "sleeping"})
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestUpdateMergesFields(t *testing.T) {
	svc := contact.NewService(newMemRepo())
	c, _ := svc.Create(context.Background(), contact.CreateInput{
		Email: "merge@example.com",
		Fields: map[string]any{
			"first_name": "Ana",
			"cashback_info": map[string]any{
				"enrolled": true,
				"tier":     "bronze",
			},
		},
	})

	status := "unsubscribed"
	got, err := svc.Update(context.Background(), c.ID, contact.UpdateInput{
		Status: &status,
		Fields: map[string]any{
			"last_name": "Silva",
			"cashback_info": map[string]any{
				"tier": "gold",
			},
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if got.Status != domain.ContactUnsubscribed {
		t.Fatalf("expected unsubscribed, got %s", got.Status)
	}
	if got.Fields["first_name"] != "Ana" || got.Fields["last_name"] != "Silva" {
		t.Fatalf("expected merged names, got %v", got.Fields)
	}
	cashback, ok := got.Fields["cashback_info"].(map[string]any)
	if !ok {
		t.Fatalf("expected cashback_info map, got %T", got.Fields["cashback_info"])
	}
	// Nested merge keeps enrolled while replacing tier.
	if cashback["enrolled"] != true || cashback["tier"] != "gold" {
		t.Fatalf("expected nested merge, got %v", cashback)
	}
}

func TestUpdateNullClearsField(t *testing.T) {
	svc := contact.NewService(newMemRepo())
	c, _ := svc.Create(context.Background(), contact.CreateInput{
		Email:  "clear@example.com",
		Fields: map[string]any{"phone": "+15551234567"},
	})

	got, err := svc.Update(context.Background(), c.ID, contact.UpdateInput{
		Fields: map[string]any{"phone": nil},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, ok := got.Fields["phone"]; ok {
		t.Fatal("expected phone to be removed")
	}
}

func TestGetByEmailNormalizes(t *testing.T) {
	svc := contact.NewService(newMemRepo())
	svc.Create(context.Background(), contact.CreateInput{Email: "find@example.com"})

	got, err := svc.GetByEmail(context.Background(), "FIND@Example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.Email != "find@example.com" {
		t.Fatalf("unexpected email %q", got.Email)
	}
}

func TestListPagination(t *testing.T) {
	svc := contact.NewService(newMemRepo())
	for i := 0; i < 5; i++ {
		_, err := svc.Create(context.Background(), contact.CreateInput{
			Email: string(rune('a'+i)) + "@example.com",
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	seen := 0
	cursor := ""
	for pages := 0; pages < 10; pages++ {
		batch, next, err := svc.List(context.Background(), cursor, 2)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		seen += len(batch)
		if next == "" {
			break
		}
		cursor = next
	}
	if seen != 5 {
		t.Fatalf("expected to page through 5 contacts, saw %d", seen)
	}
}

func TestDelete(t *testing.T) {
	svc := contact.NewService(newMemRepo())
	c, _ := svc.Create(context.Background(), contact.CreateInput{Email: "bye@example.com"})

	if err := svc.Delete(context.Background(), c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), c.ID); err != contact.ErrNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
