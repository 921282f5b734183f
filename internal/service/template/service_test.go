package template_test

import (
	"context"
	"sync"
	"testing"

	"github.com/ignite/audience-console/internal/domain"
	"github.com/ignite/audience-console/internal/service/template"
)

// memRepo is an in-memory template repository for unit testing.
type memRepo struct {
	mu        sync.Mutex
	templates map[string]*domain.Template
}

func newMemRepo() *memRepo {
	return &memRepo{templates: make(map[string]*domain.Template)}
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, template.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memRepo) List(_ context.Context) ([]domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Template
	for _, t := range m.templates {
		out = append(out, *t)
	}
	return out, nil
}

func (m *memRepo) Create(_ context.Context, t *domain.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.templates[cp.ID] = &cp
	return nil
}

func (m *memRepo) Update(_ context.Context, t *domain.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[t.ID]; !ok {
		return template.ErrNotFound
	}
	cp := *t
	m.templates[cp.ID] = &cp
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[id]; !ok {
		return template.ErrNotFound
	}
	delete(m.templates, id)
	return nil
}

func TestCreate(t *testing.T) {
	svc := template.NewService(newMemRepo())
	tpl, err := svc.Create(context.Background(), template.CreateInput{
		Name:        "Cashback statement",
		Subject:     "Your monthly cashback summary",
		HTMLContent: "<h1>You earned {{amount}}</h1>",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tpl.ID == "" {
		t.Fatal("expected generated id")
	}
}

func TestCreateValidation(t *testing.T) {
	svc := template.NewService(newMemRepo())

	cases := []template.CreateInput{
		{},
		{Name: "No subject", HTMLContent: "<p>hi</p>"},
		{Name: "No content", Subject: "Hello"},
	}
	for i, input := range cases {
		if _, err := svc.Create(context.Background(), input); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestUpdate(t *testing.T) {
	svc := template.NewService(newMemRepo())
	tpl, _ := svc.Create(context.Background(), template.CreateInput{
		Name: "Welcome", Subject: "Welcome!", TextContent: "Hi there",
	})

	subject := "Welcome to IGNITE"
	got, err := svc.Update(context.Background(), tpl.ID, template.UpdateInput{Subject: &subject})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Subject != "Welcome to IGNITE" {
		t.Fatalf("subject not updated: %q", got.Subject)
	}
	if got.TextContent != "Hi there" {
		t.Fatal("unrelated field changed")
	}
}

func TestGetNotFound(t *testing.T) {
	svc := template.NewService(newMemRepo())
	if _, err := svc.Get(context.Background(), "missing"); err != template.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc := template.NewService(newMemRepo())
	tpl, _ := svc.Create(context.Background(), template.CreateInput{
		Name: "Tmp", Subject: "S", TextContent: "T",
	})

	if err := svc.Delete(context.Background(), tpl.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), tpl.ID); err != template.ErrNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
