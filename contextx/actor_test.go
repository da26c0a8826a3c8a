package contextx

import (
	"slices"
	"testing"
)

func TestWithActorRoundTrip(t *testing.T) {
	ctx := t.Context()
	a := Actor{
		Subject: "user-1",
		Name:    "Ada",
		Roles:   []string{"editor", "admin"},
	}

	ctx = WithActor(ctx, a)
	got, ok := ActorFromContext(ctx)
	if !ok {
		t.Fatal("expected actor in context")
	}
	if got.Subject != a.Subject {
		t.Fatalf("Subject: got %q, want %q", got.Subject, a.Subject)
	}
	if got.Name != a.Name {
		t.Fatalf("Name: got %q, want %q", got.Name, a.Name)
	}
	if !slices.Equal(got.Roles, a.Roles) {
		t.Fatalf("Roles: got %v, want %v", got.Roles, a.Roles)
	}
}

func TestActorFromContextMissing(t *testing.T) {
	_, ok := ActorFromContext(t.Context())
	if ok {
		t.Fatal("expected no actor in empty context")
	}
}

func TestActorHasRole(t *testing.T) {
	a := Actor{Subject: "user-1", Roles: []string{"editor"}}
	if !a.HasRole("editor") {
		t.Fatal("expected HasRole(editor) to be true")
	}
	if a.HasRole("admin") {
		t.Fatal("expected HasRole(admin) to be false")
	}
}
