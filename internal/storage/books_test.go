package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/domain"
)

func newBook(title string) domain.CreateBook {
	return domain.CreateBook{
		Title:        title,
		Subject:      "Physics",
		Condition:    "Good",
		ExchangeType: "Sell",
		ContactInfo:  "hostel 3",
	}
}

func TestMemoryBookStoreCRUD(t *testing.T) {
	s := NewMemoryBookStore()
	ctx := context.Background()

	created, err := s.CreateBook(ctx, "owner1", newBook("Concepts of Physics"))
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated ID")
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}

	got, err := s.GetBook(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.Title != "Concepts of Physics" || got.OwnerID != "owner1" {
		t.Fatalf("unexpected book: %+v", got)
	}

	newTitle := "Concepts of Physics (2nd ed)"
	newCond := "Like New"
	updated, err := s.UpdateBook(ctx, created.ID, domain.UpdateBook{Title: &newTitle, Condition: &newCond})
	if err != nil {
		t.Fatalf("UpdateBook: %v", err)
	}
	if updated.Title != newTitle || updated.Condition != newCond {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.Subject != "Physics" {
		t.Fatalf("untouched field changed: %q", updated.Subject)
	}

	if err := s.DeleteBook(ctx, created.ID); err != nil {
		t.Fatalf("DeleteBook: %v", err)
	}
	if _, err := s.GetBook(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryBookStoreNotFound(t *testing.T) {
	s := NewMemoryBookStore()
	ctx := context.Background()

	if _, err := s.GetBook(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetBook: expected ErrNotFound, got %v", err)
	}
	title := "x"
	if _, err := s.UpdateBook(ctx, "missing", domain.UpdateBook{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateBook: expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteBook(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteBook: expected ErrNotFound, got %v", err)
	}
}

func TestMemoryBookStoreListFiltersAndOrder(t *testing.T) {
	s := NewMemoryBookStore()
	ctx := context.Background()

	mk := func(title, subject, owner string) {
		t.Helper()
		in := newBook(title)
		in.Subject = subject
		if _, err := s.CreateBook(ctx, owner, in); err != nil {
			t.Fatalf("CreateBook(%s): %v", title, err)
		}
		time.Sleep(time.Millisecond)
	}

	mk("Calculus", "Mathematics", "alice")
	mk("Optics", "Physics", "bob")
	mk("Linear Algebra", "Mathematics", "alice")

	all, err := s.ListBooks(ctx, BookFilter{})
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d books, want 3", len(all))
	}
	if all[0].Title != "Linear Algebra" || all[2].Title != "Calculus" {
		t.Fatalf("not newest-first: %q .. %q", all[0].Title, all[2].Title)
	}

	math, _ := s.ListBooks(ctx, BookFilter{Subject: "Mathematics"})
	if len(math) != 2 {
		t.Fatalf("subject filter: got %d, want 2", len(math))
	}

	byTitle, _ := s.ListBooks(ctx, BookFilter{Title: "ALGEBRA"})
	if len(byTitle) != 1 || byTitle[0].Title != "Linear Algebra" {
		t.Fatalf("title filter (case-insensitive) returned %v", byTitle)
	}

	byOwner, _ := s.ListBooks(ctx, BookFilter{OwnerID: "bob"})
	if len(byOwner) != 1 || byOwner[0].Title != "Optics" {
		t.Fatalf("owner filter returned %v", byOwner)
	}

	combined, _ := s.ListBooks(ctx, BookFilter{Subject: "Mathematics", OwnerID: "bob"})
	if len(combined) != 0 {
		t.Fatalf("combined filter returned %v", combined)
	}
}
