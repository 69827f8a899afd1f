package store

import (
	"context"
	"fmt"
	"strings"

	"articlehub/pkg/domain"
)

// UserStore persists users keyed by email.
type UserStore struct {
	docs Documents
}

// NewUserStore builds a credential store on top of docs.
func NewUserStore(docs Documents) *UserStore {
	return &UserStore{docs: docs}
}

// GetByEmail looks up a user by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	doc, ok, err := s.docs.Get(ctx, UsersCollection, email)
	if err != nil || !ok {
		return domain.User{}, false, err
	}
	return userFromDocument(email, doc), true, nil
}

// HasEmail checks if a user exists for email.
func (s *UserStore) HasEmail(ctx context.Context, email string) (bool, error) {
	_, ok, err := s.docs.Get(ctx, UsersCollection, email)
	return ok, err
}

// Save writes the full user record, replacing any previous one.
func (s *UserStore) Save(ctx context.Context, u domain.User) error {
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("save user: %w", ErrInvalidKey)
	}
	return s.docs.Set(ctx, UsersCollection, u.Email, userToDocument(u))
}

func userToDocument(u domain.User) Document {
	doc := Document{
		"id":       u.ID,
		"email":    u.Email,
		"password": u.PasswordHash,
	}
	putOptional(doc, "name", u.Name)
	putOptional(doc, "birthDate", u.BirthDate)
	putOptional(doc, "gender", u.Gender)
	return doc
}

func userFromDocument(key string, doc Document) domain.User {
	email := doc["email"]
	if email == "" {
		email = key
	}
	return domain.User{
		ID:           doc["id"],
		Email:        email,
		PasswordHash: doc["password"],
		Name:         optional(doc, "name"),
		BirthDate:    optional(doc, "birthDate"),
		Gender:       optional(doc, "gender"),
	}
}

func putOptional(doc Document, field string, v *string) {
	if v != nil {
		doc[field] = *v
	}
}

func optional(doc Document, field string) *string {
	v, ok := doc[field]
	if !ok {
		return nil
	}
	return &v
}
