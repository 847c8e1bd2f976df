package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/simplebank/simplebank/internal/models"
)

// memoryUserStore is an in-memory UserStorage for tests.
type memoryUserStore struct {
	byEmail map[string]*models.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{byEmail: make(map[string]*models.User)}
}

func (s *memoryUserStore) CreateUser(_ context.Context, user *models.User) error {
	if _, exists := s.byEmail[user.Email]; exists {
		return errors.New("duplicate email")
	}
	s.byEmail[user.Email] = user
	return nil
}

func (s *memoryUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.byEmail[NormalizeEmail(email)], nil
}

func (s *memoryUserStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range s.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()

	t.Run("register and authenticate", func(t *testing.T) {
		a := NewPasswordAuthenticator(newMemoryUserStore())

		user, err := a.Register(ctx, "Alice@Example.com", "Alice", "correct-horse")
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if user.Email != "alice@example.com" {
			t.Errorf("expected normalized email, got %q", user.Email)
		}
		if user.PasswordHash == "correct-horse" || user.PasswordHash == "" {
			t.Error("password must be stored hashed")
		}

		got, err := a.Authenticate(ctx, "alice@example.com", "correct-horse")
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("expected user %s, got %s", user.ID, got.ID)
		}
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		a := NewPasswordAuthenticator(newMemoryUserStore())
		if _, err := a.Register(ctx, "bob@example.com", "Bob", "correct-horse"); err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		_, err := a.Authenticate(ctx, "bob@example.com", "wrong-horse")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown email is rejected the same way", func(t *testing.T) {
		a := NewPasswordAuthenticator(newMemoryUserStore())
		_, err := a.Authenticate(ctx, "nobody@example.com", "whatever1")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("weak password is rejected before hashing", func(t *testing.T) {
		a := NewPasswordAuthenticator(newMemoryUserStore())
		_, err := a.Register(ctx, "carol@example.com", "Carol", "short")
		if !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("expected ErrWeakPassword, got %v", err)
		}
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		a := NewPasswordAuthenticator(newMemoryUserStore())
		if _, err := a.Register(ctx, "dave@example.com", "Dave", "password-one"); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		_, err := a.Register(ctx, "DAVE@example.com", "Dave II", "password-two")
		if !errors.Is(err, ErrEmailExists) {
			t.Fatalf("expected ErrEmailExists, got %v", err)
		}
	})
}

func TestJWTManager(t *testing.T) {
	user := &models.User{ID: "user-123", Email: "alice@example.com"}

	t.Run("generate and validate", func(t *testing.T) {
		m := NewJWTManager("test-secret", time.Hour)
		token, err := m.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		claims, err := m.Validate(token)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if claims.UserID != user.ID || claims.Email != user.Email {
			t.Errorf("unexpected claims: %+v", claims)
		}
		if claims.Subject != user.ID {
			t.Errorf("expected subject %q, got %q", user.ID, claims.Subject)
		}
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		m := NewJWTManager("test-secret", time.Hour)
		token, err := m.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		other := NewJWTManager("different-secret", time.Hour)
		if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		m := NewJWTManager("test-secret", time.Millisecond)
		token, err := m.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		time.Sleep(10 * time.Millisecond)
		if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
		}
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		m := NewJWTManager("test-secret", time.Hour)
		if _, err := m.Validate("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("zero duration falls back to default", func(t *testing.T) {
		m := NewJWTManager("test-secret", 0)
		if m.tokenDuration != DefaultTokenDuration {
			t.Errorf("expected default duration, got %v", m.tokenDuration)
		}
	})
}
