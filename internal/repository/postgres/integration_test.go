//go:build integration

package postgres_test

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dankrut/callisto-server/internal/model"
	repo "github.com/dankrut/callisto-server/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "callisto_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/callisto_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func hashOf(value string) []byte {
	h := sha256.Sum256([]byte(value))
	return h[:]
}

func newUser(email string) model.User {
	return model.User{
		ID:           uuid.New(),
		Username:     "u-" + uuid.NewString()[:8],
		Email:        email,
		Phone:        "+100000",
		PasswordHash: []byte("$2a$10$abcdefghijklmnopqrstuv"),
		Roles:        []string{model.RoleUser},
	}
}

func freshToken(userID uuid.UUID, value string) model.RefreshToken {
	now := time.Now()
	return model.RefreshToken{
		UserID:    userID,
		TokenHash: hashOf(value),
		CreatedAt: now,
		ExpiresAt: now.Add(model.RefreshTokenLifetime),
	}
}

func TestUserRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)

	u := newUser("user@example.com")
	saved, err := ur.Create(ctx, u)
	require.NoError(t, err)
	require.Equal(t, u.ID, saved.ID)

	byEmail, err := ur.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	byUsername, err := ur.GetByUsername(ctx, u.Username)
	require.NoError(t, err)
	require.Equal(t, u.ID, byUsername.ID)

	byID, err := ur.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, byID.Email)

	byID.Phone = "+200000"
	require.NoError(t, ur.Update(ctx, byID))
	updated, err := ur.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "+200000", updated.Phone)

	_, err = ur.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestUserRepository_ResetToken(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)

	u := newUser("reset@example.com")
	_, err = ur.Create(ctx, u)
	require.NoError(t, err)

	token := uuid.NewString()
	require.NoError(t, ur.SetResetToken(ctx, u.ID, token, time.Now().Add(time.Hour)))

	got, err := ur.GetByResetToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.ResetTokenExpires)

	require.NoError(t, ur.UpdatePassword(ctx, u.ID, []byte("$2a$10$replacedreplacedreplac")))

	// Updating the password consumes the reset token.
	_, err = ur.GetByResetToken(ctx, token)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestRefreshTokenRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)
	rr := repo.NewRefreshTokenRepository(conn)

	u := newUser("tokens@example.com")
	_, err = ur.Create(ctx, u)
	require.NoError(t, err)

	require.NoError(t, rr.Save(ctx, freshToken(u.ID, "v1")))

	lookup, err := rr.Lookup(ctx, hashOf("v1"))
	require.NoError(t, err)
	require.Equal(t, u.ID, lookup.UserID)
	require.True(t, lookup.Current)

	require.NoError(t, rr.Rotate(ctx, freshToken(u.ID, "v2"), hashOf("v1")))

	// Superseded value keeps resolving to its owner for replay attribution.
	old, err := rr.Lookup(ctx, hashOf("v1"))
	require.NoError(t, err)
	require.Equal(t, u.ID, old.UserID)
	require.False(t, old.Current)

	current, err := rr.Lookup(ctx, hashOf("v2"))
	require.NoError(t, err)
	require.True(t, current.Current)

	// Rotating against the superseded value is a mismatch.
	err = rr.Rotate(ctx, freshToken(u.ID, "v3"), hashOf("v1"))
	require.ErrorIs(t, err, model.ErrRefreshMismatch)

	require.NoError(t, rr.Clear(ctx, u.ID))
	_, err = rr.Lookup(ctx, hashOf("v2"))
	require.ErrorIs(t, err, model.ErrNotFound)

	// Idempotent.
	require.NoError(t, rr.Clear(ctx, u.ID))

	err = rr.Rotate(ctx, freshToken(u.ID, "v4"), hashOf("v2"))
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestRefreshTokenRepository_ConcurrentRotation_SingleWinner(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)
	rr := repo.NewRefreshTokenRepository(conn)

	u := newUser("race@example.com")
	_, err = ur.Create(ctx, u)
	require.NoError(t, err)

	require.NoError(t, rr.Save(ctx, freshToken(u.ID, "v1")))

	const writers = 8
	errs := make([]error, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = rr.Rotate(ctx, freshToken(u.ID, uuid.NewString()), hashOf("v1"))
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			require.ErrorIs(t, err, model.ErrRefreshMismatch)
		}
	}
	require.Equal(t, 1, won)
}
