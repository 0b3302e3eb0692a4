package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarviz-io/jarviz-api/internal/auth"
	"github.com/jarviz-io/jarviz-api/internal/storage"
)

var testClock = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *storage.SQLExecutor {
	t.Helper()

	exec, err := storage.Open(context.Background(), storage.Config{Driver: "sqlite", URL: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = exec.Close() })
	return exec
}

// seed runs an insert directly against the store and returns the new id.
func seed(t *testing.T, exec storage.Executor, stmt string, params map[string]any) int64 {
	t.Helper()

	res, err := exec.Exec(context.Background(), stmt, params)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func seedClient(t *testing.T, exec storage.Executor, name, email, createdAt string, referer int64) int64 {
	t.Helper()
	return seed(t, exec,
		"INSERT INTO clients (name, email, created_at, referer) VALUES (:name, :email, :created_at, :referer)",
		map[string]any{"name": name, "email": email, "created_at": createdAt, "referer": referer})
}

func seedBilling(t *testing.T, exec storage.Executor, clientID int64, amount float64, payedAt any, status string, typ int64) int64 {
	t.Helper()
	return seed(t, exec,
		`INSERT INTO billing (client_id, amount, payed_at, status, type, description)
		VALUES (:client_id, :amount, :payed_at, :status, :type, 'seed')`,
		map[string]any{"client_id": clientID, "amount": amount, "payed_at": payedAt, "status": status, "type": typ})
}

func as(clientID int64, level auth.Level) context.Context {
	return auth.WithCredential(context.Background(), auth.Credential{ClientID: clientID, Level: level})
}

func asAdmin() context.Context {
	return as(1000, auth.LevelAdmin)
}

func TestOperations(t *testing.T) {
	t.Parallel()

	ops := Operations()
	seen := make(map[string]bool, len(ops))
	for _, op := range ops {
		assert.False(t, seen[op.Name], "duplicate operation %s", op.Name)
		seen[op.Name] = true
		assert.True(t, op.Level.Valid(), "operation %s has invalid level", op.Name)
	}

	levels := map[string]auth.Level{
		"billing.list_all":            auth.LevelAdmin,
		"billing.list_by_client":      auth.LevelUserPartner,
		"billing.filter":              auth.LevelUser,
		"call_session.update":         auth.LevelAdmin,
		"call_session.call_info":      auth.LevelUser,
		"client.select":               auth.LevelAdmin,
		"client.by_email":             auth.LevelAnonymous,
		"client.list_by_referer":      auth.LevelUserPartner,
		"account.register":            auth.LevelAnonymous,
		"account.issue_token":         auth.LevelAdmin,
		"call_session.list_by_widget": auth.LevelUser,
	}
	for _, op := range ops {
		if want, ok := levels[op.Name]; ok {
			assert.Equal(t, want, op.Level, op.Name)
			delete(levels, op.Name)
		}
	}
	assert.Empty(t, levels, "operations missing from Operations()")
}

func TestRun(t *testing.T) {
	t.Parallel()

	op := Operation{Name: "test.partner_only", Level: auth.LevelUserPartner}

	tests := []struct {
		name    string
		ctx     context.Context
		allowed bool
	}{
		{"anonymous", context.Background(), false},
		{"user", as(1, auth.LevelUser), false},
		{"partner", as(2, auth.LevelUserPartner), true},
		{"admin", as(3, auth.LevelAdmin), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			got, err := run(tt.ctx, op, func(cred auth.Credential) (int64, error) {
				called = true
				return cred.ClientID, nil
			})

			if !tt.allowed {
				require.ErrorIs(t, err, auth.ErrForbidden)
				assert.Contains(t, err.Error(), "test.partner_only")
				assert.False(t, called, "fn must not run when denied")
				assert.Zero(t, got)
				return
			}
			require.NoError(t, err)
			assert.True(t, called)
			assert.Equal(t, auth.CredentialFromContext(tt.ctx).ClientID, got)
		})
	}
}

func TestRun_PropagatesError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := run(asAdmin(), opClientGet, func(auth.Credential) (struct{}, error) {
		return struct{}{}, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ctx     context.Context
		op      string
		wantErr error
	}{
		{"anonymous update", context.Background(), "billing.update", auth.ErrForbidden},
		{"user update", as(1, auth.LevelUser), "billing.update", auth.ErrForbidden},
		{"admin update", asAdmin(), "billing.update", nil},
		{"user create", as(1, auth.LevelUser), "client.create", nil},
		{"anonymous lookup", context.Background(), "client.by_email", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Authorize(tt.ctx, tt.op)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), tt.op)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAuthorize_UnknownOperation(t *testing.T) {
	t.Parallel()

	err := Authorize(asAdmin(), "billing.delete")
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrForbidden)
}

func TestDeniedOperationsTouchNothing(t *testing.T) {
	t.Parallel()

	exec := openTestDB(t)
	clients := NewClientController(exec, ClientSchema())
	billing := NewBillingController(exec, BillingSchema())
	sessions := NewCallSessionController(exec, CallSessionSchema())

	user := as(1, auth.LevelUser)
	anon := context.Background()

	checks := map[string]error{}
	_, checks["client.list_all"] = clients.ListAll(user)
	_, checks["client.create"] = clients.Create(anon, nil)
	checks["client.update"] = clients.Update(user, 1, nil)
	_, checks["billing.list_by_client"] = billing.ListByClient(user, 1)
	_, checks["billing.create"] = billing.Create(anon, nil)
	_, checks["call_session.list_all"] = sessions.ListAll(as(1, auth.LevelUserPartner))
	_, checks["call_session.filter"] = sessions.Filter(anon, CallSessionFilter{})

	for name, err := range checks {
		assert.ErrorIs(t, err, auth.ErrForbidden, name)
	}

	// Nothing was written by the denied creates.
	all, err := clients.ListAll(asAdmin())
	require.NoError(t, err)
	assert.Empty(t, all)
}
