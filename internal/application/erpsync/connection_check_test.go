package erpsync

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
)

func TestDiagnose(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  DiagnosticStatus
		message string
	}{
		{"ok", nil, DiagnosticOK, "connection successful"},
		{"auth", erpsync.NewAuthError(401, "Invalid API key"), DiagnosticAuthFailed, "authentication failed: check API key and secret"},
		{"not found", erpsync.NewNotFoundError("Not Found"), DiagnosticNotFound, "ERP instance or record not found"},
		{"timeout", erpsync.NewTimeoutError(context.DeadlineExceeded), DiagnosticTimeout, "no response from server"},
		{"unreachable", erpsync.NewConnectionError(0, "dial tcp: connection refused", nil), DiagnosticFailed, "could not reach server: dial tcp: connection refused"},
		{"bad gateway", erpsync.NewConnectionError(502, "Bad Gateway", nil), DiagnosticFailed, "request failed with status 502: Bad Gateway"},
		{"server error", erpsync.NewValidationError(500, "Internal Server Error"), DiagnosticFailed, "request failed with status 500: Internal Server Error"},
		{"wrapped auth", errors.Join(errors.New("connect"), erpsync.NewAuthError(401, "x")), DiagnosticAuthFailed, "authentication failed: check API key and secret"},
		{"untyped", errors.New("invalid ERP configuration"), DiagnosticFailed, "invalid ERP configuration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := Diagnose(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, message)
		})
	}
}

type fakeOpener struct {
	conn erpsync.Connector
	err  error
}

func (o *fakeOpener) Open(*erpsync.ERPConfig) (erpsync.Connector, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.conn, nil
}

// pingConnector is a connector whose Ping result is fixed
type pingConnector struct {
	*fakeERP
	user string
	err  error
}

func (p *pingConnector) Ping(context.Context) (string, error) {
	return p.user, p.err
}

func TestConnectionChecker_Check(t *testing.T) {
	tenantID := uuid.New()
	configs := newFakeConfigs(testConfig(tenantID))

	t.Run("ok", func(t *testing.T) {
		checker := NewConnectionChecker(configs, &fakeOpener{conn: &pingConnector{fakeERP: newFakeERP(), user: "sync@example.com"}}, nil)

		diag, err := checker.Check(context.Background(), tenantID)
		require.NoError(t, err)
		assert.True(t, diag.OK())
		assert.Equal(t, "sync@example.com", diag.User)
		assert.Zero(t, diag.StatusCode)
		assert.False(t, diag.CheckedAt.IsZero())
		assert.GreaterOrEqual(t, diag.LatencyMS, int64(0))
	})

	t.Run("auth failed", func(t *testing.T) {
		conn := &pingConnector{fakeERP: newFakeERP(), err: erpsync.NewAuthError(401, "Invalid API key")}
		diag, err := NewConnectionChecker(configs, &fakeOpener{conn: conn}, nil).Check(context.Background(), tenantID)
		require.NoError(t, err)
		assert.Equal(t, DiagnosticAuthFailed, diag.Status)
		assert.Equal(t, 401, diag.StatusCode)
		assert.Empty(t, diag.User)
	})

	t.Run("open failure is reported", func(t *testing.T) {
		opener := &fakeOpener{err: erpsync.ErrConfigInvalid}
		diag, err := NewConnectionChecker(configs, opener, nil).Check(context.Background(), tenantID)
		require.NoError(t, err)
		assert.Equal(t, DiagnosticFailed, diag.Status)
		assert.Equal(t, erpsync.ErrConfigInvalid.Error(), diag.Message)
	})

	t.Run("disabled config is still tested", func(t *testing.T) {
		cfg := testConfig(uuid.New())
		cfg.Enabled = false
		conn := &pingConnector{fakeERP: newFakeERP(), user: "admin"}
		diag, err := NewConnectionChecker(newFakeConfigs(cfg), &fakeOpener{conn: conn}, nil).Check(context.Background(), cfg.TenantID)
		require.NoError(t, err)
		assert.True(t, diag.OK())
	})

	t.Run("missing config", func(t *testing.T) {
		_, err := NewConnectionChecker(configs, &fakeOpener{}, nil).Check(context.Background(), uuid.New())
		assert.ErrorIs(t, err, erpsync.ErrConfigNotFound)
	})
}
