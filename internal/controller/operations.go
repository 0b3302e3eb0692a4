// Package controller implements the client, billing and call session operations.
// Every operation is declared with the minimum access level it requires and is
// checked against the credential carried by the request context before any
// statement runs.
package controller

import (
	"context"
	"fmt"

	"github.com/jarviz-io/jarviz-api/internal/auth"
	"github.com/jarviz-io/jarviz-api/internal/metrics"
)

// Operation names a controller operation and its minimum access level.
type Operation struct {
	Name  string
	Level auth.Level
}

var (
	opBillingListOwn      = Operation{"billing.list_own", auth.LevelUser}
	opBillingListAll      = Operation{"billing.list_all", auth.LevelAdmin}
	opBillingListByClient = Operation{"billing.list_by_client", auth.LevelUserPartner}
	opBillingCreate       = Operation{"billing.create", auth.LevelUser}
	opBillingUpdate       = Operation{"billing.update", auth.LevelAdmin}
	opBillingFilter       = Operation{"billing.filter", auth.LevelUser}

	opSessionListOwn      = Operation{"call_session.list_own", auth.LevelUser}
	opSessionListAll      = Operation{"call_session.list_all", auth.LevelAdmin}
	opSessionListByClient = Operation{"call_session.list_by_client", auth.LevelUserPartner}
	opSessionListByWidget = Operation{"call_session.list_by_widget", auth.LevelUser}
	opSessionCreate       = Operation{"call_session.create", auth.LevelUser}
	opSessionUpdate       = Operation{"call_session.update", auth.LevelAdmin}
	opSessionFilter       = Operation{"call_session.filter", auth.LevelUser}
	opSessionCallInfo     = Operation{"call_session.call_info", auth.LevelUser}

	opClientListReferred  = Operation{"client.list_referred", auth.LevelUser}
	opClientNames         = Operation{"client.names", auth.LevelUser}
	opClientListAll       = Operation{"client.list_all", auth.LevelAdmin}
	opClientListByReferer = Operation{"client.list_by_referer", auth.LevelUserPartner}
	opClientListByWidget  = Operation{"client.list_by_widget", auth.LevelUser}
	opClientGet           = Operation{"client.get", auth.LevelAdmin}
	opClientInfo          = Operation{"client.info", auth.LevelAdmin}
	opClientCreate        = Operation{"client.create", auth.LevelUser}
	opClientUpdate        = Operation{"client.update", auth.LevelAdmin}
	opClientSelect        = Operation{"client.select", auth.LevelAdmin}
	opClientByEmail       = Operation{"client.by_email", auth.LevelAnonymous}
	opClientByRestoreKey  = Operation{"client.by_restore_key", auth.LevelAnonymous}
	opClientCurrent       = Operation{"client.current", auth.LevelUser}

	opAccountIssueToken = Operation{"account.issue_token", auth.LevelAdmin}
)

// Operations lists every gated operation.
func Operations() []Operation {
	return []Operation{
		opBillingListOwn, opBillingListAll, opBillingListByClient,
		opBillingCreate, opBillingUpdate, opBillingFilter,
		opSessionListOwn, opSessionListAll, opSessionListByClient, opSessionListByWidget,
		opSessionCreate, opSessionUpdate, opSessionFilter, opSessionCallInfo,
		opClientListReferred, opClientNames, opClientListAll, opClientListByReferer,
		opClientListByWidget, opClientGet, opClientInfo, opClientCreate, opClientUpdate,
		opClientSelect, opClientByEmail, opClientByRestoreKey, opClientCurrent,
		opAccountRegister, opAccountForgotPassword, opAccountRestorePassword, opAccountLogin,
		opAccountIssueToken,
	}
}

// Authorize checks the caller's credential against the operation named name.
// It lets transports reject a caller before decoding any input.
func Authorize(ctx context.Context, name string) error {
	for _, op := range Operations() {
		if op.Name == name {
			_, err := authorize(ctx, op)
			return err
		}
	}
	return fmt.Errorf("unknown operation %q", name)
}

func authorize(ctx context.Context, op Operation) (auth.Credential, error) {
	cred := auth.CredentialFromContext(ctx)
	if err := auth.RequireLevel(cred, op.Level); err != nil {
		metrics.RecordAuthDenial("forbidden")
		return cred, fmt.Errorf("%s: %w", op.Name, err)
	}
	return cred, nil
}

// run checks the caller's credential against op and, when it is sufficient, calls fn with it.
func run[T any](ctx context.Context, op Operation, fn func(auth.Credential) (T, error)) (T, error) {
	cred, err := authorize(ctx, op)
	if err != nil {
		var zero T
		return zero, err
	}
	return fn(cred)
}
