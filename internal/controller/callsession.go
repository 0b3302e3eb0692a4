package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/jarviz-io/jarviz-api/internal/auth"
	"github.com/jarviz-io/jarviz-api/internal/query"
	"github.com/jarviz-io/jarviz-api/internal/storage"
)

const sessionSummarySelect = `SELECT call_session.id, call_session.init_at, clients.name, call_session.client_id,
	call_session.status, call_session.client_num, call_session.ans_operator_num
	FROM call_session INNER JOIN clients ON call_session.client_id = clients.id`

// callInfoSelect joins a session with the summed amounts of the calls to its
// operator number and its client number, and with the end of its latest call.
const callInfoSelect = `SELECT call_session.id, call_session.init_at,
	operator_calls.operator_amount, client_calls.client_amount, last_call.call_end,
	call_session.ans_operator_num, call_session.client_num,
	call_session.utm_source, call_session.utm_name, call_session.utm_content,
	call_session.utm_medium, call_session.utm_term, call_session.record_link
FROM call_session
INNER JOIN (
	SELECT call.call_session_id, SUM(call.amount) AS operator_amount
	FROM call INNER JOIN call_session
		ON call.call_session_id = call_session.id AND call.phone_number = call_session.ans_operator_num
	WHERE call_session.id = :id
	GROUP BY call.phone_number, call.call_session_id
) AS operator_calls ON call_session.id = operator_calls.call_session_id
INNER JOIN (
	SELECT call.call_session_id, SUM(call.amount) AS client_amount
	FROM call INNER JOIN call_session
		ON call.call_session_id = call_session.id AND call.phone_number = call_session.client_num
	WHERE call_session.id = :id
	GROUP BY call.phone_number, call.call_session_id
) AS client_calls ON call_session.id = client_calls.call_session_id
INNER JOIN (
	SELECT ranked.call_session_id, ranked.call_end
	FROM (
		SELECT call.call_session_id, call.call_end,
			ROW_NUMBER() OVER (PARTITION BY call.call_session_id ORDER BY call.call_end DESC) AS rownumb
		FROM call
		WHERE call.call_session_id = :id
	) AS ranked
	WHERE ranked.rownumb = 1
) AS last_call ON call_session.id = last_call.call_session_id
WHERE call_session.id = :id`

var sessionCriteria = []query.Criterion{
	{Key: "client", Fragment: "clients.name = :client"},
	{Key: "ans_operator_num", Fragment: "call_session.ans_operator_num = :ans_operator_num"},
	{Key: "client_num", Fragment: "call_session.client_num = :client_num"},
}

// CallSessionFilter selects call sessions. Empty fields are ignored.
// From and To bound init_at and default to 2000-01-01 and today.
type CallSessionFilter struct {
	Client         string
	ClientNum      string
	AnsOperatorNum string
	From           string
	To             string
}

// CallSessionController serves call sessions.
type CallSessionController struct {
	exec storage.Executor
	res  resource
	now  func() time.Time
}

// NewCallSessionController creates a CallSessionController writing payloads shaped by schema.
func NewCallSessionController(exec storage.Executor, schema query.FieldSchema) *CallSessionController {
	return &CallSessionController{
		exec: exec,
		res:  newResource(exec, "call_session", schema),
		now:  time.Now,
	}
}

// ListOwn returns the sessions of the calling client.
func (c *CallSessionController) ListOwn(ctx context.Context) ([]CallSession, error) {
	return run(ctx, opSessionListOwn, func(cred auth.Credential) ([]CallSession, error) {
		return selectRows(ctx, c.exec, opSessionListOwn.Name,
			"SELECT * FROM call_session WHERE client_id = :client_id ORDER BY id",
			map[string]any{"client_id": cred.ClientID}, readCallSession)
	})
}

// ListAll returns every session.
func (c *CallSessionController) ListAll(ctx context.Context) ([]CallSession, error) {
	return run(ctx, opSessionListAll, func(auth.Credential) ([]CallSession, error) {
		return selectRows(ctx, c.exec, opSessionListAll.Name,
			"SELECT * FROM call_session ORDER BY id", nil, readCallSession)
	})
}

// ListByClient returns the sessions of one client.
func (c *CallSessionController) ListByClient(ctx context.Context, clientID int64) ([]CallSessionSummary, error) {
	return run(ctx, opSessionListByClient, func(auth.Credential) ([]CallSessionSummary, error) {
		return selectRows(ctx, c.exec, opSessionListByClient.Name,
			sessionSummarySelect+" WHERE call_session.client_id = :client_id ORDER BY call_session.id",
			map[string]any{"client_id": clientID}, readCallSessionSummary)
	})
}

// ListByWidget returns the sessions started from one widget.
func (c *CallSessionController) ListByWidget(ctx context.Context, widgetID int64) ([]CallSession, error) {
	return run(ctx, opSessionListByWidget, func(auth.Credential) ([]CallSession, error) {
		return selectRows(ctx, c.exec, opSessionListByWidget.Name,
			"SELECT * FROM call_session WHERE widget_id = :widget_id ORDER BY id",
			map[string]any{"widget_id": widgetID}, readCallSession)
	})
}

// Create stores a session and returns its id.
func (c *CallSessionController) Create(ctx context.Context, payload query.Payload) (int64, error) {
	return run(ctx, opSessionCreate, func(auth.Credential) (int64, error) {
		return c.res.create(ctx, opSessionCreate.Name, payload)
	})
}

// Update overwrites session id.
func (c *CallSessionController) Update(ctx context.Context, id int64, payload query.Payload) error {
	_, err := run(ctx, opSessionUpdate, func(auth.Credential) (struct{}, error) {
		return struct{}{}, c.res.update(ctx, opSessionUpdate.Name, id, payload)
	})
	return err
}

// Filter returns the sessions matching f within its init_at range.
func (c *CallSessionController) Filter(ctx context.Context, f CallSessionFilter) ([]CallSessionSummary, error) {
	return run(ctx, opSessionFilter, func(auth.Credential) ([]CallSessionSummary, error) {
		rng := query.ResolveRange("call_session.init_at", f.From, f.To, c.now())
		pred := query.Build(sessionCriteria, query.Filter{
			"client":           f.Client,
			"ans_operator_num": f.AnsOperatorNum,
			"client_num":       f.ClientNum,
		}, &rng)

		return selectRows(ctx, c.exec, opSessionFilter.Name,
			sessionSummarySelect+pred.Clause()+" ORDER BY call_session.id", pred.Params, readCallSessionSummary)
	})
}

// CallInfo returns the call summary of session id.
// It returns storage.ErrNotFound unless the session has calls to both its operator and its client.
func (c *CallSessionController) CallInfo(ctx context.Context, id int64) (*CallInfo, error) {
	return run(ctx, opSessionCallInfo, func(auth.Credential) (*CallInfo, error) {
		info, err := selectOne(ctx, c.exec, opSessionCallInfo.Name, callInfoSelect,
			map[string]any{"id": id}, readCallInfo)
		if err != nil {
			return nil, fmt.Errorf("call info for session %d: %w", id, err)
		}
		return info, nil
	})
}
