package controller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarviz-io/jarviz-api/internal/auth"
	"github.com/jarviz-io/jarviz-api/internal/query"
	"github.com/jarviz-io/jarviz-api/internal/storage"
)

type sessionFixture struct {
	exec     storage.Executor
	ctrl     *CallSessionController
	alice    int64
	bob      int64
	sessions []int64
}

func newSessionFixture(t *testing.T) sessionFixture {
	t.Helper()

	exec := openTestDB(t)
	f := sessionFixture{exec: exec, ctrl: NewCallSessionController(exec, CallSessionSchema())}
	f.ctrl.now = func() time.Time { return testClock }

	f.alice = seedClient(t, exec, "alice", "alice@example.com", "2026-01-01 00:00:00", 0)
	f.bob = seedClient(t, exec, "bob", "bob@example.com", "2026-01-02 00:00:00", 0)

	ctx := asAdmin()
	for _, p := range []query.Payload{
		{"client_id": f.alice, "widget_id": 10, "status": 1, "init_at": "2026-06-01 12:00:00",
			"ans_operator_num": "+100", "client_num": "+200", "utm_source": "google", "record_link": "rec/1.mp3"},
		{"client_id": f.bob, "widget_id": 11, "status": 1, "init_at": "2026-07-01 12:00:00",
			"ans_operator_num": "+101", "client_num": "+201"},
	} {
		id, err := f.ctrl.Create(ctx, p)
		require.NoError(t, err)
		f.sessions = append(f.sessions, id)
	}
	return f
}

func seedCall(t *testing.T, exec storage.Executor, sessionID int64, phone string, amount float64, end string) {
	t.Helper()
	seed(t, exec,
		`INSERT INTO call (call_session_id, phone_number, amount, call_end)
		VALUES (:session, :phone, :amount, :end)`,
		map[string]any{"session": sessionID, "phone": phone, "amount": amount, "end": end})
}

func summaryIDs(rows []CallSessionSummary) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestCallSessionController_Create(t *testing.T) {
	t.Parallel()
	f := newSessionFixture(t)

	got, err := f.ctrl.ListAll(asAdmin())
	require.NoError(t, err)
	require.Len(t, got, 2)

	s := got[0]
	assert.Equal(t, f.sessions[0], s.ID)
	assert.Equal(t, f.alice, s.ClientID)
	assert.Equal(t, int64(10), s.WidgetID)
	assert.Equal(t, "google", s.UTMSource)
	assert.Equal(t, "none", s.UTMName)
	assert.Equal(t, "0", s.TraficHash)
	assert.Equal(t, "0", s.SrcRef)
	require.NotNil(t, s.InitAt)
	assert.Equal(t, "2026-06-01 12:00:00", *s.InitAt)

	_, err = f.ctrl.Create(as(f.alice, auth.LevelUser), query.Payload{"referrer": "x"})
	assert.ErrorIs(t, err, query.ErrInvalidParams)
}

func TestCallSessionController_Lists(t *testing.T) {
	t.Parallel()
	f := newSessionFixture(t)

	own, err := f.ctrl.ListOwn(as(f.alice, auth.LevelUser))
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, f.sessions[0], own[0].ID)

	byWidget, err := f.ctrl.ListByWidget(as(f.alice, auth.LevelUser), 11)
	require.NoError(t, err)
	require.Len(t, byWidget, 1)
	assert.Equal(t, f.sessions[1], byWidget[0].ID)

	byClient, err := f.ctrl.ListByClient(as(f.alice, auth.LevelUserPartner), f.bob)
	require.NoError(t, err)
	require.Len(t, byClient, 1)
	assert.Equal(t, "bob", byClient[0].ClientName)
	assert.Equal(t, "+201", byClient[0].ClientNum)
	assert.Equal(t, "+101", byClient[0].AnsOperatorNum)

	_, err = f.ctrl.ListByClient(as(f.alice, auth.LevelUser), f.bob)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	empty, err := f.ctrl.ListByWidget(as(f.alice, auth.LevelUser), 99)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestCallSessionController_Filter(t *testing.T) {
	t.Parallel()
	f := newSessionFixture(t)
	ctx := as(f.alice, auth.LevelUser)

	tests := []struct {
		name   string
		filter CallSessionFilter
		want   []int64
	}{
		{"defaults", CallSessionFilter{}, f.sessions},
		{"by client name", CallSessionFilter{Client: "bob"}, []int64{f.sessions[1]}},
		{"by client number", CallSessionFilter{ClientNum: "+200"}, []int64{f.sessions[0]}},
		{"by operator number", CallSessionFilter{AnsOperatorNum: "+101"}, []int64{f.sessions[1]}},
		{"range", CallSessionFilter{From: "2026-06-15", To: "2026-12-31"}, []int64{f.sessions[1]}},
		{"mismatched criteria", CallSessionFilter{Client: "alice", ClientNum: "+201"}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.ctrl.Filter(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, summaryIDs(got))
		})
	}
}

func TestCallSessionController_Update(t *testing.T) {
	t.Parallel()
	f := newSessionFixture(t)
	ctx := asAdmin()

	require.NoError(t, f.ctrl.Update(ctx, f.sessions[0], query.Payload{"client_id": f.alice, "status": 3}))

	got, err := f.ctrl.ListOwn(as(f.alice, auth.LevelUser))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].Status)
	assert.Equal(t, int64(0), got[0].WidgetID, "omitted fields are reset to their defaults")
	assert.Nil(t, got[0].InitAt)

	assert.ErrorIs(t, f.ctrl.Update(ctx, 9999, query.Payload{}), ErrPersistence)
	assert.ErrorIs(t, f.ctrl.Update(ctx, -1, query.Payload{}), query.ErrInvalidParams)
	assert.ErrorIs(t, f.ctrl.Update(as(f.alice, auth.LevelUser), f.sessions[0], query.Payload{}), auth.ErrForbidden)
}

func TestCallSessionController_CallInfo(t *testing.T) {
	t.Parallel()
	f := newSessionFixture(t)
	ctx := as(f.alice, auth.LevelUser)

	seedCall(t, f.exec, f.sessions[0], "+100", 1.5, "2026-06-01 12:05:00")
	seedCall(t, f.exec, f.sessions[0], "+100", 2.0, "2026-06-01 12:20:00")
	seedCall(t, f.exec, f.sessions[0], "+200", 0.5, "2026-06-01 12:10:00")
	// A call to a third number counts towards neither side.
	seedCall(t, f.exec, f.sessions[0], "+999", 9.0, "2026-06-01 12:01:00")

	info, err := f.ctrl.CallInfo(ctx, f.sessions[0])
	require.NoError(t, err)
	assert.Equal(t, f.sessions[0], info.ID)
	assert.Equal(t, 3.5, info.OperatorAmount)
	assert.Equal(t, 0.5, info.ClientAmount)
	require.NotNil(t, info.CallEnd)
	assert.Equal(t, "2026-06-01 12:20:00", *info.CallEnd)
	assert.Equal(t, "google", info.UTMSource)
	assert.Equal(t, "rec/1.mp3", info.RecordLink)
	assert.Equal(t, "+100", info.AnsOperatorNum)
}

func TestCallSessionController_CallInfo_NotFound(t *testing.T) {
	t.Parallel()
	f := newSessionFixture(t)
	ctx := as(f.alice, auth.LevelUser)

	_, err := f.ctrl.CallInfo(ctx, f.sessions[1])
	assert.ErrorIs(t, err, storage.ErrNotFound, "session without calls")

	// Calls to the operator alone are not enough.
	seedCall(t, f.exec, f.sessions[1], "+101", 1, "2026-07-01 12:03:00")
	_, err = f.ctrl.CallInfo(ctx, f.sessions[1])
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = f.ctrl.CallInfo(ctx, 9999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
