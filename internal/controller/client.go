package controller

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jarviz-io/jarviz-api/internal/auth"
	"github.com/jarviz-io/jarviz-api/internal/query"
	"github.com/jarviz-io/jarviz-api/internal/storage"
)

// DefaultCreatedAt replaces an empty created_at on client creation.
const DefaultCreatedAt = "2000-01-01 00:00:00"

// clientOverviewSelect lists clients with their widgets, their latest positive
// payment and their balance.
const clientOverviewSelect = `SELECT clients.id, clients.name, clients.email, clients.phone, clients.webpage,
	clients.created_at, last_payment.amount, last_payment.payed_at, widget.widget_type, widget.title,
	balances.balance
FROM clients
LEFT JOIN widget ON clients.id = widget.client_id
LEFT JOIN (
	SELECT ranked.client_id, ranked.amount, ranked.payed_at
	FROM (
		SELECT billing.client_id, billing.amount, billing.payed_at,
			ROW_NUMBER() OVER (PARTITION BY billing.client_id ORDER BY billing.payed_at DESC NULLS LAST) AS rownumb
		FROM billing
		WHERE billing.amount > 0
	) AS ranked
	WHERE ranked.rownumb = 1
) AS last_payment ON clients.id = last_payment.client_id
LEFT JOIN (
	SELECT billing.client_id, SUM(billing.amount) AS balance
	FROM billing
	GROUP BY billing.client_id
) AS balances ON clients.id = balances.client_id`

var clientSelectCriteria = []query.Criterion{
	{Key: "name", Fragment: "clients.name = :name"},
	{Key: "type", Fragment: "widget.widget_type = :type"},
	{Key: "created_at", Fragment: clientCreatedDate + " = :created_at"},
}

var clientSearchColumns = []string{
	"clients.restore_key", "clients.name", "clients.email", "clients.webpage", "clients.phone",
	"clients.src_ref", "clients.utm_source", "clients.utm_name", "clients.utm_medium",
	"clients.utm_term", "clients.utm_content", "clients.geo_country", "clients.geo_city",
	"clients.ip", "clients.utm_hash",
}

// ClientSelect narrows the admin client listing. Empty fields are ignored.
// CreatedAt matches the date part (YYYY-MM-DD) of the creation time.
// From and To bound that date part and default to 2000-01-01 and today.
// Term is matched as a substring against the client's text fields.
type ClientSelect struct {
	Name      string
	Type      int64
	CreatedAt string
	From      string
	To        string
	Term      string
}

// clientCreatedDate is the date part of clients.created_at, comparable with range bounds.
const clientCreatedDate = "substr(clients.created_at, 1, 10)"

// ClientController serves client records.
type ClientController struct {
	exec storage.Executor
	res  resource
	now  func() time.Time
}

// NewClientController creates a ClientController writing payloads shaped by schema.
func NewClientController(exec storage.Executor, schema query.FieldSchema) *ClientController {
	return &ClientController{
		exec: exec,
		res:  newResource(exec, "clients", schema),
		now:  time.Now,
	}
}

// ListReferred returns the clients referred by the calling client.
func (c *ClientController) ListReferred(ctx context.Context) ([]Client, error) {
	return run(ctx, opClientListReferred, func(cred auth.Credential) ([]Client, error) {
		return c.byReferer(ctx, opClientListReferred.Name, cred.ClientID)
	})
}

// ListByReferer returns the clients referred by referer.
func (c *ClientController) ListByReferer(ctx context.Context, referer int64) ([]Client, error) {
	return run(ctx, opClientListByReferer, func(auth.Credential) ([]Client, error) {
		return c.byReferer(ctx, opClientListByReferer.Name, referer)
	})
}

func (c *ClientController) byReferer(ctx context.Context, op string, referer int64) ([]Client, error) {
	return selectRows(ctx, c.exec, op,
		"SELECT * FROM clients WHERE referer = :referer ORDER BY id",
		map[string]any{"referer": referer}, readClient)
}

// Names returns the distinct client names containing term.
func (c *ClientController) Names(ctx context.Context, term string) ([]string, error) {
	return run(ctx, opClientNames, func(auth.Credential) ([]string, error) {
		pred := query.Search([]string{"name"}, "term", term)
		return selectRows(ctx, c.exec, opClientNames.Name,
			"SELECT DISTINCT name FROM clients"+pred.Clause()+" ORDER BY name", pred.Params,
			func(r *rowReader) string { return r.text("name") })
	})
}

// ListAll returns every client.
func (c *ClientController) ListAll(ctx context.Context) ([]Client, error) {
	return run(ctx, opClientListAll, func(auth.Credential) ([]Client, error) {
		return selectRows(ctx, c.exec, opClientListAll.Name,
			"SELECT * FROM clients ORDER BY id", nil, readClient)
	})
}

// ListByWidget returns the widgets of the calling client.
func (c *ClientController) ListByWidget(ctx context.Context) ([]ClientWidget, error) {
	return run(ctx, opClientListByWidget, func(cred auth.Credential) ([]ClientWidget, error) {
		return selectRows(ctx, c.exec, opClientListByWidget.Name,
			`SELECT clients.id AS client_id, clients.name, clients.email, clients.webpage, clients.phone,
				widget.id AS widget_id, widget.widget_type, widget.title
			FROM clients INNER JOIN widget ON widget.client_id = clients.id
			WHERE widget.client_id = :client_id ORDER BY widget.id`,
			map[string]any{"client_id": cred.ClientID}, readClientWidget)
	})
}

// Get returns client id as a list of zero or one clients.
func (c *ClientController) Get(ctx context.Context, id int64) ([]Client, error) {
	return run(ctx, opClientGet, func(auth.Credential) ([]Client, error) {
		return selectRows(ctx, c.exec, opClientGet.Name,
			"SELECT * FROM clients WHERE id = :id", map[string]any{"id": id}, readClient)
	})
}

// Info returns client id with its number of positive payments and its average
// expenses over 30 days since creation.
func (c *ClientController) Info(ctx context.Context, id int64) (*ClientInfo, error) {
	return run(ctx, opClientInfo, func(auth.Credential) (*ClientInfo, error) {
		op := opClientInfo.Name
		params := map[string]any{"id": id}

		client, err := selectOne(ctx, c.exec, op, "SELECT * FROM clients WHERE id = :id", params, readClient)
		if err != nil {
			return nil, fmt.Errorf("client %d: %w", id, err)
		}

		payments, err := selectOne(ctx, c.exec, op,
			`SELECT COUNT(*) AS number_of_payments FROM billing
			WHERE client_id = :id AND payed_at >= '1970-01-01' AND amount > 0`,
			params, func(r *rowReader) int64 { return r.integer("number_of_payments") })
		if err != nil {
			return nil, err
		}

		expenses, err := selectOne(ctx, c.exec, op,
			`SELECT SUM(ABS(amount)) AS expenses FROM billing
			WHERE client_id = :id AND payed_at >= '1970-01-01' AND amount < 0`,
			params, func(r *rowReader) float64 { return r.number("expenses") })
		if err != nil {
			return nil, err
		}

		return &ClientInfo{
			Client:           *client,
			NumberOfPayments: *payments,
			AverageExpenses:  averageExpenses(*expenses, client.CreatedAt, c.now()),
		}, nil
	})
}

// averageExpenses spreads total over the days since createdAt and scales it to
// 30 days, rounded to 4 decimal places. An unparsable or future createdAt leaves
// total undivided.
func averageExpenses(total float64, createdAt string, now time.Time) float64 {
	if created, ok := parseTimestamp(createdAt); ok {
		days := math.Ceil(now.Sub(created).Hours() / 24)
		if days > 0 {
			total /= days
		}
	}
	return math.Round(total*30*1e4) / 1e4
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range []string{TimestampLayout, query.DateLayout, time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Create stores a client and returns its id. An empty created_at is replaced by DefaultCreatedAt.
func (c *ClientController) Create(ctx context.Context, payload query.Payload) (int64, error) {
	return run(ctx, opClientCreate, func(auth.Credential) (int64, error) {
		params, err := query.Normalize(c.res.schema, payload)
		if err != nil {
			return 0, err
		}
		if s, ok := params["created_at"].(string); ok && s == "" {
			params["created_at"] = DefaultCreatedAt
		}
		return c.res.insert(ctx, opClientCreate.Name, params)
	})
}

// Update overwrites client id.
func (c *ClientController) Update(ctx context.Context, id int64, payload query.Payload) error {
	_, err := run(ctx, opClientUpdate, func(auth.Credential) (struct{}, error) {
		return struct{}{}, c.res.update(ctx, opClientUpdate.Name, id, payload)
	})
	return err
}

// Select returns the admin client listing narrowed by s.
func (c *ClientController) Select(ctx context.Context, s ClientSelect) ([]ClientOverview, error) {
	return run(ctx, opClientSelect, func(auth.Credential) ([]ClientOverview, error) {
		pred := c.selectPredicate(s)
		return selectRows(ctx, c.exec, opClientSelect.Name,
			clientOverviewSelect+pred.Clause()+" ORDER BY clients.id", pred.Params, readClientOverview)
	})
}

// selectPredicate combines the search term with the criteria of s and its creation date range.
func (c *ClientController) selectPredicate(s ClientSelect) query.Predicate {
	rng := query.ResolveRange(clientCreatedDate, s.From, s.To, c.now())
	return query.Search(clientSearchColumns, "term", s.Term).And(query.Build(clientSelectCriteria, query.Filter{
		"name":       s.Name,
		"type":       s.Type,
		"created_at": s.CreatedAt,
	}, &rng))
}

// ByEmail returns the client registered with email.
func (c *ClientController) ByEmail(ctx context.Context, email string) (*Client, error) {
	return run(ctx, opClientByEmail, func(auth.Credential) (*Client, error) {
		return selectOne(ctx, c.exec, opClientByEmail.Name,
			"SELECT * FROM clients WHERE email = :email ORDER BY id", map[string]any{"email": email}, readClient)
	})
}

// ByRestoreKey returns the client holding restore key key.
func (c *ClientController) ByRestoreKey(ctx context.Context, key string) (*Client, error) {
	return run(ctx, opClientByRestoreKey, func(auth.Credential) (*Client, error) {
		return selectOne(ctx, c.exec, opClientByRestoreKey.Name,
			"SELECT * FROM clients WHERE restore_key = :key ORDER BY id", map[string]any{"key": key}, readClient)
	})
}

// Current returns the profile of the calling client.
func (c *ClientController) Current(ctx context.Context) (*CurrentClient, error) {
	return run(ctx, opClientCurrent, func(cred auth.Credential) (*CurrentClient, error) {
		client, err := selectOne(ctx, c.exec, opClientCurrent.Name,
			"SELECT * FROM clients WHERE id = :id", map[string]any{"id": cred.ClientID}, readClient)
		if err != nil {
			return nil, fmt.Errorf("client %d: %w", cred.ClientID, err)
		}
		return &CurrentClient{
			ID:      client.ID,
			Active:  client.Active,
			Name:    client.Name,
			Email:   client.Email,
			Webpage: client.Webpage,
			Phone:   client.Phone,
		}, nil
	})
}

// setCredentials replaces the restore key of client id, and its password hash when password is not empty.
func (c *ClientController) setCredentials(ctx context.Context, op string, id int64, restoreKey, password string) error {
	stmt := "UPDATE clients SET restore_key = :restore_key WHERE id = :id"
	params := map[string]any{"id": id, "restore_key": restoreKey}
	if password != "" {
		stmt = "UPDATE clients SET restore_key = :restore_key, password = :password WHERE id = :id"
		params["password"] = password
	}

	res, err := c.exec.Exec(ctx, stmt, params)
	if err != nil {
		return persistErr(op, err)
	}
	if err := requireAffected(res); err != nil {
		return persistErr(op, err)
	}
	return nil
}
