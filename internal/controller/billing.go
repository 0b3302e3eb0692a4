package controller

import (
	"context"
	"time"

	"github.com/jarviz-io/jarviz-api/internal/auth"
	"github.com/jarviz-io/jarviz-api/internal/query"
	"github.com/jarviz-io/jarviz-api/internal/storage"
)

const billingEntrySelect = `SELECT billing.id AS bil_id, billing.description, billing.client_id, billing.amount,
	billing.created_at AS bil_created_at, billing.status, billing.payed_at, billing.type, clients.name
	FROM billing INNER JOIN clients ON billing.client_id = clients.id`

var billingCriteria = []query.Criterion{
	{Key: "client", Fragment: "clients.name = :client"},
	{Key: "status", Fragment: "billing.status = :status"},
	{Key: "payed_at", Fragment: "billing.payed_at = :payed_at"},
	{Key: "type", Fragment: "billing.type = :type"},
}

// BillingFilter selects billing entries. Empty fields are ignored.
// From and To bound payed_at and default to 2000-01-01 and today.
type BillingFilter struct {
	Client  string
	Status  string
	PayedAt string
	Type    int64
	From    string
	To      string
}

// BillingController serves billing records.
type BillingController struct {
	exec storage.Executor
	res  resource
	now  func() time.Time
}

// NewBillingController creates a BillingController writing payloads shaped by schema.
func NewBillingController(exec storage.Executor, schema query.FieldSchema) *BillingController {
	return &BillingController{
		exec: exec,
		res:  newResource(exec, "billing", schema),
		now:  time.Now,
	}
}

// ListOwn returns the billing records of the calling client.
func (c *BillingController) ListOwn(ctx context.Context) ([]Billing, error) {
	return run(ctx, opBillingListOwn, func(cred auth.Credential) ([]Billing, error) {
		return selectRows(ctx, c.exec, opBillingListOwn.Name,
			"SELECT * FROM billing WHERE client_id = :client_id ORDER BY id",
			map[string]any{"client_id": cred.ClientID}, readBilling)
	})
}

// ListAll returns every billing record.
func (c *BillingController) ListAll(ctx context.Context) ([]Billing, error) {
	return run(ctx, opBillingListAll, func(auth.Credential) ([]Billing, error) {
		return selectRows(ctx, c.exec, opBillingListAll.Name,
			"SELECT * FROM billing ORDER BY id", nil, readBilling)
	})
}

// ListByClient returns the billing records of one client with the client's name.
func (c *BillingController) ListByClient(ctx context.Context, clientID int64) ([]BillingEntry, error) {
	return run(ctx, opBillingListByClient, func(auth.Credential) ([]BillingEntry, error) {
		return selectRows(ctx, c.exec, opBillingListByClient.Name,
			billingEntrySelect+" WHERE billing.client_id = :client_id ORDER BY billing.id",
			map[string]any{"client_id": clientID}, readBillingEntry)
	})
}

// Create stores a billing record and returns its id.
func (c *BillingController) Create(ctx context.Context, payload query.Payload) (int64, error) {
	return run(ctx, opBillingCreate, func(auth.Credential) (int64, error) {
		return c.res.create(ctx, opBillingCreate.Name, payload)
	})
}

// Update overwrites billing record id.
func (c *BillingController) Update(ctx context.Context, id int64, payload query.Payload) error {
	_, err := run(ctx, opBillingUpdate, func(auth.Credential) (struct{}, error) {
		return struct{}{}, c.res.update(ctx, opBillingUpdate.Name, id, payload)
	})
	return err
}

// Filter returns the billing entries matching f within its payed_at range.
func (c *BillingController) Filter(ctx context.Context, f BillingFilter) ([]BillingEntry, error) {
	return run(ctx, opBillingFilter, func(auth.Credential) ([]BillingEntry, error) {
		rng := query.ResolveRange("billing.payed_at", f.From, f.To, c.now())
		pred := query.Build(billingCriteria, query.Filter{
			"client":   f.Client,
			"status":   f.Status,
			"payed_at": f.PayedAt,
			"type":     f.Type,
		}, &rng)

		return selectRows(ctx, c.exec, opBillingFilter.Name,
			billingEntrySelect+pred.Clause()+" ORDER BY billing.id", pred.Params, readBillingEntry)
	})
}
