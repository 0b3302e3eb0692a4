package controller

import "github.com/jarviz-io/jarviz-api/internal/query"

// ClientSchema is the canonical field set of a client record.
func ClientSchema() query.FieldSchema {
	return query.NewSchema(
		query.Field{Name: "active", Default: 1},
		query.Field{Name: "restore_key", Default: "none"},
		query.Field{Name: "password", Default: "none"},
		query.Field{Name: "salt", Default: "none"},
		query.Field{Name: "referer", Default: 0},
		query.Field{Name: "name", Default: "none"},
		query.Field{Name: "email", Default: "none"},
		query.Field{Name: "webpage", Default: "none"},
		query.Field{Name: "phone", Default: "none"},
		query.Field{Name: "src_ref", Default: "none"},
		query.Field{Name: "utm_source", Default: "none"},
		query.Field{Name: "utm_name", Default: "none"},
		query.Field{Name: "utm_medium", Default: "none"},
		query.Field{Name: "utm_term", Default: "none"},
		query.Field{Name: "utm_content", Default: "none"},
		query.Field{Name: "geo_country", Default: "none"},
		query.Field{Name: "geo_city", Default: "none"},
		query.Field{Name: "ip", Default: "none"},
		query.Field{Name: "created_at", Default: ""},
		query.Field{Name: "utm_hash", Default: "none"},
	)
}

// BillingSchema is the canonical field set of a billing record.
func BillingSchema() query.FieldSchema {
	return query.NewSchema(
		query.Field{Name: "created_at", Default: nil},
		query.Field{Name: "description", Default: "none"},
		query.Field{Name: "client_id", Default: 0},
		query.Field{Name: "amount", Default: 0},
		query.Field{Name: "payed_at", Default: nil},
		query.Field{Name: "status", Default: "none"},
	)
}

// CallSessionSchema is the canonical field set of a call session record.
func CallSessionSchema() query.FieldSchema {
	return query.NewSchema(
		query.Field{Name: "client_id", Default: 0},
		query.Field{Name: "widget_id", Default: 0},
		query.Field{Name: "status", Default: 0},
		query.Field{Name: "geo_country", Default: "none"},
		query.Field{Name: "geo_city", Default: "none"},
		query.Field{Name: "ip", Default: "none"},
		query.Field{Name: "page", Default: "none"},
		query.Field{Name: "uri", Default: "none"},
		query.Field{Name: "domain", Default: "none"},
		query.Field{Name: "init_at", Default: nil},
		query.Field{Name: "amount", Default: 0},
		query.Field{Name: "record_link", Default: "none"},
		query.Field{Name: "ans_operator", Default: "none"},
		query.Field{Name: "ans_operator_num", Default: "none"},
		query.Field{Name: "client_num", Default: "none"},
		query.Field{Name: "src_ref", Default: 0},
		query.Field{Name: "utm_source", Default: "none"},
		query.Field{Name: "utm_name", Default: "none"},
		query.Field{Name: "utm_medium", Default: "none"},
		query.Field{Name: "utm_term", Default: "none"},
		query.Field{Name: "utm_content", Default: "none"},
		query.Field{Name: "utm_hash", Default: "none"},
		query.Field{Name: "os", Default: "none"},
		query.Field{Name: "ua", Default: "none"},
		query.Field{Name: "browser", Default: "none"},
		query.Field{Name: "is_mobile", Default: "none"},
		query.Field{Name: "trafic_hash", Default: 0},
	)
}
