package controller

// Client is a row of the clients table. Credentials never leave the server.
type Client struct {
	ID             int64  `json:"id"`
	Active         int64  `json:"active"`
	RestoreKey     string `json:"-"`
	Password       string `json:"-"`
	Salt           string `json:"-"`
	Referer        int64  `json:"referer"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Webpage        string `json:"webpage"`
	Phone          string `json:"phone"`
	SrcRef         string `json:"src_ref"`
	UTMSource      string `json:"utm_source"`
	UTMName        string `json:"utm_name"`
	UTMMedium      string `json:"utm_medium"`
	UTMTerm        string `json:"utm_term"`
	UTMContent     string `json:"utm_content"`
	GeoCountry     string `json:"geo_country"`
	GeoCity        string `json:"geo_city"`
	IP             string `json:"ip"`
	CreatedAt      string `json:"created_at"`
	UTMHash        string `json:"utm_hash"`
	InitTokenLevel int64  `json:"init_token_level"`
}

func readClient(r *rowReader) Client {
	return Client{
		ID:             r.integer("id"),
		Active:         r.integer("active"),
		RestoreKey:     r.text("restore_key"),
		Password:       r.text("password"),
		Salt:           r.text("salt"),
		Referer:        r.integer("referer"),
		Name:           r.text("name"),
		Email:          r.text("email"),
		Webpage:        r.text("webpage"),
		Phone:          r.text("phone"),
		SrcRef:         r.text("src_ref"),
		UTMSource:      r.text("utm_source"),
		UTMName:        r.text("utm_name"),
		UTMMedium:      r.text("utm_medium"),
		UTMTerm:        r.text("utm_term"),
		UTMContent:     r.text("utm_content"),
		GeoCountry:     r.text("geo_country"),
		GeoCity:        r.text("geo_city"),
		IP:             r.text("ip"),
		CreatedAt:      r.text("created_at"),
		UTMHash:        r.text("utm_hash"),
		InitTokenLevel: r.integer("init_token_level"),
	}
}

// ClientInfo is a client with payment statistics.
type ClientInfo struct {
	Client
	NumberOfPayments int64   `json:"number_of_payments"`
	AverageExpenses  float64 `json:"average_expenses"`
}

// ClientWidget is a client joined with one of its widgets.
type ClientWidget struct {
	ClientID   int64  `json:"client_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Webpage    string `json:"webpage"`
	Phone      string `json:"phone"`
	WidgetID   int64  `json:"widget_id"`
	WidgetType int64  `json:"widget_type"`
	Title      string `json:"title"`
}

func readClientWidget(r *rowReader) ClientWidget {
	return ClientWidget{
		ClientID:   r.integer("client_id"),
		Name:       r.text("name"),
		Email:      r.text("email"),
		Webpage:    r.text("webpage"),
		Phone:      r.text("phone"),
		WidgetID:   r.integer("widget_id"),
		WidgetType: r.integer("widget_type"),
		Title:      r.text("title"),
	}
}

// ClientOverview is one row of the admin client listing: the client, its widget,
// its latest positive payment and its balance. Joined values are absent when
// there is nothing to join.
type ClientOverview struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Webpage    string   `json:"webpage"`
	CreatedAt  string   `json:"created_at"`
	Amount     *float64 `json:"amount"`
	PayedAt    *string  `json:"payed_at"`
	WidgetType *int64   `json:"widget_type"`
	Title      *string  `json:"title"`
	Balance    *float64 `json:"balance"`
}

func readClientOverview(r *rowReader) ClientOverview {
	return ClientOverview{
		ID:         r.integer("id"),
		Name:       r.text("name"),
		Email:      r.text("email"),
		Phone:      r.text("phone"),
		Webpage:    r.text("webpage"),
		CreatedAt:  r.text("created_at"),
		Amount:     r.optNumber("amount"),
		PayedAt:    r.optText("payed_at"),
		WidgetType: r.optInteger("widget_type"),
		Title:      r.optText("title"),
		Balance:    r.optNumber("balance"),
	}
}

// CurrentClient is the public profile of the calling client.
type CurrentClient struct {
	ID      int64  `json:"id"`
	Active  int64  `json:"active"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Webpage string `json:"webpage"`
	Phone   string `json:"phone"`
}

// Billing is a row of the billing table.
type Billing struct {
	ID          int64   `json:"id"`
	CreatedAt   *string `json:"created_at"`
	Description string  `json:"description"`
	ClientID    int64   `json:"client_id"`
	Amount      float64 `json:"amount"`
	PayedAt     *string `json:"payed_at"`
	Status      string  `json:"status"`
	Type        int64   `json:"type"`
}

func readBilling(r *rowReader) Billing {
	return Billing{
		ID:          r.integer("id"),
		CreatedAt:   r.optText("created_at"),
		Description: r.text("description"),
		ClientID:    r.integer("client_id"),
		Amount:      r.number("amount"),
		PayedAt:     r.optText("payed_at"),
		Status:      r.text("status"),
		Type:        r.integer("type"),
	}
}

// BillingEntry is a billing row with the name of its client.
type BillingEntry struct {
	Billing
	ClientName string `json:"client_name"`
}

func readBillingEntry(r *rowReader) BillingEntry {
	return BillingEntry{
		Billing: Billing{
			ID:          r.integer("bil_id"),
			CreatedAt:   r.optText("bil_created_at"),
			Description: r.text("description"),
			ClientID:    r.integer("client_id"),
			Amount:      r.number("amount"),
			PayedAt:     r.optText("payed_at"),
			Status:      r.text("status"),
			Type:        r.integer("type"),
		},
		ClientName: r.text("name"),
	}
}

// CallSession is a row of the call_session table.
type CallSession struct {
	ID             int64   `json:"id"`
	ClientID       int64   `json:"client_id"`
	WidgetID       int64   `json:"widget_id"`
	Status         int64   `json:"status"`
	GeoCountry     string  `json:"geo_country"`
	GeoCity        string  `json:"geo_city"`
	IP             string  `json:"ip"`
	Page           string  `json:"page"`
	URI            string  `json:"uri"`
	Domain         string  `json:"domain"`
	InitAt         *string `json:"init_at"`
	Amount         float64 `json:"amount"`
	RecordLink     string  `json:"record_link"`
	AnsOperator    string  `json:"ans_operator"`
	AnsOperatorNum string  `json:"ans_operator_num"`
	ClientNum      string  `json:"client_num"`
	SrcRef         string  `json:"src_ref"`
	UTMSource      string  `json:"utm_source"`
	UTMName        string  `json:"utm_name"`
	UTMMedium      string  `json:"utm_medium"`
	UTMTerm        string  `json:"utm_term"`
	UTMContent     string  `json:"utm_content"`
	UTMHash        string  `json:"utm_hash"`
	OS             string  `json:"os"`
	UA             string  `json:"ua"`
	Browser        string  `json:"browser"`
	IsMobile       string  `json:"is_mobile"`
	TraficHash     string  `json:"trafic_hash"`
}

func readCallSession(r *rowReader) CallSession {
	return CallSession{
		ID:             r.integer("id"),
		ClientID:       r.integer("client_id"),
		WidgetID:       r.integer("widget_id"),
		Status:         r.integer("status"),
		GeoCountry:     r.text("geo_country"),
		GeoCity:        r.text("geo_city"),
		IP:             r.text("ip"),
		Page:           r.text("page"),
		URI:            r.text("uri"),
		Domain:         r.text("domain"),
		InitAt:         r.optText("init_at"),
		Amount:         r.number("amount"),
		RecordLink:     r.text("record_link"),
		AnsOperator:    r.text("ans_operator"),
		AnsOperatorNum: r.text("ans_operator_num"),
		ClientNum:      r.text("client_num"),
		SrcRef:         r.text("src_ref"),
		UTMSource:      r.text("utm_source"),
		UTMName:        r.text("utm_name"),
		UTMMedium:      r.text("utm_medium"),
		UTMTerm:        r.text("utm_term"),
		UTMContent:     r.text("utm_content"),
		UTMHash:        r.text("utm_hash"),
		OS:             r.text("os"),
		UA:             r.text("ua"),
		Browser:        r.text("browser"),
		IsMobile:       r.text("is_mobile"),
		TraficHash:     r.text("trafic_hash"),
	}
}

// CallSessionSummary is a call session with the name of its client.
type CallSessionSummary struct {
	ID             int64   `json:"id"`
	InitAt         *string `json:"init_at"`
	ClientName     string  `json:"client_name"`
	ClientID       int64   `json:"client_id"`
	Status         int64   `json:"status"`
	ClientNum      string  `json:"client_num"`
	AnsOperatorNum string  `json:"ans_operator_num"`
}

func readCallSessionSummary(r *rowReader) CallSessionSummary {
	return CallSessionSummary{
		ID:             r.integer("id"),
		InitAt:         r.optText("init_at"),
		ClientName:     r.text("name"),
		ClientID:       r.integer("client_id"),
		Status:         r.integer("status"),
		ClientNum:      r.text("client_num"),
		AnsOperatorNum: r.text("ans_operator_num"),
	}
}

// CallInfo summarizes the calls made during one session.
type CallInfo struct {
	ID             int64   `json:"id"`
	InitAt         *string `json:"init_at"`
	OperatorAmount float64 `json:"operator_amount"`
	ClientAmount   float64 `json:"client_amount"`
	CallEnd        *string `json:"call_end"`
	AnsOperatorNum string  `json:"ans_operator_num"`
	ClientNum      string  `json:"client_num"`
	UTMSource      string  `json:"utm_source"`
	UTMName        string  `json:"utm_name"`
	UTMContent     string  `json:"utm_content"`
	UTMMedium      string  `json:"utm_medium"`
	UTMTerm        string  `json:"utm_term"`
	RecordLink     string  `json:"record_link"`
}

func readCallInfo(r *rowReader) CallInfo {
	return CallInfo{
		ID:             r.integer("id"),
		InitAt:         r.optText("init_at"),
		OperatorAmount: r.number("operator_amount"),
		ClientAmount:   r.number("client_amount"),
		CallEnd:        r.optText("call_end"),
		AnsOperatorNum: r.text("ans_operator_num"),
		ClientNum:      r.text("client_num"),
		UTMSource:      r.text("utm_source"),
		UTMName:        r.text("utm_name"),
		UTMContent:     r.text("utm_content"),
		UTMMedium:      r.text("utm_medium"),
		UTMTerm:        r.text("utm_term"),
		RecordLink:     r.text("record_link"),
	}
}
