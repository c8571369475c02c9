package domain

import "time"

// All monetary amounts are whole rupiah.

type Outlet struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Status  string `json:"status"`
}

type OutletCreateRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type OutletUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
	Status  *string `json:"status,omitempty"`
}

type Product struct {
	ID       string `json:"id"`
	OutletID string `json:"outlet_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    int64  `json:"price"`
	Stock    int    `json:"stock"`
}

type ProductCreateRequest struct {
	OutletID string `json:"outlet_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    int64  `json:"price"`
	Stock    int    `json:"stock"`
}

type ProductUpdateRequest struct {
	Name     *string `json:"name,omitempty"`
	Category *string `json:"category,omitempty"`
	Price    *int64  `json:"price,omitempty"`
	Stock    *int    `json:"stock,omitempty"`
}

type CartItem struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// TransactionItem is a snapshot of the product at sale time. Category may be
// empty on legacy rows; report code falls back to a catalog lookup then.
type TransactionItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Category  string `json:"category,omitempty"`
	Qty       int    `json:"qty"`
	UnitPrice int64  `json:"unit_price"`
}

// Transaction is immutable once created. Timestamp (epoch milliseconds) is
// authoritative for every time comparison; Date is a display string and must
// never be parsed or compared.
type Transaction struct {
	ID              string            `json:"id"`
	OutletID        string            `json:"outlet_id"`
	CashierUsername string            `json:"cashier_username"`
	Items           []TransactionItem `json:"items"`
	PaymentMethod   string            `json:"payment_method"`
	Subtotal        int64             `json:"subtotal"`
	Total           int64             `json:"total"`
	Timestamp       int64             `json:"timestamp"`
	Date            string            `json:"date"`
}

// Time returns the authoritative transaction time.
func (t Transaction) Time() time.Time {
	return time.UnixMilli(t.Timestamp).UTC()
}

type CheckoutRequest struct {
	OutletID      string     `json:"outlet_id"`
	PaymentMethod string     `json:"payment_method"`
	CartItems     []CartItem `json:"cart_items"`
}

type CheckoutResponse struct {
	Transaction Transaction `json:"transaction"`
}

type TransactionListResponse struct {
	Transactions []Transaction `json:"transactions"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	OutletID      string    `json:"outlet_id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

// SalesReportRequest selects what goes into a generated report: an outlet
// scope (ScopeAll or a concrete outlet id) and a rolling period.
type SalesReportRequest struct {
	Scope  string `json:"scope"`
	Period string `json:"period"`
	Format string `json:"format"`
}

type ReportArtifact struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

type ReportDownload struct {
	Token     string `json:"token"`
	FileName  string `json:"file_name"`
	ExpiresAt string `json:"expires_at"`
}

const (
	PaymentCash     = "cash"
	PaymentTransfer = "transfer"
	PaymentEwallet  = "ewallet"
	// PaymentCard predates the ewallet rename and still arrives from old
	// terminals. It is reported as its own bucket, not merged into ewallet,
	// pending a product decision.
	PaymentCard = "card"
)

const (
	OutletStatusActive   = "active"
	OutletStatusInactive = "inactive"
)

const (
	RoleCashier = "cashier"
	RoleAdmin   = "admin"
	RoleOwner   = "owner"
)

const ScopeAll = "all"

// TaxRate is the flat sales tax applied at checkout.
const TaxRate = 0.10
