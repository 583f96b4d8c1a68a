package adminclient

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wire types decoded from the admin API. They mirror the JSON the server
// writes and carry no server-only fields.

const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
	RoleModerator  = "moderator"
)

const (
	PermManageProducts    = "can_manage_products"
	PermManageOrders      = "can_manage_orders"
	PermManageUsers       = "can_manage_users"
	PermManageCategories  = "can_manage_categories"
	PermManageSubmissions = "can_manage_submissions"
	PermViewAnalytics     = "can_view_analytics"
)

type AdminUser struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Email       string          `json:"email"`
	Role        string          `json:"role"`
	Permissions map[string]bool `json:"permissions"`
	TOTPEnabled bool            `json:"totp_enabled"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// HasPermission reports whether the admin may perform name. Super admins
// hold every permission.
func (a *AdminUser) HasPermission(name string) bool {
	if a.Role == RoleSuperAdmin {
		return true
	}
	return a.Permissions[name]
}

type AdminProfile struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Email       string          `json:"email"`
	Role        string          `json:"role"`
	Permissions map[string]bool `json:"permissions"`
}

type AuthUser struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	EmailConfirmed bool       `json:"email_confirmed"`
	LastSignInAt   *time.Time `json:"last_sign_in_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

type AuthResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Admin     *AdminProfile `json:"admin"`
}

type SessionResponse struct {
	User      *AuthUser `json:"user"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignupRequest creates an auth user. Role and Permissions are honoured
// only when the call carries the service-role key.
type SignupRequest struct {
	Email       string          `json:"email"`
	Password    string          `json:"password"`
	Role        string          `json:"role,omitempty"`
	Permissions map[string]bool `json:"permissions,omitempty"`
}

type SignupResponse struct {
	User  *AuthUser  `json:"user"`
	Admin *AdminUser `json:"admin,omitempty"`
}

type Product struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Price          decimal.Decimal        `json:"price"`
	Category       string                 `json:"category"`
	StockQuantity  int                    `json:"stock_quantity"`
	Status         string                 `json:"status"`
	Images         []string               `json:"images"`
	Specifications map[string]interface{} `json:"specifications"`
	CreatedBy      *string                `json:"created_by,omitempty"`
	SellerID       *string                `json:"seller_id,omitempty"`
	IsApproved     bool                   `json:"is_approved"`
	Version        int                    `json:"version"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

type Order struct {
	ID               string                 `json:"id"`
	OrderNumber      string                 `json:"order_number"`
	CustomerID       *string                `json:"customer_id,omitempty"`
	CustomerName     string                 `json:"customer_name"`
	CustomerEmail    string                 `json:"customer_email"`
	CustomerPhone    string                 `json:"customer_phone"`
	Subtotal         decimal.Decimal        `json:"subtotal"`
	ShippingFee      decimal.Decimal        `json:"shipping_fee"`
	TotalAmount      decimal.Decimal        `json:"total_amount"`
	RefundedAmount   decimal.Decimal        `json:"refunded_amount"`
	Currency         string                 `json:"currency"`
	Status           string                 `json:"status"`
	PaymentStatus    string                 `json:"payment_status"`
	PaymentMethod    string                 `json:"payment_method"`
	PaymentReference string                 `json:"payment_reference,omitempty"`
	ShippingAddress  map[string]interface{} `json:"shipping_address"`
	PickupLocation   string                 `json:"pickup_location,omitempty"`
	TrackingNumber   string                 `json:"tracking_number,omitempty"`
	TrackingURL      string                 `json:"tracking_url,omitempty"`
	Notes            string                 `json:"notes,omitempty"`
	Version          int                    `json:"version"`
	Items            []OrderItem            `json:"items,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

type OrderItem struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	ProductID   *string         `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

type OrderList struct {
	Data       []*Order   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type ItemSubmission struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Condition      string                 `json:"condition"`
	Category       string                 `json:"category"`
	AskingPrice    decimal.Decimal        `json:"asking_price"`
	SellerID       *string                `json:"seller_id,omitempty"`
	SellerName     string                 `json:"seller_name"`
	SellerEmail    string                 `json:"seller_email"`
	SellerPhone    string                 `json:"seller_phone,omitempty"`
	Images         []string               `json:"images"`
	Location       string                 `json:"location"`
	Specifications map[string]interface{} `json:"specifications"`
	Status         string                 `json:"status"`
	AdminNotes     string                 `json:"admin_notes"`
	SubmittedAt    time.Time              `json:"submitted_at"`
	ReviewedAt     *time.Time             `json:"reviewed_at,omitempty"`
	ReviewedBy     *string                `json:"reviewed_by,omitempty"`
	Version        int                    `json:"version"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

type DashboardStats struct {
	TotalProducts      int             `json:"total_products"`
	TotalOrders        int             `json:"total_orders"`
	TotalUsers         int             `json:"total_users"`
	PendingSubmissions int             `json:"pending_submissions"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	LowStockProducts   int             `json:"low_stock_products"`
	OrdersByStatus     map[string]int  `json:"orders_by_status"`
}

// Subscription states of the realtime channel.
const (
	ChannelConnecting = "CONNECTING"
	ChannelSubscribed = "SUBSCRIBED"
	ChannelError      = "CHANNEL_ERROR"
	ChannelClosed     = "CLOSED"
)

const (
	messageChange = "postgres_changes"
	messageStatus = "status"
)

// ChangeEvent is one row change pushed over the realtime websocket.
type ChangeEvent struct {
	Table           string    `json:"table"`
	Type            string    `json:"type"`
	RecordID        string    `json:"record_id"`
	Status          string    `json:"status,omitempty"`
	OldStatus       string    `json:"old_status,omitempty"`
	CommitTimestamp time.Time `json:"commit_timestamp"`
}

type message struct {
	Type      string       `json:"type"`
	Event     *ChangeEvent `json:"event,omitempty"`
	Status    string       `json:"status,omitempty"`
	Timestamp string       `json:"timestamp"`
}

// ChannelInfo is the server's view of the realtime listener.
type ChannelInfo struct {
	Status    string `json:"status"`
	Listening bool   `json:"listening"`
	Clients   int    `json:"clients"`
}
