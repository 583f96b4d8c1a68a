package adminclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	tableProducts    = "products"
	tableOrders      = "orders"
	tableSubmissions = "item_submissions"
)

// UseCache routes list queries through qc. Writes made through this client
// invalidate the tables they touch.
func (c *Client) UseCache(qc *QueryCache) {
	c.mu.Lock()
	c.cache = qc
	c.mu.Unlock()
}

func (c *Client) queryCache() *QueryCache {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache
}

// cachedGet serves path from the query cache when possible.
func (c *Client) cachedGet(ctx context.Context, path string, out interface{}, tables ...string) error {
	qc := c.queryCache()
	if qc != nil {
		if data, ok := qc.Get(path); ok {
			return json.Unmarshal(data, out)
		}
	}
	data, _, err := c.raw(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode GET %s: %w", path, err)
	}
	if qc != nil {
		qc.Set(path, data, tables...)
	}
	return nil
}

func (c *Client) invalidate(table string) {
	if qc := c.queryCache(); qc != nil {
		qc.InvalidateTable(table)
	}
}

type ProductQuery struct {
	Category string
	Status   string
	Search   string
	Limit    int
	Offset   int
}

// ProductDraft is the create payload.
type ProductDraft struct {
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Price          decimal.Decimal        `json:"price"`
	Category       string                 `json:"category"`
	Stock          int                    `json:"stock"`
	Images         []string               `json:"images,omitempty"`
	Specifications map[string]interface{} `json:"specifications,omitempty"`
}

func (c *Client) ListProducts(ctx context.Context, q ProductQuery) ([]*Product, error) {
	var out []*Product
	path := "/api/products" + query(map[string]string{
		"category": q.Category,
		"status":   q.Status,
		"search":   q.Search,
		"limit":    itoa(q.Limit),
		"offset":   itoa(q.Offset),
	})
	if err := c.cachedGet(ctx, path, &out, tableProducts); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchProducts matches name, description and category case-insensitively.
func (c *Client) SearchProducts(ctx context.Context, q string) ([]*Product, error) {
	var out []*Product
	if err := c.cachedGet(ctx, "/api/products/search"+query(map[string]string{"q": q}), &out, tableProducts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreateProduct(ctx context.Context, draft *ProductDraft) (*Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodPost, "/api/products", draft, &p); err != nil {
		return nil, err
	}
	c.invalidate(tableProducts)
	return &p, nil
}

// UpdateProduct sends a partial update. A non-zero version is sent as an
// If-Match precondition.
func (c *Client) UpdateProduct(ctx context.Context, id string, fields map[string]interface{}, version int) (*Product, error) {
	var p Product
	if err := c.doWithHeaders(ctx, http.MethodPut, "/api/products/"+url.PathEscape(id), fields, &p, ifMatch(version)); err != nil {
		return nil, err
	}
	c.invalidate(tableProducts)
	return &p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(id), nil, nil); err != nil {
		return err
	}
	c.invalidate(tableProducts)
	return nil
}

type OrderQuery struct {
	Status string
	Search string
	Page   int
	Limit  int
}

func (c *Client) ListOrders(ctx context.Context, q OrderQuery) (*OrderList, error) {
	var out OrderList
	path := "/api/orders" + query(map[string]string{
		"status": q.Status,
		"search": q.Search,
		"page":   itoa(q.Page),
		"limit":  itoa(q.Limit),
	})
	if err := c.cachedGet(ctx, path, &out, tableOrders); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id, status, note string, version int) (*Order, error) {
	var o Order
	body := map[string]string{"status": status, "note": note}
	if err := c.doWithHeaders(ctx, http.MethodPatch, "/api/orders/"+url.PathEscape(id)+"/status", body, &o, ifMatch(version)); err != nil {
		return nil, err
	}
	c.invalidate(tableOrders)
	return &o, nil
}

func (c *Client) ListSubmissions(ctx context.Context, status string) ([]*ItemSubmission, error) {
	var out []*ItemSubmission
	if err := c.cachedGet(ctx, "/api/submissions"+query(map[string]string{"status": status}), &out, tableSubmissions); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ApproveSubmission(ctx context.Context, id, notes string) (*ItemSubmission, error) {
	return c.review(ctx, id, "approve", notes)
}

// RejectSubmission requires notes; the server refuses an empty reason.
func (c *Client) RejectSubmission(ctx context.Context, id, notes string) (*ItemSubmission, error) {
	return c.review(ctx, id, "reject", notes)
}

func (c *Client) review(ctx context.Context, id, action, notes string) (*ItemSubmission, error) {
	var sub ItemSubmission
	body := map[string]string{"admin_notes": notes}
	if err := c.do(ctx, http.MethodPost, "/api/submissions/"+url.PathEscape(id)+"/"+action, body, &sub); err != nil {
		return nil, err
	}
	c.invalidate(tableSubmissions)
	return &sub, nil
}

func (c *Client) Dashboard(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	if err := c.cachedGet(ctx, "/api/analytics/dashboard", &stats, tableProducts, tableOrders, tableSubmissions); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) RealtimeStatus(ctx context.Context) (*ChannelInfo, error) {
	var st ChannelInfo
	if err := c.do(ctx, http.MethodGet, "/api/realtime/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func ifMatch(version int) map[string]string {
	if version <= 0 {
		return nil
	}
	return map[string]string{"If-Match": strconv.Quote(strconv.Itoa(version))}
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
