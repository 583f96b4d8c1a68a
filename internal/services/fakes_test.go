package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"market-admin/internal/models"
	"market-admin/internal/repositories"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

type fakeActivity struct {
	mu   sync.Mutex
	logs []*models.ActivityLog
}

func (f *fakeActivity) Create(_ context.Context, l *models.ActivityLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l.ID = fmt.Sprintf("log-%d", len(f.logs)+1)
	f.logs = append(f.logs, l)
	return nil
}

func (f *fakeActivity) List(_ context.Context, flt models.ActivityFilter) ([]*models.ActivityLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ActivityLog
	for i := len(f.logs) - 1; i >= 0; i-- {
		l := f.logs[i]
		if flt.TableName != "" && l.TableName != flt.TableName {
			continue
		}
		if flt.RecordID != "" && l.RecordID != flt.RecordID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeActivity) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logs)
}

func (f *fakeActivity) last() *models.ActivityLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.logs) == 0 {
		return nil
	}
	return f.logs[len(f.logs)-1]
}

type fakeProducts struct {
	mu       sync.Mutex
	products map[string]*models.Product
	seq      int
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{products: map[string]*models.Product{}}
}

func (f *fakeProducts) List(_ context.Context, flt models.ProductFilter) ([]*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Product
	for _, p := range f.products {
		if flt.Status == "" && p.Status == models.ProductDeleted {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProducts) Get(_ context.Context, id string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) Create(_ context.Context, in *models.ProductInput) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	p := &models.Product{
		ID:            fmt.Sprintf("p-%d", f.seq),
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		Category:      in.Category,
		StockQuantity: in.StockQuantity,
		Status:        models.ProductActive,
		Images:        in.Images,
		CreatedBy:     in.CreatedBy,
		Version:       1,
	}
	f.products[p.ID] = p
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) mutate(id string, expectedVersion *int, fn func(p *models.Product)) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if expectedVersion != nil && *expectedVersion != p.Version {
		return nil, repositories.ErrVersionConflict
	}
	fn(p)
	p.Version++
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) Update(ctx context.Context, id string, patch *models.ProductPatch) (*models.Product, error) {
	if patch.Empty() {
		return f.Get(ctx, id)
	}
	return f.mutate(id, patch.ExpectedVersion, func(p *models.Product) {
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Price != nil {
			p.Price = *patch.Price
		}
		if patch.StockQuantity != nil {
			p.StockQuantity = *patch.StockQuantity
		}
	})
}

func (f *fakeProducts) SoftDelete(_ context.Context, id string, expectedVersion *int) (*models.Product, error) {
	return f.mutate(id, expectedVersion, func(p *models.Product) { p.Status = models.ProductDeleted })
}

func (f *fakeProducts) AppendImage(_ context.Context, id, url string) (*models.Product, error) {
	return f.mutate(id, nil, func(p *models.Product) { p.Images = append(p.Images, url) })
}

func (f *fakeProducts) RemoveImage(_ context.Context, id, url string) (*models.Product, error) {
	return f.mutate(id, nil, func(p *models.Product) {
		var kept []string
		for _, img := range p.Images {
			if img != url {
				kept = append(kept, img)
			}
		}
		p.Images = kept
	})
}

func (f *fakeProducts) LowStock(_ context.Context, threshold int) ([]*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Product
	for _, p := range f.products {
		if p.Status != models.ProductDeleted && p.StockQuantity < threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeOrders struct {
	mu     sync.Mutex
	orders map[string]*models.Order
}

func newFakeOrders(orders ...*models.Order) *fakeOrders {
	f := &fakeOrders{orders: map[string]*models.Order{}}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrders) List(_ context.Context, flt models.OrderFilter) ([]*models.Order, int, error) {
	all, _ := f.ListAll(context.Background(), flt)
	total := len(all)
	start := (flt.Page - 1) * flt.Limit
	if start > total {
		start = total
	}
	end := start + flt.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (f *fakeOrders) ListAll(_ context.Context, flt models.OrderFilter) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Order
	for _, o := range f.orders {
		if flt.Status != "" && o.Status != flt.Status {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOrders) Get(_ context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) GetByNumber(_ context.Context, number string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.OrderNumber == number {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeOrders) Recent(ctx context.Context, limit int) ([]*models.Order, error) {
	all, _ := f.ListAll(ctx, models.OrderFilter{})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeOrders) CountsByStatus(_ context.Context) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[string]int{}
	for _, o := range f.orders {
		counts[o.Status]++
	}
	return counts, nil
}

func (f *fakeOrders) UpdateFields(_ context.Context, id string, fields map[string]interface{}, expectedVersion *int) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if expectedVersion != nil && *expectedVersion != o.Version {
		return nil, repositories.ErrVersionConflict
	}
	for k, v := range fields {
		switch k {
		case "status":
			o.Status = v.(string)
		case "payment_status":
			o.PaymentStatus = v.(string)
		case "notes":
			o.Notes = v.(string)
		case "tracking_number":
			o.TrackingNumber = v.(string)
		case "tracking_url":
			o.TrackingURL = v.(string)
		case "refunded_amount":
			o.RefundedAmount = v.(decimal.Decimal)
		default:
			return nil, fmt.Errorf("unexpected field %s", k)
		}
	}
	o.Version++
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) Stats(_ context.Context, _, _ *time.Time) (*models.OrderStats, error) {
	counts, _ := f.CountsByStatus(context.Background())
	return &models.OrderStats{CountByStatus: counts}, nil
}

type fakeRefunder struct {
	calls  int
	amount decimal.Decimal
	err    error
}

func (f *fakeRefunder) Refund(_ context.Context, paymentID string, amount decimal.Decimal, _ map[string]string) (string, error) {
	f.calls++
	f.amount = amount
	if f.err != nil {
		return "", f.err
	}
	return "rfnd_" + paymentID, nil
}

type fakeSubmissions struct {
	mu   sync.Mutex
	subs map[string]*models.ItemSubmission
}

func (f *fakeSubmissions) List(_ context.Context, flt models.SubmissionFilter) ([]*models.ItemSubmission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ItemSubmission
	for _, s := range f.subs {
		if flt.Status == "" || s.Status == flt.Status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubmissions) Get(_ context.Context, id string) (*models.ItemSubmission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSubmissions) Review(_ context.Context, id string, rv *models.Review) (*models.ItemSubmission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if rv.ExpectedVersion != nil && *rv.ExpectedVersion != s.Version {
		return nil, repositories.ErrVersionConflict
	}
	s.Status = rv.Status
	if rv.AdminNotes != nil {
		s.AdminNotes = *rv.AdminNotes
	}
	if rv.Status == models.SubmissionPending {
		s.ReviewedBy = nil
		s.ReviewedAt = nil
	} else {
		by := rv.ReviewedBy
		now := time.Now()
		s.ReviewedBy = &by
		s.ReviewedAt = &now
	}
	s.Version++
	cp := *s
	return &cp, nil
}

func (f *fakeSubmissions) AppendImage(_ context.Context, id, url string) (*models.ItemSubmission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	s.Images = append(s.Images, url)
	s.Version++
	cp := *s
	return &cp, nil
}

type sentMessage struct{ phone, message string }

type fakeNotifier struct {
	sent []sentMessage
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, phone, message string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{phone, message})
	return nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*models.AuthUser
	seq   int
}

func newFakeUsers() *fakeUsers { return &fakeUsers{users: map[string]*models.AuthUser{}} }

func (f *fakeUsers) Create(_ context.Context, u *models.AuthUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return repositories.ErrDuplicate
		}
	}
	f.seq++
	u.ID = fmt.Sprintf("user-%d", f.seq)
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) Get(_ context.Context, id string) (*models.AuthUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.AuthUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeUsers) TouchLastSignIn(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		now := time.Now()
		u.LastSignInAt = &now
	}
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func newFakeSessions() *fakeSessions { return &fakeSessions{sessions: map[string]*models.Session{}} }

func (f *fakeSessions) Create(_ context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessions) Revoke(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok && s.RevokedAt == nil {
		now := time.Now()
		s.RevokedAt = &now
	}
	return nil
}

type fakeAdmins struct {
	mu        sync.Mutex
	admins    map[string]*models.AdminUser
	seq       int
	createErr error
}

func newFakeAdmins() *fakeAdmins { return &fakeAdmins{admins: map[string]*models.AdminUser{}} }

func (f *fakeAdmins) Create(_ context.Context, a *models.AdminUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if a.Role == "" {
		a.Role = models.RoleAdmin
	}
	if a.Permissions == nil {
		a.Permissions = models.DefaultPermissions()
	}
	f.seq++
	a.ID = fmt.Sprintf("admin-%d", f.seq)
	cp := *a
	f.admins[a.ID] = &cp
	return nil
}

func (f *fakeAdmins) GetByUserID(_ context.Context, userID string) (*models.AdminUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.admins {
		if a.UserID == userID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeAdmins) Get(_ context.Context, id string) (*models.AdminUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.admins[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	perms := map[string]bool{}
	for k, v := range a.Permissions {
		perms[k] = v
	}
	cp.Permissions = perms
	return &cp, nil
}

func (f *fakeAdmins) List(_ context.Context) ([]*models.AdminUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AdminUser
	for _, a := range f.admins {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeAdmins) Update(_ context.Context, a *models.AdminUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.admins[a.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *a
	f.admins[a.ID] = &cp
	return nil
}

func (f *fakeAdmins) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.admins[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.admins, id)
	return nil
}

func (f *fakeAdmins) SetTOTPSecret(_ context.Context, id, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.admins[id].TOTPSecret = secret
	return nil
}

func (f *fakeAdmins) EnableTOTP(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.admins[id].TOTPEnabled = true
	return nil
}

func (f *fakeAdmins) DisableTOTP(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.admins[id].TOTPEnabled = false
	f.admins[id].TOTPSecret = ""
	return nil
}

type fakeStats struct{}

func (fakeStats) CountProducts(context.Context) (int, error)           { return 12, nil }
func (fakeStats) CountOrders(context.Context) (int, error)             { return 7, nil }
func (fakeStats) CountAdmins(context.Context) (int, error)             { return 2, nil }
func (fakeStats) CountPendingSubmissions(context.Context) (int, error) { return 3, nil }
func (fakeStats) CountLowStock(context.Context, int) (int, error)      { return 4, nil }
func (fakeStats) Revenue(context.Context) (decimal.Decimal, error) {
	return decimal.RequireFromString("1520.50"), nil
}
