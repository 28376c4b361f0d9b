package service

import (
	"context"
	"sync"
	"time"

	"github.com/tradegate/invoice-gate/internal/application/port"
	"github.com/tradegate/invoice-gate/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// fakeInvoiceRepo implements port.InvoiceRepository for testing
type fakeInvoiceRepo struct {
	existing        map[string]*entity.Invoice
	amountDateCount int
	similarCount    int
	created         []*entity.Invoice
	err             error
}

func (f *fakeInvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, invoice)
	if invoice.InvoiceID != "" {
		if f.existing == nil {
			f.existing = make(map[string]*entity.Invoice)
		}
		f.existing[invoice.InvoiceID] = invoice
	}
	return nil
}

func (f *fakeInvoiceRepo) GetByInvoiceID(ctx context.Context, invoiceID string) (*entity.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.existing[invoiceID], nil
}

func (f *fakeInvoiceRepo) CountByAmountAndDate(ctx context.Context, amount float64, date time.Time, vendorName string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.amountDateCount, nil
}

func (f *fakeInvoiceRepo) CountRecentSimilar(ctx context.Context, vendorName string, lo, hi float64, since time.Time) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.similarCount, nil
}

func (f *fakeInvoiceRepo) List(ctx context.Context, limit, offset int) ([]*entity.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	if offset >= len(f.created) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.created) {
		end = len(f.created)
	}
	return f.created[offset:end], nil
}

// fakeVendorRepo implements port.VendorScoreRepository for testing.
// Guarded by a mutex: the fraud path reads it outside the per-vendor lock.
type fakeVendorRepo struct {
	mu      sync.Mutex
	vendors map[string]*entity.VendorScore
	saved   []*entity.VendorScore
	err     error
}

func (f *fakeVendorRepo) GetByName(ctx context.Context, vendorName string) (*entity.VendorScore, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.vendors[vendorName]
	if !ok {
		return nil, nil
	}
	copied := *stored
	return &copied, nil
}

func (f *fakeVendorRepo) Save(ctx context.Context, score *entity.VendorScore) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.vendors == nil {
		f.vendors = make(map[string]*entity.VendorScore)
	}
	f.vendors[score.VendorName] = score
	f.saved = append(f.saved, score)
	return nil
}

// fakePriceRepo implements port.PriceHistoryRepository for testing
type fakePriceRepo struct {
	statsByHS   map[string]*entity.PriceStats
	statsByDesc map[string]*entity.PriceStats
	appended    []*entity.PriceHistory
	err         error
}

func (f *fakePriceRepo) Append(ctx context.Context, record *entity.PriceHistory) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, record)
	return nil
}

func (f *fakePriceRepo) StatsByHSCode(ctx context.Context, hsCode string) (*entity.PriceStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.statsByHS[hsCode], nil
}

func (f *fakePriceRepo) StatsByDescription(ctx context.Context, descriptionPrefix string) (*entity.PriceStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.statsByDesc[descriptionPrefix], nil
}

// fakeApprovalRepo implements port.ApprovalRepository with in-memory state
type fakeApprovalRepo struct {
	requests map[int64]*entity.ApprovalRequest
	nextID   int64
	err      error

	// forceStale makes UpdateIfPending report a lost race
	forceStale bool
}

func newFakeApprovalRepo() *fakeApprovalRepo {
	return &fakeApprovalRepo{requests: make(map[int64]*entity.ApprovalRequest), nextID: 1}
}

func (f *fakeApprovalRepo) Create(ctx context.Context, request *entity.ApprovalRequest) error {
	if f.err != nil {
		return f.err
	}
	request.ID = f.nextID
	f.nextID++
	stored := *request
	f.requests[request.ID] = &stored
	return nil
}

func (f *fakeApprovalRepo) GetByID(ctx context.Context, id int64) (*entity.ApprovalRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	stored, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	copied := *stored
	return &copied, nil
}

func (f *fakeApprovalRepo) GetByInvoiceID(ctx context.Context, invoiceID string) (*entity.ApprovalRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, stored := range f.requests {
		if stored.InvoiceID == invoiceID {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeApprovalRepo) UpdateIfPending(ctx context.Context, request *entity.ApprovalRequest) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.forceStale {
		return false, nil
	}
	stored, ok := f.requests[request.ID]
	if !ok || stored.Status != "pending" {
		return false, nil
	}
	copied := *request
	f.requests[request.ID] = &copied
	return true, nil
}

func (f *fakeApprovalRepo) ListPending(ctx context.Context, level int) ([]*entity.ApprovalRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*entity.ApprovalRequest
	for _, stored := range f.requests {
		if stored.Status != "pending" {
			continue
		}
		if level > 0 && stored.Level != level {
			continue
		}
		copied := *stored
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeApprovalRepo) CountByStatus(ctx context.Context, status string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	count := 0
	for _, stored := range f.requests {
		if stored.Status == status {
			count++
		}
	}
	return count, nil
}

func (f *fakeApprovalRepo) CountPendingByLevel(ctx context.Context) (map[int]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	counts := make(map[int]int)
	for _, stored := range f.requests {
		if stored.Status == "pending" {
			counts[stored.Level]++
		}
	}
	return counts, nil
}

func (f *fakeApprovalRepo) MarkNotificationSent(ctx context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	if stored, ok := f.requests[id]; ok {
		stored.NotificationSent = true
	}
	return nil
}

// fakeNotifier implements port.ApprovalNotifier for testing
type fakeNotifier struct {
	sent []port.ApprovalNotification
	err  error
}

func (f *fakeNotifier) Notify(ctx context.Context, n port.ApprovalNotification) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

// fakeTxManager runs the function directly without a real transaction
type fakeTxManager struct {
	calls int
	err   error
}

func (f *fakeTxManager) WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	if f.err != nil {
		return f.err
	}
	f.calls++
	return fn(ctx)
}

var (
	_ port.InvoiceRepository      = (*fakeInvoiceRepo)(nil)
	_ port.VendorScoreRepository  = (*fakeVendorRepo)(nil)
	_ port.PriceHistoryRepository = (*fakePriceRepo)(nil)
	_ port.ApprovalRepository     = (*fakeApprovalRepo)(nil)
	_ port.ApprovalNotifier       = (*fakeNotifier)(nil)
	_ port.TransactionManager     = (*fakeTxManager)(nil)
)
