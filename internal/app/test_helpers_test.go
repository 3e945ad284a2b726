package app

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/example/pantry/internal/models"
	"github.com/example/pantry/internal/ports/secondary"
)

// mockOutboxRepository implements secondary.OutboxRepository in memory.
type mockOutboxRepository struct {
	orders map[string]*models.PendingOrder

	enqueueErr error
	listErr    error
	claimErr   error

	resetCalls int
	clearCalls int
}

var _ secondary.OutboxRepository = (*mockOutboxRepository)(nil)

func newMockOutboxRepository() *mockOutboxRepository {
	return &mockOutboxRepository{orders: make(map[string]*models.PendingOrder)}
}

func (m *mockOutboxRepository) Enqueue(_ context.Context, order *models.PendingOrder) error {
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	cp := *order
	m.orders[order.LocalID] = &cp
	return nil
}

func (m *mockOutboxRepository) GetByLocalID(_ context.Context, localID string) (*models.PendingOrder, error) {
	if o, ok := m.orders[localID]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

func (m *mockOutboxRepository) List(_ context.Context, status string) ([]*models.PendingOrder, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.PendingOrder
	for _, o := range m.orders {
		if status != "" && o.Status != status {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockOutboxRepository) ClaimInFlight(_ context.Context, localID string, at time.Time) (bool, error) {
	if m.claimErr != nil {
		return false, m.claimErr
	}
	o, ok := m.orders[localID]
	if !ok {
		return false, nil
	}
	if o.Status != models.OrderQueued && o.Status != models.OrderFailed {
		return false, nil
	}
	o.Status = models.OrderInFlight
	o.LastAttemptAt = at
	return true, nil
}

func (m *mockOutboxRepository) MarkFailed(_ context.Context, localID string, terminal bool, at time.Time) error {
	if o, ok := m.orders[localID]; ok {
		o.Status = models.OrderFailed
		o.Terminal = terminal
		o.Attempts++
		o.LastAttemptAt = at
	}
	return nil
}

func (m *mockOutboxRepository) MarkSynced(_ context.Context, localID, serverOrderID string) error {
	if o, ok := m.orders[localID]; ok {
		o.Status = models.OrderSynced
		o.ServerOrderID = serverOrderID
		o.Attempts++
	}
	return nil
}

func (m *mockOutboxRepository) Remove(_ context.Context, localID string) error {
	delete(m.orders, localID)
	return nil
}

func (m *mockOutboxRepository) CountByStatus(_ context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, o := range m.orders {
		counts[o.Status]++
	}
	return counts, nil
}

func (m *mockOutboxRepository) ResetStaleInFlight(_ context.Context, cutoff time.Time) (int64, error) {
	m.resetCalls++
	var n int64
	for _, o := range m.orders {
		ref := o.LastAttemptAt
		if ref.IsZero() {
			ref = o.CreatedAt
		}
		if o.Status == models.OrderInFlight && ref.Before(cutoff) {
			o.Status = models.OrderFailed
			n++
		}
	}
	return n, nil
}

func (m *mockOutboxRepository) Clear(_ context.Context) error {
	m.clearCalls++
	m.orders = make(map[string]*models.PendingOrder)
	return nil
}

// mockBackendClient implements secondary.BackendClient with scripted
// responses.
type mockBackendClient struct {
	submitErr   error
	submitCalls int
	receipt     *secondary.OrderReceipt

	pingErr error

	menuCats  []models.Category
	menuItems []models.MenuItem
	fetchErr  error

	pushedLocations []string
	pushErr         error
	deletedRemote   []string
	deleteErr       error
}

var _ secondary.BackendClient = (*mockBackendClient)(nil)

func (m *mockBackendClient) Ping(_ context.Context) error {
	return m.pingErr
}

func (m *mockBackendClient) SubmitOrder(_ context.Context, _ models.OrderPayload) (*secondary.OrderReceipt, error) {
	m.submitCalls++
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	if m.receipt != nil {
		return m.receipt, nil
	}
	return &secondary.OrderReceipt{OrderID: "srv-1", Status: "accepted"}, nil
}

func (m *mockBackendClient) FetchMenu(_ context.Context) ([]models.Category, []models.MenuItem, error) {
	if m.fetchErr != nil {
		return nil, nil, m.fetchErr
	}
	return m.menuCats, m.menuItems, nil
}

func (m *mockBackendClient) PushLocation(_ context.Context, loc *models.SavedLocation) error {
	if m.pushErr != nil {
		return m.pushErr
	}
	m.pushedLocations = append(m.pushedLocations, loc.ID)
	return nil
}

func (m *mockBackendClient) DeleteLocation(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedRemote = append(m.deletedRemote, id)
	return nil
}

// mockMenuRepository implements secondary.MenuRepository in memory.
type mockMenuRepository struct {
	snapshot   *models.MenuSnapshot
	replaceErr error
	getErr     error
	clearCalls int
}

var _ secondary.MenuRepository = (*mockMenuRepository)(nil)

func (m *mockMenuRepository) Has(_ context.Context) (bool, error) {
	return m.snapshot != nil && !m.snapshot.Empty(), nil
}

func (m *mockMenuRepository) Get(_ context.Context) (*models.MenuSnapshot, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.snapshot == nil {
		return &models.MenuSnapshot{}, nil
	}
	return m.snapshot, nil
}

func (m *mockMenuRepository) Replace(_ context.Context, cats []models.Category, items []models.MenuItem, cachedAt time.Time) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.snapshot = &models.MenuSnapshot{Categories: cats, Items: items, CachedAt: cachedAt}
	return nil
}

func (m *mockMenuRepository) Clear(_ context.Context) error {
	m.clearCalls++
	m.snapshot = nil
	return nil
}

// mockLocationRepository implements secondary.LocationRepository in
// memory.
type mockLocationRepository struct {
	locations map[string]*models.SavedLocation

	saveErr    error
	primaryErr error
	clearCalls int
}

var _ secondary.LocationRepository = (*mockLocationRepository)(nil)

func newMockLocationRepository() *mockLocationRepository {
	return &mockLocationRepository{locations: make(map[string]*models.SavedLocation)}
}

func (m *mockLocationRepository) Save(_ context.Context, loc *models.SavedLocation) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *loc
	m.locations[loc.ID] = &cp
	return nil
}

func (m *mockLocationRepository) ListByUser(_ context.Context, userID string) ([]*models.SavedLocation, error) {
	var out []*models.SavedLocation
	for _, l := range m.locations {
		if l.UserID == userID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockLocationRepository) GetLastUsed(_ context.Context, userID string) (*models.SavedLocation, error) {
	var best *models.SavedLocation
	for _, l := range m.locations {
		if l.UserID != userID || l.LastUsedAt.IsZero() {
			continue
		}
		if best == nil || l.LastUsedAt.After(best.LastUsedAt) {
			best = l
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (m *mockLocationRepository) SetPrimary(_ context.Context, id, userID string) error {
	if m.primaryErr != nil {
		return m.primaryErr
	}
	for _, l := range m.locations {
		if l.UserID == userID {
			l.IsPrimary = l.ID == id
		}
	}
	return nil
}

func (m *mockLocationRepository) TouchLastUsed(_ context.Context, id string, at time.Time) error {
	if l, ok := m.locations[id]; ok {
		l.LastUsedAt = at
	}
	return nil
}

func (m *mockLocationRepository) Delete(_ context.Context, id string) error {
	delete(m.locations, id)
	return nil
}

func (m *mockLocationRepository) Clear(_ context.Context) error {
	m.clearCalls++
	m.locations = make(map[string]*models.SavedLocation)
	return nil
}

// mockCacheRepository implements secondary.CacheRepository in memory.
type mockCacheRepository struct {
	partitions map[string]*models.CachePartition
	entries    map[string]*models.CacheEntry

	listErr    error
	deleteErr  error
	clearCalls int

	deletedPartitions []string
}

var _ secondary.CacheRepository = (*mockCacheRepository)(nil)

func newMockCacheRepository() *mockCacheRepository {
	return &mockCacheRepository{
		partitions: make(map[string]*models.CachePartition),
		entries:    make(map[string]*models.CacheEntry),
	}
}

func entryKey(partition, requestKey string) string {
	return partition + "\x00" + requestKey
}

func (m *mockCacheRepository) EnsurePartition(_ context.Context, p *models.CachePartition) error {
	if _, ok := m.partitions[p.Name]; !ok {
		cp := *p
		m.partitions[p.Name] = &cp
	}
	return nil
}

func (m *mockCacheRepository) ListPartitions(_ context.Context, namespace string) ([]*models.CachePartition, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.CachePartition
	for _, p := range m.partitions {
		if namespace != "" && p.Namespace != namespace {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockCacheRepository) DeletePartition(_ context.Context, name string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.partitions, name)
	for k := range m.entries {
		if strings.HasPrefix(k, name+"\x00") {
			delete(m.entries, k)
		}
	}
	m.deletedPartitions = append(m.deletedPartitions, name)
	return nil
}

func (m *mockCacheRepository) Get(_ context.Context, partition, requestKey string) (*models.CacheEntry, error) {
	if e, ok := m.entries[entryKey(partition, requestKey)]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (m *mockCacheRepository) Put(_ context.Context, entry *models.CacheEntry) error {
	k := entryKey(entry.Partition, entry.RequestKey)
	cp := *entry
	if prev, ok := m.entries[k]; ok {
		cp.Generation = prev.Generation + 1
	} else {
		cp.Generation = 1
	}
	m.entries[k] = &cp
	return nil
}

func (m *mockCacheRepository) CompareAndPut(_ context.Context, entry *models.CacheEntry, expected int64) (bool, error) {
	k := entryKey(entry.Partition, entry.RequestKey)
	prev, ok := m.entries[k]
	if expected == 0 {
		if ok {
			return false, nil
		}
		cp := *entry
		cp.Generation = 1
		m.entries[k] = &cp
		return true, nil
	}
	if !ok || prev.Generation != expected {
		return false, nil
	}
	cp := *entry
	cp.Generation = prev.Generation + 1
	m.entries[k] = &cp
	return true, nil
}

func (m *mockCacheRepository) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for k, e := range m.entries {
		if e.StoredAt.Before(cutoff) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

func (m *mockCacheRepository) Clear(_ context.Context) error {
	m.clearCalls++
	m.partitions = make(map[string]*models.CachePartition)
	m.entries = make(map[string]*models.CacheEntry)
	return nil
}

// mockRegistrationRepository implements
// secondary.RegistrationRepository in memory.
type mockRegistrationRepository struct {
	regs map[string]*models.Registration

	getErr     error
	upsertErr  error
	clearCalls int
}

var _ secondary.RegistrationRepository = (*mockRegistrationRepository)(nil)

func newMockRegistrationRepository() *mockRegistrationRepository {
	return &mockRegistrationRepository{regs: make(map[string]*models.Registration)}
}

func (m *mockRegistrationRepository) Get(_ context.Context, scopeName string) (*models.Registration, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if r, ok := m.regs[scopeName]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (m *mockRegistrationRepository) Upsert(_ context.Context, reg *models.Registration) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	cp := *reg
	m.regs[reg.Scope] = &cp
	return nil
}

func (m *mockRegistrationRepository) Delete(_ context.Context, scopeName string) error {
	delete(m.regs, scopeName)
	return nil
}

func (m *mockRegistrationRepository) Clear(_ context.Context) error {
	m.clearCalls++
	m.regs = make(map[string]*models.Registration)
	return nil
}
