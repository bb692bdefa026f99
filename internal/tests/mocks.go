package tests

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"chovha/internal/domain"
	"chovha/internal/logging"
	"chovha/internal/redis"
	"chovha/internal/repository"
)

var errInjected = errors.New("injected failure")

func testLogger() logrus.FieldLogger {
	return logging.Discard()
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError     error
	GetByPhoneError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Phone == user.Phone {
			return repository.ErrDuplicate
		}
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	if m.GetByPhoneError != nil {
		return nil, m.GetByPhoneError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Phone == phone {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			copy := *u
			out[id] = &copy
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository. Assign is
// atomic like the conditional update it stands in for.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount int32
	AssignCallCount int32

	// Error injection
	CreateError        error
	ListRequestedError error
	UpdateStatusError  error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) ListRequested(ctx context.Context, limit int) ([]*domain.Ride, error) {
	if m.ListRequestedError != nil {
		return nil, m.ListRequestedError
	}
	return m.list(limit, func(r *domain.Ride) bool {
		return r.Status == domain.RideStatusRequested
	}), nil
}

func (m *MockRideRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Ride, error) {
	return m.list(limit, func(r *domain.Ride) bool {
		return r.PassengerID == userID || r.DriverID == userID
	}), nil
}

func (m *MockRideRepository) list(limit int, keep func(*domain.Ride) bool) []*domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if keep(r) {
			copy := *r
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *MockRideRepository) UpdateStatus(ctx context.Context, id string, status domain.RideStatus, at time.Time) (*domain.Ride, error) {
	if m.UpdateStatusError != nil {
		return nil, m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	ride.Status = status
	switch status {
	case domain.RideStatusRequested:
		ride.DriverID = ""
	case domain.RideStatusInProgress:
		ride.StartedAt = at
	case domain.RideStatusCompleted:
		ride.CompletedAt = at
	}
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) Assign(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	atomic.AddInt32(&m.AssignCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok || ride.Status != domain.RideStatusRequested || ride.DriverID != "" {
		return nil, repository.ErrNotFound
	}
	ride.DriverID = driverID
	ride.Status = domain.RideStatusAccepted
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) HasActiveForDriver(ctx context.Context, driverID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rides {
		if r.DriverID == driverID && r.Status.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

// ──────────────────────────────────────────────
// MOCK DRIVER LOCATION REPOSITORY
// ──────────────────────────────────────────────

// MockDriverLocationRepository is a mock implementation of DriverLocationRepository.
type MockDriverLocationRepository struct {
	mu        sync.RWMutex
	locations map[string]*domain.DriverLocation

	UpsertCallCount int32
	UpsertError     error
}

// NewMockDriverLocationRepository creates a new mock driver location repository.
func NewMockDriverLocationRepository() *MockDriverLocationRepository {
	return &MockDriverLocationRepository{
		locations: make(map[string]*domain.DriverLocation),
	}
}

func (m *MockDriverLocationRepository) Upsert(ctx context.Context, loc *domain.DriverLocation) error {
	atomic.AddInt32(&m.UpsertCallCount, 1)
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *loc
	m.locations[loc.DriverID] = &copy
	return nil
}

func (m *MockDriverLocationRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.DriverLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.locations[driverID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *loc
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments []*domain.DriverPayment

	CreateCallCount int32

	// Captured arguments
	LastLimit  int
	LastOffset int
	LastSince  time.Time
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{}
}

// AddPayment adds a payment to the mock repository.
func (m *MockPaymentRepository) AddPayment(p *domain.DriverPayment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = append(m.payments, p)
}

// Count returns the number of stored payments.
func (m *MockPaymentRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.payments)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.DriverPayment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.RideID == payment.RideID {
			return repository.ErrDuplicate
		}
	}
	copy := *payment
	m.payments = append(m.payments, &copy)
	return nil
}

func (m *MockPaymentRepository) ListByDriver(ctx context.Context, driverID string, limit, offset int) ([]*domain.DriverPayment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastLimit, m.LastOffset = limit, offset

	var mine []*domain.DriverPayment
	for _, p := range m.payments {
		if p.DriverID == driverID {
			mine = append(mine, p)
		}
	}
	total := len(mine)
	if offset >= total {
		return []*domain.DriverPayment{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return mine[offset:end], total, nil
}

func (m *MockPaymentRepository) TotalsSince(ctx context.Context, driverID string, since time.Time) (*repository.PaymentTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastSince = since

	totals := &repository.PaymentTotals{}
	for _, p := range m.payments {
		if p.DriverID != driverID || p.PaymentDate.Before(since) {
			continue
		}
		totals.Rides++
		totals.Earnings += p.Amount
		totals.Commission += p.Amount * p.CommissionRate
	}
	return totals, nil
}

// ──────────────────────────────────────────────
// MOCK NOTIFICATION REPOSITORY
// ──────────────────────────────────────────────

// MockNotificationRepository is a mock implementation of NotificationRepository.
type MockNotificationRepository struct {
	mu            sync.RWMutex
	notifications []*domain.Notification

	CreateError error
}

// NewMockNotificationRepository creates a new mock notification repository.
func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{}
}

// ForUser returns the notifications stored for userID.
func (m *MockNotificationRepository) ForUser(userID string) []*domain.Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			copy := *n
			out = append(out, &copy)
		}
	}
	return out
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *n
	m.notifications = append(m.notifications, &copy)
	return nil
}

func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Notification, error) {
	out := m.ForUser(userID)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return repository.ErrNotFound
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStore.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations []redis.DriverLocation

	// Counters
	UpdateLocationCallCount int32
	RemoveLocationCallCount int32

	// Error injection
	UpdateLocationError    error
	FindNearbyDriversError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make([]redis.DriverLocation, 0),
	}
}

// AddDriverLocation adds a driver location to the mock store.
func (m *MockLocationStore) AddDriverLocation(loc redis.DriverLocation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = append(m.locations, loc)
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	atomic.AddInt32(&m.UpdateLocationCallCount, 1)
	if m.UpdateLocationError != nil {
		return m.UpdateLocationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, loc := range m.locations {
		if loc.DriverID == driverID {
			m.locations[i].Lat = lat
			m.locations[i].Lng = lng
			return nil
		}
	}
	m.locations = append(m.locations, redis.DriverLocation{DriverID: driverID, Lat: lat, Lng: lng})
	return nil
}

// FindNearbyDrivers returns every stored location; the mock does no geo filtering.
func (m *MockLocationStore) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]redis.DriverLocation, error) {
	if m.FindNearbyDriversError != nil {
		return nil, m.FindNearbyDriversError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]redis.DriverLocation, len(m.locations))
	copy(result, m.locations)
	return result, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	atomic.AddInt32(&m.RemoveLocationCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, loc := range m.locations {
		if loc.DriverID == driverID {
			m.locations = append(m.locations[:i], m.locations[i+1:]...)
			return nil
		}
	}
	return nil
}

// HasLocation checks if a driver location exists.
func (m *MockLocationStore) HasLocation(driverID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, loc := range m.locations {
		if loc.DriverID == driverID {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore with SETNX semantics.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]bool)}
}

// Hold marks driverID as locked.
func (m *MockLockStore) Hold(driverID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[driverID] = true
}

// IsHeld reports whether driverID is locked.
func (m *MockLockStore) IsHeld(driverID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks[driverID]
}

func (m *MockLockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[driverID] {
		return false, nil
	}
	m.locks[driverID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseDriverLock(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, driverID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK EMITTER
// ──────────────────────────────────────────────

// Emitted is one event pushed into a room.
type Emitted struct {
	Room  string
	Event string
	Data  any
}

// MockEmitter records every emitted event.
type MockEmitter struct {
	mu      sync.Mutex
	emitted []Emitted
}

// NewMockEmitter creates a new mock emitter.
func NewMockEmitter() *MockEmitter {
	return &MockEmitter{}
}

func (m *MockEmitter) EmitToRoom(room, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitted = append(m.emitted, Emitted{Room: room, Event: event, Data: data})
}

// Find returns the emitted events named event.
func (m *MockEmitter) Find(event string) []Emitted {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Emitted
	for _, e := range m.emitted {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// ──────────────────────────────────────────────
// MOCK PUBLISHER
// ──────────────────────────────────────────────

// MockPublisher records published routing keys.
type MockPublisher struct {
	mu   sync.Mutex
	keys []string

	PublishError error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, routingKey)
	return m.PublishError
}

// Count returns how many times routingKey was published.
func (m *MockPublisher) Count(routingKey string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, k := range m.keys {
		if k == routingKey {
			n++
		}
	}
	return n
}

// ──────────────────────────────────────────────
// MOCK OTP SENDER AND TOKEN ISSUER
// ──────────────────────────────────────────────

// MockSender captures the last code sent to each phone.
type MockSender struct {
	mu    sync.Mutex
	codes map[string]string

	SendError error
}

// NewMockSender creates a new mock sender.
func NewMockSender() *MockSender {
	return &MockSender{codes: make(map[string]string)}
}

func (m *MockSender) Send(ctx context.Context, phone, code string) error {
	if m.SendError != nil {
		return m.SendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[phone] = code
	return nil
}

// LastCode returns the last code sent to phone.
func (m *MockSender) LastCode(phone string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[phone]
}

// MockTokenIssuer issues "token-<user id>".
type MockTokenIssuer struct{}

func (MockTokenIssuer) Issue(user *domain.User) (string, error) {
	return "token-" + user.ID, nil
}
