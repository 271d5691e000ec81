package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/molinosur/fulfillment/internal/shared"
)

type mockCatalog struct {
	activeProducts map[int64]bool
	associations   map[[2]int64]bool
	units          map[[2]int64]float64
	factors        map[string]float64
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		activeProducts: map[int64]bool{},
		associations:   map[[2]int64]bool{},
		units:          map[[2]int64]float64{},
		factors:        map[string]float64{},
	}
}

func (m *mockCatalog) IsProductActive(_ context.Context, productID int64) (bool, error) {
	return m.activeProducts[productID], nil
}

func (m *mockCatalog) IsPresentationValidForProduct(_ context.Context, productID, presentationID int64) (bool, error) {
	return m.associations[[2]int64{productID, presentationID}], nil
}

func (m *mockCatalog) UnitsPerPresentation(_ context.Context, productID, presentationID int64) (float64, error) {
	return m.units[[2]int64{productID, presentationID}], nil
}

func (m *mockCatalog) ConversionFactor(_ context.Context, _ int64, _, _ string) (float64, error) {
	return 0, errors.New("not used in this test")
}

type mockRepository struct {
	nextID     int64
	orders     map[int64]*Order
	lines      map[int64][]OrderLine
	keys       map[string]bool
	lineErr    error
	lineErrOn  int
	lineCalls  int
	statusErrs map[int64]error
	// commitErr simulates a commit whose acknowledgement never reached the
	// caller: fn's writes stay applied while WithTx still reports an error.
	commitErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		nextID:     1,
		orders:     map[int64]*Order{},
		lines:      map[int64][]OrderLine{},
		keys:       map[string]bool{},
		statusErrs: map[int64]error{},
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	savedOrders := make(map[int64]*Order, len(m.orders))
	for k, v := range m.orders {
		cp := *v
		savedOrders[k] = &cp
	}
	savedLines := make(map[int64][]OrderLine, len(m.lines))
	for k, v := range m.lines {
		savedLines[k] = append([]OrderLine(nil), v...)
	}
	savedKeys := make(map[string]bool, len(m.keys))
	for k, v := range m.keys {
		savedKeys[k] = v
	}
	if err := fn(ctx, m); err != nil {
		m.orders = savedOrders
		m.lines = savedLines
		m.keys = savedKeys
		return err
	}
	return m.commitErr
}

func (m *mockRepository) ReserveIdempotencyKey(_ context.Context, key string) error {
	if m.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *mockRepository) Create(_ context.Context, o Order) (int64, error) {
	id := m.nextID
	m.nextID++
	o.ID = id
	o.CreatedAt = time.Now()
	m.orders[id] = &o
	return id, nil
}

func (m *mockRepository) InsertLine(_ context.Context, line OrderLine) (int64, error) {
	m.lineCalls++
	if m.lineErr != nil && m.lineCalls >= m.lineErrOn {
		return 0, m.lineErr
	}
	line.ID = m.nextID
	m.nextID++
	m.lines[line.OrderID] = append(m.lines[line.OrderID], line)
	return line.ID, nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	cp.Lines = m.lines[id]
	return &cp, nil
}

func (m *mockRepository) GetDetail(_ context.Context, id int64) (*OrderDetail, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &OrderDetail{Order: *o}, nil
}

func (m *mockRepository) List(_ context.Context, filter ListFilter) ([]Order, error) {
	var out []Order
	for _, o := range m.orders {
		if filter.UserID != nil && !filter.AdminOverride && o.CreatedBy != *filter.UserID {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockRepository) GetStatus(_ context.Context, id int64) (OrderStatus, error) {
	o, ok := m.orders[id]
	if !ok {
		return "", ErrNotFound
	}
	return o.Status, nil
}

func (m *mockRepository) UpdateStatus(_ context.Context, id int64, from, to OrderStatus) error {
	if err := m.statusErrs[id]; err != nil {
		return err
	}
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status != from {
		return ErrTransitionNotAllowed
	}
	o.Status = to
	return nil
}

func newTestService(repo Repository, cat *mockCatalog) *Service {
	return NewService(repo, NewLineValidator(cat), nil, nil)
}

func seedCatalog(cat *mockCatalog) {
	cat.activeProducts[10] = true
	cat.activeProducts[11] = true
	cat.associations[[2]int64{10, 1}] = true
	cat.associations[[2]int64{11, 2}] = true
}

var admin = shared.Actor{ID: 1, Role: shared.RoleAdmin}
var client = shared.Actor{ID: 7, Role: shared.RoleClient}
var courier = shared.Actor{ID: 3, Role: shared.RoleDelivery}

func validCreateRequest() CreateOrderRequest {
	return CreateOrderRequest{
		ClientID:  5,
		OrderDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Lines: []CreateLineRequest{
			{ProductID: 10, PresentationID: 1, Quantity: 3},
			{ProductID: 11, PresentationID: 2, Quantity: 1.5},
		},
	}
}

func TestCreateOrderPersistsHeaderAndLines(t *testing.T) {
	repo := newMockRepository()
	cat := newMockCatalog()
	seedCatalog(cat)
	svc := newTestService(repo, cat)

	resp, err := svc.Create(context.Background(), validCreateRequest(), client, "")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.PublicID)

	stored, err := repo.Get(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, StatusRequested, stored.Status)
	assert.Equal(t, client.ID, stored.CreatedBy)
	assert.Len(t, stored.Lines, 2)
	assert.Equal(t, 1.5, stored.Lines[1].Quantity)
}

func TestCreateOrderRejectsEmptyLines(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, newMockCatalog())

	req := validCreateRequest()
	req.Lines = nil
	_, err := svc.Create(context.Background(), req, client, "")
	assert.ErrorIs(t, err, ErrEmptyLines)
	assert.Empty(t, repo.orders)
}

func TestCreateOrderRejectsZeroDate(t *testing.T) {
	repo := newMockRepository()
	cat := newMockCatalog()
	seedCatalog(cat)
	svc := newTestService(repo, cat)

	req := validCreateRequest()
	req.OrderDate = time.Time{}
	_, err := svc.Create(context.Background(), req, client, "")
	assert.ErrorIs(t, err, ErrInvalidOrderDate)
}

func TestCreateOrderRejectsInactiveProduct(t *testing.T) {
	repo := newMockRepository()
	cat := newMockCatalog()
	seedCatalog(cat)
	cat.activeProducts[11] = false
	svc := newTestService(repo, cat)

	_, err := svc.Create(context.Background(), validCreateRequest(), client, "")
	assert.ErrorIs(t, err, ErrProductInactive)
	assert.Empty(t, repo.orders, "nothing may persist when any line is invalid")
	assert.Empty(t, repo.lines)
}

func TestCreateOrderRejectsUnassociatedPresentation(t *testing.T) {
	repo := newMockRepository()
	cat := newMockCatalog()
	seedCatalog(cat)
	delete(cat.associations, [2]int64{11, 2})
	svc := newTestService(repo, cat)

	_, err := svc.Create(context.Background(), validCreateRequest(), client, "")
	assert.ErrorIs(t, err, ErrBadPresentation)
	assert.Empty(t, repo.orders)
}

func TestCreateOrderRejectsNonPositiveQuantity(t *testing.T) {
	repo := newMockRepository()
	cat := newMockCatalog()
	seedCatalog(cat)
	svc := newTestService(repo, cat)

	req := validCreateRequest()
	req.Lines[0].Quantity = 0
	_, err := svc.Create(context.Background(), req, client, "")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	req.Lines[0].Quantity = -2
	_, err = svc.Create(context.Background(), req, client, "")
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Empty(t, repo.orders)
}

func TestCreateOrderRejectsDuplicateLines(t *testing.T) {
	repo := newMockRepository()
	cat := newMockCatalog()
	seedCatalog(cat)
	svc := newTestService(repo, cat)

	req := validCreateRequest()
	req.Lines = append(req.Lines, CreateLineRequest{ProductID: 10, PresentationID: 1, Quantity: 2})
	_, err := svc.Create(context.Background(), req, client, "")
	assert.ErrorIs(t, err, ErrDuplicateLine)
	assert.Empty(t, repo.orders, "duplicate pairs must fail validation, not the line insert")
}

func TestCreateOrderRollsBackWhenLineInsertFails(t *testing.T) {
	repo := newMockRepository()
	repo.lineErr = errors.New("insert failed")
	repo.lineErrOn = 2
	cat := newMockCatalog()
	seedCatalog(cat)
	svc := newTestService(repo, cat)

	_, err := svc.Create(context.Background(), validCreateRequest(), client, "")
	require.Error(t, err)
	assert.Empty(t, repo.orders, "header must roll back with the failed line")
	assert.Empty(t, repo.lines)
}

func TestCreateOrderDuplicateIdempotencyKeyConflicts(t *testing.T) {
	repo := newMockRepository()
	cat := newMockCatalog()
	seedCatalog(cat)
	svc := newTestService(repo, cat)

	_, err := svc.Create(context.Background(), validCreateRequest(), client, "key-1")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validCreateRequest(), client, "key-1")
	assert.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	assert.Len(t, repo.orders, 1, "the replay must not insert a second order")
}

func TestCreateOrderIdempotencyKeyRollsBackWithFailure(t *testing.T) {
	repo := newMockRepository()
	repo.lineErr = errors.New("insert failed")
	repo.lineErrOn = 2
	cat := newMockCatalog()
	seedCatalog(cat)
	svc := newTestService(repo, cat)

	_, err := svc.Create(context.Background(), validCreateRequest(), client, "key-2")
	require.Error(t, err)
	assert.Empty(t, repo.keys, "the reservation rolls back with the order")

	// A retry after the clean failure goes through without manual release.
	repo.lineErr = nil
	resp, err := svc.Create(context.Background(), validCreateRequest(), client, "key-2")
	require.NoError(t, err)
	assert.NotNil(t, resp)
}

func TestCreateOrderIdempotencyKeySurvivesLostCommitAck(t *testing.T) {
	repo := newMockRepository()
	repo.commitErr = errors.New("connection reset during commit")
	cat := newMockCatalog()
	seedCatalog(cat)
	svc := newTestService(repo, cat)

	_, err := svc.Create(context.Background(), validCreateRequest(), client, "key-3")
	require.Error(t, err)
	require.Len(t, repo.orders, 1, "the commit landed even though the caller saw an error")

	// The reservation committed with the order, so a blind retry gets the
	// conflict instead of a duplicate insert.
	repo.commitErr = nil
	_, err = svc.Create(context.Background(), validCreateRequest(), client, "key-3")
	assert.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	assert.Len(t, repo.orders, 1)
}

func seedOrder(t *testing.T, repo *mockRepository, status OrderStatus) int64 {
	t.Helper()
	id, err := repo.Create(context.Background(), Order{ClientID: 5, CreatedBy: client.ID, Status: status})
	require.NoError(t, err)
	return id
}

func TestUpdateStatusHappyPaths(t *testing.T) {
	cases := []struct {
		from  OrderStatus
		to    OrderStatus
		actor shared.Actor
	}{
		{StatusRequested, StatusInProcess, admin},
		{StatusRequested, StatusCancelled, admin},
		{StatusInProcess, StatusCompleted, admin},
		{StatusRequested, StatusReadyForRoute, courier},
		{StatusReadyForRoute, StatusInRoute, courier},
		{StatusInRoute, StatusDelivered, courier},
		{StatusReadyForRoute, StatusInRoute, admin},
	}
	for _, tc := range cases {
		repo := newMockRepository()
		svc := newTestService(repo, newMockCatalog())
		id := seedOrder(t, repo, tc.from)

		err := svc.UpdateStatus(context.Background(), id, string(tc.to), tc.actor)
		require.NoError(t, err, "%s -> %s as %s", tc.from, tc.to, tc.actor.Role)

		got, err := repo.GetStatus(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, tc.to, got)
	}
}

func TestUpdateStatusRejectsBackwardTransitions(t *testing.T) {
	cases := []struct {
		from OrderStatus
		to   OrderStatus
	}{
		{StatusInProcess, StatusRequested},
		{StatusCompleted, StatusInProcess},
		{StatusDelivered, StatusInRoute},
		{StatusCancelled, StatusRequested},
		{StatusInRoute, StatusReadyForRoute},
	}
	for _, tc := range cases {
		repo := newMockRepository()
		svc := newTestService(repo, newMockCatalog())
		id := seedOrder(t, repo, tc.from)

		err := svc.UpdateStatus(context.Background(), id, string(tc.to), admin)
		assert.ErrorIs(t, err, ErrTransitionNotAllowed, "%s -> %s", tc.from, tc.to)

		got, _ := repo.GetStatus(context.Background(), id)
		assert.Equal(t, tc.from, got, "status must not change on a rejected transition")
	}
}

func TestUpdateStatusRoleGates(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, newMockCatalog())

	id := seedOrder(t, repo, StatusRequested)
	err := svc.UpdateStatus(context.Background(), id, string(StatusInProcess), courier)
	assert.ErrorIs(t, err, ErrForbidden, "delivery role cannot drive the administrative branch")

	err = svc.UpdateStatus(context.Background(), id, string(StatusReadyForRoute), client)
	assert.ErrorIs(t, err, ErrForbidden, "client role cannot drive the route branch")

	err = svc.UpdateStatus(context.Background(), id, string(StatusCancelled), client)
	assert.ErrorIs(t, err, ErrForbidden)

	got, _ := repo.GetStatus(context.Background(), id)
	assert.Equal(t, StatusRequested, got)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, newMockCatalog())
	id := seedOrder(t, repo, StatusRequested)

	err := svc.UpdateStatus(context.Background(), id, "PROCESSING", admin)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatusOrderNotFound(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, newMockCatalog())

	err := svc.UpdateStatus(context.Background(), 999, string(StatusInProcess), admin)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusConcurrentLoser(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, newMockCatalog())
	id := seedOrder(t, repo, StatusRequested)

	// The compare-and-set in the repository reports a moved status.
	repo.statusErrs[id] = ErrTransitionNotAllowed
	err := svc.UpdateStatus(context.Background(), id, string(StatusInProcess), admin)
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)
}

func TestListScopesToOwnerUnlessAdmin(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, newMockCatalog())

	_, err := repo.Create(context.Background(), Order{ClientID: 5, CreatedBy: 7, Status: StatusRequested})
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), Order{ClientID: 6, CreatedBy: 8, Status: StatusRequested})
	require.NoError(t, err)

	owner := int64(7)
	mine, err := svc.List(context.Background(), ListFilter{UserID: &owner})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := svc.List(context.Background(), ListFilter{UserID: &owner, AdminOverride: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
