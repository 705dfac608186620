package handler

import (
	"context"
	"time"

	"bitebuddy-be/internal/cart"
	"bitebuddy-be/internal/menu"
	"bitebuddy-be/internal/order"
	"bitebuddy-be/internal/user"

	"github.com/stretchr/testify/mock"
)

// --- Mocks ---

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, in user.RegisterInput) (string, *user.User, error) {
	args := m.Called(ctx, in)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*user.User), args.Error(2)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*user.User), args.Error(2)
}

func (m *MockUserService) LoginAdmin(ctx context.Context, email, password string) (string, *user.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*user.User), args.Error(2)
}

func (m *MockUserService) ListStaff(ctx context.Context, includeInactive bool) ([]*user.User, error) {
	args := m.Called(ctx, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

func (m *MockUserService) GetStaff(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) CreateStaff(ctx context.Context, in user.StaffInput) (*user.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) SetActive(ctx context.Context, actorID, id int64, active bool) (*user.User, error) {
	args := m.Called(ctx, actorID, id, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) EnsureAdmin(ctx context.Context, in user.StaffInput) (*user.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) result(args mock.Arguments) (*order.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) Checkout(ctx context.Context, customerID int64, c *cart.Cart, d order.DeliveryDetails) (*order.Order, error) {
	return m.result(m.Called(ctx, customerID, c, d))
}

func (m *MockOrderService) Assign(ctx context.Context, actor order.Actor, orderID, staffID int64) (*order.Order, error) {
	return m.result(m.Called(ctx, actor, orderID, staffID))
}

func (m *MockOrderService) Dispatch(ctx context.Context, actor order.Actor, orderID int64) (*order.Order, error) {
	return m.result(m.Called(ctx, actor, orderID))
}

func (m *MockOrderService) VerifyOTP(ctx context.Context, actor order.Actor, orderID int64, code string) (order.Outcome, *order.Order, error) {
	args := m.Called(ctx, actor, orderID, code)
	if args.Get(1) == nil {
		return args.Get(0).(order.Outcome), nil, args.Error(2)
	}
	return args.Get(0).(order.Outcome), args.Get(1).(*order.Order), args.Error(2)
}

func (m *MockOrderService) ReissueOTP(ctx context.Context, actor order.Actor, orderID int64) (*order.Order, error) {
	return m.result(m.Called(ctx, actor, orderID))
}

func (m *MockOrderService) Cancel(ctx context.Context, actor order.Actor, orderID int64) (*order.Order, error) {
	return m.result(m.Called(ctx, actor, orderID))
}

func (m *MockOrderService) Get(ctx context.Context, actor order.Actor, orderID int64) (*order.Order, error) {
	return m.result(m.Called(ctx, actor, orderID))
}

func (m *MockOrderService) ListForCustomer(ctx context.Context, customerID int64, page order.Page) ([]*order.Order, error) {
	args := m.Called(ctx, customerID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderService) ListForStaff(ctx context.Context, staffID int64) ([]*order.Order, error) {
	args := m.Called(ctx, staffID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderService) ListAll(ctx context.Context, filter order.ListFilter) ([]*order.Order, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*order.Order), args.Int(1), args.Error(2)
}

func (m *MockOrderService) Stats(ctx context.Context, from, to *time.Time) (*order.Stats, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Stats), args.Error(1)
}

func (m *MockOrderService) Policy() order.OTPPolicy {
	return order.DefaultOTPPolicy()
}

type MockMenu struct {
	mock.Mock
}

func (m *MockMenu) ListByService(ctx context.Context, serviceID int64, onlyAvailable bool) ([]*menu.MenuItem, error) {
	args := m.Called(ctx, serviceID, onlyAvailable)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*menu.MenuItem), args.Error(1)
}
