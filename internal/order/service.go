package order

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"bitebuddy-be/internal/cart"
	"bitebuddy-be/internal/logger"
	"bitebuddy-be/internal/menu"
	"bitebuddy-be/internal/notify"
	"bitebuddy-be/internal/user"
	"bitebuddy-be/internal/utils"
	"bitebuddy-be/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const orderNumberAttempts = 3

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

type MenuReader interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*menu.MenuItem, error)
}

type StaffDirectory interface {
	GetStaff(ctx context.Context, id int64) (*user.User, error)
}

type MetricsCollector interface {
	RecordTransition(from, to string)
	RecordOTPOutcome(outcome string)
	RecordOTPLock()
}

type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordTransition(from, to string) {}
func (NoOpMetricsCollector) RecordOTPOutcome(outcome string)  {}
func (NoOpMetricsCollector) RecordOTPLock()                   {}

type Service interface {
	Checkout(ctx context.Context, customerID int64, c *cart.Cart, d DeliveryDetails) (*Order, error)
	Assign(ctx context.Context, actor Actor, orderID, staffID int64) (*Order, error)
	Dispatch(ctx context.Context, actor Actor, orderID int64) (*Order, error)
	VerifyOTP(ctx context.Context, actor Actor, orderID int64, code string) (Outcome, *Order, error)
	ReissueOTP(ctx context.Context, actor Actor, orderID int64) (*Order, error)
	Cancel(ctx context.Context, actor Actor, orderID int64) (*Order, error)

	Get(ctx context.Context, actor Actor, orderID int64) (*Order, error)
	ListForCustomer(ctx context.Context, customerID int64, page Page) ([]*Order, error)
	ListForStaff(ctx context.Context, staffID int64) ([]*Order, error)
	ListAll(ctx context.Context, filter ListFilter) ([]*Order, int, error)
	Stats(ctx context.Context, from, to *time.Time) (*Stats, error)

	Policy() OTPPolicy
}

type Options struct {
	Policy              OTPPolicy
	CancelCustomerUntil Status
	Clock               clockwork.Clock
	Notifier            notify.Notifier
	Metrics             MetricsCollector
}

type service struct {
	repo     Repository
	menu     MenuReader
	staff    StaffDirectory
	validate *validator.Validate

	policy      OTPPolicy
	cancelUntil Status
	clock       clockwork.Clock
	notifier    notify.Notifier
	metrics     MetricsCollector
}

func NewService(repo Repository, menuReader MenuReader, staff StaffDirectory, opts Options) Service {
	s := &service{
		repo:        repo,
		menu:        menuReader,
		staff:       staff,
		validate:    validation.New(),
		policy:      opts.Policy,
		cancelUntil: opts.CancelCustomerUntil,
		clock:       opts.Clock,
		notifier:    opts.Notifier,
		metrics:     opts.Metrics,
	}

	def := DefaultOTPPolicy()
	if s.policy.Length <= 0 {
		s.policy.Length = def.Length
	}
	if s.policy.TTL <= 0 {
		s.policy.TTL = def.TTL
	}
	if s.policy.MaxAttempts <= 0 {
		s.policy.MaxAttempts = def.MaxAttempts
	}
	if !s.cancelUntil.Valid() || s.cancelUntil.Terminal() {
		s.cancelUntil = StatusPlaced
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.notifier == nil {
		s.notifier = notify.LogNotifier{}
	}
	if s.metrics == nil {
		s.metrics = NoOpMetricsCollector{}
	}

	return s
}

// Checkout turns a cart into a placed order. Prices are copied from the menu
// as they are right now.
func (s *service) Checkout(ctx context.Context, customerID int64, c *cart.Cart, d DeliveryDetails) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
		zap.Int64("customer_id", customerID),
	)

	if c == nil || c.IsEmpty() {
		return nil, invalid("items", "cart is empty")
	}

	req := checkoutRequest{
		ServiceID:           c.ServiceID,
		Address:             strings.TrimSpace(d.Address),
		Phone:               strings.TrimSpace(d.Phone),
		SpecialInstructions: strings.TrimSpace(d.SpecialInstructions),
		Items:               c.Lines(),
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, validation.First(err)
	}

	ids := make([]int64, len(req.Items))
	for i, l := range req.Items {
		ids[i] = l.MenuItemID
	}

	live, err := s.menu.GetByIDs(ctx, ids)
	if err != nil {
		log.Error("failed to load menu items", zap.Error(err))
		return nil, err
	}

	o := &Order{
		CustomerID:          customerID,
		ServiceID:           req.ServiceID,
		Address:             req.Address,
		Phone:               req.Phone,
		SpecialInstructions: req.SpecialInstructions,
		Status:              StatusPlaced,
	}

	for i, l := range req.Items {
		field := fmt.Sprintf("items[%d].menu_item_id", i)

		item, ok := live[l.MenuItemID]
		switch {
		case !ok:
			return nil, invalid(field, "unknown menu item")
		case item.ServiceID != req.ServiceID:
			return nil, invalid(field, "menu item belongs to another service")
		case !item.IsAvailable:
			return nil, invalid(field, "menu item is unavailable")
		}

		o.Items = append(o.Items, OrderItem{
			MenuItemID:   item.ID,
			Quantity:     l.Quantity,
			PriceAtOrder: item.Price,
		})
		o.TotalAmount += item.Price * int64(l.Quantity)
	}

	for attempt := 1; ; attempt++ {
		now := s.clock.Now()
		o.OrderNumber = utils.GenerateOrderNumber(now)
		o.CreatedAt = now

		err = s.repo.Create(ctx, o)
		if err == nil {
			break
		}
		if !errors.Is(err, errDuplicateOrderNumber) || attempt == orderNumberAttempts {
			log.Error("failed to create order", zap.Int("attempt", attempt), zap.Error(err))
			return nil, err
		}
		log.Warn("order number collision, retrying", zap.String("order_number", o.OrderNumber))
	}

	s.metrics.RecordTransition("none", string(StatusPlaced))
	log.Info("order placed",
		zap.Int64("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.Int64("total_amount", o.TotalAmount),
		zap.Int("items", len(o.Items)),
	)

	return o, nil
}

func (s *service) Assign(ctx context.Context, actor Actor, orderID, staffID int64) (*Order, error) {
	if actor.Role != user.RoleAdmin {
		return nil, ErrForbidden
	}

	if _, err := s.staff.GetStaff(ctx, staffID); err != nil {
		if errors.Is(err, user.ErrNotStaff) || errors.Is(err, user.ErrUserNotFound) {
			return nil, invalid("staff_id", "must be an active staff member")
		}
		return nil, err
	}

	var from Status
	o, err := s.repo.Mutate(ctx, orderID, func(o *Order) error {
		from = o.Status
		return o.Assign(staffID, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}

	s.transitioned(ctx, o, from, zap.Int64("assigned_to", staffID))
	return o, nil
}

// Dispatch moves an assigned order out for delivery and sends the customer
// the delivery code.
func (s *service) Dispatch(ctx context.Context, actor Actor, orderID int64) (*Order, error) {
	if actor.Role != user.RoleStaff && actor.Role != user.RoleAdmin {
		return nil, ErrForbidden
	}

	code, err := GenerateOTP(s.policy.Length)
	if err != nil {
		return nil, err
	}

	var from Status
	o, err := s.repo.Mutate(ctx, orderID, func(o *Order) error {
		if !canHandle(actor, o) {
			return ErrForbidden
		}
		from = o.Status
		return o.Dispatch(code, s.policy.TTL, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}

	s.transitioned(ctx, o, from)
	s.sendOTP(ctx, o)
	return o, nil
}

func (s *service) ReissueOTP(ctx context.Context, actor Actor, orderID int64) (*Order, error) {
	if actor.Role != user.RoleStaff && actor.Role != user.RoleAdmin {
		return nil, ErrForbidden
	}

	code, err := GenerateOTP(s.policy.Length)
	if err != nil {
		return nil, err
	}

	o, err := s.repo.Mutate(ctx, orderID, func(o *Order) error {
		if !canHandle(actor, o) {
			return ErrForbidden
		}
		return o.ReissueOTP(code, s.policy.TTL, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("otp reissued",
		zap.Int64("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
	)
	s.sendOTP(ctx, o)
	return o, nil
}

func (s *service) VerifyOTP(ctx context.Context, actor Actor, orderID int64, code string) (Outcome, *Order, error) {
	if actor.Role != user.RoleStaff && actor.Role != user.RoleAdmin {
		return "", nil, ErrForbidden
	}

	code = strings.TrimSpace(code)
	if len(code) != s.policy.Length || !digitsOnly.MatchString(code) {
		return "", nil, invalid("otp", fmt.Sprintf("must be %d digits", s.policy.Length))
	}

	var (
		outcome   Outcome
		lockedNow bool
	)
	o, err := s.repo.Mutate(ctx, orderID, func(o *Order) error {
		if !canHandle(actor, o) {
			return ErrForbidden
		}

		before := o.OTP.Attempts
		res, err := o.VerifyOTP(code, s.policy.MaxAttempts, s.clock.Now())
		if err != nil {
			return err
		}

		outcome = res
		lockedNow = res == OutcomeLocked && before <= s.policy.MaxAttempts
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	s.metrics.RecordOTPOutcome(string(outcome))

	log := logger.FromCtx(ctx).With(
		zap.Int64("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.String("outcome", string(outcome)),
		zap.Int("attempts", o.OTP.Attempts),
	)
	switch {
	case outcome == OutcomeDelivered:
		s.metrics.RecordTransition(string(StatusOutForDelivery), string(StatusDelivered))
		log.Info("order delivered")
	case lockedNow:
		s.metrics.RecordOTPLock()
		log.Warn("otp locked after too many attempts")
	default:
		log.Info("otp rejected")
	}

	return outcome, o, nil
}

func (s *service) Cancel(ctx context.Context, actor Actor, orderID int64) (*Order, error) {
	var from Status
	o, err := s.repo.Mutate(ctx, orderID, func(o *Order) error {
		switch actor.Role {
		case user.RoleAdmin:
		case user.RoleCustomer:
			if o.CustomerID != actor.ID {
				return ErrForbidden
			}
			if !o.Status.AtOrBefore(s.cancelUntil) {
				return ErrInvalidTransition
			}
		default:
			return ErrForbidden
		}

		from = o.Status
		return o.Cancel(s.clock.Now())
	})
	if err != nil {
		return nil, err
	}

	s.transitioned(ctx, o, from, zap.String("cancelled_by", string(actor.Role)))
	return o, nil
}

func (s *service) Get(ctx context.Context, actor Actor, orderID int64) (*Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case user.RoleAdmin:
	case user.RoleStaff:
		if !canHandle(actor, o) {
			return nil, ErrForbidden
		}
	default:
		if o.CustomerID != actor.ID {
			return nil, ErrForbidden
		}
	}

	return o, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID int64, page Page) ([]*Order, error) {
	return s.repo.ListByCustomer(ctx, customerID, page)
}

func (s *service) ListForStaff(ctx context.Context, staffID int64) ([]*Order, error) {
	return s.repo.ListByStaff(ctx, staffID)
}

func (s *service) ListAll(ctx context.Context, filter ListFilter) ([]*Order, int, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, invalid("status", "is invalid")
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		return nil, 0, invalid("date_to", "must not be before date_from")
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Stats(ctx context.Context, from, to *time.Time) (*Stats, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, invalid("date_to", "must not be before date_from")
	}
	return s.repo.Stats(ctx, from, to)
}

func (s *service) Policy() OTPPolicy {
	return s.policy
}

// canHandle reports whether actor may work the order as its courier.
func canHandle(actor Actor, o *Order) bool {
	if actor.Role == user.RoleAdmin {
		return true
	}
	return actor.Role == user.RoleStaff && o.AssignedTo != nil && *o.AssignedTo == actor.ID
}

func (s *service) transitioned(ctx context.Context, o *Order, from Status, fields ...zap.Field) {
	s.metrics.RecordTransition(string(from), string(o.Status))

	fields = append(fields,
		zap.Int64("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.String("from", string(from)),
		zap.String("to", string(o.Status)),
	)
	logger.FromCtx(ctx).Info("order status changed", fields...)
}

// sendOTP runs after commit. A delivery failure never undoes the transition.
func (s *service) sendOTP(ctx context.Context, o *Order) {
	if !o.OTP.Active() {
		return
	}

	notice := notify.OTPNotice{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Phone:       o.Phone,
		Code:        *o.OTP.Code,
		ExpiresAt:   *o.OTP.Expiry,
	}
	if err := s.notifier.NotifyOTP(ctx, notice); err != nil {
		logger.FromCtx(ctx).Warn("otp notification failed",
			zap.Int64("order_id", o.ID),
			zap.String("order_number", o.OrderNumber),
			zap.Error(err),
		)
	}
}
