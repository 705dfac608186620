package order

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memRepository serializes Mutate per order id, standing in for the row lock.
type memRepository struct {
	mu         sync.Mutex
	orders     map[int64]*Order
	rowLocks   map[int64]*sync.Mutex
	nextID     int64
	createErrs []error
	creates    int
}

func newMemRepository() *memRepository {
	return &memRepository{
		orders:   make(map[int64]*Order),
		rowLocks: make(map[int64]*sync.Mutex),
	}
}

func cloneOrder(o *Order) *Order {
	c := *o
	if o.AssignedTo != nil {
		v := *o.AssignedTo
		c.AssignedTo = &v
	}
	if o.OTP.Code != nil {
		v := *o.OTP.Code
		c.OTP.Code = &v
	}
	if o.OTP.Expiry != nil {
		v := *o.OTP.Expiry
		c.OTP.Expiry = &v
	}
	c.Items = append([]OrderItem(nil), o.Items...)
	return &c
}

func (r *memRepository) seed(o *Order) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	o.ID = r.nextID
	r.orders[o.ID] = cloneOrder(o)
	r.rowLocks[o.ID] = &sync.Mutex{}
	return o.ID
}

func (r *memRepository) snapshot(id int64) *Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneOrder(r.orders[id])
}

func (r *memRepository) Create(ctx context.Context, o *Order) error {
	r.mu.Lock()
	r.creates++
	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		if err != nil {
			r.mu.Unlock()
			return err
		}
	}
	r.mu.Unlock()

	for i := range o.Items {
		o.Items[i].ID = int64(i + 1)
	}
	o.UpdatedAt = o.CreatedAt
	r.seed(o)
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	return nil
}

func (r *memRepository) Get(ctx context.Context, id int64) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r *memRepository) Mutate(ctx context.Context, id int64, fn func(o *Order) error) (*Order, error) {
	r.mu.Lock()
	lock, ok := r.rowLocks[id]
	r.mu.Unlock()
	if !ok {
		return nil, ErrOrderNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	working := r.snapshot(id)
	if err := fn(working); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.orders[id] = cloneOrder(working)
	r.mu.Unlock()
	return working, nil
}

func (r *memRepository) all(keep func(o *Order) bool) []*Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Order
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memRepository) ListByCustomer(ctx context.Context, customerID int64, page Page) ([]*Order, error) {
	out := r.all(func(o *Order) bool { return o.CustomerID == customerID })
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memRepository) ListByStaff(ctx context.Context, staffID int64) ([]*Order, error) {
	return r.all(func(o *Order) bool {
		return o.AssignedTo != nil && *o.AssignedTo == staffID &&
			(o.Status == StatusAssigned || o.Status == StatusOutForDelivery)
	}), nil
}

func (r *memRepository) List(ctx context.Context, filter ListFilter) ([]*Order, int, error) {
	out := r.all(func(o *Order) bool { return filter.Status == nil || o.Status == *filter.Status })
	return out, len(out), nil
}

func (r *memRepository) Stats(ctx context.Context, from, to *time.Time) (*Stats, error) {
	return &Stats{ByStatus: map[Status]int64{}}, nil
}
