package testsupport

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-user-cache/internal/user"
)

// MemoryStore is an in-memory user.Store that counts calls per method so
// tests can observe whether a request reached the store.
type MemoryStore struct {
	mu     sync.Mutex
	rows   map[int64]user.User
	nextID int64
	calls  map[string]int
	now    func() time.Time

	// FailWith, when set, is returned by every method.
	FailWith error
	// CreateErr, when set, is returned by Create after the email check has passed.
	CreateErr error
}

// NewMemoryStore returns an empty store with a monotonic clock.
func NewMemoryStore() *MemoryStore {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick time.Duration
	return &MemoryStore{
		rows:  make(map[int64]user.User),
		calls: make(map[string]int),
		now: func() time.Time {
			tick += time.Millisecond
			return base.Add(tick)
		},
	}
}

// Calls returns how many times method was invoked.
func (s *MemoryStore) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// TotalCalls returns the number of store invocations across every method.
func (s *MemoryStore) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// ResetCalls zeroes every counter.
func (s *MemoryStore) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
}

// Put writes u directly, bypassing counters and the email check.
func (s *MemoryStore) Put(u user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[u.ID] = u
	if u.ID > s.nextID {
		s.nextID = u.ID
	}
}

func (s *MemoryStore) enter(method string) error {
	s.calls[method]++
	return s.FailWith
}

func (s *MemoryStore) Create(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("Create"); err != nil {
		return err
	}
	if s.CreateErr != nil {
		return s.CreateErr
	}
	for _, row := range s.rows {
		if strings.EqualFold(row.Email, u.Email) {
			return user.ErrDuplicateEmail
		}
	}

	s.nextID++
	now := s.now()
	u.ID = s.nextID
	u.CreatedAt = now
	u.UpdatedAt = now
	s.rows[u.ID] = *u
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id int64) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FindByID"); err != nil {
		return nil, err
	}
	row, ok := s.rows[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &row, nil
}

func (s *MemoryStore) ExistsByID(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ExistsByID"); err != nil {
		return false, err
	}
	_, ok := s.rows[id]
	return ok, nil
}

func (s *MemoryStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ExistsByEmail"); err != nil {
		return false, err
	}
	for _, row := range s.rows {
		if strings.EqualFold(row.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) List(_ context.Context, req user.PageRequest) ([]user.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("List"); err != nil {
		return nil, 0, err
	}

	all := make([]user.User, 0, len(s.rows))
	for _, row := range s.rows {
		all = append(all, row)
	}
	sort.Slice(all, func(i, j int) bool {
		less, equal := compare(all[i], all[j], req.Sort.Field)
		if equal {
			return all[i].ID < all[j].ID
		}
		if req.Sort.Desc {
			return !less
		}
		return less
	})

	total := int64(len(all))
	start := req.Offset()
	if start >= len(all) {
		return []user.User{}, total, nil
	}
	end := start + req.Size
	if end > len(all) {
		end = len(all)
	}
	return append([]user.User(nil), all[start:end]...), total, nil
}

func (s *MemoryStore) Update(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("Update"); err != nil {
		return err
	}
	row, ok := s.rows[u.ID]
	if !ok {
		return user.ErrNotFound
	}
	row.Name = u.Name
	row.PhoneNumber = u.PhoneNumber
	row.Status = u.Status
	row.UpdatedAt = s.now()
	s.rows[u.ID] = row
	u.UpdatedAt = row.UpdatedAt
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("Delete"); err != nil {
		return err
	}
	if _, ok := s.rows[id]; !ok {
		return user.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func compare(a, b user.User, field string) (less, equal bool) {
	switch field {
	case "email":
		return a.Email < b.Email, a.Email == b.Email
	case "name":
		return a.Name < b.Name, a.Name == b.Name
	case "phoneNumber":
		return a.PhoneNumber < b.PhoneNumber, a.PhoneNumber == b.PhoneNumber
	case "status":
		return a.Status < b.Status, a.Status == b.Status
	case "createdAt":
		return a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
	case "updatedAt":
		return a.UpdatedAt.Before(b.UpdatedAt), a.UpdatedAt.Equal(b.UpdatedAt)
	default:
		return a.ID < b.ID, a.ID == b.ID
	}
}

var _ user.Store = (*MemoryStore)(nil)
