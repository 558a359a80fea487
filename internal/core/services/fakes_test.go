package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"hr-loanengine/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var testNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// memStore is an in-memory Store; WithinTransaction restores a snapshot when fn fails
type memStore struct {
	mu         sync.Mutex
	seq        int
	loans      map[string]domain.Loan
	entries    map[string]domain.RepaymentScheduleEntry
	repayments []domain.Repayment
	history    []domain.HistoryEntry
	inTx       bool
	reads      []string
}

func newMemStore() *memStore {
	return &memStore{
		loans:   make(map[string]domain.Loan),
		entries: make(map[string]domain.RepaymentScheduleEntry),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memStore) Loans() LoanRepository           { return memLoans{s} }
func (s *memStore) Schedules() ScheduleRepository   { return memSchedules{s} }
func (s *memStore) Repayments() RepaymentRepository { return memRepayments{s} }
func (s *memStore) History() HistoryRepository      { return memHistory{s} }

func (s *memStore) WithinTransaction(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	loans := make(map[string]domain.Loan, len(s.loans))
	for k, v := range s.loans {
		loans[k] = v
	}
	entries := make(map[string]domain.RepaymentScheduleEntry, len(s.entries))
	for k, v := range s.entries {
		entries[k] = v
	}
	repayments := append([]domain.Repayment(nil), s.repayments...)
	history := append([]domain.HistoryEntry(nil), s.history...)
	s.inTx = true
	s.mu.Unlock()

	err := fn(s)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inTx = false
	if err != nil {
		s.loans, s.entries, s.repayments, s.history = loans, entries, repayments, history
	}
	return err
}

// record appends an access to the read log used to check lock ordering
func (s *memStore) record(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads = append(s.reads, op)
}

// entriesOf returns the stored schedule of a loan ordered by installment number
func (s *memStore) entriesOf(loanID string) []domain.RepaymentScheduleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.RepaymentScheduleEntry
	for _, e := range s.entries {
		if e.LoanID == loanID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstallmentNumber < out[j].InstallmentNumber })
	return out
}

type memLoans struct{ s *memStore }

func (r memLoans) LockEmployee(ctx context.Context, employeeID string) error {
	r.s.mu.Lock()
	inTx := r.s.inTx
	r.s.mu.Unlock()
	if !inTx {
		return fmt.Errorf("lock loans of %s outside a transaction", employeeID)
	}
	r.s.record("lock " + employeeID)
	return nil
}

func (r memLoans) Create(ctx context.Context, loan *domain.Loan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if loan.ID == "" {
		loan.ID = r.s.nextID("loan")
	}
	if loan.Version == 0 {
		loan.Version = 1
	}
	r.s.loans[loan.ID] = *loan
	return nil
}

func (r memLoans) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.loans[id]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "loan", ID: id}
	}
	return &l, nil
}

func (r memLoans) GetByEmployeeID(ctx context.Context, employeeID string) ([]domain.Loan, error) {
	r.s.record("loans " + employeeID)
	all, _ := r.ListAll(ctx)
	var out []domain.Loan
	for _, l := range all {
		if l.EmployeeID == employeeID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r memLoans) List(ctx context.Context, filter LoanFilter, opts ListOptions) ([]domain.Loan, int64, error) {
	all, _ := r.ListAll(ctx)
	var matched []domain.Loan
	for _, l := range all {
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.EmployeeID != "" && l.EmployeeID != filter.EmployeeID {
			continue
		}
		matched = append(matched, l)
	}
	total := int64(len(matched))
	if opts.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched, total, nil
}

func (r memLoans) ListByStatus(ctx context.Context, statuses ...domain.LoanStatus) ([]domain.Loan, error) {
	all, _ := r.ListAll(ctx)
	var out []domain.Loan
	for _, l := range all {
		for _, st := range statuses {
			if l.Status == st {
				out = append(out, l)
			}
		}
	}
	return out, nil
}

func (r memLoans) ListAll(ctx context.Context) ([]domain.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Loan, 0, len(r.s.loans))
	for _, l := range r.s.loans {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memLoans) Update(ctx context.Context, loan *domain.Loan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.loans[loan.ID]
	if !ok {
		return &domain.NotFoundError{Resource: "loan", ID: loan.ID}
	}
	if stored.Version != loan.Version {
		return domain.ErrConcurrentUpdate
	}
	loan.Version++
	r.s.loans[loan.ID] = *loan
	return nil
}

type memSchedules struct{ s *memStore }

func (r memSchedules) CreateBatch(ctx context.Context, entries []domain.RepaymentScheduleEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = r.s.nextID("entry")
		}
		r.s.entries[entries[i].ID] = entries[i]
	}
	return nil
}

func (r memSchedules) GetByID(ctx context.Context, id string) (*domain.RepaymentScheduleEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.entries[id]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "schedule entry", ID: id}
	}
	return &e, nil
}

func (r memSchedules) GetByLoanID(ctx context.Context, loanID string) ([]domain.RepaymentScheduleEntry, error) {
	return r.s.entriesOf(loanID), nil
}

func (r memSchedules) Update(ctx context.Context, entry *domain.RepaymentScheduleEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.entries[entry.ID]; !ok {
		return &domain.NotFoundError{Resource: "schedule entry", ID: entry.ID}
	}
	r.s.entries[entry.ID] = *entry
	return nil
}

func (r memSchedules) DeleteByLoanID(ctx context.Context, loanID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, e := range r.s.entries {
		if e.LoanID == loanID {
			delete(r.s.entries, id)
		}
	}
	return nil
}

func (r memSchedules) ListPendingDueBefore(ctx context.Context, day time.Time) ([]domain.RepaymentScheduleEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.RepaymentScheduleEntry
	for _, e := range r.s.entries {
		if e.Status != domain.EntryStatusPending || !e.DueDate.Before(domain.DateOf(day)) {
			continue
		}
		if r.s.loans[e.LoanID].Status != domain.LoanStatusActive {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

type memRepayments struct{ s *memStore }

func (r memRepayments) Create(ctx context.Context, repayment *domain.Repayment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if repayment.IdempotencyKey != "" {
		for _, p := range r.s.repayments {
			if p.IdempotencyKey == repayment.IdempotencyKey {
				return domain.ErrConcurrentUpdate
			}
		}
	}
	repayment.ID = r.s.nextID("repayment")
	r.s.repayments = append(r.s.repayments, *repayment)
	return nil
}

func (r memRepayments) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Repayment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.repayments {
		if p.IdempotencyKey == key {
			return &p, nil
		}
	}
	return nil, &domain.NotFoundError{Resource: "repayment", ID: key}
}

func (r memRepayments) GetByLoanID(ctx context.Context, loanID string) ([]domain.Repayment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Repayment
	for _, p := range r.s.repayments {
		if p.LoanID == loanID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memHistory struct{ s *memStore }

func (r memHistory) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = uint(len(r.s.history) + 1)
	r.s.history = append(r.s.history, *entry)
	return nil
}

func (r memHistory) GetByLoanID(ctx context.Context, loanID string) ([]domain.HistoryEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.HistoryEntry
	for i := len(r.s.history) - 1; i >= 0; i-- {
		if r.s.history[i].LoanID == loanID {
			out = append(out, r.s.history[i])
		}
	}
	return out, nil
}

// fakeDirectory serves employees from a map
type fakeDirectory map[string]domain.Employee

func (f fakeDirectory) GetEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	e, ok := f[id]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "employee", ID: id}
	}
	return &e, nil
}

// fakePublisher records published events and optionally fails
type fakePublisher struct {
	mu     sync.Mutex
	events []domain.LoanEvent
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, events ...domain.LoanEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func (p *fakePublisher) last() domain.LoanEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

// fixture wires every service over one memStore with a fixed clock
type fixture struct {
	store      *memStore
	directory  fakeDirectory
	publisher  *fakePublisher
	notify     *NotificationService
	loans      *LoanService
	repayments *RepaymentService
	stats      *StatisticsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := quietLogger()
	f := &fixture{
		store: newMemStore(),
		directory: fakeDirectory{
			"EMP-001": {ID: "EMP-001", FullName: "Anan Srisuk", Department: "Finance", MonthlySalary: d("50000"), IsActive: true},
			"EMP-002": {ID: "EMP-002", FullName: "Mali Chan", Department: "IT", MonthlySalary: d("40000"), IsActive: true},
			"EMP-009": {ID: "EMP-009", FullName: "Former Staff", Department: "Ops", MonthlySalary: d("30000"), IsActive: false},
		},
		publisher: &fakePublisher{},
	}
	f.notify = NewNotificationService(f.publisher, log)
	f.loans = NewLoanService(f.store, f.directory, f.notify, domain.DefaultPolicy(), log)
	f.repayments = NewRepaymentService(f.store, f.notify, log)
	f.stats = NewStatisticsService(f.store)
	f.setNow(testNow)
	return f
}

func (f *fixture) setNow(now time.Time) {
	clock := func() time.Time { return now }
	f.notify.now = clock
	f.loans.now = clock
	f.repayments.now = clock
	f.stats.now = clock
}

var officer = Actor{UserID: "u-1", Username: "officer", Role: "OFFICER", IPAddress: "10.0.0.5"}

func loanInput(employeeID, principal, rate string, n int) LoanInput {
	return LoanInput{
		EmployeeID:                employeeID,
		Principal:                 d(principal),
		AnnualInterestRatePercent: d(rate),
		Frequency:                 "MONTHLY",
		TotalInstallments:         n,
		StartDate:                 "2026-11-01",
		Description:               "home repair",
	}
}

// activeLoan creates and approves a loan
func (f *fixture) activeLoan(t *testing.T, in LoanInput) domain.Loan {
	t.Helper()
	ctx := context.Background()
	loan, err := f.loans.Create(ctx, in, officer)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	approved, err := f.loans.Approve(ctx, loan.ID, officer)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	return *approved
}
