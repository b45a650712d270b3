package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/catalog/internal/errs"
	"github.com/Astemirdum/library-catalog/catalog/internal/model"
	catalogRepo "github.com/Astemirdum/library-catalog/catalog/internal/repository"
	"github.com/Astemirdum/library-catalog/pkg/circuit_breaker"
	"github.com/Astemirdum/library-catalog/pkg/kafka"
)

// LoanPeriodDays is the number of calendar days a book may be kept.
const LoanPeriodDays = 7

// Notifier is told which collections changed after a successful mutation.
type Notifier interface {
	Changed(ctx context.Context, collections ...model.Collection)
}

type EventLog interface {
	Log(event kafka.EventInventory) error
}

type Service struct {
	log      *zap.Logger
	repo     catalogRepo.Repository
	cb       circuit_breaker.CircuitBreaker
	notifier Notifier
	events   EventLog
	now      func() time.Time
}

type Option func(s *Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithEventLog(l EventLog) Option {
	return func(s *Service) {
		s.events = l
	}
}

func WithCircuitBreaker(cb circuit_breaker.CircuitBreaker) Option {
	return func(s *Service) {
		s.cb = cb
	}
}

func NewService(repo catalogRepo.Repository, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		log:  log.Named("service"),
		repo: repo,
		cb: circuit_breaker.New(100, 5*time.Second, 0.5, 3,
			circuit_breaker.WithFailureClassifier(isStoreFailure)),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DueDate is borrowDate plus LoanPeriodDays calendar days in borrowDate's location.
func DueDate(borrowDate time.Time) time.Time {
	return borrowDate.AddDate(0, 0, LoanPeriodDays)
}

func (s *Service) AddBook(ctx context.Context, req model.BookRequest) (model.Book, error) {
	if err := validateBook(&req); err != nil {
		return model.Book{}, err
	}
	var book model.Book
	err := s.call(func() error {
		var err error
		book, err = s.repo.InsertBook(ctx, model.Book{
			ID:        uuid.NewString(),
			Title:     req.Title,
			Author:    req.Author,
			Category:  req.Category,
			Copies:    *req.Copies,
			CreatedAt: s.now(),
		})
		return err
	})
	if err != nil {
		return model.Book{}, err
	}

	s.changed(ctx, model.CollectionBooks)
	s.emit(kafka.EventInventory{
		EventType: kafka.EventBookAdded,
		BookID:    book.ID,
		BookTitle: book.Title,
	})
	return book, nil
}

func (s *Service) GetBook(ctx context.Context, id string) (model.Book, error) {
	id, err := parseID(id, "book")
	if err != nil {
		return model.Book{}, err
	}
	var book model.Book
	err = s.call(func() error {
		var err error
		book, err = s.repo.GetBook(ctx, id)
		return err
	})
	return book, err
}

func (s *Service) ListBooks(ctx context.Context, filter model.BookFilter) (model.ListBooks, error) {
	var books []model.Book
	err := s.call(func() error {
		var err error
		books, err = s.repo.ListBooks(ctx, filter)
		return err
	})
	if err != nil {
		return model.ListBooks{}, err
	}
	return model.ListBooks{
		Paging: model.Paging{
			Page:          filter.Page,
			PageSize:      filter.Size,
			TotalElements: len(books),
		},
		Items: books,
	}, nil
}

// EditBook replaces title, author, category and copies of an existing book.
func (s *Service) EditBook(ctx context.Context, id string, req model.BookRequest) (model.Book, error) {
	id, err := parseID(id, "book")
	if err != nil {
		return model.Book{}, err
	}
	if err := validateBook(&req); err != nil {
		return model.Book{}, err
	}
	var book model.Book
	err = s.call(func() error {
		var err error
		book, err = s.repo.UpdateBook(ctx, model.Book{
			ID:       id,
			Title:    req.Title,
			Author:   req.Author,
			Category: req.Category,
			Copies:   *req.Copies,
		})
		return err
	})
	if err != nil {
		return model.Book{}, err
	}

	s.changed(ctx, model.CollectionBooks)
	s.emit(kafka.EventInventory{
		EventType: kafka.EventBookUpdated,
		BookID:    book.ID,
		BookTitle: book.Title,
	})
	return book, nil
}

// DeleteBook removes the book whether or not loans still point at it.
func (s *Service) DeleteBook(ctx context.Context, id string) error {
	id, err := parseID(id, "book")
	if err != nil {
		return err
	}
	if err := s.call(func() error {
		return s.repo.DeleteBook(ctx, id)
	}); err != nil {
		return err
	}

	s.changed(ctx, model.CollectionBooks, model.CollectionLoans)
	s.emit(kafka.EventInventory{
		EventType: kafka.EventBookDeleted,
		BookID:    id,
	})
	return nil
}

// Borrow lends the first book titled req.BookTitle to req.StudentName.
// The loan insert and the copy decrement commit together.
func (s *Service) Borrow(ctx context.Context, req model.BorrowRequest) (model.Loan, error) {
	req.Normalize()
	if req.StudentName == "" {
		return model.Loan{}, errors.Wrap(errs.ErrValidation, "student name is required")
	}
	if req.BookTitle == "" {
		return model.Loan{}, errors.Wrap(errs.ErrValidation, "book title is required")
	}

	var loan model.Loan
	err := s.call(func() error {
		return s.repo.InTx(ctx, func(repo catalogRepo.Repository) error {
			books, err := repo.ListBooks(ctx, model.BookFilter{Title: req.BookTitle})
			if err != nil {
				return err
			}
			if len(books) == 0 {
				return errors.Wrapf(errs.ErrNotFound, "book %q", req.BookTitle)
			}
			book := books[0]
			if book.Copies <= 0 {
				return errors.Wrapf(errs.ErrNoCopiesAvailable, "book %q", book.Title)
			}

			borrowDate := s.now()
			loan, err = repo.InsertLoan(ctx, model.Loan{
				ID:          uuid.NewString(),
				StudentName: req.StudentName,
				BookID:      &book.ID,
				BookTitle:   book.Title,
				BorrowDate:  borrowDate,
				DueDate:     DueDate(borrowDate),
			})
			if err != nil {
				return err
			}
			// a concurrent borrow may have taken the last copy since the read above
			return repo.TakeCopy(ctx, book.ID)
		})
	})
	if err != nil {
		return model.Loan{}, err
	}

	s.log.Debug("borrowed",
		zap.String("student", loan.StudentName),
		zap.String("title", loan.BookTitle),
		zap.Time("due", loan.DueDate))
	s.changed(ctx, model.CollectionBooks, model.CollectionLoans)
	s.emit(kafka.EventInventory{
		EventType:   kafka.EventBookBorrowed,
		BookID:      deref(loan.BookID),
		LoanID:      loan.ID,
		BookTitle:   loan.BookTitle,
		StudentName: loan.StudentName,
	})
	return loan, nil
}

// ReturnLoan puts the loan's copy back and deletes the loan.
// Returning a loan that no longer exists is a no-op.
// If the loan's book is gone the loan is kept and ErrNotFound is returned.
func (s *Service) ReturnLoan(ctx context.Context, loanID string) error {
	loanID, err := parseID(loanID, "loan")
	if err != nil {
		return err
	}

	var (
		loan     model.Loan
		returned bool
	)
	err = s.call(func() error {
		return s.repo.InTx(ctx, func(repo catalogRepo.Repository) error {
			l, err := repo.GetLoan(ctx, loanID)
			if err != nil {
				if errors.Is(err, errs.ErrNotFound) {
					return nil
				}
				return err
			}
			if l.BookID == nil {
				return errors.Wrapf(errs.ErrNotFound, "book %q", l.BookTitle)
			}
			if err = repo.PutCopy(ctx, *l.BookID); err != nil {
				if errors.Is(err, errs.ErrNotFound) {
					return errors.Wrapf(err, "book %q", l.BookTitle)
				}
				return err
			}
			if err = repo.DeleteLoan(ctx, l.ID); err != nil {
				return err
			}
			loan, returned = l, true
			return nil
		})
	})
	if err != nil {
		return err
	}
	if !returned {
		s.log.Debug("loan already returned", zap.String("loanId", loanID))
		return nil
	}

	s.changed(ctx, model.CollectionBooks, model.CollectionLoans)
	s.emit(kafka.EventInventory{
		EventType:   kafka.EventBookReturned,
		BookID:      deref(loan.BookID),
		LoanID:      loan.ID,
		BookTitle:   loan.BookTitle,
		StudentName: loan.StudentName,
	})
	return nil
}

func (s *Service) ListLoans(ctx context.Context) ([]model.Loan, error) {
	var loans []model.Loan
	err := s.call(func() error {
		var err error
		loans, err = s.repo.ListLoans(ctx, model.LoanFilter{})
		return err
	})
	return loans, err
}

func (s *Service) call(fn func() error) error {
	err := s.cb.Call(fn)
	switch {
	case err == nil:
		return nil
	case errs.IsDomain(err), isContextErr(err):
		return err
	case errors.Is(err, circuit_breaker.ErrOpenCB):
		return errors.Wrap(errs.ErrStoreUnavailable, "circuit open")
	default:
		s.log.Error("store call", zap.Error(err))
		return errors.Wrap(errs.ErrStoreUnavailable, err.Error())
	}
}

func (s *Service) changed(ctx context.Context, collections ...model.Collection) {
	if s.notifier == nil {
		return
	}
	s.notifier.Changed(context.WithoutCancel(ctx), collections...)
}

func (s *Service) emit(event kafka.EventInventory) {
	if s.events == nil {
		return
	}
	event.Timestamp = s.now().UTC()
	if err := s.events.Log(event); err != nil {
		s.log.Warn("event log", zap.String("type", string(event.EventType)), zap.Error(err))
	}
}

// isStoreFailure counts only errors the store itself produced.
func isStoreFailure(err error) bool {
	return err != nil && !errs.IsDomain(err) && !isContextErr(err)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func validateBook(req *model.BookRequest) error {
	req.Normalize()
	switch {
	case req.Title == "":
		return errors.Wrap(errs.ErrValidation, "title is required")
	case req.Author == "":
		return errors.Wrap(errs.ErrValidation, "author is required")
	case req.Copies == nil:
		return errors.Wrap(errs.ErrValidation, "copies must be an integer")
	case *req.Copies < 0:
		return errors.Wrap(errs.ErrValidation, "copies must not be negative")
	}
	return nil
}

func parseID(id, kind string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", errors.Wrapf(errs.ErrValidation, "malformed %s id %q", kind, id)
	}
	return u.String(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
