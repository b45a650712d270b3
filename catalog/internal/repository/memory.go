package repository

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/catalog/internal/errs"
	"github.com/Astemirdum/library-catalog/catalog/internal/model"
)

type memoryState struct {
	books map[string]model.Book
	loans map[string]model.Loan
	// insertion sequence breaks created_at/borrow_date ties the way id does in postgres
	seq   map[string]uint64
	clock uint64
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		books: make(map[string]model.Book, len(s.books)),
		loans: make(map[string]model.Loan, len(s.loans)),
		seq:   make(map[string]uint64, len(s.seq)),
		clock: s.clock,
	}
	for k, v := range s.books {
		c.books[k] = v
	}
	for k, v := range s.loans {
		if v.BookID != nil {
			id := *v.BookID
			v.BookID = &id
		}
		c.loans[k] = v
	}
	for k, v := range s.seq {
		c.seq[k] = v
	}
	return c
}

type memoryDB struct {
	// txMu serialises writers; mu guards state for readers.
	txMu  sync.Mutex
	mu    sync.RWMutex
	state *memoryState
}

type memoryRepository struct {
	db *memoryDB
	// work is the transaction's private copy, published on commit
	work *memoryState
	log  *zap.Logger
}

// NewMemoryRepository keeps the catalog in process memory.
// Transactions see their own writes; other readers see only committed state.
func NewMemoryRepository(log *zap.Logger) *memoryRepository {
	return &memoryRepository{
		db: &memoryDB{
			state: &memoryState{
				books: make(map[string]model.Book),
				loans: make(map[string]model.Loan),
				seq:   make(map[string]uint64),
			},
		},
		log: log.Named("repo"),
	}
}

func (r *memoryRepository) InTx(_ context.Context, fn func(repo Repository) error) error {
	if r.work != nil {
		return fn(r)
	}
	r.db.txMu.Lock()
	defer r.db.txMu.Unlock()

	r.db.mu.RLock()
	work := r.db.state.clone()
	r.db.mu.RUnlock()

	if err := fn(&memoryRepository{db: r.db, work: work, log: r.log}); err != nil {
		r.log.Debug("tx rolled back", zap.Error(err))
		return err
	}
	r.db.mu.Lock()
	r.db.state = work
	r.db.mu.Unlock()
	return nil
}

// write runs fn under the state lock, waiting for any open transaction first.
func (r *memoryRepository) write(fn func(st *memoryState) error) error {
	if r.work != nil {
		return fn(r.work)
	}
	r.db.txMu.Lock()
	defer r.db.txMu.Unlock()
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return fn(r.db.state)
}

func (r *memoryRepository) read(fn func(st *memoryState)) {
	if r.work != nil {
		fn(r.work)
		return
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	fn(r.db.state)
}

func (r *memoryRepository) InsertBook(_ context.Context, book model.Book) (model.Book, error) {
	if book.Title == "" || book.Author == "" || book.Copies < 0 {
		return model.Book{}, errs.ErrValidation
	}
	err := r.write(func(st *memoryState) error {
		st.books[book.ID] = book
		st.clock++
		st.seq[book.ID] = st.clock
		return nil
	})
	return book, err
}

func (r *memoryRepository) UpdateBook(_ context.Context, book model.Book) (model.Book, error) {
	if book.Title == "" || book.Author == "" || book.Copies < 0 {
		return model.Book{}, errs.ErrValidation
	}
	var cur model.Book
	err := r.write(func(st *memoryState) error {
		var ok bool
		if cur, ok = st.books[book.ID]; !ok {
			return errs.ErrNotFound
		}
		cur.Title = book.Title
		cur.Author = book.Author
		cur.Category = book.Category
		cur.Copies = book.Copies
		st.books[book.ID] = cur
		return nil
	})
	if err != nil {
		return model.Book{}, err
	}
	return cur, nil
}

func (r *memoryRepository) DeleteBook(_ context.Context, id string) error {
	return r.write(func(st *memoryState) error {
		if _, ok := st.books[id]; !ok {
			return nil
		}
		delete(st.books, id)
		delete(st.seq, id)
		for k, loan := range st.loans {
			if loan.BookID != nil && *loan.BookID == id {
				loan.BookID = nil
				st.loans[k] = loan
			}
		}
		return nil
	})
}

func (r *memoryRepository) GetBook(_ context.Context, id string) (model.Book, error) {
	var (
		book model.Book
		ok   bool
	)
	r.read(func(st *memoryState) {
		book, ok = st.books[id]
	})
	if !ok {
		return model.Book{}, errs.ErrNotFound
	}
	return book, nil
}

func (r *memoryRepository) ListBooks(_ context.Context, filter model.BookFilter) ([]model.Book, error) {
	var books []model.Book
	r.read(func(st *memoryState) {
		books = make([]model.Book, 0, len(st.books))
		for _, b := range st.books {
			if filter.Title != "" && b.Title != filter.Title {
				continue
			}
			if filter.Category != "" && b.Category != filter.Category {
				continue
			}
			books = append(books, b)
		}
		sort.Slice(books, func(i, j int) bool {
			if !books[i].CreatedAt.Equal(books[j].CreatedAt) {
				return books[i].CreatedAt.Before(books[j].CreatedAt)
			}
			return st.seq[books[i].ID] < st.seq[books[j].ID]
		})
	})

	if filter.Page > 0 && filter.Size > 0 {
		from := (filter.Page - 1) * filter.Size
		if from >= len(books) {
			return []model.Book{}, nil
		}
		to := from + filter.Size
		if to > len(books) {
			to = len(books)
		}
		books = books[from:to]
	}
	return books, nil
}

func (r *memoryRepository) TakeCopy(_ context.Context, bookID string) error {
	return r.write(func(st *memoryState) error {
		book, ok := st.books[bookID]
		if !ok || book.Copies <= 0 {
			return errs.ErrNoCopiesAvailable
		}
		book.Copies--
		st.books[bookID] = book
		return nil
	})
}

func (r *memoryRepository) PutCopy(_ context.Context, bookID string) error {
	return r.write(func(st *memoryState) error {
		book, ok := st.books[bookID]
		if !ok {
			return errs.ErrNotFound
		}
		book.Copies++
		st.books[bookID] = book
		return nil
	})
}

func (r *memoryRepository) InsertLoan(_ context.Context, loan model.Loan) (model.Loan, error) {
	if loan.StudentName == "" {
		return model.Loan{}, errs.ErrValidation
	}
	err := r.write(func(st *memoryState) error {
		st.loans[loan.ID] = loan
		st.clock++
		st.seq[loan.ID] = st.clock
		return nil
	})
	return loan, err
}

func (r *memoryRepository) GetLoan(_ context.Context, id string) (model.Loan, error) {
	var (
		loan model.Loan
		ok   bool
	)
	r.read(func(st *memoryState) {
		loan, ok = st.loans[id]
	})
	if !ok {
		return model.Loan{}, errs.ErrNotFound
	}
	return loan, nil
}

func (r *memoryRepository) DeleteLoan(_ context.Context, id string) error {
	return r.write(func(st *memoryState) error {
		delete(st.loans, id)
		delete(st.seq, id)
		return nil
	})
}

func (r *memoryRepository) ListLoans(_ context.Context, filter model.LoanFilter) ([]model.Loan, error) {
	var bookIDs map[string]struct{}
	if filter.BookIDs != nil {
		bookIDs = make(map[string]struct{}, len(filter.BookIDs))
		for _, id := range filter.BookIDs {
			bookIDs[id] = struct{}{}
		}
	}

	var loans []model.Loan
	r.read(func(st *memoryState) {
		loans = make([]model.Loan, 0, len(st.loans))
		for _, l := range st.loans {
			if filter.StudentName != "" && l.StudentName != filter.StudentName {
				continue
			}
			if bookIDs != nil {
				if l.BookID == nil {
					continue
				}
				if _, ok := bookIDs[*l.BookID]; !ok {
					continue
				}
			}
			if !filter.DueBefore.IsZero() && !l.DueDate.Before(filter.DueBefore) {
				continue
			}
			loans = append(loans, l)
		}
		sort.Slice(loans, func(i, j int) bool {
			if !loans[i].BorrowDate.Equal(loans[j].BorrowDate) {
				return loans[i].BorrowDate.Before(loans[j].BorrowDate)
			}
			return st.seq[loans[i].ID] < st.seq[loans[j].ID]
		})
	})
	return loans, nil
}
