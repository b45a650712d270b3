package repository

import (
	"context"

	"github.com/Astemirdum/library-catalog/catalog/internal/model"
)

type Repository interface {
	InsertBook(ctx context.Context, book model.Book) (model.Book, error)
	UpdateBook(ctx context.Context, book model.Book) (model.Book, error)
	DeleteBook(ctx context.Context, id string) error
	GetBook(ctx context.Context, id string) (model.Book, error)
	ListBooks(ctx context.Context, filter model.BookFilter) ([]model.Book, error)
	// TakeCopy decrements copies only while copies > 0.
	TakeCopy(ctx context.Context, bookID string) error
	PutCopy(ctx context.Context, bookID string) error

	InsertLoan(ctx context.Context, loan model.Loan) (model.Loan, error)
	GetLoan(ctx context.Context, id string) (model.Loan, error)
	DeleteLoan(ctx context.Context, id string) error
	ListLoans(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error)

	// InTx runs fn against a repository bound to a single transaction.
	// Any error returned by fn rolls every write back.
	InTx(ctx context.Context, fn func(repo Repository) error) error
}
