package handler

import (
	"context"

	"github.com/Astemirdum/library-catalog/catalog/internal/feed"
	"github.com/Astemirdum/library-catalog/catalog/internal/model"
	"github.com/Astemirdum/library-catalog/catalog/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type CatalogService interface {
	AddBook(ctx context.Context, req model.BookRequest) (model.Book, error)
	GetBook(ctx context.Context, id string) (model.Book, error)
	ListBooks(ctx context.Context, filter model.BookFilter) (model.ListBooks, error)
	EditBook(ctx context.Context, id string, req model.BookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, id string) error
	Borrow(ctx context.Context, req model.BorrowRequest) (model.Loan, error)
	ReturnLoan(ctx context.Context, loanID string) error
	ListLoans(ctx context.Context) ([]model.Loan, error)
	BorrowedDetails(ctx context.Context) ([]model.BorrowedDetail, error)
	Overdue(ctx context.Context) ([]model.Loan, error)
	StudentsByCategory(ctx context.Context, category string) ([]string, error)
	StudentsWithMultipleBorrows(ctx context.Context) ([]model.StudentBorrows, error)
}

type Feed interface {
	Subscribe(ctx context.Context, collection model.Collection, fn func(feed.Snapshot)) (func(), error)
}

var (
	_ CatalogService = (*service.Service)(nil)
	_ Feed           = (*feed.Hub)(nil)
)
