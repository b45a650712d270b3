package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/library-catalog/catalog/internal/errs"
	"github.com/Astemirdum/library-catalog/catalog/internal/model"
)

// BorrowedDetails joins every loan with its book's author and category.
func (s *Service) BorrowedDetails(ctx context.Context) ([]model.BorrowedDetail, error) {
	var (
		loans []model.Loan
		books []model.Book
	)
	err := s.call(func() error {
		gg, gctx := errgroup.WithContext(ctx)
		gg.Go(func() error {
			var err error
			loans, err = s.repo.ListLoans(gctx, model.LoanFilter{})
			return err
		})
		gg.Go(func() error {
			var err error
			books, err = s.repo.ListBooks(gctx, model.BookFilter{})
			return err
		})
		return gg.Wait()
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	details := make([]model.BorrowedDetail, 0, len(loans))
	for _, l := range loans {
		d := model.BorrowedDetail{
			BookTitle:   l.BookTitle,
			Author:      model.UnknownField,
			Category:    model.UnknownField,
			StudentName: l.StudentName,
			DueDate:     l.DueDate,
		}
		if l.BookID != nil {
			if b, ok := byID[*l.BookID]; ok {
				d.Author = orUnknown(b.Author)
				d.Category = orUnknown(b.Category)
			}
		}
		details = append(details, d)
	}
	return details, nil
}

// Overdue lists loans whose due date is strictly before now.
func (s *Service) Overdue(ctx context.Context) ([]model.Loan, error) {
	now := s.now()
	var loans []model.Loan
	err := s.call(func() error {
		var err error
		loans, err = s.repo.ListLoans(ctx, model.LoanFilter{DueBefore: now})
		return err
	})
	return loans, err
}

// StudentsByCategory returns the distinct students currently holding a book of the category.
// The category match is exact and case-sensitive.
func (s *Service) StudentsByCategory(ctx context.Context, category string) ([]string, error) {
	if strings.TrimSpace(category) == "" {
		return nil, errors.Wrap(errs.ErrValidation, "category is required")
	}

	var loans []model.Loan
	err := s.call(func() error {
		books, err := s.repo.ListBooks(ctx, model.BookFilter{Category: category})
		if err != nil {
			return err
		}
		if len(books) == 0 {
			return errors.Wrapf(errs.ErrNotFound, "category %q", category)
		}
		ids := make([]string, 0, len(books))
		for _, b := range books {
			ids = append(ids, b.ID)
		}
		loans, err = s.repo.ListLoans(ctx, model.LoanFilter{BookIDs: ids})
		return err
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(loans))
	students := make([]string, 0, len(loans))
	for _, l := range loans {
		if _, ok := seen[l.StudentName]; ok {
			continue
		}
		seen[l.StudentName] = struct{}{}
		students = append(students, l.StudentName)
	}
	return students, nil
}

// StudentsWithMultipleBorrows counts active loans per student and keeps those above one,
// in order of each student's first loan.
func (s *Service) StudentsWithMultipleBorrows(ctx context.Context) ([]model.StudentBorrows, error) {
	loans, err := s.ListLoans(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, l := range loans {
		if _, ok := counts[l.StudentName]; !ok {
			order = append(order, l.StudentName)
		}
		counts[l.StudentName]++
	}

	multi := make([]model.StudentBorrows, 0)
	for _, name := range order {
		if c := counts[name]; c > 1 {
			multi = append(multi, model.StudentBorrows{StudentName: name, Count: c})
		}
	}
	return multi, nil
}

func orUnknown(v string) string {
	if v == "" {
		return model.UnknownField
	}
	return v
}
