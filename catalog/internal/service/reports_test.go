package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-catalog/catalog/internal/errs"
	"github.com/Astemirdum/library-catalog/catalog/internal/model"
)

func TestService_BorrowedDetails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.addBook(t, "Go", "Pike", "CS", 2)
	gone := f.addBook(t, "Lost", "Someone", "History", 1)
	f.addBook(t, "Untagged", "Anon", "", 1)

	for _, req := range []model.BorrowRequest{
		{StudentName: "Ann", BookTitle: "Go"},
		{StudentName: "Bob", BookTitle: "Lost"},
		{StudentName: "Cid", BookTitle: "Untagged"},
	} {
		_, err := f.svc.Borrow(ctx, req)
		require.NoError(t, err)
		f.clock.Advance(time.Minute)
	}
	require.NoError(t, f.svc.DeleteBook(ctx, gone.ID))

	details, err := f.svc.BorrowedDetails(ctx)
	require.NoError(t, err)
	require.Len(t, details, 3)

	require.Equal(t, "Go", details[0].BookTitle)
	require.Equal(t, "Pike", details[0].Author)
	require.Equal(t, "CS", details[0].Category)
	require.Equal(t, "Ann", details[0].StudentName)

	require.Equal(t, "Lost", details[1].BookTitle)
	require.Equal(t, model.UnknownField, details[1].Author)
	require.Equal(t, model.UnknownField, details[1].Category)

	require.Equal(t, "Anon", details[2].Author)
	require.Equal(t, model.UnknownField, details[2].Category)
}

func TestService_Overdue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.addBook(t, "Go", "Pike", "CS", 2)

	early, err := f.svc.Borrow(ctx, model.BorrowRequest{StudentName: "Ann", BookTitle: "Go"})
	require.NoError(t, err)
	f.clock.Advance(24 * time.Hour)
	_, err = f.svc.Borrow(ctx, model.BorrowRequest{StudentName: "Bob", BookTitle: "Go"})
	require.NoError(t, err)

	overdue, err := f.svc.Overdue(ctx)
	require.NoError(t, err)
	require.Empty(t, overdue)

	// exactly at the due date is not yet overdue
	f.clock.Advance(early.DueDate.Sub(f.clock.Now()))
	overdue, err = f.svc.Overdue(ctx)
	require.NoError(t, err)
	require.Empty(t, overdue)

	f.clock.Advance(time.Second)
	overdue, err = f.svc.Overdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, early.ID, overdue[0].ID)
}

func TestService_StudentsByCategory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.addBook(t, "Go", "Pike", "CS", 5)
	f.addBook(t, "SICP", "Abelson", "CS", 5)
	f.addBook(t, "Odyssey", "Homer", "Poetry", 5)
	f.addBook(t, "Calculus", "Spivak", "Math", 5)

	for _, req := range []model.BorrowRequest{
		{StudentName: "Bob", BookTitle: "Go"},
		{StudentName: "Ann", BookTitle: "SICP"},
		{StudentName: "Bob", BookTitle: "SICP"},
		{StudentName: "Cid", BookTitle: "Odyssey"},
	} {
		_, err := f.svc.Borrow(ctx, req)
		require.NoError(t, err)
		f.clock.Advance(time.Minute)
	}

	students, err := f.svc.StudentsByCategory(ctx, "CS")
	require.NoError(t, err)
	require.Equal(t, []string{"Bob", "Ann"}, students)

	students, err = f.svc.StudentsByCategory(ctx, "Math")
	require.NoError(t, err)
	require.Empty(t, students)

	_, err = f.svc.StudentsByCategory(ctx, "cs")
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = f.svc.StudentsByCategory(ctx, " ")
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestService_StudentsWithMultipleBorrows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.addBook(t, "Go", "Pike", "CS", 10)

	for _, name := range []string{"Cid", "Ann", "Bob", "Ann", "Cid", "Cid"} {
		_, err := f.svc.Borrow(ctx, model.BorrowRequest{StudentName: name, BookTitle: "Go"})
		require.NoError(t, err)
		f.clock.Advance(time.Minute)
	}

	multi, err := f.svc.StudentsWithMultipleBorrows(ctx)
	require.NoError(t, err)
	require.Equal(t, []model.StudentBorrows{
		{StudentName: "Cid", Count: 3},
		{StudentName: "Ann", Count: 2},
	}, multi)

	loans, err := f.svc.ListLoans(ctx)
	require.NoError(t, err)
	for _, l := range loans {
		if l.StudentName == "Ann" {
			require.NoError(t, f.svc.ReturnLoan(ctx, l.ID))
			break
		}
	}
	multi, err = f.svc.StudentsWithMultipleBorrows(ctx)
	require.NoError(t, err)
	require.Equal(t, []model.StudentBorrows{{StudentName: "Cid", Count: 3}}, multi)
}
