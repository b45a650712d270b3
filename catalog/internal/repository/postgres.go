package repository

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/catalog/internal/errs"
	"github.com/Astemirdum/library-catalog/catalog/internal/model"
)

type dbtx interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type repository struct {
	db  dbtx
	log *zap.Logger
}

func NewRepository(db *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	booksTableName = `books`
	loansTableName = `loans`
)

var (
	qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	bookColumns = []string{"id", "title", "author", "category", "copies", "created_at"}
	loanColumns = []string{"id", "student_name", "book_id", "book_title", "borrow_date", "due_date"}
)

func (r *repository) InTx(ctx context.Context, fn func(repo Repository) error) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&repository{db: tx, log: r.log})
	})
}

func (r *repository) InsertBook(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := qb.Insert(booksTableName).
		Columns(bookColumns...).
		Values(book.ID, book.Title, book.Author, book.Category, book.Copies, book.CreatedAt).
		Suffix("returning " + strings.Join(bookColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	return r.oneBook(ctx, "InsertBook", query, args)
}

func (r *repository) UpdateBook(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := qb.Update(booksTableName).
		SetMap(map[string]any{
			"title":    book.Title,
			"author":   book.Author,
			"category": book.Category,
			"copies":   book.Copies,
		}).
		Where(sq.Eq{"id": book.ID}).
		Suffix("returning " + strings.Join(bookColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	return r.oneBook(ctx, "UpdateBook", query, args)
}

func (r *repository) DeleteBook(ctx context.Context, id string) error {
	query, args, err := qb.Delete(booksTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, query, args...)
	return mapError(err)
}

func (r *repository) GetBook(ctx context.Context, id string) (model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	return r.oneBook(ctx, "GetBook", query, args)
}

func (r *repository) ListBooks(ctx context.Context, filter model.BookFilter) ([]model.Book, error) {
	q := qb.Select(bookColumns...).
		From(booksTableName).
		OrderBy("created_at", "id")

	if filter.Title != "" {
		q = q.Where(sq.Eq{"title": filter.Title})
	}
	if filter.Category != "" {
		q = q.Where(sq.Eq{"category": filter.Category})
	}
	if filter.Page > 0 && filter.Size > 0 {
		q = q.Limit(uint64(filter.Size)).Offset(uint64((filter.Page - 1) * filter.Size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListBooks", zap.String("query", query), zap.Any("args", args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	books, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		return nil, errors.Wrap(err, "pgx.CollectRows")
	}
	return books, nil
}

func (r *repository) TakeCopy(ctx context.Context, bookID string) error {
	q := `
update books
    set copies = copies - 1
where id = @id and copies > 0`
	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": bookID})
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNoCopiesAvailable
	}
	return nil
}

func (r *repository) PutCopy(ctx context.Context, bookID string) error {
	q := `
update books
    set copies = copies + 1
where id = @id`
	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": bookID})
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) InsertLoan(ctx context.Context, loan model.Loan) (model.Loan, error) {
	query, args, err := qb.Insert(loansTableName).
		Columns(loanColumns...).
		Values(loan.ID, loan.StudentName, loan.BookID, loan.BookTitle, loan.BorrowDate, loan.DueDate).
		Suffix("returning " + strings.Join(loanColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}
	return r.oneLoan(ctx, "InsertLoan", query, args)
}

func (r *repository) GetLoan(ctx context.Context, id string) (model.Loan, error) {
	query, args, err := qb.Select(loanColumns...).
		From(loansTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}
	return r.oneLoan(ctx, "GetLoan", query, args)
}

func (r *repository) DeleteLoan(ctx context.Context, id string) error {
	query, args, err := qb.Delete(loansTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, query, args...)
	return mapError(err)
}

func (r *repository) ListLoans(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error) {
	q := qb.Select(loanColumns...).
		From(loansTableName).
		OrderBy("borrow_date", "id")

	if filter.StudentName != "" {
		q = q.Where(sq.Eq{"student_name": filter.StudentName})
	}
	if filter.BookIDs != nil {
		q = q.Where(sq.Eq{"book_id": filter.BookIDs})
	}
	if !filter.DueBefore.IsZero() {
		q = q.Where(sq.Lt{"due_date": filter.DueBefore})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListLoans", zap.String("query", query), zap.Any("args", args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	loans, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Loan])
	if err != nil {
		return nil, errors.Wrap(err, "pgx.CollectRows")
	}
	return loans, nil
}

func (r *repository) oneBook(ctx context.Context, op, query string, args []any) (model.Book, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error(op, zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return model.Book{}, mapError(err)
	}
	defer rows.Close()

	book, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		return model.Book{}, mapError(err)
	}
	return book, nil
}

func (r *repository) oneLoan(ctx context.Context, op, query string, args []any) (model.Loan, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error(op, zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return model.Loan{}, mapError(err)
	}
	defer rows.Close()

	loan, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Loan])
	if err != nil {
		return model.Loan{}, mapError(err)
	}
	return loan, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
			return errors.Wrap(errs.ErrValidation, pgErr.ConstraintName)
		case pgerrcode.InvalidTextRepresentation:
			// malformed uuid in a lookup
			return errs.ErrNotFound
		}
	}
	return err
}
