package handler

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/catalog/internal/errs"
	"github.com/Astemirdum/library-catalog/catalog/internal/model"
	md "github.com/Astemirdum/library-catalog/pkg/middleware"
	"github.com/Astemirdum/library-catalog/pkg/validate"
	_ "github.com/Astemirdum/library-catalog/swagger"
)

type Handler struct {
	catalogSvc CatalogService
	feed       Feed
	log        *zap.Logger

	done     chan struct{}
	doneOnce sync.Once
}

func New(catalogSvc CatalogService, feed Feed, log *zap.Logger) *Handler {
	h := &Handler{
		catalogSvc: catalogSvc,
		feed:       feed,
		log:        log,
		done:       make(chan struct{}),
	}
	return h
}

// Shutdown ends every open event stream. Safe to call more than once.
func (h *Handler) Shutdown() {
	h.doneOnce.Do(func() { close(h.done) })
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.POST("/books", h.AddBook)
	api.GET("/books", h.ListBooks)
	api.GET("/books/stream", h.StreamBooks)
	api.GET("/books/:bookId", h.GetBook)
	api.PUT("/books/:bookId", h.EditBook)
	api.DELETE("/books/:bookId", h.DeleteBook)

	api.POST("/loans", h.Borrow)
	api.GET("/loans", h.ListLoans)
	api.GET("/loans/stream", h.StreamLoans)
	api.POST("/loans/:loanId/return", h.ReturnLoan)

	api.GET("/reports/borrowed-details", h.BorrowedDetails)
	api.GET("/reports/overdue", h.Overdue)
	api.GET("/reports/students-by-category", h.StudentsByCategory)
	api.GET("/reports/multiple-borrows", h.StudentsWithMultipleBorrows)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// AddBook godoc
// @Summary add a book to the catalog
// @Tags books
// @Accept json
// @Produce json
// @Param book body model.BookRequest true "book"
// @Success 201 {object} model.Book
// @Failure 400 {object} echo.HTTPError
// @Failure 503 {object} echo.HTTPError
// @Router /books [post]
func (h *Handler) AddBook(c echo.Context) error {
	var req model.BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	book, err := h.catalogSvc.AddBook(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, book)
}

// ListBooks godoc
// @Summary list the catalog
// @Tags books
// @Produce json
// @Param title query string false "exact title"
// @Param category query string false "exact category"
// @Param page query int false "page"
// @Param size query int false "page size"
// @Success 200 {object} model.ListBooks
// @Router /books [get]
func (h *Handler) ListBooks(c echo.Context) error {
	filter := model.BookFilter{
		Title:    c.QueryParam("title"),
		Category: c.QueryParam("category"),
	}
	var err error
	if pageParam := c.QueryParam("page"); pageParam != "" {
		if filter.Page, err = strconv.Atoi(pageParam); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.New("page is invalid"))
		}
	}
	if sizeParam := c.QueryParam("size"); sizeParam != "" {
		if filter.Size, err = strconv.Atoi(sizeParam); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.New("size is invalid"))
		}
	}

	books, err := h.catalogSvc.ListBooks(c.Request().Context(), filter)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

// GetBook godoc
// @Summary get a book
// @Tags books
// @Produce json
// @Param bookId path string true "book id"
// @Success 200 {object} model.Book
// @Failure 404 {object} echo.HTTPError
// @Router /books/{bookId} [get]
func (h *Handler) GetBook(c echo.Context) error {
	book, err := h.catalogSvc.GetBook(c.Request().Context(), c.Param("bookId"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// EditBook godoc
// @Summary replace title, author, category and copies of a book
// @Tags books
// @Accept json
// @Produce json
// @Param bookId path string true "book id"
// @Param book body model.BookRequest true "book"
// @Success 200 {object} model.Book
// @Failure 400 {object} echo.HTTPError
// @Failure 404 {object} echo.HTTPError
// @Router /books/{bookId} [put]
func (h *Handler) EditBook(c echo.Context) error {
	var req model.BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	book, err := h.catalogSvc.EditBook(c.Request().Context(), c.Param("bookId"), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// DeleteBook godoc
// @Summary delete a book
// @Tags books
// @Param bookId path string true "book id"
// @Success 204
// @Router /books/{bookId} [delete]
func (h *Handler) DeleteBook(c echo.Context) error {
	if err := h.catalogSvc.DeleteBook(c.Request().Context(), c.Param("bookId")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Borrow godoc
// @Summary lend a book to a student for seven days
// @Tags loans
// @Accept json
// @Produce json
// @Param loan body model.BorrowRequest true "borrow"
// @Success 201 {object} model.Loan
// @Failure 400 {object} echo.HTTPError
// @Failure 404 {object} echo.HTTPError
// @Failure 409 {object} echo.HTTPError
// @Router /loans [post]
func (h *Handler) Borrow(c echo.Context) error {
	var req model.BorrowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	loan, err := h.catalogSvc.Borrow(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, loan)
}

// ListLoans godoc
// @Summary list active loans
// @Tags loans
// @Produce json
// @Success 200 {array} model.Loan
// @Router /loans [get]
func (h *Handler) ListLoans(c echo.Context) error {
	loans, err := h.catalogSvc.ListLoans(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, loans)
}

// ReturnLoan godoc
// @Summary return a borrowed book
// @Tags loans
// @Param loanId path string true "loan id"
// @Success 204
// @Failure 404 {object} echo.HTTPError
// @Router /loans/{loanId}/return [post]
func (h *Handler) ReturnLoan(c echo.Context) error {
	loanID := c.Param("loanId")
	if loanID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "loanId is empty")
	}
	if err := h.catalogSvc.ReturnLoan(c.Request().Context(), loanID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// BorrowedDetails godoc
// @Summary loans with the borrowed book's author and category
// @Tags reports
// @Produce json
// @Success 200 {array} model.BorrowedDetail
// @Router /reports/borrowed-details [get]
func (h *Handler) BorrowedDetails(c echo.Context) error {
	details, err := h.catalogSvc.BorrowedDetails(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, details)
}

// Overdue godoc
// @Summary loans past their due date
// @Tags reports
// @Produce json
// @Success 200 {array} model.Loan
// @Router /reports/overdue [get]
func (h *Handler) Overdue(c echo.Context) error {
	loans, err := h.catalogSvc.Overdue(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, loans)
}

// StudentsByCategory godoc
// @Summary students holding a book of the category
// @Tags reports
// @Produce json
// @Param category query string true "exact category"
// @Success 200 {array} string
// @Failure 404 {object} echo.HTTPError
// @Router /reports/students-by-category [get]
func (h *Handler) StudentsByCategory(c echo.Context) error {
	category := c.QueryParam("category")
	if category == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "category is required")
	}
	students, err := h.catalogSvc.StudentsByCategory(c.Request().Context(), category)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, students)
}

// StudentsWithMultipleBorrows godoc
// @Summary students with more than one active loan
// @Tags reports
// @Produce json
// @Success 200 {array} model.StudentBorrows
// @Router /reports/multiple-borrows [get]
func (h *Handler) StudentsWithMultipleBorrows(c echo.Context) error {
	multi, err := h.catalogSvc.StudentsWithMultipleBorrows(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, multi)
}

func httpError(err error) *echo.HTTPError {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, errs.ErrNoCopiesAvailable):
		code = http.StatusConflict
	case errors.Is(err, errs.ErrStoreUnavailable):
		code = http.StatusServiceUnavailable
	}
	return echo.NewHTTPError(code, err.Error())
}
