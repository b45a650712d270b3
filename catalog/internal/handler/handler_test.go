package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/catalog/internal/errs"
	"github.com/Astemirdum/library-catalog/catalog/internal/feed"
	"github.com/Astemirdum/library-catalog/catalog/internal/handler"
	"github.com/Astemirdum/library-catalog/catalog/internal/model"
	"github.com/Astemirdum/library-catalog/pkg/validate"

	service_mocks "github.com/Astemirdum/library-catalog/catalog/internal/handler/mocks"
)

const (
	bookID = "f7cdc58f-2caf-4b15-9727-f89dcc629b27"
	loanID = "83575e12-7ce0-48ee-9931-51919ff3c9ee"
)

var borrowDate = time.Date(2024, time.January, 28, 10, 0, 0, 0, time.UTC)

type response struct {
	expectedCode int
	expectedBody string
}

func newEcho(t *testing.T) (*echo.Echo, *handler.Handler, *service_mocks.MockCatalogService, *service_mocks.MockFeed) {
	t.Helper()
	c := gomock.NewController(t)
	svc := service_mocks.NewMockCatalogService(c)
	fd := service_mocks.NewMockFeed(c)
	log := zap.NewExample().Named("test")
	h := handler.New(svc, fd, log)

	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	return e, h, svc, fd
}

func intPtr(i int) *int { return &i }

func TestHandler_AddBook(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockCatalogService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"title":"Go","author":"Pike","category":"CS","copies":2}`,
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().
					AddBook(context.Background(), model.BookRequest{
						Title: "Go", Author: "Pike", Category: "CS", Copies: intPtr(2),
					}).
					Return(model.Book{
						ID: bookID, Title: "Go", Author: "Pike", Category: "CS", Copies: 2, CreatedAt: borrowDate,
					}, nil)
			},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"id":"f7cdc58f-2caf-4b15-9727-f89dcc629b27","title":"Go","author":"Pike","category":"CS","copies":2,"createdAt":"2024-01-28T10:00:00Z"}`,
			},
		},
		{
			name:         "err. copies missing",
			body:         `{"title":"Go","author":"Pike"}`,
			mockBehavior: func(r *service_mocks.MockCatalogService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"Key: 'BookRequest.Copies' Error:Field validation for 'Copies' failed on the 'required' tag"}`,
			},
		},
		{
			name:         "err. copies not an integer",
			body:         `{"title":"Go","author":"Pike","copies":"two"}`,
			mockBehavior: func(r *service_mocks.MockCatalogService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
			},
		},
		{
			name: "err. negative copies",
			body: `{"title":"Go","author":"Pike","copies":-1}`,
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().
					AddBook(context.Background(), gomock.Any()).
					Return(model.Book{}, errors.Wrap(errs.ErrValidation, "copies must not be negative"))
			},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"copies must not be negative: validation error"}`,
			},
		},
		{
			name: "err. store unavailable",
			body: `{"title":"Go","author":"Pike","copies":1}`,
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().
					AddBook(context.Background(), gomock.Any()).
					Return(model.Book{}, errors.Wrap(errs.ErrStoreUnavailable, "circuit open"))
			},
			response: response{
				expectedCode: http.StatusServiceUnavailable,
				expectedBody: `{"message":"circuit open: store unavailable"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, h, svc, _ := newEcho(t)
			e.POST("/books", h.AddBook)

			r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
		})
	}
}

func TestHandler_ListBooks(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockCatalogService)

	var tests = []struct {
		name         string
		query        string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name:  "ok",
			query: "?category=CS&page=1&size=10",
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().
					ListBooks(context.Background(), model.BookFilter{Category: "CS", Page: 1, Size: 10}).
					Return(model.ListBooks{
						Paging: model.Paging{Page: 1, PageSize: 10, TotalElements: 1},
						Items: []model.Book{
							{ID: bookID, Title: "Go", Author: "Pike", Category: "CS", Copies: 1, CreatedAt: borrowDate},
						},
					}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"page":1,"pageSize":10,"totalElements":1,"items":[{"id":"f7cdc58f-2caf-4b15-9727-f89dcc629b27","title":"Go","author":"Pike","category":"CS","copies":1,"createdAt":"2024-01-28T10:00:00Z"}]}`,
			},
		},
		{
			name:         "err. page invalid",
			query:        "?page=first",
			mockBehavior: func(r *service_mocks.MockCatalogService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"page is invalid"}`,
			},
		},
		{
			name:  "err. internal",
			query: "",
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().
					ListBooks(context.Background(), model.BookFilter{}).
					Return(model.ListBooks{}, errors.New("db internal"))
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"db internal"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, h, svc, _ := newEcho(t)
			e.GET("/books", h.ListBooks)

			r := httptest.NewRequest(http.MethodGet, "/books"+tt.query, http.NoBody)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_Borrow(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockCatalogService)

	id := bookID
	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"studentName":"Ann","bookTitle":"Go"}`,
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().
					Borrow(context.Background(), model.BorrowRequest{StudentName: "Ann", BookTitle: "Go"}).
					Return(model.Loan{
						ID:          loanID,
						StudentName: "Ann",
						BookID:      &id,
						BookTitle:   "Go",
						BorrowDate:  borrowDate,
						DueDate:     borrowDate.AddDate(0, 0, 7),
					}, nil)
			},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"id":"83575e12-7ce0-48ee-9931-51919ff3c9ee","studentName":"Ann","bookId":"f7cdc58f-2caf-4b15-9727-f89dcc629b27","bookTitle":"Go","borrowDate":"2024-01-28T10:00:00Z","dueDate":"2024-02-04T10:00:00Z"}`,
			},
		},
		{
			name:         "err. student required",
			body:         `{"bookTitle":"Go"}`,
			mockBehavior: func(r *service_mocks.MockCatalogService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"Key: 'BorrowRequest.StudentName' Error:Field validation for 'StudentName' failed on the 'required' tag"}`,
			},
		},
		{
			name: "err. no copies",
			body: `{"studentName":"Ann","bookTitle":"Go"}`,
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().
					Borrow(context.Background(), gomock.Any()).
					Return(model.Loan{}, errors.Wrap(errs.ErrNoCopiesAvailable, "Go"))
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"Go: no copies available for borrowing"}`,
			},
		},
		{
			name: "err. unknown title",
			body: `{"studentName":"Ann","bookTitle":"Rust"}`,
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().
					Borrow(context.Background(), gomock.Any()).
					Return(model.Loan{}, errors.Wrap(errs.ErrNotFound, "Rust"))
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"Rust: not found"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, h, svc, _ := newEcho(t)
			e.POST("/loans", h.Borrow)

			r := httptest.NewRequest(http.MethodPost, "/loans", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_ReturnLoan(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockCatalogService)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().ReturnLoan(context.Background(), loanID).Return(nil)
			},
			response: response{
				expectedCode: http.StatusNoContent,
			},
		},
		{
			name: "err. book gone",
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().ReturnLoan(context.Background(), loanID).Return(errors.Wrap(errs.ErrNotFound, "Go"))
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"Go: not found"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, h, svc, _ := newEcho(t)
			e.POST("/loans/:loanId/return", h.ReturnLoan)

			r := httptest.NewRequest(http.MethodPost, "/loans/"+loanID+"/return", http.NoBody)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_StudentsByCategory(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockCatalogService)

	var tests = []struct {
		name         string
		query        string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name:  "ok",
			query: "?category=CS",
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().StudentsByCategory(context.Background(), "CS").Return([]string{"Ann", "Bob"}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `["Ann","Bob"]`,
			},
		},
		{
			name:         "err. category required",
			query:        "",
			mockBehavior: func(r *service_mocks.MockCatalogService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"category is required"}`,
			},
		},
		{
			name:  "err. no books in category",
			query: "?category=Poetry",
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().StudentsByCategory(context.Background(), "Poetry").
					Return(nil, errors.Wrap(errs.ErrNotFound, "category Poetry"))
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"category Poetry: not found"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, h, svc, _ := newEcho(t)
			e.GET("/reports/students-by-category", h.StudentsByCategory)

			r := httptest.NewRequest(http.MethodGet, "/reports/students-by-category"+tt.query, http.NoBody)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_Reports(t *testing.T) {
	t.Parallel()
	e, h, svc, _ := newEcho(t)
	e.GET("/reports/borrowed-details", h.BorrowedDetails)
	e.GET("/reports/multiple-borrows", h.StudentsWithMultipleBorrows)

	svc.EXPECT().BorrowedDetails(context.Background()).Return([]model.BorrowedDetail{
		{BookTitle: "Go", Category: model.UnknownField, Author: model.UnknownField, StudentName: "Ann", DueDate: borrowDate},
	}, nil)
	svc.EXPECT().StudentsWithMultipleBorrows(context.Background()).Return([]model.StudentBorrows{
		{StudentName: "Ann", Count: 2},
	}, nil)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/borrowed-details", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t,
		`[{"bookTitle":"Go","category":"Unknown","author":"Unknown","studentName":"Ann","dueDate":"2024-01-28T10:00:00Z"}]`,
		strings.Trim(w.Body.String(), "\n"))

	w = httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/multiple-borrows", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `[{"studentName":"Ann","count":2}]`, strings.Trim(w.Body.String(), "\n"))
}

// cancelOnFlush ends the request after the first event is written.
type cancelOnFlush struct {
	*httptest.ResponseRecorder
	cancel context.CancelFunc
}

func (w *cancelOnFlush) Flush() {
	w.ResponseRecorder.Flush()
	w.cancel()
}

func TestHandler_StreamBooks(t *testing.T) {
	t.Parallel()
	e, h, _, fd := newEcho(t)
	e.GET("/books/stream", h.StreamBooks)

	unsubscribed := false
	fd.EXPECT().
		Subscribe(gomock.Any(), model.CollectionBooks, gomock.Any()).
		DoAndReturn(func(_ context.Context, c model.Collection, fn func(feed.Snapshot)) (func(), error) {
			fn(feed.Snapshot{Collection: c, Items: []model.Book{{ID: bookID, Title: "Go", Author: "Pike", Copies: 1, CreatedAt: borrowDate}}})
			return func() { unsubscribed = true }, nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := httptest.NewRequest(http.MethodGet, "/books/stream", http.NoBody).WithContext(ctx)
	w := &cancelOnFlush{ResponseRecorder: httptest.NewRecorder(), cancel: cancel}

	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/event-stream", w.Header().Get(echo.HeaderContentType))
	require.Equal(t,
		"event: books\ndata: {\"collection\":\"books\",\"items\":[{\"id\":\"f7cdc58f-2caf-4b15-9727-f89dcc629b27\",\"title\":\"Go\",\"author\":\"Pike\",\"category\":\"\",\"copies\":1,\"createdAt\":\"2024-01-28T10:00:00Z\"}]}\n\n",
		w.Body.String())
	require.True(t, unsubscribed)
}

func TestHandler_StreamEndsOnShutdown(t *testing.T) {
	t.Parallel()
	e, h, _, fd := newEcho(t)
	e.GET("/loans/stream", h.StreamLoans)

	subscribed := make(chan struct{})
	fd.EXPECT().
		Subscribe(gomock.Any(), model.CollectionLoans, gomock.Any()).
		DoAndReturn(func(_ context.Context, c model.Collection, fn func(feed.Snapshot)) (func(), error) {
			fn(feed.Snapshot{Collection: c, Items: []model.Loan{}})
			close(subscribed)
			return func() {}, nil
		})

	w := httptest.NewRecorder()
	served := make(chan struct{})
	go func() {
		e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/loans/stream", http.NoBody))
		close(served)
	}()
	<-subscribed

	h.Shutdown()
	h.Shutdown()
	select {
	case <-served:
	case <-time.After(time.Second):
		t.Fatal("stream still open after shutdown")
	}
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_StreamLoansUnavailable(t *testing.T) {
	t.Parallel()
	e, h, _, fd := newEcho(t)
	e.GET("/loans/stream", h.StreamLoans)

	fd.EXPECT().
		Subscribe(gomock.Any(), model.CollectionLoans, gomock.Any()).
		Return(nil, errors.Wrap(errs.ErrStoreUnavailable, "circuit open"))

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/loans/stream", http.NoBody))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, `{"message":"circuit open: store unavailable"}`, strings.Trim(w.Body.String(), "\n"))
}

func TestHandler_Router(t *testing.T) {
	t.Parallel()
	_, h, svc, _ := newEcho(t)
	e := h.NewRouter()

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/manage/health", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())

	svc.EXPECT().Overdue(gomock.Any()).Return([]model.Loan{}, nil)
	w = httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reports/overdue", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `[]`, strings.Trim(w.Body.String(), "\n"))
	require.NotEmpty(t, w.Header().Get(echo.HeaderXRequestID))

	w = httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/authors", http.NoBody))
	require.Equal(t, http.StatusNotFound, w.Code)
}
