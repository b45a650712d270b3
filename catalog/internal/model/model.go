package model

import (
	"strings"
	"time"
)

type Collection string

const (
	CollectionBooks Collection = "books"
	CollectionLoans Collection = "borrowedBooks"
)

// UnknownField is reported for author and category of loans whose book cannot be resolved.
const UnknownField = "Unknown"

type Book struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Author    string    `json:"author" db:"author"`
	Category  string    `json:"category" db:"category"`
	Copies    int       `json:"copies" db:"copies"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type Loan struct {
	ID          string    `json:"id" db:"id"`
	StudentName string    `json:"studentName" db:"student_name"`
	BookID      *string   `json:"bookId,omitempty" db:"book_id"`
	BookTitle   string    `json:"bookTitle" db:"book_title"`
	BorrowDate  time.Time `json:"borrowDate" db:"borrow_date"`
	DueDate     time.Time `json:"dueDate" db:"due_date"`
}

type ListBooks struct {
	Paging `json:",inline"`
	Items  []Book `json:"items"`
}

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type BookFilter struct {
	Title    string
	Category string
	Page     int
	Size     int
}

type LoanFilter struct {
	StudentName string
	BookIDs     []string
	// DueBefore selects loans with due_date strictly before it; zero means no bound.
	DueBefore time.Time
}

type BookRequest struct {
	Title    string `json:"title" validate:"required"`
	Author   string `json:"author" validate:"required"`
	Category string `json:"category"`
	Copies   *int   `json:"copies" validate:"required"`
}

func (r *BookRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	r.Category = strings.TrimSpace(r.Category)
}

type BorrowRequest struct {
	StudentName string `json:"studentName" validate:"required"`
	BookTitle   string `json:"bookTitle" validate:"required"`
}

func (r *BorrowRequest) Normalize() {
	r.StudentName = strings.TrimSpace(r.StudentName)
	r.BookTitle = strings.TrimSpace(r.BookTitle)
}

type BorrowedDetail struct {
	BookTitle   string    `json:"bookTitle"`
	Category    string    `json:"category"`
	Author      string    `json:"author"`
	StudentName string    `json:"studentName"`
	DueDate     time.Time `json:"dueDate"`
}

type StudentBorrows struct {
	StudentName string `json:"studentName"`
	Count       int    `json:"count"`
}
