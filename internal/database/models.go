package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID           uuid.UUID
	Name         string
	StudentID    string
	Phone        pgtype.Text
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

type MenuItem struct {
	ID        uuid.UUID
	Name      string
	Price     pgtype.Numeric
	Category  string
	CreatedAt time.Time
}

type ThaliDay struct {
	Weekday     string
	Description string
}

type Order struct {
	ID            uuid.UUID
	StudentID     string
	ItemsDesc     string
	Total         pgtype.Numeric
	PaymentMethod string
	UpiReference  pgtype.Text
	OrderDate     pgtype.Date
	CreatedAt     time.Time
}
