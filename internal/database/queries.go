package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// --- Users ---

const createUserSQL = `
	INSERT INTO users (name, student_id, phone, password_hash, role)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, name, student_id, phone, password_hash, role, created_at`

type CreateUserParams struct {
	Name         string
	StudentID    string
	Phone        pgtype.Text
	PasswordHash string
	Role         string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUserSQL,
		arg.Name, arg.StudentID, arg.Phone, arg.PasswordHash, arg.Role)
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.StudentID, &u.Phone, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

const getUserByStudentIDSQL = `
	SELECT id, name, student_id, phone, password_hash, role, created_at
	FROM users WHERE student_id = $1`

func (q *Queries) GetUserByStudentID(ctx context.Context, studentID string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByStudentIDSQL, studentID)
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.StudentID, &u.Phone, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

// --- Menu ---

const listMenuItemsSQL = `
	SELECT id, name, price, category, created_at
	FROM menu_items ORDER BY category, name`

func (q *Queries) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItemsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		var m MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Price, &m.Category, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const getMenuItemByNameSQL = `
	SELECT id, name, price, category, created_at
	FROM menu_items WHERE name = $1`

func (q *Queries) GetMenuItemByName(ctx context.Context, name string) (MenuItem, error) {
	row := q.db.QueryRow(ctx, getMenuItemByNameSQL, name)
	var m MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.Price, &m.Category, &m.CreatedAt)
	return m, err
}

const createMenuItemSQL = `
	INSERT INTO menu_items (name, price, category)
	VALUES ($1, $2, $3)
	RETURNING id, name, price, category, created_at`

type CreateMenuItemParams struct {
	Name     string
	Price    pgtype.Numeric
	Category string
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, createMenuItemSQL, arg.Name, arg.Price, arg.Category)
	var m MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.Price, &m.Category, &m.CreatedAt)
	return m, err
}

const deleteMenuItemByNameSQL = `DELETE FROM menu_items WHERE name = $1`

func (q *Queries) DeleteMenuItemByName(ctx context.Context, name string) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteMenuItemByNameSQL, name)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// --- Weekly thali schedule ---

const listThaliScheduleSQL = `
	SELECT weekday, description FROM thali_schedule
	ORDER BY CASE weekday
		WHEN 'Monday' THEN 1 WHEN 'Tuesday' THEN 2 WHEN 'Wednesday' THEN 3
		WHEN 'Thursday' THEN 4 WHEN 'Friday' THEN 5 WHEN 'Saturday' THEN 6
		ELSE 7 END`

func (q *Queries) ListThaliSchedule(ctx context.Context) ([]ThaliDay, error) {
	rows, err := q.db.Query(ctx, listThaliScheduleSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []ThaliDay
	for rows.Next() {
		var d ThaliDay
		if err := rows.Scan(&d.Weekday, &d.Description); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

const upsertThaliDaySQL = `
	INSERT INTO thali_schedule (weekday, description)
	VALUES ($1, $2)
	ON CONFLICT (weekday) DO UPDATE SET description = EXCLUDED.description`

func (q *Queries) UpsertThaliDay(ctx context.Context, arg ThaliDay) error {
	_, err := q.db.Exec(ctx, upsertThaliDaySQL, arg.Weekday, arg.Description)
	return err
}

// --- Orders ---

const createOrderSQL = `
	INSERT INTO orders (student_id, items_desc, total, payment_method, upi_reference, order_date)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, student_id, items_desc, total, payment_method, upi_reference, order_date, created_at`

type CreateOrderParams struct {
	StudentID     string
	ItemsDesc     string
	Total         pgtype.Numeric
	PaymentMethod string
	UpiReference  pgtype.Text
	OrderDate     pgtype.Date
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrderSQL,
		arg.StudentID, arg.ItemsDesc, arg.Total, arg.PaymentMethod, arg.UpiReference, arg.OrderDate)
	var o Order
	err := row.Scan(&o.ID, &o.StudentID, &o.ItemsDesc, &o.Total,
		&o.PaymentMethod, &o.UpiReference, &o.OrderDate, &o.CreatedAt)
	return o, err
}

const listOrdersByStudentSQL = `
	SELECT id, student_id, items_desc, total, payment_method, upi_reference, order_date, created_at
	FROM orders WHERE student_id = $1
	ORDER BY order_date DESC, created_at DESC`

func (q *Queries) ListOrdersByStudent(ctx context.Context, studentID string) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByStudentSQL, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.StudentID, &o.ItemsDesc, &o.Total,
			&o.PaymentMethod, &o.UpiReference, &o.OrderDate, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const getOrderStatsSQL = `
	SELECT COUNT(*), COALESCE(SUM(total), 0) FROM orders`

type OrderStatsRow struct {
	TotalOrders  int64
	TotalRevenue pgtype.Numeric
}

func (q *Queries) GetOrderStats(ctx context.Context) (OrderStatsRow, error) {
	row := q.db.QueryRow(ctx, getOrderStatsSQL)
	var s OrderStatsRow
	err := row.Scan(&s.TotalOrders, &s.TotalRevenue)
	return s, err
}
