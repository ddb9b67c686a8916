package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/misciohq/miscio/store"
)

func (d *DB) CreateStudent(ctx context.Context, create *store.Student) (*store.Student, error) {
	if err := d.db.QueryRowContext(ctx,
		`INSERT INTO student (uid, first_name, last_name, phone, created_ts) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		create.UID, create.FirstName, create.LastName, create.Phone, create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}
	return create, nil
}

func (d *DB) GetStudent(ctx context.Context, find *store.FindStudent) (*store.Student, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, uid, first_name, last_name, phone, created_ts
		FROM student WHERE ` + strings.Join(where, " AND ")
	student := &store.Student{}
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(
		&student.ID, &student.UID, &student.FirstName, &student.LastName, &student.Phone, &student.CreatedTs,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	return student, nil
}

func (d *DB) ListStudents(ctx context.Context) ([]*store.Student, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, uid, first_name, last_name, phone, created_ts FROM student ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Student, 0)
	for rows.Next() {
		student := &store.Student{}
		if err := rows.Scan(&student.ID, &student.UID, &student.FirstName, &student.LastName, &student.Phone, &student.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		list = append(list, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate students: %w", err)
	}

	return list, nil
}
