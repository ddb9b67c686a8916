package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/misciohq/miscio/store"
)

func (d *DB) CreateAdmin(ctx context.Context, create *store.Admin) (*store.Admin, error) {
	fields := []string{"uid", "username", "email", "password_hash", "assistant_id", "thread_id", "created_ts"}
	args := []any{create.UID, create.Username, create.Email, create.PasswordHash, create.AssistantID, create.ThreadID, create.CreatedTs}

	stmt := `INSERT INTO admin (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	return create, nil
}

func (d *DB) GetAdmin(ctx context.Context, find *store.FindAdmin) (*store.Admin, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Username; v != nil {
		where, args = append(where, "username = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, uid, username, email, password_hash, assistant_id, thread_id, created_ts
		FROM admin WHERE ` + strings.Join(where, " AND ")
	admin := &store.Admin{}
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(
		&admin.ID, &admin.UID, &admin.Username, &admin.Email, &admin.PasswordHash, &admin.AssistantID, &admin.ThreadID, &admin.CreatedTs,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	return admin, nil
}

func (d *DB) UpdateAdmin(ctx context.Context, update *store.UpdateAdmin) (*store.Admin, error) {
	set, args := []string{}, []any{}

	if v := update.AssistantID; v != nil {
		set, args = append(set, "assistant_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.ThreadID; v != nil {
		set, args = append(set, "thread_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	args = append(args, update.ID)
	stmt := `UPDATE admin SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, username, email, password_hash, assistant_id, thread_id, created_ts`
	admin := &store.Admin{}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&admin.ID, &admin.UID, &admin.Username, &admin.Email, &admin.PasswordHash, &admin.AssistantID, &admin.ThreadID, &admin.CreatedTs,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("admin not found")
		}
		return nil, fmt.Errorf("failed to update admin: %w", err)
	}

	return admin, nil
}
