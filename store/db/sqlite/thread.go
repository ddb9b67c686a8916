package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/misciohq/miscio/store"
)

// lastMessageLimit bounds the preview stored on the thread row.
const lastMessageLimit = 120

func (d *DB) CreateThread(ctx context.Context, create *store.Thread) (*store.Thread, error) {
	fields := []string{"uid", "admin_id", "assistant_id", "title", "last_message", "created_ts", "updated_ts"}
	args := []any{create.UID, create.AdminID, create.AssistantID, create.Title, create.LastMessage, create.CreatedTs, create.UpdatedTs}

	stmt := `INSERT INTO thread (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}

	return create, nil
}

func (d *DB) GetThread(ctx context.Context, find *store.FindThread) (*store.Thread, error) {
	list, err := d.ListThreads(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (d *DB) ListThreads(ctx context.Context, find *store.FindThread) ([]*store.Thread, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.AdminID; v != nil {
		where, args = append(where, "admin_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, uid, admin_id, assistant_id, title, last_message, created_ts, updated_ts
		FROM thread WHERE ` + strings.Join(where, " AND ") + ` ORDER BY updated_ts DESC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Thread, 0)
	for rows.Next() {
		thread := &store.Thread{}
		if err := rows.Scan(
			&thread.ID, &thread.UID, &thread.AdminID, &thread.AssistantID, &thread.Title, &thread.LastMessage, &thread.CreatedTs, &thread.UpdatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		list = append(list, thread)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate threads: %w", err)
	}

	return list, nil
}

func (d *DB) AppendThreadMessage(ctx context.Context, appendMessage *store.AppendMessage) (*store.Message, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	message := &store.Message{
		ThreadID:  appendMessage.ThreadID,
		Role:      appendMessage.Role,
		Content:   appendMessage.Content,
		CreatedTs: appendMessage.CreatedTs,
	}
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO message (thread_id, role, content, created_ts) VALUES (?, ?, ?, ?) RETURNING id`,
		message.ThreadID, message.Role, message.Content, message.CreatedTs,
	).Scan(&message.ID); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	preview := appendMessage.Content
	if len(preview) > lastMessageLimit {
		preview = preview[:lastMessageLimit]
	}
	result, err := tx.ExecContext(ctx,
		`UPDATE thread SET last_message = ?, updated_ts = ? WHERE id = ?`,
		preview, appendMessage.CreatedTs, appendMessage.ThreadID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update thread activity: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("thread %d not found", appendMessage.ThreadID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message append: %w", err)
	}

	return message, nil
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ThreadID; v != nil {
		where, args = append(where, "thread_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, thread_id, role, content, created_ts
		FROM message WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Message, 0)
	for rows.Next() {
		message := &store.Message{}
		if err := rows.Scan(&message.ID, &message.ThreadID, &message.Role, &message.Content, &message.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		list = append(list, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return list, nil
}
