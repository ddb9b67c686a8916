package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/misciohq/miscio/store"
)

func (d *DB) CreateCampaign(ctx context.Context, create *store.Campaign) (*store.Campaign, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// The single-active invariant: everything active becomes inactive before
	// the new campaign is inserted.
	if _, err := tx.ExecContext(ctx,
		`UPDATE campaign SET status = 'inactive' WHERE status = 'active'`,
	); err != nil {
		return nil, fmt.Errorf("failed to deactivate campaigns: %w", err)
	}

	create.Status = store.CampaignStatusActive
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO campaign (uid, description, admin_id, status, created_ts) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		create.UID, create.Description, create.AdminID, create.Status, create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit campaign creation: %w", err)
	}

	return create, nil
}

func (d *DB) GetCampaign(ctx context.Context, find *store.FindCampaign) (*store.Campaign, error) {
	list, err := d.ListCampaigns(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (d *DB) ListCampaigns(ctx context.Context, find *store.FindCampaign) ([]*store.Campaign, error) {
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
	if v := find.Status; v != nil {
		where, args = append(where, "status = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, uid, description, admin_id, status, created_ts
		FROM campaign WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC, id DESC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Campaign, 0)
	for rows.Next() {
		campaign := &store.Campaign{}
		if err := rows.Scan(&campaign.ID, &campaign.UID, &campaign.Description, &campaign.AdminID, &campaign.Status, &campaign.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		list = append(list, campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate campaigns: %w", err)
	}

	return list, nil
}

func (d *DB) CreateInteraction(ctx context.Context, create *store.Interaction) (*store.Interaction, error) {
	if err := d.db.QueryRowContext(ctx,
		`INSERT INTO interaction (campaign_id, student_id, message, type, status, created_ts) VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		create.CampaignID, create.StudentID, create.Message, create.Type, create.Status, create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create interaction: %w", err)
	}
	return create, nil
}

func (d *DB) CountInteractions(ctx context.Context, find *store.FindInteraction) (int64, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.CampaignID; v != nil {
		where, args = append(where, "campaign_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.StudentID; v != nil {
		where, args = append(where, "student_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Type; v != nil {
		where, args = append(where, "type = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Status; v != nil {
		where, args = append(where, "status = "+placeholder(len(args)+1)), append(args, *v)
	}

	var count int64
	query := `SELECT COUNT(*) FROM interaction WHERE ` + strings.Join(where, " AND ")
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count interactions: %w", err)
	}
	return count, nil
}

func (d *DB) SearchInteractions(ctx context.Context, query string, limit int) ([]*store.InteractionHit, error) {
	match := ftsMatchQuery(query)
	if match == "" {
		return []*store.InteractionHit{}, nil
	}

	// bm25 returns smaller-is-better; negate so hits order by descending score.
	stmt := `SELECT
			s.first_name || ' ' || s.last_name AS student_name,
			COALESCE(c.description, 'Unknown Campaign') AS campaign_description,
			i.message, i.type, i.status, i.created_ts,
			-bm25(interaction_fts) AS score
		FROM interaction_fts
		JOIN interaction i ON i.id = interaction_fts.rowid
		JOIN student s ON s.id = i.student_id
		LEFT JOIN campaign c ON c.id = i.campaign_id
		WHERE interaction_fts MATCH ?
		ORDER BY score DESC
		LIMIT ?`
	rows, err := d.db.QueryContext(ctx, stmt, match, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search interactions: %w", err)
	}
	defer rows.Close()

	list := make([]*store.InteractionHit, 0)
	for rows.Next() {
		hit := &store.InteractionHit{}
		if err := rows.Scan(&hit.StudentName, &hit.CampaignDescription, &hit.Message, &hit.Type, &hit.Status, &hit.CreatedTs, &hit.Score); err != nil {
			return nil, fmt.Errorf("failed to scan interaction hit: %w", err)
		}
		list = append(list, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interaction hits: %w", err)
	}

	return list, nil
}
