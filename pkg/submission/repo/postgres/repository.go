// Package postgres implements the record store on PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatficdb/chatficdb/pkg/submission"
)

// DBTX is satisfied by both a pgx pool and a transaction.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements submission.Repository using PostgreSQL.
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository.
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with a connection pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "global_id") {
				return fmt.Errorf("global identifier already in use")
			}
			return fmt.Errorf("duplicate entry")
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

const submissionColumns = `id, title, description, author, story_text,
	COALESCE(story_global_id, ''), series_id, story_id,
	files_list, upload_grants, logs, status, submitted_at, updated_at`

func (r *Repository) CreateSubmission(ctx context.Context, sub *submission.Submission) error {
	files, grants, logs, err := marshalSubmissionJSON(sub)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO story_submissions (
			title, description, author, story_text, story_global_id,
			series_id, story_id, files_list, upload_grants, logs, status,
			submitted_at, updated_at
		) VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	err = r.db.QueryRow(ctx, query,
		sub.Title, sub.Description, sub.Author, sub.StoryText, sub.StoryGlobalID,
		sub.SeriesID, sub.StoryID, files, grants, logs, int(sub.Status),
		sub.SubmittedAt, sub.UpdatedAt).Scan(&sub.ID)
	if err != nil {
		return r.handlePostgresError("create submission", err)
	}
	return nil
}

func (r *Repository) GetSubmission(ctx context.Context, id int64) (*submission.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM story_submissions WHERE id = $1`
	sub, err := scanSubmission(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, submission.ErrSubmissionNotFound
		}
		return nil, r.handlePostgresError("get submission", err)
	}
	return sub, nil
}

func (r *Repository) UpdateSubmission(ctx context.Context, sub *submission.Submission) error {
	files, grants, logs, err := marshalSubmissionJSON(sub)
	if err != nil {
		return err
	}

	query := `
		UPDATE story_submissions SET
			title = $2, description = $3, author = $4, story_text = $5,
			story_global_id = NULLIF($6, ''), series_id = $7, story_id = $8,
			files_list = $9, upload_grants = $10, logs = $11, status = $12,
			updated_at = $13
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		sub.ID, sub.Title, sub.Description, sub.Author, sub.StoryText,
		sub.StoryGlobalID, sub.SeriesID, sub.StoryID, files, grants, logs,
		int(sub.Status), sub.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update submission", err)
	}
	if tag.RowsAffected() == 0 {
		return submission.ErrSubmissionNotFound
	}
	return nil
}

func (r *Repository) ListSubmissions(ctx context.Context, filters submission.SubmissionFilters) ([]*submission.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM story_submissions`
	var conds []string
	var args []interface{}

	if filters.Status != nil {
		args = append(args, int(*filters.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filters.Linked != nil {
		if *filters.Linked {
			conds = append(conds, "story_id IS NOT NULL")
		} else {
			conds = append(conds, "story_id IS NULL")
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filters.Offset > 0 {
		args = append(args, filters.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list submissions", err)
	}
	defer rows.Close()

	var result []*submission.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, r.handlePostgresError("list submissions", err)
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}

func (r *Repository) GlobalIDInUse(ctx context.Context, globalID string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM story_submissions WHERE story_global_id = $1)
		    OR EXISTS (SELECT 1 FROM stories WHERE story_global_id = $1)`

	var inUse bool
	if err := r.db.QueryRow(ctx, query, globalID).Scan(&inUse); err != nil {
		return false, r.handlePostgresError("check global id", err)
	}
	return inUse, nil
}

func (r *Repository) CreateStory(ctx context.Context, story *submission.Story) error {
	query := `
		INSERT INTO stories (
			title, description, author, story_global_id, series_id,
			release_date, exclude_from_rss
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		story.Title, story.Description, story.Author, story.GlobalID,
		story.SeriesID, story.ReleaseDate, story.ExcludeFromRSS).Scan(&story.ID)
	if err != nil {
		return r.handlePostgresError("create story", err)
	}
	return nil
}

func (r *Repository) GetStoryByGlobalID(ctx context.Context, globalID string) (*submission.Story, error) {
	query := `
		SELECT id, title, description, author, story_global_id, series_id,
		       release_date, exclude_from_rss
		FROM stories WHERE story_global_id = $1`

	var story submission.Story
	err := r.db.QueryRow(ctx, query, globalID).Scan(
		&story.ID, &story.Title, &story.Description, &story.Author,
		&story.GlobalID, &story.SeriesID, &story.ReleaseDate, &story.ExcludeFromRSS)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, submission.ErrStoryNotFound
		}
		return nil, r.handlePostgresError("get story", err)
	}
	return &story, nil
}

func (r *Repository) ListStories(ctx context.Context, filters submission.StoryFilters) ([]*submission.Story, error) {
	query := `
		SELECT id, title, description, author, story_global_id, series_id,
		       release_date, exclude_from_rss
		FROM stories`
	var args []interface{}

	if filters.SeriesID != nil {
		args = append(args, *filters.SeriesID)
		query += fmt.Sprintf(" WHERE series_id = $%d", len(args))
	}
	query += " ORDER BY id"
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filters.Offset > 0 {
		args = append(args, filters.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list stories", err)
	}
	defer rows.Close()

	var result []*submission.Story
	for rows.Next() {
		var story submission.Story
		if err := rows.Scan(
			&story.ID, &story.Title, &story.Description, &story.Author,
			&story.GlobalID, &story.SeriesID, &story.ReleaseDate, &story.ExcludeFromRSS); err != nil {
			return nil, r.handlePostgresError("list stories", err)
		}
		result = append(result, &story)
	}
	return result, rows.Err()
}

func (r *Repository) GetSeries(ctx context.Context, id int64) (*submission.Series, error) {
	query := `
		SELECT id, name, series_global_id, creator, episodes
		FROM series WHERE id = $1`

	var series submission.Series
	err := r.db.QueryRow(ctx, query, id).Scan(
		&series.ID, &series.Name, &series.GlobalID, &series.Creator, &series.Episodes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, submission.ErrSeriesNotFound
		}
		return nil, r.handlePostgresError("get series", err)
	}
	return &series, nil
}

func marshalSubmissionJSON(sub *submission.Submission) (files, grants, logs []byte, err error) {
	if files, err = json.Marshal(orEmpty(sub.Files)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal files_list: %w", err)
	}
	if grants, err = json.Marshal(orEmpty(sub.Grants)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal upload_grants: %w", err)
	}
	if logs, err = json.Marshal(orEmpty(sub.Logs)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal logs: %w", err)
	}
	return files, grants, logs, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func scanSubmission(row pgx.Row) (*submission.Submission, error) {
	var sub submission.Submission
	var files, grants, logs []byte
	var status int

	err := row.Scan(
		&sub.ID, &sub.Title, &sub.Description, &sub.Author, &sub.StoryText,
		&sub.StoryGlobalID, &sub.SeriesID, &sub.StoryID,
		&files, &grants, &logs, &status, &sub.SubmittedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}

	sub.Status = submission.Status(status)
	if err := json.Unmarshal(files, &sub.Files); err != nil {
		return nil, fmt.Errorf("unmarshal files_list: %w", err)
	}
	if err := json.Unmarshal(grants, &sub.Grants); err != nil {
		return nil, fmt.Errorf("unmarshal upload_grants: %w", err)
	}
	if err := json.Unmarshal(logs, &sub.Logs); err != nil {
		return nil, fmt.Errorf("unmarshal logs: %w", err)
	}
	return &sub, nil
}
