package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/geneva/internal/model"
)

// PostgresQueryRepo はPostgreSQLを使用したクエリ履歴リポジトリ。
type PostgresQueryRepo struct {
	db *sql.DB
}

// NewPostgresQueryRepo はPostgresQueryRepoを生成する。
func NewPostgresQueryRepo(db *sql.DB) *PostgresQueryRepo {
	return &PostgresQueryRepo{db: db}
}

// Create はクエリ履歴を1件追記する。
// summary_responseは要約を実行しなかった場合NULLになる。
func (r *PostgresQueryRepo) Create(ctx context.Context, query *model.UserQuery) error {
	// json.RawMessageがnilのままだとNULLではなく不正なJSONBになるため変換する
	var summary any
	if query.SummaryResponse != nil {
		summary = []byte(query.SummaryResponse)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_queries (id, user_id, gene, disease, association_response, summary_response, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		query.ID, query.UserID, query.Gene, query.Disease,
		[]byte(query.AssociationResponse), summary, query.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user query: %w", err)
	}

	return nil
}

// ListByUserID は指定ユーザーのクエリ履歴を挿入順（created_at昇順）で返す。
func (r *PostgresQueryRepo) ListByUserID(ctx context.Context, userID string) ([]*model.UserQuery, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, gene, disease, association_response, summary_response, created_at
		 FROM user_queries
		 WHERE user_id = $1
		 ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user queries: %w", err)
	}
	defer rows.Close()

	var queries []*model.UserQuery
	for rows.Next() {
		q := &model.UserQuery{}
		var summary []byte
		if err := rows.Scan(
			&q.ID, &q.UserID, &q.Gene, &q.Disease,
			(*[]byte)(&q.AssociationResponse), &summary, &q.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user query: %w", err)
		}
		if summary != nil {
			q.SummaryResponse = summary
		}
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user queries: %w", err)
	}

	return queries, nil
}

// compile-time interface check
var _ QueryRepository = (*PostgresQueryRepo)(nil)
