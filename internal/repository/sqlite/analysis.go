package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Houeta/buywise/internal/models"
	"github.com/Houeta/buywise/internal/repository"
)

const analysisColumns = "id, product_id, user_id, total_score, verdict, summary, pros, cons, key_features, analyzed_at"

// InsertAnalysis stores a new analysis and fills in its ID. A zero AnalyzedAt is set to now.
func (r *Repository) InsertAnalysis(ctx context.Context, result *models.AnalysisResult) error {
	const opn = "repository.sqlite.InsertAnalysis"

	if result.AnalyzedAt.IsZero() {
		result.AnalyzedAt = now()
	}

	var userID sql.NullInt64
	if result.UserID != nil {
		userID = sql.NullInt64{Int64: *result.UserID, Valid: true}
	}

	res, err := r.q.ExecContext(ctx, `
		INSERT INTO analysis_results (product_id, user_id, total_score, verdict, summary, pros, cons, key_features, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ProductID, userID, result.TotalScore, string(result.Verdict), result.Summary,
		result.Pros, result.Cons, result.KeyFeatures, result.AnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to insert analysis: %w", opn, err)
	}

	if result.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("%s: failed to read inserted id: %w", opn, err)
	}

	return nil
}

// FindAnalysisByID returns one analysis.
func (r *Repository) FindAnalysisByID(ctx context.Context, id int64) (*models.AnalysisResult, error) {
	const opn = "repository.sqlite.FindAnalysisByID"

	row := r.q.QueryRowContext(ctx, "SELECT "+analysisColumns+" FROM analysis_results WHERE id = ?", id)

	result, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return result, nil
}

// LatestAnalysis returns the newest analysis of a product.
func (r *Repository) LatestAnalysis(ctx context.Context, productID int64) (*models.AnalysisResult, error) {
	const opn = "repository.sqlite.LatestAnalysis"

	row := r.q.QueryRowContext(ctx, "SELECT "+analysisColumns+` FROM analysis_results
		WHERE product_id = ?
		ORDER BY analyzed_at DESC, id DESC
		LIMIT 1`,
		productID,
	)

	result, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return result, nil
}

// AnalysisHistory returns the analyses of a product, newest first. A non-nil
// userID restricts the list to that user.
func (r *Repository) AnalysisHistory(
	ctx context.Context,
	productID int64,
	userID *int64,
) ([]models.AnalysisResult, error) {
	const opn = "repository.sqlite.AnalysisHistory"

	query := "SELECT " + analysisColumns + " FROM analysis_results WHERE product_id = ?"
	args := []any{productID}
	if userID != nil {
		query += " AND user_id = ?"
		args = append(args, *userID)
	}
	query += " ORDER BY analyzed_at DESC, id DESC"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	defer rows.Close()

	var history []models.AnalysisResult
	for rows.Next() {
		result, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to scan analysis: %w", opn, err)
		}
		history = append(history, *result)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", opn, err)
	}

	return history, nil
}

func scanAnalysis(row scanner) (*models.AnalysisResult, error) {
	var (
		a       models.AnalysisResult
		userID  sql.NullInt64
		verdict string
	)
	err := row.Scan(
		&a.ID, &a.ProductID, &userID, &a.TotalScore, &verdict,
		&a.Summary, &a.Pros, &a.Cons, &a.KeyFeatures, &a.AnalyzedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Verdict = models.Verdict(verdict)
	if userID.Valid {
		a.UserID = &userID.Int64
	}

	return &a, nil
}
