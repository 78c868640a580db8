// Package postgres implements the repository store on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/rally/internal/adapters/repository"
	"github.com/okian/rally/internal/domain/model"
)

// Store implements repository.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New constructs a Store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ repository.Store = (*Store)(nil)

// CreateTeam inserts a team.
func (s *Store) CreateTeam(ctx context.Context, team model.Team) error {
	const query = `INSERT INTO teams (id, name, active, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := s.pool.Exec(ctx, query, team.ID, team.Name, team.Active, team.CreatedAt); err != nil {
		return fmt.Errorf("insert team: %w", err)
	}
	return nil
}

// GetTeam fetches a team by id.
func (s *Store) GetTeam(ctx context.Context, id string) (model.Team, error) {
	const query = `SELECT id, name, active, created_at FROM teams WHERE id = $1`
	var t model.Team
	row := s.pool.QueryRow(ctx, query, id)
	if err := row.Scan(&t.ID, &t.Name, &t.Active, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Team{}, fmt.Errorf("team %s: %w", id, repository.ErrNotFound)
		}
		return model.Team{}, fmt.Errorf("select team: %w", err)
	}
	return t, nil
}

// ListTeams returns all teams, newest first.
func (s *Store) ListTeams(ctx context.Context) ([]model.Team, error) {
	const query = `SELECT id, name, active, created_at FROM teams ORDER BY created_at DESC, id`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}
	defer rows.Close()

	teams := make([]model.Team, 0)
	for rows.Next() {
		var t model.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Active, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// CreateDonation inserts a donation.
func (s *Store) CreateDonation(ctx context.Context, donation model.Donation) error {
	const query = `INSERT INTO donations (id, team_id, amount, currency, user_id, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`
	if _, err := s.pool.Exec(ctx, query,
		donation.ID, donation.TeamID, donation.Amount, donation.Currency, donation.UserID, donation.CreatedAt); err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

// ListDonations returns all donations, newest first.
func (s *Store) ListDonations(ctx context.Context) ([]model.Donation, error) {
	const query = `SELECT id, team_id, amount, currency, COALESCE(user_id, ''), created_at
		FROM donations ORDER BY created_at DESC, id`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select donations: %w", err)
	}
	defer rows.Close()

	donations := make([]model.Donation, 0)
	for rows.Next() {
		var d model.Donation
		if err := rows.Scan(&d.ID, &d.TeamID, &d.Amount, &d.Currency, &d.UserID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		donations = append(donations, d)
	}
	return donations, rows.Err()
}

// CreateSale inserts a shirt sale.
func (s *Store) CreateSale(ctx context.Context, sale model.ShirtSale) error {
	const query = `INSERT INTO shirt_sales (id, team_id, quantity, sold_at) VALUES ($1, $2, $3, $4)`
	if _, err := s.pool.Exec(ctx, query, sale.ID, sale.TeamID, sale.Quantity, sale.SoldAt); err != nil {
		return fmt.Errorf("insert shirt sale: %w", err)
	}
	return nil
}

// ListSales returns all shirt sales, newest first.
func (s *Store) ListSales(ctx context.Context) ([]model.ShirtSale, error) {
	const query = `SELECT id, team_id, quantity, sold_at FROM shirt_sales ORDER BY sold_at DESC, id`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select shirt sales: %w", err)
	}
	defer rows.Close()

	sales := make([]model.ShirtSale, 0)
	for rows.Next() {
		var sale model.ShirtSale
		if err := rows.Scan(&sale.ID, &sale.TeamID, &sale.Quantity, &sale.SoldAt); err != nil {
			return nil, fmt.Errorf("scan shirt sale: %w", err)
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// CreatePhoto inserts a pending photo.
func (s *Store) CreatePhoto(ctx context.Context, photo model.Photo) error {
	const query = `INSERT INTO photos (id, team_id, url, approved, uploaded_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.pool.Exec(ctx, query, photo.ID, photo.TeamID, photo.URL, photo.Approved, photo.UploadedAt); err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	return nil
}

// GetPhoto fetches a photo by id.
func (s *Store) GetPhoto(ctx context.Context, id string) (model.Photo, error) {
	const query = `SELECT id, team_id, url, approved, uploaded_at FROM photos WHERE id = $1`
	var p model.Photo
	row := s.pool.QueryRow(ctx, query, id)
	if err := row.Scan(&p.ID, &p.TeamID, &p.URL, &p.Approved, &p.UploadedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Photo{}, fmt.Errorf("photo %s: %w", id, repository.ErrNotFound)
		}
		return model.Photo{}, fmt.Errorf("select photo: %w", err)
	}
	return p, nil
}

// ListPhotos returns photos, newest first, optionally filtered by approval.
func (s *Store) ListPhotos(ctx context.Context, approved *bool) ([]model.Photo, error) {
	const query = `SELECT id, team_id, url, approved, uploaded_at FROM photos
		WHERE $1::boolean IS NULL OR approved = $1
		ORDER BY uploaded_at DESC, id`
	rows, err := s.pool.Query(ctx, query, approved)
	if err != nil {
		return nil, fmt.Errorf("select photos: %w", err)
	}
	defer rows.Close()

	photos := make([]model.Photo, 0)
	for rows.Next() {
		var p model.Photo
		if err := rows.Scan(&p.ID, &p.TeamID, &p.URL, &p.Approved, &p.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// ApprovePhoto marks a photo approved and returns the updated record.
func (s *Store) ApprovePhoto(ctx context.Context, id string) (model.Photo, error) {
	const query = `UPDATE photos SET approved = TRUE WHERE id = $1
		RETURNING id, team_id, url, approved, uploaded_at`
	var p model.Photo
	row := s.pool.QueryRow(ctx, query, id)
	if err := row.Scan(&p.ID, &p.TeamID, &p.URL, &p.Approved, &p.UploadedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Photo{}, fmt.Errorf("photo %s: %w", id, repository.ErrNotFound)
		}
		return model.Photo{}, fmt.Errorf("approve photo: %w", err)
	}
	return p, nil
}

// DeletePhoto removes a photo record.
func (s *Store) DeletePhoto(ctx context.Context, id string) error {
	const query = `DELETE FROM photos WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("photo %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

// CreateUser inserts a user.
func (s *Store) CreateUser(ctx context.Context, user model.User) error {
	const query = `INSERT INTO users (id, name, team_id, role) VALUES ($1, $2, NULLIF($3, ''), $4)`
	if _, err := s.pool.Exec(ctx, query, user.ID, user.Name, user.TeamID, user.Role); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// ListUsers returns all users.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	const query = `SELECT id, name, COALESCE(team_id, ''), role FROM users ORDER BY id`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.TeamID, &u.Role); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// aggregateQuery gathers every team's event collections in one grouped
// retrieval. Member counts come from the same statement, so snapshot
// building never issues a query per team.
const aggregateQuery = `
SELECT t.id, t.name, t.created_at,
	COALESCE(d.amounts, '{}')    AS donation_amounts,
	COALESCE(s.quantities, '{}') AS sale_quantities,
	COALESCE(p.approved_count, 0),
	COALESCE(p.total_count, 0),
	COALESCE(u.member_count, 0)
FROM teams t
LEFT JOIN (
	SELECT team_id, array_agg(amount ORDER BY amount) AS amounts
	FROM donations GROUP BY team_id
) d ON d.team_id = t.id
LEFT JOIN (
	SELECT team_id, array_agg(quantity ORDER BY quantity) AS quantities
	FROM shirt_sales GROUP BY team_id
) s ON s.team_id = t.id
LEFT JOIN (
	SELECT team_id,
		COUNT(*) FILTER (WHERE approved) AS approved_count,
		COUNT(*)                         AS total_count
	FROM photos GROUP BY team_id
) p ON p.team_id = t.id
LEFT JOIN (
	SELECT team_id, COUNT(*) AS member_count
	FROM users WHERE team_id IS NOT NULL GROUP BY team_id
) u ON u.team_id = t.id
WHERE t.active
ORDER BY t.created_at, t.id`

// TeamAggregates returns aggregates for all active teams in one query.
func (s *Store) TeamAggregates(ctx context.Context) ([]model.TeamAggregate, error) {
	rows, err := s.pool.Query(ctx, aggregateQuery)
	if err != nil {
		return nil, fmt.Errorf("select team aggregates: %w", err)
	}
	defer rows.Close()

	aggregates := make([]model.TeamAggregate, 0)
	for rows.Next() {
		agg, err := scanAggregate(rows)
		if err != nil {
			return nil, err
		}
		aggregates = append(aggregates, agg)
	}
	return aggregates, rows.Err()
}

// TeamAggregate returns the aggregate for one active team.
func (s *Store) TeamAggregate(ctx context.Context, teamID string) (model.TeamAggregate, error) {
	rows, err := s.pool.Query(ctx, aggregateQuery)
	if err != nil {
		return model.TeamAggregate{}, fmt.Errorf("select team aggregate: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		agg, err := scanAggregate(rows)
		if err != nil {
			return model.TeamAggregate{}, err
		}
		if agg.TeamID == teamID {
			return agg, nil
		}
	}
	if err := rows.Err(); err != nil {
		return model.TeamAggregate{}, err
	}
	return model.TeamAggregate{}, fmt.Errorf("team %s: %w", teamID, repository.ErrNotFound)
}

func scanAggregate(rows pgx.Rows) (model.TeamAggregate, error) {
	var (
		agg        model.TeamAggregate
		quantities []int32
	)
	if err := rows.Scan(&agg.TeamID, &agg.Name, &agg.CreatedAt,
		&agg.DonationAmounts, &quantities,
		&agg.ApprovedPhotos, &agg.TotalPhotos, &agg.MemberCount); err != nil {
		return model.TeamAggregate{}, fmt.Errorf("scan team aggregate: %w", err)
	}
	agg.SaleQuantities = make([]int, len(quantities))
	for i, q := range quantities {
		agg.SaleQuantities[i] = int(q)
	}
	if agg.DonationAmounts == nil {
		agg.DonationAmounts = []float64{}
	}
	return agg, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
