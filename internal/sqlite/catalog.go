package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

// likeEscaper escapes LIKE wildcards in user text.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// catalogWhere builds the WHERE clause shared by the hit, count and facet
// queries.
func catalogWhere(q types.CatalogQuery) (string, []any) {
	var conds []string
	var args []any

	if text := strings.TrimSpace(q.Text); text != "" {
		conds = append(conds, `LOWER(name) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(text))+"%")
	}
	if q.ActiveOnly {
		conds = append(conds, "active = 1")
	}
	if q.Promoted != nil {
		conds = append(conds, "promoted = ?")
		args = append(args, *q.Promoted)
	}
	if len(q.OmitTypes) > 0 {
		conds = append(conds, "type NOT IN ("+placeholders(len(q.OmitTypes))+")")
		for _, t := range q.OmitTypes {
			args = append(args, t)
		}
	}
	if len(q.Types) > 0 {
		conds = append(conds, "type IN ("+placeholders(len(q.Types))+")")
		for _, t := range q.Types {
			args = append(args, t)
		}
	}
	if len(q.Sellers) > 0 {
		conds = append(conds, "uid IN ("+placeholders(len(q.Sellers))+")")
		for _, s := range q.Sellers {
			args = append(args, s)
		}
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// SearchCatalog returns one page of catalog entries whose name contains the
// query text, case-insensitively, together with type and seller facet counts
// over all matching entries.
func (b *Backend) SearchCatalog(ctx context.Context, q types.CatalogQuery) (types.CatalogResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	db, err := b.readyLocked()
	if err != nil {
		return types.CatalogResult{}, err
	}
	if q.Page < 0 {
		q.Page = 0
	}

	where, args := catalogWhere(q)
	res := types.CatalogResult{Page: q.Page}

	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM catalog"+where, args...).Scan(&res.TotalItems); err != nil {
		return types.CatalogResult{}, fmt.Errorf("counting catalog: %w", err)
	}
	switch {
	case res.TotalItems == 0:
		res.TotalPages = 0
	case q.Limit <= 0:
		res.TotalPages = 1
	default:
		res.TotalPages = (res.TotalItems + q.Limit - 1) / q.Limit
	}

	query := "SELECT object_id, name, price, type, uid, active, promoted FROM catalog" +
		where + " ORDER BY promoted DESC, name, object_id"
	pageArgs := args
	if q.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		pageArgs = append(append([]any{}, args...), q.Limit, q.Page*q.Limit)
	}
	rows, err := db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return types.CatalogResult{}, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e types.CatalogEntry
		if err := rows.Scan(&e.ObjectID, &e.Name, &e.Price, &e.Type, &e.UID, &e.Active, &e.Promoted); err != nil {
			return types.CatalogResult{}, fmt.Errorf("scanning catalog entry: %w", err)
		}
		res.Hits = append(res.Hits, e)
	}
	if err := rows.Err(); err != nil {
		return types.CatalogResult{}, fmt.Errorf("iterating catalog: %w", err)
	}
	rows.Close()

	res.Facets = make(map[string]map[string]int, 2)
	for _, facet := range []string{types.FacetType, types.FacetSeller} {
		counts, err := facetCounts(ctx, db, facet, where, args)
		if err != nil {
			return types.CatalogResult{}, err
		}
		res.Facets[facet] = counts
	}
	return res, nil
}

func facetCounts(ctx context.Context, db *sql.DB, column, where string, args []any) (map[string]int, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+column+", COUNT(*) FROM catalog"+where+" GROUP BY "+column, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s facet: %w", column, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var value string
		var n int
		if err := rows.Scan(&value, &n); err != nil {
			return nil, fmt.Errorf("scanning %s facet: %w", column, err)
		}
		if value != "" {
			counts[value] = n
		}
	}
	return counts, rows.Err()
}

// PutCatalogEntry inserts or replaces a catalog entry. Returns ErrInvalidID
// for an empty object id and ErrInvalidName for an empty name.
func (b *Backend) PutCatalogEntry(ctx context.Context, e types.CatalogEntry) error {
	if e.ObjectID == "" {
		return types.ErrInvalidID
	}
	if strings.TrimSpace(e.Name) == "" {
		return types.ErrInvalidName
	}
	if e.Price < 0 {
		return types.ErrInvalidData
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	db, err := b.readyLocked()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT OR REPLACE INTO catalog
        (object_id, name, price, type, uid, active, promoted) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ObjectID, e.Name, e.Price, e.Type, e.UID, e.Active, e.Promoted)
	if err != nil {
		return fmt.Errorf("storing catalog entry %s: %w", e.ObjectID, err)
	}
	return persistCatalogJSONL(ctx, db, b.config.DataDir)
}

func persistCatalogJSONL(ctx context.Context, db *sql.DB, dataDir string) error {
	rows, err := db.QueryContext(ctx,
		"SELECT object_id, name, price, type, uid, active, promoted FROM catalog ORDER BY object_id")
	if err != nil {
		return fmt.Errorf("querying catalog for JSONL: %w", err)
	}
	defer rows.Close()

	var recs []catalogJSON
	for rows.Next() {
		var r catalogJSON
		if err := rows.Scan(&r.ObjectID, &r.Name, &r.Price, &r.Type, &r.UID, &r.Active, &r.Promoted); err != nil {
			return fmt.Errorf("scanning catalog for JSONL: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return persistJSONL(dataDir, catalogJSONL, recs)
}

// PutOwner inserts or replaces a directory record.
func (b *Backend) PutOwner(ctx context.Context, o types.Owner) error {
	if o.ID == "" {
		return types.ErrInvalidID
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	db, err := b.readyLocked()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		"INSERT OR REPLACE INTO owners (uid, user_name, email) VALUES (?, ?, ?)",
		o.ID, o.Name, o.Email)
	if err != nil {
		return fmt.Errorf("storing owner %s: %w", o.ID, err)
	}
	return persistOwnersJSONL(ctx, db, b.config.DataDir)
}

func persistOwnersJSONL(ctx context.Context, db *sql.DB, dataDir string) error {
	rows, err := db.QueryContext(ctx, "SELECT uid, user_name, email FROM owners ORDER BY uid")
	if err != nil {
		return fmt.Errorf("querying owners for JSONL: %w", err)
	}
	defer rows.Close()

	var recs []ownerJSON
	for rows.Next() {
		var r ownerJSON
		if err := rows.Scan(&r.UID, &r.UserName, &r.Email); err != nil {
			return fmt.Errorf("scanning owner for JSONL: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return persistJSONL(dataDir, ownersJSONL, recs)
}

// GetOwnerDisplayName returns the owner's user name.
// Returns ErrNotFound for an unknown owner.
func (b *Backend) GetOwnerDisplayName(ctx context.Context, ownerID string) (string, error) {
	return b.ownerColumn(ctx, "user_name", ownerID)
}

// GetOwnerContact returns the owner's email address.
// Returns ErrNotFound for an unknown owner.
func (b *Backend) GetOwnerContact(ctx context.Context, ownerID string) (string, error) {
	return b.ownerColumn(ctx, "email", ownerID)
}

func (b *Backend) ownerColumn(ctx context.Context, column, ownerID string) (string, error) {
	if ownerID == "" {
		return "", types.ErrInvalidID
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	db, err := b.readyLocked()
	if err != nil {
		return "", err
	}
	var value string
	err = db.QueryRowContext(ctx, "SELECT "+column+" FROM owners WHERE uid = ?", ownerID).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", types.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("looking up owner %s: %w", ownerID, err)
	}
	return value, nil
}
