package catalog

import (
	"database/sql"
	"os"
	"path/filepath"

	"codeberg.org/mutker/scadactl/internal/errors"
	"codeberg.org/mutker/scadactl/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

const defaultDirPerm = 0o755

type repository struct {
	db *sql.DB
}

// NewRepository opens (and initializes if needed) the sqlite-backed point
// catalog at dbPath.
func NewRepository(dbPath string) (Store, error) {
	errFactory := errors.New()

	if dbPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  dbPath,
			Error: err.Error(),
		})
	}

	dsn := dbPath + "?_journal=WAL&_auto_vacuum=2"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().
		Str("path", dbPath).
		Int("schema_version", SchemaVersion).
		Msg("Point catalog opened")

	return &repository{db: db}, nil
}

func (r *repository) List() ([]Point, error) {
	errFactory := errors.New()

	rows, err := r.db.Query(`
        SELECT name, xid, friendly_name, unit, min_val, max_val
        FROM points
        ORDER BY position, name
    `)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrOperationFailed, err)
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var p Point
		var minVal, maxVal sql.NullFloat64
		if err := rows.Scan(&p.Name, &p.XID, &p.FriendlyName, &p.Unit, &minVal, &maxVal); err != nil {
			return nil, errFactory.Wrap(errors.ErrOperationFailed, err)
		}
		if minVal.Valid {
			p.MinVal = &minVal.Float64
		}
		if maxVal.Valid {
			p.MaxVal = &maxVal.Float64
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(errors.ErrOperationFailed, err)
	}

	return points, nil
}

func (r *repository) Get(name string) (*Point, error) {
	errFactory := errors.New()

	var p Point
	var minVal, maxVal sql.NullFloat64
	err := r.db.QueryRow(`
        SELECT name, xid, friendly_name, unit, min_val, max_val
        FROM points
        WHERE name = ?
    `, name).Scan(&p.Name, &p.XID, &p.FriendlyName, &p.Unit, &minVal, &maxVal)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errFactory.WithData(ErrPointNotFound, name)
	}
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrOperationFailed, err)
	}
	if minVal.Valid {
		p.MinVal = &minVal.Float64
	}
	if maxVal.Valid {
		p.MaxVal = &maxVal.Float64
	}

	return &p, nil
}

func (r *repository) Add(point Point) error {
	errFactory := errors.New()

	var exists bool
	if err := r.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM points WHERE name = ?)`, point.Name).Scan(&exists); err != nil {
		return errFactory.Wrap(errors.ErrOperationFailed, err)
	}
	if exists {
		return errFactory.WithData(ErrPointExists, point.Name)
	}

	_, err := r.db.Exec(`
        INSERT INTO points (name, xid, friendly_name, unit, min_val, max_val, position)
        VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM points))
    `, point.Name, point.XID, point.FriendlyName, point.Unit, nullable(point.MinVal), nullable(point.MaxVal))
	if err != nil {
		return errFactory.Wrap(errors.ErrOperationFailed, err)
	}

	logger.Info().Str("name", point.Name).Str("xid", point.XID).Msg("Point added to catalog")

	return nil
}

func (r *repository) Update(point Point) error {
	errFactory := errors.New()

	res, err := r.db.Exec(`
        UPDATE points
        SET xid = ?, friendly_name = ?, unit = ?, min_val = ?, max_val = ?
        WHERE name = ?
    `, point.XID, point.FriendlyName, point.Unit, nullable(point.MinVal), nullable(point.MaxVal), point.Name)
	if err != nil {
		return errFactory.Wrap(errors.ErrOperationFailed, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errFactory.Wrap(errors.ErrOperationFailed, err)
	}
	if affected == 0 {
		return errFactory.WithData(ErrPointNotFound, point.Name)
	}

	return nil
}

func (r *repository) Delete(name string) error {
	errFactory := errors.New()

	res, err := r.db.Exec(`DELETE FROM points WHERE name = ?`, name)
	if err != nil {
		return errFactory.Wrap(errors.ErrOperationFailed, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errFactory.Wrap(errors.ErrOperationFailed, err)
	}
	if affected == 0 {
		return errFactory.WithData(ErrPointNotFound, name)
	}

	logger.Info().Str("name", name).Msg("Point removed from catalog")

	return nil
}

// Reorder rewrites point positions to match the given name order. Points
// not listed keep their relative order after the listed ones.
func (r *repository) Reorder(names []string) error {
	errFactory := errors.New()

	if len(names) == 0 {
		return errFactory.New(ErrEmptyOrder)
	}

	current, err := r.List()
	if err != nil {
		return err
	}

	byName := make(map[string]Point, len(current))
	for _, p := range current {
		byName[p.Name] = p
	}

	ordered := make([]string, 0, len(current))
	for _, name := range names {
		if _, ok := byName[name]; ok {
			ordered = append(ordered, name)
			delete(byName, name)
		}
	}
	for _, p := range current {
		if _, ok := byName[p.Name]; ok {
			ordered = append(ordered, p.Name)
		}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	for position, name := range ordered {
		if _, err := tx.Exec(`UPDATE points SET position = ? WHERE name = ?`, position, name); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error().Err(rbErr).Msg("Failed to roll back transaction")
			}
			return errFactory.Wrap(ErrTransactionFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	return nil
}

// Seed inserts the given points when the catalog is empty; a populated
// catalog is left untouched.
func (r *repository) Seed(points []Point) error {
	errFactory := errors.New()

	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM points`).Scan(&count); err != nil {
		return errFactory.Wrap(errors.ErrOperationFailed, err)
	}
	if count > 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	for position, p := range points {
		if _, err := tx.Exec(`
            INSERT INTO points (name, xid, friendly_name, unit, min_val, max_val, position)
            VALUES (?, ?, ?, ?, ?, ?, ?)
        `, p.Name, p.XID, p.FriendlyName, p.Unit, nullable(p.MinVal), nullable(p.MaxVal), position); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error().Err(rbErr).Msg("Failed to roll back transaction")
			}
			return errFactory.Wrap(ErrTransactionFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	logger.Info().Int("points", len(points)).Msg("Seeded empty catalog with default points")

	return nil
}

func (r *repository) Close() error {
	if err := r.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	return nil
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}

	return *v
}
