package calendar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	StoreEvent(ctx context.Context, userId int, event Event) (Event, error)
	GetEvent(ctx context.Context, userId int, uid string) (Event, error)
	GetEvents(ctx context.Context, userId int, from, to time.Time) ([]Event, error)
	UpdateEvent(ctx context.Context, userId int, event Event) (Event, error)
	DeleteEvent(ctx context.Context, userId int, uid string) error
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type RepositoryImpl struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) q() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *RepositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := fn(&RepositoryImpl{db: r.db, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const eventColumns = `uid, summary, description, start_time, end_time, priority, kind`

func (r *RepositoryImpl) StoreEvent(ctx context.Context, userId int, event Event) (Event, error) {
	query := `INSERT INTO calendar_event (uid, summary, description, start_time, end_time, priority, kind, user_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	event.UID = uuid.NewString()
	_, err := r.q().ExecContext(ctx, query,
		event.UID,
		event.Summary,
		event.Description,
		event.StartTime.UnixMilli(),
		event.EndTime.UnixMilli(),
		event.Metadata.Priority,
		string(event.Metadata.Kind),
		userId,
	)
	if err != nil {
		err := fmt.Errorf("could not store calendar event: %w", err)
		log.Error(err)
		return Event{}, err
	}
	return event, nil
}

func (r *RepositoryImpl) GetEvent(ctx context.Context, userId int, uid string) (Event, error) {
	query := `SELECT ` + eventColumns + ` FROM calendar_event WHERE user_id = $1 AND uid = $2`

	event, err := scanEvent(r.q().QueryRowContext(ctx, query, userId, uid))
	if errors.Is(err, sql.ErrNoRows) {
		return Event{}, ErrEventNotFound
	}
	if err != nil {
		err := fmt.Errorf("could not get calendar event %s: %w", uid, err)
		log.Error(err)
		return Event{}, err
	}
	return event, nil
}

// GetEvents returns events intersecting [from, to). Touching events are not included.
func (r *RepositoryImpl) GetEvents(ctx context.Context, userId int, from, to time.Time) ([]Event, error) {
	query := `SELECT ` + eventColumns + `
              FROM calendar_event
              WHERE user_id = $1
                AND start_time < $2
                AND end_time > $3
			  ORDER BY start_time, uid`

	rows, err := r.q().QueryContext(ctx, query, userId, to.UnixMilli(), from.UnixMilli())
	if err != nil {
		err := fmt.Errorf("could not query calendar events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0, 10)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			err := fmt.Errorf("could not scan row: %w", err)
			log.Error(err)
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over rows: %v", err)
		return nil, err
	}
	return events, nil
}

func (r *RepositoryImpl) UpdateEvent(ctx context.Context, userId int, event Event) (Event, error) {
	query := `UPDATE calendar_event
				SET summary = $1, description = $2, start_time = $3, end_time = $4, priority = $5, kind = $6
				WHERE uid = $7 AND user_id = $8`

	result, err := r.q().ExecContext(ctx, query,
		event.Summary,
		event.Description,
		event.StartTime.UnixMilli(),
		event.EndTime.UnixMilli(),
		event.Metadata.Priority,
		string(event.Metadata.Kind),
		event.UID,
		userId,
	)
	if err != nil {
		err := fmt.Errorf("could not update calendar event %s: %w", event.UID, err)
		log.Error(err)
		return Event{}, err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return Event{}, ErrEventNotFound
	}
	return event, nil
}

func (r *RepositoryImpl) DeleteEvent(ctx context.Context, userId int, uid string) error {
	query := `DELETE FROM calendar_event WHERE uid = $1 AND user_id = $2`

	result, err := r.q().ExecContext(ctx, query, uid, userId)
	if err != nil {
		err := fmt.Errorf("could not delete calendar event %s: %w", uid, err)
		log.Error(err)
		return err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrEventNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (Event, error) {
	var event Event
	var startMillis, endMillis int64
	var kind string
	err := row.Scan(
		&event.UID,
		&event.Summary,
		&event.Description,
		&startMillis,
		&endMillis,
		&event.Metadata.Priority,
		&kind,
	)
	if err != nil {
		return Event{}, err
	}
	event.StartTime = time.UnixMilli(startMillis).UTC()
	event.EndTime = time.UnixMilli(endMillis).UTC()
	event.Metadata.Kind = EventKind(kind)
	return event, nil
}
