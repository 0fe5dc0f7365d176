// FilePath: internal/repository/timescale/timescale.datapoints.go
package timescale

import (
	"context"
	"database/sql"
	"time"

	"github.com/hivetool/apiaryhub/internal/database"
	"github.com/hivetool/apiaryhub/internal/errors"
	"github.com/hivetool/apiaryhub/internal/models"
	"github.com/lib/pq"
	nuts "github.com/vaudience/go-nuts"
)

type DatapointRepo struct {
	db database.DB
}

func NewDatapointRepository(db database.DB) (*DatapointRepo, error) {
	repo := &DatapointRepo{db: db}
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *DatapointRepo) initializeSchema() error {
	// Hypertable for the append-only datapoint series, keyed by device
	// serial so the series can scale independently of the app database.
	queries := []string{
		`CREATE TABLE IF NOT EXISTS datapoints (
			id TEXT NOT NULL,
			serial TEXT NOT NULL,
			time TIMESTAMPTZ NOT NULL,
			raw_x DOUBLE PRECISION NOT NULL,
			raw_y DOUBLE PRECISION NOT NULL,
			temp DOUBLE PRECISION NOT NULL,
			humidity DOUBLE PRECISION NOT NULL,
			windspeed DOUBLE PRECISION NOT NULL,
			pred_x DOUBLE PRECISION NOT NULL,
			pred_y DOUBLE PRECISION NOT NULL,
			last_prediction_deviation DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,
		`SELECT create_hypertable('datapoints', 'time',
			chunk_time_interval => INTERVAL '1 day',
			if_not_exists => TRUE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_datapoints_serial_time
			ON datapoints(serial, time DESC)`,
	}

	for _, query := range queries {
		if _, err := r.db.GetDB().Exec(query); err != nil {
			return errors.NewDatabaseError("failed to initialize schema", err)
		}
	}
	return nil
}

const datapointColumns = `
	id, serial, time,
	raw_x AS "raw_activity.x", raw_y AS "raw_activity.y",
	temp AS "weather.temp", humidity AS "weather.humidity", windspeed AS "weather.windspeed",
	pred_x AS "prediction_activity.x", pred_y AS "prediction_activity.y",
	last_prediction_deviation`

func (r *DatapointRepo) Insert(ctx context.Context, point *models.Datapoint) error {
	query := `
		INSERT INTO datapoints (
			id, serial, time, raw_x, raw_y, temp, humidity, windspeed,
			pred_x, pred_y, last_prediction_deviation
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.GetDB().ExecContext(ctx, query,
		point.ID,
		point.Serial,
		point.Time,
		point.RawActivity.X,
		point.RawActivity.Y,
		point.Weather.Temp,
		point.Weather.Humidity,
		point.Weather.Windspeed,
		point.PredictionActivity.X,
		point.PredictionActivity.Y,
		point.LastPredictionDeviation,
	)
	if err != nil {
		return errors.NewDatabaseError("failed to insert datapoint", err)
	}
	return nil
}

func (r *DatapointRepo) GetSince(ctx context.Context, serial string, from time.Time) ([]*models.Datapoint, error) {
	points := []*models.Datapoint{}
	query := `
		SELECT ` + datapointColumns + `
		FROM datapoints
		WHERE serial = $1 AND time >= $2
		ORDER BY time ASC`

	err := r.db.GetDB().SelectContext(ctx, &points, query, serial, from)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to get datapoints", err)
	}
	return points, nil
}

func (r *DatapointRepo) Latest(ctx context.Context, serial string) (*models.Datapoint, error) {
	point := &models.Datapoint{}
	query := `
		SELECT ` + datapointColumns + `
		FROM datapoints
		WHERE serial = $1
		ORDER BY time DESC
		LIMIT 1`

	err := r.db.GetDB().GetContext(ctx, point, query, serial)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("no datapoints for device", err)
		}
		return nil, errors.NewDatabaseError("failed to get latest datapoint", err)
	}
	return point, nil
}

func (r *DatapointRepo) DeleteBySerial(ctx context.Context, serial string) error {
	query := `DELETE FROM datapoints WHERE serial = $1`

	result, err := r.db.GetDB().ExecContext(ctx, query, serial)
	if err != nil {
		return errors.NewDatabaseError("failed to delete datapoints", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}
	nuts.L.Infof("[TimescaleDB] Deleted %d datapoints for serial %s", rows, serial)
	return nil
}

func (r *DatapointRepo) DeleteBySerials(ctx context.Context, serials []string) error {
	if len(serials) == 0 {
		return nil
	}
	query := `DELETE FROM datapoints WHERE serial = ANY($1)`

	result, err := r.db.GetDB().ExecContext(ctx, query, pq.Array(serials))
	if err != nil {
		return errors.NewDatabaseError("failed to delete datapoints", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}
	nuts.L.Infof("[TimescaleDB] Deleted %d datapoints across %d serials", rows, len(serials))
	return nil
}
