// ./internal/state/parameters_store.go
package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/elys-network/feelab/internal/types"
)

// ErrNoActiveParameters is returned when a config name has no active parameter set.
var ErrNoActiveParameters = errors.New("no active controller parameters")

// StoredParameters is a versioned controller parameter set.
type StoredParameters struct {
	ParamsID    int64                      `json:"params_id"`
	Version     int                        `json:"version"`
	ConfigName  string                     `json:"config_name"`
	IsActive    bool                       `json:"is_active"`
	ActivatedAt time.Time                  `json:"activated_at"`
	Parameters  types.ControllerParameters `json:"parameters"`
}

// SaveControllerParameters saves params as the next version of configName and returns its id.
// With makeActive the previously active version of the same name is deactivated in the same transaction.
func SaveControllerParameters(params types.ControllerParameters, configName string, makeActive bool) (paramsID int64, version int, err error) {
	if DB == nil {
		return 0, 0, ErrNotInitialized
	}

	body, err := json.Marshal(params)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to marshal controller parameters: %w", err)
	}

	tx, err := DB.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	err = tx.QueryRow(`SELECT COALESCE(MAX(version), 0) + 1 FROM controller_parameters WHERE config_name = $1;`, configName).Scan(&version)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to determine next version for %s: %w", configName, err)
	}

	if makeActive {
		_, err = tx.Exec(`UPDATE controller_parameters SET is_active = FALSE WHERE config_name = $1 AND is_active = TRUE;`, configName)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to deactivate existing active parameters for %s: %w", configName, err)
		}
	}

	stmt := `
        INSERT INTO controller_parameters (
            version, config_name, is_active, activated_at, created_at,
            direction_mode, classifier_mode, base_fee_bps, parameters
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING params_id;`

	currentTime := time.Now().UTC()
	err = tx.QueryRow(
		stmt,
		version, configName, makeActive, currentTime, currentTime,
		string(params.Direction.Mode), string(params.Classifier.Mode), params.BaseFeeBps, body,
	).Scan(&paramsID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to insert controller parameters: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().
		Int("version", version).
		Str("config", configName).
		Int64("params_id", paramsID).
		Bool("active", makeActive).
		Msg("Saved controller parameters")
	return paramsID, version, nil
}

// LoadActiveControllerParameters loads the currently active parameter set of configName.
func LoadActiveControllerParameters(configName string) (*StoredParameters, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}

	query := `
        SELECT params_id, version, config_name, is_active, activated_at, parameters
        FROM controller_parameters
        WHERE config_name = $1 AND is_active = TRUE
        ORDER BY activated_at DESC
        LIMIT 1;`

	stored := &StoredParameters{}
	var body []byte
	err := DB.QueryRow(query, configName).Scan(
		&stored.ParamsID, &stored.Version, &stored.ConfigName, &stored.IsActive, &stored.ActivatedAt, &body,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w for config '%s'", ErrNoActiveParameters, configName)
		}
		return nil, fmt.Errorf("failed to scan active controller parameters for config '%s': %w", configName, err)
	}

	if err := json.Unmarshal(body, &stored.Parameters); err != nil {
		return nil, fmt.Errorf("failed to unmarshal controller parameters %d: %w", stored.ParamsID, err)
	}

	log.Info().Str("config", configName).Int("version", stored.Version).Msg("Loaded active controller parameters")
	return stored, nil
}
