package db

import (
	"fmt"
	"strings"

	"audio-inspector/models"
	"audio-inspector/utils"
)

// DBClient stores and retrieves scan history.
type DBClient interface {
	Close() error
	StoreScan(scan *models.ScanRecord) error
	RecentScans(limit int) ([]models.ScanRecord, error)
	DeleteAllScans() error
}

// NewDBClient builds the history client selected by the DB_TYPE environment
// variable. SQLite is the default; MongoDB is available for shared
// deployments.
func NewDBClient() (DBClient, error) {
	dbType := strings.ToLower(utils.GetEnv("DB_TYPE", "sqlite"))
	switch dbType {
	case "sqlite":
		return NewSQLiteClient(utils.GetEnv("SQLITE_DB_PATH", "storage/inspector.db"))
	case "mongo":
		uri := utils.GetEnv("MONGO_URI", "mongodb://localhost:27017")
		name := utils.GetEnv("MONGO_DB", "audio_inspector")
		return NewMongoClient(uri, name)
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE: %s", dbType)
	}
}
