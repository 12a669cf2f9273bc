package interfaces

import "polygon-ingestor/src/models"

// -----------------------------------------------------------------------------

// IDataSource defines the interface for managing a single streaming session
type IDataSource interface {
	GetName() string
	Start() error
	Stop() error
	GetStatus() *models.MDataSourceStatus
}
