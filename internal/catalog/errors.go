package catalog

import "codeberg.org/mutker/scadactl/internal/errors"

const (
	ErrInvalidDBPath = errors.ErrorCode("catalog_invalid_db_path")
	ErrStorageInit   = errors.ErrInitFailed
	ErrStorageClose  = errors.ErrShutdownFailed

	ErrSchemaInitFailed       = errors.ErrorCode("catalog_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("catalog_schema_validation_failed")
	ErrTransactionFailed      = errors.ErrorCode("catalog_transaction_failed")

	ErrPointExists   = errors.ErrorCode("catalog_point_exists")
	ErrPointNotFound = errors.ErrorCode("catalog_point_not_found")
	ErrEmptyOrder    = errors.ErrorCode("catalog_empty_order")
)
