package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrNotImplemented  ErrorCode = "not_implemented"
	ErrUnavailable     ErrorCode = "service_unavailable"

	// Configuration errors
	ErrInvalidConfig ErrorCode = "invalid_configuration"
	ErrMissingConfig ErrorCode = "missing_configuration"
	ErrBindFlags     ErrorCode = "bind_flags_failed"
	ErrReadConfig    ErrorCode = "read_config_failed"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"
	ErrAlreadyRunning ErrorCode = "already_running"

	// Resource errors
	ErrResourceBusy      ErrorCode = "resource_busy"
	ErrResourceNotFound  ErrorCode = "resource_not_found"
	ErrResourceExhausted ErrorCode = "resource_exhausted"

	// Operation errors
	ErrOperationFailed  ErrorCode = "operation_failed"
	ErrTimeout          ErrorCode = "operation_timeout"
	ErrInvalidOperation ErrorCode = "invalid_operation"

	// Remote endpoint errors
	ErrConnectFailed ErrorCode = "scada_connect_failed"
	ErrNotConnected  ErrorCode = "scada_not_connected"
	ErrReadPoint     ErrorCode = "scada_read_point_failed"
	ErrWritePoint    ErrorCode = "scada_write_point_failed"

	// Collector errors
	ErrCollectCycle   ErrorCode = "collect_cycle_failed"
	ErrEmptyBuffer    ErrorCode = "history_buffer_empty"
	ErrUnknownPoint   ErrorCode = "unknown_point"
	ErrExportFailed   ErrorCode = "export_failed"
	ErrInvalidFormat  ErrorCode = "invalid_export_format"
	ErrMainLoop       ErrorCode = "main_loop_failed"
	ErrInitApp        ErrorCode = "init_app_failed"
	ErrAdvisorRequest ErrorCode = "advisor_request_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:          "Internal error occurred",
	ErrInvalidArgument:   "Invalid argument provided",
	ErrNotImplemented:    "Operation not implemented",
	ErrUnavailable:       "Service unavailable",
	ErrInvalidConfig:     "Invalid configuration",
	ErrMissingConfig:     "Missing configuration",
	ErrBindFlags:         "Failed to bind flags",
	ErrReadConfig:        "Failed to read configuration",
	ErrInvalidLogLevel:   "Invalid log level",
	ErrInitFailed:        "Initialization failed",
	ErrShutdownFailed:    "Shutdown failed",
	ErrAlreadyRunning:    "Process is already running",
	ErrResourceBusy:      "Resource is busy",
	ErrResourceNotFound:  "Resource not found",
	ErrResourceExhausted: "Resource exhausted",
	ErrOperationFailed:   "Operation failed",
	ErrTimeout:           "Operation timed out",
	ErrInvalidOperation:  "Invalid operation",
	ErrConnectFailed:     "Failed to connect to SCADA endpoint",
	ErrNotConnected:      "Not connected to SCADA endpoint",
	ErrReadPoint:         "Failed to read point",
	ErrWritePoint:        "Failed to write point",
	ErrCollectCycle:      "Collection cycle failed",
	ErrEmptyBuffer:       "No data in history buffer",
	ErrUnknownPoint:      "Point not found in history",
	ErrExportFailed:      "Failed to export history",
	ErrInvalidFormat:     "Unsupported export format",
	ErrMainLoop:          "Error in main loop",
	ErrInitApp:           "Failed to initialize application",
	ErrAdvisorRequest:    "Advisor request failed",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
