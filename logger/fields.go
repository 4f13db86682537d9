package logger

// Standard field names for consistent structured logging across ledgershift.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldRunID   = "run_id"
	FieldAccount = "account"

	// Components
	FieldComponent = "component"
	FieldProvider  = "provider"
	FieldLedger    = "ledger"
	FieldOwner     = "owner"

	// Operations
	FieldOperation = "operation"
	FieldPhase     = "phase"
	FieldPath      = "path"

	// Timing
	FieldDurationMS = "duration_ms"
	FieldStartTime  = "start_time"
	FieldEndTime    = "end_time"

	// Errors
	FieldError = "error"

	// Counts and amounts
	FieldCount     = "count"
	FieldBatchSize = "batch_size"
	FieldProcessed = "processed"
	FieldSucceeded = "succeeded"
	FieldFailed    = "failed"
	FieldBalance   = "balance"

	// Status
	FieldStatus  = "status"
	FieldSuccess = "success"
	FieldState   = "state"
)
