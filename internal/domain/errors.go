package domain

import (
	"errors"
	"fmt"
)

// Category sentinels. Use with NewSubSystemError for subsystem-specific errors.
var (
	ErrNotFound      = fmt.Errorf("not found")
	ErrDuplicate     = fmt.Errorf("duplicate")
	ErrTimeout       = fmt.Errorf("operation timed out")
	ErrInvalidInput  = fmt.Errorf("invalid input")
	ErrProviderError = fmt.Errorf("provider error")
)

// Orchestration taxonomy.
var (
	ErrAgentNotFound          = fmt.Errorf("agent not found")
	ErrAgentInitialization    = fmt.Errorf("agent initialization failed")
	ErrTaskExecution          = fmt.Errorf("task execution failed")
	ErrOrchestratorProcessing = fmt.Errorf("orchestrator processing failed")
	ErrWorkerTimeout          = fmt.Errorf("worker: %w", ErrTimeout)
	ErrNotInitialized         = fmt.Errorf("not initialized")
)

// Infrastructure errors.
var (
	ErrConfigLoad   = fmt.Errorf("failed to load configuration")
	ErrDecryption   = fmt.Errorf("decryption failed")
	ErrRateLimit    = fmt.Errorf("rate limit exceeded")
	ErrAuthInvalid  = fmt.Errorf("authentication failed")
	ErrCircuitOpen  = fmt.Errorf("circuit open")
	ErrEmptyMessage = fmt.Errorf("message is empty")
)

// DomainError wraps a sentinel error with context.
type DomainError struct {
	Op        string // operation name (e.g., "Registry.Get")
	Err       error  // underlying sentinel or wrapped error
	Detail    string // human-readable detail
	SubSystem string // subsystem identifier (e.g., "agent", "session"); used for ErrorCode dispatch
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// NewSubSystemError creates a DomainError tagged with a subsystem for ErrorCode dispatch.
func NewSubSystemError(subsystem, op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail, SubSystem: subsystem}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsRetryableError reports whether err is a transient error that may succeed on retry.
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrTimeout)
}

// ErrorCode is a machine-parseable error category for monitoring and alerting.
type ErrorCode string

const (
	CodeUnknown                ErrorCode = "UNKNOWN"
	CodeNotFound               ErrorCode = "NOT_FOUND"
	CodeDuplicate              ErrorCode = "DUPLICATE"
	CodeTimeout                ErrorCode = "TIMEOUT"
	CodeInvalidInput           ErrorCode = "INVALID_INPUT"
	CodeProviderError          ErrorCode = "PROVIDER_ERROR"
	CodeAgentNotFound          ErrorCode = "AGENT_NOT_FOUND"
	CodeAgentInitialization    ErrorCode = "AGENT_INITIALIZATION"
	CodeTaskExecution          ErrorCode = "TASK_EXECUTION"
	CodeOrchestratorProcessing ErrorCode = "ORCHESTRATOR_PROCESSING"
	CodeWorkerTimeout          ErrorCode = "WORKER_TIMEOUT"
	CodeNotInitialized         ErrorCode = "NOT_INITIALIZED"
	CodeConfigLoad             ErrorCode = "CONFIG_LOAD"
	CodeDecryption             ErrorCode = "DECRYPTION"
	CodeRateLimit              ErrorCode = "RATE_LIMIT"
	CodeAuthInvalid            ErrorCode = "AUTH_INVALID"
	CodeCircuitOpen            ErrorCode = "CIRCUIT_OPEN"
	CodeEmptyMessage           ErrorCode = "EMPTY_MESSAGE"
	CodeSessionNotFound        ErrorCode = "SESSION_NOT_FOUND"
	CodeSessionInvalid         ErrorCode = "SESSION_INVALID"
)

// errorCodeMap maps sentinel errors to their machine-parseable codes.
// ErrWorkerTimeout is listed so the chain walk prefers it over ErrTimeout.
var errorCodeMap = map[error]ErrorCode{
	ErrNotFound:      CodeNotFound,
	ErrDuplicate:     CodeDuplicate,
	ErrTimeout:       CodeTimeout,
	ErrInvalidInput:  CodeInvalidInput,
	ErrProviderError: CodeProviderError,

	ErrAgentNotFound:          CodeAgentNotFound,
	ErrAgentInitialization:    CodeAgentInitialization,
	ErrTaskExecution:          CodeTaskExecution,
	ErrOrchestratorProcessing: CodeOrchestratorProcessing,
	ErrWorkerTimeout:          CodeWorkerTimeout,
	ErrNotInitialized:         CodeNotInitialized,
	ErrConfigLoad:             CodeConfigLoad,
	ErrDecryption:             CodeDecryption,
	ErrRateLimit:              CodeRateLimit,
	ErrAuthInvalid:            CodeAuthInvalid,
	ErrCircuitOpen:            CodeCircuitOpen,
	ErrEmptyMessage:           CodeEmptyMessage,
}

// specificity orders sentinels whose chains overlap: the first match wins.
// Errors not matching any of these fall back to an unordered map walk.
var specificity = []error{
	ErrWorkerTimeout,
	ErrAgentNotFound,
	ErrAgentInitialization,
	ErrTaskExecution,
	ErrOrchestratorProcessing,
}

// subSystemCodeMap maps (category sentinel, subsystem) pairs to specific ErrorCodes.
var subSystemCodeMap = map[error]map[string]ErrorCode{
	ErrNotFound: {
		"agent":   CodeAgentNotFound,
		"session": CodeSessionNotFound,
	},
	ErrInvalidInput: {
		"session": CodeSessionInvalid,
	},
	ErrTimeout: {
		"worker": CodeWorkerTimeout,
	},
}

// ErrorCodeOf returns the machine-parseable error code for the given error.
// It unwraps DomainError and uses errors.Is to match sentinel errors.
// Returns CodeUnknown if no matching sentinel is found.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}

	if code, ok := errorCodeMap[err]; ok {
		return code
	}

	var de *DomainError
	if errors.As(err, &de) {
		if code := de.Code(); code != CodeUnknown {
			return code
		}
	}

	for _, sentinel := range specificity {
		if errors.Is(err, sentinel) {
			return errorCodeMap[sentinel]
		}
	}
	for sentinel, code := range errorCodeMap {
		if errors.Is(err, sentinel) {
			return code
		}
	}

	return CodeUnknown
}

// Code returns the ErrorCode for this DomainError's underlying sentinel.
// If SubSystem is set, checks the subSystemCodeMap for a specific code.
func (e *DomainError) Code() ErrorCode {
	if e.SubSystem != "" {
		if subsysMap, ok := subSystemCodeMap[e.Err]; ok {
			if code, ok := subsysMap[e.SubSystem]; ok {
				return code
			}
		}
	}
	if code, ok := errorCodeMap[e.Err]; ok {
		return code
	}
	return CodeUnknown
}
