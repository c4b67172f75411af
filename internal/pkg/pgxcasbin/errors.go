package pgxcasbin

import "errors"

var (
	// ErrInvalidFilterType indicates an unsupported policy filter value.
	ErrInvalidFilterType = errors.New("invalid filter type")
	// ErrBatchExec indicates a batched statement failed to execute.
	ErrBatchExec = errors.New("failed to execute batch")
	// ErrBatchClose indicates the batch results could not be closed.
	ErrBatchClose = errors.New("failed to close batch")
	// ErrInsertRule indicates a rule insert failure.
	ErrInsertRule = errors.New("failed to insert rule")
	// ErrFilterTooLong indicates the filter values exceed the column count.
	ErrFilterTooLong = errors.New("filter values exceed column count")
	// ErrSelectRules indicates a rule select failure.
	ErrSelectRules = errors.New("failed to select rules")
	// ErrScanRule indicates a rule row scan failure.
	ErrScanRule = errors.New("failed to scan rule")
	// ErrUpdateRule indicates a rule update failure.
	ErrUpdateRule = errors.New("failed to update rule")
	// ErrDeleteRule indicates a rule delete failure.
	ErrDeleteRule = errors.New("failed to delete rule")
	// ErrEmptyPtype indicates a missing policy type.
	ErrEmptyPtype = errors.New("ptype is empty")
	// ErrDeleteFiltered indicates a filtered delete failure.
	ErrDeleteFiltered = errors.New("failed to delete filtered rules")
	// ErrBeginTx indicates a transaction begin failure.
	ErrBeginTx = errors.New("failed to begin transaction")
	// ErrTruncate indicates the rule table could not be truncated.
	ErrTruncate = errors.New("failed to truncate rules")
	// ErrCommitTx indicates a transaction commit failure.
	ErrCommitTx = errors.New("failed to commit transaction")
	// ErrRollbackTx indicates a transaction rollback failure.
	ErrRollbackTx = errors.New("failed to rollback transaction")
	// ErrRulesMismatch indicates old and new rule counts differ.
	ErrRulesMismatch = errors.New("old and new rules length mismatch")
	// ErrRuleTooLong indicates a rule exceeds the column count.
	ErrRuleTooLong = errors.New("rule length exceeds column count")
	// ErrRuleEmpty indicates an empty rule payload.
	ErrRuleEmpty = errors.New("rule is empty")
	// ErrPingPool indicates a pool ping failure.
	ErrPingPool = errors.New("failed to ping pool")
	// ErrUnknownUpdateType indicates an unsupported update message.
	ErrUnknownUpdateType = errors.New("unknown update type")
	// ErrMarshalMessage indicates a notify payload marshal failure.
	ErrMarshalMessage = errors.New("failed to marshal message")
	// ErrNotifyMessage indicates pg_notify failed.
	ErrNotifyMessage = errors.New("failed to notify")
	// ErrAcquireConn indicates a connection could not be acquired.
	ErrAcquireConn = errors.New("failed to acquire connection")
	// ErrListenChannel indicates the listen command failed.
	ErrListenChannel = errors.New("failed to listen on channel")
	// ErrWaitNotification indicates waiting for a notification failed.
	ErrWaitNotification = errors.New("failed to wait for notification")
)
