package domain

import (
	"time"
)

// OperationType identifies a PDF manipulation operation.
type OperationType string

const (
	OperationMerge    OperationType = "merge"
	OperationSplit    OperationType = "split"
	OperationCompress OperationType = "compress"
	OperationConvert  OperationType = "convert"
)

// OperationRecord is a single entry in the append-only operation ledger.
// Records are created once, when an operation is attempted after a successful
// authorization, and never mutated afterwards.
type OperationRecord struct {
	ID        string        `json:"id"`
	AccountID string        `json:"account_id"`
	Type      OperationType `json:"operation_type"`
	FileCount int           `json:"file_count"`
	Succeeded bool          `json:"succeeded"`
	CreatedAt time.Time     `json:"created_at"`
}

// GlobalStats aggregates counts for administrative reporting.
type GlobalStats struct {
	TotalAccounts   int `json:"total_accounts"`
	PaidAccounts    int `json:"paid_accounts"`
	TotalOperations int `json:"total_operations"`
}
