package event_bus

import "time"

const (
	// TransactionRecorded is published after a transaction has been appended
	// to the ledger. Subscribers must treat it as best-effort: failing to
	// process it never rolls the transaction back.
	TransactionRecorded EventType = "transaction.recorded"
)

type TransactionRecordedData struct {
	TransactionID string
	Kind          string
	CategoryID    string
	Date          time.Time
}
