package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReceiptEmail delivers the receipt for a committed sale.
	TaskReceiptEmail = "sale:receipt_email"
	// TaskLowStockScan flags active variants under the stock threshold.
	TaskLowStockScan = "stock:low_scan"
)

// ReceiptEmailPayload identifies the sale whose receipt should go out. The
// worker resolves the customer's address at delivery time so a checkout that
// later fixes a typo still gets the mail.
type ReceiptEmailPayload struct {
	SaleID int64 `json:"sale_id"`
}

// NewReceiptEmailTask constructs an Asynq task.
func NewReceiptEmailTask(payload ReceiptEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReceiptEmail, data), nil
}

// NewLowStockScanTask constructs the cron-scheduled scan task.
func NewLowStockScanTask() *asynq.Task {
	return asynq.NewTask(TaskLowStockScan, nil)
}
