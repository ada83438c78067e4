// Package modelversion records which model build is live and when it was
// activated. The retrain policy reads the latest activation to decide when a
// scheduled refresh is due.
package modelversion

import "time"

// Record is one model activation.
type Record struct {
	Version     string    `json:"version"`
	ActivatedAt time.Time `json:"activated_at"`
}
