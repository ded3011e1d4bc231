package models

// Status is the lifecycle status of an order line.
type Status string

const (
	StatusDraft          Status = "draft"
	StatusPending        Status = "pending" // legacy spelling of pending payment
	StatusPendingPayment Status = "pending payment"
	StatusPaid           Status = "paid"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// statusRank is a total order over the closed status set, used to derive a
// batch's display status from its member lines. Unknown statuses rank below
// everything so a bad row can never mask real progress.
var statusRank = map[Status]int{
	StatusCancelled:      1,
	StatusDraft:          2,
	StatusPending:        3,
	StatusPendingPayment: 3,
	StatusPaid:           4,
	StatusCompleted:      5,
}

// Rank returns the status's position in the batch-status ordering.
func (s Status) Rank() int {
	return statusRank[s]
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// BatchStatus derives a batch's status as the highest-ranked status among its
// lines. Returns the empty status for an empty batch.
func BatchStatus(lines []OrderLine) Status {
	var best Status
	bestRank := -1
	for _, line := range lines {
		if r := line.Status.Rank(); r > bestRank {
			best = line.Status
			bestRank = r
		}
	}
	return best
}
