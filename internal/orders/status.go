package orders

import "fmt"

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusInTransit  Status = "in_transit"
	StatusDelivered  Status = "delivered"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// validNext is the single source of truth for legal transitions. Forward
// only, with cancellation allowed until the order ships.
var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed:  {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing: {StatusInTransit: true, StatusCancelled: true},
	StatusInTransit:  {StatusDelivered: true},
	StatusDelivered:  {StatusCompleted: true},
	StatusCancelled:  {},
	StatusCompleted:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// CanCancel reports whether an order may still be cancelled, which also
// means its reserved quantity goes back to the listing.
func CanCancel(from Status) bool {
	return from == StatusPending || from == StatusConfirmed || from == StatusProcessing
}

func Terminal(s Status) bool {
	return s == StatusCancelled || s == StatusCompleted
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := validNext[st]; !ok {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}
