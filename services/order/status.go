package order

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

var fulfilmentRank = map[Status]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

// CanTransition reports whether an order may move from one status to
// another. Forward moves along the fulfilment chain may skip steps; any
// not-yet-delivered order may be cancelled; delivered and cancelled are
// terminal.
func CanTransition(from, to Status) bool {
	if from == StatusDelivered || from == StatusCancelled {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	fromRank, ok := fulfilmentRank[from]
	toRank, ok2 := fulfilmentRank[to]
	return ok && ok2 && toRank > fromRank
}
