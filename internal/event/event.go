package event

type Type string

const (
	TypeClockedIn      Type = "record.clocked_in"
	TypeClockedOut     Type = "record.clocked_out"
	TypeRecordApproved Type = "record.approved"
	TypeRecordRejected Type = "record.rejected"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
	ActorID   int64  `json:"actorId"`
	// ManagerID scopes delivery to the manager responsible for the record.
	ManagerID int64 `json:"managerId"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
