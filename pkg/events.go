package lmhist

type EventKind uint8

const (
	Coincidence EventKind = iota
	TimeTag
	SinglesUpdate
	GatingTag
	MotionTag
	Unknown
)

// Event is one decoded list-mode record. Which fields are meaningful
// depends on Kind: PairCode for coincidences, Block/Delta for singles
// updates, Payload for the control tags.
type Event struct {
	Kind     EventKind
	Prompt   bool
	PairCode uint32
	Block    uint16
	Delta    uint32
	Payload  uint32
}
