package stream

// EventType is the type of a structural event.
type EventType int

const (
	EventBeginObject EventType = iota
	EventEndObject
	EventBeginArray
	EventEndArray
	EventKey
	EventScalar
)

func (t EventType) String() string {
	switch t {
	case EventBeginObject:
		return "BeginObject"
	case EventEndObject:
		return "EndObject"
	case EventBeginArray:
		return "BeginArray"
	case EventEndArray:
		return "EndArray"
	case EventKey:
		return "Key"
	case EventScalar:
		return "Scalar"
	default:
		return "Unknown"
	}
}

// Event is a structural event produced while scanning.
//
// Depth is the nesting level the event belongs to: the root value and its
// Begin/End events have depth 0, keys and values directly inside the root
// have depth 1, and so on.
type Event struct {
	Type  EventType
	Depth int

	// Key is set for EventKey.
	Key string
	// Value is set for EventScalar: string, json.Number, bool or nil.
	Value any
}
