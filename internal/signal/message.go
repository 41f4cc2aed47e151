package signal

import "encoding/json"

// MessageType defines signaling message types.
type MessageType string

const (
	MessageTypeJoin       MessageType = "join"
	MessageTypeLeave      MessageType = "leave"
	MessageTypeRoomJoined MessageType = "roomJoined"
	MessageTypeNeedsOffer MessageType = "needsOffer"
	MessageTypeOffer      MessageType = "offer"
	MessageTypeAnswer     MessageType = "answer"
	MessageTypeICE        MessageType = "iceCandidate"
)

// Message is the wire format exchanged over the signaling socket. Payload
// carries SDP descriptions and ICE candidates opaquely; the server only
// routes them.
type Message struct {
	Type    MessageType     `json:"type"`
	Room    string          `json:"room,omitempty"`
	From    string          `json:"from,omitempty"`
	Target  string          `json:"target,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
