package store

import "encoding/json"

// Wire protocol between RelayStore and the relay server. One JSON frame
// per websocket text message.

// Frame op codes.
const (
	OpPut      = "put"    // client→relay: whole-value write
	OpOn       = "on"     // client→relay: subscribe to one key
	OpOnPrefix = "onp"    // client→relay: subscribe to children of a prefix
	OpCancel   = "cancel" // client→relay: tear down a subscription
	OpOnce     = "once"   // client→relay: read current value
	OpList     = "list"   // client→relay: read current children
	OpValue    = "value"  // relay→client: subscription delivery
	OpResult   = "result" // relay→client: once/list response
)

// Frame is one relay protocol message.
type Frame struct {
	Op     string                     `json:"op"`
	ID     uint64                     `json:"id,omitempty"`  // request id for once/list
	Sub    uint64                     `json:"sub,omitempty"` // subscription id for on/onp/cancel/value
	Key    string                     `json:"key,omitempty"`
	Data   json.RawMessage            `json:"data,omitempty"`
	Values map[string]json.RawMessage `json:"values,omitempty"`
	Exists bool                       `json:"exists,omitempty"`
}
