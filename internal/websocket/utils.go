// internal/websocket/utils.go
package websocket

import "encoding/json"

// mapToStruct decodes the loosely typed Data field of a frame into a
// concrete request struct via a JSON round trip.
func mapToStruct(data interface{}, target interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
