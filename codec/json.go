package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// It is the most portable option; use it when snapshots must be readable by
// tooling that only carries the standard library. Newly-written snapshots use
// Default, but every file records its codec name, so files written with JSON
// stay loadable regardless of the default.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used for newly-written snapshots. Existing files are
// self-describing and select their codec by name on load.
var Default Codec = GoJSON{}
