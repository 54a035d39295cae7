package metrics

import (
	"bytes"
	"encoding/json"
)

// Field is a loosely typed JSON scalar. Agents mostly send strings, but
// numbers and booleans show up too depending on the agent version, so
// every value is captured as its text form and parsed later.
type Field string

func (f *Field) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = Field(s)
		return nil
	}

	// Numbers, booleans: keep the literal text
	trimmed := bytes.TrimSpace(data)
	if string(trimmed) == "null" {
		*f = ""
		return nil
	}
	*f = Field(trimmed)
	return nil
}

func (f Field) String() string {
	return string(f)
}

// Report is the raw payload a host agent pushes. All fields are optional;
// missing or malformed values degrade to defaults during normalization,
// they never fail the submission.
type Report struct {
	CPU             Field `json:"cpu"`
	Mem             Field `json:"mem"`
	Disk            Field `json:"disk"`
	Load            Field `json:"load"`
	Cores           Field `json:"cores"`
	RxSpeed         Field `json:"rx_speed"`
	TxSpeed         Field `json:"tx_speed"`
	RxTotal         Field `json:"rx_total"`
	TxTotal         Field `json:"tx_total"`
	Connections     Field `json:"connections"`
	DockerInstalled Field `json:"docker_installed"`
	DockerRunning   Field `json:"docker_running"`
	DockerStopped   Field `json:"docker_stopped"`
	AgentVersion    Field `json:"agent_version"`
}
