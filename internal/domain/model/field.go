package model

// FieldConfig is one named extraction target. The list order is meaningful:
// it is the column order of exported results.
type FieldConfig struct {
	Name        string `json:"name"`
	DataType    string `json:"data_type"`
	Description string `json:"description,omitempty"` // natural-language extraction hint
}

// TaskDefinition is a per-document-path processing directive. It is never
// persisted on its own; it is flattened into a path→mode map at commit time.
type TaskDefinition struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
}

// ProcessingModes flattens task definitions into the path→mode map the server
// expects. Entries missing either a path or a mode contribute nothing.
func ProcessingModes(tasks []TaskDefinition) map[string]string {
	modes := make(map[string]string)
	for _, t := range tasks {
		if t.Path == "" || t.Mode == "" {
			continue
		}
		modes[t.Path] = t.Mode
	}
	return modes
}
