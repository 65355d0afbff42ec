package task

// SchemaVersion is stamped on every persisted document so future layout
// changes can migrate old files.
const SchemaVersion = 1

// TasksDocument is the root of data.json.
type TasksDocument struct {
	SchemaVersion uint32    `json:"schema_version"`
	Tasks         []Task    `json:"tasks"`
	Projects      []Project `json:"projects"`
}

// SettingsDocument is the root of settings.json.
type SettingsDocument struct {
	SchemaVersion uint32   `json:"schema_version"`
	Settings      Settings `json:"settings"`
}
