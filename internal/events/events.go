package events

import "time"

// Type discriminates the notification union on the wire.
type Type string

const (
	TypeFileMoved   Type = "file_moved"
	TypeFileRenamed Type = "file_renamed"
)

// Event is the serialized notification delivered to subscribers. The
// field set depends on Type: moves carry Filename/From/To/Destination,
// renames carry OldName/NewName/Folder/FullPath. The JSON names are a
// stable contract with external consumers.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	Filename    string `json:"filename,omitempty"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	Destination string `json:"destination,omitempty"`

	OldName  string `json:"old_name,omitempty"`
	NewName  string `json:"new_name,omitempty"`
	Folder   string `json:"folder,omitempty"`
	FullPath string `json:"full_path,omitempty"`
}

// NewFileMoved builds a move notification. from and to are full paths,
// destination is the routed folder.
func NewFileMoved(filename, from, to, destination string) Event {
	return Event{
		Type:        TypeFileMoved,
		Timestamp:   time.Now().UTC(),
		Filename:    filename,
		From:        from,
		To:          to,
		Destination: destination,
	}
}

// NewFileRenamed builds a rename notification. fullPath is the file's
// final location under its new name.
func NewFileRenamed(oldName, newName, folder, fullPath string) Event {
	return Event{
		Type:      TypeFileRenamed,
		Timestamp: time.Now().UTC(),
		OldName:   oldName,
		NewName:   newName,
		Folder:    folder,
		FullPath:  fullPath,
	}
}
