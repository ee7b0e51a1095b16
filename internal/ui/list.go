package ui

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/local2stream/internal/models"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.LocalTrack] to implement [list.Item].
type trackItem struct {
	track models.LocalTrack
}

func (i trackItem) FilterValue() string { return i.track.Label() }
func (i trackItem) Title() string {
	if i.track.Title == "" {
		return filepath.Base(i.track.Path)
	}
	return i.track.Title
}
func (i trackItem) Description() string {
	desc := i.track.Artist
	if desc == "" {
		desc = "unknown artist"
	}
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}
