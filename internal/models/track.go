package models

import "strings"

// Track is a playlist entry. Immutable once fetched.
type Track struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
	Album   string   `json:"album,omitempty"`
	URI     string   `json:"uri,omitempty"`
}

// ArtistLine joins the artist names with ", ".
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// TrackPage is one fetched batch of a playlist.
//
// Total is only required on the first page. Next is nil on the last page.
type TrackPage struct {
	Tracks []Track
	Total  *int
	Next   *string
}

// HasNext reports whether the service pointed at another page.
func (p TrackPage) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}
