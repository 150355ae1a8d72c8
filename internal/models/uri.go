package models

import (
	"fmt"
	"strings"
)

// URIRef is a parsed canonical media URI of the form
// {media_type}://{provider}/{item_id}.
type URIRef struct {
	MediaType MediaType
	Provider  string
	ItemID    string
}

// ParseURI splits a canonical media URI into its components. Item ids may
// themselves contain slashes (filesystem paths), so only the first
// separator after the provider segment is significant.
func ParseURI(uri string) (URIRef, error) {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return URIRef{}, fmt.Errorf("models: malformed media uri %q", uri)
	}
	providerID, itemID, ok := strings.Cut(rest, "/")
	if !ok || providerID == "" || itemID == "" {
		return URIRef{}, fmt.Errorf("models: malformed media uri %q", uri)
	}
	return URIRef{MediaType: MediaType(scheme), Provider: providerID, ItemID: itemID}, nil
}

// String reassembles the canonical URI form.
func (r URIRef) String() string {
	return fmt.Sprintf("%s://%s/%s", r.MediaType, r.Provider, r.ItemID)
}
