// Package assets holds the embedded content: level documents, section pages
// and the message catalog.
package assets

import "embed"

// Levels holds one JSON document per level under levels/.
//
//go:embed levels/*.json
var Levels embed.FS

// Sections is the JSON list of section pages portals lead to.
//
//go:embed sections.json
var Sections []byte

// Locale holds gettext catalogs, one per language, under locale/.
//
//go:embed locale/*.po
var Locale embed.FS
