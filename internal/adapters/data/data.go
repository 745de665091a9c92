// Package data embeds sample inventories for the built-in simulated sources.
package data

import _ "embed"

//go:embed meridian.json
var MeridianData []byte

//go:embed pacifica.json
var PacificaData []byte
