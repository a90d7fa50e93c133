// Package palette assigns badge colors to item categories.
package palette

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Color is a named badge color.
type Color struct {
	Name string
	Hex  string
}

// Colors is the fixed badge palette.
var Colors = []Color{
	{"blue", "#228be6"},
	{"green", "#40c057"},
	{"purple", "#7950f2"},
	{"orange", "#fd7e14"},
	{"red", "#fa5252"},
	{"cyan", "#15aabf"},
	{"pink", "#e64980"},
	{"gray", "#868e96"},
	{"dark", "#343a40"},
	{"indigo", "#4c6ef5"},
	{"teal", "#12b886"},
	{"yellow", "#fab005"},
}

var known = map[string]string{
	"laptop":   "blue",
	"desktop":  "green",
	"monitor":  "purple",
	"keyboard": "orange",
	"mouse":    "red",
	"tablet":   "cyan",
	"phone":    "pink",
	"printer":  "gray",
	"server":   "dark",
	"router":   "indigo",
}

var byName = func() map[string]Color {
	m := make(map[string]Color, len(Colors))
	for _, c := range Colors {
		m[c.Name] = c
	}
	return m
}()

// CategoryColor returns the badge color of a category. Known categories
// have fixed colors; any other category hashes to a stable palette entry.
// The empty category is gray.
func CategoryColor(category string) Color {
	key := strings.ToLower(strings.TrimSpace(category))
	if key == "" {
		return byName["gray"]
	}
	if name, ok := known[key]; ok {
		return byName[name]
	}
	return Pick(key)
}

// Pick returns a stable palette entry for any key.
func Pick(key string) Color {
	return Colors[xxhash.Sum64String(key)%uint64(len(Colors))]
}

// ToRGBA returns the opaque color of c.
func (c Color) ToRGBA() color.RGBA {
	v, err := strconv.ParseUint(strings.TrimPrefix(c.Hex, "#"), 16, 32)
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
