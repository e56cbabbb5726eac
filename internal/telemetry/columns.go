package telemetry

import (
	"sort"
	"strings"
)

// Columns maps logical telemetry fields to the source column names that
// hold them. An empty string means no header matched.
type Columns struct {
	Speed    string
	Throttle string
	Brake    string
	Gear     string
	PosX     string
	PosZ     string
}

var (
	speedKeywords    = []string{"speed", "velocity", "kmh", "mph"}
	throttleKeywords = []string{"throttle", "gas", "accelerator"}
	brakeKeywords    = []string{"brake"}
	gearKeywords     = []string{"gear"}
	posXKeywords     = []string{"pos_x", "posx", "position_x", "positionx", "x"}
	posZKeywords     = []string{"pos_z", "posz", "position_z", "positionz", "z"}
)

// ResolveColumns guesses which header holds each field by case-insensitive
// substring match. The first matching header in the given order wins; an
// empty header set leaves every field unresolved.
func ResolveColumns(headers []string) Columns {
	return Columns{
		Speed:    matchHeader(headers, speedKeywords),
		Throttle: matchHeader(headers, throttleKeywords),
		Brake:    matchHeader(headers, brakeKeywords),
		Gear:     matchHeader(headers, gearKeywords),
		PosX:     matchHeader(headers, posXKeywords),
		PosZ:     matchHeader(headers, posZKeywords),
	}
}

// resolveFromRow resolves columns from a row's keys. Keys are sorted first
// so JSON inputs resolve deterministically.
func resolveFromRow(row Row) Columns {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return ResolveColumns(keys)
}

func matchHeader(headers, keywords []string) string {
	for _, h := range headers {
		lower := strings.ToLower(h)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return h
			}
		}
	}
	return ""
}
