// Package models holds the climb, schedule and payroll types shared by the
// parsers, analysis and rendering.
package models

import (
	"fmt"
	"strings"
)

// Discipline is the rope/boulder classification of a wall, or ignored.
type Discipline string

const (
	Rope    Discipline = "rope"
	Boulder Discipline = "boulder"
	Ignored Discipline = "ignored"
)

// ParseDiscipline accepts the canonical names plus common plurals.
func ParseDiscipline(s string) (Discipline, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rope", "ropes", "route", "routes":
		return Rope, nil
	case "boulder", "boulders":
		return Boulder, nil
	case "ignored", "ignore":
		return Ignored, nil
	}
	return "", fmt.Errorf("unknown discipline %q", s)
}

// DataType names the schedule bucket an entry or override belongs to.
type DataType string

const (
	Routes   DataType = "routes"
	Boulders DataType = "boulders"
)

// DataTypeFor maps a discipline to its schedule bucket.
func DataTypeFor(d Discipline) DataType {
	if d == Rope {
		return Routes
	}
	return Boulders
}

// ParseDataType validates an override data type.
func ParseDataType(s string) (DataType, error) {
	switch DataType(s) {
	case Routes, Boulders:
		return DataType(s), nil
	}
	return "", fmt.Errorf("unknown data type %q", s)
}

// Field is an overridable column of a rendered schedule row.
type Field string

const (
	FieldLocation    Field = "location"
	FieldClimbType   Field = "climbType"
	FieldSetterCount Field = "setterCount"
)

// ParseField validates an override field name.
func ParseField(s string) (Field, error) {
	switch Field(s) {
	case FieldLocation, FieldClimbType, FieldSetterCount:
		return Field(s), nil
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// DisplayMode controls whether rope and boulder work share a printed row.
type DisplayMode string

const (
	DisplaySeparate DisplayMode = "separate"
	DisplayMerged   DisplayMode = "merged"
)

// TypeDisplay controls what the climb-type column shows.
type TypeDisplay string

const (
	TypeDisplayType      TypeDisplay = "type"
	TypeDisplaySteepness TypeDisplay = "steepness"
)
