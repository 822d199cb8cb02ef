package models

import (
	"strconv"
	"strings"
)

// PortDirection represents the direction of data flow for a canvas port.
type PortDirection string

const (
	PortDirectionInput  PortDirection = "input"
	PortDirectionOutput PortDirection = "output"
)

// MakePortName creates a canvas port name from its direction and 1-based index: "output_2".
func MakePortName(direction PortDirection, index int) string {
	return string(direction) + "_" + strconv.Itoa(index)
}

// ParsePortName parses a canvas port name in format "{direction}_{index}" into components.
// The index is 1-based.
func ParsePortName(name string) (PortDirection, int, bool) {
	i := strings.LastIndexByte(name, '_')
	if i <= 0 || i == len(name)-1 {
		return "", 0, false
	}

	index, err := strconv.Atoi(name[i+1:])
	if err != nil || index < 1 {
		return "", 0, false
	}

	direction := PortDirection(name[:i])
	if direction != PortDirectionInput && direction != PortDirectionOutput {
		return "", 0, false
	}

	return direction, index, true
}
