package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode is the --ui setting.
type uiMode uint8

const (
	uiModeAuto uiMode = iota
	uiModeOn
	uiModeOff
)

var uiModeNames = map[string]uiMode{"": uiModeAuto, "auto": uiModeAuto, "on": uiModeOn, "off": uiModeOff}

func (m uiMode) String() string {
	switch m {
	case uiModeOn:
		return "on"
	case uiModeOff:
		return "off"
	}
	return "auto"
}

func readUIMode(value string) (uiMode, error) {
	if m, ok := uiModeNames[strings.ToLower(strings.TrimSpace(value))]; ok {
		return m, nil
	}
	return uiModeAuto, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

// useTUI: auto shows the progress view only when both stdout and stderr
// are terminals.
func (m uiMode) useTUI() bool {
	if m != uiModeAuto {
		return m == uiModeOn
	}
	return isTerminal(os.Stdout) && isTerminal(os.Stderr)
}
