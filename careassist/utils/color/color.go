// Package color styles REPL output. fatih/color turns itself off when
// stdout is not a terminal.
package color

import (
	"github.com/fatih/color"
)

var (
	promptColor    = color.New(color.FgCyan, color.Bold)
	infoColor      = color.New(color.FgGreen)
	warningColor   = color.New(color.FgYellow, color.Bold)
	errorColor     = color.New(color.FgRed, color.Bold)
	assistantColor = color.New(color.FgHiBlue)
	dimColor       = color.New(color.Faint)
)

func Prompt(s string) string {
	return promptColor.Sprint(s)
}

func Info(s string) string {
	return infoColor.Sprint(s)
}

func Warning(s string) string {
	return warningColor.Sprint(s)
}

func Error(s string) string {
	return errorColor.Sprint(s)
}

func Assistant(s string) string {
	return assistantColor.Sprint(s)
}

func Dim(s string) string {
	return dimColor.Sprint(s)
}
