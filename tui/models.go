package tui

import (
	"lumen/generator"
	"lumen/preview"
)

type boardMode int

const (
	boardView boardMode = iota
	pickerView
	promptView
)

type previewMsg struct {
	result preview.Result
	ch     <-chan preview.Result
}

type previewsDoneMsg struct{}

type generatedMsg struct {
	img *generator.Image
	err error
}

type statusMsg string

type thumbKey struct {
	epoch uint64
	index int
}
