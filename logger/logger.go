package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/fatih/color"
)

// Debug is the process-wide debug logger. It discards output until Init is called.
var Debug = log.New(io.Discard, "", log.LstdFlags|log.Lshortfile)

var logFile *os.File

// Init sets up the logger - call this from main
func Init(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	logFile = f
	Debug = log.New(f, "", log.LstdFlags|log.Lshortfile)
	Debug.Println("Logger initialized")
	return nil
}

// Close closes the log file opened by Init. Debug is left in place since
// background goroutines may still be logging; their writes are dropped.
func Close() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// Screen prints text to stdout in the given color. Only use it outside the
// TUI, the alt screen owns stdout while the program runs.
func Screen(text string, c *color.Color) {
	if c == nil {
		fmt.Println(text)
		return
	}
	c.Println(text)
}
