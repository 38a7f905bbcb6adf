package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	sectionColor = color.New(color.FgCyan)
	titleColor   = color.New(color.FgCyan, color.Bold)
	keyColor     = color.New(color.FgCyan)
)

// Success logs a success message with a checkmark
func Success(args ...interface{}) {
	defaultLogger.Info("✓ " + fmt.Sprint(args...))
}

// Successf logs a formatted success message
func Successf(format string, args ...interface{}) {
	Success(fmt.Sprintf(format, args...))
}

// Progress logs a progress message
func Progress(args ...interface{}) {
	defaultLogger.Info("→ " + fmt.Sprint(args...))
}

// Progressf logs a formatted progress message
func Progressf(format string, args ...interface{}) {
	Progress(fmt.Sprintf(format, args...))
}

// LogSection creates a visual section separator
func LogSection(title string) {
	line := strings.Repeat("=", 50)
	fmt.Println(sectionColor.Sprint(line))
	fmt.Println(titleColor.Sprint(title))
	fmt.Println(sectionColor.Sprint(line))
}

// LogSubSection creates a visual subsection separator
func LogSubSection(title string) {
	line := strings.Repeat("-", 40)
	fmt.Println(timeColor.Sprint(line))
	fmt.Println(timeColor.Sprint(title))
	fmt.Println(timeColor.Sprint(line))
}

// LogKeyValue logs a key-value pair with nice formatting
func LogKeyValue(key string, value interface{}) {
	fmt.Printf("%s %v\n", keyColor.Sprintf("%s:", key), value)
}

// LogList logs a list of items with bullets
func LogList(title string, items []string) {
	Info(title)
	for _, item := range items {
		fmt.Printf("  • %s\n", item)
	}
}
