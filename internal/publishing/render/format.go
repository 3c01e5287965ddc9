package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Counter formats integers with locale digit grouping.
type Counter struct {
	printer *message.Printer
}

// NewCounter creates a formatter for tag.
func NewCounter(tag language.Tag) *Counter {
	return &Counter{printer: message.NewPrinter(tag)}
}

// Format groups n, e.g. 1234 -> "1.234" for Dutch.
func (c *Counter) Format(n int64) string {
	return c.printer.Sprintf("%d", n)
}
