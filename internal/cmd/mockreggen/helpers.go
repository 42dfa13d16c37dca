package mockreggen

import (
	"log"
	"strings"
)

// logErrors logs each error, indenting continuation lines.
func logErrors(l *log.Logger, errs ...error) {
	for _, err := range errs {
		l.Println(strings.ReplaceAll(err.Error(), "\n", "\n\t"))
	}
}
