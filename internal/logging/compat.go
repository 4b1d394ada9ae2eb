package logging

import (
	"fmt"
	"os"
)

// Fatal and Fatalf log at Error level and then terminate the process.
// kplexd's startup path uses these for every unrecoverable
// configuration/open error instead of repeating log.Error+os.Exit(1)
// at each call site.

func (log *Logger) Fatal(v ...interface{}) {
	log.Log(Error, 1, fmt.Sprint(v...))
	os.Exit(1)
}

func (log *Logger) Fatalf(format string, v ...interface{}) {
	log.Log(Error, 1, format, v...)
	os.Exit(1)
}
