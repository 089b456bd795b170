package util

import (
	"flag"
	"fmt"
	"log"
	"os"
)

// Fatalf reports a run-level failure and exits non-zero. Per-item
// failures inside a stage are logged and skipped by the pipeline itself;
// everything that reaches Fatalf halts the command.
func Fatalf(format string, v ...interface{}) {
	log.Fatalf(format, v...)
}

// Assert halts the command when err is non-nil. The optional arguments
// are a format string and operands naming the stage or artifact that
// failed, printed ahead of the error itself.
func Assert(err error, v ...interface{}) {
	if err == nil {
		return
	}
	if len(v) == 0 {
		Fatalf("ERROR: %s.", err)
	}
	Fatalf("%s: %s.", fmt.Sprintf(v[0].(string), v[1:]...), err)
}

// AssertNArg shows the usage message and exits unless exactly n
// positional arguments were given.
func AssertNArg(n int) {
	if flag.NArg() != n {
		flag.Usage()
	}
}

// AssertIsDir halts unless path names an existing directory. The run's
// base directory is checked with it before any stage touches disk.
func AssertIsDir(path string) {
	info, err := os.Stat(path)
	Assert(err, "Directory '%s' is not accessible", path)
	if !info.IsDir() {
		Fatalf("'%s' is not a directory.", path)
	}
}
