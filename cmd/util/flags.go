package util

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"runtime"
	"strconv"
	"strings"
	"time"
)

var (
	FlagCpu = runtime.NumCPU()

	FlagBaseDir = "."

	flagAlphas = "0.01,0.1,0.2,0.3,0.4"
	FlagAlphas []float64

	FlagVerbose = false

	FlagPollInterval = 30 * time.Second
	FlagMaxWait      = 24 * time.Hour
)

func init() {
	log.SetFlags(0)
}

type commonFlag struct {
	set, init func()
	use       bool
}

var commonFlags = map[string]*commonFlag{
	"cpu": {
		set: func() {
			flag.IntVar(&FlagCpu, "cpu", FlagCpu,
				"The max number of CPUs to use.")
		},
		init: func() {
			runtime.GOMAXPROCS(FlagCpu)
		},
	},
	"base-dir": {
		set: func() {
			flag.StringVar(&FlagBaseDir, "base-dir", FlagBaseDir,
				"The directory holding the target structure and all\n"+
					"generated artifacts.")
		},
		init: func() {
			AssertIsDir(FlagBaseDir)
		},
	},
	"alphas": {
		set: func() {
			flag.StringVar(&flagAlphas, "alphas", flagAlphas,
				"A comma-separated list of diversity parameters. Each\n"+
					"value corresponds to one generation output directory.")
		},
		init: func() {
			FlagAlphas = parseAlphas(flagAlphas)
		},
	},
	"verbose": {
		set: func() {
			flag.BoolVar(&FlagVerbose, "verbose", FlagVerbose,
				"When set, the invocation of each external program will "+
					"be printed to stderr.")
		},
	},
	"poll-interval": {
		set: func() {
			flag.DurationVar(&FlagPollInterval, "poll-interval",
				FlagPollInterval,
				"How often to poll the scheduler queue for a "+
					"submitted job.")
		},
	},
	"max-wait": {
		set: func() {
			flag.DurationVar(&FlagMaxWait, "max-wait", FlagMaxWait,
				"How long to wait for a submitted job before giving up.")
		},
	},
}

func parseAlphas(str string) []float64 {
	fields := strings.Split(str, ",")
	alphas := make([]float64, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if len(field) == 0 {
			continue
		}
		alpha, err := strconv.ParseFloat(field, 64)
		Assert(err, "Could not parse '%s' as a diversity parameter", field)
		alphas = append(alphas, alpha)
	}
	if len(alphas) == 0 {
		Fatalf("Could not find any diversity parameters in '%s'.", str)
	}
	return alphas
}

func FlagUse(names ...string) {
	for _, name := range names {
		commonFlags[name].use = true
	}
}

// Usage just calls `flag.Usage`. It's included here to avoid
// an extra import to `flag` just to call Usage.
func Usage() {
	flag.Usage()
}

// Arg just calls `flag.Arg`. It's included here to avoid
// an extra import to `flag` just to call Arg.
func Arg(i int) string {
	return flag.Arg(i)
}

// NArg just calls `flag.NArg`. It's included here to avoid
// an extra import to `flag` just to call NArg.
func NArg() int {
	return flag.NArg()
}

func Verbosef(format string, v ...interface{}) {
	if FlagVerbose {
		log.Printf(format, v...)
	}
}

func FlagParse(positional string, desc string) {
	for _, fl := range commonFlags {
		if fl.use {
			fl.set()
		}
	}

	flag.Usage = func() {
		log.Printf("Usage: %s [flags] %s\n\n",
			path.Base(os.Args[0]), positional)
		if len(desc) > 0 {
			log.Printf("%s\n", desc)
		}
		flag.VisitAll(func(fl *flag.Flag) {
			var def string
			if len(fl.DefValue) > 0 {
				def = fmt.Sprintf(" (default: %s)", fl.DefValue)
			}

			usage := strings.Replace(fl.Usage, "\n", "\n    ", -1)
			log.Printf("-%s%s\n", fl.Name, def)
			log.Printf("    %s\n", usage)
		})
		os.Exit(1)
	}
	flag.Parse()

	for _, fl := range commonFlags {
		if fl.use && fl.init != nil {
			fl.init()
		}
	}
}
