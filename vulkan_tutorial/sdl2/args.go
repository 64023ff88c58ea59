package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/presentation/engine"
)

var errHelp = errors.New("help requested")

type options struct {
	// frames stops the program after this many frames; 0 runs until the
	// window is closed.
	frames int

	vertexShader   string
	fragmentShader string

	validation bool
	verbose    bool

	config engine.Config
}

func defaultOptions() options {
	return options{
		validation: true,
		config:     engine.DefaultConfig(),
	}
}

func parseArgs(args []string) (options, error) {
	opts := defaultOptions()

	for i := 0; i < len(args); i++ {
		arg := args[i]

		value := func() (string, error) {
			if i+1 >= len(args) {
				return "", errors.Newf("option %s needs a value", arg)
			}
			i++
			return args[i], nil
		}

		number := func() (int, error) {
			v, err := value()
			if err != nil {
				return 0, err
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return 0, errors.Newf("option %s needs a non-negative number, got %q", arg, v)
			}
			return n, nil
		}

		var err error
		switch arg {
		case "--frames":
			opts.frames, err = number()
		case "--frames-in-flight":
			opts.config.MaxFramesInFlight, err = number()
		case "--vsync":
			opts.config.PresentModePriority = nil
		case "--vert":
			opts.vertexShader, err = value()
		case "--frag":
			opts.fragmentShader, err = value()
		case "--no-validation":
			opts.validation = false
		case "--verbose", "-v":
			opts.verbose = true
		case "--help", "-h":
			return opts, errHelp
		default:
			return opts, errors.Newf("unrecognized option: %s", arg)
		}
		if err != nil {
			return opts, err
		}
	}

	if (opts.vertexShader == "") != (opts.fragmentShader == "") {
		return opts, errors.New("--vert and --frag must be given together")
	}

	return opts, opts.config.Validate()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "\nOptions")
	fmt.Fprintln(w, "\t--frames N")
	fmt.Fprintln(w, "\t\tExit after N frames")
	fmt.Fprintln(w, "\t--frames-in-flight N")
	fmt.Fprintf(w, "\t\tFrames the GPU may work on at once (default %d)\n", engine.DefaultMaxFramesInFlight)
	fmt.Fprintln(w, "\t--vsync")
	fmt.Fprintln(w, "\t\tPresent with FIFO instead of preferring mailbox")
	fmt.Fprintln(w, "\t--vert FILE --frag FILE")
	fmt.Fprintln(w, "\t\tDraw a triangle with these SPIR-V shaders instead of only clearing")
	fmt.Fprintln(w, "\t--no-validation")
	fmt.Fprintln(w, "\t\tDo not enable VK_LAYER_KHRONOS_validation")
	fmt.Fprintln(w, "\t--verbose, -v")
	fmt.Fprintln(w, "\t\tLog engine debug output")
}
