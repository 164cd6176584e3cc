// Package flagx splits a shared command line between components. The
// server config, the JSON config loader and eventhubctl each read only
// the part of os.Args they own.
package flagx

import (
	"flag"
	"strings"
)

// flagName returns the name part of a "-name" or "-name=value" argument and
// whether the value is inline.
func flagName(arg string) (string, bool) {
	name, _, inline := strings.Cut(arg, "=")
	return name, inline
}

func isFlag(arg string) bool {
	return strings.HasPrefix(arg, "-") && arg != "-"
}

// FilterArgs keeps the allowed flags from args together with their values.
// A value is taken from "-f=value" or from the next argument when that does
// not itself start with a dash. Everything else is dropped, so a FlagSet can
// parse the result without tripping over flags it does not know.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		name, inline := flagName(args[i])
		if _, ok := allowed[name]; !ok {
			continue
		}
		filtered = append(filtered, args[i])
		if !inline && i+1 < len(args) && !isFlag(args[i+1]) {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// Positional returns the arguments that are neither flags nor flag values.
// Every flag is assumed to take a value, which holds for all EventHub flags.
func Positional(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if !isFlag(args[i]) {
			out = append(out, args[i])
			continue
		}
		if _, inline := flagName(args[i]); !inline && i+1 < len(args) && !isFlag(args[i+1]) {
			i++
		}
	}
	return out
}

// ConfigFile returns the JSON config path given with -c or -config, or ""
// when neither is present. The last occurrence wins.
func ConfigFile(args []string) string {
	var path string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "Path to config file")
	fs.StringVar(&path, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}
