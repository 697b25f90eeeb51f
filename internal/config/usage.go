package config

import (
	"flag"
	"fmt"

	"github.com/agbru/fractalcalc/internal/ui"
)

// setCustomUsage configures the flag set with a themed usage function.
func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		t := ui.CurrentTheme()
		out := fs.Output()

		fmt.Fprintf(out, "\n%sFractal Calculator%s\n", t.Bold, t.Reset)
		fmt.Fprintf(out, "Escape-path density renderer.\n\n")
		fmt.Fprintf(out, "%sUsage:%s\n  %s [flags]\n\n%sFlags:%s\n", t.Warning, t.Reset, fs.Name(), t.Warning, t.Reset)

		fs.VisitAll(func(f *flag.Flag) {
			name, usage := flag.UnquoteUsage(f)
			flagSig := fmt.Sprintf("-%s", f.Name)
			if len(name) > 0 {
				flagSig += " " + name
			}

			fmt.Fprintf(out, "  %s%-25s%s %s", t.Primary, flagSig, t.Reset, usage)
			if f.DefValue != "" && f.DefValue != "0" && f.DefValue != "false" {
				fmt.Fprintf(out, " %s(default %s)%s", t.Muted, f.DefValue, t.Reset)
			}
			fmt.Fprintln(out)
		})
		fmt.Fprintf(out, "\nEvery flag can also be set as %s<NAME> (e.g. %sMAX=5000).\n\n", EnvPrefix, EnvPrefix)
	}
}
