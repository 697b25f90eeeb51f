// Package cli provides shell completion script generation for various shells.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/agbru/fractalcalc/internal/config"
	"github.com/agbru/fractalcalc/internal/domain"
)

// GenerateCompletion generates a shell completion script for the specified shell.
//
// Parameters:
//   - out: The writer to output the completion script.
//   - shell: The shell type ("bash", "zsh", "fish").
//   - fractals: List of available fractal preset names.
//
// Returns:
//   - error: An error if the shell is not supported.
func GenerateCompletion(out io.Writer, shell string, fractals []string) error {
	names := strings.Join(fractals, " ")
	multipliers := strings.Join(domain.MultiplierNames(), " ")
	var script string
	switch shell {
	case "bash":
		script = bashCompletion
	case "zsh":
		script = zshCompletion
	case "fish":
		script = fishCompletion
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: %s)", shell, strings.Join(config.CompletionShells, ", "))
	}
	_, err := fmt.Fprintf(out, script, names, multipliers)
	return err
}

const bashCompletion = `# Bash completion script for fractalcalc
# Add this to your ~/.bashrc or ~/.bash_completion

_fractalcalc_completions() {
    local cur prev opts fractals multipliers
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    opts="-h -help -version -fractal -min -max -re -im -size -width -height -multiplier -chunks -workers -seed -boundary -frames -repeat -reference-frame -save-images -palette -timeout -json -o -output -q -quiet -no-color -server -port -log-level -d -details -completion"
    fractals="%s"
    multipliers="%s"

    case "${prev}" in
        -fractal)
            COMPREPLY=( $(compgen -W "${fractals}" -- "${cur}") )
            return 0
            ;;
        -multiplier)
            COMPREPLY=( $(compgen -W "${multipliers}" -- "${cur}") )
            return 0
            ;;
        -completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- "${cur}") )
            return 0
            ;;
        -log-level)
            COMPREPLY=( $(compgen -W "debug info warn error disabled" -- "${cur}") )
            return 0
            ;;
        -o|-output)
            COMPREPLY=( $(compgen -f -- "${cur}") )
            return 0
            ;;
        -timeout)
            COMPREPLY=( $(compgen -W "1m 5m 10m 30m 1h" -- "${cur}") )
            return 0
            ;;
    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}

complete -F _fractalcalc_completions fractalcalc
`

const zshCompletion = `#compdef fractalcalc

# Zsh completion script for fractalcalc
# Add this to your ~/.zshrc or place in $fpath

_fractalcalc() {
    local -a fractals multipliers
    fractals=(%s)
    multipliers=(%s)

    _arguments -s \
        '-version[Show version information]' \
        '-fractal[Fractal preset]:fractal:($fractals)' \
        '-min[Minimum recorded path length]:number:' \
        '-max[Iteration budget]:number:' \
        '-re[Real part of the centre]:number:' \
        '-im[Imaginary part of the centre]:number:' \
        '-size[Span of the real axis]:number:' \
        '-width[Horizontal resolution]:pixels:' \
        '-height[Vertical resolution]:pixels:' \
        '-multiplier[Oversampling mode]:multiplier:($multipliers)' \
        '-chunks[Chunks per axis]:number:' \
        '-workers[Concurrent chunk workers]:number:' \
        '-seed[Chunk order seed]:number:' \
        '-frames[Frames with -repeat]:number:' \
        '-repeat[Calculate several frames]' \
        '-timeout[Maximum execution time]:duration:(1m 5m 10m 30m 1h)' \
        '-json[Output in JSON format]' \
        '(-o -output)'{-o,-output}'[Write summaries to a file]:file:_files' \
        '(-q -quiet)'{-q,-quiet}'[Quiet mode for scripts]' \
        '-no-color[Disable colored output]' \
        '-server[Start HTTP server mode]' \
        '-port[Server port]:port:(8080 3000 5000 9000)' \
        '-log-level[Log level]:level:(debug info warn error disabled)' \
        '(-d -details)'{-d,-details}'[Show element states and signals]' \
        '-completion[Generate completion script]:shell:(bash zsh fish)'
}

_fractalcalc "$@"
`

const fishCompletion = `# Fish completion script for fractalcalc
# Add this to ~/.config/fish/completions/fractalcalc.fish

complete -c fractalcalc -f

complete -c fractalcalc -o version -d 'Show version information'
complete -c fractalcalc -o fractal -d 'Fractal preset' -xa '%s'
complete -c fractalcalc -o multiplier -d 'Oversampling mode' -xa '%s'
complete -c fractalcalc -o min -d 'Minimum recorded path length' -x
complete -c fractalcalc -o max -d 'Iteration budget' -x
complete -c fractalcalc -o size -d 'Span of the real axis' -x
complete -c fractalcalc -o repeat -d 'Calculate several frames'
complete -c fractalcalc -o frames -d 'Frames with -repeat' -x
complete -c fractalcalc -o timeout -d 'Maximum execution time' -xa '1m 5m 10m 30m 1h'
complete -c fractalcalc -o json -d 'Output in JSON format'
complete -c fractalcalc -o output -d 'Write summaries to a file' -rF
complete -c fractalcalc -o quiet -d 'Quiet mode for scripts'
complete -c fractalcalc -o no-color -d 'Disable colored output'
complete -c fractalcalc -o server -d 'Start HTTP server mode'
complete -c fractalcalc -o port -d 'Server port' -xa '8080 3000 5000 9000'
complete -c fractalcalc -o log-level -d 'Log level' -xa 'debug info warn error disabled'
complete -c fractalcalc -o details -d 'Show element states and signals'
complete -c fractalcalc -o completion -d 'Generate completion script' -xa 'bash zsh fish'
`
