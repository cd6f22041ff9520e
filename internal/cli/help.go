package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

// Custom help styles
var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1F6FB2")).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFA500")).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AA00")).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAAA")).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888")).
				Italic(true)
)

// helpExamples are shown at the end of the help output
var helpExamples = []struct{ command, comment string }{
	{`speakscore -t "The cat sat on the mat." reading.wav`, "score one recording"},
	{"speakscore -f passage.txt --logs take1.wav take2.mp3", "batch with text reports"},
	{"speakscore -f passage.txt --backend whisper --json *.wav", "JSON lines via Whisper"},
	{`speakscore -t "..." --backend static --transcript "..." a.wav`, "offline, fixed transcript"},
}

// StyledHelpPrinter creates a custom help printer with Lipgloss styling.
// Flags are listed by their kong group, followed by the environment
// variables they read and some example invocations.
func StyledHelpPrinter(options kong.HelpOptions) func(options kong.HelpOptions, ctx *kong.Context) error {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		// Title and description
		sb.WriteString(helpTitleStyle.Render("Speakscore 🎙"))
		sb.WriteString("\n")
		sb.WriteString(helpDescStyle.Render("Reading-aloud assessment for recorded passages"))
		sb.WriteString("\n")

		// Usage
		sb.WriteString(helpSectionStyle.Render("Usage:"))
		sb.WriteString("\n  ")
		sb.WriteString(fmt.Sprintf("%s [flags] --text <passage> <files> ...", ctx.Model.Name))
		sb.WriteString("\n")

		// Arguments section
		args := getArguments(ctx)
		if len(args) > 0 {
			sb.WriteString("\n")
			sb.WriteString(helpSectionStyle.Render("Arguments:"))
			sb.WriteString("\n")
			for _, arg := range args {
				sb.WriteString("  ")
				sb.WriteString(helpArgStyle.Render(arg.name))
				if arg.help != "" {
					sb.WriteString("  ")
					sb.WriteString(arg.help)
				}
				sb.WriteString("\n")
			}
		}

		// One section per flag group, ungrouped flags first
		flags := getFlags(ctx)
		for _, title := range groupOrder(flags) {
			sb.WriteString("\n")
			sb.WriteString(helpSectionStyle.Render(title + ":"))
			sb.WriteString("\n")
			for _, flag := range flags {
				if flag.group != title {
					continue
				}
				sb.WriteString("  ")
				sb.WriteString(helpFlagStyle.Render(flag.flags))
				if flag.help != "" {
					sb.WriteString("  ")
					sb.WriteString(flag.help)
				}
				if flag.defaultVal != "" {
					sb.WriteString(" ")
					sb.WriteString(helpDefaultStyle.Render("(default: " + flag.defaultVal + ")"))
				}
				sb.WriteString("\n")
			}
		}

		// Environment variables backing flags
		var envLines []string
		for _, flag := range flags {
			for _, env := range flag.envs {
				envLines = append(envLines, fmt.Sprintf("  %s  %s", helpArgStyle.Render("$"+env), helpDefaultStyle.Render("sets "+flag.name)))
			}
		}
		if len(envLines) > 0 {
			sb.WriteString("\n")
			sb.WriteString(helpSectionStyle.Render("Environment:"))
			sb.WriteString("\n")
			sb.WriteString(strings.Join(envLines, "\n"))
			sb.WriteString("\n")
		}

		sb.WriteString("\n")
		sb.WriteString(helpSectionStyle.Render("Examples:"))
		sb.WriteString("\n")
		for _, ex := range helpExamples {
			sb.WriteString("  ")
			sb.WriteString(ex.command)
			sb.WriteString("\n      ")
			sb.WriteString(helpDefaultStyle.Render(ex.comment))
			sb.WriteString("\n")
		}

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	}
}

type argument struct {
	name string
	help string
}

type flag struct {
	name       string
	flags      string
	help       string
	defaultVal string
	group      string
	envs       []string
}

// ungroupedTitle heads flags without a kong group tag
const ungroupedTitle = "Flags"

// groupOrder returns group titles in first-seen order, ungrouped first
func groupOrder(flags []flag) []string {
	order := []string{ungroupedTitle}
	seen := map[string]bool{ungroupedTitle: true}
	for _, f := range flags {
		if !seen[f.group] {
			seen[f.group] = true
			order = append(order, f.group)
		}
	}
	return order
}

func getArguments(ctx *kong.Context) []argument {
	var args []argument

	for _, arg := range ctx.Model.Node.Positional {
		args = append(args, argument{name: arg.Summary(), help: arg.Help})
	}

	return args
}

func getFlags(ctx *kong.Context) []flag {
	var flags []flag

	// Always include help flag
	flags = append(flags, flag{
		name:  "--help",
		flags: "-h, --help",
		help:  "Show context-sensitive help.",
		group: ungroupedTitle,
	})

	for _, f := range ctx.Model.Node.Flags {
		if f.Name == "help" || f.Hidden {
			continue
		}

		flagStr := fmt.Sprintf("--%s", f.Name)
		if f.Short != 0 {
			flagStr = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
		}
		if !f.IsBool() && f.PlaceHolder != "" {
			flagStr += "=" + strings.ToUpper(f.PlaceHolder)
		}

		group := ungroupedTitle
		if f.Group != nil {
			group = f.Group.Title
			if group == "" {
				group = f.Group.Key
			}
		}

		flags = append(flags, flag{
			name:       "--" + f.Name,
			flags:      flagStr,
			help:       f.Help,
			defaultVal: f.Default,
			group:      group,
			envs:       f.Envs,
		})
	}

	return flags
}
