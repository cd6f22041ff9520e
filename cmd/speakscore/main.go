package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/speakscore/internal/cli"
	"github.com/linuxmatters/speakscore/internal/config"
	"github.com/linuxmatters/speakscore/internal/logging"
	"github.com/linuxmatters/speakscore/internal/processor"
	"github.com/linuxmatters/speakscore/internal/ui"
)

var (
	version = "0.0.1"
)

// debugLogPath receives slog output when --debug is set
const debugLogPath = "speakscore-debug.log"

// CLI defines the command-line interface
type CLI struct {
	Version    bool     `short:"v" help:"Show version information"`
	Config     string   `short:"c" type:"path" help:"Path to TOML config file (optional)"`
	Text       string   `short:"t" xor:"reference" group:"Reference" help:"Reference passage the speaker read"`
	TextFile   string   `short:"f" type:"existingfile" xor:"reference" group:"Reference" help:"File containing the reference passage"`
	Backend    string   `placeholder:"NAME" group:"Recognition" help:"Recognition backend: google, whisper or static (overrides config)"`
	Transcript string   `group:"Recognition" help:"Transcript returned by the static backend"`
	Language   string   `placeholder:"TAG" group:"Recognition" help:"Recognition language, e.g. en-GB (default from system timezone)"`
	GoogleKey  string   `name:"google-key" env:"SPEAKSCORE_GOOGLE_KEY" group:"Recognition" help:"Google speech API key"`
	OpenAIKey  string   `name:"openai-key" env:"OPENAI_API_KEY" group:"Recognition" help:"API key for the whisper backend"`
	WhisperURL string   `name:"whisper-url" env:"SPEAKSCORE_WHISPER_URL" group:"Recognition" help:"Base URL of an OpenAI-compatible transcription API"`
	JSON       bool     `name:"json" group:"Output" help:"Print one JSON report per file instead of the interactive display"`
	Plain      bool     `group:"Output" help:"Print plain text results instead of the interactive display"`
	Logs       bool     `group:"Output" help:"Save a detailed score report next to each input"`
	Debug      bool     `group:"Output" help:"Write debug logging to speakscore-debug.log"`
	Files      []string `arg:"" name:"files" help:"Audio files to score (WAV or MP3)" type:"existingfile" optional:""`
}

func main() {
	cliArgs := &CLI{}
	kctx := kong.Parse(cliArgs,
		kong.Name("speakscore"),
		kong.Description("Reading-aloud assessment for recorded passages"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	if len(cliArgs.Files) == 0 {
		cli.PrintError("No input files specified")
		kctx.PrintUsage(false)
		os.Exit(1)
	}

	closeLog := setupLogging(cliArgs.Debug)
	defer closeLog()

	cfg, err := config.Load(cliArgs.Config)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	r, err := newRunner(cliArgs, cfg)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var failed int
	switch {
	case cliArgs.JSON:
		failed = runJSON(ctx, r, cliArgs.Files, os.Stdout)
	case cliArgs.Plain:
		failed = runPlain(ctx, r, cliArgs.Files, os.Stdout)
	default:
		failed = runTUI(ctx, r, cliArgs.Files)
	}

	if failed > 0 {
		closeLog()
		os.Exit(1)
	}
}

// setupLogging sends debug output to a file so it never corrupts the TUI.
// Without --debug only errors reach stderr.
func setupLogging(debug bool) func() {
	if debug {
		f, err := os.Create(debugLogPath)
		if err == nil {
			slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
			slog.Debug("speakscore starting", "version", version)
			return func() { f.Close() }
		}
		cli.PrintWarning(fmt.Sprintf("cannot open %s: %v", debugLogPath, err))
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	return func() {}
}

// jsonReport is one line of --json output
type jsonReport struct {
	File  string `json:"file"`
	Error string `json:"error,omitempty"`
	*processor.ScoreReport
}

// runJSON prints one JSON object per file and returns the number of failures
func runJSON(ctx context.Context, r *runner, files []string, w io.Writer) int {
	enc := json.NewEncoder(w)
	failed := 0
	for _, inputPath := range files {
		out := jsonReport{File: inputPath}
		res, err := r.scoreFile(ctx, inputPath, nil)
		if err != nil {
			failed++
			out.Error = err.Error()
		} else {
			out.ScoreReport = res.Report
		}
		if err := enc.Encode(out); err != nil {
			slog.Error("failed to encode report", "path", inputPath, "error", err)
			failed++
		}
	}
	return failed
}

// runPlain prints a console summary per file and returns the number of failures
func runPlain(ctx context.Context, r *runner, files []string, w io.Writer) int {
	failed := 0
	for _, inputPath := range files {
		res, err := r.scoreFile(ctx, inputPath, nil)
		if err != nil {
			failed++
			cli.PrintError(err.Error())
			continue
		}
		logging.DisplayScoreResults(w, inputPath, res.Metadata, res.Report, r.scorer.Config())
		if res.ReportPath != "" {
			fmt.Fprintf(w, "Report: %s\n\n", res.ReportPath)
		}
	}
	return failed
}

// runTUI scores files in the background while the Bubbletea program renders
// progress, and returns the number of failures
func runTUI(ctx context.Context, r *runner, files []string) int {
	model := ui.NewModel(files)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		for i, inputPath := range files {
			if ctx.Err() != nil {
				break
			}

			slog.Debug("sending FileStartMsg", "index", i, "path", inputPath)
			p.Send(ui.FileStartMsg{
				FileIndex: i,
				FileName:  inputPath,
			})

			progress := func(stage processor.Stage, activity *processor.ActivityMeasurements) {
				p.Send(ui.ProgressMsg{Stage: stage, Activity: activity})
			}

			res, err := r.scoreFile(ctx, inputPath, progress)
			if err != nil {
				slog.Debug("scoring failed", "path", inputPath, "error", err)
				p.Send(ui.FileCompleteMsg{FileIndex: i, Error: err})
				continue
			}

			p.Send(ui.FileCompleteMsg{
				FileIndex:  i,
				Report:     res.Report,
				ReportPath: res.ReportPath,
			})
		}

		slog.Debug("sending AllCompleteMsg")
		p.Send(ui.AllCompleteMsg{})
	}()

	final, err := p.Run()
	if ctx.Err() != nil {
		cli.PrintError("Interrupted")
		return len(files)
	}
	if err != nil {
		cli.PrintError(fmt.Sprintf("UI error: %v", err))
		return len(files)
	}

	m, ok := final.(ui.Model)
	if !ok || !m.Done {
		// Quit before every file was scored
		return max(1, m.FailedFiles)
	}
	return m.FailedFiles
}
