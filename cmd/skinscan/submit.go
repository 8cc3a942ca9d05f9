package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/oukeidos/skinscan/internal/analysis"
	"github.com/oukeidos/skinscan/internal/apperrors"
	"github.com/oukeidos/skinscan/internal/auth"
	"github.com/oukeidos/skinscan/internal/backend"
	"github.com/oukeidos/skinscan/internal/cleanup"
	"github.com/oukeidos/skinscan/internal/config"
	"github.com/oukeidos/skinscan/internal/files"
	"github.com/oukeidos/skinscan/internal/gemini"
	"github.com/oukeidos/skinscan/internal/logger"
	"github.com/oukeidos/skinscan/internal/prompt"
	"github.com/oukeidos/skinscan/internal/recovery"
	"github.com/oukeidos/skinscan/internal/screen"
	"github.com/oukeidos/skinscan/internal/submission"
	"github.com/oukeidos/skinscan/internal/tui"
)

var (
	newChooser = func() screen.Chooser { return prompt.DefaultConfirmer() }
	confirmer  = prompt.DefaultConfirmer
)

type submitOptions struct {
	front, left, right string
	sessionID          string
	analyzer           string
	format             string
	output             string
	yes                bool
	useTUI             bool
	noProgress         bool
	noState            bool
	maxAttempts        int
	seed               uint64
	allowEnv           bool
	envOnly            bool
}

func newSubmitCmd(g *globalOptions) *cobra.Command {
	opts := submitOptions{}
	cmd := &cobra.Command{
		Use:   "submit --front <photo> [--left <photo>] [--right <photo>]",
		Short: "Upload face photos and show the skin analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, g, &opts)
		},
		SilenceUsage: true,
	}

	cmd.SetUsageTemplate(subcommandUsageTemplate)
	f := cmd.Flags()
	f.StringVar(&opts.front, "front", "", "Front photo")
	f.StringVar(&opts.left, "left", "", "Left profile photo")
	f.StringVar(&opts.right, "right", "", "Right profile photo")
	f.StringVar(&opts.sessionID, "session", "", "Session or questionnaire ID (default: new)")
	f.Var(newChoiceValue(&opts.analyzer, "", "analyzer", config.AnalyzerFunction, config.AnalyzerGemini), "analyzer", "Analyzer: function or gemini (overrides config)")
	f.Var(newChoiceValue(&opts.format, analysis.FormatText, "format", analysis.Formats...), "format", "Report format: "+strings.Join(analysis.Formats, ", "))
	f.StringVarP(&opts.output, "output", "o", "", "Write the report to a file instead of stdout")
	f.BoolVarP(&opts.yes, "yes", "y", false, "Overwrite the output file without asking")
	f.BoolVar(&opts.useTUI, "tui", false, "Show the full-screen loading screen")
	f.BoolVar(&opts.noProgress, "no-progress", false, "Hide the progress bar")
	f.BoolVar(&opts.noState, "no-state", false, "Do not save the local recovery record")
	f.IntVar(&opts.maxAttempts, "max-attempts", 3, "Attempts allowed when choosing Try Again")
	f.Uint64Var(&opts.seed, "seed", 0, "Progress animation seed (0 = random)")
	f.BoolVar(&opts.allowEnv, "allow-env", false, "Allow reading keys from environment variables")
	f.BoolVar(&opts.envOnly, "env-only", false, "Use only environment variables for keys")
	return cmd
}

func (o *submitOptions) validate() error {
	if o.front == "" && o.left == "" && o.right == "" {
		return fmt.Errorf("at least one of --front, --left or --right is required")
	}
	if o.maxAttempts < 1 {
		return fmt.Errorf("--max-attempts must be at least 1")
	}
	if o.sessionID != "" {
		if err := recovery.ValidateSessionID(o.sessionID); err != nil {
			return err
		}
	}
	return nil
}

// readRequest loads the photos. Reading again on every attempt picks up
// photos retaken between attempts.
func (o *submitOptions) readRequest(sessionID string) (submission.Request, error) {
	req := submission.Request{SessionID: sessionID}
	for i, p := range []string{o.front, o.left, o.right} {
		if p == "" {
			continue
		}
		data, err := files.ReadImage(p)
		if err != nil {
			return req, fmt.Errorf("%s photo: %w", submission.Slots[i], err)
		}
		req.Images[i] = &submission.Image{Name: p, Data: data}
	}
	return req, nil
}

func runSubmit(cmd *cobra.Command, g *globalOptions, opts *submitOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	console := cmd.ErrOrStderr()
	if opts.useTUI {
		console = io.Discard
	}
	cfg, err := g.setup(console)
	if err != nil {
		return err
	}
	if opts.analyzer != "" {
		cfg.Analyzer = opts.analyzer
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	ctx, stop := signalContext()
	defer stop()

	submitter, err := buildSubmitter(ctx, cfg, opts)
	if err != nil {
		return err
	}

	sessionID := opts.sessionID
	if sessionID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate session id: %w", err)
		}
		sessionID = id.String()
	}

	screenOpts := screen.Options{Timing: cfg.Timing(), Seed: opts.seed}
	out := cmd.OutOrStdout()
	for attempt := 1; ; attempt++ {
		req, err := opts.readRequest(sessionID)
		if err != nil {
			return err
		}
		logger.Info("Submitting scan", "session_id", sessionID, "attempt", attempt, "images", req.Present(), "analyzer", cfg.Analyzer)

		var (
			nav     tui.Navigation
			session *screen.Session
		)
		if opts.useTUI {
			nav, session, err = tui.Run(ctx, submitter, req, screenOpts)
		} else {
			nav, session, err = runPlainScreen(ctx, submitter, req, screenOpts, cmd.ErrOrStderr(), newChooser(), !opts.noProgress)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Warn("Submission canceled")
				return nil
			}
			return err
		}

		res, _ := session.Result()
		reportSideEffects(res)

		switch nav.Kind {
		case tui.NavReplace:
			return writeReport(out, nav.Payload, opts)
		case tui.NavBack:
			if attempt >= opts.maxAttempts {
				return fmt.Errorf("analysis failed after %d attempts: %s", attempt, res.Outcome.Message())
			}
			logger.Info("Trying again", "session_id", sessionID, "next_attempt", attempt+1)
		case tui.NavReset:
			return fmt.Errorf("scan cancelled: %s", res.Outcome.Message())
		default:
			return fmt.Errorf("loading screen closed without a decision")
		}
	}
}

// buildSubmitter wires the uploader, analyzer and recovery store from cfg.
func buildSubmitter(ctx context.Context, cfg *config.Config, opts *submitOptions) (*submission.Submitter, error) {
	backendKey, source, err := resolveAPIKey(auth.ServiceBackend, opts.allowEnv, opts.envOnly)
	if err != nil {
		return nil, err
	}
	logger.Info("Using key", "service", auth.ServiceBackend, "source", source)

	client, err := backend.NewClient(backend.Config{
		URL:      cfg.Backend.URL,
		Key:      backendKey,
		Bucket:   cfg.Backend.Bucket,
		Function: cfg.Backend.Function,
	})
	if err != nil {
		return nil, err
	}

	var (
		uploader submission.Uploader = client
		analyzer submission.Analyzer = client
	)
	if cfg.Analyzer == config.AnalyzerGemini {
		geminiKey, source, err := resolveAPIKey(auth.ServiceGemini, opts.allowEnv, opts.envOnly)
		if err != nil {
			return nil, err
		}
		logger.Info("Using key", "service", auth.ServiceGemini, "source", source, "model", cfg.Gemini.Model)
		gc, err := gemini.NewClient(ctx, geminiKey, cfg.Gemini.Model)
		if err != nil {
			return nil, err
		}
		cleanup.Register("gemini client", gc.Close)
		stash := submission.NewStash(client)
		uploader = stash
		analyzer = gemini.NewAnalyzer(gc, stash)
	}

	var saver submission.StateSaver
	if !opts.noState {
		dir, err := stateDir(cfg)
		if err != nil {
			return nil, err
		}
		saver = recovery.NewStore(dir)
	}
	return submission.New(uploader, analyzer, saver), nil
}

func reportSideEffects(res submission.Result) {
	for _, se := range res.SideEffects {
		if se.Err != nil {
			logger.Warn("Side effect failed", "name", se.Name, "error", apperrors.Detail(se.Err))
			continue
		}
		logger.Debug("Side effect done", "name", se.Name, "location", se.Location)
	}
}

func writeReport(out io.Writer, payload *analysis.Payload, opts *submitOptions) error {
	var buf bytes.Buffer
	if err := analysis.Render(&buf, payload, opts.format); err != nil {
		return err
	}
	if opts.output == "" {
		_, err := out.Write(buf.Bytes())
		return err
	}

	if _, err := os.Stat(opts.output); err == nil {
		ok, err := confirmer().ConfirmOverwrite(opts.output, opts.yes)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("not overwriting %s", opts.output)
		}
	}
	if err := files.AtomicWrite(opts.output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(out, "Report written to %s\n", opts.output)
	return nil
}
