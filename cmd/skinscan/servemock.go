package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/oukeidos/skinscan/internal/logger"
	"github.com/oukeidos/skinscan/internal/mockbackend"
)

func newServeMockCmd(g *globalOptions) *cobra.Command {
	var (
		addr string
		opts mockbackend.Options
	)
	cmd := &cobra.Command{
		Use:   "serve-mock",
		Short: "Run a local stand-in for the storage and analysis backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := g.setup(cmd.ErrOrStderr()); err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()
			return serveMock(ctx, addr, opts, func(bound string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Mock backend listening on http://%s\n", bound)
			})
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	f := cmd.Flags()
	f.StringVar(&addr, "addr", "127.0.0.1:54321", "Listen address")
	f.StringVar(&opts.Key, "key", "", "Require this apikey header")
	f.DurationVar(&opts.UploadLatency, "upload-latency", 0, "Delay added to each upload")
	f.DurationVar(&opts.AnalysisLatency, "analysis-latency", 2*time.Second, "Delay added to the analysis call")
	f.StringVar(&opts.FailUploadsMatching, "fail-uploads", "", "Fail uploads whose path contains this text (e.g. left)")
	f.IntVar(&opts.AnalysisStatus, "analysis-status", 0, "HTTP status the analysis function answers with")
	f.StringVar(&opts.AnalysisError, "analysis-error", "", "Error the analysis function reports with a 200")
	return cmd
}

// serveMock blocks until ctx is done.
func serveMock(ctx context.Context, addr string, opts mockbackend.Options, ready func(string)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           mockbackend.New(opts).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if ready != nil {
		ready(ln.Addr().String())
	}
	logger.Info("Mock backend started", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("mock backend shutdown: %w", err)
	}
	logger.Info("Mock backend stopped")
	return nil
}
