package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/prayerload/internal/stub"
)

func newStubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Serve a stub prayer-data endpoint to load test against",
		Long: `Run a local server answering GET /getPrayerData like the prayer wall does.
Use --status to force every response to one status, and --latency to slow
responses down.

  prayerload stub --addr 127.0.0.1:8080
  prayerload stub --status 500 --latency 200ms`,
		Args: cobra.NoArgs,
		RunE: serveStub,
	}

	cmd.Flags().String("addr", "127.0.0.1:8080", "Listen address")
	cmd.Flags().Int("status", 0, "Force this HTTP status on every response")
	cmd.Flags().Duration("latency", 0, "Delay before every response")

	return cmd
}

func serveStub(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	status, _ := cmd.Flags().GetInt("status")
	latency, _ := cmd.Flags().GetDuration("latency")

	if status != 0 && (status < 100 || status > 599) {
		return fmt.Errorf("invalid --status %d", status)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	handler := stub.NewHandler(stub.Options{Status: status, Latency: latency})
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Stub prayer-data server listening on http://%s%s\n", ln.Addr(), stub.PrayerDataPath)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop stub server: %w", err)
	}
	fmt.Fprintf(out, "Served %d requests\n", handler.Count())
	return nil
}
