package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"Zenith/core/bridge"
	"Zenith/core/playback"
	"Zenith/model"

	"github.com/spf13/cobra"
)

var miniCmd = &cobra.Command{
	Use:   "mini",
	Short: "启动迷你播放器",
	Long: `Start a mini player that mirrors the main player through the bridge.
Keys: t (play/pause), n (next), p (previous), q (quit).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, os.Stdout, appOptions{bridge: true})
		if err != nil {
			return err
		}
		defer a.close()
		if !a.surface.Connected() {
			return fmt.Errorf("mini player needs the bridge at %s", cfg.BridgeURL)
		}
		return runMini(ctx, a, os.Stdin)
	},
}

func init() {
	rootCmd.AddCommand(miniCmd)
}

func nowPlaying(s model.Snapshot) string {
	if s.CurrentTrack == nil {
		return "-- nothing playing --"
	}
	icon := "||"
	if s.IsPlaying {
		icon = "|>"
	}
	return fmt.Sprintf("%s %s - %s", icon, s.CurrentTrack.Title, s.CurrentTrack.Artist)
}

// runMini prints the shared state on every change and forwards keys as transport commands.
func runMini(ctx context.Context, a *app, in io.Reader) error {
	a.session.Subscribe(func(c playback.Change) {
		fmt.Fprintln(a.out, nowPlaying(c.Snapshot))
	})
	fmt.Fprintln(a.out, nowPlaying(a.session.Snapshot()))

	keys := map[string]bridge.Command{
		"t": bridge.CmdTogglePlay,
		" ": bridge.CmdTogglePlay,
		"n": bridge.CmdNext,
		"p": bridge.CmdPrev,
	}
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			key := strings.ToLower(strings.TrimSpace(line))
			if key == "" {
				key = " "
			}
			if key == "q" {
				return nil
			}
			cmd, ok := keys[key]
			if !ok {
				fmt.Fprintln(a.out, "keys: t n p q")
				continue
			}
			a.surface.Command(cmd)
		}
	}
}
