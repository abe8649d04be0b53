package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"Zenith/core/library"
	"Zenith/core/playback"
	"Zenith/core/prefs"
	"Zenith/model"
)

var (
	errQuit    = errors.New("quit")
	errNoAudio = errors.New("this surface has no audio output")
	errUsage   = errors.New("usage")

	errNothingPlaying = errors.New("nothing is playing")
)

type shellCommand struct {
	usage string
	help  string
	run   func(ctx context.Context, a *app, args []string) error
}

// shell reads one command per line and runs it against the app.
type shell struct {
	app      *app
	commands map[string]shellCommand
	listing  []model.Track // tracks numbered by the last list or search
}

func newShell(a *app) *shell {
	sh := &shell{app: a}
	sh.commands = map[string]shellCommand{
		"help":        {"help", "show commands", sh.help},
		"list":        {"list", "number the tracks of the active collection", sh.list},
		"collections": {"collections", "show the selectable collections", sh.collections},
		"select":      {"select <id>", "make a collection active", sh.selectCollection},
		"search":      {"search <query>", "search every source", sh.search},
		"playlist":    {"playlist [new <name>|add <id> [n]]", "show, create or fill your playlists", sh.playlist},
		"play":        {"play [n]", "play track n of the last listing, or resume", sh.play},
		"pause":       {"pause", "pause", func(context.Context, *app, []string) error { a.session.Pause(); return nil }},
		"toggle":      {"toggle", "play or pause", func(context.Context, *app, []string) error { a.session.TogglePlay(); return nil }},
		"next":        {"next", "next track", func(context.Context, *app, []string) error { a.session.Next(); return nil }},
		"prev":        {"prev", "restart or go to the previous track", func(context.Context, *app, []string) error { a.session.Previous(); return nil }},
		"stop":        {"stop", "stop and clear the current track", func(context.Context, *app, []string) error { a.session.Stop(); return nil }},
		"shuffle":     {"shuffle [on|off]", "toggle or set shuffle", sh.shuffle},
		"repeat":      {"repeat [off|all|one]", "cycle or set repeat", sh.repeat},
		"queue":       {"queue [add|next|rm|move|clear] ...", "show or edit the up-next queue", sh.queue},
		"sleep":       {"sleep <minutes>|off", "stop playback after a while", sh.sleep},
		"vol":         {"vol <0-100>", "set the volume", sh.volume},
		"mute":        {"mute", "toggle mute", sh.mute},
		"seek":        {"seek <sec>|+sec|-sec", "jump within the track", sh.seek},
		"import":      {"import <path>...", "add local files or folders", sh.importLocal},
		"like":        {"like [n]", "like or unlike a track", sh.like},
		"upload":      {"upload <file> [title]", "upload a song to your library", sh.upload},
		"delete":      {"delete <n>", "delete one of your songs", sh.deleteSong},
		"public":      {"public <n> on|off", "share a song on discover", sh.public},
		"signin":      {"signin <email> <password>", "sign in", sh.signIn},
		"signup":      {"signup <email> <password> [name]", "create an account", sh.signUp},
		"signout":     {"signout", "sign out", sh.signOut},
		"settings":    {"settings [theme|accent|crossfade|reset] ...", "show or change preferences", sh.settings},
		"status":      {"status", "show what is playing", sh.status},
		"quit":        {"quit", "exit", func(context.Context, *app, []string) error { return errQuit }},
	}
	return sh
}

// Run reads commands from in until EOF, quit or ctx ends.
func (sh *shell) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	sh.prompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := sh.Exec(ctx, line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				fmt.Fprintf(sh.app.out, "error: %v\n", err)
			}
			sh.prompt()
		}
	}
}

func (sh *shell) prompt() {
	fmt.Fprint(sh.app.out, "zenith> ")
}

// Exec runs one command line.
func (sh *shell) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name := strings.ToLower(fields[0])
	if name == "exit" {
		name = "quit"
	}
	c, ok := sh.commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q, try help", fields[0])
	}
	err := c.run(ctx, sh.app, fields[1:])
	if errors.Is(err, errUsage) {
		return fmt.Errorf("usage: %s", c.usage)
	}
	return err
}

func (sh *shell) help(context.Context, *app, []string) error {
	names := make([]string, 0, len(sh.commands))
	for name := range sh.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := sh.commands[name]
		fmt.Fprintf(sh.app.out, "  %-42s %s\n", c.usage, c.help)
	}
	return nil
}

func (sh *shell) printTracks(tracks []model.Track) {
	sh.listing = tracks
	cur := sh.app.session.Current()
	for i, t := range tracks {
		marker := " "
		if cur != nil && cur.ID == t.ID {
			marker = ">"
		}
		fmt.Fprintf(sh.app.out, "%s %3d. %s - %s (%s)\n", marker, i+1, t.Title, t.Artist, formatSeconds(float64(t.Duration)))
	}
	if len(tracks) == 0 {
		fmt.Fprintln(sh.app.out, "  (empty)")
	}
}

// track resolves a 1-based index into the last listing, or the active
// collection before anything was listed.
func (sh *shell) track(arg string) (model.Track, error) {
	listing := sh.listing
	if listing == nil {
		listing = sh.app.agg.ActiveCollection().Tracks
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(listing) {
		return model.Track{}, fmt.Errorf("no track %q in the last listing", arg)
	}
	return listing[n-1], nil
}

// trackOrCurrent resolves args[0] or falls back to the current track.
func (sh *shell) trackOrCurrent(args []string) (model.Track, error) {
	if len(args) > 0 {
		return sh.track(args[0])
	}
	cur := sh.app.session.Current()
	if cur == nil {
		return model.Track{}, errNothingPlaying
	}
	return *cur, nil
}

func (sh *shell) list(_ context.Context, a *app, _ []string) error {
	active := a.agg.ActiveCollection()
	fmt.Fprintf(a.out, "%s (%d)\n", active.Name, active.Len())
	sh.printTracks(active.Tracks)
	return nil
}

func (sh *shell) collections(_ context.Context, a *app, _ []string) error {
	src := a.agg.Sources()
	selected := a.agg.Selected()
	row := func(id, name string, n int) {
		marker := " "
		if id == selected {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %-28s %-30s %d\n", marker, id, name, n)
	}
	row(library.SelectLiked, "Liked Songs", len(src.Liked))
	row(library.SelectCloud, "My Uploads", len(src.Cloud))
	row(library.SelectLocal, "Local Files", len(src.Local))
	row(library.SelectDiscover, "Discover", len(src.Public))
	row(library.SelectRecent, "Recently Played", len(src.Recent))
	for _, p := range src.Playlists {
		row(p.ID, p.Name, p.Len())
	}
	for _, album := range a.agg.Albums() {
		row(album.ID, album.Name, album.Len())
	}
	return nil
}

func (sh *shell) selectCollection(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	a.agg.Select(strings.Join(args, " "))
	a.saveSession()
	return sh.list(ctx, a, nil)
}

func (sh *shell) playlist(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		for _, p := range a.agg.Playlists() {
			fmt.Fprintf(a.out, "  %-48s %-30s %d\n", p.ID, p.Name, p.Len())
		}
		return nil
	}
	switch strings.ToLower(args[0]) {
	case "new":
		if len(args) < 2 {
			return errUsage
		}
		p := library.NewPlaylist(strings.Join(args[1:], " "), "")
		a.agg.AddPlaylist(p)
		a.savePlaylists()
		fmt.Fprintf(a.out, "Created playlist %q (%s)\n", p.Name, p.ID)
		return sh.selectCollection(ctx, a, []string{p.ID})
	case "add":
		if len(args) < 2 {
			return errUsage
		}
		t, err := sh.trackOrCurrent(args[2:])
		if err != nil {
			return err
		}
		added, err := a.agg.AddToPlaylist(args[1], t)
		if err != nil {
			return err
		}
		if !added {
			fmt.Fprintf(a.out, "%s is already in the playlist\n", t.Title)
			return nil
		}
		a.savePlaylists()
		fmt.Fprintf(a.out, "Added %s\n", t.Title)
		return nil
	}
	return errUsage
}

func (sh *shell) search(_ context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	sh.printTracks(library.Search(strings.Join(args, " "), a.agg.AllTracks(), library.DefaultSearchLimit))
	return nil
}

func (sh *shell) play(_ context.Context, a *app, args []string) error {
	if len(args) == 0 {
		if a.session.Current() != nil {
			a.session.Resume()
			return nil
		}
		active := a.agg.ActiveCollection()
		if active.Len() == 0 {
			return errors.New("the active collection is empty")
		}
		a.session.Play(active.Tracks[0])
		return nil
	}
	t, err := sh.track(args[0])
	if err != nil {
		return err
	}
	a.session.Play(t)
	return nil
}

func parseOnOff(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, errUsage
}

func (sh *shell) shuffle(_ context.Context, a *app, args []string) error {
	if len(args) == 0 {
		a.session.ToggleShuffle()
	} else {
		on, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		a.session.SetShuffle(on)
	}
	fmt.Fprintf(a.out, "shuffle %s\n", onOff(a.session.Shuffle()))
	return nil
}

func (sh *shell) repeat(_ context.Context, a *app, args []string) error {
	if len(args) == 0 {
		a.session.CycleRepeat()
	} else {
		mode := model.RepeatMode(strings.ToLower(args[0]))
		if !mode.Valid() {
			return errUsage
		}
		a.session.SetRepeat(mode)
	}
	fmt.Fprintf(a.out, "repeat %s\n", a.session.Repeat())
	return nil
}

func (sh *shell) queue(_ context.Context, a *app, args []string) error {
	q := a.session.Queue()
	if len(args) == 0 {
		tracks := q.Tracks()
		for i, t := range tracks {
			fmt.Fprintf(a.out, "  %d. %s - %s\n", i+1, t.Title, t.Artist)
		}
		if len(tracks) == 0 {
			fmt.Fprintln(a.out, "  (queue is empty)")
		}
		return nil
	}

	index := func(arg string) (int, error) {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return 0, errUsage
		}
		return n - 1, nil
	}

	switch args[0] {
	case "add", "next":
		if len(args) < 2 {
			return errUsage
		}
		t, err := sh.track(args[1])
		if err != nil {
			return err
		}
		if args[0] == "add" {
			q.Add(t)
		} else {
			q.PlayNext(t)
		}
	case "rm":
		if len(args) < 2 {
			return errUsage
		}
		i, err := index(args[1])
		if err != nil {
			return err
		}
		q.Remove(i)
	case "move":
		if len(args) < 3 {
			return errUsage
		}
		from, err := index(args[1])
		if err != nil {
			return err
		}
		to, err := index(args[2])
		if err != nil {
			return err
		}
		q.Reorder(from, to)
	case "clear":
		q.Clear()
	default:
		return errUsage
	}
	return nil
}

func (sh *shell) sleep(_ context.Context, a *app, args []string) error {
	if len(args) == 0 {
		if a.timer.Active() {
			fmt.Fprintf(a.out, "sleep in %s\n", playback.FormatRemaining(a.timer.Remaining()))
		} else {
			fmt.Fprintln(a.out, "no sleep timer")
		}
		return nil
	}
	if args[0] == "off" {
		a.timer.Cancel()
		return nil
	}
	minutes, err := strconv.Atoi(args[0])
	if err != nil {
		return errUsage
	}
	return a.timer.Start(minutes)
}

func (sh *shell) volume(_ context.Context, a *app, args []string) error {
	if a.transport == nil {
		return errNoAudio
	}
	if len(args) == 0 {
		v, muted := a.transport.Volume()
		if muted {
			fmt.Fprintf(a.out, "volume %d%% (muted)\n", int(v*100+0.5))
		} else {
			fmt.Fprintf(a.out, "volume %d%%\n", int(v*100+0.5))
		}
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSuffix(args[0], "%"))
	if err != nil {
		return errUsage
	}
	a.transport.SetVolume(float64(n) / 100)
	a.saveSession()
	return nil
}

func (sh *shell) mute(_ context.Context, a *app, _ []string) error {
	if a.transport == nil {
		return errNoAudio
	}
	a.transport.ToggleMute()
	a.saveSession()
	return nil
}

func (sh *shell) seek(_ context.Context, a *app, args []string) error {
	if a.transport == nil {
		return errNoAudio
	}
	if len(args) == 0 {
		return errUsage
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return errUsage
	}
	if strings.HasPrefix(args[0], "+") || strings.HasPrefix(args[0], "-") {
		a.transport.SeekBy(v)
	} else {
		a.transport.Seek(v)
	}
	return nil
}

func (sh *shell) importLocal(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	var tracks []model.Track
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return err
		}
		if info.IsDir() {
			found, err := a.scanner.Scan(ctx, arg)
			if err != nil {
				return err
			}
			tracks = append(tracks, found...)
			continue
		}
		files = append(files, arg)
	}
	described, err := a.scanner.Describe(ctx, files)
	if err != nil {
		return err
	}
	tracks = append(tracks, described...)
	if len(tracks) == 0 {
		return errors.New("no supported audio files found")
	}
	added := a.library.ImportLocal(tracks)
	fmt.Fprintf(a.out, "imported %d track(s)\n", len(added))
	return nil
}

func (sh *shell) like(ctx context.Context, a *app, args []string) error {
	t, err := sh.trackOrCurrent(args)
	if err != nil {
		return err
	}
	return a.library.ToggleLike(ctx, t)
}

func (sh *shell) upload(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	name := filepath.Base(args[0])
	fields := model.TrackFields{}
	if len(args) > 1 {
		fields.Title = strings.Join(args[1:], " ")
	}
	_, err = a.library.Upload(ctx, library.File{Name: name, Data: data}, fields)
	return err
}

func (sh *shell) deleteSong(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	t, err := sh.track(args[0])
	if err != nil {
		return err
	}
	return a.library.Delete(ctx, t.ID)
}

func (sh *shell) public(ctx context.Context, a *app, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	t, err := sh.track(args[0])
	if err != nil {
		return err
	}
	on, err := parseOnOff(args[1])
	if err != nil {
		return err
	}
	return a.library.SetVisibility(ctx, t.ID, on)
}

func (sh *shell) signIn(ctx context.Context, a *app, args []string) error {
	if a.auth == nil {
		return errOffline
	}
	if len(args) < 2 {
		return errUsage
	}
	u, err := a.auth.SignIn(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "signed in as %s\n", u.ArtistName())
	return nil
}

func (sh *shell) signUp(ctx context.Context, a *app, args []string) error {
	if a.auth == nil {
		return errOffline
	}
	if len(args) < 2 {
		return errUsage
	}
	u, err := a.auth.SignUp(ctx, args[0], args[1], strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "welcome, %s\n", u.ArtistName())
	return nil
}

func (sh *shell) signOut(_ context.Context, a *app, _ []string) error {
	if a.auth == nil {
		return errOffline
	}
	a.auth.SignOut()
	return nil
}

func (sh *shell) settings(_ context.Context, a *app, args []string) error {
	if len(args) == 0 {
		s := a.prefs.Get()
		fmt.Fprintf(a.out, "theme      %s\n", s.Theme)
		fmt.Fprintf(a.out, "accent     %s (%s)\n", s.AccentColor, s.Palette().Primary)
		fmt.Fprintf(a.out, "crossfade  %s, %ds\n", onOff(s.CrossfadeEnabled), s.CrossfadeDuration)
		fmt.Fprintf(a.out, "gapless    %s\n", onOff(s.GaplessPlayback))
		fmt.Fprintf(a.out, "autoplay   %s\n", onOff(s.AutoPlay))
		return nil
	}
	if args[0] == "reset" {
		return a.prefs.Reset()
	}
	if len(args) < 2 {
		return errUsage
	}
	var apply func(*prefs.Settings) error
	switch args[0] {
	case "theme":
		apply = func(s *prefs.Settings) error {
			s.Theme = prefs.ThemeMode(args[1])
			return nil
		}
	case "accent":
		if _, ok := prefs.AccentColors[prefs.AccentColor(args[1])]; !ok {
			return fmt.Errorf("unknown accent color %q", args[1])
		}
		apply = func(s *prefs.Settings) error {
			s.AccentColor = prefs.AccentColor(args[1])
			return nil
		}
	case "crossfade":
		apply = func(s *prefs.Settings) error {
			if on, err := parseOnOff(args[1]); err == nil {
				s.CrossfadeEnabled = on
				return nil
			}
			secs, err := strconv.Atoi(args[1])
			if err != nil {
				return errUsage
			}
			s.CrossfadeEnabled, s.CrossfadeDuration = true, secs
			return nil
		}
	case "gapless", "autoplay":
		on, err := parseOnOff(args[1])
		if err != nil {
			return err
		}
		apply = func(s *prefs.Settings) error {
			if args[0] == "gapless" {
				s.GaplessPlayback = on
			} else {
				s.AutoPlay = on
			}
			return nil
		}
	default:
		return errUsage
	}

	var applyErr error
	if err := a.prefs.Update(func(s *prefs.Settings) { applyErr = apply(s) }); err != nil {
		return err
	}
	return applyErr
}

func (sh *shell) status(_ context.Context, a *app, _ []string) error {
	cur := a.session.Current()
	if cur == nil {
		fmt.Fprintln(a.out, "nothing playing")
	} else {
		fmt.Fprintf(a.out, "%s: %s - %s\n", a.session.State(), cur.Title, cur.Artist)
		if a.transport != nil {
			fmt.Fprintf(a.out, "  %s / %s\n", formatSeconds(a.transport.Position()), formatSeconds(a.transport.Duration()))
		}
	}
	fmt.Fprintf(a.out, "shuffle %s, repeat %s, %d queued\n", onOff(a.session.Shuffle()), a.session.Repeat(), a.session.Queue().Len())
	if a.timer.Active() {
		fmt.Fprintf(a.out, "sleep in %s\n", playback.FormatRemaining(a.timer.Remaining()))
	}
	if a.auth != nil {
		if u := a.auth.CurrentUser(); u != nil {
			fmt.Fprintf(a.out, "signed in as %s\n", u.Email)
		}
	}
	if !a.surface.Connected() {
		fmt.Fprintln(a.out, "bridge not connected")
	}
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func formatSeconds(secs float64) string {
	if secs <= 0 {
		return "--:--"
	}
	return playback.FormatRemaining(time.Duration(secs) * time.Second)
}
