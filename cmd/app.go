package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"Zenith/config"
	"Zenith/core/audio"
	"Zenith/core/auth"
	"Zenith/core/bridge"
	"Zenith/core/library"
	"Zenith/core/local"
	"Zenith/core/playback"
	"Zenith/core/prefs"
	"Zenith/db"
	"Zenith/localstore"
	"Zenith/logger"
	"Zenith/model"
	"Zenith/repository"
	"Zenith/storage"
)

var errOffline = errors.New("cloud library unavailable")

// offlineStore stands in for the remote stores when the database cannot be reached.
type offlineStore struct{}

func (offlineStore) ListOwned(context.Context, string) ([]model.Track, error) { return nil, errOffline }
func (offlineStore) ListPublic(context.Context) ([]model.Track, error) { return nil, errOffline }
func (offlineStore) Create(context.Context, string, library.Upload) (*model.Track, error) {
	return nil, errOffline
}
func (offlineStore) Update(context.Context, string, model.TrackFields) error { return errOffline }
func (offlineStore) Delete(context.Context, string) error { return errOffline }
func (offlineStore) SetVisibility(context.Context, string, bool) error { return errOffline }
func (offlineStore) UploadCover(context.Context, string, library.File) (string, error) {
	return "", errOffline
}
func (offlineStore) SetCover(context.Context, []string, string) error { return errOffline }
func (offlineStore) List(context.Context, string) ([]model.Track, error) {
	return nil, errOffline
}
func (offlineStore) Add(context.Context, string, string) error { return errOffline }
func (offlineStore) Remove(context.Context, string, string) error { return errOffline }

type appOptions struct {
	audio   bool // owns audio output and executes transport commands
	persist bool // keeps recently played, settings and session in the local store
	remote  bool // connects the database and object storage
	bridge  bool // dials the cross-window bridge
	engine  audio.Engine
}

// app is one running surface with everything wired together.
type app struct {
	cfg *config.Config
	out io.Writer

	store     *localstore.Store
	prefs     *prefs.Prefs
	agg       *library.Aggregator
	session   *playback.Session
	transport *playback.Transport
	timer     *playback.SleepTimer
	auth      *auth.Provider
	library   *library.Service
	surface   *bridge.Surface
	scanner   *local.Scanner
	objects   *storage.MinioStore

	closers []func()
}

func (a *app) notify(n model.Notice) {
	fmt.Fprintf(a.out, "[%s] %s\n", n.Kind, n.Message)
	logger.Debug("notice", logger.String("kind", string(n.Kind)), logger.String("message", n.Message))
}

func newApp(ctx context.Context, cfg *config.Config, out io.Writer, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, out: out, agg: library.NewAggregator(), scanner: local.NewScanner()}
	notifier := model.Notifier(a.notify)

	var recentStore playback.RecentStore
	var prefStore prefs.Store
	var tokenStore auth.TokenStore
	if opts.persist {
		store, err := localstore.Open(cfg.LocalStoreDB)
		if err != nil {
			return nil, err
		}
		a.store = store
		recentStore, prefStore, tokenStore = store, store, store
		a.closers = append(a.closers, func() { store.Close() })
	}
	a.prefs = prefs.Load(prefStore)

	recent := playback.NewRecent(recentStore)
	recent.OnChange(a.agg.SetRecent)
	a.agg.SetRecent(recent.Tracks())

	a.session = playback.NewSession(a.agg, playback.WithNotifier(notifier), playback.WithRecent(recent))
	a.timer = playback.NewSleepTimer(a.session, notifier)
	go a.timer.Run(ctx, time.Second)

	if opts.audio {
		engine := opts.engine
		if engine == nil {
			engine = audio.NewEngine()
		}
		a.transport = playback.NewTransport(a.session, engine)
		a.closers = append(a.closers, func() { a.transport.Close() })
	}

	if a.store != nil {
		a.agg.SetPlaylists(a.store.LoadPlaylists())
		a.restoreSession()
	}

	var songs library.SongStore = offlineStore{}
	var liked library.LikedStore = offlineStore{}
	var identity library.Identity
	if opts.remote {
		if err := a.connectRemote(ctx, tokenStore); err != nil {
			logger.Warn("running without cloud library", logger.ErrorField(err))
			fmt.Fprintln(out, "Cloud library unavailable, local files only.")
		} else {
			songs = library.NewRemoteStore(repository.NewGormTrackRepository(db.GormDB), a.objects)
			liked = library.NewRemoteLiked(repository.NewGormLikedRepository(db.GormDB))
			identity = a.auth
		}
	}
	a.library = library.NewService(a.agg, songs, liked, identity, a.session, notifier, probeUpload)
	a.library.OnAuthRequired = func() { fmt.Fprintln(out, "Sign in required (signin <email> <password>).") }
	if a.auth != nil {
		if _, err := a.auth.Restore(ctx); err != nil {
			logger.Warn("恢复登录状态失败", logger.ErrorField(err))
		}
		a.auth.OnChange(func(*model.User) {
			if err := a.library.Refresh(ctx); err != nil {
				logger.Warn("刷新曲库失败", logger.ErrorField(err))
			}
		})
		if err := a.library.Refresh(ctx); err != nil {
			logger.Warn("刷新曲库失败", logger.ErrorField(err))
		}
	}

	if cfg.LocalMusicDir != "" {
		a.watchLocal(ctx, cfg.LocalMusicDir)
	}

	if opts.bridge {
		a.connectBridge(ctx, opts.audio)
	} else {
		a.surface = bridge.NewSurface(a.session, nil)
	}
	return a, nil
}

func (a *app) connectRemote(ctx context.Context, tokens auth.TokenStore) error {
	if err := db.ConnectGormDB(a.cfg); err != nil {
		return err
	}
	a.closers = append(a.closers, func() { db.CloseGormDB() })

	objects, err := storage.NewMinioStore(a.cfg)
	if err != nil {
		return err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := objects.EnsureBucket(pingCtx); err != nil {
		return err
	}
	a.objects = objects

	ttl := time.Duration(a.cfg.JWTTTLHours) * time.Hour
	a.auth = auth.NewProvider(repository.NewGormUserRepository(db.GormDB), tokens, a.cfg.JWTSecret, ttl)
	return nil
}

func (a *app) watchLocal(ctx context.Context, dir string) {
	tracks, err := a.scanner.Scan(ctx, dir)
	if err != nil {
		logger.Warn("扫描本地音乐失败", logger.String("dir", dir), logger.ErrorField(err))
		return
	}
	a.agg.SetLocal(tracks)

	w := local.NewWatcher(dir, a.scanner,
		func(added []model.Track) { a.agg.ImportLocal(added) },
		func(id string) {
			a.agg.RemoveTrack(id)
			a.session.TrackRemoved(id)
		})
	go func() {
		if err := w.Run(ctx); err != nil {
			logger.Warn("本地音乐监听停止", logger.ErrorField(err))
		}
	}()
}

func (a *app) connectBridge(ctx context.Context, owner bool) {
	var port bridge.Port
	dialCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if p, err := bridge.Dial(dialCtx, a.cfg.BridgeURL); err != nil {
		logger.Warn("bridge unavailable, running standalone", logger.ErrorField(err))
	} else {
		port = p
		a.closers = append(a.closers, func() { p.Close() })
	}

	var opts []bridge.SurfaceOption
	if owner {
		opts = append(opts, bridge.AcceptCommands())
	}
	a.surface = bridge.NewSurface(a.session, port, opts...)
	if port == nil {
		return
	}

	// the surface playing audio publishes its state, the others adopt the shared one
	if owner {
		a.surface.Push(a.session.Snapshot())
		return
	}
	pullCtx, cancelPull := context.WithTimeout(ctx, 3*time.Second)
	defer cancelPull()
	if _, err := a.surface.Pull(pullCtx); err != nil {
		logger.Warn("获取共享播放状态失败", logger.ErrorField(err))
	}
}

func (a *app) restoreSession() {
	st := a.store.LoadSession()
	a.session.Restore(st.Current, st.Shuffle, st.Repeat)
	if st.Selected != "" {
		a.agg.Select(st.Selected)
	}
	if a.transport != nil {
		a.transport.SetVolume(st.Volume)
		if st.Muted {
			a.transport.ToggleMute()
		}
	}
	a.session.Subscribe(func(playback.Change) { a.saveSession() })
}

func (a *app) saveSession() {
	if a.store == nil {
		return
	}
	st := localstore.SessionState{
		Current:  a.session.Current(),
		Shuffle:  a.session.Shuffle(),
		Repeat:   a.session.Repeat(),
		Selected: a.agg.Selected(),
		Volume:   0.7,
	}
	if a.transport != nil {
		st.Volume, st.Muted = a.transport.Volume()
	}
	if err := a.store.SaveSession(st); err != nil {
		logger.Warn("保存播放状态失败", logger.ErrorField(err))
	}
}

func (a *app) savePlaylists() {
	if a.store == nil {
		return
	}
	if err := a.store.SavePlaylists(a.agg.Playlists()); err != nil {
		logger.Warn("保存歌单失败", logger.ErrorField(err))
	}
}

func (a *app) close() {
	a.timer.Cancel()
	a.saveSession()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func probeUpload(name string, data []byte) int {
	format, err := audio.DetectFormat(name)
	if err != nil {
		return 0
	}
	d, err := audio.ProbeDuration(data, format)
	if err != nil {
		return 0
	}
	return int(d.Seconds())
}

func dataPath(cfg *config.Config, name string) string {
	return filepath.Join(cfg.DataDir, name)
}
