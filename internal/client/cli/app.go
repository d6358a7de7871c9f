package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/adminconsole/internal/client/blobsrc"
	"github.com/dmitrijs2005/adminconsole/internal/client/client"
	"github.com/dmitrijs2005/adminconsole/internal/client/config"
	"github.com/dmitrijs2005/adminconsole/internal/client/poller"
	"github.com/dmitrijs2005/adminconsole/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/adminconsole/internal/client/repositories/snapshots"
	"github.com/dmitrijs2005/adminconsole/internal/client/resources"
	"github.com/dmitrijs2005/adminconsole/internal/client/services"
	"github.com/dmitrijs2005/adminconsole/internal/logging"
)

// Deps are the collaborators an App drives. NewApp builds the real ones;
// tests pass fakes.
type Deps struct {
	Remotes   func(resources.Schema) services.Remote
	Counts    poller.Fetcher
	Snapshots snapshots.Repository
	Metadata  metadata.Repository

	PageSize     int
	PollInterval time.Duration
	Timeout      time.Duration
}

// countsRecord is the cached form of the sidebar counters.
type countsRecord struct {
	Counts map[string]int `json:"counts"`
	At     time.Time      `json:"at"`
}

type App struct {
	deps   Deps
	log    logging.Logger
	reader *bufio.Reader
	out    io.Writer
	poller *poller.Poller
	notify *printNotifier

	screens map[resources.Kind]*services.Screen
	current *services.Screen

	closer io.Closer
}

// New builds an App reading commands from in and printing to out.
func New(d Deps, in io.Reader, out io.Writer, log logging.Logger) *App {
	if log == nil {
		log = logging.Nop()
	}
	a := &App{
		deps:    d,
		log:     log,
		reader:  bufio.NewReader(in),
		out:     out,
		notify:  &printNotifier{w: out},
		screens: make(map[resources.Kind]*services.Screen),
	}
	if d.Counts != nil {
		a.poller = poller.New(d.Counts, d.PollInterval, log,
			poller.WithTimeout(d.Timeout),
			poller.WithOnUpdate(a.saveCounts),
		)
	}
	return a
}

// NewApp opens the local cache, the file sources and the REST client
// described by c and returns an App bound to stdin and stdout.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	repos, err := client.InitDatabase(ctx, c.CachePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.CachePath, "error", err)
		return nil, err
	}

	if c.CacheKey != "" {
		if err := repos.EncryptSnapshots(ctx, c.CacheKey); err != nil {
			_ = repos.Close()
			return nil, fmt.Errorf("cache encryption: %w", err)
		}
	}

	var s3c blobsrc.S3API
	if c.S3Endpoint != "" || c.S3AccessKey != "" {
		s3c, err = blobsrc.NewS3Client(ctx, blobsrc.S3Config{
			Region:    c.S3Region,
			Endpoint:  c.S3Endpoint,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
		})
		if err != nil {
			_ = repos.Close()
			return nil, fmt.Errorf("s3 client: %w", err)
		}
	}

	api := client.NewHTTPClient(client.Options{
		BaseURL: c.APIBaseURL,
		Token:   c.APIToken,
		Timeout: c.RequestTimeout,
	}, blobsrc.New(s3c), log)

	a := New(Deps{
		Remotes:      func(s resources.Schema) services.Remote { return api.Resource(s) },
		Counts:       api,
		Snapshots:    repos.Snapshots,
		Metadata:     repos.Metadata,
		PageSize:     c.PageSize,
		PollInterval: c.CountsPollInterval,
		Timeout:      c.RequestTimeout,
	}, os.Stdin, os.Stdout, log)
	a.closer = repos
	return a, nil
}

// Run restores the last session, starts the counters poller and serves the
// REPL until the user exits or ctx ends.
func (a *App) Run(ctx context.Context) {
	defer a.close()

	fmt.Fprintln(a.out, styles.title.Render("Admin console")+" (type 'help' for commands)")
	a.restore(ctx)

	if a.poller != nil {
		if err := a.poller.Start(ctx); err != nil {
			a.log.Warn(ctx, "counts poller not started", "error", err)
		}
		defer a.poller.Stop()
	}

	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) close() {
	if a.closer == nil {
		return
	}
	if err := a.closer.Close(); err != nil {
		a.log.Warn(context.Background(), "close cache", "error", err)
	}
}

// restore seeds the counters and reopens the last used resource from the
// local cache.
func (a *App) restore(ctx context.Context) {
	if a.deps.Metadata == nil {
		return
	}
	var rec countsRecord
	if ok, err := a.deps.Metadata.Get(ctx, metadata.KeyCounts, &rec); err != nil {
		a.log.Warn(ctx, "read cached counts", "error", err)
	} else if ok && a.poller != nil {
		a.poller.Seed(rec.Counts, rec.At)
	}

	var kind string
	ok, err := a.deps.Metadata.Get(ctx, metadata.KeyResource, &kind)
	if err != nil {
		a.log.Warn(ctx, "read last resource", "error", err)
		return
	}
	if ok {
		_ = a.Use(ctx, kind)
	}
}

func (a *App) saveCounts(counts map[string]int) {
	if a.deps.Metadata == nil {
		return
	}
	ctx := context.Background()
	rec := countsRecord{Counts: counts, At: time.Now()}
	if err := a.deps.Metadata.Set(ctx, metadata.KeyCounts, rec); err != nil {
		a.log.Warn(ctx, "cache counts", "error", err)
	}
}

// status is the prompt decoration: the current resource and whether it is
// served from the cache.
func (a *App) status() string {
	if a.current == nil {
		return ""
	}
	s := string(a.current.Schema().Kind)
	if offline, at := a.current.Offline(); offline {
		s += ", offline since " + at.Local().Format("Jan 2 15:04")
	}
	if a.current.Drawer().IsOpen() {
		if sess, err := a.current.Drawer().Current(); err == nil {
			s += ", " + string(sess.Mode())
		}
	}
	return "(" + s + ")"
}
