package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tgienger/mixreview/internal/api"
	"github.com/tgienger/mixreview/internal/audio"
	"github.com/tgienger/mixreview/internal/cache"
	"github.com/tgienger/mixreview/internal/comments"
	"github.com/tgienger/mixreview/internal/config"
	"github.com/tgienger/mixreview/internal/identity"
	"github.com/tgienger/mixreview/internal/logging"
	"github.com/tgienger/mixreview/internal/models"
	"github.com/tgienger/mixreview/internal/navigator"
	"github.com/tgienger/mixreview/internal/player"
	"github.com/tgienger/mixreview/internal/ui"
	"github.com/tgienger/mixreview/internal/ui/views"
)

// commandContext loads the configuration once per invocation
type commandContext struct {
	v          *viper.Viper
	configFile *string
	cfg        *config.Config
}

func (c *commandContext) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.v, *c.configFile)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	var configFile string
	ctx := &commandContext{v: config.New(), configFile: &configFile}

	rootCmd := &cobra.Command{
		Use:           "mixreview",
		Short:         "Review mixes from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "Configuration file path")
	flags.String("server", "", "Server address, e.g. http://localhost:8000")
	flags.String("datadir", "", "Directory of the local settings database")
	flags.String("log-file", "", "Write logs to this file")
	_ = ctx.v.BindPFlag("server", flags.Lookup("server"))
	_ = ctx.v.BindPFlag("datadir", flags.Lookup("datadir"))
	_ = ctx.v.BindPFlag("log.file", flags.Lookup("log-file"))

	rootCmd.AddCommand(
		newAdminCommand(ctx),
		newReviewCommand(ctx),
		newProjectsCommand(ctx),
		newVersionCommand(),
	)
	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	}
}

func newAdminCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "admin",
		Short: "Manage projects, songs and versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			rt, err := openRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.Close()
			return rt.runConsole(navigator.Admin, "")
		},
	}
}

func newReviewCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "review <share-link>",
		Short: "Open a shared project as a reviewer",
		Long: "Open a shared project as a reviewer. The argument is the share link or\n" +
			"the full URL handed out by the admin. Without a terminal the project\n" +
			"is printed instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			link, err := parseShareLink(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			rt, err := openRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			if !interactive() {
				p, err := rt.client.GetSharedProject(cmd.Context(), link)
				if err != nil {
					return err
				}
				printProject(cmd.OutOrStdout(), p)
				return nil
			}
			return rt.runConsole(navigator.Public, link)
		},
	}
}

func newProjectsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects using the stored admin login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			rt, err := openRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.client.Token() == "" {
				return fmt.Errorf("not logged in: run %q first", "mixreview admin")
			}
			projects, err := rt.client.ListProjects(cmd.Context())
			if err != nil {
				if api.IsUnauthorized(err) {
					return fmt.Errorf("login expired: run %q again", "mixreview admin")
				}
				return err
			}
			printProjects(cmd.OutOrStdout(), projects, cfg.Server)
			return nil
		},
	}
}

// parseShareLink accepts a bare link or a URL ending in one
func parseShareLink(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if u, err := url.Parse(arg); err == nil && u.Scheme != "" {
		arg = path.Base(strings.TrimRight(u.Path, "/"))
	}
	if arg == "" || arg == "." || arg == "/" || strings.ContainsAny(arg, "/?#") {
		return "", fmt.Errorf("invalid share link %q", arg)
	}
	return arg, nil
}

func printProjects(w io.Writer, projects []models.ProjectSummary, server string) {
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects")
		return
	}
	rows := make([][]string, len(projects))
	for i, p := range projects {
		rows[i] = []string{
			p.Title,
			strconv.Itoa(p.SongCount),
			strconv.Itoa(p.CommentCount),
			humanize.Time(p.CreatedAt),
			server + "/" + p.ShareLink,
		}
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Title", "Songs", "Comments", "Created", "Share link"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	))
}

func printProject(w io.Writer, p *models.Project) {
	fmt.Fprintln(w, p.Title)
	var rows [][]string
	for _, s := range p.Songs {
		for _, v := range s.Versions {
			fav := ""
			if v.Favourite {
				fav = "★"
			}
			rows = append(rows, []string{
				s.Title,
				strconv.Itoa(v.VersionNumber),
				v.Label,
				fav,
				humanize.Time(v.CreatedAt),
			})
		}
		if len(s.Versions) == 0 {
			rows = append(rows, []string{s.Title, "", "No versions", "", ""})
		}
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "No songs")
		return
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Song", "Version", "Label", "Fav", "Uploaded"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
	))
}

// runtime holds what every command shares: logs, the local store and the client
type runtime struct {
	cfg    *config.Config
	log    *logging.Logger
	store  *identity.Store
	client *api.Client
}

func openRuntime(cfg *config.Config) (*runtime, error) {
	log, err := logging.New(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	store, err := identity.Open(cfg.DataDir)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("open local store: %w", err)
	}
	token, err := store.Token()
	if err != nil {
		log.Warn().Err(err).Msg("read token")
	}
	client := api.New(cfg.Server,
		api.WithTimeout(cfg.HTTP.Timeout),
		api.WithLogger(log.Logger),
		api.WithToken(token),
		api.WithUserAgent("mixreview/"+version),
	)
	return &runtime{cfg: cfg, log: log, store: store, client: client}, nil
}

func (r *runtime) Close() {
	if err := r.store.Close(); err != nil {
		r.log.Warn().Err(err).Msg("close local store")
	}
	r.log.Close()
}

// runConsole wires the sync engine for one console and runs the TUI
func (r *runtime) runConsole(console navigator.Console, link string) error {
	log := r.log.Logger

	var (
		src   cache.Source = cache.AdminSource{Client: r.client}
		store comments.Store
	)
	if console == navigator.Public {
		src = cache.SharedSource{Client: r.client}
	}
	projects := cache.New(src, cache.WithLogger(log))

	if console == navigator.Public {
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.HTTP.Timeout)
		settings, err := projects.Settings(ctx)
		cancel()
		canResolve := false
		if err != nil {
			log.Warn().Err(err).Msg("load display settings")
		} else {
			canResolve = settings.ClientsCanResolve
		}
		store = api.NewSharedComments(r.client, link, canResolve)
	}

	opener := audio.NewOpener(r.client, audio.Backend(r.cfg.Audio.Backend), nil, log)
	ctrl := player.New(opener, player.WithTick(r.cfg.Player.Tick), player.WithLogger(log))
	syncer := comments.New(store, ctrl, console == navigator.Admin, log)
	nav := navigator.New(console, projects, ctrl, syncer, log)

	env := &views.Env{
		Console:   console,
		API:       r.client,
		Cache:     projects,
		Player:    ctrl,
		Comments:  syncer,
		Nav:       nav,
		Identity:  r.store,
		Log:       log,
		ShareLink: link,
	}

	app := ui.NewApp(env)
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run console: %w", err)
	}
	return nil
}
