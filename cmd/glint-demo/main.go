// Command glint-demo runs the windowing shell against a real backend: a
// title-barred demo surface with keyboard shortcuts for the clipboard, the
// file-open dialog, and secondary viewports.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/sqweek/dialog"

	"glint/internal/platform"
	"glint/internal/platform/ebitenwin"
	"glint/internal/platform/glfwwin"
	"glint/internal/platform/headless"
	"glint/internal/render"
	"glint/internal/ui"
	"glint/pkg/glint"
	"glint/pkg/store"
)

var (
	flagConfig  string
	flagBackend string
	flagTitle   string
	flagFrames  int
	flagVerbose bool
)

// GLFW windows and their event loop must live on the main OS thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	root := &cobra.Command{
		Use:   "glint-demo",
		Short: "Demo shell for the glint event loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
		SilenceUsage: true,
	}
	root.Flags().StringVar(&flagConfig, "config", "", "path to a TOML options file")
	root.Flags().StringVar(&flagBackend, "backend", "glfw", "windowing backend: glfw, ebiten or headless")
	root.Flags().StringVar(&flagTitle, "title", "", "override the window title")
	root.Flags().IntVar(&flagFrames, "frames", 0, "exit after this many frames (headless runs default to 60)")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts, err := glint.LoadOptionsFile(configPath())
	if err != nil {
		return err
	}
	if flagTitle != "" {
		opts.Title = flagTitle
	}

	st, err := openStorage(log, opts)
	if err != nil {
		return err
	}
	ctx := glint.NewContext(opts, st)

	frames := flagFrames
	if flagBackend == "headless" && frames == 0 {
		frames = 60
	}
	demo := &demoApp{log: log, faces: render.NewFaceCache(), maxFrames: frames}

	switch flagBackend {
	case "glfw":
		back, err := glfwwin.New()
		if err != nil {
			return err
		}
		defer back.Terminate()
		return runLoop(back, ctx, demo, log)

	case "ebiten":
		back := ebitenwin.New()
		// One native window only, so every viewport embeds.
		ctx.SetEmbedViewports(true)
		return back.Run(func() {
			if err := runLoop(back, ctx, demo, log); err != nil {
				log.Error("loop failed", "err", err)
			}
			back.Terminate()
		})

	case "headless":
		back := headless.New()
		defer back.Terminate()
		return runLoop(back, ctx, demo, log)

	default:
		return fmt.Errorf("unknown backend %q", flagBackend)
	}
}

func runLoop(back platform.Platform, ctx *glint.Context, demo *demoApp, log *slog.Logger) error {
	app, err := glint.NewAdapter(back, ctx, demo.update, log)
	if err != nil {
		return err
	}
	return glint.NewLoop(back, log).Run(app)
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "glint.toml"
	}
	return filepath.Join(dir, "glint", "glint.toml")
}

func openStorage(log *slog.Logger, opts glint.Options) (store.Storage, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		log.Warn("no user config dir, state will not persist", "err", err)
		return store.NewMemStore(), nil
	}
	return store.OpenFile(filepath.Join(dir, "glint", "state.bin"), store.FileOptions{
		Compression: opts.Compression,
		Password:    opts.Password,
	})
}

// demoApp is the update-side of the demo: it paints the chrome and reacts to
// a handful of shortcuts.
type demoApp struct {
	log   *slog.Logger
	faces *render.FaceCache

	status    string
	mouseX    int
	mouseY    int
	maxFrames int
}

func (d *demoApp) update(ctx *glint.Context, view *glint.View) {
	d.handleInput(ctx, view)

	pal := ui.Light()
	if theme, ok := glint.SystemTheme(view.Window, ctx.Options()); ok && theme == glint.ThemeDark {
		pal = ui.Dark()
	}
	layout := ui.DrawChrome(view.Frame, pal, view.Scale)

	title := ctx.Options().Title
	if view.Viewport != glint.RootViewportID {
		title = string(view.Viewport)
	}
	titleFace := d.faces.Face(14, true)
	view.Frame.DrawText(titleFace, layout.ContentX, layout.TitleH-10, title, pal.TitleText)

	body := d.faces.Face(12, false)
	y := layout.ContentY + 24
	for _, line := range []string{
		"o  open a file",
		"c  copy the title to the clipboard",
		"n  open a secondary viewport",
		"q  quit",
	} {
		view.Frame.DrawText(body, layout.ContentX+12, y, line, pal.Text)
		y += 20
	}

	frame := ctx.FrameNumber(view.Viewport)
	status := d.status
	if status == "" {
		status = fmt.Sprintf("frame %d  mouse %d,%d", frame, d.mouseX, d.mouseY)
	}
	view.Frame.DrawText(body, layout.ContentX, layout.StatusY+18, status, pal.Text)

	for _, action := range view.Actions {
		d.log.Info("accessibility action", "name", action.Name, "target", action.Target)
	}

	if d.maxFrames > 0 && frame+1 >= uint64(d.maxFrames) {
		ctx.Quit()
		return
	}
	if d.maxFrames > 0 {
		ctx.RequestRepaint(view.Viewport)
	}
}

func (d *demoApp) handleInput(ctx *glint.Context, view *glint.View) {
	for _, ev := range view.Input {
		switch ev.Type {
		case platform.EventMouseMove:
			d.mouseX, d.mouseY = ev.X, ev.Y
		case platform.EventKeyDown:
			d.shortcut(ctx, view, ev.Key)
		}
	}
}

func (d *demoApp) shortcut(ctx *glint.Context, view *glint.View, key string) {
	switch key {
	case "q", "escape":
		ctx.Quit()

	case "c":
		if err := ctx.SetClipboardText(ctx.Options().Title); err != nil {
			d.log.Warn("clipboard write failed", "err", err)
			return
		}
		d.status = "title copied"

	case "o":
		path, err := dialog.File().Load()
		if err != nil {
			if err != dialog.ErrCancelled {
				d.log.Warn("open dialog failed", "err", err)
			}
			return
		}
		d.status = "opened " + filepath.Base(path)

	case "n":
		if view.Viewport != glint.RootViewportID {
			return
		}
		n := 1
		if raw, ok := ctx.Memory().Get("demo/viewports"); ok {
			if prev, err := strconv.Atoi(string(raw)); err == nil {
				n = prev + 1
			}
		}
		ctx.Memory().Set("demo/viewports", []byte(strconv.Itoa(n)))
		ctx.OpenViewport(glint.ViewportConfig{
			ID:       glint.NewViewportID(),
			Title:    fmt.Sprintf("viewport %d", n),
			WidthPx:  420,
			HeightPx: 320,
		})
	}
}
