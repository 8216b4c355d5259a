package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/daytrack/internal/cli"
	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/logger"
	"github.com/julianstephens/daytrack/internal/notifier"
	"github.com/julianstephens/daytrack/internal/reminder"
	"github.com/julianstephens/daytrack/internal/snapshot"
	"github.com/julianstephens/daytrack/internal/sound"
	"github.com/julianstephens/daytrack/internal/tui"
)

// WatchCmd runs the reminder poller behind the interactive today view
type WatchCmd struct {
	NoSound  bool `help:"Do not play reminder tones."`
	NoNotify bool `help:"Do not send desktop notifications."`
}

func (c *WatchCmd) Run(ctx *cli.Context) error {
	// The alternate screen owns stdout and stderr for the whole session
	logFile, err := tea.LogToFile(filepath.Join(ctx.Config.DataDir, "logs", constants.AppName+"-watch.log"), "")
	if err != nil {
		return fmt.Errorf("failed to open watch log: %w", err)
	}
	defer logFile.Close()
	logger.InitWriter(logFile, ctx.Config.LogLevel)

	p := tea.NewProgram(tui.NewModel(ctx.Store, ctx.Now), tea.WithAltScreen())

	effects := &reminder.Effects{
		Alert: func(d reminder.Decision) { p.Send(tui.AlertMsg{Decision: d}) },
	}
	if ctx.Config.Notify.Enabled && !c.NoNotify {
		effects.Notifier = notifier.New(true)
	}
	if ctx.Config.Sound.Enabled && !c.NoSound {
		effects.Player = &sound.Player{Enabled: true, Command: ctx.Config.Sound.Player, Bell: os.Stdout}
	}

	reminders := reminder.NewScheduler(ctx.Store, effects, ctx.Now)

	bg, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, unsubscribe := ctx.Engine.Subscribe()
	defer unsubscribe()
	go func() {
		for {
			select {
			case <-bg.Done():
				return
			case <-changes:
				p.Send(tui.ChangedMsg{})
			}
		}
	}()

	if watcher := startSnapshotWatcher(ctx); watcher != nil {
		defer watcher.Stop()
		go func() {
			for {
				select {
				case <-bg.Done():
					return
				case <-watcher.Changes():
					if err := reloadExternal(bg, ctx); err != nil {
						logger.Warn("Failed to reload external snapshot", "error", err)
						continue
					}
					p.Send(tui.ChangedMsg{})
				}
			}
		}()
	}

	if err := reminders.Start(); err != nil {
		return fmt.Errorf("failed to start reminder poller: %w", err)
	}

	_, runErr := p.Run()

	<-reminders.Stop().Done()
	if runErr != nil {
		return fmt.Errorf("watch view failed: %w", runErr)
	}
	return nil
}

// startSnapshotWatcher watches the mirror for writes by other processes. It
// returns nil when mirroring is off or the directory cannot be watched.
func startSnapshotWatcher(ctx *cli.Context) *snapshot.Watcher {
	if !ctx.Store.Settings().OPFSEnabled {
		return nil
	}
	watcher, err := snapshot.NewWatcher(ctx.Backends.FS)
	if err != nil {
		logger.Debug("Snapshot watcher disabled", "error", err)
		return nil
	}
	if err := watcher.Start(); err != nil {
		logger.Debug("Snapshot watcher disabled", "error", err)
		return nil
	}
	return watcher
}

// reloadExternal drains pending writes, then replaces the working copy with
// the newest snapshot on disk
func reloadExternal(bg context.Context, ctx *cli.Context) error {
	if err := ctx.Store.Flush(bg); err != nil {
		return err
	}
	if err := ctx.Engine.Reload(bg); err != nil {
		return err
	}
	return ctx.Store.Reload(bg)
}
