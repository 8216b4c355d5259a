package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/daytrack/internal/cli"
	"github.com/julianstephens/daytrack/internal/cli/backups"
	"github.com/julianstephens/daytrack/internal/cli/categories"
	"github.com/julianstephens/daytrack/internal/cli/exchange"
	"github.com/julianstephens/daytrack/internal/cli/settings"
	"github.com/julianstephens/daytrack/internal/cli/subtasks"
	"github.com/julianstephens/daytrack/internal/cli/system"
	"github.com/julianstephens/daytrack/internal/cli/tasks"
	"github.com/julianstephens/daytrack/internal/cli/views"
	"github.com/julianstephens/daytrack/internal/config"
	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/errors"
	"github.com/julianstephens/daytrack/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path" default:"${config_path}"`
	Debug   bool   `help:"Log debug output to stderr."`

	Watch    system.WatchCmd    `cmd:"" help:"Show today's tasks and fire reminders." default:"1"`
	Doctor   system.DoctorCmd   `cmd:"" help:"Run health checks and diagnostics."`
	Validate system.ValidateCmd `cmd:"" help:"Check stored tasks for inconsistencies."`
	Stats    views.StatsCmd     `cmd:"" help:"Show dashboard statistics."`
	Calendar views.CalendarCmd  `cmd:"" help:"Show a month grid or one day's tasks."`
	Task     struct {
		Add    tasks.TaskAddCmd    `cmd:"" help:"Add a new task."`
		Edit   tasks.TaskEditCmd   `cmd:"" help:"Edit an existing task."`
		Delete tasks.TaskDeleteCmd `cmd:"" help:"Delete a task and its subtasks."`
		Done   tasks.TaskDoneCmd   `cmd:"" help:"Toggle a task's completion."`
		List   tasks.TaskListCmd   `cmd:"" help:"List tasks." default:"1"`
		Show   tasks.TaskShowCmd   `cmd:"" help:"Show one task in detail."`
	} `cmd:"" help:"Manage tasks."`
	Subtask struct {
		Add    subtasks.SubtaskAddCmd    `cmd:"" help:"Add a subtask."`
		Toggle subtasks.SubtaskToggleCmd `cmd:"" help:"Toggle a subtask."`
		Delete subtasks.SubtaskDeleteCmd `cmd:"" help:"Delete a subtask."`
		Move   subtasks.SubtaskMoveCmd   `cmd:"" help:"Move a subtask to a new position."`
	} `cmd:"" help:"Manage a task's checklist."`
	Category struct {
		Add    categories.CategoryAddCmd    `cmd:"" help:"Add a category."`
		Edit   categories.CategoryEditCmd   `cmd:"" help:"Edit a category."`
		Delete categories.CategoryDeleteCmd `cmd:"" help:"Delete a category."`
		List   categories.CategoryListCmd   `cmd:"" help:"List categories." default:"1"`
	} `cmd:"" help:"Manage categories."`
	Settings struct {
		Get settings.SettingsGetCmd `cmd:"" help:"Show settings." default:"1"`
		Set settings.SettingsSetCmd `cmd:"" help:"Change a setting."`
	} `cmd:"" help:"Manage application settings."`
	Reminder struct {
		Snooze tasks.SnoozeCmd `cmd:"" help:"Snooze a task's reminder."`
	} `cmd:"" help:"Manage reminders."`
	Plan struct {
		Day  views.PlanDayCmd  `cmd:"" help:"Order one day's open tasks into time slots." default:"1"`
		Week views.PlanWeekCmd `cmd:"" help:"Spread the week's open tasks across days."`
	} `cmd:"" help:"Preview and apply task plans."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
		Export  backups.BackupExportCmd  `cmd:"" help:"Write a backup to a file."`
		Import  backups.BackupImportCmd  `cmd:"" help:"Replace the database with a backup file."`
		Forget  backups.BackupForgetCmd  `cmd:"" help:"Remove the stored backup passphrase."`
	} `cmd:"" help:"Manage database backups."`
	ICS struct {
		Export exchange.ICSExportCmd `cmd:"" help:"Export tasks as an iCalendar file."`
		Import exchange.ICSImportCmd `cmd:"" help:"Import events from an iCalendar file."`
	} `cmd:"" name:"ics" help:"Exchange tasks with calendar apps."`
	Export struct {
		CSV  exchange.ExportCSVCmd  `cmd:"" name:"csv" help:"Export tasks as CSV."`
		JSON exchange.ExportJSONCmd `cmd:"" name:"json" help:"Export tasks as JSON."`
	} `cmd:"" help:"Export tasks."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Personal task manager with reminders"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":     constants.Version,
			"config_path": constants.DefaultConfigPath,
		},
	)

	cfg, err := config.Load(CLI.Config)
	errors.Fatal(err)
	if CLI.Debug {
		cfg.Debug = true
	}

	errors.Fatal(logger.Init(logger.Config{
		Debug:   cfg.Debug,
		Level:   cfg.LogLevel,
		DataDir: cfg.DataDir,
	}))

	bg := context.Background()
	appCtx, err := cli.Open(bg, cfg)
	errors.Fatal(err)

	runErr := kctx.Run(appCtx)
	closeErr := appCtx.Close(bg)
	errors.Fatal(runErr)
	errors.Fatal(closeErr)
}
