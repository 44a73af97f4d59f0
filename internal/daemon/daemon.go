package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ryan-gang/dbalert/internal/config"
	"github.com/ryan-gang/dbalert/internal/database"
	"github.com/ryan-gang/dbalert/internal/logger"
	"github.com/ryan-gang/dbalert/internal/mail"
	"github.com/ryan-gang/dbalert/internal/util"
)

// Options overrides the collaborators NewDaemon would build from the config
type Options struct {
	Logger    logger.LoggerInterface
	Mailer    mail.MailSender
	Connector Connector
	Clock     Clock
}

type Daemon struct {
	ctx     context.Context
	cancel  context.CancelFunc
	monitor *Monitor
	clock   Clock
	cfg     config.ConfigProvider
	logger  logger.LoggerInterface
	ownsLog bool
}

func NewDaemon(cfg config.ConfigProvider, opts Options) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: configuration not provided", util.ErrConfig)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		logger: opts.Logger,
		clock:  opts.Clock,
	}

	if d.logger == nil {
		loggerInstance, err := logger.NewLogger(cfg)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		d.logger = loggerInstance
		d.ownsLog = true
	}
	if d.clock == nil {
		d.clock = timerClock{}
	}

	mailer := opts.Mailer
	if mailer == nil {
		mailer = mail.NewSMTPMailSender(cfg, d.logger)
	}
	connect := opts.Connector
	if connect == nil {
		connect = DatabaseConnector(database.SettingsFrom(cfg))
	}

	d.monitor = NewMonitor(cfg, connect, mailer, d.logger)
	return d, nil
}

// Monitor exposes the monitor for one-off cycles
func (d *Daemon) Monitor() *Monitor {
	return d.monitor
}

// Start writes the PID file and runs the monitor loop until a signal arrives,
// ctx is cancelled or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.validateConfiguration(); err != nil {
		return err
	}
	prev := d.cancel
	d.ctx, d.cancel = context.WithCancel(ctx)
	prev()

	if err := d.initializeServices(); err != nil {
		return err
	}
	defer d.cleanup()
	if d.ownsLog {
		defer d.logger.Close()
	}

	stopSignals := d.setupSignalHandling()
	defer stopSignals()

	d.logStartupInfo()
	return d.Run(d.ctx)
}

func (d *Daemon) validateConfiguration() error {
	if d.isRunning() {
		return fmt.Errorf("daemon is already running")
	}
	return nil
}

func (d *Daemon) initializeServices() error {
	if err := d.writePidFile(); err != nil {
		return fmt.Errorf("failed to write PID file: %v", err)
	}
	return nil
}

func (d *Daemon) setupSignalHandling() func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigChan:
			d.logger.Infof("Received signal: %v", sig)
			util.Cyan.Printf("Received signal: %v\n", sig)
			d.Stop()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}

func (d *Daemon) logStartupInfo() {
	util.GreenBold.Printf("dbalert monitor started, checking every %s\n", d.cfg.GetCheckInterval())
	util.Cyan.Printf("Monitoring %s.%s = %s\n", d.cfg.GetTableName(), d.cfg.GetFieldName(), d.cfg.GetConditionValue())
	util.Cyan.Printf("PID file: %s\n", d.cfg.GetPidFile())
	util.Cyan.Printf("Log file: %s\n", d.cfg.GetLogPath())

	d.logger.Infof("Daemon started with PID %d", os.Getpid())
	d.logger.Infof("Monitoring %s.%s = %s on %s", d.cfg.GetTableName(), d.cfg.GetFieldName(), d.cfg.GetConditionValue(), d.cfg.GetDriver())
	d.logger.Infof("Check interval: %s, cool-down after errors: %s", d.cfg.GetCheckInterval(), d.cfg.GetCoolDown())
}

// Run executes cycles until ctx is cancelled. A cycle that fails on the
// database side is followed by the cool-down instead of the check interval.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.monitor.Close()

	for {
		wait := d.cfg.GetCheckInterval()

		d.logger.Debug("Starting monitor cycle")
		if _, err := d.monitor.RunCycle(ctx); err != nil {
			util.LogError(util.ContextOf(err), "monitor cycle", err)
			d.logger.Errorf("Monitor cycle failed: %v", err)
			wait = d.cfg.GetCoolDown()
		}

		if ctx.Err() != nil {
			d.logger.Info("Monitor loop cancelled")
			return nil
		}

		d.logger.Infof("Waiting %s before the next check", wait)
		if err := d.clock.Wait(ctx, wait); err != nil {
			d.logger.Info("Monitor loop cancelled")
			return nil
		}
	}
}

// RunOnce runs a single cycle and releases the connection afterwards
func (d *Daemon) RunOnce(ctx context.Context) (CycleResult, error) {
	defer d.monitor.Close()
	return d.monitor.RunCycle(ctx)
}

// Stop cancels the loop of this process
func (d *Daemon) Stop() {
	d.logger.Info("Stopping daemon...")
	d.cancel()
}

// Signal delivers sig to the daemon recorded in the PID file
func (d *Daemon) Signal(sig os.Signal) error {
	pid, err := d.readPid()
	if err != nil {
		return fmt.Errorf("daemon is not running: %w", err)
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return process.Signal(sig)
}

// WaitStopped polls until the daemon recorded in the PID file has exited
func (d *Daemon) WaitStopped(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for d.isRunning() {
		if time.Now().After(deadline) {
			return fmt.Errorf("daemon did not stop within %s", timeout)
		}
		time.Sleep(200 * time.Millisecond)
	}
	return nil
}

func (d *Daemon) readPid() (int, error) {
	if d.cfg.GetPidFile() == "" {
		return 0, fmt.Errorf("no PID file configured")
	}
	pidData, err := os.ReadFile(d.cfg.GetPidFile())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(pidData)))
}

func (d *Daemon) isRunning() bool {
	pid, err := d.readPid()
	if err != nil {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Send signal 0 to check if process exists
	err = process.Signal(syscall.Signal(0))
	return err == nil
}

func (d *Daemon) writePidFile() error {
	pid := os.Getpid()
	return os.WriteFile(d.cfg.GetPidFile(), []byte(strconv.Itoa(pid)), 0644)
}

func (d *Daemon) cleanup() {
	if d.cfg.GetPidFile() != "" {
		os.Remove(d.cfg.GetPidFile())
	}
}

func (d *Daemon) Status() error {
	if d.isRunning() {
		pid, _ := d.readPid()
		util.Green.Printf("Daemon is running (PID: %d)\n", pid)
		util.Cyan.Printf("Monitoring: %s.%s = %s\n", d.cfg.GetTableName(), d.cfg.GetFieldName(), d.cfg.GetConditionValue())
		util.Cyan.Printf("Check interval: %s\n", d.cfg.GetCheckInterval())
		return nil
	}
	util.Red.Println("Daemon is not running")
	return fmt.Errorf("daemon is not running")
}
