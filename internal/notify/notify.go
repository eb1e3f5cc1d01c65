// Package notify delivers best-effort desktop notifications. Delivery
// failures never influence control flow: a missing notify-send binary or an
// unwritable log file is silently ignored.
package notify

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Urgency maps to notify-send urgency levels.
type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyCritical Urgency = "critical"
)

const sendTimeout = 5 * time.Second

// Notifier reports notable outcomes to the operator.
type Notifier interface {
	Notify(title, message string, urgency Urgency)
}

// Desktop sends pop-ups via notify-send and appends each notification to a
// plain-text log file.
type Desktop struct {
	AppName string
	LogFile string

	// now is overridable for tests.
	now func() time.Time
}

// NewDesktop creates a desktop notifier logging to logFile.
func NewDesktop(appName, logFile string) *Desktop {
	return &Desktop{AppName: appName, LogFile: logFile, now: time.Now}
}

// Notify shows a desktop pop-up and logs the notification. All errors are
// swallowed by contract.
func (d *Desktop) Notify(title, message string, urgency Urgency) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "notify-send",
		"-u", string(urgency), "-a", d.AppName, title, message)
	_ = cmd.Run()

	d.appendLog(title, message)
}

func (d *Desktop) appendLog(title, message string) {
	if d.LogFile == "" {
		return
	}

	f, err := os.OpenFile(d.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	timestamp := d.now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] %s: %s\n", timestamp, title, message)
}

// Nop discards all notifications.
type Nop struct{}

func (Nop) Notify(title, message string, urgency Urgency) {}
