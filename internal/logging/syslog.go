package logging

import (
	"log/syslog"

	"github.com/pkg/errors"
)

// facilities maps config-file/CLI facility names to their
// log/syslog.Priority constant. Built from syslog's own Priority
// values rather than hand-copied arithmetic, so the localN mapping
// tracks the standard library if it ever changes.
var facilities = map[string]syslog.Priority{
	"kern":     syslog.LOG_KERN,
	"user":     syslog.LOG_USER,
	"mail":     syslog.LOG_MAIL,
	"daemon":   syslog.LOG_DAEMON,
	"auth":     syslog.LOG_AUTH,
	"syslog":   syslog.LOG_SYSLOG,
	"lpr":      syslog.LOG_LPR,
	"news":     syslog.LOG_NEWS,
	"uucp":     syslog.LOG_UUCP,
	"cron":     syslog.LOG_CRON,
	"authpriv": syslog.LOG_AUTHPRIV,
	"ftp":      syslog.LOG_FTP,
	"local0":   syslog.LOG_LOCAL0,
	"local1":   syslog.LOG_LOCAL1,
	"local2":   syslog.LOG_LOCAL2,
	"local3":   syslog.LOG_LOCAL3,
	"local4":   syslog.LOG_LOCAL4,
	"local5":   syslog.LOG_LOCAL5,
	"local6":   syslog.LOG_LOCAL6,
	"local7":   syslog.LOG_LOCAL7,
}

// UseSyslog redirects DefaultLogger's output to the named syslog
// facility, for use when running detached with no controlling
// terminal to write to.
func UseSyslog(facility string) error {
	prio, ok := facilities[facility]
	if !ok {
		return errors.Errorf("logging: unrecognized syslog facility %q", facility)
	}

	w, err := syslog.New(prio|syslog.LOG_NOTICE, "kplex")
	if err != nil {
		return errors.Wrap(err, "logging: connecting to syslog")
	}

	DefaultLogger.SetDestination(w)
	return nil
}
