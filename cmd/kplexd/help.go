package main

import (
	"fmt"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"
)

var (
	flagBackground bool
	flagFacility   string
	flagQueueSize  int
	flagConfig     string

	flagHelp    bool
	flagVersion bool
)

func init() {
	flag.BoolVarP(&flagBackground, "background", "b", false, "Run detached, logging to syslog")
	flag.StringVarP(&flagFacility, "logto", "l", "", "Syslog facility to log to")
	flag.IntVarP(&flagQueueSize, "qsize", "q", 0, "Central queue size, minimum 2 (default: from config file)")
	flag.StringVarP(&flagConfig, "config", "f", "", "Configuration file path, or - for none")

	flag.BoolVarP(&flagHelp, "help", "h", false, "Print usage information and exit")
	flag.BoolVarP(&flagVersion, "version", "v", false, "Print version information and exit")
}

const helpString = `Any-to-any NMEA-0183 sentence multiplexer

Usage: kplexd [OPTION]... [ENDPOINT]...

Each ENDPOINT is an inline spec of the form type:key=value,key=value,...
equivalent to a section of the configuration file.

Options:
  -b, --background       Run detached, logging to syslog
  -l, --logto=FACILITY   Syslog facility to log to
  -q, --qsize=NUM        Central queue size, minimum 2
  -f, --config=FILE      Configuration file path, or - for none

Miscellaneous:
  -h, --help             Prints this help message and exits
  -v, --version          Prints version information and exits

Configuration search order (when -f is not given):
  $KPLEXCONF, then $HOME/.kplex.conf, then /etc/kplex.conf

Please report bugs to: aloha@lanikailabs.com`

// help prints a banner and usage information, then the caller exits.
func help() {
	r := color.New(color.FgRed)
	y := color.New(color.FgYellow)
	b := color.New(color.FgCyan)

	r.Printf(" _    ")
	y.Printf(" _       ")
	b.Println("      ")
	r.Printf("| | __")
	y.Printf("_ __ | | _____ ")
	b.Println(" __  ")
	r.Printf("| |/ /")
	y.Printf("| '_ \\| |/ _ \\ \\")
	b.Println("/ /  ")
	r.Printf("|   < ")
	y.Printf("| |_) | |  __/>")
	b.Println("  < ")
	r.Printf("|_|\\_\\")
	y.Printf("| .__/|_|\\___/_/")
	b.Println("\\_\\ ")
	y.Println("    | |              ")
	y.Println("    |_|              ")

	fmt.Println()
	fmt.Println(helpString)
}
