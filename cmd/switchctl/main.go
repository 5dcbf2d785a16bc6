// switchctl - Remote control for gst-switch-srv over D-Bus
//
// Usage:
//
//	switchctl ports                    Show compose, encode and audio ports
//	switchctl preview-ports            Show preview ports
//	switchctl mode                     Show current composite mode
//	switchctl mode <0-3>               Set composite mode
//	switchctl switch <A|B|a> <port>    Switch a channel to a preview port
//	switchctl pip <x> <y> <w> <h>      Move and resize the PIP region
//	switchctl click <x> <y> <w> <h>    Report a click on the video canvas
//	switchctl record                   Start a new recording
//	switchctl watch                    Print server signals until interrupted
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/timvideos/switchctl/internal/controller"
	"github.com/timvideos/switchctl/internal/endpoint"
)

var (
	addressFlag   string
	busNameFlag   string
	objectFlag    string
	interfaceFlag string
	verboseFlag   bool
)

func main() {
	flag.StringVar(&addressFlag, "address", endpoint.DefaultAddress, "D-Bus address of gst-switch-srv")
	flag.StringVar(&busNameFlag, "bus-name", "", "Well-known bus name (empty for a peer connection)")
	flag.StringVar(&objectFlag, "object-path", endpoint.DefaultObjectPath, "Controller object path")
	flag.StringVar(&interfaceFlag, "interface", endpoint.DefaultInterface, "Controller interface name")
	flag.BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `switchctl - Remote control for gst-switch-srv over D-Bus

Usage:
  switchctl ports                    Show compose, encode and audio ports
  switchctl preview-ports            Show preview ports
  switchctl mode                     Show current composite mode
  switchctl mode <0-3>               Set composite mode
  switchctl switch <A|B|a> <port>    Switch a channel to a preview port
  switchctl pip <x> <y> <w> <h>      Move and resize the PIP region
  switchctl click <x> <y> <w> <h>    Report a click on the video canvas
  switchctl record                   Start a new recording
  switchctl watch                    Print server signals until interrupted

Flags:
`)
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if verboseFlag {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctl := controller.New(controller.Config{Endpoint: buildEndpoint()})

	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "ports":
		cmdPorts(ctl)
	case "preview-ports":
		cmdPreviewPorts(ctl)
	case "mode":
		if len(cmdArgs) == 0 {
			cmdGetMode(ctl)
		} else {
			cmdSetMode(ctl, cmdArgs[0])
		}
	case "switch":
		if len(cmdArgs) < 2 {
			fatal("usage: switchctl switch <A|B|a> <port>")
		}
		cmdSwitch(ctl, cmdArgs[0], cmdArgs[1])
	case "pip":
		cmdPIP(ctl, cmdArgs)
	case "click":
		cmdClick(ctl, cmdArgs)
	case "record":
		cmdRecord(ctl)
	case "watch":
		cmdWatch(ctl)
	default:
		fatal("unknown command: %s", cmd)
	}
}

func buildEndpoint() *endpoint.Endpoint {
	ep := endpoint.New()
	if err := ep.SetAddress(addressFlag); err != nil {
		fatal("%v", err)
	}
	if err := ep.SetBusName(busNameFlag); err != nil {
		fatal("%v", err)
	}
	if err := ep.SetObjectPath(objectFlag); err != nil {
		fatal("%v", err)
	}
	if err := ep.SetInterface(interfaceFlag); err != nil {
		fatal("%v", err)
	}
	return ep
}

func cmdPorts(ctl *controller.Controller) {
	compose, err := ctl.ComposePort()
	if err != nil {
		fatal("querying compose port: %v", err)
	}
	encode, err := ctl.EncodePort()
	if err != nil {
		fatal("querying encode port: %v", err)
	}
	audio, err := ctl.AudioPort()
	if err != nil {
		fatal("querying audio port: %v", err)
	}
	fmt.Printf("compose: %d\nencode:  %d\naudio:   %d\n", compose, encode, audio)
}

func cmdPreviewPorts(ctl *controller.Controller) {
	ports, err := ctl.PreviewPorts()
	if err != nil {
		fatal("querying preview ports: %v", err)
	}
	for _, port := range ports {
		fmt.Println(port)
	}
}

var modeNames = map[controller.CompositeMode]string{
	controller.ModeNone:        "none",
	controller.ModePIP:         "pip",
	controller.ModeDualPreview: "dual-preview",
	controller.ModeDualEqual:   "dual-equal",
}

func cmdGetMode(ctl *controller.Controller) {
	mode, err := ctl.CompositeMode()
	if err != nil {
		fatal("querying composite mode: %v", err)
	}
	name, ok := modeNames[mode]
	if !ok {
		name = "unknown"
	}
	fmt.Printf("%d (%s)\n", mode, name)
}

func cmdSetMode(ctl *controller.Controller, arg string) {
	mode, err := strconv.Atoi(arg)
	if err != nil {
		fatal("mode must be an integer 0-3, got %q", arg)
	}
	ok, err := ctl.SetCompositeMode(controller.CompositeMode(mode))
	if err != nil {
		fatal("setting composite mode: %v", err)
	}
	if !ok {
		fatal("server did not accept mode %d", mode)
	}
}

func cmdSwitch(ctl *controller.Controller, channelArg, portArg string) {
	var channel int
	switch channelArg {
	case "A":
		channel = controller.ChannelVideoA
	case "B":
		channel = controller.ChannelVideoB
	case "a":
		channel = controller.ChannelAudio
	default:
		fatal("channel must be A, B or a, got %q", channelArg)
	}

	port, err := strconv.Atoi(portArg)
	if err != nil {
		fatal("port must be an integer, got %q", portArg)
	}

	ok, err := ctl.Switch(channel, port)
	if err != nil {
		fatal("switching: %v", err)
	}
	if !ok {
		fatal("server refused to switch channel %s to port %d", channelArg, port)
	}
}

func cmdPIP(ctl *controller.Controller, args []string) {
	x, y, w, h := rectArgs("pip", args)
	result, err := ctl.AdjustPIP(x, y, w, h)
	if err != nil {
		fatal("adjusting pip: %v", err)
	}
	slog.Debug("pip adjusted", "result", result)
}

func cmdClick(ctl *controller.Controller, args []string) {
	x, y, w, h := rectArgs("click", args)
	if _, err := ctl.ClickVideo(x, y, w, h); err != nil {
		fatal("reporting click: %v", err)
	}
}

func cmdRecord(ctl *controller.Controller) {
	ok, err := ctl.NewRecord()
	if err != nil {
		fatal("starting recording: %v", err)
	}
	if !ok {
		fatal("server did not start a new recording")
	}
}

// cmdWatch subscribes to every signal and prints them until interrupted.
func cmdWatch(ctl *controller.Controller) {
	ctl.OnPreviewPortAdded(func(port, serve, branch int) {
		fmt.Printf("preview_port_added: port=%d serve=%d branch=%d\n", port, serve, branch)
	})
	ctl.OnPreviewPortRemoved(func(port, serve, branch int) {
		fmt.Printf("preview_port_removed: port=%d serve=%d branch=%d\n", port, serve, branch)
	})
	ctl.OnNewModeOnline(func(mode controller.CompositeMode) {
		fmt.Printf("new_mode_online: mode=%d\n", mode)
	})
	ctl.OnShowFaceMarker(func(faces []controller.Face) {
		fmt.Printf("show_face_marker: %v\n", faces)
	})
	ctl.OnShowTrackMarker(func(faces []controller.Face) {
		fmt.Printf("show_track_marker: %v\n", faces)
	})
	ctl.OnSelectFace(func(x, y int) {
		fmt.Printf("select_face: x=%d y=%d\n", x, y)
	})

	if err := ctl.EstablishConnection(); err != nil {
		fatal("connecting: %v", err)
	}
	defer ctl.Close()

	slog.Info("watching for signals", "address", addressFlag)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}

// rectArgs parses the four integer arguments shared by pip and click.
func rectArgs(name string, args []string) (x, y, w, h int) {
	if len(args) < 4 {
		fatal("usage: switchctl %s <x> <y> <w> <h>", name)
	}
	vals := make([]int, 4)
	for i, arg := range args[:4] {
		n, err := strconv.Atoi(arg)
		if err != nil {
			fatal("%s arguments must be integers, got %q", name, arg)
		}
		vals[i] = n
	}
	return vals[0], vals[1], vals[2], vals[3]
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
