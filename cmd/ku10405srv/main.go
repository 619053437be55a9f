package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"periph.io/x/conn/v3/physic"

	yml "gopkg.in/yaml.v2"

	"github.com/nasa-jpl/ku10405/ft232h"
	"github.com/nasa-jpl/ku10405/generichttp"
	"github.com/nasa-jpl/ku10405/ku10405"
	"github.com/nasa-jpl/ku10405/server/middleware/locker"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1"

	// ConfigFileName is what it sounds like
	ConfigFileName = "ku10405.yml"
	k              = koanf.New(".")
)

type config struct {
	// Addr is the address to listen at
	Addr string `yaml:"Addr"`

	// Endpoint is the URL stem the tap routes are served under
	Endpoint string `yaml:"Endpoint"`

	// FTDI selects the adapter when several are connected; matched as a
	// substring of the adapter description
	FTDI string `yaml:"FTDI"`

	// ClockHz is the SPI clock rate in Hz
	ClockHz int64 `yaml:"ClockHz"`

	// Readback enables write verification
	Readback bool `yaml:"Readback"`

	// Mock serves a simulated chip instead of opening the FT232H
	Mock bool `yaml:"Mock"`
}

func setupconfig() {
	k.Load(structs.Provider(config{
		Addr:     ":8000",
		Endpoint: "/ku10405",
		FTDI:     ft232h.DefaultAddr,
		ClockHz:  8000000,
		Readback: true}, "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}
}

func root() {
	str := `ku10405srv exposes control of a KU10405 phase/magnitude trim chip over HTTP
This enables a server-client architecture, and the clients can leverage the
excellent HTTP libraries for any programming language.

Usage:
	ku10405srv <command>

Commands:
	run
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `ku10405srv is amenable to configuration via its .yaml file.  For a primer on
YAML, see https://yaml.org/start.html

When no configuration is provided, the defaults are used.  The command mkconf
generates the configuration file with the default values.

The chip is reached through an FT232H USB bridge; the host must have the FTDI
D2XX library installed and the ftdi_sio kernel driver unbound.  See
https://periph.io/device/ftdi/ for setup.

Readback requires the matching switch on the board to be set; if every write
returns a readback mismatch, check that switch before anything else.

Mock: true serves a simulated chip, useful for client development away from
the bench.

Routes (under Endpoint):
	POST /tap       {"channel": 0-3, "mag": 0-16383, "phase": 0-65535,
	                 "enable": bool (default true), "apply": bool (default true)}
	POST /apply     commit taps programmed with apply false
	GET  /readback  {"bool": value}
	POST /readback  {"bool": value}
	GET  /lock      {"bool": value}
	POST /lock      {"bool": value}, lock out other clients while measuring`
	fmt.Println(str)
}

func mkconf() {
	c := config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c := config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	err = yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("ku10405srv version %v\n", Version)
}

func run() {
	cfg := config{}
	err := k.Unmarshal("", &cfg)
	if err != nil {
		log.Fatal(err)
	}

	var bus ku10405.Bus
	if cfg.Mock {
		log.Println("mock mode: serving a simulated chip, no hardware access")
		bus = ku10405.NewMockBus()
	} else {
		log.Println("connecting to FT232H; if this hangs, replug the adapter")
		b, err := ft232h.Open(cfg.FTDI, physic.Frequency(cfg.ClockHz)*physic.Hertz)
		if err != nil {
			log.Fatal(err)
		}
		defer b.Close()
		bus = b
	}
	tc, err := ku10405.New(bus, cfg.Readback)
	if err != nil {
		log.Fatal(err)
	}

	w := ku10405.NewHTTPWrapper(tc)
	lock := locker.New()
	locker.Inject(w, lock)

	hndlrS := generichttp.SubMuxSanitize(cfg.Endpoint)
	rootR := chi.NewRouter()
	rootR.Use(middleware.Logger)
	mux := chi.NewRouter()
	mux.Use(lock.Check)
	w.RT().Bind(mux)
	rootR.Mount(hndlrS, mux)
	rootR.Get("/endpoints", func(w2 http.ResponseWriter, r *http.Request) {
		w2.Header().Set("Content-Type", "application/json")
		w2.WriteHeader(http.StatusOK)
		err := json.NewEncoder(w2).Encode(map[string][]string{hndlrS: w.RT().Endpoints()})
		if err != nil {
			http.Error(w2, err.Error(), http.StatusInternalServerError)
		}
	})
	log.Println("now listening for requests at ", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, rootR))
}

func main() {
	var cmd string
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	setupconfig()
	cmd = args[1]
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "help":
		help()
		return
	case "mkconf":
		mkconf()
		return
	case "conf":
		printconf()
		return
	case "run":
		run()
		return
	case "version":
		pversion()
		return
	default:
		log.Fatal("unknown command")
	}
}
