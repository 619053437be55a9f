// taptest pokes a KU10405 from the command line: set one tap, sweep the phase
// of a channel, or just check that the FT232H is visible on the USB bus.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/theckman/yacspin"
	"golang.org/x/time/rate"
	"periph.io/x/conn/v3/physic"

	"github.com/nasa-jpl/ku10405/ft232h"
	"github.com/nasa-jpl/ku10405/ku10405"
)

func main() {
	var (
		channel  = flag.Int("channel", 0, "channel to program, 0-3")
		mag      = flag.Int("mag", 0, "magnitude control bits, 0-16383")
		phase    = flag.Int("phase", 0, "phase control bits, 0-65535")
		enable   = flag.Bool("enable", true, "enable the channel output")
		apply    = flag.Bool("apply", true, "commit immediately")
		readback = flag.Bool("readback", true, "verify writes against their echoes")
		ftdiAddr = flag.String("ftdi", ft232h.DefaultAddr, "adapter selection fragment")
		clockHz  = flag.Int64("clock", 8000000, "SPI clock rate, Hz")
		mock     = flag.Bool("mock", false, "run against a simulated chip")
		detect   = flag.Bool("detect", false, "only check for an FT232H on the USB bus")
		sweep    = flag.Bool("sweep", false, "sweep phase over the full range on -channel")
		step     = flag.Int("step", 256, "phase increment per sweep point")
		rateHz   = flag.Float64("rate", 50, "sweep points per second")
	)
	flag.Parse()

	if *detect {
		if err := ft232h.Detect(); err != nil {
			log.Fatal(err)
		}
		log.Println("FT232H present")
		return
	}

	var bus ku10405.Bus
	if *mock {
		bus = ku10405.NewMockBus()
	} else {
		spinner, err := yacspin.New(yacspin.Config{
			Frequency:     100 * time.Millisecond,
			CharSet:       yacspin.CharSets[59],
			Suffix:        " connecting to FT232H",
			StopCharacter: "✓",
		})
		if err != nil {
			log.Fatal(err)
		}
		spinner.Start()
		b, err := ft232h.Open(*ftdiAddr, physic.Frequency(*clockHz)*physic.Hertz)
		spinner.Stop()
		if err != nil {
			log.Fatal(err)
		}
		defer b.Close()
		bus = b
	}

	tc, err := ku10405.New(bus, *readback)
	if err != nil {
		log.Fatal(err)
	}

	if *sweep {
		// pace the sweep so the scope trace is readable and the chip's analog
		// side has settled between points
		lim := rate.NewLimiter(rate.Limit(*rateHz), 1)
		ctx := context.Background()
		log.Printf("sweeping channel %d phase 0..65535 step %d at %.0f pts/s", *channel, *step, *rateHz)
		for p := 0; p <= 65535; p += *step {
			if err := lim.Wait(ctx); err != nil {
				log.Fatal(err)
			}
			if err := tc.SetTap(*channel, *mag, p, *enable, *apply); err != nil {
				log.Fatalf("phase %d: %v", p, err)
			}
		}
		log.Println("sweep complete")
		return
	}

	if err := tc.SetTap(*channel, *mag, *phase, *enable, *apply); err != nil {
		log.Fatal(err)
	}
	log.Printf("channel %d set to mag %d phase %d (enable=%v apply=%v)", *channel, *mag, *phase, *enable, *apply)
}
