// Command ironsight-monitor is a terminal dashboard for a connected
// Mevo+/Gen2 device: a status pane and a scrolling shot-history pane,
// modeled on the teacher's gocui status/list layout.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/jroimartin/gocui"
	"github.com/sirupsen/logrus"

	"github.com/divotmaker/ironsight/mevo"
	"github.com/divotmaker/ironsight/transport"
)

type dashboard struct {
	client     *mevo.Client
	shots      []string
	lastErr    error
	lastPollAt time.Time
}

func (d *dashboard) update(g *gocui.Gui) error {
	s, err := g.View("status")
	if err != nil {
		return nil
	}
	s.Clear()
	if d.client.DeviceKind() != mevo.DeviceUnknown {
		fmt.Fprintf(s, " DEVICE: %s\n", d.client.DeviceKind())
	} else {
		fmt.Fprintf(s, " DEVICE: (connecting)\n")
	}
	armed := "no"
	if d.client.Armed() {
		armed = "yes"
	}
	fmt.Fprintf(s, " ARMED: %s  LAST POLL: %s\n", armed, d.lastPollAt.Format("15:04:05"))
	if d.lastErr != nil {
		fmt.Fprintf(s, " LAST ERROR: %s\n", d.lastErr)
	}

	l, err := g.View("shots")
	if err != nil {
		return nil
	}
	l.Clear()
	fmt.Fprintln(l, " TIME      SHOT ID")
	fmt.Fprintln(l, " ========  ========================")
	for _, line := range d.shots {
		fmt.Fprintln(l, line)
	}
	return nil
}

func (d *dashboard) pollOnce(g *gocui.Gui) {
	events, err := d.client.Poll()
	d.lastPollAt = time.Now()
	if err != nil {
		d.lastErr = err
		g.Update(d.update)
		return
	}
	for _, ev := range events {
		switch ev.Kind {
		case mevo.EventShot:
			line := fmt.Sprintf(" %s  %s", time.Now().Format("15:04:05"), ev.Shot.ID.String())
			d.shots = append([]string{line}, d.shots...)
			if len(d.shots) > 50 {
				d.shots = d.shots[:50]
			}
		case mevo.EventProtocolError:
			d.lastErr = ev.Err
		}
	}
	g.Update(d.update)
}

func layout(g *gocui.Gui) error {
	const maxX = 80
	_, maxY := g.Size()

	v, _ := g.SetView("status", 0, 0, maxX-2, 3)
	v.Title = " IRONSIGHT "
	fmt.Fprintln(v, " connecting...")

	v, _ = g.SetView("shots", 0, 4, maxX-2, maxY-1)
	v.Title = " SHOTS "
	return nil
}

func quit(*gocui.Gui, *gocui.View) error {
	return gocui.ErrQuit
}

func main() {
	addr := flag.String("addr", "192.168.1.1:5100", "device host:port")
	flag.Parse()

	stream, err := transport.Dial(*addr, 5*time.Second)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer stream.Close()

	cfg := mevo.DefaultConfig()
	cfg.Logger = logrus.StandardLogger()

	client, err := mevo.NewClient(stream, cfg)
	if err != nil {
		log.Fatalf("new client: %v", err)
	}
	client.ConnectAndHandshake()

	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		log.Panicln(err)
	}
	defer g.Close()

	g.SetManagerFunc(layout)
	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, quit); err != nil {
		log.Panicln(err)
	}

	d := &dashboard{client: client}

	go func() {
		for range time.Tick(20 * time.Millisecond) {
			d.pollOnce(g)
		}
	}()

	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		log.Panicln(err)
	}
}
