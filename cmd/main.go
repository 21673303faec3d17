package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Septrum101/update-ddns/common/logger"
	"github.com/Septrum101/update-ddns/config"
	"github.com/Septrum101/update-ddns/controller"
	"github.com/Septrum101/update-ddns/helper"
)

const (
	exitOK = iota
	exitRuntime
	exitConfig
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	args, err := helper.ExpandArgFiles(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfig
	}

	fs := config.NewFlagSet()
	fs.Usage = func() {
		config.ShowVersion()
		fmt.Fprintf(os.Stderr, "\nUsage: %s [flags] [name ...]\n\n%s", config.AppName, fs.FlagUsages())
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}
	if v, _ := fs.GetBool("version"); v {
		fmt.Println(config.Version())
		return exitOK
	}

	v, err := config.New(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfig
	}
	c, err := load(v, fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfig
	}

	l, err := logger.New(logger.Options{Level: c.LogLevel(), File: c.LogFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfig
	}
	defer l.Close()

	s, err := controller.New(c, l)
	if err != nil {
		l.Error(err)
		return exitConfig
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.Every == 0 {
		if err := s.Run(ctx); err != nil {
			l.Error(err)
			return exitRuntime
		}
		return exitOK
	}

	if err := s.Start(ctx); err != nil {
		l.Error(err)
		return exitConfig
	}

	d := &daemon{v: v, args: fs.Args(), log: l, srv: s, lastTime: time.Now()}
	// hot reload configure
	if v.ConfigFileUsed() != "" {
		v.OnConfigChange(func(e fsnotify.Event) { d.reload(ctx, e) })
		v.WatchConfig()
	}

	<-ctx.Done()
	d.close()
	return exitOK
}

// daemon owns the running server of scheduled mode and swaps it on config changes.
type daemon struct {
	sync.Mutex
	v        *viper.Viper
	args     []string
	log      log.FieldLogger
	srv      *controller.Server
	lastTime time.Time
}

// reload replaces the server when the changed file is valid. An invalid file
// keeps the running one.
func (d *daemon) reload(ctx context.Context, e fsnotify.Event) {
	d.Lock()
	defer d.Unlock()
	if !time.Now().After(d.lastTime.Add(time.Second * 3)) {
		return
	}
	d.lastTime = time.Now()

	d.log.Warnln("Config file changed:", e.Name)
	c, err := load(d.v, d.args)
	if err != nil {
		d.log.Errorf("Keeping current configuration: %v", err)
		return
	}
	if c.Every == 0 {
		d.log.Error("Keeping current configuration: every must stay set while running")
		return
	}
	s, err := controller.New(c, d.log)
	if err != nil {
		d.log.Errorf("Keeping current configuration: %v", err)
		return
	}

	// release server resource
	d.srv.Close()
	d.srv = s
	if err := d.srv.Start(ctx); err != nil {
		d.log.Error(err)
	}
}

func (d *daemon) close() {
	d.Lock()
	defer d.Unlock()
	d.srv.Close()
}

func load(v *viper.Viper, args []string) (*config.Config, error) {
	c, err := config.Load(v, args)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(controller.Providers()); err != nil {
		return nil, err
	}
	return c, nil
}
