package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/send-gcode/pkg/comm"
	"github.com/robotalks/send-gcode/pkg/config"
	fx "github.com/robotalks/send-gcode/pkg/framework"
	"github.com/robotalks/send-gcode/pkg/gcode"
	"github.com/robotalks/send-gcode/pkg/metrics"
	"github.com/robotalks/send-gcode/pkg/report"
)

// Version is set at build time.
var Version = "dev"

var (
	showVersion bool
	listPorts   bool
)

func init() {
	config.SetupFlags()
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.BoolVar(&listPorts, "list", false, "List serial ports and exit")
	flag.Set("logtostderr", "true")
}

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	defer glog.Flush()

	if showVersion {
		fmt.Println(Version)
		return 0
	}
	if listPorts {
		ports, err := comm.ListPorts()
		if err != nil {
			return fail(err)
		}
		for _, port := range ports {
			fmt.Println(port)
		}
		return 0
	}

	conf, err := config.Default().Resolve(flag.CommandLine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if err == config.ErrNoFile {
			flag.Usage()
		}
		return 2
	}

	src, err := ioutil.ReadFile(conf.File)
	if err != nil {
		return fail(err)
	}
	if err = send(conf, src); err != nil {
		return fail(err)
	}
	return 0
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return 1
}

func send(conf *config.Config, src []byte) error {
	runner := fx.NewRunner().HandleSignals()
	runner.StopOnError = true

	opts := gcode.Options{
		Verbose:       conf.Verbose,
		RetryOnResend: conf.RetryOnResend,
	}
	var observers gcode.Observers
	if conf.MetricsAddr != "" {
		reg := metrics.NewRegistry()
		collector := metrics.NewCollector(reg)
		observers = append(observers, collector)
		opts.StatusHandler = collector
		runner.Go(fx.NamedRun("metrics", metrics.NewServer(conf.MetricsAddr, reg)))
	}
	if conf.MQTTBrokerURL != "" {
		pub, err := report.NewPublisherFromURL(conf.MQTTBrokerURL, conf.ReporterID)
		if err != nil {
			runner.Stop()
			runner.Wait()
			return err
		}
		glog.Infof("reporting progress to %s", pub.Topic())
		observers = append(observers, pub)
		runner.Go(fx.NamedRun("mqtt", pub))
	}
	if len(observers) > 0 {
		opts.Observer = observers
	}

	sender, err := gcode.Open(conf.CommConfig(), src, opts)
	if err != nil {
		runner.Stop()
		runner.Wait()
		return err
	}
	glog.Infof("sending %s (%d bytes) to %s at %d bps", conf.File, len(src), conf.Port, conf.BaudRate)

	err = fx.NewEventLoop(sender.Done, sender.Events()...).Run(runner.Context)
	sender.Close()
	progress := sender.Progress()
	glog.Infof("sent %d frames, %d/%d bytes", progress.Frames, progress.Consumed, progress.Total)

	runner.Stop()
	werr := runner.Wait()
	switch {
	case err == context.Canceled && werr != nil:
		// a background failure stopped the loop
		return werr
	case err == context.Canceled:
		return errors.New("interrupted")
	case err == nil:
		return werr
	}
	return err
}
