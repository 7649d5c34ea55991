package main

import (
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/olivere/actionqueue"
	"github.com/olivere/actionqueue/metrics"
)

// scenario configures the random actions enqueued by the e2e test.
// Flags set the defaults, a YAML file given with -config overrides them.
type scenario struct {
	FillTime     time.Duration `yaml:"fill_time"`
	RunTime      time.Duration `yaml:"run_time"`
	LogInterval  time.Duration `yaml:"log_interval"`
	NumRetries   int           `yaml:"num_retries"`
	FailureRate  float64       `yaml:"failure_rate"`
	NotReadyRate float64       `yaml:"not_ready_rate"`
	Actions      []string      `yaml:"actions"`
}

func main() {
	var (
		fillTime     = flag.Duration("fill-time", 500*time.Millisecond, "max fill time")
		runTime      = flag.Duration("run-time", 500*time.Millisecond, "max run time")
		logInterval  = flag.Duration("log-interval", 1*time.Second, "log interval for stats")
		numRetries   = flag.Int("num-retries", 2, "number of retries per action")
		failureRate  = flag.Float64("failure-rate", 0.05, "failure rate [0.0,1.0]")
		notReadyRate = flag.Float64("not-ready-rate", 0.1, "not ready rate [0.0,1.0]")
		config       = flag.String("config", "", "YAML scenario file")
		metricsAddr  = flag.String("metrics-addr", "", "HTTP bind address for Prometheus metrics, e.g. 127.0.0.1:9090")
	)
	flag.Parse()

	logger := log.NewJSONLogger(os.Stdout)
	logger = log.With(logger, "t", log.DefaultTimestamp)

	sc := &scenario{
		FillTime:     *fillTime,
		RunTime:      *runTime,
		LogInterval:  *logInterval,
		NumRetries:   *numRetries,
		FailureRate:  *failureRate,
		NotReadyRate: *notReadyRate,
		Actions:      []string{"a", "b", "c"},
	}
	if *config != "" {
		if err := loadScenario(*config, sc); err != nil {
			logger.Log("err", err)
			os.Exit(1)
		}
	}
	if err := sc.validate(); err != nil {
		logger.Log("err", err)
		os.Exit(1)
	}

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	var options []actionqueue.ExecutorOption
	options = append(options, actionqueue.SetLogger(wrapKitLogger{logger}))
	options = append(options, actionqueue.SetOnStatusChange(collector.StatusChanged))
	options = append(options, actionqueue.SetOnEmptyQueue(collector.QueueEmptied))
	options = append(options, actionqueue.SetInterceptor(actionqueue.TagErrors))
	options = append(options, actionqueue.SetShouldRetryOnError(actionqueue.RetryOnStatus(
		http.StatusInternalServerError,
		http.StatusServiceUnavailable,
	)))
	e := actionqueue.New(options...)
	defer e.Close()

	errc := make(chan error, 1)

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Log("msg", "metrics server started", "addr", *metricsAddr)
			errc <- http.ListenAndServe(*metricsAddr, mux)
		}()
	}

	go func() {
		errc <- enqueuer(e, sc, logger)
	}()

	go statsLogger(e, sc.LogInterval, logger)

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGTERM, syscall.SIGINT)
		logger.Log("signal", fmt.Sprint(<-c))
		errc <- e.Close()
	}()

	if err := <-errc; err != nil {
		logger.Log("err", err)
		os.Exit(1)
	} else {
		logger.Log("msg", "exiting")
	}
}

func loadScenario(filename string, sc *scenario) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, sc); err != nil {
		return fmt.Errorf("parse %s: %w", filename, err)
	}
	return nil
}

func (sc *scenario) validate() error {
	if sc.FillTime <= 0 || sc.RunTime <= 0 || sc.LogInterval <= 0 {
		return fmt.Errorf("fill time, run time and log interval must be positive")
	}
	if len(sc.Actions) == 0 {
		return fmt.Errorf("no actions configured")
	}
	if sc.FailureRate+sc.NotReadyRate > 1 {
		return fmt.Errorf("failure rate and not ready rate must not exceed 1.0 in sum")
	}
	return nil
}

func enqueuer(e *actionqueue.Executor, sc *scenario, logger log.Logger) error {
	fillTimeNanos := sc.FillTime.Nanoseconds()
	for i := 0; ; i++ {
		time.Sleep(time.Duration(rand.Int63n(fillTimeNanos)) * time.Nanosecond)
		name := sc.Actions[rand.Intn(len(sc.Actions))]
		action := makeAction(fmt.Sprintf("%s-%d", name, i), sc)
		err := e.Enqueue(action, func(err error, values ...interface{}) {
			if err != nil {
				logger.Log("action", action.Name, "err", err)
			}
		})
		if errors.Is(err, actionqueue.ErrClosed) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func statsLogger(e *actionqueue.Executor, d time.Duration, logger log.Logger) {
	t := time.NewTicker(d)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			ss, err := e.Stats()
			if err == nil {
				logger.Log(
					"msg", "stats",
					"enqueued", ss.Enqueued,
					"started", ss.Started,
					"not_ready", ss.NotReady,
					"retried", ss.Retried,
					"failed", ss.Failed,
					"completed", ss.Completed,
					"queue_size", ss.QueueSize,
				)
			}
		}
	}
}

// makeAction returns an action that runs asynchronously and randomly
// reports success, a transient failure, or that it is not ready.
func makeAction(name string, sc *scenario) *actionqueue.Action {
	runTimeNanos := sc.RunTime.Nanoseconds()
	return &actionqueue.Action{
		Name:    name,
		Retries: sc.NumRetries,
		Execute: func(actx interface{}, done actionqueue.Callback) {
			go func() {
				time.Sleep(time.Duration(rand.Int63n(runTimeNanos)) * time.Nanosecond)
				switch p := rand.Float64(); {
				case p < sc.NotReadyRate:
					done(actionqueue.ErrNotReady)
				case p < sc.NotReadyRate+sc.FailureRate/2:
					done(&actionqueue.StatusError{Status: http.StatusInternalServerError})
				case p < sc.NotReadyRate+sc.FailureRate:
					done(&actionqueue.StatusError{Status: http.StatusServiceUnavailable})
				default:
					done(nil, name)
				}
			}()
		},
	}
}

type wrapKitLogger struct {
	log.Logger
}

func (logger wrapKitLogger) Printf(format string, v ...interface{}) {
	logger.Log("msg", fmt.Sprintf(format, v...))
}
