package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tickos/hal"
	"tickos/internal/trace"
	"tickos/internal/vis"
	"tickos/kernel"
)

func newRunCmd() *cobra.Command {
	var (
		workers    int
		bursts     int
		burstTicks int64
		ioTicks    int64
		showVis    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a CPU/IO burst workload and report scheduling statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if workers < 1 || workers > 64 {
				return fmt.Errorf("workers must be in 1..64, got %d", workers)
			}
			if bursts < 1 || burstTicks < 1 || ioTicks < 1 {
				return fmt.Errorf("bursts, burst-ticks and io-ticks must be positive")
			}

			var tr *trace.Trace
			opts := kernel.Options{
				StackWords:        cfg.StackWords,
				InitialPrediction: cfg.InitialPrediction,
			}
			if cfg.TraceCap > 0 {
				tr = trace.New(cfg.TraceCap)
				opts.Tracer = tr
			}

			k := kernel.New(opts)
			k.Bootstrap("main")

			if cfg.TimerInterval > 0 {
				hal.NewTimer(k.Interrupt, cfg.TimerInterval, k.Interrupt.Preempt)
			}

			runWorkload(k, workers, bursts, burstTicks, ioTicks)

			fmt.Println(k.Stats.Summary())

			if showVis {
				if tr == nil {
					return fmt.Errorf("tracing disabled (trace_cap is 0), nothing to show")
				}
				return vis.Show(tr)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 4, "Number of worker threads")
	cmd.Flags().IntVar(&bursts, "bursts", 8, "CPU/IO burst cycles per worker")
	cmd.Flags().Int64Var(&burstTicks, "burst-ticks", 200, "CPU ticks per burst")
	cmd.Flags().Int64Var(&ioTicks, "io-ticks", 500, "Simulated IO latency in ticks")
	cmd.Flags().BoolVar(&showVis, "vis", false, "Open a timeline window when the workload completes")

	return cmd
}

// runWorkload forks workers that alternate CPU bursts with simulated IO,
// then blocks the main thread until every worker has finished.
func runWorkload(k *kernel.Kernel, workers, bursts int, burstTicks, ioTicks int64) {
	main := k.CurrentThread()
	completed := 0

	body := func(arg any) {
		which := arg.(int)
		// Stagger burst lengths so the predictor has something to learn:
		// worker i runs bursts of (i+1) * burstTicks.
		myBurst := int64(which+1) * burstTicks

		for b := 0; b < bursts; b++ {
			spin(k, myBurst)
			blockForIO(k, ioTicks)
		}

		k.Interrupt.SetLevel(hal.IntOff)
		completed++
		if completed == workers {
			k.Scheduler.ReadyToRun(main)
		}
		k.Interrupt.SetLevel(hal.IntOn)
	}

	for i := 0; i < workers; i++ {
		t := k.NewThread(fmt.Sprintf("worker-%d", i))
		t.Fork(body, i)
	}

	k.Interrupt.SetLevel(hal.IntOff)
	for completed < workers {
		main.Sleep(false)
	}
	k.Interrupt.SetLevel(hal.IntOn)
}

// spin burns CPU time by bouncing the interrupt level, which advances the
// clock one system tick per round trip and leaves a safe point for
// preemption.
func spin(k *kernel.Kernel, ticks int64) {
	for burned := int64(0); burned < ticks; burned += hal.SystemTick {
		k.Interrupt.SetLevel(hal.IntOff)
		k.Interrupt.SetLevel(hal.IntOn)
	}
}

// blockForIO parks the current thread until a completion interrupt fires
// ioTicks from now.
func blockForIO(k *kernel.Kernel, ioTicks int64) {
	k.Interrupt.SetLevel(hal.IntOff)
	self := k.CurrentThread()
	k.Interrupt.Schedule(func() {
		k.Scheduler.ReadyToRun(self)
	}, ioTicks, "io-complete")
	self.Sleep(false)
	k.Interrupt.SetLevel(hal.IntOn)
}
