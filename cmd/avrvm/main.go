// Command avrvm loads a raw AVR program image and runs it, either
// headlessly or under the step debugger. It is the minimal process entry
// point spec.md leaves to "external collaborators" — grounded on the
// teacher's main.go (flag-driven CLI, recover-and-report on a critical
// fault) but built on cobra subcommands instead of a single flag.Bool.
package main

import (
	"fmt"
	"os"

	"avrvm/avr"
	"avrvm/internal/debugui"
	"avrvm/internal/obslog"

	"github.com/spf13/cobra"
)

var (
	flagVCCMillivolts uint16
	flagHaltOnNOP     bool
	flagJIT           bool
	flagConfig        string
	flagVerbose       bool
	flagLogFile       string
)

func main() {
	root := &cobra.Command{
		Use:   "avrvm <program.bin>",
		Short: "Run or debug a raw AVR program image",
	}
	root.PersistentFlags().Uint16Var(&flagVCCMillivolts, "vcc-millivolts", 0, "supply voltage override (0 = use board config)")
	root.PersistentFlags().BoolVar(&flagHaltOnNOP, "halt-on-nop", false, "halt the core the first time it executes a NOP")
	root.PersistentFlags().BoolVar(&flagJIT, "jit", false, "run whole cached basic blocks per step instead of one instruction")
	root.PersistentFlags().StringVar(&flagConfig, "board", "", "path to an avrvm.yaml board config file")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "also log step-loop diagnostics to stderr")
	root.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "with -v, additionally fan diagnostics out to this file")

	root.AddCommand(runCmd(), debugCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <program.bin>",
		Short: "Run a program to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cpu, err := newCPU(args[0])
			if err != nil {
				return err
			}
			defer recoverAsFault(cpu)
			return cpu.Run()
		},
	}
}

func debugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "debug <program.bin>",
		Short: "Single-step the program under a full-screen TUI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cpu, err := newCPU(args[0])
			if err != nil {
				return err
			}
			defer recoverAsFault(cpu)
			return debugui.Run(cpu)
		},
	}
}

func newCPU(path string) (*avr.CPU, error) {
	image, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading program image: %w", err)
	}

	board, err := avr.LoadBoard(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagVCCMillivolts != 0 {
		board.VCCMillivolts = flagVCCMillivolts
	}

	bus, err := avr.NewBus(image, board)
	if err != nil {
		return nil, fmt.Errorf("loading program image: %w", err)
	}

	cpu := avr.NewCPU(bus, flagHaltOnNOP)
	cpu.SetLogger(obslog.New(flagVerbose, flagLogFile))
	if flagJIT {
		cpu.EnableJIT()
	}
	return cpu, nil
}

// recoverAsFault mirrors the teacher's getDefaultRecoverFuncForVM: a panic
// escaping the step loop (an indexing bug, not a modeled ProgramError) is
// reported with the core's position instead of a bare Go stack trace.
func recoverAsFault(cpu *avr.CPU) {
	if r := recover(); r != nil {
		fmt.Fprintf(os.Stderr, "pc=%#04x: unrecoverable fault: %v\n", cpu.PC, r)
		os.Exit(1)
	}
}
