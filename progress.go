package main

import (
	"fmt"
	"sync"

	"github.com/pterm/pterm"
)

// spinnerProgress renders one spinner per workflow step.
type spinnerProgress struct {
	mu       sync.Mutex
	printer  pterm.MultiPrinter
	spinners map[string]*pterm.SpinnerPrinter
}

func newSpinnerProgress() *spinnerProgress {
	return &spinnerProgress{
		printer:  pterm.DefaultMultiPrinter,
		spinners: make(map[string]*pterm.SpinnerPrinter),
	}
}

func (p *spinnerProgress) begin() {
	_, _ = p.printer.Start()
}

func (p *spinnerProgress) end() {
	_, _ = p.printer.Stop()
}

func (p *spinnerProgress) Start(step string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	spinner, _ := pterm.DefaultSpinner.WithWriter(p.printer.NewWriter()).Start(step)
	p.spinners[step] = spinner
}

func (p *spinnerProgress) Done(step string, err error) {
	p.mu.Lock()
	spinner, ok := p.spinners[step]
	delete(p.spinners, step)
	p.mu.Unlock()

	if !ok || spinner == nil {
		return
	}
	if err != nil {
		spinner.Fail(fmt.Sprintf("%s: %v", step, err))
		return
	}
	spinner.Success(step)
}
