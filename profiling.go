package main

import (
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"sync"
)

// startCPUProfile begins capturing a CPU profile of the simulation run. The
// returned stop function is idempotent and reports where the profile landed,
// in the same per-run log style as the stats report.
func startCPUProfile(path string) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating profile file: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("starting CPU profile: %w", err)
	}
	log.Printf("capturing CPU profile to %s", path)

	var once sync.Once
	stop := func() {
		once.Do(func() {
			pprof.StopCPUProfile()
			if err := f.Close(); err != nil {
				log.Printf("closing CPU profile: %v", err)
				return
			}
			log.Printf("CPU profile written to %s", path)
		})
	}
	return stop, nil
}
