package procutil

import (
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/process"

	"github.com/driftlabs/webcheck/pkg/logger"
)

const killWait = 10 * time.Second

// FindByName returns every process whose name, executable basename, or
// first command-line argument equals name.
func FindByName(name string) []*process.Process {
	log := logger.WithComponent("procutil")

	procs, err := process.Processes()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to list processes")
		return nil
	}

	var matched []*process.Process
	for _, p := range procs {
		if pname, err := p.Name(); err == nil && pname == name {
			matched = append(matched, p)
			continue
		}
		if exe, err := p.Exe(); err == nil && exe != "" && filepath.Base(exe) == name {
			matched = append(matched, p)
			continue
		}
		if cmdline, err := p.CmdlineSlice(); err == nil && len(cmdline) > 0 && cmdline[0] == name {
			matched = append(matched, p)
		}
	}
	return matched
}

// PidsByName returns the pids of every process matching name.
func PidsByName(name string) []int32 {
	procs := FindByName(name)
	pids := make([]int32, 0, len(procs))
	for _, p := range procs {
		pids = append(pids, p.Pid)
	}
	return pids
}

// KillByName kills every matching process and waits for them to exit.
// Best-effort: failures are logged, never propagated.
func KillByName(name string) {
	log := logger.WithComponent("procutil")

	procs := FindByName(name)
	for _, p := range procs {
		if err := p.Kill(); err != nil {
			log.Warn().Err(err).Int32("pid", p.Pid).Str("name", name).Msg("Failed to kill process")
		}
	}
	waitGone(procs)
}

func waitGone(procs []*process.Process) {
	deadline := time.Now().Add(killWait)
	for _, p := range procs {
		for time.Now().Before(deadline) {
			running, err := p.IsRunning()
			if err != nil || !running {
				break
			}
			time.Sleep(100 * time.Millisecond)
		}
	}
}
